// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package kscan drives a capacitive electrostatic (EC) key matrix.
//
// Energising a row ("strobe") induces a charge on a column ("input")
// proportional to how far the key above that cell is depressed. An ADC
// samples that charge. Dev continuously translates the analog readings of
// every (strobe, input) cell into a stream of press/release events,
// delivered through a callback, after per-cell calibration and hysteretic
// debouncing.
//
// A single goroutine per Dev owns all hardware access: the calibration
// sweep and the scan sweep never run concurrently, and external entry
// points (Calibrate, AccessCalibration, telemetry readers) synchronize with
// it through a mutex with a bounded wait, so a caller that must not block
// gets ErrBusy back instead of stalling on a slow scan.
package kscan // import "periph.io/x/ecmatrix/kscan"
