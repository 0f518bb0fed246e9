// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ecmatrix is for documentation only.
//
// It hosts a driver for electrostatic capacitive (EC) key matrices: boards
// that read each key as an analog capacitance rather than a digital switch
// contact, strobing one row at a time through a shared ADC channel.
//
// kscan implements the driver itself: calibration, per-cell normalization,
// hysteretic press/release detection, and the idle-aware scan cadence.
// devices/matrixview renders a live key-state grid to a terminal.
// cmd/ecmatrix-cal and cmd/ecmatrix-monitor are command-line front ends for
// calibrating a board and watching it scan, respectively.
//
// Nothing here needs cgo: every backend is reached through periph.io's conn
// interfaces (conn/gpio, experimental/conn/analog), so any host or expander driver that
// implements them works without platform-specific build steps.
package ecmatrix
