// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kscan

import "time"

// KeyEventFunc is invoked for every confirmed press/release transition.
//
// It is called from the device's scan goroutine with the device mutex held,
// strictly in (strobe, input) order within a sweep, and sweeps are totally
// ordered. Implementations must not call back into the Dev that invoked them
// (Enable, Disable, Calibrate, ...): the mutex is already held, so the entry
// points that acquire it block until their bound expires (or forever, for an
// unbounded ctx), and Enable would release it in the middle of the sweep.
//
// A Go closure plays the role that a function pointer plus an opaque
// user-data token would play in C: whatever the callback needs to remember
// between calls, it captures directly instead of threading it through an
// extra parameter.
type KeyEventFunc func(strobe, input int, pressed bool)

// CalibrationEventKind identifies the variant carried by a CalibrationEvent.
type CalibrationEventKind int

const (
	// LowSamplingStart marks the beginning of the automatic low-baseline
	// pass.
	LowSamplingStart CalibrationEventKind = iota
	// PositionLowDetermined reports that one cell's low baseline has been
	// sampled. Strobe, Input, LowAvg and Noise are populated.
	PositionLowDetermined
	// HighSamplingStart marks the beginning of the user-driven high-value
	// pass.
	HighSamplingStart
	// PositionComplete reports that one cell's high value has been sampled
	// and the cell is now fully calibrated. Strobe, Input, LowAvg, HighAvg,
	// Noise and SNR are populated; SNRValid is false when Noise was zero (SNR
	// is undefined in that case and must not be treated as meaningful).
	PositionComplete
	// Complete marks the end of calibration; no more events follow for this
	// Calibrate call.
	Complete
)

// CalibrationEvent reports calibration progress. It is a tagged union:
// which fields are meaningful depends on Kind.
type CalibrationEvent struct {
	Kind    CalibrationEventKind
	Strobe  int
	Input   int
	LowAvg  uint16
	HighAvg uint16
	Noise   uint16
	// SNR is (HighAvg-LowAvg+Noise)/Noise, valid only when SNRValid is true.
	SNR      float64
	SNRValid bool
}

// CalibrationEventFunc is invoked for each CalibrationEvent during a
// Calibrate call, on the same scan goroutine and under the same mutex
// discipline as KeyEventFunc.
type CalibrationEventFunc func(CalibrationEvent)

// ReadTiming breaks a single read_raw cell read down by phase. It exists
// purely for diagnostics: nothing in Dev depends on its values.
type ReadTiming struct {
	Total           time.Duration
	ADCSequenceInit time.Duration
	GPIOInputConfig time.Duration
	Relax           time.Duration
	DrainRelease    time.Duration
	StrobeAssert    time.Duration
	ADCReadSettle   time.Duration
	ADCRead         time.Duration
	StrobeDeassert  time.Duration
	DrainReengage   time.Duration
	InputDisconnect time.Duration
}

// PMAction is a power-management request bridged to Enable/Disable.
type PMAction int

const (
	// Suspend disables scanning; equivalent to calling Disable.
	Suspend PMAction = iota
	// Resume re-enables scanning; equivalent to calling Enable.
	Resume
)
