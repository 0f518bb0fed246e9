// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kscan

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/experimental/conn/analog"
)

// FullScale is the normalised output range of Normalize: raw ADC samples are
// rescaled to [0, FullScale].
const FullScale = 1<<16 - 1

// Descriptor describes one key matrix instance: its wired hardware and its
// timing and cadence configuration. The caller resolves pins (for example
// via gpioreg) and fills in a Descriptor per physical device; multiple
// instances are simply multiple Descriptor values passed to New.
type Descriptor struct {
	// Strobes are the row drive pins, strobes[s] energises row s.
	Strobes []gpio.PinIO
	// Inputs are the column sense pins, read through ADC.
	Inputs []gpio.PinIn
	// ADC is the analog channel shared by all cells.
	ADC analog.PinADC

	// Power is the optional matrix power rail.
	Power gpio.PinIO
	// Drain is the optional column drain, driven active-low.
	Drain gpio.PinIO
	// FakeOpenDrain selects reconfiguring Drain between input and output
	// instead of driving it high, when the board lacks a true open-drain pin.
	FakeOpenDrain bool

	// StrobeInputMasks, if non-nil, has one entry per strobe: bit r set means
	// cell (s, r) is physically absent and must never be read or reported.
	StrobeInputMasks []uint32

	// MatrixWarmUp is how long to wait after asserting Power before the first
	// read of a batch (calibration pass or scan sweep).
	MatrixWarmUp time.Duration
	// MatrixRelax is how long to let the column line settle after the input
	// pin is configured, before the critical section begins.
	MatrixRelax time.Duration
	// ADCReadSettle is how long to wait between asserting the strobe and
	// triggering the ADC conversion.
	ADCReadSettle time.Duration

	// ScanRate, when nonzero, sets ActivePollInterval from its period
	// (ScanRate.Period()) instead of requiring the caller to convert an
	// electrical scan rate to a raw duration by hand. ActivePollInterval is
	// used as given when ScanRate is zero.
	ScanRate physic.Frequency

	// ActivePollInterval is the sweep-to-sweep sleep while a key is held or
	// polling is static. Overridden by ScanRate when that field is set.
	ActivePollInterval time.Duration
	// IdlePollInterval and SleepPollInterval are used instead of
	// ActivePollInterval once the matrix has been quiescent for IdleAfter,
	// respectively SleepAfter, when DynamicPolling is set.
	IdlePollInterval  time.Duration
	SleepPollInterval time.Duration
	IdleAfter         time.Duration
	SleepAfter        time.Duration
	// DynamicPolling enables the idle-aware cadence governor. When false,
	// ActivePollInterval is used unconditionally.
	DynamicPolling bool

	// TriggerPercentage is the fraction of the low-high range, measured below
	// avg_high, used as the press threshold. Must be in [11, 89].
	TriggerPercentage uint8

	// ADCBits is the resolution of the raw samples returned by ADC.Read,
	// e.g. 12 for a 12-bit converter. It is used only to derive the
	// high-value candidate threshold during calibration (half of full
	// scale). Defaults to 12 if left zero.
	ADCBits uint8

	// SkipStartupCalibration, when true, makes New seed the calibration table
	// from PrecalibLow/PrecalibHigh instead of requiring a Calibrate call.
	SkipStartupCalibration bool
	// PrecalibLow and PrecalibHigh seed the calibration table when
	// SkipStartupCalibration is true. Both must have Strobes*Inputs entries,
	// strobe-major (index = s*len(Inputs)+r).
	PrecalibLow  []uint16
	PrecalibHigh []uint16

	// PinMuxApply, if set, is invoked once during New, before the pins are
	// driven to their quiescent state, to let a board support package apply
	// a default pin-mux state. Pin multiplexing itself is out of scope for this package.
	PinMuxApply func() error
}

// Errors returned by Descriptor validation and Dev entry points.
var (
	// ErrNotReady is returned by New when a required hardware handle is nil.
	ErrNotReady = errors.New("kscan: hardware not ready")
	// ErrNoCallback is returned by Configure when cb is nil.
	ErrNoCallback = errors.New("kscan: callback must not be nil")
	// ErrBusy is returned when the device mutex could not be acquired within
	// the caller's bound.
	ErrBusy = errors.New("kscan: device busy, try again")
)

func (d *Descriptor) validate() error {
	if d.ScanRate != 0 {
		d.ActivePollInterval = d.ScanRate.Period()
	}
	if len(d.Strobes) == 0 {
		return fmt.Errorf("%w: no strobe pins", ErrNotReady)
	}
	if len(d.Inputs) == 0 {
		return fmt.Errorf("%w: no input pins", ErrNotReady)
	}
	if d.ADC == nil {
		return fmt.Errorf("%w: no ADC channel", ErrNotReady)
	}
	for i, s := range d.Strobes {
		if s == nil {
			return fmt.Errorf("%w: strobe %d is nil", ErrNotReady, i)
		}
	}
	for i, in := range d.Inputs {
		if in == nil {
			return fmt.Errorf("%w: input %d is nil", ErrNotReady, i)
		}
	}
	if len(d.Strobes)*len(d.Inputs) > 4096 {
		return fmt.Errorf("kscan: matrix too large: %d strobes * %d inputs > 4096", len(d.Strobes), len(d.Inputs))
	}
	if len(d.Inputs) > 64 {
		return fmt.Errorf("kscan: %d inputs exceeds the 64-bit per-strobe state word", len(d.Inputs))
	}
	if d.StrobeInputMasks != nil && len(d.StrobeInputMasks) != len(d.Strobes) {
		return fmt.Errorf("kscan: strobe_input_masks has %d entries, want %d", len(d.StrobeInputMasks), len(d.Strobes))
	}
	if d.TriggerPercentage <= 10 || d.TriggerPercentage >= 90 {
		return fmt.Errorf("kscan: trigger_percentage %d must be in (10, 90)", d.TriggerPercentage)
	}
	if d.ADCBits == 0 {
		d.ADCBits = 12
	}
	if d.ADCBits > 16 {
		return fmt.Errorf("kscan: adc_bits %d exceeds 16", d.ADCBits)
	}
	n := len(d.Strobes) * len(d.Inputs)
	if d.SkipStartupCalibration {
		if len(d.PrecalibLow) != n || len(d.PrecalibHigh) != n {
			return fmt.Errorf("kscan: precalib tables must have %d entries each", n)
		}
	}
	return nil
}

// masked reports whether cell (s, r) is disabled via StrobeInputMasks.
func (d *Descriptor) masked(s, r int) bool {
	if d.StrobeInputMasks == nil {
		return false
	}
	return d.StrobeInputMasks[s]&(1<<uint(r)) != 0
}
