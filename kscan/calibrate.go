// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kscan

import (
	"time"

	"periph.io/x/periph/conn/gpio"
)

// runCalibration performs the two-phase calibration sweep: an automatic low
// baseline pass over every enabled cell, followed by a user-driven high
// value pass that polls until every enabled cell has been pressed at least
// once. It must be called with the device mutex already held and runs on
// the same goroutine as scan sweeps, so the two never overlap.
//
// It has no time budget for the high-value pass: a cell whose key is never
// pressed leaves calibration running indefinitely, since there is no way
// to tell "not pressed yet" apart from "never going to be pressed." See
// DESIGN.md for the Open Question this resolves.
func (d *Dev) runCalibration(cb CalibrationEventFunc) {
	emit := func(ev CalibrationEvent) {
		if cb != nil {
			cb(ev)
		}
	}

	emit(CalibrationEvent{Kind: LowSamplingStart})

	if d.desc.Power != nil {
		if err := d.desc.Power.Out(gpio.High); err != nil {
			logPowerErr(err)
		}
		busyWait(d.desc.MatrixWarmUp)
	}

	// Flush ADC startup transients with one discarded read.
	d.readRaw(0, 0)

	strobes, inputs := len(d.desc.Strobes), len(d.desc.Inputs)
	remaining := 0
	for s := 0; s < strobes; s++ {
		for r := 0; r < inputs; r++ {
			if d.desc.masked(s, r) {
				continue
			}
			*d.cal.at(s, r) = CalEntry{}
			res := d.sample(s, r)
			*d.cal.at(s, r) = CalEntry{AvgLow: res.mean, Noise: res.noise}
			remaining++
			emit(CalibrationEvent{
				Kind:   PositionLowDetermined,
				Strobe: s,
				Input:  r,
				LowAvg: res.mean,
				Noise:  res.noise,
			})
		}
	}

	emit(CalibrationEvent{Kind: HighSamplingStart})

	highThreshold := uint16(1) << (d.desc.ADCBits - 1)
	for remaining > 0 {
		for s := 0; s < strobes; s++ {
			for r := 0; r < inputs; r++ {
				if d.desc.masked(s, r) {
					continue
				}
				entry := d.cal.at(s, r)
				if entry.AvgHigh > 0 {
					continue
				}

				if d.readRaw(s, r) < highThreshold {
					continue
				}
				time.Sleep(time.Millisecond)
				// Double-check to filter transient spikes.
				if d.readRaw(s, r) < highThreshold {
					continue
				}
				// Let the key settle at full depression.
				time.Sleep(200 * time.Millisecond)

				res := d.sample(s, r)
				entry.AvgHigh = res.mean
				if res.noise > entry.Noise {
					entry.Noise = res.noise
				}
				remaining--

				ev := CalibrationEvent{
					Kind:    PositionComplete,
					Strobe:  s,
					Input:   r,
					LowAvg:  entry.AvgLow,
					HighAvg: entry.AvgHigh,
					Noise:   entry.Noise,
				}
				if entry.Noise != 0 {
					ev.SNR = float64(int32(entry.AvgHigh)-int32(entry.AvgLow)+int32(entry.Noise)) / float64(entry.Noise)
					ev.SNRValid = true
				}
				emit(ev)

				time.Sleep(time.Millisecond)
			}
			time.Sleep(time.Millisecond)
		}
		time.Sleep(time.Millisecond)
	}

	if d.desc.Power != nil {
		if err := d.desc.Power.Out(gpio.Low); err != nil {
			logPowerErr(err)
		}
	}

	emit(CalibrationEvent{Kind: Complete})
}
