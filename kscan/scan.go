// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kscan

import (
	"runtime"

	"periph.io/x/periph/conn/gpio"
)

// runSweep performs one full-matrix scan: it reads every enabled, calibrated
// cell, classifies it, confirms presses over two consecutive sweeps,
// reports immediate releases, and updates the cadence governor's activity
// clock. It must be called with the device mutex held.
func (d *Dev) runSweep() {
	strobes, inputs := len(d.desc.Strobes), len(d.desc.Inputs)
	rows := make([]uint64, strobes)

	if d.desc.Power != nil {
		if err := d.desc.Power.Out(gpio.High); err != nil {
			logPowerErr(err)
		}
		busyWait(d.desc.MatrixWarmUp)
	}

	// Column-major: outer loop over inputs, inner over strobes. This
	// matches the physical ordering, where the column is selected by input
	// pin configuration and all rows sharing it are read in turn.
	for r := 0; r < inputs; r++ {
		for s := 0; s < strobes; s++ {
			if d.desc.masked(s, r) {
				continue
			}
			entry := *d.cal.at(s, r)
			if !entry.usable() {
				continue
			}

			prev := d.matrixState[s]&(1<<uint(r)) != 0
			raw := d.readRaw(s, r)
			norm := Normalize(raw, entry.AvgLow, entry.AvgHigh)
			th := deriveThresholds(entry, d.desc.TriggerPercentage)
			if decide(prev, norm, th) {
				rows[s] |= 1 << uint(r)
			}

			runtime.Gosched()
		}
		runtime.Gosched()
	}

	if d.desc.Power != nil {
		if err := d.desc.Power.Out(gpio.Low); err != nil {
			logPowerErr(err)
		}
	}

	haveChange, haveKeys := false, false
	diffs := make([]uint64, strobes)
	for s := 0; s < strobes; s++ {
		diffs[s] = rows[s] & d.matrixState[s]
		d.matrixState[s] = rows[s]
	}

	for s := 0; s < strobes; s++ {
		diff := diffs[s]
		for r := 0; r < inputs; r++ {
			bit := uint64(1) << uint(r)
			was := d.reportedMatrixState[s]&bit != 0
			is := diff&bit != 0
			if was != is {
				haveChange = true
				if d.keyEventCB != nil {
					d.keyEventCB(s, r, is)
				}
			}
		}
		d.reportedMatrixState[s] = diff
		haveKeys = haveKeys || diff != 0
	}

	if haveChange {
		if haveKeys {
			d.lastReleaseTimestamp = zeroTime
		} else {
			d.lastReleaseTimestamp = now()
		}
	}
}
