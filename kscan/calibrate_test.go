// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kscan

import "testing"

// scriptedCalibration builds the exact ADC call sequence one single-cell
// calibration pass makes: one discarded warm-up read, 20 low-baseline
// samples, a single high-value check, a double-check, then 20 high-value
// samples. Only the low and high constants vary between callers.
func scriptedCalibration(low int32, high []int32) *fakeADC {
	adc := newFakeADC()
	adc.push(low, 1)       // discarded warm-up read
	adc.push(low, 20)      // low baseline sample()
	adc.push(high[0], 1)   // single-read threshold check
	adc.push(high[0], 1)   // double-check
	for _, v := range high { // high-value sample(), 20 entries expected
		adc.push(v, 1)
	}
	return adc
}

func constHigh(v int32, n int) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestCalibrationZeroNoiseLeavesSNRUndefined(t *testing.T) {
	adc := scriptedCalibration(1000, constHigh(6000, 20))
	desc, _, _ := newHarness(1, 1, adc)
	d := newTestDev(desc)

	var positions []CalibrationEvent
	var complete bool
	d.runCalibration(func(ev CalibrationEvent) {
		switch ev.Kind {
		case PositionComplete:
			positions = append(positions, ev)
		case Complete:
			complete = true
		}
	})

	if !complete {
		t.Fatal("calibration never completed")
	}
	if len(positions) != 1 {
		t.Fatalf("got %d PositionComplete events, want 1", len(positions))
	}
	ev := positions[0]
	if ev.Noise != 0 {
		t.Fatalf("Noise = %d, want 0 for a constant high-value sample", ev.Noise)
	}
	if ev.SNRValid {
		t.Fatal("SNRValid must be false when Noise is 0")
	}
	entry := *d.cal.at(0, 0)
	if !entry.usable() {
		t.Fatalf("calibrated entry not usable: %+v", entry)
	}
}

func TestCalibrationComputesSNRWhenNoisy(t *testing.T) {
	high := make([]int32, 20)
	for i := range high {
		if i%2 == 0 {
			high[i] = 5990
		} else {
			high[i] = 6010
		}
	}
	adc := scriptedCalibration(1000, high)
	desc, _, _ := newHarness(1, 1, adc)
	d := newTestDev(desc)

	var ev CalibrationEvent
	d.runCalibration(func(e CalibrationEvent) {
		if e.Kind == PositionComplete {
			ev = e
		}
	})

	if ev.Noise == 0 {
		t.Fatal("expected nonzero noise from alternating samples")
	}
	if !ev.SNRValid {
		t.Fatal("SNRValid should be true when Noise is nonzero")
	}
	wantSNR := float64(int32(ev.HighAvg)-int32(ev.LowAvg)+int32(ev.Noise)) / float64(ev.Noise)
	if ev.SNR != wantSNR {
		t.Errorf("SNR = %f, want %f", ev.SNR, wantSNR)
	}
}

func TestCalibrationSkipsMaskedCells(t *testing.T) {
	adc := newFakeADC()
	desc, _, _ := newHarness(1, 2, adc)
	desc.StrobeInputMasks = []uint32{0b10} // input 1 masked
	// Only cell (0,0) goes through the sequence: discard + 20 low +
	// check + double-check + 20 high.
	adc.push(1000, 1)
	adc.push(1000, 20)
	adc.push(6000, 1)
	adc.push(6000, 1)
	adc.push(6000, 20)
	d := newTestDev(desc)

	var positions []CalibrationEvent
	d.runCalibration(func(ev CalibrationEvent) {
		if ev.Kind == PositionComplete {
			positions = append(positions, ev)
		}
	})

	if len(positions) != 1 {
		t.Fatalf("got %d completed cells, want 1 (input 1 is masked)", len(positions))
	}
	if d.cal.at(0, 1).usable() {
		t.Fatal("masked cell must remain uncalibrated")
	}
}
