// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kscan

import "testing"

func TestNormalizeClamps(t *testing.T) {
	if got := Normalize(0, 100, 200); got != 0 {
		t.Errorf("below low: got %d, want 0", got)
	}
	if got := Normalize(1000, 100, 200); got != FullScale {
		t.Errorf("above high: got %d, want %d", got, FullScale)
	}
	if got := Normalize(100, 100, 200); got != 0 {
		t.Errorf("at low: got %d, want 0", got)
	}
	if got := Normalize(200, 100, 200); got != FullScale {
		t.Errorf("at high: got %d, want %d", got, FullScale)
	}
}

func TestNormalizeMonotone(t *testing.T) {
	const low, high = 1000, 5000
	prev := uint16(0)
	for v := uint16(low); v <= high; v += 37 {
		got := Normalize(v, low, high)
		if got < prev {
			t.Fatalf("Normalize(%d) = %d, not monotone (prev %d)", v, got, prev)
		}
		prev = got
	}
}

func TestDeriveThresholdsHysteresis(t *testing.T) {
	e := CalEntry{AvgLow: 1000, AvgHigh: 5000, Noise: 20}
	th := deriveThresholds(e, 40)
	if th.release >= th.press {
		t.Fatalf("release (%d) must be strictly below press (%d)", th.release, th.press)
	}
}

func TestDeriveThresholdsHonoursNoiseFloor(t *testing.T) {
	// A huge noise floor relative to the range must still yield a strict
	// release < press ordering, not degenerate into equal or crossed limits.
	e := CalEntry{AvgLow: 1000, AvgHigh: 1100, Noise: 90}
	th := deriveThresholds(e, 40)
	if th.release >= th.press {
		t.Fatalf("release (%d) must stay below press (%d) even with a large noise floor", th.release, th.press)
	}
}

func TestDecidePressRequiresCrossingAbovePress(t *testing.T) {
	th := thresholds{press: 40000, release: 20000}
	if decide(false, 30000, th) {
		t.Fatal("should not press below the press limit")
	}
	if !decide(false, 40001, th) {
		t.Fatal("should press once above the press limit")
	}
}

func TestDecideReleaseRequiresDroppingBelowRelease(t *testing.T) {
	th := thresholds{press: 40000, release: 20000}
	if !decide(true, 25000, th) {
		t.Fatal("should stay pressed inside the hysteresis band")
	}
	if decide(true, 19999, th) {
		t.Fatal("should release once below the release limit")
	}
}

func TestDecideHoldsInHysteresisBand(t *testing.T) {
	th := thresholds{press: 40000, release: 20000}
	if decide(false, 30000, th) {
		t.Fatal("unpressed cell in the band must not spontaneously press")
	}
	if !decide(true, 30000, th) {
		t.Fatal("pressed cell in the band must stay pressed")
	}
}

func TestCalEntryUsable(t *testing.T) {
	cases := []struct {
		e    CalEntry
		want bool
	}{
		{CalEntry{}, false},
		{CalEntry{AvgLow: 100}, false},
		{CalEntry{AvgLow: 100, AvgHigh: 100}, false},
		{CalEntry{AvgLow: 100, AvgHigh: 200}, true},
	}
	for _, c := range cases {
		if got := c.e.usable(); got != c.want {
			t.Errorf("%+v.usable() = %v, want %v", c.e, got, c.want)
		}
	}
}
