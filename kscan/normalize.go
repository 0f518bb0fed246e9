// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kscan

// Normalize clamps v to [avgLow, avgHigh] and rescales it to [0, FullScale].
//
// It guarantees avgLow maps to 0, avgHigh maps to FullScale, and the result
// is monotone non-decreasing in v. Callers must ensure avgHigh > avgLow;
// CalEntry.usable is the gate that establishes this before Normalize is ever
// called on a cell's calibration.
func Normalize(v, avgLow, avgHigh uint16) uint16 {
	if v < avgLow {
		v = avgLow
	}
	if v > avgHigh {
		v = avgHigh
	}
	numerator := uint32(FullScale) * uint32(v-avgLow)
	denominator := uint32(avgHigh - avgLow)
	return uint16(numerator / denominator)
}

// thresholds are the hysteretic press/release limits derived from one
// cell's calibration and the matrix-wide trigger percentage.
type thresholds struct {
	press   uint16
	release uint16
}

// deriveThresholds computes the press and release limits for a calibrated
// cell. The noise floor is always honoured as a minimum margin, so tight
// low/high calibration still yields stable output. Release is strictly
// below press whenever Noise is smaller than the low-high range; once Noise
// reaches the range, both limits are 0.
func deriveThresholds(e CalEntry, triggerPercentage uint8) thresholds {
	rng := uint32(e.AvgHigh - e.AvgLow)
	margin := rng * uint32(triggerPercentage) / 100
	if n := uint32(e.Noise); n > margin {
		margin = n
	}
	pressLimitRaw := uint16(0)
	if uint32(e.AvgHigh) > margin {
		pressLimitRaw = e.AvgHigh - uint16(margin)
	}

	hysBuffer := rng / 8
	if n := uint32(e.Noise); n > hysBuffer {
		hysBuffer = n
	}
	releaseLimitRaw := uint16(0)
	if uint32(pressLimitRaw) > hysBuffer {
		releaseLimitRaw = pressLimitRaw - uint16(hysBuffer)
	}

	return thresholds{
		press:   Normalize(pressLimitRaw, e.AvgLow, e.AvgHigh),
		release: Normalize(releaseLimitRaw, e.AvgLow, e.AvgHigh),
	}
}

// decide applies the hysteretic press/release rule: a press requires
// crossing above the press limit while not already pressed; a release
// requires dropping below the release limit while pressed. Anywhere in
// between, the previous bit holds.
func decide(prev bool, normalised uint16, th thresholds) bool {
	switch {
	case normalised > th.press && !prev:
		return true
	case prev && normalised < th.release:
		return false
	default:
		return prev
	}
}
