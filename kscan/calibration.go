// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kscan

// CalEntry is the per-cell calibration state.
//
// AvgLow is 0 until the low baseline phase has run for this cell.
// AvgHigh is 0 until the high-value phase has completed for this cell. A
// cell with AvgHigh == 0 is considered uncalibrated and is skipped entirely
// by the scan loop: it is never read and never reported.
type CalEntry struct {
	AvgLow  uint16
	AvgHigh uint16
	Noise   uint16
}

// usable reports whether the cell has a valid, scannable calibration.
func (e CalEntry) usable() bool {
	return e.AvgLow > 0 && e.AvgHigh > e.AvgLow
}

// calTable is the Strobes*Inputs calibration table, indexed strobe-major.
type calTable struct {
	inputs  int
	entries []CalEntry
}

func newCalTable(strobes, inputs int) *calTable {
	return &calTable{inputs: inputs, entries: make([]CalEntry, strobes*inputs)}
}

func (t *calTable) at(s, r int) *CalEntry {
	return &t.entries[s*t.inputs+r]
}

// snapshot returns a copy of the whole table, safe to hand to a visitor
// without holding the device mutex for the visitor's entire duration.
func (t *calTable) snapshot() []CalEntry {
	out := make([]CalEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// seed loads precalibrated low/high values, strobe-major, leaving noise at 0.
func (t *calTable) seed(low, high []uint16) {
	for i := range t.entries {
		t.entries[i] = CalEntry{AvgLow: low[i], AvgHigh: high[i]}
	}
}
