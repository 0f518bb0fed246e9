// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package matrixview renders a key matrix's live press/release state to a
// terminal using ANSI color codes.
//
// It is a zero-hardware stand-in, useful for watching a driver work before
// (or instead of) wiring an actual panel of LEDs above each key.
package matrixview // import "periph.io/x/ecmatrix/devices/matrixview"

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"sync"

	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
)

var (
	idleColor    = color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	pressedColor = color.NRGBA{R: 0x00, G: 0xc0, B: 0x40, A: 0xff}
)

// Dev is a terminal-backed key matrix visualizer: one colored block per
// (strobe, input) cell, redrawn in place every time Set reports a change.
type Dev struct {
	w io.Writer

	mu      sync.Mutex
	strobes int
	inputs  int
	pressed []bool // strobe-major, len == strobes*inputs
	drawn   bool
	buf     bytes.Buffer
}

// New returns a Dev sized for a strobes x inputs matrix.
func New(strobes, inputs int) *Dev {
	return &Dev{
		w:       colorable.NewColorableStdout(),
		strobes: strobes,
		inputs:  inputs,
		pressed: make([]bool, strobes*inputs),
	}
}

// String implements conn.Resource.
func (d *Dev) String() string {
	return fmt.Sprintf("matrixview(%dx%d)", d.strobes, d.inputs)
}

// Halt implements conn.Resource. It resets the terminal color state and
// leaves the drawn grid in place.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// Set records the (strobe, input) cell's press state and redraws the grid.
// It is safe to call from the key-event callback passed to kscan; matrixview
// does its own locking and never calls back into the caller.
func (d *Dev) Set(strobe, input int, pressed bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pressed[strobe*d.inputs+input] = pressed
	d.redraw()
}

// redraw repaints the whole grid. The first call writes strobes lines; every
// call after that moves the cursor back up to the top of the grid first, so
// the terminal shows a live-updating block instead of a scrolling log.
func (d *Dev) redraw() {
	d.buf.Reset()
	if d.drawn {
		fmt.Fprintf(&d.buf, "\033[%dA", d.strobes)
	}
	d.drawn = true
	for s := 0; s < d.strobes; s++ {
		d.buf.WriteString("\r\033[0m")
		for r := 0; r < d.inputs; r++ {
			c := idleColor
			if d.pressed[s*d.inputs+r] {
				c = pressedColor
			}
			io.WriteString(&d.buf, ansi256.Default.Block(c))
		}
		d.buf.WriteString("\033[0m\n")
	}
	d.buf.WriteTo(d.w)
}
