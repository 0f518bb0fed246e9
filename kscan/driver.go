// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kscan

import (
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/pin"
	"periph.io/x/periph/conn/pin/pinreg"
)

// Register records the pins wired to d under name in periph's pin registry,
// so board diagnostics tools (anything that walks gpioreg/pinreg, the way
// periph's own host drivers do) can show which physical header pins this
// matrix instance occupies. It does not register the pins themselves with
// gpioreg: those pins already belong to whatever host or expander driver
// produced them; this only adds a named logical grouping over pins that
// already exist.
func Register(name string, d *Dev) error {
	rows := make([][]pin.Pin, 0, len(d.desc.Strobes)+len(d.desc.Inputs)+2)
	for _, s := range d.desc.Strobes {
		rows = append(rows, []pin.Pin{s})
	}
	for _, in := range d.desc.Inputs {
		rows = append(rows, []pin.Pin{in})
	}
	if d.desc.Power != nil {
		rows = append(rows, []pin.Pin{d.desc.Power})
	}
	if d.desc.Drain != nil {
		rows = append(rows, []pin.Pin{d.desc.Drain})
	}
	return pinreg.Register(name, rows)
}

// ResolvePin looks a GPIO pin up by name via gpioreg, for callers building a
// Descriptor from string configuration (board header names, "GPIO17", ...).
// It is a thin pass-through kept here so command-line tools don't need to
// import gpioreg directly just for this one call.
func ResolvePin(name string) gpio.PinIO {
	return gpioreg.ByName(name)
}
