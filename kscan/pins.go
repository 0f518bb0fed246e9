// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kscan

import (
	"log"

	"periph.io/x/periph/conn/gpio"
)

// quiesce drives every configured pin to its bring-up default state: power,
// drain and strobes as outputs held inactive, inputs disconnected. Failures
// here are hardware-transient: they are logged and otherwise ignored, since
// the matrix can still usefully scan cells whose neighbours failed to
// configure.
func quiesce(d *Descriptor) {
	if d.Power != nil {
		if err := d.Power.Out(gpio.Low); err != nil {
			log.Printf("kscan: quiesce power: %v", err)
		}
	}
	if d.Drain != nil {
		if err := d.Drain.Out(gpio.Low); err != nil {
			log.Printf("kscan: quiesce drain: %v", err)
		}
	}
	for i, s := range d.Strobes {
		if err := s.Out(gpio.Low); err != nil {
			log.Printf("kscan: quiesce strobe %d: %v", i, err)
		}
	}
	for i, in := range d.Inputs {
		if err := in.In(gpio.Float, gpio.NoEdge); err != nil {
			log.Printf("kscan: quiesce input %d: %v", i, err)
		}
	}
}
