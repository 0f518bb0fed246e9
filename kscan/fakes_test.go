// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kscan

import (
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/experimental/conn/analog"
)

// fakePin is a minimal gpio.PinIO that records its last driven level and
// pull configuration. It never fails.
type fakePin struct {
	name  string
	level gpio.Level
	pull  gpio.Pull
}

func newFakePin(name string) *fakePin { return &fakePin{name: name} }

func (p *fakePin) String() string         { return p.name }
func (p *fakePin) Halt() error            { return nil }
func (p *fakePin) Name() string           { return p.name }
func (p *fakePin) Number() int            { return -1 }
func (p *fakePin) Function() string       { return "" }
func (p *fakePin) DefaultPull() gpio.Pull { return gpio.Float }

func (p *fakePin) In(pull gpio.Pull, e gpio.Edge) error {
	p.pull = pull
	return nil
}
func (p *fakePin) Read() gpio.Level { return p.level }
func (p *fakePin) WaitForEdge(t time.Duration) bool {
	return false
}
func (p *fakePin) Pull() gpio.Pull { return p.pull }

func (p *fakePin) Out(l gpio.Level) error {
	p.level = l
	return nil
}
func (p *fakePin) PWM(d gpio.Duty, f physic.Frequency) error {
	return nil
}

var _ gpio.PinIO = &fakePin{}

// fakeADC is an analog.PinADC that replays a scripted sequence of raw
// readings. readRaw calls Read() exactly once per cell visited, always from
// the scan goroutine, so a plain FIFO queue is enough to script an entire
// calibration pass or scan sweep: queue the values in the same (strobe,
// input) order the driver visits them, per the column-major sweep order
// documented on runSweep and the strobe-major order on runCalibration.
//
// Once the queue is drained, Read keeps returning the last queued value, so
// tests that only care about a prefix of a pass don't need to script its
// tail.
type fakeADC struct {
	queue []int32
	pos   int
	calls int
}

func newFakeADC(vals ...int32) *fakeADC {
	return &fakeADC{queue: vals}
}

// push appends n more readings returning raw.
func (a *fakeADC) push(raw int32, n int) {
	for i := 0; i < n; i++ {
		a.queue = append(a.queue, raw)
	}
}

func (a *fakeADC) String() string   { return "fakeADC" }
func (a *fakeADC) Halt() error      { return nil }
func (a *fakeADC) Name() string     { return "fakeADC" }
func (a *fakeADC) Number() int      { return -1 }
func (a *fakeADC) Function() string { return "ADC" }
func (a *fakeADC) Range() (analog.Sample, analog.Sample) {
	return analog.Sample{Raw: 0}, analog.Sample{Raw: 0xffff}
}

func (a *fakeADC) Read() (analog.Sample, error) {
	a.calls++
	if len(a.queue) == 0 {
		return analog.Sample{Raw: 0}, nil
	}
	if a.pos >= len(a.queue) {
		return analog.Sample{Raw: a.queue[len(a.queue)-1]}, nil
	}
	v := a.queue[a.pos]
	a.pos++
	return analog.Sample{Raw: v}, nil
}

func (a *fakeADC) ReadContinuous() <-chan analog.Sample { return nil }

var _ analog.PinADC = &fakeADC{}

// newHarness builds a Descriptor wired to strobeCount x inputCount fake
// pins and the given fake ADC, with zero settle/relax/warm-up delays so
// tests run at full speed.
func newHarness(strobeCount, inputCount int, adc *fakeADC) (*Descriptor, []*fakePin, []*fakePin) {
	strobes := make([]*fakePin, strobeCount)
	for i := range strobes {
		strobes[i] = newFakePin("strobe")
	}
	inputs := make([]*fakePin, inputCount)
	for i := range inputs {
		inputs[i] = newFakePin("input")
	}
	desc := &Descriptor{
		TriggerPercentage: 40,
		ADCBits:           12,
		ADC:               adc,
	}
	for _, p := range strobes {
		desc.Strobes = append(desc.Strobes, p)
	}
	for _, p := range inputs {
		desc.Inputs = append(desc.Inputs, p)
	}
	return desc, strobes, inputs
}
