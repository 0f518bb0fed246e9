// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kscan

import (
	"log"
	"runtime"
	"time"

	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/experimental/conn/analog"
)

// CalibratablePinADC is an analog.PinADC that also offers a one-shot
// internal self-calibration, run once at Init before the first real sample
// flushes ADC startup transients. Not all ADC backends support this; Dev
// checks for it with a type assertion and skips the step if absent.
type CalibratablePinADC interface {
	analog.PinADC
	Calibrate() error
}

// logPowerErr reports a failure to drive the matrix power rail. Like all
// hardware-transient errors in this package, it is logged and absorbed
// rather than surfaced, since the power rail is optional and its absence or
// misbehavior should not stop the scan loop.
func logPowerErr(err error) {
	log.Printf("kscan: power rail: %v", err)
}

// busyWait spins until d has elapsed. It is used for the sub-millisecond
// waits inside the timing-critical read sequence, where a scheduler-visible
// sleep (and its minimum-granularity wakeup jitter) would corrupt the
// sampled charge. It is deliberately not time.Sleep.
func busyWait(d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
	}
}

// criticalSection brackets the strobe-assert-to-ADC-read window that must
// run free of scheduler preemption. Go has no interrupt-disable primitive
// available to userspace code, so this is a best-effort approximation:
// pinning the calling goroutine to its OS thread at least prevents the Go
// scheduler from migrating it mid-sequence, and Gosched is never called
// inside the section. It does not block other OS threads or hardware
// interrupts from running concurrently; see DESIGN.md for the tradeoff.
type criticalSection struct{}

func (criticalSection) enter() { runtime.LockOSThread() }
func (criticalSection) exit()  { runtime.UnlockOSThread() }

// readRaw samples the ADC at coordinate (s, r) following the ordered,
// timing-sensitive sequence described in the matrix's hardware gateway:
// settle, lock, strobe, sample, unlock, unstrobe, disconnect.
//
// It never fails at this level: a hardware error is logged and whatever the
// ADC backend last returned (including the zero Sample) is used. Callers
// interpret degenerate readings implicitly, through calibration gating and
// hysteresis, not through an error return.
func (d *Dev) readRaw(s, r int) uint16 {
	start := time.Now()
	var timing ReadTiming

	// 1. An ADC sequence bound to the configured channel: nothing to
	// construct explicitly with analog.PinADC, the channel is fixed at
	// Descriptor time. Tracked as its own phase so ReadTiming breaks down
	// the full read the same way regardless of backend.
	t0 := time.Now()
	timing.ADCSequenceInit = t0.Sub(start)

	// 2. Configure the input pin as high-impedance input.
	if err := d.desc.Inputs[r].In(gpio.Float, gpio.NoEdge); err != nil {
		log.Printf("kscan: configure input %d: %v", r, err)
	}
	t1 := time.Now()
	timing.GPIOInputConfig = t1.Sub(t0)

	// 3. Let the column line settle.
	busyWait(d.desc.MatrixRelax)
	t2 := time.Now()
	timing.Relax = t2.Sub(t1)

	// 4. Enter the critical section.
	d.crit.enter()

	// 5. Release the drain, if configured.
	if d.desc.Drain != nil {
		if d.desc.FakeOpenDrain {
			if err := d.desc.Drain.In(gpio.Float, gpio.NoEdge); err != nil {
				log.Printf("kscan: release drain (fake open-drain): %v", err)
			}
		} else if err := d.desc.Drain.Out(gpio.High); err != nil {
			log.Printf("kscan: release drain: %v", err)
		}
	}
	t3 := time.Now()
	timing.DrainRelease = t3.Sub(t2)

	// 6. Assert the strobe.
	if err := d.desc.Strobes[s].Out(gpio.High); err != nil {
		log.Printf("kscan: assert strobe %d: %v", s, err)
	}
	t4 := time.Now()
	timing.StrobeAssert = t4.Sub(t3)

	// 7. Let the sensed voltage stabilise.
	busyWait(d.desc.ADCReadSettle)
	t5 := time.Now()
	timing.ADCReadSettle = t5.Sub(t4)

	// 8. Trigger a synchronous ADC conversion.
	sample, err := d.desc.ADC.Read()
	if err != nil {
		log.Printf("kscan: ADC read (%d, %d): %v", s, r, err)
	}
	t6 := time.Now()
	timing.ADCRead = t6.Sub(t5)

	// 9. Exit the critical section.
	d.crit.exit()

	// 10. Deassert the strobe.
	if err := d.desc.Strobes[s].Out(gpio.Low); err != nil {
		log.Printf("kscan: deassert strobe %d: %v", s, err)
	}
	t7 := time.Now()
	timing.StrobeDeassert = t7.Sub(t6)

	// 11. Re-engage the drain, active low.
	if d.desc.Drain != nil {
		if d.desc.FakeOpenDrain {
			if err := d.desc.Drain.Out(gpio.Low); err != nil {
				log.Printf("kscan: re-engage drain (fake open-drain): %v", err)
			}
		} else if err := d.desc.Drain.Out(gpio.Low); err != nil {
			log.Printf("kscan: re-engage drain: %v", err)
		}
	}
	t8 := time.Now()
	timing.DrainReengage = t8.Sub(t7)

	// 12. Disconnect the input pin.
	if err := d.desc.Inputs[r].In(gpio.Float, gpio.NoEdge); err != nil {
		log.Printf("kscan: disconnect input %d: %v", r, err)
	}
	t9 := time.Now()
	timing.InputDisconnect = t9.Sub(t8)
	timing.Total = t9.Sub(start)

	d.recordReadTiming(timing)

	if sample.Raw < 0 {
		return 0
	}
	if sample.Raw > 0xffff {
		return 0xffff
	}
	return uint16(sample.Raw)
}
