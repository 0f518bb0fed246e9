// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kscan

import (
	"context"
	"fmt"
	"time"
)

// boundedMutex is a binary semaphore implemented over a buffered channel:
// plain Lock/Unlock for the scan goroutine's own loop, and a
// context-bounded Lock for external entry points that must give up and
// report busy rather than block indefinitely.
type boundedMutex chan struct{}

func newBoundedMutex() boundedMutex {
	m := make(boundedMutex, 1)
	m <- struct{}{}
	return m
}

func (m boundedMutex) Lock() { <-m }

func (m boundedMutex) Unlock() { m <- struct{}{} }

// LockContext attempts to acquire the mutex before ctx is done. It reports
// ErrBusy on expiry instead of blocking past the caller's deadline.
func (m boundedMutex) LockContext(ctx context.Context) error {
	select {
	case <-m:
		return nil
	default:
	}
	select {
	case <-m:
		return nil
	case <-ctx.Done():
		return ErrBusy
	}
}

// Dev is one EC key matrix instance: its geometry, calibration table,
// matrix-state vectors, and the single goroutine that owns all scanning and
// calibration work.
type Dev struct {
	desc Descriptor
	mu   boundedMutex
	crit criticalSection

	cal                  *calTable
	matrixState          []uint64
	reportedMatrixState  []uint64
	lastReleaseTimestamp time.Time
	interval             time.Duration

	keyEventCB    KeyEventFunc
	calibrationCB CalibrationEventFunc

	maxScanDuration time.Duration
	lastReadTiming  ReadTiming

	quit chan struct{}
}

// New validates desc, brings the described hardware to its quiescent
// state (power/drain/strobes driven inactive, inputs disconnected), seeds
// the calibration table from precalibrated values when configured to skip
// startup calibration, and starts the scan goroutine. The goroutine blocks
// immediately on Dev's mutex, so it does nothing until Enable releases it.
func New(desc Descriptor) (*Dev, error) {
	if err := desc.validate(); err != nil {
		return nil, err
	}

	if asc, ok := desc.ADC.(CalibratablePinADC); ok && !desc.SkipStartupCalibration {
		if err := asc.Calibrate(); err != nil {
			return nil, fmt.Errorf("kscan: ADC self-calibration: %w", err)
		}
	}

	if desc.PinMuxApply != nil {
		if err := desc.PinMuxApply(); err != nil {
			return nil, fmt.Errorf("kscan: pin mux apply: %w", err)
		}
	}

	quiesce(&desc)

	d := &Dev{
		desc:                desc,
		mu:                  newBoundedMutex(),
		cal:                 newCalTable(len(desc.Strobes), len(desc.Inputs)),
		matrixState:         make([]uint64, len(desc.Strobes)),
		reportedMatrixState: make([]uint64, len(desc.Strobes)),
		interval:            desc.ActivePollInterval,
		quit:                make(chan struct{}),
	}

	if desc.SkipStartupCalibration {
		d.cal.seed(desc.PrecalibLow, desc.PrecalibHigh)
	}

	// Acquire the mutex now so the scan goroutine blocks until Enable.
	d.mu.Lock()
	go d.run()

	return d, nil
}

// Configure sets the key-event sink. It rejects a nil callback. It does
// not take the device mutex: it is meant to be called once, before
// Enable, from the same goroutine that constructed the Dev.
func (d *Dev) Configure(cb KeyEventFunc) error {
	if cb == nil {
		return ErrNoCallback
	}
	d.keyEventCB = cb
	return nil
}

// Enable sets the cadence to active, resets the idle clock, and releases
// the mutex so the scan goroutine can run.
func (d *Dev) Enable() error {
	d.interval = d.desc.ActivePollInterval
	d.lastReleaseTimestamp = zeroTime
	d.mu.Unlock()
	return nil
}

// Disable reacquires the mutex, blocking the scan goroutine at the top of
// its loop, within a 30ms bound.
func (d *Dev) Disable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	return d.mu.LockContext(ctx)
}

// Calibrate arms a one-shot calibration pass on the scan goroutine's next
// iteration, bounded by ctx, matching the ctx-bounded pattern used by
// AccessCalibration, MaxScanDuration, and LastReadTiming.
func (d *Dev) Calibrate(ctx context.Context, cb CalibrationEventFunc) error {
	if err := d.mu.LockContext(ctx); err != nil {
		return err
	}
	d.calibrationCB = cb
	d.mu.Unlock()
	return nil
}

// AccessCalibration visits a snapshot of the calibration table under the
// mutex, bounded by ctx.
func (d *Dev) AccessCalibration(ctx context.Context, visit func([]CalEntry)) error {
	if err := d.mu.LockContext(ctx); err != nil {
		return err
	}
	snap := d.cal.snapshot()
	d.mu.Unlock()
	visit(snap)
	return nil
}

// MaxScanDuration returns the wall time of the most recent full sweep,
// bounded by ctx.
func (d *Dev) MaxScanDuration(ctx context.Context) (time.Duration, error) {
	if err := d.mu.LockContext(ctx); err != nil {
		return 0, err
	}
	v := d.maxScanDuration
	d.mu.Unlock()
	return v, nil
}

// LastReadTiming returns the phase breakdown of the most recent single-cell
// read, bounded by ctx.
func (d *Dev) LastReadTiming(ctx context.Context) (ReadTiming, error) {
	if err := d.mu.LockContext(ctx); err != nil {
		return ReadTiming{}, err
	}
	v := d.lastReadTiming
	d.mu.Unlock()
	return v, nil
}

// recordReadTiming stashes the timing breakdown of the read just performed.
// Called from the scan goroutine while it already holds the mutex, so it
// writes directly rather than re-acquiring.
func (d *Dev) recordReadTiming(t ReadTiming) {
	d.lastReadTiming = t
}

// PMAction bridges a power-management request to Enable/Disable.
func (d *Dev) PMAction(action PMAction) error {
	switch action {
	case Suspend:
		return d.Disable()
	case Resume:
		return d.Enable()
	default:
		return fmt.Errorf("kscan: unknown power management action %d", action)
	}
}

// Close stops the scan goroutine. Callers that construct a Dev for the
// life of a test or a short-lived process should call it to release the
// goroutine rather than leaking it.
func (d *Dev) Close() error {
	close(d.quit)
	return nil
}

// run is the scan goroutine's main loop: acquire the mutex, do one unit of
// work (a calibration pass if one was armed, otherwise one scan sweep),
// release the mutex, sleep for the current poll interval, repeat.
func (d *Dev) run() {
	for {
		select {
		case <-d.quit:
			return
		default:
		}

		// Wait for the mutex, but stop if Close is called while it is held
		// elsewhere (before Enable, or after Disable).
		select {
		case <-d.quit:
			return
		case <-d.mu:
		}

		if d.calibrationCB != nil {
			cb := d.calibrationCB
			d.runCalibration(cb)
			d.calibrationCB = nil
		} else {
			start := time.Now()
			d.runSweep()
			d.maxScanDuration = time.Since(start)

			if d.desc.DynamicPolling {
				d.interval = pollInterval(&d.desc, d.lastReleaseTimestamp, now())
			}
		}

		interval := d.interval
		d.mu.Unlock()

		select {
		case <-d.quit:
			return
		case <-time.After(interval):
		}
	}
}
