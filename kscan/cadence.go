// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kscan

import "time"

// zeroTime is the cadence governor's sentinel for "a key is currently
// held" (set at the end of a sweep that reported a change with keys still
// down) or "never released" (the initial state before Enable).
var zeroTime time.Time

// now is indirected so tests can inject a deterministic clock.
var now = time.Now

// pollInterval selects the sweep-to-sweep sleep based on how long ago the
// matrix last went fully idle. lastRelease == zeroTime means a key is
// currently held (or the device was just enabled): always active cadence.
func pollInterval(d *Descriptor, lastRelease, at time.Time) time.Duration {
	if !d.DynamicPolling {
		return d.ActivePollInterval
	}
	if lastRelease.IsZero() {
		return d.ActivePollInterval
	}
	sinceRelease := at.Sub(lastRelease)
	switch {
	case sinceRelease > d.SleepAfter:
		return d.SleepPollInterval
	case sinceRelease > d.IdleAfter:
		return d.IdlePollInterval
	default:
		return d.ActivePollInterval
	}
}
