// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kscan

import "time"

// sampleCount is the number of reads averaged by sample.
const sampleCount = 20

// sampleResult is a multi-sample statistical summary of one cell.
type sampleResult struct {
	min, max, mean, noise uint16
}

// sample reads cell (s, r) sampleCount times, yielding one millisecond to
// the scheduler between reads to decorrelate sampling noise from whatever
// else is running, and returns the running min/max/mean and the
// peak-to-peak noise (max-min).
func (d *Dev) sample(s, r int) sampleResult {
	var res sampleResult
	var mean uint32
	for i := 0; i < sampleCount; i++ {
		v := d.readRaw(s, r)
		if i == 0 {
			res.min, res.max = v, v
			mean = uint32(v)
		} else {
			if v > res.max {
				res.max = v
			}
			if v < res.min {
				res.min = v
			}
			mean = (mean*uint32(i) + uint32(v)) / uint32(i+1)
		}
		time.Sleep(time.Millisecond)
	}
	res.mean = uint16(mean)
	res.noise = res.max - res.min
	return res
}
