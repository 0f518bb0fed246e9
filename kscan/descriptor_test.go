// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package kscan

import (
	"errors"
	"testing"
	"time"

	"periph.io/x/periph/conn/physic"
)

func TestValidateRejectsMissingHardware(t *testing.T) {
	d := &Descriptor{TriggerPercentage: 40}
	if err := d.validate(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("got %v, want ErrNotReady", err)
	}
}

func TestValidateDefaultsADCBits(t *testing.T) {
	desc, _, _ := newHarness(1, 1, newFakeADC())
	desc.ADCBits = 0
	if err := desc.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if desc.ADCBits != 12 {
		t.Errorf("ADCBits = %d, want default 12", desc.ADCBits)
	}
}

func TestValidateRejectsTriggerPercentageOutOfRange(t *testing.T) {
	for _, pct := range []uint8{0, 10, 90, 255} {
		desc, _, _ := newHarness(1, 1, newFakeADC())
		desc.TriggerPercentage = pct
		if err := desc.validate(); err == nil {
			t.Errorf("trigger_percentage %d: expected error, got nil", pct)
		}
	}
}

func TestValidateAcceptsTriggerPercentageBoundaries(t *testing.T) {
	for _, pct := range []uint8{11, 89} {
		desc, _, _ := newHarness(1, 1, newFakeADC())
		desc.TriggerPercentage = pct
		if err := desc.validate(); err != nil {
			t.Errorf("trigger_percentage %d: unexpected error %v", pct, err)
		}
	}
}

func TestValidateRejectsMismatchedMasks(t *testing.T) {
	desc, _, _ := newHarness(2, 2, newFakeADC())
	desc.StrobeInputMasks = []uint32{0}
	if err := desc.validate(); err == nil {
		t.Fatal("expected error for mismatched mask length")
	}
}

func TestValidateRejectsOversizedInputSet(t *testing.T) {
	desc, _, _ := newHarness(1, 65, newFakeADC())
	if err := desc.validate(); err == nil {
		t.Fatal("expected error for 65 inputs exceeding the 64-bit state word")
	}
}

func TestValidateDerivesPollIntervalFromScanRate(t *testing.T) {
	desc, _, _ := newHarness(1, 1, newFakeADC())
	desc.ActivePollInterval = time.Hour // must be overridden by ScanRate
	desc.ScanRate = 100 * physic.Hertz
	if err := desc.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := 10 * time.Millisecond
	if desc.ActivePollInterval != want {
		t.Errorf("ActivePollInterval = %v, want %v (period of 100Hz)", desc.ActivePollInterval, want)
	}
}

func TestMaskedCell(t *testing.T) {
	d := &Descriptor{StrobeInputMasks: []uint32{0b110}}
	if d.masked(0, 0) {
		t.Error("bit 0 clear: should not be masked")
	}
	if !d.masked(0, 1) {
		t.Error("bit 1 set: should be masked")
	}
	if !d.masked(0, 2) {
		t.Error("bit 2 set: should be masked")
	}
}
