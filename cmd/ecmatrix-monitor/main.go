// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// ecmatrix-monitor enables a wired EC key matrix, loads its calibration
// from ecmatrix-cal's output, and renders live key presses to the terminal
// until the user presses q.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"

	"golang.org/x/term"

	"periph.io/x/ecmatrix/devices/matrixview"
	"periph.io/x/ecmatrix/kscan"
	"periph.io/x/periph/host"
)

func loadCalibration(path string, n int) ([]uint16, []uint16, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	var table []kscan.CalEntry
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, nil, err
	}
	if len(table) != n {
		return nil, nil, fmt.Errorf("calibration file has %d entries, want %d", len(table), n)
	}
	low := make([]uint16, n)
	high := make([]uint16, n)
	for i, e := range table {
		low[i], high[i] = e.AvgLow, e.AvgHigh
	}
	return low, high, nil
}

func mainImpl() error {
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	cfg := loadConfig()

	if _, err := host.Init(); err != nil {
		return err
	}

	desc := kscan.Descriptor{
		TriggerPercentage:  cfg.Trigger,
		ADCBits:            cfg.ADCBits,
		FakeOpenDrain:      cfg.FakeOpenDrain,
		MatrixWarmUp:       cfg.MatrixWarmUp,
		MatrixRelax:        cfg.MatrixRelax,
		ADCReadSettle:      cfg.ADCSettle,
		ActivePollInterval: cfg.Active,
		IdlePollInterval:   cfg.Idle,
		SleepPollInterval:  cfg.Sleep,
		IdleAfter:          cfg.IdleAfter,
		SleepAfter:         cfg.SleepAfter,
		DynamicPolling:     cfg.Dynamic,
	}
	for _, n := range cfg.Strobes {
		p := kscan.ResolvePin(n)
		if p == nil {
			return fmt.Errorf("strobe pin %q not found", n)
		}
		desc.Strobes = append(desc.Strobes, p)
	}
	for _, n := range cfg.Inputs {
		p := kscan.ResolvePin(n)
		if p == nil {
			return fmt.Errorf("input pin %q not found", n)
		}
		desc.Inputs = append(desc.Inputs, p)
	}
	if cfg.Power != "" {
		desc.Power = kscan.ResolvePin(cfg.Power)
	}
	if cfg.Drain != "" {
		desc.Drain = kscan.ResolvePin(cfg.Drain)
	}

	adc, err := boardADC(cfg.ADC)
	if err != nil {
		return fmt.Errorf("adc channel: %w", err)
	}
	desc.ADC = adc

	low, high, err := loadCalibration(cfg.CalFile, len(desc.Strobes)*len(desc.Inputs))
	if err != nil {
		return fmt.Errorf("calibration: %w (run ecmatrix-cal first)", err)
	}
	desc.SkipStartupCalibration = true
	desc.PrecalibLow = low
	desc.PrecalibHigh = high

	dev, err := kscan.New(desc)
	if err != nil {
		return err
	}
	defer dev.Close()

	view := matrixview.New(len(desc.Strobes), len(desc.Inputs))
	defer view.Halt()

	if err := dev.Configure(view.Set); err != nil {
		return err
	}
	if err := dev.Enable(); err != nil {
		return err
	}
	defer dev.Disable()

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	fmt.Print("watching matrix, press q to quit\r\n")
	buf := make([]byte, 1)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return err
		}
		if n == 0 {
			continue
		}
		switch buf[0] {
		case 'q', 0x03, 0x1b: // q, Ctrl-C, Esc
			return nil
		}
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "ecmatrix-monitor: %s.\n", err)
		os.Exit(1)
	}
}

// boardADC resolves the single analog channel a matrix reads through. See
// the identical extension point in ecmatrix-cal for why this cannot be a
// generic name lookup.
var boardADC = func(name string) (kscan.CalibratablePinADC, error) {
	return nil, fmt.Errorf("no board-specific ADC wiring registered for %q; boardADC must be replaced for this board", name)
}
