// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// ecmatrix-cal runs calibration against a wired EC key matrix and writes
// the resulting low/high/noise table to a JSON file, for ecmatrix-monitor
// (or any other program using kscan) to load with
// Descriptor.SkipStartupCalibration.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"periph.io/x/ecmatrix/kscan"
	"periph.io/x/periph/host"
)

func resolvePins(csv string) ([]string, error) {
	var names []string
	for _, s := range strings.Split(csv, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		names = append(names, s)
	}
	if len(names) == 0 {
		return nil, errors.New("empty pin list")
	}
	return names, nil
}

func mainImpl() error {
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(ioutil.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	cfg := loadConfig()

	if _, err := host.Init(); err != nil {
		return err
	}

	strobeNames, err := resolvePins(cfg.GetString("strobes"))
	if err != nil {
		return fmt.Errorf("strobes: %w", err)
	}
	inputNames, err := resolvePins(cfg.GetString("inputs"))
	if err != nil {
		return fmt.Errorf("inputs: %w", err)
	}

	fakeOpenDrain, err := strconv.ParseBool(cfg.GetString("fake-open-drain"))
	if err != nil {
		return fmt.Errorf("fake-open-drain: %w", err)
	}

	desc := kscan.Descriptor{
		TriggerPercentage:  uint8(cfg.GetUint("trigger-percentage")),
		ADCBits:            uint8(cfg.GetUint("adc-bits")),
		MatrixWarmUp:       cfg.GetDuration("matrix-warm-up"),
		MatrixRelax:        cfg.GetDuration("matrix-relax"),
		ADCReadSettle:      cfg.GetDuration("adc-read-settle"),
		ActivePollInterval: 10 * time.Millisecond,
		FakeOpenDrain:      fakeOpenDrain,
	}
	for _, n := range strobeNames {
		p := kscan.ResolvePin(n)
		if p == nil {
			return fmt.Errorf("strobe pin %q not found", n)
		}
		desc.Strobes = append(desc.Strobes, p)
	}
	for _, n := range inputNames {
		p := kscan.ResolvePin(n)
		if p == nil {
			return fmt.Errorf("input pin %q not found", n)
		}
		desc.Inputs = append(desc.Inputs, p)
	}
	if n := cfg.GetString("power"); n != "" {
		if p := kscan.ResolvePin(n); p != nil {
			desc.Power = p
		}
	}
	if n := cfg.GetString("drain"); n != "" {
		if p := kscan.ResolvePin(n); p != nil {
			desc.Drain = p
		}
	}

	adc, err := boardADC(cfg.GetString("adc"))
	if err != nil {
		return fmt.Errorf("adc channel: %w", err)
	}
	desc.ADC = adc

	dev, err := kscan.New(desc)
	if err != nil {
		return err
	}
	defer dev.Close()

	// New leaves the device mutex held until Enable, so Calibrate can only
	// acquire it once scanning is enabled.
	if err := dev.Enable(); err != nil {
		return err
	}

	done := make(chan struct{})
	table := make([]kscan.CalEntry, len(desc.Strobes)*len(desc.Inputs))
	calCtx, cancelCal := context.WithTimeout(context.Background(), time.Second)
	defer cancelCal()
	if err := dev.Calibrate(calCtx, func(ev kscan.CalibrationEvent) {
		switch ev.Kind {
		case kscan.LowSamplingStart:
			fmt.Println("sampling low baseline, release every key...")
		case kscan.PositionLowDetermined:
			fmt.Printf("  [%d,%d] low=%d noise=%d\n", ev.Strobe, ev.Input, ev.LowAvg, ev.Noise)
		case kscan.HighSamplingStart:
			fmt.Println("press and hold every key in turn...")
		case kscan.PositionComplete:
			i := ev.Strobe*len(desc.Inputs) + ev.Input
			table[i] = kscan.CalEntry{AvgLow: ev.LowAvg, AvgHigh: ev.HighAvg, Noise: ev.Noise}
			if ev.SNRValid {
				fmt.Printf("  [%d,%d] high=%d snr=%.1f\n", ev.Strobe, ev.Input, ev.HighAvg, ev.SNR)
			} else {
				fmt.Printf("  [%d,%d] high=%d snr=undefined (noise=0)\n", ev.Strobe, ev.Input, ev.HighAvg)
			}
		case kscan.Complete:
			close(done)
		}
	}); err != nil {
		return err
	}
	<-done

	out, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return err
	}
	path := cfg.GetString("out")
	if err := ioutil.WriteFile(path, out, 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

// boardADC resolves the single analog channel a matrix reads through.
//
// periph.io has no generic ADC registry the way gpioreg is one for GPIO
// pins: concrete analog.PinADC implementations are constructed directly
// from whatever bus they sit on (SPI for an external converter, a SoC's
// own ADC driver, ...). A build meant for a specific board replaces this
// variable, typically in a file guarded by a build tag for that board, to
// return the already-constructed channel instead of an error.
var boardADC = func(name string) (kscan.CalibratablePinADC, error) {
	return nil, fmt.Errorf("no board-specific ADC wiring registered for %q; boardADC must be replaced for this board", name)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "ecmatrix-cal: %s.\n", err)
		os.Exit(1)
	}
}
