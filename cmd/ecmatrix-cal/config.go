// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

// This file contains all the code that directly uses the warthog618/config
// package, following the layered source precedence (flags, then
// environment, then an optional JSON file, then defaults) a board-bring-up
// tool needs: the same matrix gets calibrated from several machines with
// slightly different wiring, and re-flagging everything every time is not
// an option.

import (
	"os"
	"time"

	"github.com/warthog618/config"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/config/json"
	"github.com/warthog618/config/pflag"
)

// calConfig is the minimal configuration interface ecmatrix-cal reads from.
// Its methods panic rather than return an error, since the Getter behind
// them is built with config.WithPanic(): a board-bring-up tool has nothing
// useful to do with a malformed pin name besides stop. There is no
// GetBool; the one boolean setting (fake-open-drain) is parsed from
// GetString with strconv.ParseBool instead.
type calConfig interface {
	GetString(k string) string
	GetUint(k string) uint64
	GetDuration(k string) time.Duration
}

func loadConfig() calConfig {
	defaultConfig := map[string]interface{}{
		"strobes":            "GPIO5,GPIO6,GPIO13,GPIO19",
		"inputs":             "GPIO16,GPIO20,GPIO21",
		"adc":                "",
		"power":              "",
		"drain":              "",
		"fake-open-drain":    "false",
		"trigger-percentage": "40",
		"adc-bits":           "12",
		"matrix-warm-up":     "2ms",
		"matrix-relax":       "5us",
		"adc-read-settle":    "5us",
		"out":                "calibration.json",
	}
	def := dict.New(dict.WithMap(defaultConfig))
	shortFlags := map[byte]string{
		'c': "config-file",
		'o': "out",
	}
	fget, err := pflag.New(pflag.WithShortFlags(shortFlags))
	if err != nil {
		panic(err)
	}
	eget, err := env.New(env.WithEnvPrefix("ECMATRIX_"))
	if err != nil {
		panic(err)
	}
	sources := config.NewStack(fget, eget)
	cfg := config.NewConfig(config.Decorate(sources, config.WithDefault(def)))

	if configFile, err := cfg.GetString("config-file"); err == nil {
		jget, err := json.New(json.FromFile(configFile))
		if err != nil {
			panic(err)
		}
		sources.Append(jget)
	} else if jget, err := json.New(json.FromFile("ecmatrix.json")); err == nil {
		sources.Append(jget)
	} else if _, ok := err.(*os.PathError); !ok {
		panic(err)
	}

	return cfg.GetMust("", config.WithPanic())
}
