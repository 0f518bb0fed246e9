// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

// This file contains all the code that directly uses the viper package,
// kept separate so the rest of the program does not need to know the
// configuration file format.

import (
	"time"

	"github.com/spf13/viper"
)

// matrixConfig mirrors the wiring and timing fields of kscan.Descriptor
// that a deployed board needs to set, plus the calibration file to load.
type matrixConfig struct {
	Strobes       []string      `mapstructure:"strobes"`
	Inputs        []string      `mapstructure:"inputs"`
	Power         string        `mapstructure:"power"`
	Drain         string        `mapstructure:"drain"`
	FakeOpenDrain bool          `mapstructure:"fake_open_drain"`
	ADC           string        `mapstructure:"adc"`
	CalFile       string        `mapstructure:"cal_file"`
	Trigger       uint8         `mapstructure:"trigger_percentage"`
	ADCBits       uint8         `mapstructure:"adc_bits"`
	MatrixWarmUp  time.Duration `mapstructure:"matrix_warm_up"`
	MatrixRelax   time.Duration `mapstructure:"matrix_relax"`
	ADCSettle     time.Duration `mapstructure:"adc_read_settle"`
	Active        time.Duration `mapstructure:"active_poll_interval"`
	Idle          time.Duration `mapstructure:"idle_poll_interval"`
	Sleep         time.Duration `mapstructure:"sleep_poll_interval"`
	IdleAfter     time.Duration `mapstructure:"idle_after"`
	SleepAfter    time.Duration `mapstructure:"sleep_after"`
	Dynamic       bool          `mapstructure:"dynamic_polling"`
}

// loadConfig reads configuration from a TOML file named "ecmatrix.toml",
// looked for first in /etc, then in the current directory. If neither is
// found, defaultConfig's values are used instead.
func loadConfig() matrixConfig {
	viper.SetConfigName("ecmatrix")
	viper.AddConfigPath("/etc")
	viper.AddConfigPath(".")
	cfg := defaultConfig()
	if err := viper.ReadInConfig(); err != nil {
		return cfg
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return defaultConfig()
	}
	return cfg
}

// defaultConfig returns sane defaults for bring-up on a board with no
// ecmatrix.toml present yet. There is no guarantee these pin names exist
// on any particular board; they work for at least one four-strobe,
// three-input prototype this package was bench-tested against.
func defaultConfig() matrixConfig {
	return matrixConfig{
		Strobes:      []string{"GPIO5", "GPIO6", "GPIO13", "GPIO19"},
		Inputs:       []string{"GPIO16", "GPIO20", "GPIO21"},
		CalFile:      "calibration.json",
		Trigger:      40,
		ADCBits:      12,
		MatrixWarmUp: 2 * time.Millisecond,
		MatrixRelax:  5 * time.Microsecond,
		ADCSettle:    5 * time.Microsecond,
		Active:       10 * time.Millisecond,
		Idle:         40 * time.Millisecond,
		Sleep:        200 * time.Millisecond,
		IdleAfter:    5 * time.Second,
		SleepAfter:   30 * time.Second,
		Dynamic:      true,
	}
}
