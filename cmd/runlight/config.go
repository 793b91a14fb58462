// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/runlight"
)

// flagKeys maps command line flags to their config keys.
var flagKeys = map[string]string{
	"driver":      "driver",
	"config-file": "config.file",
	"verbose":     "verbose",
}

func defaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"driver":  "sim",
		"verbose": false,
		"sim": map[string]interface{}{
			// mid scale
			"adc": runlight.AdcMax / 2,
		},
		"rpi": map[string]interface{}{
			"runled":    5,
			"errled":    12,
			"runswitch": 16,
			"inputs":    "17,27,22",
			"outputs":   "23,24,25",
			"adc": map[string]interface{}{
				"clk":      21,
				"csz":      6,
				"mosi":     19,
				"miso":     26,
				"tclk":     "500ns",
				"width":    12,
				"channels": 8,
			},
		},
		"modbus": map[string]interface{}{
			"port":      "/dev/ttyUSB0",
			"baud":      19200,
			"parity":    "E",
			"slave":     1,
			"timeout":   "1s",
			"poll":      "10ms",
			"inputs":    16,
			"outputs":   16,
			"analogs":   4,
			"dibase":    0,
			"dobase":    0,
			"aibase":    0,
			"runled":    16,
			"errled":    17,
			"runswitch": 16,
		},
	}
}

// setKey sets the value of a dotted key in a tree of maps.
func setKey(m map[string]interface{}, key string, v interface{}) {
	path := strings.Split(key, ".")
	for _, p := range path[:len(path)-1] {
		sub, ok := m[p].(map[string]interface{})
		if !ok {
			sub = make(map[string]interface{})
			m[p] = sub
		}
		m = sub
	}
	m[path[len(path)-1]] = v
}

// flagConfig returns the config keys for those flags explicitly set on the
// command line.
func flagConfig(fs *pflag.FlagSet) map[string]interface{} {
	m := make(map[string]interface{})
	fs.Visit(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			setKey(m, key, f.Value.String())
		}
	})
	return m
}

// loadConfig builds the config from the command line, the environment, the
// config file and the defaults.
func loadConfig(cmd *cobra.Command) *config.Config {
	def := dict.New(dict.WithMap(defaultConfig()))
	flags := dict.New(dict.WithMap(flagConfig(cmd.Flags())))
	// highest priority sources first - flags override environment
	cfg := config.New(
		flags,
		env.New(env.WithEnvPrefix("RUNLIGHT_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "runlight.json", json.NewDecoder()))
	cfg = cfg.GetConfig("", config.WithMust)
	return cfg
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.MustGet("verbose").Bool() {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// setup loads the config, and creates the logger and the driver it selects.
//
// Missing or malformed config values are returned as errors.
func setup(cmd *cobra.Command) (drv runlight.Driver, log *slog.Logger, err error) {
	defer func() {
		if r := recover(); r != nil {
			drv, log = nil, nil
			err = errors.Errorf("bad config: %v", r)
		}
	}()
	cfg := loadConfig(cmd)
	log = newLogger(cfg)
	if drv, err = newDriver(cfg); err != nil {
		return nil, nil, err
	}
	return drv, log, nil
}

// openBoard opens the board selected by the config for the subcommands.
func openBoard(cmd *cobra.Command) (*runlight.Board, *slog.Logger, error) {
	drv, log, err := setup(cmd)
	if err != nil {
		return nil, nil, err
	}
	b, err := runlight.Open(drv, runlight.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	return b, log, nil
}
