// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/runlight"
	"github.com/warthog618/runlight/modbus"
	"github.com/warthog618/runlight/rpi"
	"github.com/warthog618/runlight/sim"
)

func TestParseChannel(t *testing.T) {
	c, err := parseChannel("15")
	assert.Nil(t, err)
	assert.Equal(t, uint8(15), c)
	_, err = parseChannel("256")
	assert.NotNil(t, err)
	_, err = parseChannel("J8p7")
	assert.NotNil(t, err)

	cc, err := parseChannels([]string{"0", "2", "1"})
	assert.Nil(t, err)
	assert.Equal(t, []uint8{0, 2, 1}, cc)
	_, err = parseChannels([]string{"0", "x"})
	assert.NotNil(t, err)
}

func TestParseChannelLevel(t *testing.T) {
	patterns := []struct {
		name  string
		arg   string
		ch    uint8
		level bool
		err   bool
	}{
		{"high", "3=high", 3, true, false},
		{"hi", "3=HI", 3, true, false},
		{"one", "4=1", 4, true, false},
		{"low", "5=Low", 5, false, false},
		{"false", "5=false", 5, false, false},
		{"no level", "5", 0, false, true},
		{"bad level", "5=on", 0, false, true},
		{"bad channel", "x=1", 0, false, true},
		{"extra", "1=1=1", 0, false, true},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			ch, level, err := parseChannelLevel(p.arg)
			if p.err {
				assert.NotNil(t, err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, p.ch, ch)
			assert.Equal(t, p.level, level)
		}
		t.Run(p.name, tf)
	}
}

func TestLoadConfig(t *testing.T) {
	cfg := loadConfig(rootCmd)
	assert.Equal(t, "sim", cfg.MustGet("driver").String())
	assert.False(t, cfg.MustGet("verbose").Bool())
	assert.Equal(t, int64(runlight.AdcMax/2), cfg.MustGet("sim.adc").Int())

	rc, err := rpiConfig(cfg)
	require.Nil(t, err)
	assert.Equal(t, rpi.DefaultConfig, rc)
	assert.Equal(t, modbus.DefaultConfig, modbusConfig(cfg))

	t.Setenv("RUNLIGHT_DRIVER", "modbus")
	t.Setenv("RUNLIGHT_MODBUS_PORT", "/dev/ttyAMA0")
	cfg = loadConfig(rootCmd)
	assert.Equal(t, "modbus", cfg.MustGet("driver").String())
	assert.Equal(t, "/dev/ttyAMA0", modbusConfig(cfg).Port)
}

func TestSetup(t *testing.T) {
	drv, log, err := setup(rootCmd)
	require.Nil(t, err)
	assert.NotNil(t, log)
	sb, ok := drv.(*sim.Board)
	require.True(t, ok)
	require.Nil(t, sb.Initialize())
	adc, err := sb.AnalogInput(runlight.RateInput)
	assert.Nil(t, err)
	assert.Equal(t, uint16(runlight.AdcMax/2), adc)

	t.Setenv("RUNLIGHT_DRIVER", "bogus")
	_, _, err = setup(rootCmd)
	assert.EqualError(t, err, "unknown driver 'bogus'")
}

func TestSetupBadConfig(t *testing.T) {
	t.Setenv("RUNLIGHT_SIM_ADC", "abc")
	drv, log, err := setup(rootCmd)
	require.NotNil(t, err)
	assert.Contains(t, err.Error(), "bad config")
	assert.Nil(t, drv)
	assert.Nil(t, log)

	_, _, err = openBoard(rootCmd)
	assert.NotNil(t, err)
}

func TestSetKey(t *testing.T) {
	m := map[string]interface{}{"rpi": map[string]interface{}{"runled": 5}}
	setKey(m, "rpi.adc.tclk", "1us")
	setKey(m, "driver", "rpi")
	want := map[string]interface{}{
		"driver": "rpi",
		"rpi": map[string]interface{}{
			"runled": 5,
			"adc":    map[string]interface{}{"tclk": "1us"},
		},
	}
	assert.Equal(t, want, m)
}

func TestFlagConfig(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.StringP("driver", "d", "sim", "")
	fs.StringP("config-file", "c", "", "")
	fs.BoolP("verbose", "v", false, "")
	fs.Bool("other", false, "")
	require.Nil(t, fs.Parse([]string{"-c", "board.json", "--verbose", "--other"}))
	want := map[string]interface{}{
		"config":  map[string]interface{}{"file": "board.json"},
		"verbose": "true",
	}
	assert.Equal(t, want, flagConfig(fs))
}

func TestPrintInfo(t *testing.T) {
	var buf bytes.Buffer
	printInfo(&buf, runlight.Version{Major: 1, Minor: 2}, sim.DefaultHardwareInfo)
	out := buf.String()
	assert.Contains(t, out, "I/O Driver version: 1.02\n")
	assert.Contains(t, out, "Digital In:  16\n")
	assert.Contains(t, out, "TempSensor:  2\n")
}

func TestPrintValues(t *testing.T) {
	var buf bytes.Buffer
	printValues(&buf, []uint8{0, 12}, []bool{true, false})
	assert.Equal(t, "channel  0: true\nchannel 12: false\n", buf.String())
	buf.Reset()
	printValuesShort(&buf, []bool{true, false, true})
	assert.Equal(t, "1 0 1\n", buf.String())
	assert.Equal(t, []uint8{0, 1, 2}, allChannels(3))
}

func TestPulseInputs(t *testing.T) {
	b := sim.New()
	require.Nil(t, b.Initialize())
	defer b.Shutdown()
	var got []uint8
	require.Nil(t, b.RegisterInterrupt(2, runlight.EdgeRising, func(ch uint8, level bool) {
		got = append(got, ch)
	}))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	pulseInputs(context.Background(), b, strings.NewReader("2\n\nx\n 2 \n99\n"), log)
	assert.Equal(t, []uint8{2, 2}, got)
	assert.False(t, b.Watched(0))
}

func TestMonWait(t *testing.T) {
	monOpts.NumEvents = 2
	defer func() { monOpts.NumEvents = 0 }()
	when := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	evtchan := make(chan event, 3)
	evtchan <- event{Time: when, Channel: 1, Level: true}
	evtchan <- event{Time: when, Channel: 2, Level: false}
	evtchan <- event{Time: when, Channel: 3, Level: true}
	var buf bytes.Buffer
	monWait(context.Background(), &buf, evtchan)
	want := "event:  1 rising  2026-01-02T03:04:05Z\n" +
		"event:  2 falling 2026-01-02T03:04:05Z\n"
	assert.Equal(t, want, buf.String())
	assert.Len(t, evtchan, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	buf.Reset()
	monWait(ctx, &buf, make(chan event))
	assert.Empty(t, buf.String())
}

func TestMonEdge(t *testing.T) {
	defer func() { monOpts.RisingEdge, monOpts.FallingEdge = false, false }()
	edge, err := monEdge()
	assert.Nil(t, err)
	assert.Equal(t, runlight.EdgeBoth, edge)
	monOpts.RisingEdge = true
	edge, err = monEdge()
	assert.Nil(t, err)
	assert.Equal(t, runlight.EdgeRising, edge)
	monOpts.FallingEdge = true
	_, err = monEdge()
	assert.NotNil(t, err)
	monOpts.RisingEdge = false
	edge, err = monEdge()
	assert.Nil(t, err)
	assert.Equal(t, runlight.EdgeFalling, edge)
}
