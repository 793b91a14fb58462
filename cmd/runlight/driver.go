// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/warthog618/config"
	"github.com/warthog618/runlight"
	"github.com/warthog618/runlight/modbus"
	"github.com/warthog618/runlight/rpi"
	"github.com/warthog618/runlight/sim"
)

// newDriver creates the driver selected by the driver key.
func newDriver(cfg *config.Config) (runlight.Driver, error) {
	switch name := cfg.MustGet("driver").String(); name {
	case "sim":
		adc := uint16(cfg.MustGet("sim.adc").Uint())
		return sim.New(sim.WithAnalog(runlight.RateInput, adc), sim.WithRecording(false)), nil
	case "rpi":
		rc, err := rpiConfig(cfg)
		if err != nil {
			return nil, err
		}
		b, err := rpi.New(rc)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "modbus":
		b, err := modbus.New(modbusConfig(cfg))
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, errors.Errorf("unknown driver '%s'", name)
	}
}

func rpiConfig(cfg *config.Config) (rpi.Config, error) {
	rc := rpi.DefaultConfig
	rc.RunLED = int(cfg.MustGet("rpi.runled").Int())
	rc.ErrLED = int(cfg.MustGet("rpi.errled").Int())
	rc.RunSwitch = int(cfg.MustGet("rpi.runswitch").Int())
	var err error
	if rc.Inputs, err = rpi.ParseOffsets(cfg.MustGet("rpi.inputs").String()); err != nil {
		return rc, errors.Wrap(err, "rpi.inputs")
	}
	if rc.Outputs, err = rpi.ParseOffsets(cfg.MustGet("rpi.outputs").String()); err != nil {
		return rc, errors.Wrap(err, "rpi.outputs")
	}
	rc.ADC.Sclk = int(cfg.MustGet("rpi.adc.clk").Int())
	rc.ADC.Ssz = int(cfg.MustGet("rpi.adc.csz").Int())
	rc.ADC.Mosi = int(cfg.MustGet("rpi.adc.mosi").Int())
	rc.ADC.Miso = int(cfg.MustGet("rpi.adc.miso").Int())
	rc.ADC.Tclk = cfg.MustGet("rpi.adc.tclk").Duration()
	rc.ADC.Width = uint(cfg.MustGet("rpi.adc.width").Uint())
	rc.ADC.Channels = int(cfg.MustGet("rpi.adc.channels").Int())
	return rc, nil
}

func modbusConfig(cfg *config.Config) modbus.Config {
	mc := modbus.DefaultConfig
	mc.Port = cfg.MustGet("modbus.port").String()
	mc.BaudRate = int(cfg.MustGet("modbus.baud").Int())
	mc.Parity = cfg.MustGet("modbus.parity").String()
	mc.SlaveID = byte(cfg.MustGet("modbus.slave").Uint())
	mc.Timeout = cfg.MustGet("modbus.timeout").Duration()
	mc.PollInterval = cfg.MustGet("modbus.poll").Duration()
	mc.Inputs = int(cfg.MustGet("modbus.inputs").Int())
	mc.Outputs = int(cfg.MustGet("modbus.outputs").Int())
	mc.Analogs = int(cfg.MustGet("modbus.analogs").Int())
	mc.InputBase = uint16(cfg.MustGet("modbus.dibase").Uint())
	mc.OutputBase = uint16(cfg.MustGet("modbus.dobase").Uint())
	mc.AnalogBase = uint16(cfg.MustGet("modbus.aibase").Uint())
	mc.RunLED = uint16(cfg.MustGet("modbus.runled").Uint())
	mc.ErrLED = uint16(cfg.MustGet("modbus.errled").Uint())
	mc.RunSwitch = uint16(cfg.MustGet("modbus.runswitch").Uint())
	return mc
}

// pulseInputs pulses the simulated digital inputs named on r, one channel
// number per line, until r is exhausted or ctx is done.
func pulseInputs(ctx context.Context, b *sim.Board, r io.Reader, log *slog.Logger) {
	s := bufio.NewScanner(r)
	for s.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		ch, err := strconv.ParseUint(line, 10, 8)
		if err != nil {
			log.Warn("can't parse channel", "line", line)
			continue
		}
		if err := b.Pulse(uint8(ch)); err != nil {
			log.Warn("pulse failed", "channel", ch, "err", err)
		}
	}
}
