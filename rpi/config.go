// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package rpi

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/warthog618/runlight"
)

// MaxOffset is one beyond the highest BCM GPIO available on the J8 header.
const MaxOffset = 28

// Config maps the board functions onto BCM GPIO offsets.
type Config struct {
	RunLED    int
	ErrLED    int
	RunSwitch int
	// Inputs and Outputs are the digital channels, in channel order.
	Inputs  []int
	Outputs []int
	ADC     ADCConfig
}

// ADCConfig describes an MCP3x0x ADC attached via bit bashed SPI.
type ADCConfig struct {
	Sclk int
	Ssz  int
	Mosi int
	Miso int
	// Tclk is the time between clock edges, i.e. half the clock period.
	Tclk time.Duration
	// Width is the sample width in bits, 10 for MCP300x or 12 for MCP320x.
	Width uint
	// Channels is the number of ADC channels, 4 or 8.
	Channels int
}

// DefaultConfig has three control inputs, the minimum for the running light,
// and three outputs.
var DefaultConfig = Config{
	RunLED:    5,
	ErrLED:    12,
	RunSwitch: 16,
	Inputs:    []int{17, 27, 22},
	Outputs:   []int{23, 24, 25},
	ADC: ADCConfig{
		Sclk:     21,
		Ssz:      6,
		Mosi:     19,
		Miso:     26,
		Tclk:     500 * time.Nanosecond,
		Width:    12,
		Channels: 8,
	},
}

// Validate checks that every offset is on the header and used only once.
// The ADC data lines may be shared.
func (cfg Config) Validate() error {
	used := make(map[int]string)
	check := func(name string, offset int) error {
		if offset < 0 || offset >= MaxOffset {
			return errors.Errorf("%s: unknown gpio %d", name, offset)
		}
		if prev, ok := used[offset]; ok {
			return errors.Errorf("%s: gpio %d already used by %s", name, offset, prev)
		}
		used[offset] = name
		return nil
	}
	named := []struct {
		name   string
		offset int
	}{
		{"run led", cfg.RunLED},
		{"error led", cfg.ErrLED},
		{"run switch", cfg.RunSwitch},
		{"adc sclk", cfg.ADC.Sclk},
		{"adc ssz", cfg.ADC.Ssz},
		{"adc mosi", cfg.ADC.Mosi},
	}
	for _, n := range named {
		if err := check(n.name, n.offset); err != nil {
			return err
		}
	}
	if cfg.ADC.Miso != cfg.ADC.Mosi {
		if err := check("adc miso", cfg.ADC.Miso); err != nil {
			return err
		}
	}
	for i, o := range cfg.Inputs {
		if err := check("input "+strconv.Itoa(i), o); err != nil {
			return err
		}
	}
	for i, o := range cfg.Outputs {
		if err := check("output "+strconv.Itoa(i), o); err != nil {
			return err
		}
	}
	if cfg.ADC.Width != 10 && cfg.ADC.Width != 12 {
		return errors.Errorf("adc: unsupported width %d", cfg.ADC.Width)
	}
	if cfg.ADC.Channels != 4 && cfg.ADC.Channels != 8 {
		return errors.Errorf("adc: unsupported channel count %d", cfg.ADC.Channels)
	}
	return nil
}

// ParseOffsets parses a comma separated list of GPIO offsets, e.g. "17,27,22".
func ParseOffsets(s string) ([]int, error) {
	var oo []int
	s = strings.TrimSpace(s)
	if s == "" {
		return oo, nil
	}
	for _, f := range strings.Split(s, ",") {
		o, err := strconv.ParseUint(strings.TrimSpace(f), 10, 8)
		if err != nil {
			return nil, errors.Errorf("can't parse gpio '%s'", f)
		}
		oo = append(oo, int(o))
	}
	return oo, nil
}

// scale converts a raw reading of the given width to the board's full scale,
// where runlight.AdcMax corresponds to 10V.
func scale(raw uint16, width uint) uint16 {
	full := uint32(1)<<width - 1
	return uint16(uint32(raw) * runlight.AdcMax / full)
}
