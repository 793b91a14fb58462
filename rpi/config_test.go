// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package rpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/runlight"
)

func TestParseOffsets(t *testing.T) {
	oo, err := ParseOffsets("17, 27,22")
	require.Nil(t, err)
	assert.Equal(t, []int{17, 27, 22}, oo)

	oo, err = ParseOffsets("")
	assert.Nil(t, err)
	assert.Empty(t, oo)

	_, err = ParseOffsets("17,bogus")
	assert.NotNil(t, err)
	_, err = ParseOffsets("-1")
	assert.NotNil(t, err)
}

func TestValidate(t *testing.T) {
	assert.Nil(t, DefaultConfig.Validate())

	cfg := DefaultConfig
	cfg.ADC.Miso = cfg.ADC.Mosi
	assert.Nil(t, cfg.Validate(), "tied data lines")

	patterns := []struct {
		name string
		mod  func(cfg *Config)
	}{
		{"duplicate led", func(cfg *Config) { cfg.ErrLED = cfg.RunLED }},
		{"output on input", func(cfg *Config) { cfg.Outputs = []int{cfg.Inputs[0]} }},
		{"out of range", func(cfg *Config) { cfg.RunSwitch = MaxOffset }},
		{"negative", func(cfg *Config) { cfg.RunLED = -1 }},
		{"adc clash", func(cfg *Config) { cfg.ADC.Sclk = cfg.RunSwitch }},
		{"width", func(cfg *Config) { cfg.ADC.Width = 8 }},
		{"channels", func(cfg *Config) { cfg.ADC.Channels = 2 }},
	}
	for _, p := range patterns {
		cfg := DefaultConfig
		cfg.Inputs = append([]int(nil), DefaultConfig.Inputs...)
		p.mod(&cfg)
		assert.NotNil(t, cfg.Validate(), p.name)
	}
}

func TestScale(t *testing.T) {
	assert.Equal(t, uint16(0), scale(0, 12))
	assert.Equal(t, uint16(runlight.AdcMax), scale(4095, 12))
	assert.Equal(t, uint16(runlight.AdcMax), scale(1023, 10))
	assert.Equal(t, uint16(14089), scale(512, 10))
}
