// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package rpi

import (
	"sync"
	"time"
)

// mcp3w0c reads a Microchip MCP3004/3008/3204/3208 SPI ADC over bit bashed
// GPIO lines.
// The two data lines, mosi and miso, may be tied and connected to a single
// GPIO line.
type mcp3w0c struct {
	c  *chip
	mu sync.Mutex
	// time between clock edges (i.e. half the cycle time)
	tclk  time.Duration
	sclk  line
	ssz   line
	mosi  line
	miso  line
	width uint
}

func newMCP3w0c(c *chip, cfg ADCConfig) *mcp3w0c {
	adc := &mcp3w0c{
		c:     c,
		tclk:  cfg.Tclk,
		sclk:  newLine(cfg.Sclk),
		ssz:   newLine(cfg.Ssz),
		mosi:  newLine(cfg.Mosi),
		miso:  newLine(cfg.Miso),
		width: cfg.Width,
	}
	// hold the ADC in reset until needed...
	c.output(adc.sclk, false)
	c.output(adc.ssz, true)
	return adc
}

// close releases the lines used to drive the ADC.
func (adc *mcp3w0c) close() {
	adc.mu.Lock()
	adc.c.setMode(adc.sclk, modeInput)
	adc.c.setMode(adc.ssz, modeInput)
	adc.c.setMode(adc.mosi, modeInput)
	adc.mu.Unlock()
}

// read returns the single ended conversion of the channel.
func (adc *mcp3w0c) read(ch int) uint16 {
	c := adc.c
	adc.mu.Lock()
	defer adc.mu.Unlock()
	c.write(adc.ssz, true)
	c.write(adc.sclk, false)
	c.output(adc.mosi, true)
	time.Sleep(adc.tclk)
	c.write(adc.ssz, false)

	adc.clockOut(true) // Start
	adc.clockOut(true) // SGL/DIFFZ - single ended
	for i := 2; i >= 0; i-- {
		adc.clockOut((ch>>uint(i))&0x01 == 0x01)
	}
	// mux settling
	c.setMode(adc.mosi, modeInput)
	time.Sleep(adc.tclk)
	c.write(adc.sclk, true)
	adc.clockIn() // null bit
	var d uint16
	for i := uint(0); i < adc.width; i++ {
		d = d << 1
		if adc.clockIn() {
			d = d | 0x01
		}
	}
	c.write(adc.ssz, true)
	return d
}

// clockIn clocks in a data bit from the ADC on miso.
// Assumes clock starts high and ends with the rising edge of the next clock.
func (adc *mcp3w0c) clockIn() bool {
	time.Sleep(adc.tclk)
	adc.c.write(adc.sclk, false) // ADC writes on the falling edge
	time.Sleep(adc.tclk)
	b := adc.c.read(adc.miso)
	adc.c.write(adc.sclk, true)
	return b
}

// clockOut clocks out a data bit to the ADC on mosi.
// Assumes clock starts low and ends with the falling edge of the next clock.
func (adc *mcp3w0c) clockOut(high bool) {
	adc.c.write(adc.mosi, high)
	time.Sleep(adc.tclk)
	adc.c.write(adc.sclk, true) // ADC reads on the rising edge
	time.Sleep(adc.tclk)
	adc.c.write(adc.sclk, false)
}
