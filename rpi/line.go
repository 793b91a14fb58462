// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package rpi

import (
	"time"
)

type mode uint32

// Values match the bcm function select field.
const (
	modeInput  mode = 0
	modeOutput mode = 1
)

type pull uint32

// Values match the bcm2835 pull field.
const (
	pullNone pull = iota
	pullDown
	pullUp
)

// line is a single GPIO line, with its register offsets precalculated.
type line struct {
	offset   int
	fsel     int
	levelReg int
	clearReg int
	setReg   int
	pullReg  int
	bank     int
	mask     uint32
}

func newLine(offset int) line {
	bank := offset / 32
	return line{
		offset:   offset,
		fsel:     offset / 10,
		levelReg: 13 + bank,
		clearReg: 10 + bank,
		setReg:   7 + bank,
		pullReg:  57 + offset/16,
		bank:     bank,
		mask:     uint32(1 << uint(offset&0x1f)),
	}
}

func (c *chip) setMode(l line, m mode) {
	shift := uint(l.offset%10) * 3
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[l.fsel] = c.mem[l.fsel]&^(modeMask<<shift) | uint32(m)<<shift
}

func (c *chip) read(l line) bool {
	return c.mem[l.levelReg]&l.mask != 0
}

func (c *chip) write(l line, high bool) {
	if high {
		c.mem[l.setReg] = l.mask
	} else {
		c.mem[l.clearReg] = l.mask
	}
}

// output drives the line to the level before switching it to an output, so
// it does not glitch.
func (c *chip) output(l line, high bool) {
	c.write(l, high)
	c.setMode(l, modeOutput)
}

func (c *chip) setPull(l line, p pull) {
	if c.bcm2711 {
		c.setPull2711(l, p)
		return
	}
	c.setPull2835(l, p)
}

func (c *chip) setPull2835(l line, p pull) {
	clkReg := l.bank + 38
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[pullReg2835] = c.mem[pullReg2835]&^pullMask | uint32(p)
	// at least 150 clock cycles for the value to clock in
	time.Sleep(time.Microsecond)
	c.mem[clkReg] = l.mask
	time.Sleep(time.Microsecond)
	c.mem[pullReg2835] = c.mem[pullReg2835] &^ pullMask
	c.mem[clkReg] = 0
}

func (c *chip) setPull2711(l line, p pull) {
	// 2711 reverses up/down sense
	switch p {
	case pullUp:
		p = pullDown
	case pullDown:
		p = pullUp
	}
	shift := uint(l.offset&0x0f) << 1
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem[l.pullReg] = c.mem[l.pullReg]&^(pullMask<<shift) | uint32(p)<<shift
}
