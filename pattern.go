// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package runlight

import (
	"math/bits"
)

// Pattern is the bit pattern written to the digital outputs, bit n
// driving output n.
type Pattern uint16

// Seed is the initial pattern, the lowest three outputs lit.
const Seed Pattern = 7

// RotateLeft rotates the pattern one bit towards the MSB, the MSB wrapping
// to the LSB.
func (p Pattern) RotateLeft() Pattern {
	return Pattern(bits.RotateLeft16(uint16(p), 1))
}

// RotateRight rotates the pattern one bit towards the LSB, the LSB wrapping
// to the MSB.
func (p Pattern) RotateRight() Pattern {
	return Pattern(bits.RotateLeft16(uint16(p), -1))
}

// Step returns the pattern for the next tick in mode m.
//
// Left moves the light towards output 0, so shifts right, and Right shifts
// left.
func (p Pattern) Step(m Mode) Pattern {
	switch m {
	case ModeLeft:
		return p.RotateRight()
	case ModeRight:
		return p.RotateLeft()
	}
	return p
}

// Bit returns the state of the output ch.
// Channels beyond the width of the pattern are always off.
func (p Pattern) Bit(ch int) bool {
	if ch < 0 || ch >= 16 {
		return false
	}
	return p&(1<<uint(ch)) != 0
}
