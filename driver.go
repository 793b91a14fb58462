// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package runlight provides a running light demo for industrial I/O boards.
//
// A rotating bit pattern is driven across the digital outputs of the board.
// Rising edges on digital inputs 0, 1 and 2 switch the pattern to run left,
// stop, or run right, and the rate of rotation follows analog input 0.
//
// The board itself is accessed through the Driver interface, which has
// implementations for a simulated board (sim), GPIO lines on a Raspberry Pi
// (rpi), and Modbus RTU remote I/O (modbus).
//
// Example of use:
//
//	state := runlight.NewState()
//	board, err := runlight.Start(drv, state)
//	if err != nil {
//		return err
//	}
//	defer board.Close()
//	return runlight.NewLoop(board, state).Run(ctx)
package runlight

import (
	"fmt"
)

// Driver is the capability interface provided by a board driver.
//
// Initialize must be called before any other method, and must be paired
// with exactly one Shutdown.
// Failures are reported as errors carrying a Result, see ResultOf.
type Driver interface {
	Initialize() error
	Shutdown() error
	Version() (Version, error)
	HardwareInfo() (HardwareInfo, error)

	RunSwitch() (bool, error)
	SetRunLED(on bool) error
	SetErrorLED(on bool) error

	DigitalInput(ch uint8) (bool, error)
	SetDigitalOutput(ch uint8, on bool) error
	AnalogInput(ch uint8) (uint16, error)

	// RegisterInterrupt calls fn whenever the digital input ch sees an edge
	// matching edge. fn is called from a context owned by the driver and
	// must not block.
	RegisterInterrupt(ch uint8, edge Edge, fn InterruptFunc) error
	UnregisterInterrupt(ch uint8) error
}

// InterruptFunc is called by a driver when a watched digital input changes.
// The level is the state of the input after the edge.
type InterruptFunc func(ch uint8, level bool)

// Edge identifies the transitions that trigger an interrupt.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

var edgeNames = map[Edge]string{
	EdgeNone:    "none",
	EdgeRising:  "rising",
	EdgeFalling: "falling",
	EdgeBoth:    "both",
}

func (e Edge) String() string {
	if n, ok := edgeNames[e]; ok {
		return n
	}
	return fmt.Sprintf("edge(%d)", uint8(e))
}

// Matches returns true if a transition to level is selected by the edge.
func (e Edge) Matches(level bool) bool {
	switch e {
	case EdgeRising:
		return level
	case EdgeFalling:
		return !level
	case EdgeBoth:
		return true
	}
	return false
}

// Version is the driver version.
type Version struct {
	Major uint8
	Minor uint8
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%02d", v.Major, v.Minor)
}

// HardwareInfo describes the board, as reported by the driver.
type HardwareInfo struct {
	PCBRevision    uint16
	DigitalInputs  uint16
	DigitalOutputs uint16
	Relays         uint16
	AnalogInputs   uint16
	AnalogOutputs  uint16
	Counters       uint16
	Encoders       uint16
	PWMs           uint16
	TempSensors    uint16
}
