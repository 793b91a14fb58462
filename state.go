// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package runlight

import (
	"sync/atomic"
)

// Mode is the direction of the running light.
type Mode int32

const (
	// ModeLeft moves the light towards lower numbered outputs.
	ModeLeft Mode = iota
	// ModeRight moves the light towards higher numbered outputs.
	ModeRight
	// ModeStop freezes the light.
	ModeStop
)

var modeNames = map[Mode]string{
	ModeLeft:  "left",
	ModeRight: "right",
	ModeStop:  "stop",
}

func (m Mode) String() string {
	if n, ok := modeNames[m]; ok {
		return n
	}
	return "unknown"
}

// StopCause identifies what cleared the run flag.
type StopCause int32

const (
	// NotStopped indicates the run flag is still set.
	NotStopped StopCause = iota
	// StopRequested indicates a termination request, e.g. a signal.
	StopRequested
	// StopUnexpectedInterrupt indicates an interrupt on an unexpected channel.
	StopUnexpectedInterrupt
)

var causeNames = map[StopCause]string{
	NotStopped:              "not stopped",
	StopRequested:           "stop requested",
	StopUnexpectedInterrupt: "unexpected interrupt event",
}

func (c StopCause) String() string {
	if n, ok := causeNames[c]; ok {
		return n
	}
	return "unknown"
}

// State is the state shared between interrupt handlers and the main loop.
//
// All accesses are single word atomic loads and stores so the writers,
// which may be running in an interrupt context, never block.
// The loop samples the state at the top of each iteration, so updates may
// be observed up to one loop delay late.
type State struct {
	mode  atomic.Int32
	cause atomic.Int32
}

// NewState creates a running State with the light moving right.
func NewState() *State {
	s := &State{}
	s.SetMode(ModeRight)
	return s
}

// Mode returns the current mode.
func (s *State) Mode() Mode {
	return Mode(s.mode.Load())
}

// SetMode sets the current mode.
func (s *State) SetMode(m Mode) {
	s.mode.Store(int32(m))
}

// Running returns true while the run flag is set.
func (s *State) Running() bool {
	return s.cause.Load() == int32(NotStopped)
}

// Stop clears the run flag.
//
// Only the first call has any effect, and it returns true.
// Later calls return false and leave the original cause in place.
func (s *State) Stop(cause StopCause) bool {
	if cause == NotStopped {
		return false
	}
	return s.cause.CompareAndSwap(int32(NotStopped), int32(cause))
}

// Cause returns the reason the run flag was cleared.
func (s *State) Cause() StopCause {
	return StopCause(s.cause.Load())
}
