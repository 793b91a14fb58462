// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package runlight

// Digital inputs that control the running light.
const (
	LeftInput  uint8 = 0
	StopInput  uint8 = 1
	RightInput uint8 = 2
)

// ControlInputs are the digital inputs watched for rising edges.
var ControlInputs = []uint8{LeftInput, StopInput, RightInput}

// Handler returns the interrupt handler that updates s.
//
// Only the channel is examined as the handler is only registered for
// rising edges.
// An interrupt from any other channel clears the run flag.
// The handler only performs atomic stores, so it is safe to call from any
// context, including one that must not block.
func Handler(s *State) InterruptFunc {
	return func(ch uint8, _ bool) {
		switch ch {
		case LeftInput:
			s.SetMode(ModeLeft)
		case StopInput:
			s.SetMode(ModeStop)
		case RightInput:
			s.SetMode(ModeRight)
		default:
			s.Stop(StopUnexpectedInterrupt)
		}
	}
}
