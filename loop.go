// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package runlight

import (
	"context"
	"log/slog"
	"time"
)

// Loop is the running light main loop.
type Loop struct {
	drv   Driver
	outs  int
	state *State
	log   *slog.Logger
	sleep func(time.Duration)

	pattern Pattern
	blink   bool
	mode    Mode
}

// LoopOption modifies the behaviour of a Loop.
type LoopOption func(*Loop)

// WithSleep replaces the function used to wait between iterations.
func WithSleep(sleep func(time.Duration)) LoopOption {
	return func(l *Loop) {
		l.sleep = sleep
	}
}

// WithSeed sets the initial pattern.
func WithSeed(p Pattern) LoopOption {
	return func(l *Loop) {
		l.pattern = p
	}
}

// NewLoop creates a loop that drives the board b according to s.
func NewLoop(b *Board, s *State, options ...LoopOption) *Loop {
	l := &Loop{
		drv:     b.drv,
		outs:    b.OutputChannels(),
		state:   s,
		log:     b.log,
		sleep:   time.Sleep,
		pattern: Seed,
		blink:   true,
		mode:    -1,
	}
	for _, option := range options {
		option(l)
	}
	return l
}

// Pattern returns the pattern most recently written to the outputs, or the
// seed if no iteration has run.
func (l *Loop) Pattern() Pattern {
	return l.pattern
}

// Run runs the loop until the run flag is cleared, the run switch is set to
// stop, or a driver call fails.
//
// Cancelling ctx clears the run flag, which is only checked between
// iterations, so the loop may run for up to one more iteration afterwards.
// Only a driver failure is returned as an error.
func (l *Loop) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		l.state.Stop(StopRequested)
	}
	stop := context.AfterFunc(ctx, func() {
		l.state.Stop(StopRequested)
	})
	defer stop()
	for l.state.Running() {
		more, err := l.Tick()
		if err != nil {
			return err
		}
		if !more {
			l.log.Info("run switch is set to stop, exit main loop")
			return nil
		}
	}
	l.log.Info("stop application", "cause", l.state.Cause())
	return nil
}

// Tick performs a single iteration of the loop, including the delay.
//
// Returns false, with no other effect, if the run switch is set to stop.
func (l *Loop) Tick() (bool, error) {
	run, err := l.drv.RunSwitch()
	if err != nil {
		return false, opError("get run switch", err)
	}
	if !run {
		return false, nil
	}
	mode := l.state.Mode()
	if mode != l.mode {
		l.log.Info("set mode", "mode", mode)
		l.mode = mode
	}
	if err := l.indicate(mode); err != nil {
		return false, err
	}
	l.pattern = l.pattern.Step(mode)
	for ch := 0; ch < l.outs; ch++ {
		if err := l.drv.SetDigitalOutput(uint8(ch), l.pattern.Bit(ch)); err != nil {
			return false, opError("set digital output", err)
		}
	}
	adc, err := l.drv.AnalogInput(RateInput)
	if err != nil {
		return false, opError("get adc value", err)
	}
	l.sleep(Delay(adc))
	return true, nil
}

// indicate blinks the run LED while the light is moving, and holds the
// error LED on while it is stopped.
func (l *Loop) indicate(mode Mode) error {
	run, errLED := false, true
	if mode != ModeStop {
		run, errLED = l.blink, false
		l.blink = !l.blink
	}
	if err := l.drv.SetRunLED(run); err != nil {
		return opError("set run led", err)
	}
	if err := l.drv.SetErrorLED(errLED); err != nil {
		return opError("set error led", err)
	}
	return nil
}
