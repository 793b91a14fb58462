// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package runlight

import (
	"fmt"
	"log/slog"
	"sync"
)

// Board is an initialised Driver.
//
// A Board is created by Open or Start and must be released by exactly one
// call to Close or Release, whichever way the application exits.
type Board struct {
	drv     Driver
	log     *slog.Logger
	version Version
	info    HardwareInfo

	mu      sync.Mutex
	watched []uint8
	closed  bool
}

// Option modifies the behaviour of a Board.
type Option func(*Board)

// WithLogger sets the logger used for board lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(b *Board) {
		b.log = l
	}
}

// Open initialises the driver and reads the driver version and hardware info.
//
// If any step fails then the driver is shut down again before returning.
func Open(drv Driver, options ...Option) (*Board, error) {
	b := &Board{drv: drv, log: slog.Default()}
	for _, option := range options {
		option(b)
	}
	if err := drv.Initialize(); err != nil {
		return nil, opError("initialize", err)
	}
	var err error
	if b.version, err = drv.Version(); err != nil {
		b.ignore("shutdown", drv.Shutdown())
		return nil, opError("get version", err)
	}
	if b.info, err = drv.HardwareInfo(); err != nil {
		b.ignore("shutdown", drv.Shutdown())
		return nil, opError("get hardware info", err)
	}
	return b, nil
}

// Start opens the board and registers the handler for s on the rising edges
// of the control inputs.
//
// Startup is all or nothing - if any step fails then the board is released
// and the error returned.
func Start(drv Driver, s *State, options ...Option) (*Board, error) {
	b, err := Open(drv, options...)
	if err != nil {
		return nil, err
	}
	if err := b.Watch(s, ControlInputs...); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

// Watch registers the interrupt handler for s on the rising edges of the
// inputs.
func (b *Board) Watch(s *State, inputs ...uint8) error {
	h := Handler(s)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	for _, ch := range inputs {
		b.log.Debug("register DI interrupt", "channel", ch)
		if err := b.drv.RegisterInterrupt(ch, EdgeRising, h); err != nil {
			return opError(fmt.Sprintf("register interrupt callback %d", ch), err)
		}
		b.watched = append(b.watched, ch)
	}
	return nil
}

// Driver returns the underlying driver.
func (b *Board) Driver() Driver {
	return b.drv
}

// Version returns the driver version read when the board was opened.
func (b *Board) Version() Version {
	return b.version
}

// HardwareInfo returns the hardware info read when the board was opened.
func (b *Board) HardwareInfo() HardwareInfo {
	return b.info
}

// OutputChannels returns the number of digital outputs driven with the
// pattern.
//
// This is the number of digital inputs, not outputs, as the boards this was
// written for have equal numbers of each.
// A board with fewer outputs than inputs will fail the loop with an invalid
// channel error.
func (b *Board) OutputChannels() int {
	return int(b.info.DigitalInputs)
}

// Close turns off the LEDs and all digital outputs, then releases the board.
//
// The shutdown is best effort - every command is attempted and failures are
// logged but otherwise ignored.
// Only the first call to Close or Release has any effect.
func (b *Board) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.ignore("set run led", b.drv.SetRunLED(false))
	b.ignore("set error led", b.drv.SetErrorLED(false))
	for ch := 0; ch < b.OutputChannels(); ch++ {
		b.ignore("set digital output", b.drv.SetDigitalOutput(uint8(ch), false))
	}
	b.release()
}

// Release unregisters any interrupt handlers and shuts down the driver,
// leaving the outputs in their current state.
func (b *Board) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.release()
}

func (b *Board) release() {
	for _, ch := range b.watched {
		b.ignore("unregister interrupt callback", b.drv.UnregisterInterrupt(ch))
	}
	b.watched = nil
	b.ignore("shutdown", b.drv.Shutdown())
	b.closed = true
}

func (b *Board) ignore(op string, err error) {
	if err != nil {
		b.log.Debug("ignoring shutdown failure", "op", op, "err", err)
	}
}
