// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

// Package rpi provides a runlight Driver built from Raspberry Pi GPIO lines.
//
// The digital inputs and outputs, LEDs and run switch are GPIO lines accessed
// through the memory mapped registers in /dev/gpiomem.
// Interrupts are edge events on the sysfs GPIO interface, and the analog
// inputs are read from an MCP3004/3008/3204/3208 attached via bit bashed SPI.
//
// The package uses the raw BCM2835 GPIO offsets, not the J8 header pin
// numbers.
package rpi

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/warthog618/runlight"
)

// Driver version reported by the board.
const (
	VersionMajor = 1
	VersionMinor = 0
)

// Board is a runlight Driver built from GPIO lines.
type Board struct {
	cfg Config

	mu        sync.Mutex
	chip      *chip
	watcher   *watcher
	adc       *mcp3w0c
	runLED    line
	errLED    line
	runSwitch line
	inputs    []line
	outputs   []line
}

// New creates a Board with the given line mapping.
func New(cfg Config) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Board{cfg: cfg}, nil
}

// Initialize maps the GPIO registers and configures the lines.
// The outputs and LEDs are driven low.
func (b *Board) Initialize() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.chip != nil {
		return errors.Wrap(runlight.ErrGeneric, "already initialized")
	}
	c, err := openChip()
	if err != nil {
		return errors.Wrapf(runlight.ErrDevAccessFailed, "open gpiomem: %v", err)
	}
	b.runLED = newLine(b.cfg.RunLED)
	b.errLED = newLine(b.cfg.ErrLED)
	b.runSwitch = newLine(b.cfg.RunSwitch)
	c.output(b.runLED, false)
	c.output(b.errLED, false)
	c.setMode(b.runSwitch, modeInput)
	c.setPull(b.runSwitch, pullDown)
	b.inputs = b.inputs[:0]
	for _, o := range b.cfg.Inputs {
		l := newLine(o)
		c.setMode(l, modeInput)
		c.setPull(l, pullDown)
		b.inputs = append(b.inputs, l)
	}
	b.outputs = b.outputs[:0]
	for _, o := range b.cfg.Outputs {
		l := newLine(o)
		c.output(l, false)
		b.outputs = append(b.outputs, l)
	}
	b.adc = newMCP3w0c(c, b.cfg.ADC)
	b.chip = c
	return nil
}

// Shutdown removes any interrupt handlers, releases the ADC lines and unmaps
// the GPIO registers.
// The outputs are left in their current state.
func (b *Board) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.chip == nil {
		return errors.Wrap(runlight.ErrDevAccessFailed, "not initialized")
	}
	if b.watcher != nil {
		b.watcher.close()
		b.watcher = nil
	}
	b.adc.close()
	err := b.chip.close()
	b.chip = nil
	if err != nil {
		return errors.Wrapf(runlight.ErrDevAccessFailed, "unmap gpiomem: %v", err)
	}
	return nil
}

// Version implements runlight.Driver.
func (b *Board) Version() (runlight.Version, error) {
	return runlight.Version{Major: VersionMajor, Minor: VersionMinor}, nil
}

// HardwareInfo implements runlight.Driver.
func (b *Board) HardwareInfo() (runlight.HardwareInfo, error) {
	return runlight.HardwareInfo{
		DigitalInputs:  uint16(len(b.cfg.Inputs)),
		DigitalOutputs: uint16(len(b.cfg.Outputs)),
		AnalogInputs:   uint16(b.cfg.ADC.Channels),
	}, nil
}

// chipLocked returns the chip, if the board is initialized.
func (b *Board) chipLocked() (*chip, error) {
	if b.chip == nil {
		return nil, errors.Wrap(runlight.ErrDevAccessFailed, "not initialized")
	}
	return b.chip, nil
}

// RunSwitch implements runlight.Driver.
func (b *Board) RunSwitch() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.chipLocked()
	if err != nil {
		return false, err
	}
	return c.read(b.runSwitch), nil
}

// SetRunLED implements runlight.Driver.
func (b *Board) SetRunLED(on bool) error {
	return b.set(b.runLED, on)
}

// SetErrorLED implements runlight.Driver.
func (b *Board) SetErrorLED(on bool) error {
	return b.set(b.errLED, on)
}

func (b *Board) set(l line, on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.chipLocked()
	if err != nil {
		return err
	}
	c.write(l, on)
	return nil
}

// DigitalInput implements runlight.Driver.
func (b *Board) DigitalInput(ch uint8) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.chipLocked()
	if err != nil {
		return false, err
	}
	if int(ch) >= len(b.inputs) {
		return false, errors.Wrapf(runlight.ErrInvalidChannel, "digital input %d", ch)
	}
	return c.read(b.inputs[ch]), nil
}

// SetDigitalOutput implements runlight.Driver.
func (b *Board) SetDigitalOutput(ch uint8, on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.chipLocked()
	if err != nil {
		return err
	}
	if int(ch) >= len(b.outputs) {
		return errors.Wrapf(runlight.ErrInvalidChannel, "digital output %d", ch)
	}
	c.write(b.outputs[ch], on)
	return nil
}

// AnalogInput returns the reading of the ADC channel, scaled so that full
// scale is runlight.AdcMax.
func (b *Board) AnalogInput(ch uint8) (uint16, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.chipLocked(); err != nil {
		return 0, err
	}
	if int(ch) >= b.cfg.ADC.Channels {
		return 0, errors.Wrapf(runlight.ErrInvalidChannel, "analog input %d", ch)
	}
	return scale(b.adc.read(int(ch)), b.cfg.ADC.Width), nil
}

// RegisterInterrupt implements runlight.Driver.
//
// The handler is called from the goroutine that monitors the sysfs value
// files.
func (b *Board) RegisterInterrupt(ch uint8, edge runlight.Edge, fn runlight.InterruptFunc) error {
	if fn == nil || edge > runlight.EdgeBoth {
		return errors.Wrapf(runlight.ErrInvalidParameter, "interrupt %d", ch)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.chipLocked(); err != nil {
		return err
	}
	if int(ch) >= len(b.inputs) {
		return errors.Wrapf(runlight.ErrInvalidChannel, "interrupt %d", ch)
	}
	offset := b.inputs[ch].offset
	if edge == runlight.EdgeNone {
		if b.watcher != nil {
			b.watcher.unregister(offset)
		}
		return nil
	}
	if b.watcher == nil {
		w, err := newWatcher()
		if err != nil {
			return errors.Wrapf(runlight.ErrDevAccessFailed, "watcher: %v", err)
		}
		b.watcher = w
	}
	err := b.watcher.register(offset, edge.String(), func(level bool) {
		if edge.Matches(level) {
			fn(ch, level)
		}
	})
	if err != nil {
		return errors.Wrapf(runlight.ErrDevAccessFailed, "watch gpio%d: %v", offset, err)
	}
	return nil
}

// UnregisterInterrupt implements runlight.Driver.
func (b *Board) UnregisterInterrupt(ch uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.chipLocked(); err != nil {
		return err
	}
	if int(ch) >= len(b.inputs) {
		return errors.Wrapf(runlight.ErrInvalidChannel, "interrupt %d", ch)
	}
	if b.watcher != nil {
		b.watcher.unregister(b.inputs[ch].offset)
	}
	return nil
}
