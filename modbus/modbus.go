// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package modbus provides a runlight Driver for Modbus RTU remote I/O.
//
// The digital outputs and LEDs are coils, the digital inputs and run switch
// are discrete inputs, and the analog inputs are input registers.
// Modbus has no unsolicited events, so interrupts are synthesised by polling
// the digital inputs and reporting any edges seen between polls.
package modbus

import (
	"io"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/pkg/errors"
	"github.com/warthog618/runlight"
)

// Driver version reported by the board.
const (
	VersionMajor = 1
	VersionMinor = 0
)

const (
	coilOn  uint16 = 0xff00
	coilOff uint16 = 0x0000

	maxChannels = 256
)

// Config describes the serial link and the register map of the remote I/O.
type Config struct {
	Port     string
	BaudRate int
	Parity   string
	StopBits int
	SlaveID  byte
	Timeout  time.Duration
	// PollInterval is the period between polls of the digital inputs for
	// edges.
	PollInterval time.Duration

	Inputs  int
	Outputs int
	Analogs int

	// First discrete input, coil, and input register for the digital inputs,
	// digital outputs and analog inputs respectively.
	InputBase  uint16
	OutputBase uint16
	AnalogBase uint16

	// Coils driving the LEDs.
	RunLED uint16
	ErrLED uint16
	// Discrete input reading the run switch.
	RunSwitch uint16
}

// DefaultConfig suits a 16 DI/16 DO/4 AI module on /dev/ttyUSB0.
var DefaultConfig = Config{
	Port:         "/dev/ttyUSB0",
	BaudRate:     19200,
	Parity:       "E",
	StopBits:     1,
	SlaveID:      1,
	Timeout:      time.Second,
	PollInterval: 10 * time.Millisecond,
	Inputs:       16,
	Outputs:      16,
	Analogs:      4,
	InputBase:    0,
	OutputBase:   0,
	AnalogBase:   0,
	RunLED:       16,
	ErrLED:       17,
	RunSwitch:    16,
}

// client is the subset of the modbus client used by the Board.
type client interface {
	ReadDiscreteInputs(address, quantity uint16) ([]byte, error)
	ReadInputRegisters(address, quantity uint16) ([]byte, error)
	WriteSingleCoil(address, value uint16) ([]byte, error)
}

type dialer func(cfg Config) (client, io.Closer, error)

type watch struct {
	edge runlight.Edge
	fn   runlight.InterruptFunc
}

// Board is a runlight Driver for a Modbus RTU remote I/O module.
type Board struct {
	cfg  Config
	dial dialer

	// mu serialises bus transactions, and covers the link state.
	mu     sync.Mutex
	c      client
	closer io.Closer
	levels []bool
	stop   chan struct{}
	done   chan struct{}

	wmu     sync.Mutex
	watches map[uint8]watch
}

// New creates a Board for the remote I/O described by cfg.
func New(cfg Config) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newBoard(cfg, dialRTU), nil
}

func newBoard(cfg Config, dial dialer) *Board {
	return &Board{
		cfg:     cfg,
		dial:    dial,
		watches: make(map[uint8]watch),
	}
}

// Validate checks the config is usable.
func (cfg Config) Validate() error {
	if cfg.Port == "" {
		return errors.New("modbus: port required")
	}
	if cfg.PollInterval <= 0 {
		return errors.New("modbus: poll interval must be > 0")
	}
	// channels are uint8
	if cfg.Inputs < 0 || cfg.Inputs > maxChannels {
		return errors.Errorf("modbus: unsupported input count %d", cfg.Inputs)
	}
	if cfg.Outputs < 0 || cfg.Outputs > maxChannels {
		return errors.Errorf("modbus: unsupported output count %d", cfg.Outputs)
	}
	if cfg.Analogs < 0 || cfg.Analogs > 125 {
		return errors.Errorf("modbus: unsupported analog count %d", cfg.Analogs)
	}
	return nil
}

func dialRTU(cfg Config) (client, io.Closer, error) {
	h := modbus.NewRTUClientHandler(cfg.Port)
	h.BaudRate = cfg.BaudRate
	h.DataBits = 8
	h.Parity = cfg.Parity
	h.StopBits = cfg.StopBits
	h.SlaveId = cfg.SlaveID
	h.Timeout = cfg.Timeout
	if err := h.Connect(); err != nil {
		return nil, nil, err
	}
	return modbus.NewClient(h), h, nil
}

// wrap maps a modbus error onto the closest Result.
func wrap(err error, format string, args ...interface{}) error {
	r := runlight.ErrDevAccessFailed
	var me *modbus.ModbusError
	if errors.As(err, &me) && me.ExceptionCode == modbus.ExceptionCodeIllegalDataAddress {
		r = runlight.ErrInvalidChannel
	}
	return errors.Wrapf(r, format+": %v", append(args, err)...)
}

// Initialize opens the serial link and starts polling the digital inputs.
func (b *Board) Initialize() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.c != nil {
		return errors.Wrap(runlight.ErrGeneric, "already initialized")
	}
	c, closer, err := b.dial(b.cfg)
	if err != nil {
		return errors.Wrapf(runlight.ErrDevAccessFailed, "open %s: %v", b.cfg.Port, err)
	}
	b.c = c
	b.closer = closer
	levels, err := b.readInputsLocked()
	if err != nil {
		b.c = nil
		closer.Close()
		return err
	}
	b.levels = levels
	b.stop = make(chan struct{})
	b.done = make(chan struct{})
	go b.run(b.stop, b.done)
	return nil
}

// Shutdown stops polling and closes the serial link.
func (b *Board) Shutdown() error {
	b.mu.Lock()
	if b.c == nil {
		b.mu.Unlock()
		return errors.Wrap(runlight.ErrDevAccessFailed, "not initialized")
	}
	stop, done := b.stop, b.done
	b.mu.Unlock()
	close(stop)
	<-done

	b.wmu.Lock()
	b.watches = make(map[uint8]watch)
	b.wmu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.closer.Close()
	b.c = nil
	b.closer = nil
	if err != nil {
		return errors.Wrapf(runlight.ErrDevAccessFailed, "close %s: %v", b.cfg.Port, err)
	}
	return nil
}

func (b *Board) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.poll()
		case <-stop:
			return
		}
	}
}

type event struct {
	ch    uint8
	level bool
	fn    runlight.InterruptFunc
}

// poll reads the digital inputs and calls the handlers for any edges since
// the previous poll.
// A failed read is skipped, and edges are detected on the next successful
// poll.
func (b *Board) poll() {
	b.mu.Lock()
	if b.c == nil {
		b.mu.Unlock()
		return
	}
	levels, err := b.readInputsLocked()
	if err != nil {
		b.mu.Unlock()
		return
	}
	prev := b.levels
	b.levels = levels
	b.mu.Unlock()

	var events []event
	b.wmu.Lock()
	for ch, level := range levels {
		if ch >= len(prev) || prev[ch] == level {
			continue
		}
		if w, ok := b.watches[uint8(ch)]; ok && w.edge.Matches(level) {
			events = append(events, event{ch: uint8(ch), level: level, fn: w.fn})
		}
	}
	b.wmu.Unlock()
	for _, e := range events {
		e.fn(e.ch, e.level)
	}
}

func (b *Board) readInputsLocked() ([]bool, error) {
	if b.cfg.Inputs == 0 {
		return nil, nil
	}
	raw, err := b.c.ReadDiscreteInputs(b.cfg.InputBase, uint16(b.cfg.Inputs))
	if err != nil {
		return nil, wrap(err, "read digital inputs")
	}
	return unpackBits(raw, b.cfg.Inputs)
}

func unpackBits(raw []byte, n int) ([]bool, error) {
	if len(raw) < (n+7)/8 {
		return nil, errors.Wrapf(runlight.ErrDevAccessFailed, "short response: %d bytes for %d bits", len(raw), n)
	}
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = raw[i/8]&(1<<uint(i%8)) != 0
	}
	return bits, nil
}

func (b *Board) clientLocked() (client, error) {
	if b.c == nil {
		return nil, errors.Wrap(runlight.ErrDevAccessFailed, "not initialized")
	}
	return b.c, nil
}

// Version implements runlight.Driver.
func (b *Board) Version() (runlight.Version, error) {
	return runlight.Version{Major: VersionMajor, Minor: VersionMinor}, nil
}

// HardwareInfo implements runlight.Driver.
func (b *Board) HardwareInfo() (runlight.HardwareInfo, error) {
	return runlight.HardwareInfo{
		DigitalInputs:  uint16(b.cfg.Inputs),
		DigitalOutputs: uint16(b.cfg.Outputs),
		AnalogInputs:   uint16(b.cfg.Analogs),
	}, nil
}

func (b *Board) readBit(addr uint16, what string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.clientLocked()
	if err != nil {
		return false, err
	}
	raw, err := c.ReadDiscreteInputs(addr, 1)
	if err != nil {
		return false, wrap(err, "read %s", what)
	}
	bits, err := unpackBits(raw, 1)
	if err != nil {
		return false, err
	}
	return bits[0], nil
}

func (b *Board) writeCoil(addr uint16, on bool, what string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.clientLocked()
	if err != nil {
		return err
	}
	v := coilOff
	if on {
		v = coilOn
	}
	if _, err := c.WriteSingleCoil(addr, v); err != nil {
		return wrap(err, "write %s", what)
	}
	return nil
}

// RunSwitch implements runlight.Driver.
func (b *Board) RunSwitch() (bool, error) {
	return b.readBit(b.cfg.RunSwitch, "run switch")
}

// SetRunLED implements runlight.Driver.
func (b *Board) SetRunLED(on bool) error {
	return b.writeCoil(b.cfg.RunLED, on, "run led")
}

// SetErrorLED implements runlight.Driver.
func (b *Board) SetErrorLED(on bool) error {
	return b.writeCoil(b.cfg.ErrLED, on, "error led")
}

// DigitalInput implements runlight.Driver.
func (b *Board) DigitalInput(ch uint8) (bool, error) {
	if int(ch) >= b.cfg.Inputs {
		return false, errors.Wrapf(runlight.ErrInvalidChannel, "digital input %d", ch)
	}
	return b.readBit(b.cfg.InputBase+uint16(ch), "digital input")
}

// SetDigitalOutput implements runlight.Driver.
func (b *Board) SetDigitalOutput(ch uint8, on bool) error {
	if int(ch) >= b.cfg.Outputs {
		return errors.Wrapf(runlight.ErrInvalidChannel, "digital output %d", ch)
	}
	return b.writeCoil(b.cfg.OutputBase+uint16(ch), on, "digital output")
}

// AnalogInput implements runlight.Driver.
func (b *Board) AnalogInput(ch uint8) (uint16, error) {
	if int(ch) >= b.cfg.Analogs {
		return 0, errors.Wrapf(runlight.ErrInvalidChannel, "analog input %d", ch)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	c, err := b.clientLocked()
	if err != nil {
		return 0, err
	}
	raw, err := c.ReadInputRegisters(b.cfg.AnalogBase+uint16(ch), 1)
	if err != nil {
		return 0, wrap(err, "read analog input %d", ch)
	}
	if len(raw) < 2 {
		return 0, errors.Wrapf(runlight.ErrDevAccessFailed, "short response: %d bytes", len(raw))
	}
	return uint16(raw[0])<<8 | uint16(raw[1]), nil
}

// RegisterInterrupt implements runlight.Driver.
//
// The handler is called from the polling goroutine.
func (b *Board) RegisterInterrupt(ch uint8, edge runlight.Edge, fn runlight.InterruptFunc) error {
	if fn == nil || edge > runlight.EdgeBoth {
		return errors.Wrapf(runlight.ErrInvalidParameter, "interrupt %d", ch)
	}
	if int(ch) >= b.cfg.Inputs {
		return errors.Wrapf(runlight.ErrInvalidChannel, "interrupt %d", ch)
	}
	b.mu.Lock()
	_, err := b.clientLocked()
	b.mu.Unlock()
	if err != nil {
		return err
	}
	b.wmu.Lock()
	defer b.wmu.Unlock()
	if edge == runlight.EdgeNone {
		delete(b.watches, ch)
		return nil
	}
	b.watches[ch] = watch{edge: edge, fn: fn}
	return nil
}

// UnregisterInterrupt implements runlight.Driver.
func (b *Board) UnregisterInterrupt(ch uint8) error {
	if int(ch) >= b.cfg.Inputs {
		return errors.Wrapf(runlight.ErrInvalidChannel, "interrupt %d", ch)
	}
	b.wmu.Lock()
	delete(b.watches, ch)
	b.wmu.Unlock()
	return nil
}
