// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

// Package sim provides a simulated board for the runlight Driver interface.
//
// The board holds all its state in memory, records every call made to it,
// and can be told to fail individual operations.
// Edges on digital inputs are synthesised with SetInput or Pulse, which
// call any registered interrupt handler on the caller's goroutine.
package sim

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/warthog618/runlight"
)

// Op identifies a driver operation.
type Op string

// Driver operations, as recorded in Calls and used by Fail.
const (
	OpInitialize          Op = "initialize"
	OpShutdown            Op = "shutdown"
	OpVersion             Op = "version"
	OpHardwareInfo        Op = "hardware info"
	OpRunSwitch           Op = "run switch"
	OpSetRunLED           Op = "set run led"
	OpSetErrorLED         Op = "set error led"
	OpDigitalInput        Op = "digital input"
	OpSetDigitalOutput    Op = "set digital output"
	OpAnalogInput         Op = "analog input"
	OpRegisterInterrupt   Op = "register interrupt"
	OpUnregisterInterrupt Op = "unregister interrupt"
)

// Call is a record of a driver call.
type Call struct {
	Op      Op
	Channel uint8
	Value   bool
}

type watch struct {
	edge runlight.Edge
	fn   runlight.InterruptFunc
}

// Board is a simulated board.
type Board struct {
	mu          sync.Mutex
	version     runlight.Version
	info        runlight.HardwareInfo
	initialized bool
	runSwitch   bool
	runLED      bool
	errLED      bool
	inputs      []bool
	outputs     []bool
	analogs     []uint16
	watches     map[uint8]watch
	faults      map[Op]fault
	calls       []Call
	record      bool
}

type fault struct {
	result runlight.Result
	// number of successful calls before the fault triggers.
	after int
}

// Option modifies the construction of a Board.
type Option func(*Board)

// WithHardwareInfo sets the hardware info reported by the board, and sizes
// the simulated channels to match.
func WithHardwareInfo(info runlight.HardwareInfo) Option {
	return func(b *Board) {
		b.info = info
	}
}

// WithVersion sets the driver version reported by the board.
func WithVersion(v runlight.Version) Option {
	return func(b *Board) {
		b.version = v
	}
}

// WithAnalog sets the initial reading of an analog input.
func WithAnalog(ch uint8, v uint16) Option {
	return func(b *Board) {
		b.setAnalog(ch, v)
	}
}

// WithRunSwitch sets the initial position of the run switch.
func WithRunSwitch(run bool) Option {
	return func(b *Board) {
		b.runSwitch = run
	}
}

// WithRecording enables or disables the recording of calls.
// Recording is enabled by default.
func WithRecording(record bool) Option {
	return func(b *Board) {
		b.record = record
	}
}

// DefaultHardwareInfo resembles a sysWORXX CTR-700.
var DefaultHardwareInfo = runlight.HardwareInfo{
	PCBRevision:    4,
	DigitalInputs:  16,
	DigitalOutputs: 16,
	Relays:         2,
	AnalogInputs:   4,
	AnalogOutputs:  0,
	Counters:       1,
	Encoders:       1,
	PWMs:           2,
	TempSensors:    2,
}

// New creates a simulated board with the run switch set to run.
func New(options ...Option) *Board {
	b := &Board{
		version:   runlight.Version{Major: 1, Minor: 0},
		info:      DefaultHardwareInfo,
		runSwitch: true,
		record:    true,
		watches:   make(map[uint8]watch),
		faults:    make(map[Op]fault),
	}
	for _, option := range options {
		option(b)
	}
	analogs := b.analogs
	b.inputs = make([]bool, b.info.DigitalInputs)
	b.outputs = make([]bool, b.info.DigitalOutputs)
	b.analogs = make([]uint16, b.info.AnalogInputs)
	copy(b.analogs, analogs)
	return b
}

// Fail causes calls of op to fail with result r until cleared with Clear.
func (b *Board) Fail(op Op, r runlight.Result) {
	b.FailAfter(op, 0, r)
}

// FailAfter causes calls of op to fail with result r after n calls have
// succeeded.
func (b *Board) FailAfter(op Op, n int, r runlight.Result) {
	b.mu.Lock()
	b.faults[op] = fault{result: r, after: n}
	b.mu.Unlock()
}

// Clear removes any fault on op.
func (b *Board) Clear(op Op) {
	b.mu.Lock()
	delete(b.faults, op)
	b.mu.Unlock()
}

// Calls returns the calls made to the board, oldest first.
func (b *Board) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// ResetCalls discards the recorded calls.
func (b *Board) ResetCalls() {
	b.mu.Lock()
	b.calls = nil
	b.mu.Unlock()
}

// Initialized returns true between a successful Initialize and Shutdown.
func (b *Board) Initialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initialized
}

// SetRunSwitch moves the run switch.
func (b *Board) SetRunSwitch(run bool) {
	b.mu.Lock()
	b.runSwitch = run
	b.mu.Unlock()
}

// SetAnalog sets the reading of an analog input.
func (b *Board) SetAnalog(ch uint8, v uint16) {
	b.mu.Lock()
	b.setAnalog(ch, v)
	b.mu.Unlock()
}

func (b *Board) setAnalog(ch uint8, v uint16) {
	for int(ch) >= len(b.analogs) {
		b.analogs = append(b.analogs, 0)
	}
	b.analogs[ch] = v
}

// SetInput sets the level of a digital input, calling any handler watching
// for the resulting edge.
func (b *Board) SetInput(ch uint8, level bool) error {
	b.mu.Lock()
	if int(ch) >= len(b.inputs) {
		b.mu.Unlock()
		return errors.Wrapf(runlight.ErrInvalidChannel, "digital input %d", ch)
	}
	changed := b.inputs[ch] != level
	b.inputs[ch] = level
	w, ok := b.watches[ch]
	b.mu.Unlock()
	if changed && ok && w.edge.Matches(level) {
		w.fn(ch, level)
	}
	return nil
}

// Pulse raises and then drops a digital input.
func (b *Board) Pulse(ch uint8) error {
	if err := b.SetInput(ch, true); err != nil {
		return err
	}
	return b.SetInput(ch, false)
}

// Inject calls the handler registered on via, if any, reporting an edge on
// ch, without changing any input level.
// This simulates spurious events, such as from channels the board does not
// have.
func (b *Board) Inject(via, ch uint8, level bool) bool {
	b.mu.Lock()
	w, ok := b.watches[via]
	b.mu.Unlock()
	if ok {
		w.fn(ch, level)
	}
	return ok
}

// RunLED returns the state of the run LED.
func (b *Board) RunLED() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runLED
}

// ErrorLED returns the state of the error LED.
func (b *Board) ErrorLED() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.errLED
}

// Output returns the state of a digital output.
func (b *Board) Output(ch uint8) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if int(ch) >= len(b.outputs) {
		return false
	}
	return b.outputs[ch]
}

// Outputs returns the state of all the digital outputs as a bit field,
// bit n holding output n.
func (b *Board) Outputs() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var v uint32
	for i, o := range b.outputs {
		if o && i < 32 {
			v |= 1 << uint(i)
		}
	}
	return v
}

// Watched returns true if a handler is registered on the digital input.
func (b *Board) Watched(ch uint8) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.watches[ch]
	return ok
}

// call records the call and returns the injected fault, if any.
// Must be called with the lock held.
func (b *Board) call(op Op, ch uint8, v bool) error {
	if b.record {
		b.calls = append(b.calls, Call{Op: op, Channel: ch, Value: v})
	}
	if f, ok := b.faults[op]; ok {
		if f.after == 0 {
			return errors.Wrapf(f.result, "sim %s", op)
		}
		f.after--
		b.faults[op] = f
	}
	if op != OpInitialize && !b.initialized {
		return errors.Wrapf(runlight.ErrDevAccessFailed, "sim %s: not initialized", op)
	}
	return nil
}

// Initialize implements runlight.Driver.
func (b *Board) Initialize() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(OpInitialize, 0, false); err != nil {
		return err
	}
	if b.initialized {
		return errors.Wrap(runlight.ErrGeneric, "sim already initialized")
	}
	b.initialized = true
	return nil
}

// Shutdown implements runlight.Driver.
func (b *Board) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(OpShutdown, 0, false); err != nil {
		return err
	}
	b.initialized = false
	b.watches = make(map[uint8]watch)
	return nil
}

// Version implements runlight.Driver.
func (b *Board) Version() (runlight.Version, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(OpVersion, 0, false); err != nil {
		return runlight.Version{}, err
	}
	return b.version, nil
}

// HardwareInfo implements runlight.Driver.
func (b *Board) HardwareInfo() (runlight.HardwareInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(OpHardwareInfo, 0, false); err != nil {
		return runlight.HardwareInfo{}, err
	}
	return b.info, nil
}

// RunSwitch implements runlight.Driver.
func (b *Board) RunSwitch() (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(OpRunSwitch, 0, false); err != nil {
		return false, err
	}
	return b.runSwitch, nil
}

// SetRunLED implements runlight.Driver.
func (b *Board) SetRunLED(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(OpSetRunLED, 0, on); err != nil {
		return err
	}
	b.runLED = on
	return nil
}

// SetErrorLED implements runlight.Driver.
func (b *Board) SetErrorLED(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(OpSetErrorLED, 0, on); err != nil {
		return err
	}
	b.errLED = on
	return nil
}

// DigitalInput implements runlight.Driver.
func (b *Board) DigitalInput(ch uint8) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(OpDigitalInput, ch, false); err != nil {
		return false, err
	}
	if int(ch) >= len(b.inputs) {
		return false, errors.Wrapf(runlight.ErrInvalidChannel, "digital input %d", ch)
	}
	return b.inputs[ch], nil
}

// SetDigitalOutput implements runlight.Driver.
func (b *Board) SetDigitalOutput(ch uint8, on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(OpSetDigitalOutput, ch, on); err != nil {
		return err
	}
	if int(ch) >= len(b.outputs) {
		return errors.Wrapf(runlight.ErrInvalidChannel, "digital output %d", ch)
	}
	b.outputs[ch] = on
	return nil
}

// AnalogInput implements runlight.Driver.
func (b *Board) AnalogInput(ch uint8) (uint16, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(OpAnalogInput, ch, false); err != nil {
		return 0, err
	}
	if int(ch) >= len(b.analogs) {
		return 0, errors.Wrapf(runlight.ErrInvalidChannel, "analog input %d", ch)
	}
	return b.analogs[ch], nil
}

// RegisterInterrupt implements runlight.Driver.
func (b *Board) RegisterInterrupt(ch uint8, edge runlight.Edge, fn runlight.InterruptFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(OpRegisterInterrupt, ch, false); err != nil {
		return err
	}
	if edge > runlight.EdgeBoth || fn == nil {
		return errors.Wrapf(runlight.ErrInvalidParameter, "interrupt %d", ch)
	}
	if int(ch) >= len(b.inputs) {
		return errors.Wrapf(runlight.ErrInvalidChannel, "interrupt %d", ch)
	}
	if edge == runlight.EdgeNone {
		delete(b.watches, ch)
		return nil
	}
	b.watches[ch] = watch{edge: edge, fn: fn}
	return nil
}

// UnregisterInterrupt implements runlight.Driver.
func (b *Board) UnregisterInterrupt(ch uint8) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.call(OpUnregisterInterrupt, ch, false); err != nil {
		return err
	}
	if int(ch) >= len(b.inputs) {
		return errors.Wrapf(runlight.ErrInvalidChannel, "interrupt %d", ch)
	}
	delete(b.watches, ch)
	return nil
}
