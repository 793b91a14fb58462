// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package modbus

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/goburrow/modbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/runlight"
)

var _ runlight.Driver = (*Board)(nil)

type fakeClient struct {
	mu        sync.Mutex
	inputs    map[uint16]bool
	coils     map[uint16]bool
	registers map[uint16]uint16
	err       error
	closed    bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		inputs:    make(map[uint16]bool),
		coils:     make(map[uint16]bool),
		registers: make(map[uint16]uint16),
	}
}

func (f *fakeClient) ReadDiscreteInputs(address, quantity uint16) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]byte, (quantity+7)/8)
	for i := uint16(0); i < quantity; i++ {
		if f.inputs[address+i] {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out, nil
}

func (f *fakeClient) ReadInputRegisters(address, quantity uint16) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]byte, 2*quantity)
	for i := uint16(0); i < quantity; i++ {
		r := f.registers[address+i]
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out, nil
}

func (f *fakeClient) WriteSingleCoil(address, value uint16) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.coils[address] = value == coilOn
	return []byte{byte(value >> 8), byte(value)}, nil
}

func (f *fakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeClient) setInput(addr uint16, level bool) {
	f.mu.Lock()
	f.inputs[addr] = level
	f.mu.Unlock()
}

func (f *fakeClient) coil(addr uint16) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.coils[addr]
}

func (f *fakeClient) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func testConfig() Config {
	cfg := DefaultConfig
	cfg.InputBase = 100
	cfg.OutputBase = 200
	cfg.AnalogBase = 300
	// polls are driven by the tests
	cfg.PollInterval = time.Hour
	return cfg
}

func open(t *testing.T) (*fakeClient, *Board) {
	t.Helper()
	f := newFakeClient()
	b := newBoard(testConfig(), func(Config) (client, io.Closer, error) {
		return f, f, nil
	})
	require.Nil(t, b.Initialize())
	return f, b
}

func TestNew(t *testing.T) {
	cfg := DefaultConfig
	cfg.Port = ""
	_, err := New(cfg)
	assert.NotNil(t, err)
	cfg = DefaultConfig
	cfg.PollInterval = 0
	_, err = New(cfg)
	assert.NotNil(t, err)
	cfg = DefaultConfig
	cfg.Outputs = 1000
	_, err = New(cfg)
	assert.NotNil(t, err)
	b, err := New(DefaultConfig)
	assert.Nil(t, err)
	assert.NotNil(t, b)
}

func TestChannelLimits(t *testing.T) {
	cfg := DefaultConfig
	cfg.Inputs = 256
	cfg.Outputs = 256
	assert.Nil(t, cfg.Validate())

	// inputs beyond channel 255 would alias the lower channels
	cfg.Inputs = 300
	b, err := New(cfg)
	assert.NotNil(t, err)
	assert.Nil(t, b)
	cfg.Inputs = 257
	assert.NotNil(t, cfg.Validate())

	cfg.Inputs = 16
	cfg.Outputs = 257
	assert.NotNil(t, cfg.Validate())
}

func TestInitialize(t *testing.T) {
	b := newBoard(testConfig(), func(Config) (client, io.Closer, error) {
		return nil, nil, errors.New("no such port")
	})
	assert.Equal(t, runlight.ErrDevAccessFailed, runlight.ResultOf(b.Initialize()))
	_, err := b.RunSwitch()
	assert.Equal(t, runlight.ErrDevAccessFailed, runlight.ResultOf(err))
	assert.Equal(t, runlight.ErrDevAccessFailed, runlight.ResultOf(b.Shutdown()))

	f, b := open(t)
	assert.Equal(t, runlight.ErrGeneric, runlight.ResultOf(b.Initialize()))
	require.Nil(t, b.Shutdown())
	assert.True(t, f.closed)
	assert.Equal(t, runlight.ErrDevAccessFailed, runlight.ResultOf(b.SetRunLED(true)))
}

func TestHardwareInfo(t *testing.T) {
	_, b := open(t)
	defer b.Shutdown()
	info, err := b.HardwareInfo()
	require.Nil(t, err)
	assert.Equal(t, runlight.HardwareInfo{DigitalInputs: 16, DigitalOutputs: 16, AnalogInputs: 4}, info)
	v, err := b.Version()
	require.Nil(t, err)
	assert.Equal(t, runlight.Version{Major: 1}, v)
}

func TestIO(t *testing.T) {
	f, b := open(t)
	defer b.Shutdown()
	cfg := testConfig()

	require.Nil(t, b.SetDigitalOutput(3, true))
	assert.True(t, f.coil(203))
	require.Nil(t, b.SetDigitalOutput(3, false))
	assert.False(t, f.coil(203))
	require.Nil(t, b.SetRunLED(true))
	assert.True(t, f.coil(cfg.RunLED))
	require.Nil(t, b.SetErrorLED(true))
	assert.True(t, f.coil(cfg.ErrLED))

	f.setInput(109, true)
	level, err := b.DigitalInput(9)
	require.Nil(t, err)
	assert.True(t, level)
	f.setInput(cfg.RunSwitch, true)
	run, err := b.RunSwitch()
	require.Nil(t, err)
	assert.True(t, run)

	f.mu.Lock()
	f.registers[300] = 28151
	f.mu.Unlock()
	adc, err := b.AnalogInput(0)
	require.Nil(t, err)
	assert.Equal(t, uint16(28151), adc)
}

func TestInvalidChannel(t *testing.T) {
	_, b := open(t)
	defer b.Shutdown()
	fn := func(uint8, bool) {}
	assert.Equal(t, runlight.ErrInvalidChannel, runlight.ResultOf(b.SetDigitalOutput(16, true)))
	_, err := b.DigitalInput(16)
	assert.Equal(t, runlight.ErrInvalidChannel, runlight.ResultOf(err))
	_, err = b.AnalogInput(4)
	assert.Equal(t, runlight.ErrInvalidChannel, runlight.ResultOf(err))
	assert.Equal(t, runlight.ErrInvalidChannel, runlight.ResultOf(b.RegisterInterrupt(16, runlight.EdgeRising, fn)))
	assert.Equal(t, runlight.ErrInvalidChannel, runlight.ResultOf(b.UnregisterInterrupt(16)))
	assert.Equal(t, runlight.ErrInvalidParameter, runlight.ResultOf(b.RegisterInterrupt(0, runlight.Edge(9), fn)))
	assert.Equal(t, runlight.ErrInvalidParameter, runlight.ResultOf(b.RegisterInterrupt(0, runlight.EdgeRising, nil)))
}

func TestErrorMapping(t *testing.T) {
	f, b := open(t)
	defer b.Shutdown()
	f.fail(&modbus.ModbusError{ExceptionCode: modbus.ExceptionCodeIllegalDataAddress})
	assert.Equal(t, runlight.ErrInvalidChannel, runlight.ResultOf(b.SetRunLED(true)))
	f.fail(&modbus.ModbusError{ExceptionCode: modbus.ExceptionCodeIllegalFunction})
	assert.Equal(t, runlight.ErrDevAccessFailed, runlight.ResultOf(b.SetRunLED(true)))
	f.fail(errors.New("serial: timeout"))
	_, err := b.AnalogInput(0)
	assert.Equal(t, runlight.ErrDevAccessFailed, runlight.ResultOf(err))
}

func TestInterrupts(t *testing.T) {
	f, b := open(t)
	defer b.Shutdown()
	type evt struct {
		ch    uint8
		level bool
	}
	var events []evt
	fn := func(ch uint8, level bool) {
		events = append(events, evt{ch, level})
	}
	require.Nil(t, b.RegisterInterrupt(0, runlight.EdgeRising, fn))
	require.Nil(t, b.RegisterInterrupt(1, runlight.EdgeFalling, fn))
	require.Nil(t, b.RegisterInterrupt(2, runlight.EdgeBoth, fn))

	b.poll()
	assert.Empty(t, events)

	f.setInput(100, true)
	f.setInput(101, true)
	f.setInput(102, true)
	f.setInput(103, true)
	b.poll()
	assert.Equal(t, []evt{{0, true}, {2, true}}, events)

	events = nil
	f.setInput(100, false)
	f.setInput(101, false)
	f.setInput(102, false)
	b.poll()
	assert.Equal(t, []evt{{1, false}, {2, false}}, events)

	// failed polls are skipped, edges are seen on the next good poll
	events = nil
	f.fail(errors.New("serial: timeout"))
	f.setInput(100, true)
	b.poll()
	assert.Empty(t, events)
	f.fail(nil)
	b.poll()
	assert.Equal(t, []evt{{0, true}}, events)

	events = nil
	require.Nil(t, b.UnregisterInterrupt(0))
	require.Nil(t, b.RegisterInterrupt(2, runlight.EdgeNone, fn))
	f.setInput(100, false)
	f.setInput(102, true)
	b.poll()
	assert.Empty(t, events)
}

func TestPoller(t *testing.T) {
	f := newFakeClient()
	cfg := testConfig()
	cfg.PollInterval = time.Millisecond
	b := newBoard(cfg, func(Config) (client, io.Closer, error) {
		return f, f, nil
	})
	require.Nil(t, b.Initialize())
	got := make(chan uint8, 1)
	require.Nil(t, b.RegisterInterrupt(1, runlight.EdgeRising, func(ch uint8, level bool) {
		select {
		case got <- ch:
		default:
		}
	}))
	f.setInput(101, true)
	select {
	case ch := <-got:
		assert.Equal(t, uint8(1), ch)
	case <-time.After(time.Second):
		assert.Fail(t, "no interrupt")
	}
	require.Nil(t, b.Shutdown())
}
