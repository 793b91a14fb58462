// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package runlight_test

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/warthog618/runlight"
)

func TestResultOf(t *testing.T) {
	assert.Equal(t, runlight.Success, runlight.ResultOf(nil))
	assert.Equal(t, runlight.ErrInvalidChannel, runlight.ResultOf(runlight.ErrInvalidChannel))
	wrapped := errors.Wrapf(runlight.ErrDevAccessFailed, "read channel %d", 3)
	assert.Equal(t, runlight.ErrDevAccessFailed, runlight.ResultOf(wrapped))
	assert.Equal(t, runlight.ErrWatchdogTimeout,
		runlight.ResultOf(fmt.Errorf("outer: %w", runlight.ErrWatchdogTimeout)))
	assert.Equal(t, runlight.ErrGeneric, runlight.ResultOf(errors.New("not a result")))
}

func TestResultError(t *testing.T) {
	assert.Equal(t, "invalid channel", runlight.ErrInvalidChannel.Error())
	assert.Equal(t, "result 0x42", runlight.Result(0x42).Error())
}

func TestOpError(t *testing.T) {
	err := &runlight.OpError{
		Op:  "set run led",
		Err: errors.Wrap(runlight.ErrDevAccessFailed, "i2c"),
	}
	assert.Equal(t, "set run led returned error code 0xF7: i2c: device access failed", err.Error())
	assert.Equal(t, runlight.ErrDevAccessFailed, runlight.ResultOf(err))
}

func TestEdge(t *testing.T) {
	assert.True(t, runlight.EdgeRising.Matches(true))
	assert.False(t, runlight.EdgeRising.Matches(false))
	assert.True(t, runlight.EdgeFalling.Matches(false))
	assert.False(t, runlight.EdgeFalling.Matches(true))
	assert.True(t, runlight.EdgeBoth.Matches(true))
	assert.True(t, runlight.EdgeBoth.Matches(false))
	assert.False(t, runlight.EdgeNone.Matches(true))
	assert.Equal(t, "rising", runlight.EdgeRising.String())
	assert.Equal(t, "edge(9)", runlight.Edge(9).String())
}
