// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package runlight_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/warthog618/runlight"
)

func TestDelayEndpoints(t *testing.T) {
	assert.Equal(t, 500000, runlight.DelayMicros(runlight.AdcMin))
	// slope truncates to -16us per count
	assert.Equal(t, 499984, runlight.DelayMicros(1))
	assert.Equal(t, 500000-16*28151, runlight.DelayMicros(runlight.AdcMax))
	assert.Equal(t, 49584, runlight.DelayMicros(runlight.AdcMax))
	assert.Equal(t, 500*time.Millisecond, runlight.Delay(0))
	assert.Equal(t, 49584*time.Microsecond, runlight.Delay(runlight.AdcMax))
}

func TestDelayMonotonic(t *testing.T) {
	last := runlight.DelayMicros(0)
	for adc := 1; adc <= runlight.AdcMax; adc++ {
		d := runlight.DelayMicros(uint16(adc))
		if d > last {
			t.Fatalf("delay increased at %d: %d > %d", adc, d, last)
		}
		last = d
	}
}

func TestDelayClamp(t *testing.T) {
	floor := runlight.DelayMicros(runlight.AdcMax)
	for _, adc := range []uint16{runlight.AdcMax + 1, 30000, 0x8000, 0xffff} {
		assert.Equal(t, floor, runlight.DelayMicros(adc), adc)
	}
	assert.True(t, floor > 0)
	assert.True(t, floor >= runlight.DelayAtAdcMax)
}
