// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package runlight

import (
	"time"
)

// Analog input that sets the loop rate.
const RateInput uint8 = 0

// Endpoints of the linear mapping from ADC reading to loop delay, in ADC
// counts and microseconds.
const (
	AdcMin = 0     // 0V
	AdcMax = 28151 // 10V

	DelayAtAdcMin = 500 * 1000 // 500ms
	DelayAtAdcMax = 25 * 1000  // 25ms
)

// slope is truncated to an integer number of microseconds per count, so the
// delay at AdcMax is 49584us rather than DelayAtAdcMax.
const slope = (DelayAtAdcMax - DelayAtAdcMin) / (AdcMax - AdcMin)

// DelayMicros returns the loop delay, in microseconds, for an ADC reading.
//
// Readings above AdcMax are clamped to AdcMax so the delay never drops
// below the delay at full scale.
func DelayMicros(adc uint16) int {
	x := int(adc)
	if x > AdcMax {
		x = AdcMax
	}
	return slope*(x-AdcMin) + DelayAtAdcMin
}

// Delay returns the loop delay for an ADC reading.
func Delay(adc uint16) time.Duration {
	return time.Duration(DelayMicros(adc)) * time.Microsecond
}
