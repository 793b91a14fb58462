// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

package runlight

import (
	"fmt"

	"github.com/pkg/errors"
)

// Result is the result code of a driver call.
//
// Result implements error so drivers can return the code directly,
// or wrapped with additional context.
type Result uint8

// Result codes, as defined by the board driver API.
const (
	Success              Result = 0x00
	ErrGeneric           Result = 0xff
	ErrNotImplemented    Result = 0xfe
	ErrInvalidParameter  Result = 0xfd
	ErrInvalidChannel    Result = 0xfc
	ErrInvalidMode       Result = 0xfb
	ErrInvalidTimebase   Result = 0xfa
	ErrInvalidDelta      Result = 0xf9
	ErrPtoParamTabFull   Result = 0xf8
	ErrDevAccessFailed   Result = 0xf7
	ErrInvalidProcImgCfg Result = 0xf6
	ErrProcImgCfgUnknown Result = 0xf5
	ErrShpImgError       Result = 0xf4
	ErrAddressOutOfRange Result = 0xf3
	ErrWatchdogTimeout   Result = 0xf2
)

var resultNames = map[Result]string{
	Success:              "success",
	ErrGeneric:           "generic error",
	ErrNotImplemented:    "not implemented",
	ErrInvalidParameter:  "invalid parameter",
	ErrInvalidChannel:    "invalid channel",
	ErrInvalidMode:       "invalid mode",
	ErrInvalidTimebase:   "invalid timebase",
	ErrInvalidDelta:      "invalid delta",
	ErrPtoParamTabFull:   "PTO parameter table full",
	ErrDevAccessFailed:   "device access failed",
	ErrInvalidProcImgCfg: "invalid process image config",
	ErrProcImgCfgUnknown: "process image config unknown",
	ErrShpImgError:       "shared process image error",
	ErrAddressOutOfRange: "address out of range",
	ErrWatchdogTimeout:   "watchdog timeout",
}

func (r Result) Error() string {
	if n, ok := resultNames[r]; ok {
		return n
	}
	return fmt.Sprintf("result 0x%02X", uint8(r))
}

// ResultOf returns the Result carried by err.
//
// A nil error is Success, and an error that does not wrap a Result is
// reported as ErrGeneric.
func ResultOf(err error) Result {
	if err == nil {
		return Success
	}
	var r Result
	if errors.As(err, &r) {
		return r
	}
	return ErrGeneric
}

// OpError reports the failure of a driver operation.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s returned error code 0x%02X: %v", e.Op, uint8(ResultOf(e.Err)), e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func opError(op string, err error) error {
	return &OpError{Op: op, Err: err}
}

// ErrClosed indicates the board has been closed.
var ErrClosed = errors.New("board closed")
