// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package rpi

import (
	"bytes"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	memLength = 4096

	modeMask uint32 = 7 // pin mode is 3 bits wide
	pullMask uint32 = 3 // pull mode is 2 bits wide
	// BCM2835 pullReg is the same for all pins.
	pullReg2835 = 37
)

// chip is the memory mapped GPIO block.
type chip struct {
	// mu covers read/modify/write access to mem.
	// Individual reads and writes skip the lock on the assumption that
	// register accesses are atomic.
	mu      sync.Mutex
	mem     []uint32
	mem8    []byte
	bcm2711 bool
}

// openChip maps the GPIO registers from /dev/gpiomem.
func openChip() (*chip, error) {
	file, err := os.OpenFile("/dev/gpiomem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	mem8, err := unix.Mmap(
		int(file.Fd()),
		0,
		memLength,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &chip{
		mem:     unsafe.Slice((*uint32)(unsafe.Pointer(&mem8[0])), len(mem8)/4),
		mem8:    mem8,
		bcm2711: isBCM2711(),
	}, nil
}

func (c *chip) close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mem = nil
	return unix.Munmap(c.mem8)
}

// isBCM2711 returns true on a Pi 4, which has a different pull register
// layout to the earlier models.
func isBCM2711() bool {
	compat, err := os.ReadFile("/proc/device-tree/compatible")
	return err == nil && bytes.Contains(compat, []byte("bcm2711"))
}
