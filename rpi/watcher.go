// SPDX-License-Identifier: MIT
//
// Copyright © 2026 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package rpi

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const maxEvents = 32

// sysfsGPIO is the root of the sysfs GPIO interface.
var sysfsGPIO = "/sys/class/gpio"

type interrupt struct {
	offset    int
	handler   func(level bool)
	valueFile *os.File
	// the first event after registration reports the initial level rather
	// than an edge, so is dropped.
	synced bool
}

// watcher dispatches edge events on sysfs GPIO lines to handlers.
//
// Handlers are called from the watcher goroutine, one at a time.
type watcher struct {
	mu   sync.Mutex // Guards the following, and sysfs interactions.
	epfd int
	// wakes the dispatch goroutine to exit
	efd int
	// map from line offset to value fd.
	fds map[int]int
	// map from value fd to interrupt.
	interrupts map[int]*interrupt
	done       chan struct{}
}

func newWatcher() (*watcher, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	efd, err := unix.Eventfd(0, unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, err
	}
	event := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(efd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, efd, &event); err != nil {
		unix.Close(efd)
		unix.Close(epfd)
		return nil, err
	}
	w := &watcher{
		epfd:       epfd,
		efd:        efd,
		fds:        make(map[int]int),
		interrupts: make(map[int]*interrupt),
		done:       make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *watcher) run() {
	defer close(w.done)
	var events [maxEvents]unix.EpollEvent
	for {
		n, err := unix.EpollWait(w.epfd, events[:], -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		irqs := make([]*interrupt, 0, n)
		levels := make([]bool, 0, n)
		w.mu.Lock()
		for _, event := range events[:n] {
			fd := int(event.Fd)
			if fd == w.efd {
				w.mu.Unlock()
				return
			}
			irq, ok := w.interrupts[fd]
			if !ok {
				continue
			}
			level, err := readValue(fd)
			if err != nil {
				continue
			}
			if !irq.synced {
				irq.synced = true
				continue
			}
			irqs = append(irqs, irq)
			levels = append(levels, level)
		}
		w.mu.Unlock()
		for i, irq := range irqs {
			irq.handler(levels[i])
		}
	}
}

// close stops the dispatch goroutine and releases all watched lines.
func (w *watcher) close() {
	var one = [8]byte{1}
	unix.Write(w.efd, one[:])
	<-w.done
	w.mu.Lock()
	defer w.mu.Unlock()
	for fd, irq := range w.interrupts {
		irq.valueFile.Close()
		unexport(irq.offset)
		delete(w.interrupts, fd)
	}
	w.fds = make(map[int]int)
	unix.Close(w.efd)
	unix.Close(w.epfd)
}

// register watches the line for the edge, which is one of the sysfs edge
// names, calling handler with the level after each edge.
// A line can only be registered once.
func (w *watcher) register(offset int, edge string, handler func(bool)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.fds[offset]; ok {
		return errors.Errorf("gpio%d already watched", offset)
	}
	if err := export(offset); err != nil {
		return err
	}
	valueFile, err := w.open(offset, edge)
	if err != nil {
		unexport(offset)
		return err
	}
	fd := int(valueFile.Fd())
	w.fds[offset] = fd
	w.interrupts[fd] = &interrupt{offset: offset, handler: handler, valueFile: valueFile}
	return nil
}

// open sets the edge of an exported line, and adds its value file to the
// epoll set.
func (w *watcher) open(offset int, edge string) (*os.File, error) {
	if err := writeSysfs(offset, "edge", edge); err != nil {
		return nil, err
	}
	path := fmt.Sprintf("%s/gpio%d/value", sysfsGPIO, offset)
	valueFile, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	fd := int(valueFile.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		valueFile.Close()
		return nil, err
	}
	event := unix.EpollEvent{Events: unix.EPOLLPRI | unix.EPOLLET, Fd: int32(fd)}
	if err := unix.EpollCtl(w.epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
		valueFile.Close()
		return nil, err
	}
	return valueFile, nil
}

func (w *watcher) unregister(offset int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fd, ok := w.fds[offset]
	if !ok {
		return
	}
	delete(w.fds, offset)
	unix.EpollCtl(w.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if irq, ok := w.interrupts[fd]; ok {
		delete(w.interrupts, fd)
		irq.valueFile.Close()
	}
	unexport(offset)
}

func readValue(fd int) (bool, error) {
	var buf [1]byte
	if _, err := unix.Pread(fd, buf[:], 0); err != nil {
		return false, err
	}
	return buf[0] == '1', nil
}

func export(offset int) error {
	err := writeFile(sysfsGPIO+"/export", strconv.Itoa(offset))
	if e, ok := err.(*os.PathError); ok && e.Err == unix.EBUSY {
		// already exported
		return nil
	}
	if err != nil {
		return err
	}
	// udev can take > 100ms to make the files writable on older Pis.
	return waitWriteable(fmt.Sprintf("%s/gpio%d/edge", sysfsGPIO, offset))
}

func unexport(offset int) error {
	return writeFile(sysfsGPIO+"/unexport", strconv.Itoa(offset))
}

func writeSysfs(offset int, attr, value string) error {
	return writeFile(fmt.Sprintf("%s/gpio%d/%s", sysfsGPIO, offset, attr), value)
}

func writeFile(path, value string) error {
	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = file.WriteString(value)
	return err
}

func waitWriteable(path string) error {
	for try := 0; try < 10; try++ {
		if unix.Access(path, unix.W_OK) == nil {
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return errors.Errorf("timeout waiting for %s", path)
}
