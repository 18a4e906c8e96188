// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package perf

import (
	"bytes"
	"errors"
	"os"
	"runtime"
	"strconv"
	"syscall"
	"unsafe"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/perftrack/perftrack/events"
)

// perfEventOpen is stubbed by tests.
var perfEventOpen = unix.PerfEventOpen

const paranoidPath = "/proc/sys/kernel/perf_event_paranoid"

// A Counter counts one [events.Event] on the calling goroutine, which stays
// locked to its OS thread until [Counter.Close].
//
// A Counter must only be used from the goroutine that opened it.
type Counter struct {
	event events.Event
	f     *os.File
	armed bool

	readBuf [countWidth]byte
}

// Open returns a new disabled [Counter] for ev, counting only user-space
// events of the calling goroutine. Callers must call [Counter.Close] on every
// path once Open succeeds.
//
// If the kernel refuses the counter, the error matches
// [ErrResourceUnavailable].
func Open(ev events.Event) (*Counter, error) {
	attr := unix.PerfEventAttr{}
	attr.Size = uint32(unsafe.Sizeof(attr))
	if err := ev.SetAttrs(&attr); err != nil {
		return nil, pkgerrors.Wrapf(err, "event %s", ev)
	}
	attr.Read_format = unix.PERF_FORMAT_TOTAL_TIME_ENABLED |
		unix.PERF_FORMAT_TOTAL_TIME_RUNNING
	attr.Bits = unix.PerfBitDisabled |
		unix.PerfBitExcludeKernel |
		unix.PerfBitExcludeHv

	success := false
	runtime.LockOSThread()
	defer func() {
		if !success {
			runtime.UnlockOSThread()
		}
	}()

	// pid 0 and cpu -1: this thread, on whatever CPU it runs.
	fd, err := perfEventOpen(&attr, 0, -1, -1, unix.PERF_FLAG_FD_CLOEXEC)
	if err != nil {
		return nil, &OpenError{Event: ev.String(), Err: err, Hint: openHint(err)}
	}

	success = true
	return &Counter{event: ev, f: os.NewFile(uintptr(fd), "<perf-event>")}, nil
}

func openHint(err error) string {
	switch {
	case errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		data, err2 := os.ReadFile(paranoidPath)
		data = bytes.TrimSpace(data)
		if val, err3 := strconv.Atoi(string(data)); err2 != nil || err3 != nil || val > 0 {
			// We can't read it, or it's set to > 0.
			return "consider: echo 0 | sudo tee " + paranoidPath
		}
	case errors.Is(err, syscall.ENOENT), errors.Is(err, syscall.ENODEV), errors.Is(err, syscall.EOPNOTSUPP):
		return "no hardware counter for this event; consider wall-clock mode"
	case errors.Is(err, syscall.EMFILE), errors.Is(err, syscall.ENFILE):
		return "out of file descriptors"
	}
	return ""
}

// Event returns the event c counts.
func (c *Counter) Event() events.Event {
	return c.event
}

// ResetAndArm zeroes the counter and starts counting.
func (c *Counter) ResetAndArm() error {
	if c == nil || c.f == nil {
		return ErrClosed
	}
	fd := int(c.f.Fd())
	if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_RESET, 0); err != nil {
		return pkgerrors.Wrap(err, "resetting counter")
	}
	if err := unix.IoctlSetInt(fd, unix.PERF_EVENT_IOC_ENABLE, 0); err != nil {
		return pkgerrors.Wrap(err, "enabling counter")
	}
	c.armed = true
	return nil
}

// DisableAndRead stops counting and returns the count accumulated since the
// last [Counter.ResetAndArm]. The disable happens before anything else so that
// none of the read path is counted.
func (c *Counter) DisableAndRead() (Count, error) {
	if c == nil || c.f == nil {
		return Count{}, ErrClosed
	}
	if c.armed {
		if err := unix.IoctlSetInt(int(c.f.Fd()), unix.PERF_EVENT_IOC_DISABLE, 0); err != nil {
			return Count{}, pkgerrors.Wrap(err, "disabling counter")
		}
		c.armed = false
	}
	return readCount(c.f, c.readBuf[:])
}

// Armed reports whether c is currently counting.
func (c *Counter) Armed() bool {
	return c != nil && c.armed
}

// Close releases the counter and unlocks the goroutine from the OS thread.
// Closing a nil or already closed Counter does nothing.
func (c *Counter) Close() {
	if c == nil || c.f == nil {
		return
	}
	c.f.Close()
	c.f = nil
	c.armed = false
	runtime.UnlockOSThread()
}
