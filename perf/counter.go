// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package perf owns a single hardware performance counter bound to the
// calling goroutine.
//
// A [Counter] moves through closed, open, armed and back: [Open] returns an
// open, disabled counter; [Counter.ResetAndArm] zeroes and enables it;
// [Counter.DisableAndRead] stops it and returns the count; [Counter.Close]
// releases the kernel descriptor and may be called any number of times.
package perf

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

var (
	// ErrResourceUnavailable is matched by errors from [Open] when the kernel
	// declines to create a counter.
	ErrResourceUnavailable = errors.New("performance counter unavailable")

	// ErrReadIncomplete is matched by errors from [Counter.DisableAndRead] when
	// the kernel returned fewer bytes than a full counter value.
	ErrReadIncomplete = errors.New("incomplete counter read")

	// ErrNotCounted is matched by errors for a count whose counter was enabled
	// but never scheduled on the hardware, so it holds no usable value.
	ErrNotCounted = errors.New("counter was never scheduled")

	// ErrClosed is returned when operating on a closed Counter.
	ErrClosed = errors.New("counter is closed")
)

// OpenError reports a failure to obtain a counter. It matches both
// [ErrResourceUnavailable] and the underlying system error.
type OpenError struct {
	Event string
	Err   error
	Hint  string
}

func (e *OpenError) Error() string {
	msg := fmt.Sprintf("opening %s counter: %v", e.Event, e.Err)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *OpenError) Unwrap() []error {
	return []error{ErrResourceUnavailable, e.Err}
}

// countWidth is the size of one read: the value, time enabled and time
// running, each a native-endian uint64.
const countWidth = 3 * 8

// Count is the value of a Counter.
type Count struct {
	RawValue uint64 // The number of events while this counter was running.

	// Normally, TimeEnabled == TimeRunning. However, if more counters are
	// running than the hardware can support, events will be multiplexed onto
	// the hardware. In that case, TimeRunning < TimeEnabled, and the raw
	// counter value should be scaled under the assumption that the event is
	// happening at a regular rate and the sampled time is representative.

	TimeEnabled uint64 // Total time the Counter was armed.
	TimeRunning uint64 // Total time the Counter was actually counting.
}

// Value returns the measured value of Count, scaled to account for time the
// counter was not scheduled on the hardware.
func (c Count) Value() float64 {
	raw := float64(c.RawValue)
	if c.TimeEnabled == c.TimeRunning {
		// Common case: it was running the whole time.
		return raw
	}
	if c.TimeRunning == 0 {
		// Avoid divide by zero. Callers check Counted first.
		return 0
	}
	return raw * (float64(c.TimeEnabled) / float64(c.TimeRunning))
}

// Counted reports whether the counter ran on the hardware for any of the time
// it was enabled. A count that was enabled but never ran carries no
// information, not a zero.
func (c Count) Counted() bool {
	return c.TimeRunning > 0 || c.TimeEnabled == 0
}

// Multiplexed reports whether the counter shared the hardware with other
// counters, in which case Value is an estimate.
func (c Count) Multiplexed() bool {
	return c.TimeRunning < c.TimeEnabled
}

// readCount performs a single read of a counter value from r into buf. A
// short read is never treated as a zero count.
func readCount(r io.Reader, buf []byte) (Count, error) {
	n, err := r.Read(buf[:countWidth])
	if n < countWidth {
		if err != nil && err != io.EOF {
			return Count{}, errors.Wrap(err, "reading counter")
		}
		return Count{}, errors.Wrapf(ErrReadIncomplete, "read %d of %d bytes", n, countWidth)
	}
	return Count{
		RawValue:    binary.NativeEndian.Uint64(buf[0:]),
		TimeEnabled: binary.NativeEndian.Uint64(buf[8:]),
		TimeRunning: binary.NativeEndian.Uint64(buf[16:]),
	}, nil
}
