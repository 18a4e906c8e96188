// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build !linux

package perf

import (
	"runtime"

	"github.com/perftrack/perftrack/events"
)

// A Counter is never successfully opened on this system.
type Counter struct {
	event events.Event
}

// Open always fails with an error matching [ErrResourceUnavailable].
func Open(ev events.Event) (*Counter, error) {
	return nil, &OpenError{Event: ev.String(), Err: ErrResourceUnavailable, Hint: "perf events require linux, not " + runtime.GOOS}
}

func (c *Counter) Event() events.Event { return c.event }

func (c *Counter) ResetAndArm() error { return ErrClosed }

func (c *Counter) DisableAndRead() (Count, error) { return Count{}, ErrClosed }

func (c *Counter) Armed() bool { return false }

func (c *Counter) Close() {}
