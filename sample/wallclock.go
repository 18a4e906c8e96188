// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sample

import (
	"time"

	"github.com/pkg/errors"
)

// ErrNotArmed is returned when finishing a probe that was not armed.
var ErrNotArmed = errors.New("probe not armed")

// WallClock returns a Source that measures elapsed monotonic time in
// nanoseconds. It is the degraded mode for systems without perf events.
func WallClock() Source {
	return wallClock{now: time.Now}
}

type wallClock struct {
	now func() time.Time
}

func (wallClock) Name() string { return "wall-clock" }
func (wallClock) Unit() string { return "ns" }

func (w wallClock) Begin() (Probe, error) {
	return &clockProbe{now: w.now}, nil
}

type clockProbe struct {
	now   func() time.Time
	start time.Time
	armed bool
}

func (p *clockProbe) Arm() error {
	p.armed = true
	p.start = p.now()
	return nil
}

func (p *clockProbe) Finish() (uint64, error) {
	end := p.now()
	if !p.armed {
		return 0, ErrNotArmed
	}
	p.armed = false
	d := end.Sub(p.start)
	if d < 0 {
		d = 0
	}
	return uint64(d), nil
}

func (p *clockProbe) Close() {
	p.armed = false
}
