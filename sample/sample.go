// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sample provides the sources a tracker draws one sample per
// measured call from: a hardware event counter or, when that is not
// available, the wall clock.
package sample

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/perftrack/perftrack/events"
	"github.com/perftrack/perftrack/perf"
)

// A Source produces one [Probe] per measured call.
type Source interface {
	// Name identifies the source, e.g. "instructions" or "wall-clock".
	Name() string

	// Unit is the unit of the samples, e.g. "instructions" or "ns".
	Unit() string

	// Begin acquires whatever the probe needs. The returned probe is not yet
	// armed. On error nothing is held.
	Begin() (Probe, error)
}

// A Probe brackets exactly one call.
//
// The caller arms the probe immediately before the call, finishes it
// immediately after, and closes it on every path. Close may be called more
// than once.
type Probe interface {
	Arm() error
	Finish() (uint64, error)
	Close()
}

// Hardware returns a Source that counts ev with a fresh [perf.Counter] for
// every probe.
func Hardware(ev events.Event) Source {
	return hardware{ev}
}

// Instructions returns a Source counting retired user-space instructions.
func Instructions() Source {
	return Hardware(events.EventInstructions)
}

type hardware struct {
	ev events.Event
}

func (h hardware) Name() string { return h.ev.String() }
func (h hardware) Unit() string { return events.Unit(h.ev) }

func (h hardware) Begin() (Probe, error) {
	c, err := perf.Open(h.ev)
	if err != nil {
		return nil, err
	}
	return &counterProbe{c: c}, nil
}

type counterProbe struct {
	c *perf.Counter
}

func (p *counterProbe) Arm() error {
	return p.c.ResetAndArm()
}

func (p *counterProbe) Finish() (uint64, error) {
	count, err := p.c.DisableAndRead()
	if err != nil {
		return 0, err
	}
	v, err := countSample(count)
	return v, errors.Wrap(err, p.c.Event().String())
}

// countSample turns a counter reading into one sample, scaling estimates
// from a multiplexed counter. A counter that never got onto the hardware
// yields [perf.ErrNotCounted].
func countSample(count perf.Count) (uint64, error) {
	if !count.Counted() {
		return 0, errors.Wrapf(perf.ErrNotCounted, "enabled %dns, running 0ns", count.TimeEnabled)
	}
	if count.Multiplexed() {
		return uint64(count.Value() + 0.5), nil
	}
	return count.RawValue, nil
}

func (p *counterProbe) Close() {
	p.c.Close()
}

// Available reports whether src can currently produce a probe, by opening
// and immediately closing one.
func Available(src Source) error {
	p, err := src.Begin()
	if err != nil {
		return err
	}
	p.Close()
	return nil
}

// Auto returns the hardware source for ev if the kernel grants it and the
// wall clock otherwise. The fallback is logged once, here.
func Auto(log logrus.FieldLogger, ev events.Event) Source {
	hw := Hardware(ev)
	err := Available(hw)
	if err == nil {
		return hw
	}
	entry := log.WithError(err).WithField("event", ev.String())
	if !errors.Is(err, perf.ErrResourceUnavailable) {
		entry = entry.WithField("unexpected", true)
	}
	entry.Warn("hardware counter unavailable, falling back to wall-clock timing")
	return WallClock()
}
