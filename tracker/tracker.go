// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tracker measures the average cost of an operation over many calls.
//
// A [Tracker] runs each operation under a fresh probe from a [sample.Source],
// folds the sample into a running total, and on [Tracker.Flush] reports the
// mean to a [report.Sink] exactly once:
//
//	t := tracker.New("cursor_insert_instructions", "t1", sample.Instructions(), sink)
//	defer t.Close()
//	for _, k := range keys {
//		ret, err := tracker.Track(t, func() error { return c.Insert(k) })
//		...
//	}
package tracker

import (
	"io"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/perftrack/perftrack/report"
	"github.com/perftrack/perftrack/sample"
)

// ErrFlushed is returned when tracking through a tracker whose result has
// already been reported.
var ErrFlushed = errors.New("tracker already flushed")

// A Tracker accumulates samples for one metric of one test.
//
// A Tracker is not safe for concurrent use. With a hardware source it counts
// the instructions of the goroutine calling [Track], so each goroutine that
// needs measuring should own its own Tracker.
type Tracker struct {
	id       string
	testName string
	src      sample.Source
	sink     report.Sink
	log      logrus.FieldLogger

	total   uint64
	count   uint64
	flushed bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the logger used for measurement failures.
func WithLogger(log logrus.FieldLogger) Option {
	return func(t *Tracker) { t.log = log }
}

// New returns a Tracker for metric id in test testName. Samples come from
// src and the result goes to sink.
func New(id, testName string, src sample.Source, sink report.Sink, opts ...Option) *Tracker {
	t := &Tracker{
		id:       id,
		testName: testName,
		src:      src,
		sink:     sink,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.log == nil {
		log := logrus.New()
		log.SetOutput(io.Discard)
		t.log = log
	}
	t.log = t.log.WithFields(logrus.Fields{"metric": id, "test": testName})
	return t
}

// ID returns the metric identifier.
func (t *Tracker) ID() string { return t.id }

// TestName returns the owning test name.
func (t *Tracker) TestName() string { return t.testName }

// Invocations returns the number of measured calls so far.
func (t *Tracker) Invocations() uint64 { return t.count }

// Total returns the sum of all samples so far.
func (t *Tracker) Total() uint64 { return t.total }

// Track calls op exactly once with a probe armed around it and returns op's
// result unchanged. The sample is added to t whether or not op itself
// reported a failure.
//
// The returned error is non-nil only if the measurement failed: the probe
// could not be acquired (perf.ErrResourceUnavailable), armed, or read
// (perf.ErrReadIncomplete). A failed measurement adds nothing to t. If
// acquiring the probe fails, op is not called. If t was already flushed, op
// is not called and the error is [ErrFlushed].
//
// The probe is released before Track returns on every path, including when
// op panics.
func Track[T any](t *Tracker, op func() T) (T, error) {
	var zero T
	if t.flushed {
		return zero, errors.Wrapf(ErrFlushed, "metric %s", t.id)
	}

	p, err := t.src.Begin()
	if err != nil {
		return zero, t.failed("acquiring probe", err)
	}
	defer p.Close()

	if err := p.Arm(); err != nil {
		return zero, t.failed("arming probe", err)
	}
	result := op()
	v, err := p.Finish()
	p.Close()
	if err != nil {
		return result, t.failed("reading probe", err)
	}

	t.total += v
	t.count++
	return result, nil
}

// Run is [Track] for operations without a result.
func (t *Tracker) Run(op func()) error {
	_, err := Track(t, func() struct{} {
		op()
		return struct{}{}
	})
	return err
}

func (t *Tracker) failed(what string, err error) error {
	t.log.WithError(err).WithField("source", t.src.Name()).Errorf("measurement failed %s", what)
	return errors.Wrapf(err, "metric %s: %s", t.id, what)
}

// Record returns the statistic t would report now. With no samples the
// record is marked NoData and carries no average.
func (t *Tracker) Record() report.Record {
	r := report.Record{
		Name:     t.id,
		TestName: t.testName,
		Unit:     t.src.Unit(),
		Samples:  t.count,
	}
	if t.count == 0 {
		r.NoData = true
		return r
	}
	r.Average = float64(t.total) / float64(t.count)
	return r
}

// Flush reports the average to the sink. Only the first call reports; later
// calls do nothing and return nil.
func (t *Tracker) Flush() error {
	if t.flushed {
		return nil
	}
	t.flushed = true
	rec := t.Record()
	if rec.NoData {
		t.log.Debug("flushing tracker with no samples")
	}
	return errors.Wrapf(t.sink.Report(rec), "reporting metric %s", t.id)
}

// Flushed reports whether the result has been handed to the sink.
func (t *Tracker) Flushed() bool { return t.flushed }

// Close flushes t if it has not been flushed yet.
func (t *Tracker) Close() error {
	return t.Flush()
}
