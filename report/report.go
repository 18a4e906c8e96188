// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package report delivers the averages computed by trackers to files,
// Prometheus, logs, or the testing framework.
package report

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/pkg/errors"
)

// ErrDuplicateMetric is returned by sinks that refuse a second record with
// the same name for the same test.
var ErrDuplicateMetric = errors.New("duplicate metric")

// A Record is the single statistic a tracker emits when flushed.
type Record struct {
	Name     string // Metric identifier, e.g. "cursor_insert_instructions".
	TestName string // Owning test or run.
	Unit     string // Unit of Average, e.g. "instructions" or "ns".

	Samples uint64  // Number of measured calls.
	Average float64 // Mean sample value. Meaningless if NoData.

	// NoData is set when the tracker was flushed without a single sample.
	// Sinks must not present Average as a measurement in that case.
	NoData bool
}

func (r Record) String() string {
	if r.NoData {
		return fmt.Sprintf("%s/%s: no samples", r.TestName, r.Name)
	}
	return fmt.Sprintf("%s/%s: %g %s/op over %d samples", r.TestName, r.Name, r.Average, r.Unit, r.Samples)
}

// A Sink receives flushed records.
type Sink interface {
	Report(Record) error
}

// SinkFunc adapts a function to a [Sink].
type SinkFunc func(Record) error

func (f SinkFunc) Report(r Record) error { return f(r) }

// Discard drops every record.
var Discard Sink = SinkFunc(func(Record) error { return nil })

type multi []Sink

// Multi returns a Sink that reports to every sink in order. Every sink sees
// the record even if an earlier one fails; the errors are joined.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Report(r Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Report(r); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Collector keeps every record in memory. It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	records []Record
}

func (c *Collector) Report(r Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
	return nil
}

// Records returns a copy of the records received so far.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}
