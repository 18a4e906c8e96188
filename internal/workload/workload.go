// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package workload holds the built-in operations the perftrack command
// measures, and the loop that drives them through trackers.
package workload

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/perftrack/perftrack/report"
	"github.com/perftrack/perftrack/sample"
	"github.com/perftrack/perftrack/tracker"
)

// A Workload is a named operation to measure.
type Workload struct {
	Name        string
	Description string

	// Prepare sets up state and returns the operation measured once per
	// iteration. The operation's error is passed through, not interpreted.
	Prepare func() func() error
}

var workloads = []Workload{
	{
		Name:        "noop",
		Description: "call an empty function",
		Prepare: func() func() error {
			return func() error { return nil }
		},
	},
	{
		Name:        "map_insert",
		Description: "insert one new key into a map",
		Prepare: func() func() error {
			m := make(map[string]int)
			i := 0
			return func() error {
				m["key"+strconv.Itoa(i)] = i
				i++
				return nil
			}
		},
	},
	{
		Name:        "slice_sort",
		Description: "sort 64 integers",
		Prepare: func() func() error {
			src := make([]int, 64)
			for i := range src {
				src[i] = (i * 7919) % 64
			}
			dst := make([]int, len(src))
			return func() error {
				copy(dst, src)
				sort.Ints(dst)
				return nil
			}
		},
	},
	{
		Name:        "json_encode",
		Description: "marshal a small record to JSON",
		Prepare: func() func() error {
			rec := report.Record{Name: "cursor_insert", TestName: "t1", Unit: "instructions", Samples: 100, Average: 1234.5}
			return func() error {
				_, err := json.Marshal(rec)
				return err
			}
		},
	},
}

// All returns the built-in workloads.
func All() []Workload {
	return append([]Workload(nil), workloads...)
}

// Lookup finds a workload by name.
func Lookup(name string) (Workload, error) {
	for _, w := range workloads {
		if w.Name == name {
			return w, nil
		}
	}
	return Workload{}, errors.Errorf("unknown workload %q", name)
}

// MetricName names the metric for w measured by src, e.g.
// "map_insert_instructions" or "map_insert_wall_clock".
func MetricName(w Workload, src sample.Source) string {
	return w.Name + "_" + strings.NewReplacer("-", "_", ":", "_").Replace(src.Name())
}

// Runner measures workloads with one tracker each.
type Runner struct {
	Source     sample.Source
	Sink       report.Sink
	TestName   string
	Iterations int
	Log        logrus.FieldLogger
}

// Run measures w r.Iterations times and flushes its tracker. A measurement
// failure stops the workload and is returned; nothing is reported for it.
func (r *Runner) Run(w Workload) error {
	op := w.Prepare()
	t := tracker.New(MetricName(w, r.Source), r.TestName, r.Source, r.Sink, tracker.WithLogger(r.Log))
	log := r.Log.WithFields(logrus.Fields{"workload": w.Name, "test": t.TestName()})

	failures := 0
	for i := 0; i < r.Iterations; i++ {
		opErr, err := tracker.Track(t, op)
		if err != nil {
			return errors.Wrapf(err, "workload %s", w.Name)
		}
		if opErr != nil {
			failures++
		}
	}
	if failures > 0 {
		log.WithField("failures", failures).Warn("operation reported failures; their cost is still counted")
	}
	log.WithField("samples", t.Invocations()).Debug("workload done")
	return t.Close()
}
