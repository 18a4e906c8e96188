// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Format selects the encoding of a stats file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatJSON, FormatYAML:
		return f, nil
	}
	return "", errors.Errorf("unknown stats format %q", s)
}

// testStats is the per-test document of a stats file:
//
//	{"Test Name": "t1", "metrics": [{"name": "insert_cost", "value": 1000}]}
type testStats struct {
	TestName string       `json:"Test Name" yaml:"Test Name"`
	Metrics  []metricStat `json:"metrics" yaml:"metrics"`
}

type metricStat struct {
	Name    string   `json:"name" yaml:"name"`
	Value   *float64 `json:"value" yaml:"value"` // nil when there were no samples
	Unit    string   `json:"unit,omitempty" yaml:"unit,omitempty"`
	Samples uint64   `json:"samples" yaml:"samples"`
}

// StatsFile collects records and writes them, grouped by test, when closed.
// A metric name may only be reported once per test.
type StatsFile struct {
	path   string
	format Format

	mu     sync.Mutex
	tests  []*testStats
	seen   map[string]bool // test + "\x00" + metric
	closed bool
}

// NewStatsFile returns a sink that writes to path in the given format on
// [StatsFile.Close].
func NewStatsFile(path string, format Format) *StatsFile {
	return &StatsFile{path: path, format: format, seen: make(map[string]bool)}
}

func (f *StatsFile) Report(r Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.Errorf("stats file %s already written", f.path)
	}
	key := r.TestName + "\x00" + r.Name
	if f.seen[key] {
		return errors.Wrapf(ErrDuplicateMetric, "%s in test %s", r.Name, r.TestName)
	}
	f.seen[key] = true

	var ts *testStats
	for _, t := range f.tests {
		if t.TestName == r.TestName {
			ts = t
			break
		}
	}
	if ts == nil {
		ts = &testStats{TestName: r.TestName}
		f.tests = append(f.tests, ts)
	}

	m := metricStat{Name: r.Name, Unit: r.Unit, Samples: r.Samples}
	if !r.NoData {
		avg := r.Average
		m.Value = &avg
	}
	ts.Metrics = append(ts.Metrics, m)
	return nil
}

// Close writes the file. Later calls do nothing.
func (f *StatsFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true

	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "creating stats directory")
		}
	}
	out, err := os.Create(f.path)
	if err != nil {
		return errors.Wrap(err, "creating stats file")
	}
	if err := f.encode(out); err != nil {
		out.Close()
		return errors.Wrapf(err, "writing %s", f.path)
	}
	return errors.Wrapf(out.Close(), "closing %s", f.path)
}

func (f *StatsFile) encode(w io.Writer) error {
	docs := make([]testStats, 0, len(f.tests))
	for _, t := range f.tests {
		docs = append(docs, *t)
	}
	switch f.format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	}
}

// ReadStatsFile parses a file written by [StatsFile].
func ReadStatsFile(path string, format Format) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var docs []testStats
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &docs)
	default:
		err = json.Unmarshal(data, &docs)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	var recs []Record
	for _, d := range docs {
		for _, m := range d.Metrics {
			r := Record{Name: m.Name, TestName: d.TestName, Unit: m.Unit, Samples: m.Samples, NoData: m.Value == nil}
			if m.Value != nil {
				r.Average = *m.Value
			}
			recs = append(recs, r)
		}
	}
	return recs, nil
}
