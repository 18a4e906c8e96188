// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

var (
	insertCost = Record{Name: "insert_cost", TestName: "t1", Unit: "instructions", Samples: 3, Average: 1000}
	emptyCost  = Record{Name: "empty_cost", TestName: "t1", Unit: "instructions", NoData: true}
	otherTest  = Record{Name: "insert_cost", TestName: "t2", Unit: "ns", Samples: 1, Average: 12.5}
)

func TestStatsFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "stats.json")
	f := NewStatsFile(path, FormatJSON)
	for _, r := range []Record{insertCost, emptyCost, otherTest} {
		require.NoError(t, f.Report(r))
	}
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Test Name": "t1"`)
	assert.Contains(t, string(data), `"value": null`)
	assert.Contains(t, string(data), `"value": 1000`)

	got, err := ReadStatsFile(path, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []Record{insertCost, emptyCost, otherTest}, got)
}

func TestStatsFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.yaml")
	f := NewStatsFile(path, FormatYAML)
	require.NoError(t, f.Report(insertCost))
	require.NoError(t, f.Report(emptyCost))
	require.NoError(t, f.Close())

	got, err := ReadStatsFile(path, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []Record{insertCost, emptyCost}, got)
}

func TestStatsFileDuplicate(t *testing.T) {
	f := NewStatsFile(filepath.Join(t.TempDir(), "stats.json"), FormatJSON)
	require.NoError(t, f.Report(insertCost))
	err := f.Report(insertCost)
	assert.True(t, errors.Is(err, ErrDuplicateMetric), "got %v", err)

	// Same name in another test is fine.
	require.NoError(t, f.Report(otherTest))
	require.NoError(t, f.Close())

	assert.Error(t, f.Report(emptyCost), "report after close")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("yaml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("csv")
	assert.Error(t, err)
}

func TestMulti(t *testing.T) {
	var a, b Collector
	boom := errors.New("boom")
	s := Multi(&a, SinkFunc(func(Record) error { return boom }), &b)

	err := s.Report(insertCost)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, []Record{insertCost}, a.Records())
	assert.Equal(t, []Record{insertCost}, b.Records())
}

func TestPrometheus(t *testing.T) {
	reg := prometheus.NewRegistry()
	p, err := NewPrometheus(reg)
	require.NoError(t, err)

	require.NoError(t, p.Report(insertCost))
	require.NoError(t, p.Report(emptyCost))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	byName := make(map[string]*dto.MetricFamily)
	for _, mf := range mfs {
		byName[mf.GetName()] = mf
	}

	avg := byName["perftrack_average"]
	require.NotNil(t, avg)
	require.Len(t, avg.GetMetric(), 1, "no-data records must not set the average")
	assert.Equal(t, 1000.0, avg.GetMetric()[0].GetGauge().GetValue())

	samples := byName["perftrack_samples_total"]
	require.NotNil(t, samples)
	assert.Len(t, samples.GetMetric(), 2)

	// Registering twice on the same registry fails.
	_, err = NewPrometheus(reg)
	assert.Error(t, err)
}

func TestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()
	s := Logger(log)
	require.NoError(t, s.Report(insertCost))
	require.NoError(t, s.Report(emptyCost))

	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, logrus.InfoLevel, entries[0].Level)
	assert.Equal(t, "insert_cost", entries[0].Data["metric"])
	assert.Equal(t, "average 1000.00", entries[0].Message)
	assert.Equal(t, "no samples", entries[1].Message)
}

type fakeB struct {
	metrics map[string]float64
}

func (b *fakeB) ReportMetric(n float64, unit string) {
	if b.metrics == nil {
		b.metrics = map[string]float64{}
	}
	b.metrics[unit] = n
}

func TestBenchmark(t *testing.T) {
	b := &fakeB{}
	s := Benchmark(b)
	require.NoError(t, s.Report(insertCost))
	require.NoError(t, s.Report(emptyCost))
	assert.Equal(t, map[string]float64{"insert_cost/op": 1000}, b.metrics)
}

func TestRecordString(t *testing.T) {
	assert.Equal(t, "t1/insert_cost: 1000 instructions/op over 3 samples", insertCost.String())
	assert.Equal(t, "t1/empty_cost: no samples", emptyCost.String())
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	WriteTable(&buf, []Record{insertCost, emptyCost})
	out := buf.String()
	assert.Contains(t, out, "Metric")
	assert.Contains(t, out, "insert_cost")
	assert.Contains(t, out, "1000.00")
	assert.Regexp(t, `empty_cost\s*\|\s*0\s*\|\s*-\s*\|`, out)
}
