// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

// MetricReporter is the part of *testing.B a benchmark sink needs.
type MetricReporter interface {
	ReportMetric(n float64, unit string)
}

// Benchmark returns a Sink that reports each average as a custom benchmark
// metric "<name>/op", so it shows up next to ns/op in "go test -bench"
// output. Records without samples are not reported.
func Benchmark(b MetricReporter) Sink {
	return SinkFunc(func(r Record) error {
		if r.NoData {
			return nil
		}
		b.ReportMetric(r.Average, r.Name+"/op")
		return nil
	})
}
