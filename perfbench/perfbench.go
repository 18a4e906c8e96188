// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// perfbench is a utility for reporting the average instruction cost of an
// operation in a Go benchmark.
//
//	func BenchmarkInsert(b *testing.B) {
//		t := perfbench.Open(b, "insert_instructions")
//		for i := 0; i < b.N; i++ {
//			if _, err := tracker.Track(t, func() error { return c.Insert(k(i)) }); err != nil {
//				b.Fatal(err)
//			}
//		}
//	}
//
// The average is reported as "insert_instructions/op" when the benchmark
// ends.
package perfbench

import (
	"fmt"
	"sync"
	"testing"

	"github.com/perftrack/perftrack/report"
	"github.com/perftrack/perftrack/sample"
	"github.com/perftrack/perftrack/tracker"
)

// testingB is the *testing.B interface needed by Open. Used for testing.
type testingB interface {
	ReportMetric(n float64, unit string)
	Logf(format string, args ...any)
	Cleanup(func())
	Name() string
}

var (
	openErrors   sync.Map
	printedUnits sync.Map
)

// Open returns a tracker for metric id that counts retired instructions on
// the calling goroutine and reports the average as a benchmark metric in a
// b.Cleanup function.
//
// If the kernel does not grant hardware counters, the tracker falls back to
// wall-clock time and the metric is reported as "<id>-ns/op" instead, so the
// two are never mixed up in benchstat.
func Open(b *testing.B, id string) *tracker.Tracker {
	t := open(b, id, sample.Instructions())
	if _, printed := printedUnits.LoadOrStore(t.ID(), true); !printed {
		// Currently all metrics are better=lower.
		fmt.Printf("Unit %s/op better=lower\n\n", t.ID())
	}
	return t
}

func open(b testingB, id string, src sample.Source) *tracker.Tracker {
	if err := sample.Available(src); err != nil {
		// Only report each error once, to avoid flooding benchmark log.
		msg := fmt.Sprintf("error opening %s counter: %v", src.Name(), err)
		if _, prev := openErrors.Swap(msg, true); !prev {
			b.Logf("%s", msg)
		}
		src = sample.WallClock()
		id += "-ns"
	}

	t := tracker.New(id, b.Name(), src, report.Benchmark(b))
	b.Cleanup(func() {
		if err := t.Close(); err != nil {
			b.Logf("error reporting %s: %v", id, err)
		}
	})
	return t
}
