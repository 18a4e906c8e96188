// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "perftrack"

// Prometheus exports each record as a gauge of the average and a counter of
// samples, labelled by test, metric and unit. Records without samples only
// touch the counter.
type Prometheus struct {
	average *prometheus.GaugeVec
	samples *prometheus.CounterVec
}

var promLabels = []string{"test", "metric", "unit"}

// NewPrometheus registers the perftrack collectors on reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		average: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "average",
			Help:      "Average cost per measured call.",
		}, promLabels),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Number of measured calls folded into the average.",
		}, promLabels),
	}
	for _, c := range []prometheus.Collector{p.average, p.samples} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering perftrack metrics")
		}
	}
	return p, nil
}

func (p *Prometheus) Report(r Record) error {
	labels := prometheus.Labels{"test": r.TestName, "metric": r.Name, "unit": r.Unit}
	p.samples.With(labels).Add(float64(r.Samples))
	if !r.NoData {
		p.average.With(labels).Set(r.Average)
	}
	return nil
}
