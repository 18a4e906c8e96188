// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import "github.com/sirupsen/logrus"

// Logger returns a Sink that writes one info entry per record.
func Logger(log logrus.FieldLogger) Sink {
	log = log.WithField("component", "report")
	return SinkFunc(func(r Record) error {
		entry := log.WithFields(logrus.Fields{
			"test":    r.TestName,
			"metric":  r.Name,
			"samples": r.Samples,
		})
		if r.NoData {
			entry.Info("no samples")
			return nil
		}
		entry.WithField("unit", r.Unit).Infof("average %.2f", r.Average)
		return nil
	})
}
