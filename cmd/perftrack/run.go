// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/perftrack/perftrack/internal/workload"
	"github.com/perftrack/perftrack/report"
)

var runCmd = &cobra.Command{
	Use:   "run [workload...]",
	Short: "Measure workloads and write the stats file",
	Long: `Runs each named workload (all of them by default) the configured number of
times, measuring every call, and writes the average per workload to the stats
file. With --metrics-addr the averages are also served for Prometheus until
interrupted.`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.String("mode", "", "sampling mode: instructions, wallclock or auto")
	f.String("event", "", "hardware event to count")
	f.StringP("output", "o", "", "stats file path")
	f.String("format", "", "stats file format: json or yaml")
	f.IntP("iterations", "n", 0, "measured calls per workload")
	f.String("test-name", "", "test name recorded with every metric")
	f.String("metrics-addr", "", "serve Prometheus metrics on this address")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ws := workload.All()
	if len(args) > 0 {
		ws = ws[:0]
		for _, name := range args {
			w, err := workload.Lookup(name)
			if err != nil {
				return err
			}
			ws = append(ws, w)
		}
	}

	src, err := cfg.Source(log)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"source":     src.Name(),
		"iterations": cfg.Iterations,
		"test":       cfg.TestName,
	}).Info("starting measurements")

	stats := report.NewStatsFile(cfg.Output, cfg.Format)
	defer func() {
		// Metrics that completed before a failure are still valid.
		if cerr := stats.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	var summary report.Collector
	sinks := []report.Sink{stats, &summary, report.Logger(log)}

	var srv *http.Server
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		prom, err := report.NewPrometheus(reg)
		if err != nil {
			return err
		}
		sinks = append(sinks, prom)
		srv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server failed")
			}
		}()
	}

	runner := &workload.Runner{
		Source:     src,
		Sink:       report.Multi(sinks...),
		TestName:   cfg.TestName,
		Iterations: cfg.Iterations,
		Log:        log,
	}
	for _, w := range ws {
		if err := runner.Run(w); err != nil {
			log.WithError(err).WithField("metric", workload.MetricName(w, src)).Error("measurement aborted")
			return err
		}
	}

	if err := stats.Close(); err != nil {
		return err
	}
	log.WithField("path", cfg.Output).Info("wrote stats file")
	report.WriteTable(cmd.OutOrStdout(), summary.Records())

	if srv != nil {
		log.WithField("addr", cfg.MetricsAddr).Info("serving metrics, interrupt to exit")
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
	return nil
}
