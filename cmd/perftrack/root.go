// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/perftrack/perftrack/config"
	"github.com/perftrack/perftrack/report"
)

var (
	configPath string
	verbose    bool

	rootCmd = &cobra.Command{
		Use:           "perftrack",
		Short:         "Measure the average instruction cost of operations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadConfig loads the config file and applies any flags the user set
// explicitly on cmd. Validation runs after the flags, so a flag can repair
// a bad value from the file or environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		v, _ := flags.GetString("mode")
		cfg.Mode = config.Mode(v)
	}
	if flags.Changed("event") {
		cfg.Event, _ = flags.GetString("event")
	}
	if flags.Changed("output") {
		cfg.Output, _ = flags.GetString("output")
	}
	if flags.Changed("format") {
		v, _ := flags.GetString("format")
		cfg.Format = report.Format(v)
	}
	if flags.Changed("iterations") {
		cfg.Iterations, _ = flags.GetInt("iterations")
	}
	if flags.Changed("test-name") {
		cfg.TestName, _ = flags.GetString("test-name")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *logrus.Logger {
	log := cfg.Logger()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
