// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads the settings of a perftrack run from a YAML file and
// the environment.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/perftrack/perftrack/events"
	"github.com/perftrack/perftrack/report"
	"github.com/perftrack/perftrack/sample"
)

// Mode selects how samples are taken.
type Mode string

const (
	// ModeInstructions requires a hardware counter and fails without one.
	ModeInstructions Mode = "instructions"
	// ModeWallClock always measures elapsed time.
	ModeWallClock Mode = "wallclock"
	// ModeAuto uses the hardware counter when available.
	ModeAuto Mode = "auto"
)

var (
	errInvalidMode       = errors.New("mode must be one of instructions, wallclock, auto")
	errInvalidIterations = errors.New("iterations must be positive")
	errTestNameRequired  = errors.New("test_name is required")
)

// Config holds the settings of a run.
type Config struct {
	Mode        Mode          `yaml:"mode"`
	Event       string        `yaml:"event"`
	TestName    string        `yaml:"test_name"`
	Output      string        `yaml:"output"`
	Format      report.Format `yaml:"format"`
	LogLevel    string        `yaml:"log_level"`
	Iterations  int           `yaml:"iterations"`
	MetricsAddr string        `yaml:"metrics_addr"`
}

// Default returns the configuration used when nothing else is given.
func Default() *Config {
	return &Config{
		Mode:       ModeAuto,
		Event:      events.EventInstructions.String(),
		TestName:   "perftrack",
		Output:     "perftrack_stats.json",
		Format:     report.FormatJSON,
		LogLevel:   "info",
		Iterations: 100,
	}
}

// Load is [Read] followed by [Config.Validate].
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read reads path (if non-empty) over the defaults, then applies a .env file
// and PERFTRACK_* environment overrides. The result is not validated, so
// callers can layer further overrides before calling [Config.Validate].
func Read(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "reading config")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
	}

	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "error loading .env file")
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Mode = Mode(getEnv("PERFTRACK_MODE", string(c.Mode)))
	c.Event = getEnv("PERFTRACK_EVENT", c.Event)
	c.TestName = getEnv("PERFTRACK_TEST_NAME", c.TestName)
	c.Output = getEnv("PERFTRACK_OUTPUT", c.Output)
	c.Format = report.Format(getEnv("PERFTRACK_FORMAT", string(c.Format)))
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.MetricsAddr = getEnv("PERFTRACK_METRICS_ADDR", c.MetricsAddr)

	if v, ok := os.LookupEnv("PERFTRACK_ITERATIONS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "invalid PERFTRACK_ITERATIONS")
		}
		c.Iterations = n
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeInstructions, ModeWallClock, ModeAuto:
	default:
		return errors.Wrapf(errInvalidMode, "got %q", c.Mode)
	}
	if c.Iterations <= 0 {
		return errors.Wrapf(errInvalidIterations, "got %d", c.Iterations)
	}
	if c.TestName == "" {
		return errTestNameRequired
	}
	if _, err := report.ParseFormat(string(c.Format)); err != nil {
		return err
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log_level")
	}
	if _, err := events.ParseEvent(c.Event); err != nil {
		return err
	}
	return nil
}

// Source returns the sample source for the configured mode and event.
func (c *Config) Source(log logrus.FieldLogger) (sample.Source, error) {
	ev, err := events.ParseEvent(c.Event)
	if err != nil {
		return nil, err
	}
	switch c.Mode {
	case ModeInstructions:
		return sample.Hardware(ev), nil
	case ModeWallClock:
		return sample.WallClock(), nil
	case ModeAuto:
		return sample.Auto(log, ev), nil
	}
	return nil, errors.Wrapf(errInvalidMode, "got %q", c.Mode)
}

// Logger returns a logger at the configured level.
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}
