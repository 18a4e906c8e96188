// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perftrack/perftrack/report"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		configPath, verbose = "", false
		runCmd.Flags().VisitAll(func(f *pflag.Flag) {
			f.Changed = false
		})
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRunWallClock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.yaml")
	out, err := execute(t, "run", "--mode", "wallclock", "-n", "4", "--format", "yaml",
		"-o", path, "--test-name", "cli", "noop", "map_insert")
	require.NoError(t, err)
	assert.Contains(t, out, "noop_wall_clock")

	recs, err := report.ReadStatsFile(path, report.FormatYAML)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "noop_wall_clock", recs[0].Name)
	assert.Equal(t, "map_insert_wall_clock", recs[1].Name)
	for _, r := range recs {
		assert.Equal(t, "cli", r.TestName)
		assert.Equal(t, uint64(4), r.Samples)
	}
}

func TestFlagOverridesInvalidEnv(t *testing.T) {
	t.Setenv("PERFTRACK_ITERATIONS", "0")
	path := filepath.Join(t.TempDir(), "stats.json")

	_, err := execute(t, "run", "--mode", "wallclock", "-o", path, "noop")
	assert.Error(t, err, "zero iterations is still rejected without the flag")

	_, err = execute(t, "run", "--mode", "wallclock", "-n", "4", "-o", path, "noop")
	require.NoError(t, err)
	recs, err := report.ReadStatsFile(path, report.FormatJSON)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, uint64(4), recs[0].Samples)
}

func TestRunUnknownWorkload(t *testing.T) {
	_, err := execute(t, "run", "--mode", "wallclock", "-o", filepath.Join(t.TempDir(), "s.json"), "btree_split")
	assert.ErrorContains(t, err, "btree_split")
}

func TestRunBadMode(t *testing.T) {
	_, err := execute(t, "run", "--mode", "sometimes")
	assert.Error(t, err)
}

func TestShowConfig(t *testing.T) {
	out, err := execute(t, "show-config")
	require.NoError(t, err)
	assert.Contains(t, out, "mode: auto")
	assert.Contains(t, out, "iterations: 100")
}

func TestEvents(t *testing.T) {
	out, err := execute(t, "events")
	require.NoError(t, err)
	assert.Contains(t, out, "instructions")
	assert.Contains(t, out, "json_encode")
}
