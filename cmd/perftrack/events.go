// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/perftrack/perftrack/events"
	"github.com/perftrack/perftrack/internal/workload"
	"github.com/perftrack/perftrack/sample"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List countable events and built-in workloads",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Events:")
		for _, name := range events.Names() {
			ev, err := events.ParseEvent(name)
			if err != nil {
				return err
			}
			status := "available"
			if err := sample.Available(sample.Hardware(ev)); err != nil {
				status = "unavailable"
			}
			fmt.Fprintf(out, "  %-20s %s\n", name, status)
		}
		fmt.Fprintln(out, "\nWorkloads:")
		for _, w := range workload.All() {
			fmt.Fprintf(out, "  %-20s %s\n", w.Name, w.Description)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
