// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Perftrack measures the average instruction cost of built-in workloads and
// writes the results to a stats file.
//
// Usage:
//
//	perftrack run [--mode instructions|wallclock|auto] [workload...]
//	perftrack events
//	perftrack show-config
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
