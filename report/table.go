// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package report

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// WriteTable renders records as a text table, one row per record.
func WriteTable(w io.Writer, records []Record) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Test", "Metric", "Samples", "Average", "Unit"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(true)

	for _, r := range records {
		avg := "-"
		if !r.NoData {
			avg = strconv.FormatFloat(r.Average, 'f', 2, 64)
		}
		table.Append([]string{r.TestName, r.Name, strconv.FormatUint(r.Samples, 10), avg, r.Unit})
	}
	table.Render()
}
