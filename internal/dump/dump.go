// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

// Package dump renders internal B-tree state as human-readable tables, for
// use from test failure messages and Tree.DebugString. It is not a CLI:
// nothing in this package reads argv or writes to a terminal directly; it
// only builds strings.
package dump

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"

	"github.com/quartzdb/quartz/internal/page"
)

// DirEntry describes one directory slot for rendering.
type DirEntry struct {
	Slot      int
	Offset    uint16
	KeyHex    string
	Component uint16
	ItemLen   int
}

// BlockTable renders a block's header and directory as a table.
func BlockTable(n int64, h page.Header, entries []DirEntry) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "block %d: revision=%d level=%d max_free=%d total_free=%d dir_end=%d\n",
		n, h.Revision, h.Level, h.MaxFree, h.TotalFree, h.DirEnd)

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"slot", "offset", "key", "component", "item_len"})
	for _, e := range entries {
		table.Append([]string{
			fmt.Sprintf("%d", e.Slot),
			fmt.Sprintf("%d", e.Offset),
			e.KeyHex,
			fmt.Sprintf("%d", e.Component),
			fmt.Sprintf("%d", e.ItemLen),
		})
	}
	table.Render()
	return buf.String()
}

// BitmapRow describes bitmap occupancy over one byte range, for the
// bitmap-occupancy table rendered by BitmapTable.
type BitmapRow struct {
	ByteRange  string
	SetBits    int
	TotalBits  int
}

// BitmapTable renders per-range bitmap occupancy.
func BitmapTable(low int, rows []BitmapRow) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "bitmap: low=%d\n", low)

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"byte range", "set bits", "total bits"})
	for _, r := range rows {
		table.Append([]string{r.ByteRange, fmt.Sprintf("%d", r.SetBits), fmt.Sprintf("%d", r.TotalBits)})
	}
	table.Render()
	return buf.String()
}
