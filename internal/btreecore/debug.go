// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package btreecore

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/quartzdb/quartz/internal/dump"
	"github.com/quartzdb/quartz/internal/page"
)

// DebugString renders the root-to-leaves structure of the tree as nested
// block tables, for use in test failure messages. It does not mutate any
// state and is safe to call mid-transaction.
func (t *Tree) DebugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "tree: revision=%d level=%d root=%d items=%d fake_root=%v sequential=%v\n",
		t.revision, t.level, t.root, t.itemCount, t.fakeRoot, t.sequential)
	if t.fakeRoot {
		buf.WriteString("(empty)\n")
		return buf.String()
	}
	if err := t.debugBlock(&buf, t.root); err != nil {
		fmt.Fprintf(&buf, "error walking tree: %v\n", err)
	}
	return buf.String()
}

func (t *Tree) debugBlock(buf *strings.Builder, n uint32) error {
	db, err := t.readBlock(n)
	if err != nil {
		return err
	}
	entries := make([]dump.DirEntry, len(db.entries))
	for i, e := range db.entries {
		d := dump.DirEntry{
			Slot:      i,
			KeyHex:    hex.EncodeToString(e.Key),
			Component: e.Component,
		}
		if db.level == 0 {
			d.ItemLen = e.leafSize()
		} else {
			d.ItemLen = e.internalSize(len(e.Key))
		}
		entries[i] = d
	}
	h := page.Header{Revision: db.revision, Level: db.level}
	buf.WriteString(dump.BlockTable(int64(n), h, entries))
	if db.level > 0 {
		for _, e := range db.entries {
			if err := t.debugBlock(buf, e.Child); err != nil {
				return err
			}
		}
	}
	return nil
}
