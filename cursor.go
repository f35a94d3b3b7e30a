// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package quartz

import "github.com/quartzdb/quartz/internal/btreecore"

// Cursor walks a table's entries in key order. It must be released with
// Close once no longer needed, so a bounded MaxConcurrentReaders budget
// (Options.MaxConcurrentReaders) is returned to the pool.
type Cursor struct {
	tree *Tree
	c    *btreecore.Cursor
}

// Find seeks to key. exact reports whether key is present; either way the
// cursor is left positioned at key's entry (if present) or the entry
// immediately preceding it.
func (c *Cursor) Find(key []byte) (exact bool, err error) {
	return c.c.Find(key)
}

// Next advances to the next entry, reporting false once there are no more.
func (c *Cursor) Next() (bool, error) { return c.c.Next() }

// Prev moves to the previous entry, reporting false once there are no
// more.
func (c *Cursor) Prev() (bool, error) { return c.c.Prev() }

// Key returns the key of the entry the cursor is currently positioned at.
func (c *Cursor) Key() []byte { return c.c.Key() }

// ReadTag returns the full tag of the entry the cursor is positioned at.
// Call Next afterwards to move on to the following entry.
func (c *Cursor) ReadTag() ([]byte, error) { return c.c.ReadTag() }

// Close releases any MaxConcurrentReaders slot held by this cursor.
func (c *Cursor) Close() {
	if c.tree.readerLimit != nil {
		c.tree.readerLimit.Release(1)
	}
}
