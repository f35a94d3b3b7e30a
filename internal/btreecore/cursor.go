// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package btreecore

import "github.com/cockroachdb/errors"

// Cursor walks logical (component-1) entries in key order. It holds its own
// root-to-leaf path and transparently rebuilds it, by re-seeking to the
// last key it was positioned at, if the tree has been committed to or
// cancelled since (cursorVersion changed) — the lazy rebuild protocol of
// spec §4.F.
type Cursor struct {
	tree *Tree
	p    path
	slot int

	beforeStart bool
	exhausted   bool

	version    uint64
	lastKey    []byte
	lastExists bool
}

// NewCursor returns a cursor positioned before the first entry.
func NewCursor(t *Tree) *Cursor {
	return &Cursor{tree: t, beforeStart: true, version: t.cursorVersion}
}

func (c *Cursor) leaf() *decodedBlock {
	return c.p.decoded[len(c.p.decoded)-1]
}

func (c *Cursor) rebuildIfStale() error {
	if c.version == c.tree.cursorVersion {
		return nil
	}
	c.version = c.tree.cursorVersion
	if c.beforeStart || !c.lastExists {
		return nil
	}
	p, slot, exact, err := c.tree.locate(c.lastKey, 1)
	if err != nil {
		return err
	}
	c.p = p
	if slot < 0 {
		c.beforeStart = true
		c.exhausted = false
		return nil
	}
	c.slot = slot
	if !exact {
		if err := c.normalizeBackToComponent1(); err != nil {
			return err
		}
	}
	return nil
}

// normalizeBackToComponent1 walks the cursor backward, if necessary, from a
// continuation-component item to the component-1 item of the same (or
// preceding) logical entry.
func (c *Cursor) normalizeBackToComponent1() error {
	for !c.beforeStart && c.leaf().entries[c.slot].Component != 1 {
		ok, err := c.advanceOne(false)
		if err != nil {
			return err
		}
		if !ok {
			c.beforeStart = true
		}
	}
	return nil
}

// Find seeks to key, positioning the cursor at key's component-1 entry if
// it exists, or the entry immediately preceding it otherwise. exact reports
// whether key is present.
func (c *Cursor) Find(key []byte) (exact bool, err error) {
	p, slot, ex, err := c.tree.locate(key, 1)
	if err != nil {
		return false, err
	}
	c.p = p
	c.version = c.tree.cursorVersion
	c.lastKey = append([]byte(nil), key...)
	c.lastExists = true
	c.exhausted = false
	if slot < 0 {
		c.beforeStart = true
		return false, nil
	}
	c.beforeStart = false
	c.slot = slot
	if !ex {
		if err := c.normalizeBackToComponent1(); err != nil {
			return false, err
		}
	}
	return ex, nil
}

// advanceOne moves the cursor by exactly one directory slot, crossing leaf
// block boundaries as needed. ok is false if there is no such slot (the
// walk ran off the corresponding end of the tree).
func (c *Cursor) advanceOne(forward bool) (ok bool, err error) {
	leaf := c.leaf()
	if forward {
		if c.slot+1 < len(leaf.entries) {
			c.slot++
			return true, nil
		}
		moved, err := c.tree.stepLeaf(&c.p, true)
		if err != nil || !moved {
			return false, err
		}
		c.slot = 0
		return true, nil
	}
	if c.slot-1 >= 0 {
		c.slot--
		return true, nil
	}
	moved, err := c.tree.stepLeaf(&c.p, false)
	if err != nil || !moved {
		return false, err
	}
	c.slot = len(c.leaf().entries) - 1
	return true, nil
}

// Next advances the cursor to the next logical (component-1) entry,
// skipping over any continuation components. It reports false once the
// cursor runs off the end.
func (c *Cursor) Next() (bool, error) {
	if err := c.rebuildIfStale(); err != nil {
		return false, err
	}
	if c.beforeStart {
		p, slot, _, err := c.tree.locate(nil, 0)
		if err != nil {
			return false, err
		}
		c.p = p
		if len(c.leaf().entries) == 0 {
			return false, nil
		}
		if slot < 0 {
			c.slot = 0
		} else {
			c.slot = slot
		}
		c.beforeStart = false
		c.lastKey = append([]byte(nil), c.leaf().entries[c.slot].Key...)
		c.lastExists = true
		if c.leaf().entries[c.slot].Component == 1 {
			return true, nil
		}
	}
	for {
		ok, err := c.advanceOne(true)
		if err != nil {
			return false, err
		}
		if !ok {
			c.exhausted = true
			return false, nil
		}
		e := c.leaf().entries[c.slot]
		if e.Component == 1 {
			c.lastKey = append([]byte(nil), e.Key...)
			c.lastExists = true
			return true, nil
		}
	}
}

// Prev moves the cursor to the previous logical entry.
func (c *Cursor) Prev() (bool, error) {
	if err := c.rebuildIfStale(); err != nil {
		return false, err
	}
	if c.beforeStart {
		return false, nil
	}
	// After ReadTag the cursor may sit on a continuation component of the
	// current entry; step back to that entry's component 1 first.
	if err := c.normalizeBackToComponent1(); err != nil {
		return false, err
	}
	if c.beforeStart {
		return false, nil
	}
	for {
		ok, err := c.advanceOne(false)
		if err != nil {
			return false, err
		}
		if !ok {
			c.beforeStart = true
			return false, nil
		}
		e := c.leaf().entries[c.slot]
		if e.Component == 1 {
			c.lastKey = append([]byte(nil), e.Key...)
			c.lastExists = true
			return true, nil
		}
	}
}

// Key returns the key of the entry the cursor is positioned at.
func (c *Cursor) Key() []byte {
	return c.leaf().entries[c.slot].Key
}

// ReadTag materialises the full tag of the entry the cursor is positioned
// at, by walking forward over its continuation components. It leaves the
// cursor on the key's last component; Next already skips forward past any
// remaining continuation components to the next logical entry regardless
// of which component within a key the cursor currently sits on, so no
// separate post-read advance is needed here.
func (c *Cursor) ReadTag() ([]byte, error) {
	if c.beforeStart || c.exhausted {
		return nil, errors.New("quartz: cursor is not positioned at an entry")
	}
	e := c.leaf().entries[c.slot]
	n := e.Components
	if n == 0 {
		n = 1
	}
	buf := append([]byte(nil), e.Tag...)
	for i := uint16(2); i <= n; i++ {
		ok, err := c.advanceOne(true)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New("quartz: key is missing a tag component")
		}
		buf = append(buf, c.leaf().entries[c.slot].Tag...)
	}
	return buf, nil
}
