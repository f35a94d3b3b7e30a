// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package btreecore

import (
	"github.com/cockroachdb/errors"

	"github.com/quartzdb/quartz/internal/errs"
	"github.com/quartzdb/quartz/internal/page"
)

// Del removes key and every component of its tag. removed reports whether
// key was present. Any deletion resets the sequential-append detector
// (spec §4.F: "any deletion clears it").
func (t *Tree) Del(key []byte) (removed bool, err error) {
	if len(key) == 0 {
		return false, errors.Mark(errors.New("quartz: cannot delete the empty key"), errs.InvalidArgument)
	}
	if len(key) > t.MaxKeyLen {
		return false, errors.Mark(errors.Newf("quartz: key length %d exceeds max_key_len %d", len(key), t.MaxKeyLen), errs.InvalidArgument)
	}

	p, slot, exact, err := t.locate(key, 1)
	if err != nil {
		return false, err
	}
	if !exact {
		return false, nil
	}
	n := p.decoded[len(p.decoded)-1].entries[slot].Components
	if n == 0 {
		n = 1
	}

	for c := uint16(1); c <= n; c++ {
		if _, err := t.deleteKT(key, c); err != nil {
			return false, err
		}
	}

	t.itemCount--
	t.seqCount = page.SeqStartPoint
	t.sequential = false
	t.changedBlock = -1
	t.changedSlot = -1
	return true, nil
}

// deleteKT removes a single (key, component) item, cascading the resulting
// emptiness up through ancestors: an emptied block is freed and its parent's
// pointer to it removed, which may itself empty the parent, and so on up to
// a possible root collapse (spec §4.F delete_kt).
func (t *Tree) deleteKT(key []byte, component uint16) (bool, error) {
	p, slot, exact, err := t.locate(key, component)
	if err != nil {
		return false, err
	}
	if !exact {
		return false, nil
	}
	p, err = t.alter(p)
	if err != nil {
		return false, err
	}

	leafIdx := len(p.decoded) - 1
	leaf := p.decoded[leafIdx]
	leaf.entries = removeEntry(leaf.entries, slot)

	if len(leaf.entries) == 0 {
		t.freeBlock(p.blocks[leafIdx])
		if leafIdx == 0 {
			t.level = 0
			t.fakeRoot = true
			t.root = 0
			return true, nil
		}
		if err := t.removeChildPointer(p, leafIdx-1); err != nil {
			return false, err
		}
	}
	return true, nil
}

// freeBlock releases n back to the bitmap and drops any in-progress copy.
func (t *Tree) freeBlock(n uint32) {
	t.bm.FreeBlock(int(n))
	delete(t.dirty, n)
	t.invalidateCache(n)
}

// removeChildPointer removes, from p.decoded[parentIdx], the entry whose
// child pointer is p.blocks[parentIdx+1]; if that empties the parent it
// recurses upward, and if the root itself collapses to a single child the
// tree height is reduced (root demotion) or, if it collapses to no
// children at all, the tree becomes an empty fake-root leaf.
func (t *Tree) removeChildPointer(p path, parentIdx int) error {
	parent := p.decoded[parentIdx]
	childNum := p.blocks[parentIdx+1]

	idx := -1
	for i, e := range parent.entries {
		if e.Child == childNum {
			idx = i
			break
		}
	}
	if idx < 0 {
		return errors.Mark(errors.Newf("quartz: child block %d not found in parent during delete", childNum), errs.Corrupt)
	}
	parent.entries = removeEntry(parent.entries, idx)

	if len(parent.entries) == 0 {
		t.freeBlock(p.blocks[parentIdx])
		if parentIdx == 0 {
			t.level = 0
			t.fakeRoot = true
			t.root = 0
			return nil
		}
		return t.removeChildPointer(p, parentIdx-1)
	}

	if parentIdx == 0 && len(parent.entries) == 1 && t.level > 0 {
		only := parent.entries[0]
		t.freeBlock(p.blocks[parentIdx])
		t.root = only.Child
		t.level--
	}
	return nil
}
