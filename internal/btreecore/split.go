// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package btreecore

import (
	"github.com/cockroachdb/errors"

	"github.com/quartzdb/quartz/internal/errs"
)

// choosePivot picks the entry index at which an overflowing block should be
// cut. In sequential-append mode the pivot is the slot that just received
// the new entry (so a long run of ascending appends leaves the lower block
// full and the upper block free for the next append, per spec §4.F);
// otherwise the pivot balances item-byte count between the two halves.
func (t *Tree) choosePivot(blk *decodedBlock, insertedAt int) int {
	n := len(blk.entries)
	if t.sequential || t.seqCount >= 0 {
		mid := insertedAt
		if mid < 1 {
			mid = 1
		}
		if mid > n-1 {
			mid = n - 1
		}
		return mid
	}
	total := 0
	sizes := make([]int, n)
	for i, e := range blk.entries {
		if blk.level == 0 {
			sizes[i] = e.leafSize()
		} else {
			sizes[i] = e.internalSize(len(e.Key))
		}
		total += sizes[i]
	}
	half := total / 2
	cum := 0
	mid := 1
	for i := 0; i < n-1; i++ {
		cum += sizes[i]
		mid = i + 1
		if cum >= half {
			break
		}
	}
	if mid < 1 {
		mid = 1
	}
	if mid > n-1 {
		mid = n - 1
	}
	return mid
}

// split breaks up the overflowing block at path position idx, writes the
// lower half back under its existing block number and the upper half under
// a freshly allocated one, and links the new block into the parent (or
// promotes the root) via the truncated separator key of spec §4.F
// split_root/enter_key.
func (t *Tree) split(p path, idx int, insertedAt int) error {
	blk := p.decoded[idx]
	oldNum := p.blocks[idx]

	mid := t.choosePivot(blk, insertedAt)
	lower := &decodedBlock{revision: blk.revision, level: blk.level, entries: append([]Entry(nil), blk.entries[:mid]...)}
	upper := &decodedBlock{revision: blk.revision, level: blk.level, entries: append([]Entry(nil), blk.entries[mid:]...)}

	newNum := uint32(t.bm.NextFreeBlock())
	*blk = *lower
	t.markDirty(oldNum, blk)
	t.markDirty(newNum, upper)
	if t.met != nil {
		t.met.Splits.Inc()
	}

	sepKey := upper.entries[0].Key
	truncateLen := len(sepKey)
	if blk.level == 0 {
		// Leaves carry full logical keys; the parent only needs enough of
		// the upper half's first key to distinguish it from the lower
		// half's last key.
		truncateLen = commonPrefixLen(lower.entries[len(lower.entries)-1].Key, sepKey) + 1
		if truncateLen > len(sepKey) {
			truncateLen = len(sepKey)
		}
	}

	if idx == 0 {
		return t.splitRoot(oldNum, newNum, sepKey, truncateLen, blk.level)
	}
	return t.enterKey(p, idx-1, sepKey, truncateLen, newNum)
}

// splitRoot promotes the tree by one level, per spec §4.F split_root: a new
// root is created with two children, the dummy-separated former root
// (lower half, still at oldNum) and the new upper half.
func (t *Tree) splitRoot(oldNum, newNum uint32, sepKey []byte, truncateLen int, childLevel uint8) error {
	if int(childLevel)+1 >= BTreeCursorLevels {
		return errors.Mark(errors.New("quartz: tree exceeds maximum height"), errs.Corrupt)
	}
	sep := append([]byte(nil), sepKey[:truncateLen]...)
	newRoot := &decodedBlock{
		revision: uint32(t.revision) + 1,
		level:    childLevel + 1,
		entries: []Entry{
			{Key: nil, Child: oldNum},
			{Key: sep, Child: newNum},
		},
	}
	newRootNum := uint32(t.bm.NextFreeBlock())
	t.markDirty(newRootNum, newRoot)
	t.level = childLevel + 1
	t.root = newRootNum
	t.fakeRoot = false
	return nil
}

// enterKey inserts a new internal separator (sepKey[:truncateLen], childBlock)
// into the parent block at path position parentIdx, splitting the parent in
// turn (or promoting the root) if it overflows.
func (t *Tree) enterKey(p path, parentIdx int, sepKey []byte, truncateLen int, childBlock uint32) error {
	parent := p.decoded[parentIdx]
	key := append([]byte(nil), sepKey[:truncateLen]...)
	insertAt := findChild(parent.entries, key) + 1
	parent.entries = insertEntry(parent.entries, insertAt, Entry{Key: key, Child: childBlock})

	if parent.estimateSize() <= t.BlockSize {
		return nil
	}
	return t.split(p, parentIdx, insertAt)
}
