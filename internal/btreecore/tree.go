// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package btreecore

import (
	"github.com/cockroachdb/errors"

	"github.com/quartzdb/quartz/internal/basefile"
	"github.com/quartzdb/quartz/internal/bitmap"
	"github.com/quartzdb/quartz/internal/blockio"
	"github.com/quartzdb/quartz/internal/errs"
	"github.com/quartzdb/quartz/internal/metrics"
	"github.com/quartzdb/quartz/internal/page"
)

// BTreeCursorLevels is the maximum tree height; exceeding it on a split is
// fatal corruption (spec §6).
const BTreeCursorLevels = 10

// State is the persistent metadata a Tree loads from and saves to its base
// file, exposed so the owning package can snapshot/restore it around
// open/commit/cancel.
type State struct {
	Revision   uint64
	Level      uint8
	Root       uint32
	ItemCount  uint64
	FakeRoot   bool
	Sequential bool
}

// Tree is the B-tree handle described in spec §3: block size, revision,
// height, root, and the scratch state needed to drive search, insertion,
// deletion and commit.
type Tree struct {
	BlockSize   int
	MaxItemSize int
	MaxKeyLen   int
	Writable    bool

	dev blockio.Device
	met *metrics.Metrics
	bm  *bitmap.Bitmap // nil when read-only

	revision   uint64
	level      uint8
	root       uint32
	fakeRoot   bool
	sequential bool
	itemCount  uint64

	seqCount     int
	changedBlock int64
	changedSlot  int

	dirty map[uint32]*decodedBlock

	cursorVersion uint64

	// committed is the state as of the last successful commit (or the
	// state the tree was opened with, if none yet): everything Cancel
	// needs to roll the in-memory scalars back to when a transaction is
	// abandoned.
	committed State
}

// New constructs a Tree over dev with the given state, block size and
// (for writable handles) bitmap. met may be nil.
func New(dev blockio.Device, bm *bitmap.Bitmap, st State, blockSize int, met *metrics.Metrics) *Tree {
	t := &Tree{
		BlockSize:   blockSize,
		MaxItemSize: page.MaxItemSize(blockSize),
		MaxKeyLen:   page.MaxKeyLenForBlock(blockSize),
		Writable:    bm != nil,
		dev:         dev,
		met:         met,
		bm:          bm,
		revision:    st.Revision,
		level:       st.Level,
		root:        st.Root,
		fakeRoot:    st.FakeRoot,
		sequential:  st.Sequential,
		itemCount:   st.ItemCount,
		dirty:       make(map[uint32]*decodedBlock),
		committed:   st,
	}
	t.resetTxnState()
	return t
}

func (t *Tree) resetTxnState() {
	t.seqCount = page.SeqStartPoint
	t.changedBlock = -1
	t.changedSlot = -1
}

// State snapshots the Tree's persistent fields for base-file encoding.
func (t *Tree) State() State {
	return State{
		Revision:   t.revision,
		Level:      t.level,
		Root:       t.root,
		ItemCount:  t.itemCount,
		FakeRoot:   t.fakeRoot,
		Sequential: t.sequential,
	}
}

// Revision returns the revision this handle currently sees.
func (t *Tree) Revision() uint64 { return t.revision }

// Level returns the tree height (0 = a leaf-only tree).
func (t *Tree) Level() uint8 { return t.level }

// Root returns the current root block number.
func (t *Tree) Root() uint32 { return t.root }

// ItemCount returns the number of logical entries (distinct user keys)
// currently stored.
func (t *Tree) ItemCount() uint64 { return t.itemCount }

// Sequential reports whether the tree has entered sequential-append mode.
func (t *Tree) Sequential() bool { return t.sequential }

// FakeRoot reports whether the tree has never been written (its root is
// synthesised in memory and not yet allocated on disk).
func (t *Tree) FakeRoot() bool { return t.fakeRoot }

// emptyRoot returns the decoded, empty root block synthesised for a fresh
// (fake-root) tree: a leaf with no entries.
func emptyRoot() decodedBlock {
	return decodedBlock{revision: 0, level: 0, entries: nil}
}

// readBlock decodes block n, preferring an in-progress (dirty) copy over
// the on-disk version, and checking the revision cross-check invariant
// (§8: revision(p) <= revision(parent) <= current_revision).
func (t *Tree) readBlock(n uint32) (*decodedBlock, error) {
	if db, ok := t.dirty[n]; ok {
		return db, nil
	}
	if t.fakeRoot && n == t.root {
		db := emptyRoot()
		return &db, nil
	}
	buf := newBuffer(t.BlockSize)
	if err := t.dev.ReadBlock(int64(n), buf); err != nil {
		return nil, err
	}
	if t.met != nil {
		t.met.BlocksRead.Inc()
	}
	db, err := decodeBlock(buf, t.BlockSize)
	if err != nil {
		return nil, err
	}
	if uint64(db.revision) > t.revision {
		if t.Writable {
			return nil, errors.Mark(errors.Newf("quartz: block %d has revision %d newer than tree revision %d", n, db.revision, t.revision), errs.Corrupt)
		}
		return nil, errors.Mark(errors.Newf("quartz: block %d was reclaimed by a later commit", n), errs.Modified)
	}
	return &db, nil
}

// markDirty records db as the in-progress contents of block n, to be
// flushed on commit.
func (t *Tree) markDirty(n uint32, db *decodedBlock) {
	t.dirty[n] = db
}

// invalidateCache drops n from the device's cache, if it has one, so a
// later reallocation of n isn't served the block's old content.
func (t *Tree) invalidateCache(n uint32) {
	if inv, ok := t.dev.(blockio.Invalidator); ok {
		inv.Invalidate(int64(n))
	}
}

// DirtyBlocks returns the block numbers modified in the current
// transaction, for the commit path to flush.
func (t *Tree) DirtyBlocks() []uint32 {
	out := make([]uint32, 0, len(t.dirty))
	for n := range t.dirty {
		out = append(out, n)
	}
	return out
}

// EncodedBlock returns the on-disk bytes for a dirty block.
func (t *Tree) EncodedBlock(n uint32) ([]byte, error) {
	db, ok := t.dirty[n]
	if !ok {
		return nil, errors.Newf("quartz: block %d is not dirty", n)
	}
	buf := newBuffer(t.BlockSize)
	if err := db.encodeInto(buf, t.BlockSize); err != nil {
		return nil, err
	}
	return buf, nil
}

// ClearDirty discards all in-progress block state, for cancel().
func (t *Tree) ClearDirty() {
	t.dirty = make(map[uint32]*decodedBlock)
}

// StateAsRecord trims the bitmap to its last set bit (§12) and builds the
// basefile.Record to persist for a commit at newRevision. Call
// t.Bitmap().Working() afterwards to get the matching (now-trimmed) bitmap
// bytes to write alongside it.
func (t *Tree) StateAsRecord(newRevision uint64) basefile.Record {
	last := t.bm.GetLastBlock()
	if last < 0 {
		last = 0
	}
	return basefile.Record{
		Revision:     newRevision,
		BlockSize:    uint64(t.BlockSize),
		Root:         uint64(t.root),
		Level:        uint64(t.level),
		BitmapSize:   uint64(t.bm.Size()),
		ItemCount:    t.itemCount,
		LastBlock:    uint64(last),
		HaveFakeRoot: t.fakeRoot,
		Sequential:   t.sequential,
	}
}

// Bitmap returns the writable handle's allocation bitmap, or nil for a
// read-only handle.
func (t *Tree) Bitmap() *bitmap.Bitmap { return t.bm }
