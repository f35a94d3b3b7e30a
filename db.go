// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

// Package quartz implements the core of a persistent, revision-numbered,
// copy-on-write B-tree key/value storage engine: a hand-rolled on-disk
// block format, dual alternating base files for crash-safe commits, a
// committed/working block-allocation bitmap, long-tag chunking for values
// larger than one item, and a cursor subsystem that survives rebalancing
// and revision change.
package quartz

import (
	"context"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/semaphore"

	"github.com/quartzdb/quartz/internal/basefile"
	"github.com/quartzdb/quartz/internal/bitmap"
	"github.com/quartzdb/quartz/internal/blockio"
	"github.com/quartzdb/quartz/internal/btreecore"
	"github.com/quartzdb/quartz/internal/errs"
	"github.com/quartzdb/quartz/internal/metrics"
)

// Tree is a handle onto one table, opened either for reading a fixed
// revision or for reading and writing the latest one.
type Tree struct {
	store  *baseStore
	dev    blockio.Device
	met    *metrics.Metrics
	core   *btreecore.Tree
	logger Logger
	lctx   *logCtx

	writable    bool
	activeBase  byte
	bothBases   bool
	readerLimit *semaphore.Weighted
}

// Create makes a new, empty table at the given path prefix. An existing
// table at the same prefix is overwritten.
func Create(path string, opts Options) (*Tree, error) {
	opts = opts.withDefaults()
	store := newBaseStore(path)

	f, err := os.OpenFile(store.dataPath(), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "quartz: create data file"), errs.Opening)
	}
	if err := f.Close(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "quartz: create data file"), errs.Opening)
	}

	rec := basefile.Record{
		Revision:     0,
		BlockSize:    uint64(opts.BlockSize),
		Root:         0,
		Level:        0,
		ItemCount:    0,
		LastBlock:    0,
		HaveFakeRoot: true,
		Sequential:   false,
	}
	if err := store.deleteBase('B'); err != nil {
		return nil, err
	}
	if err := store.writeBase('A', rec, nil); err != nil {
		return nil, err
	}

	opts.Logger.Infof("quartz: created table %s (block_size=%d)", path, opts.BlockSize)

	return openInternal(store, true, 0, false, opts.Logger, opts.CacheBlocks, opts.WriteBandwidth, opts.MaxConcurrentReaders)
}

// Open opens an existing table for reading, and for writing unless
// oo.ReadOnly is set.
func Open(path string, oo OpenOptions) (*Tree, error) {
	oo = oo.withDefaults()
	store := newBaseStore(path)
	return openInternal(store, !oo.ReadOnly, oo.Revision, oo.Revision != 0, oo.Logger, oo.CacheBlocks, oo.WriteBandwidth, oo.MaxConcurrentReaders)
}

func openInternal(
	store *baseStore,
	writable bool,
	wantRevision uint64,
	revisionRequested bool,
	logger Logger,
	cacheBlocks int,
	writeBandwidth float64,
	maxReaders int,
) (*Tree, error) {
	bases := store.readBoth()
	if len(bases) == 0 {
		return nil, errors.Mark(errors.Newf("quartz: no valid base file for %s", store.prefix), errs.Opening)
	}

	var chosenLetter byte
	var chosen basefile.Record
	var chosenBitmap []byte
	found := false
	for letter, b := range bases {
		if revisionRequested && b.rec.Revision != wantRevision {
			continue
		}
		if !found || b.rec.Revision > chosen.Revision {
			chosenLetter, chosen, chosenBitmap = letter, b.rec, b.bitmap
			found = true
		}
	}
	if !found {
		return nil, errors.Mark(errors.Newf("quartz: revision %d not available for %s", wantRevision, store.prefix), errs.Opening)
	}
	bothBases := len(bases) == 2

	fd, err := os.OpenFile(store.dataPath(), openFlags(writable), 0o644)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "quartz: open data file"), errs.Opening)
	}

	met := metrics.NewMetrics(store.prefix)

	var dev blockio.Device = blockio.Open(int(fd.Fd()), int(chosen.BlockSize), writeBandwidth)
	if cacheBlocks > 0 {
		dev = blockio.NewCache(dev, cacheBlocks, met)
	}

	var bm *bitmap.Bitmap
	if writable {
		bm = bitmap.New(chosenBitmap)
	}

	st := btreecore.State{
		Revision:   chosen.Revision,
		Level:      uint8(chosen.Level),
		Root:       uint32(chosen.Root),
		ItemCount:  chosen.ItemCount,
		FakeRoot:   chosen.HaveFakeRoot,
		Sequential: chosen.Sequential,
	}
	core := btreecore.New(dev, bm, st, int(chosen.BlockSize), met)

	t := &Tree{
		store:      store,
		dev:        dev,
		met:        met,
		core:       core,
		logger:     logger,
		lctx:       newLogCtx(store.prefix),
		writable:   writable,
		activeBase: chosenLetter,
		bothBases:  bothBases,
	}
	if maxReaders > 0 {
		t.readerLimit = semaphore.NewWeighted(int64(maxReaders))
	}

	logger.Infof("%s: opened at revision %d", t.lctx.withRevision(chosen.Revision), chosen.Revision)
	return t, nil
}

func openFlags(writable bool) int {
	if writable {
		return os.O_RDWR
	}
	return os.O_RDONLY
}

// Close releases the table's underlying file descriptor(s). Any
// uncommitted changes are discarded, as if Cancel had been called.
func (t *Tree) Close() error {
	if t.writable {
		t.core.Cancel()
	}
	return t.dev.Close()
}

// Revision returns the revision this handle currently sees.
func (t *Tree) Revision() uint64 { return t.core.Revision() }

// ItemCount returns the number of distinct keys currently stored.
func (t *Tree) ItemCount() uint64 { return t.core.ItemCount() }

// Metrics returns a point-in-time snapshot of this table's counters.
func (t *Tree) Metrics() metrics.Snapshot { return t.met.Snapshot() }

// Add stores (key, tag), replacing any existing entry for key. created
// reports whether key was previously absent. It fails with
// ErrInvalidArgument if the handle is read-only.
func (t *Tree) Add(key, tag []byte) (created bool, err error) {
	if !t.writable {
		return false, errors.Mark(errors.New("quartz: table is read-only"), errs.InvalidArgument)
	}
	return t.core.Add(key, tag)
}

// Del removes key. removed reports whether key was present.
func (t *Tree) Del(key []byte) (removed bool, err error) {
	if !t.writable {
		return false, errors.Mark(errors.New("quartz: table is read-only"), errs.InvalidArgument)
	}
	return t.core.Del(key)
}

// FindTag returns the full tag stored for key, reassembled across
// however many components it was chunked into.
func (t *Tree) FindTag(key []byte) (tag []byte, found bool, err error) {
	return t.core.FindTag(key)
}

// GetExactEntry is a synonym for FindTag, matching the original backend's
// public naming (spec §6).
func (t *Tree) GetExactEntry(key []byte) (tag []byte, found bool, err error) {
	return t.core.FindTag(key)
}

// NewCursor returns a cursor over the table, positioned before the first
// entry. If Options/OpenOptions.MaxConcurrentReaders was set, this blocks
// until a slot is available; release it by calling Cursor.Close.
func (t *Tree) NewCursor(ctx context.Context) (*Cursor, error) {
	if t.readerLimit != nil {
		if err := t.readerLimit.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}
	return &Cursor{tree: t, c: btreecore.NewCursor(t.core)}, nil
}

// Commit makes all changes made by Add/Del since the last commit (or
// since the table was opened) durable and visible under newRevision, which
// must exceed the table's current revision.
func (t *Tree) Commit(newRevision uint64) error {
	if !t.writable {
		return errors.Mark(errors.New("quartz: table is read-only"), errs.InvalidArgument)
	}
	if err := t.core.PrepareCommit(newRevision); err != nil {
		return err
	}

	start := time.Now()
	inactive := otherLetter(t.activeBase)
	if t.bothBases {
		// First write of the transaction: delete the previously-inactive
		// base before any data block is written, so a crash midway still
		// leaves exactly one valid base (spec §5).
		if err := t.store.deleteBase(inactive); err != nil {
			return err
		}
		t.bothBases = false
	}

	for _, n := range t.core.DirtyBlocks() {
		buf, err := t.core.EncodedBlock(n)
		if err != nil {
			return err
		}
		if err := t.dev.WriteBlock(int64(n), buf); err != nil {
			return err
		}
		if t.met != nil {
			t.met.BlocksWritten.Inc()
			t.met.BytesFlushed.Add(float64(len(buf)))
		}
	}
	if err := t.dev.Flush(); err != nil {
		return err
	}

	bm := t.coreBitmap()
	rec := t.core.StateAsRecord(newRevision)
	bitmapBytes := bm.Working()
	if err := t.store.writeBase(inactive, rec, bitmapBytes); err != nil {
		return err
	}

	t.core.FinalizeCommit(newRevision)
	bm.Reset(bitmapBytes)
	t.activeBase = inactive
	t.bothBases = true
	if t.met != nil {
		t.met.CommitsTotal.Inc()
		t.met.CommitLatency.Observe(time.Since(start).Seconds())
	}
	t.logger.Infof("%s: committed", t.lctx.withRevision(newRevision))
	return nil
}

// Cancel discards all changes made since the last commit (or since the
// table was opened).
func (t *Tree) Cancel() {
	t.core.Cancel()
	if t.met != nil {
		t.met.CancelsTotal.Inc()
	}
	t.logger.Infof("%s: cancelled", t.lctx.withRevision(t.core.Revision()))
}

// DebugString renders the tree's block structure for use in test failure
// messages and manual inspection; it is not part of the stable API.
func (t *Tree) DebugString() string { return t.core.DebugString() }

func (t *Tree) coreBitmap() *bitmap.Bitmap { return t.core.Bitmap() }

func otherLetter(l byte) byte {
	if l == 'A' {
		return 'B'
	}
	return 'A'
}
