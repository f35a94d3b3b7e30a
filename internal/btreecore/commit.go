// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package btreecore

import (
	"github.com/cockroachdb/errors"

	"github.com/quartzdb/quartz/internal/errs"
)

// PrepareCommit validates that newRevision can legally follow the
// transaction's starting revision. The owning package still has to flush
// DirtyBlocks() to the device and persist the new base record/bitmap
// before calling FinalizeCommit.
func (t *Tree) PrepareCommit(newRevision uint64) error {
	if newRevision <= t.revision {
		return errors.Mark(errors.Newf("quartz: commit revision %d must exceed current revision %d", newRevision, t.revision), errs.InvalidArgument)
	}
	return nil
}

// FinalizeCommit adopts newRevision, discards in-progress block state, and
// bumps the cursor-rebuild epoch so outstanding cursors reseek on next use
// (spec §4.F lazy cursor-rebuild protocol).
func (t *Tree) FinalizeCommit(newRevision uint64) {
	t.revision = newRevision
	t.ClearDirty()
	t.resetTxnState()
	t.cursorVersion++
	t.committed = t.State()
}

// Cancel discards the in-progress transaction without advancing the
// revision: every in-memory scalar touched since the last commit (root,
// level, fakeRoot, item count, sequential-append state) is rolled back to
// t.committed, and the bitmap's working vector is reverted to its
// committed snapshot so blocks allocated during the abandoned transaction
// become free again.
func (t *Tree) Cancel() {
	t.revision = t.committed.Revision
	t.level = t.committed.Level
	t.root = t.committed.Root
	t.itemCount = t.committed.ItemCount
	t.fakeRoot = t.committed.FakeRoot
	t.sequential = t.committed.Sequential
	if t.bm != nil {
		t.bm.Reset(t.bm.Committed())
	}
	t.ClearDirty()
	t.resetTxnState()
	t.cursorVersion++
}
