// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package btreecore

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quartzdb/quartz/internal/bitmap"
)

// testBlockSize is small enough that a handful of inserts force a split,
// without being so small that a single key/tag pair can't fit.
const testBlockSize = 512

func newTestTree(t testing.TB) *Tree {
	t.Helper()
	dev := newMemDevice(testBlockSize)
	bm := bitmap.New(nil)
	st := State{Revision: 1, Level: 0, Root: 0, FakeRoot: true}
	return New(dev, bm, st, testBlockSize, nil)
}

func mustAdd(t testing.TB, tr *Tree, key, tag string) bool {
	t.Helper()
	created, err := tr.Add([]byte(key), []byte(tag))
	require.NoError(t, err)
	return created
}

func mustFind(t testing.TB, tr *Tree, key string) (string, bool) {
	t.Helper()
	tag, found, err := tr.FindTag([]byte(key))
	require.NoError(t, err)
	if !found {
		return "", false
	}
	return string(tag), true
}

func keyN(i int) string { return fmt.Sprintf("key-%06d", i) }
func tagN(i int) string { return fmt.Sprintf("tag-for-%06d", i) }

// commitTree drives PrepareCommit/FinalizeCommit the way the owning package
// (quartz's Tree.Commit, in db.go) does: every dirty block is flushed to the
// device before FinalizeCommit clears it, so later reads of now-committed
// blocks hit the device instead of the no-longer-present dirty entry.
func commitTree(t testing.TB, tr *Tree, rev uint64) {
	t.Helper()
	require.NoError(t, tr.PrepareCommit(rev))
	for _, n := range tr.DirtyBlocks() {
		buf, err := tr.EncodedBlock(n)
		require.NoError(t, err)
		require.NoError(t, tr.dev.WriteBlock(int64(n), buf))
	}
	tr.FinalizeCommit(rev)
	tr.Bitmap().Reset(tr.Bitmap().Working())
}
