// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package quartz

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tablePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "tbl")
}

func TestCreateOpenAddFindCommit(t *testing.T) {
	path := tablePath(t)

	tr, err := Create(path, Options{BlockSize: 1024})
	require.NoError(t, err)

	created, err := tr.Add([]byte("hello"), []byte("world"))
	require.NoError(t, err)
	require.True(t, created)

	require.NoError(t, tr.Commit(2))
	require.EqualValues(t, 2, tr.Revision())
	require.NoError(t, tr.Close())

	tr2, err := Open(path, OpenOptions{})
	require.NoError(t, err)
	defer tr2.Close()

	tag, found, err := tr2.FindTag([]byte("hello"))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "world", string(tag))
	require.EqualValues(t, 2, tr2.Revision())
}

func TestCreateOverwritesExistingTable(t *testing.T) {
	path := tablePath(t)

	tr, err := Create(path, Options{BlockSize: 1024})
	require.NoError(t, err)
	_, err = tr.Add([]byte("stale"), []byte("value"))
	require.NoError(t, err)
	require.NoError(t, tr.Commit(2))
	require.NoError(t, tr.Close())

	tr2, err := Create(path, Options{BlockSize: 1024})
	require.NoError(t, err)
	defer tr2.Close()

	_, found, err := tr2.FindTag([]byte("stale"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestCancelDiscardsUncommittedWrites(t *testing.T) {
	path := tablePath(t)
	tr, err := Create(path, Options{BlockSize: 1024})
	require.NoError(t, err)

	_, err = tr.Add([]byte("a"), []byte("1"))
	require.NoError(t, err)
	tr.Cancel()

	_, found, err := tr.FindTag([]byte("a"))
	require.NoError(t, err)
	require.False(t, found)
	require.NoError(t, tr.Close())
}

func TestCloseWithoutCommitDiscardsChanges(t *testing.T) {
	path := tablePath(t)
	tr, err := Create(path, Options{BlockSize: 1024})
	require.NoError(t, err)
	_, err = tr.Add([]byte("a"), []byte("1"))
	require.NoError(t, err)
	require.NoError(t, tr.Close())

	tr2, err := Open(path, OpenOptions{})
	require.NoError(t, err)
	defer tr2.Close()
	_, found, err := tr2.FindTag([]byte("a"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestReadOnlyHandleRejectsWrites(t *testing.T) {
	path := tablePath(t)
	tr, err := Create(path, Options{BlockSize: 1024})
	require.NoError(t, err)
	require.NoError(t, tr.Commit(2))
	require.NoError(t, tr.Close())

	ro, err := Open(path, OpenOptions{ReadOnly: true})
	require.NoError(t, err)
	defer ro.Close()

	_, err = ro.Add([]byte("a"), []byte("1"))
	require.Error(t, err)
	require.True(t, Is(err, ErrInvalidArgument))

	_, err = ro.Del([]byte("a"))
	require.Error(t, err)

	err = ro.Commit(3)
	require.Error(t, err)
}

func TestOpenHistoricalRevision(t *testing.T) {
	path := tablePath(t)
	tr, err := Create(path, Options{BlockSize: 1024})
	require.NoError(t, err)
	_, err = tr.Add([]byte("a"), []byte("1"))
	require.NoError(t, err)
	require.NoError(t, tr.Commit(2))

	_, err = tr.Add([]byte("b"), []byte("2"))
	require.NoError(t, err)
	require.NoError(t, tr.Commit(3))
	require.NoError(t, tr.Close())

	// Only two base files ever exist, so only the two most recent commits'
	// revisions (2 and 3) are still reachable; the initial revision 0 was
	// overwritten once both letters had been used once each.
	atLatest, err := Open(path, OpenOptions{Revision: 3})
	require.NoError(t, err)
	defer atLatest.Close()
	_, found, err := atLatest.FindTag([]byte("b"))
	require.NoError(t, err)
	require.True(t, found)

	_, err = Open(path, OpenOptions{Revision: 99})
	require.Error(t, err)
	require.True(t, Is(err, ErrOpening))
}

func TestCursorOverTable(t *testing.T) {
	path := tablePath(t)
	tr, err := Create(path, Options{BlockSize: 1024})
	require.NoError(t, err)

	keys := []string{"a", "b", "c", "d"}
	for i, k := range keys {
		_, err := tr.Add([]byte(k), []byte{byte(i)})
		require.NoError(t, err)
	}
	require.NoError(t, tr.Commit(2))
	defer tr.Close()

	c, err := tr.NewCursor(context.Background())
	require.NoError(t, err)
	defer c.Close()

	for _, k := range keys {
		ok, err := c.Next()
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, k, string(c.Key()))
	}
	ok, err := c.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMetricsTrackCommits(t *testing.T) {
	path := tablePath(t)
	tr, err := Create(path, Options{BlockSize: 1024})
	require.NoError(t, err)
	defer tr.Close()

	_, err = tr.Add([]byte("a"), []byte("1"))
	require.NoError(t, err)
	require.NoError(t, tr.Commit(2))

	snap := tr.Metrics()
	require.EqualValues(t, 1, snap.CommitsTotal)
	require.Greater(t, snap.BlocksWritten, uint64(0))
}

func TestDebugStringDoesNotPanicOnEmptyAndPopulatedTree(t *testing.T) {
	path := tablePath(t)
	tr, err := Create(path, Options{BlockSize: 1024})
	require.NoError(t, err)
	defer tr.Close()

	require.Contains(t, tr.DebugString(), "tree:")

	_, err = tr.Add([]byte("a"), []byte("1"))
	require.NoError(t, err)
	require.Contains(t, tr.DebugString(), "block")
}
