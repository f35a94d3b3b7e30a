// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package btreecore

import (
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/quartzdb/quartz/internal/errs"
)

func TestAddAndFindTag(t *testing.T) {
	tr := newTestTree(t)

	created := mustAdd(t, tr, "apple", "red")
	require.True(t, created)
	require.EqualValues(t, 1, tr.ItemCount())

	tag, found := mustFind(t, tr, "apple")
	require.True(t, found)
	require.Equal(t, "red", tag)

	_, found, err := tr.FindTag([]byte("banana"))
	require.NoError(t, err)
	require.False(t, found)
}

func TestAddReplacesExistingTag(t *testing.T) {
	tr := newTestTree(t)

	require.True(t, mustAdd(t, tr, "apple", "red"))
	require.False(t, mustAdd(t, tr, "apple", "green"))
	require.EqualValues(t, 1, tr.ItemCount())

	tag, found := mustFind(t, tr, "apple")
	require.True(t, found)
	require.Equal(t, "green", tag)
}

func TestAddEmptyKeyRejected(t *testing.T) {
	tr := newTestTree(t)
	_, err := tr.Add(nil, []byte("x"))
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.InvalidArgument))
}

func TestAddOversizeKeyRejected(t *testing.T) {
	tr := newTestTree(t)
	key := strings.Repeat("k", tr.MaxKeyLen+1)
	_, err := tr.Add([]byte(key), []byte("x"))
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.InvalidArgument))
}

func TestLongTagChunking(t *testing.T) {
	tr := newTestTree(t)

	longTag := strings.Repeat("x", 5*testBlockSize)
	require.True(t, mustAdd(t, tr, "bigkey", longTag))

	got, found := mustFind(t, tr, "bigkey")
	require.True(t, found)
	require.Equal(t, longTag, got)
}

func TestAddEmptyTagStillFindable(t *testing.T) {
	tr := newTestTree(t)
	require.True(t, mustAdd(t, tr, "nodata", ""))
	tag, found := mustFind(t, tr, "nodata")
	require.True(t, found)
	require.Equal(t, "", tag)
}

func TestReplacingLongTagWithShortOneDropsExcessComponents(t *testing.T) {
	tr := newTestTree(t)

	require.True(t, mustAdd(t, tr, "k", strings.Repeat("y", 5*testBlockSize)))
	require.False(t, mustAdd(t, tr, "k", "short"))

	got, found := mustFind(t, tr, "k")
	require.True(t, found)
	require.Equal(t, "short", got)
	require.EqualValues(t, 1, tr.ItemCount())
}

func TestManyInsertsForceSplits(t *testing.T) {
	tr := newTestTree(t)

	const n = 500
	for i := 0; i < n; i++ {
		require.True(t, mustAdd(t, tr, keyN(i), tagN(i)))
	}
	require.EqualValues(t, n, tr.ItemCount())
	require.Greater(t, tr.Level(), uint8(0), "expected tree to grow beyond a single leaf")

	for i := 0; i < n; i++ {
		tag, found := mustFind(t, tr, keyN(i))
		require.True(t, found, "key %d", i)
		require.Equal(t, tagN(i), tag)
	}
}

func TestSequentialInsertSetsSequentialFlag(t *testing.T) {
	tr := newTestTree(t)
	for i := 0; i < 200; i++ {
		require.True(t, mustAdd(t, tr, keyN(i), tagN(i)))
	}
	require.True(t, tr.Sequential())
}
