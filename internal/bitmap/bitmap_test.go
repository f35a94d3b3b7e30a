// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package bitmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextFreeBlockAllocatesLowestClearBit(t *testing.T) {
	b := New(nil)
	n0 := b.NextFreeBlock()
	n1 := b.NextFreeBlock()
	n2 := b.NextFreeBlock()
	require.Equal(t, 0, n0)
	require.Equal(t, 1, n1)
	require.Equal(t, 2, n2)
	require.False(t, b.BlockFreeNow(0))
	require.False(t, b.BlockFreeNow(1))
	require.True(t, b.BlockFreeNow(3))
}

func TestNextFreeBlockExtendsPastEnd(t *testing.T) {
	b := New(nil)
	var last int
	for i := 0; i < extentBytes*8+5; i++ {
		last = b.NextFreeBlock()
	}
	require.Equal(t, extentBytes*8+4, last)
	require.GreaterOrEqual(t, b.Size(), extentBytes)
}

func TestFreeBlockLowersScanHintForReuse(t *testing.T) {
	b := New(nil)
	for i := 0; i < 10; i++ {
		b.NextFreeBlock()
	}
	b.FreeBlock(3)
	require.True(t, b.BlockFreeNow(3))

	n := b.NextFreeBlock()
	require.Equal(t, 3, n)
}

func TestBlockFreeAtStartReflectsCommittedOnly(t *testing.T) {
	committed := []byte{0x01} // bit 0 set
	b := New(committed)

	require.False(t, b.BlockFreeAtStart(0))
	require.True(t, b.BlockFreeAtStart(1))

	// Allocating bit 1 in this transaction doesn't change what was free at
	// the start of the transaction.
	n := b.NextFreeBlock()
	require.Equal(t, 1, n)
	require.True(t, b.BlockFreeAtStart(1))
}

func TestGetLastBlockTrimsTrailingZeroBytes(t *testing.T) {
	b := New(nil)
	for i := 0; i < 10; i++ {
		b.NextFreeBlock()
	}
	sizeBefore := b.Size()
	require.Greater(t, sizeBefore, 2)

	last := b.GetLastBlock()
	require.Equal(t, 9, last)
	require.Equal(t, 2, b.Size()) // bits 0..9 fit in 2 bytes
}

func TestGetLastBlockOnEmptyBitmap(t *testing.T) {
	b := New(nil)
	require.Equal(t, -1, b.GetLastBlock())
}

func TestResetReplacesCommittedAndWorking(t *testing.T) {
	b := New(nil)
	for i := 0; i < 5; i++ {
		b.NextFreeBlock()
	}
	snapshot := append([]byte(nil), b.Working()...)

	b.FreeBlock(2)
	b.Reset(snapshot)

	require.Equal(t, snapshot, b.Committed())
	require.Equal(t, snapshot, b.Working())
	require.False(t, b.BlockFreeNow(2))
}
