// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package btreecore

import "github.com/quartzdb/quartz/internal/blockio"

// memDevice is an in-memory blockio.Device backing tests: a map of block
// buffers keyed by block number. It never reports short reads/writes; the
// only failure is blockio.ErrEOF for a block that was never written.
type memDevice struct {
	blockSize int
	blocks    map[int64][]byte
}

func newMemDevice(blockSize int) *memDevice {
	return &memDevice{blockSize: blockSize, blocks: make(map[int64][]byte)}
}

func (d *memDevice) ReadBlock(n int64, buf []byte) error {
	b, ok := d.blocks[n]
	if !ok {
		return blockio.ErrEOF
	}
	copy(buf, b)
	return nil
}

func (d *memDevice) WriteBlock(n int64, buf []byte) error {
	cp := append([]byte(nil), buf...)
	d.blocks[n] = cp
	return nil
}

func (d *memDevice) Flush() error { return nil }
func (d *memDevice) Close() error { return nil }

var _ blockio.Device = (*memDevice)(nil)
