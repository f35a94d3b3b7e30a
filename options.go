// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package quartz

// defaultBlockSize is substituted for any invalid Options.BlockSize,
// mirroring the teacher's own validate-and-default-silently approach to
// configuration rather than failing Create/Open outright.
const defaultBlockSize = 8192

// minBlockSize is the smallest block size Options accepts; smaller values
// are replaced with defaultBlockSize.
const minBlockSize = 2048

// Options configures a new table at Create time. The zero value is valid;
// every field defaults sensibly.
type Options struct {
	// BlockSize is the on-disk block size in bytes. Substituted with 8192
	// if zero, negative, or too small to satisfy invariant 4.
	BlockSize int
	// Logger receives at most one line per open/create/commit/cancel/
	// corruption event. Defaults to a no-op logger.
	Logger Logger
	// CacheBlocks bounds the in-memory read cache (internal/blockio.Cache).
	// Zero disables the cache entirely.
	CacheBlocks int
	// WriteBandwidth, if positive, paces block writes through a token
	// bucket (bytes/sec). Zero means unlimited.
	WriteBandwidth float64
	// MaxConcurrentReaders bounds the number of read cursors that may be
	// open on this table at once. Zero means unbounded.
	MaxConcurrentReaders int
}

func (o Options) withDefaults() Options {
	if o.BlockSize < minBlockSize {
		o.BlockSize = defaultBlockSize
	}
	if o.Logger == nil {
		o.Logger = discardLogger{}
	}
	return o
}

// OpenOptions configures an existing table at Open time.
type OpenOptions struct {
	// ReadOnly opens the table without allocating a bitmap or write path;
	// Add/Del/Commit/Cancel are unavailable on the returned Tree.
	ReadOnly bool
	// Revision, if non-zero, requests a specific historical revision
	// rather than the latest. Open fails with ErrOpening if that revision
	// is not the one recorded by either base file.
	Revision uint64
	// Logger receives open/corruption log lines. Defaults to a no-op
	// logger.
	Logger Logger
	// CacheBlocks bounds the in-memory read cache. Zero disables it.
	CacheBlocks int
	// WriteBandwidth paces writes on a writable handle; ignored when
	// ReadOnly is set.
	WriteBandwidth float64
	// MaxConcurrentReaders bounds concurrently open read cursors.
	MaxConcurrentReaders int
}

func (o OpenOptions) withDefaults() OpenOptions {
	if o.Logger == nil {
		o.Logger = discardLogger{}
	}
	return o
}
