// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

// Package page implements the on-disk page layout of a quartz B-tree block:
// the fixed header, the directory of item offsets, and the packed items
// themselves. It has no notion of revisions, bitmaps or trees — it is pure
// codec over a []byte of length BlockSize.
package page

import (
	"github.com/cockroachdb/errors"

	"github.com/quartzdb/quartz/internal/errs"
)

// Layout widths, bit-exact with the on-disk format.
const (
	// DirStart is the width of the block header, and the offset at which
	// the directory begins.
	DirStart = 11
	// K1 is the width of the K (key length) field of an item.
	K1 = 1
	// I2 is the width of the I (item length) field of an item.
	I2 = 2
	// D2 is the width of a single directory entry.
	D2 = 2
	// C2 is the width of the trailing component-counter field of a key,
	// and of the leaf-only component-count field.
	C2 = 2
	// BytesPerBlockNumber is the width of an internal item's child pointer.
	BytesPerBlockNumber = 4
	// BlockCapacity is the minimum number of maximum-size items every block
	// must be able to hold.
	BlockCapacity = 4

	// MaxKeyLen is the hard ceiling on a logical (user) key length.
	MaxKeyLen = 252

	// SeqStartPoint is the initial seq_count; it counts up toward zero as
	// consecutive sequential insertions are observed.
	SeqStartPoint = -10
)

// ErrCorrupt is the mark used for all page-level corruption conditions:
// header fields out of range, directory not ascending, item overruns the
// block, and so on. It is the same mark value as errs.Corrupt.
var ErrCorrupt = errs.Corrupt

// Header is the 11-byte prefix of every block.
type Header struct {
	Revision  uint32
	Level     uint8
	MaxFree   uint16
	TotalFree uint16
	DirEnd    uint16
}

// putUint8/16/32 and uint8At/16At/32At pack and unpack big-endian integers with
// bounds checks against the supplied buffer, exactly as the page codec
// requires (§4.D).

func putUint8(buf []byte, off int, v uint8) {
	buf[off] = v
}

func uint8At(buf []byte, off int) uint8 {
	return buf[off]
}

func putUint16(buf []byte, off int, v uint16) {
	buf[off] = byte(v >> 8)
	buf[off+1] = byte(v)
}

func uint16At(buf []byte, off int) uint16 {
	return uint16(buf[off])<<8 | uint16(buf[off+1])
}

func putUint32(buf []byte, off int, v uint32) {
	buf[off] = byte(v >> 24)
	buf[off+1] = byte(v >> 16)
	buf[off+2] = byte(v >> 8)
	buf[off+3] = byte(v)
}

func uint32At(buf []byte, off int) uint32 {
	return uint32(buf[off])<<24 | uint32(buf[off+1])<<16 | uint32(buf[off+2])<<8 | uint32(buf[off+3])
}

// ReadHeader decodes the 11-byte header prefix of buf.
func ReadHeader(buf []byte) (Header, error) {
	if len(buf) < DirStart {
		return Header{}, errors.Mark(errors.Newf("quartz: block too small (%d bytes)", len(buf)), ErrCorrupt)
	}
	h := Header{
		Revision:  uint32At(buf, 0),
		Level:     uint8At(buf, 4),
		MaxFree:   uint16At(buf, 5),
		TotalFree: uint16At(buf, 7),
		DirEnd:    uint16At(buf, 9),
	}
	if int(h.DirEnd) > len(buf) || h.DirEnd < DirStart {
		return Header{}, errors.Mark(errors.Newf("quartz: dir_end %d out of range for block of %d bytes", h.DirEnd, len(buf)), ErrCorrupt)
	}
	return h, nil
}

// WriteHeader encodes h into the 11-byte prefix of buf.
func WriteHeader(buf []byte, h Header) {
	putUint32(buf, 0, h.Revision)
	putUint8(buf, 4, h.Level)
	putUint16(buf, 5, h.MaxFree)
	putUint16(buf, 7, h.TotalFree)
	putUint16(buf, 9, h.DirEnd)
}

// Block is a thin, mutable view over one page buffer, providing directory
// and item access on top of the raw header codec.
type Block struct {
	Buf       []byte
	BlockSize int
}

// NewBlock wraps buf (which must be exactly blockSize bytes) for directory
// and item access.
func NewBlock(buf []byte, blockSize int) Block {
	return Block{Buf: buf, BlockSize: blockSize}
}

// Header decodes the block's header.
func (b Block) Header() (Header, error) {
	return ReadHeader(b.Buf)
}

// SetHeader encodes h into the block.
func (b Block) SetHeader(h Header) {
	WriteHeader(b.Buf, h)
}

// DirCount returns the number of directory entries given dirEnd.
func DirCount(dirEnd uint16) int {
	return (int(dirEnd) - DirStart) / D2
}

// DirEntry returns the item offset stored at directory slot i.
func (b Block) DirEntry(i int) uint16 {
	return uint16At(b.Buf, DirStart+i*D2)
}

// SetDirEntry stores an item offset at directory slot i.
func (b Block) SetDirEntry(i int, off uint16) {
	putUint16(b.Buf, DirStart+i*D2, off)
}

// InsertDirEntry shifts directory entries [i, count) up by one slot and
// writes off at slot i.
func (b Block) InsertDirEntry(i, count int, off uint16) {
	base := DirStart + i*D2
	src := b.Buf[base : DirStart+count*D2]
	copy(b.Buf[base+D2:DirStart+(count+1)*D2], src)
	putUint16(b.Buf, base, off)
}

// RemoveDirEntry compacts directory entries (i, count) down over slot i.
func (b Block) RemoveDirEntry(i, count int) {
	base := DirStart + i*D2
	src := b.Buf[base+D2 : DirStart+count*D2]
	copy(b.Buf[base:DirStart+(count-1)*D2], src)
}

// MaxItemSize returns the largest item (I field inclusive) that blockSize
// guarantees room for BlockCapacity of, per invariant 4.
func MaxItemSize(blockSize int) int {
	return (blockSize - DirStart - BlockCapacity*D2) / BlockCapacity
}

// MaxKeyLenForBlock clamps MaxKeyLen further when blockSize is small enough
// that fewer than BlockCapacity items of that key size would fit (invariant
// 5). overhead is the non-key-byte overhead of the smallest possible
// item (I2+K1+2*C2 for a zero-length tag chunk).
func MaxKeyLenForBlock(blockSize int) int {
	maxItem := MaxItemSize(blockSize)
	overhead := I2 + K1 + 2*C2
	k := maxItem - overhead
	if k > MaxKeyLen {
		k = MaxKeyLen
	}
	if k < 0 {
		k = 0
	}
	return k
}
