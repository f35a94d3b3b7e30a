// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

// Package btreecore implements the block-structured, copy-on-write B-tree
// itself: search, insertion, deletion, splitting, long-tag chunking, the
// sequential-append optimisation, and the cursor subsystem built on top of
// the bit-exact page layout in internal/page.
package btreecore

import (
	"github.com/cockroachdb/errors"

	"github.com/quartzdb/quartz/internal/errs"
	"github.com/quartzdb/quartz/internal/page"
)

// Entry is one decoded directory item: a leaf tag-chunk entry or an
// internal child pointer, depending on which of Tag/Child is meaningful for
// the block's level.
type Entry struct {
	Key        []byte
	Component  uint16
	Components uint16 // leaf only: total component count C
	Tag        []byte // leaf only: this component's tag chunk
	Child      uint32 // internal only
}

// leafSize returns the encoded leaf item size (I) this entry would occupy.
func (e Entry) leafSize() int {
	return page.LeafItemSize(len(e.Key), len(e.Tag))
}

func (e Entry) internalSize(truncateLen int) int {
	kl := len(e.Key)
	if truncateLen < kl {
		kl = truncateLen
	}
	return page.InternalItemSize(kl)
}

// decodedBlock is a block's header plus its directory-ordered entries,
// unpacked for easy mutation. Internal items carry Child; leaf items carry
// Tag/Components.
type decodedBlock struct {
	revision uint32
	level    uint8
	entries  []Entry
}

// decodeBlock unpacks buf (exactly blockSize bytes) via the bit-exact page
// codec.
func decodeBlock(buf []byte, blockSize int) (decodedBlock, error) {
	h, err := page.ReadHeader(buf)
	if err != nil {
		return decodedBlock{}, err
	}
	count := page.DirCount(h.DirEnd)
	blk := page.NewBlock(buf, blockSize)
	entries := make([]Entry, count)
	for i := 0; i < count; i++ {
		off := int(blk.DirEntry(i))
		if off < page.DirStart || off > blockSize {
			return decodedBlock{}, errors.Mark(errors.Newf("quartz: item offset %d out of range", off), errs.Corrupt)
		}
		it := page.ItemAt(buf, off)
		if it.End() > blockSize || it.Len() <= 0 {
			return decodedBlock{}, errors.Mark(errors.Newf("quartz: item at offset %d overruns block", off), errs.Corrupt)
		}
		e := Entry{
			Key:       append([]byte(nil), it.Key()...),
			Component: it.Component(),
		}
		if h.Level == 0 {
			e.Components = it.Components()
			e.Tag = append([]byte(nil), it.TagChunk()...)
		} else {
			e.Child = it.ChildBlock()
		}
		entries[i] = e
	}
	for i := 1; i < count; i++ {
		if page.CompareKeys(entries[i-1].Key, entries[i-1].Component, entries[i].Key, entries[i].Component) >= 0 {
			return decodedBlock{}, errors.Mark(errors.New("quartz: directory not strictly ordered"), errs.Corrupt)
		}
	}
	return decodedBlock{revision: h.Revision, level: h.Level, entries: entries}, nil
}

// estimateSize returns the total bytes decodedBlock would occupy if encoded
// now: dir_end + sum(item sizes).
func (d decodedBlock) estimateSize() int {
	total := page.DirStart + page.D2*len(d.entries)
	for _, e := range d.entries {
		if d.level == 0 {
			total += e.leafSize()
		} else {
			total += e.internalSize(len(e.Key))
		}
	}
	return total
}

// encodeInto packs d into buf (len(buf) == blockSize), filling the header,
// directory, and items with no fragmentation (items are always packed
// contiguously from the end of the block, so max_free == total_free after
// every encode).
func (d decodedBlock) encodeInto(buf []byte, blockSize int) error {
	for i := range buf {
		buf[i] = 0
	}
	dirEnd := page.DirStart + page.D2*len(d.entries)
	blk := page.NewBlock(buf, blockSize)
	cursor := blockSize
	for i, e := range d.entries {
		var size int
		if d.level == 0 {
			size = e.leafSize()
		} else {
			size = e.internalSize(len(e.Key))
		}
		cursor -= size
		if cursor < dirEnd {
			return errors.Mark(errors.Newf("quartz: block overflow encoding %d entries", len(d.entries)), errs.Corrupt)
		}
		bld := page.NewBuilder(buf[cursor : cursor+size])
		if d.level == 0 {
			bld.FormKey(e.Key)
			bld.SetComponentOf(len(e.Key), e.Component)
			bld.SetComponentsOf(len(e.Key), e.Components)
			bld.SetTag(len(e.Key), e.Tag)
		} else {
			bld.SetKeyAndBlock(e.Key, len(e.Key), e.Child)
		}
		blk.SetDirEntry(i, uint16(cursor))
	}
	totalFree := uint16(cursor - dirEnd)
	blk.SetHeader(page.Header{
		Revision:  d.revision,
		Level:     d.level,
		MaxFree:   totalFree,
		TotalFree: totalFree,
		DirEnd:    uint16(dirEnd),
	})
	return nil
}

// newBuffer allocates a zeroed block-sized buffer.
func newBuffer(blockSize int) []byte {
	return make([]byte, blockSize)
}
