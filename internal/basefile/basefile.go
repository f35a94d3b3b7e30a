// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

// Package basefile encodes and decodes the small metadata record that
// describes one revision of a quartz table (spec §4.C, §6). Two base files,
// conventionally named with an "A" and "B" suffix, alternate as the active
// one on every commit.
package basefile

import (
	"bytes"

	"github.com/cockroachdb/errors"

	"github.com/quartzdb/quartz/internal/errs"
)

// Format is the only recognised base-record format tag.
const Format = 1

// ErrCorrupt marks every base-record decoding failure: truncation,
// unrecognised format, or a revision/revision_again mismatch. It is the
// same mark value as errs.Corrupt.
var ErrCorrupt = errs.Corrupt

// Record is the decoded content of a base file.
type Record struct {
	Revision     uint64
	Format       uint64
	BlockSize    uint64
	Root         uint64
	Level        uint64
	BitmapSize   uint64
	ItemCount    uint64
	LastBlock    uint64
	HaveFakeRoot bool
	Sequential   bool
}

// putVarint appends v to buf using 7-bit continuation groups,
// little-endian, high bit set on every byte but the last.
func putVarint(buf *bytes.Buffer, v uint64) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf.WriteByte(b | 0x80)
		} else {
			buf.WriteByte(b)
			return
		}
	}
}

func readVarint(r *bytes.Reader) (uint64, error) {
	var v uint64
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, errors.Mark(errors.Wrap(err, "quartz: truncated base record"), ErrCorrupt)
		}
		v |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return v, nil
		}
		shift += 7
		if shift > 63 {
			return 0, errors.Mark(errors.New("quartz: base record varint overflow"), ErrCorrupt)
		}
	}
}

func putBool(buf *bytes.Buffer, v bool) {
	if v {
		putVarint(buf, 1)
	} else {
		putVarint(buf, 0)
	}
}

func readBool(r *bytes.Reader) (bool, error) {
	v, err := readVarint(r)
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Encode serialises rec in field order: revision, format, block_size, root,
// level, bitmap_size, item_count, last_block, have_fakeroot, sequential,
// revision_again. All integers are 7-bit-continuation varints (§6).
func Encode(rec Record) []byte {
	var buf bytes.Buffer
	putVarint(&buf, rec.Revision)
	putVarint(&buf, Format)
	putVarint(&buf, rec.BlockSize)
	putVarint(&buf, rec.Root)
	putVarint(&buf, rec.Level)
	putVarint(&buf, rec.BitmapSize)
	putVarint(&buf, rec.ItemCount)
	putVarint(&buf, rec.LastBlock)
	putBool(&buf, rec.HaveFakeRoot)
	putBool(&buf, rec.Sequential)
	putVarint(&buf, rec.Revision) // revision_again: torn-write cross-check
	return buf.Bytes()
}

// Decode parses a base record, rejecting it (with ErrCorrupt) if any field
// is truncated, the format tag is unrecognised, or the duplicated revision
// fields disagree (invariant 8). Any bytes after the encoded record
// (notably the raw bitmap that follows it on disk, see DecodeWithBitmap)
// are ignored.
func Decode(data []byte) (Record, error) {
	rec, _, err := decode(data)
	return rec, err
}

// DecodeWithBitmap decodes the fixed record prefix of data and returns the
// BitmapSize bytes immediately following it — the raw committed bitmap,
// which travels inside the base file rather than as a separate field
// (SPEC_FULL.md §12).
func DecodeWithBitmap(data []byte) (Record, []byte, error) {
	rec, n, err := decode(data)
	if err != nil {
		return Record{}, nil, err
	}
	end := n + int(rec.BitmapSize)
	if end > len(data) {
		return Record{}, nil, errors.Mark(errors.Newf("quartz: base file too short for bitmap (%d of %d bytes)", len(data)-n, rec.BitmapSize), ErrCorrupt)
	}
	return rec, data[n:end], nil
}

// EncodeWithBitmap encodes rec followed by the raw bitmap bytes, ready to
// be written verbatim as a base file.
func EncodeWithBitmap(rec Record, bitmapBytes []byte) []byte {
	rec.BitmapSize = uint64(len(bitmapBytes))
	buf := Encode(rec)
	return append(buf, bitmapBytes...)
}

func decode(data []byte) (Record, int, error) {
	r := bytes.NewReader(data)
	var rec Record
	var err error
	if rec.Revision, err = readVarint(r); err != nil {
		return Record{}, 0, err
	}
	if rec.Format, err = readVarint(r); err != nil {
		return Record{}, 0, err
	}
	if rec.Format != Format {
		return Record{}, 0, errors.Mark(errors.Newf("quartz: unrecognised base format %d", rec.Format), ErrCorrupt)
	}
	if rec.BlockSize, err = readVarint(r); err != nil {
		return Record{}, 0, err
	}
	if rec.Root, err = readVarint(r); err != nil {
		return Record{}, 0, err
	}
	if rec.Level, err = readVarint(r); err != nil {
		return Record{}, 0, err
	}
	if rec.BitmapSize, err = readVarint(r); err != nil {
		return Record{}, 0, err
	}
	if rec.ItemCount, err = readVarint(r); err != nil {
		return Record{}, 0, err
	}
	if rec.LastBlock, err = readVarint(r); err != nil {
		return Record{}, 0, err
	}
	if rec.HaveFakeRoot, err = readBool(r); err != nil {
		return Record{}, 0, err
	}
	if rec.Sequential, err = readBool(r); err != nil {
		return Record{}, 0, err
	}
	again, err := readVarint(r)
	if err != nil {
		return Record{}, 0, err
	}
	if again != rec.Revision {
		return Record{}, 0, errors.Mark(errors.Newf("quartz: base record revision mismatch (%d vs %d)", rec.Revision, again), ErrCorrupt)
	}
	return rec, len(data) - r.Len(), nil
}
