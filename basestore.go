// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package quartz

import (
	"os"

	"github.com/cockroachdb/errors"

	"github.com/quartzdb/quartz/internal/basefile"
	"github.com/quartzdb/quartz/internal/errs"
)

// baseStore names and persists the two alternating base files of spec §6:
// "<prefix>DB" for data, "<prefix>baseA"/"<prefix>baseB" for the base
// records. It is the only piece of quartz that knows about OS file naming;
// internal/btreecore and internal/blockio are oblivious to it.
type baseStore struct {
	prefix string
}

func newBaseStore(prefix string) *baseStore { return &baseStore{prefix: prefix} }

func (s *baseStore) dataPath() string { return s.prefix + "DB" }

func (s *baseStore) basePath(letter byte) string {
	if letter == 'A' {
		return s.prefix + "baseA"
	}
	return s.prefix + "baseB"
}

// readBase reads and decodes the base file for letter, returning the
// record and the raw committed-bitmap bytes embedded after it.
func (s *baseStore) readBase(letter byte) (basefile.Record, []byte, error) {
	data, err := os.ReadFile(s.basePath(letter))
	if err != nil {
		return basefile.Record{}, nil, errors.Mark(errors.Wrapf(err, "quartz: read base %c", letter), errs.Opening)
	}
	rec, bitmap, err := basefile.DecodeWithBitmap(data)
	if err != nil {
		return basefile.Record{}, nil, err
	}
	return rec, bitmap, nil
}

// writeBase atomically (write-temp, fsync, rename) persists rec and
// bitmapBytes as the base file for letter. The fsync before rename matters
// exactly as much as §4.A's Fdatasync on data blocks: without it, a crash
// right after the rename can leave a base file pointing at content the
// filesystem never actually persisted.
func (s *baseStore) writeBase(letter byte, rec basefile.Record, bitmapBytes []byte) error {
	data := basefile.EncodeWithBitmap(rec, bitmapBytes)
	path := s.basePath(letter)
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "quartz: write base %c", letter), errs.IO)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Mark(errors.Wrapf(err, "quartz: write base %c", letter), errs.IO)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Mark(errors.Wrapf(err, "quartz: sync base %c", letter), errs.IO)
	}
	if err := f.Close(); err != nil {
		return errors.Mark(errors.Wrapf(err, "quartz: close base %c", letter), errs.IO)
	}

	if err := os.Rename(tmp, path); err != nil {
		return errors.Mark(errors.Wrapf(err, "quartz: install base %c", letter), errs.IO)
	}
	return nil
}

// deleteBase removes the base file for letter, per spec §5's requirement
// that the previously-inactive base be deleted before any data block of
// the new transaction is written.
func (s *baseStore) deleteBase(letter byte) error {
	err := os.Remove(s.basePath(letter))
	if err != nil && !os.IsNotExist(err) {
		return errors.Mark(errors.Wrapf(err, "quartz: delete base %c", letter), errs.IO)
	}
	return nil
}

// baseCandidate is one base file's decoded content, as seen by readBoth.
type baseCandidate struct {
	rec    basefile.Record
	bitmap []byte
}

// readBoth reads whichever of baseA/baseB are present and valid, returning
// them keyed by letter. A base file that does not exist is simply omitted;
// one that exists but fails to decode is also omitted (it is corrupt, but
// the other base may still be valid, per §6's "valid one is used").
func (s *baseStore) readBoth() map[byte]baseCandidate {
	out := make(map[byte]baseCandidate)
	for _, letter := range []byte{'A', 'B'} {
		if _, err := os.Stat(s.basePath(letter)); err != nil {
			continue
		}
		rec, bitmap, err := s.readBase(letter)
		if err != nil {
			continue
		}
		out[letter] = baseCandidate{rec, bitmap}
	}
	return out
}
