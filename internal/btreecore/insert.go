// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package btreecore

import (
	"github.com/cockroachdb/errors"

	"github.com/quartzdb/quartz/internal/errs"
	"github.com/quartzdb/quartz/internal/page"
)

// Add stores (key, tag), chunking tag across as many component items as
// needed (spec §4.E form_key / long-tag chunking) and replacing any
// existing entry for key. created reports whether key was previously
// absent.
func (t *Tree) Add(key, tag []byte) (created bool, err error) {
	if len(key) == 0 {
		return false, errors.Mark(errors.New("quartz: key must be non-empty"), errs.InvalidArgument)
	}
	if len(key) > t.MaxKeyLen {
		return false, errors.Mark(errors.Newf("quartz: key length %d exceeds max_key_len %d", len(key), t.MaxKeyLen), errs.InvalidArgument)
	}

	cd := page.CD(len(key))
	L := t.MaxItemSize - cd
	if L <= 0 {
		return false, errors.Mark(errors.New("quartz: block size too small for this key length"), errs.InvalidArgument)
	}

	p, slot, exact, err := t.locate(key, 1)
	if err != nil {
		return false, err
	}
	oldN := uint16(0)
	if exact {
		oldN = p.decoded[len(p.decoded)-1].entries[slot].Components
		if oldN == 0 {
			oldN = 1
		}
	}

	firstL := L
	chunks := chunkTag(tag, firstL, L)
	m := len(chunks)
	if m >= 1<<16 {
		return false, errors.Mark(errors.Newf("quartz: tag requires %d components, more than 65535", m), errs.InvalidArgument)
	}

	for i, chunk := range chunks {
		component := uint16(i + 1)
		if err := t.addKT(key, component, uint16(m), chunk); err != nil {
			return false, err
		}
	}
	if int(oldN) > m {
		for c := uint16(m + 1); c <= oldN; c++ {
			if _, err := t.deleteKT(key, c); err != nil {
				return false, err
			}
		}
	}

	if !exact {
		t.itemCount++
	}
	return !exact, nil
}

// addKT writes a single (key, component) item, replacing it in place if it
// already exists or inserting and splitting as necessary. It is also where
// the sequential-append detector of spec §4.F is driven: a new insertion
// immediately following the previous one (same block, adjacent slot)
// advances seq_count toward zero; anything else resets it.
func (t *Tree) addKT(key []byte, component, total uint16, chunk []byte) error {
	p, slot, exact, err := t.locate(key, component)
	if err != nil {
		return err
	}
	p, err = t.alter(p)
	if err != nil {
		return err
	}
	leafIdx := len(p.decoded) - 1
	leaf := p.decoded[leafIdx]

	entry := Entry{
		Key:        append([]byte(nil), key...),
		Component:  component,
		Components: total,
		Tag:        append([]byte(nil), chunk...),
	}

	var insertedAt int
	if exact {
		leaf.entries[slot] = entry
		insertedAt = slot
	} else {
		insertedAt = slot + 1
		leaf.entries = insertEntry(leaf.entries, insertedAt, entry)

		blockNum := int64(p.blocks[leafIdx])
		if blockNum == t.changedBlock && insertedAt == t.changedSlot {
			if t.seqCount < 0 {
				t.seqCount++
			}
			t.sequential = t.seqCount >= 0
		} else {
			t.seqCount = page.SeqStartPoint
			t.sequential = false
		}
		t.changedBlock = blockNum
		t.changedSlot = insertedAt + 1
	}

	if leaf.estimateSize() <= t.BlockSize {
		return nil
	}
	if err := t.split(p, leafIdx, insertedAt); err != nil {
		return err
	}
	if !exact {
		// The split may have moved the new entry into the new upper block;
		// record where it landed so the next append still counts as
		// sequential.
		np, nslot, _, err := t.locate(key, component)
		if err != nil {
			return err
		}
		t.changedBlock = int64(np.blocks[len(np.blocks)-1])
		t.changedSlot = nslot + 1
	}
	return nil
}
