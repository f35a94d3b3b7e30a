// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package btreecore

import (
	"github.com/cockroachdb/errors"

	"github.com/quartzdb/quartz/internal/errs"
)

// FindTag reconstructs the full tag stored for key by concatenating its
// component chunks in order, crossing block boundaries if the long-tag
// encoding spread them across more than one leaf. found is false if key is
// absent.
func (t *Tree) FindTag(key []byte) (tag []byte, found bool, err error) {
	p, slot, exact, err := t.locate(key, 1)
	if err != nil {
		return nil, false, err
	}
	if !exact {
		return nil, false, nil
	}

	leafIdx := len(p.decoded) - 1
	leaf := p.decoded[leafIdx]
	e := leaf.entries[slot]
	n := e.Components
	if n == 0 {
		n = 1
	}

	buf := append([]byte(nil), e.Tag...)
	cur := slot
	for c := uint16(2); c <= n; c++ {
		cur++
		if cur >= len(leaf.entries) {
			ok, err := t.stepLeaf(&p, true)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				return nil, false, errors.Mark(errors.Newf("quartz: key is missing component %d of %d", c, n), errs.Corrupt)
			}
			leaf = p.decoded[leafIdx]
			cur = 0
		}
		buf = append(buf, leaf.entries[cur].Tag...)
	}
	return buf, true, nil
}
