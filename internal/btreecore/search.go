// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package btreecore

import (
	"bytes"

	"github.com/quartzdb/quartz/internal/page"
)

// findChild returns the slot of the greatest key <= target among an
// internal block's entries, ignoring the component field entirely: the
// first item of every internal block is a dummy, zero-length separator
// (invariant 1), and subsequent separators are plain key prefixes rather
// than component-bearing logical keys.
func findChild(entries []Entry, target []byte) int {
	lo, hi := 0, len(entries)-1
	result := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if bytes.Compare(entries[mid].Key, target) <= 0 {
			result = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return result
}

// findInBlock performs the binary chop over entries described in spec §4.F,
// returning the slot of the greatest key <= (key, component), or -1 if no
// such slot exists (search key is less than every entry). exact reports
// whether entries[slot] compares equal to (key, component).
//
// cHint, when >= 0, is tried (and cHint+1) before falling back to a full
// binary search, exploiting the sequential-access locality the spec calls
// out: a run of appends tends to repeatedly search near the same slot.
func findInBlock(entries []Entry, key []byte, component uint16, cHint int) (slot int, exact bool) {
	if len(entries) == 0 {
		return -1, false
	}
	if cHint >= 0 && cHint < len(entries) {
		if c := compareEntryToKey(entries[cHint], key, component); c == 0 {
			return cHint, true
		} else if c < 0 && (cHint+1 >= len(entries) || compareEntryToKey(entries[cHint+1], key, component) > 0) {
			return cHint, false
		}
	}

	lo, hi := 0, len(entries)-1
	result := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		c := compareEntryToKey(entries[mid], key, component)
		switch {
		case c == 0:
			return mid, true
		case c < 0:
			result = mid
			lo = mid + 1
		default:
			hi = mid - 1
		}
	}
	return result, false
}

func compareEntryToKey(e Entry, key []byte, component uint16) int {
	return page.CompareKeys(e.Key, e.Component, key, component)
}
