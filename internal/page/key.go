// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package page

import "bytes"

// CompareKeys implements the strict bytewise collation of §4.E: compare the
// common-prefix bytes, then length; keys of equal length and equal bytes
// (i.e. the same logical item, differing only by component) are ordered by
// their trailing 2-byte component counter.
func CompareKeys(aKey []byte, aComponent uint16, bKey []byte, bComponent uint16) int {
	if c := bytes.Compare(aKey, bKey); c != 0 {
		return c
	}
	switch {
	case aComponent < bComponent:
		return -1
	case aComponent > bComponent:
		return 1
	default:
		return 0
	}
}

// CompareItemKey compares the logical key (user bytes + component) of two
// items.
func CompareItemKey(a, b Item) int {
	return CompareKeys(a.Key(), a.Component(), b.Key(), b.Component())
}

// CompareItemToKey compares an item's logical key against a bare search key
// and explicit component counter.
func CompareItemToKey(it Item, key []byte, component uint16) int {
	return CompareKeys(it.Key(), it.Component(), key, component)
}
