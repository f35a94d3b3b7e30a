// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package btreecore

// insertEntry returns entries with e inserted at position i.
func insertEntry(entries []Entry, i int, e Entry) []Entry {
	entries = append(entries, Entry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = e
	return entries
}

// removeEntry returns entries with the element at position i removed.
func removeEntry(entries []Entry, i int) []Entry {
	return append(entries[:i], entries[i+1:]...)
}

// commonPrefixLen returns the length of the longest common prefix of a and
// b.
func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// chunkTag splits tag into the greedy sequence of chunks the long-tag
// encoding uses: the first chunk is up to firstL bytes, every subsequent
// chunk is up to L bytes. A zero-length tag still yields exactly one
// (empty) chunk, so it remains distinguishable from absence (spec §8).
func chunkTag(tag []byte, firstL, L int) [][]byte {
	if len(tag) == 0 {
		return [][]byte{{}}
	}
	var chunks [][]byte
	first := firstL
	if first > len(tag) {
		first = len(tag)
	}
	if first < 0 {
		first = 0
	}
	chunks = append(chunks, tag[:first])
	rest := tag[first:]
	for len(rest) > 0 {
		n := L
		if n > len(rest) {
			n = len(rest)
		}
		chunks = append(chunks, rest[:n])
		rest = rest[n:]
	}
	return chunks
}
