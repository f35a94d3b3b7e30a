// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package btreecore

// path is the root-to-leaf spine visited by a search, insertion or
// deletion: path.blocks[0] is the root, path.blocks[height] is the leaf.
// childIdx[i] is the slot in decoded[i] whose child pointer was followed
// to reach blocks[i+1] (undefined for the leaf).
type path struct {
	blocks   []uint32
	decoded  []*decodedBlock
	childIdx []int
}

// locate descends from the root searching for (key, component), recording
// the full root-to-leaf path. leafSlot/leafExact are the result of the
// leaf-level search (§4.F find_in_block).
func (t *Tree) locate(key []byte, component uint16) (p path, leafSlot int, leafExact bool, err error) {
	p.blocks = make([]uint32, int(t.level)+1)
	p.decoded = make([]*decodedBlock, int(t.level)+1)
	p.childIdx = make([]int, int(t.level))

	n := t.root
	for lvl := int(t.level); lvl >= 0; lvl-- {
		db, err := t.readBlock(n)
		if err != nil {
			return path{}, 0, false, err
		}
		p.blocks[int(t.level)-lvl] = n
		p.decoded[int(t.level)-lvl] = db
		if lvl == 0 {
			leafSlot, leafExact = findInBlock(db.entries, key, component, -1)
			break
		}
		slot := findChild(db.entries, key)
		p.childIdx[int(t.level)-lvl] = slot
		n = db.entries[slot].Child
	}
	return p, leafSlot, leafExact, nil
}

// alter performs the copy-on-write walk of spec §4.F "alter()": starting at
// the leaf and working up to the root, it claims each block on the path for
// this transaction, copying it to a freshly allocated block number unless
// it was already free at the start of the transaction, and patches parent
// pointers (or t.root) accordingly. It returns the (possibly renumbered)
// path.
//
// The root position of a tree that has never been written (fakeRoot) is a
// special case: its decoded content is the in-memory emptyRoot() stand-in,
// not a block that was ever allocated, so claiming it has to allocate a
// real block number (setting the bitmap's working bit) rather than just
// reusing the placeholder number in place.
func (t *Tree) alter(p path) (path, error) {
	for i := len(p.blocks) - 1; i >= 0; i-- {
		n := p.blocks[i]
		if _, already := t.dirty[n]; already {
			break
		}
		if i == 0 && t.fakeRoot {
			newNum := uint32(t.bm.NextFreeBlock())
			p.decoded[i].revision = uint32(t.revision) + 1
			t.markDirty(newNum, p.decoded[i])
			p.blocks[i] = newNum
			t.root = newNum
			t.fakeRoot = false
			break
		}
		if t.bm.BlockFreeAtStart(int(n)) {
			t.markDirty(n, p.decoded[i])
			break
		}
		t.bm.FreeBlock(int(n))
		t.invalidateCache(n)
		newNum := uint32(t.bm.NextFreeBlock())
		p.decoded[i].revision = uint32(t.revision) + 1
		t.markDirty(newNum, p.decoded[i])
		p.blocks[i] = newNum

		if i == 0 {
			t.root = newNum
			break
		}
		parent := p.decoded[i-1]
		parent.entries[p.childIdx[i-1]].Child = newNum
	}
	return p, nil
}

// stepLeaf moves p's leaf position to the next (forward) or previous
// (!forward) leaf block in key order, by walking up to the nearest
// ancestor with an unvisited sibling and back down its extreme child at
// each level. It reports false if no such leaf exists (the walk has run
// off the corresponding end of the tree).
func (t *Tree) stepLeaf(p *path, forward bool) (bool, error) {
	height := len(p.blocks) - 1
	for lvl := height - 1; lvl >= 0; lvl-- {
		parent := p.decoded[lvl]
		next := p.childIdx[lvl]
		if forward {
			next++
		} else {
			next--
		}
		if next < 0 || next >= len(parent.entries) {
			continue
		}
		p.childIdx[lvl] = next
		n := parent.entries[next].Child
		for d := lvl + 1; d <= height; d++ {
			db, err := t.readBlock(n)
			if err != nil {
				return false, err
			}
			p.blocks[d] = n
			p.decoded[d] = db
			if d < height {
				childSlot := 0
				if !forward {
					childSlot = len(db.entries) - 1
				}
				p.childIdx[d] = childSlot
				n = db.entries[childSlot].Child
			}
		}
		return true, nil
	}
	return false, nil
}
