// Copyright 2025 The Quartz Authors. All rights reserved. Use of this source
// code is governed by a BSD-style license that can be found in the LICENSE
// file.

package page

// Item is a read-only view of one directory-addressed record, anchored at
// its starting offset within a block's buffer.
//
//	[ I:2 | K:1 | key_bytes | component:2 | tag_bytes ]      (leaf)
//	[ I:2 | K:1 | key_bytes | component:2 | C:2 | chunk ]    (leaf, with count)
//	[ I:2 | K:1 | key_bytes | component:2 | ... | child:4 ]  (internal)
type Item struct {
	buf []byte
	off int
}

// ItemAt returns the item whose data begins at off within buf.
func ItemAt(buf []byte, off int) Item {
	return Item{buf: buf, off: off}
}

// Len returns the total item length, the I field.
func (it Item) Len() int { return int(uint16At(it.buf, it.off)) }

// End returns the offset one past the end of the item.
func (it Item) End() int { return it.off + it.Len() }

// KField returns the raw K byte (user-key length plus the 2-byte component
// counter).
func (it Item) KField() int { return int(uint8At(it.buf, it.off+2)) }

// KeyLen returns the length of the user-key bytes, excluding the trailing
// component counter.
func (it Item) KeyLen() int { return it.KField() - C2 }

// Key returns the user-key bytes (excluding the component counter).
func (it Item) Key() []byte {
	start := it.off + 2 + K1
	return it.buf[start : start+it.KeyLen()]
}

// Component returns the 2-byte component counter trailing the key.
func (it Item) Component() uint16 {
	off := it.off + 2 + K1 + it.KeyLen()
	return uint16At(it.buf, off)
}

// tagDataOffset returns cd: the offset (absolute within buf) at which the
// leaf tag chunk begins, immediately after the components-count field.
func (it Item) tagDataOffset() int {
	return it.off + 2 + K1 + it.KeyLen() + C2 + C2
}

// Components returns the leaf-only components-count field (C).
func (it Item) Components() uint16 {
	off := it.off + 2 + K1 + it.KeyLen() + C2
	return uint16At(it.buf, off)
}

// TagChunk returns the leaf tag-chunk bytes.
func (it Item) TagChunk() []byte {
	return it.buf[it.tagDataOffset():it.End()]
}

// ChildBlock returns the internal-node child block number, the last 4 bytes
// of the item.
func (it Item) ChildBlock() uint32 {
	return uint32At(it.buf, it.End()-BytesPerBlockNumber)
}

// CD returns the offset (within the item, not absolute) at which a leaf's
// tag bytes begin, for a key of length keyLen: cd = keyLen + K1 + I2 + 2*C2.
func CD(keyLen int) int {
	return keyLen + K1 + I2 + 2*C2
}

// LeafItemSize returns the total item size (I) for a leaf item holding a
// key of keyLen bytes and a tag chunk of chunkLen bytes.
func LeafItemSize(keyLen, chunkLen int) int {
	return CD(keyLen) + chunkLen
}

// InternalItemSize returns the total item size (I) for an internal item
// holding a key of keyLen bytes (internal items have no components-count
// field; their payload is a 4-byte child pointer directly after the
// component counter).
func InternalItemSize(keyLen int) int {
	return 2 + K1 + keyLen + C2 + BytesPerBlockNumber
}

// Builder assembles a new item into a scratch buffer.
type Builder struct {
	buf []byte
}

// NewBuilder returns a Builder writing into buf (which must be large enough
// for the item being formed).
func NewBuilder(buf []byte) *Builder { return &Builder{buf: buf} }

// FormKey lays down [I][K][key_bytes][c=1] and returns the offset at which
// the caller should continue writing the tag/child payload (i.e. cd).
// Per §4.E form_key, the new item always starts life as component 1.
func (bld *Builder) FormKey(key []byte) int {
	keyLen := len(key)
	putUint8(bld.buf, 2, uint8(keyLen+C2))
	copy(bld.buf[2+K1:2+K1+keyLen], key)
	putUint16(bld.buf, 2+K1+keyLen, 1)
	return CD(keyLen)
}

// SetComponentOf overwrites the component counter of an in-progress item
// whose key length is keyLen.
func (bld *Builder) SetComponentOf(keyLen int, c uint16) {
	putUint16(bld.buf, 2+K1+keyLen, c)
}

// SetComponentsOf overwrites the components-count field (leaf only).
func (bld *Builder) SetComponentsOf(keyLen int, m uint16) {
	putUint16(bld.buf, 2+K1+keyLen+C2, m)
}

// SetTag writes the tag chunk bytes at the leaf payload offset and finalises
// I.
func (bld *Builder) SetTag(keyLen int, chunk []byte) []byte {
	cd := CD(keyLen)
	copy(bld.buf[cd:cd+len(chunk)], chunk)
	total := cd + len(chunk)
	putUint16(bld.buf, 0, uint16(total))
	return bld.buf[:total]
}

// SetKeyAndBlock builds a complete internal item: [I][K][key][c=0][child:4].
// The separator key may be truncated by the caller (truncateLen) to the
// shortest prefix that still separates the two subtrees; only truncateLen
// bytes of key are copied.
func (bld *Builder) SetKeyAndBlock(key []byte, truncateLen int, child uint32) []byte {
	if truncateLen < len(key) {
		key = key[:truncateLen]
	}
	keyLen := len(key)
	putUint8(bld.buf, 2, uint8(keyLen+C2))
	copy(bld.buf[2+K1:2+K1+keyLen], key)
	putUint16(bld.buf, 2+K1+keyLen, 0)
	total := InternalItemSize(keyLen)
	putUint32(bld.buf, total-BytesPerBlockNumber, child)
	putUint16(bld.buf, 0, uint16(total))
	return bld.buf[:total]
}

// FormNullKey builds the dummy, zero-length-key first item of an internal
// block, pointing at child.
func (bld *Builder) FormNullKey(child uint32) []byte {
	return bld.SetKeyAndBlock(nil, 0, child)
}
