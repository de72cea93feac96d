// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nir

import "math/bits"

// Bitset is a fixed-size set of SSA indices.
type Bitset []uint64

// NewBitset returns a set able to hold indices below n.
func NewBitset(n int) Bitset { return make(Bitset, (n+63)/64) }

// Set adds i to the set.
func (b Bitset) Set(i uint32) { b[i/64] |= 1 << (i % 64) }

// Clear removes i from the set.
func (b Bitset) Clear(i uint32) { b[i/64] &^= 1 << (i % 64) }

// Test reports whether i is in the set.
func (b Bitset) Test(i uint32) bool {
	if int(i/64) >= len(b) {
		return false
	}
	return b[i/64]&(1<<(i%64)) != 0
}

// UnionWith adds every member of o and reports whether b changed.
func (b Bitset) UnionWith(o Bitset) bool {
	changed := false
	for i := range b {
		n := b[i] | o[i]
		if n != b[i] {
			b[i] = n
			changed = true
		}
	}
	return changed
}

// Equal reports whether both sets hold the same members.
func (b Bitset) Equal(o Bitset) bool {
	for i := range b {
		if b[i] != o[i] {
			return false
		}
	}
	return true
}

// Count returns the number of members.
func (b Bitset) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// ForEach calls fn for every member in increasing order.
func (b Bitset) ForEach(fn func(uint32)) {
	for i, w := range b {
		for w != 0 {
			t := bits.TrailingZeros64(w)
			fn(uint32(i*64 + t))
			w &= w - 1
		}
	}
}
