// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nir

// LiveRange bounds the instruction indices at which an SSA value is live.
// End is the index of the last read; a value never read ends where it is
// defined. Values read by an if condition, or live out of a block, extend
// to that block's EndIP.
type LiveRange struct {
	Start int
	End   int
}

// Liveness holds per-value live ranges for one function.
type Liveness struct {
	Defs []LiveRange
}

// ComputeLiveness runs backward dataflow over the function's blocks,
// filling Block.LiveIn and Block.LiveOut, and returns per-value ranges.
// The function must have been indexed.
func ComputeLiveness(f *Function) *Liveness {
	n := int(f.SSACount)
	blocks := f.blocks
	for _, b := range blocks {
		b.LiveIn = NewBitset(n)
		b.LiveOut = NewBitset(n)
	}

	scratch := NewBitset(n)
	for changed := true; changed; {
		changed = false
		for i := len(blocks) - 1; i >= 0; i-- {
			b := blocks[i]
			for _, s := range b.successors {
				if b.LiveOut.UnionWith(s.LiveIn) {
					changed = true
				}
			}
			copy(scratch, b.LiveOut)
			if nif := b.following; nif != nil && nif.Condition.SSA != nil {
				scratch.Set(nif.Condition.SSA.Index)
			}
			for j := len(b.Instrs) - 1; j >= 0; j-- {
				in := b.Instrs[j]
				if d := DefOf(in); d != nil {
					scratch.Clear(d.Index)
				}
				ForEachSrc(in, func(s *Src) bool {
					if s.SSA != nil {
						scratch.Set(s.SSA.Index)
					}
					return true
				})
			}
			if !scratch.Equal(b.LiveIn) {
				copy(b.LiveIn, scratch)
				changed = true
			}
		}
	}

	l := &Liveness{Defs: make([]LiveRange, n)}
	for i := range l.Defs {
		l.Defs[i] = LiveRange{Start: f.maxIP, End: -1}
	}
	extend := func(idx uint32, ip int) {
		r := &l.Defs[idx]
		r.Start = min(r.Start, ip)
		r.End = max(r.End, ip)
	}

	for _, b := range blocks {
		b.LiveIn.ForEach(func(idx uint32) { extend(idx, b.StartIP) })
		for _, in := range b.Instrs {
			if d := DefOf(in); d != nil {
				extend(d.Index, in.Index())
			}
			ForEachSrc(in, func(s *Src) bool {
				if s.SSA != nil {
					extend(s.SSA.Index, in.Index())
				}
				return true
			})
		}
		if nif := b.following; nif != nil && nif.Condition.SSA != nil {
			extend(nif.Condition.SSA.Index, b.EndIP)
		}
		b.LiveOut.ForEach(func(idx uint32) { extend(idx, b.EndIP) })
	}
	return l
}

// MaxLive returns the largest number of SSA values live at any single
// index inside b, counting a value at both its definition and last read.
func (l *Liveness) MaxLive(b *Block) int {
	best := 0
	for ip := b.StartIP; ip <= b.EndIP; ip++ {
		live := 0
		for _, r := range l.Defs {
			if r.Start <= ip && ip <= r.End {
				live++
			}
		}
		best = max(best, live)
	}
	return best
}
