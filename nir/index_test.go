// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_NormalizesIf(t *testing.T) {
	b := NewBuilder(NewShader(StageFragment))
	cond := b.Imm32(1)
	nif := b.If(SSASrc(cond), nil, nil)
	f := b.Finish().Entry
	pre := f.Body[0].(*Block)

	require.Len(t, f.Body, 3)
	require.IsType(t, &Block{}, f.Body[2], "list does not end with a block")
	require.Len(t, nif.Then, 1, "empty branches hold one block each")
	require.Len(t, nif.Else, 1, "empty branches hold one block each")
	require.Len(t, f.Blocks(), 4)

	assert.Same(t, nif, pre.FollowingIf())
	succ := pre.Successors()
	require.Len(t, succ, 2)
	assert.Same(t, nif.Then[0], succ[0])
	assert.Same(t, nif.Else[0], succ[1])

	join := f.Body[2].(*Block)
	for _, br := range []*Block{nif.Then[0].(*Block), nif.Else[0].(*Block)} {
		got := br.Successors()
		if assert.Len(t, got, 1, "b%d", br.Index) {
			assert.Same(t, join, got[0], "branch block b%d does not fall through to the join block", br.Index)
		}
	}
	require.Len(t, cond.IfUses, 1)
	assert.Same(t, nif, cond.IfUses[0])
	assert.Same(t, nif, nif.Condition.ParentIf())
}

func TestIndex_Numbering(t *testing.T) {
	b := NewBuilder(NewShader(StageVertex))
	x := b.ImmFloat(1, 2, 3, 4)
	y := b.Alu(OpFadd, x, x)
	b.StoreOutput(y, 0, SlotPos)
	f := b.Finish().Entry

	blk := f.Blocks()[0]
	assert.Equal(t, 0, blk.StartIP)
	for i, in := range blk.Instrs {
		assert.Equal(t, i+1, in.Index(), "instr %d", i)
		assert.Same(t, blk, in.Block(), "instr %d", i)
	}
	assert.Equal(t, len(blk.Instrs)+1, blk.EndIP)
	assert.Equal(t, blk.EndIP+1, f.MaxIP())
	assert.Len(t, x.Uses, 2)
	require.Len(t, y.Uses, 1)
	assert.Same(t, blk.Instrs[3], y.Uses[0].ParentInstr(), "y use not attached to the store")
}

func TestIndex_LoopSuccessors(t *testing.T) {
	b := NewBuilder(NewShader(StageCompute))
	loop := b.Loop(func() {
		b.Imm32(1)
		b.Break()
	})
	f := b.Finish().Entry

	body := loop.Body[0].(*Block)
	exit := f.Body[2].(*Block)
	got := body.Successors()
	require.Len(t, got, 1)
	assert.Same(t, exit, got[0], "break block should branch to the loop exit")

	entry := f.Body[0].(*Block)
	got = entry.Successors()
	require.Len(t, got, 1)
	assert.Same(t, body, got[0], "block before the loop should enter the body")
}

func TestBitset(t *testing.T) {
	a := NewBitset(130)
	a.Set(0)
	a.Set(65)
	a.Set(129)
	require.True(t, a.Test(65))
	require.False(t, a.Test(64))
	require.False(t, a.Test(1000))
	assert.Equal(t, 3, a.Count())

	var got []uint32
	a.ForEach(func(i uint32) { got = append(got, i) })
	assert.Equal(t, []uint32{0, 65, 129}, got)

	o := NewBitset(130)
	o.Set(3)
	assert.True(t, o.UnionWith(a), "first union changes the set")
	assert.False(t, o.UnionWith(a), "second union changes nothing")

	a.Set(3)
	assert.True(t, a.Equal(o))
	a.Clear(3)
	assert.False(t, a.Test(3))
}
