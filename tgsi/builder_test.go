// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_TemporariesReuseLowestFirst(t *testing.T) {
	b := NewBuilder(ProcessorVertex)
	t0 := b.DeclareTemporary()
	t1 := b.DeclareTemporary()
	t2 := b.DeclareTemporary()
	assert.Equal(t, []int32{0, 1, 2}, []int32{t0.Index, t1.Index, t2.Index})

	b.ReleaseTemporary(t2)
	b.ReleaseTemporary(t0)
	assert.Equal(t, int32(0), b.DeclareTemporary().Index)
	assert.Equal(t, int32(2), b.DeclareTemporary().Index)
	assert.Equal(t, int32(3), b.DeclareTemporary().Index)
	assert.Equal(t, 4, b.NumTemps())
}

func TestBuilder_ReleaseIgnoresArraysAndOtherFiles(t *testing.T) {
	b := NewBuilder(ProcessorVertex)
	arr := b.DeclareArrayTemporary(2)
	b.ReleaseTemporary(arr)
	b.ReleaseTemporary(Register(FileOutput, 0).AsDst())
	b.ReleaseTemporary(Register(FileTemporary, 7).AsDst())

	assert.Equal(t, int32(2), b.DeclareTemporary().Index)

	p := b.Finish()
	temps := findDecl(p, FileTemporary)
	require.Len(t, temps, 2)
	assert.Equal(t, uint32(1), temps[0].ArrayID)
	assert.Equal(t, int32(1), temps[0].Last)
	assert.Equal(t, uint32(0), temps[1].ArrayID)
}

func TestBuilder_TempLimit(t *testing.T) {
	b := NewBuilder(ProcessorFragment)
	b.LimitTemps(2)
	b.DeclareTemporary()
	b.DeclareTemporary()
	require.NoError(t, b.Err())
	b.DeclareTemporary()
	assert.True(t, IsUnsupported(b.Err()))
}

func TestBuilder_ImmediatesArePacked(t *testing.T) {
	b := NewBuilder(ProcessorVertex)
	a := b.ImmUint(1, 2)
	c := b.ImmUint(2, 3)
	f := b.ImmFloat(1)
	d := b.ImmUint(4, 5, 6)

	p := b.Finish()
	require.Len(t, p.Immediates, 3)
	assert.Equal(t, [4]uint32{1, 2, 3, 0}, p.Immediates[0].Values)
	assert.Equal(t, uint8(3), p.Immediates[0].NumComponents)

	assert.Equal(t, a.Index, c.Index)
	assert.Equal(t, [4]uint8{0, 1, 0, 0}, a.Swizzle)
	assert.Equal(t, [4]uint8{1, 2, 1, 1}, c.Swizzle)
	assert.Equal(t, int32(1), f.Index)
	assert.Equal(t, ImmFloat32, p.Immediates[1].Type)
	assert.Equal(t, int32(2), d.Index)
}

func TestBuilder_ImmediateWidth(t *testing.T) {
	b := NewBuilder(ProcessorVertex)
	assert.True(t, b.ImmUint().IsUndef())
	assert.True(t, IsInternal(b.Err()))
}

func TestBuilder_DeclarationsMerge(t *testing.T) {
	b := NewBuilder(ProcessorVertex)
	b.DeclareVSInput(0)
	b.DeclareVSInput(1)
	b.DeclareVSInput(3)
	b.DeclareVSInput(1)
	b.DeclareOutput(SemanticPosition, 0)
	b.DeclareOutput(SemanticPosition, 0)
	b.DeclareConstant2D(0, 3, 1)
	b.DeclareConstant2D(0, 1, 0)
	b.DeclareSampler(2)
	b.DeclareSampler(2)

	p := b.Finish()
	inputs := findDecl(p, FileInput)
	require.Len(t, inputs, 2)
	assert.Equal(t, [2]int32{0, 1}, [2]int32{inputs[0].First, inputs[0].Last})
	assert.Equal(t, [2]int32{3, 3}, [2]int32{inputs[1].First, inputs[1].Last})
	assert.Len(t, findDecl(p, FileOutput), 1)
	assert.Len(t, findDecl(p, FileSampler), 1)

	consts := findDecl(p, FileConstant)
	require.Len(t, consts, 2)
	assert.Equal(t, uint32(0), consts[0].Dimension)
	assert.Equal(t, uint32(1), consts[1].Dimension)
}

func TestBuilder_BranchFixup(t *testing.T) {
	b := NewBuilder(ProcessorFragment)
	label := b.Branch(OpUIF, b.ImmUint(1))
	b.Emit(OpKILL, Dst{})
	b.FixupLabel(label, b.InstructionNumber())
	b.Emit(OpENDIF, Dst{})
	b.Emit(OpEND, Dst{})

	p := b.Finish()
	require.Len(t, p.Instructions, 4)
	assert.True(t, p.Instructions[0].HasLabel)
	assert.Equal(t, uint32(2), p.Instructions[0].Label)
	assert.Empty(t, p.Instructions[1].Dst)
}

func TestBuilder_Properties(t *testing.T) {
	b := NewBuilder(ProcessorGeometry)
	b.SetProperty(PropGSMaxOutputVertices, 3)
	b.SetProperty(PropGSInputPrim, 4)
	b.SetProperty(PropGSMaxOutputVertices, 6)

	p := b.Finish()
	require.Len(t, p.Properties, 2)
	assert.Equal(t, PropGSInputPrim, p.Properties[0].Name)
	v, ok := p.Property(PropGSMaxOutputVertices)
	assert.True(t, ok)
	assert.Equal(t, uint32(6), v)
	_, ok = p.Property(PropTESSpacing)
	assert.False(t, ok)
}

func TestOperand_Swizzles(t *testing.T) {
	s := Register(FileTemporary, 1).Swz(SwizzleW, SwizzleZ, SwizzleY, SwizzleX)
	assert.Equal(t, [4]uint8{3, 2, 1, 0}, s.Swizzle)
	assert.Equal(t, [4]uint8{2, 2, 2, 2}, s.Scalar(SwizzleY).Swizzle)

	n := s.Neg().Neg()
	assert.False(t, n.Negate)
	a := s.Neg().Abs()
	assert.True(t, a.Absolute)
	assert.False(t, a.Negate)

	assert.Equal(t, "TEMP[1].wzyx", s.String())
	assert.Equal(t, "-|TEMP[1]|", Register(FileTemporary, 1).Abs().Neg().String())
	assert.Equal(t, "OUT[0].xz", Register(FileOutput, 0).AsDst().WithWriteMask(WriteMaskXZ).String())
}
