// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import "github.com/gogpu/ntt/nir"

// Property is a program-wide setting such as a geometry shader's output
// primitive.
type Property struct {
	Name  PropertyName
	Value uint32
}

// Declaration declares a range of registers in one file.
type Declaration struct {
	File        File
	First, Last int32
	UsageMask   uint8

	HasSemantic   bool
	Semantic      Semantic
	SemanticIndex uint32

	HasInterp   bool
	Interpolate Interpolate
	Location    InterpLocation

	// HasDimension marks a two-dimensional declaration; Dimension selects
	// the constant buffer or atomic buffer.
	HasDimension bool
	Dimension    uint32

	ArrayID uint32

	// Streams holds a 2-bit geometry stream index per output component.
	Streams uint8

	// Sampler views and images.
	Texture    TextureTarget
	ReturnType [4]ReturnType
	Format     nir.ImageFormat
	Writable   bool
	Raw        bool

	// Buffers.
	Atomic bool

	// Memory.
	MemoryType MemoryType
}

// Immediate is a literal vector of up to four 32-bit values addressed as
// IMM[i].
type Immediate struct {
	Type          ImmType
	NumComponents uint8
	Values        [4]uint32
}

// TexOffset is a constant texel offset read from a register.
type TexOffset struct {
	File     File
	Index    int32
	SwizzleX uint8
	SwizzleY uint8
	SwizzleZ uint8
}

// TexInfo is the extra data of a texture instruction.
type TexInfo struct {
	Target     TextureTarget
	ReturnType ReturnType
	Offsets    []TexOffset
}

// MemInfo is the extra data of a memory instruction.
type MemInfo struct {
	Qualifier MemoryQualifier
	Texture   TextureTarget
	Format    nir.ImageFormat
}

// Instruction is a single Target ISA instruction.
type Instruction struct {
	Opcode Opcode
	Dst    []Dst
	Src    []Src

	// HasLabel marks a branch; Label is the instruction number of its
	// target.
	HasLabel bool
	Label    uint32

	Texture *TexInfo
	Memory  *MemInfo
}

// Saturate reports whether the instruction clamps its results.
func (in *Instruction) Saturate() bool {
	return len(in.Dst) > 0 && in.Dst[0].Saturate
}

// Program is an assembled Target ISA program.
type Program struct {
	Processor    Processor
	Properties   []Property
	Declarations []Declaration
	Immediates   []Immediate
	Instructions []Instruction
}

// NumTemps returns the number of temporary registers declared.
func (p *Program) NumTemps() int {
	n := 0
	for _, d := range p.Declarations {
		if d.File == FileTemporary {
			n += int(d.Last-d.First) + 1
		}
	}
	return n
}

// Count returns how many instructions use op.
func (p *Program) Count(op Opcode) int {
	n := 0
	for i := range p.Instructions {
		if p.Instructions[i].Opcode == op {
			n++
		}
	}
	return n
}

// Property returns the value of a property and whether it is set.
func (p *Program) Property(name PropertyName) (uint32, bool) {
	for _, prop := range p.Properties {
		if prop.Name == name {
			return prop.Value, true
		}
	}
	return 0, false
}
