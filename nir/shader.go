// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nir

import "slices"

// Primitive is a primitive topology, numbered like the gallium
// PIPE_PRIM_* values.
type Primitive uint8

const (
	PrimPoints                 Primitive = 0
	PrimLines                  Primitive = 1
	PrimLineStrip              Primitive = 3
	PrimTriangles              Primitive = 4
	PrimTriangleStrip          Primitive = 5
	PrimQuads                  Primitive = 7
	PrimLinesAdjacency         Primitive = 10
	PrimLineStripAdjacency     Primitive = 11
	PrimTrianglesAdjacency     Primitive = 12
	PrimTriangleStripAdjacency Primitive = 13
)

// TessSpacing is the tessellator spacing mode.
type TessSpacing uint8

const (
	SpacingUnspecified TessSpacing = iota
	SpacingEqual
	SpacingFractionalOdd
	SpacingFractionalEven
)

// ShaderInfo carries stage-specific metadata.
type ShaderInfo struct {
	Stage Stage

	NumSSBOs int
	NumABOs  int
	// FirstUBOIsDefaultUBO marks constant buffer 0 as the lowered default
	// uniform block, which does not take part in UBO array indexing.
	FirstUBOIsDefaultUBO bool

	// Vertex.
	WindowSpacePosition bool

	// Fragment.
	OriginUpperLeft    bool
	PixelCenterInteger bool
	EarlyFragmentTests bool

	// Geometry.
	InputPrimitive  Primitive
	OutputPrimitive Primitive
	VerticesOut     uint32
	Invocations     uint32

	// Tessellation.
	TCSVerticesOut uint32
	TESPrimitive   Primitive
	TESSpacing     TessSpacing
	TESCCW         bool
	TESPointMode   bool

	// Compute.
	WorkgroupSize         [3]uint16
	WorkgroupSizeVariable bool
	SharedSize            uint32
}

// Shader is a single-stage shader.
type Shader struct {
	Name      string
	Info      ShaderInfo
	Variables []*Variable
	Entry     *Function
}

// NewShader returns an empty shader for the given stage with an empty
// entry function named "main".
func NewShader(stage Stage) *Shader {
	return &Shader{
		Info:  ShaderInfo{Stage: stage},
		Entry: &Function{Name: "main"},
	}
}

// AddVariable appends a variable to the shader.
func (s *Shader) AddVariable(v *Variable) *Variable {
	s.Variables = append(s.Variables, v)
	return v
}

// VariablesWithMode returns the variables of a mode in declaration order.
func (s *Shader) VariablesWithMode(mode Mode) []*Variable {
	var out []*Variable
	for _, v := range s.Variables {
		if v.Mode == mode {
			out = append(out, v)
		}
	}
	return out
}

// Function is the shader entry function.
type Function struct {
	Name      string
	Registers []*Register
	Body      []CFNode

	// SSACount is one past the highest SSA index in use.
	SSACount uint32
	RegCount uint32

	blocks []*Block
	maxIP  int
}

// NewDef allocates a fresh SSA definition.
func (f *Function) NewDef(numComponents, bitSize uint8) *Def {
	d := &Def{Index: f.SSACount, NumComponents: numComponents, BitSize: bitSize}
	f.SSACount++
	return d
}

// NewRegister allocates a fresh register.
func (f *Function) NewRegister(numComponents, bitSize uint8, arrayElems uint32) *Register {
	r := &Register{Index: f.RegCount, NumComponents: numComponents, BitSize: bitSize, NumArrayElems: arrayElems}
	f.RegCount++
	f.Registers = append(f.Registers, r)
	return r
}

// Blocks returns the blocks in program order. Valid after Index.
func (f *Function) Blocks() []*Block { return f.blocks }

// CFNode is a node of the structured control-flow tree.
type CFNode interface {
	cfNode()
}

// Block is a basic block.
type Block struct {
	Index  int
	Instrs []Instr

	// StartIP and EndIP bracket the block's instruction indices.
	StartIP int
	EndIP   int

	// LiveIn and LiveOut are filled by ComputeLiveness.
	LiveIn  Bitset
	LiveOut Bitset

	successors []*Block
	following  *If
}

// If is a two-way structured conditional.
type If struct {
	Condition Src
	Then      []CFNode
	Else      []CFNode
}

// Loop is an infinite structured loop left through break.
type Loop struct {
	Body []CFNode
}

func (*Block) cfNode() {}
func (*If) cfNode()    {}
func (*Loop) cfNode()  {}

// FollowingIf returns the if node immediately after the block, if any.
// Valid after Function.Index.
func (b *Block) FollowingIf() *If { return b.following }

// Successors returns the control-flow successors. Valid after Index.
func (b *Block) Successors() []*Block { return b.successors }

// Append adds instructions to the block.
func (b *Block) Append(instrs ...Instr) {
	for _, in := range instrs {
		in.base().block = b
	}
	b.Instrs = append(b.Instrs, instrs...)
}

// IsEmptyList reports whether a CF list holds nothing but empty blocks.
func IsEmptyList(list []CFNode) bool {
	for _, n := range list {
		b, ok := n.(*Block)
		if !ok || len(b.Instrs) > 0 {
			return false
		}
	}
	return true
}

// InsertBefore places instrs in front of at, which must belong to b.
func (b *Block) InsertBefore(at Instr, instrs ...Instr) {
	b.insert(at, 0, instrs)
}

// InsertAfter places instrs right behind at, which must belong to b.
func (b *Block) InsertAfter(at Instr, instrs ...Instr) {
	b.insert(at, 1, instrs)
}

func (b *Block) insert(at Instr, off int, instrs []Instr) {
	i := slices.Index(b.Instrs, at)
	if i < 0 {
		panic("nir: insertion point is not in the block")
	}
	for _, in := range instrs {
		in.base().block = b
		if d := DefOf(in); d != nil {
			d.parent = in
		}
	}
	b.Instrs = slices.Insert(b.Instrs, i+off, instrs...)
}
