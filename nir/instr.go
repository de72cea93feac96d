// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nir

import "fmt"

// Def is an SSA definition.
type Def struct {
	Index         uint32
	NumComponents uint8
	BitSize       uint8

	parent Instr

	// Uses and IfUses are rebuilt by Function.Index.
	Uses   []*Src
	IfUses []*If
}

// Parent returns the instruction producing the definition.
func (d *Def) Parent() Instr { return d.parent }

// LoadConst returns the constant instruction producing d, or nil.
func (d *Def) LoadConst() *LoadConstInstr {
	lc, _ := d.parent.(*LoadConstInstr)
	return lc
}

// Register is a mutable value that survived out-of-SSA lowering.
// NumArrayElems > 0 makes it an indexable array of vectors.
type Register struct {
	Index         uint32
	NumComponents uint8
	BitSize       uint8
	NumArrayElems uint32

	Uses   []*Src
	IfUses []*If
	Defs   []*Dest
}

// Src is a value read by an instruction or an if condition. Exactly one of
// SSA and Reg is set.
type Src struct {
	SSA *Def

	Reg        *Register
	BaseOffset uint32
	Indirect   *Src

	parentInstr Instr
	parentIf    *If
}

// SSASrc returns a source reading d.
func SSASrc(d *Def) Src { return Src{SSA: d} }

// RegSrc returns a source reading r at offset zero.
func RegSrc(r *Register) Src { return Src{Reg: r} }

// IsSSA reports whether the source reads an SSA value.
func (s *Src) IsSSA() bool { return s.SSA != nil }

// ParentInstr returns the reading instruction, or nil for if conditions.
func (s *Src) ParentInstr() Instr { return s.parentInstr }

// ParentIf returns the if using the source as its condition, or nil.
func (s *Src) ParentIf() *If { return s.parentIf }

// BitSize returns the bit size of the value read.
func (s *Src) BitSize() uint8 {
	if s.SSA != nil {
		return s.SSA.BitSize
	}
	if s.Reg != nil {
		return s.Reg.BitSize
	}
	return 0
}

// NumComponents returns the vector width of the value read.
func (s *Src) NumComponents() uint8 {
	if s.SSA != nil {
		return s.SSA.NumComponents
	}
	if s.Reg != nil {
		return s.Reg.NumComponents
	}
	return 0
}

// IsConst reports whether the source is an SSA value produced by a
// load_const.
func (s *Src) IsConst() bool {
	return s.SSA != nil && s.SSA.LoadConst() != nil
}

// ConstUint returns the first component of a constant source.
func (s *Src) ConstUint() uint64 {
	lc := s.SSA.LoadConst()
	v := lc.Values[0]
	if s.SSA.BitSize == 32 {
		v &= 0xffffffff
	}
	return v
}

func (s *Src) String() string {
	switch {
	case s.SSA != nil:
		return fmt.Sprintf("%%%d", s.SSA.Index)
	case s.Reg != nil:
		str := fmt.Sprintf("r%d", s.Reg.Index)
		if s.Reg.NumArrayElems > 0 || s.BaseOffset != 0 || s.Indirect != nil {
			if s.Indirect != nil {
				str += fmt.Sprintf("[%d + %s]", s.BaseOffset, s.Indirect)
			} else {
				str += fmt.Sprintf("[%d]", s.BaseOffset)
			}
		}
		return str
	}
	return "undef"
}

// Dest is the value written by an instruction: a new SSA definition or a
// register element.
type Dest struct {
	SSA *Def

	Reg        *Register
	BaseOffset uint32
	Indirect   *Src
}

// IsSSA reports whether the destination is an SSA definition.
func (d *Dest) IsSSA() bool { return d.SSA != nil }

// BitSize returns the bit size of the value written.
func (d *Dest) BitSize() uint8 {
	if d.SSA != nil {
		return d.SSA.BitSize
	}
	return d.Reg.BitSize
}

// NumComponents returns the vector width of the value written.
func (d *Dest) NumComponents() uint8 {
	if d.SSA != nil {
		return d.SSA.NumComponents
	}
	return d.Reg.NumComponents
}

func (d *Dest) String() string {
	if d.SSA != nil {
		return fmt.Sprintf("%%%d", d.SSA.Index)
	}
	s := Src{Reg: d.Reg, BaseOffset: d.BaseOffset, Indirect: d.Indirect}
	return s.String()
}

// Instr is a Source IR instruction.
type Instr interface {
	// Index is the instruction's position in the function, assigned by
	// Function.Index.
	Index() int
	Block() *Block
	base() *instrBase
}

type instrBase struct {
	index int
	block *Block
}

func (b *instrBase) Index() int       { return b.index }
func (b *instrBase) Block() *Block    { return b.block }
func (b *instrBase) base() *instrBase { return b }

// AluSrc is an ALU operand with its swizzle and source modifiers.
type AluSrc struct {
	Src     Src
	Swizzle [4]uint8
	Abs     bool
	Negate  bool
}

// AluInstr is an arithmetic or logical operation.
type AluInstr struct {
	instrBase
	Op        Op
	Srcs      []AluSrc
	Dest      Dest
	WriteMask uint8
	Saturate  bool
}

// IntrinsicInstr is an intrinsic operation. Only the constant indices
// listed in its IntrinsicInfo.Flags are meaningful.
type IntrinsicInstr struct {
	instrBase
	Intrinsic     Intrinsic
	Srcs          []Src
	Dest          *Dest
	NumComponents uint8

	Base       int
	Component  uint8
	WriteMask  uint8
	IO         IOSemantics
	Access     Access
	ImageDim   SamplerDim
	ImageArray bool
	Format     ImageFormat
	StreamID   uint8
}

// TexOp is a texture operation.
type TexOp uint8

const (
	TexOpTex TexOp = iota
	TexOpTxb
	TexOpTxl
	TexOpTxd
	TexOpTxf
	TexOpTxfMS
	TexOpTxs
	TexOpLod
	TexOpTg4
	TexOpQueryLevels
	TexOpTextureSamples
)

var texOpNames = [...]string{
	TexOpTex:            "tex",
	TexOpTxb:            "txb",
	TexOpTxl:            "txl",
	TexOpTxd:            "txd",
	TexOpTxf:            "txf",
	TexOpTxfMS:          "txf_ms",
	TexOpTxs:            "txs",
	TexOpLod:            "lod",
	TexOpTg4:            "tg4",
	TexOpQueryLevels:    "query_levels",
	TexOpTextureSamples: "texture_samples",
}

func (op TexOp) String() string {
	if int(op) < len(texOpNames) {
		return texOpNames[op]
	}
	return fmt.Sprintf("TexOp(%d)", op)
}

// ParseTexOp parses a texture op name.
func ParseTexOp(name string) (TexOp, error) {
	for i, n := range texOpNames {
		if n == name {
			return TexOp(i), nil
		}
	}
	return 0, fmt.Errorf("unknown texture op %q", name)
}

// TexSrcType is the role of a texture instruction operand.
type TexSrcType uint8

const (
	TexSrcCoord TexSrcType = iota
	TexSrcComparator
	TexSrcBias
	TexSrcLod
	TexSrcProjector
	TexSrcMSIndex
	TexSrcDdx
	TexSrcDdy
	TexSrcOffset
	TexSrcSamplerOffset
	// TexSrcBackend1 and TexSrcBackend2 carry the coordinate, comparator,
	// bias, lod, projector and sample index packed into vec4s.
	TexSrcBackend1
	TexSrcBackend2
)

var texSrcNames = [...]string{
	TexSrcCoord:         "coord",
	TexSrcComparator:    "comparator",
	TexSrcBias:          "bias",
	TexSrcLod:           "lod",
	TexSrcProjector:     "projector",
	TexSrcMSIndex:       "ms_index",
	TexSrcDdx:           "ddx",
	TexSrcDdy:           "ddy",
	TexSrcOffset:        "offset",
	TexSrcSamplerOffset: "sampler_offset",
	TexSrcBackend1:      "backend1",
	TexSrcBackend2:      "backend2",
}

func (t TexSrcType) String() string {
	if int(t) < len(texSrcNames) {
		return texSrcNames[t]
	}
	return fmt.Sprintf("TexSrcType(%d)", t)
}

// ParseTexSrcType parses a texture source role name.
func ParseTexSrcType(name string) (TexSrcType, error) {
	for i, n := range texSrcNames {
		if n == name {
			return TexSrcType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown texture source %q", name)
}

// TexSrc is a texture operand tagged with its role.
type TexSrc struct {
	Type TexSrcType
	Src  Src
}

// TexInstr is a texture sample, fetch or query.
type TexInstr struct {
	instrBase
	Op              TexOp
	Dest            Dest
	SamplerDim      SamplerDim
	IsArray         bool
	IsShadow        bool
	CoordComponents uint8
	SamplerIndex    uint32
	// Component is the gathered channel for tg4.
	Component uint8
	DestType  BaseType
	Srcs      []TexSrc
}

// SrcIndex returns the position of the operand with the given role, or -1.
func (t *TexInstr) SrcIndex(typ TexSrcType) int {
	for i := range t.Srcs {
		if t.Srcs[i].Type == typ {
			return i
		}
	}
	return -1
}

// LoadConstInstr defines an SSA value from constants. Values holds one
// entry per component, as raw bits of the definition's bit size.
type LoadConstInstr struct {
	instrBase
	Def    *Def
	Values []uint64
}

// UndefInstr defines an SSA value with undefined contents.
type UndefInstr struct {
	instrBase
	Def *Def
}

// JumpKind is the kind of a jump instruction.
type JumpKind uint8

const (
	JumpBreak JumpKind = iota
	JumpContinue
	JumpReturn
	JumpHalt
)

var jumpNames = [...]string{"break", "continue", "return", "halt"}

func (k JumpKind) String() string {
	if int(k) < len(jumpNames) {
		return jumpNames[k]
	}
	return fmt.Sprintf("JumpKind(%d)", k)
}

// ParseJumpKind parses a jump name.
func ParseJumpKind(name string) (JumpKind, error) {
	for i, n := range jumpNames {
		if n == name {
			return JumpKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown jump %q", name)
}

// JumpInstr transfers control out of a loop iteration or the function.
type JumpInstr struct {
	instrBase
	Kind JumpKind
}

// ForEachSrc calls fn for every source read by instr, including register
// indirect offsets. Returning false stops the walk.
func ForEachSrc(instr Instr, fn func(*Src) bool) {
	visit := func(s *Src) bool {
		for cur := s; cur != nil; cur = cur.Indirect {
			if !fn(cur) {
				return false
			}
		}
		return true
	}
	visitDest := func(d *Dest) bool {
		if d != nil && d.Indirect != nil {
			return visit(d.Indirect)
		}
		return true
	}

	switch in := instr.(type) {
	case *AluInstr:
		for i := range in.Srcs {
			if !visit(&in.Srcs[i].Src) {
				return
			}
		}
		visitDest(&in.Dest)
	case *IntrinsicInstr:
		for i := range in.Srcs {
			if !visit(&in.Srcs[i]) {
				return
			}
		}
		visitDest(in.Dest)
	case *TexInstr:
		for i := range in.Srcs {
			if !visit(&in.Srcs[i].Src) {
				return
			}
		}
		visitDest(&in.Dest)
	}
}

// DestOf returns the destination written by instr, or nil.
func DestOf(instr Instr) *Dest {
	switch in := instr.(type) {
	case *AluInstr:
		return &in.Dest
	case *IntrinsicInstr:
		return in.Dest
	case *TexInstr:
		return &in.Dest
	}
	return nil
}

// DefOf returns the SSA definition produced by instr, or nil.
func DefOf(instr Instr) *Def {
	switch in := instr.(type) {
	case *LoadConstInstr:
		return in.Def
	case *UndefInstr:
		return in.Def
	}
	if d := DestOf(instr); d != nil {
		return d.SSA
	}
	return nil
}
