// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nir

import "math"

// Builder appends instructions and control flow to a shader's entry
// function.
type Builder struct {
	Shader *Shader
	fn     *Function
	list   *[]CFNode
}

// NewBuilder returns a builder positioned at the end of s.Entry.
func NewBuilder(s *Shader) *Builder {
	if s.Entry == nil {
		s.Entry = &Function{Name: "main"}
	}
	return &Builder{Shader: s, fn: s.Entry, list: &s.Entry.Body}
}

// Func returns the function being built.
func (b *Builder) Func() *Function { return b.fn }

func (b *Builder) block() *Block {
	list := *b.list
	if len(list) > 0 {
		if blk, ok := list[len(list)-1].(*Block); ok {
			return blk
		}
	}
	blk := &Block{}
	*b.list = append(*b.list, blk)
	return blk
}

// Insert appends a prebuilt instruction to the current block.
func (b *Builder) Insert(in Instr) Instr {
	if d := DefOf(in); d != nil {
		d.parent = in
	}
	b.block().Append(in)
	return in
}

// Register allocates a register in the function.
func (b *Builder) Register(numComponents, bitSize uint8, arrayElems uint32) *Register {
	return b.fn.NewRegister(numComponents, bitSize, arrayElems)
}

// Imm32 emits a 32-bit constant vector.
func (b *Builder) Imm32(vals ...uint32) *Def {
	values := make([]uint64, len(vals))
	for i, v := range vals {
		values[i] = uint64(v)
	}
	return b.loadConst(32, values)
}

// ImmFloat emits a 32-bit float constant vector.
func (b *Builder) ImmFloat(vals ...float32) *Def {
	values := make([]uint64, len(vals))
	for i, v := range vals {
		values[i] = uint64(math.Float32bits(v))
	}
	return b.loadConst(32, values)
}

// Imm64 emits a 64-bit constant vector.
func (b *Builder) Imm64(vals ...uint64) *Def {
	return b.loadConst(64, append([]uint64(nil), vals...))
}

// ImmDouble emits a double constant vector.
func (b *Builder) ImmDouble(vals ...float64) *Def {
	values := make([]uint64, len(vals))
	for i, v := range vals {
		values[i] = math.Float64bits(v)
	}
	return b.loadConst(64, values)
}

func (b *Builder) loadConst(bitSize uint8, values []uint64) *Def {
	d := b.fn.NewDef(uint8(len(values)), bitSize)
	b.Insert(&LoadConstInstr{Def: d, Values: values})
	return d
}

// Undef emits an undefined value.
func (b *Builder) Undef(numComponents, bitSize uint8) *Def {
	d := b.fn.NewDef(numComponents, bitSize)
	b.Insert(&UndefInstr{Def: d})
	return d
}

// Swz builds an ALU source reading d through the given swizzle. Missing
// trailing channels repeat the last one given.
func Swz(d *Def, swizzle ...uint8) AluSrc {
	s := AluSrc{Src: SSASrc(d), Swizzle: [4]uint8{0, 1, 2, 3}}
	for i := range s.Swizzle {
		switch {
		case i < len(swizzle):
			s.Swizzle[i] = swizzle[i]
		case len(swizzle) > 0:
			s.Swizzle[i] = swizzle[len(swizzle)-1]
		}
	}
	return s
}

// Alu emits an ALU operation over whole SSA values and returns its result.
func (b *Builder) Alu(op Op, srcs ...*Def) *Def {
	asrcs := make([]AluSrc, len(srcs))
	for i, s := range srcs {
		asrcs[i] = Swz(s)
	}
	return b.AluSrcs(op, asrcs...)
}

// AluSrcs emits an ALU operation with explicit swizzles and modifiers.
func (b *Builder) AluSrcs(op Op, srcs ...AluSrc) *Def {
	n, bits := AluResultShape(op, srcs)
	d := b.fn.NewDef(n, bits)
	b.Insert(&AluInstr{Op: op, Srcs: srcs, Dest: Dest{SSA: d}, WriteMask: uint8(1<<n - 1)})
	return d
}

// AluToReg emits an ALU operation writing the masked channels of a
// register element.
func (b *Builder) AluToReg(op Op, reg *Register, offset uint32, writeMask uint8, srcs ...AluSrc) *AluInstr {
	in := &AluInstr{Op: op, Srcs: srcs, Dest: Dest{Reg: reg, BaseOffset: offset}, WriteMask: writeMask}
	b.Insert(in)
	return in
}

// AluResultShape returns the width and bit size of the value an ALU
// operation produces from srcs. The width follows the opcode, or the
// widest source for per-component opcodes.
func AluResultShape(op Op, srcs []AluSrc) (numComponents, bitSize uint8) {
	info := op.Info()
	numComponents = info.OutputSize
	if numComponents == 0 {
		for _, s := range srcs {
			numComponents = max(numComponents, s.Src.NumComponents())
		}
	}
	switch op {
	case OpF2F32, OpI2I32, OpU2U32, OpF2I32, OpF2U32, OpI2F32, OpU2F32,
		OpB2F32, OpB2I32, OpUnpack64_2x32SplitX, OpUnpack64_2x32SplitY, OpFrexpExp:
		return numComponents, 32
	case OpF2F64, OpI2I64, OpU2U64, OpF2I64, OpF2U64, OpI2F64, OpU2F64,
		OpB2F64, OpB2I64, OpPack64_2x32Split:
		return numComponents, 64
	case OpB32csel, OpFcsel:
		if len(srcs) > 1 {
			return numComponents, srcs[1].Src.BitSize()
		}
	}
	if info.BoolOutput || len(srcs) == 0 {
		return numComponents, 32
	}
	return numComponents, srcs[0].Src.BitSize()
}

// Intrinsic emits an intrinsic. When the intrinsic produces a value a
// fresh definition of the given shape is attached and returned.
func (b *Builder) Intrinsic(in *IntrinsicInstr, numComponents, bitSize uint8) *Def {
	var d *Def
	if in.Intrinsic.Info().HasDest && in.Dest == nil {
		d = b.fn.NewDef(numComponents, bitSize)
		in.Dest = &Dest{SSA: d}
	} else if in.Dest != nil {
		d = in.Dest.SSA
	}
	if in.NumComponents == 0 {
		in.NumComponents = numComponents
	}
	b.Insert(in)
	return d
}

// LoadInput emits load_input of a varying slot at a constant offset.
func (b *Builder) LoadInput(base int, location int, numComponents, bitSize uint8) *Def {
	return b.Intrinsic(&IntrinsicInstr{
		Intrinsic: IntrLoadInput,
		Srcs:      []Src{SSASrc(b.Imm32(0))},
		Base:      base,
		IO:        IOSemantics{Location: location, NumSlots: 1},
	}, numComponents, bitSize)
}

// StoreOutput emits store_output of value at a constant offset.
func (b *Builder) StoreOutput(value *Def, base int, location int) *IntrinsicInstr {
	in := &IntrinsicInstr{
		Intrinsic:     IntrStoreOutput,
		Srcs:          []Src{SSASrc(value), SSASrc(b.Imm32(0))},
		Base:          base,
		WriteMask:     uint8(1<<value.NumComponents - 1),
		NumComponents: value.NumComponents,
		IO:            IOSemantics{Location: location, NumSlots: 1},
	}
	b.Insert(in)
	return in
}

// SysVal emits a system value load.
func (b *Builder) SysVal(intr Intrinsic, numComponents uint8) *Def {
	return b.Intrinsic(&IntrinsicInstr{Intrinsic: intr}, numComponents, 32)
}

// Tex emits a texture instruction and returns its result.
func (b *Builder) Tex(t *TexInstr, numComponents uint8) *Def {
	d := b.fn.NewDef(numComponents, 32)
	t.Dest = Dest{SSA: d}
	b.Insert(t)
	return d
}

// Break emits a loop break.
func (b *Builder) Break() { b.Insert(&JumpInstr{Kind: JumpBreak}) }

// Continue emits a loop continue.
func (b *Builder) Continue() { b.Insert(&JumpInstr{Kind: JumpContinue}) }

// If emits a conditional; then and els populate the two branches.
func (b *Builder) If(cond Src, then, els func()) *If {
	nif := &If{Condition: cond}
	*b.list = append(*b.list, nif)
	saved := b.list
	b.list = &nif.Then
	if then != nil {
		then()
	}
	b.list = &nif.Else
	if els != nil {
		els()
	}
	b.list = saved
	return nif
}

// Loop emits a loop whose body is populated by body.
func (b *Builder) Loop(body func()) *Loop {
	loop := &Loop{}
	*b.list = append(*b.list, loop)
	saved := b.list
	b.list = &loop.Body
	body()
	b.list = saved
	return loop
}

// Finish indexes the function and returns the shader.
func (b *Builder) Finish() *Shader {
	b.fn.Index()
	return b.Shader
}
