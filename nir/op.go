// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nir

import "fmt"

// Op is an ALU opcode.
type Op uint16

const (
	OpMov Op = iota
	OpFabs
	OpFneg
	OpFsat
	OpFsign
	OpIsign
	OpIabs
	OpIneg
	OpInot

	OpFdot2
	OpFdot3
	OpFdot4

	OpFfloor
	OpFfract
	OpFceil
	OpFroundEven
	OpFtrunc

	OpFrcp
	OpFrsq
	OpFsqrt
	OpFexp2
	OpFlog2
	OpFsin
	OpFcos
	OpFpow

	OpF2F32
	OpF2F64
	OpI2I32
	OpI2I64
	OpU2U32
	OpU2U64
	OpF2I32
	OpF2I64
	OpF2U32
	OpF2U64
	OpI2F32
	OpI2F64
	OpU2F32
	OpU2F64
	OpB2F32
	OpB2F64
	OpB2I32
	OpB2I64
	OpF2B32
	OpI2B32

	OpSlt
	OpSge
	OpSeq
	OpSne
	OpFlt32
	OpFge32
	OpFeq32
	OpFneu32
	OpIlt32
	OpIge32
	OpIeq32
	OpIne32
	OpUlt32
	OpUge32

	OpFddx
	OpFddy
	OpFddxCoarse
	OpFddyCoarse
	OpFddxFine
	OpFddyFine

	OpPackHalf2x16
	OpUnpackHalf2x16
	OpPack64_2x32Split
	OpUnpack64_2x32SplitX
	OpUnpack64_2x32SplitY

	OpIbitfieldExtract
	OpUbitfieldExtract
	OpBitfieldInsert
	OpBitfieldReverse
	OpBitCount
	OpIfindMsb
	OpUfindMsb
	OpFindLsb

	OpFadd
	OpIadd
	OpFsub
	OpIsub
	OpFmul
	OpImul
	OpFdiv
	OpIdiv
	OpUdiv
	OpImod
	OpUmod
	OpFmod
	OpImulHigh
	OpUmulHigh
	OpIshl
	OpIshr
	OpUshr
	OpIand
	OpIor
	OpIxor
	OpFmin
	OpImin
	OpUmin
	OpFmax
	OpImax
	OpUmax

	OpFfma
	OpFlrp
	OpLdexp
	OpFrexpSig
	OpFrexpExp
	OpB32csel
	OpFcsel

	OpVec2
	OpVec3
	OpVec4

	numOps
)

// OpInfo describes the shape of an ALU opcode.
//
// A zero InputSizes entry means the input is per-component and follows
// the destination write mask. A zero OutputSize means the output is
// per-component as well.
type OpInfo struct {
	Name       string
	NumInputs  int
	OutputSize uint8
	InputSizes [4]uint8
	BoolOutput bool
}

func unop(name string) OpInfo { return OpInfo{Name: name, NumInputs: 1} }
func binop(name string) OpInfo { return OpInfo{Name: name, NumInputs: 2} }
func triop(name string) OpInfo { return OpInfo{Name: name, NumInputs: 3} }
func cmpop(name string) OpInfo { return OpInfo{Name: name, NumInputs: 2, BoolOutput: true} }
func boolunop(name string) OpInfo { return OpInfo{Name: name, NumInputs: 1, BoolOutput: true} }

func dotop(name string, n uint8) OpInfo {
	return OpInfo{Name: name, NumInputs: 2, OutputSize: 1, InputSizes: [4]uint8{n, n}}
}

func vecop(name string, n int) OpInfo {
	info := OpInfo{Name: name, NumInputs: n, OutputSize: uint8(n)}
	for i := 0; i < n; i++ {
		info.InputSizes[i] = 1
	}
	return info
}

var opInfos = [numOps]OpInfo{
	OpMov:   unop("mov"),
	OpFabs:  unop("fabs"),
	OpFneg:  unop("fneg"),
	OpFsat:  unop("fsat"),
	OpFsign: unop("fsign"),
	OpIsign: unop("isign"),
	OpIabs:  unop("iabs"),
	OpIneg:  unop("ineg"),
	OpInot:  unop("inot"),

	OpFdot2: dotop("fdot2", 2),
	OpFdot3: dotop("fdot3", 3),
	OpFdot4: dotop("fdot4", 4),

	OpFfloor:     unop("ffloor"),
	OpFfract:     unop("ffract"),
	OpFceil:      unop("fceil"),
	OpFroundEven: unop("fround_even"),
	OpFtrunc:     unop("ftrunc"),

	OpFrcp:  unop("frcp"),
	OpFrsq:  unop("frsq"),
	OpFsqrt: unop("fsqrt"),
	OpFexp2: unop("fexp2"),
	OpFlog2: unop("flog2"),
	OpFsin:  unop("fsin"),
	OpFcos:  unop("fcos"),
	OpFpow:  binop("fpow"),

	OpF2F32: unop("f2f32"),
	OpF2F64: unop("f2f64"),
	OpI2I32: unop("i2i32"),
	OpI2I64: unop("i2i64"),
	OpU2U32: unop("u2u32"),
	OpU2U64: unop("u2u64"),
	OpF2I32: unop("f2i32"),
	OpF2I64: unop("f2i64"),
	OpF2U32: unop("f2u32"),
	OpF2U64: unop("f2u64"),
	OpI2F32: unop("i2f32"),
	OpI2F64: unop("i2f64"),
	OpU2F32: unop("u2f32"),
	OpU2F64: unop("u2f64"),
	OpB2F32: unop("b2f32"),
	OpB2F64: unop("b2f64"),
	OpB2I32: unop("b2i32"),
	OpB2I64: unop("b2i64"),
	OpF2B32: boolunop("f2b32"),
	OpI2B32: boolunop("i2b32"),

	OpSlt:    binop("slt"),
	OpSge:    binop("sge"),
	OpSeq:    binop("seq"),
	OpSne:    binop("sne"),
	OpFlt32:  cmpop("flt32"),
	OpFge32:  cmpop("fge32"),
	OpFeq32:  cmpop("feq32"),
	OpFneu32: cmpop("fneu32"),
	OpIlt32:  cmpop("ilt32"),
	OpIge32:  cmpop("ige32"),
	OpIeq32:  cmpop("ieq32"),
	OpIne32:  cmpop("ine32"),
	OpUlt32:  cmpop("ult32"),
	OpUge32:  cmpop("uge32"),

	OpFddx:       unop("fddx"),
	OpFddy:       unop("fddy"),
	OpFddxCoarse: unop("fddx_coarse"),
	OpFddyCoarse: unop("fddy_coarse"),
	OpFddxFine:   unop("fddx_fine"),
	OpFddyFine:   unop("fddy_fine"),

	OpPackHalf2x16:        {Name: "pack_half_2x16", NumInputs: 1, OutputSize: 1, InputSizes: [4]uint8{2}},
	OpUnpackHalf2x16:      {Name: "unpack_half_2x16", NumInputs: 1, OutputSize: 2, InputSizes: [4]uint8{1}},
	OpPack64_2x32Split:    binop("pack_64_2x32_split"),
	OpUnpack64_2x32SplitX: unop("unpack_64_2x32_split_x"),
	OpUnpack64_2x32SplitY: unop("unpack_64_2x32_split_y"),

	OpIbitfieldExtract: triop("ibitfield_extract"),
	OpUbitfieldExtract: triop("ubitfield_extract"),
	OpBitfieldInsert:   {Name: "bitfield_insert", NumInputs: 4},
	OpBitfieldReverse:  unop("bitfield_reverse"),
	OpBitCount:         unop("bit_count"),
	OpIfindMsb:         unop("ifind_msb"),
	OpUfindMsb:         unop("ufind_msb"),
	OpFindLsb:          unop("find_lsb"),

	OpFadd:     binop("fadd"),
	OpIadd:     binop("iadd"),
	OpFsub:     binop("fsub"),
	OpIsub:     binop("isub"),
	OpFmul:     binop("fmul"),
	OpImul:     binop("imul"),
	OpFdiv:     binop("fdiv"),
	OpIdiv:     binop("idiv"),
	OpUdiv:     binop("udiv"),
	OpImod:     binop("imod"),
	OpUmod:     binop("umod"),
	OpFmod:     binop("fmod"),
	OpImulHigh: binop("imul_high"),
	OpUmulHigh: binop("umul_high"),
	OpIshl:     binop("ishl"),
	OpIshr:     binop("ishr"),
	OpUshr:     binop("ushr"),
	OpIand:     binop("iand"),
	OpIor:      binop("ior"),
	OpIxor:     binop("ixor"),
	OpFmin:     binop("fmin"),
	OpImin:     binop("imin"),
	OpUmin:     binop("umin"),
	OpFmax:     binop("fmax"),
	OpImax:     binop("imax"),
	OpUmax:     binop("umax"),

	OpFfma:     triop("ffma"),
	OpFlrp:     triop("flrp"),
	OpLdexp:    binop("ldexp"),
	OpFrexpSig: unop("frexp_sig"),
	OpFrexpExp: unop("frexp_exp"),
	OpB32csel:  triop("b32csel"),
	OpFcsel:    triop("fcsel"),

	OpVec2: vecop("vec2", 2),
	OpVec3: vecop("vec3", 3),
	OpVec4: vecop("vec4", 4),
}

// Info returns the shape of the opcode.
func (op Op) Info() OpInfo {
	if op < numOps {
		return opInfos[op]
	}
	return OpInfo{Name: fmt.Sprintf("op%d", op)}
}

func (op Op) String() string { return op.Info().Name }

var opsByName = func() map[string]Op {
	m := make(map[string]Op, numOps)
	for i := Op(0); i < numOps; i++ {
		m[opInfos[i].Name] = i
	}
	return m
}()

// ParseOp looks up an ALU opcode by name.
func ParseOp(name string) (Op, error) {
	if op, ok := opsByName[name]; ok {
		return op, nil
	}
	return 0, fmt.Errorf("unknown ALU op %q", name)
}
