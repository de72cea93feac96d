// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"math/bits"

	"github.com/gogpu/ntt/nir"
)

func (c *compiler) emitAlu(in *nir.AluInstr) error {
	info := in.Op.Info()
	dst64 := in.Dest.BitSize() == 64
	src64 := len(in.Srcs) > 0 && in.Srcs[0].Src.BitSize() == 64
	n := info.NumInputs

	src := make([]Src, n)
	for i := 0; i < n; i++ {
		s, err := c.getAluSrc(in, i)
		if err != nil {
			return err
		}
		src[i] = s
	}
	dst, err := c.getDest(&in.Dest)
	if err != nil {
		return err
	}
	if in.Saturate {
		dst.Saturate = true
	}
	if dst64 {
		dst = dst.WithWriteMask(mask64(in.WriteMask))
	} else {
		dst = dst.WithWriteMask(in.WriteMask)
	}

	// 64-bit compares with a 32-bit result write .xz, and 64-bit to 32-bit
	// conversions write .xy. Both go through a temporary and get moved
	// into place.
	compare64 := src64 && !dst64 && (n == 2 || info.BoolOutput) && dst.WriteMask != WriteMaskX
	downconvert64 := src64 && !dst64 && n == 1 && !compare64 && dst.WriteMask&^WriteMaskXY != 0

	var realDst Dst
	fixup := compare64 || downconvert64
	if fixup {
		realDst = dst
		dst = c.b.DeclareTemporary()
	}

	if op, ok := tableOpcode(in.Op, src64); ok {
		c.b.Insn(op, []Dst{dst}, src)
	} else if err := c.emitAluSpecial(in, dst, src, src64, dst64); err != nil {
		return err
	}

	if fixup {
		if compare64 {
			c.b.Emit(OpMOV, realDst, dst.AsSrc().Swz(0, 2, 0, 2))
		} else {
			var swz [4]uint8
			first := uint8(bits.TrailingZeros8(realDst.WriteMask))
			if second := realDst.WriteMask &^ (1 << first); second != 0 {
				swz[bits.TrailingZeros8(second)] = 1
			}
			c.b.Emit(OpMOV, realDst, dst.AsSrc().Swz(swz[0], swz[1], swz[2], swz[3]))
		}
		c.b.ReleaseTemporary(dst)
	}
	return nil
}

// emitAluSpecial handles the ops that need more than one opcode or
// reshuffled operands.
func (c *compiler) emitAluSpecial(in *nir.AluInstr, dst Dst, src []Src, src64, dst64 bool) error {
	b := c.b
	// xxyy replicates a 32-bit value into both halves of each 64-bit lane.
	xxyy := func(s Src) Src { return s.Swz(SwizzleX, SwizzleX, SwizzleY, SwizzleY) }

	switch in.Op {
	case nir.OpU2U64:
		b.Emit(OpAND, dst, xxyy(src[0]), b.ImmUint(^uint32(0), 0, ^uint32(0), 0))

	case nir.OpI2I32, nir.OpU2U32:
		if !src64 {
			return c.errorf(ErrInternal, "%s with a 32-bit source", in.Op.Info().Name)
		}
		b.Emit(OpMOV, dst, src[0].Swz(SwizzleX, SwizzleZ, SwizzleX, SwizzleX))

	case nir.OpFabs:
		b.Emit(OpMOV, dst, src[0].Abs())

	case nir.OpFneg:
		b.Emit(OpMOV, dst, src[0].Neg())

	case nir.OpFsat:
		if dst64 {
			b.Emit(OpMIN, dst, src[0], c.one64())
			b.Emit(OpMAX, dst, dst.AsSrc(), b.ImmUint(0))
		} else {
			b.Emit(OpMOV, dst.WithSaturate(), src[0])
		}

	// 32-bit transcendentals replicate one source channel to every
	// destination channel, so they are emitted per channel.
	case nir.OpFrcp:
		c.emitScalar(OpRCP, dst, src[0], Src{})
	case nir.OpFrsq:
		c.emitScalar(OpRSQ, dst, src[0], Src{})
	case nir.OpFsqrt:
		c.emitScalar(OpSQRT, dst, src[0], Src{})
	case nir.OpFexp2:
		c.emitScalar(OpEX2, dst, src[0], Src{})
	case nir.OpFlog2:
		c.emitScalar(OpLG2, dst, src[0], Src{})
	case nir.OpFsin:
		c.emitScalar(OpSIN, dst, src[0], Src{})
	case nir.OpFcos:
		c.emitScalar(OpCOS, dst, src[0], Src{})
	case nir.OpFpow:
		c.emitScalar(OpPOW, dst, src[0], src[1])

	case nir.OpB2F32:
		b.Emit(OpAND, dst, src[0], b.ImmFloat(1.0))
	case nir.OpB2F64:
		b.Emit(OpAND, dst, xxyy(src[0]), c.one64())
	case nir.OpF2B32:
		if src64 {
			b.Emit(OpDSNE, dst, src[0], b.ImmFloat(0))
		} else {
			b.Emit(OpFSNE, dst, src[0], b.ImmFloat(0))
		}
	case nir.OpI2B32:
		if src64 {
			b.Emit(OpU64SNE, dst, src[0], b.ImmUint(0))
		} else {
			b.Emit(OpUSNE, dst, src[0], b.ImmUint(0))
		}
	case nir.OpB2I32:
		b.Emit(OpAND, dst, src[0], b.ImmUint(1))
	case nir.OpB2I64:
		b.Emit(OpAND, dst, xxyy(src[0]), b.ImmUint(1, 0, 1, 0))

	case nir.OpFsub:
		b.Emit(OpADD, dst, src[0], src[1].Neg())
	case nir.OpIsub:
		b.Emit(OpUADD, dst, src[0], src[1].Neg())

	case nir.OpFlrp:
		b.Emit(OpLRP, dst, src[2], src[1], src[0])

	case nir.OpPack64_2x32Split:
		b.Emit(OpMOV, dst.WithWriteMask(WriteMaskXZ), xxyy(src[0]))
		b.Emit(OpMOV, dst.WithWriteMask(WriteMaskYW), xxyy(src[1]))
	case nir.OpUnpack64_2x32SplitX:
		b.Emit(OpMOV, dst, src[0].Swz(SwizzleX, SwizzleZ, SwizzleX, SwizzleZ))
	case nir.OpUnpack64_2x32SplitY:
		b.Emit(OpMOV, dst, src[0].Swz(SwizzleY, SwizzleW, SwizzleY, SwizzleW))

	case nir.OpB32csel:
		cond := src[0]
		if in.Srcs[1].Src.BitSize() == 64 {
			cond = xxyy(cond)
		}
		b.Emit(OpUCMP, dst, cond, src[1], src[2])

	case nir.OpFcsel:
		// The condition is a 0.0/1.0 boolean; CMP selects on src0 < 0.
		b.Emit(OpCMP, dst, src[0].Neg(), src[1], src[2])

	case nir.OpFrexpSig, nir.OpFrexpExp:
		if !src64 {
			return c.errorf(ErrInternal, "%s with a 32-bit source", in.Op.Info().Name)
		}
		temp := b.DeclareTemporary()
		for ch := uint8(0); ch < 2; ch++ {
			wm := uint8(1) << ch
			if in.WriteMask&wm == 0 {
				continue
			}
			dsts := []Dst{temp, temp}
			if in.Op == nir.OpFrexpSig {
				dsts[0] = dst.WithWriteMask(mask64(wm))
			} else {
				dsts[1] = dst.WithWriteMask(wm)
			}
			b.Insn(OpDFRACEXP, dsts, []Src{src[0].Swz(ch*2, ch*2+1, ch*2, ch*2+1)})
		}
		b.ReleaseTemporary(temp)

	case nir.OpLdexp:
		// 32-bit ldexp is in the table.
		b.Emit(OpDLDEXP, dst, src[0], xxyy(src[1]))

	default:
		return c.errorf(ErrInternal, "ALU op %s was not lowered", in.Op.Info().Name)
	}
	return nil
}
