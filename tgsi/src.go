// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"math"
	"math/bits"

	"github.com/gogpu/ntt/nir"
)

// mask64 widens a write mask over 64-bit components to the lane pairs
// holding them.
func mask64(mask uint8) uint8 {
	var m uint8
	if mask&1 != 0 {
		m |= WriteMaskXY
	}
	if mask&2 != 0 {
		m |= WriteMaskZW
	}
	return m
}

// one64 reads 1.0 as a double in both lane pairs.
func (c *compiler) one64() Src {
	return c.b.ImmUint(0, 0x3ff00000, 0, 0x3ff00000)
}

// srcAsUint returns a constant source as an unsigned index. Targets
// without integers carry indices as floats.
func (c *compiler) srcAsUint(src *nir.Src) uint32 {
	v := uint32(src.ConstUint())
	if !c.caps.NativeIntegers && v >= math.Float32bits(1.0) {
		v = uint32(math.Float32frombits(v))
	}
	return v
}

func (c *compiler) loadConst(lc *nir.LoadConstInstr) Src {
	d := lc.Def
	if !c.caps.NativeIntegers {
		vals := make([]uint32, len(lc.Values))
		for i, v := range lc.Values {
			vals[i] = uint32(v)
		}
		return c.b.Immediate(ImmFloat32, vals)
	}
	if d.BitSize == 32 {
		vals := make([]uint32, len(lc.Values))
		for i, v := range lc.Values {
			vals[i] = uint32(v)
		}
		return c.b.ImmUint(vals...)
	}
	vals := make([]uint32, 0, 2*len(lc.Values))
	for _, v := range lc.Values {
		vals = append(vals, uint32(v), uint32(v>>32))
	}
	return c.b.ImmUint(vals...)
}

// getSrc resolves a source to an operand. Register sources with a
// dynamic offset take an address register.
func (c *compiler) getSrc(src *nir.Src) (Src, error) {
	if d := src.SSA; d != nil {
		if lc := d.LoadConst(); lc != nil {
			return c.loadConst(lc), nil
		}
		if int(d.Index) >= len(c.ssa) || !c.assigned[d.Index] {
			return Src{}, c.errorf(ErrInternal, "read of unassigned value %%%d", d.Index)
		}
		return c.ssa[d.Index], nil
	}
	if src.Reg == nil {
		return Src{}, c.errorf(ErrInternal, "source reads nothing")
	}

	reg := c.regs[src.Reg.Index]
	reg.Index += int32(src.BaseOffset)
	s := reg.AsSrc()
	if src.Indirect != nil {
		off, err := c.getSrc(src.Indirect)
		if err != nil {
			return Src{}, err
		}
		addr, err := c.reladdr(off)
		if err != nil {
			return Src{}, err
		}
		s = s.WithIndirect(addr)
	}
	return s, nil
}

// getAluSrc resolves ALU source i with its swizzle and modifiers.
func (c *compiler) getAluSrc(in *nir.AluInstr, i int) (Src, error) {
	as := &in.Srcs[i]
	s, err := c.getSrc(&as.Src)
	if err != nil {
		return Src{}, err
	}

	sw := as.Swizzle
	if as.Src.BitSize() == 64 {
		c0, c1 := uint8(0), uint8(1)
		if in.Op.Info().InputSizes[i] == 0 {
			c0 = uint8(bits.TrailingZeros8(in.WriteMask))
			rest := in.WriteMask &^ (1 << c0)
			c1 = c0
			if rest != 0 {
				c1 = uint8(bits.TrailingZeros8(rest))
			}
		}
		c0, c1 = c0&3, c1&3
		s = s.Swz(sw[c0]*2, sw[c0]*2+1, sw[c1]*2, sw[c1]*2+1)
	} else {
		s = s.Swz(sw[0], sw[1], sw[2], sw[3])
	}

	if as.Abs {
		s = s.Abs()
	}
	if as.Negate {
		s = s.Neg()
	}
	return s, nil
}

// swizzleForWriteMask points the channels outside mask at the first
// channel inside it.
func swizzleForWriteMask(s Src, mask uint8) Src {
	first := uint8(bits.TrailingZeros8(mask)) & 3
	var sw [4]uint8
	for i := uint8(0); i < 4; i++ {
		if mask&(1<<i) != 0 {
			sw[i] = i
		} else {
			sw[i] = first
		}
	}
	return s.Swz(sw[0], sw[1], sw[2], sw[3])
}

// shiftByFrac reads n channels starting at channel frac.
func shiftByFrac(s Src, frac, n uint8) Src {
	last := max(n, 1) - 1
	return s.Swz(frac, frac+min(last, 1), frac+min(last, 2), frac+min(last, 3))
}

// defDecl allocates storage for an SSA value and records the operand
// reading it.
func (c *compiler) defDecl(d *nir.Def) (Dst, error) {
	mask := uint8(1)<<d.NumComponents - 1
	if d.BitSize == 64 {
		mask = mask64(mask)
	}

	dst, ok, err := c.tryStoreInOutput(d.Uses, d.IfUses)
	if err != nil {
		return Dst{}, err
	}
	if !ok {
		dst = c.b.DeclareTemporary()
	}

	c.ssa[d.Index] = swizzleForWriteMask(dst.AsSrc(), mask)
	c.assigned[d.Index] = true
	return dst.WithWriteMask(mask), nil
}

// getDest resolves the destination an instruction writes.
func (c *compiler) getDest(d *nir.Dest) (Dst, error) {
	if d.SSA != nil {
		return c.defDecl(d.SSA)
	}
	if d.Reg == nil {
		return Dst{}, c.errorf(ErrInternal, "destination writes nothing")
	}

	dst := c.regs[d.Reg.Index]
	dst.Index += int32(d.BaseOffset)
	if d.Indirect != nil {
		off, err := c.getSrc(d.Indirect)
		if err != nil {
			return Dst{}, err
		}
		addr, err := c.reladdr(off)
		if err != nil {
			return Dst{}, err
		}
		dst = dst.WithIndirect(addr)
	}
	return dst, nil
}

// storeDef gives d the value of src. Directly addressed immediates,
// inputs, constants and system values are aliased instead of copied.
func (c *compiler) storeDef(d *nir.Def, src Src) error {
	if !src.HasIndirect && !src.HasDimIndirect {
		switch src.File {
		case FileImmediate, FileInput, FileConstant, FileSystemValue:
			c.ssa[d.Index] = src
			c.assigned[d.Index] = true
			return nil
		}
	}
	dst, err := c.defDecl(d)
	if err != nil {
		return err
	}
	c.b.Emit(OpMOV, dst, src)
	return nil
}

func (c *compiler) store(d *nir.Dest, src Src) error {
	if d.SSA != nil {
		return c.storeDef(d.SSA, src)
	}
	dst, err := c.getDest(d)
	if err != nil {
		return err
	}
	c.b.Emit(OpMOV, dst, src)
	return nil
}

// srcIndirect offsets s by a constant or dynamic index.
func (c *compiler) srcIndirect(s Src, index *nir.Src) (Src, error) {
	if index.IsConst() {
		s.Index += int32(c.srcAsUint(index))
		return s, nil
	}
	off, err := c.getSrc(index)
	if err != nil {
		return Src{}, err
	}
	addr, err := c.reladdr(off)
	if err != nil {
		return Src{}, err
	}
	return s.WithIndirect(addr), nil
}

func (c *compiler) dstIndirect(d Dst, index *nir.Src) (Dst, error) {
	if index.IsConst() {
		d.Index += int32(c.srcAsUint(index))
		return d, nil
	}
	off, err := c.getSrc(index)
	if err != nil {
		return Dst{}, err
	}
	addr, err := c.reladdr(off)
	if err != nil {
		return Dst{}, err
	}
	return d.WithIndirect(addr), nil
}

// srcDimIndirect selects the second dimension of s, such as the vertex of
// a per-vertex input.
func (c *compiler) srcDimIndirect(s Src, index *nir.Src) (Src, error) {
	if index.IsConst() {
		return s.WithDimension(int32(c.srcAsUint(index))), nil
	}
	off, err := c.getSrc(index)
	if err != nil {
		return Src{}, err
	}
	addr, err := c.reladdr(off)
	if err != nil {
		return Src{}, err
	}
	return s.WithDimIndirect(addr, 0), nil
}

func (c *compiler) dstDimIndirect(d Dst, index *nir.Src) (Dst, error) {
	if index.IsConst() {
		return d.WithDimension(int32(c.srcAsUint(index))), nil
	}
	off, err := c.getSrc(index)
	if err != nil {
		return Dst{}, err
	}
	addr, err := c.reladdr(off)
	if err != nil {
		return Dst{}, err
	}
	return d.WithDimIndirect(addr, 0), nil
}

// emitScalar replicates a scalar opcode over each written channel. POW is
// the only one taking two operands.
func (c *compiler) emitScalar(op Opcode, dst Dst, src0, src1 Src) {
	for i := uint8(0); i < 4; i++ {
		if dst.WriteMask&(1<<i) == 0 {
			continue
		}
		d := dst
		d.WriteMask = 1 << i
		if op == OpPOW {
			c.b.Emit(op, d, src0.Scalar(i), src1.Scalar(i))
		} else {
			c.b.Emit(op, d, src0.Scalar(i))
		}
	}
}
