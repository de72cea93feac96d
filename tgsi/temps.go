// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import "github.com/gogpu/ntt/nir"

// usageMask returns the channels n components starting at start occupy.
// 64-bit components take a channel pair each.
func usageMask(start, n uint8, is64 bool) uint8 {
	mask := uint8((1<<n - 1) << start)
	if !is64 {
		return mask & WriteMaskXYZW
	}
	if start >= 2 {
		mask >>= 2
	}
	return mask64(mask)
}

func varUsageMask(v *nir.Variable) uint8 {
	elem := v.Type.WithoutArray()
	n := elem.VectorElements()
	if n == 0 {
		n = 4
	}
	return usageMask(v.LocationFrac, uint8(n), elem.Is64Bit())
}

// outputDecl declares the output an output intrinsic writes and returns
// it masked to the written channels, along with the first channel the
// value lands in.
func (c *compiler) outputDecl(in *nir.IntrinsicInstr) (Dst, uint8, error) {
	sem := in.IO
	frac := in.Component
	var is64 bool
	if in.Dest != nil {
		is64 = in.Dest.BitSize() == 64
	} else {
		is64 = in.Srcs[0].BitSize() == 64
	}

	var out Dst
	if c.stage() == nir.StageFragment {
		name, index, err := fragResultSemantic(sem.Location)
		if err != nil {
			return Dst{}, 0, c.errorf(ErrUnsupported, "%v", err)
		}
		index += uint32(sem.DualSourceBlendIndex)
		switch sem.Location {
		case nir.FragResultDepth:
			frac = 2
		case nir.FragResultStencil:
			frac = 1
		}
		out = c.b.DeclareOutput(name, index)
	} else {
		name, index, err := c.varyingSemantic(sem.Location)
		if err != nil {
			return Dst{}, 0, c.errorf(ErrUnsupported, "%v", err)
		}
		usage := usageMask(frac, in.NumComponents, is64)
		streams := sem.GSStreams
		for i := 0; i < 4; i++ {
			if usage&(1<<i) == 0 {
				streams &^= 3 << (2 * i)
			}
		}
		out = c.b.DeclareOutputLayout(OutputDecl{
			Semantic:      name,
			SemanticIndex: index,
			Streams:       streams,
			Index:         int32(in.Base),
			UsageMask:     usage,
			ArraySize:     uint32(max(sem.NumSlots, 1)),
		})
	}

	mask := uint8(1)<<in.NumComponents - 1
	if in.Intrinsic.Has(nir.HasWriteMask) {
		mask = in.WriteMask
	}
	if is64 {
		mask = mask64(mask)
		if frac >= 2 {
			mask <<= 2
		}
	} else {
		mask <<= frac
	}
	return out.WithWriteMask(mask), frac, nil
}

// tryStoreInOutput picks the output register as the storage of a value
// whose only use is a directly addressed store_output, so the store needs
// no copy. Only vertex and fragment shaders qualify: other stages must
// write outputs once per emitted vertex.
func (c *compiler) tryStoreInOutput(uses []*nir.Src, ifUses []*nir.If) (Dst, bool, error) {
	switch c.stage() {
	case nir.StageVertex, nir.StageFragment:
	default:
		return Dst{}, false, nil
	}
	if len(ifUses) != 0 || len(uses) != 1 {
		return Dst{}, false, nil
	}

	intr, ok := uses[0].ParentInstr().(*nir.IntrinsicInstr)
	if !ok || intr.Intrinsic != nir.IntrStoreOutput || !intr.Srcs[1].IsConst() {
		return Dst{}, false, nil
	}

	dst, frac, err := c.outputDecl(intr)
	if err != nil {
		return Dst{}, false, err
	}
	if frac != 0 {
		return Dst{}, false, nil
	}
	dst.Index += int32(c.srcAsUint(&intr.Srcs[1]))
	return dst, true, nil
}

// setupRegisters gives every register its storage. Arrays get an
// indexable temporary range.
func (c *compiler) setupRegisters() error {
	for _, r := range c.f.Registers {
		if r.NumArrayElems > 0 {
			c.regs[r.Index] = c.b.DeclareArrayTemporary(r.NumArrayElems)
			continue
		}
		dst, ok, err := c.tryStoreInOutput(r.Uses, r.IfUses)
		if err != nil {
			return err
		}
		if !ok {
			mask := uint8(1)<<r.NumComponents - 1
			if r.BitSize == 64 {
				mask = mask64(mask)
			}
			dst = c.b.DeclareTemporary().WithWriteMask(mask)
		}
		c.regs[r.Index] = dst
	}
	return nil
}

// freeSSA drops the storage of an SSA value whose live range ended.
func (c *compiler) freeSSA(idx uint32) {
	if !c.assigned[idx] {
		return
	}
	if s := c.ssa[idx]; s.File == FileTemporary {
		c.b.ReleaseTemporary(s.AsDst())
	}
	c.assigned[idx] = false
}
