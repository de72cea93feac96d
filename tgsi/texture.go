// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import "github.com/gogpu/ntt/nir"

var texOpcodes = map[nir.TexOp]Opcode{
	nir.TexOpTex:            OpTEX,
	nir.TexOpTxb:            OpTXB,
	nir.TexOpTxl:            OpTXL,
	nir.TexOpTxd:            OpTXD,
	nir.TexOpTxf:            OpTXF,
	nir.TexOpTxfMS:          OpTXF,
	nir.TexOpTxs:            OpTXQ,
	nir.TexOpLod:            OpLODQ,
	nir.TexOpTg4:            OpTG4,
	nir.TexOpQueryLevels:    OpTXQ,
	nir.TexOpTextureSamples: OpTXQS,
}

// texChannel is one scalar of a packed texture operand.
type texChannel struct {
	src  Src
	comp uint8
	used bool
}

// texArgs packs coordinate, comparator, bias, lod, projector and sample
// index into at most two vec4 operands.
type texArgs struct {
	ch    [8]texChannel
	n     int
	temps []Dst
}

func (a *texArgs) push(s Src, ncomp uint8) {
	for i := uint8(0); i < ncomp && a.n < len(a.ch); i++ {
		a.ch[a.n] = texChannel{src: s, comp: i, used: true}
		a.n++
	}
}

// pack returns the operand holding channels [from, to). Channels read
// from one operand are gathered with a single swizzled MOV; a run taken
// entirely from one operand is read in place.
func (a *texArgs) pack(c *compiler, from, to int) Src {
	var srcs []Src
	var masks []uint8
	var swz [][4]uint8
	for i := from; i < to; i++ {
		ch := a.ch[i]
		k := -1
		for j, s := range srcs {
			if s == ch.src {
				k = j
				break
			}
		}
		if k < 0 {
			k = len(srcs)
			srcs = append(srcs, ch.src)
			masks = append(masks, 0)
			swz = append(swz, [4]uint8{})
		}
		masks[k] |= 1 << (i - from)
		swz[k][i-from] = ch.comp
	}

	if len(srcs) == 1 {
		first := swz[0][0]
		sw := [4]uint8{first, first, first, first}
		copy(sw[:to-from], swz[0][:to-from])
		return srcs[0].Swz(sw[0], sw[1], sw[2], sw[3])
	}

	temp := c.b.DeclareTemporary()
	a.temps = append(a.temps, temp)
	for k, s := range srcs {
		sw := swz[k]
		for i := 0; i < 4; i++ {
			if masks[k]&(1<<i) == 0 {
				sw[i] = sw[firstSet(masks[k])]
			}
		}
		c.b.Emit(OpMOV, temp.WithWriteMask(masks[k]), s.Swz(sw[0], sw[1], sw[2], sw[3]))
	}
	return swizzleForWriteMask(temp.AsSrc(), uint8(1)<<(to-from)-1)
}

func firstSet(mask uint8) int {
	for i := 0; i < 4; i++ {
		if mask&(1<<i) != 0 {
			return i
		}
	}
	return 0
}

// texSrc resolves the operand of the given role, if present.
func (c *compiler) texSrc(t *nir.TexInstr, typ nir.TexSrcType) (Src, uint8, bool, error) {
	i := t.SrcIndex(typ)
	if i < 0 {
		return Src{}, 0, false, nil
	}
	s, err := c.getSrc(&t.Srcs[i].Src)
	if err != nil {
		return Src{}, 0, false, err
	}
	return s, t.Srcs[i].Src.NumComponents(), true, nil
}

// backendSrcs returns the packed operands. Shaders legalized elsewhere may
// already carry them.
func (c *compiler) backendSrcs(t *nir.TexInstr, op nir.TexOp, a *texArgs) ([]Src, int, error) {
	if t.SrcIndex(nir.TexSrcBackend1) >= 0 {
		var srcs []Src
		width := 0
		for _, typ := range []nir.TexSrcType{nir.TexSrcBackend1, nir.TexSrcBackend2} {
			s, n, ok, err := c.texSrc(t, typ)
			if err != nil {
				return nil, 0, err
			}
			if ok {
				if typ == nir.TexSrcBackend1 {
					width = int(n)
				}
				srcs = append(srcs, s)
			}
		}
		return srcs, width, nil
	}
	// Queries without a coordinate take their operands unpacked.
	if t.SrcIndex(nir.TexSrcCoord) < 0 {
		return nil, 0, nil
	}

	roles := []nir.TexSrcType{nir.TexSrcCoord, nir.TexSrcComparator, nir.TexSrcBias, nir.TexSrcLod, nir.TexSrcProjector, nir.TexSrcMSIndex}
	for _, typ := range roles {
		if typ == nir.TexSrcLod && op == nir.TexOpTex {
			continue
		}
		s, n, ok, err := c.texSrc(t, typ)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			a.push(s, n)
		}
		// The coordinate takes at least two slots, the comparator the
		// third.
		switch typ {
		case nir.TexSrcCoord:
			a.n = max(a.n, 2)
		case nir.TexSrcComparator:
			a.n = max(a.n, 3)
		}
	}
	for a.n > 0 && !a.ch[a.n-1].used {
		a.n--
	}
	if a.n == 0 {
		return nil, 0, nil
	}
	for i := 1; i < a.n; i++ {
		if !a.ch[i].used {
			a.ch[i] = a.ch[0]
		}
	}

	srcs := []Src{a.pack(c, 0, min(a.n, 4))}
	if a.n > 4 {
		srcs = append(srcs, a.pack(c, 4, a.n))
	}
	return srcs, min(a.n, 4), nil
}

func returnType(t nir.BaseType) (ReturnType, bool) {
	switch t {
	case nir.TypeFloat:
		return ReturnFloat, true
	case nir.TypeInt:
		return ReturnSint, true
	case nir.TypeUint:
		return ReturnUint, true
	}
	return 0, false
}

func (c *compiler) emitTexture(t *nir.TexInstr) error {
	op := t.Op
	// Stages without derivatives take an explicit zero lod as the implicit
	// one.
	if op == nir.TexOpTxl && c.stage() != nir.StageFragment {
		if i := t.SrcIndex(nir.TexSrcLod); i >= 0 && t.Srcs[i].Src.IsConst() && t.Srcs[i].Src.ConstUint() == 0 {
			op = nir.TexOpTex
		}
	}

	dst, err := c.getDest(&t.Dest)
	if err != nil {
		return err
	}
	target := textureTarget(t.SamplerDim, t.IsArray, t.IsShadow)

	sampler := c.b.DeclareSampler(int32(t.SamplerIndex))
	if i := t.SrcIndex(nir.TexSrcSamplerOffset); i >= 0 {
		off, err := c.getSrc(&t.Srcs[i].Src)
		if err != nil {
			return err
		}
		addr, err := c.reladdr(off)
		if err != nil {
			return err
		}
		sampler = sampler.WithIndirect(addr)
	}

	texOp, ok := texOpcodes[op]
	if !ok {
		return c.errorf(ErrUnsupported, "texture op %s is not supported", op)
	}
	if texOp == OpTXF && c.caps.TXFLZ {
		if i := t.SrcIndex(nir.TexSrcLod); i >= 0 && t.Srcs[i].Src.IsConst() && c.srcAsUint(&t.Srcs[i].Src) == 0 {
			texOp = OpTXFLZ
		}
	}

	var args texArgs
	defer func() {
		for _, temp := range args.temps {
			c.b.ReleaseTemporary(temp)
		}
	}()
	srcs, width, err := c.backendSrcs(t, op, &args)
	if err != nil {
		return err
	}

	if op == nir.TexOpTex {
		shadow := 0
		if t.IsShadow {
			shadow = 1
		}
		if width > max(int(t.CoordComponents), 2)+shadow {
			texOp = OpTXP
		}
	}

	if texOp == OpTXQ {
		lod, _, ok, err := c.texSrc(t, nir.TexSrcLod)
		if err != nil {
			return err
		}
		if ok {
			srcs = append(srcs, lod)
		}
		// Some consumers read the lod from .w, so it is made scalar.
		if len(srcs) > 0 {
			srcs[len(srcs)-1] = srcs[len(srcs)-1].Scalar(SwizzleX)
		}
	}

	if len(srcs) > 1 {
		switch texOp {
		case OpTEX:
			texOp = OpTEX2
		case OpTXB:
			texOp = OpTXB2
		case OpTXL:
			texOp = OpTXL2
		}
	}

	if op == nir.TexOpTxd {
		for _, typ := range []nir.TexSrcType{nir.TexSrcDdx, nir.TexSrcDdy} {
			d, _, ok, err := c.texSrc(t, typ)
			if err != nil {
				return err
			}
			if !ok {
				return c.errorf(ErrInternal, "txd without %s", typ)
			}
			srcs = append(srcs, d)
		}
	}

	if op == nir.TexOpTg4 && target != TextureShadowCubeArray {
		if c.caps.TG4ComponentInSwizzle {
			sampler = sampler.Scalar(t.Component)
			srcs = append(srcs, Src{})
		} else {
			srcs = append(srcs, c.b.ImmUint(uint32(t.Component)))
		}
	}
	srcs = append(srcs, sampler)

	ret, ok := returnType(t.DestType)
	if !ok {
		return c.errorf(ErrUnsupported, "texture result type %s", t.DestType)
	}

	var offsets []TexOffset
	if off, _, ok, err := c.texSrc(t, nir.TexSrcOffset); err != nil {
		return err
	} else if ok {
		offsets = []TexOffset{{
			File:     off.File,
			Index:    off.Index,
			SwizzleX: off.Swizzle[0],
			SwizzleY: off.Swizzle[1],
			SwizzleZ: off.Swizzle[2],
		}}
	}

	texDst := dst
	if op == nir.TexOpQueryLevels {
		texDst = c.b.DeclareTemporary().WithWriteMask(WriteMaskW)
	}
	c.b.TexInsn(texOp, []Dst{texDst}, target, ret, offsets, srcs)

	if op == nir.TexOpQueryLevels {
		c.b.Emit(OpMOV, dst, texDst.AsSrc().Scalar(SwizzleW))
		c.b.ReleaseTemporary(texDst)
	}
	return nil
}
