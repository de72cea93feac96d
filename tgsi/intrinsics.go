// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import "github.com/gogpu/ntt/nir"

// memOpcodes maps buffer, shared-memory, atomic-counter and image
// intrinsics to their memory opcode.
var memOpcodes = map[nir.Intrinsic]Opcode{
	nir.IntrLoadSSBO:          OpLOAD,
	nir.IntrLoadShared:        OpLOAD,
	nir.IntrAtomicCounterRead: OpLOAD,
	nir.IntrImageLoad:         OpLOAD,
	nir.IntrStoreSSBO:         OpSTORE,
	nir.IntrStoreShared:       OpSTORE,
	nir.IntrImageStore:        OpSTORE,
	nir.IntrGetSSBOSize:       OpRESQ,
	nir.IntrImageSize:         OpRESQ,

	nir.IntrSSBOAtomicAdd:        OpATOMUADD,
	nir.IntrSharedAtomicAdd:      OpATOMUADD,
	nir.IntrAtomicCounterAdd:     OpATOMUADD,
	nir.IntrAtomicCounterInc:     OpATOMUADD,
	nir.IntrAtomicCounterPostDec: OpATOMUADD,
	nir.IntrImageAtomicAdd:       OpATOMUADD,

	nir.IntrSSBOAtomicFAdd:   OpATOMFADD,
	nir.IntrSharedAtomicFAdd: OpATOMFADD,
	nir.IntrImageAtomicFAdd:  OpATOMFADD,

	nir.IntrSSBOAtomicIMin:   OpATOMIMIN,
	nir.IntrSharedAtomicIMin: OpATOMIMIN,
	nir.IntrAtomicCounterMin: OpATOMIMIN,
	nir.IntrImageAtomicIMin:  OpATOMIMIN,

	nir.IntrSSBOAtomicIMax:   OpATOMIMAX,
	nir.IntrSharedAtomicIMax: OpATOMIMAX,
	nir.IntrAtomicCounterMax: OpATOMIMAX,
	nir.IntrImageAtomicIMax:  OpATOMIMAX,

	nir.IntrSSBOAtomicUMin:   OpATOMUMIN,
	nir.IntrSharedAtomicUMin: OpATOMUMIN,
	nir.IntrImageAtomicUMin:  OpATOMUMIN,

	nir.IntrSSBOAtomicUMax:   OpATOMUMAX,
	nir.IntrSharedAtomicUMax: OpATOMUMAX,
	nir.IntrImageAtomicUMax:  OpATOMUMAX,

	nir.IntrSSBOAtomicAnd:    OpATOMAND,
	nir.IntrSharedAtomicAnd:  OpATOMAND,
	nir.IntrAtomicCounterAnd: OpATOMAND,
	nir.IntrImageAtomicAnd:   OpATOMAND,

	nir.IntrSSBOAtomicOr:    OpATOMOR,
	nir.IntrSharedAtomicOr:  OpATOMOR,
	nir.IntrAtomicCounterOr: OpATOMOR,
	nir.IntrImageAtomicOr:   OpATOMOR,

	nir.IntrSSBOAtomicXor:    OpATOMXOR,
	nir.IntrSharedAtomicXor:  OpATOMXOR,
	nir.IntrAtomicCounterXor: OpATOMXOR,
	nir.IntrImageAtomicXor:   OpATOMXOR,

	nir.IntrSSBOAtomicExchange:    OpATOMXCHG,
	nir.IntrSharedAtomicExchange:  OpATOMXCHG,
	nir.IntrAtomicCounterExchange: OpATOMXCHG,
	nir.IntrImageAtomicExchange:   OpATOMXCHG,

	nir.IntrSSBOAtomicCompSwap:    OpATOMCAS,
	nir.IntrSharedAtomicCompSwap:  OpATOMCAS,
	nir.IntrAtomicCounterCompSwap: OpATOMCAS,
	nir.IntrImageAtomicCompSwap:   OpATOMCAS,
}

// membarFlags maps memory barrier intrinsics to MEMBAR flags.
var membarFlags = map[nir.Intrinsic]uint32{
	nir.IntrMemoryBarrier:              MembarShaderBuffer | MembarAtomicBuffer | MembarShaderImage | MembarShared,
	nir.IntrMemoryBarrierAtomicCounter: MembarAtomicBuffer,
	nir.IntrMemoryBarrierBuffer:        MembarShaderBuffer,
	nir.IntrMemoryBarrierImage:         MembarShaderImage,
	nir.IntrMemoryBarrierShared:        MembarShared,
	nir.IntrGroupMemoryBarrier:         MembarShaderBuffer | MembarAtomicBuffer | MembarShaderImage | MembarShared | MembarThreadGroup,
}

type memSpace uint8

const (
	spaceBuffer memSpace = iota
	spaceShared
	spaceAtomic
)

func (c *compiler) emitIntrinsic(in *nir.IntrinsicInstr) error {
	if in.Intrinsic.Has(nir.IsSystemValue) {
		return c.emitLoadSysval(in)
	}
	if op, ok := membarFlags[in.Intrinsic]; ok {
		c.b.Emit(OpMEMBAR, Dst{}, c.b.ImmUint(op))
		return nil
	}

	switch in.Intrinsic {
	case nir.IntrLoadUBO, nir.IntrLoadUBOVec4:
		return c.emitLoadUBO(in)

	case nir.IntrLoadInput, nir.IntrLoadPerVertexInput, nir.IntrLoadInterpolatedInput:
		return c.emitLoadInput(in)
	case nir.IntrStoreOutput, nir.IntrStorePerVertexOutput:
		return c.emitStoreOutput(in)
	case nir.IntrLoadOutput, nir.IntrLoadPerVertexOutput:
		return c.emitLoadOutput(in)

	case nir.IntrDiscard:
		c.b.Emit(OpKILL, Dst{})
	case nir.IntrDiscardIf:
		return c.emitDiscardIf(in)

	case nir.IntrLoadSSBO, nir.IntrStoreSSBO, nir.IntrGetSSBOSize,
		nir.IntrSSBOAtomicAdd, nir.IntrSSBOAtomicFAdd, nir.IntrSSBOAtomicIMin,
		nir.IntrSSBOAtomicIMax, nir.IntrSSBOAtomicUMin, nir.IntrSSBOAtomicUMax,
		nir.IntrSSBOAtomicAnd, nir.IntrSSBOAtomicOr, nir.IntrSSBOAtomicXor,
		nir.IntrSSBOAtomicExchange, nir.IntrSSBOAtomicCompSwap:
		return c.emitMem(in, spaceBuffer)

	case nir.IntrLoadShared, nir.IntrStoreShared,
		nir.IntrSharedAtomicAdd, nir.IntrSharedAtomicFAdd, nir.IntrSharedAtomicIMin,
		nir.IntrSharedAtomicIMax, nir.IntrSharedAtomicUMin, nir.IntrSharedAtomicUMax,
		nir.IntrSharedAtomicAnd, nir.IntrSharedAtomicOr, nir.IntrSharedAtomicXor,
		nir.IntrSharedAtomicExchange, nir.IntrSharedAtomicCompSwap:
		return c.emitMem(in, spaceShared)

	case nir.IntrAtomicCounterRead, nir.IntrAtomicCounterAdd, nir.IntrAtomicCounterInc,
		nir.IntrAtomicCounterPostDec, nir.IntrAtomicCounterMin, nir.IntrAtomicCounterMax,
		nir.IntrAtomicCounterAnd, nir.IntrAtomicCounterOr, nir.IntrAtomicCounterXor,
		nir.IntrAtomicCounterExchange, nir.IntrAtomicCounterCompSwap:
		return c.emitMem(in, spaceAtomic)
	case nir.IntrAtomicCounterPreDec:
		return c.errorf(ErrInternal, "atomic_counter_pre_dec was not lowered")

	case nir.IntrImageLoad, nir.IntrImageStore, nir.IntrImageSize,
		nir.IntrImageAtomicAdd, nir.IntrImageAtomicFAdd, nir.IntrImageAtomicIMin,
		nir.IntrImageAtomicUMin, nir.IntrImageAtomicIMax, nir.IntrImageAtomicUMax,
		nir.IntrImageAtomicAnd, nir.IntrImageAtomicOr, nir.IntrImageAtomicXor,
		nir.IntrImageAtomicExchange, nir.IntrImageAtomicCompSwap:
		return c.emitImage(in)

	case nir.IntrControlBarrier, nir.IntrMemoryBarrierTCSPatch:
		c.b.Emit(OpBARRIER, Dst{})

	case nir.IntrEmitVertex:
		c.b.Emit(OpEMIT, Dst{}, c.b.ImmUint(uint32(in.StreamID)))
	case nir.IntrEndPrimitive:
		c.b.Emit(OpENDPRIM, Dst{}, c.b.ImmUint(uint32(in.StreamID)))

	// Barycentrics are not computed. The interpolated load reads the input
	// with the location of its barycentric source; at_sample and
	// at_offset keep their argument in the barycentric value.
	case nir.IntrLoadBarycentricPixel, nir.IntrLoadBarycentricCentroid, nir.IntrLoadBarycentricSample:
	case nir.IntrLoadBarycentricAtSample, nir.IntrLoadBarycentricAtOffset:
		src, err := c.getSrc(&in.Srcs[0])
		if err != nil {
			return err
		}
		return c.store(in.Dest, src)

	default:
		return c.errorf(ErrUnsupported, "intrinsic %s is not supported", in.Intrinsic)
	}
	return nil
}

func (c *compiler) emitLoadUBO(in *nir.IntrinsicInstr) error {
	bitSize := in.Dest.BitSize()
	src := Register(FileConstant, 0)

	var addrTemp Dst
	if in.Srcs[0].IsConst() {
		src = src.WithDimension(int32(c.srcAsUint(&in.Srcs[0])))
	} else {
		// Indirect buffer indices are relative to the first UBO of the
		// array, which stays in the dimension index.
		block, err := c.getSrc(&in.Srcs[0])
		if err != nil {
			return err
		}
		addrTemp = c.b.DeclareTemporary()
		c.b.Emit(OpUADD, addrTemp, block, c.b.ImmInt(int32(-c.firstUBO)))
		addr, err := c.reladdr(addrTemp.AsSrc())
		if err != nil {
			return err
		}
		src = src.WithDimIndirect(addr, int32(c.firstUBO))
	}

	var err error
	if in.Intrinsic == nir.IntrLoadUBOVec4 {
		if in.Srcs[1].IsConst() {
			src.Index += int32(c.srcAsUint(&in.Srcs[1]))
		} else {
			var off, addr Src
			if off, err = c.getSrc(&in.Srcs[1]); err == nil {
				if addr, err = c.reladdr(off); err == nil {
					src = src.WithIndirect(addr)
				}
			}
		}
		if err == nil {
			start := in.Component
			if bitSize == 64 {
				start *= 2
			}
			src = shiftByFrac(src, start, uint8(int(in.NumComponents)*int(bitSize)/32))
			err = c.store(in.Dest, src)
		}
	} else {
		var dst Dst
		var off Src
		if dst, err = c.getDest(in.Dest); err == nil {
			if off, err = c.getSrc(&in.Srcs[1]); err == nil {
				c.b.MemInsn(OpLOAD, []Dst{dst}, []Src{src, off}, 0, TextureBuffer, 0)
			}
		}
	}

	c.b.ReleaseTemporary(addrTemp)
	return err
}

func accessQualifier(a nir.Access) MemoryQualifier {
	var q MemoryQualifier
	if a&nir.AccessCoherent != 0 {
		q |= MemoryCoherent
	}
	if a&nir.AccessVolatile != 0 {
		q |= MemoryVolatile
	}
	if a&nir.AccessRestrict != 0 {
		q |= MemoryRestrict
	}
	return q
}

// emitMem translates buffer, shared-memory and atomic-counter accesses.
func (c *compiler) emitMem(in *nir.IntrinsicInstr, space memSpace) error {
	intr := in.Intrinsic
	isStore := intr == nir.IntrStoreSSBO || intr == nir.IntrStoreShared
	isLoad := intr == nir.IntrAtomicCounterRead || intr == nir.IntrLoadSSBO || intr == nir.IntrLoadShared

	var memory Src
	var next int
	var addrTemp Dst
	var err error
	switch space {
	case spaceBuffer:
		index := 0
		if isStore {
			index = 1
		}
		if memory, err = c.srcIndirect(Register(FileBuffer, 0), &in.Srcs[index]); err != nil {
			return err
		}
		next = 1
	case spaceShared:
		memory = c.b.DeclareMemory(MemoryShared)
	case spaceAtomic:
		// Counter offsets are in bytes; the file is indexed by counter.
		memory = Register(FileHWAtomic, 0)
		if in.Srcs[0].IsConst() {
			memory.Index += int32(in.Srcs[0].ConstUint() / 4)
		} else {
			off, err := c.getSrc(&in.Srcs[0])
			if err != nil {
				return err
			}
			addrTemp = c.b.DeclareTemporary()
			c.b.Emit(OpUSHR, addrTemp, off, c.b.ImmInt(2))
			addr, err := c.reladdr(addrTemp.AsSrc())
			if err != nil {
				return err
			}
			memory = memory.WithIndirect(addr)
		}
		memory = memory.WithDimension(int32(in.Base))
	}

	var srcs []Src
	push := func(i int) error {
		s, err := c.getSrc(&in.Srcs[i])
		if err != nil {
			return err
		}
		srcs = append(srcs, s)
		return nil
	}

	if isStore {
		if err := push(next + 1); err != nil {
			return err
		}
		if err := push(0); err != nil {
			return err
		}
	} else {
		srcs = append(srcs, memory)
		if intr != nir.IntrGetSSBOSize {
			if err := push(next); err != nil {
				return err
			}
			next++
			switch intr {
			case nir.IntrAtomicCounterInc:
				srcs = append(srcs, c.b.ImmInt(1))
			case nir.IntrAtomicCounterPostDec:
				srcs = append(srcs, c.b.ImmInt(-1))
			default:
				if !isLoad {
					if err := push(next); err != nil {
						return err
					}
					next++
				}
			}
		}
	}

	op, ok := memOpcodes[intr]
	if !ok {
		return c.errorf(ErrInternal, "no memory opcode for %s", intr)
	}
	if op == OpATOMCAS {
		if err := push(next); err != nil {
			return err
		}
	}

	var qualifier MemoryQualifier
	if space == spaceBuffer && intr != nir.IntrGetSSBOSize {
		qualifier = accessQualifier(in.Access)
	}

	var dst Dst
	if isStore {
		mask := in.WriteMask
		if in.Srcs[0].BitSize() == 64 {
			mask = mask64(mask)
		}
		dst = memory.AsDst().WithWriteMask(mask)
	} else if dst, err = c.getDest(in.Dest); err != nil {
		return err
	}

	c.b.MemInsn(op, []Dst{dst}, srcs, qualifier, TextureBuffer, 0)
	c.b.ReleaseTemporary(addrTemp)
	return nil
}

func (c *compiler) emitImage(in *nir.IntrinsicInstr) error {
	intr := in.Intrinsic
	target := textureTarget(in.ImageDim, in.ImageArray, false)

	resource, err := c.srcIndirect(Register(FileImage, 0), &in.Srcs[0])
	if err != nil {
		return err
	}

	var srcs []Src
	var dst Dst
	if intr == nir.IntrImageStore {
		dst = resource.AsDst()
	} else {
		srcs = append(srcs, resource)
		if dst, err = c.getDest(in.Dest); err != nil {
			return err
		}
	}

	var temp Dst
	if intr != nir.IntrImageSize {
		coord, err := c.getSrc(&in.Srcs[1])
		if err != nil {
			return err
		}
		if in.ImageDim == nir.DimMS {
			sample, err := c.getSrc(&in.Srcs[2])
			if err != nil {
				return err
			}
			temp = c.b.DeclareTemporary()
			c.b.Emit(OpMOV, temp, coord)
			sampleMask := WriteMaskZ
			if in.ImageArray {
				sampleMask = WriteMaskW
			}
			c.b.Emit(OpMOV, temp.WithWriteMask(sampleMask), sample.Scalar(SwizzleX))
			coord = temp.AsSrc()
		}
		srcs = append(srcs, coord)

		if intr != nir.IntrImageLoad {
			data, err := c.getSrc(&in.Srcs[3])
			if err != nil {
				return err
			}
			srcs = append(srcs, data)
			if intr == nir.IntrImageAtomicCompSwap {
				data2, err := c.getSrc(&in.Srcs[4])
				if err != nil {
					return err
				}
				srcs = append(srcs, data2)
			}
		}
	}

	op, ok := memOpcodes[intr]
	if !ok {
		return c.errorf(ErrInternal, "no memory opcode for %s", intr)
	}
	c.b.MemInsn(op, []Dst{dst}, srcs, accessQualifier(in.Access), target, in.Format)
	c.b.ReleaseTemporary(temp)
	return nil
}

func (c *compiler) emitLoadInput(in *nir.IntrinsicInstr) error {
	frac := in.Component
	n := in.NumComponents
	base := in.Base
	sem := in.IO
	is64 := in.Dest.BitSize() == 64

	var input Src
	switch c.stage() {
	case nir.StageVertex:
		input = c.b.DeclareVSInput(int32(base))
		for i := 1; i < int(sem.NumSlots); i++ {
			c.b.DeclareVSInput(int32(base + i))
		}
	case nir.StageFragment:
		if base < 0 || base >= len(c.inputMap) {
			return c.errorf(ErrInternal, "fragment input %d has no declaration", base)
		}
		input = c.inputMap[base]
	default:
		name, index, err := c.varyingSemantic(sem.Location)
		if err != nil {
			return c.errorf(ErrUnsupported, "%v", err)
		}
		input = c.b.DeclareInputLayout(name, index, int32(base),
			usageMask(frac, n, is64), 0, uint32(max(sem.NumSlots, 1)))
	}

	if is64 {
		n *= 2
	}
	input = shiftByFrac(input, frac, n)

	var err error
	switch in.Intrinsic {
	case nir.IntrLoadInput:
		if input, err = c.srcIndirect(input, &in.Srcs[0]); err != nil {
			return err
		}
		return c.store(in.Dest, input)

	case nir.IntrLoadPerVertexInput:
		if input, err = c.srcIndirect(input, &in.Srcs[1]); err != nil {
			return err
		}
		if input, err = c.srcDimIndirect(input, &in.Srcs[0]); err != nil {
			return err
		}
		return c.store(in.Dest, input)
	}

	if input, err = c.srcIndirect(input, &in.Srcs[1]); err != nil {
		return err
	}
	bary, ok := baryOf(&in.Srcs[0])
	if !ok {
		return c.errorf(ErrInternal, "interpolated input without a barycentric source")
	}
	switch bary.Intrinsic {
	case nir.IntrLoadBarycentricPixel, nir.IntrLoadBarycentricSample:
		// The declaration already interpolates at this location.
		return c.store(in.Dest, input)

	case nir.IntrLoadBarycentricCentroid:
		if base < 64 && c.centroidInputs&(1<<uint(base)) != 0 {
			return c.store(in.Dest, input)
		}
		dst, err := c.getDest(in.Dest)
		if err != nil {
			return err
		}
		c.b.Emit(OpINTERPCentroid, dst, input)

	case nir.IntrLoadBarycentricAtSample, nir.IntrLoadBarycentricAtOffset:
		op := OpINTERPSample
		if bary.Intrinsic == nir.IntrLoadBarycentricAtOffset {
			op = OpINTERPOffset
		}
		arg, err := c.getSrc(&in.Srcs[0])
		if err != nil {
			return err
		}
		dst, err := c.getDest(in.Dest)
		if err != nil {
			return err
		}
		c.b.Emit(op, dst, input, arg)

	default:
		return c.errorf(ErrInternal, "bad barycentric source %s", bary.Intrinsic)
	}
	return nil
}

func baryOf(src *nir.Src) (*nir.IntrinsicInstr, bool) {
	if src.SSA == nil {
		return nil, false
	}
	intr, ok := src.SSA.Parent().(*nir.IntrinsicInstr)
	return intr, ok
}

func (c *compiler) emitStoreOutput(in *nir.IntrinsicInstr) error {
	src, err := c.getSrc(&in.Srcs[0])
	if err != nil {
		return err
	}
	// The value was computed straight into the output register.
	if src.File == FileOutput {
		return nil
	}

	out, frac, err := c.outputDecl(in)
	if err != nil {
		return err
	}
	if in.Intrinsic == nir.IntrStorePerVertexOutput {
		if out, err = c.dstIndirect(out, &in.Srcs[2]); err != nil {
			return err
		}
		if out, err = c.dstDimIndirect(out, &in.Srcs[1]); err != nil {
			return err
		}
	} else if out, err = c.dstIndirect(out, &in.Srcs[1]); err != nil {
		return err
	}

	var swz [4]uint8
	for i := frac; i < 4; i++ {
		if out.WriteMask&(1<<i) != 0 {
			swz[i] = i - frac
		}
	}
	c.b.Emit(OpMOV, out, src.Swz(swz[0], swz[1], swz[2], swz[3]))
	return c.reladdrDstPut(out)
}

// emitLoadOutput reads back an output in stages that may do so. Vertex and
// fragment outputs may live only in the instruction that computed them.
func (c *compiler) emitLoadOutput(in *nir.IntrinsicInstr) error {
	if s := c.stage(); s == nir.StageVertex || s == nir.StageFragment {
		return c.errorf(ErrUnsupported, "%s is not allowed in %s shaders", in.Intrinsic, s)
	}
	out, _, err := c.outputDecl(in)
	if err != nil {
		return err
	}
	if in.Intrinsic == nir.IntrLoadPerVertexOutput {
		if out, err = c.dstIndirect(out, &in.Srcs[1]); err != nil {
			return err
		}
		if out, err = c.dstDimIndirect(out, &in.Srcs[0]); err != nil {
			return err
		}
	} else if out, err = c.dstIndirect(out, &in.Srcs[0]); err != nil {
		return err
	}

	dst, err := c.getDest(in.Dest)
	if err != nil {
		return err
	}
	c.b.Emit(OpMOV, dst, out.AsSrc())
	return c.reladdrDstPut(out)
}

func (c *compiler) emitLoadSysval(in *nir.IntrinsicInstr) error {
	sem, ok := sysvalSemantic(in.Intrinsic)
	if !ok {
		return c.errorf(ErrUnsupported, "system value %s has no semantic", in.Intrinsic)
	}
	sv := c.b.DeclareSystemValue(sem, 0)
	sv = swizzleForWriteMask(sv, uint8(1)<<in.Dest.NumComponents()-1)

	// Integer system values become floats on targets without integers.
	if !c.caps.NativeIntegers && (in.Intrinsic == nir.IntrLoadVertexID || in.Intrinsic == nir.IntrLoadInstanceID) {
		dst, err := c.getDest(in.Dest)
		if err != nil {
			return err
		}
		c.b.Emit(OpU2F, dst, sv)
		return nil
	}
	return c.store(in.Dest, sv)
}

func (c *compiler) emitDiscardIf(in *nir.IntrinsicInstr) error {
	cond, err := c.getSrc(&in.Srcs[0])
	if err != nil {
		return err
	}
	cond = cond.Scalar(SwizzleX)
	if !c.caps.NativeIntegers {
		// Booleans are already 0.0 or 1.0.
		c.b.Emit(OpKILLIF, Dst{}, cond.Neg())
		return nil
	}
	temp := c.b.DeclareTemporary().WithWriteMask(WriteMaskX)
	c.b.Emit(OpAND, temp, cond, c.b.ImmFloat(1.0))
	c.b.Emit(OpKILLIF, Dst{}, temp.AsSrc().Neg().Scalar(SwizzleX))
	c.b.ReleaseTemporary(temp)
	return nil
}
