// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/ntt/nir"
)

// varyingSemantic maps a varying slot to its semantic. TEXn, PNTC and VARn
// land on GENERIC unless the target understands TEXCOORD.
func (c *compiler) varyingSemantic(slot int) (Semantic, uint32, error) {
	texcoord := c.caps.TexcoordSemantic
	switch {
	case slot >= nir.SlotTex0 && slot <= nir.SlotTex7:
		if texcoord {
			return SemanticTexcoord, uint32(slot - nir.SlotTex0), nil
		}
		return SemanticGeneric, uint32(slot - nir.SlotTex0), nil
	case slot >= nir.SlotVar0 && slot < nir.SlotPatch0:
		if texcoord {
			return SemanticGeneric, uint32(slot - nir.SlotVar0), nil
		}
		// GENERIC[0..8] are taken by TEXn and PNTC.
		return SemanticGeneric, uint32(slot-nir.SlotVar0) + 9, nil
	case slot >= nir.SlotPatch0 && slot < nir.SlotMax:
		return SemanticPatch, uint32(slot - nir.SlotPatch0), nil
	}

	switch slot {
	case nir.SlotPos:
		return SemanticPosition, 0, nil
	case nir.SlotCol0, nir.SlotCol1:
		return SemanticColor, uint32(slot - nir.SlotCol0), nil
	case nir.SlotBfc0, nir.SlotBfc1:
		return SemanticBColor, uint32(slot - nir.SlotBfc0), nil
	case nir.SlotFogc:
		return SemanticFog, 0, nil
	case nir.SlotPsiz:
		return SemanticPSize, 0, nil
	case nir.SlotEdge:
		return SemanticEdgeFlag, 0, nil
	case nir.SlotClipVertex:
		return SemanticClipVertex, 0, nil
	case nir.SlotClipDist0, nir.SlotClipDist1:
		return SemanticClipDist, uint32(slot - nir.SlotClipDist0), nil
	case nir.SlotPrimitiveID:
		return SemanticPrimID, 0, nil
	case nir.SlotLayer:
		return SemanticLayer, 0, nil
	case nir.SlotViewport:
		return SemanticViewportIndex, 0, nil
	case nir.SlotFace:
		return SemanticFace, 0, nil
	case nir.SlotPntc:
		if texcoord {
			return SemanticPCoord, 0, nil
		}
		return SemanticGeneric, 8, nil
	case nir.SlotTessLevelOuter:
		return SemanticTessOuter, 0, nil
	case nir.SlotTessLevelInner:
		return SemanticTessInner, 0, nil
	case nir.SlotViewIndex:
		return SemanticViewIndex, 0, nil
	}
	return 0, 0, fmt.Errorf("varying slot %s has no semantic", nir.VaryingSlotName(slot))
}

// fragResultSemantic maps a fragment output location to its semantic.
func fragResultSemantic(loc int) (Semantic, uint32, error) {
	switch loc {
	case nir.FragResultDepth:
		return SemanticPosition, 0, nil
	case nir.FragResultStencil:
		return SemanticStencil, 0, nil
	case nir.FragResultColor:
		return SemanticColor, 0, nil
	case nir.FragResultSampleMask:
		return SemanticSampleMask, 0, nil
	}
	if loc >= nir.FragResultData0 && loc < nir.FragResultMax {
		return SemanticColor, uint32(loc - nir.FragResultData0), nil
	}
	return 0, 0, fmt.Errorf("fragment result %s has no semantic", nir.FragResultName(loc))
}

var sysvalSemantics = map[nir.Intrinsic]Semantic{
	nir.IntrLoadVertexID:           SemanticVertexID,
	nir.IntrLoadVertexIDZeroBase:   SemanticVertexIDNoBase,
	nir.IntrLoadBaseVertex:         SemanticBaseVertex,
	nir.IntrLoadBaseInstance:       SemanticBaseInstance,
	nir.IntrLoadInstanceID:         SemanticInstanceID,
	nir.IntrLoadDrawID:             SemanticDrawID,
	nir.IntrLoadInvocationID:       SemanticInvocationID,
	nir.IntrLoadFragCoord:          SemanticPosition,
	nir.IntrLoadPointCoord:         SemanticPCoord,
	nir.IntrLoadFrontFace:          SemanticFace,
	nir.IntrLoadSampleID:           SemanticSampleID,
	nir.IntrLoadSamplePos:          SemanticSamplePos,
	nir.IntrLoadSampleMaskIn:       SemanticSampleMask,
	nir.IntrLoadHelperInvocation:   SemanticHelperInvocation,
	nir.IntrLoadTessCoord:          SemanticTessCoord,
	nir.IntrLoadPatchVerticesIn:    SemanticVerticesIn,
	nir.IntrLoadPrimitiveID:        SemanticPrimID,
	nir.IntrLoadTessLevelOuter:     SemanticTessOuter,
	nir.IntrLoadTessLevelInner:     SemanticTessInner,
	nir.IntrLoadLocalInvocationID:  SemanticThreadID,
	nir.IntrLoadWorkgroupID:        SemanticBlockID,
	nir.IntrLoadNumWorkgroups:      SemanticGridSize,
	nir.IntrLoadWorkgroupSize:      SemanticBlockSize,
	nir.IntrLoadSubgroupSize:       SemanticSubgroupSize,
	nir.IntrLoadSubgroupInvocation: SemanticSubgroupInvocation,
	nir.IntrLoadSubgroupEqMask:     SemanticSubgroupEqMask,
	nir.IntrLoadSubgroupGeMask:     SemanticSubgroupGeMask,
	nir.IntrLoadSubgroupGtMask:     SemanticSubgroupGtMask,
	nir.IntrLoadSubgroupLtMask:     SemanticSubgroupLtMask,
}

func sysvalSemantic(intr nir.Intrinsic) (Semantic, bool) {
	s, ok := sysvalSemantics[intr]
	return s, ok
}

// interpMode maps an interpolation qualifier. Unqualified colors follow
// the flat-shading state.
func interpMode(interp nir.Interpolation, color bool) Interpolate {
	switch interp {
	case nir.InterpFlat:
		return InterpolateConstant
	case nir.InterpNoPerspective:
		return InterpolateLinear
	case nir.InterpSmooth:
		return InterpolatePerspective
	}
	if color {
		return InterpolateColor
	}
	return InterpolatePerspective
}

func textureTarget(dim nir.SamplerDim, array, shadow bool) TextureTarget {
	pick := func(plain, arr, sh, shArr TextureTarget) TextureTarget {
		switch {
		case shadow && array:
			return shArr
		case shadow:
			return sh
		case array:
			return arr
		}
		return plain
	}
	switch dim {
	case nir.Dim1D:
		return pick(Texture1D, Texture1DArray, TextureShadow1D, TextureShadow1DArray)
	case nir.Dim2D, nir.DimExternal:
		return pick(Texture2D, Texture2DArray, TextureShadow2D, TextureShadow2DArray)
	case nir.Dim3D:
		return Texture3D
	case nir.DimCube:
		return pick(TextureCube, TextureCubeArray, TextureShadowCube, TextureShadowCubeArray)
	case nir.DimRect:
		if shadow {
			return TextureShadowRect
		}
		return TextureRect
	case nir.DimMS:
		if array {
			return Texture2DArrayMSAA
		}
		return Texture2DMSAA
	case nir.DimBuf:
		return TextureBuffer
	}
	return TextureUnknown
}

func (c *compiler) setupShaderInfo() {
	info := &c.s.Info
	b := c.b
	switch info.Stage {
	case nir.StageVertex:
		if info.WindowSpacePosition {
			b.SetProperty(PropVSWindowSpacePosition, 1)
		}
	case nir.StageTessCtrl:
		b.SetProperty(PropTCSVerticesOut, info.TCSVerticesOut)
	case nir.StageTessEval:
		b.SetProperty(PropTESPrimMode, uint32(info.TESPrimitive))
		b.SetProperty(PropTESSpacing, (uint32(info.TESSpacing)+1)%3)
		b.SetProperty(PropTESVertexOrderCW, boolProp(!info.TESCCW))
		b.SetProperty(PropTESPointMode, boolProp(info.TESPointMode))
	case nir.StageGeometry:
		b.SetProperty(PropGSInputPrim, uint32(info.InputPrimitive))
		b.SetProperty(PropGSOutputPrim, uint32(info.OutputPrimitive))
		b.SetProperty(PropGSMaxOutputVertices, info.VerticesOut)
		b.SetProperty(PropGSInvocations, info.Invocations)
	case nir.StageFragment:
		if info.EarlyFragmentTests {
			b.SetProperty(PropFSEarlyDepthStencil, 1)
		}
	case nir.StageCompute:
		if !info.WorkgroupSizeVariable {
			b.SetProperty(PropCSFixedBlockWidth, uint32(info.WorkgroupSize[0]))
			b.SetProperty(PropCSFixedBlockHeight, uint32(info.WorkgroupSize[1]))
			b.SetProperty(PropCSFixedBlockDepth, uint32(info.WorkgroupSize[2]))
		}
		if info.SharedSize > 0 {
			b.DeclareMemory(MemoryShared)
		}
	}
}

func boolProp(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

// setupInputs declares fragment inputs up front, since their
// interpolation comes from the variables. Other stages declare inputs as
// they are loaded.
func (c *compiler) setupInputs() error {
	if c.stage() != nir.StageFragment {
		return nil
	}
	vars := c.s.VariablesWithMode(nir.ModeShaderIn)

	n := 0
	for _, v := range vars {
		n = max(n, v.DriverLocation+v.Type.AttributeSlots())
	}
	c.inputMap = make([]Src, n)

	arrays := uint32(0)
	for _, v := range vars {
		slots := v.Type.AttributeSlots()
		interp := interpMode(v.Interpolation, v.Location == nir.SlotCol0 || v.Location == nir.SlotCol1)
		if v.Location == nir.SlotPos {
			interp = InterpolateLinear
		}

		sem, index, err := c.varyingSemantic(v.Location)
		if err != nil {
			return c.errorf(ErrUnsupported, "input %s: %v", v.Name, err)
		}

		loc := LocationCenter
		switch {
		case v.Sample:
			loc = LocationSample
		case v.Centroid:
			loc = LocationCentroid
			if v.DriverLocation+slots <= 64 {
				c.centroidInputs |= (uint64(1)<<slots - 1) << uint(v.DriverLocation)
			}
		}

		var arrayID uint32
		if v.Type.IsArray() {
			arrays++
			arrayID = arrays
		}

		decl := c.b.DeclareInput(InputDecl{
			Semantic:      sem,
			SemanticIndex: index,
			Interpolate:   interp,
			Location:      loc,
			Index:         int32(v.DriverLocation),
			UsageMask:     varUsageMask(v),
			ArrayID:       arrayID,
			ArraySize:     uint32(slots),
		})

		// The source IR's front face is ~0 or 0; the target's is +1 for
		// front facing.
		if sem == SemanticFace {
			temp := c.b.DeclareTemporary()
			c.b.Emit(OpSGE, temp, decl, c.b.ImmFloat(0))
			decl = temp.AsSrc()
		}

		for i := 0; i < slots; i++ {
			s := decl
			s.Index += int32(i)
			c.inputMap[v.DriverLocation+i] = s
		}
	}
	return nil
}

// setupOutputs declares fragment outputs in location order. Color outputs
// must be declared in order for some consumers.
func (c *compiler) setupOutputs() error {
	if c.stage() != nir.StageFragment {
		return nil
	}
	vars := c.s.VariablesWithMode(nir.ModeShaderOut)
	slices.SortStableFunc(vars, func(a, b *nir.Variable) int { return a.Location - b.Location })

	for _, v := range vars {
		if v.Location == nir.FragResultColor {
			c.b.SetProperty(PropFSColor0WritesAllCbufs, 1)
		}
		sem, index, err := fragResultSemantic(v.Location)
		if err != nil {
			return c.errorf(ErrUnsupported, "output %s: %v", v.Name, err)
		}
		c.b.DeclareOutput(sem, index)
	}
	return nil
}

func (c *compiler) setupUniforms() error {
	for _, v := range c.s.VariablesWithMode(nir.ModeUniform) {
		elem := v.Type.WithoutArray()
		switch {
		case elem.IsSampler():
			target := textureTarget(elem.Dim, elem.Arrayed, elem.Shadow)
			ret, ok := returnType(elem.Result)
			if !ok {
				return c.errorf(ErrUnsupported, "sampler %s returns %s", v.Name, elem.Result)
			}
			for i := 0; i < v.Type.SamplerCount(); i++ {
				idx := int32(v.Binding) + int32(i)
				c.b.DeclareSamplerView(idx, target, [4]ReturnType{ret, ret, ret, ret})
				c.b.DeclareSampler(idx)
			}

		case elem.IsImage():
			target := textureTarget(elem.Dim, elem.Arrayed, false)
			writable := v.Access&nir.AccessNonWriteable == 0
			for i := 0; i < v.Type.ImageCount(); i++ {
				c.b.DeclareImage(int32(v.Binding)+int32(i), target, v.Format, writable, false)
			}

		case v.Type.AtomicSize() > 0:
			first := int32(v.Offset / 4)
			size := int32(v.Type.AtomicSize() / 4)
			c.b.DeclareHWAtomic(first, first+size-1, v.Binding, 0)
		}
	}

	c.firstUBO = math.MaxInt
	sizes := map[uint32]uint32{}
	for _, v := range c.s.VariablesWithMode(nir.ModeUBO) {
		ubo := v.DriverLocation
		if ubo < 0 {
			continue
		}
		if ubo != 0 || !c.s.Info.FirstUBOIsDefaultUBO {
			c.firstUBO = min(c.firstUBO, ubo)
		}

		// Every variable of a block carries the size of the whole block.
		size := v.Type.WithoutArray().Size
		for i := 0; i < int(v.Type.Length()); i++ {
			idx := uint32(ubo + i)
			if old, ok := sizes[idx]; ok && old != size {
				return c.errorf(ErrInternal, "constant buffer %d declared with sizes %d and %d", idx, old, size)
			}
			sizes[idx] = size
		}
	}
	if c.firstUBO == math.MaxInt {
		c.firstUBO = 0
	}
	for _, ubo := range sortedKeys(sizes) {
		if size := sizes[ubo]; size > 0 {
			c.b.DeclareConstant2D(0, int32((size+15)/16)-1, ubo)
		}
	}

	for i := 0; i < c.s.Info.NumSSBOs; i++ {
		c.b.DeclareBuffer(int32(i), false)
	}
	return nil
}
