// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"fmt"

	"github.com/gogpu/ntt/nir"
)

// Token stream header.
const (
	MagicNumber = 0x49534754 // "TGSI"
	Version     = 1
)

// Processor is the pipeline stage a program runs in.
type Processor uint8

const (
	ProcessorFragment Processor = iota
	ProcessorVertex
	ProcessorGeometry
	ProcessorTessCtrl
	ProcessorTessEval
	ProcessorCompute
)

var processorNames = [...]string{"FRAG", "VERT", "GEOM", "TESS_CTRL", "TESS_EVAL", "COMP"}

func (p Processor) String() string {
	if int(p) < len(processorNames) {
		return processorNames[p]
	}
	return fmt.Sprintf("PROCESSOR(%d)", p)
}

// ProcessorForStage maps a nir stage to its processor.
func ProcessorForStage(stage nir.Stage) Processor {
	switch stage {
	case nir.StageVertex:
		return ProcessorVertex
	case nir.StageTessCtrl:
		return ProcessorTessCtrl
	case nir.StageTessEval:
		return ProcessorTessEval
	case nir.StageGeometry:
		return ProcessorGeometry
	case nir.StageCompute:
		return ProcessorCompute
	}
	return ProcessorFragment
}

// File is a register file.
type File uint8

const (
	FileNull File = iota
	FileConstant
	FileInput
	FileOutput
	FileTemporary
	FileSampler
	FileAddress
	FileImmediate
	FileSystemValue
	FileImage
	FileSamplerView
	FileBuffer
	FileMemory
	FileHWAtomic
	numFiles
)

var fileNames = [numFiles]string{
	"NULL", "CONST", "IN", "OUT", "TEMP", "SAMP", "ADDR", "IMM", "SV",
	"IMAGE", "SVIEW", "BUFFER", "MEMORY", "HWATOMIC",
}

func (f File) String() string {
	if f < numFiles {
		return fileNames[f]
	}
	return fmt.Sprintf("FILE(%d)", f)
}

// Semantic is the meaning attached to an input, output or system value.
type Semantic uint8

const (
	SemanticPosition Semantic = iota
	SemanticColor
	SemanticBColor
	SemanticFog
	SemanticPSize
	SemanticGeneric
	SemanticFace
	SemanticEdgeFlag
	SemanticPrimID
	SemanticInstanceID
	SemanticVertexID
	SemanticStencil
	SemanticClipVertex
	SemanticClipDist
	SemanticSampleID
	SemanticSamplePos
	SemanticSampleMask
	SemanticInvocationID
	SemanticVertexIDNoBase
	SemanticBaseVertex
	SemanticPatch
	SemanticTessCoord
	SemanticTessOuter
	SemanticTessInner
	SemanticVerticesIn
	SemanticHelperInvocation
	SemanticBaseInstance
	SemanticDrawID
	SemanticSubgroupSize
	SemanticSubgroupInvocation
	SemanticSubgroupEqMask
	SemanticSubgroupGeMask
	SemanticSubgroupGtMask
	SemanticSubgroupLtMask
	SemanticThreadID
	SemanticBlockID
	SemanticBlockSize
	SemanticGridSize
	SemanticLayer
	SemanticViewportIndex
	SemanticTexcoord
	SemanticPCoord
	SemanticViewIndex
	numSemantics
)

var semanticNames = [numSemantics]string{
	"POSITION", "COLOR", "BCOLOR", "FOG", "PSIZE", "GENERIC", "FACE",
	"EDGEFLAG", "PRIM_ID", "INSTANCEID", "VERTEXID", "STENCIL", "CLIPVERTEX",
	"CLIPDIST", "SAMPLEID", "SAMPLEPOS", "SAMPLEMASK", "INVOCATIONID",
	"VERTEXID_NOBASE", "BASEVERTEX", "PATCH", "TESSCOORD", "TESSOUTER",
	"TESSINNER", "VERTICESIN", "HELPER_INVOCATION", "BASEINSTANCE", "DRAWID",
	"SUBGROUP_SIZE", "SUBGROUP_INVOCATION", "SUBGROUP_EQ_MASK",
	"SUBGROUP_GE_MASK", "SUBGROUP_GT_MASK", "SUBGROUP_LT_MASK", "THREAD_ID",
	"BLOCK_ID", "BLOCK_SIZE", "GRID_SIZE", "LAYER", "VIEWPORT_INDEX",
	"TEXCOORD", "PCOORD", "VIEWINDEX",
}

func (s Semantic) String() string {
	if s < numSemantics {
		return semanticNames[s]
	}
	return fmt.Sprintf("SEMANTIC(%d)", s)
}

// Interpolate is an input interpolation mode.
type Interpolate uint8

const (
	InterpolateConstant Interpolate = iota
	InterpolateLinear
	InterpolatePerspective
	InterpolateColor
)

var interpolateNames = [...]string{"CONSTANT", "LINEAR", "PERSPECTIVE", "COLOR"}

func (i Interpolate) String() string {
	if int(i) < len(interpolateNames) {
		return interpolateNames[i]
	}
	return fmt.Sprintf("INTERP(%d)", i)
}

// InterpLocation is where within a pixel an input is interpolated.
type InterpLocation uint8

const (
	LocationCenter InterpLocation = iota
	LocationCentroid
	LocationSample
)

var locationNames = [...]string{"CENTER", "CENTROID", "SAMPLE"}

func (l InterpLocation) String() string {
	if int(l) < len(locationNames) {
		return locationNames[l]
	}
	return fmt.Sprintf("LOC(%d)", l)
}

// TextureTarget is the dimensionality of a resource access.
type TextureTarget uint8

const (
	TextureBuffer TextureTarget = iota
	Texture1D
	Texture2D
	Texture3D
	TextureCube
	TextureRect
	TextureShadow1D
	TextureShadow2D
	TextureShadowRect
	Texture1DArray
	Texture2DArray
	TextureShadow1DArray
	TextureShadow2DArray
	TextureShadowCube
	Texture2DMSAA
	Texture2DArrayMSAA
	TextureCubeArray
	TextureShadowCubeArray
	TextureUnknown
)

var textureNames = [...]string{
	"BUFFER", "1D", "2D", "3D", "CUBE", "RECT", "SHADOW1D", "SHADOW2D",
	"SHADOWRECT", "1D_ARRAY", "2D_ARRAY", "SHADOW1D_ARRAY", "SHADOW2D_ARRAY",
	"SHADOWCUBE", "2D_MSAA", "2D_ARRAY_MSAA", "CUBE_ARRAY", "SHADOWCUBE_ARRAY",
	"UNKNOWN",
}

func (t TextureTarget) String() string {
	if int(t) < len(textureNames) {
		return textureNames[t]
	}
	return fmt.Sprintf("TEXTURE(%d)", t)
}

// ReturnType is the component type a sampler view returns.
type ReturnType uint8

const (
	ReturnUnorm ReturnType = iota
	ReturnSnorm
	ReturnSint
	ReturnUint
	ReturnFloat
)

var returnTypeNames = [...]string{"UNORM", "SNORM", "SINT", "UINT", "FLOAT"}

func (r ReturnType) String() string {
	if int(r) < len(returnTypeNames) {
		return returnTypeNames[r]
	}
	return fmt.Sprintf("RETURN(%d)", r)
}

// MemoryQualifier is a set of memory access qualifiers.
type MemoryQualifier uint8

const (
	MemoryCoherent MemoryQualifier = 1 << iota
	MemoryRestrict
	MemoryVolatile
)

// Memory barrier flags, passed to MEMBAR as an immediate.
const (
	MembarShaderBuffer = 1 << iota
	MembarAtomicBuffer
	MembarShaderImage
	MembarShared
	MembarThreadGroup
)

// MemoryType is the address space of a MEMORY declaration.
type MemoryType uint8

const (
	MemoryGlobal MemoryType = iota
	MemoryShared
	MemoryPrivate
	MemoryInput
)

var memoryTypeNames = [...]string{"GLOBAL", "SHARED", "PRIVATE", "INPUT"}

func (m MemoryType) String() string {
	if int(m) < len(memoryTypeNames) {
		return memoryTypeNames[m]
	}
	return fmt.Sprintf("MEMTYPE(%d)", m)
}

// ImmType is the component type of an immediate.
type ImmType uint8

const (
	ImmFloat32 ImmType = iota
	ImmUint32
	ImmInt32
)

var immTypeNames = [...]string{"FLT32", "UINT32", "INT32"}

func (t ImmType) String() string {
	if int(t) < len(immTypeNames) {
		return immTypeNames[t]
	}
	return fmt.Sprintf("IMMTYPE(%d)", t)
}

// PropertyName identifies a program property.
type PropertyName uint8

const (
	PropGSInputPrim PropertyName = iota
	PropGSOutputPrim
	PropGSMaxOutputVertices
	PropGSInvocations
	PropFSCoordOrigin
	PropFSCoordPixelCenter
	PropFSColor0WritesAllCbufs
	PropFSEarlyDepthStencil
	PropVSWindowSpacePosition
	PropTCSVerticesOut
	PropTESPrimMode
	PropTESSpacing
	PropTESVertexOrderCW
	PropTESPointMode
	PropCSFixedBlockWidth
	PropCSFixedBlockHeight
	PropCSFixedBlockDepth
	numProperties
)

var propertyNames = [numProperties]string{
	"GS_INPUT_PRIMITIVE", "GS_OUTPUT_PRIMITIVE", "GS_MAX_OUTPUT_VERTICES",
	"GS_INVOCATIONS", "FS_COORD_ORIGIN", "FS_COORD_PIXEL_CENTER",
	"FS_COLOR0_WRITES_ALL_CBUFS", "FS_EARLY_DEPTH_STENCIL",
	"VS_WINDOW_SPACE_POSITION", "TCS_VERTICES_OUT", "TES_PRIM_MODE",
	"TES_SPACING", "TES_VERTEX_ORDER_CW", "TES_POINT_MODE",
	"CS_FIXED_BLOCK_WIDTH", "CS_FIXED_BLOCK_HEIGHT", "CS_FIXED_BLOCK_DEPTH",
}

func (p PropertyName) String() string {
	if p < numProperties {
		return propertyNames[p]
	}
	return fmt.Sprintf("PROPERTY(%d)", p)
}

// FS_COORD_ORIGIN and FS_COORD_PIXEL_CENTER values.
const (
	CoordOriginUpperLeft = 0
	CoordOriginLowerLeft = 1

	PixelCenterHalfInteger = 0
	PixelCenterInteger     = 1
)
