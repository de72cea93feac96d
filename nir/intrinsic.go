// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nir

import "fmt"

// Intrinsic identifies an intrinsic operation.
type Intrinsic uint16

const (
	IntrLoadUBO Intrinsic = iota
	IntrLoadUBOVec4

	IntrLoadVertexID
	IntrLoadVertexIDZeroBase
	IntrLoadBaseVertex
	IntrLoadBaseInstance
	IntrLoadInstanceID
	IntrLoadDrawID
	IntrLoadInvocationID
	IntrLoadFragCoord
	IntrLoadPointCoord
	IntrLoadFrontFace
	IntrLoadSampleID
	IntrLoadSamplePos
	IntrLoadSampleMaskIn
	IntrLoadHelperInvocation
	IntrLoadTessCoord
	IntrLoadPatchVerticesIn
	IntrLoadPrimitiveID
	IntrLoadTessLevelOuter
	IntrLoadTessLevelInner
	IntrLoadLocalInvocationID
	IntrLoadWorkgroupID
	IntrLoadNumWorkgroups
	IntrLoadWorkgroupSize
	IntrLoadSubgroupSize
	IntrLoadSubgroupInvocation
	IntrLoadSubgroupEqMask
	IntrLoadSubgroupGeMask
	IntrLoadSubgroupGtMask
	IntrLoadSubgroupLtMask

	IntrLoadInput
	IntrLoadPerVertexInput
	IntrLoadInterpolatedInput
	IntrStoreOutput
	IntrStorePerVertexOutput
	IntrLoadOutput
	IntrLoadPerVertexOutput

	IntrDiscard
	IntrDiscardIf

	IntrLoadSSBO
	IntrStoreSSBO
	IntrSSBOAtomicAdd
	IntrSSBOAtomicFAdd
	IntrSSBOAtomicIMin
	IntrSSBOAtomicIMax
	IntrSSBOAtomicUMin
	IntrSSBOAtomicUMax
	IntrSSBOAtomicAnd
	IntrSSBOAtomicOr
	IntrSSBOAtomicXor
	IntrSSBOAtomicExchange
	IntrSSBOAtomicCompSwap
	IntrGetSSBOSize

	IntrLoadShared
	IntrStoreShared
	IntrSharedAtomicAdd
	IntrSharedAtomicFAdd
	IntrSharedAtomicIMin
	IntrSharedAtomicIMax
	IntrSharedAtomicUMin
	IntrSharedAtomicUMax
	IntrSharedAtomicAnd
	IntrSharedAtomicOr
	IntrSharedAtomicXor
	IntrSharedAtomicExchange
	IntrSharedAtomicCompSwap

	IntrAtomicCounterRead
	IntrAtomicCounterAdd
	IntrAtomicCounterInc
	IntrAtomicCounterPreDec
	IntrAtomicCounterPostDec
	IntrAtomicCounterMin
	IntrAtomicCounterMax
	IntrAtomicCounterAnd
	IntrAtomicCounterOr
	IntrAtomicCounterXor
	IntrAtomicCounterExchange
	IntrAtomicCounterCompSwap

	IntrImageLoad
	IntrImageStore
	IntrImageSize
	IntrImageAtomicAdd
	IntrImageAtomicFAdd
	IntrImageAtomicIMin
	IntrImageAtomicUMin
	IntrImageAtomicIMax
	IntrImageAtomicUMax
	IntrImageAtomicAnd
	IntrImageAtomicOr
	IntrImageAtomicXor
	IntrImageAtomicExchange
	IntrImageAtomicCompSwap

	IntrControlBarrier
	IntrMemoryBarrierTCSPatch
	IntrMemoryBarrier
	IntrMemoryBarrierAtomicCounter
	IntrMemoryBarrierBuffer
	IntrMemoryBarrierImage
	IntrMemoryBarrierShared
	IntrGroupMemoryBarrier

	IntrEmitVertex
	IntrEndPrimitive

	IntrLoadBarycentricPixel
	IntrLoadBarycentricCentroid
	IntrLoadBarycentricSample
	IntrLoadBarycentricAtSample
	IntrLoadBarycentricAtOffset

	numIntrinsics
)

// IntrinsicFlags lists the constant indices an intrinsic carries.
type IntrinsicFlags uint16

const (
	HasBase IntrinsicFlags = 1 << iota
	HasComponent
	HasWriteMask
	HasIOSemantics
	HasAccess
	HasImageDim
	HasFormat
	HasStreamID
	IsSystemValue
)

// IntrinsicInfo describes the shape of an intrinsic.
type IntrinsicInfo struct {
	Name    string
	NumSrcs int
	HasDest bool
	Flags   IntrinsicFlags
}

const (
	ioLoad  = HasBase | HasComponent | HasIOSemantics
	ioStore = HasBase | HasComponent | HasWriteMask | HasIOSemantics
	image   = HasImageDim | HasFormat | HasAccess
)

func sysval(name string) IntrinsicInfo {
	return IntrinsicInfo{Name: name, HasDest: true, Flags: IsSystemValue}
}

var intrinsicInfos = [numIntrinsics]IntrinsicInfo{
	IntrLoadUBO:     {Name: "load_ubo", NumSrcs: 2, HasDest: true, Flags: HasAccess},
	IntrLoadUBOVec4: {Name: "load_ubo_vec4", NumSrcs: 2, HasDest: true, Flags: HasComponent},

	IntrLoadVertexID:           sysval("load_vertex_id"),
	IntrLoadVertexIDZeroBase:   sysval("load_vertex_id_zero_base"),
	IntrLoadBaseVertex:         sysval("load_base_vertex"),
	IntrLoadBaseInstance:       sysval("load_base_instance"),
	IntrLoadInstanceID:         sysval("load_instance_id"),
	IntrLoadDrawID:             sysval("load_draw_id"),
	IntrLoadInvocationID:       sysval("load_invocation_id"),
	IntrLoadFragCoord:          sysval("load_frag_coord"),
	IntrLoadPointCoord:         sysval("load_point_coord"),
	IntrLoadFrontFace:          sysval("load_front_face"),
	IntrLoadSampleID:           sysval("load_sample_id"),
	IntrLoadSamplePos:          sysval("load_sample_pos"),
	IntrLoadSampleMaskIn:       sysval("load_sample_mask_in"),
	IntrLoadHelperInvocation:   sysval("load_helper_invocation"),
	IntrLoadTessCoord:          sysval("load_tess_coord"),
	IntrLoadPatchVerticesIn:    sysval("load_patch_vertices_in"),
	IntrLoadPrimitiveID:        sysval("load_primitive_id"),
	IntrLoadTessLevelOuter:     sysval("load_tess_level_outer"),
	IntrLoadTessLevelInner:     sysval("load_tess_level_inner"),
	IntrLoadLocalInvocationID:  sysval("load_local_invocation_id"),
	IntrLoadWorkgroupID:        sysval("load_workgroup_id"),
	IntrLoadNumWorkgroups:      sysval("load_num_workgroups"),
	IntrLoadWorkgroupSize:      sysval("load_workgroup_size"),
	IntrLoadSubgroupSize:       sysval("load_subgroup_size"),
	IntrLoadSubgroupInvocation: sysval("load_subgroup_invocation"),
	IntrLoadSubgroupEqMask:     sysval("load_subgroup_eq_mask"),
	IntrLoadSubgroupGeMask:     sysval("load_subgroup_ge_mask"),
	IntrLoadSubgroupGtMask:     sysval("load_subgroup_gt_mask"),
	IntrLoadSubgroupLtMask:     sysval("load_subgroup_lt_mask"),

	IntrLoadInput:             {Name: "load_input", NumSrcs: 1, HasDest: true, Flags: ioLoad},
	IntrLoadPerVertexInput:    {Name: "load_per_vertex_input", NumSrcs: 2, HasDest: true, Flags: ioLoad},
	IntrLoadInterpolatedInput: {Name: "load_interpolated_input", NumSrcs: 2, HasDest: true, Flags: ioLoad},
	IntrStoreOutput:           {Name: "store_output", NumSrcs: 2, Flags: ioStore},
	IntrStorePerVertexOutput:  {Name: "store_per_vertex_output", NumSrcs: 3, Flags: ioStore},
	IntrLoadOutput:            {Name: "load_output", NumSrcs: 1, HasDest: true, Flags: ioLoad},
	IntrLoadPerVertexOutput:   {Name: "load_per_vertex_output", NumSrcs: 2, HasDest: true, Flags: ioLoad},

	IntrDiscard:   {Name: "discard"},
	IntrDiscardIf: {Name: "discard_if", NumSrcs: 1},

	IntrLoadSSBO:           {Name: "load_ssbo", NumSrcs: 2, HasDest: true, Flags: HasAccess},
	IntrStoreSSBO:          {Name: "store_ssbo", NumSrcs: 3, Flags: HasWriteMask | HasAccess},
	IntrSSBOAtomicAdd:      {Name: "ssbo_atomic_add", NumSrcs: 3, HasDest: true, Flags: HasAccess},
	IntrSSBOAtomicFAdd:     {Name: "ssbo_atomic_fadd", NumSrcs: 3, HasDest: true, Flags: HasAccess},
	IntrSSBOAtomicIMin:     {Name: "ssbo_atomic_imin", NumSrcs: 3, HasDest: true, Flags: HasAccess},
	IntrSSBOAtomicIMax:     {Name: "ssbo_atomic_imax", NumSrcs: 3, HasDest: true, Flags: HasAccess},
	IntrSSBOAtomicUMin:     {Name: "ssbo_atomic_umin", NumSrcs: 3, HasDest: true, Flags: HasAccess},
	IntrSSBOAtomicUMax:     {Name: "ssbo_atomic_umax", NumSrcs: 3, HasDest: true, Flags: HasAccess},
	IntrSSBOAtomicAnd:      {Name: "ssbo_atomic_and", NumSrcs: 3, HasDest: true, Flags: HasAccess},
	IntrSSBOAtomicOr:       {Name: "ssbo_atomic_or", NumSrcs: 3, HasDest: true, Flags: HasAccess},
	IntrSSBOAtomicXor:      {Name: "ssbo_atomic_xor", NumSrcs: 3, HasDest: true, Flags: HasAccess},
	IntrSSBOAtomicExchange: {Name: "ssbo_atomic_exchange", NumSrcs: 3, HasDest: true, Flags: HasAccess},
	IntrSSBOAtomicCompSwap: {Name: "ssbo_atomic_comp_swap", NumSrcs: 4, HasDest: true, Flags: HasAccess},
	IntrGetSSBOSize:        {Name: "get_ssbo_size", NumSrcs: 1, HasDest: true},

	IntrLoadShared:           {Name: "load_shared", NumSrcs: 1, HasDest: true, Flags: HasBase},
	IntrStoreShared:          {Name: "store_shared", NumSrcs: 2, Flags: HasBase | HasWriteMask},
	IntrSharedAtomicAdd:      {Name: "shared_atomic_add", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrSharedAtomicFAdd:     {Name: "shared_atomic_fadd", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrSharedAtomicIMin:     {Name: "shared_atomic_imin", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrSharedAtomicIMax:     {Name: "shared_atomic_imax", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrSharedAtomicUMin:     {Name: "shared_atomic_umin", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrSharedAtomicUMax:     {Name: "shared_atomic_umax", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrSharedAtomicAnd:      {Name: "shared_atomic_and", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrSharedAtomicOr:       {Name: "shared_atomic_or", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrSharedAtomicXor:      {Name: "shared_atomic_xor", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrSharedAtomicExchange: {Name: "shared_atomic_exchange", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrSharedAtomicCompSwap: {Name: "shared_atomic_comp_swap", NumSrcs: 3, HasDest: true, Flags: HasBase},

	IntrAtomicCounterRead:     {Name: "atomic_counter_read", NumSrcs: 1, HasDest: true, Flags: HasBase},
	IntrAtomicCounterAdd:      {Name: "atomic_counter_add", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrAtomicCounterInc:      {Name: "atomic_counter_inc", NumSrcs: 1, HasDest: true, Flags: HasBase},
	IntrAtomicCounterPreDec:   {Name: "atomic_counter_pre_dec", NumSrcs: 1, HasDest: true, Flags: HasBase},
	IntrAtomicCounterPostDec:  {Name: "atomic_counter_post_dec", NumSrcs: 1, HasDest: true, Flags: HasBase},
	IntrAtomicCounterMin:      {Name: "atomic_counter_min", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrAtomicCounterMax:      {Name: "atomic_counter_max", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrAtomicCounterAnd:      {Name: "atomic_counter_and", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrAtomicCounterOr:       {Name: "atomic_counter_or", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrAtomicCounterXor:      {Name: "atomic_counter_xor", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrAtomicCounterExchange: {Name: "atomic_counter_exchange", NumSrcs: 2, HasDest: true, Flags: HasBase},
	IntrAtomicCounterCompSwap: {Name: "atomic_counter_comp_swap", NumSrcs: 3, HasDest: true, Flags: HasBase},

	IntrImageLoad:           {Name: "image_load", NumSrcs: 3, HasDest: true, Flags: image},
	IntrImageStore:          {Name: "image_store", NumSrcs: 4, Flags: image},
	IntrImageSize:           {Name: "image_size", NumSrcs: 1, HasDest: true, Flags: image},
	IntrImageAtomicAdd:      {Name: "image_atomic_add", NumSrcs: 4, HasDest: true, Flags: image},
	IntrImageAtomicFAdd:     {Name: "image_atomic_fadd", NumSrcs: 4, HasDest: true, Flags: image},
	IntrImageAtomicIMin:     {Name: "image_atomic_imin", NumSrcs: 4, HasDest: true, Flags: image},
	IntrImageAtomicUMin:     {Name: "image_atomic_umin", NumSrcs: 4, HasDest: true, Flags: image},
	IntrImageAtomicIMax:     {Name: "image_atomic_imax", NumSrcs: 4, HasDest: true, Flags: image},
	IntrImageAtomicUMax:     {Name: "image_atomic_umax", NumSrcs: 4, HasDest: true, Flags: image},
	IntrImageAtomicAnd:      {Name: "image_atomic_and", NumSrcs: 4, HasDest: true, Flags: image},
	IntrImageAtomicOr:       {Name: "image_atomic_or", NumSrcs: 4, HasDest: true, Flags: image},
	IntrImageAtomicXor:      {Name: "image_atomic_xor", NumSrcs: 4, HasDest: true, Flags: image},
	IntrImageAtomicExchange: {Name: "image_atomic_exchange", NumSrcs: 4, HasDest: true, Flags: image},
	IntrImageAtomicCompSwap: {Name: "image_atomic_comp_swap", NumSrcs: 5, HasDest: true, Flags: image},

	IntrControlBarrier:             {Name: "control_barrier"},
	IntrMemoryBarrierTCSPatch:      {Name: "memory_barrier_tcs_patch"},
	IntrMemoryBarrier:              {Name: "memory_barrier"},
	IntrMemoryBarrierAtomicCounter: {Name: "memory_barrier_atomic_counter"},
	IntrMemoryBarrierBuffer:        {Name: "memory_barrier_buffer"},
	IntrMemoryBarrierImage:         {Name: "memory_barrier_image"},
	IntrMemoryBarrierShared:        {Name: "memory_barrier_shared"},
	IntrGroupMemoryBarrier:         {Name: "group_memory_barrier"},

	IntrEmitVertex:   {Name: "emit_vertex", Flags: HasStreamID},
	IntrEndPrimitive: {Name: "end_primitive", Flags: HasStreamID},

	IntrLoadBarycentricPixel:    {Name: "load_barycentric_pixel", HasDest: true},
	IntrLoadBarycentricCentroid: {Name: "load_barycentric_centroid", HasDest: true},
	IntrLoadBarycentricSample:   {Name: "load_barycentric_sample", HasDest: true},
	IntrLoadBarycentricAtSample: {Name: "load_barycentric_at_sample", NumSrcs: 1, HasDest: true},
	IntrLoadBarycentricAtOffset: {Name: "load_barycentric_at_offset", NumSrcs: 1, HasDest: true},
}

// Info returns the shape of the intrinsic.
func (i Intrinsic) Info() IntrinsicInfo {
	if i < numIntrinsics {
		return intrinsicInfos[i]
	}
	return IntrinsicInfo{Name: fmt.Sprintf("intrinsic%d", i)}
}

func (i Intrinsic) String() string { return i.Info().Name }

// Has reports whether the intrinsic carries all of the given indices.
func (i Intrinsic) Has(f IntrinsicFlags) bool { return i.Info().Flags&f == f }

var intrinsicsByName = func() map[string]Intrinsic {
	m := make(map[string]Intrinsic, numIntrinsics)
	for i := Intrinsic(0); i < numIntrinsics; i++ {
		m[intrinsicInfos[i].Name] = i
	}
	return m
}()

// ParseIntrinsic looks up an intrinsic by name.
func ParseIntrinsic(name string) (Intrinsic, error) {
	if i, ok := intrinsicsByName[name]; ok {
		return i, nil
	}
	return 0, fmt.Errorf("unknown intrinsic %q", name)
}

// IOSemantics describes the varying slot an I/O intrinsic addresses.
type IOSemantics struct {
	Location             int
	NumSlots             uint8
	DualSourceBlendIndex uint8
	// GSStreams holds a 2-bit stream index per component.
	GSStreams uint8
}
