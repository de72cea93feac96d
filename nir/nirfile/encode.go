// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nirfile

import (
	"fmt"
	"strings"

	"github.com/gogpu/ntt/nir"
)

func fromShader(s *nir.Shader) (*document, error) {
	if s.Entry == nil {
		return nil, fmt.Errorf("shader has no entry function")
	}
	stage := s.Info.Stage
	doc := &document{
		Name:  s.Name,
		Stage: stage.String(),
		Info:  fromInfo(&s.Info),
	}
	for _, v := range s.Variables {
		doc.Variables = append(doc.Variables, variable{
			Name:           v.Name,
			Mode:           v.Mode.String(),
			Type:           v.Type.String(),
			Location:       formatLoc(varLocKind(stage, v.Mode), v.Location),
			Frac:           v.LocationFrac,
			DriverLocation: v.DriverLocation,
			Binding:        v.Binding,
			Offset:         v.Offset,
			Interp:         optional(v.Interpolation != nir.InterpNone, v.Interpolation.String()),
			Centroid:       v.Centroid,
			Sample:         v.Sample,
			Access:         accessNames(v.Access),
			Format:         optional(v.Format != nir.FormatNone, v.Format.String()),
		})
	}
	for _, r := range s.Entry.Registers {
		doc.Registers = append(doc.Registers, register{Comps: r.NumComponents, Bits: r.BitSize, Array: r.NumArrayElems})
	}
	e := &encoder{stage: stage}
	doc.Body = e.list(s.Entry.Body)
	if e.err != nil {
		return nil, e.err
	}
	return doc, nil
}

func optional(ok bool, s string) string {
	if ok {
		return s
	}
	return ""
}

func accessNames(a nir.Access) []string {
	if a == 0 {
		return nil
	}
	return strings.Split(a.String(), "|")
}

func fromInfo(in *nir.ShaderInfo) info {
	out := info{
		NumSSBOs:             in.NumSSBOs,
		NumABOs:              in.NumABOs,
		FirstUBOIsDefaultUBO: in.FirstUBOIsDefaultUBO,
		WindowSpacePosition:  in.WindowSpacePosition,
		OriginUpperLeft:      in.OriginUpperLeft,
		PixelCenterInteger:   in.PixelCenterInteger,
		EarlyFragmentTests:   in.EarlyFragmentTests,
		InputPrimitive:       uint8(in.InputPrimitive),
		OutputPrimitive:      uint8(in.OutputPrimitive),
		VerticesOut:          in.VerticesOut,
		Invocations:          in.Invocations,
		TCSVerticesOut:       in.TCSVerticesOut,
		TESPrimitive:         uint8(in.TESPrimitive),
		TESSpacing:           uint8(in.TESSpacing),
		TESCCW:               in.TESCCW,
		TESPointMode:         in.TESPointMode,
		WorkgroupSizeVar:     in.WorkgroupSizeVariable,
		SharedSize:           in.SharedSize,
	}
	if in.WorkgroupSize != [3]uint16{} {
		out.WorkgroupSize = []int{int(in.WorkgroupSize[0]), int(in.WorkgroupSize[1]), int(in.WorkgroupSize[2])}
	}
	return out
}

type encoder struct {
	stage nir.Stage
	err   error
}

func (e *encoder) list(list []nir.CFNode) []node {
	var out []node
	for _, n := range list {
		switch n := n.(type) {
		case *nir.Block:
			for _, in := range n.Instrs {
				out = append(out, e.instr(in))
			}
		case *nir.If:
			out = append(out, node{If: formatSrc(&n.Condition), Then: e.list(n.Then), Else: e.list(n.Else)})
		case *nir.Loop:
			body := e.list(n.Body)
			if body == nil {
				body = []node{}
			}
			out = append(out, node{Loop: &body})
		}
	}
	return out
}

func destString(d *nir.Dest) string {
	if d.SSA != nil {
		return fmt.Sprintf("%%%d", d.SSA.Index)
	}
	s := nir.Src{Reg: d.Reg, BaseOffset: d.BaseOffset, Indirect: d.Indirect}
	return formatSrc(&s)
}

func (e *encoder) instr(instr nir.Instr) node {
	switch in := instr.(type) {
	case *nir.LoadConstInstr:
		values := make([]any, len(in.Values))
		for i, v := range in.Values {
			if in.Def.BitSize == 64 {
				values[i] = fmt.Sprintf("0x%016x", v)
			} else {
				values[i] = fmt.Sprintf("0x%08x", uint32(v))
			}
		}
		n := node{Dest: fmt.Sprintf("%%%d", in.Def.Index), Const: values}
		if in.Def.BitSize != 32 {
			n.Bits = in.Def.BitSize
		}
		return n
	case *nir.UndefInstr:
		return node{Dest: fmt.Sprintf("%%%d", in.Def.Index), Undef: true, Comps: in.Def.NumComponents, Bits: in.Def.BitSize}
	case *nir.JumpInstr:
		return node{Jump: in.Kind.String()}
	case *nir.AluInstr:
		n := node{Op: in.Op.String(), Dest: destString(&in.Dest), Sat: in.Saturate}
		for i := range in.Srcs {
			n.Srcs = append(n.Srcs, formatAluSrc(&in.Srcs[i]))
		}
		if in.Dest.SSA != nil {
			n.Comps, n.Bits = in.Dest.SSA.NumComponents, in.Dest.SSA.BitSize
		}
		if in.WriteMask != uint8(1<<in.Dest.NumComponents()-1) {
			n.WriteMask = nir.WriteMaskString(in.WriteMask)
		}
		return n
	case *nir.IntrinsicInstr:
		return e.intrinsic(in)
	case *nir.TexInstr:
		n := node{
			Tex:        in.Op.String(),
			Dest:       destString(&in.Dest),
			Comps:      in.Dest.NumComponents(),
			Dim:        in.SamplerDim.String(),
			Array:      in.IsArray,
			Shadow:     in.IsShadow,
			CoordComps: in.CoordComponents,
			Sampler:    in.SamplerIndex,
			Component:  in.Component,
			DestType:   optional(in.DestType != nir.TypeFloat, in.DestType.String()),
		}
		for _, s := range in.Srcs {
			n.Srcs = append(n.Srcs, s.Type.String()+":"+formatSrc(&s.Src))
		}
		return n
	}
	if e.err == nil {
		e.err = fmt.Errorf("cannot encode %T", instr)
	}
	return node{}
}

func (e *encoder) intrinsic(in *nir.IntrinsicInstr) node {
	intr := in.Intrinsic
	n := node{Intrinsic: intr.String(), Comps: in.NumComponents, Stream: in.StreamID, Component: in.Component}
	for i := range in.Srcs {
		n.Srcs = append(n.Srcs, formatSrc(&in.Srcs[i]))
	}
	if in.Dest != nil {
		n.Dest = destString(in.Dest)
		if in.Dest.SSA != nil {
			n.Comps, n.Bits = in.Dest.SSA.NumComponents, in.Dest.SSA.BitSize
		}
	}
	if intr.Has(nir.HasBase) {
		base := in.Base
		n.Base = &base
	}
	if intr.Has(nir.HasWriteMask) {
		n.WriteMask = nir.WriteMaskString(in.WriteMask)
	}
	if intr.Has(nir.HasIOSemantics) {
		n.Location = formatLoc(intrLocKind(e.stage, intr), in.IO.Location)
		if in.IO.NumSlots > 1 {
			n.NumSlots = in.IO.NumSlots
		}
		n.DualSource = in.IO.DualSourceBlendIndex
		n.GSStreams = in.IO.GSStreams
	}
	n.Access = accessNames(in.Access)
	if intr.Has(nir.HasImageDim) {
		n.ImageDim = in.ImageDim.String()
		n.ImageArray = in.ImageArray
	}
	if in.Format != nir.FormatNone {
		n.Format = in.Format.String()
	}
	return n
}
