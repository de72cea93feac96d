// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nirfile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/ntt/nir"
)

type locKind uint8

const (
	locNumber locKind = iota
	locVarying
	locFragResult
)

func varLocKind(stage nir.Stage, mode nir.Mode) locKind {
	switch {
	case mode == nir.ModeShaderOut && stage == nir.StageFragment:
		return locFragResult
	case mode == nir.ModeShaderIn && stage == nir.StageVertex:
		return locNumber
	case mode == nir.ModeShaderIn || mode == nir.ModeShaderOut:
		return locVarying
	}
	return locNumber
}

func intrLocKind(stage nir.Stage, intr nir.Intrinsic) locKind {
	switch intr {
	case nir.IntrStoreOutput, nir.IntrLoadOutput:
		if stage == nir.StageFragment {
			return locFragResult
		}
	case nir.IntrLoadInput:
		if stage == nir.StageVertex {
			return locNumber
		}
	}
	return locVarying
}

func parseLoc(k locKind, s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	switch k {
	case locVarying:
		return nir.ParseVaryingSlot(s)
	case locFragResult:
		return nir.ParseFragResult(s)
	}
	return strconv.Atoi(s)
}

func formatLoc(k locKind, v int) string {
	switch k {
	case locVarying:
		return nir.VaryingSlotName(v)
	case locFragResult:
		return nir.FragResultName(v)
	}
	return strconv.Itoa(v)
}

type loader struct {
	shader *nir.Shader
	b      *nir.Builder
	defs   map[int]*nir.Def
	err    error
}

func (doc *document) build() (*nir.Shader, error) {
	stage, err := nir.ParseStage(doc.Stage)
	if err != nil {
		return nil, err
	}
	s := nir.NewShader(stage)
	s.Name = doc.Name
	doc.Info.apply(&s.Info)

	for i := range doc.Variables {
		v, err := doc.Variables[i].build(stage)
		if err != nil {
			return nil, fmt.Errorf("variable %d: %w", i, err)
		}
		s.AddVariable(v)
	}

	l := &loader{shader: s, b: nir.NewBuilder(s), defs: make(map[int]*nir.Def)}
	for _, r := range doc.Registers {
		l.b.Register(r.Comps, r.Bits, r.Array)
	}
	l.list(doc.Body)
	if l.err != nil {
		return nil, l.err
	}
	return l.b.Finish(), nil
}

func (in *info) apply(out *nir.ShaderInfo) {
	out.NumSSBOs = in.NumSSBOs
	out.NumABOs = in.NumABOs
	out.FirstUBOIsDefaultUBO = in.FirstUBOIsDefaultUBO
	out.WindowSpacePosition = in.WindowSpacePosition
	out.OriginUpperLeft = in.OriginUpperLeft
	out.PixelCenterInteger = in.PixelCenterInteger
	out.EarlyFragmentTests = in.EarlyFragmentTests
	out.InputPrimitive = nir.Primitive(in.InputPrimitive)
	out.OutputPrimitive = nir.Primitive(in.OutputPrimitive)
	out.VerticesOut = in.VerticesOut
	out.Invocations = in.Invocations
	out.TCSVerticesOut = in.TCSVerticesOut
	out.TESPrimitive = nir.Primitive(in.TESPrimitive)
	out.TESSpacing = nir.TessSpacing(in.TESSpacing)
	out.TESCCW = in.TESCCW
	out.TESPointMode = in.TESPointMode
	for i := 0; i < len(in.WorkgroupSize) && i < 3; i++ {
		out.WorkgroupSize[i] = uint16(in.WorkgroupSize[i])
	}
	out.WorkgroupSizeVariable = in.WorkgroupSizeVar
	out.SharedSize = in.SharedSize
}

func (v *variable) build(stage nir.Stage) (*nir.Variable, error) {
	mode, err := nir.ParseMode(v.Mode)
	if err != nil {
		return nil, err
	}
	typ, err := nir.ParseType(v.Type)
	if err != nil {
		return nil, err
	}
	loc, err := parseLoc(varLocKind(stage, mode), v.Location)
	if err != nil {
		return nil, err
	}
	out := &nir.Variable{
		Name:           v.Name,
		Mode:           mode,
		Type:           typ,
		Location:       loc,
		LocationFrac:   v.Frac,
		DriverLocation: v.DriverLocation,
		Binding:        v.Binding,
		Offset:         v.Offset,
		Centroid:       v.Centroid,
		Sample:         v.Sample,
	}
	if v.Interp != "" {
		if out.Interpolation, err = nir.ParseInterpolation(v.Interp); err != nil {
			return nil, err
		}
	}
	if out.Access, err = parseAccess(v.Access); err != nil {
		return nil, err
	}
	if v.Format != "" {
		if out.Format, err = nir.ParseImageFormat(v.Format); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseAccess(names []string) (nir.Access, error) {
	var a nir.Access
	for _, n := range names {
		bit, err := nir.ParseAccess(n)
		if err != nil {
			return 0, err
		}
		a |= bit
	}
	return a, nil
}

func (l *loader) fail(format string, args ...any) {
	if l.err == nil {
		l.err = fmt.Errorf(format, args...)
	}
}

func (l *loader) list(nodes []node) {
	for i := range nodes {
		if l.err != nil {
			return
		}
		l.node(&nodes[i])
	}
}

func (l *loader) node(n *node) {
	switch {
	case n.Const != nil:
		l.loadConst(n)
	case n.Undef:
		d := l.newDef(n.Dest, n.Comps, n.Bits)
		if d != nil {
			l.b.Insert(&nir.UndefInstr{Def: d})
		}
	case n.Op != "":
		l.alu(n)
	case n.Intrinsic != "":
		l.intrinsic(n)
	case n.Tex != "":
		l.tex(n)
	case n.Jump != "":
		kind, err := nir.ParseJumpKind(n.Jump)
		if err != nil {
			l.fail("%v", err)
			return
		}
		l.b.Insert(&nir.JumpInstr{Kind: kind})
	case n.If != "":
		cond, ok := l.src(n.If)
		if !ok {
			return
		}
		l.b.If(cond, func() { l.list(n.Then) }, func() { l.list(n.Else) })
	case n.Loop != nil:
		l.b.Loop(func() { l.list(*n.Loop) })
	default:
		l.fail("body entry selects no instruction kind")
	}
}

func (l *loader) newDef(name string, comps, bits uint8) *nir.Def {
	op, err := parseOperand(name)
	if err != nil || op.ssa < 0 {
		l.fail("bad definition %q", name)
		return nil
	}
	if _, dup := l.defs[op.ssa]; dup {
		l.fail("%s defined twice", name)
		return nil
	}
	if comps == 0 {
		comps = 1
	}
	if bits == 0 {
		bits = 32
	}
	d := l.b.Func().NewDef(comps, bits)
	l.defs[op.ssa] = d
	return d
}

func (l *loader) resolve(op *operand, text string) (nir.Src, bool) {
	switch {
	case op.ssa >= 0:
		d, ok := l.defs[op.ssa]
		if !ok {
			l.fail("use of undefined value %q", text)
			return nir.Src{}, false
		}
		return nir.SSASrc(d), true
	case op.reg >= 0:
		regs := l.b.Func().Registers
		if op.reg >= len(regs) {
			l.fail("use of undeclared register %q", text)
			return nir.Src{}, false
		}
		s := nir.Src{Reg: regs[op.reg], BaseOffset: op.offset}
		if op.indirect != nil {
			ind, ok := l.resolve(op.indirect, text)
			if !ok {
				return nir.Src{}, false
			}
			s.Indirect = &ind
		}
		return s, true
	}
	l.fail("bad operand %q", text)
	return nir.Src{}, false
}

func (l *loader) src(text string) (nir.Src, bool) {
	op, err := parseOperand(text)
	if err != nil {
		l.fail("%v", err)
		return nir.Src{}, false
	}
	return l.resolve(op, text)
}

func (l *loader) aluSrc(text string) (nir.AluSrc, bool) {
	op, err := parseOperand(text)
	if err != nil {
		l.fail("%v", err)
		return nir.AluSrc{}, false
	}
	s, ok := l.resolve(op, text)
	return nir.AluSrc{Src: s, Swizzle: op.swizzle, Abs: op.abs, Negate: op.negate}, ok
}

// dest parses a destination. SSA destinations get a fresh definition of
// the given shape.
func (l *loader) dest(text string, comps, bits uint8) (nir.Dest, bool) {
	if strings.HasPrefix(strings.TrimSpace(text), "%") {
		d := l.newDef(text, comps, bits)
		return nir.Dest{SSA: d}, d != nil
	}
	s, ok := l.src(text)
	if !ok {
		return nir.Dest{}, false
	}
	return nir.Dest{Reg: s.Reg, BaseOffset: s.BaseOffset, Indirect: s.Indirect}, true
}

func (l *loader) loadConst(n *node) {
	bits := n.Bits
	if bits == 0 {
		bits = 32
	}
	values := make([]uint64, len(n.Const))
	for i, v := range n.Const {
		bitsv, err := constBits(v, bits)
		if err != nil {
			l.fail("const %s: %v", n.Dest, err)
			return
		}
		values[i] = bitsv
	}
	d := l.newDef(n.Dest, uint8(len(values)), bits)
	if d != nil {
		l.b.Insert(&nir.LoadConstInstr{Def: d, Values: values})
	}
}

func constBits(v any, bits uint8) (uint64, error) {
	mask := uint64(math.MaxUint64)
	if bits == 32 {
		mask = math.MaxUint32
	}
	switch v := v.(type) {
	case int:
		return uint64(v) & mask, nil
	case uint64:
		return v & mask, nil
	case bool:
		if v {
			return mask, nil
		}
		return 0, nil
	case float64:
		if bits == 64 {
			return math.Float64bits(v), nil
		}
		return uint64(math.Float32bits(float32(v))), nil
	case string:
		if u, err := strconv.ParseUint(v, 0, 64); err == nil {
			return u & mask, nil
		}
		if i, err := strconv.ParseInt(v, 0, 64); err == nil {
			return uint64(i) & mask, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("bad constant %q", v)
		}
		return constBits(f, bits)
	}
	return 0, fmt.Errorf("bad constant %v", v)
}

func (l *loader) alu(n *node) {
	op, err := nir.ParseOp(n.Op)
	if err != nil {
		l.fail("%v", err)
		return
	}
	srcs := make([]nir.AluSrc, len(n.Srcs))
	for i, text := range n.Srcs {
		var ok bool
		if srcs[i], ok = l.aluSrc(text); !ok {
			return
		}
	}
	comps, bits := nir.AluResultShape(op, srcs)
	if n.Comps != 0 {
		comps = n.Comps
	}
	if n.Bits != 0 {
		bits = n.Bits
	}
	dest, ok := l.dest(n.Dest, comps, bits)
	if !ok {
		return
	}
	mask := uint8(1<<dest.NumComponents() - 1)
	if n.WriteMask != "" {
		if mask, err = parseMask(n.WriteMask); err != nil {
			l.fail("%v", err)
			return
		}
	}
	l.b.Insert(&nir.AluInstr{Op: op, Srcs: srcs, Dest: dest, WriteMask: mask, Saturate: n.Sat})
}

func (l *loader) intrinsic(n *node) {
	intr, err := nir.ParseIntrinsic(n.Intrinsic)
	if err != nil {
		l.fail("%v", err)
		return
	}
	in := &nir.IntrinsicInstr{
		Intrinsic:  intr,
		Component:  n.Component,
		ImageArray: n.ImageArray,
		StreamID:   n.Stream,
	}
	for _, text := range n.Srcs {
		s, ok := l.src(text)
		if !ok {
			return
		}
		in.Srcs = append(in.Srcs, s)
	}
	if n.Base != nil {
		in.Base = *n.Base
	}
	if intr.Has(nir.HasIOSemantics) {
		loc, err := parseLoc(intrLocKind(l.shader.Info.Stage, intr), n.Location)
		if err != nil {
			l.fail("%v", err)
			return
		}
		slots := n.NumSlots
		if slots == 0 {
			slots = 1
		}
		in.IO = nir.IOSemantics{Location: loc, NumSlots: slots, DualSourceBlendIndex: n.DualSource, GSStreams: n.GSStreams}
	}
	if in.Access, err = parseAccess(n.Access); err != nil {
		l.fail("%v", err)
		return
	}
	if n.ImageDim != "" {
		if in.ImageDim, err = nir.ParseSamplerDim(n.ImageDim); err != nil {
			l.fail("%v", err)
			return
		}
	}
	if n.Format != "" {
		if in.Format, err = nir.ParseImageFormat(n.Format); err != nil {
			l.fail("%v", err)
			return
		}
	}
	if n.WriteMask != "" {
		if in.WriteMask, err = parseMask(n.WriteMask); err != nil {
			l.fail("%v", err)
			return
		}
	}
	in.NumComponents = n.Comps
	if n.Dest != "" {
		d, ok := l.dest(n.Dest, n.Comps, n.Bits)
		if !ok {
			return
		}
		in.Dest = &d
		if in.NumComponents == 0 {
			in.NumComponents = d.NumComponents()
		}
	} else if in.NumComponents == 0 && intr.Has(nir.HasWriteMask) && len(in.Srcs) > 0 {
		in.NumComponents = in.Srcs[0].NumComponents()
	}
	l.b.Insert(in)
}

func (l *loader) tex(n *node) {
	op, err := nir.ParseTexOp(n.Tex)
	if err != nil {
		l.fail("%v", err)
		return
	}
	t := &nir.TexInstr{
		Op:              op,
		IsArray:         n.Array,
		IsShadow:        n.Shadow,
		CoordComponents: n.CoordComps,
		SamplerIndex:    n.Sampler,
		Component:       n.Component,
		DestType:        nir.TypeFloat,
	}
	if n.Dim != "" {
		if t.SamplerDim, err = nir.ParseSamplerDim(n.Dim); err != nil {
			l.fail("%v", err)
			return
		}
	}
	if n.DestType != "" {
		if t.DestType, err = nir.ParseBaseType(n.DestType); err != nil {
			l.fail("%v", err)
			return
		}
	}
	for _, text := range n.Srcs {
		role, ref, ok := strings.Cut(text, ":")
		if !ok {
			l.fail("texture source %q lacks a role", text)
			return
		}
		typ, err := nir.ParseTexSrcType(strings.TrimSpace(role))
		if err != nil {
			l.fail("%v", err)
			return
		}
		s, ok := l.src(ref)
		if !ok {
			return
		}
		t.Srcs = append(t.Srcs, nir.TexSrc{Type: typ, Src: s})
	}
	comps := n.Comps
	if comps == 0 {
		comps = 4
	}
	dest, ok := l.dest(n.Dest, comps, n.Bits)
	if !ok {
		return
	}
	t.Dest = dest
	l.b.Insert(t)
}
