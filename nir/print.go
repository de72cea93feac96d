// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nir

import (
	"fmt"
	"strings"
)

const swizzleChars = "xyzw"

// WriteMaskString renders a write mask as channel letters.
func WriteMaskString(mask uint8) string {
	var sb strings.Builder
	for i := 0; i < 4; i++ {
		if mask&(1<<i) != 0 {
			sb.WriteByte(swizzleChars[i])
		}
	}
	return sb.String()
}

// Print renders the shader in a readable listing. The entry function
// should have been indexed.
func Print(s *Shader) string {
	p := &printer{}
	p.line("shader: %s %s", s.Info.Stage, s.Name)
	for _, v := range s.Variables {
		p.line("%s", v)
	}
	if f := s.Entry; f != nil {
		for _, r := range f.Registers {
			if r.NumArrayElems > 0 {
				p.line("decl_reg vec%d %d r%d[%d]", r.NumComponents, r.BitSize, r.Index, r.NumArrayElems)
			} else {
				p.line("decl_reg vec%d %d r%d", r.NumComponents, r.BitSize, r.Index)
			}
		}
		p.line("impl %s {", f.Name)
		p.indent++
		p.list(f.Body)
		p.indent--
		p.line("}")
	}
	return p.sb.String()
}

type printer struct {
	sb     strings.Builder
	indent int
}

func (p *printer) line(format string, args ...any) {
	p.sb.WriteString(strings.Repeat("  ", p.indent))
	fmt.Fprintf(&p.sb, format, args...)
	p.sb.WriteByte('\n')
}

func (p *printer) list(list []CFNode) {
	for _, n := range list {
		switch n := n.(type) {
		case *Block:
			p.line("block b%d:", n.Index)
			p.indent++
			for _, in := range n.Instrs {
				p.line("%s", FormatInstr(in))
			}
			p.indent--
		case *If:
			p.line("if %s {", n.Condition.String())
			p.indent++
			p.list(n.Then)
			p.indent--
			p.line("} else {")
			p.indent++
			p.list(n.Else)
			p.indent--
			p.line("}")
		case *Loop:
			p.line("loop {")
			p.indent++
			p.list(n.Body)
			p.indent--
			p.line("}")
		}
	}
}

func defPrefix(d *Dest) string {
	if d == nil {
		return ""
	}
	if d.SSA != nil {
		return fmt.Sprintf("%%%d = vec%d %d ", d.SSA.Index, d.SSA.NumComponents, d.SSA.BitSize)
	}
	return d.String() + " = "
}

func aluSrcString(s *AluSrc, n uint8) string {
	str := s.Src.String()
	if s.Abs {
		str = "|" + str + "|"
	}
	if s.Negate {
		str = "-" + str
	}
	if n == 0 {
		n = 1
	}
	var sw strings.Builder
	for i := uint8(0); i < n && i < 4; i++ {
		sw.WriteByte(swizzleChars[s.Swizzle[i]&3])
	}
	return str + "." + sw.String()
}

// FormatInstr renders a single instruction.
func FormatInstr(instr Instr) string {
	switch in := instr.(type) {
	case *AluInstr:
		info := in.Op.Info()
		parts := make([]string, len(in.Srcs))
		for i := range in.Srcs {
			n := info.InputSizes[i%4]
			if n == 0 {
				n = in.Dest.NumComponents()
			}
			parts[i] = aluSrcString(&in.Srcs[i], n)
		}
		op := info.Name
		if in.Saturate {
			op += ".sat"
		}
		str := defPrefix(&in.Dest) + op + " " + strings.Join(parts, ", ")
		if in.Dest.SSA == nil {
			str += " (wrmask=" + WriteMaskString(in.WriteMask) + ")"
		}
		return str
	case *IntrinsicInstr:
		parts := make([]string, len(in.Srcs))
		for i := range in.Srcs {
			parts[i] = in.Srcs[i].String()
		}
		str := defPrefix(in.Dest) + in.Intrinsic.String()
		if len(parts) > 0 {
			str += " " + strings.Join(parts, ", ")
		}
		if idx := intrinsicIndices(in); idx != "" {
			str += " (" + idx + ")"
		}
		return str
	case *TexInstr:
		parts := make([]string, len(in.Srcs))
		for i := range in.Srcs {
			parts[i] = fmt.Sprintf("%s (%s)", in.Srcs[i].Src.String(), in.Srcs[i].Type)
		}
		return fmt.Sprintf("%s%s %s (sampler=%d, dim=%s)", defPrefix(&in.Dest), in.Op, strings.Join(parts, ", "), in.SamplerIndex, in.SamplerDim)
	case *LoadConstInstr:
		vals := make([]string, len(in.Values))
		for i, v := range in.Values {
			if in.Def.BitSize == 64 {
				vals[i] = fmt.Sprintf("0x%016x", v)
			} else {
				vals[i] = fmt.Sprintf("0x%08x", uint32(v))
			}
		}
		return fmt.Sprintf("%%%d = load_const (%s)", in.Def.Index, strings.Join(vals, ", "))
	case *UndefInstr:
		return fmt.Sprintf("%%%d = vec%d %d undefined", in.Def.Index, in.Def.NumComponents, in.Def.BitSize)
	case *JumpInstr:
		return in.Kind.String()
	}
	return fmt.Sprintf("%T", instr)
}

func intrinsicIndices(in *IntrinsicInstr) string {
	var idx []string
	if in.Intrinsic.Has(HasBase) {
		idx = append(idx, fmt.Sprintf("base=%d", in.Base))
	}
	if in.Intrinsic.Has(HasComponent) && in.Component != 0 {
		idx = append(idx, fmt.Sprintf("component=%d", in.Component))
	}
	if in.Intrinsic.Has(HasWriteMask) {
		idx = append(idx, "wrmask="+WriteMaskString(in.WriteMask))
	}
	if in.Intrinsic.Has(HasIOSemantics) {
		idx = append(idx, "location="+VaryingSlotName(in.IO.Location))
	}
	if in.Intrinsic.Has(HasAccess) && in.Access != 0 {
		idx = append(idx, "access="+in.Access.String())
	}
	if in.Intrinsic.Has(HasImageDim) {
		dim := in.ImageDim.String()
		if in.ImageArray {
			dim += "[]"
		}
		idx = append(idx, "dim="+dim)
	}
	if in.Intrinsic.Has(HasStreamID) && in.StreamID != 0 {
		idx = append(idx, fmt.Sprintf("stream=%d", in.StreamID))
	}
	return strings.Join(idx, ", ")
}
