// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"fmt"
	"math"
	"strings"
)

// String renders the program as a text listing.
func (p *Program) String() string {
	var sb strings.Builder
	sb.WriteString(p.Processor.String())
	sb.WriteByte('\n')
	for _, prop := range p.Properties {
		fmt.Fprintf(&sb, "PROPERTY %s %d\n", prop.Name, prop.Value)
	}
	for i := range p.Declarations {
		sb.WriteString(p.Declarations[i].String())
		sb.WriteByte('\n')
	}
	for i, imm := range p.Immediates {
		fmt.Fprintf(&sb, "IMM[%d] %s\n", i, imm)
	}
	for i := range p.Instructions {
		fmt.Fprintf(&sb, "%3d: %s\n", i, &p.Instructions[i])
	}
	return sb.String()
}

func (d *Declaration) String() string {
	var sb strings.Builder
	sb.WriteString("DCL ")
	sb.WriteString(d.File.String())
	if d.HasDimension {
		fmt.Fprintf(&sb, "[%d]", d.Dimension)
	}
	if d.First == d.Last {
		fmt.Fprintf(&sb, "[%d]", d.First)
	} else {
		fmt.Fprintf(&sb, "[%d..%d]", d.First, d.Last)
	}
	if d.UsageMask != 0 && d.UsageMask != WriteMaskXYZW && (d.File == FileInput || d.File == FileOutput) {
		sb.WriteString("." + maskString(d.UsageMask))
	}
	if d.ArrayID != 0 {
		fmt.Fprintf(&sb, ", ARRAY(%d)", d.ArrayID)
	}
	if d.HasSemantic {
		fmt.Fprintf(&sb, ", %s", d.Semantic)
		if d.SemanticIndex != 0 || d.Semantic == SemanticGeneric || d.Semantic == SemanticTexcoord || d.Semantic == SemanticPatch {
			fmt.Fprintf(&sb, "[%d]", d.SemanticIndex)
		}
	}
	if d.HasInterp {
		fmt.Fprintf(&sb, ", %s", d.Interpolate)
		if d.Location != LocationCenter {
			fmt.Fprintf(&sb, ", %s", d.Location)
		}
	}
	if d.Streams != 0 {
		fmt.Fprintf(&sb, ", STREAM(%d, %d, %d, %d)", d.Streams&3, d.Streams>>2&3, d.Streams>>4&3, d.Streams>>6&3)
	}
	switch d.File {
	case FileSamplerView:
		fmt.Fprintf(&sb, ", %s, %s", d.Texture, d.ReturnType[0])
		if d.ReturnType[1] != d.ReturnType[0] || d.ReturnType[2] != d.ReturnType[0] || d.ReturnType[3] != d.ReturnType[0] {
			fmt.Fprintf(&sb, ", %s, %s, %s", d.ReturnType[1], d.ReturnType[2], d.ReturnType[3])
		}
	case FileImage:
		fmt.Fprintf(&sb, ", %s, %s", d.Texture, d.Format)
		if d.Writable {
			sb.WriteString(", WR")
		}
		if d.Raw {
			sb.WriteString(", RAW")
		}
	case FileBuffer:
		if d.Atomic {
			sb.WriteString(", ATOMIC")
		}
	case FileMemory:
		fmt.Fprintf(&sb, ", %s", d.MemoryType)
	}
	return sb.String()
}

func (imm Immediate) String() string {
	vals := make([]string, imm.NumComponents)
	for i := range vals {
		v := imm.Values[i]
		switch imm.Type {
		case ImmFloat32:
			vals[i] = fmt.Sprintf("%10.4f", math.Float32frombits(v))
		case ImmInt32:
			vals[i] = fmt.Sprintf("%d", int32(v))
		default:
			vals[i] = fmt.Sprintf("%d", v)
		}
	}
	return fmt.Sprintf("%s {%s}", imm.Type, strings.Join(vals, ", "))
}

func (in *Instruction) String() string {
	var sb strings.Builder
	sb.WriteString(in.Opcode.String())
	if in.Saturate() {
		sb.WriteString("_SAT")
	}
	var ops []string
	for i := range in.Dst {
		ops = append(ops, in.Dst[i].String())
	}
	for i := range in.Src {
		ops = append(ops, in.Src[i].String())
	}
	if t := in.Texture; t != nil {
		ops = append(ops, t.Target.String())
		for _, off := range t.Offsets {
			ops = append(ops, fmt.Sprintf("%s[%d].%c%c%c", off.File, off.Index,
				swizzleChars[off.SwizzleX&3], swizzleChars[off.SwizzleY&3], swizzleChars[off.SwizzleZ&3]))
		}
	}
	if m := in.Memory; m != nil {
		if m.Qualifier&MemoryCoherent != 0 {
			ops = append(ops, "COHERENT")
		}
		if m.Qualifier&MemoryRestrict != 0 {
			ops = append(ops, "RESTRICT")
		}
		if m.Qualifier&MemoryVolatile != 0 {
			ops = append(ops, "VOLATILE")
		}
		if m.Texture != TextureBuffer || m.Format != 0 {
			ops = append(ops, m.Texture.String(), m.Format.String())
		}
	}
	if len(ops) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(strings.Join(ops, ", "))
	}
	if in.HasLabel {
		fmt.Fprintf(&sb, " :%d", in.Label)
	}
	return sb.String()
}
