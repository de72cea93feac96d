// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/ntt/nir"
)

// Record kinds. Every record starts with a word holding its payload
// length in the high 16 bits, the kind in bits 8-15 and a kind-specific
// sub-code in the low 8 bits.
const (
	recordProperty    = 1
	recordDeclaration = 2
	recordImmediate   = 3
	recordInstruction = 4
)

const headerWords = 3

// Operand flag bits.
const (
	operandNegate      = 1 << 16
	operandAbsolute    = 1 << 17
	operandIndirect    = 1 << 18
	operandDimension   = 1 << 19
	operandDimIndirect = 1 << 20
	operandSaturate    = 1 << 21
)

// Declaration flag bits.
const (
	declSemantic  = 1 << 0
	declInterp    = 1 << 1
	declDimension = 1 << 2
	declWritable  = 1 << 3
	declRaw       = 1 << 4
	declAtomic    = 1 << 5
)

// Instruction flag bits.
const (
	insnLabel   = 1 << 16
	insnTexture = 1 << 17
	insnMemory  = 1 << 18
)

func record(kind, sub uint8, payload []uint32) []uint32 {
	head := uint32(len(payload))<<16 | uint32(kind)<<8 | uint32(sub)
	return append([]uint32{head}, payload...)
}

// Tokens encodes the program as a token stream.
func (p *Program) Tokens() []uint32 {
	words := []uint32{MagicNumber, Version, uint32(p.Processor)}
	for _, prop := range p.Properties {
		words = append(words, record(recordProperty, uint8(prop.Name), []uint32{prop.Value})...)
	}
	for i := range p.Declarations {
		words = append(words, record(recordDeclaration, uint8(p.Declarations[i].File), encodeDecl(&p.Declarations[i]))...)
	}
	for _, imm := range p.Immediates {
		payload := append([]uint32{uint32(imm.NumComponents)}, imm.Values[:imm.NumComponents]...)
		words = append(words, record(recordImmediate, uint8(imm.Type), payload)...)
	}
	for i := range p.Instructions {
		in := &p.Instructions[i]
		words = append(words, record(recordInstruction, uint8(in.Opcode), encodeInsn(in))...)
	}
	return words
}

// Bytes encodes the program as little-endian token bytes.
func (p *Program) Bytes() []byte {
	words := p.Tokens()
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

func boolBit(b bool, bit uint32) uint32 {
	if b {
		return bit
	}
	return 0
}

func encodeDecl(d *Declaration) []uint32 {
	flags := boolBit(d.HasSemantic, declSemantic) | boolBit(d.HasInterp, declInterp) |
		boolBit(d.HasDimension, declDimension) | boolBit(d.Writable, declWritable) |
		boolBit(d.Raw, declRaw) | boolBit(d.Atomic, declAtomic)
	var ret uint32
	for i, r := range d.ReturnType {
		ret |= uint32(r&0xf) << (i * 4)
	}
	return []uint32{
		uint32(d.First),
		uint32(d.Last),
		uint32(d.UsageMask&0xf) | flags<<8 | uint32(d.Streams)<<16 | uint32(d.MemoryType&3)<<24,
		uint32(d.Semantic) | uint32(d.Interpolate&0xf)<<8 | uint32(d.Location&0xf)<<12 | uint32(d.Texture)<<16,
		d.SemanticIndex,
		d.Dimension,
		d.ArrayID,
		ret | uint32(d.Format)<<16,
	}
}

func encodeIndirect(ind Indirect) []uint32 {
	return []uint32{uint32(ind.File) | uint32(ind.Swizzle&3)<<8, uint32(ind.Index), ind.ArrayID}
}

func encodeSrc(words []uint32, s *Src) []uint32 {
	w := uint32(s.File)
	for i, c := range s.Swizzle {
		w |= uint32(c&3) << (8 + i*2)
	}
	w |= boolBit(s.Negate, operandNegate) | boolBit(s.Absolute, operandAbsolute) |
		boolBit(s.HasIndirect, operandIndirect) | boolBit(s.HasDimension, operandDimension) |
		boolBit(s.HasDimIndirect, operandDimIndirect)
	words = append(words, w, uint32(s.Index), s.ArrayID)
	return encodeExtra(words, s.HasIndirect, s.Indirect, s.HasDimension, s.Dimension, s.HasDimIndirect, s.DimIndirect)
}

func encodeDst(words []uint32, d *Dst) []uint32 {
	w := uint32(d.File) | uint32(d.WriteMask&0xf)<<8 |
		boolBit(d.Saturate, operandSaturate) | boolBit(d.HasIndirect, operandIndirect) |
		boolBit(d.HasDimension, operandDimension) | boolBit(d.HasDimIndirect, operandDimIndirect)
	words = append(words, w, uint32(d.Index), d.ArrayID)
	return encodeExtra(words, d.HasIndirect, d.Indirect, d.HasDimension, d.Dimension, d.HasDimIndirect, d.DimIndirect)
}

func encodeExtra(words []uint32, hasInd bool, ind Indirect, hasDim bool, dim int32, hasDimInd bool, dimInd Indirect) []uint32 {
	if hasInd {
		words = append(words, encodeIndirect(ind)...)
	}
	if hasDim {
		words = append(words, uint32(dim))
		if hasDimInd {
			words = append(words, encodeIndirect(dimInd)...)
		}
	}
	return words
}

func encodeInsn(in *Instruction) []uint32 {
	head := uint32(len(in.Dst)) | uint32(len(in.Src))<<8 |
		boolBit(in.HasLabel, insnLabel) | boolBit(in.Texture != nil, insnTexture) |
		boolBit(in.Memory != nil, insnMemory)
	words := []uint32{head}
	if in.HasLabel {
		words = append(words, in.Label)
	}
	if t := in.Texture; t != nil {
		words = append(words, uint32(t.Target)|uint32(t.ReturnType)<<8|uint32(len(t.Offsets))<<16)
		for _, off := range t.Offsets {
			words = append(words,
				uint32(off.File)|uint32(off.SwizzleX&3)<<8|uint32(off.SwizzleY&3)<<10|uint32(off.SwizzleZ&3)<<12,
				uint32(off.Index))
		}
	}
	if m := in.Memory; m != nil {
		words = append(words, uint32(m.Qualifier)|uint32(m.Texture)<<8|uint32(m.Format)<<16)
	}
	for i := range in.Dst {
		words = encodeDst(words, &in.Dst[i])
	}
	for i := range in.Src {
		words = encodeSrc(words, &in.Src[i])
	}
	return words
}

// ErrBadTokens is wrapped by every Decode failure.
var ErrBadTokens = errors.New("tgsi: malformed token stream")

// DecodeBytes decodes little-endian token bytes.
func DecodeBytes(data []byte) (*Program, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: length %d is not a multiple of 4", ErrBadTokens, len(data))
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return Decode(words)
}

// Decode decodes a token stream produced by Tokens.
func Decode(words []uint32) (*Program, error) {
	if len(words) < headerWords {
		return nil, fmt.Errorf("%w: truncated header", ErrBadTokens)
	}
	if words[0] != MagicNumber {
		return nil, fmt.Errorf("%w: bad magic 0x%08x", ErrBadTokens, words[0])
	}
	if words[1] != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadTokens, words[1])
	}
	p := &Program{Processor: Processor(words[2])}
	if p.Processor > ProcessorCompute {
		return nil, fmt.Errorf("%w: bad processor %d", ErrBadTokens, words[2])
	}

	for off := headerWords; off < len(words); {
		head := words[off]
		n := int(head >> 16)
		kind, sub := uint8(head>>8), uint8(head)
		if off+1+n > len(words) {
			return nil, fmt.Errorf("%w: record at word %d overruns the stream", ErrBadTokens, off)
		}
		r := &reader{words: words[off+1 : off+1+n]}
		switch kind {
		case recordProperty:
			p.Properties = append(p.Properties, Property{Name: PropertyName(sub), Value: r.next()})
		case recordDeclaration:
			p.Declarations = append(p.Declarations, r.decl(File(sub)))
		case recordImmediate:
			imm := Immediate{Type: ImmType(sub), NumComponents: uint8(r.next())}
			if imm.NumComponents > 4 {
				return nil, fmt.Errorf("%w: immediate with %d components", ErrBadTokens, imm.NumComponents)
			}
			for i := 0; i < int(imm.NumComponents); i++ {
				imm.Values[i] = r.next()
			}
			p.Immediates = append(p.Immediates, imm)
		case recordInstruction:
			op := Opcode(sub)
			if !op.Valid() {
				return nil, fmt.Errorf("%w: unknown opcode %d at word %d", ErrBadTokens, sub, off)
			}
			p.Instructions = append(p.Instructions, r.insn(op))
		default:
			return nil, fmt.Errorf("%w: unknown record kind %d at word %d", ErrBadTokens, kind, off)
		}
		if r.err != nil {
			return nil, fmt.Errorf("%w: record at word %d: %v", ErrBadTokens, off, r.err)
		}
		if r.pos != len(r.words) {
			return nil, fmt.Errorf("%w: record at word %d has %d trailing words", ErrBadTokens, off, len(r.words)-r.pos)
		}
		off += 1 + n
	}
	return p, nil
}

type reader struct {
	words []uint32
	pos   int
	err   error
}

func (r *reader) next() uint32 {
	if r.pos >= len(r.words) {
		if r.err == nil {
			r.err = errors.New("truncated")
		}
		return 0
	}
	w := r.words[r.pos]
	r.pos++
	return w
}

func (r *reader) decl(file File) Declaration {
	d := Declaration{File: file}
	d.First = int32(r.next())
	d.Last = int32(r.next())
	w := r.next()
	d.UsageMask = uint8(w & 0xf)
	flags := w >> 8 & 0xff
	d.Streams = uint8(w >> 16)
	d.MemoryType = MemoryType(w >> 24 & 3)
	d.HasSemantic = flags&declSemantic != 0
	d.HasInterp = flags&declInterp != 0
	d.HasDimension = flags&declDimension != 0
	d.Writable = flags&declWritable != 0
	d.Raw = flags&declRaw != 0
	d.Atomic = flags&declAtomic != 0
	w = r.next()
	d.Semantic = Semantic(w)
	d.Interpolate = Interpolate(w >> 8 & 0xf)
	d.Location = InterpLocation(w >> 12 & 0xf)
	d.Texture = TextureTarget(w >> 16)
	d.SemanticIndex = r.next()
	d.Dimension = r.next()
	d.ArrayID = r.next()
	w = r.next()
	for i := range d.ReturnType {
		d.ReturnType[i] = ReturnType(w >> (i * 4) & 0xf)
	}
	d.Format = nir.ImageFormat(w >> 16)
	return d
}

func (r *reader) indirect() Indirect {
	w := r.next()
	return Indirect{File: File(w), Swizzle: uint8(w >> 8 & 3), Index: int32(r.next()), ArrayID: r.next()}
}

func (r *reader) extra(w uint32) (hasInd bool, ind Indirect, hasDim bool, dim int32, hasDimInd bool, dimInd Indirect) {
	if w&operandIndirect != 0 {
		hasInd, ind = true, r.indirect()
	}
	if w&operandDimension != 0 {
		hasDim, dim = true, int32(r.next())
		if w&operandDimIndirect != 0 {
			hasDimInd, dimInd = true, r.indirect()
		}
	}
	return
}

func (r *reader) src() Src {
	w := r.next()
	s := Src{File: File(w), Negate: w&operandNegate != 0, Absolute: w&operandAbsolute != 0}
	for i := range s.Swizzle {
		s.Swizzle[i] = uint8(w >> (8 + i*2) & 3)
	}
	s.Index = int32(r.next())
	s.ArrayID = r.next()
	s.HasIndirect, s.Indirect, s.HasDimension, s.Dimension, s.HasDimIndirect, s.DimIndirect = r.extra(w)
	return s
}

func (r *reader) dst() Dst {
	w := r.next()
	d := Dst{File: File(w), WriteMask: uint8(w >> 8 & 0xf), Saturate: w&operandSaturate != 0}
	d.Index = int32(r.next())
	d.ArrayID = r.next()
	d.HasIndirect, d.Indirect, d.HasDimension, d.Dimension, d.HasDimIndirect, d.DimIndirect = r.extra(w)
	return d
}

func (r *reader) insn(op Opcode) Instruction {
	in := Instruction{Opcode: op}
	head := r.next()
	nd, ns := int(head&0xff), int(head>>8&0xff)
	if head&insnLabel != 0 {
		in.HasLabel = true
		in.Label = r.next()
	}
	if head&insnTexture != 0 {
		w := r.next()
		t := &TexInfo{Target: TextureTarget(w), ReturnType: ReturnType(w >> 8)}
		for i := 0; i < int(w>>16); i++ {
			ow := r.next()
			t.Offsets = append(t.Offsets, TexOffset{
				File:     File(ow),
				SwizzleX: uint8(ow >> 8 & 3),
				SwizzleY: uint8(ow >> 10 & 3),
				SwizzleZ: uint8(ow >> 12 & 3),
				Index:    int32(r.next()),
			})
		}
		in.Texture = t
	}
	if head&insnMemory != 0 {
		w := r.next()
		in.Memory = &MemInfo{Qualifier: MemoryQualifier(w), Texture: TextureTarget(w >> 8), Format: nir.ImageFormat(w >> 16)}
	}
	for i := 0; i < nd && r.err == nil; i++ {
		in.Dst = append(in.Dst, r.dst())
	}
	for i := 0; i < ns && r.err == nil; i++ {
		in.Src = append(in.Src, r.src())
	}
	return in
}
