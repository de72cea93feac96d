// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"math"
	"slices"

	"github.com/google/btree"

	"github.com/gogpu/ntt/nir"
)

// InputDecl describes an input register range.
type InputDecl struct {
	Semantic      Semantic
	SemanticIndex uint32
	Interpolate   Interpolate
	Location      InterpLocation
	// Index is the first register of the range.
	Index     int32
	UsageMask uint8
	ArrayID   uint32
	ArraySize uint32
}

// OutputDecl describes an output register range.
type OutputDecl struct {
	Semantic      Semantic
	SemanticIndex uint32
	Streams       uint8
	Index         int32
	UsageMask     uint8
	ArrayID       uint32
	ArraySize     uint32
}

type ioEntry struct {
	sem         Semantic
	semIndex    uint32
	interp      Interpolate
	loc         InterpLocation
	first, last int32
	usage       uint8
	arrayID     uint32
	streams     uint8
}

type semKey struct {
	sem   Semantic
	index uint32
}

type constRange struct{ first, last int32 }

type hwAtomic struct {
	first, last int32
	buffer      uint32
	arrayID     uint32
}

type samplerView struct {
	target TextureTarget
	ret    [4]ReturnType
}

type imageDecl struct {
	target   TextureTarget
	format   nir.ImageFormat
	writable bool
	raw      bool
}

// Builder assembles a Program. Declarations are deduplicated as they are
// requested; the declaration section is produced by Finish.
//
// Allocation failures do not abort building. They are recorded and
// reported by Err.
type Builder struct {
	processor  Processor
	properties map[PropertyName]uint32

	vsInputs     uint64
	inputs       []ioEntry
	nrInputRegs  int32
	outputs      []ioEntry
	nrOutputRegs int32
	sysvals      []semKey

	// tempArray records, per temporary, the array it belongs to (0: none).
	tempArray []uint32
	freeTemps *btree.BTreeG[int32]
	nrArrays  uint32
	maxTemps  int
	nrAddrs   int32

	constants map[uint32][]constRange
	atomics   []hwAtomic
	samplers  map[int32]bool
	views     map[int32]samplerView
	images    map[int32]imageDecl
	buffers   map[int32]bool
	memory    [4]bool

	immediates   []Immediate
	instructions []Instruction

	err error
}

// NewBuilder returns an empty builder for the given processor.
func NewBuilder(p Processor) *Builder {
	return &Builder{
		processor:  p,
		properties: make(map[PropertyName]uint32),
		freeTemps:  btree.NewOrderedG[int32](8),
		constants:  make(map[uint32][]constRange),
		samplers:   make(map[int32]bool),
		views:      make(map[int32]samplerView),
		images:     make(map[int32]imageDecl),
		buffers:    make(map[int32]bool),
	}
}

// Processor returns the processor the program is built for.
func (b *Builder) Processor() Processor { return b.processor }

// LimitTemps caps the number of temporary registers. Zero means no limit.
func (b *Builder) LimitTemps(n int) { b.maxTemps = n }

// Err returns the first allocation failure, if any.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(kind ErrorKind, format string, args ...any) {
	if b.err == nil {
		b.err = NewError(kind, format, args...)
	}
}

// SetProperty sets a program property, replacing any earlier value.
func (b *Builder) SetProperty(name PropertyName, value uint32) {
	b.properties[name] = value
}

// DeclareTemporary returns the lowest-numbered free temporary, growing the
// file when none is free.
func (b *Builder) DeclareTemporary() Dst {
	if idx, ok := b.freeTemps.DeleteMin(); ok {
		return Register(FileTemporary, idx).AsDst()
	}
	idx := int32(len(b.tempArray))
	b.tempArray = append(b.tempArray, 0)
	b.checkTemps()
	return Register(FileTemporary, idx).AsDst()
}

// DeclareArrayTemporary appends an indexable range of size temporaries.
// Array temporaries are never released.
func (b *Builder) DeclareArrayTemporary(size uint32) Dst {
	b.nrArrays++
	first := int32(len(b.tempArray))
	for i := uint32(0); i < size; i++ {
		b.tempArray = append(b.tempArray, b.nrArrays)
	}
	b.checkTemps()
	return ArrayRegister(FileTemporary, first, b.nrArrays).AsDst()
}

func (b *Builder) checkTemps() {
	if b.maxTemps > 0 && len(b.tempArray) > b.maxTemps {
		b.fail(ErrUnsupported, "shader needs more than %d temporaries", b.maxTemps)
	}
}

// ReleaseTemporary returns a temporary to the free list. Registers of
// other files and array elements are ignored.
func (b *Builder) ReleaseTemporary(d Dst) {
	if d.File != FileTemporary || d.Index < 0 || int(d.Index) >= len(b.tempArray) {
		return
	}
	if b.tempArray[d.Index] != 0 {
		return
	}
	b.freeTemps.ReplaceOrInsert(d.Index)
}

// NumTemps returns the size of the temporary file so far.
func (b *Builder) NumTemps() int { return len(b.tempArray) }

// DeclareAddress declares the next address register.
func (b *Builder) DeclareAddress() Dst {
	idx := b.nrAddrs
	b.nrAddrs++
	return Register(FileAddress, idx).AsDst()
}

// ImmFloat returns an operand reading the given float32 values.
func (b *Builder) ImmFloat(vals ...float32) Src {
	bits := make([]uint32, len(vals))
	for i, v := range vals {
		bits[i] = math.Float32bits(v)
	}
	return b.Immediate(ImmFloat32, bits)
}

// ImmUint returns an operand reading the given uint32 values.
func (b *Builder) ImmUint(vals ...uint32) Src { return b.Immediate(ImmUint32, vals) }

// ImmInt returns an operand reading the given int32 values.
func (b *Builder) ImmInt(vals ...int32) Src {
	bits := make([]uint32, len(vals))
	for i, v := range vals {
		bits[i] = uint32(v)
	}
	return b.Immediate(ImmInt32, bits)
}

// Immediate returns an operand reading up to four raw values of the given
// type. Values are packed into an existing immediate of the same type when
// they fit, and the returned swizzle selects them. Channels beyond
// len(vals) repeat the first one.
func (b *Builder) Immediate(typ ImmType, vals []uint32) Src {
	if len(vals) == 0 || len(vals) > 4 {
		b.fail(ErrInternal, "immediate with %d components", len(vals))
		return Src{}
	}
	var swz [4]uint8
	idx := -1
	for i := range b.immediates {
		if b.immediates[i].Type != typ {
			continue
		}
		if s, ok := matchOrExpand(&b.immediates[i], vals); ok {
			idx, swz = i, s
			break
		}
	}
	if idx < 0 {
		imm := Immediate{Type: typ, NumComponents: uint8(len(vals))}
		copy(imm.Values[:], vals)
		b.immediates = append(b.immediates, imm)
		idx = len(b.immediates) - 1
		for i := range vals {
			swz[i] = uint8(i)
		}
	}
	for i := len(vals); i < 4; i++ {
		swz[i] = swz[0]
	}
	src := Register(FileImmediate, int32(idx))
	src.Swizzle = swz
	return src
}

// matchOrExpand finds each value in imm, appending the ones it lacks while
// there is room. imm is only modified when every value fits.
func matchOrExpand(imm *Immediate, vals []uint32) ([4]uint8, bool) {
	var swz [4]uint8
	cand := *imm
	for i, v := range vals {
		j := slices.Index(cand.Values[:cand.NumComponents], v)
		if j < 0 {
			if cand.NumComponents >= 4 {
				return swz, false
			}
			j = int(cand.NumComponents)
			cand.Values[j] = v
			cand.NumComponents++
		}
		swz[i] = uint8(j)
	}
	*imm = cand
	return swz, true
}

// DeclareVSInput declares vertex attribute index.
func (b *Builder) DeclareVSInput(index int32) Src {
	if index < 0 || index >= 64 {
		b.fail(ErrUnsupported, "vertex input %d out of range", index)
		return Register(FileInput, index)
	}
	b.vsInputs |= 1 << uint(index)
	return Register(FileInput, index)
}

// DeclareInput declares an input range, merging usage masks with an
// earlier declaration of the same semantic and array.
func (b *Builder) DeclareInput(d InputDecl) Src {
	size := int32(max(d.ArraySize, 1))
	i := len(b.inputs)
	for j := range b.inputs {
		in := &b.inputs[j]
		if in.sem == d.Semantic && in.semIndex == d.SemanticIndex && in.arrayID == d.ArrayID {
			in.usage |= d.UsageMask
			i = j
			break
		}
	}
	if i == len(b.inputs) {
		b.inputs = append(b.inputs, ioEntry{
			sem:      d.Semantic,
			semIndex: d.SemanticIndex,
			interp:   d.Interpolate,
			loc:      d.Location,
			first:    d.Index,
			last:     d.Index + size - 1,
			usage:    d.UsageMask,
			arrayID:  d.ArrayID,
		})
		b.nrInputRegs = max(b.nrInputRegs, d.Index+size)
	}
	return ArrayRegister(FileInput, b.inputs[i].first, d.ArrayID)
}

// DeclareInputLayout declares a flat-interpolated input of a
// non-fragment stage.
func (b *Builder) DeclareInputLayout(sem Semantic, semIndex uint32, index int32, usage uint8, arrayID, arraySize uint32) Src {
	return b.DeclareInput(InputDecl{
		Semantic:      sem,
		SemanticIndex: semIndex,
		Interpolate:   InterpolateConstant,
		Location:      LocationCenter,
		Index:         index,
		UsageMask:     usage,
		ArrayID:       arrayID,
		ArraySize:     arraySize,
	})
}

// NumInputRegs returns one past the highest input register declared.
func (b *Builder) NumInputRegs() int32 { return b.nrInputRegs }

// DeclareOutputLayout declares an output range, merging usage masks and
// streams with an earlier declaration of the same semantic and array.
func (b *Builder) DeclareOutputLayout(d OutputDecl) Dst {
	size := int32(max(d.ArraySize, 1))
	i := len(b.outputs)
	for j := range b.outputs {
		out := &b.outputs[j]
		if out.sem == d.Semantic && out.semIndex == d.SemanticIndex && out.arrayID == d.ArrayID {
			out.usage |= d.UsageMask
			i = j
			break
		}
	}
	if i == len(b.outputs) {
		b.outputs = append(b.outputs, ioEntry{
			sem:      d.Semantic,
			semIndex: d.SemanticIndex,
			first:    d.Index,
			last:     d.Index + size - 1,
			usage:    d.UsageMask,
			arrayID:  d.ArrayID,
		})
		b.nrOutputRegs = max(b.nrOutputRegs, d.Index+size)
	}
	b.outputs[i].streams |= d.Streams
	return ArrayRegister(FileOutput, b.outputs[i].first, d.ArrayID).AsDst()
}

// DeclareOutput declares a single fully-used output at the next free
// register.
func (b *Builder) DeclareOutput(sem Semantic, semIndex uint32) Dst {
	return b.DeclareOutputLayout(OutputDecl{
		Semantic:      sem,
		SemanticIndex: semIndex,
		Index:         b.nrOutputRegs,
		UsageMask:     WriteMaskXYZW,
		ArraySize:     1,
	})
}

// DeclareSystemValue returns the system value register for a semantic.
func (b *Builder) DeclareSystemValue(sem Semantic, semIndex uint32) Src {
	key := semKey{sem, semIndex}
	i := slices.Index(b.sysvals, key)
	if i < 0 {
		b.sysvals = append(b.sysvals, key)
		i = len(b.sysvals) - 1
	}
	return Register(FileSystemValue, int32(i))
}

// DeclareConstant2D declares CONST[dim][first..last] and returns an
// operand reading its first element.
func (b *Builder) DeclareConstant2D(first, last int32, dim uint32) Src {
	ranges := b.constants[dim]
	merged := false
	for i := range ranges {
		r := &ranges[i]
		if first <= r.last+1 && last+1 >= r.first {
			r.first = min(r.first, first)
			r.last = max(r.last, last)
			merged = true
			break
		}
	}
	if !merged {
		ranges = append(ranges, constRange{first, last})
	}
	b.constants[dim] = ranges
	return Register(FileConstant, first).WithDimension(int32(dim))
}

// DeclareSampler declares SAMP[index].
func (b *Builder) DeclareSampler(index int32) Src {
	b.samplers[index] = true
	return Register(FileSampler, index)
}

// DeclareSamplerView declares SVIEW[index].
func (b *Builder) DeclareSamplerView(index int32, target TextureTarget, ret [4]ReturnType) Src {
	if _, ok := b.views[index]; !ok {
		b.views[index] = samplerView{target: target, ret: ret}
	}
	return Register(FileSamplerView, index)
}

// DeclareImage declares IMAGE[index].
func (b *Builder) DeclareImage(index int32, target TextureTarget, format nir.ImageFormat, writable, raw bool) Src {
	if _, ok := b.images[index]; !ok {
		b.images[index] = imageDecl{target: target, format: format, writable: writable, raw: raw}
	}
	return Register(FileImage, index)
}

// DeclareBuffer declares BUFFER[index].
func (b *Builder) DeclareBuffer(index int32, atomic bool) Src {
	if _, ok := b.buffers[index]; !ok {
		b.buffers[index] = atomic
	}
	return Register(FileBuffer, index)
}

// DeclareMemory declares the memory space of the given type.
func (b *Builder) DeclareMemory(typ MemoryType) Src {
	b.memory[typ&3] = true
	return Register(FileMemory, int32(typ))
}

// DeclareHWAtomic declares HWATOMIC[buffer][first..last].
func (b *Builder) DeclareHWAtomic(first, last int32, buffer, arrayID uint32) {
	b.atomics = append(b.atomics, hwAtomic{first: first, last: last, buffer: buffer, arrayID: arrayID})
}

// InstructionNumber returns the number the next instruction will get.
func (b *Builder) InstructionNumber() int { return len(b.instructions) }

// Insn appends an instruction and returns its number.
func (b *Builder) Insn(op Opcode, dsts []Dst, srcs []Src) int {
	b.instructions = append(b.instructions, Instruction{
		Opcode: op,
		Dst:    slices.Clone(dsts),
		Src:    slices.Clone(srcs),
	})
	return len(b.instructions) - 1
}

// Emit appends an instruction with at most one destination. An undefined
// dst means the instruction writes nothing.
func (b *Builder) Emit(op Opcode, dst Dst, srcs ...Src) int {
	var dsts []Dst
	if !dst.IsUndef() {
		dsts = []Dst{dst}
	}
	return b.Insn(op, dsts, srcs)
}

// Branch appends a labelled instruction and returns its number, which
// doubles as the label to pass to FixupLabel.
func (b *Builder) Branch(op Opcode, srcs ...Src) int {
	n := b.Insn(op, nil, srcs)
	b.instructions[n].HasLabel = true
	return n
}

// FixupLabel points the branch at label to instruction number target.
func (b *Builder) FixupLabel(label, target int) {
	b.instructions[label].Label = uint32(target)
}

// TexInsn appends a texture instruction.
func (b *Builder) TexInsn(op Opcode, dsts []Dst, target TextureTarget, ret ReturnType, offsets []TexOffset, srcs []Src) int {
	n := b.Insn(op, dsts, srcs)
	b.instructions[n].Texture = &TexInfo{Target: target, ReturnType: ret, Offsets: slices.Clone(offsets)}
	return n
}

// MemInsn appends a memory instruction.
func (b *Builder) MemInsn(op Opcode, dsts []Dst, srcs []Src, qualifier MemoryQualifier, target TextureTarget, format nir.ImageFormat) int {
	n := b.Insn(op, dsts, srcs)
	b.instructions[n].Memory = &MemInfo{Qualifier: qualifier, Texture: target, Format: format}
	return n
}

// Finish produces the program. The builder must not be used afterwards.
func (b *Builder) Finish() *Program {
	p := &Program{
		Processor:    b.processor,
		Immediates:   b.immediates,
		Instructions: b.instructions,
	}
	for name := PropertyName(0); name < numProperties; name++ {
		if v, ok := b.properties[name]; ok {
			p.Properties = append(p.Properties, Property{Name: name, Value: v})
		}
	}
	b.declareIO(p)
	b.declareResources(p)
	b.declareTemps(p)
	return p
}

func (b *Builder) declareIO(p *Program) {
	if b.processor == ProcessorVertex {
		for first := int32(0); first < 64; first++ {
			if b.vsInputs&(1<<uint(first)) == 0 {
				continue
			}
			last := first
			for last+1 < 64 && b.vsInputs&(1<<uint(last+1)) != 0 {
				last++
			}
			p.Declarations = append(p.Declarations, Declaration{
				File: FileInput, First: first, Last: last, UsageMask: WriteMaskXYZW,
			})
			first = last
		}
	}
	for _, in := range sortedIO(b.inputs) {
		p.Declarations = append(p.Declarations, Declaration{
			File:          FileInput,
			First:         in.first,
			Last:          in.last,
			UsageMask:     in.usage,
			HasSemantic:   true,
			Semantic:      in.sem,
			SemanticIndex: in.semIndex,
			HasInterp:     b.processor == ProcessorFragment,
			Interpolate:   in.interp,
			Location:      in.loc,
			ArrayID:       in.arrayID,
		})
	}
	for i, sv := range b.sysvals {
		p.Declarations = append(p.Declarations, Declaration{
			File:          FileSystemValue,
			First:         int32(i),
			Last:          int32(i),
			UsageMask:     WriteMaskXYZW,
			HasSemantic:   true,
			Semantic:      sv.sem,
			SemanticIndex: sv.index,
		})
	}
	for _, out := range sortedIO(b.outputs) {
		p.Declarations = append(p.Declarations, Declaration{
			File:          FileOutput,
			First:         out.first,
			Last:          out.last,
			UsageMask:     out.usage,
			HasSemantic:   true,
			Semantic:      out.sem,
			SemanticIndex: out.semIndex,
			ArrayID:       out.arrayID,
			Streams:       out.streams,
		})
	}
}

// sortedIO orders input or output entries by first register.
func sortedIO(entries []ioEntry) []ioEntry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b ioEntry) int { return int(a.first - b.first) })
	return out
}

func (b *Builder) declareResources(p *Program) {
	for _, idx := range sortedKeys(b.samplers) {
		p.Declarations = append(p.Declarations, Declaration{File: FileSampler, First: idx, Last: idx})
	}
	for _, idx := range sortedKeys(b.views) {
		v := b.views[idx]
		p.Declarations = append(p.Declarations, Declaration{
			File: FileSamplerView, First: idx, Last: idx, Texture: v.target, ReturnType: v.ret,
		})
	}
	for _, idx := range sortedKeys(b.images) {
		img := b.images[idx]
		p.Declarations = append(p.Declarations, Declaration{
			File: FileImage, First: idx, Last: idx,
			Texture: img.target, Format: img.format, Writable: img.writable, Raw: img.raw,
		})
	}
	for _, idx := range sortedKeys(b.buffers) {
		p.Declarations = append(p.Declarations, Declaration{
			File: FileBuffer, First: idx, Last: idx, Atomic: b.buffers[idx],
		})
	}
	for typ, used := range b.memory {
		if used {
			p.Declarations = append(p.Declarations, Declaration{
				File: FileMemory, First: int32(typ), Last: int32(typ), MemoryType: MemoryType(typ),
			})
		}
	}
	for _, dim := range sortedKeys(b.constants) {
		ranges := slices.Clone(b.constants[dim])
		slices.SortFunc(ranges, func(a, b constRange) int { return int(a.first - b.first) })
		for _, r := range ranges {
			p.Declarations = append(p.Declarations, Declaration{
				File: FileConstant, First: r.first, Last: r.last,
				HasDimension: true, Dimension: dim,
			})
		}
	}
	for _, a := range b.atomics {
		p.Declarations = append(p.Declarations, Declaration{
			File: FileHWAtomic, First: a.first, Last: a.last,
			HasDimension: true, Dimension: a.buffer, ArrayID: a.arrayID,
		})
	}
}

func (b *Builder) declareTemps(p *Program) {
	for first := 0; first < len(b.tempArray); {
		id := b.tempArray[first]
		last := first
		for last+1 < len(b.tempArray) && b.tempArray[last+1] == id {
			last++
		}
		p.Declarations = append(p.Declarations, Declaration{
			File: FileTemporary, First: int32(first), Last: int32(last),
			UsageMask: WriteMaskXYZW, ArrayID: id,
		})
		first = last + 1
	}
	if b.nrAddrs > 0 {
		p.Declarations = append(p.Declarations, Declaration{
			File: FileAddress, First: 0, Last: b.nrAddrs - 1, UsageMask: WriteMaskXYZW,
		})
	}
}

type ordered interface {
	~int32 | ~uint32
}

func sortedKeys[K ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
