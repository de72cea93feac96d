// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nir

import (
	"fmt"
	"strconv"
	"strings"
)

// Stage is a shader pipeline stage.
type Stage uint8

const (
	StageVertex Stage = iota
	StageTessCtrl
	StageTessEval
	StageGeometry
	StageFragment
	StageCompute
)

var stageNames = [...]string{
	StageVertex:   "vertex",
	StageTessCtrl: "tess_ctrl",
	StageTessEval: "tess_eval",
	StageGeometry: "geometry",
	StageFragment: "fragment",
	StageCompute:  "compute",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", s)
}

// ParseStage parses a stage name as printed by Stage.String.
func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if n == name {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown shader stage %q", name)
}

// BaseType is the scalar or opaque kind of a variable type.
type BaseType uint8

const (
	TypeFloat BaseType = iota
	TypeDouble
	TypeInt
	TypeUint
	TypeInt64
	TypeUint64
	TypeBool
	TypeSampler
	TypeImage
	TypeAtomicUint
	TypeStruct
	TypeInterface
)

var baseTypeNames = [...]string{
	TypeFloat:      "float",
	TypeDouble:     "double",
	TypeInt:        "int",
	TypeUint:       "uint",
	TypeInt64:      "int64",
	TypeUint64:     "uint64",
	TypeBool:       "bool",
	TypeSampler:    "sampler",
	TypeImage:      "image",
	TypeAtomicUint: "atomic_uint",
	TypeStruct:     "struct",
	TypeInterface:  "interface",
}

func (b BaseType) String() string {
	if int(b) < len(baseTypeNames) {
		return baseTypeNames[b]
	}
	return fmt.Sprintf("BaseType(%d)", b)
}

// ParseBaseType parses a base type name as printed by BaseType.String.
func ParseBaseType(name string) (BaseType, error) {
	for i, n := range baseTypeNames {
		if n == name {
			return BaseType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown base type %q", name)
}

// Is64Bit reports whether the base type occupies 64 bits per component.
func (b BaseType) Is64Bit() bool {
	return b == TypeDouble || b == TypeInt64 || b == TypeUint64
}

// SamplerDim is the dimensionality of a sampler or image.
type SamplerDim uint8

const (
	Dim1D SamplerDim = iota
	Dim2D
	Dim3D
	DimCube
	DimRect
	DimBuf
	DimMS
	DimExternal
)

var samplerDimNames = [...]string{
	Dim1D:       "1d",
	Dim2D:       "2d",
	Dim3D:       "3d",
	DimCube:     "cube",
	DimRect:     "rect",
	DimBuf:      "buf",
	DimMS:       "ms",
	DimExternal: "external",
}

func (d SamplerDim) String() string {
	if int(d) < len(samplerDimNames) {
		return samplerDimNames[d]
	}
	return fmt.Sprintf("SamplerDim(%d)", d)
}

// ParseSamplerDim parses a dimension name as printed by SamplerDim.String.
func ParseSamplerDim(name string) (SamplerDim, error) {
	for i, n := range samplerDimNames {
		if n == name {
			return SamplerDim(i), nil
		}
	}
	return 0, fmt.Errorf("unknown sampler dim %q", name)
}

// Type describes the type of a shader variable.
//
// Numeric types use Components and Columns (1 for vectors). Samplers and
// images use Dim, Arrayed, Shadow and Result. Interface blocks carry their
// explicit byte Size. ArrayLen > 0 makes the type an array of the element
// described by the remaining fields.
type Type struct {
	Base       BaseType
	Components uint8
	Columns    uint8
	ArrayLen   uint32

	Dim     SamplerDim
	Arrayed bool
	Shadow  bool
	Result  BaseType

	Size uint32
}

// Scalar returns a scalar of the given base type.
func Scalar(base BaseType) Type { return Type{Base: base, Components: 1, Columns: 1} }

// Vector returns an n-component vector of the given base type.
func Vector(base BaseType, n uint8) Type { return Type{Base: base, Components: n, Columns: 1} }

// Matrix returns a matrix with the given column count and column height.
func Matrix(base BaseType, columns, rows uint8) Type {
	return Type{Base: base, Components: rows, Columns: columns}
}

// Array wraps t in an array of n elements.
func Array(t Type, n uint32) Type {
	t.ArrayLen = n
	return t
}

// SamplerType returns a combined texture/sampler type.
func SamplerType(dim SamplerDim, arrayed, shadow bool, result BaseType) Type {
	return Type{Base: TypeSampler, Dim: dim, Arrayed: arrayed, Shadow: shadow, Result: result}
}

// ImageType returns a storage image type.
func ImageType(dim SamplerDim, arrayed bool, result BaseType) Type {
	return Type{Base: TypeImage, Dim: dim, Arrayed: arrayed, Result: result}
}

// InterfaceType returns a block type with an explicit byte size.
func InterfaceType(size uint32) Type { return Type{Base: TypeInterface, Size: size} }

// AtomicCounter returns an atomic counter type.
func AtomicCounter() Type { return Type{Base: TypeAtomicUint, Components: 1, Columns: 1} }

// IsArray reports whether the type is an array.
func (t Type) IsArray() bool { return t.ArrayLen > 0 }

// WithoutArray returns the element type of an array type, or t itself.
func (t Type) WithoutArray() Type {
	t.ArrayLen = 0
	return t
}

// Length returns the array length, or 1 for non-array types.
func (t Type) Length() uint32 {
	if t.ArrayLen == 0 {
		return 1
	}
	return t.ArrayLen
}

// Is64Bit reports whether the element type has 64-bit components.
func (t Type) Is64Bit() bool { return t.Base.Is64Bit() }

// IsSampler reports whether the element type is a sampler.
func (t Type) IsSampler() bool { return t.Base == TypeSampler }

// IsImage reports whether the element type is an image.
func (t Type) IsImage() bool { return t.Base == TypeImage }

// VectorElements returns the component count of the element type, or 0
// for non-numeric types.
func (t Type) VectorElements() int {
	switch t.Base {
	case TypeSampler, TypeImage, TypeStruct, TypeInterface:
		return 0
	}
	return int(t.Components)
}

// AttributeSlots returns the number of vec4 varying slots the type
// occupies. 64-bit vectors wider than two components take two slots per
// column.
func (t Type) AttributeSlots() int {
	elem := t.WithoutArray()
	var slots int
	switch elem.Base {
	case TypeStruct, TypeInterface:
		slots = 1
	default:
		cols := int(elem.Columns)
		if cols == 0 {
			cols = 1
		}
		per := 1
		if elem.Is64Bit() && elem.Components > 2 {
			per = 2
		}
		slots = cols * per
	}
	return slots * int(t.Length())
}

// SamplerCount returns how many sampler bindings the type uses.
func (t Type) SamplerCount() int {
	if !t.IsSampler() {
		return 0
	}
	return int(t.Length())
}

// ImageCount returns how many image bindings the type uses.
func (t Type) ImageCount() int {
	if !t.IsImage() {
		return 0
	}
	return int(t.Length())
}

// AtomicSize returns the byte size of an atomic counter type.
func (t Type) AtomicSize() uint32 {
	if t.Base != TypeAtomicUint {
		return 0
	}
	return 4 * t.Length()
}

func (t Type) String() string {
	var s string
	switch t.Base {
	case TypeSampler:
		s = "sampler" + t.Dim.String()
		if t.Arrayed {
			s += "Array"
		}
		if t.Shadow {
			s += "Shadow"
		}
		s += "<" + t.Result.String() + ">"
	case TypeImage:
		s = "image" + t.Dim.String()
		if t.Arrayed {
			s += "Array"
		}
		s += "<" + t.Result.String() + ">"
	case TypeInterface:
		s = fmt.Sprintf("interface(%d)", t.Size)
	default:
		s = t.Base.String()
		switch {
		case t.Columns > 1:
			s += fmt.Sprintf("%dx%d", t.Columns, t.Components)
		case t.Components > 1:
			s += fmt.Sprintf("%d", t.Components)
		}
	}
	if t.ArrayLen > 0 {
		s += fmt.Sprintf("[%d]", t.ArrayLen)
	}
	return s
}

// ParseType parses a type as printed by Type.String.
func ParseType(s string) (Type, error) {
	orig := s
	var t Type
	if strings.HasSuffix(s, "]") {
		open := strings.LastIndexByte(s, '[')
		if open < 0 {
			return t, fmt.Errorf("bad type %q", orig)
		}
		n, err := strconv.ParseUint(s[open+1:len(s)-1], 10, 32)
		if err != nil || n == 0 {
			return t, fmt.Errorf("bad array length in %q", orig)
		}
		t.ArrayLen = uint32(n)
		s = s[:open]
	}

	if rest, ok := strings.CutPrefix(s, "interface("); ok {
		n, err := strconv.ParseUint(strings.TrimSuffix(rest, ")"), 10, 32)
		if err != nil {
			return t, fmt.Errorf("bad interface size in %q", orig)
		}
		t.Base, t.Size = TypeInterface, uint32(n)
		return t, nil
	}

	for _, opaque := range []struct {
		prefix string
		base   BaseType
	}{{"sampler", TypeSampler}, {"image", TypeImage}} {
		rest, ok := strings.CutPrefix(s, opaque.prefix)
		if !ok {
			continue
		}
		lt := strings.IndexByte(rest, '<')
		if lt < 0 || !strings.HasSuffix(rest, ">") {
			return t, fmt.Errorf("missing result type in %q", orig)
		}
		result, err := ParseBaseType(rest[lt+1 : len(rest)-1])
		if err != nil {
			return t, err
		}
		name := rest[:lt]
		if n, ok := strings.CutSuffix(name, "Shadow"); ok {
			t.Shadow, name = true, n
		}
		if n, ok := strings.CutSuffix(name, "Array"); ok {
			t.Arrayed, name = true, n
		}
		dim, err := ParseSamplerDim(name)
		if err != nil {
			return t, err
		}
		t.Base, t.Dim, t.Result = opaque.base, dim, result
		return t, nil
	}

	best := -1
	for i, n := range baseTypeNames {
		if strings.HasPrefix(s, n) && (best < 0 || len(n) > len(baseTypeNames[best])) {
			best = i
		}
	}
	if best < 0 {
		return t, fmt.Errorf("unknown type %q", orig)
	}
	t.Base = BaseType(best)
	t.Components, t.Columns = 1, 1
	shape := s[len(baseTypeNames[best]):]
	if shape == "" {
		return t, nil
	}
	cols, rows, isMatrix := strings.Cut(shape, "x")
	a, err := strconv.ParseUint(cols, 10, 8)
	if err != nil || a < 1 || a > 4 {
		return t, fmt.Errorf("bad vector size in %q", orig)
	}
	if !isMatrix {
		t.Components = uint8(a)
		return t, nil
	}
	b, err := strconv.ParseUint(rows, 10, 8)
	if err != nil || b < 1 || b > 4 {
		return t, fmt.Errorf("bad matrix size in %q", orig)
	}
	t.Columns, t.Components = uint8(a), uint8(b)
	return t, nil
}
