// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nir

import "fmt"

// Mode is the storage class of a variable.
type Mode uint8

const (
	ModeShaderIn Mode = iota
	ModeShaderOut
	ModeUniform
	ModeUBO
	ModeSSBO
	ModeShared
)

var modeNames = [...]string{
	ModeShaderIn:  "in",
	ModeShaderOut: "out",
	ModeUniform:   "uniform",
	ModeUBO:       "ubo",
	ModeSSBO:      "ssbo",
	ModeShared:    "shared",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// ParseMode parses a mode name as printed by Mode.String.
func ParseMode(name string) (Mode, error) {
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown variable mode %q", name)
}

// Interpolation is a varying interpolation qualifier.
type Interpolation uint8

const (
	InterpNone Interpolation = iota
	InterpSmooth
	InterpFlat
	InterpNoPerspective
)

var interpNames = [...]string{
	InterpNone:          "none",
	InterpSmooth:        "smooth",
	InterpFlat:          "flat",
	InterpNoPerspective: "noperspective",
}

func (i Interpolation) String() string {
	if int(i) < len(interpNames) {
		return interpNames[i]
	}
	return fmt.Sprintf("Interpolation(%d)", i)
}

// ParseInterpolation parses a qualifier as printed by Interpolation.String.
func ParseInterpolation(name string) (Interpolation, error) {
	for i, n := range interpNames {
		if n == name {
			return Interpolation(i), nil
		}
	}
	return 0, fmt.Errorf("unknown interpolation %q", name)
}

// Access is a set of memory access qualifiers.
type Access uint8

const (
	AccessCoherent Access = 1 << iota
	AccessVolatile
	AccessRestrict
	AccessNonWriteable
	AccessNonReadable
)

var accessNames = []struct {
	bit  Access
	name string
}{
	{AccessCoherent, "coherent"},
	{AccessVolatile, "volatile"},
	{AccessRestrict, "restrict"},
	{AccessNonWriteable, "readonly"},
	{AccessNonReadable, "writeonly"},
}

func (a Access) String() string {
	s := ""
	for _, n := range accessNames {
		if a&n.bit != 0 {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	return s
}

// ParseAccess parses a single access qualifier name.
func ParseAccess(name string) (Access, error) {
	for _, n := range accessNames {
		if n.name == name {
			return n.bit, nil
		}
	}
	return 0, fmt.Errorf("unknown access qualifier %q", name)
}

// ImageFormat is a storage image texel format.
type ImageFormat uint16

const (
	FormatNone ImageFormat = iota
	FormatR32Float
	FormatR32Uint
	FormatR32Sint
	FormatRG32Float
	FormatRGBA32Float
	FormatRGBA32Uint
	FormatRGBA32Sint
	FormatRGBA16Float
	FormatRGBA8Unorm
	FormatRGBA8Snorm
	FormatRGBA8Uint
	FormatRGBA8Sint
)

var formatNames = [...]string{
	FormatNone:        "NONE",
	FormatR32Float:    "R32_FLOAT",
	FormatR32Uint:     "R32_UINT",
	FormatR32Sint:     "R32_SINT",
	FormatRG32Float:   "R32G32_FLOAT",
	FormatRGBA32Float: "R32G32B32A32_FLOAT",
	FormatRGBA32Uint:  "R32G32B32A32_UINT",
	FormatRGBA32Sint:  "R32G32B32A32_SINT",
	FormatRGBA16Float: "R16G16B16A16_FLOAT",
	FormatRGBA8Unorm:  "R8G8B8A8_UNORM",
	FormatRGBA8Snorm:  "R8G8B8A8_SNORM",
	FormatRGBA8Uint:   "R8G8B8A8_UINT",
	FormatRGBA8Sint:   "R8G8B8A8_SINT",
}

func (f ImageFormat) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("FORMAT(%d)", f)
}

// ParseImageFormat parses a format name as printed by ImageFormat.String.
func ParseImageFormat(name string) (ImageFormat, error) {
	for i, n := range formatNames {
		if n == name {
			return ImageFormat(i), nil
		}
	}
	return 0, fmt.Errorf("unknown image format %q", name)
}

// Variable is a shader interface or resource variable.
type Variable struct {
	Name string
	Mode Mode
	Type Type

	// Location is a VaryingSlot for stage inputs/outputs, a FragResult for
	// fragment outputs and a VertAttrib index for vertex inputs.
	Location       int
	LocationFrac   uint8
	DriverLocation int

	Binding uint32
	Offset  uint32

	Interpolation Interpolation
	Centroid      bool
	Sample        bool

	Access Access
	Format ImageFormat
}

func (v *Variable) String() string {
	return fmt.Sprintf("decl_var %s %s %s (loc=%d, drv=%d)", v.Mode, v.Type, v.Name, v.Location, v.DriverLocation)
}
