// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"fmt"
	"strings"
)

// Swizzle channels.
const (
	SwizzleX uint8 = iota
	SwizzleY
	SwizzleZ
	SwizzleW
)

// Write masks.
const (
	WriteMaskX    uint8 = 1
	WriteMaskY    uint8 = 2
	WriteMaskZ    uint8 = 4
	WriteMaskW    uint8 = 8
	WriteMaskXY   uint8 = WriteMaskX | WriteMaskY
	WriteMaskZW   uint8 = WriteMaskZ | WriteMaskW
	WriteMaskXZ   uint8 = WriteMaskX | WriteMaskZ
	WriteMaskYW   uint8 = WriteMaskY | WriteMaskW
	WriteMaskXYZW uint8 = 0xf
)

var identitySwizzle = [4]uint8{SwizzleX, SwizzleY, SwizzleZ, SwizzleW}

// Indirect is the address register an operand index is offset by. Only
// one channel of the address operand is read.
type Indirect struct {
	File    File
	Index   int32
	Swizzle uint8
	ArrayID uint32
}

func indirectOf(addr Src) Indirect {
	return Indirect{File: addr.File, Index: addr.Index, Swizzle: addr.Swizzle[0], ArrayID: addr.ArrayID}
}

// Src is a source operand. The zero value is an undefined operand in the
// NULL file.
type Src struct {
	File     File
	Index    int32
	Swizzle  [4]uint8
	Negate   bool
	Absolute bool

	HasIndirect bool
	Indirect    Indirect

	HasDimension   bool
	Dimension      int32
	HasDimIndirect bool
	DimIndirect    Indirect

	// ArrayID names the declared array the register belongs to.
	ArrayID uint32
}

// Register returns a source reading file[index] with the identity swizzle.
func Register(file File, index int32) Src {
	return Src{File: file, Index: index, Swizzle: identitySwizzle}
}

// ArrayRegister returns a source reading an element of a declared array.
func ArrayRegister(file File, index int32, arrayID uint32) Src {
	s := Register(file, index)
	s.ArrayID = arrayID
	return s
}

// IsUndef reports whether the operand addresses nothing.
func (s Src) IsUndef() bool { return s.File == FileNull }

// Swz composes a swizzle on top of the operand's current swizzle.
func (s Src) Swz(x, y, z, w uint8) Src {
	old := s.Swizzle
	s.Swizzle = [4]uint8{old[x&3], old[y&3], old[z&3], old[w&3]}
	return s
}

// Scalar replicates one channel.
func (s Src) Scalar(c uint8) Src { return s.Swz(c, c, c, c) }

// Abs applies the absolute-value modifier, which clears negation.
func (s Src) Abs() Src {
	s.Absolute = true
	s.Negate = false
	return s
}

// Neg toggles the negate modifier.
func (s Src) Neg() Src {
	s.Negate = !s.Negate
	return s
}

// WithIndirect offsets the index by the first channel of addr.
func (s Src) WithIndirect(addr Src) Src {
	s.HasIndirect = true
	s.Indirect = indirectOf(addr)
	return s
}

// WithDimension selects the second-dimension index.
func (s Src) WithDimension(index int32) Src {
	s.HasDimension = true
	s.Dimension = index
	s.HasDimIndirect = false
	return s
}

// WithDimIndirect selects the second-dimension index as index plus the
// first channel of addr.
func (s Src) WithDimIndirect(addr Src, index int32) Src {
	s.HasDimension = true
	s.Dimension = index
	s.HasDimIndirect = true
	s.DimIndirect = indirectOf(addr)
	return s
}

// AsDst returns a destination writing all channels of the register.
func (s Src) AsDst() Dst {
	return Dst{
		File:           s.File,
		Index:          s.Index,
		WriteMask:      WriteMaskXYZW,
		HasIndirect:    s.HasIndirect,
		Indirect:       s.Indirect,
		HasDimension:   s.HasDimension,
		Dimension:      s.Dimension,
		HasDimIndirect: s.HasDimIndirect,
		DimIndirect:    s.DimIndirect,
		ArrayID:        s.ArrayID,
	}
}

// Dst is a destination operand.
type Dst struct {
	File      File
	Index     int32
	WriteMask uint8
	Saturate  bool

	HasIndirect bool
	Indirect    Indirect

	HasDimension   bool
	Dimension      int32
	HasDimIndirect bool
	DimIndirect    Indirect

	ArrayID uint32
}

// IsUndef reports whether the operand addresses nothing.
func (d Dst) IsUndef() bool { return d.File == FileNull }

// WithWriteMask restricts the written channels to mask.
func (d Dst) WithWriteMask(mask uint8) Dst {
	d.WriteMask &= mask
	return d
}

// WithSaturate clamps the written values to [0, 1].
func (d Dst) WithSaturate() Dst {
	d.Saturate = true
	return d
}

// WithIndirect offsets the index by the first channel of addr.
func (d Dst) WithIndirect(addr Src) Dst {
	d.HasIndirect = true
	d.Indirect = indirectOf(addr)
	return d
}

// WithDimension selects the second-dimension index.
func (d Dst) WithDimension(index int32) Dst {
	d.HasDimension = true
	d.Dimension = index
	d.HasDimIndirect = false
	return d
}

// WithDimIndirect selects the second-dimension index through addr.
func (d Dst) WithDimIndirect(addr Src, index int32) Dst {
	d.HasDimension = true
	d.Dimension = index
	d.HasDimIndirect = true
	d.DimIndirect = indirectOf(addr)
	return d
}

// AsSrc returns a source reading the register with the identity swizzle.
func (d Dst) AsSrc() Src {
	return Src{
		File:           d.File,
		Index:          d.Index,
		Swizzle:        identitySwizzle,
		HasIndirect:    d.HasIndirect,
		Indirect:       d.Indirect,
		HasDimension:   d.HasDimension,
		Dimension:      d.Dimension,
		HasDimIndirect: d.HasDimIndirect,
		DimIndirect:    d.DimIndirect,
		ArrayID:        d.ArrayID,
	}
}

const swizzleChars = "xyzw"

func (ind Indirect) String() string {
	return fmt.Sprintf("%s[%d].%c", ind.File, ind.Index, swizzleChars[ind.Swizzle&3])
}

func registerString(file File, index int32, hasInd bool, ind Indirect, hasDim bool, dim int32, hasDimInd bool, dimInd Indirect, arrayID uint32) string {
	var sb strings.Builder
	sb.WriteString(file.String())
	if arrayID != 0 {
		fmt.Fprintf(&sb, "(%d)", arrayID)
	}
	if hasDim {
		if hasDimInd {
			fmt.Fprintf(&sb, "[%s+%d]", dimInd, dim)
		} else {
			fmt.Fprintf(&sb, "[%d]", dim)
		}
	}
	if hasInd {
		fmt.Fprintf(&sb, "[%s+%d]", ind, index)
	} else {
		fmt.Fprintf(&sb, "[%d]", index)
	}
	return sb.String()
}

func (s Src) String() string {
	if s.IsUndef() {
		return "_"
	}
	str := registerString(s.File, s.Index, s.HasIndirect, s.Indirect, s.HasDimension, s.Dimension, s.HasDimIndirect, s.DimIndirect, s.ArrayID)
	if s.Swizzle != identitySwizzle {
		var sb strings.Builder
		for _, c := range s.Swizzle {
			sb.WriteByte(swizzleChars[c&3])
		}
		str += "." + sb.String()
	}
	if s.Absolute {
		str = "|" + str + "|"
	}
	if s.Negate {
		str = "-" + str
	}
	return str
}

func (d Dst) String() string {
	if d.IsUndef() {
		return "_"
	}
	str := registerString(d.File, d.Index, d.HasIndirect, d.Indirect, d.HasDimension, d.Dimension, d.HasDimIndirect, d.DimIndirect, d.ArrayID)
	if d.WriteMask != WriteMaskXYZW {
		str += "." + maskString(d.WriteMask)
	}
	return str
}

func maskString(mask uint8) string {
	var sb strings.Builder
	for i := 0; i < 4; i++ {
		if mask&(1<<i) != 0 {
			sb.WriteByte(swizzleChars[i])
		}
	}
	return sb.String()
}
