// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"math"
	"strings"

	"github.com/gogpu/ntt/nir"
)

// legalize rewrites the few constructs the translator expects in another
// form and rejects the ones the target cannot encode. It runs after the
// caller's passes.
func legalize(s *nir.Shader, caps *Caps) error {
	f := s.Entry
	if f == nil {
		return NewError(ErrUnsupported, "shader has no entry function")
	}
	f.Index()

	if err := checkEncodable(s, caps); err != nil {
		return err
	}
	if errs, err := nir.Validate(s); err != nil {
		return NewError(ErrInternal, "%v", err)
	} else if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return NewError(ErrInternal, "malformed shader: %s", strings.Join(msgs, "; "))
	}

	var intrs []*nir.IntrinsicInstr
	f.WalkInstrs(func(in nir.Instr) {
		if intr, ok := in.(*nir.IntrinsicInstr); ok {
			intrs = append(intrs, intr)
		}
	})

	primIDBase := -1
	for _, in := range intrs {
		switch {
		case in.Intrinsic == nir.IntrAtomicCounterPreDec:
			lowerPreDec(f, in, caps)
		case in.Intrinsic == nir.IntrLoadPrimitiveID && s.Info.Stage == nir.StageGeometry:
			if primIDBase < 0 {
				primIDBase = addPrimIDInput(s, intrs)
			}
			lowerPrimIDToInput(f, in, primIDBase, caps)
		case in.Intrinsic == nir.IntrLoadUBO && !caps.LoadConstbuf:
			if err := lowerUBOToVec4(f, in, caps); err != nil {
				return err
			}
		}
	}

	f.Index()
	return nil
}

// constIndex reads a constant index, which is float-encoded on targets
// without integers.
func constIndex(src *nir.Src, caps *Caps) uint32 {
	v := uint32(src.ConstUint())
	if !caps.NativeIntegers && v >= math.Float32bits(1.0) {
		v = uint32(math.Float32frombits(v))
	}
	return v
}

func immIndex(f *nir.Function, v uint32, caps *Caps) *nir.LoadConstInstr {
	raw := uint64(v)
	if !caps.NativeIntegers {
		raw = uint64(math.Float32bits(float32(v)))
	}
	return &nir.LoadConstInstr{Def: f.NewDef(1, 32), Values: []uint64{raw}}
}

// lowerPreDec turns atomic_counter_pre_dec into post_dec followed by a
// decrement of the returned value.
func lowerPreDec(f *nir.Function, in *nir.IntrinsicInstr, caps *Caps) {
	result := in.Dest.SSA
	old := f.NewDef(result.NumComponents, result.BitSize)
	in.Intrinsic = nir.IntrAtomicCounterPostDec
	in.Dest = &nir.Dest{SSA: old}

	minusOne := &nir.LoadConstInstr{Def: f.NewDef(1, 32), Values: []uint64{0xffffffff}}
	sub := &nir.AluInstr{
		Op:        nir.OpIadd,
		Srcs:      []nir.AluSrc{{Src: nir.SSASrc(old)}, {Src: nir.SSASrc(minusOne.Def)}},
		Dest:      nir.Dest{SSA: result},
		WriteMask: 1,
	}
	if !caps.NativeIntegers {
		minusOne.Values[0] = uint64(math.Float32bits(-1))
		sub.Op = nir.OpFadd
	}
	in.Block().InsertAfter(in, minusOne, sub)
}

// addPrimIDInput declares the input slot geometry shaders read the
// primitive ID from, after every other input.
func addPrimIDInput(s *nir.Shader, intrs []*nir.IntrinsicInstr) int {
	base := 0
	for _, v := range s.VariablesWithMode(nir.ModeShaderIn) {
		if v.Location == nir.SlotPrimitiveID {
			return v.DriverLocation
		}
		elem := v.Type
		if elem.IsArray() {
			elem = elem.WithoutArray()
		}
		base = max(base, v.DriverLocation+elem.AttributeSlots())
	}
	for _, in := range intrs {
		switch in.Intrinsic {
		case nir.IntrLoadInput, nir.IntrLoadPerVertexInput:
			base = max(base, in.Base+int(max(in.IO.NumSlots, 1)))
		}
	}
	s.AddVariable(&nir.Variable{
		Name:           "gl_PrimitiveID",
		Mode:           nir.ModeShaderIn,
		Type:           nir.Scalar(nir.TypeUint),
		Location:       nir.SlotPrimitiveID,
		DriverLocation: base,
	})
	return base
}

// lowerPrimIDToInput reads the geometry shader primitive ID as an input,
// where consumers of this stage expect it.
func lowerPrimIDToInput(f *nir.Function, in *nir.IntrinsicInstr, base int, caps *Caps) {
	zero := immIndex(f, 0, caps)
	in.Block().InsertBefore(in, zero)
	in.Intrinsic = nir.IntrLoadInput
	in.Srcs = []nir.Src{nir.SSASrc(zero.Def)}
	in.Base = base
	in.Component = 0
	in.NumComponents = 1
	in.IO = nir.IOSemantics{Location: nir.SlotPrimitiveID, NumSlots: 1}
}

// lowerUBOToVec4 rewrites a byte-addressed constant buffer load into one
// addressing vec4 slots, for targets that only read constants directly.
func lowerUBOToVec4(f *nir.Function, in *nir.IntrinsicInstr, caps *Caps) error {
	off := &in.Srcs[1]
	if !off.IsConst() {
		return NewError(ErrUnsupported, "dynamic constant buffer offset without LOAD from constants").withInstr(in)
	}
	bytes := constIndex(off, caps)
	elem := uint32(in.Dest.BitSize()) / 8
	comp := (bytes % 16) / elem
	if bytes%elem != 0 || bytes%16+uint32(in.NumComponents)*elem > 16 {
		return NewError(ErrUnsupported, "constant buffer load at offset %d crosses a vec4", bytes).withInstr(in)
	}

	slot := immIndex(f, bytes/16, caps)
	in.Block().InsertBefore(in, slot)
	in.Intrinsic = nir.IntrLoadUBOVec4
	in.Srcs[1] = nir.SSASrc(slot.Def)
	in.Component = uint8(comp)
	return nil
}

// checkEncodable rejects constructs with no encoding on the target.
func checkEncodable(s *nir.Shader, caps *Caps) error {
	f := s.Entry
	var err error
	fail := func(in nir.Instr, format string, args ...any) {
		if err == nil {
			err = NewError(ErrUnsupported, format, args...).withInstr(in)
		}
	}

	checkSize := func(in nir.Instr, n, bits uint8) {
		switch {
		case bits != 32 && bits != 64:
			fail(in, "%d-bit values are not supported", bits)
		case bits == 64 && n > 2:
			fail(in, "64-bit values with %d components must be split", n)
		case bits == 64 && !caps.NativeIntegers:
			fail(in, "64-bit values need native integers")
		}
	}

	for _, r := range f.Registers {
		if r.BitSize != 32 && r.BitSize != 64 {
			return NewError(ErrUnsupported, "register r%d: %d-bit values are not supported", r.Index, r.BitSize)
		}
		if r.NumArrayElems > 0 && !caps.IndirectTemps && len(r.Uses)+len(r.Defs) > 0 {
			for _, u := range r.Uses {
				if u.Indirect != nil {
					return NewError(ErrUnsupported, "indirect temporary access to r%d", r.Index)
				}
			}
			for _, d := range r.Defs {
				if d.Indirect != nil {
					return NewError(ErrUnsupported, "indirect temporary access to r%d", r.Index)
				}
			}
		}
	}

	f.WalkInstrs(func(in nir.Instr) {
		if d := nir.DefOf(in); d != nil {
			checkSize(in, d.NumComponents, d.BitSize)
		}
		switch in := in.(type) {
		case *nir.AluInstr:
			switch in.Op {
			case nir.OpVec2, nir.OpVec3, nir.OpVec4:
				fail(in, "%s must be lowered to moves", in.Op)
			case nir.OpFmod:
				fail(in, "fmod must be lowered")
			case nir.OpFsqrt:
				if !caps.Sqrt && in.Dest.BitSize() == 32 {
					fail(in, "fsqrt is not supported by the target")
				}
			}
		case *nir.JumpInstr:
			if in.Kind == nir.JumpReturn || in.Kind == nir.JumpHalt {
				fail(in, "%s must be lowered", in.Kind)
			}
		case *nir.IntrinsicInstr:
			checkIndirect(in, caps, fail)
		}
	})
	return err
}

func checkIndirect(in *nir.IntrinsicInstr, caps *Caps, fail func(nir.Instr, string, ...any)) {
	dynamic := func(i int) bool { return i < len(in.Srcs) && !in.Srcs[i].IsConst() }
	switch in.Intrinsic {
	case nir.IntrLoadInput:
		if !caps.IndirectInputs && dynamic(0) {
			fail(in, "indirect input addressing is not supported")
		}
	case nir.IntrLoadPerVertexInput, nir.IntrLoadInterpolatedInput:
		if !caps.IndirectInputs && dynamic(1) {
			fail(in, "indirect input addressing is not supported")
		}
	case nir.IntrStoreOutput, nir.IntrLoadPerVertexOutput:
		if !caps.IndirectOutputs && dynamic(1) {
			fail(in, "indirect output addressing is not supported")
		}
	case nir.IntrStorePerVertexOutput:
		if !caps.IndirectOutputs && dynamic(2) {
			fail(in, "indirect output addressing is not supported")
		}
	case nir.IntrLoadOutput:
		if !caps.IndirectOutputs && dynamic(0) {
			fail(in, "indirect output addressing is not supported")
		}
	case nir.IntrLoadUBO, nir.IntrLoadUBOVec4:
		if !caps.IndirectConsts && (dynamic(0) || dynamic(1)) {
			fail(in, "indirect constant addressing is not supported")
		}
	}
}
