// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nir

import "fmt"

// ValidationError represents a validation error.
type ValidationError struct {
	Message string
	// Instr is the program-order index of the offending instruction, or -1.
	Instr int
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Instr >= 0 {
		return fmt.Sprintf("instruction %d: %s", e.Instr, e.Message)
	}
	return e.Message
}

type validator struct {
	shader    *Shader
	errors    []ValidationError
	defined   Bitset
	loopDepth int
}

// Validate checks structural well-formedness of a shader: operand counts,
// value shapes, definition before use and jump placement. It indexes the
// entry function first. Returns validation errors if any.
func Validate(s *Shader) ([]ValidationError, error) {
	if s == nil {
		return nil, fmt.Errorf("shader is nil")
	}
	if s.Entry == nil {
		return []ValidationError{{Message: "shader has no entry function", Instr: -1}}, nil
	}
	f := s.Entry
	f.Index()

	v := &validator{shader: s, defined: NewBitset(int(f.SSACount))}
	v.validateVariables()
	v.validateList(f.Body)

	if len(v.errors) > 0 {
		return v.errors, nil
	}
	return nil, nil
}

func (v *validator) addError(instr int, format string, args ...any) {
	v.errors = append(v.errors, ValidationError{Message: fmt.Sprintf(format, args...), Instr: instr})
}

func (v *validator) validateVariables() {
	for _, vr := range v.shader.Variables {
		switch vr.Mode {
		case ModeShaderIn, ModeShaderOut:
			if vr.LocationFrac > 3 {
				v.addError(-1, "variable %s: location_frac %d out of range", vr.Name, vr.LocationFrac)
			}
		case ModeShared:
			if v.shader.Info.Stage != StageCompute {
				v.addError(-1, "variable %s: shared storage outside compute", vr.Name)
			}
		}
	}
}

func (v *validator) validateList(list []CFNode) {
	for _, n := range list {
		switch n := n.(type) {
		case *Block:
			v.validateBlock(n)
		case *If:
			v.validateSrc(-1, &n.Condition)
			if n.Condition.NumComponents() != 1 {
				v.addError(-1, "if condition must be a scalar, got %d components", n.Condition.NumComponents())
			}
			v.validateList(n.Then)
			v.validateList(n.Else)
		case *Loop:
			v.loopDepth++
			v.validateList(n.Body)
			v.loopDepth--
		}
	}
}

func (v *validator) validateBlock(b *Block) {
	for i, in := range b.Instrs {
		ip := in.Index()
		ForEachSrc(in, func(s *Src) bool {
			v.validateSrc(ip, s)
			return true
		})

		switch in := in.(type) {
		case *AluInstr:
			v.validateAlu(in)
		case *IntrinsicInstr:
			v.validateIntrinsic(in)
		case *TexInstr:
			if in.Dest.SSA == nil && in.Dest.Reg == nil {
				v.addError(ip, "texture instruction without destination")
			}
		case *LoadConstInstr:
			if len(in.Values) != int(in.Def.NumComponents) {
				v.addError(ip, "load_const has %d values for %d components", len(in.Values), in.Def.NumComponents)
			}
		case *JumpInstr:
			if i != len(b.Instrs)-1 {
				v.addError(ip, "%s must end its block", in.Kind)
			}
			if (in.Kind == JumpBreak || in.Kind == JumpContinue) && v.loopDepth == 0 {
				v.addError(ip, "%s outside of a loop", in.Kind)
			}
		}

		if d := DefOf(in); d != nil {
			v.validateDef(ip, d)
		}
	}
}

func (v *validator) validateDef(ip int, d *Def) {
	if d.NumComponents < 1 || d.NumComponents > 4 {
		v.addError(ip, "definition %%%d has %d components", d.Index, d.NumComponents)
	}
	if d.BitSize != 32 && d.BitSize != 64 {
		v.addError(ip, "definition %%%d has unsupported bit size %d", d.Index, d.BitSize)
	}
	if v.defined.Test(d.Index) {
		v.addError(ip, "definition %%%d is defined twice", d.Index)
		return
	}
	if int(d.Index) < len(v.defined)*64 {
		v.defined.Set(d.Index)
	}
}

func (v *validator) validateSrc(ip int, s *Src) {
	switch {
	case s.SSA != nil:
		if !v.defined.Test(s.SSA.Index) {
			v.addError(ip, "use of %%%d before its definition", s.SSA.Index)
		}
	case s.Reg != nil:
		if s.Indirect != nil && s.Reg.NumArrayElems == 0 {
			v.addError(ip, "indirect access to non-array register r%d", s.Reg.Index)
		}
		if s.Reg.NumArrayElems > 0 && s.Indirect == nil && s.BaseOffset >= s.Reg.NumArrayElems {
			v.addError(ip, "r%d[%d] out of bounds", s.Reg.Index, s.BaseOffset)
		}
	default:
		v.addError(ip, "source reads nothing")
	}
}

func (v *validator) validateAlu(in *AluInstr) {
	ip := in.Index()
	info := in.Op.Info()
	if len(in.Srcs) != info.NumInputs {
		v.addError(ip, "%s expects %d sources, got %d", info.Name, info.NumInputs, len(in.Srcs))
	}
	if in.Dest.SSA == nil && in.Dest.Reg == nil {
		v.addError(ip, "%s without destination", info.Name)
		return
	}
	if in.WriteMask == 0 {
		v.addError(ip, "%s with empty write mask", info.Name)
	}
	for i := range in.Srcs {
		for _, c := range in.Srcs[i].Swizzle {
			if c > 3 {
				v.addError(ip, "%s source %d swizzle component %d out of range", info.Name, i, c)
			}
		}
	}
}

func (v *validator) validateIntrinsic(in *IntrinsicInstr) {
	ip := in.Index()
	info := in.Intrinsic.Info()
	if len(in.Srcs) != info.NumSrcs {
		v.addError(ip, "%s expects %d sources, got %d", info.Name, info.NumSrcs, len(in.Srcs))
	}
	if info.HasDest && in.Dest == nil {
		v.addError(ip, "%s without destination", info.Name)
	}
	if !info.HasDest && in.Dest != nil {
		v.addError(ip, "%s does not produce a value", info.Name)
	}
	if in.Intrinsic.Has(HasWriteMask) && in.WriteMask == 0 {
		v.addError(ip, "%s with empty write mask", info.Name)
	}
}
