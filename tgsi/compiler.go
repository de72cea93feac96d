// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"fmt"

	"github.com/gogpu/ntt/nir"
)

// compiler holds the state of one translation. It is created by Compile
// and dropped when the program has been finished.
type compiler struct {
	s    *nir.Shader
	f    *nir.Function
	caps *Caps
	live *nir.Liveness
	b    *Builder

	// ssa maps SSA indices to the operand holding the value. assigned
	// marks the entries that currently hold one.
	ssa      []Src
	assigned []bool

	// regs maps register indices to their storage. Registers are never
	// recycled.
	regs []Dst

	addr addrPool

	inputMap       []Src
	centroidInputs uint64
	firstUBO       int

	// ifCond is the condition of the next if, resolved at the end of the
	// block before it.
	ifCond Src

	// cur is the instruction being translated, for diagnostics. curIf is
	// set instead while an if condition is resolved.
	cur   nir.Instr
	curIf *nir.If
}

func newCompiler(s *nir.Shader, caps *Caps, live *nir.Liveness) *compiler {
	f := s.Entry
	b := NewBuilder(ProcessorForStage(s.Info.Stage))
	b.LimitTemps(caps.MaxTemps)
	return &compiler{
		s:        s,
		f:        f,
		caps:     caps,
		live:     live,
		b:        b,
		ssa:      make([]Src, f.SSACount),
		assigned: make([]bool, f.SSACount),
		regs:     make([]Dst, f.RegCount),
	}
}

// errorf returns an error of the given kind naming the current
// instruction.
func (c *compiler) errorf(kind ErrorKind, format string, args ...any) error {
	e := &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
	switch {
	case c.cur != nil:
		e.Instr = nir.FormatInstr(c.cur)
	case c.curIf != nil:
		e.Instr = "if " + c.curIf.Condition.String()
	}
	return e
}

func (c *compiler) stage() nir.Stage { return c.s.Info.Stage }

func (c *compiler) compile() error {
	c.setupShaderInfo()
	if err := c.setupInputs(); err != nil {
		return err
	}
	if err := c.setupOutputs(); err != nil {
		return err
	}
	if err := c.setupUniforms(); err != nil {
		return err
	}
	if c.stage() == nir.StageFragment && c.readsFragCoord() {
		origin, center := uint32(CoordOriginLowerLeft), uint32(PixelCenterHalfInteger)
		if c.s.Info.OriginUpperLeft {
			origin = CoordOriginUpperLeft
		}
		if c.s.Info.PixelCenterInteger {
			center = PixelCenterInteger
		}
		c.b.SetProperty(PropFSCoordOrigin, origin)
		c.b.SetProperty(PropFSCoordPixelCenter, center)
	}

	if err := c.setupRegisters(); err != nil {
		return err
	}
	if err := c.emitCFList(c.f.Body); err != nil {
		return err
	}
	c.cur = nil
	c.b.Emit(OpEND, Dst{})
	return c.b.Err()
}

// readsFragCoord reports whether a fragment shader reads the window
// position, either as an input variable or as a system value.
func (c *compiler) readsFragCoord() bool {
	for _, v := range c.s.VariablesWithMode(nir.ModeShaderIn) {
		if v.Location == nir.SlotPos {
			return true
		}
	}
	found := false
	c.f.WalkInstrs(func(in nir.Instr) {
		if intr, ok := in.(*nir.IntrinsicInstr); ok && intr.Intrinsic == nir.IntrLoadFragCoord {
			found = true
		}
	})
	return found
}
