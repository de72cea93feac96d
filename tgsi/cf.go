// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import "github.com/gogpu/ntt/nir"

func (c *compiler) emitCFList(list []nir.CFNode) error {
	c.releaseAddrs()
	for _, n := range list {
		var err error
		switch n := n.(type) {
		case *nir.Block:
			err = c.emitBlock(n)
		case *nir.If:
			err = c.emitIf(n)
		case *nir.Loop:
			err = c.emitLoop(n)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// emitBlock translates the instructions of b and releases the storage of
// every value whose live range ends inside it. The condition of a
// following if counts as part of the block.
func (c *compiler) emitBlock(b *nir.Block) error {
	for _, in := range b.Instrs {
		if err := c.emitInstr(in); err != nil {
			return err
		}
		ip := in.Index()
		nir.ForEachSrc(in, func(s *nir.Src) bool {
			if s.SSA != nil && c.live.Defs[s.SSA.Index].End == ip {
				c.freeSSA(s.SSA.Index)
			}
			return true
		})
		if d := nir.DefOf(in); d != nil && c.live.Defs[d.Index].End == ip {
			c.freeSSA(d.Index)
		}
	}

	if nif := b.FollowingIf(); nif != nil {
		c.cur, c.curIf = nil, nif
		cond, err := c.getSrc(&nif.Condition)
		c.curIf = nil
		if err != nil {
			return err
		}
		c.ifCond = cond.Scalar(SwizzleX)
		c.releaseAddrs()
		if d := nif.Condition.SSA; d != nil && c.live.Defs[d.Index].End == b.EndIP {
			c.freeSSA(d.Index)
		}
	}

	b.LiveOut.ForEach(func(idx uint32) {
		if c.live.Defs[idx].End == b.EndIP {
			c.freeSSA(idx)
		}
	})
	return nil
}

func (c *compiler) emitIf(n *nir.If) error {
	op := OpUIF
	if !c.caps.NativeIntegers {
		op = OpIF
	}
	label := c.b.Branch(op, c.ifCond)
	if err := c.emitCFList(n.Then); err != nil {
		return err
	}

	if !nir.IsEmptyList(n.Else) {
		c.b.FixupLabel(label, c.b.InstructionNumber())
		label = c.b.Branch(OpELSE)
		if err := c.emitCFList(n.Else); err != nil {
			return err
		}
	}

	c.b.FixupLabel(label, c.b.InstructionNumber())
	c.b.Emit(OpENDIF, Dst{})
	return nil
}

func (c *compiler) emitLoop(n *nir.Loop) error {
	c.b.Emit(OpBGNLOOP, Dst{})
	if err := c.emitCFList(n.Body); err != nil {
		return err
	}
	c.b.Emit(OpENDLOOP, Dst{})
	return nil
}

// emitInstr translates one instruction. No address register is held
// between instructions.
func (c *compiler) emitInstr(in nir.Instr) error {
	c.cur = in
	var err error
	switch in := in.(type) {
	case *nir.AluInstr:
		err = c.emitAlu(in)
	case *nir.IntrinsicInstr:
		err = c.emitIntrinsic(in)
	case *nir.TexInstr:
		err = c.emitTexture(in)
	case *nir.JumpInstr:
		err = c.emitJump(in)
	case *nir.UndefInstr:
		_, err = c.defDecl(in.Def)
	case *nir.LoadConstInstr:
		// Constants are read as immediates where they are used.
	default:
		err = c.errorf(ErrInternal, "unknown instruction %T", in)
	}
	c.releaseAddrs()
	return err
}

func (c *compiler) emitJump(j *nir.JumpInstr) error {
	switch j.Kind {
	case nir.JumpBreak:
		c.b.Emit(OpBRK, Dst{})
	case nir.JumpContinue:
		c.b.Emit(OpCONT, Dst{})
	default:
		return c.errorf(ErrUnsupported, "%s is not supported", j.Kind)
	}
	return nil
}
