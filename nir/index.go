// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nir

// Index normalizes the control-flow tree and rebuilds derived metadata:
// block and instruction numbering, use lists and block successors.
//
// After normalization every CF list starts and ends with a block, and
// ifs and loops are always separated by a block. Instruction indices are
// assigned in program order; each block additionally reserves one index
// before its first instruction (StartIP) and one after its last (EndIP).
func (f *Function) Index() {
	f.Body = normalizeList(f.Body)

	f.blocks = f.blocks[:0]
	for _, r := range f.Registers {
		r.Uses, r.IfUses, r.Defs = nil, nil, nil
	}

	ip := 0
	var defs []*Def
	walkBlocks(f.Body, func(b *Block) {
		b.Index = len(f.blocks)
		f.blocks = append(f.blocks, b)
		b.StartIP = ip
		ip++
		for _, in := range b.Instrs {
			ib := in.base()
			ib.index = ip
			ib.block = b
			ip++
			if d := DefOf(in); d != nil {
				d.parent = in
				defs = append(defs, d)
			}
		}
		b.EndIP = ip
		ip++
	})
	f.maxIP = ip

	for _, d := range defs {
		d.Uses, d.IfUses = nil, nil
	}

	walkBlocks(f.Body, func(b *Block) {
		for _, in := range b.Instrs {
			ForEachSrc(in, func(s *Src) bool {
				s.parentInstr = in
				s.parentIf = nil
				switch {
				case s.SSA != nil:
					s.SSA.Uses = append(s.SSA.Uses, s)
				case s.Reg != nil:
					s.Reg.Uses = append(s.Reg.Uses, s)
				}
				return true
			})
			if d := DestOf(in); d != nil && d.Reg != nil {
				d.Reg.Defs = append(d.Reg.Defs, d)
			}
		}
	})

	linkList(f.Body, nil, nil, nil)
}

// MaxIP returns one past the highest instruction index. Valid after Index.
func (f *Function) MaxIP() int { return f.maxIP }

func normalizeList(list []CFNode) []CFNode {
	out := make([]CFNode, 0, len(list)+2)
	endsWithBlock := func() (*Block, bool) {
		if len(out) == 0 {
			return nil, false
		}
		b, ok := out[len(out)-1].(*Block)
		return b, ok
	}

	for _, n := range list {
		switch n := n.(type) {
		case *Block:
			if last, ok := endsWithBlock(); ok {
				last.Instrs = append(last.Instrs, n.Instrs...)
				continue
			}
			out = append(out, n)
		case *If:
			if _, ok := endsWithBlock(); !ok {
				out = append(out, &Block{})
			}
			n.Then = normalizeList(n.Then)
			n.Else = normalizeList(n.Else)
			out = append(out, n)
		case *Loop:
			if _, ok := endsWithBlock(); !ok {
				out = append(out, &Block{})
			}
			n.Body = normalizeList(n.Body)
			out = append(out, n)
		}
	}
	if _, ok := endsWithBlock(); !ok {
		out = append(out, &Block{})
	}
	return out
}

// walkBlocks visits blocks in program order.
func walkBlocks(list []CFNode, fn func(*Block)) {
	for _, n := range list {
		switch n := n.(type) {
		case *Block:
			fn(n)
		case *If:
			walkBlocks(n.Then, fn)
			walkBlocks(n.Else, fn)
		case *Loop:
			walkBlocks(n.Body, fn)
		}
	}
}

// WalkInstrs visits every instruction in program order.
func (f *Function) WalkInstrs(fn func(Instr)) {
	walkBlocks(f.Body, func(b *Block) {
		for _, in := range b.Instrs {
			fn(in)
		}
	})
}

// WalkIfs visits every if node in program order.
func (f *Function) WalkIfs(fn func(*If)) {
	var walk func([]CFNode)
	walk = func(list []CFNode) {
		for _, n := range list {
			switch n := n.(type) {
			case *If:
				fn(n)
				walk(n.Then)
				walk(n.Else)
			case *Loop:
				walk(n.Body)
			}
		}
	}
	walk(f.Body)
}

func firstBlock(list []CFNode) *Block {
	return list[0].(*Block)
}

// linkList wires successors for a normalized list. after is the block
// reached when control falls off the end of the list; cont and brk are
// the innermost loop's header and exit.
func linkList(list []CFNode, after, cont, brk *Block) {
	for i, n := range list {
		switch n := n.(type) {
		case *Block:
			n.successors = n.successors[:0]
			n.following = nil
			if j := jumpOf(n); j != nil {
				switch j.Kind {
				case JumpBreak:
					n.successors = appendBlock(n.successors, brk)
				case JumpContinue:
					n.successors = appendBlock(n.successors, cont)
				}
				if i+1 < len(list) {
					if nif, ok := list[i+1].(*If); ok {
						n.following = nif
					}
				}
				continue
			}
			if i+1 == len(list) {
				n.successors = appendBlock(n.successors, after)
				continue
			}
			switch next := list[i+1].(type) {
			case *If:
				n.following = next
				n.successors = append(n.successors, firstBlock(next.Then), firstBlock(next.Else))
			case *Loop:
				n.successors = append(n.successors, firstBlock(next.Body))
			}
		case *If:
			join := list[i+1].(*Block)
			linkList(n.Then, join, cont, brk)
			linkList(n.Else, join, cont, brk)
			registerIfUse(n)
		case *Loop:
			header := firstBlock(n.Body)
			exit := list[i+1].(*Block)
			linkList(n.Body, header, header, exit)
		}
	}
}

func registerIfUse(n *If) {
	c := &n.Condition
	c.parentInstr = nil
	c.parentIf = n
	switch {
	case c.SSA != nil:
		c.SSA.IfUses = append(c.SSA.IfUses, n)
	case c.Reg != nil:
		c.Reg.IfUses = append(c.Reg.IfUses, n)
	}
}

func jumpOf(b *Block) *JumpInstr {
	if len(b.Instrs) == 0 {
		return nil
	}
	j, _ := b.Instrs[len(b.Instrs)-1].(*JumpInstr)
	return j
}

func appendBlock(list []*Block, b *Block) []*Block {
	if b == nil {
		return list
	}
	return append(list, b)
}
