// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

// MaxAddressRegs is the number of address registers one instruction may
// hold at the same time.
const MaxAddressRegs = 2

// addrPool hands out address registers with stack discipline. Every
// register taken while translating an instruction is given back before
// the next one starts.
type addrPool struct {
	regs     [MaxAddressRegs]Dst
	declared [MaxAddressRegs]bool
	next     int

	acquired int
	released int
	maxDepth int
}

func (p *addrPool) take() int {
	n := p.next
	p.next++
	p.acquired++
	p.maxDepth = max(p.maxDepth, p.next)
	return n
}

func (p *addrPool) put() bool {
	if p.next == 0 {
		return false
	}
	p.next--
	p.released++
	return true
}

// reladdr returns an operand usable as an indirect address holding the
// first channel of addr.
func (c *compiler) reladdr(addr Src) (Src, error) {
	p := &c.addr
	if p.next >= MaxAddressRegs {
		return Src{}, c.errorf(ErrInternal, "more than %d indirect addresses in one instruction", MaxAddressRegs)
	}
	n := p.take()
	if c.caps.AnyRegAsAddress {
		return addr.Scalar(SwizzleX), nil
	}

	if !p.declared[n] {
		p.regs[n] = c.b.DeclareAddress().WithWriteMask(WriteMaskX)
		p.declared[n] = true
	}
	if c.caps.NativeIntegers {
		c.b.Emit(OpUARL, p.regs[n], addr)
	} else {
		c.b.Emit(OpARL, p.regs[n], addr)
	}
	return p.regs[n].AsSrc().Scalar(SwizzleX), nil
}

func (c *compiler) putReladdr() error {
	if !c.addr.put() {
		return c.errorf(ErrInternal, "address register released twice")
	}
	return nil
}

// reladdrDstPut releases the address registers a destination was
// addressed through.
func (c *compiler) reladdrDstPut(d Dst) error {
	if d.HasIndirect {
		if err := c.putReladdr(); err != nil {
			return err
		}
	}
	if d.HasDimIndirect {
		return c.putReladdr()
	}
	return nil
}

// releaseAddrs gives back every address register still held.
func (c *compiler) releaseAddrs() {
	for c.addr.put() {
	}
}
