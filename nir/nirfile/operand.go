// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nirfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/ntt/nir"
)

const swizzleChars = "xyzw"

// operand is a parsed source or destination reference.
//
//	%3            SSA value
//	r1            register
//	r1[2]         register array element
//	r1[2 + %4]    indirect register element
//	-|%3|.xxyy    ALU source with modifiers and swizzle
type operand struct {
	ssa      int
	reg      int
	offset   uint32
	indirect *operand
	swizzle  [4]uint8
	abs      bool
	negate   bool
}

func parseOperand(s string) (*operand, error) {
	orig := s
	op := &operand{ssa: -1, reg: -1, swizzle: [4]uint8{0, 1, 2, 3}}
	s = strings.TrimSpace(s)

	if rest, ok := strings.CutPrefix(s, "-"); ok {
		op.negate, s = true, rest
	}
	if rest, ok := strings.CutPrefix(s, "|"); ok {
		end := strings.IndexByte(rest, '|')
		if end < 0 {
			return nil, fmt.Errorf("unterminated abs in %q", orig)
		}
		swz := rest[end+1:]
		op.abs, s = true, rest[:end]+swz
	}

	if dot := strings.LastIndexByte(s, '.'); dot >= 0 && !strings.ContainsAny(s[dot:], "]") {
		swz := s[dot+1:]
		if len(swz) == 0 || len(swz) > 4 {
			return nil, fmt.Errorf("bad swizzle in %q", orig)
		}
		for i := 0; i < 4; i++ {
			c := swz[min(i, len(swz)-1)]
			idx := strings.IndexByte(swizzleChars, c)
			if idx < 0 {
				return nil, fmt.Errorf("bad swizzle in %q", orig)
			}
			op.swizzle[i] = uint8(idx)
		}
		s = s[:dot]
	}

	switch {
	case strings.HasPrefix(s, "%"):
		n, err := strconv.Atoi(s[1:])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad SSA reference %q", orig)
		}
		op.ssa = n
	case strings.HasPrefix(s, "r"):
		name, index, hasIndex := strings.Cut(s[1:], "[")
		n, err := strconv.Atoi(name)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad register reference %q", orig)
		}
		op.reg = n
		if hasIndex {
			if !strings.HasSuffix(index, "]") {
				return nil, fmt.Errorf("unterminated register index in %q", orig)
			}
			index = index[:len(index)-1]
			base, ind, hasInd := strings.Cut(index, "+")
			off, err := strconv.ParseUint(strings.TrimSpace(base), 10, 32)
			if err != nil {
				return nil, fmt.Errorf("bad register offset in %q", orig)
			}
			op.offset = uint32(off)
			if hasInd {
				if op.indirect, err = parseOperand(ind); err != nil {
					return nil, err
				}
			}
		}
	default:
		return nil, fmt.Errorf("unknown operand %q", orig)
	}
	return op, nil
}

func formatSrc(s *nir.Src) string { return s.String() }

func formatAluSrc(s *nir.AluSrc) string {
	str := formatSrc(&s.Src)
	if s.Abs {
		str = "|" + str + "|"
	}
	if s.Negate {
		str = "-" + str
	}
	if s.Swizzle != [4]uint8{0, 1, 2, 3} {
		var sb strings.Builder
		for _, c := range s.Swizzle {
			sb.WriteByte(swizzleChars[c&3])
		}
		str += "." + sb.String()
	}
	return str
}

func parseMask(s string) (uint8, error) {
	var m uint8
	for i := 0; i < len(s); i++ {
		idx := strings.IndexByte(swizzleChars, s[i])
		if idx < 0 {
			return 0, fmt.Errorf("bad write mask %q", s)
		}
		m |= 1 << idx
	}
	return m, nil
}
