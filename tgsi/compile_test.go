// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ntt/nir"
)

// translate runs legalization and emission directly so tests can inspect
// the compiler state afterwards.
func translate(t *testing.T, s *nir.Shader, caps Caps) (*compiler, *Program) {
	t.Helper()
	require.NoError(t, legalize(s, &caps))
	c := newCompiler(s, &caps, nir.ComputeLiveness(s.Entry))
	require.NoError(t, c.compile())
	return c, c.b.Finish()
}

func compileWith(t *testing.T, s *nir.Shader, caps Caps) *Program {
	t.Helper()
	p, err := Compile(s, &Options{Caps: caps})
	require.NoError(t, err)
	return p
}

func find(p *Program, op Opcode) []*Instruction {
	var out []*Instruction
	for i := range p.Instructions {
		if p.Instructions[i].Opcode == op {
			out = append(out, &p.Instructions[i])
		}
	}
	return out
}

func vertexShader() *nir.Shader {
	b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
	b.Shader.Name = "scale"
	pos := b.LoadInput(0, 0, 4, 32)
	col := b.LoadInput(1, 1, 4, 32)
	p := b.Alu(nir.OpFmul, pos, b.ImmFloat(2, 2, 2, 1))
	b.StoreOutput(p, 0, nir.SlotPos)

	w := b.LoadInput(2, 2, 1, 32)
	cond := b.Alu(nir.OpFlt32, w, b.ImmFloat(0.5))
	b.If(nir.SSASrc(cond), func() {
		b.StoreOutput(col, 1, nir.SlotCol0)
	}, func() {
		b.StoreOutput(b.Alu(nir.OpFsat, col), 1, nir.SlotCol0)
	})
	return b.Finish()
}

func TestCompile_Deterministic(t *testing.T) {
	want := compileWith(t, vertexShader(), DefaultCaps()).Bytes()

	const workers = 8
	got := make([][]byte, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := Compile(vertexShader(), DefaultOptions())
			if err != nil {
				errs[i] = err
				return
			}
			got[i] = p.Bytes()
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, want, got[i], "worker %d", i)
	}
}

func TestCompile_NilShader(t *testing.T) {
	_, err := Compile(nil, nil)
	assert.True(t, IsInternal(err))
}

func TestCompile_PassError(t *testing.T) {
	failing := func(*nir.Shader) error { return NewError(ErrUnsupported, "no") }
	_, err := Compile(vertexShader(), &Options{Caps: DefaultCaps(), Passes: []Pass{failing}})
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
	assert.Contains(t, err.Error(), "pass 0")
}

func TestCompile_TempsBoundedByLiveSet(t *testing.T) {
	b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
	a := b.LoadInput(0, 0, 4, 32)
	v1 := b.Alu(nir.OpFadd, a, a)
	v2 := b.Alu(nir.OpFmul, v1, a)
	v3 := b.Alu(nir.OpFadd, v2, v1)
	v4 := b.Alu(nir.OpFmul, v3, v2)
	v5 := b.Alu(nir.OpFadd, v4, v3)
	b.StoreOutput(v5, 0, nir.SlotPos)
	s := b.Finish()

	c, p := translate(t, s, DefaultCaps())
	blocks := s.Entry.Blocks()
	require.Len(t, blocks, 1)
	assert.LessOrEqual(t, p.NumTemps(), c.live.MaxLive(blocks[0]))
	// v1 and v2 are dead once v4 and v5 are computed, so their
	// temporaries are reused.
	assert.LessOrEqual(t, p.NumTemps(), 3)
}

func indirectShader(dstIndirect bool) *nir.Shader {
	b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
	r0 := b.Register(4, 32, 4)
	r1 := b.Register(4, 32, 4)
	r2 := b.Register(4, 32, 4)
	idx := b.LoadInput(0, 0, 1, 32)
	v := b.LoadInput(1, 1, 4, 32)
	b.AluToReg(nir.OpMov, r0, 1, 0xf, nir.Swz(v))
	b.AluToReg(nir.OpMov, r1, 2, 0xf, nir.Swz(v))

	read := func(r *nir.Register) nir.AluSrc {
		ind := nir.SSASrc(idx)
		return nir.AluSrc{Src: nir.Src{Reg: r, Indirect: &ind}, Swizzle: [4]uint8{0, 1, 2, 3}}
	}
	sum := &nir.AluInstr{Op: nir.OpFadd, Srcs: []nir.AluSrc{read(r0), read(r1)}, WriteMask: 0xf}
	if dstIndirect {
		ind := nir.SSASrc(idx)
		sum.Dest = nir.Dest{Reg: r2, Indirect: &ind}
		b.Insert(sum)
	} else {
		sum.Dest = nir.Dest{SSA: b.Func().NewDef(4, 32)}
		b.Insert(sum)
		b.StoreOutput(sum.Dest.SSA, 0, nir.SlotPos)
	}
	return b.Finish()
}

func TestCompile_AddressPoolBalanced(t *testing.T) {
	c, p := translate(t, indirectShader(false), DefaultCaps())

	assert.Equal(t, c.addr.acquired, c.addr.released)
	assert.Equal(t, 0, c.addr.next)
	assert.LessOrEqual(t, c.addr.maxDepth, MaxAddressRegs)
	assert.Equal(t, 2, c.addr.maxDepth)
	assert.Len(t, find(p, OpUARL), 2)

	add := find(p, OpADD)
	require.Len(t, add, 1)
	assert.True(t, add[0].Src[0].HasIndirect)
	assert.True(t, add[0].Src[1].HasIndirect)
	assert.NotEqual(t, add[0].Src[0].Indirect.Index, add[0].Src[1].Indirect.Index)
}

func TestCompile_AddressesUseARLWithoutIntegers(t *testing.T) {
	caps := DefaultCaps()
	caps.NativeIntegers = false
	_, p := translate(t, indirectShader(false), caps)
	assert.Len(t, find(p, OpARL), 2)
	assert.Empty(t, find(p, OpUARL))
}

func TestCompile_AnyRegAsAddress(t *testing.T) {
	caps := DefaultCaps()
	caps.AnyRegAsAddress = true
	_, p := translate(t, indirectShader(false), caps)
	assert.Empty(t, find(p, OpUARL))
	add := find(p, OpADD)
	require.Len(t, add, 1)
	assert.Equal(t, FileInput, add[0].Src[0].Indirect.File)
}

func TestCompile_TooManyAddresses(t *testing.T) {
	_, err := Compile(indirectShader(true), DefaultOptions())
	require.Error(t, err)
	assert.True(t, IsInternal(err))
}

func TestCompile_OutputElision(t *testing.T) {
	t.Run("single use", func(t *testing.T) {
		b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
		a := b.LoadInput(0, 0, 4, 32)
		b.StoreOutput(b.Alu(nir.OpFadd, a, a), 0, nir.SlotPos)
		p := compileWith(t, b.Finish(), DefaultCaps())

		assert.Empty(t, find(p, OpMOV))
		add := find(p, OpADD)
		require.Len(t, add, 1)
		assert.Equal(t, FileOutput, add[0].Dst[0].File)
		assert.Zero(t, p.NumTemps())
	})

	t.Run("two uses", func(t *testing.T) {
		b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
		a := b.LoadInput(0, 0, 4, 32)
		v := b.Alu(nir.OpFadd, a, a)
		b.StoreOutput(v, 0, nir.SlotPos)
		b.StoreOutput(v, 1, nir.SlotVar0)
		p := compileWith(t, b.Finish(), DefaultCaps())

		add := find(p, OpADD)
		require.Len(t, add, 1)
		assert.Equal(t, FileTemporary, add[0].Dst[0].File)
		assert.Len(t, find(p, OpMOV), 2)
	})

	t.Run("geometry stage", func(t *testing.T) {
		b := nir.NewBuilder(nir.NewShader(nir.StageGeometry))
		b.Shader.Info.OutputPrimitive = nir.PrimPoints
		b.Shader.Info.VerticesOut = 1
		b.Shader.Info.Invocations = 1
		v := b.ImmFloat(1, 2, 3, 4)
		w := b.Alu(nir.OpFadd, v, v)
		b.StoreOutput(w, 0, nir.SlotPos)
		b.Intrinsic(&nir.IntrinsicInstr{Intrinsic: nir.IntrEmitVertex}, 0, 0)
		p := compileWith(t, b.Finish(), DefaultCaps())

		add := find(p, OpADD)
		require.Len(t, add, 1)
		assert.Equal(t, FileTemporary, add[0].Dst[0].File)
		assert.Len(t, find(p, OpMOV), 1)
		assert.Len(t, find(p, OpEMIT), 1)
	})
}

type regKey struct {
	file  File
	index int32
}

// runMoves evaluates a program made only of MOVs from zeroed registers.
func runMoves(t *testing.T, p *Program) map[regKey][4]uint32 {
	t.Helper()
	regs := map[regKey][4]uint32{}
	read := func(s Src) [4]uint32 {
		var v [4]uint32
		if s.File == FileImmediate {
			v = p.Immediates[s.Index].Values
		} else {
			v = regs[regKey{s.File, s.Index}]
		}
		return [4]uint32{v[s.Swizzle[0]], v[s.Swizzle[1]], v[s.Swizzle[2]], v[s.Swizzle[3]]}
	}
	for i := range p.Instructions {
		in := &p.Instructions[i]
		switch in.Opcode {
		case OpEND:
			return regs
		case OpMOV:
		default:
			t.Fatalf("unexpected instruction %s", in)
		}
		val := read(in.Src[0])
		k := regKey{in.Dst[0].File, in.Dst[0].Index}
		cur := regs[k]
		for ch := 0; ch < 4; ch++ {
			if in.Dst[0].WriteMask&(1<<ch) != 0 {
				cur[ch] = val[ch]
			}
		}
		regs[k] = cur
	}
	return regs
}

func TestCompile_Pack64RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, ^uint64(0), 0x3FF0000000000000} {
		lo, hi := uint32(v), uint32(v>>32)

		b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
		packed := b.Alu(nir.OpPack64_2x32Split, b.Imm32(lo), b.Imm32(hi))
		b.StoreOutput(b.Alu(nir.OpUnpack64_2x32SplitX, packed), 0, nir.SlotVar0)
		b.StoreOutput(b.Alu(nir.OpUnpack64_2x32SplitY, packed), 1, nir.SlotVar0+1)
		p := compileWith(t, b.Finish(), DefaultCaps())

		regs := runMoves(t, p)
		assert.Equal(t, lo, regs[regKey{FileOutput, 0}][0], "low half of %#x", v)
		assert.Equal(t, hi, regs[regKey{FileOutput, 1}][0], "high half of %#x", v)
	}
}

func TestCompile_NestedControlFlowLabels(t *testing.T) {
	b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
	a := b.LoadInput(0, 0, 4, 32)
	s0 := b.LoadInput(1, 1, 1, 32)
	c0 := b.Alu(nir.OpFlt32, b.ImmFloat(0), s0)
	c1 := b.Alu(nir.OpFlt32, b.ImmFloat(1), s0)
	b.If(nir.SSASrc(c0), func() {
		b.Loop(func() {
			v := b.Alu(nir.OpFadd, a, a)
			b.StoreOutput(v, 0, nir.SlotVar0)
			b.If(nir.SSASrc(c1), func() {
				b.Break()
			}, func() {
				b.Continue()
			})
		})
	}, func() {
		b.StoreOutput(a, 0, nir.SlotVar0)
	})
	b.StoreOutput(a, 2, nir.SlotPos)
	p := compileWith(t, b.Finish(), DefaultCaps())

	labels := 0
	for i := range p.Instructions {
		in := &p.Instructions[i]
		if !in.HasLabel {
			continue
		}
		labels++
		require.Greater(t, int(in.Label), i, "%d: %s jumps backwards", i, in)
		require.Less(t, int(in.Label), len(p.Instructions), "%d: %s dangles", i, in)
		target := p.Instructions[in.Label].Opcode
		assert.Contains(t, []Opcode{OpELSE, OpENDIF}, target, "%d: %s", i, in)
	}
	assert.Equal(t, 4, labels)
	assert.Len(t, find(p, OpBGNLOOP), 1)
	assert.Len(t, find(p, OpENDLOOP), 1)
	assert.Len(t, find(p, OpBRK), 1)
	assert.Len(t, find(p, OpCONT), 1)
	assert.Len(t, find(p, OpENDIF), 2)
}

func TestCompile_IfUsesIFWithoutIntegers(t *testing.T) {
	caps := DefaultCaps()
	caps.NativeIntegers = false
	p := compileWith(t, vertexShader(), caps)
	assert.Len(t, find(p, OpIF), 1)
	assert.Empty(t, find(p, OpUIF))
}

func TestCompile_ScalarSaturate(t *testing.T) {
	b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
	x := b.LoadInput(0, 0, 4, 32)
	b.StoreOutput(b.Alu(nir.OpFsat, x), 0, nir.SlotPos)
	p := compileWith(t, b.Finish(), DefaultCaps())

	movs := find(p, OpMOV)
	require.Len(t, movs, 1)
	assert.True(t, movs[0].Saturate())
	assert.Empty(t, find(p, OpMIN))
	assert.Empty(t, find(p, OpMAX))
	assert.Len(t, p.Instructions, 2)
}

func TestCompile_DoubleSaturate(t *testing.T) {
	b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
	x := b.LoadInput(0, 0, 1, 32)
	d := b.Alu(nir.OpFsat, b.Alu(nir.OpF2F64, x))
	b.StoreOutput(b.Alu(nir.OpF2F32, d), 0, nir.SlotVar0)
	p := compileWith(t, b.Finish(), DefaultCaps())

	var ops []Opcode
	for i := range p.Instructions {
		ops = append(ops, p.Instructions[i].Opcode)
		assert.False(t, p.Instructions[i].Saturate())
	}
	assert.Equal(t, []Opcode{OpF2D, OpMIN, OpMAX, OpD2F, OpEND}, ops)
}

func TestCompile_Select64DuplicatesCondition(t *testing.T) {
	b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
	x := b.LoadInput(0, 0, 2, 32)
	y := b.LoadInput(1, 1, 2, 32)
	cond := b.Alu(nir.OpFlt32, x, y)
	sel := b.Alu(nir.OpB32csel, cond, b.Imm64(1, 2), b.Imm64(3, 4))
	b.StoreOutput(sel, 0, nir.SlotVar0)
	p := compileWith(t, b.Finish(), DefaultCaps())

	ucmp := find(p, OpUCMP)
	require.Len(t, ucmp, 1)
	assert.Equal(t, [4]uint8{SwizzleX, SwizzleX, SwizzleY, SwizzleY}, ucmp[0].Src[0].Swizzle)
	assert.Equal(t, WriteMaskXYZW, ucmp[0].Dst[0].WriteMask)
}

func TestCompile_Select32KeepsCondition(t *testing.T) {
	b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
	x := b.LoadInput(0, 0, 2, 32)
	y := b.LoadInput(1, 1, 2, 32)
	cond := b.Alu(nir.OpFlt32, x, y)
	b.StoreOutput(b.Alu(nir.OpB32csel, cond, x, y), 0, nir.SlotVar0)
	p := compileWith(t, b.Finish(), DefaultCaps())

	ucmp := find(p, OpUCMP)
	require.Len(t, ucmp, 1)
	assert.Equal(t, [4]uint8{SwizzleX, SwizzleY, SwizzleX, SwizzleX}, ucmp[0].Src[0].Swizzle)
}

func TestCompile_TempLimit(t *testing.T) {
	caps := DefaultCaps()
	caps.MaxTemps = 1
	b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
	a := b.LoadInput(0, 0, 4, 32)
	v1 := b.Alu(nir.OpFadd, a, a)
	v2 := b.Alu(nir.OpFmul, a, a)
	b.StoreOutput(b.Alu(nir.OpFadd, v1, v2), 0, nir.SlotPos)

	_, err := Compile(b.Finish(), &Options{Caps: caps})
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
}

func TestCompile_Properties(t *testing.T) {
	t.Run("tess eval", func(t *testing.T) {
		for spacing, want := range map[nir.TessSpacing]uint32{
			nir.SpacingEqual:          2,
			nir.SpacingFractionalOdd:  0,
			nir.SpacingFractionalEven: 1,
		} {
			b := nir.NewBuilder(nir.NewShader(nir.StageTessEval))
			b.Shader.Info.TESPrimitive = nir.PrimTriangles
			b.Shader.Info.TESSpacing = spacing
			b.Shader.Info.TESCCW = true
			b.StoreOutput(b.ImmFloat(0, 0, 0, 1), 0, nir.SlotPos)
			p := compileWith(t, b.Finish(), DefaultCaps())

			got, ok := p.Property(PropTESSpacing)
			require.True(t, ok)
			assert.Equal(t, want, got, "spacing %d", spacing)
			cw, _ := p.Property(PropTESVertexOrderCW)
			assert.Zero(t, cw)
		}
	})

	t.Run("compute", func(t *testing.T) {
		b := nir.NewBuilder(nir.NewShader(nir.StageCompute))
		b.Shader.Info.WorkgroupSize = [3]uint16{8, 4, 1}
		b.Shader.Info.SharedSize = 64
		p := compileWith(t, b.Finish(), DefaultCaps())

		w, _ := p.Property(PropCSFixedBlockWidth)
		h, _ := p.Property(PropCSFixedBlockHeight)
		d, _ := p.Property(PropCSFixedBlockDepth)
		assert.Equal(t, []uint32{8, 4, 1}, []uint32{w, h, d})
		assert.Equal(t, ProcessorCompute, p.Processor)

		var shared bool
		for _, decl := range p.Declarations {
			shared = shared || decl.File == FileMemory && decl.MemoryType == MemoryShared
		}
		assert.True(t, shared)
	})

	t.Run("geometry", func(t *testing.T) {
		b := nir.NewBuilder(nir.NewShader(nir.StageGeometry))
		b.Shader.Info.InputPrimitive = nir.PrimTriangles
		b.Shader.Info.OutputPrimitive = nir.PrimTriangleStrip
		b.Shader.Info.VerticesOut = 3
		b.Shader.Info.Invocations = 1
		p := compileWith(t, b.Finish(), DefaultCaps())

		in, _ := p.Property(PropGSInputPrim)
		out, _ := p.Property(PropGSOutputPrim)
		n, _ := p.Property(PropGSMaxOutputVertices)
		assert.Equal(t, uint32(nir.PrimTriangles), in)
		assert.Equal(t, uint32(nir.PrimTriangleStrip), out)
		assert.Equal(t, uint32(3), n)
	})
}

func TestCompile_FragCoordProperties(t *testing.T) {
	s := nir.NewShader(nir.StageFragment)
	s.Info.OriginUpperLeft = true
	s.AddVariable(&nir.Variable{Name: "color", Mode: nir.ModeShaderOut, Type: nir.Vector(nir.TypeFloat, 4), Location: nir.FragResultColor})
	b := nir.NewBuilder(s)
	pos := b.SysVal(nir.IntrLoadFragCoord, 4)
	b.StoreOutput(pos, 0, nir.FragResultColor)
	p := compileWith(t, b.Finish(), DefaultCaps())

	origin, ok := p.Property(PropFSCoordOrigin)
	require.True(t, ok)
	assert.Equal(t, uint32(CoordOriginUpperLeft), origin)
	center, _ := p.Property(PropFSCoordPixelCenter)
	assert.Equal(t, uint32(PixelCenterHalfInteger), center)

	colorWritesAll, _ := p.Property(PropFSColor0WritesAllCbufs)
	assert.Equal(t, uint32(1), colorWritesAll)
}

func TestCompile_FrontFace(t *testing.T) {
	s := nir.NewShader(nir.StageFragment)
	s.AddVariable(&nir.Variable{Name: "face", Mode: nir.ModeShaderIn, Type: nir.Scalar(nir.TypeFloat), Location: nir.SlotFace})
	s.AddVariable(&nir.Variable{Name: "color", Mode: nir.ModeShaderOut, Type: nir.Vector(nir.TypeFloat, 4), Location: nir.FragResultData0})
	b := nir.NewBuilder(s)
	face := b.LoadInput(0, nir.SlotFace, 1, 32)
	b.StoreOutput(b.Alu(nir.OpFadd, face, face), 0, nir.FragResultData0)
	p := compileWith(t, b.Finish(), DefaultCaps())

	sge := find(p, OpSGE)
	require.Len(t, sge, 1)
	assert.Equal(t, FileInput, sge[0].Src[0].File)
	add := find(p, OpADD)
	require.Len(t, add, 1)
	assert.Equal(t, FileTemporary, add[0].Src[0].File)
}

func TestCompile_Errors(t *testing.T) {
	noInts := DefaultCaps()
	noInts.NativeIntegers = false
	noSqrt := DefaultCaps()
	noSqrt.Sqrt = false

	tests := []struct {
		name  string
		caps  Caps
		build func(b *nir.Builder)
		check func(error) bool
	}{
		{
			name: "vec4 not lowered",
			caps: DefaultCaps(),
			build: func(b *nir.Builder) {
				x := b.ImmFloat(1)
				b.StoreOutput(b.Alu(nir.OpVec4, x, x, x, x), 0, nir.SlotPos)
			},
			check: IsUnsupported,
		},
		{
			name: "64-bit without integers",
			caps: noInts,
			build: func(b *nir.Builder) {
				x := b.LoadInput(0, 0, 1, 32)
				b.StoreOutput(b.Alu(nir.OpF2F32, b.Alu(nir.OpF2F64, x)), 0, nir.SlotPos)
			},
			check: IsUnsupported,
		},
		{
			name: "sqrt without target support",
			caps: noSqrt,
			build: func(b *nir.Builder) {
				x := b.LoadInput(0, 0, 4, 32)
				b.StoreOutput(b.Alu(nir.OpFsqrt, x), 0, nir.SlotPos)
			},
			check: IsUnsupported,
		},
		{
			name: "use before definition",
			caps: DefaultCaps(),
			build: func(b *nir.Builder) {
				ghost := b.Func().NewDef(4, 32)
				b.StoreOutput(b.Alu(nir.OpFadd, ghost, ghost), 0, nir.SlotPos)
			},
			check: IsInternal,
		},
		{
			name: "cull distance",
			caps: DefaultCaps(),
			build: func(b *nir.Builder) {
				b.StoreOutput(b.ImmFloat(1), 0, nir.SlotCullDist0)
			},
			check: IsUnsupported,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
			tc.build(b)
			_, err := Compile(b.Finish(), &Options{Caps: tc.caps})
			require.Error(t, err)
			assert.True(t, tc.check(err), "got %v", err)
		})
	}
}

func TestCompile_UBOSizeConflict(t *testing.T) {
	build := func(a, b uint32) *nir.Shader {
		s := nir.NewShader(nir.StageVertex)
		s.AddVariable(&nir.Variable{Name: "lights", Mode: nir.ModeUBO, Type: nir.InterfaceType(a), DriverLocation: 1})
		s.AddVariable(&nir.Variable{Name: "lights_view", Mode: nir.ModeUBO, Type: nir.InterfaceType(b), DriverLocation: 1})
		nb := nir.NewBuilder(s)
		nb.StoreOutput(nb.ImmFloat(0, 0, 0, 1), 0, nir.SlotPos)
		return nb.Finish()
	}

	_, err := Compile(build(64, 32), DefaultOptions())
	require.Error(t, err)
	assert.True(t, IsInternal(err), "got %v", err)
	assert.Contains(t, err.Error(), "constant buffer 1")

	p := compileWith(t, build(64, 64), DefaultCaps())
	consts := findDecl(p, FileConstant)
	require.Len(t, consts, 1)
	assert.Equal(t, uint32(1), consts[0].Dimension)
	assert.Equal(t, int32(3), consts[0].Last)
}

// emitUnlegalized translates s without legalization, the way a shader
// prepared for another backend would arrive.
func emitUnlegalized(s *nir.Shader, caps Caps) error {
	c := newCompiler(s, &caps, nir.ComputeLiveness(s.Entry))
	return c.compile()
}

func TestCompile_UnlegalizedInput(t *testing.T) {
	t.Run("unassigned value", func(t *testing.T) {
		b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
		ghost := b.Func().NewDef(4, 32)
		b.StoreOutput(b.Alu(nir.OpFadd, ghost, ghost), 0, nir.SlotPos)

		err := emitUnlegalized(b.Finish(), DefaultCaps())
		require.Error(t, err)
		assert.True(t, IsInternal(err), "got %v", err)
		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Contains(t, e.Message, "unassigned")
		assert.Contains(t, e.Instr, "fadd")
	})

	t.Run("vector constructor", func(t *testing.T) {
		b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
		x := b.ImmFloat(1)
		b.StoreOutput(b.Alu(nir.OpVec4, x, x, x, x), 0, nir.SlotPos)

		err := emitUnlegalized(b.Finish(), DefaultCaps())
		require.Error(t, err)
		assert.True(t, IsInternal(err), "got %v", err)
		assert.Contains(t, err.Error(), "not lowered")
	})

	t.Run("if condition", func(t *testing.T) {
		b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
		ghost := b.Func().NewDef(1, 32)
		b.If(nir.SSASrc(ghost), func() {
			b.StoreOutput(b.ImmFloat(0, 0, 0, 1), 0, nir.SlotPos)
		}, nil)

		err := emitUnlegalized(b.Finish(), DefaultCaps())
		require.Error(t, err)
		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, ErrInternal, e.Kind)
		assert.Equal(t, fmt.Sprintf("if %%%d", ghost.Index), e.Instr)
	})
}

func TestCompile_DebugLogging(t *testing.T) {
	var sink logSink
	opts := DefaultOptions()
	opts.Debug = true
	opts.Logger = sink.logger()
	_, err := Compile(vertexShader(), opts)
	require.NoError(t, err)

	out := sink.String()
	assert.Contains(t, out, "translating shader")
	assert.Contains(t, out, "translated shader")
	assert.Contains(t, out, "name=scale")
}

type logSink struct{ bytes.Buffer }

func (s *logSink) logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&s.Buffer, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
