// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ntt/nir"
)

func fragmentShader(samplers ...*nir.Variable) (*nir.Shader, *nir.Builder) {
	s := nir.NewShader(nir.StageFragment)
	s.AddVariable(&nir.Variable{Name: "color", Mode: nir.ModeShaderOut, Type: nir.Vector(nir.TypeFloat, 4), Location: nir.FragResultColor})
	for _, v := range samplers {
		s.AddVariable(v)
	}
	return s, nir.NewBuilder(s)
}

func sampler2D(shadow bool) *nir.Variable {
	return &nir.Variable{
		Name: "tex",
		Mode: nir.ModeUniform,
		Type: nir.SamplerType(nir.Dim2D, false, shadow, nir.TypeFloat),
	}
}

func findDecl(p *Program, file File) []Declaration {
	var out []Declaration
	for _, d := range p.Declarations {
		if d.File == file {
			out = append(out, d)
		}
	}
	return out
}

func TestTexture_Sample(t *testing.T) {
	_, b := fragmentShader(sampler2D(false))
	coord := b.ImmFloat(0.25, 0.75)
	res := b.Tex(&nir.TexInstr{
		Op:              nir.TexOpTex,
		SamplerDim:      nir.Dim2D,
		CoordComponents: 2,
		DestType:        nir.TypeFloat,
		Srcs:            []nir.TexSrc{{Type: nir.TexSrcCoord, Src: nir.SSASrc(coord)}},
	}, 4)
	b.StoreOutput(res, 0, nir.FragResultColor)
	p := compileWith(t, b.Finish(), DefaultCaps())

	tex := find(p, OpTEX)
	require.Len(t, tex, 1)
	require.NotNil(t, tex[0].Texture)
	assert.Equal(t, Texture2D, tex[0].Texture.Target)
	assert.Equal(t, ReturnFloat, tex[0].Texture.ReturnType)
	require.Len(t, tex[0].Src, 2)
	assert.Equal(t, FileImmediate, tex[0].Src[0].File)
	assert.Equal(t, FileSampler, tex[0].Src[1].File)
	assert.Empty(t, find(p, OpMOV))

	views := findDecl(p, FileSamplerView)
	require.Len(t, views, 1)
	assert.Equal(t, Texture2D, views[0].Texture)
	assert.Len(t, findDecl(p, FileSampler), 1)
}

func TestTexture_ShadowPacksComparator(t *testing.T) {
	_, b := fragmentShader(sampler2D(true))
	coord := b.LoadInput(0, nir.SlotVar0, 2, 32)
	ref := b.LoadInput(0, nir.SlotVar0, 1, 32)
	b.Shader.AddVariable(&nir.Variable{Name: "uv", Mode: nir.ModeShaderIn, Type: nir.Vector(nir.TypeFloat, 4), Location: nir.SlotVar0})
	res := b.Tex(&nir.TexInstr{
		Op:              nir.TexOpTex,
		SamplerDim:      nir.Dim2D,
		IsShadow:        true,
		CoordComponents: 2,
		DestType:        nir.TypeFloat,
		Srcs: []nir.TexSrc{
			{Type: nir.TexSrcCoord, Src: nir.SSASrc(coord)},
			{Type: nir.TexSrcComparator, Src: nir.SSASrc(ref)},
		},
	}, 4)
	b.StoreOutput(res, 0, nir.FragResultColor)
	p := compileWith(t, b.Finish(), DefaultCaps())

	tex := find(p, OpTEX)
	require.Len(t, tex, 1)
	assert.Equal(t, TextureShadow2D, tex[0].Texture.Target)
	assert.Equal(t, FileTemporary, tex[0].Src[0].File)
	assert.Empty(t, find(p, OpTXP))
}

func TestTexture_FetchWithZeroLod(t *testing.T) {
	build := func() *nir.Shader {
		s, b := fragmentShader(sampler2D(false))
		coord := b.Imm32(3, 4)
		lod := b.Imm32(0)
		res := b.Tex(&nir.TexInstr{
			Op:              nir.TexOpTxf,
			SamplerDim:      nir.Dim2D,
			CoordComponents: 2,
			DestType:        nir.TypeFloat,
			Srcs: []nir.TexSrc{
				{Type: nir.TexSrcCoord, Src: nir.SSASrc(coord)},
				{Type: nir.TexSrcLod, Src: nir.SSASrc(lod)},
			},
		}, 4)
		b.StoreOutput(res, 0, nir.FragResultColor)
		return s
	}

	p := compileWith(t, build(), DefaultCaps())
	assert.Len(t, find(p, OpTXF), 1)
	assert.Empty(t, find(p, OpTXFLZ))

	caps := DefaultCaps()
	caps.TXFLZ = true
	p = compileWith(t, build(), caps)
	assert.Len(t, find(p, OpTXFLZ), 1)
	assert.Empty(t, find(p, OpTXF))
}

func TestTexture_ExplicitLodOutsideFragment(t *testing.T) {
	s := nir.NewShader(nir.StageVertex)
	s.AddVariable(sampler2D(false))
	b := nir.NewBuilder(s)
	res := b.Tex(&nir.TexInstr{
		Op:              nir.TexOpTxl,
		SamplerDim:      nir.Dim2D,
		CoordComponents: 2,
		DestType:        nir.TypeFloat,
		Srcs: []nir.TexSrc{
			{Type: nir.TexSrcCoord, Src: nir.SSASrc(b.ImmFloat(0.5, 0.5))},
			{Type: nir.TexSrcLod, Src: nir.SSASrc(b.ImmFloat(0))},
		},
	}, 4)
	b.StoreOutput(res, 0, nir.SlotPos)
	p := compileWith(t, b.Finish(), DefaultCaps())

	assert.Len(t, find(p, OpTEX), 1)
	assert.Empty(t, find(p, OpTXL))
}

func TestTexture_QueryLevelsReadsW(t *testing.T) {
	_, b := fragmentShader(sampler2D(false))
	res := b.Tex(&nir.TexInstr{
		Op:         nir.TexOpQueryLevels,
		SamplerDim: nir.Dim2D,
		DestType:   nir.TypeInt,
	}, 1)
	b.StoreOutput(res, 0, nir.FragResultColor)
	p := compileWith(t, b.Finish(), DefaultCaps())

	txq := find(p, OpTXQ)
	require.Len(t, txq, 1)
	assert.Equal(t, WriteMaskW, txq[0].Dst[0].WriteMask)

	var moved bool
	for _, mov := range find(p, OpMOV) {
		if mov.Src[0].File == FileTemporary && mov.Src[0].Swizzle == [4]uint8{SwizzleW, SwizzleW, SwizzleW, SwizzleW} {
			moved = true
		}
	}
	assert.True(t, moved)
}

func TestTexture_SizeQueryWithLod(t *testing.T) {
	_, b := fragmentShader(sampler2D(false))
	res := b.Tex(&nir.TexInstr{
		Op:         nir.TexOpTxs,
		SamplerDim: nir.Dim2D,
		DestType:   nir.TypeInt,
		Srcs:       []nir.TexSrc{{Type: nir.TexSrcLod, Src: nir.SSASrc(b.Imm32(3))}},
	}, 2)
	b.StoreOutput(res, 0, nir.FragResultColor)
	p := compileWith(t, b.Finish(), DefaultCaps())

	txq := find(p, OpTXQ)
	require.Len(t, txq, 1)
	require.Len(t, txq[0].Src, 2)
	assert.Equal(t, FileImmediate, txq[0].Src[0].File)
	assert.Equal(t, [4]uint8{SwizzleX, SwizzleX, SwizzleX, SwizzleX}, txq[0].Src[0].Swizzle)
	assert.Equal(t, FileSampler, txq[0].Src[1].File)
	assert.Empty(t, find(p, OpMOV), "a query without a coordinate packs nothing")
}

func TestTexture_Opcodes(t *testing.T) {
	src := func(typ nir.TexSrcType, d *nir.Def) nir.TexSrc {
		return nir.TexSrc{Type: typ, Src: nir.SSASrc(d)}
	}
	cubeArray := func(shadow bool) *nir.Variable {
		return &nir.Variable{
			Name: "cube",
			Mode: nir.ModeUniform,
			Type: nir.SamplerType(nir.DimCube, true, shadow, nir.TypeFloat),
		}
	}

	tests := []struct {
		name    string
		sampler *nir.Variable
		caps    func(*Caps)
		tex     func(b *nir.Builder) *nir.TexInstr
		comps   uint8
		op      Opcode
		check   func(t *testing.T, in *Instruction)
	}{
		{
			name:    "size query without lod",
			sampler: sampler2D(false),
			tex: func(b *nir.Builder) *nir.TexInstr {
				return &nir.TexInstr{Op: nir.TexOpTxs, SamplerDim: nir.Dim2D, DestType: nir.TypeInt}
			},
			comps: 2,
			op:    OpTXQ,
			check: func(t *testing.T, in *Instruction) {
				require.Len(t, in.Src, 1)
				assert.Equal(t, FileSampler, in.Src[0].File)
			},
		},
		{
			name:    "explicit derivatives",
			sampler: sampler2D(false),
			tex: func(b *nir.Builder) *nir.TexInstr {
				return &nir.TexInstr{
					Op: nir.TexOpTxd, SamplerDim: nir.Dim2D, CoordComponents: 2, DestType: nir.TypeFloat,
					Srcs: []nir.TexSrc{
						src(nir.TexSrcCoord, b.ImmFloat(0.5, 0.5)),
						src(nir.TexSrcDdx, b.ImmFloat(0.125, 0)),
						src(nir.TexSrcDdy, b.ImmFloat(0, 0.125)),
					},
				}
			},
			comps: 4,
			op:    OpTXD,
			check: func(t *testing.T, in *Instruction) {
				require.Len(t, in.Src, 4)
				assert.Equal(t, FileImmediate, in.Src[1].File)
				assert.Equal(t, FileImmediate, in.Src[2].File)
				assert.Equal(t, FileSampler, in.Src[3].File)
			},
		},
		{
			name:    "gather component as immediate",
			sampler: sampler2D(false),
			tex: func(b *nir.Builder) *nir.TexInstr {
				return &nir.TexInstr{
					Op: nir.TexOpTg4, SamplerDim: nir.Dim2D, CoordComponents: 2, Component: 2, DestType: nir.TypeFloat,
					Srcs: []nir.TexSrc{src(nir.TexSrcCoord, b.ImmFloat(0.5, 0.5))},
				}
			},
			comps: 4,
			op:    OpTG4,
			check: func(t *testing.T, in *Instruction) {
				require.Len(t, in.Src, 3)
				assert.Equal(t, FileImmediate, in.Src[1].File)
				assert.Equal(t, FileSampler, in.Src[2].File)
				assert.Equal(t, identitySwizzle, in.Src[2].Swizzle)
			},
		},
		{
			name:    "gather component in sampler swizzle",
			sampler: sampler2D(false),
			caps:    func(c *Caps) { c.TG4ComponentInSwizzle = true },
			tex: func(b *nir.Builder) *nir.TexInstr {
				return &nir.TexInstr{
					Op: nir.TexOpTg4, SamplerDim: nir.Dim2D, CoordComponents: 2, Component: 2, DestType: nir.TypeFloat,
					Srcs: []nir.TexSrc{src(nir.TexSrcCoord, b.ImmFloat(0.5, 0.5))},
				}
			},
			comps: 4,
			op:    OpTG4,
			check: func(t *testing.T, in *Instruction) {
				require.Len(t, in.Src, 3)
				assert.True(t, in.Src[1].IsUndef())
				assert.Equal(t, FileSampler, in.Src[2].File)
				assert.Equal(t, [4]uint8{SwizzleZ, SwizzleZ, SwizzleZ, SwizzleZ}, in.Src[2].Swizzle)
			},
		},
		{
			name:    "projector",
			sampler: sampler2D(false),
			tex: func(b *nir.Builder) *nir.TexInstr {
				return &nir.TexInstr{
					Op: nir.TexOpTex, SamplerDim: nir.Dim2D, CoordComponents: 2, DestType: nir.TypeFloat,
					Srcs: []nir.TexSrc{
						src(nir.TexSrcCoord, b.ImmFloat(0.5, 0.25)),
						src(nir.TexSrcProjector, b.ImmFloat(2)),
					},
				}
			},
			comps: 4,
			op:    OpTXP,
			check: func(t *testing.T, in *Instruction) {
				require.Len(t, in.Src, 2)
				assert.Equal(t, FileTemporary, in.Src[0].File)
				assert.Equal(t, FileSampler, in.Src[1].File)
			},
		},
		{
			name:    "shadow cube array",
			sampler: cubeArray(true),
			tex: func(b *nir.Builder) *nir.TexInstr {
				return &nir.TexInstr{
					Op: nir.TexOpTex, SamplerDim: nir.DimCube, IsArray: true, IsShadow: true, CoordComponents: 4, DestType: nir.TypeFloat,
					Srcs: []nir.TexSrc{
						src(nir.TexSrcCoord, b.ImmFloat(0.25, 0.5, 0.75, 1)),
						src(nir.TexSrcComparator, b.ImmFloat(0.125)),
					},
				}
			},
			comps: 4,
			op:    OpTEX2,
			check: func(t *testing.T, in *Instruction) {
				require.Len(t, in.Src, 3)
				assert.Equal(t, TextureShadowCubeArray, in.Texture.Target)
				assert.Equal(t, FileSampler, in.Src[2].File)
			},
		},
		{
			name:    "cube array with bias",
			sampler: cubeArray(false),
			tex: func(b *nir.Builder) *nir.TexInstr {
				return &nir.TexInstr{
					Op: nir.TexOpTxb, SamplerDim: nir.DimCube, IsArray: true, CoordComponents: 4, DestType: nir.TypeFloat,
					Srcs: []nir.TexSrc{
						src(nir.TexSrcCoord, b.ImmFloat(0.25, 0.5, 0.75, 1)),
						src(nir.TexSrcBias, b.ImmFloat(-1)),
					},
				}
			},
			comps: 4,
			op:    OpTXB2,
			check: func(t *testing.T, in *Instruction) {
				require.Len(t, in.Src, 3)
				assert.Equal(t, TextureCubeArray, in.Texture.Target)
			},
		},
		{
			name:    "cube array with lod",
			sampler: cubeArray(false),
			tex: func(b *nir.Builder) *nir.TexInstr {
				return &nir.TexInstr{
					Op: nir.TexOpTxl, SamplerDim: nir.DimCube, IsArray: true, CoordComponents: 4, DestType: nir.TypeFloat,
					Srcs: []nir.TexSrc{
						src(nir.TexSrcCoord, b.ImmFloat(0.25, 0.5, 0.75, 1)),
						src(nir.TexSrcLod, b.ImmFloat(2)),
					},
				}
			},
			comps: 4,
			op:    OpTXL2,
			check: func(t *testing.T, in *Instruction) {
				require.Len(t, in.Src, 3)
				assert.Equal(t, TextureCubeArray, in.Texture.Target)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, b := fragmentShader(tt.sampler)
			res := b.Tex(tt.tex(b), tt.comps)
			b.StoreOutput(res, 0, nir.FragResultColor)

			caps := DefaultCaps()
			if tt.caps != nil {
				tt.caps(&caps)
			}
			p := compileWith(t, b.Finish(), caps)

			got := find(p, tt.op)
			require.Len(t, got, 1, "\n%s", p)
			require.NotNil(t, got[0].Texture)
			tt.check(t, got[0])
			for _, mov := range find(p, OpMOV) {
				assert.False(t, mov.Src[0].IsUndef(), "MOV from an undefined operand")
			}
		})
	}
}

func uboShader(offset uint32, comps uint8) *nir.Shader {
	s := nir.NewShader(nir.StageVertex)
	s.AddVariable(&nir.Variable{Name: "block", Mode: nir.ModeUBO, Type: nir.InterfaceType(64)})
	b := nir.NewBuilder(s)
	v := b.Intrinsic(&nir.IntrinsicInstr{
		Intrinsic: nir.IntrLoadUBO,
		Srcs:      []nir.Src{nir.SSASrc(b.Imm32(0)), nir.SSASrc(b.Imm32(offset))},
	}, comps, 32)
	b.StoreOutput(v, 0, nir.SlotVar0)
	return b.Finish()
}

func TestUBO_DirectConstants(t *testing.T) {
	p := compileWith(t, uboShader(20, 2), DefaultCaps())

	movs := find(p, OpMOV)
	require.Len(t, movs, 1)
	src := movs[0].Src[0]
	assert.Equal(t, FileConstant, src.File)
	assert.Equal(t, int32(1), src.Index)
	assert.True(t, src.HasDimension)
	assert.Equal(t, int32(0), src.Dimension)
	assert.Equal(t, SwizzleY, src.Swizzle[0])
	assert.Equal(t, SwizzleZ, src.Swizzle[1])

	consts := findDecl(p, FileConstant)
	require.Len(t, consts, 1)
	assert.Equal(t, int32(0), consts[0].First)
	assert.Equal(t, int32(3), consts[0].Last)
	assert.Empty(t, find(p, OpLOAD))
}

func TestUBO_CrossingVec4(t *testing.T) {
	_, err := Compile(uboShader(8, 4), DefaultOptions())
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
}

func TestUBO_LoadConstbuf(t *testing.T) {
	caps := DefaultCaps()
	caps.LoadConstbuf = true
	p := compileWith(t, uboShader(8, 4), caps)

	load := find(p, OpLOAD)
	require.Len(t, load, 1)
	assert.Equal(t, FileConstant, load[0].Src[0].File)
	assert.Equal(t, FileImmediate, load[0].Src[1].File)
}

func TestMemory_SharedAccess(t *testing.T) {
	s := nir.NewShader(nir.StageCompute)
	s.Info.WorkgroupSize = [3]uint16{64, 1, 1}
	s.Info.SharedSize = 256
	b := nir.NewBuilder(s)
	id := b.SysVal(nir.IntrLoadLocalInvocationID, 1)
	off := b.Alu(nir.OpIshl, id, b.Imm32(2))
	b.Insert(&nir.IntrinsicInstr{
		Intrinsic:     nir.IntrStoreShared,
		Srcs:          []nir.Src{nir.SSASrc(id), nir.SSASrc(off)},
		WriteMask:     1,
		NumComponents: 1,
	})
	b.Intrinsic(&nir.IntrinsicInstr{Intrinsic: nir.IntrControlBarrier}, 0, 0)
	loaded := b.Intrinsic(&nir.IntrinsicInstr{
		Intrinsic: nir.IntrLoadShared,
		Srcs:      []nir.Src{nir.SSASrc(b.Imm32(0))},
	}, 1, 32)
	b.Insert(&nir.IntrinsicInstr{
		Intrinsic:     nir.IntrStoreShared,
		Srcs:          []nir.Src{nir.SSASrc(loaded), nir.SSASrc(b.Imm32(4))},
		WriteMask:     1,
		NumComponents: 1,
	})
	p := compileWith(t, b.Finish(), DefaultCaps())

	stores := find(p, OpSTORE)
	require.Len(t, stores, 2)
	assert.Equal(t, FileMemory, stores[0].Dst[0].File)
	assert.Len(t, find(p, OpLOAD), 1)
	assert.Len(t, find(p, OpBARRIER), 1)
	assert.Len(t, findDecl(p, FileMemory), 1)
}

func TestSysval_VertexIDWithoutIntegers(t *testing.T) {
	build := func() *nir.Shader {
		b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
		id := b.SysVal(nir.IntrLoadVertexID, 1)
		b.StoreOutput(id, 0, nir.SlotVar0)
		return b.Finish()
	}

	p := compileWith(t, build(), DefaultCaps())
	assert.Empty(t, find(p, OpU2F))
	sv := findDecl(p, FileSystemValue)
	require.Len(t, sv, 1)
	assert.Equal(t, SemanticVertexID, sv[0].Semantic)

	caps := DefaultCaps()
	caps.NativeIntegers = false
	p = compileWith(t, build(), caps)
	assert.Len(t, find(p, OpU2F), 1)
}

func TestOutputs_VaryingSemantics(t *testing.T) {
	build := func() *nir.Shader {
		b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
		v := b.LoadInput(0, 0, 4, 32)
		b.StoreOutput(v, 0, nir.SlotPos)
		b.StoreOutput(v, 1, nir.SlotTex0+2)
		b.StoreOutput(v, 2, nir.SlotVar0+3)
		return b.Finish()
	}
	semantics := func(p *Program) map[int32]string {
		out := map[int32]string{}
		for _, d := range findDecl(p, FileOutput) {
			out[d.First] = d.String()
		}
		return out
	}

	p := compileWith(t, build(), DefaultCaps())
	got := semantics(p)
	assert.Contains(t, got[0], "POSITION")
	assert.Contains(t, got[1], "GENERIC[2]")
	assert.Contains(t, got[2], "GENERIC[12]")

	caps := DefaultCaps()
	caps.TexcoordSemantic = true
	p = compileWith(t, build(), caps)
	got = semantics(p)
	assert.Contains(t, got[1], "TEXCOORD[2]")
	assert.Contains(t, got[2], "GENERIC[3]")
}

func TestDiscardIf(t *testing.T) {
	_, b := fragmentShader()
	cond := b.SysVal(nir.IntrLoadFrontFace, 1)
	b.Insert(&nir.IntrinsicInstr{Intrinsic: nir.IntrDiscardIf, Srcs: []nir.Src{nir.SSASrc(cond)}})
	b.StoreOutput(b.ImmFloat(1, 0, 0, 1), 0, nir.FragResultColor)
	p := compileWith(t, b.Finish(), DefaultCaps())

	assert.Len(t, find(p, OpKILLIF), 1)
}
