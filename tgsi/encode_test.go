// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ntt/nir"
)

func texturedProgram(t *testing.T) *Program {
	t.Helper()
	s, b := fragmentShader(sampler2D(true))
	coord := b.LoadInput(0, nir.SlotVar0, 2, 32)
	ref := b.LoadInput(0, nir.SlotVar0, 1, 32)
	s.AddVariable(&nir.Variable{Name: "uv", Mode: nir.ModeShaderIn, Type: nir.Vector(nir.TypeFloat, 4), Location: nir.SlotVar0})
	v := b.Tex(&nir.TexInstr{
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
	b.StoreOutput(v, 0, nir.FragResultColor)
	return compileWith(t, b.Finish(), DefaultCaps())
}

func TestEncode_RoundTrip(t *testing.T) {
	programs := map[string]*Program{
		"vertex":   compileWith(t, vertexShader(), DefaultCaps()),
		"fragment": texturedProgram(t),
		"indirect": compileWith(t, indirectShader(false), DefaultCaps()),
	}
	for name, p := range programs {
		t.Run(name, func(t *testing.T) {
			words := p.Tokens()
			assert.Equal(t, uint32(MagicNumber), words[0])
			assert.Equal(t, uint32(Version), words[1])

			got, err := Decode(words)
			require.NoError(t, err)
			assert.Equal(t, p.String(), got.String())
			assert.Equal(t, words, got.Tokens())

			fromBytes, err := DecodeBytes(p.Bytes())
			require.NoError(t, err)
			assert.Equal(t, words, fromBytes.Tokens())
		})
	}
}

func TestEncode_BytesAreLittleEndian(t *testing.T) {
	p := NewBuilder(ProcessorCompute).Finish()
	data := p.Bytes()
	require.Len(t, data, headerWords*4)
	assert.Equal(t, []byte("TGSI"), data[:4])
	assert.Equal(t, uint32(ProcessorCompute), binary.LittleEndian.Uint32(data[8:]))
}

func TestDecode_Errors(t *testing.T) {
	header := []uint32{MagicNumber, Version, uint32(ProcessorVertex)}
	with := func(words ...uint32) []uint32 {
		return append(append([]uint32(nil), header...), words...)
	}

	tests := []struct {
		name  string
		words []uint32
	}{
		{"empty", nil},
		{"truncated header", header[:2]},
		{"bad magic", []uint32{0xdeadbeef, Version, 0}},
		{"bad version", []uint32{MagicNumber, Version + 1, 0}},
		{"bad processor", []uint32{MagicNumber, Version, 9}},
		{"overrun", with(record(recordProperty, 0, []uint32{1})[0])},
		{"unknown kind", with(record(9, 0, nil)...)},
		{"unknown opcode", with(record(recordInstruction, 0xff, []uint32{0})...)},
		{"short payload", with(record(recordDeclaration, uint8(FileTemporary), []uint32{0, 0})...)},
		{"trailing words", with(record(recordProperty, 0, []uint32{1, 2})...)},
		{"wide immediate", with(record(recordImmediate, 0, []uint32{5, 0, 0, 0, 0, 0})...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.words)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrBadTokens), "%v", err)
		})
	}
}

func TestDecodeBytes_Length(t *testing.T) {
	_, err := DecodeBytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrBadTokens)
}
