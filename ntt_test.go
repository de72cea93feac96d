// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ntt

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ntt/nir"
	"github.com/gogpu/ntt/nir/nirfile"
	"github.com/gogpu/ntt/tgsi"
)

func TestCompileFileVertex(t *testing.T) {
	prog, err := CompileFile(filepath.Join("testdata", "passthrough.yaml"), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, tgsi.ProcessorVertex, prog.Processor)
	assert.Equal(t, 1, prog.Count(tgsi.OpEND))
	assert.Equal(t, 1, prog.Count(tgsi.OpMUL))

	var outputs []tgsi.Semantic
	for _, d := range prog.Declarations {
		if d.File == tgsi.FileOutput {
			outputs = append(outputs, d.Semantic)
		}
	}
	assert.ElementsMatch(t, []tgsi.Semantic{tgsi.SemanticPosition, tgsi.SemanticGeneric}, outputs)
}

func TestCompileFileFragment(t *testing.T) {
	prog, err := CompileFile(filepath.Join("testdata", "tint.yaml"), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, tgsi.ProcessorFragment, prog.Processor)
	assert.Equal(t, 1, prog.Count(tgsi.OpKILL)+prog.Count(tgsi.OpKILLIF))
	assert.True(t, strings.HasPrefix(prog.String(), "FRAG\n"), prog.String())
}

func TestCompileFileErrors(t *testing.T) {
	_, err := CompileFile(filepath.Join("testdata", "missing.yaml"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Contains(t, err.Error(), "load error")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("stage: vertex\nbody: [{op: nonsense}]\n"), 0o644))
	_, err = CompileFile(bad, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestCompileWrapsTranslationErrors(t *testing.T) {
	_, err := Compile(nil, nil)
	require.Error(t, err)
	assert.True(t, tgsi.IsInternal(err))
	assert.True(t, strings.HasPrefix(err.Error(), "translation error: "))

	b := nir.NewBuilder(nir.NewShader(nir.StageVertex))
	b.StoreOutput(b.LoadInput(0, 0, 1, 16), 0, nir.SlotPos)
	_, err = Compile(b.Finish(), DefaultOptions())
	assert.True(t, tgsi.IsUnsupported(err))
}

func TestCompileSavedShader(t *testing.T) {
	s, err := nirfile.Load(filepath.Join("testdata", "passthrough.yaml"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "copy.yaml")
	require.NoError(t, nirfile.Save(path, s))

	want, err := CompileFile(filepath.Join("testdata", "passthrough.yaml"), DefaultOptions())
	require.NoError(t, err)
	got, err := CompileFile(path, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, want.Bytes(), got.Bytes())
}

func TestDisassemble(t *testing.T) {
	prog, err := CompileFile(filepath.Join("testdata", "passthrough.yaml"), DefaultOptions())
	require.NoError(t, err)

	text, err := Disassemble(prog.Bytes())
	require.NoError(t, err)
	assert.Equal(t, prog.String(), text)
	assert.Contains(t, text, "DCL OUT[0], POSITION")

	_, err = Disassemble([]byte{0, 1, 2, 3, 4})
	require.Error(t, err)
	assert.ErrorIs(t, err, tgsi.ErrBadTokens)
	assert.Contains(t, err.Error(), "decode error")
}
