// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/ntt/tgsi"
)

func program() *tgsi.Program {
	b := tgsi.NewBuilder(tgsi.ProcessorFragment)
	out := b.DeclareOutput(tgsi.SemanticColor, 0)
	t := b.DeclareTemporary()
	b.Emit(tgsi.OpMOV, t, b.ImmFloat(1, 0, 0, 1))
	b.Emit(tgsi.OpMOV, out, t.AsSrc())
	b.Emit(tgsi.OpEND, tgsi.Dst{})
	return b.Finish()
}

func TestDisassembleListing(t *testing.T) {
	p := program()
	var buf bytes.Buffer
	require.NoError(t, disassemble(&buf, p.Bytes(), false))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "; TGSI\n"))
	assert.Contains(t, out, "; Instructions: 3\n")
	assert.Contains(t, out, "; Temps: 1\n")
	assert.True(t, strings.HasSuffix(out, p.String()))
}

func TestDisassembleHistogram(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, disassemble(&buf, program().Bytes(), true))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, []string{"MOV", "2"}, strings.Fields(lines[len(lines)-2]))
	assert.Equal(t, []string{"END", "1"}, strings.Fields(lines[len(lines)-1]))
}

func TestDisassembleBadInput(t *testing.T) {
	var buf bytes.Buffer
	err := disassemble(&buf, []byte{1, 2, 3, 4}, false)
	assert.ErrorIs(t, err, tgsi.ErrBadTokens)
	assert.Empty(t, buf.String())
}
