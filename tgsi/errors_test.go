// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "Unsupported", ErrUnsupported.String())
	assert.Equal(t, "Internal", ErrInternal.String())
	assert.Equal(t, "Unknown", ErrorKind(7).String())
}

func TestError_Message(t *testing.T) {
	err := NewError(ErrUnsupported, "%d-bit values", 16)
	assert.Equal(t, "tgsi Unsupported: 16-bit values", err.Error())

	err.Instr = "ssa_3 = fadd ssa_1, ssa_2"
	assert.Equal(t, "tgsi Unsupported: 16-bit values (at ssa_3 = fadd ssa_1, ssa_2)", err.Error())
}

func TestError_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("compile %q: %w", "scale", NewError(ErrInternal, "broken"))
	assert.True(t, IsInternal(wrapped))
	assert.False(t, IsUnsupported(wrapped))

	var e *Error
	require.True(t, errors.As(wrapped, &e))
	assert.Equal(t, "broken", e.Message)

	assert.False(t, IsInternal(errors.New("plain")))
	assert.False(t, IsUnsupported(nil))
}
