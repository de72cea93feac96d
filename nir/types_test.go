// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []Type{
		Scalar(TypeFloat),
		Vector(TypeFloat, 4),
		Vector(TypeInt64, 2),
		Vector(TypeUint, 3),
		Matrix(TypeDouble, 4, 3),
		Array(Vector(TypeFloat, 2), 8),
		SamplerType(Dim2D, true, true, TypeFloat),
		SamplerType(DimCube, false, false, TypeInt),
		ImageType(DimBuf, false, TypeUint),
		InterfaceType(64),
		Array(AtomicCounter(), 4),
	}
	for _, want := range tests {
		t.Run(want.String(), func(t *testing.T) {
			got, err := ParseType(want.String())
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	for _, bad := range []string{"", "vec4", "float5", "float4x", "sampler2d", "float[0]"} {
		_, err := ParseType(bad)
		assert.Error(t, err, "ParseType(%q)", bad)
	}
}

func TestAttributeSlots(t *testing.T) {
	tests := []struct {
		typ  Type
		want int
	}{
		{Vector(TypeFloat, 4), 1},
		{Vector(TypeDouble, 2), 1},
		{Vector(TypeDouble, 4), 2},
		{Matrix(TypeFloat, 4, 4), 4},
		{Array(Vector(TypeFloat, 4), 3), 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.typ.AttributeSlots(), "%s", tt.typ)
	}
}
