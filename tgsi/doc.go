// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package tgsi provides a flat register-machine shader ISA and the
// translator that lowers nir shaders into it.
//
// # Target ISA
//
// A Program is a list of properties, declarations, immediates and
// instructions. Operands address register files (IN, OUT, TEMP, CONST,
// IMM, ...) by index, with a per-operand swizzle or write mask, optional
// source modifiers and up to two levels of indirection through address
// registers.
//
// Programs are assembled with a Builder, which deduplicates immediates,
// inputs and outputs and recycles temporaries:
//
//	b := tgsi.NewBuilder(tgsi.ProcessorFragment)
//	out := b.DeclareOutput(tgsi.SemanticColor, 0)
//	b.Emit(tgsi.OpMOV, out, b.ImmFloat(1, 0, 0, 1))
//	b.Emit(tgsi.OpEND, tgsi.Dst{})
//	prog := b.Finish()
//
// A Program encodes to a little-endian token stream with Tokens or Bytes,
// decodes back with Decode, and prints as a listing with String.
//
// # Translation
//
// Compile translates a legalized nir shader:
//
//	prog, err := tgsi.Compile(shader, tgsi.DefaultOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Print(prog)
//
// Each call owns its compiler state, so independent shaders may be
// compiled from concurrent goroutines.
package tgsi
