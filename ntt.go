// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package ntt provides a Pure Go backend that lowers Source IR shaders to
// the Target ISA token format.
//
// Shaders are built in memory with the nir package or loaded from YAML
// with nirfile. The package offers a simple, high-level API; the tgsi
// package exposes the translator, program builder and encoder directly.
//
// Example usage:
//
//	prog, err := ntt.CompileFile("shader.yaml", ntt.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Stdout.Write(prog.Bytes())
//
// Encoded programs can be turned back into a text listing:
//
//	text, err := ntt.Disassemble(data)
package ntt

import (
	"fmt"

	"github.com/gogpu/ntt/nir"
	"github.com/gogpu/ntt/nir/nirfile"
	"github.com/gogpu/ntt/tgsi"
)

// DefaultOptions returns options for a typical integer-capable target.
func DefaultOptions() *tgsi.Options {
	return tgsi.DefaultOptions()
}

// Compile translates a shader to a Target ISA program. The shader is
// rewritten in place.
func Compile(shader *nir.Shader, opts *tgsi.Options) (*tgsi.Program, error) {
	prog, err := tgsi.Compile(shader, opts)
	if err != nil {
		return nil, fmt.Errorf("translation error: %w", err)
	}
	return prog, nil
}

// CompileFile loads a YAML shader document and translates it.
//
// The pipeline is:
//  1. Decode the document into Source IR
//  2. Run the caller's passes and legalization
//  3. Translate and assemble the program
func CompileFile(path string, opts *tgsi.Options) (*tgsi.Program, error) {
	shader, err := nirfile.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load error: %w", err)
	}
	return Compile(shader, opts)
}

// Disassemble renders an encoded token stream as a text listing.
func Disassemble(data []byte) (string, error) {
	prog, err := tgsi.DecodeBytes(data)
	if err != nil {
		return "", fmt.Errorf("decode error: %w", err)
	}
	return prog.String(), nil
}
