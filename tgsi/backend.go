// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/gogpu/ntt/nir"
)

// Caps describes what the target hardware can encode.
type Caps struct {
	// NativeIntegers selects integer opcodes and UARL; without it
	// booleans are floats and address loads use ARL.
	NativeIntegers bool

	// TexcoordSemantic maps TEXn varyings to TEXCOORD instead of GENERIC.
	TexcoordSemantic bool

	// AnyRegAsAddress lets any register be used as an indirect address,
	// bypassing the address register file.
	AnyRegAsAddress bool

	// TXFLZ enables TXF_LZ for texel fetches with a constant zero lod.
	TXFLZ bool

	// LoadConstbuf reads non-vec4 UBO loads with LOAD from the constant
	// file instead of direct constant references.
	LoadConstbuf bool

	// TG4ComponentInSwizzle encodes the gathered component in the sampler
	// swizzle instead of an immediate operand.
	TG4ComponentInSwizzle bool

	// Sqrt reports a native 32-bit SQRT.
	Sqrt bool

	// Indirect addressing support per file.
	IndirectInputs  bool
	IndirectOutputs bool
	IndirectTemps   bool
	IndirectConsts  bool

	// MaxTemps bounds the temporary file. Zero means unlimited.
	MaxTemps int
}

// DefaultCaps returns the capabilities of a typical integer-capable
// target.
func DefaultCaps() Caps {
	return Caps{
		NativeIntegers:  true,
		Sqrt:            true,
		IndirectInputs:  true,
		IndirectOutputs: true,
		IndirectTemps:   true,
		IndirectConsts:  true,
	}
}

// Pass is a shader rewrite run before translation.
type Pass func(*nir.Shader) error

// Options configures translation.
type Options struct {
	// Caps describes the target.
	Caps Caps

	// Passes run in order before the backend's own legalization. This is
	// where the caller's optimizer pipeline plugs in.
	Passes []Pass

	// Logger receives debug records. Nil discards them.
	Logger *slog.Logger

	// Debug logs the input shader and the resulting program.
	Debug bool
}

// DefaultOptions returns options for DefaultCaps with no extra passes.
func DefaultOptions() *Options {
	return &Options{Caps: DefaultCaps()}
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Compile translates a shader into a Target ISA program. The shader is
// rewritten in place by the passes and legalization.
//
// Errors are *Error values: ErrUnsupported for constructs the target
// cannot encode, ErrInternal for input that was not legalized for this
// backend.
func Compile(shader *nir.Shader, options *Options) (prog *Program, err error) {
	if shader == nil {
		return nil, NewError(ErrInternal, "shader is nil")
	}
	if options == nil {
		options = DefaultOptions()
	}
	log := options.logger()

	defer func() {
		if r := recover(); r != nil {
			prog = nil
			err = NewError(ErrInternal, "translator panic: %v", r)
		}
	}()

	for i, pass := range options.Passes {
		if err := pass(shader); err != nil {
			return nil, fmt.Errorf("tgsi: pass %d: %w", i, err)
		}
	}
	if err := legalize(shader, &options.Caps); err != nil {
		return nil, err
	}

	f := shader.Entry
	f.Index()
	live := nir.ComputeLiveness(f)
	if options.Debug {
		log.Debug("translating shader", "name", shader.Name, "stage", shader.Info.Stage, "nir", nir.Print(shader))
	}

	c := newCompiler(shader, &options.Caps, live)
	if err := c.compile(); err != nil {
		return nil, err
	}
	prog = c.b.Finish()
	if options.Debug {
		log.Debug("translated shader", "name", shader.Name,
			"instructions", len(prog.Instructions), "temps", prog.NumTemps(), "tgsi", prog.String())
	}
	return prog, nil
}
