// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package ntt

import (
	"runtime"
	"testing"

	"github.com/gogpu/ntt/nir/nirfile"
	"github.com/gogpu/ntt/tgsi"
)

// ---------------------------------------------------------------------------
// Test shaders at different complexity levels
// ---------------------------------------------------------------------------

const shaderSmallVertex = `
name: passthrough
stage: vertex
variables:
  - {name: pos, mode: in, type: float4, location: "0"}
  - {name: gl_Position, mode: out, type: float4, location: pos}
body:
  - {dest: "%0", const: [0]}
  - {dest: "%1", intrinsic: load_input, srcs: ["%0"], comps: 4, base: 0, location: "0"}
  - {intrinsic: store_output, srcs: ["%1", "%0"], base: 0, wrmask: xyzw, location: pos}
`

const shaderSmallFragment = `
name: tint
stage: fragment
variables:
  - {name: color, mode: in, type: float4, location: var0, interp: smooth}
  - {name: out0, mode: out, type: float4, location: color}
body:
  - {dest: "%0", const: [0]}
  - {dest: "%1", intrinsic: load_input, srcs: ["%0"], comps: 4, base: 0, location: var0}
  - {dest: "%2", op: fmul, srcs: ["%1", "%1"]}
  - {intrinsic: store_output, srcs: ["%2", "%0"], base: 0, wrmask: xyzw, location: color}
`

// shaderMediumLoop accumulates into a register inside a loop with a
// conditional break.
const shaderMediumLoop = `
name: accumulate
stage: vertex
variables:
  - {name: step, mode: in, type: float4, location: "0"}
  - {name: gl_Position, mode: out, type: float4, location: pos}
registers:
  - {comps: 4, bits: 32}
body:
  - {dest: "%0", const: [0]}
  - {dest: "%1", intrinsic: load_input, srcs: ["%0"], comps: 4, base: 0, location: "0"}
  - {dest: "%2", const: [0.0, 0.0, 0.0, 0.0]}
  - {dest: "r0", op: mov, srcs: ["%2"]}
  - loop:
      - {dest: "%3", op: mov, srcs: ["r0"]}
      - {dest: "%4", op: fadd, srcs: ["%3", "%1"]}
      - {dest: "r0", op: mov, srcs: ["%4"]}
      - {dest: "%5", op: fge32, srcs: ["%4.x", "%1.w"], comps: 1}
      - if: "%5"
        then:
          - {jump: break}
  - {dest: "%6", op: mov, srcs: ["r0"]}
  - {dest: "%7", op: fsat, srcs: ["%6"]}
  - {intrinsic: store_output, srcs: ["%7", "%0"], base: 0, wrmask: xyzw, location: pos}
`

type shaderCase struct {
	name   string
	source string
}

var shadersByComplexity = []shaderCase{
	{"small_vertex", shaderSmallVertex},
	{"small_fragment", shaderSmallFragment},
	{"medium_loop", shaderMediumLoop},
}

// ---------------------------------------------------------------------------
// End-to-End: YAML to token stream
// ---------------------------------------------------------------------------

// BenchmarkCompile benchmarks decoding and translating each shader.
// Translation rewrites the shader, so every iteration decodes afresh.
func BenchmarkCompile(b *testing.B) {
	for _, sc := range shadersByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.source)))
			b.ResetTimer()

			var result []byte
			for i := 0; i < b.N; i++ {
				s, err := nirfile.Unmarshal([]byte(sc.source))
				if err != nil {
					b.Fatalf("load failed: %v", err)
				}
				prog, err := Compile(s, DefaultOptions())
				if err != nil {
					b.Fatalf("compile failed: %v", err)
				}
				result = prog.Bytes()
			}
			runtime.KeepAlive(result)
		})
	}
}

// BenchmarkUnmarshal measures the YAML decoding share of BenchmarkCompile.
func BenchmarkUnmarshal(b *testing.B) {
	for _, sc := range shadersByComplexity {
		b.Run(sc.name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sc.source)))
			for i := 0; i < b.N; i++ {
				if _, err := nirfile.Unmarshal([]byte(sc.source)); err != nil {
					b.Fatalf("load failed: %v", err)
				}
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Encoding and disassembly
// ---------------------------------------------------------------------------

func compiled(b *testing.B, source string) *tgsi.Program {
	b.Helper()
	s, err := nirfile.Unmarshal([]byte(source))
	if err != nil {
		b.Fatalf("load failed: %v", err)
	}
	prog, err := Compile(s, DefaultOptions())
	if err != nil {
		b.Fatalf("compile failed: %v", err)
	}
	return prog
}

func BenchmarkEncode(b *testing.B) {
	prog := compiled(b, shaderMediumLoop)
	b.ReportAllocs()
	b.ResetTimer()

	var result []byte
	for i := 0; i < b.N; i++ {
		result = prog.Bytes()
	}
	runtime.KeepAlive(result)
}

func BenchmarkDisassemble(b *testing.B) {
	data := compiled(b, shaderMediumLoop).Bytes()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	var result string
	for i := 0; i < b.N; i++ {
		var err error
		if result, err = Disassemble(data); err != nil {
			b.Fatalf("disassemble failed: %v", err)
		}
	}
	runtime.KeepAlive(result)
}

// BenchmarkCompileParallel runs independent compilations concurrently.
func BenchmarkCompileParallel(b *testing.B) {
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			s, err := nirfile.Unmarshal([]byte(shaderMediumLoop))
			if err != nil {
				b.Errorf("load failed: %v", err)
				return
			}
			if _, err := Compile(s, DefaultOptions()); err != nil {
				b.Errorf("compile failed: %v", err)
				return
			}
		}
	})
}
