// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package nir defines the SSA shader IR consumed by the TGSI backend.
//
// A Shader holds stage metadata, the variables that describe its
// interface (inputs, outputs, uniforms, buffers) and a single entry
// Function. The function body is a structured control-flow tree of
// blocks, ifs and loops. Values are either SSA definitions, written
// exactly once, or mutable registers that survived out-of-SSA lowering.
//
// The IR arrives already legalized: scalarized where the target needs it,
// 64-bit values split into at most two-component chunks, phis replaced by
// register copies. Function.Index numbers instructions and collects use
// lists; ComputeLiveness derives the per-value live ranges the backend
// uses to recycle temporaries.
package nir
