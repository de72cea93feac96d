// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package tgsi

import (
	"errors"
	"fmt"

	"github.com/gogpu/ntt/nir"
)

// ErrorKind categorizes translation errors.
type ErrorKind uint8

const (
	// ErrUnsupported indicates a construct the target cannot encode. The
	// input is valid but must be lowered further or rejected by the caller.
	ErrUnsupported ErrorKind = iota

	// ErrInternal indicates a broken translator invariant or a shader that
	// was not legalized for this backend.
	ErrInternal
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrUnsupported:
		return "Unsupported"
	case ErrInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error represents a translation error.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Message provides details about the error.
	Message string

	// Instr is the printed source instruction being translated, if any.
	Instr string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Instr != "" {
		return fmt.Sprintf("tgsi %s: %s (at %s)", e.Kind, e.Message, e.Instr)
	}
	return fmt.Sprintf("tgsi %s: %s", e.Kind, e.Message)
}

// NewError creates a new error without instruction context.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) withInstr(in nir.Instr) *Error {
	e.Instr = nir.FormatInstr(in)
	return e
}

// IsUnsupported reports whether err wraps an ErrUnsupported error.
func IsUnsupported(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == ErrUnsupported
}

// IsInternal reports whether err wraps an ErrInternal error.
func IsInternal(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == ErrInternal
}
