// Package errs provides the error vocabulary shared across the
// pipeline: sentinel kinds plus the contextual error types described
// in spec.md §7 (structural, type-mismatch, I/O, state-misuse).
package errs

import (
	"errors"
	"fmt"
)

// Sentinel kinds. CompileError, ExecError and the helper constructors
// below unwrap to one of these so callers can classify with errors.Is
// without caring about the concrete type; IOErr unwraps to the I/O
// error it wraps instead.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrIllegalState = errors.New("illegal state")
	ErrUnsupported  = errors.New("unsupported")
	ErrCompile      = errors.New("compile error")
	ErrExecution    = errors.New("execution error")
)

// SourceRef is a diagnostic snapshot of the tree node an error is
// about. It is a plain value, not a live *tree.Tree, so this package
// stays independent of the tree package and can be imported from
// anywhere a diagnostic needs to be raised.
type SourceRef struct {
	Document string
	Position int
	Length   int
	Kind     string
}

func (r SourceRef) String() string {
	if r.Document == "" {
		return "<no source>"
	}
	return fmt.Sprintf("%s[%d,%d) kind=%s", r.Document, r.Position, r.Position+r.Length, r.Kind)
}

// CompileError is raised by the parser, analyzer, and compiler
// frameworks for structural problems: missing sketch components,
// overlapping trees, unclosed contexts, misplaced commands.
type CompileError struct {
	Source  SourceRef
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at %s: %s", e.Source, e.Message)
}

func (e *CompileError) Unwrap() error { return ErrCompile }

// NewCompile builds a CompileError anchored at ref.
func NewCompile(ref SourceRef, format string, args ...any) *CompileError {
	return &CompileError{Source: ref, Message: fmt.Sprintf(format, args...)}
}

// ExecError is raised by the instruction set at runtime: type
// mismatches (Product on a non-number), out-of-range access, and the
// like. It carries the offending instruction's source.
type ExecError struct {
	Source  SourceRef
	Message string
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("execution error at %s: %s", e.Source, e.Message)
}

func (e *ExecError) Unwrap() error { return ErrExecution }

// NewExec builds an ExecError anchored at ref.
func NewExec(ref SourceRef, format string, args ...any) *ExecError {
	return &ExecError{Source: ref, Message: fmt.Sprintf(format, args...)}
}

// IOErr wraps a document I/O failure. It carries no source position,
// per spec.md §7.
type IOErr struct {
	Operation string
	Path      string
	Err       error
}

func (e *IOErr) Error() string {
	return fmt.Sprintf("document I/O: failed to %s %s: %v", e.Operation, e.Path, e.Err)
}

func (e *IOErr) Unwrap() error { return e.Err }

// NewIO builds an IOErr.
func NewIO(operation, path string, err error) *IOErr {
	return &IOErr{Operation: operation, Path: path, Err: err}
}

// IllegalState reports misuse of state, such as content access on a
// deserialized document shell.
func IllegalState(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrIllegalState)
}

// InvalidInput reports a validation failure on caller-supplied input.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidInput)
}

// NotFound reports a missing resource (heap address, registered spec,
// compiled document, ...).
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// Is is a thin re-export of errors.Is for callers that otherwise have
// no reason to import the standard errors package directly.
func Is(err, target error) bool { return errors.Is(err, target) }

// As is a thin re-export of errors.As.
func As(err error, target any) bool { return errors.As(err, target) }
