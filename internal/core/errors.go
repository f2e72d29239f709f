package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every error returned by the engine wraps exactly one of these.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrSchema        = errors.New("schema error")
	ErrComputation   = errors.New("computation error")
)

// Error describes a failure in one stage of a cleaning run.
type Error struct {
	Kind   error  // ErrConfiguration, ErrSchema or ErrComputation
	Stage  Stage  // stage that raised the error
	Column string // offending column, if any
	Reason string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Stage != "" {
		b.WriteString(" in ")
		b.WriteString(string(e.Stage))
	}
	b.WriteString(": ")
	if e.Column != "" {
		fmt.Fprintf(&b, "column %q: ", e.Column)
	}
	b.WriteString(e.Reason)
	return b.String()
}

func (e *Error) Unwrap() error { return e.Kind }

func configError(stage Stage, column, format string, args ...any) error {
	return &Error{Kind: ErrConfiguration, Stage: stage, Column: column, Reason: fmt.Sprintf(format, args...)}
}

func schemaError(stage Stage, column, format string, args ...any) error {
	return &Error{Kind: ErrSchema, Stage: stage, Column: column, Reason: fmt.Sprintf(format, args...)}
}

func computationError(stage Stage, column, format string, args ...any) error {
	return &Error{Kind: ErrComputation, Stage: stage, Column: column, Reason: fmt.Sprintf(format, args...)}
}

// PipelineError is returned by Cleaner.Clean when a stage aborts the run.
// Log holds the actions recorded before the failure.
type PipelineError struct {
	Stage Stage
	Err   error
	Log   []Action
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("cleaning aborted at %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }
