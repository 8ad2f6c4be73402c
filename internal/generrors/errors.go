// Package generrors defines the failure categories of a generation run.
//
// Only LoadError and CycleError are fatal. Unresolved references and
// unsupported combinators degrade to generic types and never surface as
// errors; their sentinels exist so diagnostics can be classified with
// errors.Is.
package generrors

import (
	"errors"
	"strings"
)

var (
	// ErrLoad indicates the input document could not be read or parsed.
	ErrLoad = errors.New("load failure")

	// ErrCycle indicates a schema depends on itself through other schemas.
	ErrCycle = errors.New("cycle detected")

	// ErrUnresolvedReference classifies a $ref with no generated model; the
	// field degrades to a generic map.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrUnsupportedCombinator classifies an anyOf; the field degrades to Any.
	ErrUnsupportedCombinator = errors.New("unsupported combinator")

	// ErrResponseSynthesis indicates an operation was skipped by the
	// response-type synthesizer.
	ErrResponseSynthesis = errors.New("response synthesis failure")

	// ErrGeneration covers any other failure while emitting or rendering.
	ErrGeneration = errors.New("generation failure")
)

// LoadError reports a document that could not be fetched, read or parsed.
type LoadError struct {
	// Source is the file path or URL
	Source  string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	msg := "load failure"
	if e.Source != "" {
		msg += " for " + e.Source
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// CycleError reports the dependency path that closed a cycle. Path starts
// and ends with the same schema name.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return "cycle detected"
	}
	return "cycle detected: " + strings.Join(e.Path, " -> ")
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// SynthesisError reports why an operation produced no response type.
type SynthesisError struct {
	OperationID string
	Reason      string
}

func (e *SynthesisError) Error() string {
	msg := "response synthesis failure"
	if e.OperationID != "" {
		msg += " for " + e.OperationID
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *SynthesisError) Is(target error) bool {
	return target == ErrResponseSynthesis
}

// IsFatal reports whether err must abort the run instead of degrading it.
func IsFatal(err error) bool {
	return errors.Is(err, ErrLoad) || errors.Is(err, ErrCycle)
}
