// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse is the sentinel error wrapped by ParseError.
	ErrParse = errors.New("parse error")
	// ErrUnresolvedPath is the sentinel error wrapped by UnresolvedPathError.
	ErrUnresolvedPath = errors.New("unresolved path")
	// ErrInvalidGraph is the sentinel error wrapped by InvalidGraphError.
	ErrInvalidGraph = errors.New("invalid module graph")
)

type (
	// ParseError is returned when a module's source cannot be turned into a
	// syntax tree or lowered into executable code. It wraps ErrParse for
	// errors.Is() compatibility.
	ParseError struct {
		Path  string
		Cause error
	}

	// UnresolvedPathError is returned when a dependency specifier does not name
	// a loadable file. FromPath is empty for the entry module.
	// It wraps ErrUnresolvedPath for errors.Is() compatibility.
	UnresolvedPathError struct {
		Specifier string
		FromPath  string
		Cause     error
	}

	// InvalidGraphError lists every invariant a record slice violates.
	// It wraps ErrInvalidGraph for errors.Is() compatibility.
	InvalidGraphError struct {
		Violations []string
	}
)

func (e *ParseError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("parse %s: %s", e.Path, ErrParse)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Cause)
}

// Unwrap returns both ErrParse and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Cause}
}

func (e *UnresolvedPathError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "cannot resolve %q", e.Specifier)
	if e.FromPath != "" {
		fmt.Fprintf(&sb, " from %s", e.FromPath)
	}
	if e.Cause != nil {
		fmt.Fprintf(&sb, ": %v", e.Cause)
	}
	return sb.String()
}

// Unwrap returns both ErrUnresolvedPath and the underlying cause.
func (e *UnresolvedPathError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUnresolvedPath}
	}
	return []error{ErrUnresolvedPath, e.Cause}
}

func (e *InvalidGraphError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidGraph, strings.Join(e.Violations, "; "))
}

// Unwrap returns ErrInvalidGraph.
func (e *InvalidGraphError) Unwrap() error {
	return ErrInvalidGraph
}
