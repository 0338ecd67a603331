// Package apperr defines the error kinds surfaced by note resolution.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrMalformedEntry = errors.New("malformed tree entry")
	ErrTransport      = errors.New("transport error")
	ErrConfigParse    = errors.New("configuration parse error")
	ErrInvalidName    = errors.New("invalid note name")
)

// ObjectNotFoundError reports a path missing from the resolved tree.
type ObjectNotFoundError struct {
	Path string
}

func (e *ObjectNotFoundError) Error() string {
	return fmt.Sprintf("object not found: %s", e.Path)
}

func (e *ObjectNotFoundError) Is(target error) bool { return target == ErrNotFound }

// MalformedTreeEntryError reports a tree entry that matched a path but carries
// no object hash (for example a submodule reference).
type MalformedTreeEntryError struct {
	Path string
}

func (e *MalformedTreeEntryError) Error() string {
	return fmt.Sprintf("tree entry %s has no object hash", e.Path)
}

func (e *MalformedTreeEntryError) Is(target error) bool { return target == ErrMalformedEntry }

// TransportError wraps a failed call to the hosted-repository API.
// Op names the step that failed: ref, commit, tree or blob.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// ConfigParseError reports a root configuration document that could not be decoded.
type ConfigParseError struct {
	Path string
	Err  error
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ConfigParseError) Unwrap() error { return e.Err }

func (e *ConfigParseError) Is(target error) bool { return target == ErrConfigParse }
