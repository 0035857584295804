package esmirror

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is returned for a Request without a package or version,
// or whose names would escape the output directory.
var ErrInvalidRequest = errors.New("esmirror: invalid module request")

// NetworkError reports a failed fetch: either a transport error (Err set) or
// a non-success HTTP status (StatusCode set).
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("esmirror: HTTP %d fetching %q", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("esmirror: fetching %q: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedModuleError reports an import or export statement in a fetched
// module that has no extractable specifier.
type MalformedModuleError struct {
	Specifier string
	Offset    int
	Err       error
}

func (e *MalformedModuleError) Error() string {
	return fmt.Sprintf("esmirror: malformed module %q: %v", e.Specifier, e.Err)
}

func (e *MalformedModuleError) Unwrap() error { return e.Err }

// FileSystemError reports a failed directory or file operation.
type FileSystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("esmirror: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error { return e.Err }

// ConflictError reports two distinct canonical specifiers that map to the
// same output path, typically two versions of one dependency.
type ConflictError struct {
	Path      string
	Existing  string
	Specifier string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("esmirror: %q and %q both mirror to %q", e.Existing, e.Specifier, e.Path)
}

// UnsafePathError reports a specifier whose output path would not name a
// file inside the output directory.
type UnsafePathError struct {
	Path      string
	Specifier string
}

func (e *UnsafePathError) Error() string {
	return fmt.Sprintf("esmirror: %q maps to %q, outside the output directory", e.Specifier, e.Path)
}
