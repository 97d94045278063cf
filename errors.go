package certcheck

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ErrNotDirectory is returned when a path that must be a directory is not.
var ErrNotDirectory = errors.New("not a directory")

// NotFoundError reports a directory that does not exist.
type NotFoundError struct {
	Path string
	Err  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("directory %s not found", e.Path)
}

// Unwrap returns the underlying error, which matches fs.ErrNotExist.
func (e *NotFoundError) Unwrap() error { return e.Err }

// PermissionError reports a directory that exists but cannot be read.
type PermissionError struct {
	Path string
	Err  error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("directory %s is not readable", e.Path)
}

// Unwrap returns the underlying error, which matches fs.ErrPermission.
func (e *PermissionError) Unwrap() error { return e.Err }

// ParseError reports a file that looks like a certificate but does not parse
// as one.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing certificate %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// AmbiguousInputError reports a command line that does not resolve to exactly
// one target directory.
type AmbiguousInputError struct {
	Args []string
}

func (e *AmbiguousInputError) Error() string {
	if len(e.Args) == 0 {
		return "expected exactly one directory path, got none"
	}
	return fmt.Sprintf("expected exactly one directory path, got %d: %s", len(e.Args), strings.Join(e.Args, ", "))
}

// DirError classifies an error from accessing path into NotFoundError or
// PermissionError. Other errors are wrapped with the path.
func DirError(path string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &NotFoundError{Path: path, Err: err}
	case errors.Is(err, fs.ErrPermission):
		return &PermissionError{Path: path, Err: err}
	default:
		return fmt.Errorf("accessing %s: %w", path, err)
	}
}
