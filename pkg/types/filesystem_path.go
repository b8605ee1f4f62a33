// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidFilesystemPath is wrapped by InvalidFilesystemPathError.
var ErrInvalidFilesystemPath = errors.New("invalid filesystem path")

type (
	// FilesystemPath is an absolute or relative filesystem path given by the
	// user, e.g. through --config. It must be non-empty and not whitespace-only.
	FilesystemPath string

	// InvalidFilesystemPathError rejects a blank FilesystemPath.
	InvalidFilesystemPathError struct {
		Value FilesystemPath
	}
)

func (p FilesystemPath) String() string { return string(p) }

// IsValid reports whether p is non-blank.
func (p FilesystemPath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidFilesystemPathError{Value: p}}
	}
	return true, nil
}

// Abs returns the cleaned absolute form of a valid path.
func (p FilesystemPath) Abs() (FilesystemPath, error) {
	if valid, errs := p.IsValid(); !valid {
		return "", errs[0]
	}
	abs, err := filepath.Abs(string(p))
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", p, err)
	}
	return FilesystemPath(abs), nil
}

func (e *InvalidFilesystemPathError) Error() string {
	return fmt.Sprintf("%s %q: path is blank", ErrInvalidFilesystemPath, string(e.Value))
}

// Unwrap returns ErrInvalidFilesystemPath.
func (e *InvalidFilesystemPathError) Unwrap() error { return ErrInvalidFilesystemPath }
