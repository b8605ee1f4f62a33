// SPDX-License-Identifier: MPL-2.0

// Package source provides the external content references a driver archive
// can be installed from: local files and single HTTP(S) URLs.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Source is a re-openable reference to archive content. Every Open starts a
// fresh read from the beginning.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	// DisplayName is the human-facing name of the content, or "" if unknown.
	DisplayName() string
}

// File is a Source backed by a local file.
type File struct {
	path string
}

// NewFile returns a Source reading the file at path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the file path.
func (f *File) Path() string { return f.path }

// Open opens the file for reading.
func (f *File) Open(context.Context) (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.path, err)
	}
	return file, nil
}

// DisplayName returns the file's base name.
func (f *File) DisplayName() string {
	return filepath.Base(f.path)
}

// IsURL reports whether ref names an HTTP(S) resource.
func IsURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Resolve returns a URL source for HTTP(S) references and a File source
// for everything else.
func Resolve(ref string, opts ...URLOption) (Source, error) {
	if IsURL(ref) {
		return NewURL(ref, opts...)
	}
	if ref == "" {
		return nil, fmt.Errorf("empty source reference")
	}
	return NewFile(ref), nil
}
