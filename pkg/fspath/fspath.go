// SPDX-License-Identifier: MPL-2.0

// Package fspath provides the path canonicalization and containment checks
// shared by archive extraction and driver activation.
package fspath

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Canonical returns the absolute, symlink-resolved form of p.
// Trailing components that do not exist yet are appended lexically to the
// resolved form of the longest existing prefix, so the result is stable for
// paths that are about to be created.
func Canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}

	existing := abs
	var missing []string
	for {
		resolved, evalErr := filepath.EvalSymlinks(existing)
		if evalErr == nil {
			return filepath.Join(append([]string{resolved}, missing...)...), nil
		}
		if !errors.Is(evalErr, fs.ErrNotExist) {
			return "", fmt.Errorf("resolving %s: %w", p, evalErr)
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		missing = append([]string{filepath.Base(existing)}, missing...)
		existing = parent
	}
}

// Within reports whether target is root itself or lies beneath it.
// Both paths are compared lexically; canonicalize them first.
func Within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// IsDirectChild reports whether p names an entry directly inside dir.
// Neither path is resolved against the filesystem.
func IsDirectChild(dir, p string) bool {
	return filepath.Dir(filepath.Clean(p)) == filepath.Clean(dir)
}

// RemoveAllBestEffort deletes path and everything beneath it. A failure on
// one child does not stop deletion of its siblings; all failures are joined.
// A missing path is not an error.
func RemoveAllBestEffort(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	var errs []error
	if info.IsDir() {
		entries, readErr := os.ReadDir(path)
		if readErr != nil {
			errs = append(errs, readErr)
		}
		for _, entry := range entries {
			if childErr := RemoveAllBestEffort(filepath.Join(path, entry.Name())); childErr != nil {
				errs = append(errs, childErr)
			}
		}
	}
	if removeErr := os.Remove(path); removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
		errs = append(errs, removeErr)
	}
	return errors.Join(errs...)
}
