// SPDX-License-Identifier: MPL-2.0

package driverzip

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gpudrv-cli/pkg/fspath"
)

const (
	// LibrarySuffix is the file suffix of native driver libraries.
	LibrarySuffix = ".so"

	dirMode     os.FileMode = 0o755
	fileMode    os.FileMode = 0o644
	libraryMode os.FileMode = 0o755
)

// ErrCreateDirectory is wrapped when extraction aborts because a directory
// could not be created.
var ErrCreateDirectory = errors.New("failed to create directory")

// ExtractResult describes what Extract wrote.
type ExtractResult struct {
	// Root is the canonical destination directory.
	Root string
	// Dirs and Files list the canonical paths created, in archive order.
	Dirs  []string
	Files []string
	// Skipped lists entries that were not written.
	Skipped []Diagnostic
}

// IsLibrary reports whether name carries the native library suffix.
func IsLibrary(name string) bool {
	return strings.HasSuffix(name, LibrarySuffix)
}

// Extract unpacks the archive at archivePath into destDir.
//
// Every entry's target is canonicalized and must stay within the canonical
// destination; entries that do not are skipped. Libraries are made readable
// and executable for everyone. A directory or file I/O failure aborts the
// extraction and leaves already-written entries in place.
func Extract(archivePath, destDir string) (result *ExtractResult, err error) {
	if err = os.MkdirAll(destDir, dirMode); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateDirectory, err)
	}
	root, err := fspath.Canonical(destDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve destination directory: %w", err)
	}

	// Insecure entry names are handled per entry below.
	zr, err := zip.OpenReader(archivePath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	err = nil
	defer func() {
		if closeErr := zr.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	registerDecompressor(&zr.Reader)

	result = &ExtractResult{Root: root}
	for _, file := range zr.File {
		lexical := filepath.Join(root, filepath.FromSlash(file.Name))
		target, resolveErr := fspath.Canonical(lexical)
		if resolveErr != nil {
			if !fspath.Within(root, lexical) {
				result.Skipped = append(result.Skipped, Diagnostic{Entry: file.Name, Kind: DiagnosticPathTraversal, Cause: resolveErr})
				continue
			}
			// An in-tree target whose parents cannot be resolved, e.g. a
			// regular file standing where a directory must go.
			return result, fmt.Errorf("%w %s: %w", ErrCreateDirectory, filepath.Dir(lexical), resolveErr)
		}
		if !fspath.Within(root, target) {
			result.Skipped = append(result.Skipped, Diagnostic{Entry: file.Name, Kind: DiagnosticPathTraversal})
			continue
		}

		if file.FileInfo().IsDir() {
			if mkdirErr := os.MkdirAll(target, dirMode); mkdirErr != nil {
				return result, fmt.Errorf("%w %s: %w", ErrCreateDirectory, target, mkdirErr)
			}
			result.Dirs = append(result.Dirs, target)
			continue
		}

		if target == root {
			result.Skipped = append(result.Skipped, Diagnostic{Entry: file.Name, Kind: DiagnosticInvalidEntry})
			continue
		}
		if mkdirErr := os.MkdirAll(filepath.Dir(target), dirMode); mkdirErr != nil {
			return result, fmt.Errorf("%w %s: %w", ErrCreateDirectory, filepath.Dir(target), mkdirErr)
		}
		if extractErr := extractFile(file, target); extractErr != nil {
			return result, fmt.Errorf("failed to extract %s: %w", file.Name, extractErr)
		}
		if IsLibrary(filepath.Base(target)) {
			if chmodErr := os.Chmod(target, libraryMode); chmodErr != nil {
				return result, fmt.Errorf("failed to mark %s executable: %w", file.Name, chmodErr)
			}
		}
		result.Files = append(result.Files, target)
	}

	return result, nil
}

// extractFile copies a single entry to destPath, replacing any existing file.
func extractFile(file *zip.File, destPath string) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	destFile, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := destFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	//nolint:gosec // G110: payload size is bounded by the user-supplied archive
	_, err = io.Copy(destFile, rc)
	return err
}
