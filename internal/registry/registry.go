// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"gpudrv-cli/pkg/driverzip"
)

// ArchiveSuffix is the file suffix of stored driver archives.
const ArchiveSuffix = ".zip"

var (
	// ErrOutsideStorage is returned by Delete for paths whose parent is not
	// the storage directory.
	ErrOutsideStorage = errors.New("path is not inside the driver storage directory")
	// ErrNotFound is returned when no stored archive matches.
	ErrNotFound = errors.New("driver package not found")
)

// Registry is the catalog of archives in one storage directory.
type Registry struct {
	dir    string
	logger *log.Logger
}

// New creates a Registry over dir. A nil logger discards output.
func New(dir string, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Registry{dir: filepath.Clean(dir), logger: logger}
}

// Dir returns the storage directory.
func (r *Registry) Dir() string {
	return r.dir
}

// List returns every valid archive directly inside the storage directory,
// ordered by display name (case-insensitive) and then by path.
// A missing storage directory yields an empty catalog.
func (r *Registry) List() ([]Package, error) {
	entries, err := os.ReadDir(r.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	packages := make([]Package, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ArchiveSuffix) {
			continue
		}
		path := filepath.Join(r.dir, entry.Name())
		pkg, ok := r.load(path)
		if !ok {
			continue
		}
		packages = append(packages, pkg)
	}

	slices.SortFunc(packages, func(a, b Package) int {
		if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
	return packages, nil
}

func (r *Registry) load(path string) (Package, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		r.logger.Debug("skipping unreadable archive", "path", path, "error", err)
		return Package{}, false
	}

	result, err := driverzip.ScanFile(path)
	if err != nil {
		r.logger.Debug("skipping unreadable archive", "path", path, "error", err)
		return Package{}, false
	}
	for _, diag := range result.Diagnostics {
		r.logger.Debug("skipped descriptor candidate", "path", path, "entry", diag.Entry, "reason", diag.Kind)
	}
	if !result.Descriptor.IsValid() {
		r.logger.Debug("skipping archive without a valid descriptor", "path", path)
		return Package{}, false
	}

	desc := result.Descriptor
	return Package{
		Name:       desc.DisplayName(),
		Path:       path,
		Size:       info.Size(),
		ModTime:    info.ModTime(),
		Descriptor: &desc,
	}, true
}

// Lookup finds a listed package by exact path, by archive file name, or by
// display name (case-insensitive), in that order.
func (r *Registry) Lookup(ref string) (Package, error) {
	packages, err := r.List()
	if err != nil {
		return Package{}, err
	}

	if abs, absErr := filepath.Abs(ref); absErr == nil {
		if i := slices.IndexFunc(packages, func(p Package) bool { return p.Path == abs }); i >= 0 {
			return packages[i], nil
		}
	}
	if i := slices.IndexFunc(packages, func(p Package) bool { return filepath.Base(p.Path) == ref }); i >= 0 {
		return packages[i], nil
	}
	if i := slices.IndexFunc(packages, func(p Package) bool { return strings.EqualFold(p.Name, ref) }); i >= 0 {
		return packages[i], nil
	}
	return Package{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
}

// Delete removes the archive at path. The parent of path must be the
// storage directory itself; this is checked before the filesystem is touched.
func (r *Registry) Delete(path string) error {
	if path == "" || filepath.Dir(filepath.Clean(path)) != r.dir {
		return fmt.Errorf("%w: %s", ErrOutsideStorage, path)
	}

	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrNotFound, path)
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	r.logger.Info("deleted driver package", "path", path)
	return nil
}
