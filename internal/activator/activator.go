// SPDX-License-Identifier: MPL-2.0

// Package activator drives the driver lifecycle: resetting to the default
// driver, activating a stored archive, and deriving which archive is active.
//
// The activator is not safe for concurrent use. Callers serialize
// operations; the CLI runs one per process.
package activator

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"gpudrv-cli/internal/registry"
	"gpudrv-cli/pkg/drivermeta"
	"gpudrv-cli/pkg/driverzip"
	"gpudrv-cli/pkg/fspath"
)

type (
	// Config wires an Activator to its directories and collaborators.
	Config struct {
		// StorageDir holds uploaded archives.
		StorageDir string
		// InstallDir holds the extracted payload of the active archive.
		InstallDir string
		// APILevel is the current platform API level.
		APILevel int
		// Registry defaults to a registry over StorageDir.
		Registry *registry.Registry
		// Sink receives the published pointers. Required.
		Sink PointerSink
		// Logger defaults to a discarding logger.
		Logger *log.Logger
	}

	// Activator owns the install directory and the active library pointer.
	Activator struct {
		storageDir string
		installDir string
		apiLevel   int
		registry   *registry.Registry
		sink       PointerSink
		logger     *log.Logger

		// canonical resolves symlinks before paths are compared.
		canonical func(string) (string, error)
	}

	// InstallResult describes a completed activation.
	InstallResult struct {
		ArchivePath string
		// LibraryPath is empty when the library could not be resolved.
		LibraryPath string
		Descriptor  drivermeta.Descriptor
		// Skipped lists archive entries that were not extracted.
		Skipped []driverzip.Diagnostic
	}

	// Status is a snapshot of the published state.
	Status struct {
		ActiveLibraryPath string
		InstallDir        string
		StorageDir        string
		NativeLibraryDir  string
		APILevel          int
	}
)

// New creates an Activator from cfg.
func New(cfg Config) (*Activator, error) {
	if cfg.StorageDir == "" || cfg.InstallDir == "" {
		return nil, errors.New("activator: storage and install directories are required")
	}
	if cfg.Sink == nil {
		return nil, errors.New("activator: pointer sink is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	reg := cfg.Registry
	if reg == nil {
		reg = registry.New(cfg.StorageDir, logger)
	}
	return &Activator{
		storageDir: filepath.Clean(cfg.StorageDir),
		installDir: filepath.Clean(cfg.InstallDir),
		apiLevel:   cfg.APILevel,
		registry:   reg,
		sink:       cfg.Sink,
		logger:     logger,
		canonical:  fspath.Canonical,
	}, nil
}

// Registry returns the catalog the activator deletes through.
func (a *Activator) Registry() *registry.Registry { return a.registry }

// InstallDefault wipes the install directory, recreates it empty and clears
// the active pointer. Removal failures are logged and never returned; only
// a failure to publish the cleared pointer is reported.
func (a *Activator) InstallDefault() error {
	if err := fspath.RemoveAllBestEffort(a.installDir); err != nil {
		a.logger.Warn("could not fully clear install directory", "dir", a.installDir, "error", err)
	}
	if err := os.MkdirAll(a.installDir, 0o755); err != nil {
		a.logger.Warn("could not recreate install directory", "dir", a.installDir, "error", err)
	}
	if err := a.sink.PublishActivePath(""); err != nil {
		return fmt.Errorf("failed to clear active driver: %w", err)
	}
	a.logger.Info("switched to system driver", "installDir", a.installDir)
	return nil
}

// InstallFromArchive replaces the install directory content with the
// payload of the archive at archivePath and publishes its library path.
//
// The install directory is reset first, so a rejected archive leaves the
// default driver active. ErrLibraryUnresolved is returned together with a
// result when extraction succeeded but no library matched; the extracted
// files are kept.
func (a *Activator) InstallFromArchive(archivePath string) (*InstallResult, error) {
	if err := a.InstallDefault(); err != nil {
		return nil, err
	}

	scan, err := driverzip.ScanFile(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read driver package %s: %w", archivePath, err)
	}
	desc := scan.Descriptor
	if err := a.validate(desc); err != nil {
		return nil, err
	}

	extracted, err := driverzip.Extract(archivePath, a.installDir)
	result := &InstallResult{ArchivePath: archivePath, Descriptor: desc}
	if extracted != nil {
		result.Skipped = extracted.Skipped
		for _, skipped := range extracted.Skipped {
			a.logger.Warn("skipped archive entry", "entry", skipped.Entry, "reason", skipped.Kind)
		}
	}
	if err != nil {
		return result, fmt.Errorf("failed to extract %s: %w", archivePath, err)
	}

	libPath, err := a.ResolveLibrary(desc.LibraryName())
	if err != nil {
		a.logger.Warn("driver extracted without a resolvable library", "archive", archivePath, "library", desc.LibraryName())
		return result, err
	}
	if err := a.sink.PublishActivePath(libPath); err != nil {
		return result, fmt.Errorf("failed to publish active driver: %w", err)
	}
	result.LibraryPath = libPath
	a.logger.Info("activated driver", "archive", archivePath, "library", libPath)
	return result, nil
}

func (a *Activator) validate(desc drivermeta.Descriptor) error {
	if !desc.IsValid() {
		return ErrInvalidDescriptor
	}
	if desc.MinAPI() > a.apiLevel {
		return &APILevelError{Required: desc.MinAPI(), Current: a.apiLevel}
	}
	return nil
}

// ResolveLibrary locates the extracted library for a declared name: the
// exact file, then the name with ".so" appended, then the first ".so" file
// in the install directory in lexical order.
func (a *Activator) ResolveLibrary(libraryName string) (string, error) {
	entries, err := os.ReadDir(a.installDir)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrLibraryUnresolved, libraryName, err)
	}
	// os.ReadDir returns entries sorted by file name.
	var topLevel []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			topLevel = append(topLevel, entry.Name())
		}
	}

	name, ok := resolveLibraryName(libraryName, func(n string) bool {
		_, found := a.installedFile(n)
		return found
	}, topLevel)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrLibraryUnresolved, libraryName)
	}
	return filepath.Join(a.installDir, filepath.FromSlash(name)), nil
}

// resolveLibraryName applies the library lookup order to a file set.
// topLevel lists the files directly inside the set's root, sorted.
func resolveLibraryName(libraryName string, exists func(string) bool, topLevel []string) (string, bool) {
	if libraryName != "" {
		if exists(libraryName) {
			return libraryName, true
		}
		if !strings.HasSuffix(libraryName, driverzip.LibrarySuffix) && exists(libraryName+driverzip.LibrarySuffix) {
			return libraryName + driverzip.LibrarySuffix, true
		}
	}
	for _, name := range topLevel {
		if driverzip.IsLibrary(name) {
			return name, true
		}
	}
	return "", false
}

// installedFile reports the path of name inside the install directory if
// it is an existing regular file that does not escape it.
func (a *Activator) installedFile(name string) (string, bool) {
	p := filepath.Join(a.installDir, filepath.FromSlash(name))
	if !fspath.Within(a.installDir, p) {
		return "", false
	}
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return p, true
}

// IsActive reports whether the archive at archivePath is the package the
// active pointer was derived from. The archive's expected library is
// resolved against its own entries, so each stored package maps to the
// file its activation would publish. Any resolution failure yields false.
func (a *Activator) IsActive(archivePath string) bool {
	active := a.sink.ActivePath()
	if active == "" {
		return false
	}
	if _, err := os.Stat(active); err != nil {
		return false
	}
	if !a.insideInstallDir(active) {
		return false
	}

	scan, err := driverzip.ScanFile(archivePath)
	if err != nil || !scan.Descriptor.IsValid() {
		return false
	}
	libraryName := scan.Descriptor.LibraryName()
	expected, err := a.expectedLibrary(archivePath, libraryName)
	if err != nil {
		return false
	}

	canonExpected, errExpected := a.canonical(expected)
	canonActive, errActive := a.canonical(active)
	if errExpected != nil || errActive != nil {
		want := libraryName
		if !strings.HasSuffix(want, driverzip.LibrarySuffix) {
			want += driverzip.LibrarySuffix
		}
		return filepath.Base(active) == filepath.Base(want)
	}
	return canonExpected == canonActive
}

// expectedLibrary returns the install path the archive's library resolves
// to. The file must currently exist.
func (a *Activator) expectedLibrary(archivePath, libraryName string) (string, error) {
	files, err := driverzip.Files(archivePath)
	if err != nil {
		return "", err
	}
	set := make(map[string]bool, len(files))
	var topLevel []string
	for _, f := range files {
		set[f] = true
		if !strings.Contains(f, "/") {
			topLevel = append(topLevel, f)
		}
	}
	slices.Sort(topLevel)

	name, ok := resolveLibraryName(libraryName, func(n string) bool { return set[path.Clean(n)] }, topLevel)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrLibraryUnresolved, libraryName)
	}
	p, ok := a.installedFile(name)
	if !ok {
		return "", fmt.Errorf("%w: %s not installed", ErrLibraryUnresolved, name)
	}
	return p, nil
}

func (a *Activator) insideInstallDir(p string) bool {
	dir, errDir := a.canonical(a.installDir)
	target, errTarget := a.canonical(p)
	if errDir != nil || errTarget != nil {
		return fspath.IsDirectChild(a.installDir, p)
	}
	return fspath.IsDirectChild(dir, target)
}

// Remove deletes a stored archive. Deleting the active package reverts to
// the default driver.
func (a *Activator) Remove(archivePath string) (wasActive bool, err error) {
	wasActive = a.IsActive(archivePath)
	if err := a.registry.Delete(archivePath); err != nil {
		return false, err
	}
	if wasActive {
		if err := a.InstallDefault(); err != nil {
			return true, err
		}
	}
	return wasActive, nil
}

// SetNativeLibraryDir publishes the native library search directory
// override. An empty dir clears it.
func (a *Activator) SetNativeLibraryDir(dir string) error {
	if err := a.sink.PublishNativeLibraryDir(dir); err != nil {
		return fmt.Errorf("failed to publish native library directory: %w", err)
	}
	a.logger.Info("native library directory updated", "dir", dir)
	return nil
}

// Status returns the published pointers and the managed directories.
func (a *Activator) Status() Status {
	return Status{
		ActiveLibraryPath: a.sink.ActivePath(),
		InstallDir:        a.installDir,
		StorageDir:        a.storageDir,
		NativeLibraryDir:  a.sink.NativeLibraryDir(),
		APILevel:          a.apiLevel,
	}
}
