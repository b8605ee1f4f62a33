// SPDX-License-Identifier: MPL-2.0

// Package state persists the published driver pointers to state.toml so
// that the emulator bootstrap can read them without running gpudrv.
package state

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the name of the state file inside the data directory.
const FileName = "state.toml"

var (
	// ErrCorrupt is returned by Open when the state file cannot be read or parsed.
	ErrCorrupt = errors.New("state file unreadable")
	// ErrWrite is returned when a publish could not be persisted. The
	// in-memory state is left unchanged.
	ErrWrite = errors.New("state file not written")
)

type (
	// Snapshot is the on-disk form of the published state.
	Snapshot struct {
		ActiveLibraryPath string    `toml:"active_library_path"`
		NativeLibraryDir  string    `toml:"native_library_dir"`
		UpdatedAt         time.Time `toml:"updated_at,omitempty"`
	}

	// Store is a file-backed pointer sink. Every publish rewrites the whole
	// file through a temporary file in the same directory.
	Store struct {
		path    string
		now     func() time.Time
		current Snapshot
	}

	// Option configures a Store.
	Option func(*Store)
)

// WithClock overrides the time source used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open loads the state file at path. A missing file yields an empty state;
// the file is only created by the first publish.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err := toml.Unmarshal(data, &s.current); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, path, err)
	}
	return s, nil
}

// Path returns the state file location.
func (s *Store) Path() string { return s.path }

// Snapshot returns the state as last loaded or published.
func (s *Store) Snapshot() Snapshot { return s.current }

// ActivePath returns the active library path, or "" for the default driver.
func (s *Store) ActivePath() string { return s.current.ActiveLibraryPath }

// NativeLibraryDir returns the native library search directory override.
func (s *Store) NativeLibraryDir() string { return s.current.NativeLibraryDir }

// PublishActivePath records path as the active library and persists it.
func (s *Store) PublishActivePath(path string) error {
	next := s.current
	next.ActiveLibraryPath = path
	return s.commit(next)
}

// PublishNativeLibraryDir records dir as the native library override.
func (s *Store) PublishNativeLibraryDir(dir string) error {
	next := s.current
	next.NativeLibraryDir = dir
	return s.commit(next)
}

func (s *Store) commit(next Snapshot) error {
	next.UpdatedAt = s.now().UTC().Truncate(time.Second)
	data, err := toml.Marshal(next)
	if err != nil {
		return fmt.Errorf("%w: encoding state: %w", ErrWrite, err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, s.path, err)
	}
	s.current = next
	return nil
}

// writeFileAtomic replaces path with data via a rename from the same
// directory, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".state-*.toml")
	if err != nil {
		return err
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	renamed = true
	return nil
}
