// SPDX-License-Identifier: MPL-2.0

package activator

// PointerSink owns the published driver pointers. The activator reads the
// active path back from it when deriving activation status.
type PointerSink interface {
	// ActivePath returns the active library path, or "" for the default driver.
	ActivePath() string
	// NativeLibraryDir returns the native library search directory override.
	NativeLibraryDir() string
	PublishActivePath(path string) error
	PublishNativeLibraryDir(dir string) error
}

// MemorySink is an in-memory PointerSink.
type MemorySink struct {
	Active    string
	NativeDir string
	// Publishes counts successful publish calls.
	Publishes int
}

// ActivePath implements PointerSink.
func (m *MemorySink) ActivePath() string { return m.Active }

// NativeLibraryDir implements PointerSink.
func (m *MemorySink) NativeLibraryDir() string { return m.NativeDir }

// PublishActivePath implements PointerSink.
func (m *MemorySink) PublishActivePath(path string) error {
	m.Active = path
	m.Publishes++
	return nil
}

// PublishNativeLibraryDir implements PointerSink.
func (m *MemorySink) PublishNativeLibraryDir(dir string) error {
	m.NativeDir = dir
	m.Publishes++
	return nil
}
