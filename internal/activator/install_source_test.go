// SPDX-License-Identifier: MPL-2.0

package activator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"pgregory.net/rapid"

	"gpudrv-cli/internal/source"
	"gpudrv-cli/internal/testutil"
	"gpudrv-cli/pkg/drivermeta"
)

// memorySource serves fixed bytes under a display name.
type memorySource struct {
	name  string
	data  []byte
	opens int
}

func (m *memorySource) Open(context.Context) (io.ReadCloser, error) {
	m.opens++
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

func (m *memorySource) DisplayName() string { return m.name }

var _ source.Source = (*memorySource)(nil)

func TestInstallFromSource(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	external := testutil.WriteZip(t, filepath.Join(t.TempDir(), "Download", "turnip-v24.zip"),
		testutil.DriverArchive(t, "Turnip", "libvulkan_freedreno.so", nil)...)

	result, err := f.act.InstallFromSource(context.Background(), source.NewFile(external))
	if err != nil {
		t.Fatalf("InstallFromSource() error = %v", err)
	}

	stored := filepath.Join(f.storage, "turnip-v24.zip")
	if result.ArchivePath != stored {
		t.Errorf("ArchivePath = %q, want %q", result.ArchivePath, stored)
	}
	if got := testutil.DirEntries(t, f.storage); !slices.Equal(got, []string{"turnip-v24.zip"}) {
		t.Errorf("storage directory = %v, want only the stored copy", got)
	}
	if !f.act.IsActive(stored) {
		t.Error("stored copy not active")
	}
}

func TestInstallFromSource_NamesCopy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		displayName string
		driverName  string
		want        string
	}{
		{"zip display name", "adreno-615.zip", "Adreno", "adreno-615.zip"},
		{"display name without suffix", "download", "Adreno 615", "Adreno 615.zip"},
		{"upper case suffix is not a zip name", "DRIVER.ZIP", "Mesa", "Mesa.zip"},
		{"nested display name", "some/dir/turnip.zip", "Turnip", "turnip.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			src := &memorySource{
				name: tt.displayName,
				data: testutil.ZipBytes(t, testutil.DriverArchive(t, tt.driverName, "lib.so", nil)...),
			}
			result, err := f.act.InstallFromSource(context.Background(), src)
			if err != nil {
				t.Fatalf("InstallFromSource() error = %v", err)
			}
			if got := filepath.Base(result.ArchivePath); got != tt.want {
				t.Errorf("stored as %q, want %q", got, tt.want)
			}
			if src.opens != 2 {
				t.Errorf("source opened %d times, want 2", src.opens)
			}
		})
	}
}

func TestInstallFromSource_RejectedBeforeCopy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    func(t *testing.T) []byte
		wantErr error
	}{
		{
			name:    "not a zip",
			data:    func(*testing.T) []byte { return []byte("<html>not found</html>") },
			wantErr: ErrNotArchive,
		},
		{
			name:    "empty content",
			data:    func(*testing.T) []byte { return nil },
			wantErr: ErrNotArchive,
		},
		{
			name: "invalid descriptor",
			data: func(t *testing.T) []byte {
				return testutil.ZipBytes(t, meta(`{"description":"nameless"}`), testutil.File("a.so", "ELF"))
			},
			wantErr: ErrInvalidDescriptor,
		},
		{
			name: "api level too high",
			data: func(t *testing.T) []byte {
				return testutil.ZipBytes(t, testutil.DriverArchive(t, "Future", "f.so", map[string]any{"minApi": 99})...)
			},
			wantErr: ErrUnsupportedAPILevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			src := &memorySource{name: "candidate.zip", data: tt.data(t)}
			_, err := f.act.InstallFromSource(context.Background(), src)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("InstallFromSource() error = %v, want %v", err, tt.wantErr)
			}
			if got := testutil.DirEntries(t, f.storage); len(got) != 0 {
				t.Errorf("storage directory = %v, want nothing written", got)
			}
			if src.opens != 1 {
				t.Errorf("source opened %d times, want 1", src.opens)
			}
		})
	}
}

func TestIsActive_FallbackLibrary(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	fallback := f.store(t, "fallback.zip",
		meta(`{"name":"Fallback","libraryName":"libvulkan.so"}`),
		testutil.File("vulkan.adreno.so", "ELF"),
	)
	other := f.store(t, "other.zip", testutil.DriverArchive(t, "Other", "libother.so", nil)...)

	result, err := f.act.InstallFromArchive(fallback)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(result.LibraryPath) != "vulkan.adreno.so" {
		t.Fatalf("LibraryPath = %q", result.LibraryPath)
	}
	if !f.act.IsActive(fallback) {
		t.Error("package activated through the fallback library is not active")
	}
	if f.act.IsActive(other) {
		t.Error("unrelated package reported active")
	}
}

func TestArchiveName(t *testing.T) {
	t.Parallel()

	named := drivermeta.Parse([]byte(`{"name":"Turnip","libraryName":"a.so"}`))
	tests := []struct {
		display string
		desc    drivermeta.Descriptor
		want    string
	}{
		{"turnip.zip", named, "turnip.zip"},
		{"../../turnip.zip", named, "turnip.zip"},
		{`C:\Downloads\turnip.zip`, named, "turnip.zip"},
		{"turnip", named, "Turnip.zip"},
		{"", named, "Turnip.zip"},
		{"", drivermeta.Descriptor{}, FallbackArchiveName},
		{"..", drivermeta.Parse([]byte(`{"name":".."}`)), FallbackArchiveName},
	}
	for _, tt := range tests {
		if got := ArchiveName(tt.display, tt.desc); got != tt.want {
			t.Errorf("ArchiveName(%q, %q) = %q, want %q", tt.display, tt.desc.Name(), got, tt.want)
		}
	}
}

func TestArchiveName_AlwaysStorable(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		display := rapid.StringMatching(`[a-zA-Z0-9 ./\\_-]{0,24}`).Draw(t, "display")
		name := rapid.StringMatching(`[a-zA-Z0-9 ./\\_-]{0,24}`).Draw(t, "name")
		desc := drivermeta.Parse([]byte(`{"name":` + quote(name) + `,"libraryName":"x.so"}`))

		got := ArchiveName(display, desc)
		if !strings.HasSuffix(got, ".zip") {
			t.Fatalf("ArchiveName(%q, %q) = %q lacks .zip suffix", display, name, got)
		}
		if strings.ContainsAny(got, `/\`) {
			t.Fatalf("ArchiveName(%q, %q) = %q contains a separator", display, name, got)
		}
		if filepath.Dir(filepath.Join("/storage", got)) != "/storage" {
			t.Fatalf("ArchiveName(%q, %q) = %q escapes the storage directory", display, name, got)
		}
	})
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `\`, `\\`) + `"`
}
