// SPDX-License-Identifier: MPL-2.0

package driverzip

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"

	"gpudrv-cli/internal/testutil"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := testutil.WriteZip(t, filepath.Join(dir, "turnip.zip"),
		testutil.File("meta.json", `{"name":"Turnip","libraryName":"libvulkan_freedreno.so"}`),
		testutil.Dir("lib"),
		testutil.File("lib/arm64/libvulkan_freedreno.so", "\x7fELF"),
		testutil.File("../../evil", "pwned"),
		testutil.File("README.txt", "hello"),
	)
	dest := filepath.Join(dir, "install", "gpu_driver")

	result, err := Extract(archive, dest)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	for _, rel := range []string{"meta.json", "lib/arm64/libvulkan_freedreno.so", "README.txt"} {
		if _, statErr := os.Stat(filepath.Join(dest, filepath.FromSlash(rel))); statErr != nil {
			t.Errorf("expected %s to be extracted: %v", rel, statErr)
		}
	}
	if _, statErr := os.Stat(filepath.Join(dir, "evil")); !os.IsNotExist(statErr) {
		t.Errorf("traversal entry escaped the destination: %v", statErr)
	}

	if len(result.Files) != 3 {
		t.Errorf("Files = %v, want 3 entries", result.Files)
	}
	if len(result.Dirs) != 1 {
		t.Errorf("Dirs = %v, want 1 entry", result.Dirs)
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("Skipped = %v, want 1 entry", result.Skipped)
	}
	skipped := result.Skipped[0]
	if skipped.Entry != "../../evil" || skipped.Kind != DiagnosticPathTraversal {
		t.Errorf("Skipped[0] = %+v, want path traversal for ../../evil", skipped)
	}
	if !errors.Is(skipped, ErrIntegrityViolation) {
		t.Error("skipped traversal should be an integrity violation")
	}
}

func TestExtract_LibraryPermissions(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("POSIX permission bits are not enforced on Windows")
	}

	dir := t.TempDir()
	archive := testutil.WriteZip(t, filepath.Join(dir, "d.zip"),
		testutil.DriverArchive(t, "D", "vulkan.d.so", nil)...,
	)
	dest := filepath.Join(dir, "out")
	if _, err := Extract(archive, dest); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	tests := []struct {
		name string
		want os.FileMode
	}{
		{"vulkan.d.so", 0o755},
		{"meta.json", 0o644},
	}
	for _, tt := range tests {
		info, err := os.Stat(filepath.Join(dest, tt.name))
		if err != nil {
			t.Fatalf("stat %s: %v", tt.name, err)
		}
		// The process umask may clear group and other bits.
		if got := info.Mode().Perm(); got&0o700 != tt.want&0o700 {
			t.Errorf("%s mode = %o, want %o", tt.name, got, tt.want)
		}
	}
}

func TestExtract_OverwritesExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	dest := filepath.Join(dir, "out")
	testutil.MustMkdirAll(t, dest, 0o755)
	testutil.MustWriteFile(t, filepath.Join(dest, "meta.json"), []byte("stale"))

	archive := testutil.WriteZip(t, filepath.Join(dir, "d.zip"), testutil.File("meta.json", `{"name":"New"}`))
	if _, err := Extract(archive, dest); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dest, "meta.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"name":"New"}` {
		t.Errorf("meta.json = %q, want overwritten content", data)
	}
}

func TestExtract_InvalidArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	bogus := filepath.Join(dir, "bogus.zip")
	testutil.MustWriteFile(t, bogus, []byte("definitely not a zip"))

	if _, err := Extract(bogus, filepath.Join(dir, "out")); err == nil {
		t.Error("Extract() expected error for non-archive input")
	}
	if _, err := Extract(filepath.Join(dir, "missing.zip"), filepath.Join(dir, "out")); err == nil {
		t.Error("Extract() expected error for missing archive")
	}
}

func TestExtract_DestinationIsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	testutil.MustWriteFile(t, blocker, []byte("x"))
	archive := testutil.WriteZip(t, filepath.Join(dir, "d.zip"), testutil.File("meta.json", `{}`))

	_, err := Extract(archive, filepath.Join(blocker, "sub"))
	if !errors.Is(err, ErrCreateDirectory) {
		t.Errorf("Extract() error = %v, want ErrCreateDirectory", err)
	}
}

func TestExtract_FileWhereDirectoryIsNeeded(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := testutil.WriteZip(t, filepath.Join(dir, "d.zip"),
		testutil.File("../../evil", "pwned"),
		testutil.File("../gpu_driver2/x", "pwned"),
		testutil.File("ok/lib.so", "ELF"),
		testutil.File("a", "plain file"),
		testutil.File("a/b", "needs a to be a directory"),
	)
	dest := filepath.Join(dir, "gpu_driver")

	result, err := Extract(archive, dest)
	if !errors.Is(err, ErrCreateDirectory) {
		t.Fatalf("Extract() error = %v, want ErrCreateDirectory", err)
	}
	if result == nil {
		t.Fatal("Extract() result = nil, want the partial result")
	}
	for _, d := range result.Skipped {
		if d.Entry == "a/b" {
			t.Errorf("a/b was skipped as %s, want the extraction to abort", d.Kind)
		}
		if d.Kind != DiagnosticPathTraversal {
			t.Errorf("Skipped %+v, want only traversal entries", d)
		}
	}
	if len(result.Skipped) != 2 {
		t.Errorf("Skipped = %v, want both traversal entries", result.Skipped)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "gpu_driver2")); !os.IsNotExist(statErr) {
		t.Errorf("sibling directory created outside the destination: %v", statErr)
	}
	if _, statErr := os.Stat(filepath.Join(dest, "ok", "lib.so")); statErr != nil {
		t.Errorf("entries before the failure should stay extracted: %v", statErr)
	}
}

func TestExtract_NestedDirectoriesCreatedImplicitly(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	archive := testutil.WriteZip(t, filepath.Join(dir, "d.zip"),
		testutil.File("a/b/c/deep.so", "ELF"),
	)
	dest := filepath.Join(dir, "out")
	result, err := Extract(archive, dest)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	want := filepath.Join(result.Root, "a", "b", "c", "deep.so")
	if !slices.Contains(result.Files, want) {
		t.Errorf("Files = %v, want to contain %s", result.Files, want)
	}
}

func TestIsLibrary(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"libvulkan.so":     true,
		"vulkan.adreno.so": true,
		"libvulkan.so.1":   false,
		"meta.json":        false,
		"LIB.SO":           false,
	}
	for name, want := range tests {
		if got := IsLibrary(name); got != want {
			t.Errorf("IsLibrary(%q) = %v, want %v", name, got, want)
		}
	}
}
