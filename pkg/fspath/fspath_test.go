// SPDX-License-Identifier: MPL-2.0

package fspath_test

import (
	"os"
	"path/filepath"
	"testing"

	"gpudrv-cli/pkg/fspath"
)

func TestCanonical(t *testing.T) {
	t.Parallel()

	t.Run("existing directory", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		got, err := fspath.Canonical(dir)
		if err != nil {
			t.Fatalf("Canonical() error = %v", err)
		}
		want, _ := filepath.EvalSymlinks(dir)
		if got != want {
			t.Errorf("Canonical() = %q, want %q", got, want)
		}
	})

	t.Run("missing tail is appended", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		got, err := fspath.Canonical(filepath.Join(dir, "a", "b", "lib.so"))
		if err != nil {
			t.Fatalf("Canonical() error = %v", err)
		}
		base, _ := filepath.EvalSymlinks(dir)
		if want := filepath.Join(base, "a", "b", "lib.so"); got != want {
			t.Errorf("Canonical() = %q, want %q", got, want)
		}
	})

	t.Run("symlink is resolved", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		realDir := filepath.Join(dir, "realDir")
		if err := os.Mkdir(realDir, 0o755); err != nil {
			t.Fatal(err)
		}
		link := filepath.Join(dir, "link")
		if err := os.Symlink(realDir, link); err != nil {
			t.Skipf("symlinks unsupported: %v", err)
		}

		got, err := fspath.Canonical(filepath.Join(link, "x"))
		if err != nil {
			t.Fatalf("Canonical() error = %v", err)
		}
		resolved, _ := filepath.EvalSymlinks(realDir)
		if want := filepath.Join(resolved, "x"); got != want {
			t.Errorf("Canonical() = %q, want %q", got, want)
		}
	})
}

func TestWithin(t *testing.T) {
	t.Parallel()

	root := filepath.FromSlash("/data/gpu_driver")
	tests := []struct {
		target string
		want   bool
	}{
		{"/data/gpu_driver", true},
		{"/data/gpu_driver/lib.so", true},
		{"/data/gpu_driver/sub/dir/lib.so", true},
		{"/data/gpu_driver2/lib.so", false},
		{"/data/evil", false},
		{"/etc/passwd", false},
		{"/data/gpu_driver/..hidden", true},
	}

	for _, tt := range tests {
		if got := fspath.Within(root, filepath.FromSlash(tt.target)); got != tt.want {
			t.Errorf("Within(%q, %q) = %v, want %v", root, tt.target, got, tt.want)
		}
	}
}

func TestIsDirectChild(t *testing.T) {
	t.Parallel()

	dir := filepath.FromSlash("/data/gpu_drivers")
	if !fspath.IsDirectChild(dir, filepath.FromSlash("/data/gpu_drivers/turnip.zip")) {
		t.Error("direct child not recognized")
	}
	if fspath.IsDirectChild(dir, filepath.FromSlash("/data/gpu_drivers/sub/turnip.zip")) {
		t.Error("nested file treated as direct child")
	}
	if fspath.IsDirectChild(dir, filepath.FromSlash("/data/other/turnip.zip")) {
		t.Error("foreign file treated as direct child")
	}
}

func TestRemoveAllBestEffort(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "install")
	for _, p := range []string{"a/b/c.so", "a/d.txt", "e.so"} {
		full := filepath.Join(target, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := fspath.RemoveAllBestEffort(target); err != nil {
		t.Fatalf("RemoveAllBestEffort() error = %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Errorf("target still exists: %v", err)
	}

	if err := fspath.RemoveAllBestEffort(filepath.Join(dir, "missing")); err != nil {
		t.Errorf("missing path should not error, got %v", err)
	}
}
