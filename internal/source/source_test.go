// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"gpudrv-cli/internal/testutil"
)

func readAll(t *testing.T, src Source) string {
	t.Helper()
	rc, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer testutil.MustClose(t, rc)
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read error = %v", err)
	}
	return string(data)
}

func fastRetry() URLOption {
	return WithRetry(1, time.Millisecond, 5*time.Millisecond)
}

func TestFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "turnip.zip")
	testutil.MustWriteFile(t, path, []byte("PK"))

	src := NewFile(path)
	if got := src.DisplayName(); got != "turnip.zip" {
		t.Errorf("DisplayName() = %q", got)
	}
	// Re-opening yields the content again from the start.
	for range 2 {
		if got := readAll(t, src); got != "PK" {
			t.Errorf("content = %q", got)
		}
	}

	if _, err := NewFile(filepath.Join(t.TempDir(), "missing")).Open(context.Background()); err == nil {
		t.Error("Open() expected error for missing file")
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ref     string
		wantURL bool
		wantErr bool
	}{
		{"https://example.com/d.zip", true, false},
		{"HTTP://example.com/d.zip", true, false},
		{"/sdcard/Download/d.zip", false, false},
		{"d.zip", false, false},
		{"", false, true},
	}
	for _, tt := range tests {
		src, err := Resolve(tt.ref)
		if (err != nil) != tt.wantErr {
			t.Errorf("Resolve(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if _, isURL := src.(*URL); isURL != tt.wantURL {
			t.Errorf("Resolve(%q) = %T, wantURL %v", tt.ref, src, tt.wantURL)
		}
	}
}

func TestNewURL_RejectsScheme(t *testing.T) {
	t.Parallel()

	if _, err := NewURL("ftp://example.com/d.zip"); err == nil {
		t.Error("NewURL() expected error for ftp scheme")
	}
}

func TestURL_DisplayName(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/download", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="turnip-v24.zip"`)
		_, _ = io.WriteString(w, "PK")
	})
	mux.HandleFunc("/files/adreno.zip", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "PK")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	served, err := NewURL(srv.URL+"/download", fastRetry())
	if err != nil {
		t.Fatal(err)
	}
	if got := served.DisplayName(); got != "download" {
		t.Errorf("DisplayName() before Open = %q, want path segment", got)
	}
	if got := readAll(t, served); got != "PK" {
		t.Errorf("content = %q", got)
	}
	if got := served.DisplayName(); got != "turnip-v24.zip" {
		t.Errorf("DisplayName() = %q, want Content-Disposition name", got)
	}

	plain, err := NewURL(srv.URL+"/files/adreno.zip?token=abc", fastRetry())
	if err != nil {
		t.Fatal(err)
	}
	_ = readAll(t, plain)
	if got := plain.DisplayName(); got != "adreno.zip" {
		t.Errorf("DisplayName() = %q, want last path segment", got)
	}

	root, err := NewURL(srv.URL, fastRetry())
	if err != nil {
		t.Fatal(err)
	}
	if got := root.DisplayName(); got != "" {
		t.Errorf("DisplayName() for bare host = %q, want empty", got)
	}
}

func TestURL_Open_Errors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/missing.zip":
			http.NotFound(w, r)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)

	missing, err := NewURL(srv.URL+"/missing.zip", fastRetry())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := missing.Open(context.Background()); !errors.Is(err, ErrHTTPStatus) {
		t.Errorf("Open() error = %v, want ErrHTTPStatus", err)
	}

	before := hits.Load()
	flaky, err := NewURL(srv.URL+"/broken.zip", fastRetry())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := flaky.Open(context.Background()); !errors.Is(err, ErrFetch) {
		t.Errorf("Open() error = %v, want ErrFetch after retries are exhausted", err)
	}
	if attempts := hits.Load() - before; attempts != 2 {
		t.Errorf("server saw %d attempts, want 2", attempts)
	}
}

func TestAttachmentName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                                       "",
		`attachment; filename="a.zip"`:           "a.zip",
		`attachment; filename="../../etc/x.zip"`: "x.zip",
		`attachment; filename=".."`:              "",
		`inline`:                                 "",
		`not a ; valid = header ;;`:              "",
	}
	for header, want := range tests {
		if got := attachmentName(header); got != want {
			t.Errorf("attachmentName(%q) = %q, want %q", header, got, want)
		}
	}
}
