// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

// ZipEntry is one entry of a fixture archive. Names ending in "/" become
// directory entries. Stored entries skip compression.
type ZipEntry struct {
	Name   string
	Body   []byte
	Stored bool
}

// File returns a deflated file entry.
func File(name string, body string) ZipEntry {
	return ZipEntry{Name: name, Body: []byte(body)}
}

// Dir returns a directory entry.
func Dir(name string) ZipEntry {
	if !strings.HasSuffix(name, "/") {
		name += "/"
	}
	return ZipEntry{Name: name}
}

// Descriptor marshals fields as a meta.json document.
func Descriptor(t testing.TB, fields map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("failed to marshal descriptor: %v", err)
	}
	return data
}

// DriverArchive returns the entries of a minimal valid driver package:
// a meta.json naming the library and the library itself.
func DriverArchive(t testing.TB, name, library string, extra map[string]any) []ZipEntry {
	t.Helper()
	fields := map[string]any{"name": name, "libraryName": library}
	for k, v := range extra {
		fields[k] = v
	}
	return []ZipEntry{
		{Name: "meta.json", Body: Descriptor(t, fields)},
		{Name: library, Body: []byte("\x7fELF" + name)},
	}
}

// ZipBytes builds an in-memory archive from entries, in order.
func ZipBytes(t testing.TB, entries ...ZipEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		header := &zip.FileHeader{Name: e.Name, Method: zip.Deflate}
		if e.Stored || strings.HasSuffix(e.Name, "/") {
			header.Method = zip.Store
		}
		w, err := zw.CreateHeader(header)
		if err != nil {
			t.Fatalf("failed to add %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Body); err != nil {
			t.Fatalf("failed to write %s: %v", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finish archive: %v", err)
	}
	return buf.Bytes()
}

// WriteZip writes an archive built from entries to path and returns path.
func WriteZip(t testing.TB, path string, entries ...ZipEntry) string {
	t.Helper()
	MustWriteFile(t, filepath.Clean(path), ZipBytes(t, entries...))
	return path
}
