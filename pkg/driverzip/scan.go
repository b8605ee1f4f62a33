// SPDX-License-Identifier: MPL-2.0

package driverzip

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gpudrv-cli/pkg/drivermeta"
)

// MaxDescriptorSize bounds how much of a descriptor candidate is read into
// memory. Candidates of this size or larger are skipped.
const MaxDescriptorSize = 1 << 20

var errStopScan = errors.New("descriptor found")

// ScanResult is the outcome of looking for a descriptor inside an archive.
type ScanResult struct {
	// Descriptor is the parsed descriptor, or the zero value when none was found.
	Descriptor drivermeta.Descriptor
	// Entry is the archive entry the descriptor was read from.
	Entry string
	// Diagnostics lists candidates that were skipped before one parsed.
	Diagnostics []Diagnostic
}

// Found reports whether a parseable descriptor entry was located.
func (r ScanResult) Found() bool { return r.Entry != "" }

// IsDescriptorEntry reports whether an archive entry name is a descriptor
// candidate: its name ends with meta.json in any letter case, at any depth.
func IsDescriptorEntry(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), drivermeta.DescriptorFileName)
}

// ScanFile opens the archive at path and scans it with Scan.
func ScanFile(path string) (result ScanResult, err error) {
	f, err := os.Open(path)
	if err != nil {
		return ScanResult{}, fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return ScanResult{}, fmt.Errorf("failed to stat archive: %w", err)
	}
	return Scan(f, info.Size())
}

// Scan walks the central directory of a random-access archive and returns
// the first descriptor candidate that parses as a JSON object. Malformed,
// empty and oversized candidates are recorded and skipped.
// The error is non-nil only when the archive itself cannot be read.
func Scan(ra io.ReaderAt, size int64) (ScanResult, error) {
	zr, err := zip.NewReader(ra, size)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return ScanResult{}, fmt.Errorf("failed to read archive: %w", err)
	}
	registerDecompressor(zr)

	var result ScanResult
	for _, file := range zr.File {
		if file.FileInfo().IsDir() || !IsDescriptorEntry(file.Name) {
			continue
		}
		if result.consider(file.Name, func() (io.ReadCloser, error) { return file.Open() }) {
			break
		}
	}
	return result, nil
}

// ScanStream reads a forward-only archive stream entry by entry, exactly as
// Scan does for random-access archives. Reading stops as soon as a
// descriptor parses; the remainder of the stream is left unread.
func ScanStream(r io.Reader) (ScanResult, error) {
	var result ScanResult
	err := walkStream(r, func(name string, isDir bool, body io.Reader) error {
		if isDir || !IsDescriptorEntry(name) {
			return nil
		}
		if result.consider(name, func() (io.ReadCloser, error) { return io.NopCloser(body), nil }) {
			return errStopScan
		}
		return nil
	})
	if err != nil && !errors.Is(err, errStopScan) {
		return result, fmt.Errorf("failed to read archive stream: %w", err)
	}
	return result, nil
}

// consider reads and parses one candidate. It reports true once a
// descriptor has been accepted.
func (r *ScanResult) consider(name string, open func() (io.ReadCloser, error)) bool {
	data, diag := readCandidate(name, open)
	if diag != nil {
		r.Diagnostics = append(r.Diagnostics, *diag)
		return false
	}

	desc, parseDiag := drivermeta.ParseWithDiagnostic(data)
	if parseDiag != nil {
		r.Diagnostics = append(r.Diagnostics, Diagnostic{Entry: name, Kind: DiagnosticMalformed, Cause: parseDiag})
		return false
	}

	r.Descriptor = desc
	r.Entry = name
	return true
}

func readCandidate(name string, open func() (io.ReadCloser, error)) (data []byte, diag *Diagnostic) {
	rc, err := open()
	if err != nil {
		return nil, &Diagnostic{Entry: name, Kind: DiagnosticUnreadable, Cause: err}
	}
	defer func() { _ = rc.Close() }() // read-only; close errors carry no information

	data, err = io.ReadAll(io.LimitReader(rc, MaxDescriptorSize))
	switch {
	case err != nil:
		return nil, &Diagnostic{Entry: name, Kind: DiagnosticUnreadable, Cause: err}
	case len(data) == 0:
		return nil, &Diagnostic{Entry: name, Kind: DiagnosticEmpty}
	case len(data) >= MaxDescriptorSize:
		return nil, &Diagnostic{Entry: name, Kind: DiagnosticOversized}
	}
	return data, nil
}
