// SPDX-License-Identifier: MPL-2.0

package activator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"gpudrv-cli/internal/registry"
	"gpudrv-cli/internal/source"
	"gpudrv-cli/pkg/drivermeta"
	"gpudrv-cli/pkg/driverzip"
)

const (
	// FallbackArchiveName is used when neither the source nor the
	// descriptor yields a usable file name.
	FallbackArchiveName = "driver.zip"

	zipMIME    = "application/zip"
	sniffBytes = 3072
)

// InstallFromSource validates external content, copies it into the storage
// directory and activates the copy.
//
// The descriptor and API level are checked from a first read before any
// byte is written. The copy is staged under a unique hidden name and
// renamed into place once complete.
func (a *Activator) InstallFromSource(ctx context.Context, src source.Source) (*InstallResult, error) {
	desc, err := a.prevalidate(ctx, src)
	if err != nil {
		return nil, err
	}

	target := filepath.Join(a.storageDir, ArchiveName(src.DisplayName(), desc))
	if err := a.stage(ctx, src, target); err != nil {
		return nil, err
	}
	a.logger.Info("stored driver package", "path", target)

	return a.InstallFromArchive(target)
}

func (a *Activator) prevalidate(ctx context.Context, src source.Source) (_ drivermeta.Descriptor, err error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return drivermeta.Descriptor{}, err
	}
	defer func() { _ = rc.Close() }() // read-only; the content is re-opened for the copy

	br := bufio.NewReaderSize(rc, sniffBytes)
	head, err := br.Peek(sniffBytes)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return drivermeta.Descriptor{}, fmt.Errorf("failed to read %s: %w", src.DisplayName(), err)
	}
	if !isZip(mimetype.Detect(head)) {
		return drivermeta.Descriptor{}, fmt.Errorf("%w: %s", ErrNotArchive, src.DisplayName())
	}

	scan, err := driverzip.ScanStream(br)
	if err != nil {
		return drivermeta.Descriptor{}, fmt.Errorf("%w: %w", ErrNotArchive, err)
	}
	if err := a.validate(scan.Descriptor); err != nil {
		return drivermeta.Descriptor{}, err
	}
	return scan.Descriptor, nil
}

// isZip reports whether m is a ZIP archive or a format built on one.
func isZip(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is(zipMIME) {
			return true
		}
	}
	return false
}

func (a *Activator) stage(ctx context.Context, src source.Source, target string) (err error) {
	if err := os.MkdirAll(a.storageDir, 0o755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }() // read-only source

	staging := filepath.Join(a.storageDir, "."+uuid.New().String()+".partial")
	out, err := os.OpenFile(staging, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(staging)
		}
	}()

	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s: %w", src.DisplayName(), err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", staging, err)
	}
	if err := os.Rename(staging, target); err != nil {
		return fmt.Errorf("failed to store %s: %w", target, err)
	}
	renamed = true
	return nil
}

// ArchiveName derives the stored file name for external content: the
// display name when it ends in ".zip", else the descriptor name with
// ".zip" appended, else FallbackArchiveName. Only the base name is kept.
func ArchiveName(displayName string, desc drivermeta.Descriptor) string {
	if base := baseName(displayName); base != "" && strings.HasSuffix(base, registry.ArchiveSuffix) {
		return base
	}
	if base := baseName(desc.Name()); base != "" {
		return base + registry.ArchiveSuffix
	}
	return FallbackArchiveName
}

func baseName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	switch base := filepath.Base(filepath.FromSlash(name)); base {
	case ".", "..", string(filepath.Separator):
		return ""
	default:
		return base
	}
}
