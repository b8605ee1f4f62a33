// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"fmt"
	"time"

	"gpudrv-cli/pkg/drivermeta"
)

// SystemDriverName is the display name of the built-in driver pseudo-entry.
const SystemDriverName = "System Driver"

const (
	kib = 1024
	mib = 1024 * kib
)

// Package is one stored driver archive.
type Package struct {
	// Name is the display name taken from the descriptor.
	Name string
	// Path is the absolute archive path. Empty for the system driver.
	Path string
	// Size is the archive size in bytes.
	Size int64
	// ModTime is the archive modification time.
	ModTime time.Time
	// Descriptor is nil for the system driver.
	Descriptor *drivermeta.Descriptor
}

// SystemDriver returns the pseudo-entry standing for the emulator's
// built-in driver.
func SystemDriver() Package {
	return Package{Name: SystemDriverName}
}

// IsSystemDriver reports whether p is the built-in driver pseudo-entry.
func (p Package) IsSystemDriver() bool {
	return p.Path == ""
}

// FormattedSize renders the archive size as "N B", "N.NN KB" or "N.NN MB".
func (p Package) FormattedSize() string {
	switch {
	case p.Size < kib:
		return fmt.Sprintf("%d B", p.Size)
	case p.Size < mib:
		return fmt.Sprintf("%.2f KB", float64(p.Size)/kib)
	default:
		return fmt.Sprintf("%.2f MB", float64(p.Size)/mib)
	}
}
