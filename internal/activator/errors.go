// SPDX-License-Identifier: MPL-2.0

package activator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDescriptor is returned when an archive has no descriptor
	// naming both a driver and its library.
	ErrInvalidDescriptor = errors.New("driver package has no valid meta.json")
	// ErrUnsupportedAPILevel is returned when a package needs a newer
	// platform than the current one.
	ErrUnsupportedAPILevel = errors.New("driver requires a newer platform API level")
	// ErrLibraryUnresolved is returned when the payload was extracted but
	// no library file could be matched to the descriptor.
	ErrLibraryUnresolved = errors.New("driver library not found in extracted payload")
	// ErrNotArchive is returned when external content is not a ZIP archive.
	ErrNotArchive = errors.New("content is not a zip archive")
)

// APILevelError reports the API level a package requires.
type APILevelError struct {
	Required int
	Current  int
}

// Error implements the error interface.
func (e *APILevelError) Error() string {
	return fmt.Sprintf("%s: requires API %d, platform has %d", ErrUnsupportedAPILevel, e.Required, e.Current)
}

// Unwrap returns ErrUnsupportedAPILevel for errors.Is() compatibility.
func (e *APILevelError) Unwrap() error { return ErrUnsupportedAPILevel }
