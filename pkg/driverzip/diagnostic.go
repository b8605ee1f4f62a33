// SPDX-License-Identifier: MPL-2.0

package driverzip

import (
	"errors"
	"fmt"
)

const (
	// DiagnosticPathTraversal marks an entry whose target resolves outside the destination.
	DiagnosticPathTraversal DiagnosticKind = "path-traversal"
	// DiagnosticInvalidEntry marks a file entry that names the destination itself.
	DiagnosticInvalidEntry DiagnosticKind = "invalid-entry"
	// DiagnosticOversized marks a descriptor candidate of MaxDescriptorSize bytes or more.
	DiagnosticOversized DiagnosticKind = "oversized-descriptor"
	// DiagnosticEmpty marks a zero-length descriptor candidate.
	DiagnosticEmpty DiagnosticKind = "empty-descriptor"
	// DiagnosticUnreadable marks an entry whose content or path could not be read.
	DiagnosticUnreadable DiagnosticKind = "unreadable-entry"
	// DiagnosticMalformed marks a descriptor candidate that is not a JSON object.
	DiagnosticMalformed DiagnosticKind = "malformed-descriptor"
)

// ErrIntegrityViolation is wrapped by diagnostics for entries that were
// skipped because they could compromise the destination or memory use.
var ErrIntegrityViolation = errors.New("archive integrity violation")

type (
	// DiagnosticKind classifies a skipped entry.
	DiagnosticKind string

	// Diagnostic records an archive entry that was skipped during a scan or extraction.
	Diagnostic struct {
		Entry string
		Kind  DiagnosticKind
		Cause error
	}
)

// Error implements the error interface.
func (d Diagnostic) Error() string {
	if d.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", d.Entry, d.Kind, d.Cause)
	}
	return fmt.Sprintf("%s: %s", d.Entry, d.Kind)
}

// Unwrap exposes ErrIntegrityViolation for integrity kinds, plus the cause.
func (d Diagnostic) Unwrap() []error {
	var errs []error
	if d.IsIntegrityViolation() {
		errs = append(errs, ErrIntegrityViolation)
	}
	if d.Cause != nil {
		errs = append(errs, d.Cause)
	}
	return errs
}

// IsIntegrityViolation reports whether the entry was skipped to protect the
// destination directory or bound memory use.
func (d Diagnostic) IsIntegrityViolation() bool {
	switch d.Kind {
	case DiagnosticPathTraversal, DiagnosticInvalidEntry, DiagnosticOversized, DiagnosticEmpty:
		return true
	default:
		return false
	}
}
