// SPDX-License-Identifier: MPL-2.0

package drivermeta

import (
	"errors"
	"fmt"
)

const (
	// DiagnosticMalformedJSON means the input is not well-formed JSON.
	DiagnosticMalformedJSON DiagnosticKind = "malformed-json"
	// DiagnosticNotObject means the top-level JSON value is not an object.
	DiagnosticNotObject DiagnosticKind = "not-object"
	// DiagnosticFieldType means a recognized key holds a value of the wrong type.
	DiagnosticFieldType DiagnosticKind = "field-type"
)

// ErrMalformedDescriptor is the sentinel wrapped by every Diagnostic.
var ErrMalformedDescriptor = errors.New("malformed driver descriptor")

type (
	// DiagnosticKind classifies why a descriptor could not be parsed.
	DiagnosticKind string

	// Diagnostic describes a descriptor parse failure. Parsing still returns
	// the all-empty Descriptor; the diagnostic only explains why.
	Diagnostic struct {
		Kind DiagnosticKind
		// Key is the JSON key involved, empty for document-level failures.
		Key   string
		Cause error
	}
)

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	switch {
	case d.Key != "" && d.Cause != nil:
		return fmt.Sprintf("%s: key %q: %v", d.Kind, d.Key, d.Cause)
	case d.Cause != nil:
		return fmt.Sprintf("%s: %v", d.Kind, d.Cause)
	default:
		return string(d.Kind)
	}
}

// Unwrap returns ErrMalformedDescriptor and the underlying cause.
func (d *Diagnostic) Unwrap() []error {
	if d.Cause == nil {
		return []error{ErrMalformedDescriptor}
	}
	return []error{ErrMalformedDescriptor, d.Cause}
}
