// SPDX-License-Identifier: MPL-2.0

// Package types holds small validated value types shared by gpudrv packages.
package types

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// ExitSuccess reports a completed command.
	ExitSuccess ExitCode = 0
	// ExitGeneral reports an unexpected failure (I/O, network, usage).
	ExitGeneral ExitCode = 1
	// ExitValidation reports a rejected package: bad descriptor, API level,
	// or not an archive.
	ExitValidation ExitCode = 2
	// ExitStateInconsistent reports that the published driver state does not
	// match the disk: the state file could not be read or written, or a
	// package was extracted without a resolvable library.
	ExitStateInconsistent ExitCode = 3
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

type (
	// ExitCode represents a process exit status code.
	// Exit codes are in the range 0-255 on POSIX systems.
	// The zero value (0) means success.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid range (0-255).
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// Validate returns an error if the ExitCode is outside the valid range (0-255).
func (c ExitCode) Validate() error {
	if c < 0 || c > 255 {
		return &InvalidExitCodeError{Value: c}
	}
	return nil
}

// IsSuccess returns true if the exit code indicates success.
func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

// Label names the failure class of the well-known codes.
func (c ExitCode) Label() string {
	switch c {
	case ExitSuccess:
		return "success"
	case ExitGeneral:
		return "error"
	case ExitValidation:
		return "rejected package"
	case ExitStateInconsistent:
		return "inconsistent state"
	default:
		return "exit " + c.String()
	}
}

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
