// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gpudrv-cli/internal/activator"
	"gpudrv-cli/internal/config"
	"gpudrv-cli/internal/issue"
	"gpudrv-cli/internal/registry"
	"gpudrv-cli/internal/source"
	"gpudrv-cli/internal/state"
	"gpudrv-cli/pkg/types"
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// classifyError maps a command failure to its exit code and help page.
func classifyError(err error) (types.ExitCode, issue.Id) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		_, id := classifyError(exitErr.Err)
		return exitErr.Code, id
	}

	switch {
	case errors.Is(err, state.ErrCorrupt), errors.Is(err, state.ErrWrite):
		return types.ExitStateInconsistent, issue.StateCorruptId
	case errors.Is(err, activator.ErrLibraryUnresolved):
		return types.ExitStateInconsistent, issue.LibraryUnresolvedId
	case errors.Is(err, activator.ErrInvalidDescriptor):
		return types.ExitValidation, issue.InvalidDescriptorId
	case errors.Is(err, activator.ErrUnsupportedAPILevel):
		return types.ExitValidation, issue.UnsupportedAPILevelId
	case errors.Is(err, activator.ErrNotArchive):
		return types.ExitValidation, issue.NotAnArchiveId
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, registry.ErrOutsideStorage):
		return types.ExitGeneral, issue.PackageNotFoundId
	case errors.Is(err, source.ErrHTTPStatus), errors.Is(err, source.ErrFetch):
		return types.ExitGeneral, issue.DownloadFailedId
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrInvalidLoadOptions):
		return types.ExitGeneral, issue.ConfigLoadFailedId
	case errors.Is(err, os.ErrPermission):
		return types.ExitGeneral, issue.PermissionDeniedId
	}

	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if ae.Issue != 0 {
			return types.ExitGeneral, ae.Issue
		}
		if ae.Operation == "load configuration" {
			return types.ExitGeneral, issue.ConfigLoadFailedId
		}
	}
	return types.ExitGeneral, 0
}

// fail renders remediation hints for err to stderr and wraps it with its
// exit code. The error message itself is printed by fang.
func (a *App) fail(err error) error {
	if err == nil {
		return nil
	}
	code, id := classifyError(err)
	renderHints(a.stderr, err, id, a.verbose)
	return &ExitError{Code: code, Err: err}
}

// renderHints prints the suggestions of an ActionableError and, in verbose
// mode, the error chain and the catalog help page.
func renderHints(w io.Writer, err error, id issue.Id, verbose bool) {
	var ae *issue.ActionableError
	if errors.As(err, &ae) && ae.HasSuggestions() {
		for _, suggestion := range ae.Suggestions {
			fmt.Fprintf(w, "  %s %s\n", WarningStyle.Render("•"), suggestion)
		}
	}

	if !verbose {
		if id != 0 {
			fmt.Fprintln(w, SubtitleStyle.Render("Run again with --verbose for troubleshooting help."))
		}
		return
	}

	fmt.Fprintln(w, SubtitleStyle.Render("Error chain:"))
	for i, msg := range issue.Chain(err) {
		fmt.Fprintf(w, "  %d. %s\n", i+1, msg)
	}

	if page := issue.Get(id); page != nil {
		rendered, renderErr := page.Render("dark")
		if renderErr != nil {
			fmt.Fprint(w, page.Markdown())
			return
		}
		fmt.Fprint(w, rendered)
	}
}
