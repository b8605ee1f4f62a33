// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"gpudrv-cli/internal/activator"
	"gpudrv-cli/internal/issue"
	"gpudrv-cli/pkg/drivermeta"
	"gpudrv-cli/pkg/driverzip"
)

func newInspectCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <zip>",
		Short: "Show the descriptor of a driver package without installing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(runInspect(cmd, app, args[0]))
		},
	}
}

func runInspect(cmd *cobra.Command, app *App, path string) error {
	s, err := app.openSession(cmd.Context())
	if err != nil {
		return err
	}

	scan, err := driverzip.ScanFile(path)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("inspect driver package").
			WithResource(path).
			WithIssue(issue.NotAnArchiveId).
			Wrap(fmt.Errorf("%w: %w", activator.ErrNotArchive, err)).
			BuildError()
	}

	w := app.stdout
	fmt.Fprintln(w, TitleStyle.Render(scan.Descriptor.DisplayName()))
	if scan.Found() {
		printField(w, "descriptor", scan.Entry)
	} else {
		printField(w, "descriptor", "(none found)")
	}
	printDescriptor(w, scan.Descriptor)
	for _, d := range scan.Diagnostics {
		fmt.Fprintf(w, "%s skipped %s (%s)\n", WarningStyle.Render("warning:"), d.Entry, d.Kind)
		if app.verbose && d.Cause != nil {
			fmt.Fprintf(w, "  %s\n", SubtitleStyle.Render(d.Cause.Error()))
		}
	}

	switch {
	case !scan.Descriptor.IsValid():
		return issue.NewErrorContext().
			WithOperation("validate driver package").
			WithResource(path).
			WithSuggestion("meta.json needs both a name and a libraryName").
			Wrap(activator.ErrInvalidDescriptor).
			BuildError()
	case scan.Descriptor.MinAPI() > s.apiLevel:
		return issue.NewErrorContext().
			WithOperation("validate driver package").
			WithResource(path).
			Wrap(&activator.APILevelError{Required: scan.Descriptor.MinAPI(), Current: s.apiLevel}).
			BuildError()
	}
	fmt.Fprintf(w, "%s installable on API level %d\n", SuccessStyle.Render("✓"), s.apiLevel)
	return nil
}

func printDescriptor(w io.Writer, d drivermeta.Descriptor) {
	printField(w, "library", d.LibraryName())
	printField(w, "version", d.Version())
	printField(w, "vulkan", d.VulkanVersion())
	printField(w, "vendor", d.Vendor())
	printField(w, "author", d.Author())
	if d.MinAPI() > 0 {
		printField(w, "min api", strconv.Itoa(d.MinAPI()))
	}
	printField(w, "description", d.Description())
}

// printField writes an aligned "key: value" line, skipping empty values.
func printField(w io.Writer, key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "  %s %s\n", KeyStyle.Render(fmt.Sprintf("%-12s", key+":")), value)
}
