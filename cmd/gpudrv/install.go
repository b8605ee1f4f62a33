// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gpudrv-cli/internal/activator"
	"gpudrv-cli/internal/issue"
	"gpudrv-cli/internal/source"
)

func newInstallCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "install <file|url>",
		Short: "Store a driver package and activate it",
		Long: `Store a driver package and activate it.

The source may be a local ZIP file or an http(s) URL. The content is checked
before anything is copied: it must be a ZIP archive whose meta.json names the
driver and its library, and whose minApi the platform satisfies.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(runInstall(cmd, app, args[0]))
		},
	}
}

func runInstall(cmd *cobra.Command, app *App, ref string) error {
	s, err := app.openSession(cmd.Context())
	if err != nil {
		return err
	}

	src, err := source.Resolve(ref, app.sourceOptions(s)...)
	if err != nil {
		return err
	}
	result, err := s.activator.InstallFromSource(cmd.Context(), src)
	if result != nil {
		reportSkipped(app.stderr, result)
	}
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("install driver package").
			WithResource(ref).
			WithSuggestion("Run 'gpudrv inspect <file>' to see what the archive contains").
			Wrap(err).
			BuildError()
	}
	if err := s.syncNativeLibraryDir(); err != nil {
		return err
	}

	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("Installed"), TitleStyle.Render(result.Descriptor.DisplayName()))
	fmt.Fprintf(app.stdout, "  %s %s\n", SubtitleStyle.Render("package:"), KeyStyle.Render(result.ArchivePath))
	fmt.Fprintf(app.stdout, "  %s %s\n", SubtitleStyle.Render("library:"), KeyStyle.Render(result.LibraryPath))
	return nil
}

// reportSkipped warns about archive entries that were not extracted.
func reportSkipped(w io.Writer, result *activator.InstallResult) {
	for _, d := range result.Skipped {
		fmt.Fprintf(w, "%s skipped %s (%s)\n", WarningStyle.Render("warning:"), d.Entry, d.Kind)
	}
}
