// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"gpudrv-cli/internal/issue"
	"gpudrv-cli/internal/registry"
)

// systemRef selects the default driver in `gpudrv use`.
const systemRef = "system"

func newUseCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name|path|system>",
		Short: "Activate a stored driver package, or the system driver",
		Long: `Activate a stored driver package, or the system driver.

The package may be named by its display name (case-insensitive), its
archive file name, or its path. "system" switches back to the driver
provided by the device.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(runUse(cmd, app, args[0]))
		},
	}
}

func newResetCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the install directory and switch to the system driver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.resetStateIfCorrupt(cmd.Context()); err != nil {
				return app.fail(err)
			}
			return app.fail(runUse(cmd, app, systemRef))
		},
	}
}

func isSystemRef(ref string) bool {
	return strings.EqualFold(ref, systemRef) || strings.EqualFold(ref, registry.SystemDriverName)
}

func runUse(cmd *cobra.Command, app *App, ref string) error {
	s, err := app.openSession(cmd.Context())
	if err != nil {
		return err
	}

	if isSystemRef(ref) {
		if err := s.activator.InstallDefault(); err != nil {
			return err
		}
		if err := s.syncNativeLibraryDir(); err != nil {
			return err
		}
		fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("Using"), TitleStyle.Render(registry.SystemDriverName))
		return nil
	}

	pkg, err := s.activator.Registry().Lookup(ref)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("find driver package").
			WithResource(ref).
			WithSuggestion("Run 'gpudrv list' to see the stored packages").
			Wrap(err).
			BuildError()
	}

	result, err := s.activator.InstallFromArchive(pkg.Path)
	if result != nil {
		reportSkipped(app.stderr, result)
	}
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("activate driver package").
			WithResource(pkg.Path).
			WithSuggestion("The system driver is active until another package is activated").
			Wrap(err).
			BuildError()
	}
	if err := s.syncNativeLibraryDir(); err != nil {
		return err
	}

	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("Using"), TitleStyle.Render(pkg.Name))
	fmt.Fprintf(app.stdout, "  %s %s\n", SubtitleStyle.Render("library:"), KeyStyle.Render(result.LibraryPath))
	return nil
}
