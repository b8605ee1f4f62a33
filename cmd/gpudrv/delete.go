// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"gpudrv-cli/internal/issue"
	"gpudrv-cli/internal/registry"
)

func newDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <name|path>",
		Aliases: []string{"rm"},
		Short:   "Delete a stored driver package",
		Long: `Delete a stored driver package.

Deleting the active package switches back to the system driver.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(runDelete(cmd, app, args[0]))
		},
	}
}

func runDelete(cmd *cobra.Command, app *App, ref string) error {
	if isSystemRef(ref) {
		return issue.NewErrorContext().
			WithOperation("delete driver package").
			WithResource(ref).
			WithSuggestion("The system driver cannot be deleted; use 'gpudrv reset' to switch to it").
			Wrap(registry.ErrNotFound).
			BuildError()
	}

	s, err := app.openSession(cmd.Context())
	if err != nil {
		return err
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

	wasActive, err := s.activator.Remove(pkg.Path)
	if err != nil {
		return issue.WrapWithContext(err, "delete driver package", pkg.Path)
	}

	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("Deleted"), TitleStyle.Render(pkg.Name))
	if wasActive {
		if err := s.syncNativeLibraryDir(); err != nil {
			return err
		}
		fmt.Fprintf(app.stdout, "  %s\n", SubtitleStyle.Render("it was active; switched to "+registry.SystemDriverName))
	}
	return nil
}
