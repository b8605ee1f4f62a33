// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gpudrv-cli/internal/registry"
)

func newStatusCommand(app *App) *cobra.Command {
	var pathOnly bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the published driver state",
		Long: `Show the published driver state.

With --path only the active library path is printed, or an empty line when
the system driver is active, so launch scripts can read it directly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(runStatus(cmd, app, pathOnly))
		},
	}
	cmd.Flags().BoolVar(&pathOnly, "path", false, "print only the active library path")
	return cmd
}

func runStatus(cmd *cobra.Command, app *App, pathOnly bool) error {
	s, err := app.openSession(cmd.Context())
	if err != nil {
		return err
	}
	st := s.activator.Status()

	if pathOnly {
		fmt.Fprintln(app.stdout, st.ActiveLibraryPath)
		return nil
	}

	active := registry.SystemDriverName
	if st.ActiveLibraryPath != "" {
		active = st.ActiveLibraryPath
	}
	w := app.stdout
	fmt.Fprintln(w, TitleStyle.Render("Driver status"))
	printField(w, "active", active)
	printField(w, "native lib", orNone(st.NativeLibraryDir))
	printField(w, "api level", strconv.Itoa(st.APILevel))
	printField(w, "storage", st.StorageDir)
	printField(w, "install", st.InstallDir)
	printField(w, "state file", s.state.Path())
	if updated := s.state.Snapshot().UpdatedAt; !updated.IsZero() {
		printField(w, "updated", updated.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
