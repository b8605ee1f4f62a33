// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the gpudrv command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gpudrv",
		Short: "Manage replacement GPU driver packages for the emulator",
		Long: TitleStyle.Render("gpudrv") + SubtitleStyle.Render(" - GPU driver package manager") + `

gpudrv stores driver packages (ZIP archives with a meta.json descriptor and
a native library), extracts the selected one into an isolated install
directory, and publishes the library path for the emulator to load.

` + SubtitleStyle.Render("Examples:") + `
  gpudrv install ./turnip.zip    Store and activate a driver package
  gpudrv list                    List stored packages and the active one
  gpudrv use system              Switch back to the system driver
  gpudrv status --path           Print the active library path`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.configFile, "config", "", "config file (default is $HOME/.config/gpudrv/config.cue)")

	rootCmd.AddCommand(
		newListCommand(app),
		newInstallCommand(app),
		newUseCommand(app),
		newResetCommand(app),
		newDeleteCommand(app),
		newInspectCommand(app),
		newStatusCommand(app),
		newConfigCommand(app),
	)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	rootCmd := NewRootCommand(NewApp(Dependencies{}))
	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}
