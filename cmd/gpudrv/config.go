// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gpudrv-cli/internal/config"
)

// newConfigCommand creates the `gpudrv config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage gpudrv configuration",
		Long: `Manage gpudrv configuration.

Configuration is stored in:
  - Linux: ~/.config/gpudrv/config.cue
  - macOS: ~/Library/Application Support/gpudrv/config.cue
  - Windows: %APPDATA%\gpudrv\config.cue

Environment variables prefixed with GPUDRV_ override file values,
e.g. GPUDRV_LOG_LEVEL=debug or GPUDRV_PLATFORM_API_LEVEL=34.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(showConfig(cmd, app))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(showConfigPath(app))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(initConfig(app))
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(cmd *cobra.Command, app *App) error {
	cfg, path, err := app.loadConfig(cmd.Context())
	if err != nil {
		return err
	}
	dataDir, err := config.ResolveDataDir(cfg)
	if err != nil {
		return err
	}

	w := app.stdout
	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if path != "" {
		printField(w, "config file", path)
	} else {
		printField(w, "config file", SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Fprintln(w)

	printField(w, "data_dir", dataDir)
	printField(w, "storage", string(cfg.StorageDirName))
	printField(w, "install", string(cfg.InstallDirName))
	apiLevel := strconv.Itoa(int(cfg.PlatformAPILevel))
	if cfg.PlatformAPILevel.IsAuto() {
		apiLevel = fmt.Sprintf("auto (%d)", config.ResolveAPILevel(cfg))
	}
	printField(w, "api level", apiLevel)
	printField(w, "native lib", orNone(cfg.NativeLibraryDir))
	printField(w, "log_level", cfg.LogLevel.String())
	printField(w, "verbose", strconv.FormatBool(cfg.UI.Verbose))
	return nil
}

func showConfigPath(app *App) error {
	if app.configFile != "" {
		fmt.Fprintln(app.stdout, app.configFile)
		return nil
	}
	path, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	fmt.Fprintln(app.stdout, path)
	return nil
}

func initConfig(app *App) error {
	path, err := config.ConfigFilePath()
	if err != nil {
		return err
	}
	created, err := config.CreateDefaultConfig()
	if err != nil {
		return err
	}
	if !created {
		fmt.Fprintf(app.stdout, "%s %s\n", WarningStyle.Render("Config file already exists:"), path)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("Created config file:"), path)
	return nil
}
