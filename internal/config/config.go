// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"gpudrv-cli/internal/issue"
	"gpudrv-cli/pkg/platform"
)

const (
	// AppName is the application name.
	AppName = "gpudrv"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. GPUDRV_LOG_LEVEL.
	EnvPrefix = "GPUDRV"
)

//go:embed config_schema.cue
var configSchema string

// ResolveDataDir returns cfg.DataDir, or the platform data directory when unset.
func ResolveDataDir(cfg *Config) (string, error) {
	if cfg.DataDir != "" {
		return filepath.Clean(string(cfg.DataDir)), nil
	}
	return DefaultDataDir()
}

// ResolveAPILevel returns the configured API level, detecting it from the
// host when the configuration leaves it at zero.
func ResolveAPILevel(cfg *Config) int {
	if cfg.PlatformAPILevel.IsAuto() {
		return platform.DetectAPILevel()
	}
	return int(cfg.PlatformAPILevel)
}

// loadWithOptions performs option-driven config loading without mutating
// package-level state.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("storage_dir_name", defaults.StorageDirName)
	v.SetDefault("install_dir_name", defaults.InstallDirName)
	v.SetDefault("platform_api_level", defaults.PlatformAPILevel)
	v.SetDefault("native_library_dir", defaults.NativeLibraryDir)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		path := string(opts.ConfigFilePath)
		if !fileExists(path) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'gpudrv config show' to see the default configuration").
				Wrap(fmt.Errorf("config file not found: %s", path)).
				BuildError()
		}
		if err := loadCUEFile(v, path); err != nil {
			return nil, "", err
		}
		resolvedPath = path
	} else {
		cfgDir, err := configDirWithOverride(string(opts.ConfigDirPath))
		if err != nil {
			return nil, "", err
		}
		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(cuePath) {
			if err := loadCUEFile(v, cuePath); err != nil {
				return nil, "", err
			}
			resolvedPath = cuePath
		}
		// No config file means defaults plus environment.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	// Environment overrides bypass the CUE schema, so validate the result.
	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check the values set in the config file or GPUDRV_* environment variables").
			WithSuggestion("Run 'gpudrv config show' to inspect the effective configuration").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

func loadCUEFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err == nil {
		err = mergeCUEIntoViper(v, data, path)
	} else {
		err = fmt.Errorf("failed to read config file: %w", err)
	}
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Check that the file contains valid CUE syntax").
			WithSuggestion("Verify the configuration values match the expected schema").
			WithSuggestion("See 'gpudrv config --help' for configuration options").
			Wrap(err).
			BuildError()
	}
	return nil
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}
	return ConfigDir()
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// ConfigFilePath returns the path of the config file in the config directory.
//
//nolint:revive // mirrors ConfigDir
func ConfigFilePath() (string, error) {
	cfgDir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt), nil
}

// CreateDefaultConfig creates a default config file if it doesn't exist.
// It reports whether a file was written.
func CreateDefaultConfig() (bool, error) {
	cfgPath, err := ConfigFilePath()
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(cfgPath); err == nil {
		return false, nil
	}
	if err := Save(DefaultConfig()); err != nil {
		return false, err
	}
	return true, nil
}

// Save writes cfg to the config file.
func Save(cfg *Config) error {
	cfgPath, err := ConfigFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(cfg)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// gpudrv configuration file\n")
	sb.WriteString("// Environment variables prefixed with GPUDRV_ override these values.\n\n")

	if cfg.DataDir != "" {
		fmt.Fprintf(&sb, "data_dir: %q\n", cfg.DataDir)
	} else {
		sb.WriteString("// data_dir: \"/path/to/data\" (defaults to the platform data directory)\n")
	}
	fmt.Fprintf(&sb, "storage_dir_name: %q\n", cfg.StorageDirName)
	fmt.Fprintf(&sb, "install_dir_name: %q\n", cfg.InstallDirName)

	if cfg.PlatformAPILevel.IsAuto() {
		sb.WriteString("\n// 0 detects the API level from the host.\n")
	} else {
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "platform_api_level: %d\n", cfg.PlatformAPILevel)
	if cfg.NativeLibraryDir != "" {
		fmt.Fprintf(&sb, "native_library_dir: %q\n", cfg.NativeLibraryDir)
	}

	fmt.Fprintf(&sb, "\nlog_level: %q\n", cfg.LogLevel)

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
