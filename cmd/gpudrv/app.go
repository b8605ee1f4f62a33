// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"gpudrv-cli/internal/activator"
	"gpudrv-cli/internal/config"
	"gpudrv-cli/internal/issue"
	"gpudrv-cli/internal/registry"
	"gpudrv-cli/internal/source"
	"gpudrv-cli/internal/state"
	"gpudrv-cli/pkg/types"
)

type (
	// ConfigProvider loads configuration using explicit options and reports
	// which file was read.
	ConfigProvider interface {
		LoadWithPath(ctx context.Context, opts config.LoadOptions) (*config.Config, string, error)
	}

	// App wires CLI services and shared dependencies. All Cobra command
	// handlers receive an App reference.
	App struct {
		Config     ConfigProvider
		urlOptions []source.URLOption
		stdout     io.Writer
		stderr     io.Writer

		// Global flag targets.
		verbose    bool
		configFile string
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// URLOptions are appended to the defaults of every URL source.
		URLOptions []source.URLOption
		Stdout     io.Writer
		Stderr     io.Writer
	}

	// session is the per-command wiring of configuration, published state
	// and the lifecycle engine.
	session struct {
		cfg        *config.Config
		configPath string
		dataDir    string
		apiLevel   int
		logger     *log.Logger
		state      *state.Store
		activator  *activator.Activator
	}
)

// NewApp creates an App from deps.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	return &App{
		Config:     deps.Config,
		urlOptions: deps.URLOptions,
		stdout:     deps.Stdout,
		stderr:     deps.Stderr,
	}
}

func (a *App) loadOptions() (config.LoadOptions, error) {
	var opts config.LoadOptions
	if a.configFile != "" {
		abs, err := types.FilesystemPath(a.configFile).Abs()
		if err != nil {
			return opts, err
		}
		opts.ConfigFilePath = abs
	}
	return opts, nil
}

// loadConfig loads the configuration selected by the global flags.
func (a *App) loadConfig(ctx context.Context) (*config.Config, string, error) {
	opts, err := a.loadOptions()
	if err != nil {
		return nil, "", err
	}
	cfg, path, err := a.Config.LoadWithPath(ctx, opts)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// newLogger builds the structured logger for a loaded configuration.
// --verbose and ui.verbose force debug level.
func (a *App) newLogger(cfg *config.Config) *log.Logger {
	level, err := log.ParseLevel(cfg.LogLevel.String())
	if err != nil {
		level = log.InfoLevel
	}
	if a.verbose || cfg.UI.Verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
}

// openSession loads configuration and opens the state file under the data
// directory.
func (a *App) openSession(ctx context.Context) (*session, error) {
	cfg, cfgPath, err := a.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	logger := a.newLogger(cfg)

	dataDir, err := config.ResolveDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to locate the data directory: %w", err)
	}
	if abs, absErr := filepath.Abs(dataDir); absErr == nil {
		dataDir = abs
	}

	store, err := state.Open(filepath.Join(dataDir, state.FileName))
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("read published driver state").
			WithResource(filepath.Join(dataDir, state.FileName)).
			WithSuggestion("Run 'gpudrv reset' to rewrite the state").
			WithIssue(issue.StateCorruptId).
			Wrap(err).
			BuildError()
	}

	storageDir := cfg.StorageDir(dataDir)
	apiLevel := config.ResolveAPILevel(cfg)
	act, err := activator.New(activator.Config{
		StorageDir: storageDir,
		InstallDir: cfg.InstallDir(dataDir),
		APILevel:   apiLevel,
		Registry:   registry.New(storageDir, logger),
		Sink:       store,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("session opened", "config", cfgPath, "dataDir", dataDir, "apiLevel", apiLevel)
	return &session{
		cfg:        cfg,
		configPath: cfgPath,
		dataDir:    dataDir,
		apiLevel:   apiLevel,
		logger:     logger,
		state:      store,
		activator:  act,
	}, nil
}

// resetStateIfCorrupt lets `gpudrv reset` recover from an unreadable state
// file by discarding it before the session opens.
func (a *App) resetStateIfCorrupt(ctx context.Context) error {
	cfg, _, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}
	dataDir, err := config.ResolveDataDir(cfg)
	if err != nil {
		return err
	}
	path := filepath.Join(dataDir, state.FileName)
	if _, err := state.Open(path); err == nil {
		return nil
	}
	a.newLogger(cfg).Warn("discarding unreadable state file", "path", path)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %w", state.ErrWrite, err)
	}
	return nil
}

// syncNativeLibraryDir publishes the configured native library directory
// when it differs from the published one.
func (s *session) syncNativeLibraryDir() error {
	if s.state.NativeLibraryDir() == s.cfg.NativeLibraryDir {
		return nil
	}
	return s.activator.SetNativeLibraryDir(s.cfg.NativeLibraryDir)
}

// sourceOptions returns the URL options for a fetch in this session.
func (a *App) sourceOptions(s *session) []source.URLOption {
	return append([]source.URLOption{source.WithLogger(s.logger)}, a.urlOptions...)
}
