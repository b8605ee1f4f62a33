// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"gpudrv-cli/internal/issue"
	"gpudrv-cli/internal/testutil"
	"gpudrv-cli/pkg/platform"
	"gpudrv-cli/pkg/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), []byte(content))
	return dir
}

func load(t *testing.T, opts LoadOptions) (*Config, string, error) {
	t.Helper()
	return NewProvider().LoadWithPath(context.Background(), opts)
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.StorageDirName != "gpu_drivers" || cfg.InstallDirName != "gpu_driver" {
		t.Errorf("directory names = %q, %q", cfg.StorageDirName, cfg.InstallDirName)
	}
	if !cfg.PlatformAPILevel.IsAuto() {
		t.Errorf("PlatformAPILevel = %d, want auto", cfg.PlatformAPILevel)
	}
	if cfg.LogLevel != LogLevelInfo {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.UI.Verbose {
		t.Error("expected default verbose to be false")
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("DefaultConfig().IsValid() = %v", errs)
	}
}

func TestConfig_Dirs(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	data := filepath.Join("srv", "gpudrv")
	if got, want := cfg.StorageDir(data), filepath.Join(data, "gpu_drivers"); got != want {
		t.Errorf("StorageDir() = %q, want %q", got, want)
	}
	if got, want := cfg.InstallDir(data), filepath.Join(data, "gpu_driver"); got != want {
		t.Errorf("InstallDir() = %q, want %q", got, want)
	}
}

//nolint:paralleltest // mutates XDG_CONFIG_HOME
func TestConfigDir(t *testing.T) {
	if runtime.GOOS != platform.Linux {
		t.Skip("XDG layout applies to Linux")
	}
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error = %v", err)
	}
	if want := filepath.Join(base, AppName); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}
}

//nolint:paralleltest // mutates XDG_DATA_HOME
func TestDefaultDataDir(t *testing.T) {
	if runtime.GOOS != platform.Linux {
		t.Skip("XDG layout applies to Linux")
	}
	base := t.TempDir()
	t.Setenv("XDG_DATA_HOME", base)

	dir, err := DefaultDataDir()
	if err != nil {
		t.Fatalf("DefaultDataDir() error = %v", err)
	}
	if want := filepath.Join(base, AppName); dir != want {
		t.Errorf("DefaultDataDir() = %q, want %q", dir, want)
	}
}

//nolint:paralleltest // mutates package-level overrides
func TestOverridesAndReset(t *testing.T) {
	t.Cleanup(Reset)

	cfgDir, dataDir := t.TempDir(), t.TempDir()
	SetConfigDirOverride(cfgDir)
	SetDataDirOverride(dataDir)

	if got, _ := ConfigDir(); got != cfgDir {
		t.Errorf("ConfigDir() = %q, want override %q", got, cfgDir)
	}
	if got, _ := ResolveDataDir(DefaultConfig()); got != dataDir {
		t.Errorf("ResolveDataDir() = %q, want override %q", got, dataDir)
	}

	explicit := DefaultConfig()
	explicit.DataDir = DataDirPath(filepath.Join(dataDir, "x", ".."))
	if got, _ := ResolveDataDir(explicit); got != dataDir {
		t.Errorf("ResolveDataDir() = %q, want cleaned %q", got, dataDir)
	}

	Reset()
	if configDirOverride != "" || dataDirOverride != "" {
		t.Error("Reset() should clear overrides")
	}
}

func TestResolveAPILevel(t *testing.T) {
	t.Parallel()

	pinned := DefaultConfig()
	pinned.PlatformAPILevel = 30
	if got := ResolveAPILevel(pinned); got != 30 {
		t.Errorf("ResolveAPILevel(pinned) = %d, want 30", got)
	}
	if got := ResolveAPILevel(DefaultConfig()); got != platform.DetectAPILevel() {
		t.Errorf("ResolveAPILevel(auto) = %d, want detected %d", got, platform.DetectAPILevel())
	}
}

//nolint:paralleltest // clears GPUDRV_* variables
func TestLoad_DefaultsWhenNoConfigFile(t *testing.T) {
	clearEnv(t)

	cfg, path, err := load(t, LoadOptions{ConfigDirPath: types.FilesystemPath(t.TempDir())})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want none", path)
	}
	if *cfg != *DefaultConfig() {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, DefaultConfig())
	}
}

//nolint:paralleltest // clears GPUDRV_* variables
func TestLoad_FromConfigDir(t *testing.T) {
	clearEnv(t)

	dir := writeConfig(t, `
data_dir: "/srv/gpudrv"
storage_dir_name: "packages"
platform_api_level: 34
native_library_dir: "/vendor/lib64"
log_level: "debug"
ui: verbose: true
`)

	cfg, path, err := load(t, LoadOptions{ConfigDirPath: types.FilesystemPath(dir)})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := filepath.Join(dir, "config.cue"); path != want {
		t.Errorf("resolved path = %q, want %q", path, want)
	}
	want := Config{
		DataDir:          "/srv/gpudrv",
		StorageDirName:   "packages",
		InstallDirName:   "gpu_driver",
		PlatformAPILevel: 34,
		NativeLibraryDir: "/vendor/lib64",
		LogLevel:         LogLevelDebug,
		UI:               UIConfig{Verbose: true},
	}
	if *cfg != want {
		t.Errorf("Load() = %+v, want %+v", *cfg, want)
	}
}

//nolint:paralleltest // mutates GPUDRV_* variables
func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	dir := writeConfig(t, `log_level: "warn"`+"\n"+`platform_api_level: 29`)
	t.Setenv("GPUDRV_LOG_LEVEL", "error")
	t.Setenv("GPUDRV_PLATFORM_API_LEVEL", "31")
	t.Setenv("GPUDRV_UI_VERBOSE", "true")

	cfg, _, err := load(t, LoadOptions{ConfigDirPath: types.FilesystemPath(dir)})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LogLevel != LogLevelError {
		t.Errorf("LogLevel = %q, want env override error", cfg.LogLevel)
	}
	if cfg.PlatformAPILevel != 31 {
		t.Errorf("PlatformAPILevel = %d, want env override 31", cfg.PlatformAPILevel)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose should be set from GPUDRV_UI_VERBOSE")
	}
}

//nolint:paralleltest // mutates GPUDRV_* variables
func TestLoad_InvalidEnvironmentValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("GPUDRV_STORAGE_DIR_NAME", "../escape")

	_, _, err := load(t, LoadOptions{ConfigDirPath: types.FilesystemPath(t.TempDir())})
	if !errors.Is(err, ErrInvalidDirName) {
		t.Fatalf("Load() error = %v, want ErrInvalidDirName", err)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Operation != "validate configuration" {
		t.Errorf("Load() error = %v, want an actionable validation error", err)
	}
}

//nolint:paralleltest // clears GPUDRV_* variables
func TestLoad_SchemaViolations(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"unknown field", `container_engine: "podman"`, "container_engine"},
		{"bad log level", `log_level: "trace"`, "log_level"},
		{"negative api level", `platform_api_level: -1`, "platform_api_level"},
		{"dir name with separator", `install_dir_name: "a/b"`, "install_dir_name"},
		{"dot dir name", `storage_dir_name: ".."`, "storage_dir_name"},
		{"wrong type", `ui: verbose: "yes"`, "verbose"},
		{"syntax error", `log_level: "info`, "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeConfig(t, tt.content)
			_, _, err := load(t, LoadOptions{ConfigDirPath: types.FilesystemPath(dir)})
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Load() error = %q, want mention of %q", err, tt.wantMsg)
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) || !ae.HasSuggestions() {
				t.Errorf("Load() error should be actionable with suggestions, got %T", err)
			}
		})
	}
}

//nolint:paralleltest // clears GPUDRV_* variables
func TestLoad_CustomPath(t *testing.T) {
	clearEnv(t)

	custom := filepath.Join(t.TempDir(), "custom.cue")
	testutil.MustWriteFile(t, custom, []byte(`install_dir_name: "active"`))

	cfg, path, err := load(t, LoadOptions{
		ConfigFilePath: types.FilesystemPath(custom),
		ConfigDirPath:  types.FilesystemPath(writeConfig(t, `install_dir_name: "ignored"`)),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != custom || cfg.InstallDirName != "active" {
		t.Errorf("Load() = (%q, %q), want custom file to win", cfg.InstallDirName, path)
	}

	_, _, err = load(t, LoadOptions{ConfigFilePath: types.FilesystemPath(filepath.Join(t.TempDir(), "missing.cue"))})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || !strings.Contains(ae.Error(), "config file not found") {
		t.Errorf("Load(missing) error = %v, want actionable not-found error", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoad_OversizedFile(t *testing.T) {
	t.Parallel()

	dir := writeConfig(t, "// "+strings.Repeat("x", maxConfigFileSize)+"\n")
	_, _, err := load(t, LoadOptions{ConfigDirPath: types.FilesystemPath(dir)})
	if err == nil || !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("Load() error = %v, want size limit error", err)
	}
}

//nolint:paralleltest // mutates package-level overrides and GPUDRV_* variables
func TestSaveAndCreateDefault(t *testing.T) {
	clearEnv(t)
	t.Cleanup(Reset)
	dir := filepath.Join(t.TempDir(), "nested")
	SetConfigDirOverride(dir)

	created, err := CreateDefaultConfig()
	if err != nil || !created {
		t.Fatalf("CreateDefaultConfig() = %v, %v, want created", created, err)
	}
	created, err = CreateDefaultConfig()
	if err != nil || created {
		t.Fatalf("second CreateDefaultConfig() = %v, %v, want existing file kept", created, err)
	}

	cfg := DefaultConfig()
	cfg.DataDir = "/data/gpudrv"
	cfg.PlatformAPILevel = 35
	cfg.NativeLibraryDir = "/vendor/lib64"
	cfg.LogLevel = LogLevelWarn
	cfg.UI.Verbose = true
	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, path, err := load(t, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() after Save() error = %v", err)
	}
	if want := filepath.Join(dir, "config.cue"); path != want {
		t.Errorf("resolved path = %q, want %q", path, want)
	}
	if *loaded != *cfg {
		t.Errorf("Load() = %+v, want saved %+v", *loaded, *cfg)
	}
}

func TestGenerateCUE_ValidatesAgainstSchema(t *testing.T) {
	t.Parallel()

	for _, cfg := range []*Config{DefaultConfig(), {
		DataDir:          `C:\Users\me\gpudrv`,
		StorageDirName:   "archives",
		InstallDirName:   "active",
		PlatformAPILevel: 28,
		LogLevel:         LogLevelDebug,
	}} {
		out := GenerateCUE(cfg)
		if _, err := decodeCUE([]byte(out), "generated.cue"); err != nil {
			t.Errorf("GenerateCUE() output does not validate: %v\n%s", err, out)
		}
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, EnvPrefix+"_") {
			t.Setenv(key, "")
			if err := os.Unsetenv(key); err != nil {
				t.Fatal(err)
			}
		}
	}
}
