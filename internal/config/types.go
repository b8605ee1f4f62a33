// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gpudrv-cli/pkg/platform"
)

const (
	// LogLevelDebug logs every lifecycle step and skipped candidate.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs state transitions.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs only recoverable problems.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs only failures.
	LogLevelError LogLevel = "error"

	// maxAPILevel bounds platform_api_level to catch typos.
	maxAPILevel APILevel = 1000
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidDirName is returned when a DirName is not a single path element.
	ErrInvalidDirName = errors.New("invalid directory name")
	// ErrInvalidAPILevel is returned when an APILevel is out of range.
	ErrInvalidAPILevel = errors.New("invalid platform API level")
	// ErrInvalidDataDir is returned when a DataDirPath is whitespace-only.
	ErrInvalidDataDir = errors.New("invalid data directory")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum severity written to the log.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// DirName is a single directory name placed under the data directory.
	DirName string

	// InvalidDirNameError is returned when a DirName is empty, contains a
	// separator, or is a dot entry.
	InvalidDirNameError struct {
		Value DirName
	}

	// APILevel is a platform API level. The zero value means auto-detect.
	APILevel int

	// InvalidAPILevelError is returned when an APILevel is negative or
	// implausibly large.
	InvalidAPILevelError struct {
		Value APILevel
	}

	// DataDirPath is the root of the managed data.
	// The zero value ("") selects the platform data directory.
	DataDirPath string

	// InvalidDataDirError is returned when a DataDirPath is non-empty but
	// whitespace-only.
	InvalidDataDirError struct {
		Value DataDirPath
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// DataDir is the root of the managed data.
		DataDir DataDirPath `json:"data_dir" mapstructure:"data_dir"`
		// StorageDirName names the archive storage directory under DataDir.
		StorageDirName DirName `json:"storage_dir_name" mapstructure:"storage_dir_name"`
		// InstallDirName names the install directory under DataDir.
		InstallDirName DirName `json:"install_dir_name" mapstructure:"install_dir_name"`
		// PlatformAPILevel overrides the detected platform API level.
		PlatformAPILevel APILevel `json:"platform_api_level" mapstructure:"platform_api_level"`
		// NativeLibraryDir is published as the native library search override.
		NativeLibraryDir string `json:"native_library_dir" mapstructure:"native_library_dir"`
		// LogLevel sets the minimum log severity
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StorageDirName: "gpu_drivers",
		InstallDirName: "gpu_driver",
		LogLevel:       LogLevelInfo,
	}
}

// StorageDir returns the archive storage directory under dataDir.
func (c Config) StorageDir(dataDir string) string {
	return filepath.Join(dataDir, string(c.StorageDirName))
}

// InstallDir returns the install directory under dataDir.
func (c Config) InstallDir(dataDir string) string {
	return filepath.Join(dataDir, string(c.InstallDirName))
}

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for _, check := range []func() (bool, []error){
		c.DataDir.IsValid,
		c.StorageDirName.IsValid,
		c.InstallDirName.IsValid,
		c.PlatformAPILevel.IsValid,
		c.LogLevel.IsValid,
	} {
		if valid, fieldErrs := check(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if c.StorageDirName != "" && c.StorageDirName == c.InstallDirName {
		errs = append(errs, fmt.Errorf("%w: storage_dir_name and install_dir_name must differ", ErrInvalidDirName))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string { return string(l) }

// IsValid returns whether the LogLevel is one of the defined levels.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// String returns the string representation of the DirName.
func (n DirName) String() string { return string(n) }

// IsValid returns whether the DirName is a single, non-dot path element
// that is not a Windows device name.
func (n DirName) IsValid() (bool, []error) {
	s := string(n)
	if strings.TrimSpace(s) == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) || platform.IsReservedName(s) {
		return false, []error{&InvalidDirNameError{Value: n}}
	}
	return true, nil
}

// Error implements the error interface for InvalidDirNameError.
func (e *InvalidDirNameError) Error() string {
	return fmt.Sprintf("invalid directory name %q: must be a single, portable path element", e.Value)
}

// Unwrap returns ErrInvalidDirName for errors.Is() compatibility.
func (e *InvalidDirNameError) Unwrap() error { return ErrInvalidDirName }

// IsAuto reports whether the level should be detected from the platform.
func (l APILevel) IsAuto() bool { return l == 0 }

// IsValid returns whether the APILevel is within range.
func (l APILevel) IsValid() (bool, []error) {
	if l < 0 || l > maxAPILevel {
		return false, []error{&InvalidAPILevelError{Value: l}}
	}
	return true, nil
}

// Error implements the error interface for InvalidAPILevelError.
func (e *InvalidAPILevelError) Error() string {
	return fmt.Sprintf("invalid platform API level %d (must be in range 0-%d)", e.Value, maxAPILevel)
}

// Unwrap returns ErrInvalidAPILevel for errors.Is() compatibility.
func (e *InvalidAPILevelError) Unwrap() error { return ErrInvalidAPILevel }

// String returns the string representation of the DataDirPath.
func (p DataDirPath) String() string { return string(p) }

// IsValid returns whether the DataDirPath is valid.
// The zero value ("") is valid (means "use the platform data directory").
func (p DataDirPath) IsValid() (bool, []error) {
	if p != "" && strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidDataDirError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidDataDirError.
func (e *InvalidDataDirError) Error() string {
	return fmt.Sprintf("invalid data directory %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidDataDir for errors.Is() compatibility.
func (e *InvalidDataDirError) Unwrap() error { return ErrInvalidDataDir }
