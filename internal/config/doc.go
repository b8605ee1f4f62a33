// SPDX-License-Identifier: MPL-2.0

// Package config handles gpudrv configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/gpudrv/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/gpudrv/config.cue on macOS, %APPDATA%\gpudrv\config.cue
// on Windows). It locates the driver data directory and names the storage and install
// directories beneath it, pins or auto-detects the platform API level, and sets logging.
// GPUDRV_* environment variables override file values.
//
// Files are validated against an embedded CUE schema (config_schema.cue).
package config
