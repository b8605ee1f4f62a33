// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands for gpudrv.
//
// It implements the Cobra command hierarchy: listing, installing, activating,
// resetting, deleting and inspecting driver packages, reporting the published
// state, and managing configuration. App is the composition root; each
// command opens a session that wires configuration, the state file and the
// activator.
package cmd
