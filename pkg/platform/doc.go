// SPDX-License-Identifier: MPL-2.0

// Package platform provides host platform facts the driver manager depends on:
// OS name constants and the platform API level that driver packages declare
// as their minimum requirement.
package platform
