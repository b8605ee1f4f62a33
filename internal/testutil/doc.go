// SPDX-License-Identifier: MPL-2.0

// Package testutil holds test fixtures for driver packages: in-memory ZIP
// archives (ZipBytes, WriteZip, DriverArchive), meta.json documents
// (Descriptor), fail-fast file helpers and a manual Clock.
package testutil
