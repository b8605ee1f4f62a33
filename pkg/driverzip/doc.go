// SPDX-License-Identifier: MPL-2.0

// Package driverzip reads GPU driver packages: ZIP archives holding a native
// driver library and a meta.json descriptor.
//
// Scan, ScanFile and ScanStream locate and parse the descriptor without
// extracting the archive. Extract unpacks every payload entry into a
// destination directory and refuses to write outside of it; entries that
// would escape are skipped and reported, not treated as fatal. Extraction is
// not transactional: a failure part way through leaves the entries written
// so far in place.
package driverzip
