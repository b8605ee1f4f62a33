// SPDX-License-Identifier: MPL-2.0

// Package drivermeta parses the meta.json descriptor shipped inside a GPU
// driver package.
//
// Driver packages in the wild use several key spellings for the same field
// (library_name / libraryName, min_api / minApi, a handful of Vulkan version
// keys). Parse normalizes all of them into a single immutable Descriptor.
// Parsing never fails from the caller's point of view: malformed input yields
// a Descriptor with every field unset, and ParseWithDiagnostic reports why.
package drivermeta
