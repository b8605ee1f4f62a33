// SPDX-License-Identifier: MPL-2.0

// Package registry enumerates the driver archives held in the storage
// directory and deletes them on request.
//
// The catalog is rebuilt from disk on every call; nothing is cached. Only
// archives whose embedded descriptor is valid are listed.
package registry
