// SPDX-License-Identifier: MPL-2.0

package platform

// runtime.GOOS values that change where gpudrv keeps its files.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)
