// SPDX-License-Identifier: MPL-2.0

package drivermeta

import (
	"strings"
)

const (
	// DescriptorFileName is the file name of the descriptor inside a driver archive.
	DescriptorFileName = "meta.json"

	// UnknownDriverName is the display name used when a descriptor has no name.
	UnknownDriverName = "Unknown Driver"

	vulkanLabelPrefix = "Vulkan "
	driverLabelPrefix = "Driver v"
	infoSeparator     = " • "
)

// Descriptor is the normalized content of a driver package's meta.json.
// The zero value is the "all fields unset" descriptor returned for malformed input.
type Descriptor struct {
	name          string
	libraryName   string
	minAPI        int
	description   string
	version       string
	vulkanVersion string
	author        string
	vendor        string
}

// Name returns the driver name declared by the package.
func (d Descriptor) Name() string { return d.name }

// LibraryName returns the declared driver library file name.
func (d Descriptor) LibraryName() string { return d.libraryName }

// MinAPI returns the minimum platform API level required by the driver.
func (d Descriptor) MinAPI() int { return d.minAPI }

// Description returns the free-form package description.
func (d Descriptor) Description() string { return d.description }

// Version returns the driver version. A driverVersion key takes precedence over version.
func (d Descriptor) Version() string { return d.version }

// VulkanVersion returns the derived Vulkan API version, if any.
func (d Descriptor) VulkanVersion() string { return d.vulkanVersion }

// Author returns the package author.
func (d Descriptor) Author() string { return d.author }

// Vendor returns the GPU vendor the driver targets.
func (d Descriptor) Vendor() string { return d.vendor }

// IsValid reports whether the descriptor names both the driver and its library.
func (d Descriptor) IsValid() bool {
	return d.name != "" && d.libraryName != ""
}

// DisplayName returns the driver name, or UnknownDriverName when unset.
func (d Descriptor) DisplayName() string {
	if d.name != "" {
		return d.name
	}
	return UnknownDriverName
}

// VulkanLabel returns a short version label for listings: "Vulkan <version>"
// when a Vulkan version is known, "Driver v<version>" when only a driver
// version exists, and "" otherwise.
func (d Descriptor) VulkanLabel() string {
	vk := d.vulkanVersion
	if vk == "" && versionPattern.MatchString(d.version) {
		vk = d.version
	}
	switch {
	case vk != "":
		if strings.HasPrefix(vk, vulkanLabelPrefix) {
			return vk
		}
		return vulkanLabelPrefix + vk
	case d.version != "":
		return driverLabelPrefix + d.version
	default:
		return ""
	}
}

// InfoLine joins vendor and author for listings, skipping whichever is unset.
func (d Descriptor) InfoLine() string {
	parts := make([]string, 0, 2)
	if d.vendor != "" {
		parts = append(parts, d.vendor)
	}
	if d.author != "" {
		parts = append(parts, d.author)
	}
	return strings.Join(parts, infoSeparator)
}
