// SPDX-License-Identifier: MPL-2.0

package platform

import "strings"

// reservedNames cannot be used as a file or directory name on Windows,
// whatever the extension.
var reservedNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true,
	"COM5": true, "COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true,
	"LPT5": true, "LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// IsReservedName reports whether name, ignoring case and any extension,
// is a Windows device name. Directory names under the data directory are
// checked on every OS so a config file stays portable.
func IsReservedName(name string) bool {
	stem := strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(stem, '.'); i != -1 {
		stem = stem[:i]
	}
	return reservedNames[stem]
}
