// SPDX-License-Identifier: MPL-2.0

package platform

import "testing"

func TestIsReservedName(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]bool{
		"CON":      true,
		"con":      true,
		"nul.zip":  true,
		"LPT9.tar": true,
		"COM10":    false,
		"console":  false,
		"drivers":  false,
		".con":     false,
		"":         false,
		" aux ":    true,
	} {
		if got := IsReservedName(name); got != want {
			t.Errorf("IsReservedName(%q) = %v, want %v", name, got, want)
		}
	}
}
