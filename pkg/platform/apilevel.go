// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"bufio"
	"bytes"
	"os"
	"strconv"
	"strings"
	"sync"
)

const (
	// FallbackAPILevel is reported when the host exposes no API level.
	// It corresponds to Android 13, the oldest release current driver builds target.
	FallbackAPILevel = 33

	buildPropPath = "/system/build.prop"
	sdkPropKey    = "ro.build.version.sdk"
	sdkEnvKey     = "ANDROID_SDK_VERSION"
)

// detectAPILevelOnce caches the detected level for the lifetime of the process.
// The API level cannot change while the process runs.
var detectAPILevelOnce = sync.OnceValue(func() int {
	return detectAPILevelFrom(os.Getenv, os.ReadFile)
})

// DetectAPILevel returns the platform API level of the host.
//
// Detection order:
//   - ANDROID_SDK_VERSION environment variable
//   - ro.build.version.sdk in /system/build.prop
//   - FallbackAPILevel
func DetectAPILevel() int {
	return detectAPILevelOnce()
}

// detectAPILevelFrom performs detection with injected lookups so tests do not
// depend on the host filesystem.
func detectAPILevelFrom(lookupEnv func(string) string, readFile func(string) ([]byte, error)) int {
	if level, ok := parseLevel(lookupEnv(sdkEnvKey)); ok {
		return level
	}

	data, err := readFile(buildPropPath)
	if err != nil {
		return FallbackAPILevel
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), "=")
		if !found || strings.TrimSpace(key) != sdkPropKey {
			continue
		}
		if level, ok := parseLevel(value); ok {
			return level
		}
	}
	return FallbackAPILevel
}

func parseLevel(s string) (int, bool) {
	level, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || level <= 0 {
		return 0, false
	}
	return level, true
}
