// SPDX-License-Identifier: MPL-2.0

package driverzip

import (
	"archive/zip"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Files returns the slash-separated names of the regular file entries in
// the archive at archivePath, in archive order. Entries Extract would skip
// for escaping the destination are omitted.
func Files(archivePath string) (names []string, err error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	err = nil
	defer func() {
		if closeErr := zr.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, file := range zr.File {
		if file.FileInfo().IsDir() {
			continue
		}
		name := path.Clean(strings.TrimPrefix(file.Name, "/"))
		if name == "." || name == ".." || strings.HasPrefix(name, "../") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
