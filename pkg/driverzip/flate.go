// SPDX-License-Identifier: MPL-2.0

package driverzip

import (
	"archive/zip"
	"io"

	"github.com/klauspost/compress/flate"
)

// flateDecompressor replaces the standard library inflater on every
// zip.Reader this package opens.
func flateDecompressor(r io.Reader) io.ReadCloser {
	return flate.NewReader(r)
}

func registerDecompressor(zr *zip.Reader) {
	zr.RegisterDecompressor(zip.Deflate, flateDecompressor)
}
