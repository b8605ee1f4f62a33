// SPDX-License-Identifier: MPL-2.0

package driverzip

import (
	"archive/zip"
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
)

const (
	localHeaderSignature    = 0x04034b50
	centralHeaderSignature  = 0x02014b50
	endOfDirectorySignature = 0x06054b50
	dataDescriptorSignature = 0x08074b50

	localHeaderLen   = 26 // fixed part following the signature
	flagDataDesc     = 0x8
	zip64ExtraID     = 0x0001
	uint32Overflow   = 0xffffffff
	streamBufferSize = 32 * 1024
)

var (
	errStreamFormat       = errors.New("not a valid zip stream")
	errUnsupportedMethod  = errors.New("unsupported compression method")
	errUnsizedStoredEntry = errors.New("stored entry with trailing data descriptor cannot be streamed")
)

type (
	// entryVisitor is called once per local entry. body yields the
	// decompressed content and is drained by walkStream afterwards.
	entryVisitor func(name string, isDir bool, body io.Reader) error

	localHeader struct {
		flags          uint16
		method         uint16
		compressedSize uint64
		zip64          bool
	}
)

// walkStream iterates the local file headers of a ZIP stream in order until
// the central directory is reached. It never seeks.
func walkStream(r io.Reader, visit entryVisitor) error {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, streamBufferSize)
	}

	for first := true; ; first = false {
		var sig uint32
		if err := binary.Read(br, binary.LittleEndian, &sig); err != nil {
			if errors.Is(err, io.EOF) && !first {
				return nil
			}
			return fmt.Errorf("%w: %w", errStreamFormat, err)
		}
		switch sig {
		case localHeaderSignature:
		case centralHeaderSignature, endOfDirectorySignature:
			return nil
		default:
			return fmt.Errorf("%w: unexpected signature 0x%08x", errStreamFormat, sig)
		}

		name, hdr, err := readLocalHeader(br)
		if err != nil {
			return err
		}
		if err := visitEntry(br, name, hdr, visit); err != nil {
			return err
		}
	}
}

func readLocalHeader(br *bufio.Reader) (string, localHeader, error) {
	var fixed [localHeaderLen]byte
	if _, err := io.ReadFull(br, fixed[:]); err != nil {
		return "", localHeader{}, fmt.Errorf("%w: truncated header: %w", errStreamFormat, err)
	}

	le := binary.LittleEndian
	hdr := localHeader{
		flags:          le.Uint16(fixed[2:4]),
		method:         le.Uint16(fixed[4:6]),
		compressedSize: uint64(le.Uint32(fixed[14:18])),
	}
	uncompressed := le.Uint32(fixed[18:22])
	nameLen := int(le.Uint16(fixed[22:24]))
	extraLen := int(le.Uint16(fixed[24:26]))

	buf := make([]byte, nameLen+extraLen)
	if _, err := io.ReadFull(br, buf); err != nil {
		return "", localHeader{}, fmt.Errorf("%w: truncated header: %w", errStreamFormat, err)
	}
	name := string(buf[:nameLen])

	if hdr.compressedSize == uint32Overflow || uncompressed == uint32Overflow {
		if size, ok := zip64CompressedSize(buf[nameLen:]); ok {
			hdr.compressedSize = size
			hdr.zip64 = true
		}
	}
	return name, hdr, nil
}

// zip64CompressedSize extracts the compressed size from a local zip64 extra
// field, which always carries the uncompressed size first.
func zip64CompressedSize(extra []byte) (uint64, bool) {
	le := binary.LittleEndian
	for len(extra) >= 4 {
		id := le.Uint16(extra[0:2])
		size := int(le.Uint16(extra[2:4]))
		extra = extra[4:]
		if size > len(extra) {
			return 0, false
		}
		if id == zip64ExtraID && size >= 16 {
			return le.Uint64(extra[8:16]), true
		}
		extra = extra[size:]
	}
	return 0, false
}

func visitEntry(br *bufio.Reader, name string, hdr localHeader, visit entryVisitor) error {
	hasDescriptor := hdr.flags&flagDataDesc != 0

	var (
		raw  io.Reader
		body io.Reader
		inf  io.ReadCloser
	)
	switch {
	case hdr.method == zip.Store && hasDescriptor:
		return fmt.Errorf("%s: %w", name, errUnsizedStoredEntry)
	case hdr.method == zip.Store:
		raw = io.LimitReader(br, int64(hdr.compressedSize))
		body = raw
	case hdr.method == zip.Deflate && hasDescriptor:
		// br is an io.ByteReader, so the inflater stops exactly at the end of the stream.
		inf = flate.NewReader(br)
		body = inf
	case hdr.method == zip.Deflate:
		raw = io.LimitReader(br, int64(hdr.compressedSize))
		inf = flate.NewReader(raw)
		body = inf
	case hasDescriptor:
		return fmt.Errorf("%s: %w %d", name, errUnsupportedMethod, hdr.method)
	default:
		// Unknown method with a known size: skip the payload.
		raw = io.LimitReader(br, int64(hdr.compressedSize))
		body = strings.NewReader("")
	}

	visitErr := visit(name, strings.HasSuffix(name, "/"), body)
	if visitErr != nil {
		return visitErr
	}

	if _, err := io.Copy(io.Discard, body); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if inf != nil {
		_ = inf.Close() // inflater close only releases buffers
	}
	if raw != nil {
		if _, err := io.Copy(io.Discard, raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if hasDescriptor {
		return skipDataDescriptor(br, hdr.zip64)
	}
	return nil
}

// skipDataDescriptor consumes the optional-signature data descriptor that
// follows an entry written with flag bit 3.
func skipDataDescriptor(br *bufio.Reader, zip64 bool) error {
	peek, err := br.Peek(4)
	if err != nil {
		return fmt.Errorf("%w: truncated data descriptor: %w", errStreamFormat, err)
	}
	if binary.LittleEndian.Uint32(peek) == dataDescriptorSignature {
		if _, err := br.Discard(4); err != nil {
			return err
		}
	}

	size := 12 // crc32 + two 32-bit sizes
	if zip64 {
		size = 20
	}
	if _, err := br.Discard(size); err != nil {
		return fmt.Errorf("%w: truncated data descriptor: %w", errStreamFormat, err)
	}
	return nil
}
