package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/golang/snappy"
)

// compressedMagic distinguishes a compressed buffer from a raw one so a
// reader can "accept both" as spec.md §4.2/§6 requires.
const compressedMagic = 0x5836 // "X6"

// Compress wraps buf as a compressed variant when it exceeds threshold,
// storing the decompressed length in the header (spec.md §4.2:
// "buffers may be stored compressed under a header with decompressed
// length"). Buffers at or under threshold are returned unwrapped.
func Compress(buf []byte, threshold int) []byte {
	if len(buf) <= threshold {
		return buf
	}
	compressed := snappy.Encode(nil, buf)
	header := make([]byte, 2+binary.MaxVarintLen64)
	binary.LittleEndian.PutUint16(header[0:2], compressedMagic)
	n := binary.PutUvarint(header[2:], uint64(len(buf)))
	return append(header[:2+n], compressed...)
}

// Decompress accepts either a compressed or a raw buffer and returns the
// raw bytes, per spec.md §4.2 "readers accept both".
func Decompress(buf []byte) ([]byte, error) {
	if len(buf) < 2 || binary.LittleEndian.Uint16(buf[0:2]) != compressedMagic {
		return buf, nil
	}
	rest := buf[2:]
	decompLen, n := binary.Uvarint(rest)
	if n <= 0 {
		return nil, fmt.Errorf("wire: malformed compression header")
	}
	payload := rest[n:]
	out := make([]byte, 0, decompLen)
	decoded, err := snappy.Decode(out, payload)
	if err != nil {
		return nil, fmt.Errorf("wire: snappy decode failed: %w", err)
	}
	return decoded, nil
}
