// Package hapi reads HAPI archives, the container format used by Total
// Annihilation and its expansions (.hpi, .ufo, .ccx, .gp3).
//
// An archive is a 20-byte plaintext header followed by an enciphered table of
// contents: a tree of directory blocks linked by absolute file offsets. File
// payloads are either stored verbatim or split into 64 KiB chunks, each
// compressed with a small LZ77 variant or with zlib and optionally enciphered
// a second time.
//
// Reading is synchronous. An *Archive owns a single read cursor and serialises
// access to it, so it is safe to share between goroutines but calls do not run
// in parallel. Open the file again for independent, parallel reads.
//
// Writing archives and the "BANK" save-game variant are not supported.
package hapi

import "fmt"

// Format constants. These never change.
const (
	// Magic opens every archive.
	Magic = "HAPI"

	// ChunkMagic opens every compressed chunk.
	ChunkMagic = "SQSH"

	// ChunkSize is the maximum number of decompressed bytes in one chunk.
	ChunkSize = 65536

	headerSize      = 20
	chunkHeaderSize = 19
	indexRecordSize = 9
)

var (
	// MarkerArchive identifies a regular game archive.
	MarkerArchive = [4]byte{0x00, 0x00, 0x01, 0x00}

	// MarkerSave identifies a saved game, which this package rejects.
	MarkerSave = [4]byte{'B', 'A', 'N', 'K'}
)

// Compression identifies how a file or chunk payload is stored.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ77 Compression = 1
	CompressionZlib Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ77:
		return "lz77"
	case CompressionZlib:
		return "zlib"
	}
	return fmt.Sprintf("compression(%d)", uint8(c))
}

// Valid reports whether c is one of the known compression kinds.
func (c Compression) Valid() bool {
	return c <= CompressionZlib
}
