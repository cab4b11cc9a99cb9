package hapi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/samcharles93/hapi/internal/logger"
)

// Header is the plaintext preamble of an archive.
type Header struct {
	Magic      [4]byte
	Marker     [4]byte
	TOCSize    uint32 // size of the table of contents, header included
	CipherSeed uint32 // 0 for plaintext archives
	TOCOffset  uint32 // root directory block; also where the cipher starts
}

// Key returns the derived stream key and whether the archive is enciphered.
func (h Header) Key() (uint32, bool) {
	return DeriveKey(h.CipherSeed)
}

// Enciphered reports whether bytes past TOCOffset are enciphered.
func (h Header) Enciphered() bool {
	return h.CipherSeed != 0
}

// readHeader decodes and validates the 20-byte header at the current position.
func readHeader(r io.Reader, log logger.Logger) (Header, error) {
	var buf [headerSize]byte
	n, err := io.ReadFull(r, buf[:])
	if n < len(Magic) || string(buf[:len(Magic)]) != Magic {
		return Header{}, fmt.Errorf("%w: bad magic %q", ErrFormat, buf[:min(n, len(Magic))])
	}
	if err != nil {
		return Header{}, truncated(err, "read header")
	}

	var h Header
	if err := binary.Read(bytes.NewReader(buf[:]), binary.LittleEndian, &h); err != nil {
		return Header{}, truncated(err, "decode header")
	}

	switch h.Marker {
	case MarkerArchive:
	case MarkerSave:
		return Header{}, fmt.Errorf("%w: save data (%q) is not supported", ErrUnsupportedVariant, h.Marker[:])
	default:
		log.Warn("unknown header marker, proceeding anyway",
			"marker", fmt.Sprintf("%x", h.Marker[:]))
	}

	return h, nil
}
