package hapi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/samcharles93/hapi/internal/logger"
)

type chunkHeader struct {
	Magic            [4]byte
	Version          uint8 // unused by every known archive
	Compression      uint8
	Enciphered       uint8
	CompressedSize   uint32
	DecompressedSize uint32
	Checksum         uint32
}

// chunk is a compressed chunk with its payload still in stored form.
type chunk struct {
	chunkHeader
	payload []byte
}

func readChunk(r io.Reader) (*chunk, error) {
	var c chunk
	if err := binary.Read(r, binary.LittleEndian, &c.chunkHeader); err != nil {
		return nil, truncated(err, "read chunk header")
	}
	if string(c.Magic[:]) != ChunkMagic {
		return nil, fmt.Errorf("%w: bad chunk magic %q", ErrFormat, c.Magic[:])
	}
	if comp := Compression(c.Compression); comp == CompressionNone || !comp.Valid() {
		return nil, fmt.Errorf("%w: invalid chunk compression %d", ErrFormat, c.Compression)
	}

	// Grow with the data actually present instead of trusting the header
	// with a large up-front allocation.
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, r, int64(c.CompressedSize))
	if err != nil {
		if n < int64(c.CompressedSize) {
			return nil, truncated(err, fmt.Sprintf("read chunk payload (%d of %d bytes)", n, c.CompressedSize))
		}
		return nil, err
	}
	c.payload = buf.Bytes()
	return &c, nil
}

// checksum is the wrapping sum of every stored payload byte.
func checksum(p []byte) uint32 {
	var sum uint32
	for _, b := range p {
		sum += uint32(b)
	}
	return sum
}

func (c *chunk) verify() error {
	if got := checksum(c.payload); got != c.Checksum {
		return &ChecksumError{Expected: c.Checksum, Actual: got}
	}
	return nil
}

// decompress decodes the chunk into w and returns the number of bytes written.
func (c *chunk) decompress(w io.Writer, log logger.Logger) (int64, error) {
	src := &chunkReader{payload: c.payload, enciphered: c.Enciphered != 0}

	var out []byte
	switch Compression(c.Compression) {
	case CompressionLZ77:
		b, err := decodeLZ77(src, int(min(c.DecompressedSize, ChunkSize)))
		if err != nil {
			return 0, err
		}
		out = b

	case CompressionZlib:
		zr, err := zlib.NewReader(src)
		if err != nil {
			return 0, fmt.Errorf("%w: zlib: %w", ErrDecode, err)
		}
		var buf bytes.Buffer
		buf.Grow(int(min(c.DecompressedSize, ChunkSize)))
		if _, err := io.Copy(&buf, zr); err != nil {
			_ = zr.Close()
			return 0, fmt.Errorf("%w: zlib: %w", ErrDecode, err)
		}
		if err := zr.Close(); err != nil {
			return 0, fmt.Errorf("%w: zlib: %w", ErrDecode, err)
		}
		out = buf.Bytes()

	default:
		return 0, fmt.Errorf("%w: invalid chunk compression %d", ErrFormat, c.Compression)
	}

	if uint32(len(out)) != c.DecompressedSize {
		log.Warn("chunk had inaccurate decompressed size, archive may be corrupt",
			"declared", c.DecompressedSize, "actual", len(out))
	}

	n, err := w.Write(out)
	return int64(n), err
}

// chunkReader yields a chunk payload, undoing the per-chunk cipher when the
// chunk is enciphered: the byte at index i is stored as (b^i)+i.
type chunkReader struct {
	payload    []byte
	pos        int
	enciphered bool
}

func (r *chunkReader) ReadByte() (byte, error) {
	if r.pos >= len(r.payload) {
		return 0, io.EOF
	}
	b := r.decode(r.payload[r.pos], r.pos)
	r.pos++
	return b, nil
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.payload) {
		return 0, io.EOF
	}
	n := copy(p, r.payload[r.pos:])
	for i := range n {
		p[i] = r.decode(p[i], r.pos+i)
	}
	r.pos += n
	return n, nil
}

func (r *chunkReader) decode(b byte, i int) byte {
	if !r.enciphered {
		return b
	}
	return (b - byte(i)) ^ byte(i)
}
