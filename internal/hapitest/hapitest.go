// Package hapitest builds HAPI archives in memory for tests.
package hapitest

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zlib"
)

// Compression kinds as stored on disk.
const (
	None uint8 = 0
	LZ77 uint8 = 1
	Zlib uint8 = 2
)

const (
	headerSize      = 20
	chunkHeaderSize = 19
	chunkSize       = 65536
)

// Node is a *Dir or a *File.
type Node interface {
	node()
}

type Dir struct {
	Name    string
	Entries []Node
}

type File struct {
	Name        string
	Data        []byte
	Compression uint8

	// EncipherChunks sets the per-chunk cipher flag on every chunk.
	EncipherChunks bool

	// Stream, when set, is stored as the only chunk's compressed stream
	// instead of compressing Data. Data still supplies the declared sizes.
	Stream []byte
}

func (*Dir) node()  {}
func (*File) node() {}

// Archive describes an archive to build.
type Archive struct {
	Root *Dir

	// Seed is the header cipher seed; 0 leaves the archive in plaintext.
	Seed uint32

	// Marker overrides the header marker; the zero value means a regular
	// archive.
	Marker [4]byte
}

// Span is a byte range in a built archive.
type Span struct {
	Offset uint32
	Len    uint32
}

// Layout records where things landed in a built archive, keyed by
// slash-separated path. The root directory block has the empty path.
type Layout struct {
	TOCOffset uint32
	TOCSize   uint32

	Records  map[string]uint32 // index record
	Bodies   map[string]uint32 // directory block or file record
	Contents map[string]uint32 // start of a file's contents
	Chunks   map[string][]Span // stored payload of each chunk, header excluded
}

// Build serialises a. Bytes past the header are enciphered when a.Seed is
// non-zero; Layout offsets are valid either way.
func (a *Archive) Build() ([]byte, *Layout) {
	b := &builder{
		layout: &Layout{
			TOCOffset: headerSize,
			Records:   map[string]uint32{},
			Bodies:    map[string]uint32{},
			Contents:  map[string]uint32{},
			Chunks:    map[string][]Span{},
		},
	}
	b.buf = make([]byte, headerSize)

	root := a.Root
	if root == nil {
		root = &Dir{}
	}
	b.dir(root, "")
	b.layout.TOCSize = uint32(len(b.buf))

	for _, p := range b.pending {
		b.contents(p)
	}

	marker := a.Marker
	if marker == ([4]byte{}) {
		marker = [4]byte{0x00, 0x00, 0x01, 0x00}
	}
	copy(b.buf[0:4], "HAPI")
	copy(b.buf[4:8], marker[:])
	binary.LittleEndian.PutUint32(b.buf[8:], b.layout.TOCSize)
	binary.LittleEndian.PutUint32(b.buf[12:], a.Seed)
	binary.LittleEndian.PutUint32(b.buf[16:], headerSize)

	Cipher(b.buf, a.Seed, headerSize)
	return b.buf, b.layout
}

// WriteFile builds a into dir/name and returns the path.
func (a *Archive) WriteFile(tb testing.TB, dir, name string) string {
	tb.Helper()
	data, _ := a.Build()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write archive: %v", err)
	}
	return path
}

// Cipher applies the archive stream cipher in place to every byte at or past
// boundary. It is its own inverse.
func Cipher(data []byte, seed, boundary uint32) {
	if seed == 0 {
		return
	}
	key := ^((seed * 4) | (seed >> 6))
	for o := int(boundary); o < len(data); o++ {
		data[o] = byte(uint32(o)^key) ^ ^data[o]
	}
}

type pendingFile struct {
	path string
	body uint32
	file *File
}

type builder struct {
	buf     []byte
	pending []pendingFile
	layout  *Layout
}

func (b *builder) off() uint32 {
	return uint32(len(b.buf))
}

func (b *builder) u32(v uint32) {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
}

func (b *builder) put32(at, v uint32) {
	binary.LittleEndian.PutUint32(b.buf[at:], v)
}

func (b *builder) dir(d *Dir, path string) uint32 {
	start := b.off()
	b.layout.Bodies[path] = start

	b.u32(uint32(len(d.Entries)))
	b.u32(start + 8)
	records := b.off()
	b.buf = append(b.buf, make([]byte, 9*len(d.Entries))...)

	for i, n := range d.Entries {
		rec := records + uint32(9*i)

		var name string
		switch n := n.(type) {
		case *Dir:
			name = n.Name
		case *File:
			name = n.Name
		}
		childPath := name
		if path != "" {
			childPath = path + "/" + name
		}
		b.layout.Records[childPath] = rec

		namePtr := b.off()
		b.buf = append(b.buf, name...)
		b.buf = append(b.buf, 0)

		var body uint32
		switch n := n.(type) {
		case *Dir:
			body = b.dir(n, childPath)
			b.buf[rec+8] = 1
		case *File:
			body = b.off()
			b.layout.Bodies[childPath] = body
			b.buf = append(b.buf, make([]byte, 9)...)
			b.pending = append(b.pending, pendingFile{path: childPath, body: body, file: n})
		}
		b.put32(rec, namePtr)
		b.put32(rec+4, body)
	}
	return start
}

func (b *builder) contents(p pendingFile) {
	f := p.file
	start := b.off()
	b.layout.Contents[p.path] = start

	b.put32(p.body, start)
	b.put32(p.body+4, uint32(len(f.Data)))
	b.buf[p.body+8] = f.Compression

	if f.Compression == None {
		b.buf = append(b.buf, f.Data...)
		return
	}

	var pieces [][]byte
	for rest := f.Data; len(rest) > 0; {
		n := min(len(rest), chunkSize)
		pieces = append(pieces, rest[:n])
		rest = rest[n:]
	}
	if f.Stream != nil && len(pieces) != 1 {
		panic("hapitest: Stream needs Data that fits in one chunk")
	}

	table := b.off()
	b.buf = append(b.buf, make([]byte, 4*len(pieces))...)
	for i, piece := range pieces {
		var stored []byte
		if f.Stream != nil {
			stored = bytes.Clone(f.Stream)
		} else {
			stored = compress(f.Compression, piece)
		}
		if f.EncipherChunks {
			for j := range stored {
				stored[j] = (stored[j] ^ byte(j)) + byte(j)
			}
		}
		var sum uint32
		for _, c := range stored {
			sum += uint32(c)
		}

		b.put32(table+uint32(4*i), uint32(chunkHeaderSize+len(stored)))
		b.buf = append(b.buf, "SQSH"...)
		b.buf = append(b.buf, 2, f.Compression, boolByte(f.EncipherChunks))
		b.u32(uint32(len(stored)))
		b.u32(uint32(len(piece)))
		b.u32(sum)
		b.layout.Chunks[p.path] = append(b.layout.Chunks[p.path], Span{Offset: b.off(), Len: uint32(len(stored))})
		b.buf = append(b.buf, stored...)
	}
}

func compress(kind uint8, data []byte) []byte {
	switch kind {
	case LZ77:
		return EncodeLZ77(data)
	case Zlib:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			panic(err)
		}
		if err := zw.Close(); err != nil {
			panic(err)
		}
		return buf.Bytes()
	}
	panic("hapitest: compress called with stored kind")
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
