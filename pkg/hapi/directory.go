package hapi

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// Entry is a node of the archive tree. It is always a *File or a *Directory.
type Entry interface {
	// Name is the name stored in the archive.
	Name() string
	// Path is the slash-separated location relative to the archive root.
	Path() string

	isEntry()
}

// Directory is a directory block. Entries keep the order stored in the archive.
type Directory struct {
	name    string
	path    string
	Entries []Entry
}

func (d *Directory) Name() string { return d.name }
func (d *Directory) Path() string { return d.path }
func (*Directory) isEntry()       {}

// File describes one stored file. Offset points at its payload.
type File struct {
	name        string
	path        string
	Offset      uint32
	Size        uint32
	Compression Compression
}

func (f *File) Name() string { return f.name }
func (f *File) Path() string { return f.path }
func (*File) isEntry()       {}

// joinPath appends name to parent without cleaning, so a child never
// rewrites any part of its ancestors' paths.
func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

type directoryBlock struct {
	Count      uint32
	EntriesPtr uint32
}

type indexRecord struct {
	NamePtr uint32
	BodyPtr uint32
	IsDir   uint8
}

type fileBody struct {
	ContentsPtr   uint32
	ExtractedSize uint32
	Compression   uint8
}

// treeParser walks directory blocks through the deciphering reader.
// Recursion depth follows directory nesting and is not capped.
type treeParser struct {
	r *Reader

	// directory blocks on the current ancestor chain
	open map[int64]struct{}
}

func parseTree(r *Reader, tocOffset uint32) (*Directory, error) {
	p := &treeParser{r: r, open: make(map[int64]struct{})}
	return p.directory("", "", int64(tocOffset))
}

func (p *treeParser) directory(name, dirPath string, off int64) (*Directory, error) {
	if _, ok := p.open[off]; ok {
		return nil, fmt.Errorf("%w: directory block at 0x%x contains itself", ErrFormat, off)
	}
	p.open[off] = struct{}{}
	defer delete(p.open, off)

	var block directoryBlock
	if err := p.readAt(off, &block, "directory block"); err != nil {
		return nil, err
	}

	dir := &Directory{name: name, path: dirPath, Entries: make([]Entry, 0, min(block.Count, 256))}
	for i := range block.Count {
		// Each body may live anywhere, so every record is re-addressed from
		// EntriesPtr rather than read from wherever the last body left us.
		recOff := int64(block.EntriesPtr) + int64(i)*indexRecordSize
		var rec indexRecord
		if err := p.readAt(recOff, &rec, "index record"); err != nil {
			return nil, err
		}

		childName, err := p.name(int64(rec.NamePtr))
		if err != nil {
			return nil, err
		}
		childPath := joinPath(dirPath, childName)

		if rec.IsDir != 0 {
			sub, err := p.directory(childName, childPath, int64(rec.BodyPtr))
			if err != nil {
				return nil, err
			}
			dir.Entries = append(dir.Entries, sub)
			continue
		}

		f, err := p.file(childName, childPath, int64(rec.BodyPtr))
		if err != nil {
			return nil, err
		}
		dir.Entries = append(dir.Entries, f)
	}

	return dir, nil
}

func (p *treeParser) file(name, filePath string, off int64) (*File, error) {
	var body fileBody
	if err := p.readAt(off, &body, "file record"); err != nil {
		return nil, err
	}
	c := Compression(body.Compression)
	if !c.Valid() {
		return nil, fmt.Errorf("%w: invalid compression type %d for file %s", ErrFormat, body.Compression, filePath)
	}
	return &File{
		name:        name,
		path:        filePath,
		Offset:      body.ContentsPtr,
		Size:        body.ExtractedSize,
		Compression: c,
	}, nil
}

// name reads a NUL-terminated string. Invalid UTF-8 is repaired rather than
// rejected; old archives carry codepage names.
func (p *treeParser) name(off int64) (string, error) {
	if _, err := p.r.Seek(off, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek to name: %w", err)
	}

	var (
		raw []byte
		buf [64]byte
	)
	for {
		n, err := p.r.Read(buf[:])
		if i := bytes.IndexByte(buf[:n], 0); i >= 0 {
			raw = append(raw, buf[:i]...)
			break
		}
		raw = append(raw, buf[:n]...)
		if err != nil {
			return "", truncated(err, fmt.Sprintf("read name at 0x%x", off))
		}
		if n == 0 {
			return "", truncated(io.ErrUnexpectedEOF, fmt.Sprintf("read name at 0x%x", off))
		}
	}

	return strings.ToValidUTF8(string(raw), "\uFFFD"), nil
}

func (p *treeParser) readAt(off int64, v any, what string) error {
	if _, err := p.r.Seek(off, io.SeekStart); err != nil {
		return fmt.Errorf("seek to %s: %w", what, err)
	}
	if err := binary.Read(p.r, binary.LittleEndian, v); err != nil {
		return truncated(err, fmt.Sprintf("read %s at 0x%x", what, off))
	}
	return nil
}
