package hapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/samcharles93/hapi/internal/logger"
)

// Archive is an open HAPI archive.
//
// The directory tree is decoded once by Open. File contents are decoded on
// demand through a single shared cursor guarded by mu.
type Archive struct {
	mu     sync.Mutex
	src    *Reader
	closer io.Closer
	closed bool

	header Header
	root   *Directory
	log    logger.Logger
}

type options struct {
	log logger.Logger
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger used for warnings about suspect but readable
// archives and for extraction progress.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// Open reads the header and the full directory tree from r. Offsets in the
// archive are absolute, so r must be positioned over the whole file.
// Open does not take ownership of r.
func Open(r io.ReadSeeker, opts ...Option) (*Archive, error) {
	o := options{log: logger.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to header: %w", err)
	}
	h, err := readHeader(r, o.log)
	if err != nil {
		return nil, err
	}

	key, keyed := h.Key()
	src, err := NewReader(r, key, keyed, h.TOCOffset)
	if err != nil {
		return nil, fmt.Errorf("create reader: %w", err)
	}

	root, err := parseTree(src, h.TOCOffset)
	if err != nil {
		return nil, fmt.Errorf("read table of contents: %w", err)
	}

	o.log.Debug("opened archive",
		"toc_offset", h.TOCOffset,
		"toc_size", h.TOCSize,
		"enciphered", keyed,
		"entries", len(root.Entries))

	return &Archive{
		src:    src,
		header: h,
		root:   root,
		log:    o.log,
	}, nil
}

func (a *Archive) Header() Header {
	return a.header
}

// Root returns the top-level directory. Its Path and Name are empty.
func (a *Archive) Root() *Directory {
	return a.root
}

// Close releases resources acquired by OpenFile. Archives built with Open
// leave the caller's reader alone.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// Lookup finds the entry at a slash-separated path. Names compare
// case-insensitively; the first match in stored order wins. An empty path
// returns the root.
func (a *Archive) Lookup(name string) (Entry, error) {
	name = strings.Trim(strings.ReplaceAll(name, `\`, "/"), "/")
	if name == "" {
		return a.root, nil
	}

	cur := a.root
	parts := strings.Split(name, "/")
	for i, part := range parts {
		var found Entry
		for _, e := range cur.Entries {
			if strings.EqualFold(e.Name(), part) {
				found = e
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		if i == len(parts)-1 {
			return found, nil
		}
		d, ok := found.(*Directory)
		if !ok {
			return nil, fmt.Errorf("%w: %s: %s is a file", ErrNotFound, name, found.Path())
		}
		cur = d
	}
	return cur, nil
}

// WalkFunc is called for every entry below the root in depth-first order.
// Returning fs.SkipDir from a directory skips its contents; any other error
// stops the walk and is returned by Walk.
type WalkFunc func(e Entry) error

func (a *Archive) Walk(fn WalkFunc) error {
	err := walk(a.root, fn)
	if errors.Is(err, fs.SkipDir) {
		return nil
	}
	return err
}

func walk(d *Directory, fn WalkFunc) error {
	for _, e := range d.Entries {
		err := fn(e)
		sub, isDir := e.(*Directory)
		if err != nil {
			if isDir && errors.Is(err, fs.SkipDir) {
				continue
			}
			return err
		}
		if isDir {
			if err := walk(sub, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteFile decodes f into w. Checksums are verified before any chunk is
// decompressed, but earlier chunks may already have been written when a
// later chunk fails.
func (a *Archive) WriteFile(f *File, w io.Writer) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	return a.writeFile(f, w)
}

// ReadFile returns the decoded contents of f.
func (a *Archive) ReadFile(f *File) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(int(min(f.Size, 1<<26)))
	if err := a.WriteFile(f, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// openFallback opens an archive over f and hands ownership of f to it.
func openFallback(f *os.File, opts ...Option) (*Archive, error) {
	a, err := Open(f, opts...)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	a.closer = f
	return a, nil
}
