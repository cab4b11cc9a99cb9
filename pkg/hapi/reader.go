package hapi

import "io"

// Reader deciphers an archive stream on the fly.
//
// Every byte at absolute offset o >= boundary is transformed as
// byte(o^key) ^ ^b. The transform depends only on the offset, so the reader
// stays correct across arbitrary seeks. It is its own inverse.
type Reader struct {
	r        io.ReadSeeker
	key      uint32
	keyed    bool
	boundary int64
	pos      int64
}

// NewReader wraps r. When keyed is false bytes pass through unchanged.
// The current position of r is taken as the starting offset.
func NewReader(r io.ReadSeeker, key uint32, keyed bool, boundary uint32) (*Reader, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	return &Reader{
		r:        r,
		key:      key,
		keyed:    keyed,
		boundary: int64(boundary),
		pos:      pos,
	}, nil
}

// DeriveKey turns the header's cipher seed into the stream key.
// A zero seed means the archive is stored in plaintext.
func DeriveKey(seed uint32) (uint32, bool) {
	if seed == 0 {
		return 0, false
	}
	return ^((seed * 4) | (seed >> 6)), true
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	r.transform(p[:n], r.pos)
	r.pos += int64(n)
	return n, err
}

func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	pos, err := r.r.Seek(offset, whence)
	if err != nil {
		return r.pos, err
	}
	r.pos = pos
	return pos, nil
}

// Offset returns the absolute position of the next byte Read will return.
func (r *Reader) Offset() int64 {
	return r.pos
}

func (r *Reader) transform(p []byte, at int64) {
	if !r.keyed {
		return
	}
	for i := range p {
		off := at + int64(i)
		if off < r.boundary {
			continue
		}
		p[i] = byte(uint32(off)^r.key) ^ ^p[i]
	}
}
