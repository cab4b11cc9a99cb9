//go:build unix

package hapi

import (
	"bytes"
	"os"

	"golang.org/x/sys/unix"
)

// OpenFile opens the archive at path. The file is mapped read-only where
// possible and read through an *os.File otherwise. The returned archive must
// be closed to release the mapping.
func OpenFile(path string, opts ...Option) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	size64 := stat.Size()
	if size64 > 0 && size64 <= int64(int(^uint(0)>>1)) {
		// Prefer mmap; the mapping outlives the descriptor.
		data, err := unix.Mmap(int(f.Fd()), 0, int(size64), unix.PROT_READ, unix.MAP_SHARED)
		if err == nil {
			_ = f.Close()
			a, err := Open(bytes.NewReader(data), opts...)
			if err != nil {
				_ = unix.Munmap(data)
				return nil, err
			}
			a.closer = mapping(data)
			return a, nil
		}
	}

	// Fallback path that does not require mmap support.
	return openFallback(f, opts...)
}

type mapping []byte

func (m mapping) Close() error {
	return unix.Munmap(m)
}
