//go:build !unix

package hapi

import "os"

// OpenFile opens the archive at path. The returned archive must be closed to
// release the file.
func OpenFile(path string, opts ...Option) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return openFallback(f, opts...)
}
