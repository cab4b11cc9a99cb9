package hapi

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"testing"

	"github.com/samcharles93/hapi/internal/hapitest"
	"github.com/samcharles93/hapi/internal/logger"
)

func openBytes(t *testing.T, data []byte, opts ...Option) *Archive {
	t.Helper()
	opts = append([]Option{WithLogger(logger.Discard())}, opts...)
	a, err := Open(bytes.NewReader(data), opts...)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	return a
}

// captureLog returns a debug-level JSON logger and the buffer it writes to.
func captureLog() (logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logger.JSON(&buf, slog.LevelDebug), &buf
}

// fixChecksum recomputes the stored checksum of a chunk in a plaintext
// archive after its payload has been edited.
func fixChecksum(data []byte, span hapitest.Span) {
	sum := checksum(data[span.Offset : span.Offset+span.Len])
	binary.LittleEndian.PutUint32(data[span.Offset-4:], sum)
}

func fileEntry(t *testing.T, a *Archive, path string) *File {
	t.Helper()
	e, err := a.Lookup(path)
	if err != nil {
		t.Fatalf("lookup %s: %v", path, err)
	}
	f, ok := e.(*File)
	if !ok {
		t.Fatalf("lookup %s: got %T, want *File", path, e)
	}
	return f
}

// pattern returns n bytes of repetitive but not trivially periodic data.
func pattern(n int) []byte {
	out := make([]byte, n)
	var x uint32 = 2463534242
	for i := range out {
		if i%7 == 0 {
			x ^= x << 13
			x ^= x >> 17
			x ^= x << 5
		}
		out[i] = "abcdefgh"[x%8] + byte(i%3)
	}
	return out
}

// noise returns n bytes that compress poorly.
func noise(n int, seed uint32) []byte {
	out := make([]byte, n)
	x := seed | 1
	for i := range out {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		out[i] = byte(x >> 11)
	}
	return out
}
