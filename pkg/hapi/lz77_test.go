package hapi

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/samcharles93/hapi/internal/hapitest"
)

func TestDecodeLZ77RoundTrip(t *testing.T) {
	t.Parallel()

	block := noise(3000, 11)
	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "single", data: []byte("x")},
		{name: "run", data: bytes.Repeat([]byte{'A'}, 1000)},
		{name: "text", data: []byte("the quick brown fox jumps over the lazy dog, the quick brown fox")},
		{name: "pattern", data: pattern(20000)},
		{name: "noise", data: noise(5000, 5)},
		// Repeats at distance 3000 so pointers wrap the window repeatedly.
		{name: "wrapping", data: bytes.Repeat(block, 7)},
		{name: "full chunk", data: pattern(ChunkSize)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			enc := hapitest.EncodeLZ77(tt.data)
			got, err := decodeLZ77(bytes.NewReader(enc), len(tt.data))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Fatalf("round trip mismatch: got %d bytes want %d", len(got), len(tt.data))
			}
		})
	}
}

func TestDecodeLZ77Streams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stream []byte
		want   []byte
	}{
		{
			// literal 'A', then copy 4 from slot 0 while it is being filled
			name:   "overlapping run",
			stream: []byte{0x06, 0x41, 0x12, 0x00, 0x00, 0x00},
			want:   []byte("AAAAA"),
		},
		{
			// copy 3 from slot 100, never written
			name:   "unwritten window",
			stream: []byte{0x03, 0x51, 0x06, 0x00, 0x00},
			want:   []byte{0, 0, 0},
		},
		{
			name:   "immediate end",
			stream: []byte{0x01, 0x00, 0x00},
			want:   []byte{},
		},
		{
			// the end pointer ignores its length nibble
			name:   "end with length bits",
			stream: []byte{0x02, 'z', 0x0F, 0x00},
			want:   []byte("z"),
		},
		{
			name:   "trailing bytes ignored",
			stream: []byte{0x02, 'q', 0x00, 0x00, 0xFF, 0xFF},
			want:   []byte("q"),
		},
	}
	for _, tt := range tests {
		got, err := decodeLZ77(bytes.NewReader(tt.stream), 0)
		if err != nil {
			t.Fatalf("%s: decode: %v", tt.name, err)
		}
		if !bytes.Equal(got, tt.want) {
			t.Fatalf("%s: got %q want %q", tt.name, got, tt.want)
		}
	}
}

func TestDecodeLZ77Truncated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stream []byte
	}{
		{name: "empty", stream: nil},
		{name: "tag only", stream: []byte{0x00}},
		{name: "half pointer", stream: []byte{0x01, 0x12}},
		{name: "no terminator", stream: []byte{0x00, 'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h'}},
		{name: "literal missing", stream: []byte{0x00, 'a', 'b'}},
	}
	for _, tt := range tests {
		_, err := decodeLZ77(bytes.NewReader(tt.stream), 0)
		if !errors.Is(err, ErrDecode) {
			t.Fatalf("%s: got %v want ErrDecode", tt.name, err)
		}
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("%s: got %v want io.ErrUnexpectedEOF in chain", tt.name, err)
		}
	}

	// Every proper prefix of a valid stream must fail the same way.
	enc := hapitest.EncodeLZ77(pattern(500))
	for n := range len(enc) {
		if _, err := decodeLZ77(bytes.NewReader(enc[:n]), 0); !errors.Is(err, ErrDecode) {
			t.Fatalf("prefix %d/%d: got %v want ErrDecode", n, len(enc), err)
		}
	}
}
