package hapi

import (
	"errors"
	"fmt"
	"io"
)

const (
	lz77WindowSize = 4096
	lz77WindowMask = lz77WindowSize - 1
)

// decodeLZ77 expands one LZ77 chunk payload.
//
// A tag byte governs the next eight tokens, least significant bit first. A
// clear bit is a literal byte. A set bit is a two-byte little-endian pointer
// v: v>>4 selects a window slot (plus one) and (v&0xf)+2 is the run length.
// A pointer whose slot is zero ends the stream. Runs are copied one byte at a
// time so a run may overlap the bytes it is producing.
func decodeLZ77(src io.ByteReader, sizeHint int) ([]byte, error) {
	var (
		window [lz77WindowSize]byte
		wpos   int
		out    = make([]byte, 0, sizeHint)
	)

	next := func(what string) (byte, error) {
		b, err := src.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, fmt.Errorf("%w: stream ended inside %s: %w", ErrDecode, what, io.ErrUnexpectedEOF)
			}
			return 0, err
		}
		return b, nil
	}

	for {
		tag, err := next("tag")
		if err != nil {
			return nil, err
		}

		for bit := range 8 {
			if tag&(1<<bit) == 0 {
				b, err := next("literal")
				if err != nil {
					return nil, err
				}
				out = append(out, b)
				window[wpos] = b
				wpos = (wpos + 1) & lz77WindowMask
				continue
			}

			lo, err := next("pointer")
			if err != nil {
				return nil, err
			}
			hi, err := next("pointer")
			if err != nil {
				return nil, err
			}

			v := uint16(lo) | uint16(hi)<<8
			slot := int(v >> 4)
			if slot == 0 {
				return out, nil
			}

			rpos := slot - 1
			for range int(lo&0x0f) + 2 {
				b := window[rpos]
				out = append(out, b)
				window[wpos] = b
				rpos = (rpos + 1) & lz77WindowMask
				wpos = (wpos + 1) & lz77WindowMask
			}
		}
	}
}
