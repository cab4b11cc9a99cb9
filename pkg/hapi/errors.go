package hapi

import (
	"errors"
	"fmt"
	"io"
)

var (
	ErrFormat             = errors.New("hapi: invalid archive format")
	ErrUnsupportedVariant = errors.New("hapi: unsupported container variant")
	ErrTruncated          = errors.New("hapi: truncated data")
	ErrChecksum           = errors.New("hapi: chunk checksum mismatch")
	ErrDecode             = errors.New("hapi: malformed compressed stream")
	ErrDestination        = errors.New("hapi: invalid extraction destination")
	ErrNotFound           = errors.New("hapi: entry not found")
	ErrClosed             = errors.New("hapi: archive is closed")
)

// ChecksumError reports a chunk whose payload does not sum to the value
// stored in its header.
type ChecksumError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("%v: expected 0x%08x, got 0x%08x", ErrChecksum, e.Expected, e.Actual)
}

func (e *ChecksumError) Unwrap() error {
	return ErrChecksum
}

// truncated maps end-of-input errors onto ErrTruncated and annotates
// everything else with what was being read.
func truncated(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s: %w", ErrTruncated, what, io.ErrUnexpectedEOF)
	}
	return fmt.Errorf("%s: %w", what, err)
}
