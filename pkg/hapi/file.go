package hapi

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// writeFile streams the decoded contents of f into w. The caller holds a.mu.
func (a *Archive) writeFile(f *File, w io.Writer) error {
	if _, err := a.src.Seek(int64(f.Offset), io.SeekStart); err != nil {
		return fmt.Errorf("seek to %s: %w", f.path, err)
	}

	if f.Compression == CompressionNone {
		n, err := io.CopyN(w, a.src, int64(f.Size))
		if err != nil {
			if errors.Is(err, io.EOF) {
				return truncated(err, fmt.Sprintf("read %s (%d of %d bytes)", f.path, n, f.Size))
			}
			return fmt.Errorf("write %s: %w", f.path, err)
		}
		return nil
	}

	count := (int64(f.Size) + ChunkSize - 1) / ChunkSize
	sizes := make([]uint32, count)
	if err := binary.Read(a.src, binary.LittleEndian, sizes); err != nil {
		return truncated(err, fmt.Sprintf("read chunk table of %s", f.path))
	}

	var written int64
	for i, size := range sizes {
		c, err := readChunk(a.src)
		if err != nil {
			return fmt.Errorf("%s: chunk %d: %w", f.path, i, err)
		}
		if want := chunkHeaderSize + c.CompressedSize; size != want {
			a.log.Warn("chunk table disagrees with chunk header",
				"file", f.path, "chunk", i, "table", size, "header", want)
		}
		if err := c.verify(); err != nil {
			return fmt.Errorf("%s: chunk %d: %w", f.path, i, err)
		}
		n, err := c.decompress(w, a.log)
		written += n
		if err != nil {
			return fmt.Errorf("%s: chunk %d: %w", f.path, i, err)
		}
	}

	if written != int64(f.Size) {
		a.log.Warn("decoded size differs from directory entry",
			"file", f.path, "declared", f.Size, "actual", written)
	}
	return nil
}
