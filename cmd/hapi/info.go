package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/hapi/internal/server"
	"github.com/samcharles93/hapi/pkg/hapi"
)

type archiveStats struct {
	Path   string            `json:"path"`
	Header server.HeaderInfo `json:"header"`
	Key    string            `json:"key,omitempty"`
	Dirs   int               `json:"dirs"`
	Files  int               `json:"files"`
	Bytes  uint64            `json:"bytes"`

	// file counts keyed by compression name
	Compression map[string]int `json:"compression"`
}

func infoCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "info",
		Usage:     "Show header fields and content statistics",
		ArgsUsage: "<archive>",
		Flags:     []cli.Flag{jsonFlag(&asJSON)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := archiveArgs(cmd, 1)
			if err != nil {
				return err
			}
			a, err := openArchive(ctx, args[0])
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			stats := collectStats(args[0], a)
			if asJSON {
				return writeJSON(cmd.Root().Writer, stats)
			}
			return printStats(cmd.Root().Writer, stats)
		},
	}
}

func collectStats(path string, a *hapi.Archive) archiveStats {
	h := a.Header()
	stats := archiveStats{
		Path:        path,
		Header:      server.NewHeaderInfo(h),
		Compression: map[string]int{},
	}
	if key, ok := h.Key(); ok {
		stats.Key = fmt.Sprintf("%08x", key)
	}
	_ = a.Walk(func(e hapi.Entry) error {
		switch e := e.(type) {
		case *hapi.Directory:
			stats.Dirs++
		case *hapi.File:
			stats.Files++
			stats.Bytes += uint64(e.Size)
			stats.Compression[e.Compression.String()]++
		}
		return nil
	})
	return stats
}

func printStats(w io.Writer, s archiveStats) error {
	key := "none"
	if s.Key != "" {
		key = s.Key
	}
	_, err := fmt.Fprintf(w,
		"path:        %s\nmarker:      %s\ntoc offset:  %d\ntoc size:    %d\nkey:         %s\ndirectories: %d\nfiles:       %d\nbytes:       %d\n",
		s.Path, s.Header.Marker, s.Header.TOCOffset, s.Header.TOCSize, key, s.Dirs, s.Files, s.Bytes)
	if err != nil {
		return err
	}
	for _, c := range []hapi.Compression{hapi.CompressionNone, hapi.CompressionLZ77, hapi.CompressionZlib} {
		if n := s.Compression[c.String()]; n > 0 {
			if _, err := fmt.Fprintf(w, "  %-5s      %d\n", c, n); err != nil {
				return err
			}
		}
	}
	return nil
}
