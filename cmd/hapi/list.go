package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/hapi/internal/logger"
	"github.com/samcharles93/hapi/internal/server"
	"github.com/samcharles93/hapi/pkg/hapi"
)

func listCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List the files and directories in an archive",
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

			out := cmd.Root().Writer
			if asJSON {
				return writeJSON(out, server.NewEntryInfo(a.Root(), -1))
			}
			return printTree(out, a)
		},
	}
}

func openArchive(ctx context.Context, path string) (*hapi.Archive, error) {
	a, err := hapi.OpenFile(path, hapi.WithLogger(logger.FromContext(ctx)))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return a, nil
}

func printTree(w io.Writer, a *hapi.Archive) error {
	return a.Walk(func(e hapi.Entry) error {
		var err error
		switch e := e.(type) {
		case *hapi.Directory:
			_, err = fmt.Fprintf(w, "%10s  %-5s  %s/\n", "-", "dir", e.Path())
		case *hapi.File:
			_, err = fmt.Fprintf(w, "%10d  %-5s  %s\n", e.Size, e.Compression, e.Path())
		}
		return err
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
