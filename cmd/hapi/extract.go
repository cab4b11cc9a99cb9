package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/hapi/internal/logger"
	"github.com/samcharles93/hapi/pkg/hapi"
)

type extractOptions struct {
	entry     string
	dest      string
	overwrite bool
}

func extractCmd() *cli.Command {
	var (
		out       string
		entry     string
		jobs      int
		overwrite bool
	)

	return &cli.Command{
		Name:      "extract",
		Aliases:   []string{"x"},
		Usage:     "Extract one or more archives",
		ArgsUsage: "<archive> [archive...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "destination directory (parent directory when extracting several archives)",
				Destination: &out,
			},
			&cli.StringFlag{
				Name:        "path",
				Aliases:     []string{"p"},
				Usage:       "extract only this file or directory",
				Destination: &entry,
			},
			&cli.IntFlag{
				Name:        "jobs",
				Aliases:     []string{"j"},
				Usage:       "archives to extract in parallel",
				Value:       runtime.NumCPU(),
				Destination: &jobs,
			},
			&cli.BoolFlag{
				Name:        "overwrite",
				Usage:       "extract into a destination that already has files",
				Destination: &overwrite,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			archives, err := archiveArgs(cmd, 1)
			if err != nil {
				return err
			}
			cfg := LoadConfig()
			applyExtractConfig(cmd, cfg, &overwrite)

			log := logger.FromContext(ctx).With("run", uuid.NewString())
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(max(jobs, 1))
			for _, path := range archives {
				dest, err := resolveExtractDest(path, out, cfg.OutputDir, len(archives) > 1)
				if err != nil {
					return err
				}
				opts := extractOptions{entry: entry, dest: dest, overwrite: overwrite}
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					actx := logger.WithContext(gctx, log.With("archive", path))
					if err := extractArchive(actx, path, opts); err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					return nil
				})
			}
			return g.Wait()
		},
	}
}

// extractArchive opens its own handle so parallel extractions never share a
// cursor.
func extractArchive(ctx context.Context, path string, opts extractOptions) error {
	log := logger.FromContext(ctx)
	start := time.Now()

	a, err := openArchive(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	e, err := a.Lookup(opts.entry)
	if err != nil {
		return err
	}

	if !opts.overwrite {
		if err := ensureEmptyDir(opts.dest); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(opts.dest, 0o755); err != nil {
		return err
	}

	switch e := e.(type) {
	case *hapi.File:
		err = a.ExtractFile(e, opts.dest)
	case *hapi.Directory:
		err = a.ExtractDir(e, opts.dest)
	}
	if err != nil {
		return err
	}

	log.Info("extracted", "dest", opts.dest, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
