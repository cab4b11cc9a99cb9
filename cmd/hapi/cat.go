package main

import (
	"bufio"
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/hapi/pkg/hapi"
)

func catCmd() *cli.Command {
	return &cli.Command{
		Name:      "cat",
		Usage:     "Write one file from an archive to stdout",
		ArgsUsage: "<archive> <path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args, err := archiveArgs(cmd, 2)
			if err != nil {
				return err
			}
			a, err := openArchive(ctx, args[0])
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			e, err := a.Lookup(args[1])
			if err != nil {
				return err
			}
			f, ok := e.(*hapi.File)
			if !ok {
				return fmt.Errorf("%s is a directory", e.Path())
			}

			w := bufio.NewWriter(cmd.Root().Writer)
			if err := a.WriteFile(f, w); err != nil {
				return err
			}
			return w.Flush()
		},
	}
}
