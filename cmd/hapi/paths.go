package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
)

const envHapiOutputDir = "HAPI_OUTPUT_DIR"

// archiveArgs returns the archive paths given on the command line.
func archiveArgs(cmd *cli.Command, n int) ([]string, error) {
	args := cmd.Args().Slice()
	if len(args) < n {
		return nil, fmt.Errorf("%s: expected %s", cmd.Name, cmd.ArgsUsage)
	}
	return args, nil
}

func archiveStem(archivePath string) string {
	base := filepath.Base(filepath.Clean(archivePath))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// resolveExtractDest picks the directory an archive is extracted into.
//
// An explicit --out is the destination itself for a single archive and the
// parent of one directory per archive otherwise. Without it, archives land in
// <root>/<stem> where root is $HAPI_OUTPUT_DIR, the configured output_dir or
// the working directory, in that order.
func resolveExtractDest(archivePath, outFlag, configDir string, multi bool) (string, error) {
	stem := archiveStem(archivePath)
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return "", fmt.Errorf("invalid archive path: %q", archivePath)
	}

	outFlag = strings.TrimSpace(outFlag)
	if outFlag != "" {
		if multi {
			return filepath.Join(outFlag, stem), nil
		}
		return filepath.Clean(outFlag), nil
	}

	root := strings.TrimSpace(os.Getenv(envHapiOutputDir))
	if root == "" {
		root = strings.TrimSpace(configDir)
	}
	if root == "" {
		root = "."
	}
	return filepath.Join(root, stem), nil
}

// ensureEmptyDir fails when dir exists and has entries. A missing directory
// is fine.
func ensureEmptyDir(dir string) error {
	ents, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(ents) > 0 {
		return fmt.Errorf("destination %s is not empty; pass --overwrite to extract into it anyway", dir)
	}
	return nil
}
