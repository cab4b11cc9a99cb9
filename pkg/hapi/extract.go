package hapi

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExtractAll writes the whole archive below dest, which must be an existing
// directory.
func (a *Archive) ExtractAll(dest string) error {
	return a.ExtractDir(a.root, dest)
}

// ExtractDir recreates the contents of d below dest, which must be an
// existing directory. d itself is not created; its children are.
func (a *Archive) ExtractDir(d *Directory, dest string) error {
	if err := checkDestination(dest); err != nil {
		return err
	}
	a.log.Info("extracting to", "dest", dest, "dir", d.Path())
	return a.extractDir(d, dest)
}

func (a *Archive) extractDir(d *Directory, dest string) error {
	for _, e := range d.Entries {
		name, err := safeName(e)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, name)

		switch e := e.(type) {
		case *File:
			if err := a.extractFile(e, target); err != nil {
				return err
			}
		case *Directory:
			a.log.Debug("creating dir", "path", target)
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: %w", ErrDestination, err)
			}
			if err := a.extractDir(e, target); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExtractFile writes f into the existing directory dest under its own name.
func (a *Archive) ExtractFile(f *File, dest string) error {
	if err := checkDestination(dest); err != nil {
		return err
	}
	name, err := safeName(f)
	if err != nil {
		return err
	}
	return a.extractFile(f, filepath.Join(dest, name))
}

func (a *Archive) extractFile(f *File, target string) (err error) {
	a.log.Debug("creating file", "path", target, "size", f.Size, "compression", f.Compression)

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDestination, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrDestination, cerr)
		}
		if err != nil {
			_ = os.Remove(target)
		}
	}()

	bw := bufio.NewWriter(destinationWriter{out})
	if err := a.WriteFile(f, bw); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return nil
}

func checkDestination(dest string) error {
	st, err := os.Stat(dest)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s does not exist", ErrDestination, dest)
		}
		return fmt.Errorf("%w: %w", ErrDestination, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDestination, dest)
	}
	return nil
}

// safeName rejects names that would escape or alias the extraction
// directory.
func safeName(e Entry) (string, error) {
	name := e.Name()
	switch {
	case name == "", name == ".", name == "..",
		strings.ContainsAny(name, "/\\\x00"),
		filepath.VolumeName(name) != "":
		return "", fmt.Errorf("%w: unsafe entry name %q in %q", ErrDestination, name, e.Path())
	}
	return name, nil
}

// destinationWriter tags write failures so callers can tell them apart from
// decoding failures.
type destinationWriter struct {
	f *os.File
}

func (w destinationWriter) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrDestination, err)
	}
	return n, err
}
