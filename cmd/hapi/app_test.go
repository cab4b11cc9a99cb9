package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samcharles93/hapi/internal/hapitest"
	"github.com/samcharles93/hapi/internal/server"
)

func testArchive() *hapitest.Archive {
	return &hapitest.Archive{
		Seed: 0x2F,
		Root: &hapitest.Dir{Entries: []hapitest.Node{
			&hapitest.File{Name: "readme.txt", Data: []byte("read me")},
			&hapitest.Dir{Name: "units", Entries: []hapitest.Node{
				&hapitest.File{Name: "armcom.fbi", Data: bytes.Repeat([]byte("[UNITINFO]\n"), 300), Compression: hapitest.LZ77},
				&hapitest.File{Name: "corcom.fbi", Data: bytes.Repeat([]byte("{corcom}\n"), 300), Compression: hapitest.Zlib},
			}},
		}},
	}
}

// runApp runs the CLI with config isolated from the user's environment.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(envHapiOutputDir, "")

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	err := app.Run(context.Background(), append([]string{"hapi", "--log-level", "error"}, args...))
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	path := testArchive().WriteFile(t, t.TempDir(), "test.hpi")

	out, err := runApp(t, "list", path)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"readme.txt", "units/", "units/armcom.fbi", "lz77", "zlib"} {
		if !strings.Contains(out, want) {
			t.Fatalf("list output missing %q:\n%s", want, out)
		}
	}

	out, err = runApp(t, "list", "--json", path)
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	var root server.EntryInfo
	if err := json.Unmarshal([]byte(out), &root); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if root.Type != "directory" || len(root.Entries) != 2 || len(root.Entries[1].Entries) != 2 {
		t.Fatalf("unexpected tree: %+v", root)
	}
}

func TestInfoCommand(t *testing.T) {
	path := testArchive().WriteFile(t, t.TempDir(), "test.hpi")

	out, err := runApp(t, "info", "--json", path)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	var stats archiveStats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode json: %v\n%s", err, out)
	}
	if stats.Files != 3 || stats.Dirs != 1 || stats.Key == "" || !stats.Header.Enciphered {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Compression["lz77"] != 1 || stats.Compression["zlib"] != 1 || stats.Compression["none"] != 1 {
		t.Fatalf("unexpected compression counts: %v", stats.Compression)
	}

	out, err = runApp(t, "info", path)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if !strings.Contains(out, "files:       3") {
		t.Fatalf("unexpected info output:\n%s", out)
	}
}

func TestCatCommand(t *testing.T) {
	path := testArchive().WriteFile(t, t.TempDir(), "test.hpi")

	out, err := runApp(t, "cat", path, "UNITS/CORCOM.FBI")
	if err != nil {
		t.Fatalf("cat: %v", err)
	}
	if out != strings.Repeat("{corcom}\n", 300) {
		t.Fatalf("unexpected cat output: %d bytes", len(out))
	}

	if _, err := runApp(t, "cat", path, "units"); err == nil {
		t.Fatalf("expected error when catting a directory")
	}
	if _, err := runApp(t, "cat", path); err == nil {
		t.Fatalf("expected usage error without a path")
	}
}

func TestExtractCommand(t *testing.T) {
	dir := t.TempDir()
	first := testArchive().WriteFile(t, dir, "first.hpi")
	second := (&hapitest.Archive{Root: &hapitest.Dir{Entries: []hapitest.Node{
		&hapitest.File{Name: "map.tnt", Data: []byte("terrain"), Compression: hapitest.Zlib},
	}}}).WriteFile(t, dir, "second.ufo")

	out := filepath.Join(dir, "out")
	if _, err := runApp(t, "extract", "-o", out, "-j", "2", first, second); err != nil {
		t.Fatalf("extract: %v", err)
	}

	checks := map[string]string{
		filepath.Join(out, "first", "readme.txt"):          "read me",
		filepath.Join(out, "first", "units", "armcom.fbi"): strings.Repeat("[UNITINFO]\n", 300),
		filepath.Join(out, "second", "map.tnt"):            "terrain",
	}
	for path, want := range checks {
		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if string(got) != want {
			t.Fatalf("%s: unexpected content", path)
		}
	}

	if _, err := runApp(t, "extract", "-o", out, first, second); err == nil || !strings.Contains(err.Error(), "not empty") {
		t.Fatalf("expected not-empty error, got %v", err)
	}
	if _, err := runApp(t, "extract", "--overwrite", "-o", out, first, second); err != nil {
		t.Fatalf("extract --overwrite: %v", err)
	}
}

func TestExtractCommandPath(t *testing.T) {
	dir := t.TempDir()
	path := testArchive().WriteFile(t, dir, "test.hpi")

	out := filepath.Join(dir, "units-only")
	if _, err := runApp(t, "extract", "--path", "units", "-o", out, path); err != nil {
		t.Fatalf("extract --path: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "corcom.fbi")); err != nil {
		t.Fatalf("expected corcom.fbi: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "readme.txt")); !os.IsNotExist(err) {
		t.Fatalf("readme.txt should not be extracted: %v", err)
	}

	single := filepath.Join(dir, "single")
	if _, err := runApp(t, "extract", "-p", "readme.txt", "-o", single, path); err != nil {
		t.Fatalf("extract single file: %v", err)
	}
	if got, err := os.ReadFile(filepath.Join(single, "readme.txt")); err != nil || string(got) != "read me" {
		t.Fatalf("single file: %q, %v", got, err)
	}

	if _, err := runApp(t, "extract", "-p", "nope", "-o", filepath.Join(dir, "x"), path); err == nil {
		t.Fatalf("expected error for missing entry")
	}
}

func TestExtractCommandUsesEnvOutputDir(t *testing.T) {
	dir := t.TempDir()
	path := testArchive().WriteFile(t, dir, "envtest.hpi")
	root := filepath.Join(dir, "root")

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(envHapiOutputDir, root)
	app := newApp()
	app.Writer = &bytes.Buffer{}
	if err := app.Run(context.Background(), []string{"hapi", "--log-level", "error", "extract", path}); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "envtest", "readme.txt")); err != nil {
		t.Fatalf("expected extraction under %s: %v", envHapiOutputDir, err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runApp(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "version:") {
		t.Fatalf("unexpected version output: %q", out)
	}
}
