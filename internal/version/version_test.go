package version

import "testing"

func TestResolvePrefersLdflags(t *testing.T) {
	oldV, oldC, oldB := Version, Commit, BuildTime
	t.Cleanup(func() { Version, Commit, BuildTime = oldV, oldC, oldB })

	Version = "v1.2.3"
	Commit = "0123456789abcdef0123"
	BuildTime = "2026-01-02T03:04:05Z"

	info := Resolve()
	if info.Version != "v1.2.3" || info.Commit != Commit || info.BuildTime != BuildTime {
		t.Fatalf("unexpected info: %+v", info)
	}
	if got, want := String(), "v1.2.3 (0123456789ab)"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestResolveNeverEmpty(t *testing.T) {
	oldV := Version
	t.Cleanup(func() { Version = oldV })
	Version = ""

	if Resolve().Version == "" {
		t.Fatal("expected a non-empty fallback version")
	}
}
