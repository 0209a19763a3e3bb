package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"one.ps1", "two.ps1", "readme.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got := ExpandGlobs([]string{filepath.Join(dir, "*.ps1")})
	if len(got) != 2 {
		t.Fatalf("ExpandGlobs() = %v, want 2 matches", got)
	}

	// Non-glob paths pass through untouched, even when the file is missing.
	missing := filepath.Join(dir, "missing.ps1")
	got = ExpandGlobs([]string{missing})
	if len(got) != 1 || got[0] != missing {
		t.Errorf("ExpandGlobs() = %v, want [%s]", got, missing)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ps1")

	if err := WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	// No temp files may survive a successful write.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}
