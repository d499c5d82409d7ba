package ucci

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveEnginePath(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "eleeye")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	got, err := resolveEnginePath(bin)
	if err != nil || got != bin {
		t.Fatalf("resolveEnginePath(%q) = %q, %v", bin, got, err)
	}

	t.Setenv("PATH", dir)
	got, err = resolveEnginePath("eleeye")
	if err != nil || got != bin {
		t.Fatalf("resolveEnginePath via PATH = %q, %v", got, err)
	}

	if _, err := resolveEnginePath(""); err == nil {
		t.Fatal("expected error for empty path")
	}
	_, err = resolveEnginePath(filepath.Join(dir, "missing"))
	if err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("missing binary: %v", err)
	}
	if _, err := resolveEnginePath(dir); err == nil {
		t.Fatal("a directory is not an engine")
	}
}
