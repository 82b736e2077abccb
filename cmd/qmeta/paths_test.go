package main

import (
	"path/filepath"
	"testing"
)

func TestResolveOutDir(t *testing.T) {
	t.Run("flag wins", func(t *testing.T) {
		t.Setenv(envOutDir, "/env/out")
		if got := resolveOutDir(" /flag/out/ "); got != "/flag/out" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("env overrides default", func(t *testing.T) {
		t.Setenv(envOutDir, "/env/out")
		if got := resolveOutDir(""); got != "/env/out" {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("default is ./out", func(t *testing.T) {
		t.Setenv(envOutDir, "")
		if got := resolveOutDir(""); got != filepath.Join(".", "out") {
			t.Fatalf("got %q", got)
		}
	})
}

func TestOutPath(t *testing.T) {
	t.Setenv(envOutDir, "")
	prev := outDir
	t.Cleanup(func() { outDir = prev })

	outDir = "/runs/a"
	if got := outPath("", checkpointFile); got != filepath.Join("/runs/a", checkpointFile) {
		t.Fatalf("got %q", got)
	}
	if got := outPath("elsewhere/m.safetensors", checkpointFile); got != filepath.Join("elsewhere", "m.safetensors") {
		t.Fatalf("got %q", got)
	}
}
