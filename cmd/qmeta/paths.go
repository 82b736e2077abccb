package main

import (
	"os"
	"path/filepath"
	"strings"
)

const envOutDir = "QMETA_OUT_DIR"

const (
	datasetFile    = "dataset.json"
	checkpointFile = "model.safetensors"
	historyFile    = "history.json"
	reportsDir     = "reports"
)

// resolveOutDir picks the output directory: flag (or QMETA_OUT_DIR via the
// flag's env source), then ./out.
func resolveOutDir(flag string) string {
	if dir := strings.TrimSpace(flag); dir != "" {
		return filepath.Clean(dir)
	}
	if dir := strings.TrimSpace(os.Getenv(envOutDir)); dir != "" {
		return filepath.Clean(dir)
	}
	return filepath.Join(".", "out")
}

// outPath returns explicit when set, otherwise name inside the output dir.
func outPath(explicit, name string) string {
	if p := strings.TrimSpace(explicit); p != "" {
		return filepath.Clean(p)
	}
	return filepath.Join(resolveOutDir(outDir), name)
}
