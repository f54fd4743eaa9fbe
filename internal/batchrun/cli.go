package batchrun

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// File permission constants.
const (
	directoryPermission = 0750
	outputPermission    = 0600
)

// SplitIDs parses a comma-separated conference list, dropping blanks.
func SplitIDs(s string) []string {
	var ids []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// OpenOutput opens the JSON lines destination. "-" is stdout; an empty name
// gets a timestamped file in the working directory.
func OpenOutput(name string) (io.WriteCloser, string, error) {
	if name == "-" {
		return nopCloser{os.Stdout}, "stdout", nil
	}
	if name == "" {
		name = "stipends_" + time.Now().Format("20060102_150405") + ".jsonl"
	}

	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return nil, "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputPermission)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create output file: %w", err)
	}
	return f, name, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// ShowHelp prints usage information for the batch tool.
func ShowHelp() {
	os.Stdout.WriteString(`Stipend Batch Tool
==================

Computes travel stipends from one origin to every reference conference,
one trip at a time, and writes each breakdown as a JSON line.

Usage:
  go run ./cmd/stipend-batch [options]

Options:
  -origin string
        Home location every trip starts from (required)
  -conferences string
        Comma-separated conference IDs (default: all)
  -output string
        Output file, "-" for stdout (default: stipends_TIMESTAMP.jsonl)
  -verbose
        Log every trip as it finishes
  -help
        Show this help message

Configuration is read the same way as the server: STIPEND_CONFIG names an
optional YAML file and STIPEND_* environment variables override it.

Examples:
  # All conferences from Seoul
  go run ./cmd/stipend-batch -origin "Seoul, KR"

  # Two conferences, printed to stdout
  go run ./cmd/stipend-batch -origin Berlin -conferences ethcc-2025,kbw-2025 -output -
`)
}
