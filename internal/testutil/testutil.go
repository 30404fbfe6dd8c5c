// Package testutil writes project trees and grcov report fixtures for tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// NotCoverable marks a line without coverage data in a report fixture.
const NotCoverable = -1

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// ReadFile reads content from a file.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}

// CreateFileTree creates multiple files from a map of path -> content.
func CreateFileTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, filepath.Join(root, name), content)
	}
}

type coverallsFile struct {
	Name     string `json:"name"`
	Coverage []*int `json:"coverage"`
}

// WriteCoveralls writes a Coveralls report to dir/coveralls.json and
// returns its path. Each file maps to per-line hit counts; NotCoverable
// lines are written as null.
func WriteCoveralls(t *testing.T, dir string, files map[string][]int) string {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	report := struct {
		SourceFiles []coverallsFile `json:"source_files"`
	}{SourceFiles: make([]coverallsFile, 0, len(names))}
	for _, name := range names {
		f := coverallsFile{Name: name, Coverage: make([]*int, len(files[name]))}
		for i, hits := range files[name] {
			if hits == NotCoverable {
				continue
			}
			f.Coverage[i] = &hits
		}
		report.SourceFiles = append(report.SourceFiles, f)
	}

	data, err := json.Marshal(report)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}
	path := filepath.Join(dir, "coveralls.json")
	WriteFile(t, path, string(data))
	return path
}
