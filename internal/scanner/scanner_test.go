package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/panbanda/wcc/pkg/config"
	"github.com/panbanda/wcc/pkg/parser"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create file %s: %v", name, err)
		}
	}
}

func relSet(t *testing.T, root string, files []string) map[string]bool {
	t.Helper()
	resolved, err := ResolveRoot(root)
	if err != nil {
		t.Fatal(err)
	}
	out := make(map[string]bool, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(resolved, f)
		if err != nil {
			t.Fatal(err)
		}
		out[filepath.ToSlash(rel)] = true
	}
	return out
}

func TestNewScanner(t *testing.T) {
	s := NewScanner(nil)
	if s == nil {
		t.Fatal("NewScanner(nil) returned nil")
	}
	if s.config == nil {
		t.Error("scanner.config should not be nil when passing nil")
	}

	cfg := config.DefaultConfig()
	s = NewScanner(cfg)
	if s.config != cfg {
		t.Error("scanner.config should be the provided config")
	}
}

func TestScanDir(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"main.go":          "package main\n",
		"lib.go":           "package lib\n",
		"util/helper.go":   "package util\n",
		"util/helper.py":   "# python\n",
		"internal/core.rs": "fn main() {}\n",
		"README.md":        "# readme\n",
		"data.json":        "{}\n",
	})

	s := NewScanner(nil)
	result, err := s.ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}

	if len(result) != 5 {
		t.Errorf("ScanDir() found %d files, want 5", len(result))
	}
	for _, f := range result {
		if !filepath.IsAbs(f) {
			t.Errorf("ScanDir() returned relative path %q", f)
		}
	}
	found := relSet(t, tmpDir, result)
	if found["README.md"] || found["data.json"] {
		t.Error("ScanDir() should skip files in unsupported languages")
	}
}

func TestScanDirDeterministicOrder(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"b.go":     "package b\n",
		"a.go":     "package a\n",
		"z/y.go":   "package z\n",
		"c/d/e.rs": "fn e() {}\n",
	})

	first, err := NewScanner(nil).ScanDir(tmpDir)
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		again, err := NewScanner(nil).ScanDir(tmpDir)
		if err != nil {
			t.Fatal(err)
		}
		if len(again) != len(first) {
			t.Fatalf("ScanDir() returned %d files, then %d", len(first), len(again))
		}
		for i := range first {
			if first[i] != again[i] {
				t.Errorf("order differs at %d: %q vs %q", i, first[i], again[i])
			}
		}
	}
}

func TestScanDirExcludesDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"main.go":               "package main\n",
		"vendor/dep/dep.go":     "package dep\n",
		"node_modules/x/x.js":   "module.exports = 1\n",
		"target/debug/build.rs": "fn main() {}\n",
		"src/lib.rs":            "fn lib() {}\n",
	})

	result, err := NewScanner(nil).ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	found := relSet(t, tmpDir, result)
	if len(found) != 2 || !found["main.go"] || !found["src/lib.rs"] {
		t.Errorf("ScanDir() = %v, want main.go and src/lib.rs", found)
	}
}

func TestScanDirExcludesPatterns(t *testing.T) {
	tmpDir := t.TempDir()
	writeTree(t, tmpDir, map[string]string{
		"main.go":           "package main\n",
		"main_test.go":      "package main\n",
		"gen/api.pb.go":     "package gen\n",
		"tests/it/flow.rs":  "fn flow() {}\n",
		"src/tests_util.rs": "fn util() {}\n",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Patterns = []string{"*_test.go", "*.pb.go", "tests/"}

	result, err := NewScanner(cfg).ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	found := relSet(t, tmpDir, result)
	if len(found) != 2 || !found["main.go"] || !found["src/tests_util.rs"] {
		t.Errorf("ScanDir() = %v, want main.go and src/tests_util.rs", found)
	}
}

func TestScanDirWithGitignore(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(tmpDir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	writeTree(t, tmpDir, map[string]string{
		".gitignore":          "skipme/\n*.gen.go\nsub/project/skip.rs\n",
		"main.go":             "package main\n",
		"skipme/skip.go":      "package skipme\n",
		"src/app.go":          "package src\n",
		"src/app.gen.go":      "package src\n",
		"src/.gitignore":      "local.go\n",
		"src/local.go":        "package src\n",
		"other/local.go":      "package other\n",
		".git/hooks/pre.go":   "package hooks\n",
		"sub/project/lib.rs":  "fn lib() {}\n",
		"sub/project/skip.rs": "fn skip() {}\n",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = true

	result, err := NewScanner(cfg).ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	found := relSet(t, tmpDir, result)

	for _, want := range []string{"main.go", "src/app.go", "other/local.go", "sub/project/lib.rs"} {
		if !found[want] {
			t.Errorf("should find %s", want)
		}
	}
	for _, skip := range []string{"skipme/skip.go", "src/app.gen.go", "src/local.go", ".git/hooks/pre.go", "sub/project/skip.rs"} {
		if found[skip] {
			t.Errorf("should skip %s", skip)
		}
	}

	// Scanning a subdirectory still applies the repository's patterns.
	subResult, err := NewScanner(cfg).ScanDir(filepath.Join(tmpDir, "sub", "project"))
	if err != nil {
		t.Fatal(err)
	}
	sub := relSet(t, filepath.Join(tmpDir, "sub", "project"), subResult)
	if !sub["lib.rs"] || sub["skip.rs"] {
		t.Errorf("subdirectory scan = %v, want lib.rs without skip.rs", sub)
	}
}

func TestScanDirDisabledGitignore(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.Mkdir(filepath.Join(tmpDir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	writeTree(t, tmpDir, map[string]string{
		".gitignore":      "ignored/\n",
		"ignored/file.go": "package x\n",
	})

	cfg := config.DefaultConfig()
	cfg.Exclude.Gitignore = false

	result, err := NewScanner(cfg).ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if !relSet(t, tmpDir, result)["ignored/file.go"] {
		t.Error("With gitignore disabled, should find files in 'ignored' directory")
	}
}

func TestScanDirEmptyDirectory(t *testing.T) {
	result, err := NewScanner(nil).ScanDir(t.TempDir())
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("ScanDir() on empty dir returned %d files, want 0", len(result))
	}
}

func TestScanDirRootErrors(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "file.go")
	if err := os.WriteFile(file, []byte("package x\n"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, root := range []string{filepath.Join(tmpDir, "missing"), file} {
		_, err := NewScanner(nil).ScanDir(root)
		var re *RootError
		if !errors.As(err, &re) {
			t.Errorf("ScanDir(%q) error = %v, want *RootError", root, err)
			continue
		}
		if re.Root != root {
			t.Errorf("RootError.Root = %q, want %q", re.Root, root)
		}
	}
}

func TestGroupByLanguage(t *testing.T) {
	groups := GroupByLanguage([]string{"a.go", "b.go", "c.rs", "d.txt", "e.py"})
	if len(groups[parser.LangGo]) != 2 {
		t.Errorf("go group = %v, want 2 files", groups[parser.LangGo])
	}
	if len(groups[parser.LangRust]) != 1 || len(groups[parser.LangPython]) != 1 {
		t.Errorf("unexpected groups %v", groups)
	}
	if _, ok := groups[parser.LangUnknown]; ok {
		t.Error("unknown files should not be grouped")
	}
	if len(GroupByLanguage(nil)) != 0 {
		t.Error("GroupByLanguage(nil) should be empty")
	}
}

func TestIsWithinRoot(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"same path", tmpDir, true},
		{"child path", filepath.Join(tmpDir, "subdir", "file.go"), true},
		{"path outside root", "/some/other/path", false},
		{"parent path", filepath.Dir(tmpDir), false},
		{"similar prefix but different dir", tmpDir + "2/file.go", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isWithinRoot(tt.path, tmpDir); got != tt.want {
				t.Errorf("isWithinRoot(%q, %q) = %v, want %v", tt.path, tmpDir, got, tt.want)
			}
		})
	}
}

func TestFindGitRoot(t *testing.T) {
	tmpDir := t.TempDir()
	gitDir := filepath.Join(tmpDir, ".git")
	if err := os.Mkdir(gitDir, 0755); err != nil {
		t.Fatalf("Failed to create .git dir: %v", err)
	}

	if got := findGitRoot(tmpDir); got != tmpDir {
		t.Errorf("findGitRoot() should return %q, got %q", tmpDir, got)
	}

	subDir := filepath.Join(tmpDir, "src", "pkg")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}
	if got := findGitRoot(subDir); got != tmpDir {
		t.Errorf("findGitRoot() from subdir should return %q, got %q", tmpDir, got)
	}
}

func TestScanDirWithUnresolvableSymlink(t *testing.T) {
	tmpDir := t.TempDir()

	symlinkPath := filepath.Join(tmpDir, "dangling.go")
	if err := os.Symlink("/nonexistent/path/file.go", symlinkPath); err != nil {
		t.Skip("Symlinks not supported on this system")
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "real.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	result, err := NewScanner(nil).ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("ScanDir() should find 1 file (skipping dangling symlink), got %d", len(result))
	}
}

func TestScanDirSkipsSymlinkOutsideRoot(t *testing.T) {
	tmpDir := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "outside.go")
	if err := os.WriteFile(target, []byte("package outside\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(tmpDir, "escape.go")); err != nil {
		t.Skip("Symlinks not supported on this system")
	}

	result, err := NewScanner(nil).ScanDir(tmpDir)
	if err != nil {
		t.Fatalf("ScanDir() error: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("ScanDir() should skip symlinks leaving the root, got %v", result)
	}
}
