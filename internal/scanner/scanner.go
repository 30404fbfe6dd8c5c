// Package scanner enumerates the source files of a project, honoring
// .gitignore files and configured exclusions.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/panbanda/wcc/pkg/config"
	"github.com/panbanda/wcc/pkg/parser"
)

// RootError is returned when the project root cannot be walked.
type RootError struct {
	Root string
	Err  error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("cannot scan project root %s: %v", e.Root, e.Err)
}

func (e *RootError) Unwrap() error {
	return e.Err
}

// Scanner finds source files in a directory.
type Scanner struct {
	config *config.Config

	// patterns from config, matched against root-relative paths
	local gitignore.Matcher
	// patterns from .gitignore files, matched against repository-relative paths
	git     gitignore.Matcher
	gitRoot string
}

// NewScanner creates a new file scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg}
}

// findGitRoot finds the root of the git repository by looking for .git directory.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func (s *Scanner) loadExcludePatterns(absRoot string) {
	var patterns []gitignore.Pattern
	for _, pattern := range s.config.Exclude.Patterns {
		patterns = append(patterns, gitignore.ParsePattern(pattern, nil))
	}
	if len(patterns) > 0 {
		s.local = gitignore.NewMatcher(patterns)
	}

	if !s.config.Exclude.Gitignore {
		return
	}
	gitRoot := findGitRoot(absRoot)
	if gitRoot == "" {
		return
	}
	// ReadPatterns walks every nested .gitignore below the repository root.
	gitPatterns, err := gitignore.ReadPatterns(osfs.New(gitRoot), nil)
	if err != nil || len(gitPatterns) == 0 {
		return
	}
	s.git = gitignore.NewMatcher(gitPatterns)
	s.gitRoot = gitRoot
}

// isExcluded checks a path relative to the scan root.
func (s *Scanner) isExcluded(absRoot, relPath string, isDir bool) bool {
	if relPath == "." {
		return false
	}
	if s.local != nil && s.local.Match(split(relPath), isDir) {
		return true
	}
	if s.git != nil {
		if rel, err := filepath.Rel(s.gitRoot, filepath.Join(absRoot, relPath)); err == nil && !strings.HasPrefix(rel, "..") {
			if s.git.Match(split(rel), isDir) {
				return true
			}
		}
	}
	if isDir {
		return s.config.ShouldExclude(relPath + string(filepath.Separator))
	}
	return s.config.ShouldExclude(relPath)
}

func split(p string) []string {
	return strings.Split(filepath.ToSlash(p), "/")
}

// ScanDir recursively scans root for files in a supported language, in
// lexical walk order. Symlinks leaving root are skipped. An unreadable root
// is a *RootError; unreadable entries below it are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	absRoot, err := ResolveRoot(root)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(absRoot)

	files := make([]string, 0, 256)
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() && path != absRoot {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, _ := filepath.Rel(absRoot, path)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if s.isExcluded(absRoot, relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(absRoot, relPath, false) {
			return nil
		}
		if parser.DetectLanguage(path) != parser.LangUnknown {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, &RootError{Root: root, Err: walkErr}
	}

	return files, nil
}

// ResolveRoot returns the absolute, symlink-free form of root and checks
// that it is a readable directory.
func ResolveRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", &RootError{Root: root, Err: err}
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", &RootError{Root: root, Err: err}
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return "", &RootError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return "", &RootError{Root: root, Err: fmt.Errorf("not a directory")}
	}
	if _, err := os.ReadDir(absRoot); err != nil {
		return "", &RootError{Root: root, Err: err}
	}
	return absRoot, nil
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)

	// Add separator to prevent "/root2" matching "/root"
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}

// GroupByLanguage groups files by their detected language.
func GroupByLanguage(files []string) map[parser.Language][]string {
	groups := make(map[parser.Language][]string)
	for _, f := range files {
		lang := parser.DetectLanguage(f)
		if lang != parser.LangUnknown {
			groups[lang] = append(groups[lang], f)
		}
	}
	return groups
}
