package testutil

import (
	"path/filepath"
	"testing"

	"github.com/panbanda/wcc/pkg/coverage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateFileTree(t *testing.T) {
	root := t.TempDir()
	CreateFileTree(t, root, map[string]string{
		"a.go":       "package a\n",
		"sub/b.go":   "package b\n",
		"sub/c/d.rs": "fn main() {}\n",
	})

	assert.Equal(t, "package b\n", ReadFile(t, filepath.Join(root, "sub", "b.go")))
	assert.FileExists(t, filepath.Join(root, "sub", "c", "d.rs"))
}

func TestWriteCoveralls(t *testing.T) {
	path := WriteCoveralls(t, t.TempDir(), map[string][]int{
		"b.go": {NotCoverable, 2, 0},
		"a.go": {1},
	})
	assert.Equal(t, `{"source_files":[{"name":"a.go","coverage":[1]},{"name":"b.go","coverage":[null,2,0]}]}`,
		ReadFile(t, path))

	report, err := coverage.ParseFile(path, coverage.Coveralls)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Len())
}
