// Package complexity computes structural complexity of source files and
// their functions using tree-sitter.
package complexity

import (
	"context"
	"sync"

	"github.com/panbanda/wcc/pkg/parser"
)

// Function is the complexity of one function.
type Function struct {
	Name      string  `json:"name"`
	StartLine int     `json:"start_line"`
	EndLine   int     `json:"end_line"`
	Value     float64 `json:"value"`
}

// File is the complexity of a source file.
type File struct {
	Path      string     `json:"path"`
	Language  string     `json:"language"`
	SLOC      int        `json:"sloc"`
	Value     float64    `json:"value"`
	Functions []Function `json:"functions"`
}

// Provider computes complexity for a file whose content has already been
// read. Implementations must be safe for concurrent use.
type Provider interface {
	Analyze(ctx context.Context, path string, source []byte, kind Kind) (*File, error)
}

// Ensure Analyzer implements Provider.
var _ Provider = (*Analyzer)(nil)

// Analyzer is the tree-sitter Provider. Parsers are pooled so each worker
// goroutine reuses one instead of allocating per file.
type Analyzer struct {
	parsers sync.Pool
}

// New creates a tree-sitter complexity analyzer.
func New() *Analyzer {
	a := &Analyzer{}
	a.parsers.New = func() any { return parser.New() }
	return a
}

// Supports reports whether path is in a language the analyzer can parse.
func (a *Analyzer) Supports(path string) bool {
	return parser.DetectLanguage(path) != parser.LangUnknown
}

// Analyze parses source and computes the file and per-function values for
// kind.
func (a *Analyzer) Analyze(ctx context.Context, path string, source []byte, kind Kind) (*File, error) {
	psr := a.parsers.Get().(*parser.Parser)
	defer a.parsers.Put(psr)

	tree, err := psr.Parse(ctx, path, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	rules := rulesFor(tree.Language)
	fns := parser.Functions(tree)

	out := &File{
		Path:      path,
		Language:  string(tree.Language),
		SLOC:      parser.LineCount(source),
		Functions: make([]Function, 0, len(fns)),
	}

	for _, fn := range fns {
		out.Functions = append(out.Functions, Function{
			Name:      fn.Name,
			StartLine: fn.StartLine,
			EndLine:   fn.EndLine,
			Value:     functionValue(fn, tree.Source, rules, kind),
		})
	}

	switch kind {
	case Cognitive:
		out.Value = float64(rules.cognitive(tree.Root, 0))
	default:
		// The file itself and every function each open one path.
		out.Value = float64(1 + len(fns) + rules.decisions(tree.Root, tree.Source))
	}

	return out, nil
}

func functionValue(fn parser.Function, source []byte, r *rules, kind Kind) float64 {
	if fn.Body == nil {
		if kind == Cognitive {
			return 0
		}
		return 1
	}
	if kind == Cognitive {
		return float64(r.cognitive(fn.Body, 0))
	}
	return float64(1 + r.decisions(fn.Body, source))
}
