// Package engine scores every source file (or function) of a project
// against a coverage report on a bounded worker pool.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/panbanda/wcc/internal/fileproc"
	"github.com/panbanda/wcc/pkg/complexity"
	"github.com/panbanda/wcc/pkg/config"
	"github.com/panbanda/wcc/pkg/coverage"
	"github.com/panbanda/wcc/pkg/metrics"
)

// Engine runs scans. It holds no per-scan state and may be reused.
type Engine struct {
	provider complexity.Provider
	logger   *charmlog.Logger
	progress fileproc.ProgressFunc
	readFile func(string) ([]byte, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *charmlog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithProgress sets a callback invoked once per finished file.
func WithProgress(fn fileproc.ProgressFunc) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// WithReadFile replaces the function used to read sources (for testing).
func WithReadFile(fn func(string) ([]byte, error)) Option {
	return func(e *Engine) {
		e.readFile = fn
	}
}

// New creates an engine backed by provider.
func New(provider complexity.Provider, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		logger:   charmlog.Default(),
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scan scores files, which were found under root, against report using the
// settings in run. Unit failures become Ignored entries; only cancellation
// of ctx is returned as an error.
func (e *Engine) Scan(ctx context.Context, root string, files []string, report *coverage.Report, run config.Run) (*Outcome, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	roots := []string{absRoot}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil && resolved != absRoot {
		roots = append(roots, resolved)
	}

	w := worker{
		engine: e,
		roots:  roots,
		report: report,
		run:    run,
	}
	agg := newAggregator(len(files))

	e.logger.Debug("scan starting", "files", len(files), "workers", fileproc.Workers(run.Workers), "mode", run.Mode, "complexity", run.Complexity)

	err = fileproc.Stream(ctx, files, run.Workers, w.process, func(_ int, u unitOutput) {
		for _, ig := range u.ignored {
			e.logger.Debug("ignored", "path", ig.Path, "function", ig.Function, "reason", ig.Reason, "detail", ig.Detail)
		}
		agg.add(u)
	}, e.progress)
	if err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}

	out := agg.finish(run.Sort)
	e.logger.Info("scan finished",
		"metrics", len(out.Metrics),
		"ignored", len(out.Ignored),
		"complex", len(out.Complex),
		"coverage", fmt.Sprintf("%.2f%%", out.ProjectCoverage.Percent()))
	return out, nil
}

// unitOutput is everything one work item hands back to the aggregator.
type unitOutput struct {
	results []metrics.Result
	ignored []Ignored
	// counts is added to the project coverage when processed is set.
	counts    coverage.Counts
	processed bool
}

type worker struct {
	engine *Engine
	// the root as given and, when different, with symlinks resolved
	roots  []string
	report *coverage.Report
	run    config.Run
}

func (w worker) process(ctx context.Context, path string) unitOutput {
	root, rel := w.relative(path)

	cov, ok := w.report.Lookup(root, path)
	if !ok {
		return ignoredOnly(rel, ReasonNoCoverage, "")
	}

	source, err := w.engine.readFile(path)
	if err != nil {
		return ignoredOnly(rel, ReasonUnreadable, err.Error())
	}

	file, err := w.engine.provider.Analyze(ctx, rel, source, w.run.Complexity)
	if err != nil {
		return ignoredOnly(rel, ReasonUnparsable, err.Error())
	}

	if w.run.Mode == config.ModeFunctions {
		return w.functions(rel, cov, file)
	}

	counts := cov.Counts()
	if counts.Coverable == 0 {
		return ignoredOnly(rel, ReasonZeroCoverable, "")
	}
	r := metrics.NewResult(rel, "", 0, 0, file.Value, file.SLOC, counts.Coverable, counts.Covered, w.run.Thresholds)
	return unitOutput{results: []metrics.Result{r}, counts: counts, processed: true}
}

func (w worker) functions(rel string, cov *coverage.File, file *complexity.File) unitOutput {
	if len(file.Functions) == 0 {
		return ignoredOnly(rel, ReasonNoFunctions, "")
	}

	var (
		out   unitOutput
		spans []coverage.Span
	)
	for _, fn := range file.Functions {
		counts := cov.SpanCounts(fn.StartLine, fn.EndLine)
		if counts.Coverable == 0 {
			out.ignored = append(out.ignored, Ignored{
				Path:      rel,
				Function:  fn.Name,
				StartLine: fn.StartLine,
				Reason:    ReasonZeroCoverable,
			})
			continue
		}
		sloc := fn.EndLine - fn.StartLine + 1
		out.results = append(out.results, metrics.NewResult(
			rel, fn.Name, fn.StartLine, fn.EndLine,
			fn.Value, sloc, counts.Coverable, counts.Covered, w.run.Thresholds,
		))
		spans = append(spans, coverage.Span{Start: fn.StartLine, End: fn.EndLine})
	}

	// Nested functions overlap; each line joins the project ratio once.
	if len(out.results) > 0 {
		out.counts = cov.UnionCounts(spans)
		out.processed = true
	}
	return out
}

// relative returns the root containing path and path relative to it with
// forward slashes. Paths outside every root are returned unchanged.
func (w worker) relative(path string) (string, string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return w.roots[0], filepath.ToSlash(path)
	}
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return root, filepath.ToSlash(rel)
		}
	}
	return w.roots[0], filepath.ToSlash(path)
}

func ignoredOnly(path string, reason Reason, detail string) unitOutput {
	return unitOutput{ignored: []Ignored{{Path: path, Reason: reason, Detail: detail}}}
}
