// Package analysis runs a complete weighted coverage analysis: it reads the
// coverage report and walks the project, then scores the project on the
// scan engine. The CLI and the MCP server share it.
package analysis

import (
	"context"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/panbanda/wcc/internal/cache"
	"github.com/panbanda/wcc/internal/fileproc"
	"github.com/panbanda/wcc/internal/scanner"
	"github.com/panbanda/wcc/pkg/complexity"
	"github.com/panbanda/wcc/pkg/config"
	"github.com/panbanda/wcc/pkg/coverage"
	"github.com/panbanda/wcc/pkg/engine"
	"golang.org/x/sync/errgroup"
)

// Service orchestrates analysis runs.
type Service struct {
	config   *config.Config
	provider complexity.Provider
	logger   *charmlog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration used for exclusion and caching.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithProvider replaces the complexity provider (for testing). The cache
// is not applied to a replaced provider.
func WithProvider(p complexity.Provider) Option {
	return func(s *Service) {
		s.provider = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *charmlog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// New creates a new analysis service.
func New(opts ...Option) *Service {
	s := &Service{
		config: config.DefaultConfig(),
		logger: charmlog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Options configures a single run.
type Options struct {
	// OnScanned is called once with the number of source files found,
	// before scoring starts.
	OnScanned func(files int)
	// OnProgress is called after each file is scored.
	OnProgress fileproc.ProgressFunc
}

// Result is the outcome of a run together with the inputs it was computed
// from.
type Result struct {
	Run     config.Run
	Outcome *engine.Outcome
	Report  *coverage.Report
	Files   int
}

// Analyze parses the report and scans the project concurrently, then
// scores every file. A report or root error is returned before any file
// is scored.
func (s *Service) Analyze(ctx context.Context, run config.Run, opts Options) (*Result, error) {
	if err := run.Validate(); err != nil {
		return nil, err
	}

	var (
		report *coverage.Report
		root   string
		files  []string
	)
	g := new(errgroup.Group)
	g.Go(func() error {
		r, err := coverage.ParseFile(run.Report, run.Format)
		if err != nil {
			return err
		}
		report = r
		return nil
	})
	g.Go(func() error {
		resolved, err := scanner.ResolveRoot(run.Project)
		if err != nil {
			return err
		}
		found, err := scanner.NewScanner(s.config).ScanDir(resolved)
		if err != nil {
			return err
		}
		root, files = resolved, found
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("inputs ready",
		"report_files", report.Len(),
		"report_coverage", report.Totals().Ratio(),
		"digest", report.Digest(),
		"source_files", len(files))
	for lang, group := range scanner.GroupByLanguage(files) {
		s.logger.Debug("language", "name", lang, "files", len(group))
	}
	if opts.OnScanned != nil {
		opts.OnScanned(len(files))
	}

	eng := engine.New(s.complexityProvider(root),
		engine.WithLogger(s.logger),
		engine.WithProgress(opts.OnProgress),
	)
	out, err := eng.Scan(ctx, root, files, report, run)
	if err != nil {
		return nil, err
	}

	return &Result{Run: run, Outcome: out, Report: report, Files: len(files)}, nil
}

// complexityProvider returns the tree-sitter analyzer, behind the on-disk
// cache when caching is enabled. A cache that cannot be opened is skipped.
func (s *Service) complexityProvider(root string) complexity.Provider {
	if s.provider != nil {
		return s.provider
	}

	base := complexity.New()
	if !s.config.Cache.Enabled {
		return base
	}

	dir, err := s.config.Cache.Path(root)
	if err != nil {
		s.logger.Warn("complexity cache disabled", "err", err)
		return base
	}
	store, err := cache.New(dir, time.Duration(s.config.Cache.TTL)*time.Hour, true)
	if err != nil {
		s.logger.Warn("complexity cache disabled", "dir", dir, "err", err)
		return base
	}
	return complexity.NewCached(base, store, cache.HashBytes).WithLogger(s.logger)
}
