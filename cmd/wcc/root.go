package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/panbanda/wcc/internal/logging"
	"github.com/panbanda/wcc/internal/output"
	"github.com/panbanda/wcc/internal/progress"
	"github.com/panbanda/wcc/internal/service/analysis"
	"github.com/panbanda/wcc/pkg/config"
	"github.com/panbanda/wcc/pkg/engine"
	"github.com/panbanda/wcc/pkg/metrics"
	"github.com/spf13/cobra"
)

const rootLong = `wcc combines structural complexity with line coverage from a grcov
JSON report and flags the files or functions that are both complex and
poorly tested.

Four scores are computed per unit:

  wcc_plain      complexity * (1 - coverage), or complexity * sloc / ploc
                 for a unit with no covered line
  wcc_quantized  q * (1 - coverage), q = 1 up to complexity 15, else 2
  crap           complexity^2 * (1 - coverage)^3 + complexity
  skunk          complexity / 25 * (1 - coverage)

A unit is complex when any score is strictly greater than its threshold.
--thresholds takes the four limits in the order
wcc_plain,wcc_quantized,crap,skunk and defaults to 35.0,1.5,35.0,30.0.

Threshold ranges:
  wcc_plain      0 up to complexity * sloc / ploc
  wcc_quantized  0 up to 2 (1.5 flags q = 2 units below 25% coverage)
  crap           complexity up to complexity^2 + complexity
  skunk          0 up to complexity / 25

Examples:
  wcc -p . -j coveralls.json
  wcc -p . -j covdir.json -f covdir -m functions -s crap
  wcc -p . -j coveralls.json --html report.html --csv metrics.csv
  wcc -p . -j coveralls.json -t 20,1.5,30,25 -n 8`

// rootOptions holds the flags of the scan command.
type rootOptions struct {
	configPath string
	verbose    bool

	project    string
	report     string
	jsonFormat string
	complexity string
	mode       string
	sort       string
	thresholds string
	threads    int

	outputs []string
	top     int
	noCache bool
	noColor bool
}

// formatFlags maps an output flag to the format it writes.
var formatFlags = []struct {
	name   string
	format output.Format
}{
	{"csv", output.FormatCSV},
	{"json", output.FormatJSON},
	{"html", output.FormatHTML},
	{"yaml", output.FormatYAML},
	{"toon", output.FormatTOON},
	{"markdown", output.FormatMarkdown},
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "wcc -p <project> -j <report.json>",
		Short:         "Weighted code coverage: find complex code that tests do not reach",
		Long:          rootLong,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd.Context(), cmd, opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to config file (TOML, YAML, or JSON)")
	pf.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging on stderr")

	f := cmd.Flags()
	f.StringVarP(&opts.project, "project", "p", "", "Project root to analyze")
	f.StringVarP(&opts.report, "report", "j", "", "grcov JSON coverage report")
	f.StringVarP(&opts.jsonFormat, "json-format", "f", "coveralls", "Report schema: coveralls or covdir")
	f.StringVarP(&opts.complexity, "complexity", "c", "cyclomatic", "Complexity metric: cyclomatic or cognitive")
	f.StringVarP(&opts.mode, "mode", "m", "files", "Unit of analysis: files or functions")
	f.StringVarP(&opts.sort, "sort", "s", "wcc_plain", "Rank complex units by wcc_plain, wcc_quantized, crap or skunk")
	f.StringVarP(&opts.thresholds, "thresholds", "t", metrics.DefaultThresholds, "Limits for wcc_plain,wcc_quantized,crap,skunk")
	f.IntVarP(&opts.threads, "threads", "n", 2, "Worker count (0 runs one worker)")
	for _, ff := range formatFlags {
		f.String(ff.name, "", fmt.Sprintf("Write the %s report to this path", ff.format))
	}
	f.StringArrayVarP(&opts.outputs, "output", "o", nil, "Write a report to this path, format chosen by extension (repeatable)")
	f.IntVar(&opts.top, "top", 20, "Complex units listed on the console, 0 for all")
	f.BoolVar(&opts.noCache, "no-cache", false, "Disable the complexity cache")
	f.BoolVar(&opts.noColor, "no-color", false, "Disable colored console output")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newCacheCmd())

	return cmd
}

// loadConfig loads the --config file or the first standard config file.
func loadConfig(path string) (*config.LoadResult, error) {
	var opts []config.LoadOption
	if path != "" {
		opts = append(opts, config.WithPath(path))
	}
	return config.LoadConfig(opts...)
}

// applyFlags overrides file settings with the flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts *rootOptions) error {
	flags := cmd.Flags()
	if flags.Changed("json-format") {
		cfg.Analysis.JSONFormat = opts.jsonFormat
	}
	if flags.Changed("complexity") {
		cfg.Analysis.Complexity = opts.complexity
	}
	if flags.Changed("mode") {
		cfg.Analysis.Mode = opts.mode
	}
	if flags.Changed("sort") {
		cfg.Analysis.Sort = opts.sort
	}
	if flags.Changed("threads") {
		if opts.threads < 0 {
			return &config.Error{Field: "threads", Err: fmt.Errorf("must not be negative (got %d)", opts.threads)}
		}
		cfg.Analysis.Threads = opts.threads
	}
	if flags.Changed("thresholds") {
		if err := cfg.SetThresholds(opts.thresholds); err != nil {
			return err
		}
	}
	if flags.Changed("top") {
		if opts.top < 0 {
			return &config.Error{Field: "top", Err: fmt.Errorf("must not be negative (got %d)", opts.top)}
		}
		cfg.Output.Top = opts.top
	}
	if opts.noCache {
		cfg.Cache.Enabled = false
	}
	if opts.noColor {
		cfg.Output.Color = false
	}
	return nil
}

// outputTargets collects the report files requested by the format flags and
// by --output.
func outputTargets(cmd *cobra.Command, opts *rootOptions) []output.Target {
	var targets []output.Target
	for _, ff := range formatFlags {
		if path, _ := cmd.Flags().GetString(ff.name); path != "" {
			targets = append(targets, output.Target{Format: ff.format, Path: path})
		}
	}
	for _, path := range opts.outputs {
		targets = append(targets, output.Target{Format: output.FormatForPath(path), Path: path})
	}
	return targets
}

func runScan(ctx context.Context, cmd *cobra.Command, opts *rootOptions) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()
	logger := logging.New(stderr, opts.verbose)

	loaded, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	cfg := loaded.Config
	if loaded.Source != "" {
		logger.Debug("config loaded", "path", loaded.Source)
	}
	if err := applyFlags(cmd, cfg, opts); err != nil {
		return err
	}

	if opts.project == "" {
		return &config.Error{Field: "project", Err: errors.New("required (-p)")}
	}
	if opts.report == "" {
		return &config.Error{Field: "report", Err: errors.New("required (-j)")}
	}
	run, err := cfg.Resolve(opts.project, opts.report)
	if err != nil {
		return err
	}
	logger.Debug("run", "mode", run.Mode, "complexity", run.Complexity,
		"sort", run.Sort, "thresholds", run.Thresholds, "workers", run.Workers)

	var spinner, tracker *progress.Tracker
	showProgress := !opts.verbose && isTerminal(stderr)
	if showProgress {
		spinner = progress.NewSpinner(stderr, "Reading report and project...")
	}
	svc := analysis.New(analysis.WithConfig(cfg), analysis.WithLogger(logger))
	res, err := svc.Analyze(ctx, run, analysis.Options{
		OnScanned: func(files int) {
			spinner.Done()
			spinner = nil
			if showProgress {
				tracker = progress.NewTracker(stderr, "Scoring files...", files)
			}
		},
		OnProgress: func() { tracker.Tick() },
	})
	if err != nil {
		spinner.Fail(err)
		tracker.Fail(err)
		return err
	}
	tracker.Done()

	doc := output.NewDocument(res.Outcome, run, res.Report.Digest())
	doc.Top = cfg.Output.Top

	targets := outputTargets(cmd, opts)
	if err := output.WriteTargets(ctx, doc, targets, run.Workers); err != nil {
		return fmt.Errorf("writing reports: %w", err)
	}

	console := output.NewWriterFormatter(output.FormatText, stdout, cfg.Output.Color)
	if err := console.Output(doc); err != nil {
		return err
	}
	if res.Report.Len() > 0 && len(res.Outcome.Metrics) == 0 && res.Outcome.IgnoredByReason()[engine.ReasonNoCoverage] > 0 {
		console.Warning("No source file under %s matched an entry in %s; check that the report paths are relative to the project root.",
			run.Project, run.Report)
	}
	for _, t := range targets {
		console.Success("Wrote %s report to %s", t.Format, t.Path)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
