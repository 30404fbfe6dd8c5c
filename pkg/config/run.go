package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/panbanda/wcc/pkg/complexity"
	"github.com/panbanda/wcc/pkg/coverage"
	"github.com/panbanda/wcc/pkg/metrics"
)

// Mode selects whether metrics are reported per file or per function.
type Mode string

const (
	ModeFiles     Mode = "files"
	ModeFunctions Mode = "functions"
)

func (m Mode) String() string { return string(m) }

// ParseMode converts a name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeFiles, ModeFunctions:
		return m, nil
	}
	return "", fmt.Errorf("unknown mode %q (valid: files, functions)", s)
}

// Run is the immutable, fully resolved configuration of one scan.
type Run struct {
	Project    string             `json:"project" validate:"required"`
	Report     string             `json:"report" validate:"required"`
	Format     coverage.Format    `json:"json_format" validate:"oneof=coveralls covdir"`
	Complexity complexity.Kind    `json:"complexity" validate:"oneof=cyclomatic cognitive"`
	Mode       Mode               `json:"mode" validate:"oneof=files functions"`
	Sort       metrics.SortKey    `json:"sort" validate:"oneof=wcc_plain wcc_quantized crap skunk"`
	Thresholds metrics.Thresholds `json:"thresholds"`
	Workers    int                `json:"workers" validate:"gte=1"`
}

var validate = validator.New()

// fileRules mirrors the enum-valued file settings for validation.
type fileRules struct {
	Complexity string `validate:"omitempty,oneof=cyclomatic cognitive"`
	Mode       string `validate:"omitempty,oneof=files functions"`
	Sort       string `validate:"omitempty,oneof=wcc_plain wcc_quantized crap skunk"`
	Threads    int    `validate:"gte=0"`
	JSONFormat string `validate:"omitempty,oneof=coveralls covdir"`
	TTL        int    `validate:"gte=0"`
	Top        int    `validate:"gte=0"`
}

// Resolve combines c with the project and report paths into a Run. Enum
// names are parsed, the thresholds checked and the worker count clamped to
// at least one.
func (c *Config) Resolve(project, report string) (Run, error) {
	format, err := coverage.ParseFormat(orDefault(c.Analysis.JSONFormat, string(coverage.Coveralls)))
	if err != nil {
		return Run{}, &Error{Field: "json_format", Err: err}
	}
	kind, err := complexity.ParseKind(orDefault(c.Analysis.Complexity, string(complexity.DefaultKind)))
	if err != nil {
		return Run{}, &Error{Field: "complexity", Err: err}
	}
	mode, err := ParseMode(orDefault(c.Analysis.Mode, string(ModeFiles)))
	if err != nil {
		return Run{}, &Error{Field: "mode", Err: err}
	}
	sort, err := metrics.ParseSortKey(orDefault(c.Analysis.Sort, string(metrics.SortWccPlain)))
	if err != nil {
		return Run{}, &Error{Field: "sort", Err: err}
	}
	if err := c.Thresholds.Validate(); err != nil {
		return Run{}, &Error{Field: "thresholds", Err: err}
	}

	run := Run{
		Project:    project,
		Report:     report,
		Format:     format,
		Complexity: kind,
		Mode:       mode,
		Sort:       sort,
		Thresholds: c.Thresholds,
		Workers:    max(1, c.Analysis.Threads),
	}
	if err := run.Validate(); err != nil {
		return Run{}, err
	}
	return run, nil
}

// Validate checks every field of r.
func (r Run) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fromValidation(err)
	}
	if err := r.Thresholds.Validate(); err != nil {
		return &Error{Field: "thresholds", Err: err}
	}
	return nil
}

// SetThresholds parses s into c.Thresholds.
func (c *Config) SetThresholds(s string) error {
	t, err := metrics.ParseThresholds(s)
	if err != nil {
		return &Error{Field: "thresholds", Err: err}
	}
	c.Thresholds = t
	return nil
}

func fromValidation(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &Error{
			Field: strings.ToLower(fe.Field()),
			Err:   fmt.Errorf("value %v fails %q", fe.Value(), fe.Tag()+paramSuffix(fe.Param())),
		}
	}
	return &Error{Err: err}
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
