package metrics

import (
	"fmt"
	"sort"
	"strings"
)

// Result is the scored metrics row of a file or function.
type Result struct {
	Path       string  `json:"path" yaml:"path"`
	Function   string  `json:"function,omitempty" yaml:"function,omitempty"`
	StartLine  int     `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	EndLine    int     `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	SLOC       int     `json:"sloc" yaml:"sloc"`
	PLOC       int     `json:"ploc" yaml:"ploc"`
	Covered    int     `json:"covered" yaml:"covered"`
	Complexity float64 `json:"complexity" yaml:"complexity"`
	Coverage   float64 `json:"coverage" yaml:"coverage"`
	Scores     `yaml:",inline"`
	IsComplex  bool `json:"is_complex" yaml:"is_complex"`
}

// IsFunction reports whether r describes a function rather than a file.
func (r Result) IsFunction() bool { return r.Function != "" }

// Name returns the display name: the path, or path:function for functions.
func (r Result) Name() string {
	if r.Function == "" {
		return r.Path
	}
	return fmt.Sprintf("%s:%s", r.Path, r.Function)
}

// NewResult scores a unit and classifies it against t.
func NewResult(path, function string, start, end int, comp float64, sloc, ploc, covered int, t Thresholds) Result {
	s := Compute(comp, sloc, ploc, covered)
	return Result{
		Path:       path,
		Function:   function,
		StartLine:  start,
		EndLine:    end,
		SLOC:       sloc,
		PLOC:       ploc,
		Covered:    covered,
		Complexity: comp,
		Coverage:   CoverageRatio(covered, ploc),
		Scores:     s,
		IsComplex:  t.IsComplex(s),
	}
}

// SortKey selects the score that orders complex units.
type SortKey string

const (
	SortWccPlain     SortKey = "wcc_plain"
	SortWccQuantized SortKey = "wcc_quantized"
	SortCrap         SortKey = "crap"
	SortSkunk        SortKey = "skunk"
)

func (k SortKey) String() string { return string(k) }

// SortKeys lists the accepted sort key names.
func SortKeys() []string {
	return []string{string(SortWccPlain), string(SortWccQuantized), string(SortCrap), string(SortSkunk)}
}

// ParseSortKey converts a name to a SortKey.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case SortWccPlain, SortWccQuantized, SortCrap, SortSkunk:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q (valid: %s)", s, strings.Join(SortKeys(), ", "))
}

// Of returns the score selected by k.
func (k SortKey) Of(s Scores) float64 {
	switch k {
	case SortWccQuantized:
		return s.WccQuantized
	case SortCrap:
		return s.Crap
	case SortSkunk:
		return s.Skunk
	default:
		return s.WccPlain
	}
}

// Rank sorts results in place, descending by key. Ties are broken by path,
// function name and start line so equal inputs always rank the same.
func Rank(results []Result, key SortKey) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if va, vb := key.Of(a.Scores), key.Of(b.Scores); va != vb {
			return va > vb
		}
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Function != b.Function {
			return a.Function < b.Function
		}
		return a.StartLine < b.StartLine
	})
}

// Complex returns the complex subset of results ranked by key. The input is
// not modified.
func Complex(results []Result, key SortKey) []Result {
	out := make([]Result, 0)
	for _, r := range results {
		if r.IsComplex {
			out = append(out, r)
		}
	}
	Rank(out, key)
	return out
}
