package engine

import (
	"github.com/panbanda/wcc/pkg/coverage"
	"github.com/panbanda/wcc/pkg/metrics"
)

// Reason explains why a unit was left out of the metrics.
type Reason string

const (
	ReasonNoCoverage    Reason = "no coverage data"
	ReasonZeroCoverable Reason = "zero coverable lines"
	ReasonUnparsable    Reason = "unparsable"
	ReasonUnreadable    Reason = "unreadable"
	ReasonNoFunctions   Reason = "no functions"
)

func (r Reason) String() string { return string(r) }

// Reasons lists every reason in report order.
func Reasons() []Reason {
	return []Reason{ReasonNoCoverage, ReasonZeroCoverable, ReasonUnparsable, ReasonUnreadable, ReasonNoFunctions}
}

// Ignored is a file or function that produced no metrics row.
type Ignored struct {
	Path      string `json:"path" yaml:"path"`
	Function  string `json:"function,omitempty" yaml:"function,omitempty"`
	StartLine int    `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	Reason    Reason `json:"reason" yaml:"reason"`
	Detail    string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// ProjectCoverage is the pooled coverage of every processed unit.
type ProjectCoverage struct {
	Covered   int     `json:"covered" yaml:"covered"`
	Coverable int     `json:"coverable" yaml:"coverable"`
	Ratio     float64 `json:"ratio" yaml:"ratio"`
}

func newProjectCoverage(c coverage.Counts) ProjectCoverage {
	return ProjectCoverage{Covered: c.Covered, Coverable: c.Coverable, Ratio: c.Ratio()}
}

// Percent returns the ratio as a percentage.
func (p ProjectCoverage) Percent() float64 { return p.Ratio * 100 }

// Outcome is the result of a scan.
type Outcome struct {
	// Metrics holds every scored unit in file enumeration order.
	Metrics []metrics.Result `json:"metrics" yaml:"metrics"`
	// Ignored holds every unit that could not be scored, in the same order.
	Ignored []Ignored `json:"ignored" yaml:"ignored"`
	// Complex is the ranked subset of Metrics flagged as complex.
	Complex         []metrics.Result `json:"complex" yaml:"complex"`
	ProjectCoverage ProjectCoverage  `json:"project_coverage" yaml:"project_coverage"`
}

// IgnoredByReason counts ignored units per reason.
func (o *Outcome) IgnoredByReason() map[Reason]int {
	out := make(map[Reason]int)
	for _, ig := range o.Ignored {
		out[ig.Reason]++
	}
	return out
}

// FileGroup is a file and the function rows that belong to it.
type FileGroup struct {
	Path      string           `json:"path" yaml:"path"`
	Functions []metrics.Result `json:"functions" yaml:"functions"`
}

// GroupByFile nests function rows under their file, keeping first-seen
// file order.
func GroupByFile(results []metrics.Result) []FileGroup {
	index := make(map[string]int)
	var groups []FileGroup
	for _, r := range results {
		i, ok := index[r.Path]
		if !ok {
			i = len(groups)
			index[r.Path] = i
			groups = append(groups, FileGroup{Path: r.Path})
		}
		groups[i].Functions = append(groups[i].Functions, r)
	}
	return groups
}
