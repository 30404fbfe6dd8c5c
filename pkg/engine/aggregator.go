package engine

import (
	"github.com/panbanda/wcc/pkg/coverage"
	"github.com/panbanda/wcc/pkg/metrics"
)

// aggregator folds worker output into an Outcome. It is the only writer of
// the outcome collections and is never shared between goroutines.
type aggregator struct {
	metrics []metrics.Result
	ignored []Ignored
	totals  coverage.Counts
}

func newAggregator(capacity int) *aggregator {
	return &aggregator{
		metrics: make([]metrics.Result, 0, capacity),
		ignored: make([]Ignored, 0),
	}
}

func (a *aggregator) add(u unitOutput) {
	a.metrics = append(a.metrics, u.results...)
	a.ignored = append(a.ignored, u.ignored...)
	if u.processed {
		a.totals = a.totals.Add(u.counts)
	}
}

func (a *aggregator) finish(key metrics.SortKey) *Outcome {
	return &Outcome{
		Metrics:         a.metrics,
		Ignored:         a.ignored,
		Complex:         metrics.Complex(a.metrics, key),
		ProjectCoverage: newProjectCoverage(a.totals),
	}
}
