package metrics

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stat summarizes the distribution of one score.
type Stat struct {
	Mean float64 `json:"mean" yaml:"mean"`
	P90  float64 `json:"p90" yaml:"p90"`
	Max  float64 `json:"max" yaml:"max"`
}

// Summary holds per-score statistics over a set of results.
type Summary struct {
	Count        int  `json:"count" yaml:"count"`
	Complex      int  `json:"complex" yaml:"complex"`
	WccPlain     Stat `json:"wcc_plain" yaml:"wcc_plain"`
	WccQuantized Stat `json:"wcc_quantized" yaml:"wcc_quantized"`
	Crap         Stat `json:"crap" yaml:"crap"`
	Skunk        Stat `json:"skunk" yaml:"skunk"`
}

// Summarize computes the statistics of results. An empty input yields a
// zero Summary.
func Summarize(results []Result) Summary {
	s := Summary{Count: len(results)}
	if len(results) == 0 {
		return s
	}

	cols := make(map[SortKey][]float64, 4)
	for _, r := range results {
		if r.IsComplex {
			s.Complex++
		}
		for _, k := range []SortKey{SortWccPlain, SortWccQuantized, SortCrap, SortSkunk} {
			cols[k] = append(cols[k], k.Of(r.Scores))
		}
	}

	s.WccPlain = describe(cols[SortWccPlain])
	s.WccQuantized = describe(cols[SortWccQuantized])
	s.Crap = describe(cols[SortCrap])
	s.Skunk = describe(cols[SortSkunk])
	return s
}

func describe(xs []float64) Stat {
	sort.Float64s(xs)
	return Stat{
		Mean: stat.Mean(xs, nil),
		P90:  stat.Quantile(0.9, stat.Empirical, xs, nil),
		Max:  floats.Max(xs),
	}
}
