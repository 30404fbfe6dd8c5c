// Package metrics computes the weighted coverage risk scores (WCC plain,
// WCC quantized, CRAP and SKUNK), classifies them against thresholds and
// ranks the results.
//
// All scores combine a complexity value comp with the coverage ratio
// cov = covered/ploc:
//
//	wcc_plain     = comp * (1 - cov)          (comp * sloc / ploc when cov = 0)
//	wcc_quantized = q(comp) * (1 - cov)       q = 1 up to QuantizationCutPoint, else 2
//	crap          = comp^2 * (1 - cov)^3 + comp
//	skunk         = comp / 25 * (1 - cov)
package metrics

import "math"

// QuantizationCutPoint is the largest complexity that still weighs 1 in
// WCC quantized. Higher values weigh 2.
const QuantizationCutPoint = 15.0

// skunkDivisor scales complexity into the SKUNK penalty range.
const skunkDivisor = 25.0

// Scores holds the four risk scores of a unit.
type Scores struct {
	WccPlain     float64 `json:"wcc_plain" yaml:"wcc_plain"`
	WccQuantized float64 `json:"wcc_quantized" yaml:"wcc_quantized"`
	Crap         float64 `json:"crap" yaml:"crap"`
	Skunk        float64 `json:"skunk" yaml:"skunk"`
}

// CoverageRatio returns covered/ploc clamped to [0, 1]. ploc must be > 0.
func CoverageRatio(covered, ploc int) float64 {
	if ploc <= 0 {
		return 0
	}
	return clamp01(float64(covered) / float64(ploc))
}

// Compute returns the scores for a unit with complexity comp, sloc source
// lines, ploc coverable lines and covered hit lines. Callers route ploc == 0
// units elsewhere; Compute treats them as fully uncovered with ploc = sloc.
func Compute(comp float64, sloc, ploc, covered int) Scores {
	if comp < 0 || math.IsNaN(comp) {
		comp = 0
	}
	if math.IsInf(comp, 1) {
		comp = math.MaxFloat64
	}
	if ploc <= 0 {
		ploc = max(sloc, 1)
		covered = 0
	}
	if sloc < ploc {
		sloc = ploc
	}

	cov := CoverageRatio(covered, ploc)
	miss := 1 - cov

	return Scores{
		WccPlain:     saturate(wccPlain(comp, sloc, ploc, cov)),
		WccQuantized: quantize(comp) * miss,
		Crap:         saturate(comp*miss*miss*miss*comp + comp),
		Skunk:        skunk(comp, cov),
	}
}

// saturate caps an overflowed score at the largest finite float.
func saturate(v float64) float64 {
	if math.IsInf(v, 1) {
		return math.MaxFloat64
	}
	return v
}

func wccPlain(comp float64, sloc, ploc int, cov float64) float64 {
	if cov == 0 {
		return comp * float64(sloc) / float64(ploc)
	}
	return comp * (1 - cov)
}

func quantize(comp float64) float64 {
	if comp > QuantizationCutPoint {
		return 2
	}
	return 1
}

func skunk(comp, cov float64) float64 {
	if cov == 0 {
		return comp / skunkDivisor
	}
	return comp / skunkDivisor * (1 - cov)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
