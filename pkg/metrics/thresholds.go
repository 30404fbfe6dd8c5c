package metrics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultThresholds is the threshold string used when none is given.
const DefaultThresholds = "35.0,1.5,35.0,30.0"

// Thresholds are the upper bounds above which a unit is complex, in the
// order wcc_plain, wcc_quantized, crap, skunk.
type Thresholds struct {
	WccPlain     float64 `json:"wcc_plain" yaml:"wcc_plain" koanf:"wcc_plain" toml:"wcc_plain" validate:"gte=0"`
	WccQuantized float64 `json:"wcc_quantized" yaml:"wcc_quantized" koanf:"wcc_quantized" toml:"wcc_quantized" validate:"gte=0"`
	Crap         float64 `json:"crap" yaml:"crap" koanf:"crap" toml:"crap" validate:"gte=0"`
	Skunk        float64 `json:"skunk" yaml:"skunk" koanf:"skunk" toml:"skunk" validate:"gte=0"`
}

// Defaults returns the default thresholds.
func Defaults() Thresholds {
	return Thresholds{WccPlain: 35, WccQuantized: 1.5, Crap: 35, Skunk: 30}
}

// ThresholdError describes an invalid threshold list.
type ThresholdError struct {
	Input  string
	Reason string
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("invalid thresholds %q: %s", e.Input, e.Reason)
}

// ParseThresholds parses exactly four comma separated, finite, non-negative
// numbers.
func ParseThresholds(s string) (Thresholds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Thresholds{}, &ThresholdError{Input: s, Reason: fmt.Sprintf("want 4 values, got %d", len(parts))}
	}

	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Thresholds{}, &ThresholdError{Input: s, Reason: fmt.Sprintf("value %d (%q) is not a number", i+1, strings.TrimSpace(p))}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return Thresholds{}, &ThresholdError{Input: s, Reason: fmt.Sprintf("value %d must be finite and >= 0", i+1)}
		}
		vals[i] = v
	}

	return Thresholds{WccPlain: vals[0], WccQuantized: vals[1], Crap: vals[2], Skunk: vals[3]}, nil
}

// Validate checks that every bound is finite and non-negative.
func (t Thresholds) Validate() error {
	for i, v := range []float64{t.WccPlain, t.WccQuantized, t.Crap, t.Skunk} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return &ThresholdError{Input: t.String(), Reason: fmt.Sprintf("value %d must be finite and >= 0", i+1)}
		}
	}
	return nil
}

// IsComplex reports whether any score strictly exceeds its bound.
func (t Thresholds) IsComplex(s Scores) bool {
	return s.WccPlain > t.WccPlain ||
		s.WccQuantized > t.WccQuantized ||
		s.Crap > t.Crap ||
		s.Skunk > t.Skunk
}

// String formats t in the form accepted by ParseThresholds.
func (t Thresholds) String() string {
	return strings.Join([]string{
		strconv.FormatFloat(t.WccPlain, 'f', -1, 64),
		strconv.FormatFloat(t.WccQuantized, 'f', -1, 64),
		strconv.FormatFloat(t.Crap, 'f', -1, 64),
		strconv.FormatFloat(t.Skunk, 'f', -1, 64),
	}, ",")
}
