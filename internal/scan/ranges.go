package scan

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxCuts bounds how many cut values an explicit range or list may produce.
const MaxCuts = 10000

// RangeSpec defines an evenly stepped cut range.
type RangeSpec struct {
	Min  float64
	Max  float64
	Step float64
}

// ParseInterval parses a "min:max:median" string into a validated Interval
// whose grid stays within MaxCuts.
func ParseInterval(s string) (Interval, error) {
	vals, err := parseTriple(s, "min:max:median")
	if err != nil {
		return Interval{}, err
	}
	iv := Interval{Min: vals[0], Max: vals[1], Median: vals[2]}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	if err := iv.CheckSize(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

// ParseRangeSpec parses a "min:max:step" string into a RangeSpec.
// Returns an error if the format is invalid or values cannot be parsed.
func ParseRangeSpec(s string) (RangeSpec, error) {
	vals, err := parseTriple(s, "min:max:step")
	if err != nil {
		return RangeSpec{}, err
	}
	if vals[2] <= 0 {
		return RangeSpec{}, fmt.Errorf("step must be positive, got %f", vals[2])
	}
	return RangeSpec{Min: vals[0], Max: vals[1], Step: vals[2]}, nil
}

func parseTriple(s, format string) ([3]float64, error) {
	var out [3]float64
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return out, fmt.Errorf("invalid range format %q: expected %s", s, format)
	}
	names := strings.Split(format, ":")
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, fmt.Errorf("invalid %s value %q: %w", names[i], p, err)
		}
		out[i] = v
	}
	return out, nil
}

// GenerateRange generates cut values from min to max (inclusive) stepping by
// step, rounded to Precision. Returns nil if min > max, the step is not
// positive, or the range would exceed MaxCuts values.
func GenerateRange(min, max, step float64) []float64 {
	if step <= 0 || min > max {
		return nil
	}

	expectedCount := int((max-min)/step) + 1
	if expectedCount > MaxCuts || expectedCount < 0 {
		return nil
	}

	var result []float64
	for i := 0; i < expectedCount+1 && len(result) < MaxCuts; i++ {
		// Index-based stepping so error does not accumulate across the range.
		v := Round(min+float64(float64(i)*step), Precision)
		if v > max+step/1000 {
			break
		}
		if len(result) > 0 && result[len(result)-1] == v {
			continue
		}
		result = append(result, v)
	}
	return result
}

// ParseCutList parses a comma-separated list of cuts or a "min:max:step"
// range. List entries are rounded to Precision, sorted and deduplicated.
func ParseCutList(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	if strings.Contains(s, ":") {
		spec, err := ParseRangeSpec(s)
		if err != nil {
			return nil, err
		}
		cuts := GenerateRange(spec.Min, spec.Max, spec.Step)
		if len(cuts) == 0 {
			return nil, fmt.Errorf("range %q produces no cuts (limit %d)", s, MaxCuts)
		}
		return cuts, nil
	}

	vals, err := ParseCSVFloat64s(s)
	if err != nil {
		return nil, err
	}
	if len(vals) > MaxCuts {
		return nil, fmt.Errorf("cut list has %d entries, limit is %d", len(vals), MaxCuts)
	}
	return Normalize(vals), nil
}

// ParseCSVFloat64s parses a comma-separated list of float64 values.
// Returns nil, nil for empty input strings.
func ParseCSVFloat64s(s string) ([]float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float '%s': %w", p, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("invalid float '%s': not finite", p)
		}
		out = append(out, v)
	}
	return out, nil
}
