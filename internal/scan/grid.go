// Package scan generates the BDT cut values a limit scan is evaluated at.
// The grid is dense around a chosen median and coarse towards the ends of
// the interval, so the fit budget is spent where the optimum is expected.
package scan

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Grid policy. These are fixed for the analysis; changing any of them
// changes the point count of every category.
const (
	// FineStep is the spacing inside the region around the median.
	FineStep = 0.02
	// CoarseStep is the spacing between the fine region and the interval ends.
	CoarseStep = 0.05
	// Closeness is the interpolation weight between an interval end and the
	// median that places the fine region boundary. Smaller values narrow the
	// fine region.
	Closeness = 0.5
	// EndpointTolerance is added to the maximum so the last coarse point
	// survives floating-point stepping.
	EndpointTolerance = 0.0001
	// Precision is the number of decimal digits every cut is rounded to.
	Precision = 2
)

// ErrInvalidInterval is returned when the bounds are not finite or
// minimum < median < maximum does not hold.
var ErrInvalidInterval = errors.New("invalid interval")

// ErrTooManyCuts is returned when a grid or list would exceed MaxCuts values.
var ErrTooManyCuts = errors.New("too many cuts")

// Interval bounds a scan and locates its fine-grained region.
type Interval struct {
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
	Median float64 `json:"median" yaml:"median"`
}

// Validate checks that every bound is finite and that Min < Median < Max.
func (iv Interval) Validate() error {
	for _, v := range []float64{iv.Min, iv.Max, iv.Median} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: bounds must be finite, got min=%g median=%g max=%g",
				ErrInvalidInterval, iv.Min, iv.Median, iv.Max)
		}
	}
	if !(iv.Min < iv.Median && iv.Median < iv.Max) {
		return fmt.Errorf("%w: need minimum < median < maximum, got min=%g median=%g max=%g",
			ErrInvalidInterval, iv.Min, iv.Median, iv.Max)
	}
	return nil
}

// CheckSize rejects intervals whose grid could exceed MaxCuts values. The
// estimate assumes FineStep spacing throughout, so it is an upper bound.
func (iv Interval) CheckSize() error {
	if n := (iv.Max-iv.Min)/FineStep + 1; n > MaxCuts {
		return fmt.Errorf("%w: interval %s spans about %.0f fine steps, limit is %d",
			ErrTooManyCuts, iv, n, MaxCuts)
	}
	return nil
}

// Cuts returns the adaptive grid for the interval.
func (iv Interval) Cuts() ([]float64, error) {
	return GenerateCuts(iv.Min, iv.Max, iv.Median)
}

// String renders the interval in the min:max:median form ParseInterval accepts.
func (iv Interval) String() string {
	return Label(iv.Min) + ":" + Label(iv.Max) + ":" + Label(iv.Median)
}

// GenerateCuts returns an ascending, duplicate-free list of cut values
// covering [minimum, maximum]. Points are FineStep apart between the two
// region boundaries and CoarseStep apart outside them. The ordering
// minimum < median < maximum is checked before anything is generated.
func GenerateCuts(minimum, maximum, median float64) ([]float64, error) {
	iv := Interval{Min: minimum, Max: maximum, Median: median}
	if err := iv.Validate(); err != nil {
		return nil, err
	}

	left := roundDecimal(blend(minimum, median), Precision)
	right := roundDecimal(blend(maximum, median), Precision)

	var cuts []float64
	cuts = append(cuts, arange(minimum, left, CoarseStep)...)
	cuts = append(cuts, arange(left, median, FineStep)...)
	cuts = append(cuts, arange(median, right, FineStep)...)
	cuts = append(cuts, arange(right, maximum+EndpointTolerance, CoarseStep)...)

	return Normalize(cuts), nil
}

// Normalize rounds every value to Precision, then sorts and removes
// duplicates in place. The rounding must come first: values such as 0.3
// and 0.29999999999999993 only collapse once rounded.
func Normalize(cuts []float64) []float64 {
	for i, v := range cuts {
		cuts[i] = Round(v, Precision)
	}
	slices.Sort(cuts)
	return slices.Compact(cuts)
}

// blend interpolates between an interval end and the median. The explicit
// conversions keep the products from being fused into a multiply-add, so
// the boundary is the same on every architecture.
func blend(end, median float64) float64 {
	return float64(end*Closeness) + float64(median*(1-Closeness))
}

// arange returns the half-open sequence [start, stop) with the given step.
// The length is ceil((stop-start)/step) and element i is start + i*delta,
// where delta is the step as actually representable after one addition.
func arange(start, stop, step float64) []float64 {
	n := math.Ceil((stop - start) / step)
	if !(n > 0) {
		return nil
	}
	count := int(n)
	out := make([]float64, count)
	out[0] = start
	delta := (start + step) - start
	for i := 1; i < count; i++ {
		out[i] = start + float64(float64(i)*delta)
	}
	return out
}

// Round scales v by 10^places, rounds half to even and scales back.
// Negative zero is returned as zero.
func Round(v float64, places int) float64 {
	scale := math.Pow10(places)
	r := math.RoundToEven(float64(v*scale)) / scale
	if r == 0 {
		return 0
	}
	return r
}

// roundDecimal rounds the exact binary value of v to places decimals,
// half to even on exact ties. Region boundaries use this form.
func roundDecimal(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return Round(v, places)
	}
	if r == 0 {
		return 0
	}
	return r
}

// Label formats a cut the way datacards and combine outputs are named:
// the shortest decimal that round-trips, with ".0" kept on whole numbers.
func Label(cut float64) string {
	if cut == 0 {
		cut = 0
	}
	s := strconv.FormatFloat(cut, 'f', -1, 64)
	if strings.ContainsRune(s, '.') {
		return s
	}
	return s + ".0"
}
