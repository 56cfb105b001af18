// Package limits reads the expected limits combine produces and
// summarises a scan.
package limits

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"gonum.org/v1/gonum/floats"

	"github.com/t3mu-analysis/limitscan/internal/combine"
	"github.com/t3mu-analysis/limitscan/internal/monitoring"
	"github.com/t3mu-analysis/limitscan/internal/scan"
)

// ErrNoLimitTree is returned when a combine output has no usable limit tree.
var ErrNoLimitTree = errors.New("no limit tree")

// minQuantiles is the number of expected quantiles combine always writes.
const minQuantiles = 5

// Limits holds one point's limits in combine's quantile order:
// 0.025, 0.16, 0.5, 0.84, 0.975 and, when present, the observed limit.
type Limits struct {
	Minus2      float64 `json:"minus2"`
	Minus1      float64 `json:"minus1"`
	Median      float64 `json:"median"`
	Plus1       float64 `json:"plus1"`
	Plus2       float64 `json:"plus2"`
	Observed    float64 `json:"observed,omitempty"`
	HasObserved bool    `json:"has_observed"`
}

// FromQuantiles builds Limits from the limit branch entries in file order.
// Entries past the sixth are ignored.
func FromQuantiles(values []float64) (Limits, error) {
	if len(values) < minQuantiles {
		return Limits{}, fmt.Errorf("%w: %d entries, need at least %d", ErrNoLimitTree, len(values), minQuantiles)
	}
	l := Limits{
		Minus2: values[0],
		Minus1: values[1],
		Median: values[2],
		Plus1:  values[3],
		Plus2:  values[4],
	}
	if len(values) > minQuantiles {
		l.Observed = values[5]
		l.HasObserved = true
	}
	return l, nil
}

// Reader loads the limits stored in one combine output file.
type Reader interface {
	Read(path string) (Limits, error)
}

// Point is the limits found at one cut.
type Point struct {
	Cut    float64 `json:"cut"`
	Label  string  `json:"label"`
	Limits Limits  `json:"limits"`
}

// Scan is a category's limits over all of its cuts, in cut order.
type Scan struct {
	Category string  `json:"category"`
	Points   []Point `json:"points"`
}

// Collect reads the combine output for every cut of a category from dir.
// The first unreadable file aborts the collection.
func Collect(r Reader, dir string, mass int, category string, cuts []float64) (*Scan, error) {
	s := &Scan{Category: category, Points: make([]Point, 0, len(cuts))}
	for _, cut := range cuts {
		label := scan.Label(cut)
		name := combine.OutputFile(category+label, mass)
		monitoring.Debugf("filename: %s", name)

		l, err := r.Read(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		s.Points = append(s.Points, Point{Cut: cut, Label: label, Limits: l})
	}
	return s, nil
}

// Cuts returns the cut of every point.
func (s *Scan) Cuts() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Cut
	}
	return out
}

// Medians returns the median expected limit of every point.
func (s *Scan) Medians() []float64 {
	return s.column(func(l Limits) float64 { return l.Median })
}

// Band returns the lower and upper edges of the ±n sigma band, n being 1 or 2.
func (s *Scan) Band(n int) (lo, hi []float64) {
	switch n {
	case 1:
		return s.column(func(l Limits) float64 { return l.Minus1 }),
			s.column(func(l Limits) float64 { return l.Plus1 })
	case 2:
		return s.column(func(l Limits) float64 { return l.Minus2 }),
			s.column(func(l Limits) float64 { return l.Plus2 })
	}
	return nil, nil
}

func (s *Scan) column(f func(Limits) float64) []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = f(p.Limits)
	}
	return out
}

// Best returns the point with the lowest median expected limit. On ties
// the lowest cut wins. ok is false for an empty scan.
func (s *Scan) Best() (p Point, ok bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[floats.MinIdx(s.Medians())], true
}

// TextFileName names the plain-text summary for a category and output label.
func TextFileName(category, outputLabel string) string {
	return "TextLimits" + category + outputLabel + ".txt"
}

// WriteText writes one line per point with the cut and median expected limit.
func WriteText(w io.Writer, s *Scan) error {
	for _, p := range s.Points {
		if _, err := fmt.Fprintf(w, "bdt %.2f     median exp %.2f\n", p.Cut, p.Limits.Median); err != nil {
			return err
		}
	}
	return nil
}
