// Package limitplot draws limit scans as static PNG figures and
// interactive HTML charts.
package limitplot

import (
	"errors"
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/t3mu-analysis/limitscan/internal/limits"
)

// ErrEmptyScan is returned when a scan has no points to draw.
var ErrEmptyScan = errors.New("scan has no points")

const (
	XLabel       = "MVA cut value"
	YLabel       = "B(τ→3μ) (10⁻⁷)"
	MedianLegend = "Asymptotic CLs expected"

	yMin = 0.0
	yMax = 25.0

	// 800x600 pixels at the default 96 dpi.
	width  vg.Length = 600
	height vg.Length = 450
)

var (
	oneSigmaColor = color.RGBA{R: 0x00, G: 0xcc, B: 0x00, A: 0xff}
	twoSigmaColor = color.RGBA{R: 0xff, G: 0xcc, B: 0x00, A: 0xff}
)

var categoryTitles = map[string]string{
	"taue":  "Category: Z→τ_e τ_3μ",
	"taumu": "Category: Z→τ_μ τ_3μ",
	"tauhA": "Category: Z→τ_h,1-prong τ_3μ",
	"tauhB": "Category: Z→τ_h,3-prong τ_3μ",
	"all":   "Category: Z→ττ_3μ",
}

// CategoryTitle returns the plot title for a category, or "" when the
// category has none.
func CategoryTitle(category string) string {
	return categoryTitles[category]
}

// Options controls what is drawn.
type Options struct {
	// Title overrides the category title.
	Title string
	// Bands draws the ±1σ and ±2σ expected bands under the median.
	Bands bool
	// OutputLabel is appended to file names.
	OutputLabel string
}

func (o Options) title(category string) string {
	if o.Title != "" {
		return o.Title
	}
	return CategoryTitle(category)
}

// FileName names the PNG for a category.
func FileName(category, outputLabel string) string {
	return "Limit_scan_Category_" + category + outputLabel + ".png"
}

// XRange returns the horizontal axis range: the smallest cut up to 1.2
// times the largest. When scaling does not move the upper edge right of
// the largest cut, a fifth of the cut span is added instead.
func XRange(cuts []float64) (lo, hi float64) {
	lo, top := floats.Min(cuts), floats.Max(cuts)
	hi = top * 1.2
	if hi <= top {
		span := top - lo
		if span == 0 {
			span = 0.5
		}
		hi = top + 0.2*span
	}
	return lo, hi
}

// New builds the limit plot for s.
func New(s *limits.Scan, o Options) (*plot.Plot, error) {
	if len(s.Points) == 0 {
		return nil, ErrEmptyScan
	}
	cuts := s.Cuts()

	p := plot.New()
	p.Title.Text = o.title(s.Category)
	p.X.Label.Text = XLabel
	p.Y.Label.Text = YLabel
	p.X.Min, p.X.Max = XRange(cuts)
	p.Y.Min, p.Y.Max = yMin, yMax
	p.Add(plotter.NewGrid())

	if o.Bands {
		for _, b := range []struct {
			n     int
			c     color.Color
			label string
		}{
			{2, twoSigmaColor, "±2 std. deviation"},
			{1, oneSigmaColor, "±1 std. deviation"},
		} {
			lo, hi := s.Band(b.n)
			poly, err := plotter.NewPolygon(band(cuts, lo, hi))
			if err != nil {
				return nil, fmt.Errorf("%s band: %w", b.label, err)
			}
			poly.Color = b.c
			poly.LineStyle.Color = b.c
			p.Add(poly)
			p.Legend.Add(b.label, poly)
		}
	}

	median, err := plotter.NewLine(xys(cuts, s.Medians()))
	if err != nil {
		return nil, fmt.Errorf("median line: %w", err)
	}
	median.Color = color.Black
	median.Width = vg.Points(2)
	median.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	p.Add(median)
	p.Legend.Add(MedianLegend, median)

	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.XOffs = 10
	p.Legend.YOffs = -10
	return p, nil
}

// SavePNG draws s and writes it to dir, returning the file path.
func SavePNG(s *limits.Scan, dir string, o Options) (string, error) {
	p, err := New(s, o)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(s.Category, o.OutputLabel))
	if err := p.Save(width, height, path); err != nil {
		return "", fmt.Errorf("save limit plot: %w", err)
	}
	return path, nil
}

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	return pts
}

// band walks the upper edge left to right and the lower edge back, so the
// ring encloses the area between them.
func band(x, lo, hi []float64) plotter.XYs {
	n := len(x)
	pts := make(plotter.XYs, 2*n)
	for i := range x {
		pts[i] = plotter.XY{X: x[i], Y: hi[i]}
		pts[2*n-1-i] = plotter.XY{X: x[i], Y: lo[i]}
	}
	return pts
}
