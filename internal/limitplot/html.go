package limitplot

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/t3mu-analysis/limitscan/internal/limits"
)

// HTMLFileName names the interactive chart for a category.
func HTMLFileName(category, outputLabel string) string {
	return "Limit_scan_Category_" + category + outputLabel + ".html"
}

// HTML renders s as a standalone interactive line chart.
func HTML(w io.Writer, s *limits.Scan, o Options) error {
	if len(s.Points) == 0 {
		return ErrEmptyScan
	}
	cuts := s.Cuts()
	lo, hi := XRange(cuts)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Limit scan " + s.Category, Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: o.title(s.Category), Subtitle: fmt.Sprintf("%d points", len(cuts))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: XLabel, NameLocation: "middle", NameGap: 25, Min: lo, Max: hi}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: YLabel, Min: yMin, Max: yMax}),
	)

	line.AddSeries(MedianLegend, lineData(cuts, s.Medians()),
		charts.WithLineStyleOpts(opts.LineStyle{Color: "black", Width: 2, Type: "dashed"}))

	if o.Bands {
		for _, b := range []struct {
			n     int
			color string
		}{{1, "#00cc00"}, {2, "#ffcc00"}} {
			bandLo, bandHi := s.Band(b.n)
			style := charts.WithLineStyleOpts(opts.LineStyle{Color: b.color, Width: 1})
			line.AddSeries(fmt.Sprintf("+%d sigma expected", b.n), lineData(cuts, bandHi), style)
			line.AddSeries(fmt.Sprintf("-%d sigma expected", b.n), lineData(cuts, bandLo), style)
		}
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render limit chart: %w", err)
	}
	return nil
}

func lineData(x, y []float64) []opts.LineData {
	data := make([]opts.LineData, len(x))
	for i := range x {
		data[i] = opts.LineData{Value: []interface{}{x[i], y[i]}}
	}
	return data
}
