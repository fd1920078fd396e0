package monitor

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot/plotter"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

func scatterData(pts plotter.XYs) []opts.ScatterData {
	out := make([]opts.ScatterData, len(pts))
	for i, p := range pts {
		out[i] = opts.ScatterData{Value: []interface{}{p.X, p.Y}}
	}
	return out
}

// extent returns a symmetric half-width covering every point, padded by 5%.
func extent(series ...plotter.XYs) float64 {
	maxAbs := 0.0
	for _, pts := range series {
		for _, p := range pts {
			maxAbs = math.Max(maxAbs, math.Max(math.Abs(p.X), math.Abs(p.Y)))
		}
	}
	if maxAbs == 0 {
		return 1
	}
	return maxAbs * 1.05
}

// TrajectoryChart is the top-down scatter of frames, keyframes and stable
// frames.
func (f *Figure) TrajectoryChart() *charts.Scatter {
	pad := extent(f.Frames, f.KeyFrames)
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: f.Title, Width: "900px", Height: "700px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: f.Title, Subtitle: fmt.Sprintf("frames=%d keyframes=%d stable=%d segments=%d", len(f.Frames), len(f.KeyFrames), len(f.Stable), len(f.Segments))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "-y", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "x", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("frames", scatterData(f.Frames), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#1f77b4"}))
	scatter.AddSeries("keyframes", scatterData(f.KeyFrames), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff7f0e"}))
	scatter.AddSeries("stable", scatterData(f.Stable), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#2ca02c"}))
	return scatter
}

// DistanceChart plots the per-keyframe distance with the open and close
// thresholds.
func (f *Figure) DistanceChart() *charts.Line {
	x := make([]string, len(f.Distances))
	dist := make([]opts.LineData, len(f.Distances))
	open := make([]opts.LineData, len(f.Distances))
	closing := make([]opts.LineData, len(f.Distances))
	for i, p := range f.Distances {
		x[i] = strconv.FormatFloat(p.X, 'f', 3, 64)
		dist[i] = opts.LineData{Value: p.Y}
		open[i] = opts.LineData{Value: f.Threshold}
		closing[i] = opts.LineData{Value: 2 * f.Threshold}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Frame/keyframe distance", Subtitle: fmt.Sprintf("threshold=%g", f.Threshold)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	line.SetXAxis(x).
		AddSeries("distance", dist).
		AddSeries("open", open, charts.WithLineStyleOpts(opts.LineStyle{Type: "solid"})).
		AddSeries("close", closing, charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))
	return line
}

// WriteHTML renders both charts on one page.
func (f *Figure) WriteHTML(w io.Writer) error {
	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(f.TrajectoryChart(), f.DistanceChart())
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	return nil
}
