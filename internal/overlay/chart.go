package overlay

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/ribbon/internal/ribbon"
)

const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

// RenderChart writes an HTML page with a plan-view scatter of the ribbon
// (every stride-th point) against its ambiguous points, and a bar chart of
// packet densities.
func RenderChart(w io.Writer, xy []ribbon.ProjectedPoint, rep *ribbon.Report, stride int) error {
	if len(xy) == 0 {
		return ribbon.ErrNoPoints
	}
	stride = max(1, stride)

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	ribbonPts := make([]opts.ScatterData, 0, len(xy)/stride+1)
	for i := 0; i < len(xy); i += stride {
		p := xy[i]
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		ribbonPts = append(ribbonPts, opts.ScatterData{Value: []interface{}{p.X, p.Y, i}})
	}

	ambPts := make([]opts.ScatterData, 0, len(rep.AmbiguousIdx))
	for _, i := range rep.AmbiguousIdx {
		if i < 0 || i >= len(xy) {
			return fmt.Errorf("%w: ambiguous index %d over %d points", ErrIndexOutOfRange, i, len(xy))
		}
		p := xy[i]
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
		ambPts = append(ambPts, opts.ScatterData{Value: []interface{}{p.X, p.Y, i}})
	}

	padX := math.Max(1, (maxX-minX)*0.05)
	padY := math.Max(1, (maxY-minY)*0.05)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Ribbon ambiguities", Theme: "dark", Width: "900px", Height: "900px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Ribbon plan view", Subtitle: fmt.Sprintf("points=%d stride=%d ambiguous=%d", len(xy), stride, len(ambPts))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: math.Floor(minX - padX), Max: math.Ceil(maxX + padX), Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: math.Floor(minY - padY), Max: math.Ceil(maxY + padY), Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("ribbon", ribbonPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#9e9e9e"}))
	scatter.AddSeries("ambiguous", ambPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}))

	labels := make([]string, len(rep.Packets))
	densities := make([]opts.BarData, len(rep.Packets))
	for n, p := range rep.Packets {
		labels[n] = fmt.Sprintf("%d-%d", p.Start, p.End)
		densities[n] = opts.BarData{Value: math.Round(p.Density()*100) / 100}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "480px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Packet density", Subtitle: fmt.Sprintf("packets=%d gap=%d", len(rep.Packets), rep.Meta.PacketGap)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).
		AddSeries("density", densities,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(scatter, bar)

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
