package overlay

import (
	"bytes"
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/ribbon/internal/ribbon"
)

var (
	plotRibbonColor    = color.RGBA{R: 136, G: 136, B: 136, A: 255}
	plotAmbiguousColor = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	plotTierColors     = map[ribbon.DensityTier]color.Color{
		ribbon.TierA: color.RGBA{R: 255, A: 255},
		ribbon.TierB: color.RGBA{R: 255, G: 165, A: 255},
		ribbon.TierC: color.RGBA{R: 230, G: 200, A: 255},
	}
)

// PlanPlotPNG draws the projected ribbon in plan view with every packet
// overlaid in its tier colour and the ambiguous points marked.
func PlanPlotPNG(xy []ribbon.ProjectedPoint, rep *ribbon.Report, width, height vg.Length) ([]byte, error) {
	if len(xy) == 0 {
		return nil, ribbon.ErrNoPoints
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Ribbon ambiguities: %d points, %d packets", len(xy), len(rep.Packets))
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Add(plotter.NewGrid())

	ribbonLine, err := plotter.NewLine(xys(xy, 0, len(xy)-1))
	if err != nil {
		return nil, err
	}
	ribbonLine.Color = plotRibbonColor
	ribbonLine.Width = vg.Points(1)
	p.Add(ribbonLine)
	p.Legend.Add("ribbon", ribbonLine)

	inLegend := make(map[ribbon.DensityTier]bool)
	for _, pk := range rep.Packets {
		if pk.Start < 0 || pk.End >= len(xy) {
			return nil, fmt.Errorf("%w: packet %d..%d over %d points", ErrIndexOutOfRange, pk.Start, pk.End, len(xy))
		}
		line, err := plotter.NewLine(xys(xy, pk.Start, pk.End))
		if err != nil {
			return nil, err
		}
		tier := pk.Tier()
		line.Color = plotTierColors[tier]
		line.Width = vg.Points(3)
		p.Add(line)
		if !inLegend[tier] {
			p.Legend.Add("tier "+string(tier), line)
			inLegend[tier] = true
		}
	}

	if len(rep.AmbiguousIdx) > 0 {
		pts := make(plotter.XYs, 0, len(rep.AmbiguousIdx))
		for _, i := range rep.AmbiguousIdx {
			if i < 0 || i >= len(xy) {
				return nil, fmt.Errorf("%w: ambiguous index %d over %d points", ErrIndexOutOfRange, i, len(xy))
			}
			pts = append(pts, plotter.XY{X: xy[i].X, Y: xy[i].Y})
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Color = plotAmbiguousColor
		scatter.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(scatter)
		p.Legend.Add("ambiguous", scatter)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return nil, fmt.Errorf("render plot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render plot: %w", err)
	}
	return buf.Bytes(), nil
}

func xys(xy []ribbon.ProjectedPoint, start, end int) plotter.XYs {
	out := make(plotter.XYs, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, plotter.XY{X: xy[i].X, Y: xy[i].Y})
	}
	return out
}
