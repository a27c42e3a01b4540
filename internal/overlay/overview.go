package overlay

import (
	"fmt"

	"github.com/banshee-data/ribbon/internal/ribbon"
)

const (
	ribbonLineWidth = 2
	packetLineWidth = 4

	styleRibbon       = "ribbonStyle"
	stylePacketRed    = "packetStyleRed"
	stylePacketOrange = "packetStyleOrange"
	stylePacketYellow = "packetStyleYellow"
	styleAmbPoint     = "ambPointStyle"
)

// OverviewOptions controls what the overview document draws.
type OverviewOptions struct {
	DrawFullRibbon      bool
	RibbonStep          int // full-ribbon decimation stride
	DrawPacketLines     bool
	DrawAmbiguousPoints bool
	AmbiguousPointStep  int // stride over each packet's ambiguous indices
}

// DefaultOverviewOptions matches the analysis tooling defaults.
func DefaultOverviewOptions() OverviewOptions {
	return OverviewOptions{
		DrawFullRibbon:      true,
		RibbonStep:          10,
		DrawPacketLines:     true,
		DrawAmbiguousPoints: false,
		AmbiguousPointStep:  3,
	}
}

// TierStyle returns the packet line style for a density tier.
func TierStyle(t ribbon.DensityTier) string {
	switch t {
	case ribbon.TierA:
		return stylePacketRed
	case ribbon.TierB:
		return stylePacketOrange
	default:
		return stylePacketYellow
	}
}

// BuildOverview renders every packet of rep as a line coloured by density
// tier, optionally over a decimated full-ribbon line.
func BuildOverview(points []ribbon.RibbonPoint, rep *ribbon.Report, o OverviewOptions) (*KML, error) {
	if len(points) == 0 {
		return nil, ribbon.ErrNoPoints
	}
	for _, p := range rep.Packets {
		if err := checkPacket(points, p); err != nil {
			return nil, err
		}
	}

	k := newKML("Ribbon ambiguities (packets)")
	doc := &k.Document
	doc.addLineStyle(stylePacketRed, colorRed, packetLineWidth)
	doc.addLineStyle(stylePacketOrange, colorOrange, packetLineWidth)
	doc.addLineStyle(stylePacketYellow, colorYellow, packetLineWidth)
	doc.addLineStyle(styleRibbon, colorGrey, ribbonLineWidth)
	doc.addIconStyle(styleAmbPoint, "", 0.5)

	if o.DrawFullRibbon {
		step := max(1, o.RibbonStep)
		doc.addLine(
			fmt.Sprintf("Ribbon (step=%d)", step),
			styleRibbon,
			coordsRange(points, 0, len(points)-1, step),
			fmt.Sprintf("Points: %d", len(points)),
		)
	}

	for n, p := range rep.Packets {
		if o.DrawPacketLines {
			doc.addLine(
				fmt.Sprintf("Packet %d — %d→%d", n+1, p.Start, p.End),
				TierStyle(p.Tier()),
				coordsRange(points, p.Start, p.End, 1),
				packetDescription(p)...,
			)
		}
		if o.DrawAmbiguousPoints {
			step := max(1, o.AmbiguousPointStep)
			for m := 0; m < len(p.AmbiguousIdx); m += step {
				idx := p.AmbiguousIdx[m]
				doc.addPoint(fmt.Sprintf("amb idx %d", idx), styleAmbPoint, points[idx], pointDescription(idx, points[idx])...)
			}
		}
	}
	return k, nil
}
