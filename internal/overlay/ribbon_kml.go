package overlay

import (
	"fmt"

	"github.com/banshee-data/ribbon/internal/ribbon"
)

const styleRibbonOnly = "ribbonLine"

// BuildRibbonKML renders the whole ribbon at full resolution with start,
// end and northernmost-point markers, for checking the input itself.
func BuildRibbonKML(points []ribbon.RibbonPoint) (*KML, error) {
	if len(points) == 0 {
		return nil, ribbon.ErrNoPoints
	}

	north := 0
	for i, p := range points {
		if p.Lat > points[north].Lat {
			north = i
		}
	}
	last := len(points) - 1

	k := newKML("Ribbon")
	doc := &k.Document
	doc.Description = "Ribbon point sequence"
	doc.addLineStyle(styleRibbonOnly, "", 3)

	doc.addLine("Ribbon (LineString)", styleRibbonOnly, coordsRange(points, 0, last, 1), fmt.Sprintf("Points=%d", len(points)))
	doc.addPoint("Start (index 0)", "", points[0], markerDescription(0, points[0]))
	doc.addPoint("End (last index)", "", points[last], markerDescription(last, points[last]))
	doc.addPoint("Most north (max lat)", "", points[north], markerDescription(north, points[north]))
	return k, nil
}

func markerDescription(idx int, p ribbon.RibbonPoint) string {
	return fmt.Sprintf("index=%d | s_km=%v", idx, p.SKm)
}
