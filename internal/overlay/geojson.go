package overlay

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/banshee-data/ribbon/internal/ribbon"
)

// BuildGeoJSON returns one LineString feature per packet, with the packet
// bounds, count, density and tier as properties.
func BuildGeoJSON(points []ribbon.RibbonPoint, rep *ribbon.Report) (*geojson.FeatureCollection, error) {
	if len(points) == 0 {
		return nil, ribbon.ErrNoPoints
	}

	fc := geojson.NewFeatureCollection()
	for n, p := range rep.Packets {
		if err := checkPacket(points, p); err != nil {
			return nil, err
		}

		line := make(orb.LineString, 0, p.Span()+1)
		for i := p.Start; i <= p.End; i++ {
			line = append(line, orb.Point{points[i].Lon, points[i].Lat})
		}

		f := geojson.NewFeature(line)
		f.Properties["name"] = fmt.Sprintf("Packet %d", n+1)
		f.Properties["start"] = p.Start
		f.Properties["end"] = p.End
		f.Properties["count"] = p.CountAmbiguous
		f.Properties["density"] = p.Density()
		f.Properties["tier"] = string(p.Tier())
		fc.Append(f)
	}
	return fc, nil
}
