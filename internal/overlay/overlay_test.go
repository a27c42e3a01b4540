package overlay

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/ribbon/internal/ribbon"
)

// testPoints returns n points one thousandth of a degree apart heading north-east.
func testPoints(n int) []ribbon.RibbonPoint {
	points := make([]ribbon.RibbonPoint, n)
	for i := range points {
		points[i] = ribbon.RibbonPoint{
			SKm: float64(i) * 0.1,
			Lat: 48 + float64(i)*0.001,
			Lon: 2 + float64(i)*0.001,
		}
	}
	return points
}

func testReport() *ribbon.Report {
	return &ribbon.Report{
		AmbiguousIdx: []int{2, 3, 4, 10, 20, 30},
		Packets: []ribbon.Packet{
			{
				Start: 2, End: 4, CountAmbiguous: 3, AmbiguousIdx: []int{2, 3, 4},
				SampleHits: []ribbon.AmbiguityHit{{I: 2, J: 60, DistM: 12.34, DeltaIdx: 58}, {I: 3, J: 61, DistM: 3, DeltaIdx: 58}},
			},
			{
				Start: 10, End: 10, CountAmbiguous: 1, AmbiguousIdx: []int{10},
				SampleHits: []ribbon.AmbiguityHit{{I: 10, J: 70, DistM: 1, DeltaIdx: 60}},
			},
			{
				Start: 20, End: 30, CountAmbiguous: 2, AmbiguousIdx: []int{20, 30},
				SampleHits: []ribbon.AmbiguityHit{{I: 20, J: 80, DistM: 5, DeltaIdx: 60}},
			},
		},
	}
}

func encodeKML(t *testing.T, k *KML) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, k.Encode(&buf))
	return buf.String()
}

func placemark(t *testing.T, k *KML, name string) Placemark {
	t.Helper()
	for _, pm := range k.Document.Placemarks {
		if pm.Name == name {
			return pm
		}
	}
	t.Fatalf("placemark %q not found", name)
	return Placemark{}
}

func TestCoordsRange(t *testing.T) {
	points := testPoints(12)

	assert.Equal(t, "2,48,0", coord(points[0]))
	assert.Equal(t, "2,48,0", coordsRange(points, 0, 0, 1))
	assert.Equal(t, coord(points[1])+" "+coord(points[2]), coordsRange(points, 1, 2, 1))

	decimated := strings.Split(coordsRange(points, 0, 11, 5), " ")
	assert.Equal(t, []string{coord(points[0]), coord(points[5]), coord(points[10]), coord(points[11])}, decimated)
}

func TestBuildOverview(t *testing.T) {
	points := testPoints(100)
	k, err := BuildOverview(points, testReport(), DefaultOverviewOptions())
	require.NoError(t, err)

	assert.Equal(t, kmlNamespace, k.Namespace)
	require.Len(t, k.Document.Styles, 5)
	assert.Len(t, k.Document.Placemarks, 4) // ribbon + 3 packets

	ribbonLine := placemark(t, k, "Ribbon (step=10)")
	assert.Equal(t, "#ribbonStyle", ribbonLine.StyleURL)
	assert.Len(t, strings.Split(ribbonLine.LineString.Coordinates, " "), 11)

	first := placemark(t, k, "Packet 1 — 2→4")
	assert.Equal(t, "#packetStyleRed", first.StyleURL) // density 1.5
	assert.Equal(t, 1, first.LineString.Tessellate)
	assert.Equal(t, coordsRange(points, 2, 4, 1), first.LineString.Coordinates)
	assert.Equal(t, "idx: 2 → 4 (span=2)<br/>ambiguous: 3<br/>density≈1.50<br/>sampleHits: 2", first.Description.Text)

	single := placemark(t, k, "Packet 2 — 10→10")
	assert.Equal(t, "#packetStyleRed", single.StyleURL)
	assert.Equal(t, coord(points[10]), single.LineString.Coordinates)

	sparse := placemark(t, k, "Packet 3 — 20→30")
	assert.Equal(t, "#packetStyleYellow", sparse.StyleURL) // density 0.2
	assert.Len(t, strings.Split(sparse.LineString.Coordinates, " "), 11)
}

func TestBuildOverview_Options(t *testing.T) {
	points := testPoints(100)
	o := OverviewOptions{DrawAmbiguousPoints: true, AmbiguousPointStep: 2, DrawPacketLines: false}
	k, err := BuildOverview(points, testReport(), o)
	require.NoError(t, err)

	var names []string
	for _, pm := range k.Document.Placemarks {
		names = append(names, pm.Name)
		require.NotNil(t, pm.Point)
		assert.Equal(t, "#ambPointStyle", pm.StyleURL)
	}
	assert.Equal(t, []string{"amb idx 2", "amb idx 4", "amb idx 10", "amb idx 20"}, names)
	assert.Equal(t, "idx=2<br/>s_km=0.2", k.Document.Placemarks[0].Description.Text)
}

func TestBuildOverview_Errors(t *testing.T) {
	_, err := BuildOverview(nil, testReport(), DefaultOverviewOptions())
	assert.True(t, errors.Is(err, ribbon.ErrNoPoints))

	_, err = BuildOverview(testPoints(25), testReport(), DefaultOverviewOptions())
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestTierStyle(t *testing.T) {
	assert.Equal(t, "packetStyleRed", TierStyle(ribbon.TierA))
	assert.Equal(t, "packetStyleOrange", TierStyle(ribbon.TierB))
	assert.Equal(t, "packetStyleYellow", TierStyle(ribbon.TierC))
}

func TestKMLEncode(t *testing.T) {
	k, err := BuildOverview(testPoints(100), testReport(), DefaultOverviewOptions())
	require.NoError(t, err)
	out := encodeKML(t, k)

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<kml xmlns="http://www.opengis.net/kml/2.2">`)
	assert.Contains(t, out, `<Style id="packetStyleOrange">`)
	assert.Contains(t, out, `<color>ff00a5ff</color>`)
	assert.Contains(t, out, `<![CDATA[idx: 2 → 4 (span=2)<br/>`)
	assert.Contains(t, out, `<href>http://maps.google.com/mapfiles/kml/shapes/placemark_circle.png</href>`)

	var decoded KML
	require.NoError(t, xml.Unmarshal([]byte(out), &decoded))
	assert.Len(t, decoded.Document.Placemarks, len(k.Document.Placemarks))
	assert.Equal(t, k.Document.Placemarks[1].Name, decoded.Document.Placemarks[1].Name)
}

func TestSelectPacket(t *testing.T) {
	rep := testReport()

	sel, err := SelectPacket(rep, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "packet1", sel.Label)
	assert.Equal(t, 2, sel.Packet.Start)

	sel, err = SelectPacket(rep, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, "packet3", sel.Label)
	assert.Equal(t, 2, sel.Index)
	assert.Equal(t, "ribbon_packet_detail_packet3_20_30.kml", sel.FileName())

	// Densities: 1.5, 1, 0.2.
	sel, err = SelectPacket(rep, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 10, sel.Packet.Start)
	assert.Equal(t, "rank2_json#2_dens1.00", sel.Label)

	// rank wins over number.
	sel, err = SelectPacket(rep, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 20, sel.Packet.Start)

	_, err = SelectPacket(rep, 4, 0)
	assert.True(t, errors.Is(err, ErrInvalidSelection))
	_, err = SelectPacket(rep, 0, -1)
	assert.True(t, errors.Is(err, ErrInvalidSelection))
	_, err = SelectPacket(&ribbon.Report{}, 1, 0)
	assert.True(t, errors.Is(err, ErrNoPackets))
}

func TestSelectPacket_RankTiesKeepReportOrder(t *testing.T) {
	rep := &ribbon.Report{Packets: []ribbon.Packet{
		{Start: 5, End: 5, CountAmbiguous: 1},
		{Start: 50, End: 50, CountAmbiguous: 1},
	}}
	sel, err := SelectPacket(rep, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, sel.Packet.Start)
}

func TestBuildPacketDetail(t *testing.T) {
	points := testPoints(100)
	sel, err := SelectPacket(testReport(), 1, 0)
	require.NoError(t, err)

	k, err := BuildPacketDetail(points, sel, DefaultDetailOptions())
	require.NoError(t, err)

	assert.Equal(t, "Ribbon detail packet1 — 2→4", k.Document.Name)
	require.Len(t, k.Document.Styles, 3)
	// segment + 3 ambiguous points + 2 links
	require.Len(t, k.Document.Placemarks, 6)

	link := placemark(t, k, "link 1")
	assert.Equal(t, "#linkLine", link.StyleURL)
	assert.Equal(t, coord(points[2])+" "+coord(points[60]), link.LineString.Coordinates)
	assert.Equal(t, "i=2, j=60<br/>dist≈12.3m<br/>Δidx=58", link.Description.Text)

	k, err = BuildPacketDetail(points, sel, DetailOptions{AmbiguousPointStep: 1, MaxLinks: 1})
	require.NoError(t, err)
	assert.Len(t, k.Document.Placemarks, 5)
}

func TestBuildPacketDetail_HitOutsidePoints(t *testing.T) {
	sel, err := SelectPacket(testReport(), 1, 0)
	require.NoError(t, err)

	_, err = BuildPacketDetail(testPoints(50), sel, DefaultDetailOptions())
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestBuildRibbonKML(t *testing.T) {
	points := testPoints(10)
	points[4].Lat = 60

	k, err := BuildRibbonKML(points)
	require.NoError(t, err)
	require.Len(t, k.Document.Placemarks, 4)

	line := k.Document.Placemarks[0]
	assert.Len(t, strings.Split(line.LineString.Coordinates, " "), 10)
	assert.Equal(t, "Points=10", line.Description.Text)

	north := placemark(t, k, "Most north (max lat)")
	assert.Equal(t, coord(points[4]), north.Point.Coordinates)
	assert.Equal(t, "index=4 | s_km=0.4", north.Description.Text)

	end := placemark(t, k, "End (last index)")
	assert.Equal(t, coord(points[9]), end.Point.Coordinates)

	_, err = BuildRibbonKML(nil)
	assert.True(t, errors.Is(err, ribbon.ErrNoPoints))
}

func TestBuildGeoJSON(t *testing.T) {
	points := testPoints(100)
	fc, err := BuildGeoJSON(points, testReport())
	require.NoError(t, err)
	require.Len(t, fc.Features, 3)

	data, err := fc.MarshalJSON()
	require.NoError(t, err)

	var raw struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string      `json:"type"`
				Coordinates [][]float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "FeatureCollection", raw.Type)

	f := raw.Features[0]
	assert.Equal(t, "LineString", f.Geometry.Type)
	require.Len(t, f.Geometry.Coordinates, 3)
	assert.Equal(t, []float64{points[2].Lon, points[2].Lat}, f.Geometry.Coordinates[0])
	assert.Equal(t, "A", f.Properties["tier"])
	assert.Equal(t, 2.0, f.Properties["start"])
	assert.Equal(t, "C", raw.Features[2].Properties["tier"])
}

func TestPlanPlotPNG(t *testing.T) {
	xy := make([]ribbon.ProjectedPoint, 100)
	for i := range xy {
		xy[i] = ribbon.ProjectedPoint{X: float64(i) * 10, Y: float64(i%7) * 3}
	}

	data, err := PlanPlotPNG(xy, testReport(), 4*vg.Inch, 3*vg.Inch)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")))

	_, err = PlanPlotPNG(nil, testReport(), 4*vg.Inch, 3*vg.Inch)
	assert.True(t, errors.Is(err, ribbon.ErrNoPoints))

	_, err = PlanPlotPNG(xy[:20], testReport(), 4*vg.Inch, 3*vg.Inch)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestRenderChart(t *testing.T) {
	xy := make([]ribbon.ProjectedPoint, 100)
	for i := range xy {
		xy[i] = ribbon.ProjectedPoint{X: float64(i) * 10, Y: -float64(i)}
	}

	var buf bytes.Buffer
	require.NoError(t, RenderChart(&buf, xy, testReport(), 5))
	out := buf.String()
	assert.Contains(t, out, "Ribbon plan view")
	assert.Contains(t, out, "Packet density")
	assert.Contains(t, out, "20-30")

	assert.True(t, errors.Is(RenderChart(&buf, nil, testReport(), 1), ribbon.ErrNoPoints))
}
