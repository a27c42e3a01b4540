package ribbon

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/twpayne/go-gpx"

	"github.com/banshee-data/ribbon/internal/fsutil"
)

// LoadPoints reads a ribbon from path, choosing the decoder by extension:
// .json (array of {s_km, lat, lon}), .csv (header naming s_km, lat, lon) or
// .gpx (track points, s_km derived from cumulative distance).
func LoadPoints(fsys fsutil.FileSystem, path string) ([]RibbonPoint, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open points: %w", err)
	}
	defer f.Close()

	var points []RibbonPoint
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		points, err = DecodePointsJSON(f)
	case ".csv":
		points, err = DecodePointsCSV(f)
	case ".gpx":
		points, err = DecodePointsGPX(f)
	default:
		return nil, fmt.Errorf("unsupported points file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return points, nil
}

// DecodePointsJSON decodes a JSON array of points. Anything other than a
// non-empty array is ErrNoPoints.
func DecodePointsJSON(r io.Reader) ([]RibbonPoint, error) {
	var points []RibbonPoint
	if err := json.NewDecoder(r).Decode(&points); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: expected a JSON array of points: %v", ErrNoPoints, err)
		}
		return nil, fmt.Errorf("decode points: %w", err)
	}
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	return points, nil
}

// DecodePointsCSV decodes CSV with a header row containing s_km, lat and lon
// columns in any order. Extra columns are ignored.
func DecodePointsCSV(r io.Reader) ([]RibbonPoint, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoPoints
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	cols := map[string]int{"s_km": -1, "lat": -1, "lon": -1}
	if len(header) > 0 {
		// Spreadsheet exports often start with a UTF-8 byte order mark.
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, ok := cols[name]; ok {
			cols[name] = i
		}
	}
	for name, i := range cols {
		if i < 0 {
			return nil, fmt.Errorf("csv header missing column %q", name)
		}
	}

	var points []RibbonPoint
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		var vals [3]float64
		for k, name := range []string{"s_km", "lat", "lon"} {
			i := cols[name]
			if i >= len(rec) {
				return nil, fmt.Errorf("csv line %d: missing %s", line, name)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("csv line %d: invalid %s %q: %w", line, name, rec[i], err)
			}
			vals[k] = v
		}
		points = append(points, RibbonPoint{SKm: vals[0], Lat: vals[1], Lon: vals[2]})
	}

	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	return points, nil
}

// DecodePointsGPX flattens every track segment in document order. When the
// file has no tracks, route points are used instead. s_km is the
// cumulative great-circle distance from the first point.
func DecodePointsGPX(r io.Reader) ([]RibbonPoint, error) {
	g, err := gpx.Read(r)
	if err != nil {
		return nil, fmt.Errorf("read gpx: %w", err)
	}

	var wpts []*gpx.WptType
	for _, trk := range g.Trk {
		for _, seg := range trk.TrkSeg {
			wpts = append(wpts, seg.TrkPt...)
		}
	}
	if len(wpts) == 0 {
		for _, rte := range g.Rte {
			wpts = append(wpts, rte.RtePt...)
		}
	}
	if len(wpts) == 0 {
		return nil, ErrNoPoints
	}

	points := make([]RibbonPoint, len(wpts))
	distanceM := 0.0
	for i, w := range wpts {
		if i > 0 {
			distanceM += geo.DistanceHaversine(
				orb.Point{wpts[i-1].Lon, wpts[i-1].Lat},
				orb.Point{w.Lon, w.Lat},
			)
		}
		points[i] = RibbonPoint{SKm: distanceM / 1000, Lat: w.Lat, Lon: w.Lon}
	}
	return points, nil
}
