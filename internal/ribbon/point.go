package ribbon

import (
	"errors"
	"fmt"
	"math"

	"github.com/banshee-data/ribbon/internal/monitoring"
)

var (
	// ErrNoPoints is returned when the point sequence is missing or empty.
	ErrNoPoints = errors.New("ribbon: point sequence is empty")
	// ErrEmptyScanRange is returned when the clamped scan range contains no index.
	ErrEmptyScanRange = errors.New("ribbon: scan range is empty after clamping")
	// ErrInvalidParams wraps every parameter validation failure.
	ErrInvalidParams = errors.New("ribbon: invalid parameters")
	// ErrReportNotFound is returned when an exporter cannot find its upstream report.
	ErrReportNotFound = errors.New("ribbon: report not found")
)

// RibbonPoint is one vertex of the route polyline.
type RibbonPoint struct {
	SKm float64 `json:"s_km"` // distance along route
	Lat float64 `json:"lat"`  // WGS84 degrees
	Lon float64 `json:"lon"`  // WGS84 degrees
}

// ProjectedPoint is a RibbonPoint in local planar metres.
type ProjectedPoint struct {
	X, Y float64
}

// ValidatePoints rejects sequences the pipeline cannot process: empty input
// and non-finite or out-of-range coordinates. A decreasing s_km is only
// logged since index-gap semantics merely assume monotonic order.
func ValidatePoints(points []RibbonPoint) error {
	if len(points) == 0 {
		return ErrNoPoints
	}

	decreasing := 0
	for i, p := range points {
		if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90 {
			return fmt.Errorf("point %d: invalid latitude %v", i, p.Lat)
		}
		if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) || p.Lon < -180 || p.Lon > 180 {
			return fmt.Errorf("point %d: invalid longitude %v", i, p.Lon)
		}
		if i > 0 && p.SKm < points[i-1].SKm {
			decreasing++
		}
	}
	if decreasing > 0 {
		monitoring.Logf("warning: s_km decreases %d times across %d points", decreasing, len(points))
	}
	return nil
}
