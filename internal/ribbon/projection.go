package ribbon

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// MetersPerDegreeLat is the flat-earth latitude scale.
const MetersPerDegreeLat = 111320.0

// Projector maps geographic coordinates to a local tangent plane anchored
// at the first point of the route. The longitude scale uses the mean route
// latitude. This approximation holds for corridors of a few tens of
// kilometres; it is not a geodesic projection.
type Projector struct {
	RefLatDeg       float64
	MetersPerDegLon float64
	OriginX         float64
	OriginY         float64
}

// NewProjector builds the projector for the full ordered sequence.
func NewProjector(points []RibbonPoint) (*Projector, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	lats := make([]float64, len(points))
	for i, p := range points {
		lats[i] = p.Lat
	}
	refLat := stat.Mean(lats, nil)
	mPerDegLon := math.Cos(refLat*math.Pi/180) * MetersPerDegreeLat

	return &Projector{
		RefLatDeg:       refLat,
		MetersPerDegLon: mPerDegLon,
		OriginX:         points[0].Lon * mPerDegLon,
		OriginY:         points[0].Lat * MetersPerDegreeLat,
	}, nil
}

// Project converts one point to planar metres.
func (pr *Projector) Project(p RibbonPoint) ProjectedPoint {
	return ProjectedPoint{
		X: p.Lon*pr.MetersPerDegLon - pr.OriginX,
		Y: p.Lat*MetersPerDegreeLat - pr.OriginY,
	}
}

// ProjectAll projects every point, preserving order and indexing.
func (pr *Projector) ProjectAll(points []RibbonPoint) []ProjectedPoint {
	out := make([]ProjectedPoint, len(points))
	for i, p := range points {
		out[i] = pr.Project(p)
	}
	return out
}

// ProjectPoints is a convenience wrapper around NewProjector and ProjectAll.
func ProjectPoints(points []RibbonPoint) ([]ProjectedPoint, error) {
	pr, err := NewProjector(points)
	if err != nil {
		return nil, err
	}
	return pr.ProjectAll(points), nil
}
