package ribbon

import (
	"math"

	"github.com/banshee-data/ribbon/internal/testutil"
)

const (
	fixtureLat = 51.5
	fixtureLon = -0.12
)

// pointAt returns the point x metres east and y metres north of the fixture origin.
func pointAt(sKm, x, y float64) RibbonPoint {
	lat, lon := testutil.OffsetLatLon(fixtureLat, fixtureLon, x, y)
	return RibbonPoint{SKm: sKm, Lat: lat, Lon: lon}
}

// straightLine returns n points heading east with the given spacing.
func straightLine(n int, spacingM float64) []RibbonPoint {
	points := make([]RibbonPoint, n)
	for i := range points {
		x := float64(i) * spacingM
		points[i] = pointAt(x/1000, x, 0)
	}
	return points
}

// doubleLoop traverses a circle twice, shifting the second lap outward so
// that the laps are close but not coincident.
func doubleLoop(perLap int, radiusM, lapOffsetM float64) []RibbonPoint {
	points := make([]RibbonPoint, 0, 2*perLap)
	s := 0.0
	for lap := 0; lap < 2; lap++ {
		r := radiusM + float64(lap)*lapOffsetM
		for k := 0; k < perLap; k++ {
			theta := 2 * math.Pi * float64(k) / float64(perLap)
			points = append(points, pointAt(s, r*math.Cos(theta), r*math.Sin(theta)))
			s += 2 * math.Pi * radiusM / float64(perLap) / 1000
		}
	}
	return points
}

// hubAndSpoke puts indices [0, hub) and [n-hub, n) on the origin and runs
// the points in between along a line far away.
func hubAndSpoke(n, hub int) []RibbonPoint {
	points := make([]RibbonPoint, n)
	for i := range points {
		switch {
		case i < hub || i >= n-hub:
			points[i] = pointAt(float64(i)/10, 0, 0)
		default:
			points[i] = pointAt(float64(i)/10, 1000+float64(i)*100, 0)
		}
	}
	return points
}

// bruteForceHits is the O(n²) reference for uncapped detection.
func bruteForceHits(xy []ProjectedPoint, p Params) map[[2]int]bool {
	idxMin, idxMax, _ := p.ScanRange(len(xy))
	r2 := p.DistanceThresholdM * p.DistanceThresholdM
	pairs := make(map[[2]int]bool)
	for i := idxMin; i <= idxMax; i++ {
		for j := idxMin; j <= idxMax; j++ {
			if i == j {
				continue
			}
			gap := j - i
			if gap < 0 {
				gap = -gap
			}
			if gap < p.MinIndexGap {
				continue
			}
			dx := xy[j].X - xy[i].X
			dy := xy[j].Y - xy[i].Y
			if dx*dx+dy*dy <= r2 {
				pairs[[2]int{i, j}] = true
			}
		}
	}
	return pairs
}
