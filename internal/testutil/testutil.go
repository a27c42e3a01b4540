// Package testutil provides shared test utilities and fixtures.
//
// Geometry fixtures are written in metres and converted to degrees with the
// same flat-earth scale the ribbon projector uses, so tests can reason about
// planar distances directly.
package testutil

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// MetersPerDegree is the latitude scale used by the ribbon projector.
const MetersPerDegree = 111320.0

// WriteFile writes content to dir/name and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// OffsetLatLon returns the coordinate dxM metres east and dyM metres north
// of (lat0, lon0), using lat0 as the longitude scale reference.
func OffsetLatLon(lat0, lon0, dxM, dyM float64) (lat, lon float64) {
	mPerDegLon := math.Cos(lat0*math.Pi/180) * MetersPerDegree
	return lat0 + dyM/MetersPerDegree, lon0 + dxM/mPerDegLon
}

// OutAndBackJSON returns a points JSON array that heads east for n points
// at 10 m spacing and returns west along a parallel line offsetM to the
// north.
func OutAndBackJSON(n int, offsetM float64) string {
	var b strings.Builder
	b.WriteString("[")
	k := 0
	add := func(x, y float64) {
		lat, lon := OffsetLatLon(47.0, 8.5, x, y)
		if k > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"s_km":%g,"lat":%.9f,"lon":%.9f}`, float64(k)*0.01, lat, lon)
		k++
	}
	for i := 0; i < n; i++ {
		add(float64(i)*10, 0)
	}
	for i := n - 1; i >= 0; i-- {
		add(float64(i)*10, offsetM)
	}
	b.WriteString("]")
	return b.String()
}
