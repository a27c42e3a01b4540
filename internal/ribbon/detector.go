package ribbon

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/ribbon/internal/monitoring"
)

// cancelCheckStride is how many points a worker scans between context checks.
const cancelCheckStride = 1024

// AmbiguityHit records that points I and J are within the distance
// threshold while at least the minimum index gap apart.
type AmbiguityHit struct {
	I        int     `json:"i"`
	J        int     `json:"j"`
	DistM    float64 `json:"dist_m"`
	DeltaIdx int     `json:"deltaIdx"`
}

// Detection is the detector output. The detector allocates every slice
// here; nothing aliases the spatial index buckets.
type Detection struct {
	IdxMin      int
	IdxMax      int
	PointsTotal int
	GridCells   int

	// AmbiguousIdx is sorted ascending without duplicates.
	AmbiguousIdx []int
	// Hits is ordered by I, then by discovery order within one I.
	Hits []AmbiguityHit
	// PointsAtHitCap counts indices whose search stopped at MaxHitsPerPoint,
	// i.e. whose hit list may be truncated.
	PointsAtHitCap int
}

// Detector finds ambiguous indices within a scan range.
type Detector struct {
	params Params
}

// NewDetector validates params and returns a detector.
func NewDetector(params Params) (*Detector, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Detector{params: params}, nil
}

// Params returns the detector configuration.
func (d *Detector) Params() Params {
	return d.params
}

// Detect projects points, builds the grid over the scan range and searches
// every scanned index for distant-in-sequence neighbours.
func (d *Detector) Detect(ctx context.Context, points []RibbonPoint) (*Detection, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	projected, err := ProjectPoints(points)
	if err != nil {
		return nil, err
	}
	return d.DetectProjected(ctx, projected)
}

// DetectProjected runs detection on already projected points.
func (d *Detector) DetectProjected(ctx context.Context, xy []ProjectedPoint) (*Detection, error) {
	if len(xy) == 0 {
		return nil, ErrNoPoints
	}
	idxMin, idxMax, ok := d.params.ScanRange(len(xy))
	if !ok {
		return nil, fmt.Errorf("%w: [%d, %d] over %d points", ErrEmptyScanRange, d.params.IdxMin, d.params.IdxMax, len(xy))
	}

	index := NewSpatialIndex(d.params.GridCellM)
	index.Build(xy, idxMin, idxMax)
	monitoring.Logf("[detect] scan %d..%d of %d points, %d grid cells", idxMin, idxMax, len(xy), index.Cells())

	// perPoint[k] holds the hits of index idxMin+k. Workers write disjoint
	// ranges, so no locking is needed.
	perPoint := make([][]AmbiguityHit, idxMax-idxMin+1)

	workers := d.params.workers()
	chunk := int(math.Ceil(float64(len(perPoint)) / float64(workers)))

	g, gctx := errgroup.WithContext(ctx)
	for start := idxMin; start <= idxMax; start += chunk {
		lo, hi := start, min(idxMax, start+chunk-1)
		g.Go(func() error {
			for i := lo; i <= hi; i++ {
				if (i-lo)%cancelCheckStride == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				perPoint[i-idxMin] = d.scanPoint(index, xy, i)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("detection aborted: %w", err)
	}

	det := &Detection{
		IdxMin:       idxMin,
		IdxMax:       idxMax,
		PointsTotal:  len(xy),
		GridCells:    index.Cells(),
		AmbiguousIdx: []int{},
		Hits:         []AmbiguityHit{},
	}
	for k, hits := range perPoint {
		if len(hits) == 0 {
			continue
		}
		det.AmbiguousIdx = append(det.AmbiguousIdx, idxMin+k)
		det.Hits = append(det.Hits, hits...)
		if len(hits) >= d.params.MaxHitsPerPoint {
			det.PointsAtHitCap++
		}
	}

	monitoring.Logf("[detect] %d ambiguous points, %d hits, %d at hit cap",
		len(det.AmbiguousIdx), len(det.Hits), det.PointsAtHitCap)
	return det, nil
}

// scanPoint returns up to MaxHitsPerPoint hits for index i in grid-bucket
// order, stopping the neighbourhood walk as soon as the cap is reached.
func (d *Detector) scanPoint(index *SpatialIndex, xy []ProjectedPoint, i int) []AmbiguityHit {
	pi := xy[i]
	r2 := d.params.DistanceThresholdM * d.params.DistanceThresholdM

	var hits []AmbiguityHit
	index.VisitNeighbourhood(pi, func(j int) bool {
		if j == i {
			return true
		}
		deltaIdx := j - i
		if deltaIdx < 0 {
			deltaIdx = -deltaIdx
		}
		if deltaIdx < d.params.MinIndexGap {
			return true
		}

		dx := xy[j].X - pi.X
		dy := xy[j].Y - pi.Y
		d2 := dx*dx + dy*dy
		if d2 > r2 {
			return true
		}

		hits = append(hits, AmbiguityHit{
			I:        i,
			J:        j,
			DistM:    math.Sqrt(d2),
			DeltaIdx: deltaIdx,
		})
		return len(hits) < d.params.MaxHitsPerPoint
	})
	return hits
}
