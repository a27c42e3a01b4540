package sweep

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/ribbon/internal/monitoring"
	"github.com/banshee-data/ribbon/internal/ribbon"
)

// Combo is one point of the sweep grid.
type Combo struct {
	DistanceThresholdM float64
	MinIndexGap        int
}

// Result summarises the analysis for one combination.
type Result struct {
	Combo
	GridCellM float64

	AmbiguousCount    int
	PacketCount       int
	TierA             int
	TierB             int
	TierC             int
	DensityMean       float64
	DensityStdDev     float64
	MaxPacketSpan     int
	PointsAtHitCap    int
	SampleHitsDropped int
}

// Combos returns the cartesian product in threshold-major order.
func Combos(thresholds []float64, gaps []int) ([]Combo, error) {
	if len(thresholds) == 0 || len(gaps) == 0 {
		return nil, errors.New("sweep needs at least one threshold and one index gap")
	}
	if len(thresholds)*len(gaps) > maxValues {
		return nil, fmt.Errorf("parameter combinations would exceed safe limit of %d", maxValues)
	}

	combos := make([]Combo, 0, len(thresholds)*len(gaps))
	for _, d := range thresholds {
		for _, g := range gaps {
			combos = append(combos, Combo{DistanceThresholdM: d, MinIndexGap: g})
		}
	}
	return combos, nil
}

// Run evaluates every combination against points, starting from base. The
// grid cell is raised to the threshold whenever it would be smaller.
// Combinations run concurrently on up to workers goroutines; results are
// returned in Combos order.
func Run(ctx context.Context, points []ribbon.RibbonPoint, base ribbon.Params, thresholds []float64, gaps []int, workers int) ([]Result, error) {
	defer monitoring.Timed("sweep")()

	if err := ribbon.ValidatePoints(points); err != nil {
		return nil, err
	}
	combos, err := Combos(thresholds, gaps)
	if err != nil {
		return nil, err
	}
	xy, err := ribbon.ProjectPoints(points)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(combos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for k, combo := range combos {
		g.Go(func() error {
			res, err := runCombo(gctx, xy, base, combo)
			if err != nil {
				return fmt.Errorf("dist=%v gap=%d: %w", combo.DistanceThresholdM, combo.MinIndexGap, err)
			}
			results[k] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	monitoring.Logf("[sweep] evaluated %d combinations over %d points", len(results), len(points))
	return results, nil
}

func runCombo(ctx context.Context, xy []ribbon.ProjectedPoint, base ribbon.Params, combo Combo) (Result, error) {
	params := base
	params.DistanceThresholdM = combo.DistanceThresholdM
	params.MinIndexGap = combo.MinIndexGap
	params.GridCellM = max(params.GridCellM, combo.DistanceThresholdM)
	params.Workers = 1

	detector, err := ribbon.NewDetector(params)
	if err != nil {
		return Result{}, err
	}
	clusterer, err := ribbon.NewClusterer(params)
	if err != nil {
		return Result{}, err
	}

	det, err := detector.DetectProjected(ctx, xy)
	if err != nil {
		return Result{}, err
	}
	packets, stats := clusterer.Cluster(det)

	res := Result{
		Combo:             combo,
		GridCellM:         params.GridCellM,
		AmbiguousCount:    len(det.AmbiguousIdx),
		PacketCount:       len(packets),
		PointsAtHitCap:    det.PointsAtHitCap,
		SampleHitsDropped: stats.SampleHitsDropped,
	}

	densities := make([]float64, len(packets))
	for i, p := range packets {
		densities[i] = p.Density()
		res.MaxPacketSpan = max(res.MaxPacketSpan, p.Span())
		switch p.Tier() {
		case ribbon.TierA:
			res.TierA++
		case ribbon.TierB:
			res.TierB++
		default:
			res.TierC++
		}
	}
	switch len(densities) {
	case 0:
	case 1:
		res.DensityMean = densities[0]
	default:
		res.DensityMean, res.DensityStdDev = stat.MeanStdDev(densities, nil)
	}
	return res, nil
}
