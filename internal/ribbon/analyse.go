package ribbon

import (
	"context"

	"github.com/banshee-data/ribbon/internal/monitoring"
)

// Analyse runs the full pipeline: project, index, detect, cluster, report.
func Analyse(ctx context.Context, points []RibbonPoint, params Params) (*Report, error) {
	defer monitoring.Timed("analyse")()

	if err := ValidatePoints(points); err != nil {
		return nil, err
	}
	detector, err := NewDetector(params)
	if err != nil {
		return nil, err
	}
	clusterer, err := NewClusterer(params)
	if err != nil {
		return nil, err
	}

	det, err := detector.Detect(ctx, points)
	if err != nil {
		return nil, err
	}
	packets, stats := clusterer.Cluster(det)
	return NewReport(det, packets, stats, params), nil
}
