package sweep

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

var csvHeader = []string{
	"distance_threshold_m", "min_index_gap", "grid_cell_m",
	"ambiguous_count", "packet_count", "tier_a", "tier_b", "tier_c",
	"density_mean", "density_stddev", "max_packet_span",
	"points_at_hit_cap", "sample_hits_dropped",
}

// WriteCSV writes one row per result after a header row.
func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range results {
		row := []string{
			formatFloat(r.DistanceThresholdM),
			strconv.Itoa(r.MinIndexGap),
			formatFloat(r.GridCellM),
			strconv.Itoa(r.AmbiguousCount),
			strconv.Itoa(r.PacketCount),
			strconv.Itoa(r.TierA),
			strconv.Itoa(r.TierB),
			strconv.Itoa(r.TierC),
			fmt.Sprintf("%.4f", r.DensityMean),
			fmt.Sprintf("%.4f", r.DensityStdDev),
			strconv.Itoa(r.MaxPacketSpan),
			strconv.Itoa(r.PointsAtHitCap),
			strconv.Itoa(r.SampleHitsDropped),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
