package sqlite

import (
	"fmt"

	"github.com/banshee-data/ribbon/internal/ribbon"
)

// RunComparison describes how two runs differ.
type RunComparison struct {
	Run1 *Run `json:"run1"`
	Run2 *Run `json:"run2"`

	// ParamDiff maps each differing setting to {"run1": v1, "run2": v2}.
	ParamDiff map[string]any `json:"param_diff"`

	AmbiguousDelta int `json:"ambiguous_delta"` // run2 - run1
	PacketDelta    int `json:"packet_delta"`    // run2 - run1

	SharedAmbiguous int `json:"shared_ambiguous"`
	OnlyInRun1      int `json:"only_in_run1"`
	OnlyInRun2      int `json:"only_in_run2"`
}

// CompareRuns loads two runs and diffs their settings and ambiguous sets.
func (s *RunStore) CompareRuns(runID1, runID2 string) (*RunComparison, error) {
	run1, err := s.GetRun(runID1)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID1, err)
	}
	run2, err := s.GetRun(runID2)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID2, err)
	}
	rep1, err := s.GetReport(runID1)
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", runID1, err)
	}
	rep2, err := s.GetReport(runID2)
	if err != nil {
		return nil, fmt.Errorf("load report %s: %w", runID2, err)
	}

	cmp := &RunComparison{
		Run1:           run1,
		Run2:           run2,
		ParamDiff:      compareParams(run1.Meta, run2.Meta),
		AmbiguousDelta: run2.AmbiguousCount - run1.AmbiguousCount,
		PacketDelta:    run2.PacketCount - run1.PacketCount,
	}
	cmp.SharedAmbiguous, cmp.OnlyInRun1, cmp.OnlyInRun2 = overlapSorted(rep1.AmbiguousIdx, rep2.AmbiguousIdx)
	return cmp, nil
}

// overlapSorted counts the intersection and differences of two ascending sets.
func overlapSorted(a, b []int) (shared, onlyA, onlyB int) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			shared++
			i++
			j++
		case a[i] < b[j]:
			onlyA++
			i++
		default:
			onlyB++
			j++
		}
	}
	return shared, onlyA + len(a) - i, onlyB + len(b) - j
}

// compareParams compares the settings of two runs and returns a map of differences.
func compareParams(m1, m2 ribbon.ReportMeta) map[string]any {
	diff := make(map[string]any)
	add := func(key string, v1, v2 any) {
		if v1 != v2 {
			diff[key] = map[string]any{"run1": v1, "run2": v2}
		}
	}

	add("idx_min", m1.IdxMin, m2.IdxMin)
	add("idx_max", m1.IdxMax, m2.IdxMax)
	add("points_total", m1.PointsTotal, m2.PointsTotal)
	add("distance_threshold_m", m1.Thresholds.DistM, m2.Thresholds.DistM)
	add("min_index_gap", m1.Thresholds.DeltaIdxMin, m2.Thresholds.DeltaIdxMin)
	add("packet_gap", m1.PacketGap, m2.PacketGap)
	add("grid_cell_m", m1.GridCellM, m2.GridCellM)
	add("max_hits_per_point", m1.MaxHitsPerPoint, m2.MaxHitsPerPoint)
	add("max_sample_hits_per_packet", m1.MaxSampleHitsPerPacket, m2.MaxSampleHitsPerPacket)
	return diff
}
