package ribbon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/banshee-data/ribbon/internal/fsutil"
)

// Report is the serialised analysis artifact. The full hit list is not
// part of it; only per-packet samples are.
type Report struct {
	Meta         ReportMeta `json:"meta"`
	AmbiguousIdx []int      `json:"ambiguousIdx"`
	Packets      []Packet   `json:"packets"`
}

// ReportMeta describes how the report was produced.
type ReportMeta struct {
	IdxMin      int `json:"idxMin"`
	IdxMax      int `json:"idxMax"`
	PointsTotal int `json:"pointsTotal"`

	Thresholds Thresholds `json:"thresholds"`
	PacketGap  int        `json:"packetGap"`
	GridCellM  float64    `json:"gridCell_m"`
	GridCells  int        `json:"gridCells"`

	MaxHitsPerPoint        int        `json:"maxHitsPerPoint"`
	MaxSampleHitsPerPacket int        `json:"maxSampleHitsPerPacket"`
	Truncation             Truncation `json:"truncation"`

	Generator string `json:"generator,omitempty"`
}

// Thresholds are the ambiguity predicate settings.
type Thresholds struct {
	DistM       float64 `json:"dist_m"`
	DeltaIdxMin int     `json:"deltaIdxMin"`
}

// Truncation makes the lossy output caps auditable.
type Truncation struct {
	PointsAtHitCap    int `json:"pointsAtHitCap"`
	SampleHitsDropped int `json:"sampleHitsDropped"`
}

// NewReport assembles the report from a detection and its packets.
func NewReport(det *Detection, packets []Packet, stats ClusterStats, params Params) *Report {
	ambiguous := make([]int, len(det.AmbiguousIdx))
	copy(ambiguous, det.AmbiguousIdx)
	if packets == nil {
		packets = []Packet{}
	}

	return &Report{
		Meta: ReportMeta{
			IdxMin:      det.IdxMin,
			IdxMax:      det.IdxMax,
			PointsTotal: det.PointsTotal,
			Thresholds: Thresholds{
				DistM:       params.DistanceThresholdM,
				DeltaIdxMin: params.MinIndexGap,
			},
			PacketGap:              params.PacketGap,
			GridCellM:              params.GridCellM,
			GridCells:              det.GridCells,
			MaxHitsPerPoint:        params.MaxHitsPerPoint,
			MaxSampleHitsPerPacket: params.MaxSampleHitsPerPacket,
			Truncation: Truncation{
				PointsAtHitCap:    det.PointsAtHitCap,
				SampleHitsDropped: stats.SampleHitsDropped,
			},
		},
		AmbiguousIdx: ambiguous,
		Packets:      packets,
	}
}

// EncodeReport writes the report as indented JSON.
func EncodeReport(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// DecodeReport parses a report produced by EncodeReport.
func DecodeReport(r io.Reader) (*Report, error) {
	var rep Report
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &rep, nil
}

// ReadReport loads a report from fsys. A missing file yields ErrReportNotFound.
func ReadReport(fsys fsutil.FileSystem, path string) (*Report, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrReportNotFound, path)
		}
		return nil, fmt.Errorf("open report: %w", err)
	}
	defer f.Close()
	return DecodeReport(f)
}
