package ribbon

import "fmt"

// Default analysis settings.
const (
	DefaultDistanceThresholdM     = 40.0
	DefaultMinIndexGap            = 50
	DefaultPacketGap              = 30
	DefaultGridCellM              = 40.0
	DefaultMaxHitsPerPoint        = 6
	DefaultMaxSampleHitsPerPacket = 30
)

// Params is the immutable configuration of one analysis run. It is passed
// by value into NewDetector and NewClusterer so that several runs with
// different thresholds can coexist in one process.
type Params struct {
	// IdxMin and IdxMax bound the scanned index range (inclusive). Both are
	// clamped to the sequence; IdxMax < 0 means the last point.
	IdxMin int
	IdxMax int

	DistanceThresholdM float64 // max planar distance to flag
	MinIndexGap        int     // min |i-j| to flag
	PacketGap          int     // max gap between members of one packet
	GridCellM          float64 // spatial index cell size, must be >= DistanceThresholdM

	MaxHitsPerPoint        int // hits kept per ambiguous index
	MaxSampleHitsPerPacket int // hits embedded per packet in the report

	// Workers > 1 splits the per-point search across goroutines. Output is
	// identical to the sequential run.
	Workers int
}

// DefaultParams returns the production defaults scanning the whole sequence.
func DefaultParams() Params {
	return Params{
		IdxMin:                 0,
		IdxMax:                 -1,
		DistanceThresholdM:     DefaultDistanceThresholdM,
		MinIndexGap:            DefaultMinIndexGap,
		PacketGap:              DefaultPacketGap,
		GridCellM:              DefaultGridCellM,
		MaxHitsPerPoint:        DefaultMaxHitsPerPoint,
		MaxSampleHitsPerPacket: DefaultMaxSampleHitsPerPacket,
		Workers:                1,
	}
}

// Validate checks the parameters. Every failure wraps ErrInvalidParams.
func (p Params) Validate() error {
	switch {
	case p.DistanceThresholdM <= 0:
		return fmt.Errorf("%w: distance threshold must be positive, got %v", ErrInvalidParams, p.DistanceThresholdM)
	case p.GridCellM <= 0:
		return fmt.Errorf("%w: grid cell size must be positive, got %v", ErrInvalidParams, p.GridCellM)
	case p.GridCellM < p.DistanceThresholdM:
		// A 3x3 neighbourhood only covers the threshold radius when the
		// cell is at least as large as the threshold.
		return fmt.Errorf("%w: grid cell %vm is smaller than distance threshold %vm (raise the grid cell to at least %vm)",
			ErrInvalidParams, p.GridCellM, p.DistanceThresholdM, p.DistanceThresholdM)
	case p.MinIndexGap < 1:
		return fmt.Errorf("%w: min index gap must be >= 1, got %d", ErrInvalidParams, p.MinIndexGap)
	case p.PacketGap < 0:
		return fmt.Errorf("%w: packet gap must be >= 0, got %d", ErrInvalidParams, p.PacketGap)
	case p.MaxHitsPerPoint < 1:
		return fmt.Errorf("%w: max hits per point must be >= 1, got %d", ErrInvalidParams, p.MaxHitsPerPoint)
	case p.MaxSampleHitsPerPacket < 0:
		return fmt.Errorf("%w: max sample hits per packet must be >= 0, got %d", ErrInvalidParams, p.MaxSampleHitsPerPacket)
	case p.IdxMin < 0:
		return fmt.Errorf("%w: scan index min must be >= 0, got %d", ErrInvalidParams, p.IdxMin)
	}
	return nil
}

// ScanRange clamps the configured bounds to a sequence of n points.
// ok is false when the clamped range is empty.
func (p Params) ScanRange(n int) (idxMin, idxMax int, ok bool) {
	idxMin = max(0, p.IdxMin)
	idxMax = n - 1
	if p.IdxMax >= 0 && p.IdxMax < idxMax {
		idxMax = p.IdxMax
	}
	return idxMin, idxMax, idxMin <= idxMax
}

func (p Params) workers() int {
	if p.Workers < 1 {
		return 1
	}
	return p.Workers
}
