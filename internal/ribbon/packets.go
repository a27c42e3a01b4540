package ribbon

import (
	"sort"

	"github.com/banshee-data/ribbon/internal/monitoring"
)

// DensityTier classifies packets for presentation.
type DensityTier string

const (
	TierA DensityTier = "A" // density >= 0.9
	TierB DensityTier = "B" // density >= 0.7
	TierC DensityTier = "C"
)

// Tier thresholds.
const (
	TierAMinDensity = 0.9
	TierBMinDensity = 0.7
)

// Packet is a maximal run of ambiguous indices whose consecutive members
// differ by at most the packet gap.
type Packet struct {
	Start          int            `json:"start"`
	End            int            `json:"end"`
	CountAmbiguous int            `json:"countAmbiguous"`
	AmbiguousIdx   []int          `json:"ambiguousIdx"`
	SampleHits     []AmbiguityHit `json:"sampleHits"`
}

// Span is End - Start.
func (p Packet) Span() int {
	return p.End - p.Start
}

// Density is the share of ambiguous indices within the packet span. A
// single-index packet has density 1.
func (p Packet) Density() float64 {
	span := p.Span()
	if span <= 0 {
		return 1
	}
	return float64(p.CountAmbiguous) / float64(span)
}

// Tier returns the presentation tier for the packet density.
func (p Packet) Tier() DensityTier {
	return TierFor(p.Density())
}

// TierFor maps a density to its tier.
func TierFor(density float64) DensityTier {
	switch {
	case density >= TierAMinDensity:
		return TierA
	case density >= TierBMinDensity:
		return TierB
	default:
		return TierC
	}
}

// ClusterStats reports what the clusterer dropped.
type ClusterStats struct {
	// SampleHitsDropped counts hits inside a packet range that did not fit
	// in the packet's sample.
	SampleHitsDropped int
}

// Clusterer groups ambiguous indices into packets.
type Clusterer struct {
	gap       int
	maxSample int
}

// NewClusterer validates params and returns a clusterer.
func NewClusterer(params Params) (*Clusterer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Clusterer{gap: params.PacketGap, maxSample: params.MaxSampleHitsPerPacket}, nil
}

// Cluster scans det.AmbiguousIdx left to right, extending the current
// packet while next-prev <= gap. Packets are ordered by Start and never
// overlap.
func (c *Clusterer) Cluster(det *Detection) ([]Packet, ClusterStats) {
	var stats ClusterStats
	packets := []Packet{}
	idx := det.AmbiguousIdx
	if len(idx) == 0 {
		return packets, stats
	}

	first := 0
	for k := 1; k <= len(idx); k++ {
		if k < len(idx) && idx[k]-idx[k-1] <= c.gap {
			continue
		}
		p, dropped := c.buildPacket(idx[first:k], det.Hits)
		packets = append(packets, p)
		stats.SampleHitsDropped += dropped
		first = k
	}

	monitoring.Logf("[cluster] %d packets from %d ambiguous points (gap=%d)", len(packets), len(idx), c.gap)
	return packets, stats
}

// buildPacket copies members and collects sample hits with I in
// [start, end]. hits is ordered by I, so the matching hits form one
// contiguous run located by binary search.
func (c *Clusterer) buildPacket(members []int, hits []AmbiguityHit) (Packet, int) {
	start := members[0]
	end := members[len(members)-1]

	owned := make([]int, len(members))
	copy(owned, members)

	lo := sort.Search(len(hits), func(k int) bool { return hits[k].I >= start })
	hi := sort.Search(len(hits), func(k int) bool { return hits[k].I > end })
	inRange := hits[lo:hi]

	n := min(len(inRange), c.maxSample)
	sample := make([]AmbiguityHit, n)
	copy(sample, inRange[:n])

	return Packet{
		Start:          start,
		End:            end,
		CountAmbiguous: len(owned),
		AmbiguousIdx:   owned,
		SampleHits:     sample,
	}, len(inRange) - n
}
