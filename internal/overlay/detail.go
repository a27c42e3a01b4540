package overlay

import (
	"errors"
	"fmt"
	"sort"

	"github.com/banshee-data/ribbon/internal/ribbon"
)

const (
	detailPacketLineWidth = 5
	detailLinkLineWidth   = 2

	stylePacketLine = "packetLine"
	styleLinkLine   = "linkLine"
	styleDetailAmb  = "ambPoint"
)

var (
	// ErrNoPackets is returned when a packet is requested from a report without any.
	ErrNoPackets = errors.New("overlay: report has no packets")
	// ErrInvalidSelection is returned for an out-of-range packet number or rank.
	ErrInvalidSelection = errors.New("overlay: invalid packet selection")
)

// DetailOptions controls the single-packet detail document.
type DetailOptions struct {
	AmbiguousPointStep int // 1 draws every ambiguous point
	MaxLinks           int // cap on i↔j link lines
}

// DefaultDetailOptions matches the analysis tooling defaults.
func DefaultDetailOptions() DetailOptions {
	return DetailOptions{AmbiguousPointStep: 1, MaxLinks: 300}
}

// Selection identifies the packet chosen by SelectPacket.
type Selection struct {
	Packet ribbon.Packet
	Index  int    // 0-based position in the report
	Label  string // e.g. "packet3" or "rank1_json#4_dens0.95"
}

// FileName is the conventional output name for the detail document.
func (s Selection) FileName() string {
	return fmt.Sprintf("ribbon_packet_detail_%s_%d_%d.kml", s.Label, s.Packet.Start, s.Packet.End)
}

// SelectPacket picks a packet by 1-based report position (number) or by
// rank in descending density (rank). rank takes precedence; when both are
// zero the first packet is chosen. Ties in density keep report order.
func SelectPacket(rep *ribbon.Report, number, rank int) (Selection, error) {
	packets := rep.Packets
	if len(packets) == 0 {
		return Selection{}, ErrNoPackets
	}

	switch {
	case rank != 0:
		if rank < 0 || rank > len(packets) {
			return Selection{}, fmt.Errorf("%w: rank %d (max=%d)", ErrInvalidSelection, rank, len(packets))
		}
		order := make([]int, len(packets))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return packets[order[a]].Density() > packets[order[b]].Density()
		})
		idx := order[rank-1]
		return Selection{
			Packet: packets[idx],
			Index:  idx,
			Label:  fmt.Sprintf("rank%d_json#%d_dens%.2f", rank, idx+1, packets[idx].Density()),
		}, nil

	case number != 0:
		if number < 0 || number > len(packets) {
			return Selection{}, fmt.Errorf("%w: packet %d (max=%d)", ErrInvalidSelection, number, len(packets))
		}
		return Selection{Packet: packets[number-1], Index: number - 1, Label: fmt.Sprintf("packet%d", number)}, nil

	default:
		return Selection{Packet: packets[0], Index: 0, Label: "packet1"}, nil
	}
}

// BuildPacketDetail renders one packet: its ribbon segment, every ambiguous
// point, and a link from each sample hit's i to its j.
func BuildPacketDetail(points []ribbon.RibbonPoint, sel Selection, o DetailOptions) (*KML, error) {
	if len(points) == 0 {
		return nil, ribbon.ErrNoPoints
	}
	p := sel.Packet
	if err := checkPacket(points, p); err != nil {
		return nil, err
	}

	k := newKML(fmt.Sprintf("Ribbon detail %s — %d→%d", sel.Label, p.Start, p.End))
	doc := &k.Document
	doc.addLineStyle(stylePacketLine, colorRed, detailPacketLineWidth)
	doc.addLineStyle(styleLinkLine, colorYellow, detailLinkLineWidth)
	doc.addIconStyle(styleDetailAmb, colorOrange, 0.55)

	doc.addLine(
		fmt.Sprintf("Ribbon segment %d→%d", p.Start, p.End),
		stylePacketLine,
		coordsRange(points, p.Start, p.End, 1),
		packetDescription(p)...,
	)

	step := max(1, o.AmbiguousPointStep)
	for k := 0; k < len(p.AmbiguousIdx); k += step {
		idx := p.AmbiguousIdx[k]
		doc.addPoint(fmt.Sprintf("amb idx %d", idx), styleDetailAmb, points[idx], pointDescription(idx, points[idx])...)
	}

	links := p.SampleHits
	if o.MaxLinks >= 0 && len(links) > o.MaxLinks {
		links = links[:o.MaxLinks]
	}
	for n, h := range links {
		doc.addLine(
			fmt.Sprintf("link %d", n+1),
			styleLinkLine,
			coord(points[h.I])+" "+coord(points[h.J]),
			fmt.Sprintf("i=%d, j=%d", h.I, h.J),
			fmt.Sprintf("dist≈%.1fm", h.DistM),
			fmt.Sprintf("Δidx=%d", h.DeltaIdx),
		)
	}
	return k, nil
}
