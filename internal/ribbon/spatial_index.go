package ribbon

import "math"

// estimatedPointsPerCell sizes the grid map up front. A 40 m cell over a
// ribbon densified to ~25 m holds two or three points on a plain section.
const estimatedPointsPerCell = 2

// SpatialIndex buckets projected points into a uniform grid for fixed-radius
// neighbour queries. A query visits the 3x3 block of cells around a point,
// which finds every neighbour within CellSize metres.
type SpatialIndex struct {
	CellSize float64
	Grid     map[int64][]int // Cell ID → point indices in insertion order
}

// NewSpatialIndex creates a spatial index with the specified cell size.
func NewSpatialIndex(cellSize float64) *SpatialIndex {
	return &SpatialIndex{
		CellSize: cellSize,
		Grid:     make(map[int64][]int),
	}
}

// Build indexes the points with indices in [idxMin, idxMax]. Buckets keep
// ascending index order, which fixes the candidate visiting order.
func (si *SpatialIndex) Build(points []ProjectedPoint, idxMin, idxMax int) {
	n := idxMax - idxMin + 1
	si.Grid = make(map[int64][]int, max(1, n/estimatedPointsPerCell))

	for i := idxMin; i <= idxMax; i++ {
		cx, cy := si.cellCoords(points[i])
		id := cellID(cx, cy)
		si.Grid[id] = append(si.Grid[id], i)
	}
}

// Cells returns the number of non-empty cells.
func (si *SpatialIndex) Cells() int {
	return len(si.Grid)
}

// VisitNeighbourhood calls fn for every indexed point in the 3x3 block of
// cells around p. Cells are visited column by column (dx outer, dy inner)
// and each bucket in insertion order. Returning false from fn stops the
// walk. The candidate slices belong to the index; fn must not retain them.
func (si *SpatialIndex) VisitNeighbourhood(p ProjectedPoint, fn func(j int) bool) {
	cx, cy := si.cellCoords(p)

	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, j := range si.Grid[cellID(cx+dx, cy+dy)] {
				if !fn(j) {
					return
				}
			}
		}
	}
}

func (si *SpatialIndex) cellCoords(p ProjectedPoint) (int64, int64) {
	return int64(math.Floor(p.X / si.CellSize)), int64(math.Floor(p.Y / si.CellSize))
}

// cellID packs a signed cell coordinate pair into one key using zigzag
// encoding followed by Szudzik's pairing function.
func cellID(cellX, cellY int64) int64 {
	a := zigzag(cellX)
	b := zigzag(cellY)
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

func zigzag(v int64) int64 {
	if v >= 0 {
		return 2 * v
	}
	return -2*v - 1
}
