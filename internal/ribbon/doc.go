// Package ribbon detects geometric self-overlaps ("ambiguities") in a dense
// polyline of georeferenced rail points.
//
// The pipeline is strictly forward: raw points are projected to a local
// planar frame, bucketed into a uniform grid, scanned for pairs that are
// spatially close but far apart in sequence order, and the resulting
// ambiguous indices are grouped into contiguous packets for reporting.
//
// Index is identity throughout: a point is referred to by its position in
// the input sequence, never by a key.
package ribbon
