package mesh

import (
	"errors"
	"math"
)

// Dimensions describes the axis-aligned bounding box of a vertex sequence.
type Dimensions struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Z           float64 `json:"z"`
	VertexCount int     `json:"vertexCount"`
}

// ErrEmptyInput reports a bounding-box request over zero points.
var ErrEmptyInput = errors.New("no points to measure")

// ComputeExtents reduces a vertex sequence to per-axis extents in a single
// pass. The decoder guarantees a non-empty mesh, but an empty input is still
// rejected here rather than returning zero dimensions.
func ComputeExtents(points []Point) (Dimensions, error) {
	if len(points) == 0 {
		return Dimensions{}, ErrEmptyInput
	}

	minX, minY, minZ := points[0].X, points[0].Y, points[0].Z
	maxX, maxY, maxZ := minX, minY, minZ

	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		minZ = math.Min(minZ, p.Z)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
		maxZ = math.Max(maxZ, p.Z)
	}

	return Dimensions{
		X:           maxX - minX,
		Y:           maxY - minY,
		Z:           maxZ - minZ,
		VertexCount: len(points),
	}, nil
}
