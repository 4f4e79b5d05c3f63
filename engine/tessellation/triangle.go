package tessellation

import (
	"fmt"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/math"
)

// Deeper requests grow the output on demand instead of reserving it up front.
const maxPreallocDepth = 10

// Triangle is the seed of a triangular patch.
type Triangle struct {
	P0, P1, P2 math.Vec3
}

// GenerateTrianglePatches splits seed into 4^depth triangular patches by edge
// midpoints and returns their 3*4^depth control points.
//
// Children are emitted corner p0, corner p1, corner p2, then the centre.
// Midpoints are computed independently in every branch, so points on a shared
// edge are repeated rather than pooled.
func GenerateTrianglePatches(depth int, seed Triangle) ([]math.Vec3, error) {
	if depth < 0 {
		return nil, fmt.Errorf("subdivision depth %d: %w", depth, core.ErrInvalidParameter)
	}
	var out []math.Vec3
	if depth <= maxPreallocDepth {
		out = make([]math.Vec3, 0, trianglePointCount(depth))
	}
	return subdivide(out, depth, seed.P0, seed.P1, seed.P2), nil
}

// trianglePointCount is 3*4^depth, the size of GenerateTrianglePatches' output.
// depth must already be checked against [0, maxPreallocDepth].
func trianglePointCount(depth int) int {
	return 3 << (2 * depth)
}

func subdivide(out []math.Vec3, depth int, p0, p1, p2 math.Vec3) []math.Vec3 {
	if depth == 0 {
		return append(out, p0, p1, p2)
	}

	m01 := p0.Midpoint(p1)
	m12 := p1.Midpoint(p2)
	m20 := p2.Midpoint(p0)

	out = subdivide(out, depth-1, p0, m01, m20)
	out = subdivide(out, depth-1, m01, p1, m12)
	out = subdivide(out, depth-1, m12, p2, m20)
	return subdivide(out, depth-1, m01, m12, m20)
}
