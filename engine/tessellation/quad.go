package tessellation

import (
	"fmt"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/math"
)

// Corner indices of a quad surface.
const (
	CornerBottomLeft = iota
	CornerBottomRight
	CornerTopRight
	CornerTopLeft
)

// UnitUVs are the canonical corner texture coordinates.
var UnitUVs = [4]math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

// QuadPatches holds the control points of a quad grid and the texture
// coordinates aligned with them index by index.
type QuadPatches struct {
	Points    []math.Vec3
	TexCoords []math.Vec2
}

// PatchCount is the number of 4-point patches held.
func (q QuadPatches) PatchCount() int {
	return len(q.Points) / 4
}

// Patch returns the four control points of patch i.
func (q QuadPatches) Patch(i int) []math.Vec3 {
	return q.Points[i*4 : i*4+4]
}

// GenerateQuadPatches subdivides the bilinear surface spanned by corners into
// width x height patches. Patches are emitted row by row; each contributes the
// lattice points (j,i), (j,i+1), (j+1,i+1), (j+1,i).
func GenerateQuadPatches(width, height int, corners [4]math.Vec3, cornerUVs [4]math.Vec2) (QuadPatches, error) {
	if width < 1 || height < 1 {
		return QuadPatches{}, fmt.Errorf("grid %dx%d: %w", width, height, core.ErrInvalidParameter)
	}

	points := lattice(width, height, corners)
	uvs := lattice(width, height, cornerUVs)

	out := QuadPatches{
		Points:    make([]math.Vec3, 0, width*height*4),
		TexCoords: make([]math.Vec2, 0, width*height*4),
	}
	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			out.Points = append(out.Points, points[j][i], points[j][i+1], points[j+1][i+1], points[j+1][i])
			out.TexCoords = append(out.TexCoords, uvs[j][i], uvs[j][i+1], uvs[j+1][i+1], uvs[j+1][i])
		}
	}
	return out, nil
}

type lerper[T any] interface {
	Lerp(other T, t float32) T
}

// lattice interpolates the row edges first, then the columns along each row.
func lattice[T lerper[T]](width, height int, corners [4]T) [][]T {
	rows := make([][]T, height+1)
	for y := 0; y <= height; y++ {
		ty := float32(y) / float32(height)
		left := corners[CornerBottomLeft].Lerp(corners[CornerTopLeft], ty)
		right := corners[CornerBottomRight].Lerp(corners[CornerTopRight], ty)

		rows[y] = make([]T, width+1)
		for x := 0; x <= width; x++ {
			rows[y][x] = left.Lerp(right, float32(x)/float32(width))
		}
	}
	return rows
}
