package tessellation

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/math"
)

var groundCorners = [4]math.Vec3{
	{X: -1, Y: 0, Z: 1},
	{X: 1, Y: 0, Z: 1},
	{X: 1, Y: 0, Z: -1},
	{X: -1, Y: 0, Z: -1},
}

func TestGenerateQuadPatchesCounts(t *testing.T) {
	tests := []struct {
		width, height int
	}{
		{1, 1},
		{2, 1},
		{1, 3},
		{8, 8},
		{32, 32},
	}
	for _, tt := range tests {
		q, err := GenerateQuadPatches(tt.width, tt.height, groundCorners, UnitUVs)
		if err != nil {
			t.Fatalf("%dx%d: %v", tt.width, tt.height, err)
		}
		want := tt.width * tt.height * 4
		if len(q.Points) != want || len(q.TexCoords) != want {
			t.Errorf("%dx%d: got %d points and %d uvs, want %d", tt.width, tt.height, len(q.Points), len(q.TexCoords), want)
		}
		if q.PatchCount() != tt.width*tt.height {
			t.Errorf("%dx%d: PatchCount = %d", tt.width, tt.height, q.PatchCount())
		}
	}
}

func TestGenerateQuadPatchesSinglePatchIsCorners(t *testing.T) {
	q, err := GenerateQuadPatches(1, 1, groundCorners, UnitUVs)
	if err != nil {
		t.Fatal(err)
	}
	for i := range groundCorners {
		if q.Points[i] != groundCorners[i] {
			t.Errorf("point %d = %v, want %v", i, q.Points[i], groundCorners[i])
		}
		if q.TexCoords[i] != UnitUVs[i] {
			t.Errorf("uv %d = %v, want %v", i, q.TexCoords[i], UnitUVs[i])
		}
	}
}

func TestGenerateQuadPatchesShareEdges(t *testing.T) {
	q, err := GenerateQuadPatches(2, 1, groundCorners, UnitUVs)
	if err != nil {
		t.Fatal(err)
	}
	left, right := q.Patch(0), q.Patch(1)
	if left[1] != right[0] || left[2] != right[3] {
		t.Errorf("right edge %v,%v of patch 0 differs from left edge %v,%v of patch 1", left[1], left[2], right[0], right[3])
	}
	mid := math.NewVec3(0, 0, 1)
	if !left[1].Compare(mid, math.K_FLOAT_EPSILON) {
		t.Errorf("shared bottom point = %v, want %v", left[1], mid)
	}
}

func TestGenerateQuadPatchesRowMajor(t *testing.T) {
	q, err := GenerateQuadPatches(2, 2, groundCorners, UnitUVs)
	if err != nil {
		t.Fatal(err)
	}
	// Patch 1 is the second patch of the first row, patch 2 starts the next row.
	if got := q.Patch(1)[0]; !got.Compare(math.NewVec3(0, 0, 1), math.K_FLOAT_EPSILON) {
		t.Errorf("patch 1 origin = %v", got)
	}
	if got := q.Patch(2)[0]; !got.Compare(math.NewVec3(-1, 0, 0), math.K_FLOAT_EPSILON) {
		t.Errorf("patch 2 origin = %v", got)
	}
}

func TestGenerateQuadPatchesTexCoordsFollowPoints(t *testing.T) {
	q, err := GenerateQuadPatches(4, 3, groundCorners, UnitUVs)
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range q.Points {
		// For this surface u follows x and v follows -z.
		want := math.NewVec2((p.X+1)/2, (1-p.Z)/2)
		if !q.TexCoords[i].Compare(want, 1e-5) {
			t.Fatalf("uv %d = %v, want %v for point %v", i, q.TexCoords[i], want, p)
		}
	}
}

func TestGenerateQuadPatchesRejectsEmptyGrid(t *testing.T) {
	for _, dims := range [][2]int{{0, 1}, {1, 0}, {0, 0}, {-1, 4}} {
		_, err := GenerateQuadPatches(dims[0], dims[1], groundCorners, UnitUVs)
		if !errors.Is(err, core.ErrInvalidParameter) {
			t.Errorf("%dx%d: err = %v, want ErrInvalidParameter", dims[0], dims[1], err)
		}
	}
}
