package tessellation

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/math"
)

var rightTriangle = Triangle{
	P0: math.NewVec3(0, 0, 0),
	P1: math.NewVec3(0, 2, 0),
	P2: math.NewVec3(2, 2, 0),
}

func TestGenerateTrianglePatchesDepthZero(t *testing.T) {
	points, err := GenerateTrianglePatches(0, rightTriangle)
	if err != nil {
		t.Fatal(err)
	}
	want := []math.Vec3{rightTriangle.P0, rightTriangle.P1, rightTriangle.P2}
	if len(points) != len(want) {
		t.Fatalf("got %d points, want %d", len(points), len(want))
	}
	for i := range want {
		if points[i] != want[i] {
			t.Errorf("point %d = %v, want %v", i, points[i], want[i])
		}
	}
}

func TestGenerateTrianglePatchesDepthOne(t *testing.T) {
	points, err := GenerateTrianglePatches(1, rightTriangle)
	if err != nil {
		t.Fatal(err)
	}
	want := [][3]math.Vec3{
		{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}},
		{{X: 0, Y: 1}, {X: 0, Y: 2}, {X: 1, Y: 2}},
		{{X: 1, Y: 2}, {X: 2, Y: 2}, {X: 1, Y: 1}},
		{{X: 0, Y: 1}, {X: 1, Y: 2}, {X: 1, Y: 1}},
	}
	if len(points) != 12 {
		t.Fatalf("got %d points, want 12", len(points))
	}
	for tri, corners := range want {
		for k, w := range corners {
			if got := points[tri*3+k]; got != w {
				t.Errorf("triangle %d point %d = %v, want %v", tri, k, got, w)
			}
		}
	}
}

func TestGenerateTrianglePatchesCounts(t *testing.T) {
	for depth := 0; depth <= 6; depth++ {
		points, err := GenerateTrianglePatches(depth, rightTriangle)
		if err != nil {
			t.Fatal(err)
		}
		if len(points) != trianglePointCount(depth) {
			t.Errorf("depth %d: got %d points, want %d", depth, len(points), trianglePointCount(depth))
		}
		if depth > 0 && trianglePointCount(depth) != 4*trianglePointCount(depth-1) {
			t.Errorf("depth %d does not quadruple depth %d", depth, depth-1)
		}
	}
}

func TestGenerateTrianglePatchesKeepsDuplicateMidpoints(t *testing.T) {
	points, err := GenerateTrianglePatches(1, rightTriangle)
	if err != nil {
		t.Fatal(err)
	}
	m01 := math.NewVec3(0, 1, 0)
	n := 0
	for _, p := range points {
		if p == m01 {
			n++
		}
	}
	if n != 3 {
		t.Errorf("midpoint of p0-p1 appears %d times, want 3", n)
	}
}

func TestGenerateTrianglePatchesAreaPreserved(t *testing.T) {
	area := func(a, b, c math.Vec3) float32 {
		return b.Sub(a).Cross(c.Sub(a)).Length() / 2
	}
	points, err := GenerateTrianglePatches(3, rightTriangle)
	if err != nil {
		t.Fatal(err)
	}
	var total float32
	for i := 0; i < len(points); i += 3 {
		total += area(points[i], points[i+1], points[i+2])
	}
	if want := area(rightTriangle.P0, rightTriangle.P1, rightTriangle.P2); total < want-1e-4 || total > want+1e-4 {
		t.Errorf("summed area %v, want %v", total, want)
	}
}

func TestGenerateTrianglePatchesRejectsNegativeDepth(t *testing.T) {
	_, err := GenerateTrianglePatches(-1, rightTriangle)
	if !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("err = %v, want ErrInvalidParameter", err)
	}
}
