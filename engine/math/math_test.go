package math

import (
	"testing"
)

func TestLerpEndpointsAreExact(t *testing.T) {
	a := NewVec3(-1, 0, 1)
	b := NewVec3(0.3, 7, -2.5)

	if got := a.Lerp(b, 0); got != a {
		t.Errorf("Lerp(0) = %v, want %v", got, a)
	}
	if got := a.Lerp(b, 1); got != b {
		t.Errorf("Lerp(1) = %v, want %v", got, b)
	}
	if got, want := a.Lerp(b, 0.5), NewVec3(-0.35, 3.5, -0.75); !got.Compare(want, 1e-6) {
		t.Errorf("Lerp(0.5) = %v, want %v", got, want)
	}
}

func TestMidpoint(t *testing.T) {
	got := NewVec3(0, 0, 0).Midpoint(NewVec3(0, 2, 0))
	if want := NewVec3(0, 1, 0); got != want {
		t.Errorf("Midpoint = %v, want %v", got, want)
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(70, 1, 64); got != 64 {
		t.Errorf("Clamp(70) = %d, want 64", got)
	}
	if got := Clamp[float32](0.5, 1, 64); got != 1 {
		t.Errorf("Clamp(0.5) = %v, want 1", got)
	}
	if got := Clamp(8.0, 1, 64); got != 8 {
		t.Errorf("Clamp(8) = %v, want 8", got)
	}
}

func TestTranslationTransform(t *testing.T) {
	m := NewMat4Translation(NewVec3(0, 0, -1.8))
	got := NewVec3(1, 2, 3).Transform(m)
	if want := NewVec3(1, 2, 1.2); !got.Compare(want, 1e-6) {
		t.Errorf("Transform = %v, want %v", got, want)
	}
}

func TestEulerXQuarterTurn(t *testing.T) {
	// -90 degrees about X takes +Z to +Y in the row-vector convention.
	m := NewMat4EulerX(DegToRad(-90))
	got := NewVec3(0, 0, 1).Transform(m)
	if want := NewVec3(0, 1, 0); !got.Compare(want, 1e-6) {
		t.Errorf("Transform = %v, want %v", got, want)
	}
}

func TestMulAppliesLeftFirst(t *testing.T) {
	rot := NewMat4EulerX(DegToRad(-90))
	move := NewMat4Translation(NewVec3(0, 0, -1.8))

	p := NewVec3(0, 0, 1)
	got := p.Transform(rot.Mul(move))
	want := p.Transform(rot).Transform(move)
	if !got.Compare(want, 1e-6) {
		t.Errorf("Transform(rot*move) = %v, want %v", got, want)
	}
}

func TestOrthographicMapsBoundsToClipSpace(t *testing.T) {
	m := NewMat4Orthographic(0, 1, 1, 0, -10, 10)

	if got := NewVec3(0, 1, 0).Transform(m); !got.Compare(NewVec3(-1, -1, 0), 1e-6) {
		t.Errorf("left/bottom = %v, want (-1,-1,0)", got)
	}
	if got := NewVec3(1, 0, 0).Transform(m); !got.Compare(NewVec3(1, 1, 0), 1e-6) {
		t.Errorf("right/top = %v, want (1,1,0)", got)
	}
}

func TestVec3sToBytesLayout(t *testing.T) {
	b := Vec3sToBytes([]Vec3{{1, 2, 3}, {4, 5, 6}})
	if len(b) != 24 {
		t.Fatalf("len = %d, want 24", len(b))
	}
	// 1.0f little endian
	if b[0] != 0x00 || b[1] != 0x00 || b[2] != 0x80 || b[3] != 0x3f {
		t.Errorf("first float bytes = % x, want 00 00 80 3f", b[:4])
	}
	if got := len(Vec2sToBytes(make([]Vec2, 3))); got != 24 {
		t.Errorf("Vec2sToBytes len = %d, want 24", got)
	}
}
