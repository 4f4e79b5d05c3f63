package renderer

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/math"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
)

// recordingBackend remembers the calls it receives in order.
type recordingBackend struct {
	calls    []string
	points   []math.Vec3
	uvs      []math.Vec2
	factors  *tessellation.Factors
	packets  []metadata.FramePacket
	fillMode metadata.FillMode
	drawErr  error
}

func (b *recordingBackend) Initialize(ctx context.Context, config *metadata.RendererBackendConfig) error {
	b.calls = append(b.calls, "initialize")
	return nil
}

func (b *recordingBackend) UploadControlPoints(set metadata.PatchSetID, points []math.Vec3) error {
	b.calls = append(b.calls, "points")
	b.points = points
	return nil
}

func (b *recordingBackend) UploadTexCoords(set metadata.PatchSetID, uvs []math.Vec2) error {
	b.calls = append(b.calls, "uvs")
	b.uvs = uvs
	return nil
}

func (b *recordingBackend) SetTessellationFactors(set metadata.PatchSetID, factors *tessellation.Factors) error {
	b.calls = append(b.calls, "factors")
	b.factors = factors
	return nil
}

func (b *recordingBackend) SetFillMode(mode metadata.FillMode) {
	b.fillMode = mode
}

func (b *recordingBackend) Resized(width, height uint32) error {
	b.calls = append(b.calls, "resized")
	return nil
}

func (b *recordingBackend) DrawFrame(packet *metadata.FramePacket) error {
	b.calls = append(b.calls, "draw")
	b.packets = append(b.packets, *packet)
	return b.drawErr
}

func (b *recordingBackend) Capture() (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func (b *recordingBackend) Shutdown() error {
	b.calls = append(b.calls, "shutdown")
	return nil
}

func newTestRenderer(t *testing.T) (*Renderer, *recordingBackend) {
	t.Helper()
	b := &recordingBackend{}
	r := New(b)
	if err := r.Initialize(context.Background(), &metadata.RendererBackendConfig{Width: 4, Height: 4}); err != nil {
		t.Fatal(err)
	}
	return r, b
}

func quadGrid(t *testing.T) tessellation.QuadPatches {
	t.Helper()
	corners := [4]math.Vec3{{X: -1, Z: 1}, {X: 1, Z: 1}, {X: 1, Z: -1}, {X: -1, Z: -1}}
	q, err := tessellation.GenerateQuadPatches(2, 2, corners, tessellation.UnitUVs)
	if err != nil {
		t.Fatal(err)
	}
	return q
}

func TestRendererUploadsThenDraws(t *testing.T) {
	r, b := newTestRenderer(t)
	q := quadGrid(t)
	set := metadata.NewPatchSetID()

	if err := r.SetPatches(set, tessellation.PatchTypeQuad, q.Points, q.TexCoords); err != nil {
		t.Fatal(err)
	}
	f, _ := tessellation.NewUniformFactors(tessellation.PatchTypeQuad, 4, 8)
	if err := r.SetFactors(f); err != nil {
		t.Fatal(err)
	}
	mvp := math.NewMat4Identity()
	if err := r.DrawFrame(0.016, mvp); err != nil {
		t.Fatal(err)
	}

	want := []string{"initialize", "points", "uvs", "factors", "draw"}
	if len(b.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", b.calls, want)
	}
	for i := range want {
		if b.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", b.calls, want)
		}
	}
	p := b.packets[0]
	if p.PatchCount != 4 || p.PatchType != tessellation.PatchTypeQuad || !p.Textured || p.PatchSet != set || p.FrameNumber != 1 {
		t.Errorf("packet = %+v", p)
	}
	if p.FillMode != metadata.FillModeWireframe {
		t.Errorf("default fill mode = %v, want wireframe", p.FillMode)
	}
}

func TestRendererSynthesisesTexCoords(t *testing.T) {
	r, b := newTestRenderer(t)
	points, _ := tessellation.GenerateTrianglePatches(1, tessellation.Triangle{
		P0: math.NewVec3(0, 0, 0), P1: math.NewVec3(0, 2, 0), P2: math.NewVec3(2, 2, 0),
	})
	if err := r.SetPatches(metadata.NewPatchSetID(), tessellation.PatchTypeTriangle, points, nil); err != nil {
		t.Fatal(err)
	}
	if len(b.uvs) != len(points) {
		t.Fatalf("uploaded %d uvs for %d points", len(b.uvs), len(points))
	}
	for _, uv := range b.uvs {
		if uv != (math.Vec2{}) {
			t.Fatalf("synthesised uv %v, want zero", uv)
		}
	}
}

func TestRendererRejectsInvalidUploads(t *testing.T) {
	r, b := newTestRenderer(t)
	q := quadGrid(t)
	set := metadata.NewPatchSetID()

	tests := []struct {
		name string
		err  error
	}{
		{"partial patch", r.SetPatches(set, tessellation.PatchTypeQuad, q.Points[:6], nil)},
		{"uv mismatch", r.SetPatches(set, tessellation.PatchTypeQuad, q.Points, q.TexCoords[:4])},
		{"empty", r.SetPatches(set, tessellation.PatchTypeQuad, nil, nil)},
		{"zero id", r.SetPatches(metadata.PatchSetID{}, tessellation.PatchTypeQuad, q.Points, nil)},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, core.ErrInvalidParameter) {
			t.Errorf("%s: err = %v, want ErrInvalidParameter", tt.name, tt.err)
		}
	}
	if len(b.calls) != 1 {
		t.Errorf("rejected uploads reached the backend: %v", b.calls)
	}

	if err := r.SetPatches(set, tessellation.PatchTypeQuad, q.Points, q.TexCoords); err != nil {
		t.Fatal(err)
	}
	wrongCount, _ := tessellation.NewUniformFactors(tessellation.PatchTypeQuad, 3, 8)
	if err := r.SetFactors(wrongCount); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("factor count mismatch: err = %v", err)
	}
	wrongType, _ := tessellation.NewUniformFactors(tessellation.PatchTypeTriangle, 4, 8)
	if err := r.SetFactors(wrongType); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("factor type mismatch: err = %v", err)
	}
	if err := r.DrawFrame(0, math.NewMat4Identity()); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("draw without factors: err = %v", err)
	}
}

func TestRendererRequiresInitialize(t *testing.T) {
	r := New(&recordingBackend{})
	if err := r.SetPatches(metadata.NewPatchSetID(), tessellation.PatchTypeQuad, make([]math.Vec3, 4), nil); !errors.Is(err, core.ErrBackendNotInitialized) {
		t.Errorf("err = %v, want ErrBackendNotInitialized", err)
	}
	if _, err := r.Capture(); !errors.Is(err, core.ErrBackendNotInitialized) {
		t.Errorf("err = %v, want ErrBackendNotInitialized", err)
	}
	if err := r.Shutdown(); err != nil {
		t.Errorf("Shutdown before Initialize = %v", err)
	}
}

func TestRendererSkipsBootingFrames(t *testing.T) {
	r, b := newTestRenderer(t)
	q := quadGrid(t)
	_ = r.SetPatches(metadata.NewPatchSetID(), tessellation.PatchTypeQuad, q.Points, q.TexCoords)
	f, _ := tessellation.NewUniformFactors(tessellation.PatchTypeQuad, 4, 8)
	_ = r.SetFactors(f)

	b.drawErr = core.ErrSwapchainBooting
	if err := r.DrawFrame(0, math.NewMat4Identity()); err != nil {
		t.Errorf("booting frame = %v, want nil", err)
	}
}

func TestRendererFillModeReachesBackend(t *testing.T) {
	r, b := newTestRenderer(t)
	r.SetFillMode(r.FillMode().Toggle())
	if b.fillMode != metadata.FillModeSolid || r.FillMode() != metadata.FillModeSolid {
		t.Errorf("fill mode = %v / %v, want fill", r.FillMode(), b.fillMode)
	}
}
