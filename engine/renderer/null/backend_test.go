package null

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/math"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
)

func initialized(t *testing.T) *Backend {
	t.Helper()
	b := New()
	err := b.Initialize(context.Background(), &metadata.RendererBackendConfig{
		Width:      8,
		Height:     6,
		ClearColor: [4]float32{1, 1, 1, 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestNullBackendOneDispatchOneDrawPerFrame(t *testing.T) {
	b := initialized(t)
	set := metadata.NewPatchSetID()
	points := make([]math.Vec3, 12)
	if err := b.UploadControlPoints(set, points); err != nil {
		t.Fatal(err)
	}
	f, _ := tessellation.NewUniformFactors(tessellation.PatchTypeTriangle, 4, 8)
	if err := b.SetTessellationFactors(set, f); err != nil {
		t.Fatal(err)
	}
	if got := len(b.Factors(set)); got != 4*8 {
		t.Errorf("encoded factors = %d bytes, want 32", got)
	}

	packet := &metadata.FramePacket{PatchSet: set, PatchType: tessellation.PatchTypeTriangle, PatchCount: 4}
	for i := 0; i < 3; i++ {
		if err := b.DrawFrame(packet); err != nil {
			t.Fatal(err)
		}
	}
	if s := b.Stats(); s.Dispatches != 3 || s.Draws != 3 {
		t.Errorf("stats = %+v, want 3 dispatches and 3 draws", s)
	}
}

func TestNullBackendRejectsUnknownSet(t *testing.T) {
	b := initialized(t)
	err := b.DrawFrame(&metadata.FramePacket{PatchSet: metadata.NewPatchSetID(), PatchCount: 1})
	if !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("err = %v, want ErrInvalidParameter", err)
	}
}

func TestNullBackendCapture(t *testing.T) {
	b := initialized(t)
	if err := b.Resized(16, 9); err != nil {
		t.Fatal(err)
	}
	if err := b.Resized(0, 0); err != nil {
		t.Fatal(err)
	}
	img, err := b.Capture()
	if err != nil {
		t.Fatal(err)
	}
	if img.Rect.Dx() != 16 || img.Rect.Dy() != 9 {
		t.Errorf("capture %v, want 16x9", img.Rect)
	}
	if got := img.RGBAAt(3, 3); got != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("pixel = %v, want white", got)
	}
}

func TestNullBackendNeedsInitialize(t *testing.T) {
	b := New()
	if err := b.UploadControlPoints(metadata.NewPatchSetID(), nil); !errors.Is(err, core.ErrBackendNotInitialized) {
		t.Errorf("err = %v", err)
	}
	if err := b.Initialize(context.Background(), &metadata.RendererBackendConfig{}); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("empty target: err = %v", err)
	}
}
