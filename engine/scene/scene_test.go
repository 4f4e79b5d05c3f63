package scene

import (
	"context"
	"errors"
	stdmath "math"
	"testing"

	"github.com/spaghettifunk/anima-tessellation/engine/config"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/math"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/null"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
)

func newTestScene(t *testing.T, cfg config.SceneConfig, bus *core.EventBus) (*Scene, *null.Backend) {
	t.Helper()
	backend := null.New()
	r := renderer.New(backend)
	if err := r.Initialize(context.Background(), &metadata.RendererBackendConfig{Width: 8, Height: 8}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = r.Shutdown() })

	s, err := New(r, bus, cfg, tessellation.MaxFactor)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Generate(); err != nil {
		t.Fatal(err)
	}
	return s, backend
}

func TestQuadSceneUploadsTexturedGrid(t *testing.T) {
	s, backend := newTestScene(t, config.Default().Scene, nil)

	if s.PatchType() != tessellation.PatchTypeQuad || s.PatchCount() != 4 || !s.Textured() {
		t.Fatalf("scene = %s x%d textured=%v, want 4 textured quads", s.PatchType(), s.PatchCount(), s.Textured())
	}
	points := backend.ControlPoints(s.PatchSet())
	if len(points) != 16 {
		t.Fatalf("uploaded %d control points, want 16", len(points))
	}
	// first patch starts at the bottom-left corner
	if want := math.NewVec3(-1, 0, 1); points[0] != want {
		t.Errorf("points[0] = %v, want %v", points[0], want)
	}
	uvs := backend.TexCoords(s.PatchSet())
	if uvs[2] != math.NewVec2(0.5, 0.5) {
		t.Errorf("uvs[2] = %v, want (0.5, 0.5)", uvs[2])
	}

	f, err := tessellation.DecodeHalf(tessellation.PatchTypeQuad, backend.Factors(s.PatchSet()))
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range f.Values() {
		if v != tessellation.DefaultFactor {
			t.Fatalf("factor %v, want %v", v, tessellation.DefaultFactor)
		}
	}
}

func TestTriangleSceneIsUntextured(t *testing.T) {
	cfg := config.Default().Scene
	cfg.PatchType = "triangle"
	cfg.Triangle.Depth = 2
	s, backend := newTestScene(t, cfg, nil)

	if s.PatchCount() != 16 || s.Textured() {
		t.Fatalf("patches = %d textured=%v, want 16 untextured", s.PatchCount(), s.Textured())
	}
	if n := len(backend.ControlPoints(s.PatchSet())); n != 48 {
		t.Errorf("uploaded %d points, want 48", n)
	}
	if n := len(backend.Factors(s.PatchSet())); n != 16*tessellation.HalfRecordSize(tessellation.PatchTypeTriangle) {
		t.Errorf("factor bytes = %d", n)
	}
}

func TestStepFactorClampsAndFires(t *testing.T) {
	bus := core.NewEventBus()
	var fired []float32
	bus.Register(core.EVENT_CODE_TESSELLATION_FACTOR_CHANGED, t, func(ctx core.EventContext) bool {
		fired = append(fired, ctx.Data.(float32))
		return true
	})
	cfg := config.Default().Scene
	cfg.Factor = 2
	s, backend := newTestScene(t, cfg, bus)

	steps := []struct {
		delta, want float32
	}{
		{-1, 1},
		{-1, 1},
		{1, 2},
		{100, tessellation.MaxFactor},
		{1, tessellation.MaxFactor},
	}
	for _, st := range steps {
		if err := s.StepFactor(st.delta); err != nil {
			t.Fatal(err)
		}
		if s.Factor() != st.want {
			t.Fatalf("after %+v factor = %v, want %v", st.delta, s.Factor(), st.want)
		}
	}
	if want := []float32{1, 2, tessellation.MaxFactor}; len(fired) != len(want) {
		t.Errorf("fired %v, want %v", fired, want)
	}

	f, _ := tessellation.DecodeHalf(tessellation.PatchTypeQuad, backend.Factors(s.PatchSet()))
	if e, _ := f.Edge(3, 3); e != tessellation.MaxFactor {
		t.Errorf("uploaded edge factor %v, want %v", e, tessellation.MaxFactor)
	}
}

func TestRegenerateUsesFreshPatchSet(t *testing.T) {
	s, backend := newTestScene(t, config.Default().Scene, nil)
	first := s.PatchSet()

	if err := s.Generate(); err != nil {
		t.Fatal(err)
	}
	if s.PatchSet() == first {
		t.Fatal("regeneration reused the patch set id")
	}
	if err := s.Draw(0.016); err != nil {
		t.Fatal(err)
	}
	if last := backend.Stats().Last; last == nil || last.PatchSet != s.PatchSet() {
		t.Errorf("drew %+v, want set %s", last, s.PatchSet())
	}
}

func TestReloadSwitchesPatchType(t *testing.T) {
	s, backend := newTestScene(t, config.Default().Scene, nil)

	cfg := config.Default().Scene
	cfg.PatchType = "triangle"
	cfg.Triangle.Depth = 1
	cfg.Factor = 5
	if err := s.Reload(cfg); err != nil {
		t.Fatal(err)
	}
	if s.PatchType() != tessellation.PatchTypeTriangle || s.PatchCount() != 4 || s.Factor() != 5 {
		t.Fatalf("after reload: %s x%d factor %v", s.PatchType(), s.PatchCount(), s.Factor())
	}
	if err := s.Draw(0); err != nil {
		t.Fatal(err)
	}
	if got := backend.Stats().Last.PatchType; got != tessellation.PatchTypeTriangle {
		t.Errorf("drew %s, want triangle", got)
	}
}

func TestReloadKeepsPreviousSetOnError(t *testing.T) {
	s, _ := newTestScene(t, config.Default().Scene, nil)
	set := s.PatchSet()

	bad := config.Default().Scene
	bad.Quad.Width = 0
	if err := s.Reload(bad); !errors.Is(err, core.ErrInvalidParameter) {
		t.Fatalf("err = %v, want ErrInvalidParameter", err)
	}
	if s.PatchSet() != set || s.PatchCount() != 4 {
		t.Errorf("failed reload replaced the patch set")
	}
	if err := s.Draw(0); err != nil {
		t.Errorf("draw after failed reload: %v", err)
	}

	bad = config.Default().Scene
	bad.PatchType = "hexagon"
	if err := s.Reload(bad); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("unknown patch type: err = %v", err)
	}
}

func TestReloadWithBadFactorKeepsDrawing(t *testing.T) {
	for _, factor := range []float32{float32(stdmath.NaN()), 0, -3} {
		s, backend := newTestScene(t, config.Default().Scene, nil)
		set := s.PatchSet()
		if err := s.Draw(0); err != nil {
			t.Fatal(err)
		}

		bad := config.Default().Scene
		bad.PatchType = "triangle"
		bad.Factor = factor
		if err := s.Reload(bad); !errors.Is(err, core.ErrInvalidParameter) {
			t.Fatalf("factor %v: err = %v, want ErrInvalidParameter", factor, err)
		}
		if s.PatchSet() != set || s.PatchType() != tessellation.PatchTypeQuad || s.Factor() != tessellation.DefaultFactor {
			t.Errorf("factor %v: scene changed to %s set %s factor %v", factor, s.PatchType(), s.PatchSet(), s.Factor())
		}
		if err := s.Draw(0); err != nil {
			t.Fatalf("factor %v: draw after failed reload: %v", factor, err)
		}
		last := backend.Stats().Last
		if last.PatchSet != set || last.PatchType != tessellation.PatchTypeQuad {
			t.Errorf("factor %v: drew %s %s, want the previous quad set", factor, last.PatchType, last.PatchSet)
		}
	}
}

func TestToggleFillMode(t *testing.T) {
	bus := core.NewEventBus()
	toggles := 0
	bus.Register(core.EVENT_CODE_FILL_MODE_TOGGLED, t, func(core.EventContext) bool {
		toggles++
		return true
	})
	s, backend := newTestScene(t, config.Default().Scene, bus)

	if got := s.ToggleFillMode(); got != metadata.FillModeSolid {
		t.Fatalf("first toggle = %v, want fill", got)
	}
	if backend.Stats().FillMode != metadata.FillModeSolid {
		t.Error("backend fill mode not updated")
	}
	if got := s.ToggleFillMode(); got != metadata.FillModeWireframe {
		t.Errorf("second toggle = %v, want wireframe", got)
	}
	if toggles != 2 {
		t.Errorf("fired %d toggles, want 2", toggles)
	}
}

func TestMVPMatchesCameraSetup(t *testing.T) {
	s, _ := newTestScene(t, config.Default().Scene, nil)

	// the quad centre sits on the plane y=0, rotated into view and shifted
	// by the eye translation before the orthographic projection
	got := math.NewVec3(0, 0, 0).Transform(s.MVP())
	want := math.NewVec3(-1, 1, 0.18)
	if !got.Compare(want, 1e-5) {
		t.Errorf("origin -> %v, want %v", got, want)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New(nil, nil, config.Default().Scene, 64); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("nil renderer: err = %v", err)
	}
	r := renderer.New(null.New())
	if _, err := New(r, nil, config.Default().Scene, 0); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("zero max factor: err = %v", err)
	}
	if _, err := New(r, nil, config.Default().Scene, 64); err != nil {
		t.Errorf("valid scene: %v", err)
	}
}

func TestStepFactorBeforeGenerate(t *testing.T) {
	r := renderer.New(null.New())
	s, err := New(r, nil, config.Default().Scene, 64)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.StepFactor(1); !errors.Is(err, core.ErrInvalidParameter) {
		t.Errorf("err = %v, want ErrInvalidParameter", err)
	}
}
