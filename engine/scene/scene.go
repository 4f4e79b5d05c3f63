// Package scene owns the single active patch set: it generates control points
// from the scene config, keeps the global tessellation factor and builds the
// MVP pushed with every frame.
package scene

import (
	"fmt"

	"github.com/spaghettifunk/anima-tessellation/engine/config"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/math"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/components"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
)

type Scene struct {
	renderer  *renderer.Renderer
	bus       *core.EventBus
	config    config.SceneConfig
	maxFactor float32

	camera *components.Camera
	model  math.Mat4

	patchType  tessellation.PatchType
	patchSet   metadata.PatchSetID
	patchCount int
	textured   bool
	factor     float32
}

// New builds a scene drawing through r. Nothing is generated until Generate.
// bus may be nil; when set, factor and fill mode changes are fired on it.
func New(r *renderer.Renderer, bus *core.EventBus, cfg config.SceneConfig, maxFactor float32) (*Scene, error) {
	if r == nil {
		return nil, fmt.Errorf("scene without a renderer: %w", core.ErrInvalidParameter)
	}
	if maxFactor < 1 {
		return nil, fmt.Errorf("max tessellation factor %v: %w", maxFactor, core.ErrInvalidParameter)
	}
	s := &Scene{
		renderer:  r,
		bus:       bus,
		maxFactor: maxFactor,
	}
	if err := s.configure(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scene) configure(cfg config.SceneConfig) error {
	pt, err := tessellation.ParsePatchType(cfg.PatchType)
	if err != nil {
		return err
	}
	cam := cfg.Camera
	camera, err := components.NewOrthographicCamera(cam.Left, cam.Right, cam.Bottom, cam.Top, cam.Near, cam.Far)
	if err != nil {
		return err
	}
	camera.SetPosition(vec3(cam.Eye))

	s.config = cfg
	s.patchType = pt
	s.camera = camera
	s.model = math.NewMat4EulerX(math.DegToRad(cam.ModelRotationXDegrees))
	s.factor = cfg.Factor
	return nil
}

// Generate builds a fresh patch set from the current config and uploads it
// together with uniform factors.
func (s *Scene) Generate() error {
	var (
		points []math.Vec3
		uvs    []math.Vec2
	)
	switch s.patchType {
	case tessellation.PatchTypeQuad:
		q := s.config.Quad
		var corners [4]math.Vec3
		var cornerUVs [4]math.Vec2
		for i := range corners {
			corners[i] = vec3(q.Corners[i])
			cornerUVs[i] = math.NewVec2(q.UVs[i][0], q.UVs[i][1])
		}
		patches, err := tessellation.GenerateQuadPatches(q.Width, q.Height, corners, cornerUVs)
		if err != nil {
			return err
		}
		points, uvs = patches.Points, patches.TexCoords
	case tessellation.PatchTypeTriangle:
		t := s.config.Triangle
		seed := tessellation.Triangle{P0: vec3(t.Seed[0]), P1: vec3(t.Seed[1]), P2: vec3(t.Seed[2])}
		var err error
		if points, err = tessellation.GenerateTrianglePatches(t.Depth, seed); err != nil {
			return err
		}
	default:
		return fmt.Errorf("patch type %s: %w", s.patchType, core.ErrInvalidParameter)
	}

	// everything that can be rejected is checked before the renderer
	// lets go of the current set
	count, err := s.patchType.PatchCount(len(points))
	if err != nil {
		return err
	}
	factors, err := tessellation.NewUniformFactors(s.patchType, count, s.factor)
	if err != nil {
		return err
	}

	set := metadata.NewPatchSetID()
	if err := s.renderer.SetPatches(set, s.patchType, points, uvs); err != nil {
		return err
	}
	if err := s.renderer.SetFactors(factors); err != nil {
		return err
	}
	s.patchSet = set
	s.patchCount = count
	s.textured = uvs != nil
	core.LogInfo("generated %d %s patches (%d control points), set %s", count, s.patchType, len(points), set)
	return nil
}

// Reload swaps in cfg and regenerates. A config that cannot be generated
// leaves the previous patch set active.
func (s *Scene) Reload(cfg config.SceneConfig) error {
	prev := *s
	if err := s.configure(cfg); err != nil {
		return err
	}
	if err := s.Generate(); err != nil {
		*s = prev
		return err
	}
	return nil
}

func (s *Scene) uploadFactors(value float32) error {
	factors, err := tessellation.NewUniformFactors(s.patchType, s.patchCount, value)
	if err != nil {
		return err
	}
	return s.renderer.SetFactors(factors)
}

// StepFactor moves the global factor by delta, clamped to [1, max].
func (s *Scene) StepFactor(delta float32) error {
	if s.patchCount == 0 {
		return fmt.Errorf("no patches generated: %w", core.ErrInvalidParameter)
	}
	next := math.Clamp(s.factor+delta, 1, s.maxFactor)
	if next == s.factor {
		return nil
	}
	if err := s.uploadFactors(next); err != nil {
		return err
	}
	s.factor = next
	core.LogDebug("tessellation factor %v", next)
	s.fire(core.EVENT_CODE_TESSELLATION_FACTOR_CHANGED, next)
	return nil
}

func (s *Scene) ToggleFillMode() metadata.FillMode {
	mode := s.renderer.FillMode().Toggle()
	s.renderer.SetFillMode(mode)
	s.fire(core.EVENT_CODE_FILL_MODE_TOGGLED, mode)
	return mode
}

func (s *Scene) fire(code core.EventCode, data interface{}) {
	if s.bus == nil {
		return
	}
	s.bus.Fire(core.EventContext{Type: code, Data: data})
}

// Draw renders one frame of the active patch set.
func (s *Scene) Draw(deltaTime float64) error {
	return s.renderer.DrawFrame(deltaTime, s.MVP())
}

func (s *Scene) MVP() math.Mat4 {
	return s.camera.MVP(s.model)
}

func (s *Scene) Camera() *components.Camera {
	return s.camera
}

func (s *Scene) Factor() float32 {
	return s.factor
}

func (s *Scene) PatchType() tessellation.PatchType {
	return s.patchType
}

func (s *Scene) PatchSet() metadata.PatchSetID {
	return s.patchSet
}

func (s *Scene) PatchCount() int {
	return s.patchCount
}

// Textured reports whether the active patch set carries texture coordinates.
func (s *Scene) Textured() bool {
	return s.textured
}

func (s *Scene) FillMode() metadata.FillMode {
	return s.renderer.FillMode()
}

func vec3(v [3]float32) math.Vec3 {
	return math.NewVec3(v[0], v[1], v[2])
}
