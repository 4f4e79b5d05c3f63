// Package renderer is the backend-agnostic frontend that validates patch
// uploads before handing them to a RendererBackend.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/math"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
)

type Renderer struct {
	backend     RendererBackend
	initialized bool

	patchSet   metadata.PatchSetID
	patchType  tessellation.PatchType
	patchCount int
	textured   bool
	factors    *tessellation.Factors

	fillMode    metadata.FillMode
	frameNumber uint64
}

func New(backend RendererBackend) *Renderer {
	return &Renderer{backend: backend}
}

func (r *Renderer) Initialize(ctx context.Context, config *metadata.RendererBackendConfig) error {
	if err := r.backend.Initialize(ctx, config); err != nil {
		return err
	}
	r.initialized = true
	r.backend.SetFillMode(r.fillMode)
	return nil
}

func (r *Renderer) Shutdown() error {
	if !r.initialized {
		return nil
	}
	r.initialized = false
	return r.backend.Shutdown()
}

// SetPatches uploads a freshly generated patch set. uvs may be nil, in which
// case zero coordinates are uploaded so the texcoord binding stays valid.
func (r *Renderer) SetPatches(set metadata.PatchSetID, patchType tessellation.PatchType, points []math.Vec3, uvs []math.Vec2) error {
	if !r.initialized {
		return core.ErrBackendNotInitialized
	}
	if set.IsZero() {
		return fmt.Errorf("patch set id not assigned: %w", core.ErrInvalidParameter)
	}
	if len(points) == 0 {
		return fmt.Errorf("no control points: %w", core.ErrInvalidParameter)
	}
	patchCount, err := patchType.PatchCount(len(points))
	if err != nil {
		return err
	}
	textured := uvs != nil
	if uvs == nil {
		uvs = make([]math.Vec2, len(points))
	}
	if len(uvs) != len(points) {
		return fmt.Errorf("%d texcoords for %d control points: %w", len(uvs), len(points), core.ErrInvalidParameter)
	}

	if err := r.backend.UploadControlPoints(set, points); err != nil {
		return err
	}
	if err := r.backend.UploadTexCoords(set, uvs); err != nil {
		return err
	}

	r.patchSet = set
	r.patchType = patchType
	r.patchCount = patchCount
	r.textured = textured
	r.factors = nil
	core.LogDebug("patch set %s: %d %s patches", set, patchCount, patchType)
	return nil
}

// SetFactors uploads factors for the current patch set.
func (r *Renderer) SetFactors(factors *tessellation.Factors) error {
	if !r.initialized {
		return core.ErrBackendNotInitialized
	}
	if factors == nil {
		return fmt.Errorf("nil factors: %w", core.ErrInvalidParameter)
	}
	if factors.PatchType() != r.patchType || factors.PatchCount() != r.patchCount {
		return fmt.Errorf("factors for %d %s patches, patch set has %d %s: %w",
			factors.PatchCount(), factors.PatchType(), r.patchCount, r.patchType, core.ErrInvalidParameter)
	}
	if err := r.backend.SetTessellationFactors(r.patchSet, factors); err != nil {
		return err
	}
	r.factors = factors
	return nil
}

func (r *Renderer) SetFillMode(mode metadata.FillMode) {
	r.fillMode = mode
	if r.initialized {
		r.backend.SetFillMode(mode)
	}
}

func (r *Renderer) FillMode() metadata.FillMode {
	return r.fillMode
}

func (r *Renderer) OnResize(width, height uint32) error {
	if !r.initialized {
		return core.ErrBackendNotInitialized
	}
	return r.backend.Resized(width, height)
}

// DrawFrame renders the current patch set with mvp.
func (r *Renderer) DrawFrame(deltaTime float64, mvp math.Mat4) error {
	if !r.initialized {
		return core.ErrBackendNotInitialized
	}
	if r.patchCount == 0 || r.factors == nil {
		return fmt.Errorf("nothing to draw, upload patches and factors first: %w", core.ErrInvalidParameter)
	}
	r.frameNumber++
	packet := &metadata.FramePacket{
		DeltaTime:   deltaTime,
		FrameNumber: r.frameNumber,
		PatchSet:    r.patchSet,
		PatchType:   r.patchType,
		PatchCount:  uint32(r.patchCount),
		MVP:         mvp,
		Textured:    r.textured,
		FillMode:    r.fillMode,
	}
	if err := r.backend.DrawFrame(packet); err != nil {
		if errors.Is(err, core.ErrSwapchainBooting) {
			// The frame is skipped while the swapchain is rebuilt.
			return nil
		}
		core.LogError("draw frame %d failed: %s", r.frameNumber, err)
		return err
	}
	return nil
}

func (r *Renderer) Capture() (*image.RGBA, error) {
	if !r.initialized {
		return nil, core.ErrBackendNotInitialized
	}
	return r.backend.Capture()
}

func (r *Renderer) FrameNumber() uint64 {
	return r.frameNumber
}
