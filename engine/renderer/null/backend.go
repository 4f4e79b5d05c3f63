// Package null implements a renderer backend without a GPU. It records what
// it is asked to do, which is enough for dry runs and tests.
package null

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/math"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
)

type Backend struct {
	mu     sync.Mutex
	config metadata.RendererBackendConfig

	initialized bool
	width       uint32
	height      uint32
	fillMode    metadata.FillMode

	controlPoints map[metadata.PatchSetID][]math.Vec3
	texCoords     map[metadata.PatchSetID][]math.Vec2
	// encoded half records, as a GPU backend would upload them
	factors map[metadata.PatchSetID][]byte

	dispatches uint64
	draws      uint64
	last       *metadata.FramePacket
}

func New() *Backend {
	return &Backend{}
}

func (b *Backend) Initialize(ctx context.Context, config *metadata.RendererBackendConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if config == nil || config.Width == 0 || config.Height == 0 {
		return fmt.Errorf("null backend needs a non-empty target: %w", core.ErrInvalidParameter)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.config = *config
	b.width, b.height = config.Width, config.Height
	b.controlPoints = make(map[metadata.PatchSetID][]math.Vec3)
	b.texCoords = make(map[metadata.PatchSetID][]math.Vec2)
	b.factors = make(map[metadata.PatchSetID][]byte)
	b.initialized = true
	core.LogInfo("null renderer backend initialized (%dx%d)", b.width, b.height)
	return nil
}

func (b *Backend) UploadControlPoints(set metadata.PatchSetID, points []math.Vec3) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return core.ErrBackendNotInitialized
	}
	b.controlPoints[set] = append([]math.Vec3(nil), points...)
	return nil
}

func (b *Backend) UploadTexCoords(set metadata.PatchSetID, uvs []math.Vec2) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return core.ErrBackendNotInitialized
	}
	b.texCoords[set] = append([]math.Vec2(nil), uvs...)
	return nil
}

func (b *Backend) SetTessellationFactors(set metadata.PatchSetID, factors *tessellation.Factors) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return core.ErrBackendNotInitialized
	}
	b.factors[set] = factors.EncodeHalf()
	return nil
}

func (b *Backend) SetFillMode(mode metadata.FillMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fillMode = mode
}

func (b *Backend) Resized(width, height uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return core.ErrBackendNotInitialized
	}
	// minimised, keep the last size
	if width == 0 || height == 0 {
		return nil
	}
	b.width, b.height = width, height
	return nil
}

// DrawFrame counts one factor dispatch and one patch draw.
func (b *Backend) DrawFrame(packet *metadata.FramePacket) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return core.ErrBackendNotInitialized
	}
	points, ok := b.controlPoints[packet.PatchSet]
	if !ok {
		return fmt.Errorf("patch set %s was never uploaded: %w", packet.PatchSet, core.ErrInvalidParameter)
	}
	if _, ok := b.factors[packet.PatchSet]; !ok {
		return fmt.Errorf("patch set %s has no factors: %w", packet.PatchSet, core.ErrInvalidParameter)
	}
	if int(packet.PatchCount)*packet.PatchType.ControlPoints() != len(points) {
		return fmt.Errorf("packet draws %d patches, %d control points uploaded: %w", packet.PatchCount, len(points), core.ErrInvalidParameter)
	}
	b.dispatches++
	b.draws++
	p := *packet
	b.last = &p
	return nil
}

// Capture returns a frame filled with the clear colour.
func (b *Backend) Capture() (*image.RGBA, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return nil, core.ErrBackendNotInitialized
	}
	img := image.NewRGBA(image.Rect(0, 0, int(b.width), int(b.height)))
	cc := b.config.ClearColor
	bg := color.RGBA{
		R: uint8(math.Clamp(cc[0], 0, 1) * 255),
		G: uint8(math.Clamp(cc[1], 0, 1) * 255),
		B: uint8(math.Clamp(cc[2], 0, 1) * 255),
		A: uint8(math.Clamp(cc[3], 0, 1) * 255),
	}
	draw.Draw(img, img.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)
	return img, nil
}

func (b *Backend) Shutdown() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = false
	b.controlPoints = nil
	b.texCoords = nil
	b.factors = nil
	return nil
}

// Stats is a snapshot of what the backend has been asked to do.
type Stats struct {
	Dispatches uint64
	Draws      uint64
	FillMode   metadata.FillMode
	Last       *metadata.FramePacket
}

func (b *Backend) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{Dispatches: b.dispatches, Draws: b.draws, FillMode: b.fillMode, Last: b.last}
}

// Factors returns the encoded factor records uploaded for set.
func (b *Backend) Factors(set metadata.PatchSetID) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.factors[set]
}

func (b *Backend) ControlPoints(set metadata.PatchSetID) []math.Vec3 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.controlPoints[set]
}

func (b *Backend) TexCoords(set metadata.PatchSetID) []math.Vec2 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.texCoords[set]
}
