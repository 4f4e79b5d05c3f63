package renderer

import (
	"context"
	"image"

	"github.com/spaghettifunk/anima-tessellation/engine/math"
	"github.com/spaghettifunk/anima-tessellation/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
)

// RendererBackend is the GPU side of the demo. Uploads happen when a patch
// set is generated; every frame is one factor dispatch followed by one patch
// draw.
type RendererBackend interface {
	Initialize(ctx context.Context, config *metadata.RendererBackendConfig) error
	UploadControlPoints(set metadata.PatchSetID, points []math.Vec3) error
	UploadTexCoords(set metadata.PatchSetID, uvs []math.Vec2) error
	SetTessellationFactors(set metadata.PatchSetID, factors *tessellation.Factors) error
	SetFillMode(mode metadata.FillMode)
	Resized(width, height uint32) error
	DrawFrame(packet *metadata.FramePacket) error
	// Capture reads back the last rendered frame.
	Capture() (*image.RGBA, error)
	Shutdown() error
}
