package metadata

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/math"
	"github.com/spaghettifunk/anima-tessellation/engine/tessellation"
)

/** @brief Determines face culling mode during rendering. */
type FaceCullMode int

const (
	/** @brief No faces are culled. */
	FaceCullModeNone FaceCullMode = 0x0
	/** @brief Only front faces are culled. */
	FaceCullModeFront FaceCullMode = 0x1
	/** @brief Only back faces are culled. */
	FaceCullModeBack FaceCullMode = 0x2
)

func ParseFaceCullMode(s string) (FaceCullMode, error) {
	switch s {
	case "none":
		return FaceCullModeNone, nil
	case "front":
		return FaceCullModeFront, nil
	case "back":
		return FaceCullModeBack, nil
	}
	return FaceCullModeBack, fmt.Errorf("cull mode %q: %w", s, core.ErrInvalidParameter)
}

/** @brief How tessellated patches are rasterized. */
type FillMode uint8

const (
	/** @brief Edges only. The default, it shows the generated topology. */
	FillModeWireframe FillMode = iota
	/** @brief Solid, textured when the scene has a texture. */
	FillModeSolid
)

func (m FillMode) String() string {
	if m == FillModeSolid {
		return "fill"
	}
	return "wireframe"
}

// Toggle returns the other mode.
func (m FillMode) Toggle() FillMode {
	if m == FillModeSolid {
		return FillModeWireframe
	}
	return FillModeSolid
}

/**
 * @brief Identifies one generation of uploaded patches. Every regeneration
 * gets a fresh id so stale uploads are never mixed with new factors.
 */
type PatchSetID uuid.UUID

func NewPatchSetID() PatchSetID {
	return PatchSetID(uuid.New())
}

func (id PatchSetID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id was never assigned.
func (id PatchSetID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

/** @brief Everything a backend needs to record one frame. */
type FramePacket struct {
	DeltaTime   float64
	FrameNumber uint64
	PatchSet    PatchSetID
	PatchType   tessellation.PatchType
	PatchCount  uint32
	/** @brief Model-view-projection matrix, pushed as a constant. */
	MVP math.Mat4
	/** @brief Sample the texture in fill mode. */
	Textured bool
	FillMode FillMode
}
