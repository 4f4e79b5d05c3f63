package components

import (
	"fmt"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/spaghettifunk/anima-tessellation/engine/math"
)

/**
 * @brief An orthographic camera looking at the patch plane. The view and
 * projection matrices are rebuilt lazily when the camera changes.
 */
type Camera struct {
	/**
	 * @brief The view translation of this camera.
	 * NOTE: Do not set this directly, use SetPosition() instead
	 * so the view matrix is recalculated when needed.
	 */
	Position math.Vec3
	/** @brief Orthographic volume, in view space. */
	Left, Right, Bottom, Top float32
	Near, Far                float32
	/** @brief Internal flag used to determine when the matrices need to be rebuilt. */
	IsDirty bool

	ViewMatrix       math.Mat4
	ProjectionMatrix math.Mat4
}

func NewOrthographicCamera(left, right, bottom, top, near, far float32) (*Camera, error) {
	c := &Camera{}
	c.Reset()
	if err := c.SetVolume(left, right, bottom, top, near, far); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Camera) Reset() {
	c.Position = math.NewVec3Zero()
	c.IsDirty = true
	c.ViewMatrix = math.NewMat4Identity()
	c.ProjectionMatrix = math.NewMat4Identity()
}

func (c *Camera) GetPosition() math.Vec3 {
	return c.Position
}

func (c *Camera) SetPosition(position math.Vec3) {
	c.Position = position
	c.IsDirty = true
}

// SetVolume replaces the orthographic bounds. Degenerate bounds would divide
// by zero in the projection and are rejected.
func (c *Camera) SetVolume(left, right, bottom, top, near, far float32) error {
	if left == right || bottom == top || near == far {
		return fmt.Errorf("degenerate orthographic volume l=%v r=%v b=%v t=%v n=%v f=%v: %w",
			left, right, bottom, top, near, far, core.ErrInvalidParameter)
	}
	c.Left, c.Right, c.Bottom, c.Top = left, right, bottom, top
	c.Near, c.Far = near, far
	c.IsDirty = true
	return nil
}

func (c *Camera) rebuild() {
	if !c.IsDirty {
		return
	}
	c.ViewMatrix = math.NewMat4Translation(c.Position)
	c.ProjectionMatrix = math.NewMat4Orthographic(c.Left, c.Right, c.Bottom, c.Top, c.Near, c.Far)
	c.IsDirty = false
}

func (c *Camera) GetView() math.Mat4 {
	c.rebuild()
	return c.ViewMatrix
}

func (c *Camera) GetProjection() math.Mat4 {
	c.rebuild()
	return c.ProjectionMatrix
}

// MVP composes model with the camera, row-vector order: model, view, projection.
func (c *Camera) MVP(model math.Mat4) math.Mat4 {
	c.rebuild()
	return model.Mul(c.ViewMatrix).Mul(c.ProjectionMatrix)
}
