// Package tessellation generates patch control points for the hardware
// tessellator and describes the per-patch factors it consumes.
package tessellation

import (
	"fmt"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
)

// PatchType selects the patch primitive fed to the tessellator.
type PatchType uint8

const (
	PatchTypeQuad PatchType = iota
	PatchTypeTriangle
)

// ParsePatchType maps the configuration spelling of a patch type.
func ParsePatchType(s string) (PatchType, error) {
	switch s {
	case "quad":
		return PatchTypeQuad, nil
	case "triangle":
		return PatchTypeTriangle, nil
	}
	return PatchTypeQuad, fmt.Errorf("unknown patch type %q: %w", s, core.ErrInvalidParameter)
}

func (pt PatchType) String() string {
	switch pt {
	case PatchTypeQuad:
		return "quad"
	case PatchTypeTriangle:
		return "triangle"
	}
	return "unknown"
}

// ControlPoints is the number of control points in one patch.
func (pt PatchType) ControlPoints() int {
	if pt == PatchTypeTriangle {
		return 3
	}
	return 4
}

// EdgeFactors is the number of outer factors per patch.
func (pt PatchType) EdgeFactors() int {
	if pt == PatchTypeTriangle {
		return 3
	}
	return 4
}

// InsideFactors is the number of inner factors per patch.
func (pt PatchType) InsideFactors() int {
	if pt == PatchTypeTriangle {
		return 1
	}
	return 2
}

// FactorsPerPatch is EdgeFactors plus InsideFactors.
func (pt PatchType) FactorsPerPatch() int {
	return pt.EdgeFactors() + pt.InsideFactors()
}

// PatchCount returns how many whole patches pointCount control points hold.
// A count that does not divide evenly is rejected.
func (pt PatchType) PatchCount(pointCount int) (int, error) {
	cp := pt.ControlPoints()
	if pointCount%cp != 0 {
		return 0, fmt.Errorf("%d control points is not a multiple of %d: %w", pointCount, cp, core.ErrInvalidParameter)
	}
	return pointCount / cp, nil
}
