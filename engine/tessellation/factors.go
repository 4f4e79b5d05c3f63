package tessellation

import (
	"fmt"
	stdmath "math"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
)

const (
	// DefaultFactor is the global factor the demo applies to every edge.
	DefaultFactor float32 = 8
	// MaxFactor is the largest factor the tessellation stage honours; the
	// backend clamps anything above it.
	MaxFactor float32 = 64
)

// Factors holds the edge and inside tessellation factors of every patch of a
// patch set. Values are stored patch by patch as edge[0..N) followed by
// inside[0..M), N and M depending on the patch type.
type Factors struct {
	patchType  PatchType
	patchCount int
	values     []float32
}

// NewUniformFactors returns factors with value in every edge and inside slot
// of patchCount patches.
func NewUniformFactors(patchType PatchType, patchCount int, value float32) (*Factors, error) {
	if patchCount < 1 {
		return nil, fmt.Errorf("patch count %d: %w", patchCount, core.ErrInvalidParameter)
	}
	if err := validFactor(value); err != nil {
		return nil, err
	}
	f := &Factors{
		patchType:  patchType,
		patchCount: patchCount,
		values:     make([]float32, patchCount*patchType.FactorsPerPatch()),
	}
	for i := range f.values {
		f.values[i] = value
	}
	return f, nil
}

func (f *Factors) PatchType() PatchType {
	return f.patchType
}

func (f *Factors) PatchCount() int {
	return f.patchCount
}

// Edge returns the factor of edge e of patch p.
func (f *Factors) Edge(p, e int) (float32, error) {
	i, err := f.index(p, e, f.patchType.EdgeFactors(), 0)
	if err != nil {
		return 0, err
	}
	return f.values[i], nil
}

// Inside returns the inside factor for axis a of patch p.
func (f *Factors) Inside(p, a int) (float32, error) {
	i, err := f.index(p, a, f.patchType.InsideFactors(), f.patchType.EdgeFactors())
	if err != nil {
		return 0, err
	}
	return f.values[i], nil
}

// SetEdge sets the factor of edge e of patch p.
func (f *Factors) SetEdge(p, e int, value float32) error {
	i, err := f.index(p, e, f.patchType.EdgeFactors(), 0)
	if err != nil {
		return err
	}
	if err := validFactor(value); err != nil {
		return err
	}
	f.values[i] = value
	return nil
}

// SetInside sets the inside factor for axis a of patch p.
func (f *Factors) SetInside(p, a int, value float32) error {
	i, err := f.index(p, a, f.patchType.InsideFactors(), f.patchType.EdgeFactors())
	if err != nil {
		return err
	}
	if err := validFactor(value); err != nil {
		return err
	}
	f.values[i] = value
	return nil
}

// SetAll replaces every factor of every patch with value.
func (f *Factors) SetAll(value float32) error {
	if err := validFactor(value); err != nil {
		return err
	}
	for i := range f.values {
		f.values[i] = value
	}
	return nil
}

// Values returns a copy of the raw per-patch records.
func (f *Factors) Values() []float32 {
	out := make([]float32, len(f.values))
	copy(out, f.values)
	return out
}

func (f *Factors) index(p, slot, slots, offset int) (int, error) {
	if p < 0 || p >= f.patchCount {
		return 0, fmt.Errorf("patch %d of %d: %w", p, f.patchCount, core.ErrInvalidParameter)
	}
	if slot < 0 || slot >= slots {
		return 0, fmt.Errorf("factor slot %d of %d: %w", slot, slots, core.ErrInvalidParameter)
	}
	return p*f.patchType.FactorsPerPatch() + offset + slot, nil
}

func validFactor(value float32) error {
	if value <= 0 || stdmath.IsNaN(float64(value)) || stdmath.IsInf(float64(value), 0) {
		return fmt.Errorf("tessellation factor %v: %w", value, core.ErrInvalidParameter)
	}
	return nil
}
