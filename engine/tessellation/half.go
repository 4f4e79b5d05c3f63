package tessellation

import (
	"encoding/binary"
	"fmt"

	"github.com/spaghettifunk/anima-tessellation/engine/core"
	"github.com/x448/float16"
)

// HalfRecordSize is the byte size of one encoded patch record: 12 for quads
// (4 edge + 2 inside halfs) and 8 for triangles (3 edge + 1 inside).
func HalfRecordSize(pt PatchType) int {
	return pt.FactorsPerPatch() * 2
}

// EncodeHalf packs the factors into consecutive per-patch records of IEEE-754
// binary16 values, little endian, in the order edge[0..N), inside[0..M).
func (f *Factors) EncodeHalf() []byte {
	out := make([]byte, 0, f.patchCount*HalfRecordSize(f.patchType))
	for _, v := range f.values {
		out = binary.LittleEndian.AppendUint16(out, float16.Fromfloat32(v).Bits())
	}
	return out
}

// DecodeHalf reverses EncodeHalf. Precision is that of binary16, so values
// that are not exactly representable come back rounded. Records holding a
// factor NewUniformFactors would refuse (zero, negative, NaN, Inf) are
// rejected.
func DecodeHalf(patchType PatchType, data []byte) (*Factors, error) {
	record := HalfRecordSize(patchType)
	if len(data) == 0 || len(data)%record != 0 {
		return nil, fmt.Errorf("%d bytes is not a whole number of %d byte records: %w", len(data), record, core.ErrInvalidParameter)
	}
	f := &Factors{
		patchType:  patchType,
		patchCount: len(data) / record,
		values:     make([]float32, len(data)/2),
	}
	for i := range f.values {
		v := float16.Frombits(binary.LittleEndian.Uint16(data[i*2:])).Float32()
		if err := validFactor(v); err != nil {
			return nil, fmt.Errorf("record %d: %w", i/patchType.FactorsPerPatch(), err)
		}
		f.values[i] = v
	}
	return f, nil
}
