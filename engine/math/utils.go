package math

import (
	"encoding/binary"
	m "math"

	"golang.org/x/exp/constraints"
)

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Lerp interpolates between a and b as a*(1-t) + b*t, which is exact at both ends.
func Lerp[T constraints.Float](a, b, t T) T {
	return a*(1-t) + b*t
}

/**
 * @brief Converts provided degrees to radians.
 */
func DegToRad(degrees float32) float32 {
	return degrees * K_DEG2RAD_MULTIPLIER
}

/**
 * @brief Converts provided radians to degrees.
 */
func RadToDeg(radians float32) float32 {
	return radians * K_RAD2DEG_MULTIPLIER
}

// Vec3sToBytes flattens positions into tightly packed little-endian float triples.
func Vec3sToBytes(vs []Vec3) []byte {
	out := make([]byte, 0, len(vs)*12)
	for _, v := range vs {
		out = binary.LittleEndian.AppendUint32(out, m.Float32bits(v.X))
		out = binary.LittleEndian.AppendUint32(out, m.Float32bits(v.Y))
		out = binary.LittleEndian.AppendUint32(out, m.Float32bits(v.Z))
	}
	return out
}

// Vec2sToBytes flattens coordinates into tightly packed little-endian float pairs.
func Vec2sToBytes(vs []Vec2) []byte {
	out := make([]byte, 0, len(vs)*8)
	for _, v := range vs {
		out = binary.LittleEndian.AppendUint32(out, m.Float32bits(v.X))
		out = binary.LittleEndian.AppendUint32(out, m.Float32bits(v.Y))
	}
	return out
}

func float32sToBytes(fs []float32) []byte {
	out := make([]byte, 0, len(fs)*4)
	for _, f := range fs {
		out = binary.LittleEndian.AppendUint32(out, m.Float32bits(f))
	}
	return out
}
