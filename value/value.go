// Package value implements the tagged union over the engine's scalar,
// vector, and packed numeric types: copy, equality, hashing, linear and
// barycentric interpolation, and format-converting promotion between a
// handful of related packed layouts.
//
// Hashing follows the FNV-1a convention used throughout the sibling
// gogpu-gg cache package (cache.StringHasher/IntHasher): a running
// 64-bit accumulator fed one component at a time, rather than pulling in
// a third-party hashing library for a handful of fixed-width values.
package value

import "math"

// Type tags every native value the core understands. The set covers
// scalars, fixed-size vectors, and the packed/normalized formats used by
// vertex and texture data.
type Type uint32

const (
	TypeInvalid Type = iota

	TypeBool
	TypeInt32
	TypeUint32
	TypeFloat32

	TypeFloat2
	TypeFloat3
	TypeFloat4

	TypeHalf2
	TypeHalf4

	TypeByte2N
	TypeByte4N
	TypeUByte2N
	TypeUByte4N

	TypeShort2N
	TypeShort4N
	TypeUShort2N
	TypeUShort4N

	TypeUX10Y10Z10W2N

	numTypes
)

// Value is a tagged union of one native type. float-family members are
// stored widened to float64 for the scalar/vector cases, and as their
// packed bit representation for the packed cases; Promote converts
// between the two representations explicitly.
type Value struct {
	tag  Type
	f    [4]float64
	i    int64
	u    uint64
	b    bool
	bits uint32 // packed-format raw bits (UX10Y10Z10W2N, ...)
}

// NewBool builds a TypeBool value.
func NewBool(v bool) Value { return Value{tag: TypeBool, b: v} }

// NewInt32 builds a TypeInt32 value.
func NewInt32(v int32) Value { return Value{tag: TypeInt32, i: int64(v)} }

// NewUint32 builds a TypeUint32 value.
func NewUint32(v uint32) Value { return Value{tag: TypeUint32, u: uint64(v)} }

// NewFloat32 builds a TypeFloat32 value.
func NewFloat32(v float32) Value { return Value{tag: TypeFloat32, f: [4]float64{float64(v)}} }

// NewFloat2 builds a TypeFloat2 value.
func NewFloat2(x, y float32) Value {
	return Value{tag: TypeFloat2, f: [4]float64{float64(x), float64(y)}}
}

// NewFloat3 builds a TypeFloat3 value.
func NewFloat3(x, y, z float32) Value {
	return Value{tag: TypeFloat3, f: [4]float64{float64(x), float64(y), float64(z)}}
}

// NewFloat4 builds a TypeFloat4 value.
func NewFloat4(x, y, z, w float32) Value {
	return Value{tag: TypeFloat4, f: [4]float64{float64(x), float64(y), float64(z), float64(w)}}
}

// Type returns the value's tag.
func (v Value) Type() Type { return v.tag }

// Components returns up to four widened float components for any
// scalar/vector-family value. Packed-format values must be promoted to
// a float family first.
func (v Value) Components() [4]float64 { return v.f }

// Equals reports whether a and b hold the same type and the same
// bit-for-bit value.
func Equals(a, b Value) bool {
	if a.tag != b.tag {
		return false
	}
	switch a.tag {
	case TypeBool:
		return a.b == b.b
	case TypeInt32:
		return a.i == b.i
	case TypeUint32:
		return a.u == b.u
	case TypeUX10Y10Z10W2N:
		return a.bits == b.bits
	default:
		for i := range a.f {
			if math.Float64bits(a.f[i]) != math.Float64bits(b.f[i]) {
				return false
			}
		}
		return true
	}
}

// Hash computes an FNV-1a hash over the value's tag and active payload,
// matching the running-accumulator style of cache.StringHasher.
func Hash(v Value) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	mix := func(b byte) {
		h ^= uint64(b)
		h *= prime64
	}
	mixU64 := func(u uint64) {
		for i := 0; i < 8; i++ {
			mix(byte(u >> (8 * i)))
		}
	}

	mixU64(uint64(v.tag))
	switch v.tag {
	case TypeBool:
		if v.b {
			mix(1)
		} else {
			mix(0)
		}
	case TypeInt32:
		mixU64(uint64(v.i))
	case TypeUint32:
		mixU64(v.u)
	case TypeUX10Y10Z10W2N:
		mixU64(uint64(v.bits))
	default:
		for _, c := range v.f {
			mixU64(math.Float64bits(c))
		}
	}
	return h
}

// Lerp linearly interpolates between a and b by t ∈ [0,1]. Both values
// must share a float-family type; other families are not interpolated
// directly and must be promoted first.
func Lerp(a, b Value, t float64) Value {
	out := Value{tag: a.tag}
	for i := range a.f {
		out.f[i] = a.f[i] + (b.f[i]-a.f[i])*t
	}
	return out
}

// LerpBarycentric interpolates a, b, c by barycentric weights (u, v),
// the weight of a being 1-u-v.
func LerpBarycentric(a, b, c Value, u, v float64) Value {
	w := 1 - u - v
	out := Value{tag: a.tag}
	for i := range a.f {
		out.f[i] = a.f[i]*w + b.f[i]*u + c.f[i]*v
	}
	return out
}
