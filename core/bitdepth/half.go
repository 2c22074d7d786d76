package bitdepth

import "github.com/x448/float16"

// HalfDomainSize is the number of entries of a half-domain 1D LUT, one per
// 16-bit pattern.
const HalfDomainSize = 65536

// HalfBitsToFloat32 decodes a raw IEEE-754 binary16 pattern.
func HalfBitsToFloat32(bits uint16) float32 {
	return float16.Frombits(bits).Float32()
}

// Float32ToHalfBits encodes v as binary16 with round-to-nearest-even.
func Float32ToHalfBits(v float32) uint16 {
	return float16.Fromfloat32(v).Bits()
}

// RoundToHalf returns v rounded to the nearest representable half value.
func RoundToHalf(v float32) float32 {
	return float16.Fromfloat32(v).Float32()
}

// HalfDomainValue returns the input value addressed by entry i of a
// half-domain LUT.
func HalfDomainValue(i int) float32 {
	return HalfBitsToFloat32(uint16(i))
}
