// Package bitdepth provides the file bit-depth tags and the numeric
// conversions used to move LUT values between file code values and the
// unit-normalised in-memory representation.
package bitdepth

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/constraints"
)

// BitDepth is the encoding used for values in a file.
type BitDepth int

const (
	Unknown BitDepth = iota
	UInt8
	UInt10
	UInt12
	UInt16
	F16
	F32
)

// ErrNotInteger is returned by InferBitDepth when the largest observed code
// value is too small for the sample to be integer encoded.
var ErrNotInteger = errors.New("maximum code value is unreasonably low for an integer encoding")

// LowestPlausibleMaxInt is the plausibility floor for integer LUT data.
const LowestPlausibleMaxInt = 128

var names = map[BitDepth]string{
	UInt8:  "8i",
	UInt10: "10i",
	UInt12: "12i",
	UInt16: "16i",
	F16:    "16f",
	F32:    "32f",
}

// String returns the token used in CTF/CLF attributes ("10i", "32f", ...).
func (bd BitDepth) String() string {
	if s, ok := names[bd]; ok {
		return s
	}
	return "unknown"
}

// Parse converts a CTF/CLF bit-depth token. Matching is case-insensitive.
func Parse(s string) (BitDepth, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for bd, name := range names {
		if name == s {
			return bd, nil
		}
	}
	return Unknown, fmt.Errorf("unknown bit depth %q", s)
}

// IsFloat reports whether bd is a floating-point encoding.
func (bd BitDepth) IsFloat() bool {
	return bd == F16 || bd == F32
}

// Bits returns the integer bit count of bd, or 0 for float and unknown depths.
func (bd BitDepth) Bits() int {
	switch bd {
	case UInt8:
		return 8
	case UInt10:
		return 10
	case UInt12:
		return 12
	case UInt16:
		return 16
	}
	return 0
}

// FromBits returns the integer bit depth with the given bit count.
func FromBits(bits int) BitDepth {
	switch bits {
	case 8:
		return UInt8
	case 10:
		return UInt10
	case 12:
		return UInt12
	case 16:
		return UInt16
	}
	return Unknown
}

// MaxValue returns the largest code value of bd: 2^bits-1 for integer
// depths and 1 for float depths.
func MaxValue(bd BitDepth) float64 {
	if bd.IsFloat() {
		return 1.0
	}
	if bits := bd.Bits(); bits > 0 {
		return float64(int(1)<<bits - 1)
	}
	return 1.0
}

// MaxIntValue returns 2^bits-1 for an integer bit count.
func MaxIntValue(bits int) int {
	return int(1)<<bits - 1
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp interpolates between a and b.
func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}

// ClampNormToInt returns round(clamp(v, 0, 1) * scale).
func ClampNormToInt(v, scale float64) int {
	return int(math.Round(Clamp(v, 0, 1) * scale))
}

// InferBitDepth guesses the integer bit depth of LUT data from its largest
// code value. Only even depths are considered and values up to twice the
// nominal maximum are tolerated, so the ranges are:
//
//	 8-bit  [128, 511]
//	10-bit  [512, 2047]
//	12-bit  [2048, 8191]
//	16-bit  [8192, ...]
//
// 14-bit is never produced; values in its range are promoted to 16-bit.
func InferBitDepth(maxObserved int) (BitDepth, error) {
	if maxObserved < LowestPlausibleMaxInt {
		return Unknown, ErrNotInteger
	}
	for bits := 8; bits <= 16; bits += 2 {
		if maxObserved <= (1<<bits)*2-1 {
			if bits == 14 {
				bits = 16
			}
			return FromBits(bits), nil
		}
	}
	return UInt16, nil
}

// CubeEdgeLength returns the edge length of a cube holding numEntries RGB
// entries, or an error if numEntries is not a perfect cube.
func CubeEdgeLength(numEntries int) (int, error) {
	edge := int(math.Round(math.Cbrt(float64(numEntries))))
	if edge*edge*edge != numEntries {
		return 0, fmt.Errorf("Cannot infer 3D LUT size. %d element(s) does not correspond to a unform cube edge length. (nearest edge length is %d)", numEntries, edge)
	}
	return edge, nil
}
