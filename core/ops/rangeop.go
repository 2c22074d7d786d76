package ops

import (
	"math"
	"strings"
)

// RangeStyle tells whether a Range clamps outside its limits.
type RangeStyle int

const (
	RangeClamp RangeStyle = iota
	RangeNoClamp
)

// String returns the CTF style token.
func (s RangeStyle) String() string {
	if s == RangeNoClamp {
		return "noClamp"
	}
	return "Clamp"
}

// ParseRangeStyle converts a style token, case-insensitively.
func ParseRangeStyle(s string) (RangeStyle, error) {
	switch {
	case strings.EqualFold(s, "Clamp"):
		return RangeClamp, nil
	case strings.EqualFold(s, "noClamp"):
		return RangeNoClamp, nil
	}
	return RangeClamp, semantic("Unknown Range style: '%s'.", s)
}

// EmptyLimit marks a Range limit that is not set.
var EmptyLimit = math.NaN()

// IsEmptyLimit reports whether v is an unset Range limit.
func IsEmptyLimit(v float64) bool {
	return math.IsNaN(v)
}

// Range maps [MinIn, MaxIn] onto [MinOut, MaxOut]. Any limit may be empty.
type Range struct {
	Base
	MinIn, MaxIn   float64
	MinOut, MaxOut float64
	Style          RangeStyle
}

// NewRange returns a Range with the given limits; pass EmptyLimit for unset
// ones.
func NewRange(minIn, maxIn, minOut, maxOut float64) *Range {
	return &Range{MinIn: minIn, MaxIn: maxIn, MinOut: minOut, MaxOut: maxOut}
}

// NewEmptyRange returns a Range with no limits set.
func NewEmptyRange() *Range {
	return NewRange(EmptyLimit, EmptyLimit, EmptyLimit, EmptyLimit)
}

func (r *Range) Type() Type { return TypeRange }

// MinIsEmpty reports whether the minimum limits are unset.
func (r *Range) MinIsEmpty() bool { return IsEmptyLimit(r.MinIn) }

// MaxIsEmpty reports whether the maximum limits are unset.
func (r *Range) MaxIsEmpty() bool { return IsEmptyLimit(r.MaxIn) }

func (r *Range) Validate() error {
	if IsEmptyLimit(r.MinIn) != IsEmptyLimit(r.MinOut) {
		return semantic("In and out minimum limits must be both set or both missing in Range.")
	}
	if IsEmptyLimit(r.MaxIn) != IsEmptyLimit(r.MaxOut) {
		return semantic("In and out maximum limits must be both set or both missing in Range.")
	}
	if r.Style == RangeNoClamp && (r.MinIsEmpty() || r.MaxIsEmpty()) {
		return semantic("Non-clamping Range min & max values have to be set")
	}
	if !r.MinIsEmpty() && !r.MaxIsEmpty() {
		if r.MinIn > r.MaxIn {
			return semantic("Range maximum input value is less than minimum input value")
		}
		if r.MinOut > r.MaxOut {
			return semantic("Range maximum output value is less than minimum output value")
		}
		if r.Style == RangeNoClamp && math.Abs(r.MaxIn-r.MinIn) < 1e-12 {
			return semantic("Range maxInValue is too close to minInValue")
		}
	}
	return nil
}

// IsIdentity reports whether the Range neither scales nor clamps.
func (r *Range) IsIdentity() bool {
	if r.MinIsEmpty() && r.MaxIsEmpty() {
		return true
	}
	if r.Style != RangeNoClamp {
		return false
	}
	return r.MinIn == r.MinOut && r.MaxIn == r.MaxOut
}

func (r *Range) HasChannelCrosstalk() bool { return false }

func (r *Range) Clone() Op {
	cp := *r
	cp.Base = r.Base.clone()
	return &cp
}

// Inverse swaps the input and output limits.
func (r *Range) Inverse() (Op, error) {
	return &Range{
		Base:   r.Base.inverted(),
		MinIn:  r.MinOut,
		MaxIn:  r.MaxOut,
		MinOut: r.MinIn,
		MaxOut: r.MaxIn,
		Style:  r.Style,
	}, nil
}

// ScaleOffset returns the affine map applied between the limits.
func (r *Range) ScaleOffset() (scale, offset float64) {
	switch {
	case !r.MinIsEmpty() && !r.MaxIsEmpty():
		scale = (r.MaxOut - r.MinOut) / (r.MaxIn - r.MinIn)
		offset = r.MinOut - scale*r.MinIn
	case !r.MinIsEmpty():
		scale, offset = 1, r.MinOut-r.MinIn
	case !r.MaxIsEmpty():
		scale, offset = 1, r.MaxOut-r.MaxIn
	default:
		scale, offset = 1, 0
	}
	return scale, offset
}

// ToMatrix returns the affine part of the Range as a Matrix. For a noClamp
// Range the result is equivalent to the Range itself.
func (r *Range) ToMatrix() *Matrix {
	scale, offset := r.ScaleOffset()
	m := NewMatrix()
	m.Base = r.Base.clone()
	for i := 0; i < 3; i++ {
		m.Set(i, i, scale)
		m.Offsets[i] = offset
	}
	return m
}
