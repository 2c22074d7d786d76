package ops

import (
	"math"
	"strings"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/bitdepth"
)

// HueAdjust selects the hue-restoring variant of a 1D LUT.
type HueAdjust int

const (
	HueNone HueAdjust = iota
	HueDW3
)

// String returns the CTF attribute token.
func (h HueAdjust) String() string {
	if h == HueDW3 {
		return "dw3"
	}
	return "none"
}

// ParseHueAdjust converts a hueAdjust token. Only "none" and "dw3" exist.
func ParseHueAdjust(s string) (HueAdjust, error) {
	switch {
	case strings.EqualFold(s, "dw3"):
		return HueDW3, nil
	case strings.EqualFold(s, "none"):
		return HueNone, nil
	}
	return HueNone, semantic("Illegal 'hueAdjust' attribute '%s'.", s)
}

// Lut1D is a per-channel lookup table. Values always hold 3 channels
// interleaved as RGB; Components records whether the file stored one.
type Lut1D struct {
	Base
	Interpolation Interpolation
	// HalfDomain means the input domain is every 16-bit half value.
	HalfDomain bool
	// RawHalfs means the file stores values as half bit patterns.
	RawHalfs   bool
	HueAdjust  HueAdjust
	Components int
	Values     []float32
}

// NewLut1D returns an identity ramp of the given length.
func NewLut1D(length int) *Lut1D {
	l := &Lut1D{Components: 3, Values: make([]float32, length*3)}
	if length < 2 {
		return l
	}
	for i := 0; i < length; i++ {
		v := float32(float64(i) / float64(length-1))
		l.Values[i*3], l.Values[i*3+1], l.Values[i*3+2] = v, v, v
	}
	return l
}

// NewHalfDomainLut1D returns an identity half-domain LUT.
func NewHalfDomainLut1D() *Lut1D {
	l := &Lut1D{Components: 3, HalfDomain: true, Values: make([]float32, bitdepth.HalfDomainSize*3)}
	for i := 0; i < bitdepth.HalfDomainSize; i++ {
		v := bitdepth.HalfDomainValue(i)
		l.Values[i*3], l.Values[i*3+1], l.Values[i*3+2] = v, v, v
	}
	return l
}

func (l *Lut1D) Type() Type { return TypeLut1D }

// Length returns the number of entries.
func (l *Lut1D) Length() int { return len(l.Values) / 3 }

// IsInverse reports whether the LUT is applied in the inverse direction.
func (l *Lut1D) IsInverse() bool { return l.Direction == Inverse }

// IsValidInterpolation reports whether interp can be used with a 1D LUT.
func (l *Lut1D) IsValidInterpolation(interp Interpolation) bool {
	switch interp {
	case InterpDefault, InterpNearest, InterpLinear, InterpCubic, InterpBest:
		return true
	}
	return false
}

// ConcreteInterpolation resolves Default and Best for a 1D LUT.
func (l *Lut1D) ConcreteInterpolation(interp Interpolation) Interpolation {
	switch interp {
	case InterpDefault, InterpBest:
		return InterpLinear
	}
	return interp
}

func (l *Lut1D) Validate() error {
	if len(l.Values)%3 != 0 {
		return semantic("Lut1D has an incomplete RGB entry.")
	}
	if l.Length() < 2 {
		return semantic("Lut1D length must be at least 2, found %d.", l.Length())
	}
	if l.HalfDomain && l.Length() != bitdepth.HalfDomainSize {
		return semantic("65536 required for halfDomain 1D LUT.")
	}
	if !l.IsValidInterpolation(l.Interpolation) {
		return semantic("Lut1D does not support interpolation '%s'.", l.Interpolation)
	}
	if l.Components != 0 && l.Components != 1 && l.Components != 3 {
		return semantic("Lut1D must have 1 or 3 components, found %d.", l.Components)
	}
	return nil
}

// identityTolerance is half a code value of the file output depth, or a
// small absolute tolerance for float depths.
func identityTolerance(bd bitdepth.BitDepth) float64 {
	if bd == bitdepth.Unknown || bd.IsFloat() {
		return 1e-5
	}
	return 0.5 / bitdepth.MaxValue(bd)
}

func (l *Lut1D) IsIdentity() bool {
	n := l.Length()
	if n < 2 {
		return false
	}
	tol := identityTolerance(l.FileOutBitDepth)
	for i := 0; i < n; i++ {
		var want float64
		if l.HalfDomain {
			want = float64(bitdepth.HalfDomainValue(i))
			if math.IsNaN(want) || math.IsInf(want, 0) {
				continue
			}
		} else {
			want = float64(i) / float64(n-1)
		}
		for c := 0; c < 3; c++ {
			got := float64(l.Values[i*3+c])
			if l.HalfDomain {
				if math.Abs(got-want) > math.Max(tol, math.Abs(want)*1e-3) {
					return false
				}
				continue
			}
			if math.Abs(got-want) > tol {
				return false
			}
		}
	}
	return true
}

// IsLooseIdentity applies the tolerance used for legacy shaper LUTs: each
// entry may differ from the ideal ramp by up to tolerance code values of a
// scale of maxCode.
func (l *Lut1D) IsLooseIdentity(maxCode, tolerance float64) bool {
	n := l.Length()
	if n < 2 {
		return false
	}
	for i := 0; i < n; i++ {
		want := float64(i) * maxCode / float64(n-1)
		for c := 0; c < 3; c++ {
			if math.Abs(float64(l.Values[i*3+c])*maxCode-want) >= tolerance {
				return false
			}
		}
	}
	return true
}

// HasChannelCrosstalk is true only for the hue-restoring variant.
func (l *Lut1D) HasChannelCrosstalk() bool {
	return l.HueAdjust == HueDW3
}

// IsMonochrome reports whether the three channels are equal everywhere.
func (l *Lut1D) IsMonochrome() bool {
	for i := 0; i < l.Length(); i++ {
		r := l.Values[i*3]
		if l.Values[i*3+1] != r || l.Values[i*3+2] != r {
			return false
		}
	}
	return true
}

func (l *Lut1D) Clone() Op {
	cp := *l
	cp.Base = l.Base.clone()
	cp.Values = append([]float32(nil), l.Values...)
	return &cp
}

// Inverse flips the direction; the table itself is unchanged.
func (l *Lut1D) Inverse() (Op, error) {
	cp := l.Clone().(*Lut1D)
	cp.Base = l.Base.inverted()
	cp.Direction = l.Direction.Invert()
	return cp, nil
}
