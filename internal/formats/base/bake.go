package base

import (
	"strconv"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/bitdepth"
	apperrors "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/errors"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/processor"
)

// Order is the iteration order of a flattened cube.
type Order int

const (
	// RedFastest increments the red index first.
	RedFastest Order = iota
	// BlueFastest increments the blue index first.
	BlueFastest
)

// IdentityCube returns the RGB samples of an identity cube of edge n.
func IdentityCube(n int, order Order) []float32 {
	out := make([]float32, 0, n*n*n*3)
	step := 1 / float64(n-1)
	v := func(i int) float32 { return float32(float64(i) * step) }
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				if order == RedFastest {
					out = append(out, v(k), v(j), v(i))
				} else {
					out = append(out, v(i), v(j), v(k))
				}
			}
		}
	}
	return out
}

// IdentityRamp returns n RGB samples evenly spaced from 0 to 1.
func IdentityRamp(n int) []float32 {
	return Ramp(n, 0, 1)
}

// Ramp returns n RGB samples evenly spaced from lo to hi.
func Ramp(n int, lo, hi float32) []float32 {
	out := make([]float32, n*3)
	for i := 0; i < n; i++ {
		x := float32(float64(i) / float64(n-1))
		v := bitdepth.Lerp(lo, hi, x)
		out[i*3], out[i*3+1], out[i*3+2] = v, v, v
	}
	return out
}

// Layout is the kind of LUT a bake produces.
type Layout int

const (
	Layout1D Layout = iota + 1
	Layout3D
	// Layout1D3D is a 3D LUT with a 1D shaper in front of it.
	Layout1D3D
)

// Sizes are the sample counts of a bake.
type Sizes struct {
	Cube   int
	Shaper int
	OneD   int
}

// Sampled holds the processed samples of a bake.
type Sampled struct {
	Layout Layout
	// ShaperMin and ShaperMax are the input values the shaper samples
	// span; 0 and 1 without a shaper.
	ShaperMin, ShaperMax float32
	Shaper               []float32
	Cube                 []float32
	OneD                 []float32
}

// Sample runs the bake flow shared by the shaper-capable formats. A
// transform without channel crosstalk is sampled as a 1D LUT; otherwise a
// cube is sampled, preceded by a shaper when the context names a shaper
// space.
func Sample(ctx processor.BakerContext, sizes Sizes, order Order) (*Sampled, error) {
	toTarget, err := ctx.InputToTarget()
	if err != nil {
		return nil, err
	}
	s := &Sampled{ShaperMin: 0, ShaperMax: 1}
	switch {
	case !toTarget.HasChannelCrosstalk():
		s.Layout = Layout1D
	case ctx.ShaperSpace() == "":
		s.Layout = Layout3D
	default:
		s.Layout = Layout1D3D
	}

	cubeProc := toTarget
	if s.Layout == Layout1D3D {
		if err := s.sampleShaper(ctx, sizes.Shaper); err != nil {
			return nil, err
		}
		if cubeProc, err = ctx.ShaperToTarget(); err != nil {
			return nil, err
		}
	}

	if s.Layout == Layout1D {
		s.OneD = IdentityRamp(sizes.OneD)
		toTarget.ApplyRGB(s.OneD)
		return s, nil
	}
	s.Cube = IdentityCube(sizes.Cube, order)
	cubeProc.ApplyRGB(s.Cube)
	return s, nil
}

func (s *Sampled) sampleShaper(ctx processor.BakerContext, size int) error {
	toShaper, err := ctx.InputToShaper()
	if err != nil {
		return err
	}
	if toShaper.HasChannelCrosstalk() {
		return apperrors.NewSemanticf("The specified shaperSpace, '%s' has channel crosstalk, "+
			"which is not appropriate for shapers. Please select an alternate shaper space "+
			"or omit this option.", ctx.ShaperSpace())
	}
	fromShaper, err := ctx.ShaperToInput()
	if err != nil {
		return err
	}
	bounds := []float32{0, 0, 0, 1, 1, 1}
	fromShaper.ApplyRGB(bounds)
	s.ShaperMin, s.ShaperMax = bounds[1], bounds[4]

	s.Shaper = Ramp(size, s.ShaperMin, s.ShaperMax)
	toShaper.ApplyRGB(s.Shaper)
	return nil
}

// CheckShaperSize validates a shaper size when a shaper space is set.
func CheckShaperSize(ctx processor.BakerContext, size int) error {
	if size < 2 {
		return apperrors.NewSemanticf("A shaper space ('%s') has been specified, "+
			"so the shaper size must be 2 or larger", ctx.ShaperSpace())
	}
	return nil
}

// Fixed formats v with six decimals, the notation bakers write floats in.
func Fixed(v float32) string {
	return strconv.FormatFloat(float64(v), 'f', 6, 32)
}
