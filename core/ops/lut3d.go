package ops

import "math"

// Lut3D is a cube of RGB samples stored blue-fastest: the entry for grid
// indices (r, g, b) starts at Index(r, g, b).
type Lut3D struct {
	Base
	Interpolation Interpolation
	GridSize      int
	Values        []float32
}

// NewLut3D returns an identity cube with the given edge length.
func NewLut3D(gridSize int) *Lut3D {
	l := &Lut3D{GridSize: gridSize, Values: make([]float32, gridSize*gridSize*gridSize*3)}
	if gridSize < 2 {
		return l
	}
	step := 1 / float64(gridSize-1)
	for r := 0; r < gridSize; r++ {
		for g := 0; g < gridSize; g++ {
			for b := 0; b < gridSize; b++ {
				i := l.Index(r, g, b)
				l.Values[i] = float32(float64(r) * step)
				l.Values[i+1] = float32(float64(g) * step)
				l.Values[i+2] = float32(float64(b) * step)
			}
		}
	}
	return l
}

// NewLut3DFromRedFastest builds a cube from samples stored red-fastest.
func NewLut3DFromRedFastest(gridSize int, redFastest []float32) *Lut3D {
	l := &Lut3D{GridSize: gridSize, Values: make([]float32, len(redFastest))}
	n := 0
	for b := 0; b < gridSize; b++ {
		for g := 0; g < gridSize; g++ {
			for r := 0; r < gridSize; r++ {
				i := l.Index(r, g, b)
				copy(l.Values[i:i+3], redFastest[n:n+3])
				n += 3
			}
		}
	}
	return l
}

// RedFastest returns the samples reordered red-fastest.
func (l *Lut3D) RedFastest() []float32 {
	out := make([]float32, 0, len(l.Values))
	for b := 0; b < l.GridSize; b++ {
		for g := 0; g < l.GridSize; g++ {
			for r := 0; r < l.GridSize; r++ {
				i := l.Index(r, g, b)
				out = append(out, l.Values[i:i+3]...)
			}
		}
	}
	return out
}

// Index returns the offset of the first channel of grid point (r, g, b).
func (l *Lut3D) Index(r, g, b int) int {
	return ((r*l.GridSize+g)*l.GridSize + b) * 3
}

func (l *Lut3D) Type() Type { return TypeLut3D }

// IsInverse reports whether the LUT is applied in the inverse direction.
func (l *Lut3D) IsInverse() bool { return l.Direction == Inverse }

// IsValidInterpolation reports whether interp can be used with a 3D LUT.
func (l *Lut3D) IsValidInterpolation(interp Interpolation) bool {
	switch interp {
	case InterpDefault, InterpNearest, InterpLinear, InterpTetrahedral, InterpBest:
		return true
	}
	return false
}

// ConcreteInterpolation resolves Default and Best for a 3D LUT.
func (l *Lut3D) ConcreteInterpolation(interp Interpolation) Interpolation {
	switch interp {
	case InterpDefault:
		return InterpLinear
	case InterpBest:
		return InterpTetrahedral
	}
	return interp
}

func (l *Lut3D) Validate() error {
	if l.GridSize < 2 {
		return semantic("Lut3D grid size must be at least 2, found %d.", l.GridSize)
	}
	if want := l.GridSize * l.GridSize * l.GridSize * 3; len(l.Values) != want {
		return semantic("Lut3D of size %d expects %d values, found %d.", l.GridSize, want, len(l.Values))
	}
	if !l.IsValidInterpolation(l.Interpolation) {
		return semantic("Lut3D does not support interpolation '%s'.", l.Interpolation)
	}
	return nil
}

func (l *Lut3D) IsIdentity() bool {
	if l.GridSize < 2 || len(l.Values) != l.GridSize*l.GridSize*l.GridSize*3 {
		return false
	}
	tol := identityTolerance(l.FileOutBitDepth)
	step := 1 / float64(l.GridSize-1)
	for r := 0; r < l.GridSize; r++ {
		for g := 0; g < l.GridSize; g++ {
			for b := 0; b < l.GridSize; b++ {
				i := l.Index(r, g, b)
				if math.Abs(float64(l.Values[i])-float64(r)*step) > tol ||
					math.Abs(float64(l.Values[i+1])-float64(g)*step) > tol ||
					math.Abs(float64(l.Values[i+2])-float64(b)*step) > tol {
					return false
				}
			}
		}
	}
	return true
}

// HasChannelCrosstalk is assumed for any non-identity cube.
func (l *Lut3D) HasChannelCrosstalk() bool {
	return !l.IsIdentity()
}

func (l *Lut3D) Clone() Op {
	cp := *l
	cp.Base = l.Base.clone()
	cp.Values = append([]float32(nil), l.Values...)
	return &cp
}

// Inverse flips the direction; the cube itself is unchanged.
func (l *Lut3D) Inverse() (Op, error) {
	cp := l.Clone().(*Lut3D)
	cp.Base = l.Base.inverted()
	cp.Direction = l.Direction.Invert()
	return cp, nil
}
