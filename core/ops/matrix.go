package ops

import "math"

// Matrix is a 4x4 matrix with 4 offsets, applied as out = M*in + offsets.
type Matrix struct {
	Base
	// Values holds the matrix in row-major order.
	Values  [16]float64
	Offsets [4]float64
}

// NewMatrix returns an identity matrix.
func NewMatrix() *Matrix {
	m := &Matrix{}
	m.SetIdentity()
	return m
}

// NewMatrix3 returns a matrix built from a row-major 3x3 and RGB offsets.
// The alpha row and column are identity.
func NewMatrix3(values [9]float64, offsets [3]float64) *Matrix {
	m := NewMatrix()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(r, c, values[r*3+c])
		}
		m.Offsets[r] = offsets[r]
	}
	return m
}

func (m *Matrix) Type() Type { return TypeMatrix }

// SetIdentity resets the values to identity and the offsets to zero.
func (m *Matrix) SetIdentity() {
	m.Values = [16]float64{}
	for i := 0; i < 4; i++ {
		m.Values[i*5] = 1
	}
	m.Offsets = [4]float64{}
}

// At returns the value at row r, column c.
func (m *Matrix) At(r, c int) float64 {
	return m.Values[r*4+c]
}

// Set sets the value at row r, column c.
func (m *Matrix) Set(r, c int, v float64) {
	m.Values[r*4+c] = v
}

func (m *Matrix) Validate() error {
	for _, v := range m.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return semantic("Matrix array values must be finite.")
		}
	}
	for _, v := range m.Offsets {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return semantic("Matrix offset values must be finite.")
		}
	}
	return nil
}

func (m *Matrix) isDiagonal() bool {
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			if r != c && m.At(r, c) != 0 {
				return false
			}
		}
	}
	return true
}

func (m *Matrix) IsIdentity() bool {
	if !m.isDiagonal() || m.HasOffsets() {
		return false
	}
	for i := 0; i < 4; i++ {
		if m.At(i, i) != 1 {
			return false
		}
	}
	return true
}

// HasOffsets reports whether any offset is non-zero.
func (m *Matrix) HasOffsets() bool {
	return m.Offsets != [4]float64{}
}

// HasAlpha reports whether the alpha row, alpha column or alpha offset
// differs from identity.
func (m *Matrix) HasAlpha() bool {
	for i := 0; i < 3; i++ {
		if m.At(3, i) != 0 || m.At(i, 3) != 0 {
			return true
		}
	}
	return m.At(3, 3) != 1 || m.Offsets[3] != 0
}

func (m *Matrix) HasChannelCrosstalk() bool {
	return !m.isDiagonal()
}

func (m *Matrix) Clone() Op {
	cp := *m
	cp.Base = m.Base.clone()
	return &cp
}

// Inverse computes the inverse matrix and offsets. A singular matrix cannot
// be inverted.
func (m *Matrix) Inverse() (Op, error) {
	inv, ok := invert4x4(m.Values)
	if !ok {
		return nil, semantic("Singular Matrix can't be inverted.")
	}
	out := &Matrix{Base: m.Base.inverted(), Values: inv}
	for r := 0; r < 4; r++ {
		var s float64
		for c := 0; c < 4; c++ {
			s += inv[r*4+c] * m.Offsets[c]
		}
		out.Offsets[r] = -s
	}
	return out, nil
}

// Scaled returns the values and offsets expressed in file code values whose
// input and output maxima are inMax and outMax.
func (m *Matrix) Scaled(inMax, outMax float64) (values [16]float64, offsets [4]float64) {
	for i, v := range m.Values {
		values[i] = v * outMax / inMax
	}
	for i, v := range m.Offsets {
		offsets[i] = v * outMax
	}
	return values, offsets
}

// SetScaled stores file code values whose input and output maxima are
// inMax and outMax, normalising them.
func (m *Matrix) SetScaled(values [16]float64, offsets [4]float64, inMax, outMax float64) {
	for i, v := range values {
		m.Values[i] = v * inMax / outMax
	}
	for i, v := range offsets {
		m.Offsets[i] = v / outMax
	}
}

// invert4x4 uses Gauss-Jordan elimination with partial pivoting.
func invert4x4(a [16]float64) ([16]float64, bool) {
	var inv [16]float64
	for i := 0; i < 4; i++ {
		inv[i*5] = 1
	}
	for col := 0; col < 4; col++ {
		pivot := col
		for r := col + 1; r < 4; r++ {
			if math.Abs(a[r*4+col]) > math.Abs(a[pivot*4+col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot*4+col]) < 1e-15 {
			return inv, false
		}
		if pivot != col {
			for c := 0; c < 4; c++ {
				a[col*4+c], a[pivot*4+c] = a[pivot*4+c], a[col*4+c]
				inv[col*4+c], inv[pivot*4+c] = inv[pivot*4+c], inv[col*4+c]
			}
		}
		d := a[col*4+col]
		for c := 0; c < 4; c++ {
			a[col*4+c] /= d
			inv[col*4+c] /= d
		}
		for r := 0; r < 4; r++ {
			if r == col {
				continue
			}
			f := a[r*4+col]
			if f == 0 {
				continue
			}
			for c := 0; c < 4; c++ {
				a[r*4+c] -= f * a[col*4+c]
				inv[r*4+c] -= f * inv[col*4+c]
			}
		}
	}
	return inv, true
}
