package ops

// HandleLUT1D applies a requested interpolation to a 1D LUT. If the request
// is valid for a 1D LUT it is used, and when it resolves to a different
// concrete interpolation a clone carrying it is returned; the original is
// never modified. used reports whether the request was valid.
func HandleLUT1D(lut *Lut1D, requested Interpolation) (out *Lut1D, used bool) {
	if lut == nil || !lut.IsValidInterpolation(requested) {
		return lut, false
	}
	if lut.ConcreteInterpolation(requested) != lut.ConcreteInterpolation(lut.Interpolation) {
		cp := lut.Clone().(*Lut1D)
		cp.Interpolation = requested
		return cp, true
	}
	return lut, true
}

// HandleLUT3D is HandleLUT1D for 3D LUTs.
func HandleLUT3D(lut *Lut3D, requested Interpolation) (out *Lut3D, used bool) {
	if lut == nil || !lut.IsValidInterpolation(requested) {
		return lut, false
	}
	if lut.ConcreteInterpolation(requested) != lut.ConcreteInterpolation(lut.Interpolation) {
		cp := lut.Clone().(*Lut3D)
		cp.Interpolation = requested
		return cp, true
	}
	return lut, true
}
