// Package processor declares what the LUT formats need from the host color
// engine: processors to bake with and the description of a file transform.
// The engine itself lives outside this module.
package processor

import (
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
)

// Processor applies a color transform to packed RGB pixels.
type Processor interface {
	// ApplyRGB transforms rgb in place; len(rgb) is a multiple of 3.
	ApplyRGB(rgb []float32)
	// HasChannelCrosstalk reports whether an output channel depends on
	// more than its own input channel.
	HasChannelCrosstalk() bool
}

// Func adapts a function to Processor.
type Func struct {
	Apply     func(rgb []float32)
	Crosstalk bool
}

// ApplyRGB calls f.Apply; a nil Apply is the identity.
func (f Func) ApplyRGB(rgb []float32) {
	if f.Apply != nil {
		f.Apply(rgb)
	}
}

func (f Func) HasChannelCrosstalk() bool { return f.Crosstalk }

// Identity is a Processor that leaves pixels unchanged.
var Identity Processor = Func{}

// BakerContext is what a baker asks the host for. Space names are opaque
// to the bakers; they only test whether a shaper space is set.
type BakerContext interface {
	InputSpace() string
	TargetSpace() string
	// ShaperSpace is empty when no shaper was requested.
	ShaperSpace() string

	// CubeSize and ShaperSize are the requested sizes, or -1 for the
	// format default.
	CubeSize() int
	ShaperSize() int

	// Comments are written in the header of formats that have one.
	Comments() []string

	// InputToTarget is the full transform, looks included.
	InputToTarget() (Processor, error)
	InputToShaper() (Processor, error)
	ShaperToInput() (Processor, error)
	// ShaperToTarget is applied to the cube when a shaper is used.
	ShaperToTarget() (Processor, error)
}

// Baker is a BakerContext built from fixed processors. It is enough for
// tools that already hold the transforms to bake.
type Baker struct {
	Input, Target, Shaper string
	Cube, ShaperLen       int
	Notes                 []string

	ToTarget, ToShaper, FromShaper, ShaperTarget Processor
}

func (b *Baker) InputSpace() string  { return b.Input }
func (b *Baker) TargetSpace() string { return b.Target }
func (b *Baker) ShaperSpace() string { return b.Shaper }
func (b *Baker) Comments() []string  { return b.Notes }

func (b *Baker) CubeSize() int {
	if b.Cube <= 0 {
		return -1
	}
	return b.Cube
}

func (b *Baker) ShaperSize() int {
	if b.ShaperLen <= 0 {
		return -1
	}
	return b.ShaperLen
}

func (b *Baker) InputToTarget() (Processor, error) { return orIdentity(b.ToTarget), nil }
func (b *Baker) InputToShaper() (Processor, error) { return orIdentity(b.ToShaper), nil }
func (b *Baker) ShaperToInput() (Processor, error) { return orIdentity(b.FromShaper), nil }

func (b *Baker) ShaperToTarget() (Processor, error) { return orIdentity(b.ShaperTarget), nil }

func orIdentity(p Processor) Processor {
	if p == nil {
		return Identity
	}
	return p
}

// FileTransform describes how the host wants a LUT file applied.
type FileTransform interface {
	Src() string
	Interpolation() ops.Interpolation
	Direction() ops.Direction
}

// File is the plain FileTransform.
type File struct {
	Path   string
	Interp ops.Interpolation
	Dir    ops.Direction
}

func (f File) Src() string                      { return f.Path }
func (f File) Interpolation() ops.Interpolation { return f.Interp }
func (f File) Direction() ops.Direction         { return f.Dir }
