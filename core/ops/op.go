// Package ops defines the operator intermediate representation shared by
// every LUT file reader and writer.
//
// Operator values are normalised: array values and limits are stored as if
// the file bit depths were 32f. The file bit depths are kept as hints so a
// writer can reproduce the original encoding.
package ops

import (
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/bitdepth"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/errors"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/metadata"
)

// Type identifies an operator variant.
type Type int

const (
	TypeMatrix Type = iota
	TypeRange
	TypeLut1D
	TypeLut3D
	TypeCDL
	TypeGamma
	TypeLog
	TypeFixedFunction
	TypeExposureContrast
	TypeReference
)

var typeNames = map[Type]string{
	TypeMatrix:           "Matrix",
	TypeRange:            "Range",
	TypeLut1D:            "LUT1D",
	TypeLut3D:            "LUT3D",
	TypeCDL:              "CDL",
	TypeGamma:            "Gamma",
	TypeLog:              "Log",
	TypeFixedFunction:    "FixedFunction",
	TypeExposureContrast: "ExposureContrast",
	TypeReference:        "Reference",
}

// String returns the operator element name.
func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "Unknown"
}

// Op is one operator of a pipeline.
type Op interface {
	Type() Type
	// Common returns the fields shared by every variant.
	Common() *Base
	// Validate checks the operator parameters.
	Validate() error
	IsIdentity() bool
	// HasChannelCrosstalk reports whether an output channel depends on more
	// than one input channel.
	HasChannelCrosstalk() bool
	Clone() Op
	// Inverse returns an operator applying the inverse transform.
	Inverse() (Op, error)
}

// Base holds the fields common to every operator.
type Base struct {
	ID              string
	Name            string
	FileInBitDepth  bitdepth.BitDepth
	FileOutBitDepth bitdepth.BitDepth
	Direction       Direction
	Metadata        *metadata.FormatMetadata
}

// Common returns b.
func (b *Base) Common() *Base {
	return b
}

// Descriptions returns the Description children of the operator metadata.
func (b *Base) Descriptions() []string {
	if b.Metadata == nil {
		return nil
	}
	return b.Metadata.ChildValues(metadata.Description)
}

// AddDescription appends a Description child to the operator metadata.
func (b *Base) AddDescription(text string) {
	if b.Metadata == nil {
		b.Metadata = metadata.New(metadata.Root)
	}
	b.Metadata.AddChild(metadata.Description, text)
}

func (b *Base) clone() Base {
	cp := *b
	cp.Metadata = b.Metadata.Clone()
	return cp
}

// inverted returns a copy with the file bit depths swapped, as needed by
// the inverse of any operator.
func (b *Base) inverted() Base {
	cp := b.clone()
	cp.FileInBitDepth, cp.FileOutBitDepth = b.FileOutBitDepth, b.FileInBitDepth
	return cp
}

// ValidateAll validates every operator and returns the first failure.
func ValidateAll(list []Op) error {
	for _, op := range list {
		if err := op.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Reverse returns the inverse of an operator list: the order is reversed
// and every operator is inverted.
func Reverse(list []Op) ([]Op, error) {
	out := make([]Op, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		inv, err := list[i].Inverse()
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

func semantic(format string, args ...any) error {
	return errors.NewSemanticf(format, args...)
}
