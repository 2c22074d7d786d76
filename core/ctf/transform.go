// Package ctf reads and writes Common LUT Format (CLF) and Color Transform
// Format (CTF) documents: a ProcessList root holding descriptive metadata
// and an ordered list of color operators.
package ctf

import (
	"github.com/google/uuid"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/metadata"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
)

// Element and attribute names shared by the reader and the writer.
const (
	tagProcessList      = "ProcessList"
	tagDescription      = metadata.Description
	tagInputDescriptor  = metadata.InputDescriptor
	tagOutputDescriptor = metadata.OutputDescriptor
	tagInfo             = metadata.Info
	tagArray            = "Array"
	tagIndexMap         = "IndexMap"

	tagMatrix           = "Matrix"
	tagRange            = "Range"
	tagLut1D            = "LUT1D"
	tagInvLut1D         = "InverseLUT1D"
	tagLut3D            = "LUT3D"
	tagInvLut3D         = "InverseLUT3D"
	tagCDL              = "ASC_CDL"
	tagCDLAlias         = "CDL"
	tagGamma            = "Gamma"
	tagExponent         = "Exponent"
	tagLog              = "Log"
	tagFixedFunction    = "FixedFunction"
	tagFunction         = "Function"
	tagACES             = "ACES"
	tagExposureContrast = "ExposureContrast"
	tagReference        = "Reference"

	tagMinInValue     = "minInValue"
	tagMaxInValue     = "maxInValue"
	tagMinOutValue    = "minOutValue"
	tagMaxOutValue    = "maxOutValue"
	tagSOPNode        = "SOPNode"
	tagSatNode        = "SatNode"
	tagSatNodeAlt     = "SATNode"
	tagSlope          = "Slope"
	tagOffset         = "Offset"
	tagPower          = "Power"
	tagSaturation     = "Saturation"
	tagGammaParams    = "GammaParams"
	tagExponentParams = "ExponentParams"
	tagLogParams      = "LogParams"
	tagECParams       = "ECParams"
	tagACESParams     = "ACESParams"
	tagDynamicParam   = "DynamicParameter"

	attrVersion    = "version"
	attrCLFVersion = "compCLFversion"
	attrID         = metadata.AttrID
	attrName       = metadata.AttrName
	attrInverseOf  = "inverseOf"
	attrInBD       = metadata.AttrInBitDepth
	attrOutBD      = metadata.AttrOutBitDepth
	attrDim        = "dim"
	attrStyle      = "style"
	attrInterp     = "interpolation"
	attrHalfDomain = "halfDomain"
	attrRawHalfs   = "rawHalfs"
	attrHueAdjust  = "hueAdjust"
	attrParams     = "params"
	attrChannel    = "channel"
	attrParam      = "param"
	attrPath       = "path"
	attrBasePath   = "basePath"
	attrAlias      = "alias"
	attrInverted   = "inverted"
	attrIsInverted = "isInverted"
)

// Transform is a parsed ProcessList.
type Transform struct {
	// Version is the CTF version the document is read or written as. For
	// CLF documents it is the CTF version CLFVersion maps to.
	Version    Version
	CLFVersion Version
	IsCLF      bool

	ID          string
	Name        string
	InverseOfID string

	Descriptions     []string
	InputDescriptor  string
	OutputDescriptor string
	// Info holds the Info element verbatim, or nil.
	Info *metadata.FormatMetadata

	Ops []ops.Op
}

// NewTransform returns an empty transform with a fresh id.
func NewTransform() *Transform {
	return &Transform{
		Version: DefaultVersion,
		ID:      uuid.NewString(),
	}
}

// Clone returns a deep copy.
func (t *Transform) Clone() *Transform {
	cp := *t
	cp.Descriptions = append([]string(nil), t.Descriptions...)
	cp.Info = t.Info.Clone()
	cp.Ops = make([]ops.Op, len(t.Ops))
	for i, op := range t.Ops {
		cp.Ops[i] = op.Clone()
	}
	return &cp
}

// HasReferences reports whether any operator still needs resolution.
func (t *Transform) HasReferences() bool {
	for _, op := range t.Ops {
		if op.Type() == ops.TypeReference {
			return true
		}
	}
	return false
}
