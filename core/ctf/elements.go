package ctf

import (
	"encoding/xml"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/bitdepth"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/encoding"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/errors"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
)

var opTags = []string{
	tagMatrix, tagRange, tagLut1D, tagInvLut1D, tagLut3D, tagInvLut3D,
	tagCDL, tagGamma, tagExponent, tagLog, tagFixedFunction, tagFunction,
	tagACES, tagExposureContrast, tagReference,
}

// canonicalOpTag maps an element name to its operator tag.
func canonicalOpTag(name string) (string, bool) {
	if strings.EqualFold(name, tagCDLAlias) {
		return tagCDL, true
	}
	for _, t := range opTags {
		if strings.EqualFold(name, t) {
			return t, true
		}
	}
	return "", false
}

// minOpVersion is the first CTF version knowing each operator. Operators
// missing here exist in every version.
var minOpVersion = map[string]Version{
	tagACES:          Version1_5,
	tagCDL:           Version1_3,
	tagFixedFunction: Version2_0,
	tagInvLut1D:      Version1_3,
	tagInvLut3D:      Version1_6,
	tagLog:           Version1_3,
	tagExponent:      Version2_0,
}

// ctfOnlyOps cannot appear in a CLF document.
var ctfOnlyOps = map[string]bool{
	tagInvLut1D:         true,
	tagInvLut3D:         true,
	tagGamma:            true,
	tagExposureContrast: true,
	tagFixedFunction:    true,
	tagACES:             true,
	tagFunction:         true,
	tagReference:        true,
}

// clf3Ops need CLF 3.
var clf3Ops = map[string]bool{
	tagLog:      true,
	tagExponent: true,
}

// opElement is the handler of an operator element.
type opElement interface {
	element
	common() *opElt
}

// opElt holds what every operator element shares.
type opElt struct {
	tag  string
	line int
	list *processListElt
	base *ops.Base

	inMax, outMax float64
}

func (o *opElt) common() *opElt { return o }

func (o *opElt) addDescription(text string) { o.base.AddDescription(text) }

func (o *opElt) emit(list ...ops.Op) {
	o.list.t.Ops = append(o.list.t.Ops, list...)
}

var commonOpAttrs = []string{attrID, attrName, attrInBD, attrOutBD}

func (rd *reader) newOp(tag, name string, attrs []xml.Attr, line int) (opElement, error) {
	if rd.t.IsCLF {
		if ctfOnlyOps[tag] || (clf3Ops[tag] && rd.t.CLFVersion.Less(CLFVersion3)) {
			return nil, rd.errorf(line, "CLF file version '%s' does not support operator '%s'.", rd.t.CLFVersion, name)
		}
	}
	if minVer, ok := minOpVersion[tag]; ok && rd.version.Less(minVer) {
		err := errors.NewUnsupportedVersion(fmt.Sprintf("Unsupported transform file version '%s' for operator '%s'.", rd.version, name))
		err.Format, err.Path, err.Line = FormatName, rd.filename, line
		return nil, err
	}

	o := opElt{tag: name, line: line}
	var elt opElement
	var known []string
	var err error
	switch tag {
	case tagMatrix:
		e := &matrixElt{m: ops.NewMatrix()}
		e.opElt, e.base = o, &e.m.Base
		elt = e
	case tagRange:
		e := &rangeElt{r: ops.NewEmptyRange()}
		e.opElt, e.base = o, &e.r.Base
		if rd.version.AtLeast(Version1_7) {
			known = []string{attrStyle}
			err = e.start(rd, attrs)
		}
		elt = e
	case tagLut1D, tagInvLut1D:
		e := &lut1DElt{lut: ops.NewLut1D(0), inverse: tag == tagInvLut1D}
		e.opElt, e.base = o, &e.lut.Base
		known = []string{attrInterp, attrHalfDomain, attrRawHalfs}
		if rd.version.AtLeast(Version1_4) {
			known = append(known, attrHueAdjust)
		}
		err = e.start(rd, attrs)
		elt = e
	case tagLut3D, tagInvLut3D:
		e := &lut3DElt{lut: ops.NewLut3D(0), inverse: tag == tagInvLut3D}
		e.opElt, e.base = o, &e.lut.Base
		known = []string{attrInterp}
		err = e.start(rd, attrs)
		elt = e
	case tagCDL:
		e := &cdlElt{cdl: ops.NewCDL()}
		e.opElt, e.base = o, &e.cdl.Base
		known = []string{attrStyle}
		err = e.start(rd, attrs)
		elt = e
	case tagGamma, tagExponent:
		e := &gammaElt{}
		e.opElt = o
		known = []string{attrStyle}
		err = e.start(rd, attrs)
		elt = e
	case tagLog:
		e := &logElt{}
		e.opElt = o
		known = []string{attrStyle}
		err = e.start(rd, attrs)
		elt = e
	case tagFixedFunction, tagFunction:
		e := &fixedFunctionElt{}
		e.opElt = o
		known = []string{attrStyle, attrParams}
		err = e.start(rd, attrs)
		elt = e
	case tagACES:
		e := &acesElt{}
		e.opElt = o
		known = []string{attrStyle}
		err = e.start(rd, attrs)
		elt = e
	case tagExposureContrast:
		e := &ecElt{}
		e.opElt = o
		known = []string{attrStyle}
		err = e.start(rd, attrs)
		elt = e
	case tagReference:
		e := &referenceElt{}
		e.opElt = o
		known = []string{attrPath, attrBasePath, attrAlias, attrInverted, attrIsInverted}
		err = e.start(rd, attrs)
		elt = e
	}
	if err != nil {
		return nil, err
	}

	c := elt.common()
	if err := rd.readOpAttrs(c, attrs); err != nil {
		return nil, err
	}
	rd.warnAttrs(name, line, attrs, append(known, commonOpAttrs...)...)
	return elt, nil
}

// readOpAttrs reads id, name and the bit depths. The base must exist.
func (rd *reader) readOpAttrs(o *opElt, attrs []xml.Attr) error {
	o.base.ID, _ = attr(attrs, attrID)
	o.base.Name, _ = attr(attrs, attrName)

	for _, side := range []struct {
		name string
		dst  *bitdepth.BitDepth
	}{
		{attrInBD, &o.base.FileInBitDepth},
		{attrOutBD, &o.base.FileOutBitDepth},
	} {
		s, ok := attr(attrs, side.name)
		if !ok {
			return rd.errorf(o.line, "%s is missing.", side.name)
		}
		bd, err := bitdepth.Parse(s)
		if err != nil {
			return rd.errorf(o.line, "%s unknown value (%s)", side.name, s)
		}
		*side.dst = bd
	}
	o.inMax = bitdepth.MaxValue(o.base.FileInBitDepth)
	o.outMax = bitdepth.MaxValue(o.base.FileOutBitDepth)
	return nil
}

// validate locates an operator validation error on the element line.
func (rd *reader) validate(o *opElt, op ops.Op) error {
	if err := op.Validate(); err != nil {
		return rd.wrap(o.line, err)
	}
	return nil
}

func (rd *reader) parseDims(tag string, attrs []xml.Attr, line int) ([]int, string, error) {
	s, ok := attr(attrs, attrDim)
	if !ok {
		return nil, "", rd.errorf(line, "Missing 'dim' attribute.")
	}
	vals, err := encoding.ParseNumbers(s)
	if err != nil || len(vals) == 0 {
		return nil, s, rd.errorf(line, "Illegal '%s' dimensions %s", tag, s)
	}
	dims := make([]int, len(vals))
	for i, v := range vals {
		if v < 0 || v != math.Trunc(v) {
			return nil, s, rd.errorf(line, "Illegal '%s' dimensions %s", tag, s)
		}
		dims[i] = int(v)
	}
	return dims, s, nil
}

// arrayElt collects the numbers of an Array element.
type arrayElt struct {
	line int
	set  func(values []float64) error
}

func (a *arrayElt) end(rd *reader, text string) error {
	values, err := encoding.ParseNumbers(text)
	if err != nil {
		return rd.wrap(a.line, err)
	}
	return a.set(values)
}

// valueElt holds one number.
type valueElt struct {
	line    int
	context string
	set     func(float64)
}

func (v *valueElt) end(rd *reader, text string) error {
	values, err := encoding.ParseNumbers(text)
	if err != nil {
		return rd.wrap(v.line, err)
	}
	if len(values) != 1 {
		return rd.errorf(v.line, "%s: non-single value.", v.context)
	}
	v.set(values[0])
	return nil
}

// emptyElt is a leaf element whose attributes were already read.
type emptyElt struct{}

func (emptyElt) end(*reader, string) error { return nil }

// Matrix

type matrixElt struct {
	opElt
	m     *ops.Matrix
	array bool
}

func (e *matrixElt) child(rd *reader, name string, attrs []xml.Attr, line int) (element, string, error) {
	if !strings.EqualFold(name, tagArray) {
		return nil, "", nil
	}
	if e.array {
		return nil, ": Only one Array allowed per op", nil
	}
	dims, s, err := rd.parseDims(e.tag, attrs, line)
	if err != nil {
		return nil, "", err
	}
	rows, cols, legacy, ok := matrixShape(dims, rd.version)
	if !ok {
		return nil, "", rd.errorf(line, "Illegal '%s' dimensions %s", e.tag, s)
	}
	e.array = true
	return &arrayElt{line: line, set: func(v []float64) error {
		return e.setValues(rd, line, rows, cols, legacy, v)
	}}, "", nil
}

// matrixShape validates Array dimensions. The third number, when given,
// repeats the row count. Before CTF 1.3 it is mandatory and "4 4 3" means
// a 3x3 matrix with offsets in the fourth column.
func matrixShape(dims []int, v Version) (rows, cols int, legacy, ok bool) {
	legacyVersion := v.Less(Version1_3)
	switch len(dims) {
	case 2:
		if legacyVersion {
			return 0, 0, false, false
		}
	case 3:
		if legacyVersion && dims[0] == 4 && dims[1] == 4 && dims[2] == 3 {
			return 4, 4, true, true
		}
		if dims[2] != dims[0] {
			return 0, 0, false, false
		}
	default:
		return 0, 0, false, false
	}
	rows, cols = dims[0], dims[1]
	switch {
	case rows == 3 && (cols == 3 || cols == 4), rows == 4 && (cols == 4 || cols == 5):
		return rows, cols, false, true
	}
	return 0, 0, false, false
}

func (e *matrixElt) setValues(rd *reader, line, rows, cols int, legacy bool, v []float64) error {
	if len(v) != rows*cols {
		return rd.errorf(line, "Expected %dx%d Array values, found %d.", rows, cols, len(v))
	}
	values := [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
	var offsets [4]float64
	if legacy && rows == 4 {
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				values[r*4+c] = v[r*4+c]
			}
			offsets[r] = v[r*4+3]
		}
	} else {
		for r := 0; r < rows; r++ {
			for c := 0; c < rows; c++ {
				values[r*4+c] = v[r*cols+c]
			}
			if cols == rows+1 {
				offsets[r] = v[r*cols+rows]
			}
		}
	}
	e.m.SetScaled(values, offsets, e.inMax, e.outMax)
	if rows == 3 || legacy {
		// Alpha passes through untouched when the file has no alpha terms.
		for i := 0; i < 3; i++ {
			e.m.Values[i*4+3] = 0
			e.m.Values[12+i] = 0
		}
		e.m.Values[15] = 1
		e.m.Offsets[3] = 0
	}
	return nil
}

func (e *matrixElt) end(rd *reader, _ string) error {
	if !e.array {
		return rd.errorf(e.line, "Required element 'Array' is missing in '%s'.", e.tag)
	}
	if err := rd.validate(&e.opElt, e.m); err != nil {
		return err
	}
	e.emit(e.m)
	return nil
}

// Range

type rangeElt struct {
	opElt
	r *ops.Range
}

func (e *rangeElt) start(rd *reader, attrs []xml.Attr) error {
	s, ok := attr(attrs, attrStyle)
	if !ok {
		return nil
	}
	style, err := ops.ParseRangeStyle(s)
	if err != nil {
		return rd.wrap(e.line, err)
	}
	e.r.Style = style
	return nil
}

func (e *rangeElt) child(_ *reader, name string, _ []xml.Attr, line int) (element, string, error) {
	var dst *float64
	switch {
	case strings.EqualFold(name, tagMinInValue):
		dst = &e.r.MinIn
	case strings.EqualFold(name, tagMaxInValue):
		dst = &e.r.MaxIn
	case strings.EqualFold(name, tagMinOutValue):
		dst = &e.r.MinOut
	case strings.EqualFold(name, tagMaxOutValue):
		dst = &e.r.MaxOut
	default:
		return nil, "", nil
	}
	return &valueElt{line: line, context: "Range element", set: func(v float64) { *dst = v }}, "", nil
}

func (e *rangeElt) end(rd *reader, _ string) error {
	// Empty limits are NaN and stay empty.
	e.r.MinIn /= e.inMax
	e.r.MaxIn /= e.inMax
	e.r.MinOut /= e.outMax
	e.r.MaxOut /= e.outMax
	if err := rd.validate(&e.opElt, e.r); err != nil {
		return err
	}
	e.emit(e.r)
	return nil
}

// IndexMap

type indexMapElt struct {
	line int
	dim  int
	dst  *[]float64
}

// indexMapChild accepts an IndexMap under a forward LUT of CTF 1.7 to 1.x.
// CTF 2.0 and CLF 3 dropped it: it is skipped with a warning.
func (rd *reader) indexMapChild(seen *bool, dst *[]float64, inverse bool, attrs []xml.Attr, line int) (element, string, error) {
	if inverse || rd.version.Less(Version1_7) {
		return nil, "", nil
	}
	if rd.version.AtLeast(Version2_0) {
		return nil, fmt.Sprintf(": IndexMap is not supported in version %s", rd.versionLabel()), nil
	}
	if *seen {
		return nil, "", rd.errorf(line, "Only one IndexMap allowed per LUT.")
	}
	*seen = true

	s, ok := attr(attrs, attrDim)
	if !ok {
		return nil, "", rd.errorf(line, "Required attribute 'dim' is missing.")
	}
	dim, err := encoding.ParseSingleNumber(s)
	if err != nil || dim <= 0 || dim != math.Trunc(dim) {
		return nil, "", rd.errorf(line, "Illegal '%s' dimensions %s", tagIndexMap, s)
	}
	if dim != 2 {
		return nil, "", rd.errorf(line, "CTF/CLF parsing error. Only two entry IndexMaps are supported.")
	}
	return &indexMapElt{line: line, dim: int(dim), dst: dst}, "", nil
}

func (rd *reader) versionLabel() string {
	if rd.t.IsCLF {
		return "CLF " + rd.t.CLFVersion.String()
	}
	return rd.version.String()
}

func (m *indexMapElt) end(rd *reader, text string) error {
	values, err := encoding.ParseNumbers(strings.ReplaceAll(text, "@", " "))
	if err != nil {
		return rd.wrap(m.line, err)
	}
	if len(values) != 2*m.dim {
		return rd.errorf(m.line, "Expected %d IndexMap entries, found %d values.", m.dim, len(values))
	}
	*m.dst = values
	return nil
}

// indexMapRange turns "in@index" pairs into the Range applied before a
// LUT of the given length. The LUT then takes normalised input.
func (o *opElt) indexMapRange(pairs []float64, length int) *ops.Range {
	last := float64(length - 1)
	r := ops.NewRange(pairs[0]/o.inMax, pairs[2]/o.inMax, pairs[1]/last, pairs[3]/last)
	r.FileInBitDepth = o.base.FileInBitDepth
	r.FileOutBitDepth = bitdepth.F32
	o.base.FileInBitDepth = bitdepth.F32
	return r
}

// LUT1D and InverseLUT1D

type lut1DElt struct {
	opElt
	lut      *ops.Lut1D
	inverse  bool
	array    bool
	mapSeen  bool
	indexMap []float64
}

func (e *lut1DElt) parseTag() string {
	if e.inverse {
		return "InvLut1D"
	}
	return "Lut1D"
}

func (e *lut1DElt) start(rd *reader, attrs []xml.Attr) error {
	if e.inverse {
		e.lut.Direction = ops.Inverse
	}
	if s, ok := attr(attrs, attrInterp); ok {
		interp, err := ops.ParseInterpolation(s)
		if err != nil {
			return rd.wrap(e.line, err)
		}
		e.lut.Interpolation = interp
	}
	if s, ok := attr(attrs, attrHalfDomain); ok {
		if !strings.EqualFold(s, "true") {
			if e.inverse {
				return rd.errorf(e.line, "Unknown halfDomain value: '%s' while parsing InvLut1D.", s)
			}
			return rd.errorf(e.line, "Illegal 'halfDomain' attribute '%s' while parsing Lut1D.", s)
		}
		e.lut.HalfDomain = true
	}
	if s, ok := attr(attrs, attrRawHalfs); ok {
		if !strings.EqualFold(s, "true") {
			return rd.errorf(e.line, "Illegal 'rawHalfs' attribute '%s' while parsing %s.", s, e.parseTag())
		}
		e.lut.RawHalfs = true
	}
	if s, ok := attr(attrs, attrHueAdjust); ok && rd.version.AtLeast(Version1_4) {
		hue, err := ops.ParseHueAdjust(s)
		if err != nil {
			return rd.errorf(e.line, "Illegal 'hueAdjust' attribute '%s' while parsing %s.", s, e.parseTag())
		}
		e.lut.HueAdjust = hue
	}
	return nil
}

func (e *lut1DElt) child(rd *reader, name string, attrs []xml.Attr, line int) (element, string, error) {
	switch {
	case strings.EqualFold(name, tagIndexMap):
		return rd.indexMapChild(&e.mapSeen, &e.indexMap, e.inverse, attrs, line)
	case !strings.EqualFold(name, tagArray):
		return nil, "", nil
	case e.array:
		return nil, ": Only one Array allowed per op", nil
	}
	dims, s, err := rd.parseDims(e.tag, attrs, line)
	if err != nil {
		return nil, "", err
	}
	if len(dims) != 2 || (dims[1] != 1 && dims[1] != 3) || dims[0] == 0 {
		return nil, "", rd.errorf(line, "Illegal '%s' dimensions %s", e.tag, s)
	}
	e.array = true
	return &arrayElt{line: line, set: func(v []float64) error {
		return e.setValues(rd, line, dims[0], dims[1], v)
	}}, "", nil
}

func (e *lut1DElt) setValues(rd *reader, line, length, comps int, v []float64) error {
	if len(v) != length*comps {
		return rd.errorf(line, "Expected %dx%d Array values, found %d.", length, comps, len(v))
	}
	scale := e.outMax
	if e.inverse {
		scale = e.inMax
	}
	if e.lut.RawHalfs {
		for _, x := range v {
			if x < 0 || x > math.MaxUint16 || x != math.Trunc(x) {
				value := encoding.FormatNumber(x, 15)
				return errors.NewSyntax(FormatName, rd.filename, line, value,
					fmt.Sprintf("Expected a half-float bit pattern in 0..65535, found '%s'.", value))
			}
		}
	}
	norm := func(x float64) float32 {
		if e.lut.RawHalfs {
			return bitdepth.HalfBitsToFloat32(uint16(x))
		}
		return float32(x / scale)
	}

	e.lut.Components = comps
	e.lut.Values = make([]float32, length*3)
	for i := 0; i < length; i++ {
		if comps == 1 {
			x := norm(v[i])
			e.lut.Values[i*3], e.lut.Values[i*3+1], e.lut.Values[i*3+2] = x, x, x
			continue
		}
		for c := 0; c < 3; c++ {
			e.lut.Values[i*3+c] = norm(v[i*3+c])
		}
	}
	return nil
}

func (e *lut1DElt) end(rd *reader, _ string) error {
	if !e.array {
		return rd.errorf(e.line, "Required element 'Array' is missing in '%s'.", e.tag)
	}
	if err := rd.validate(&e.opElt, e.lut); err != nil {
		return err
	}
	if e.indexMap != nil {
		e.emit(e.indexMapRange(e.indexMap, e.lut.Length()))
	}
	e.emit(e.lut)
	return nil
}

// LUT3D and InverseLUT3D

type lut3DElt struct {
	opElt
	lut      *ops.Lut3D
	inverse  bool
	array    bool
	mapSeen  bool
	indexMap []float64
}

func (e *lut3DElt) start(rd *reader, attrs []xml.Attr) error {
	if e.inverse {
		e.lut.Direction = ops.Inverse
	}
	if s, ok := attr(attrs, attrInterp); ok {
		interp, err := ops.ParseInterpolation(s)
		if err != nil {
			return rd.wrap(e.line, err)
		}
		e.lut.Interpolation = interp
	}
	return nil
}

func (e *lut3DElt) child(rd *reader, name string, attrs []xml.Attr, line int) (element, string, error) {
	switch {
	case strings.EqualFold(name, tagIndexMap):
		return rd.indexMapChild(&e.mapSeen, &e.indexMap, e.inverse, attrs, line)
	case !strings.EqualFold(name, tagArray):
		return nil, "", nil
	case e.array:
		return nil, ": Only one Array allowed per op", nil
	}
	dims, s, err := rd.parseDims(e.tag, attrs, line)
	if err != nil {
		return nil, "", err
	}
	ok := (len(dims) == 4 && dims[3] == 3) || len(dims) == 3
	if !ok || dims[0] == 0 || dims[0] != dims[1] || dims[0] != dims[2] {
		return nil, "", rd.errorf(line, "Illegal '%s' dimensions %s", e.tag, s)
	}
	e.array = true
	return &arrayElt{line: line, set: func(v []float64) error {
		return e.setValues(rd, line, dims[0], v)
	}}, "", nil
}

func (e *lut3DElt) setValues(rd *reader, line, edge int, v []float64) error {
	if len(v) != edge*edge*edge*3 {
		return rd.errorf(line, "Expected %dx%dx%dx3 Array values, found %d.", edge, edge, edge, len(v))
	}
	scale := e.outMax
	if e.inverse {
		scale = e.inMax
	}
	e.lut.GridSize = edge
	e.lut.Values = make([]float32, len(v))
	for i, x := range v {
		e.lut.Values[i] = float32(x / scale)
	}
	return nil
}

func (e *lut3DElt) end(rd *reader, _ string) error {
	if !e.array {
		return rd.errorf(e.line, "Required element 'Array' is missing in '%s'.", e.tag)
	}
	if err := rd.validate(&e.opElt, e.lut); err != nil {
		return err
	}
	if e.indexMap != nil {
		e.emit(e.indexMapRange(e.indexMap, e.lut.GridSize))
	}
	e.emit(e.lut)
	return nil
}

// ASC_CDL

type cdlElt struct {
	opElt
	cdl *ops.CDL
}

func (e *cdlElt) start(rd *reader, attrs []xml.Attr) error {
	s, ok := attr(attrs, attrStyle)
	if !ok {
		return nil
	}
	style, err := ops.ParseCDLStyle(s)
	if err != nil {
		return rd.wrap(e.line, err)
	}
	e.cdl.Style = style
	return nil
}

func (e *cdlElt) child(_ *reader, name string, _ []xml.Attr, _ int) (element, string, error) {
	switch {
	case strings.EqualFold(name, tagSOPNode):
		return &sopNodeElt{cdl: e.cdl}, "", nil
	case strings.EqualFold(name, tagSatNode), strings.EqualFold(name, tagSatNodeAlt):
		return &satNodeElt{cdl: e.cdl}, "", nil
	}
	return nil, "", nil
}

func (e *cdlElt) end(rd *reader, _ string) error {
	if err := rd.validate(&e.opElt, e.cdl); err != nil {
		return err
	}
	e.emit(e.cdl)
	return nil
}

type sopNodeElt struct {
	cdl *ops.CDL
}

func (s *sopNodeElt) child(_ *reader, name string, _ []xml.Attr, line int) (element, string, error) {
	var dst *[3]float64
	switch {
	case strings.EqualFold(name, tagSlope):
		dst = &s.cdl.Slope
	case strings.EqualFold(name, tagOffset):
		dst = &s.cdl.Offset
	case strings.EqualFold(name, tagPower):
		dst = &s.cdl.Power
	default:
		return nil, "", nil
	}
	return &tripleElt{line: line, dst: dst}, "", nil
}

func (s *sopNodeElt) end(*reader, string) error { return nil }

type tripleElt struct {
	line int
	dst  *[3]float64
}

func (t *tripleElt) end(rd *reader, text string) error {
	values, err := encoding.ParseNumbers(text)
	if err != nil {
		return rd.wrap(t.line, err)
	}
	if len(values) != 3 {
		return rd.errorf(t.line, "SOPNode: 3 values required.")
	}
	copy(t.dst[:], values)
	return nil
}

type satNodeElt struct {
	cdl *ops.CDL
}

func (s *satNodeElt) child(_ *reader, name string, _ []xml.Attr, line int) (element, string, error) {
	if !strings.EqualFold(name, tagSaturation) {
		return nil, "", nil
	}
	return &valueElt{line: line, context: "SatNode", set: func(v float64) { s.cdl.Saturation = v }}, "", nil
}

func (s *satNodeElt) end(*reader, string) error { return nil }

// Gamma and Exponent

type gammaElt struct {
	opElt
	g *ops.Gamma
}

func (e *gammaElt) start(rd *reader, attrs []xml.Attr) error {
	s, ok := attr(attrs, attrStyle)
	if !ok {
		return rd.errorf(e.line, "Missing parameter 'style'.")
	}
	style, err := ops.ParseGammaStyle(s)
	if err != nil {
		return rd.wrap(e.line, err)
	}
	e.g = ops.NewGamma(style)
	e.base = &e.g.Base
	return nil
}

func (e *gammaElt) child(rd *reader, name string, attrs []xml.Attr, line int) (element, string, error) {
	if !strings.EqualFold(name, tagGammaParams) && !strings.EqualFold(name, tagExponentParams) {
		return nil, "", nil
	}
	rd.warnAttrs(name, line, attrs, attrChannel, "gamma", "exponent", "offset")
	style := e.g.Style

	g, ok := attr(attrs, "gamma")
	if !ok {
		g, ok = attr(attrs, "exponent")
	}
	if !ok {
		return nil, "", rd.errorf(line, "Missing required gamma parameter for style: %s.", style)
	}
	gamma, err := encoding.ParseSingleNumber(g)
	if err != nil {
		return nil, "", rd.wrap(line, err)
	}
	params := ops.GammaParams{gamma}

	off, hasOffset := attr(attrs, "offset")
	switch {
	case style.IsMonCurve() && !hasOffset:
		return nil, "", rd.errorf(line, "Missing required offset parameter for style: %s.", style)
	case !style.IsMonCurve() && hasOffset:
		return nil, "", rd.errorf(line, "Illegal offset parameter for style: %s.", style)
	case hasOffset:
		offset, err := encoding.ParseSingleNumber(off)
		if err != nil {
			return nil, "", rd.wrap(line, err)
		}
		params = append(params, offset)
	}

	channel, _ := attr(attrs, attrChannel)
	switch {
	case channel == "":
		e.g.Red, e.g.Green, e.g.Blue = params, append(ops.GammaParams(nil), params...), append(ops.GammaParams(nil), params...)
	case strings.EqualFold(channel, "R"):
		e.g.Red = params
	case strings.EqualFold(channel, "G"):
		e.g.Green = params
	case strings.EqualFold(channel, "B"):
		e.g.Blue = params
	case strings.EqualFold(channel, "A") && rd.version.AtLeast(Version1_5):
		e.g.Alpha = params
	default:
		return nil, "", rd.errorf(line, "Invalid channel: %s.", channel)
	}
	return emptyElt{}, "", nil
}

func (e *gammaElt) end(rd *reader, _ string) error {
	if rd.version.Less(Version1_5) {
		e.g.Alpha = ops.IdentityGammaParams(e.g.Style)
	}
	if err := e.g.Validate(); err != nil {
		return rd.errorf(e.line, "Invalid parameters: %s", err)
	}
	e.emit(e.g)
	return nil
}

// Log

var cineonAttrs = []string{"gamma", "refWhite", "refBlack", "highlight", "shadow"}

var logParamAttrs = []string{
	"logSideSlope", "logSideOffset", "linSideSlope", "linSideOffset", "linSideBreak", "linearSlope", "base",
}

type logElt struct {
	opElt
	l       *ops.Log
	baseSet bool
}

func (e *logElt) start(rd *reader, attrs []xml.Attr) error {
	s, ok := attr(attrs, attrStyle)
	if !ok {
		return rd.errorf(e.line, "CTF/CLF Log parsing. Required attribute 'style' is missing.")
	}
	style, err := ops.ParseLogStyle(s)
	if err != nil {
		return rd.wrap(e.line, err)
	}
	e.l = ops.NewLog(style)
	e.base = &e.l.Base
	return nil
}

func (e *logElt) child(rd *reader, name string, attrs []xml.Attr, line int) (element, string, error) {
	if !strings.EqualFold(name, tagLogParams) {
		return nil, "", nil
	}
	if !e.l.Style.UsesParams() {
		return nil, ": Log Params not allowed in this element", nil
	}
	rd.warnAttrs(name, line, attrs, append(append([]string{attrChannel}, cineonAttrs...), logParamAttrs...)...)

	num := func(name string) (float64, bool, error) {
		s, ok := attr(attrs, name)
		if !ok {
			return 0, false, nil
		}
		v, err := encoding.ParseSingleNumber(s)
		if err != nil {
			return 0, true, rd.wrap(line, err)
		}
		return v, true, nil
	}

	cineon := false
	for _, a := range cineonAttrs {
		if _, ok := attr(attrs, a); ok {
			cineon = true
		}
	}

	var p ops.LogParams
	if cineon {
		var c ops.CineonParams
		for i, dst := range []*float64{&c.Gamma, &c.RefWhite, &c.RefBlack, &c.Highlight, &c.Shadow} {
			v, ok, err := num(cineonAttrs[i])
			if err != nil {
				return nil, "", err
			}
			if !ok {
				return nil, "", rd.errorf(line, "Required attribute '%s' is missing.", cineonAttrs[i])
			}
			*dst = v
		}
		if err := c.Validate(); err != nil {
			return nil, "", rd.wrap(line, err)
		}
		p = c.LogParams()
		if err := e.setBase(rd, line, 10); err != nil {
			return nil, "", err
		}
	} else {
		p = ops.DefaultLogParams()
		for i, dst := range []*float64{&p.LogSideSlope, &p.LogSideOffset, &p.LinSideSlope, &p.LinSideOffset, &p.LinSideBreak, &p.LinearSlope} {
			v, ok, err := num(logParamAttrs[i])
			if err != nil {
				return nil, "", err
			}
			if ok {
				*dst = v
			}
		}
		base, ok, err := num("base")
		if err != nil {
			return nil, "", err
		}
		if ok {
			if err := e.setBase(rd, line, base); err != nil {
				return nil, "", err
			}
		}
	}

	channel, _ := attr(attrs, attrChannel)
	switch {
	case channel == "":
		e.l.Red, e.l.Green, e.l.Blue = p, p, p
	case strings.EqualFold(channel, "R"):
		e.l.Red = p
	case strings.EqualFold(channel, "G"):
		e.l.Green = p
	case strings.EqualFold(channel, "B"):
		e.l.Blue = p
	default:
		return nil, "", rd.errorf(line, "Illegal channel attribute value '%s'.", channel)
	}
	return emptyElt{}, "", nil
}

// setBase records the log base; every channel must use the same one.
func (e *logElt) setBase(rd *reader, line int, base float64) error {
	if e.baseSet && base != e.l.LogBase {
		return rd.errorf(line, "Log base has to be the same on all components: Current base: %g, new base: %g.", e.l.LogBase, base)
	}
	e.l.LogBase = base
	e.baseSet = true
	return nil
}

func (e *logElt) end(rd *reader, _ string) error {
	if err := rd.validate(&e.opElt, e.l); err != nil {
		return err
	}
	e.emit(e.l)
	return nil
}

// FixedFunction and the deprecated Function

type fixedFunctionElt struct {
	opElt
	ff *ops.FixedFunction
}

func (e *fixedFunctionElt) start(rd *reader, attrs []xml.Attr) error {
	s, ok := attr(attrs, attrStyle)
	if !ok {
		return rd.errorf(e.line, "style parameter for FixedFunction is missing.")
	}
	style, err := ops.ParseFixedFunctionStyle(s)
	if err != nil {
		return rd.wrap(e.line, err)
	}
	e.ff = ops.NewFixedFunction(style)
	e.base = &e.ff.Base
	if p, ok := attr(attrs, attrParams); ok {
		params, err := encoding.ParseNumbers(p)
		if err != nil {
			return rd.errorf(e.line, "Illegal '%s' params %s", e.tag, p)
		}
		e.ff.Params = params
	}
	return nil
}

func (e *fixedFunctionElt) end(rd *reader, _ string) error {
	if err := rd.validate(&e.opElt, e.ff); err != nil {
		return err
	}
	e.emit(e.ff)
	return nil
}

// ACES

type acesElt struct {
	opElt
	ff *ops.FixedFunction
}

func (e *acesElt) start(rd *reader, attrs []xml.Attr) error {
	s, ok := attr(attrs, attrStyle)
	if !ok {
		return rd.errorf(e.line, "style parameter for FixedFunction is missing.")
	}
	style, err := ops.ParseFixedFunctionStyle(s)
	if err != nil {
		return rd.wrap(e.line, err)
	}
	e.ff = ops.NewFixedFunction(style)
	e.base = &e.ff.Base
	return nil
}

func (e *acesElt) child(rd *reader, name string, attrs []xml.Attr, line int) (element, string, error) {
	if !strings.EqualFold(name, tagACESParams) {
		return nil, "", nil
	}
	style := e.ff.Style
	if style != ops.FFRec2100SurroundFwd && style != ops.FFRec2100SurroundInv {
		return nil, "", rd.errorf(line, "ACES FixedFunction element with style %s does not take any parameter.", style)
	}
	if len(e.ff.Params) > 0 {
		return nil, "", rd.errorf(line, "ACES FixedFunction element with style %s expects only 1 gamma parameter.", style)
	}
	s, ok := attr(attrs, "gamma")
	if !ok {
		return nil, "", rd.errorf(line, "Missing required parameter 'gamma' for ACES FixedFunction element with style %s.", style)
	}
	g, err := encoding.ParseSingleNumber(s)
	if err != nil {
		return nil, "", rd.wrap(line, err)
	}
	e.ff.Params = []float64{g}
	return emptyElt{}, "", nil
}

func (e *acesElt) end(rd *reader, _ string) error {
	if err := rd.validate(&e.opElt, e.ff); err != nil {
		return err
	}
	e.emit(e.ff)
	return nil
}

// ExposureContrast

type ecElt struct {
	opElt
	ec *ops.ExposureContrast
}

func (e *ecElt) start(rd *reader, attrs []xml.Attr) error {
	s, ok := attr(attrs, attrStyle)
	if !ok {
		return rd.errorf(e.line, "ExposureContrast element: style missing.")
	}
	style, err := ops.ParseECStyle(s)
	if err != nil {
		return rd.errorf(e.line, "ExposureContrast element: %s", err)
	}
	e.ec = ops.NewExposureContrast(style)
	e.base = &e.ec.Base
	return nil
}

func (e *ecElt) child(rd *reader, name string, attrs []xml.Attr, line int) (element, string, error) {
	switch {
	case strings.EqualFold(name, tagECParams):
		return e.params(rd, attrs, line)
	case strings.EqualFold(name, tagDynamicParam):
		s, _ := attr(attrs, attrParam)
		p, err := ops.ParseECParam(s)
		if err != nil {
			return nil, "", rd.errorf(line, "Dynamic parameter '%s' is not valid in '%s'.", s, e.tag)
		}
		e.ec.Dynamic[p] = true
		return emptyElt{}, "", nil
	}
	return nil, "", nil
}

func (e *ecElt) params(rd *reader, attrs []xml.Attr, line int) (element, string, error) {
	fields := []struct {
		name     string
		dst      *float64
		required bool
	}{
		{"exposure", &e.ec.Exposure, true},
		{"contrast", &e.ec.Contrast, true},
		{"gamma", &e.ec.Gamma, false},
		{"pivot", &e.ec.Pivot, true},
		{"logExposureStep", &e.ec.LogExposureStep, false},
		{"logMidGray", &e.ec.LogMidGray, false},
	}
	for _, f := range fields {
		s, ok := attr(attrs, f.name)
		if !ok {
			if f.required {
				return nil, "", rd.errorf(line, "ExposureContrast element: %s missing.", f.name)
			}
			continue
		}
		v, err := encoding.ParseSingleNumber(s)
		if err != nil {
			return nil, "", rd.wrap(line, err)
		}
		*f.dst = v
	}
	return emptyElt{}, "", nil
}

func (e *ecElt) end(rd *reader, _ string) error {
	if err := rd.validate(&e.opElt, e.ec); err != nil {
		return err
	}
	e.emit(e.ec)
	return nil
}

// Reference

type referenceElt struct {
	opElt
	ref *ops.Reference
}

func (e *referenceElt) start(rd *reader, attrs []xml.Attr) error {
	path, _ := attr(attrs, attrPath)
	basePath, _ := attr(attrs, attrBasePath)
	alias, _ := attr(attrs, attrAlias)

	switch {
	case strings.EqualFold(alias, "currentMonitor"):
		return rd.errorf(e.line, "The 'currentMonitor' alias is not supported.")
	case alias != "" && path != "":
		return rd.errorf(e.line, "alias & path attributes for Reference should not be both defined.")
	case alias != "" && basePath != "":
		return rd.errorf(e.line, "alias & basepath attributes for Reference should not be both defined.")
	case alias == "" && path == "":
		return rd.errorf(e.line, "path attribute for Reference is missing.")
	}

	dir := ops.Forward
	inv, ok := attr(attrs, attrIsInverted)
	if !ok {
		inv, _ = attr(attrs, attrInverted)
	}
	if strings.EqualFold(inv, "true") {
		dir = ops.Inverse
	}

	if basePath != "" && !filepath.IsAbs(path) {
		path = filepath.Join(basePath, path)
	}
	e.ref = ops.NewPathReference(path, dir)
	e.ref.Alias = alias
	e.base = &e.ref.Base
	return nil
}

func (e *referenceElt) end(rd *reader, _ string) error {
	if err := rd.validate(&e.opElt, e.ref); err != nil {
		return err
	}
	e.emit(e.ref)
	return nil
}
