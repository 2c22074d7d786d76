package ctf

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/bitdepth"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/encoding"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/errors"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/metadata"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/ops"
)

// WriteOptions control Write.
type WriteOptions struct {
	// CLF writes a Common LUT Format document.
	CLF bool
	// Version forces the CTF version. The zero value picks the lowest
	// version able to hold every operator.
	Version Version
}

const indentUnit = "    "

// Write serialises t. References must have been resolved first.
func Write(w io.Writer, t *Transform, opts WriteOptions) error {
	if t.HasReferences() {
		return errors.NewInternal("Reference ops should have been replaced by their content.")
	}
	if opts.CLF {
		for _, op := range t.Ops {
			if name, ok := clfIncompatible(op); ok {
				return errors.NewSemanticf("Transform uses the %s op which cannot be written as CLF.  Use CTF format or Bake the transform.", name)
			}
		}
	}

	version := MinimumVersion(t.Ops)
	if !opts.CLF && !opts.Version.IsZero() {
		if opts.Version.Less(version) || LatestVersion.Less(opts.Version) {
			return errors.NewUnsupportedVersion(fmt.Sprintf("Unsupported transform file version '%s' supplied.", opts.Version))
		}
		version = opts.Version
	}

	xw := &xmlWriter{clf: opts.CLF, version: version}
	xw.depth = 1
	for _, d := range t.Descriptions {
		xw.textElement(tagDescription, nil, encoding.TrimTrailingNewlines(d))
	}
	if t.InputDescriptor != "" {
		xw.textElement(tagInputDescriptor, nil, t.InputDescriptor)
	}
	if t.OutputDescriptor != "" {
		xw.textElement(tagOutputDescriptor, nil, t.OutputDescriptor)
	}
	if t.Info != nil {
		xw.metadata(t.Info)
	}
	if err := xw.writeOps(t.Ops); err != nil {
		return err
	}
	body := xw.buf.Bytes()

	id := t.ID
	if id == "" {
		sum := blake3.Sum256(body)
		id = hex.EncodeToString(sum[:16])
	}

	var head bytes.Buffer
	head.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	head.WriteString("<" + tagProcessList)
	if opts.CLF {
		writeAttr(&head, attrCLFVersion, clfVersionFor(t.Ops).String())
	} else {
		writeAttr(&head, attrVersion, version.String())
	}
	writeAttr(&head, attrID, id)
	if t.Name != "" {
		writeAttr(&head, attrName, t.Name)
	}
	if t.InverseOfID != "" {
		writeAttr(&head, attrInverseOf, t.InverseOfID)
	}
	head.WriteString(">\n")

	if _, err := w.Write(head.Bytes()); err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	_, err := io.WriteString(w, "</"+tagProcessList+">\n")
	return err
}

// MinimumVersion returns the lowest CTF version holding every operator.
func MinimumVersion(list []ops.Op) Version {
	v := Version1_3
	raise := func(to Version) {
		if v.Less(to) {
			v = to
		}
	}
	for _, op := range list {
		switch op := op.(type) {
		case *ops.Gamma:
			if !op.IsAlphaIdentity() {
				raise(Version1_5)
			}
			if op.Style.IsBasicExtension() || op.Style == ops.GammaMonCurveMirrorFwd || op.Style == ops.GammaMonCurveMirrorRev {
				raise(Version2_0)
			}
		case *ops.Lut1D:
			if op.IsInverse() {
				if op.HueAdjust != ops.HueNone || op.HalfDomain {
					raise(Version1_6)
				}
			} else if op.HueAdjust != ops.HueNone {
				raise(Version1_4)
			}
		case *ops.Lut3D:
			if op.IsInverse() {
				raise(Version1_6)
			}
		case *ops.Log, *ops.FixedFunction:
			raise(Version2_0)
		}
	}
	return v
}

// clfVersionFor is 3 when an operator needs CLF 3 elements.
func clfVersionFor(list []ops.Op) Version {
	for _, op := range list {
		switch op.(type) {
		case *ops.Log, *ops.Gamma:
			return CLFVersion3
		}
	}
	return CLFVersion2
}

// clfIncompatible names the element of an operator CLF cannot carry.
func clfIncompatible(op ops.Op) (string, bool) {
	switch op := op.(type) {
	case *ops.Lut1D:
		if op.IsInverse() {
			return tagInvLut1D, true
		}
	case *ops.Lut3D:
		if op.IsInverse() {
			return tagInvLut3D, true
		}
	case *ops.Matrix:
		if op.HasAlpha() {
			return tagMatrix, true
		}
	case *ops.Gamma:
		if !op.IsAlphaIdentity() {
			return tagGamma, true
		}
	case *ops.ExposureContrast:
		return tagExposureContrast, true
	case *ops.FixedFunction:
		return tagFixedFunction, true
	case *ops.Reference:
		return tagReference, true
	}
	return "", false
}

type attribute struct {
	name, value string
}

func writeAttr(b *bytes.Buffer, name, value string) {
	fmt.Fprintf(b, " %s=\"%s\"", name, encoding.EscapeXML(value))
}

type xmlWriter struct {
	buf     bytes.Buffer
	depth   int
	clf     bool
	version Version
}

func (xw *xmlWriter) indent() {
	for i := 0; i < xw.depth; i++ {
		xw.buf.WriteString(indentUnit)
	}
}

func (xw *xmlWriter) startTag(name string, attrs []attribute, empty bool) {
	xw.indent()
	xw.buf.WriteString("<" + name)
	for _, a := range attrs {
		writeAttr(&xw.buf, a.name, a.value)
	}
	if empty {
		xw.buf.WriteString(" />\n")
		return
	}
	xw.buf.WriteString(">\n")
	xw.depth++
}

func (xw *xmlWriter) endTag(name string) {
	xw.depth--
	xw.indent()
	xw.buf.WriteString("</" + name + ">\n")
}

func (xw *xmlWriter) textElement(name string, attrs []attribute, text string) {
	xw.indent()
	xw.buf.WriteString("<" + name)
	for _, a := range attrs {
		writeAttr(&xw.buf, a.name, a.value)
	}
	xw.buf.WriteString(">" + encoding.EscapeXMLText(text) + "</" + name + ">\n")
}

// metadata writes a node and its subtree. A node with children carries its
// value on its own line.
func (xw *xmlWriter) metadata(m *metadata.FormatMetadata) {
	var attrs []attribute
	for _, a := range m.Attributes() {
		attrs = append(attrs, attribute{a.Name, a.Value})
	}
	children := m.Children()
	if len(children) == 0 {
		xw.textElement(m.Name, attrs, m.Value)
		return
	}
	xw.startTag(m.Name, attrs, false)
	if m.Value != "" {
		xw.depth--
		xw.indent()
		xw.depth++
		xw.buf.WriteString(encoding.EscapeXMLText(m.Value) + "\n")
	}
	for _, c := range children {
		xw.metadata(c)
	}
	xw.endTag(m.Name)
}

// rawLine writes text without indentation, as Array values are.
func (xw *xmlWriter) rawLine(text string) {
	xw.buf.WriteString(text + "\n")
}

func fileDepth(bd bitdepth.BitDepth) bitdepth.BitDepth {
	if bd == bitdepth.Unknown {
		return bitdepth.F32
	}
	return bd
}

// writeOps chains bit depths: each operator is written with the previous
// operator's output depth as its input depth.
func (xw *xmlWriter) writeOps(list []ops.Op) error {
	var in bitdepth.BitDepth
	for i, op := range list {
		c := op.Common()
		if i == 0 {
			in = fileDepth(c.FileInBitDepth)
		}
		out := fileDepth(c.FileOutBitDepth)
		if err := xw.writeOp(op, in, out); err != nil {
			return err
		}
		in = out
	}
	return nil
}

func (xw *xmlWriter) opAttrs(c *ops.Base, in, out bitdepth.BitDepth) []attribute {
	var attrs []attribute
	if c.ID != "" {
		attrs = append(attrs, attribute{attrID, c.ID})
	}
	if c.Name != "" {
		attrs = append(attrs, attribute{attrName, c.Name})
	}
	return append(attrs,
		attribute{attrInBD, in.String()},
		attribute{attrOutBD, out.String()},
	)
}

// opWriter emits the element of one operator.
type opWriter struct {
	xw   *xmlWriter
	tag  string
	base *ops.Base
}

func (w *opWriter) open(attrs []attribute, hasChildren bool) {
	descs := w.base.Descriptions()
	if !hasChildren && len(descs) == 0 {
		w.xw.startTag(w.tag, attrs, true)
		return
	}
	w.xw.startTag(w.tag, attrs, false)
	for _, d := range descs {
		w.xw.textElement(tagDescription, nil, encoding.TrimTrailingNewlines(d))
	}
}

func (w *opWriter) close(hasChildren bool) {
	if !hasChildren && len(w.base.Descriptions()) == 0 {
		return
	}
	w.xw.endTag(w.tag)
}

func (xw *xmlWriter) writeOp(op ops.Op, in, out bitdepth.BitDepth) error {
	attrs := xw.opAttrs(op.Common(), in, out)
	inMax, outMax := bitdepth.MaxValue(in), bitdepth.MaxValue(out)

	switch op := op.(type) {
	case *ops.Matrix:
		xw.writeMatrix(op, attrs, inMax, outMax)
	case *ops.Range:
		if op.Style == ops.RangeNoClamp {
			// A Range without clamping is only its affine part.
			xw.writeMatrix(op.ToMatrix(), attrs, inMax, outMax)
			break
		}
		xw.writeRange(op, attrs, inMax, outMax)
	case *ops.Lut1D:
		xw.writeLut1D(op, attrs, in, out)
	case *ops.Lut3D:
		xw.writeLut3D(op, attrs, in, out)
	case *ops.CDL:
		xw.writeCDL(op, attrs)
	case *ops.Gamma:
		xw.writeGamma(op, attrs)
	case *ops.Log:
		xw.writeLog(op, attrs)
	case *ops.FixedFunction:
		w := &opWriter{xw: xw, tag: tagFixedFunction, base: &op.Base}
		attrs = append(attrs, attribute{attrStyle, op.Style.String()})
		if len(op.Params) > 0 {
			attrs = append(attrs, attribute{attrParams, joinNumbers(op.Params, 15)})
		}
		w.open(attrs, false)
		w.close(false)
	case *ops.ExposureContrast:
		xw.writeEC(op, attrs)
	default:
		return errors.NewInternal(fmt.Sprintf("cannot write operator %s", op.Type()))
	}
	return nil
}

func joinNumbers(values []float64, precision int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = encoding.FormatNumber(v, precision)
	}
	return strings.Join(parts, " ")
}

// arrayFormat is the printf verb of one Array value at a bit depth.
func arrayFormat(bd bitdepth.BitDepth) string {
	switch bd {
	case bitdepth.UInt8:
		return "%3.6g"
	case bitdepth.UInt10, bitdepth.UInt12:
		return "%4.6g"
	case bitdepth.UInt16:
		return "%5.6g"
	case bitdepth.F16:
		return "%11.5g"
	}
	return "%11.8g"
}

func (xw *xmlWriter) writeRows(values []float64, perRow int, verb string) {
	var line strings.Builder
	for i, v := range values {
		if i%perRow != 0 {
			line.WriteByte(' ')
		}
		fmt.Fprintf(&line, verb, v)
		if i%perRow == perRow-1 || i == len(values)-1 {
			xw.rawLine(line.String())
			line.Reset()
		}
	}
}

func (xw *xmlWriter) writeMatrix(m *ops.Matrix, attrs []attribute, inMax, outMax float64) {
	w := &opWriter{xw: xw, tag: tagMatrix, base: &m.Base}
	values, offsets := m.Scaled(inMax, outMax)

	rows, cols := 3, 3
	switch {
	case m.HasAlpha():
		rows, cols = 4, 5
	case m.HasOffsets():
		cols = 4
	}
	dim := fmt.Sprintf("%d %d", rows, cols)
	if rows == 4 || xw.version.Less(Version1_3) {
		dim += fmt.Sprintf(" %d", rows)
	}

	var flat []float64
	for r := 0; r < rows; r++ {
		for c := 0; c < rows; c++ {
			flat = append(flat, values[r*4+c])
		}
		if cols > rows {
			flat = append(flat, offsets[r])
		}
	}

	w.open(attrs, true)
	xw.startTag(tagArray, []attribute{{attrDim, dim}}, false)
	xw.writeRows(flat, cols, "%19.15g")
	xw.endTag(tagArray)
	w.close(true)
}

func (xw *xmlWriter) writeRange(r *ops.Range, attrs []attribute, inMax, outMax float64) {
	w := &opWriter{xw: xw, tag: tagRange, base: &r.Base}
	w.open(attrs, true)
	for _, l := range []struct {
		tag   string
		value float64
		scale float64
	}{
		{tagMinInValue, r.MinIn, inMax},
		{tagMaxInValue, r.MaxIn, inMax},
		{tagMinOutValue, r.MinOut, outMax},
		{tagMaxOutValue, r.MaxOut, outMax},
	} {
		if ops.IsEmptyLimit(l.value) {
			continue
		}
		xw.textElement(l.tag, nil, " "+encoding.FormatNumber(l.value*l.scale, 15)+" ")
	}
	w.close(true)
}

func interpAttr(attrs []attribute, interp ops.Interpolation) []attribute {
	if interp == ops.InterpDefault {
		return attrs
	}
	return append(attrs, attribute{attrInterp, interp.String()})
}

func (xw *xmlWriter) writeLut1D(l *ops.Lut1D, attrs []attribute, in, out bitdepth.BitDepth) {
	tag, valueDepth := tagLut1D, out
	if l.IsInverse() {
		tag, valueDepth = tagInvLut1D, in
	}
	w := &opWriter{xw: xw, tag: tag, base: &l.Base}
	attrs = interpAttr(attrs, l.Interpolation)
	if l.HalfDomain {
		attrs = append(attrs, attribute{attrHalfDomain, "true"})
	}
	if l.RawHalfs {
		attrs = append(attrs, attribute{attrRawHalfs, "true"})
	}
	if l.HueAdjust != ops.HueNone {
		attrs = append(attrs, attribute{attrHueAdjust, l.HueAdjust.String()})
	}

	comps := 3
	if l.Components == 1 && l.IsMonochrome() {
		comps = 1
	}
	n := l.Length()
	values := make([]float64, 0, n*comps)
	for i := 0; i < n; i++ {
		for c := 0; c < comps; c++ {
			values = append(values, float64(l.Values[i*3+c]))
		}
	}

	w.open(attrs, true)
	xw.startTag(tagArray, []attribute{{attrDim, fmt.Sprintf("%d %d", n, comps)}}, false)
	if l.RawHalfs {
		for i, v := range values {
			values[i] = float64(bitdepth.Float32ToHalfBits(float32(v)))
		}
		xw.writeRows(values, comps, "%5.0f")
	} else {
		scale := bitdepth.MaxValue(valueDepth)
		for i := range values {
			values[i] *= scale
		}
		xw.writeRows(values, comps, arrayFormat(valueDepth))
	}
	xw.endTag(tagArray)
	w.close(true)
}

func (xw *xmlWriter) writeLut3D(l *ops.Lut3D, attrs []attribute, in, out bitdepth.BitDepth) {
	tag, valueDepth := tagLut3D, out
	if l.IsInverse() {
		tag, valueDepth = tagInvLut3D, in
	}
	w := &opWriter{xw: xw, tag: tag, base: &l.Base}
	attrs = interpAttr(attrs, l.Interpolation)

	scale := bitdepth.MaxValue(valueDepth)
	values := make([]float64, len(l.Values))
	for i, v := range l.Values {
		values[i] = float64(v) * scale
	}
	e := l.GridSize

	w.open(attrs, true)
	xw.startTag(tagArray, []attribute{{attrDim, fmt.Sprintf("%d %d %d 3", e, e, e)}}, false)
	xw.writeRows(values, 3, arrayFormat(valueDepth))
	xw.endTag(tagArray)
	w.close(true)
}

func (xw *xmlWriter) writeCDL(c *ops.CDL, attrs []attribute) {
	w := &opWriter{xw: xw, tag: tagCDL, base: &c.Base}
	style := c.Style.CTFName()
	if xw.clf {
		style = c.Style.CLFName()
	}
	attrs = append(attrs, attribute{attrStyle, style})

	w.open(attrs, true)
	xw.startTag(tagSOPNode, nil, false)
	xw.textElement(tagSlope, nil, joinNumbers(c.Slope[:], 15))
	xw.textElement(tagOffset, nil, joinNumbers(c.Offset[:], 15))
	xw.textElement(tagPower, nil, joinNumbers(c.Power[:], 15))
	xw.endTag(tagSOPNode)
	xw.startTag(tagSatNode, nil, false)
	xw.textElement(tagSaturation, nil, encoding.FormatNumber(c.Saturation, 15))
	xw.endTag(tagSatNode)
	w.close(true)
}

func (xw *xmlWriter) writeGamma(g *ops.Gamma, attrs []attribute) {
	tag, paramsTag, valueAttr := tagGamma, tagGammaParams, "gamma"
	if xw.clf {
		tag, paramsTag, valueAttr = tagExponent, tagExponentParams, "exponent"
	}
	w := &opWriter{xw: xw, tag: tag, base: &g.Base}
	attrs = append(attrs, attribute{attrStyle, g.Style.String()})

	params := func(channel string, p ops.GammaParams) []attribute {
		var a []attribute
		if channel != "" {
			a = append(a, attribute{attrChannel, channel})
		}
		a = append(a, attribute{valueAttr, encoding.FormatNumber(p[0], 15)})
		if g.Style.IsMonCurve() && len(p) > 1 {
			a = append(a, attribute{"offset", encoding.FormatNumber(p[1], 15)})
		}
		return a
	}

	w.open(attrs, true)
	if g.IsNonChannelDependent() {
		xw.startTag(paramsTag, params("", g.Red), true)
	} else {
		xw.startTag(paramsTag, params("R", g.Red), true)
		xw.startTag(paramsTag, params("G", g.Green), true)
		xw.startTag(paramsTag, params("B", g.Blue), true)
		if !g.IsAlphaIdentity() {
			xw.startTag(paramsTag, params("A", g.Alpha), true)
		}
	}
	w.close(true)
}

func (xw *xmlWriter) writeLog(l *ops.Log, attrs []attribute) {
	w := &opWriter{xw: xw, tag: tagLog, base: &l.Base}
	attrs = append(attrs, attribute{attrStyle, l.Style.String()})
	if !l.Style.UsesParams() {
		w.open(attrs, false)
		w.close(false)
		return
	}

	params := func(channel string, p ops.LogParams) []attribute {
		var a []attribute
		if channel != "" {
			a = append(a, attribute{attrChannel, channel})
		}
		a = append(a,
			attribute{"base", encoding.FormatNumber(l.LogBase, 15)},
			attribute{"logSideSlope", encoding.FormatNumber(p.LogSideSlope, 15)},
			attribute{"logSideOffset", encoding.FormatNumber(p.LogSideOffset, 15)},
			attribute{"linSideSlope", encoding.FormatNumber(p.LinSideSlope, 15)},
			attribute{"linSideOffset", encoding.FormatNumber(p.LinSideOffset, 15)},
		)
		if p.HasBreak() {
			a = append(a, attribute{"linSideBreak", encoding.FormatNumber(p.LinSideBreak, 15)})
		}
		if p.HasLinearSlope() {
			a = append(a, attribute{"linearSlope", encoding.FormatNumber(p.LinearSlope, 15)})
		}
		return a
	}

	w.open(attrs, true)
	if l.AllComponentsEqual() {
		xw.startTag(tagLogParams, params("", l.Red), true)
	} else {
		xw.startTag(tagLogParams, params("R", l.Red), true)
		xw.startTag(tagLogParams, params("G", l.Green), true)
		xw.startTag(tagLogParams, params("B", l.Blue), true)
	}
	w.close(true)
}

func (xw *xmlWriter) writeEC(e *ops.ExposureContrast, attrs []attribute) {
	w := &opWriter{xw: xw, tag: tagExposureContrast, base: &e.Base}
	attrs = append(attrs, attribute{attrStyle, e.Style.String()})

	params := []attribute{
		{"exposure", encoding.FormatNumber(e.Exposure, 15)},
		{"contrast", encoding.FormatNumber(e.Contrast, 15)},
		{"gamma", encoding.FormatNumber(e.Gamma, 15)},
		{"pivot", encoding.FormatNumber(e.Pivot, 15)},
	}
	if e.IsLogStyle() {
		params = append(params,
			attribute{"logExposureStep", encoding.FormatNumber(e.LogExposureStep, 15)},
			attribute{"logMidGray", encoding.FormatNumber(e.LogMidGray, 15)},
		)
	}

	w.open(attrs, true)
	xw.startTag(tagECParams, params, true)
	for _, p := range []ops.ECParam{ops.ECExposure, ops.ECContrast, ops.ECGamma} {
		if e.Dynamic[p] {
			xw.startTag(tagDynamicParam, []attribute{{attrParam, p.String()}}, true)
		}
	}
	w.close(true)
}
