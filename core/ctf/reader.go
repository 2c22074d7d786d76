package ctf

import (
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/errors"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/metadata"
	xmlutil "github.com/AcademySoftwareFoundation/OpenColorIO-sub008/core/xml"
	"github.com/AcademySoftwareFoundation/OpenColorIO-sub008/internal/logging"
)

// FormatName is the display name used in errors and logs.
const FormatName = "CTF/CLF"

// ReadOption configures Read.
type ReadOption func(*reader)

// WithWarningHandler registers fn to receive every parse warning. Warnings
// are logged either way.
func WithWarningHandler(fn func(msg string)) ReadOption {
	return func(rd *reader) { rd.onWarning = fn }
}

// AsCLF applies the CLF rules whatever the file name.
func AsCLF() ReadOption {
	return func(rd *reader) { rd.clfFile = true }
}

// element is the handler of one open XML element.
type element interface {
	// end receives the element's character data once it closes.
	end(rd *reader, text string) error
}

// parentElement accepts child elements. A nil element with an empty
// reason means the child is not allowed here.
type parentElement interface {
	child(rd *reader, name string, attrs []xml.Attr, line int) (elt element, reason string, err error)
}

// describable elements accept Description children.
type describable interface {
	addDescription(text string)
}

// rawText elements keep their character data untrimmed.
type rawText interface {
	keepRawText()
}

type frame struct {
	name string
	line int
	elt  element // nil for an ignored element
	text strings.Builder
}

type reader struct {
	filename  string
	clfFile   bool
	onWarning func(string)

	dec   *xml.Decoder
	stack []*frame
	t     *Transform
	// version is the CTF version gating operators; for CLF documents it is
	// the CTF version the CLF version maps to.
	version Version
}

// Read parses a CTF or CLF document. Files named *.clf follow the CLF rules.
func Read(r io.Reader, filename string, opts ...ReadOption) (*Transform, error) {
	rd := &reader{
		filename: filename,
		clfFile:  strings.EqualFold(filepath.Ext(filename), ".clf"),
	}
	for _, opt := range opts {
		opt(rd)
	}
	rd.dec = xmlutil.NewDecoder(r)

	for {
		tok, err := rd.dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, rd.syntaxError(err)
		}
		line, _ := rd.dec.InputPos()

		switch tok := tok.(type) {
		case xml.StartElement:
			err = rd.start(tok, line)
		case xml.EndElement:
			err = rd.end(tok, line)
		case xml.CharData:
			if top := rd.top(); top != nil {
				top.text.Write(tok)
			}
		}
		if err != nil {
			return nil, err
		}
	}

	if top := rd.top(); top != nil {
		return nil, rd.errorf(top.line, "CTF/CLF parsing error (no closing tag for '%s').", top.name)
	}
	if rd.t == nil {
		return nil, rd.errorf(0, "CTF/CLF parsing error: Invalid transform.")
	}
	if len(rd.t.Ops) == 0 {
		return nil, rd.errorf(0, "CTF/CLF parsing error: No color operator in file.")
	}
	logging.FileLoaded(FormatName, filename, len(rd.t.Ops), "clf", rd.t.IsCLF)
	return rd.t, nil
}

func (rd *reader) top() *frame {
	if len(rd.stack) == 0 {
		return nil
	}
	return rd.stack[len(rd.stack)-1]
}

func (rd *reader) push(name string, line int, elt element) {
	rd.stack = append(rd.stack, &frame{name: name, line: line, elt: elt})
}

func (rd *reader) start(se xml.StartElement, line int) error {
	name := se.Name.Local
	parent := rd.top()

	switch {
	case parent == nil:
		if !strings.EqualFold(name, tagProcessList) {
			rd.ignore(name, line, nil, ": Unknown element")
			return nil
		}
		if rd.t != nil {
			rd.ignore(name, line, nil, ": The Transform already exists")
			return nil
		}
		pl, err := rd.newProcessList(se.Attr, line)
		if err != nil {
			return err
		}
		rd.push(name, line, pl)
		return nil

	case parent.elt == nil:
		// Everything below an ignored element is ignored too.
		rd.ignore(name, line, parent, "")
		return nil
	}

	if md, ok := parent.elt.(*metadataElt); ok {
		rd.push(name, line, md.nested(name, se.Attr))
		return nil
	}

	if strings.EqualFold(name, tagDescription) {
		if d, ok := parent.elt.(describable); ok {
			rd.push(name, line, &descriptionElt{owner: d})
			return nil
		}
		rd.ignore(name, line, parent, fmt.Sprintf(": '%s' not allowed in this element", name))
		return nil
	}

	if tag, ok := canonicalOpTag(name); ok {
		pl, isList := parent.elt.(*processListElt)
		if !isList {
			rd.ignore(name, line, parent, fmt.Sprintf(": The %s's parent can only be a Transform", name))
			return nil
		}
		op, err := rd.newOp(tag, name, se.Attr, line)
		if err != nil {
			return err
		}
		op.common().list = pl
		rd.push(name, line, op)
		return nil
	}

	if strings.EqualFold(name, tagDynamicParam) {
		if op, ok := parent.elt.(opElement); ok {
			if _, isEC := op.(*ecElt); !isEC {
				param, _ := attr(se.Attr, attrParam)
				return rd.errorf(line, "Dynamic parameter '%s' is not supported in '%s'.", param, op.common().tag)
			}
		}
	}

	if p, ok := parent.elt.(parentElement); ok {
		elt, reason, err := p.child(rd, name, se.Attr, line)
		if err != nil {
			return err
		}
		if elt != nil {
			rd.push(name, line, elt)
			return nil
		}
		if reason != "" {
			rd.ignore(name, line, parent, reason)
			return nil
		}
	}

	if isKnownElement(name) {
		rd.ignore(name, line, parent, fmt.Sprintf(": '%s' not allowed in this element", name))
	} else {
		rd.ignore(name, line, parent, ": Unknown element")
	}
	return nil
}

func (rd *reader) end(ee xml.EndElement, line int) error {
	top := rd.top()
	if top == nil || top.name != ee.Name.Local {
		// encoding/xml reports mismatched tags itself; this is a safety net.
		name := ee.Name.Local
		if top != nil {
			name = top.name
		}
		return rd.errorf(line, "CTF/CLF parsing error (no closing tag for '%s').", name)
	}
	rd.stack = rd.stack[:len(rd.stack)-1]
	if top.elt == nil {
		return nil
	}

	text := top.text.String()
	if _, raw := top.elt.(rawText); !raw {
		text = strings.TrimSpace(text)
	}
	return top.elt.end(rd, text)
}

// ignore skips an element and its subtree with a warning.
func (rd *reader) ignore(name string, line int, parent *frame, reason string) {
	msg := fmt.Sprintf("Ignore element '%s' (line %d)", name, line)
	if parent != nil {
		msg += fmt.Sprintf(" where its parent is '%s' (line %d)", parent.name, parent.line)
	}
	msg += reason
	rd.warn(line, msg, "element", name)
	rd.push(name, line, nil)
}

func (rd *reader) warn(line int, msg string, args ...any) {
	logging.ParseWarning(FormatName, rd.filename, line, msg, args...)
	if rd.onWarning != nil {
		rd.onWarning(msg)
	}
}

// warnAttrs warns about attributes outside known.
func (rd *reader) warnAttrs(elt string, line int, attrs []xml.Attr, known ...string) {
	for _, a := range attrs {
		if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
			continue
		}
		found := false
		for _, k := range known {
			if strings.EqualFold(a.Name.Local, k) {
				found = true
				break
			}
		}
		if !found {
			rd.warn(line, fmt.Sprintf("Ignore attribute '%s' of element '%s' (line %d)", a.Name.Local, elt, line), "attribute", a.Name.Local)
		}
	}
}

func (rd *reader) errorf(line int, format string, args ...any) error {
	return &errors.FormatError{
		Kind:    errors.KindSemantic,
		Format:  FormatName,
		Path:    rd.filename,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	}
}

// wrap locates an error raised by an operator or a number parser.
func (rd *reader) wrap(line int, err error) error {
	return errors.WithContext(errors.NewSemanticf("%s", err.Error()), FormatName, rd.filename, line)
}

func (rd *reader) syntaxError(err error) error {
	var se *xml.SyntaxError
	line, msg := 0, err.Error()
	if errors.As(err, &se) {
		line, msg = se.Line, se.Msg
		if top := rd.top(); top != nil &&
			(strings.Contains(se.Msg, "closed by") || strings.Contains(se.Msg, "unexpected EOF")) {
			return rd.errorf(line, "CTF/CLF parsing error (no closing tag for '%s').", top.name)
		}
	}
	return &errors.FormatError{
		Kind:    errors.KindSyntax,
		Format:  FormatName,
		Path:    rd.filename,
		Line:    line,
		Message: "CTF/CLF parsing error: " + msg,
		Err:     err,
	}
}

func attr(attrs []xml.Attr, name string) (string, bool) {
	for _, a := range attrs {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value, true
		}
	}
	return "", false
}

// processListElt is the ProcessList root.
type processListElt struct {
	t *Transform
}

func (rd *reader) newProcessList(attrs []xml.Attr, line int) (*processListElt, error) {
	t := &Transform{Version: DefaultVersion}
	rd.warnAttrs(tagProcessList, line, attrs, attrVersion, attrCLFVersion, attrID, attrName, attrInverseOf, "xmlns")

	var versionSeen, clfSeen bool
	for _, a := range attrs {
		switch {
		case strings.EqualFold(a.Name.Local, attrID):
			if a.Value == "" {
				return nil, rd.errorf(line, "Required attribute 'id' does not have a value.")
			}
			t.ID = a.Value
		case strings.EqualFold(a.Name.Local, attrName):
			if a.Value == "" {
				return nil, rd.errorf(line, "If the attribute 'name' is present, it must have a value.")
			}
			t.Name = a.Value
		case strings.EqualFold(a.Name.Local, attrInverseOf):
			if a.Value == "" {
				return nil, rd.errorf(line, "If the attribute 'inverseOf' is present, it must have a value.")
			}
			t.InverseOfID = a.Value
		case strings.EqualFold(a.Name.Local, attrVersion):
			if clfSeen {
				return nil, rd.errorf(line, "'compCLFversion' and 'Version' cannot both be present.")
			}
			if versionSeen {
				return nil, rd.errorf(line, "'Version' can only be there once.")
			}
			if strings.TrimSpace(a.Value) == "" {
				return nil, rd.errorf(line, "If the attribute 'version' is present, it must have a value.")
			}
			v, err := ParseVersion(strings.TrimSpace(a.Value))
			if err != nil {
				return nil, rd.wrap(line, err)
			}
			if LatestVersion.Less(v) {
				return nil, rd.unsupportedVersion(line, a.Value)
			}
			t.Version = v
			versionSeen = true
		case strings.EqualFold(a.Name.Local, attrCLFVersion):
			if versionSeen {
				return nil, rd.errorf(line, "'compCLFversion' and 'Version' cannot both be present.")
			}
			if clfSeen {
				return nil, rd.errorf(line, "'compCLFversion' can only be there once.")
			}
			if strings.TrimSpace(a.Value) == "" {
				return nil, rd.errorf(line, "Required attribute 'compCLFversion' does not have a value.")
			}
			v, err := ParseVersion(strings.TrimSpace(a.Value))
			if err != nil {
				return nil, rd.wrap(line, err)
			}
			if LatestCLFVersion.Less(v) {
				return nil, rd.unsupportedVersion(line, a.Value)
			}
			t.IsCLF = true
			t.CLFVersion = v
			t.Version = CTFVersionForCLF(v)
			clfSeen = true
		}
	}

	if _, ok := attr(attrs, attrID); !ok {
		return nil, rd.errorf(line, "Required attribute 'id' is missing.")
	}
	if rd.clfFile && !clfSeen {
		if !versionSeen {
			return nil, rd.errorf(line, "Required attribute 'compCLFversion' is missing.")
		}
		// A .clf file carrying a CTF version keeps the CLF restrictions.
		t.IsCLF = true
		t.CLFVersion = CLFVersion2
		if t.Version.AtLeast(Version2_0) {
			t.CLFVersion = CLFVersion3
		}
	}

	rd.t = t
	rd.version = t.Version
	return &processListElt{t: t}, nil
}

func (rd *reader) unsupportedVersion(line int, v string) error {
	err := errors.NewUnsupportedVersion(fmt.Sprintf("Unsupported transform file version '%s' supplied.", v))
	err.Format, err.Path, err.Line = FormatName, rd.filename, line
	return err
}

func (p *processListElt) addDescription(text string) {
	p.t.Descriptions = append(p.t.Descriptions, text)
}

func (p *processListElt) child(rd *reader, name string, attrs []xml.Attr, line int) (element, string, error) {
	switch {
	case strings.EqualFold(name, tagInputDescriptor):
		return &textElt{set: func(s string) { p.t.InputDescriptor = s }}, "", nil
	case strings.EqualFold(name, tagOutputDescriptor):
		return &textElt{set: func(s string) { p.t.OutputDescriptor = s }}, "", nil
	case strings.EqualFold(name, tagInfo):
		if err := rd.checkInfoVersion(attrs, line); err != nil {
			return nil, "", err
		}
		if p.t.Info == nil {
			p.t.Info = metadata.New(tagInfo)
		}
		addAttributes(p.t.Info, attrs)
		return &metadataElt{node: p.t.Info}, "", nil
	}
	return nil, "", nil
}

func (p *processListElt) end(*reader, string) error { return nil }

// maxInfoMajorVersion is the newest Info element version understood.
const maxInfoMajorVersion = 2

func (rd *reader) checkInfoVersion(attrs []xml.Attr, line int) error {
	s, ok := attr(attrs, attrVersion)
	if !ok {
		return nil
	}
	v, err := ParseVersion(strings.TrimSpace(s))
	if err != nil {
		return rd.errorf(line, "CTF reader. Invalid Info element version attribute.")
	}
	if v.Major > maxInfoMajorVersion {
		return rd.errorf(line, "CTF reader. Unsupported Info element version attribute: %s .", s)
	}
	return nil
}

func addAttributes(node *metadata.FormatMetadata, attrs []xml.Attr) {
	for _, a := range attrs {
		if a.Value != "" {
			node.AddAttribute(a.Name.Local, a.Value)
		}
	}
}

// metadataElt captures an Info subtree verbatim.
type metadataElt struct {
	node *metadata.FormatMetadata
}

func (m *metadataElt) nested(name string, attrs []xml.Attr) element {
	child := m.node.AddChild(name, "")
	addAttributes(child, attrs)
	return &metadataElt{node: child}
}

func (m *metadataElt) end(_ *reader, text string) error {
	m.node.Value = text
	return nil
}

type descriptionElt struct {
	owner describable
}

func (*descriptionElt) keepRawText() {}

func (d *descriptionElt) end(_ *reader, text string) error {
	d.owner.addDescription(text)
	return nil
}

type textElt struct {
	set func(string)
}

func (e *textElt) end(_ *reader, text string) error {
	e.set(text)
	return nil
}

// knownElements are names that have a meaning somewhere in a document.
var knownElements = []string{
	tagProcessList, tagDescription, tagInputDescriptor, tagOutputDescriptor, tagInfo,
	tagArray, tagIndexMap, tagMinInValue, tagMaxInValue, tagMinOutValue, tagMaxOutValue,
	tagSOPNode, tagSatNode, tagSatNodeAlt, tagSlope, tagOffset, tagPower, tagSaturation,
	tagGammaParams, tagExponentParams, tagLogParams, tagECParams, tagACESParams, tagDynamicParam,
}

func isKnownElement(name string) bool {
	for _, k := range knownElements {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}
