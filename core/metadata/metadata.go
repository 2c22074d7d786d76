// Package metadata provides FormatMetadata, the ordered element tree that
// carries descriptions, descriptors and Info blocks of LUT files.
package metadata

import "strings"

// Well-known element and attribute names.
const (
	Root             = "ROOT"
	Description      = "Description"
	InputDescriptor  = "InputDescriptor"
	OutputDescriptor = "OutputDescriptor"
	Info             = "Info"

	AttrID          = "id"
	AttrName        = "name"
	AttrInBitDepth  = "inBitDepth"
	AttrOutBitDepth = "outBitDepth"
)

// Attribute is a name/value pair. Order within a node is insertion order.
type Attribute struct {
	Name  string
	Value string
}

// FormatMetadata is an ordered tree node. Attribute names are unique within
// a node; child names are not.
type FormatMetadata struct {
	Name       string
	Value      string
	attributes []Attribute
	children   []*FormatMetadata
}

// New creates an empty node with the given element name.
func New(name string) *FormatMetadata {
	return &FormatMetadata{Name: name}
}

// NewRoot creates an empty root node.
func NewRoot() *FormatMetadata {
	return New(Root)
}

// AddChild appends a child element and returns it.
func (m *FormatMetadata) AddChild(name, value string) *FormatMetadata {
	child := &FormatMetadata{Name: name, Value: value}
	m.children = append(m.children, child)
	return child
}

// AppendChild appends an existing node as a child.
func (m *FormatMetadata) AppendChild(child *FormatMetadata) {
	m.children = append(m.children, child)
}

// AddAttribute adds an attribute, replacing the value in place if the name
// already exists.
func (m *FormatMetadata) AddAttribute(name, value string) {
	for i := range m.attributes {
		if m.attributes[i].Name == name {
			m.attributes[i].Value = value
			return
		}
	}
	m.attributes = append(m.attributes, Attribute{Name: name, Value: value})
}

// Attribute returns the value of the named attribute.
func (m *FormatMetadata) Attribute(name string) (string, bool) {
	for _, a := range m.attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttributeValue returns the value of the named attribute or "".
func (m *FormatMetadata) AttributeValue(name string) string {
	v, _ := m.Attribute(name)
	return v
}

// Attributes returns the attributes in insertion order.
func (m *FormatMetadata) Attributes() []Attribute {
	return m.attributes
}

// Children returns the child elements in insertion order.
func (m *FormatMetadata) Children() []*FormatMetadata {
	return m.children
}

// ChildValues returns the values of all children with the given name
// (case-insensitive), in order.
func (m *FormatMetadata) ChildValues(name string) []string {
	var values []string
	for _, c := range m.children {
		if strings.EqualFold(c.Name, name) {
			values = append(values, c.Value)
		}
	}
	return values
}

// FirstChildValue returns the value of the first child with the given name.
func (m *FormatMetadata) FirstChildValue(name string) string {
	for _, c := range m.children {
		if strings.EqualFold(c.Name, name) {
			return c.Value
		}
	}
	return ""
}

// LastChildValue returns the value of the last child with the given name.
func (m *FormatMetadata) LastChildValue(name string) string {
	for i := len(m.children) - 1; i >= 0; i-- {
		if strings.EqualFold(m.children[i].Name, name) {
			return m.children[i].Value
		}
	}
	return ""
}

// IsEmpty reports whether the node has no value, attributes or children.
func (m *FormatMetadata) IsEmpty() bool {
	return m == nil || (m.Value == "" && len(m.attributes) == 0 && len(m.children) == 0)
}

// Combine merges other into m: attributes are added or replaced and
// children are appended. Used to merge several Info blocks into one.
func (m *FormatMetadata) Combine(other *FormatMetadata) {
	if other == nil {
		return
	}
	for _, a := range other.attributes {
		m.AddAttribute(a.Name, a.Value)
	}
	if other.Value != "" {
		if m.Value != "" {
			m.Value += " "
		}
		m.Value += other.Value
	}
	for _, c := range other.children {
		m.children = append(m.children, c.Clone())
	}
}

// Clone returns a deep copy of m.
func (m *FormatMetadata) Clone() *FormatMetadata {
	if m == nil {
		return nil
	}
	cp := &FormatMetadata{Name: m.Name, Value: m.Value}
	if len(m.attributes) > 0 {
		cp.attributes = append([]Attribute(nil), m.attributes...)
	}
	for _, c := range m.children {
		cp.children = append(cp.children, c.Clone())
	}
	return cp
}

// Clear removes the value, attributes and children; the name is kept.
func (m *FormatMetadata) Clear() {
	m.Value = ""
	m.attributes = nil
	m.children = nil
}

// Equal reports whether two trees have the same names, values, attribute
// sequences and child sequences.
func (m *FormatMetadata) Equal(other *FormatMetadata) bool {
	if m == nil || other == nil {
		return m.IsEmpty() && other.IsEmpty()
	}
	if m.Name != other.Name || m.Value != other.Value ||
		len(m.attributes) != len(other.attributes) || len(m.children) != len(other.children) {
		return false
	}
	for i := range m.attributes {
		if m.attributes[i] != other.attributes[i] {
			return false
		}
	}
	for i := range m.children {
		if !m.children[i].Equal(other.children[i]) {
			return false
		}
	}
	return true
}
