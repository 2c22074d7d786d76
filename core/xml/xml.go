// Package xml provides the XML plumbing shared by the LUT readers: a
// streaming decoder that copes with byte-order marks and legacy encodings,
// and an XPath view for small documents such as Iridas .look files.
//
// Security Notes:
//   - XXE (External Entity) attacks are mitigated by using Go's xml.Decoder
//     which doesn't fetch external entities, and the entity table is
//     emptied so only the predefined entities expand.
//   - The xmlquery library is used for XPath, which uses Go's encoding/xml
//     internally and inherits its security properties.
package xml

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewReader returns r transcoded to UTF-8 when it starts with a UTF-8 or
// UTF-16 byte-order mark. The mark itself is removed. Other input passes
// through unchanged.
func NewReader(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(transform.Nop))
}

// CharsetReader is an xml.Decoder CharsetReader. Unicode labels pass the
// input through, since NewReader already decoded it; other labels are
// looked up in the WHATWG encoding index.
func CharsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8", "utf-16", "utf16", "utf-16le", "utf-16be", "us-ascii", "ascii":
		return input, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported XML encoding %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// NewDecoder returns a strict token decoder over r.
func NewDecoder(r io.Reader) *xml.Decoder {
	dec := xml.NewDecoder(NewReader(r))
	dec.Strict = true
	dec.CharsetReader = CharsetReader
	// XXE Protection (CWE-611): only the predefined entities expand.
	dec.Entity = map[string]string{}
	return dec
}

// Document represents a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node represents an XML element.
type Node struct {
	node *xmlquery.Node
}

// Parse reads a whole document.
func Parse(r io.Reader) (*Document, error) {
	root, err := xmlquery.Parse(NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// Root returns the document element, or nil for an empty document.
func (d *Document) Root() *Node {
	for n := d.root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return &Node{node: n}
		}
	}
	return nil
}

// XPath returns the elements matching expr.
func (d *Document) XPath(expr string) ([]*Node, error) {
	return query(d.root, expr)
}

// XPathFirst returns the first element matching expr, or nil.
func (d *Document) XPathFirst(expr string) (*Node, error) {
	nodes, err := query(d.root, expr)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	return nodes[0], nil
}

func query(top *xmlquery.Node, expr string) ([]*Node, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid XPath %q: %w", expr, err)
	}
	found := xmlquery.QuerySelectorAll(top, compiled)
	out := make([]*Node, 0, len(found))
	for _, n := range found {
		out = append(out, &Node{node: n})
	}
	return out, nil
}

// Name returns the local element name.
func (n *Node) Name() string {
	return n.node.Data
}

// Text returns the concatenated text content, trimmed.
func (n *Node) Text() string {
	return strings.TrimSpace(n.node.InnerText())
}

// Children returns the child elements.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, &Node{node: c})
		}
	}
	return out
}

// Child returns the first child element called name, compared
// case-insensitively, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children() {
		if strings.EqualFold(c.Name(), name) {
			return c
		}
	}
	return nil
}

// XPath evaluates expr relative to n.
func (n *Node) XPath(expr string) ([]*Node, error) {
	return query(n.node, expr)
}

// Attr returns the named attribute, or "".
func (n *Node) Attr(name string) string {
	return n.node.SelectAttr(name)
}
