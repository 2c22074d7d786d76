// Package encoding provides shared text encoding and escaping utilities.
package encoding

import "strings"

var (
	xmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)

	xmlUnescaper = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
	)
)

// EscapeXML escapes the five predefined XML entities (& < > " ').
// It is used for both element content and attribute values so that
// written files read back identically.
func EscapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// UnescapeXML reverses EscapeXML. Other entity or character references
// are left untouched.
func UnescapeXML(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return xmlUnescaper.Replace(s)
}

// EscapeXMLText escapes only the basic XML entities for text content.
// This is a lighter-weight alternative to EscapeXML.
func EscapeXMLText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// TrimTrailingNewlines removes any run of trailing line breaks (and the
// blanks on those empty lines) while keeping inner blank lines.
func TrimTrailingNewlines(s string) string {
	end := len(s)
	for end > 0 {
		i := strings.LastIndexAny(s[:end], "\n\r")
		if i < 0 || strings.TrimLeft(s[i+1:end], " \t") != "" {
			break
		}
		end = i
	}
	return s[:end]
}
