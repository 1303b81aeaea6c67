// Package encoding provides shared text escaping utilities for XML output.
package encoding

import "strings"

// EscapeXMLText escapes the basic XML entities for text content.
func EscapeXMLText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// EscapeXMLAttr escapes text for use in XML attributes.
// Includes quote escaping in addition to basic XML entities.
func EscapeXMLAttr(s string) string {
	s = EscapeXMLText(s)
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// FlattenMultiline strips per-line leading and trailing whitespace and joins
// all lines into one, for single-line renderings of XML fragments in logs.
func FlattenMultiline(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "")
}
