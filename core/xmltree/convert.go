package xmltree

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// FromNode converts a parsed element node into an Element subtree. Element
// and attribute names become Clark-notation qualified names, so fragments
// from parsed documents compare and merge cleanly with compiler-built
// elements. Namespace declaration attributes are dropped; the serializer
// re-declares namespaces where needed. Whitespace-only text is discarded,
// matching how the compilers treat pretty-printed input.
func FromNode(n *xmlquery.Node) *Element {
	if n == nil || n.Type != xmlquery.ElementNode {
		return nil
	}
	e := &Element{Tag: Clark(n.NamespaceURI, n.Data)}
	for _, attr := range n.Attr {
		if attr.Name.Space == "xmlns" || (attr.Name.Space == "" && attr.Name.Local == "xmlns") {
			continue
		}
		e.SetAttr(Clark(attr.NamespaceURI, attr.Name.Local), attr.Value)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		switch child.Type {
		case xmlquery.ElementNode:
			e.Append(FromNode(child))
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if strings.TrimSpace(child.Data) != "" {
				e.Text += strings.TrimSpace(child.Data)
			}
		}
	}
	return e
}

// RootElement returns the first element child of a parsed document node,
// or nil if the document has none.
func RootElement(doc *xmlquery.Node) *xmlquery.Node {
	if doc == nil {
		return nil
	}
	for child := doc.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return child
		}
	}
	return nil
}
