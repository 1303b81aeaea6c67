// Package xmltree provides the element tree the metadata compilers build
// their output documents from. Element names use Clark notation
// ("{namespace-uri}local"), so an element's identity is independent of the
// prefix a document declares for its namespace. Serialization resolves
// prefixes from in-scope namespace declarations, falling back to the
// process-wide registry in package xmlns.
package xmltree

import (
	"sort"
	"strconv"
	"strings"

	"github.com/lzv-nrw/dcm-sip-builder/core/encoding"
	"github.com/lzv-nrw/dcm-sip-builder/core/xmlns"
)

// Header is the XML declaration every produced document starts with.
const Header = `<?xml version="1.0" encoding="UTF-8"?>`

// Indent is the indentation unit used by pretty-printed output.
const Indent = "  "

// Attr is a single element attribute. Name may be a plain name or a
// Clark-notation qualified name.
type Attr struct {
	Name  string
	Value string
}

// Decl is a namespace declaration. An empty prefix declares the default
// namespace.
type Decl struct {
	Prefix string
	URI    string
}

// Element is a node of the output document tree.
type Element struct {
	Tag      string // plain or Clark-notation qualified name
	Attrs    []Attr // serialized in insertion order
	Decls    []Decl // namespace declarations on this element
	Text     string
	Children []*Element
}

// New returns an element with the given tag and namespace declarations.
// Declarations are emitted default-first, then sorted by prefix, so output
// is deterministic regardless of map iteration order.
func New(tag string, decls map[string]string) *Element {
	e := &Element{Tag: tag}
	if len(decls) == 0 {
		return e
	}
	prefixes := make([]string, 0, len(decls))
	for p := range decls {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	for _, p := range prefixes {
		e.Decls = append(e.Decls, Decl{Prefix: p, URI: decls[p]})
	}
	return e
}

// Sub creates a child element with the given tag, appends it and returns it.
func Sub(parent *Element, tag string) *Element {
	child := &Element{Tag: tag}
	parent.Children = append(parent.Children, child)
	return child
}

// SubText creates a child element carrying text content.
func SubText(parent *Element, tag, text string) *Element {
	child := Sub(parent, tag)
	child.Text = text
	return child
}

// Append adds an existing element as the last child.
func (e *Element) Append(child *Element) {
	e.Children = append(e.Children, child)
}

// SetAttr appends an attribute, preserving insertion order. Setting the
// same name twice overwrites the earlier value in place.
func (e *Element) SetAttr(name, value string) {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			e.Attrs[i].Value = value
			return
		}
	}
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
}

// Declare adds a namespace declaration to the element.
func (e *Element) Declare(prefix, uri string) {
	for i := range e.Decls {
		if e.Decls[i].Prefix == prefix {
			e.Decls[i].URI = uri
			return
		}
	}
	e.Decls = append(e.Decls, Decl{Prefix: prefix, URI: uri})
}

// SplitClark splits a Clark-notation name into namespace URI and local part.
// Plain names yield an empty URI.
func SplitClark(name string) (uri, local string) {
	if strings.HasPrefix(name, "{") {
		if end := strings.Index(name, "}"); end > 0 {
			return name[1:end], name[end+1:]
		}
	}
	return "", name
}

// Clark builds a Clark-notation name from a namespace URI and local part.
// An empty URI yields the plain local name.
func Clark(uri, local string) string {
	if uri == "" {
		return local
	}
	return "{" + uri + "}" + local
}

// ToString serializes the element as a pretty-printed UTF-8 document with
// leading XML declaration. Child elements are indented one level per depth,
// one per line. The same tree always serializes to the same bytes.
func ToString(root *Element) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteString("\n")
	writeElement(&b, root, 0, scope{})
	return b.String()
}

// scope tracks in-scope namespace declarations during serialization.
type scope struct {
	byURI    map[string]string // uri -> prefix (latest declaration wins)
	byPrefix map[string]string // prefix -> uri
}

func (s scope) with(decls []Decl) scope {
	if len(decls) == 0 {
		return s
	}
	next := scope{
		byURI:    make(map[string]string, len(s.byURI)+len(decls)),
		byPrefix: make(map[string]string, len(s.byPrefix)+len(decls)),
	}
	for k, v := range s.byURI {
		next.byURI[k] = v
	}
	for k, v := range s.byPrefix {
		next.byPrefix[k] = v
	}
	for _, d := range decls {
		next.byURI[d.URI] = d.Prefix
		next.byPrefix[d.Prefix] = d.URI
	}
	return next
}

func writeElement(b *strings.Builder, e *Element, depth int, sc scope) {
	// Resolve prefixes before emitting the open tag: an element whose
	// namespace is not in scope declares it on itself, mirroring how parsed
	// fragments keep their namespaces when grafted into a new document.
	decls := make([]Decl, len(e.Decls))
	copy(decls, e.Decls)
	sc = sc.with(decls)

	name, extra := resolveName(e.Tag, &sc, false)
	decls = append(decls, extra...)

	var attrs []string
	for _, a := range e.Attrs {
		attrName, more := resolveName(a.Name, &sc, true)
		decls = append(decls, more...)
		attrs = append(attrs, attrName+`="`+encoding.EscapeXMLAttr(a.Value)+`"`)
	}

	writeIndent(b, depth)
	b.WriteString("<")
	b.WriteString(name)
	for _, d := range decls {
		if d.Prefix == "" {
			b.WriteString(` xmlns="` + encoding.EscapeXMLAttr(d.URI) + `"`)
		} else {
			b.WriteString(` xmlns:` + d.Prefix + `="` + encoding.EscapeXMLAttr(d.URI) + `"`)
		}
	}
	for _, a := range attrs {
		b.WriteString(" ")
		b.WriteString(a)
	}

	switch {
	case len(e.Children) == 0 && e.Text == "":
		b.WriteString("/>\n")
	case len(e.Children) == 0:
		b.WriteString(">")
		b.WriteString(encoding.EscapeXMLText(e.Text))
		b.WriteString("</" + name + ">\n")
	default:
		b.WriteString(">")
		if e.Text != "" {
			b.WriteString(encoding.EscapeXMLText(e.Text))
		}
		b.WriteString("\n")
		for _, child := range e.Children {
			writeElement(b, child, depth+1, sc)
		}
		writeIndent(b, depth)
		b.WriteString("</" + name + ">\n")
	}
}

// resolveName turns a possibly Clark-qualified name into a prefixed XML name
// under the given scope. If the namespace has no in-scope declaration, the
// registry prefix is used and returned as an additional declaration for the
// current element. Attributes never use the default namespace.
func resolveName(name string, sc *scope, isAttr bool) (string, []Decl) {
	uri, local := SplitClark(name)
	if uri == "" {
		return local, nil
	}
	if prefix, ok := sc.byURI[uri]; ok {
		if prefix == "" {
			if !isAttr {
				return local, nil
			}
		} else {
			return prefix + ":" + local, nil
		}
	}
	prefix := xmlns.PrefixFor(uri)
	if prefix == "" {
		prefix = freshPrefix(sc)
	}
	*sc = sc.with([]Decl{{Prefix: prefix, URI: uri}})
	return prefix + ":" + local, []Decl{{Prefix: prefix, URI: uri}}
}

func freshPrefix(sc *scope) string {
	for i := 0; ; i++ {
		p := "ns" + strconv.Itoa(i)
		if _, taken := sc.byPrefix[p]; !taken {
			return p
		}
	}
}

func writeIndent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString(Indent)
	}
}
