// Package xmlns holds the static XML namespace registry shared by all
// metadata compilers. The registry is built once at process start and is
// never mutated afterwards, so it is safe to read from any goroutine.
package xmlns

// Namespace associates a preferred prefix with a namespace URI.
type Namespace struct {
	Prefix string
	URI    string
}

// Registry keys for the namespaces used in compiled documents.
const (
	OAI     = "oai"
	METS    = "mets"
	DC      = "dc"
	DCTerms = "dcterms"
	Rosetta = "rosetta"
	DNX     = "dnx"
	XLink   = "xlink"
)

// registry maps registry keys to namespaces. Keys happen to coincide with
// the preferred prefixes, but lookups always go through the key.
var registry = map[string]Namespace{
	OAI:     {Prefix: "oai", URI: "http://www.openarchives.org/OAI/2.0/"},
	METS:    {Prefix: "mets", URI: "http://www.exlibrisgroup.com/xsd/dps/rosettaMets"},
	DC:      {Prefix: "dc", URI: "http://purl.org/dc/elements/1.1/"},
	DCTerms: {Prefix: "dcterms", URI: "http://purl.org/dc/terms/"},
	Rosetta: {Prefix: "rosetta", URI: "http://www.exlibrisgroup.com/dps"},
	DNX:     {Prefix: "dnx", URI: "http://www.exlibrisgroup.com/dps/dnx"},
	XLink:   {Prefix: "xlink", URI: "http://www.w3.org/1999/xlink"},
}

// Lookup returns the namespace registered under key. The second return
// value reports whether the key is known.
func Lookup(key string) (Namespace, bool) {
	ns, ok := registry[key]
	return ns, ok
}

// URI returns the namespace URI registered under key, or "" for unknown keys.
func URI(key string) string {
	return registry[key].URI
}

// Qualify binds tag to the namespace registered under key and returns the
// Clark-notation qualified name "{uri}tag". The qualified name identifies
// the element independent of whatever prefix a document declares for the
// namespace. Unknown keys return the tag unqualified.
func Qualify(tag, key string) string {
	ns, ok := registry[key]
	if !ok {
		return tag
	}
	return "{" + ns.URI + "}" + tag
}

// Declarations returns the prefix-to-URI declarations for the given registry
// keys, for use as namespace declarations on an emitted element. Unknown keys
// are skipped, so an entirely unknown selection yields an empty map.
func Declarations(keys ...string) map[string]string {
	decls := make(map[string]string, len(keys))
	for _, key := range keys {
		if ns, ok := registry[key]; ok {
			decls[ns.Prefix] = ns.URI
		}
	}
	return decls
}

// PrefixFor returns the preferred prefix for a namespace URI, or "" if the
// URI is not registered.
func PrefixFor(uri string) string {
	for _, ns := range registry {
		if ns.URI == uri {
			return ns.Prefix
		}
	}
	return ""
}
