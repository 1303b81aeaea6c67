// Package validator validates XML documents against an XSD schema and
// reports violations as diagnostic log entries. Schema loading supports a
// two-tier primary/fallback protocol, see FromConfig.
package validator

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/lzv-nrw/dcm-sip-builder/core/encoding"
	"github.com/lzv-nrw/dcm-sip-builder/core/report"
)

const validatorTag = "XML Schema Validator"

// nameLimit caps auto-generated schema and document names in log entries.
const nameLimit = 50

// LoadError marks a schema source that could not be retrieved or compiled.
// The distinct type lets callers tell a broken schema source apart from
// other configuration errors and react by loading a fallback schema.
type LoadError struct {
	Schema string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("unable to load schema '%s' (%v)", e.Schema, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Validator validates XML documents against a fixed schema. Loading a
// schema is comparatively expensive; a Validator is read-only after New
// and meant to be reused across many Validate calls.
type Validator struct {
	Name   string
	engine *engine
}

// New builds a Validator from a schema source: inline document text (first
// non-space character is '<'), an http(s) URL, or a file path. version
// selects the XML schema language version, "1.0" or "1.1"; anything else
// is a configuration error. name identifies the schema in log entries and
// defaults to a flattened excerpt of the source.
func New(schema, version, name string) (*Validator, error) {
	switch version {
	case "", "1.0", "1.1":
	default:
		return nil, fmt.Errorf("unknown XML schema version '%s'", version)
	}
	// Load failures identify the schema by the caller's name or, absent
	// one, the untruncated source reference.
	reference := name
	if reference == "" {
		reference = schema
	}
	if name == "" {
		name = generateName(schema)
	}
	source, err := resolveSource(schema)
	if err != nil {
		return nil, &LoadError{Schema: reference, Err: err}
	}
	eng, err := compileSchema(source)
	if err != nil {
		return nil, &LoadError{Schema: reference, Err: err}
	}
	return &Validator{Name: name, engine: eng}, nil
}

// IsValid reports whether the document conforms to the schema. Malformed
// input yields false, never a panic or error.
func (v *Validator) IsValid(document string) bool {
	source, err := resolveSource(document)
	if err != nil {
		return false
	}
	violations, err := v.engine.validate(source)
	return err == nil && len(violations) == 0
}

// Validate checks the document against the schema and returns a diagnostic
// log: one ERROR entry per schema violation, carrying the offending
// element's path and its flattened fragment when the engine reports a
// path, or exactly one ERROR entry if the document is not well-formed,
// always followed by one INFO entry summarizing the VALID/INVALID outcome.
// name identifies the document in the log and defaults to a flattened
// excerpt of its content.
func (v *Validator) Validate(document, name string) *report.Log {
	log := report.NewLog(validatorTag)
	if name == "" {
		name = generateName(document)
	}

	source, err := resolveSource(document)
	if err == nil {
		var violations []violation
		violations, err = v.engine.validate(source)
		var doc *xmlquery.Node
		if len(violations) > 0 {
			// The engine accepted the document as well-formed, so a
			// parse failure here just degrades fragments to "-".
			doc, _ = xmlquery.Parse(bytes.NewReader(source))
		}
		for _, violation := range violations {
			path := violation.Path
			if path == "" {
				path = "-"
			}
			log.Errorf(
				"%s (%s; XPath: %s; XSD: %s; XML: %s).",
				violation.Reason, violation.Kind, path, "-",
				fragmentAt(doc, violation.Path),
			)
		}
	}
	if err != nil {
		log.Errorf("Malformed XML, unable to continue (%v).", err)
	}

	result := "VALID"
	if log.HasErrors() {
		result = "INVALID"
	}
	log.Infof("Validation of '%s' with schema '%s' returns %s.", name, v.Name, result)
	return log
}

// generateName derives a log identifier from a schema or document source:
// the flattened content, truncated to nameLimit characters with a ".."
// marker.
func generateName(base string) string {
	flat := encoding.FlattenMultiline(base)
	if len(flat) < nameLimit {
		return flat
	}
	return flat[:nameLimit] + ".."
}

// fragmentAt renders the element a violation points at as a flattened
// single-line XML fragment. Violations without a resolvable element path
// render as "-".
func fragmentAt(doc *xmlquery.Node, path string) string {
	if doc == nil || path == "" {
		return "-"
	}
	node, err := xmlquery.Query(doc, path)
	if err != nil || node == nil {
		return "-"
	}
	return encoding.FlattenMultiline(node.OutputXML(true))
}

// resolveSource fetches the bytes behind a schema or document reference:
// inline text, an http(s) URL, or a file path.
func resolveSource(source string) ([]byte, error) {
	if strings.HasPrefix(strings.TrimSpace(source), "<") {
		return []byte(source), nil
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		resp, err := http.Get(source)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("GET %s: %s", source, resp.Status)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(source)
}
