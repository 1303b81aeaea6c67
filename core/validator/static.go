package validator

import _ "embed"

// DefaultDCSchema is the bundled schema for dc.xml documents, used when no
// schema source is configured.
//
//go:embed static/dc.xsd
var DefaultDCSchema string
