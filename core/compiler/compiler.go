// Package compiler implements the metadata compilers that map an
// Information Package's metadata into the two SIP documents: the flat
// Dublin-Core record (dc.xml) and the hierarchical Rosetta-METS document
// (ie.xml).
//
// Compilers never fail hard on incomplete metadata. They log ERROR entries
// and return the largest well-formed document they could build, so later
// pipeline stages (schema validation in particular) can report the gaps.
package compiler

import (
	"github.com/lzv-nrw/dcm-sip-builder/core/ip"
	"github.com/lzv-nrw/dcm-sip-builder/core/report"
	"github.com/lzv-nrw/dcm-sip-builder/core/xmltree"
)

// Compiler maps an IP's metadata to one XML output document. Each call
// returns a fresh diagnostic log; implementations hold no per-call state.
type Compiler interface {
	// Tag is the verbose name used as the diagnostic-log origin.
	Tag() string
	// Compile performs the metadata mapping.
	Compile(p *ip.IP) (*xmltree.Element, *report.Log)
}

// CompileToString runs c and serializes the result as a pretty-printed
// UTF-8 document string.
func CompileToString(c Compiler, p *ip.IP) (string, *report.Log) {
	element, log := c.Compile(p)
	return xmltree.ToString(element), log
}

// mapping pairs a bag-info.txt key with its qualified output tag. The
// compilers iterate mapping tables in fixed order, so output element order
// never depends on input key order.
type mapping struct {
	key string
	tag string
}
