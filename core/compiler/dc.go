package compiler

import (
	"github.com/lzv-nrw/dcm-sip-builder/core/ip"
	"github.com/lzv-nrw/dcm-sip-builder/core/report"
	"github.com/lzv-nrw/dcm-sip-builder/core/xmlns"
	"github.com/lzv-nrw/dcm-sip-builder/core/xmltree"
)

// DCCompiler maps bag-info.txt metadata to the flat dc.xml record.
type DCCompiler struct{}

const dcCompilerTag = "dc.xml Compiler"

// dcRecordMap is the fixed, ordered bag-info.txt to dc.xml mapping.
var dcRecordMap = []mapping{
	{"DC-Title", xmlns.Qualify("title", xmlns.DC)},
	{"DC-Terms-Identifier", xmlns.Qualify("identifier", xmlns.DCTerms)},
	{"Origin-System-Identifier", xmlns.Qualify("externalSystem", xmlns.Rosetta)},
	{"External-Identifier", xmlns.Qualify("externalId", xmlns.Rosetta)},
}

// Tag returns the compiler's diagnostic-log origin.
func (DCCompiler) Tag() string {
	return dcCompilerTag
}

// Compile builds the dc:record element. A missing bag-info.txt yields one
// ERROR entry and an empty record, keeping the pipeline running so the gap
// shows up in the validation report.
func (DCCompiler) Compile(p *ip.IP) (*xmltree.Element, *report.Log) {
	log := report.NewLog(dcCompilerTag)
	record := xmltree.New(
		xmlns.Qualify("record", xmlns.DC),
		xmlns.Declarations(xmlns.DC, xmlns.DCTerms, xmlns.Rosetta),
	)

	if p.BagInfo == nil {
		log.Errorf("Missing 'bag-info.txt' metadata in target.")
		return record, log
	}

	for _, m := range dcRecordMap {
		for _, item := range p.BagInfo[m.key] {
			xmltree.SubText(record, m.tag, item)
		}
	}
	return record, log
}
