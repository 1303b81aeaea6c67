package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lzv-nrw/dcm-sip-builder/core/ip"
	"github.com/lzv-nrw/dcm-sip-builder/core/report"
	"github.com/lzv-nrw/dcm-sip-builder/core/xmlns"
	"github.com/lzv-nrw/dcm-sip-builder/core/xmltree"
)

// IECompiler aggregates the metadata of an IP and maps it to the Rosetta
// METS document (ie.xml): descriptive metadata, technical/rights/source/
// provenance sections for the intellectual entity, per-representation and
// per-file technical sections, and the file inventory.
type IECompiler struct{}

const ieCompilerTag = "ie.xml Compiler"

// ieRecordMap is the fixed, ordered bag-info.txt to dmdSec mapping.
var ieRecordMap = []mapping{
	{"DC-Terms-Identifier", xmlns.Qualify("identifier", xmlns.DCTerms)},
	{"DC-Creator", xmlns.Qualify("creator", xmlns.DC)},
	{"DC-Title", xmlns.Qualify("title", xmlns.DC)},
	{"DC-Rights", xmlns.Qualify("rights", xmlns.DC)},
	{"DC-Terms-Rights", xmlns.Qualify("rights", xmlns.DCTerms)},
	{"DC-Terms-License", xmlns.Qualify("license", xmlns.DCTerms)},
	{"DC-Terms-Access-Rights", xmlns.Qualify("accessRights", xmlns.DCTerms)},
	{"Embargo-Enddate", xmlns.Qualify("available", xmlns.DCTerms)},
	{"DC-Terms-Rights-Holder", xmlns.Qualify("rightsHolder", xmlns.DCTerms)},
}

// dmdRecordOrder is the canonical element order of the descriptive record.
// Tags not in this list sort after all listed tags.
var dmdRecordOrder = func() map[string]int {
	order := make(map[string]int, len(ieRecordMap))
	for i, m := range ieRecordMap {
		order[m.tag] = i
	}
	return order
}()

// compositeIdentifierKeys are the bag-info.txt keys required to build the
// mandatory dcterms:identifier, in the order they are interpolated.
var compositeIdentifierKeys = [3]string{
	"Source-Organization",
	"Origin-System-Identifier",
	"External-Identifier",
}

// Tag returns the compiler's diagnostic-log origin.
func (IECompiler) Tag() string {
	return ieCompilerTag
}

// Compile builds the mets:mets root element. A missing bag-info.txt yields
// one ERROR entry and an otherwise-empty, still schema-namespaced root so
// that downstream validation reports the gap instead of the pipeline
// crashing.
func (c IECompiler) Compile(p *ip.IP) (*xmltree.Element, *report.Log) {
	log := report.NewLog(ieCompilerTag)
	root := xmltree.New(
		xmlns.Qualify("mets", xmlns.METS),
		xmlns.Declarations(xmlns.METS, xmlns.DC, xmlns.DCTerms, xmlns.OAI),
	)

	if p.BagInfo == nil {
		log.Errorf("Missing 'bag-info.txt' metadata in target.")
		return root, log
	}

	dcRecord := xmltree.FromNode(xmltree.RootElement(p.DCXML))
	sourceRoot := xmltree.FromNode(xmltree.RootElement(p.SourceMetadata))
	root.Append(c.compileDmdSec(p.BagInfo, dcRecord, log))
	root.Append(c.compileIEAmdSec(p.BagInfo, sourceRoot, p.SignificantProperties))

	reps := DeriveRepresentations(p.PayloadFiles, p.Manifests)
	for _, amdSec := range c.compileRepAmdSecs(reps) {
		root.Append(amdSec)
	}
	for _, amdSec := range c.compileFileAmdSecs(reps) {
		root.Append(amdSec)
	}
	root.Append(c.compileFileSec(reps))

	return root, log
}

// mdWrap returns a mets:mdWrap element with the given attributes and child
// nested inside the inner mets:xmlData element.
func mdWrap(child *xmltree.Element, attrs ...xmltree.Attr) *xmltree.Element {
	wrap := &xmltree.Element{Tag: xmlns.Qualify("mdWrap", xmlns.METS)}
	for _, a := range attrs {
		wrap.SetAttr(a.Name, a.Value)
	}
	xmlData := xmltree.Sub(wrap, xmlns.Qualify("xmlData", xmlns.METS))
	if child != nil {
		xmlData.Append(child)
	}
	return wrap
}

// newDNX returns an empty record root in the metadata-extension namespace,
// declared as the default namespace so its plain-named children fall into it.
func newDNX() *xmltree.Element {
	return xmltree.New("dnx", map[string]string{"": xmlns.URI(xmlns.DNX)})
}

// compositeIdentifier builds the mandatory identifier
// "dcm:{Source-Organization}@{Origin-System-Identifier}@{External-Identifier}".
// The missing key, if any, is returned as the error message body.
func compositeIdentifier(baginfo ip.BagInfo) (string, error) {
	values := [3]string{}
	for i, key := range compositeIdentifierKeys {
		value, ok := baginfo.First(key)
		if !ok {
			return "", fmt.Errorf("'%s'", key)
		}
		values[i] = value
	}
	return fmt.Sprintf("dcm:%s@%s@%s", values[0], values[1], values[2]), nil
}

// compileDmdSec generates the mets:dmdSec element from bag-info.txt and the
// optional secondary dc.xml record (its converted root element, or nil).
func (c IECompiler) compileDmdSec(
	baginfo ip.BagInfo,
	dcXML *xmltree.Element,
	log *report.Log,
) *xmltree.Element {
	dmdSec := &xmltree.Element{Tag: xmlns.Qualify("dmdSec", xmlns.METS)}
	dmdSec.SetAttr("ID", "ie-dmd")

	record := &xmltree.Element{Tag: xmlns.Qualify("record", xmlns.DC)}

	identifier, err := compositeIdentifier(baginfo)
	if err != nil {
		log.Errorf("Missing required metadata in 'bag-info.txt': %v.", err)
		return dmdSec
	}
	xmltree.SubText(record, xmlns.Qualify("identifier", xmlns.DCTerms), identifier)

	// bag-info.txt contents take priority over dc.xml; remember what was
	// added so exact duplicates from dc.xml can be suppressed.
	type tagText struct{ tag, text string }
	fromBaginfo := map[tagText]bool{}
	for _, m := range ieRecordMap {
		for _, item := range baginfo[m.key] {
			fromBaginfo[tagText{m.tag, item}] = true
			xmltree.SubText(record, m.tag, item)
		}
	}

	if dcXML != nil {
		for _, element := range dcXML.Children {
			if fromBaginfo[tagText{element.Tag, element.Text}] {
				continue
			}
			record.Append(element)
		}
	}

	dmdSec.Append(mdWrap(record, xmltree.Attr{Name: "MDTYPE", Value: "DC"}))

	// Canonical ordering: position in the fixed record order (unknown tags
	// last), then tag name, then text. This makes the element sequence
	// independent of input order.
	sentinel := len(ieRecordMap)
	sort.SliceStable(record.Children, func(i, j int) bool {
		a, b := record.Children[i], record.Children[j]
		ai, ok := dmdRecordOrder[a.Tag]
		if !ok {
			ai = sentinel
		}
		bi, ok := dmdRecordOrder[b.Tag]
		if !ok {
			bi = sentinel
		}
		if ai != bi {
			return ai < bi
		}
		if a.Tag != b.Tag {
			return a.Tag < b.Tag
		}
		return a.Text < b.Text
	})

	return dmdSec
}

// compileIEAmdSec generates the ie-amd amdSec with its four sub-sections.
func (c IECompiler) compileIEAmdSec(
	baginfo ip.BagInfo,
	sourceMetadata *xmltree.Element,
	significantProperties []ip.SignificantProperty,
) *xmltree.Element {
	amdSec := &xmltree.Element{Tag: xmlns.Qualify("amdSec", xmlns.METS)}
	amdSec.SetAttr("ID", "ie-amd")

	amdSec.Append(c.compileIETechMD(baginfo, significantProperties))
	amdSec.Append(c.compileIERightsMD())
	if sourceMetadata != nil {
		amdSec.Append(c.compileIESourceMD(sourceMetadata))
	}
	amdSec.Append(c.compileIEDigiprovMD())
	return amdSec
}

func (c IECompiler) compileIETechMD(
	baginfo ip.BagInfo,
	significantProperties []ip.SignificantProperty,
) *xmltree.Element {
	dnx := newDNX()

	if level, ok := baginfo.First("Preservation-Level"); ok {
		section := xmltree.Sub(dnx, "section")
		section.SetAttr("id", "preservationLevel")
		record := xmltree.Sub(section, "record")
		key := xmltree.SubText(record, "key", level)
		key.SetAttr("id", "preservationLevelType")
	}

	if significantProperties != nil {
		section := xmltree.Sub(dnx, "section")
		section.SetAttr("id", "significantProperties")
		for _, property := range significantProperties {
			record := xmltree.Sub(section, "record")
			typeKey := xmltree.SubText(record, "key", property.Type)
			typeKey.SetAttr("id", "significantPropertiesType")
			valueKey := xmltree.SubText(record, "key", property.Value)
			valueKey.SetAttr("id", "significantPropertiesValue")
		}
	}

	techMD := &xmltree.Element{Tag: xmlns.Qualify("techMD", xmlns.METS)}
	techMD.SetAttr("ID", "ie-amd-tech")
	techMD.Append(mdWrap(dnx,
		xmltree.Attr{Name: "MDTYPE", Value: "OTHER"},
		xmltree.Attr{Name: "OTHERMDTYPE", Value: "dnx"},
	))
	return techMD
}

func (c IECompiler) compileIERightsMD() *xmltree.Element {
	dnx := newDNX()
	section := xmltree.Sub(dnx, "section")
	section.SetAttr("id", "accessRightsPolicy")

	rightsMD := &xmltree.Element{Tag: xmlns.Qualify("rightsMD", xmlns.METS)}
	rightsMD.SetAttr("ID", "ie-amd-rights")
	rightsMD.Append(mdWrap(dnx,
		xmltree.Attr{Name: "MDTYPE", Value: "OTHER"},
		xmltree.Attr{Name: "OTHERMDTYPE", Value: "dnx"},
	))
	return rightsMD
}

func (c IECompiler) compileIESourceMD(sourceMetadata *xmltree.Element) *xmltree.Element {
	sourceMD := &xmltree.Element{Tag: xmlns.Qualify("sourceMD", xmlns.METS)}
	sourceMD.SetAttr("ID", "ie-amd-source-OTHER")
	sourceMD.Append(mdWrap(sourceMetadata,
		xmltree.Attr{Name: "MDTYPE", Value: "OTHER"},
		xmltree.Attr{Name: "OTHERMDTYPE", Value: "Text"},
	))
	return sourceMD
}

func (c IECompiler) compileIEDigiprovMD() *xmltree.Element {
	digiprovMD := &xmltree.Element{Tag: xmlns.Qualify("digiprovMD", xmlns.METS)}
	digiprovMD.SetAttr("ID", "ie-amd-digiprov")
	digiprovMD.Append(mdWrap(newDNX(),
		xmltree.Attr{Name: "MDTYPE", Value: "OTHER"},
		xmltree.Attr{Name: "OTHERMDTYPE", Value: "dnx"},
	))
	return digiprovMD
}

// compileRepAmdSecs generates one repN-amd amdSec per representation.
func (c IECompiler) compileRepAmdSecs(reps []Representation) []*xmltree.Element {
	amdSecs := make([]*xmltree.Element, 0, len(reps))
	for _, rep := range reps {
		dnx := newDNX()
		section := xmltree.Sub(dnx, "section")
		section.SetAttr("id", "generalRepCharacteristics")
		record := xmltree.Sub(section, "record")
		preservationType := xmltree.SubText(record, "key", rep.PreservationType)
		preservationType.SetAttr("id", "preservationType")
		usageType := xmltree.SubText(record, "key", rep.UsageType)
		usageType.SetAttr("id", "usageType")

		amdSec := &xmltree.Element{Tag: xmlns.Qualify("amdSec", xmlns.METS)}
		amdSec.SetAttr("ID", fmt.Sprintf("rep%d-amd", rep.Index))
		techMD := xmltree.Sub(amdSec, xmlns.Qualify("techMD", xmlns.METS))
		techMD.SetAttr("ID", fmt.Sprintf("rep%d-amd-tech", rep.Index))
		techMD.Append(mdWrap(dnx,
			xmltree.Attr{Name: "MDTYPE", Value: "OTHER"},
			xmltree.Attr{Name: "OTHERMDTYPE", Value: "dnx"},
		))
		amdSecs = append(amdSecs, amdSec)
	}
	return amdSecs
}

// compileFileAmdSecs generates one fidN-M-amd amdSec per payload file,
// carrying one fixity record per checksum algorithm.
func (c IECompiler) compileFileAmdSecs(reps []Representation) []*xmltree.Element {
	var amdSecs []*xmltree.Element
	for _, rep := range reps {
		for _, file := range rep.Files {
			dnx := newDNX()
			section := xmltree.Sub(dnx, "section")
			section.SetAttr("id", "fileFixity")
			for _, algorithm := range sortedKeys(file.Checksums) {
				record := xmltree.Sub(section, "record")
				fixityType := xmltree.SubText(record, "key", algorithm)
				fixityType.SetAttr("id", "fixityType")
				fixityValue := xmltree.SubText(record, "key", file.Checksums[algorithm])
				fixityValue.SetAttr("id", "fixityValue")
			}

			amdSec := &xmltree.Element{Tag: xmlns.Qualify("amdSec", xmlns.METS)}
			amdSec.SetAttr("ID", fmt.Sprintf("fid%d-%d-amd", rep.Index, file.Index))
			techMD := xmltree.Sub(amdSec, xmlns.Qualify("techMD", xmlns.METS))
			techMD.SetAttr("ID", fmt.Sprintf("fid%d-%d-amd-tech", rep.Index, file.Index))
			techMD.Append(mdWrap(dnx,
				xmltree.Attr{Name: "MDTYPE", Value: "OTHER"},
				xmltree.Attr{Name: "OTHERMDTYPE", Value: "dnx"},
			))
			amdSecs = append(amdSecs, amdSec)
		}
	}
	return amdSecs
}

// compileFileSec generates the mets:fileSec inventory: one fileGrp per
// representation referencing its repN-amd section, one file entry per
// payload file referencing its fidN-M-amd section. Location hrefs are
// payload-relative: the leading IP-root path segment is stripped.
func (c IECompiler) compileFileSec(reps []Representation) *xmltree.Element {
	fileSec := &xmltree.Element{Tag: xmlns.Qualify("fileSec", xmlns.METS)}

	for _, rep := range reps {
		fileGrp := xmltree.Sub(fileSec, xmlns.Qualify("fileGrp", xmlns.METS))
		fileGrp.SetAttr("USE", rep.UsageType)
		fileGrp.SetAttr("ID", fmt.Sprintf("rep%d", rep.Index))
		fileGrp.SetAttr("ADMID", fmt.Sprintf("rep%d-amd", rep.Index))

		for _, file := range rep.Files {
			fileElement := xmltree.Sub(fileGrp, xmlns.Qualify("file", xmlns.METS))
			fileElement.SetAttr("ID", fmt.Sprintf("fid%d-%d", rep.Index, file.Index))
			fileElement.SetAttr("ADMID", fmt.Sprintf("fid%d-%d-amd", rep.Index, file.Index))

			location := xmltree.Sub(fileElement, xmlns.Qualify("FLocat", xmlns.METS))
			location.Declare("xlink", xmlns.URI(xmlns.XLink))
			location.SetAttr("LOCTYPE", file.LocType)
			location.SetAttr(xmlns.Qualify("href", xmlns.XLink), stripRootSegment(file.Href))
		}
	}
	return fileSec
}

// stripRootSegment removes the first path segment, turning an IP-relative
// path like "data/preservation_master/a.tiff" into a payload-relative one.
func stripRootSegment(path string) string {
	if _, rest, found := strings.Cut(path, "/"); found {
		return rest
	}
	return path
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
