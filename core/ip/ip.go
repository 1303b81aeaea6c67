// Package ip loads an Information Package (IP) from disk into the
// structured form the metadata compilers consume: the bag-info.txt
// key/value metadata, checksum manifests, the payload file inventory and
// the optional metadata XML documents.
package ip

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/lzv-nrw/dcm-sip-builder/core/report"
)

// Well-known paths inside an IP directory.
const (
	PathBagInfo               = "bag-info.txt"
	ManifestPrefix            = "manifest"
	PathPayload               = "data"
	PathDCXML                 = "meta/dc.xml"
	PathSignificantProperties = "meta/significant_properties.xml"
	PathEvents                = "meta/events.xml"
	PathSourceMetadata        = "meta/source_metadata.xml"
)

// premisNamespace is the namespace of significant-properties metadata.
const premisNamespace = "http://www.loc.gov/premis/v3"

// BagInfo maps bag-info.txt keys to their values. Keys that occur more than
// once in the file accumulate their values in encounter order.
type BagInfo map[string][]string

// First returns the first value recorded for key.
func (b BagInfo) First(key string) (string, bool) {
	values, ok := b[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// PayloadFiles describes the payload directory tree, split into the three
// payload categories. A nil field means the category directory is absent.
type PayloadFiles struct {
	PreservationMaster []string
	ModifiedMaster     map[string][]string
	DerivativeCopy     map[string][]string
}

// SignificantProperty is one type/value pair extracted from
// significant_properties.xml.
type SignificantProperty struct {
	Type  string
	Value string
}

// IP is the read-only input model of one Information Package. Loading never
// fails hard: problems are recorded in the diagnostic log and the affected
// field is left nil, so compilers can still run and report the gaps.
type IP struct {
	Path string

	// BagInfo is nil when bag-info.txt could not be loaded.
	BagInfo BagInfo
	// Manifests maps checksum algorithm names to path->digest mappings.
	// Nil when no manifest file was found.
	Manifests map[string]map[string]string
	// PayloadFiles lists payload paths relative to the IP root.
	PayloadFiles PayloadFiles
	// Optional pre-parsed metadata documents, nil when absent.
	DCXML          *xmlquery.Node
	SourceMetadata *xmlquery.Node
	Events         *xmlquery.Node
	// SignificantProperties is nil when significant_properties.xml is
	// absent; present but empty when the file carries no properties.
	SignificantProperties []SignificantProperty

	log *report.Log
}

// Load reads the IP at path. Diagnostics are available via Log; Complete
// reports whether all required metadata loaded.
func Load(path string) *IP {
	p := &IP{
		Path: path,
		log:  report.NewLog(fmt.Sprintf("IP Object %s", path)),
	}
	p.BagInfo = p.loadBagInfo()
	p.Manifests = p.loadManifests(ManifestPrefix)
	p.SourceMetadata = p.loadXML(PathSourceMetadata)
	p.DCXML = p.loadXML(PathDCXML)
	p.SignificantProperties = loadSignificantProperties(p.loadXML(PathSignificantProperties))
	p.Events = p.loadXML(PathEvents)
	p.PayloadFiles = p.loadPayloadFiles()
	return p
}

// Log returns the diagnostics collected while loading.
func (p *IP) Log() *report.Log {
	return p.log
}

// Complete reports whether all required metadata could be loaded.
func (p *IP) Complete() bool {
	return !p.log.HasErrors()
}

func (p *IP) loadBagInfo() BagInfo {
	path := filepath.Join(p.Path, PathBagInfo)
	f, err := os.Open(path)
	if err != nil {
		p.log.Errorf("Unable to load file '%s': %v.", path, err)
		return nil
	}
	defer f.Close()

	info := BagInfo{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || !strings.Contains(line, ":") {
			continue
		}
		key, value, _ := strings.Cut(line, ":")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		info[key] = append(info[key], value)
	}
	if err := scanner.Err(); err != nil {
		p.log.Errorf("Unable to load file '%s': %v.", path, err)
		return nil
	}
	return info
}

// loadManifests reads every "<prefix>-<algorithm>.txt" file in the IP root.
// Each line carries a digest and a path separated by whitespace.
func (p *IP) loadManifests(prefix string) map[string]map[string]string {
	matches, err := filepath.Glob(filepath.Join(p.Path, prefix+"-*.txt"))
	if err != nil || len(matches) == 0 {
		p.log.Errorf("No file with prefix '%s' found.", prefix)
		return nil
	}
	sort.Strings(matches)

	manifests := make(map[string]map[string]string, len(matches))
	for _, match := range matches {
		name := filepath.Base(match)
		algorithm := strings.TrimSuffix(strings.TrimPrefix(name, prefix+"-"), ".txt")
		data, err := os.ReadFile(match)
		if err != nil {
			p.log.Errorf("Unable to load file '%s': %v.", match, err)
			return nil
		}
		entries := map[string]string{}
		for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			digest := fields[0]
			path := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), digest))
			entries[path] = digest
		}
		manifests[algorithm] = entries
	}
	return manifests
}

func (p *IP) loadXML(relPath string) *xmlquery.Node {
	path := filepath.Join(p.Path, filepath.FromSlash(relPath))
	f, err := os.Open(path)
	if err != nil {
		// Optional file; absence is not an error.
		return nil
	}
	defer f.Close()

	doc, err := xmlquery.Parse(f)
	if err != nil {
		p.log.Errorf("Unable to load XML from '%s': %v.", relPath, err)
		return nil
	}
	return doc
}

func (p *IP) loadPayloadFiles() PayloadFiles {
	payload := PayloadFiles{
		PreservationMaster: p.listFiles(filepath.Join(p.Path, PathPayload, "preservation_master")),
	}

	for _, category := range []string{"modified_master", "derivative_copy"} {
		dir := filepath.Join(p.Path, PathPayload, category)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		reps := map[string][]string{}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			reps[entry.Name()] = p.listFiles(filepath.Join(dir, entry.Name()))
		}
		switch category {
		case "modified_master":
			payload.ModifiedMaster = reps
		case "derivative_copy":
			payload.DerivativeCopy = reps
		}
	}
	return payload
}

// listFiles returns all regular files below dir, as slash-separated paths
// relative to the IP root. A missing directory yields nil, which marks the
// payload category as absent rather than empty.
func (p *IP) listFiles(dir string) []string {
	if _, err := os.Stat(dir); err != nil {
		return nil
	}
	files := []string{}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(p.Path, path)
		if err != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	return files
}

// significantPropertiesQuery selects the PREMIS significantProperties
// records regardless of the prefix the document declares.
var significantPropertiesQuery = xpath.MustCompile(
	"//*[local-name()='significantProperties' and namespace-uri()='" +
		premisNamespace + "']",
)

// loadSignificantProperties extracts the type/value pairs from a parsed
// significant_properties.xml document. Pairs keep document order.
func loadSignificantProperties(doc *xmlquery.Node) []SignificantProperty {
	if doc == nil {
		return nil
	}
	properties := []SignificantProperty{}
	for _, node := range xmlquery.QuerySelectorAll(doc, significantPropertiesQuery) {
		typeNode := findChild(node, premisNamespace, "significantPropertiesType")
		valueNode := findChild(node, premisNamespace, "significantPropertiesValue")
		if typeNode == nil || valueNode == nil {
			continue
		}
		properties = append(properties, SignificantProperty{
			Type:  typeNode.InnerText(),
			Value: valueNode.InnerText(),
		})
	}
	return properties
}

func findChild(parent *xmlquery.Node, namespace, local string) *xmlquery.Node {
	if parent == nil {
		return nil
	}
	for child := parent.FirstChild; child != nil; child = child.NextSibling {
		if isElement(child, namespace, local) {
			return child
		}
	}
	return nil
}

func isElement(n *xmlquery.Node, namespace, local string) bool {
	return n.Type == xmlquery.ElementNode && n.NamespaceURI == namespace && n.Data == local
}
