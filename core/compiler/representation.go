package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lzv-nrw/dcm-sip-builder/core/ip"
)

// File describes a single payload file within a representation.
type File struct {
	// Index is the 1-based position of the file within its representation,
	// assigned after sorting file paths lexicographically.
	Index int
	// Href is the file location relative to the IP root.
	Href string
	// LocType identifies the kind of location Href is.
	LocType string
	// Checksums maps upper-cased algorithm names to hex digests.
	Checksums map[string]string
}

// Representation groups the payload files of one representation of an
// intellectual entity.
type Representation struct {
	// Index is a 1-based counter shared across all representations of one
	// compile call.
	Index int
	// PreservationType names the representation kind, e.g.
	// PRESERVATION_MASTER or MODIFIED_MASTER_02.
	PreservationType string
	UsageType        string
	Files            []File
}

// DeriveRepresentations turns the payload inventory and checksum manifests
// into the ordered representation list: preservation_master first, then
// modified_master representations sorted by name, then derivative_copy
// likewise. Second and later representations of a category get a 2-digit
// suffix (MODIFIED_MASTER, MODIFIED_MASTER_02, ...).
func DeriveRepresentations(
	payload ip.PayloadFiles,
	manifests map[string]map[string]string,
) []Representation {
	var reps []Representation
	index := 0

	if payload.PreservationMaster != nil {
		index++
		reps = append(reps, Representation{
			Index:            index,
			PreservationType: "PRESERVATION_MASTER",
			UsageType:        "VIEW",
			Files:            deriveFiles(payload.PreservationMaster, manifests),
		})
	}
	for _, category := range []struct {
		files map[string][]string
		name  string
	}{
		{payload.ModifiedMaster, "MODIFIED_MASTER"},
		{payload.DerivativeCopy, "DERIVATIVE_COPY"},
	} {
		names := make([]string, 0, len(category.files))
		for name := range category.files {
			names = append(names, name)
		}
		sort.Strings(names)
		for i, name := range names {
			preservationType := category.name
			if i > 0 {
				preservationType = fmt.Sprintf("%s_%02d", category.name, i+1)
			}
			index++
			reps = append(reps, Representation{
				Index:            index,
				PreservationType: preservationType,
				UsageType:        "VIEW",
				Files:            deriveFiles(category.files[name], manifests),
			})
		}
	}
	return reps
}

func deriveFiles(paths []string, manifests map[string]map[string]string) []File {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	files := make([]File, 0, len(sorted))
	for i, path := range sorted {
		files = append(files, File{
			Index:     i + 1,
			Href:      path,
			LocType:   "URL",
			Checksums: checksumsFor(path, manifests),
		})
	}
	return files
}

// checksumsFor collects the digests recorded for path across all manifest
// algorithms. A path absent from an algorithm's manifest contributes no
// entry for that algorithm.
func checksumsFor(path string, manifests map[string]map[string]string) map[string]string {
	checksums := map[string]string{}
	for algorithm, entries := range manifests {
		if digest, ok := entries[path]; ok {
			checksums[strings.ToUpper(algorithm)] = digest
		}
	}
	return checksums
}
