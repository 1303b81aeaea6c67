package compiler

import (
	"testing"

	"github.com/lzv-nrw/dcm-sip-builder/core/ip"
)

func TestDeriveRepresentationsOrdering(t *testing.T) {
	payload := ip.PayloadFiles{
		PreservationMaster: []string{
			"data/preservation_master/b.tiff",
			"data/preservation_master/a.tiff",
		},
		ModifiedMaster: map[string][]string{
			"2": {"data/modified_master/2/x.jpg"},
			"1": {"data/modified_master/1/y.jpg"},
		},
		DerivativeCopy: map[string][]string{
			"1": {"data/derivative_copy/1/z.png"},
		},
	}

	reps := DeriveRepresentations(payload, nil)
	if len(reps) != 4 {
		t.Fatalf("expected 4 representations, got %d", len(reps))
	}
	wantTypes := []string{
		"PRESERVATION_MASTER",
		"MODIFIED_MASTER",
		"MODIFIED_MASTER_02",
		"DERIVATIVE_COPY",
	}
	for i, rep := range reps {
		if rep.Index != i+1 {
			t.Errorf("rep %d index = %d, want %d", i, rep.Index, i+1)
		}
		if rep.PreservationType != wantTypes[i] {
			t.Errorf("rep %d type = %q, want %q", i, rep.PreservationType, wantTypes[i])
		}
		if rep.UsageType != "VIEW" {
			t.Errorf("rep %d usage type = %q", i, rep.UsageType)
		}
	}
}

func TestDeriveRepresentationsFileOrdering(t *testing.T) {
	payload := ip.PayloadFiles{
		PreservationMaster: []string{
			"data/preservation_master/c.tiff",
			"data/preservation_master/a.tiff",
			"data/preservation_master/b.tiff",
		},
	}

	reps := DeriveRepresentations(payload, nil)
	files := reps[0].Files
	if len(files) != 3 {
		t.Fatalf("expected 3 files, got %d", len(files))
	}
	wantHrefs := []string{
		"data/preservation_master/a.tiff",
		"data/preservation_master/b.tiff",
		"data/preservation_master/c.tiff",
	}
	for i, f := range files {
		if f.Index != i+1 {
			t.Errorf("file %d index = %d", i, f.Index)
		}
		if f.Href != wantHrefs[i] {
			t.Errorf("file %d href = %q, want %q", i, f.Href, wantHrefs[i])
		}
		if f.LocType != "URL" {
			t.Errorf("file %d loctype = %q", i, f.LocType)
		}
	}
}

func TestDeriveRepresentationsChecksums(t *testing.T) {
	payload := ip.PayloadFiles{
		PreservationMaster: []string{"data/preservation_master/a.tiff"},
	}
	manifests := map[string]map[string]string{
		"md5":    {"data/preservation_master/a.tiff": "aaa"},
		"sha256": {"data/preservation_master/a.tiff": "bbb"},
		"sha512": {"data/other.bin": "ccc"}, // not this file
	}

	reps := DeriveRepresentations(payload, manifests)
	checksums := reps[0].Files[0].Checksums
	if len(checksums) != 2 {
		t.Fatalf("expected 2 checksums, got %v", checksums)
	}
	// Algorithm names are upper-cased.
	if checksums["MD5"] != "aaa" || checksums["SHA256"] != "bbb" {
		t.Errorf("checksums = %v", checksums)
	}
	if _, ok := checksums["SHA512"]; ok {
		t.Error("absent manifest entry must not contribute a checksum")
	}
}

func TestDeriveRepresentationsAbsentCategories(t *testing.T) {
	reps := DeriveRepresentations(ip.PayloadFiles{}, nil)
	if len(reps) != 0 {
		t.Errorf("all-absent payload should yield no representations, got %d", len(reps))
	}

	// An empty (but present) preservation master still claims index 1.
	reps = DeriveRepresentations(ip.PayloadFiles{
		PreservationMaster: []string{},
		DerivativeCopy:     map[string][]string{"only": {"data/derivative_copy/only/a.png"}},
	}, nil)
	if len(reps) != 2 {
		t.Fatalf("expected 2 representations, got %d", len(reps))
	}
	if reps[0].PreservationType != "PRESERVATION_MASTER" || len(reps[0].Files) != 0 {
		t.Errorf("rep 1 = %+v", reps[0])
	}
	if reps[1].Index != 2 || reps[1].PreservationType != "DERIVATIVE_COPY" {
		t.Errorf("rep 2 = %+v", reps[1])
	}

	// A fully absent preservation-master category yields no representation
	// for it; index 1 goes to the next category.
	reps = DeriveRepresentations(ip.PayloadFiles{
		ModifiedMaster: map[string][]string{"only": {"data/modified_master/only/a.jpg"}},
	}, nil)
	if len(reps) != 1 {
		t.Fatalf("expected 1 representation, got %d", len(reps))
	}
	if reps[0].Index != 1 || reps[0].PreservationType != "MODIFIED_MASTER" {
		t.Errorf("rep 1 = %+v", reps[0])
	}
}

func TestDeriveRepresentationsSuffixNumbering(t *testing.T) {
	payload := ip.PayloadFiles{
		ModifiedMaster: map[string][]string{
			"a": {}, "b": {}, "c": {}, "d": {}, "e": {}, "f": {}, "g": {},
			"h": {}, "i": {}, "j": {},
		},
	}
	reps := DeriveRepresentations(payload, nil)
	if len(reps) != 10 {
		t.Fatalf("expected 10 representations, got %d", len(reps))
	}
	if reps[0].PreservationType != "MODIFIED_MASTER" {
		t.Errorf("first type = %q", reps[0].PreservationType)
	}
	if reps[1].PreservationType != "MODIFIED_MASTER_02" {
		t.Errorf("second type = %q", reps[1].PreservationType)
	}
	if reps[9].PreservationType != "MODIFIED_MASTER_10" {
		t.Errorf("tenth type = %q", reps[9].PreservationType)
	}
}
