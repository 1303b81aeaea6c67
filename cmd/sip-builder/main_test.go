package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/lzv-nrw/dcm-sip-builder/core/report"
	"github.com/lzv-nrw/dcm-sip-builder/internal/logging"
)

// writeIP lays out a complete minimal IP directory.
func writeIP(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "ip")
	if err := os.MkdirAll(filepath.Join(dir, "data", "preservation_master"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"bag-info.txt": "Source-Organization: org\n" +
			"Origin-System-Identifier: osi\n" +
			"External-Identifier: ext\n" +
			"DC-Title: A Title\n",
		"manifest-md5.txt":               "ab6f68949dde6e6ce45ae73a19f11481 data/preservation_master/a.txt\n",
		"data/preservation_master/a.txt": "payload-a",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestBuildCmdRun(t *testing.T) {
	logging.InitLogger(logging.LevelError, logging.FormatText)

	out := filepath.Join(t.TempDir(), "sip")
	reportPath := filepath.Join(t.TempDir(), "report.json")
	cmd := &BuildCmd{
		Path:   writeIP(t),
		Out:    out,
		Report: reportPath,
		// Offline build: schema sources may be unreachable in tests.
		MetsActive: false,
		DcActive:   false,
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, path := range []string{
		filepath.Join(out, "dc.xml"),
		filepath.Join(out, "content", "ie.xml"),
		filepath.Join(out, "content", "streams", "preservation_master", "a.txt"),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing SIP output %s: %v", path, err)
		}
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report missing: %v", err)
	}
	var result report.Report
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}
	if !result.Success {
		t.Errorf("report not successful: %+v", result.Entries)
	}
	if result.Token == "" {
		t.Error("report has no token")
	}
}

func TestBuildCmdRunIncompleteIP(t *testing.T) {
	logging.InitLogger(logging.LevelError, logging.FormatText)

	dir := filepath.Join(t.TempDir(), "ip")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}

	reportPath := filepath.Join(t.TempDir(), "report.json")
	cmd := &BuildCmd{
		Path:       dir,
		Out:        filepath.Join(t.TempDir(), "sip"),
		Report:     reportPath,
		MetsActive: false,
		DcActive:   false,
	}
	if err := cmd.Run(); err == nil {
		t.Fatal("expected error for an empty IP")
	}

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report must be written even on failure: %v", err)
	}
	var result report.Report
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	if result.Success {
		t.Error("report must not claim success")
	}
}

func TestBuildCmdDCValidation(t *testing.T) {
	logging.InitLogger(logging.LevelError, logging.FormatText)

	cmd := &BuildCmd{
		Path:            writeIP(t),
		Out:             filepath.Join(t.TempDir(), "sip"),
		Report:          filepath.Join(t.TempDir(), "report.json"),
		MetsActive:      false,
		DcActive:        true,
		DcSchemaVersion: "1.1",
		DcName:          "dc.xml schema",
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run with bundled dc.xml schema: %v", err)
	}
}

func TestBuildCmdBrokenValidatorConfig(t *testing.T) {
	cmd := &BuildCmd{
		Path:              writeIP(t),
		Out:               filepath.Join(t.TempDir(), "sip"),
		MetsActive:        true,
		MetsXSD:           "/no/such/schema.xsd",
		MetsSchemaVersion: "1.0",
	}
	if err := cmd.Run(); err == nil {
		t.Fatal("a validator that cannot initialize must refuse to build")
	}
	if _, err := os.Stat(cmd.Out); err == nil {
		t.Error("no SIP may be assembled when initialization fails")
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	if parseLevel("debug") != logging.LevelDebug {
		t.Error("debug level")
	}
	if parseLevel("bogus") != logging.LevelInfo {
		t.Error("unknown level must default to info")
	}
	if parseFormat("json") != logging.FormatJSON {
		t.Error("json format")
	}
	if parseFormat("text") != logging.FormatText {
		t.Error("text format")
	}
}
