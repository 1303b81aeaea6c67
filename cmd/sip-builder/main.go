// Command sip-builder converts Information Packages into
// Rosetta-compatible Submission Information Packages: it compiles dc.xml
// and ie.xml metadata, validates both against their schemas, and assembles
// the SIP directory.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/lzv-nrw/dcm-sip-builder/core/compiler"
	"github.com/lzv-nrw/dcm-sip-builder/core/ip"
	"github.com/lzv-nrw/dcm-sip-builder/core/report"
	"github.com/lzv-nrw/dcm-sip-builder/core/sip"
	"github.com/lzv-nrw/dcm-sip-builder/core/validator"
	"github.com/lzv-nrw/dcm-sip-builder/internal/archive"
	"github.com/lzv-nrw/dcm-sip-builder/internal/logging"
	"github.com/lzv-nrw/dcm-sip-builder/internal/validation"
)

const version = "0.1.0"

// CLI defines the command-line interface for sip-builder.
var CLI struct {
	LogLevel  string `help:"Log level (debug, info, warn, error)" default:"info" env:"LOG_LEVEL"`
	LogFormat string `help:"Log format (json, text)" default:"text" env:"LOG_FORMAT"`

	Build    BuildCmd    `cmd:"" help:"Build a SIP from an Information Package"`
	Validate ValidateCmd `cmd:"" help:"Validate an XML document against an XSD schema"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// BuildCmd builds a SIP from an IP directory or archive.
type BuildCmd struct {
	Path         string `arg:"" help:"Path to the IP (directory, .tar, .tar.gz, or .tar.xz)" type:"path"`
	Out          string `help:"SIP output directory" default:"sip" env:"SIP_OUTPUT" type:"path"`
	Archive      string `help:"Additionally pack the built SIP into this tar.gz archive" type:"path"`
	VerifyFixity bool   `help:"Recompute manifest digests before copying the payload" env:"VERIFY_FIXITY"`
	Report       string `help:"Write the JSON build report to this file instead of stdout" type:"path"`

	MetsActive                bool   `help:"Validate ie.xml against the Rosetta METS schema" default:"true" negatable:"" env:"VALIDATION_ROSETTA_METS_ACTIVE"`
	MetsXSD                   string `help:"Rosetta METS schema source" default:"https://developers.exlibrisgroup.com/wp-content/uploads/2022/06/mets_rosetta.xsd" env:"VALIDATION_ROSETTA_METS_XSD"`
	MetsSchemaVersion         string `help:"Rosetta METS schema language version" default:"1.1" env:"VALIDATION_ROSETTA_METS_XML_SCHEMA_VERSION"`
	MetsName                  string `help:"Rosetta METS schema name used in logs" default:"Ex Libris, Rosetta METS v7.3" env:"VALIDATION_ROSETTA_XSD_NAME"`
	MetsXSDFallback           string `help:"Fallback schema source if the primary cannot be loaded" env:"VALIDATION_ROSETTA_METS_XSD_FALLBACK"`
	MetsSchemaVersionFallback string `help:"Fallback schema language version" default:"1.1" env:"VALIDATION_ROSETTA_METS_XML_SCHEMA_VERSION_FALLBACK"`
	MetsNameFallback          string `help:"Fallback schema name used in logs" default:"Rosetta METS (fallback)" env:"VALIDATION_ROSETTA_XSD_NAME_FALLBACK"`

	DcActive        bool   `help:"Validate dc.xml" default:"true" negatable:"" env:"VALIDATION_DCXML_ACTIVE"`
	DcXSD           string `help:"dc.xml schema source (default: bundled schema)" env:"VALIDATION_DCXML_XSD"`
	DcSchemaVersion string `help:"dc.xml schema language version" default:"1.1" env:"VALIDATION_DCXML_XML_SCHEMA_VERSION"`
	DcName          string `help:"dc.xml schema name used in logs" default:"LZV.nrw, dc.xml schema" env:"VALIDATION_DCXML_NAME"`
}

func (c *BuildCmd) Run() error {
	if err := validation.ValidatePath(c.Out); err != nil {
		return fmt.Errorf("invalid output path: %w", err)
	}

	// Initialize validators up front: a schema that cannot be loaded is
	// fatal, not something to discover halfway through a build.
	validatorLog := report.NewLog("SIP Builder")
	var metsValidator, dcValidator *validator.Validator
	if c.MetsActive {
		v, err := validator.FromConfig(validator.Config{
			XSD:                   c.MetsXSD,
			SchemaVersion:         c.MetsSchemaVersion,
			Name:                  c.MetsName,
			XSDFallback:           c.MetsXSDFallback,
			SchemaVersionFallback: c.MetsSchemaVersionFallback,
			NameFallback:          c.MetsNameFallback,
		}, validatorLog)
		if err != nil {
			return fmt.Errorf(
				"unable to initialize Rosetta METS-validator: %w "+
					"(consider disabling --mets-active or setting --mets-xsd-fallback)",
				err,
			)
		}
		metsValidator = v
	}
	if c.DcActive {
		source := c.DcXSD
		if source == "" {
			source = validator.DefaultDCSchema
		}
		v, err := validator.New(source, c.DcSchemaVersion, c.DcName)
		if err != nil {
			return fmt.Errorf(
				"unable to initialize dc.xml-validator: %w "+
					"(consider disabling --dc-active)",
				err,
			)
		}
		dcValidator = v
	}

	// Resolve the IP root, extracting archives to a scratch directory.
	root := c.Path
	if archive.IsSupportedFormat(c.Path) {
		tempDir, err := os.MkdirTemp("", "sip-builder-ip-*")
		if err != nil {
			return fmt.Errorf("failed to create temp directory: %w", err)
		}
		defer os.RemoveAll(tempDir)

		logging.Info("extracting archived IP",
			"path", c.Path, "format", archive.DetectFormat(c.Path))
		root, err = archive.Extract(c.Path, tempDir)
		if err != nil {
			return fmt.Errorf("failed to extract IP: %w", err)
		}
	}

	logging.Info("reading IP", "path", root)
	p := ip.Load(root)

	logging.Info("compiling SIP metadata", "path", root)
	dc, dcLog := compiler.CompileToString(compiler.DCCompiler{}, p)
	ie, ieLog := compiler.CompileToString(compiler.IECompiler{}, p)

	logs := []*report.Log{p.Log(), dcLog, ieLog, validatorLog}
	for _, target := range []struct {
		validator *validator.Validator
		document  string
		name      string
	}{
		{metsValidator, ie, "ie.xml"},
		{dcValidator, dc, "dc.xml"},
	} {
		if target.validator == nil {
			continue
		}
		logging.Info("validating document",
			"name", target.name, "schema", target.validator.Name)
		logs = append(logs, target.validator.Validate(target.document, target.name))
	}

	out := c.Out
	if _, err := os.Stat(out); err == nil {
		// Occupied output directory: assemble in a fresh subdirectory.
		out = filepath.Join(out, uuid.NewString())
	}
	logging.Info("building SIP", "path", out)
	target := &sip.SIP{Path: out}
	builder := &sip.Builder{VerifyFixity: c.VerifyFixity}
	logs = append(logs, builder.Build(p, ie, dc, target))

	if target.Built && c.Archive != "" {
		logging.Info("packing SIP archive", "path", c.Archive)
		if err := archive.Pack(target.Path, c.Archive); err != nil {
			return fmt.Errorf("failed to pack SIP archive: %w", err)
		}
	}

	result := report.NewReport(logs...)
	if err := c.writeReport(result); err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("build of '%s' finished with errors", c.Path)
	}
	return nil
}

func (c *BuildCmd) writeReport(result *report.Report) error {
	data, err := result.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	if c.Report == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(c.Report, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ValidateCmd validates a single XML document against a schema.
type ValidateCmd struct {
	XML           string `arg:"" help:"Path to the XML document" type:"existingfile"`
	XSD           string `help:"Schema source (path, URL, or inline text); default: bundled dc.xml schema"`
	SchemaVersion string `help:"Schema language version" default:"1.1"`
	Name          string `help:"Schema name used in logs"`
}

func (c *ValidateCmd) Run() error {
	source := c.XSD
	if source == "" {
		source = validator.DefaultDCSchema
	}
	v, err := validator.New(source, c.SchemaVersion, c.Name)
	if err != nil {
		return fmt.Errorf("unable to initialize validator: %w", err)
	}

	log := v.Validate(c.XML, filepath.Base(c.XML))
	for _, entry := range log.Entries() {
		fmt.Printf("%s %s: %s\n", entry.Severity, entry.Origin, entry.Body)
	}
	if log.HasErrors() {
		return fmt.Errorf("'%s' is invalid", c.XML)
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("sip-builder %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("sip-builder"),
		kong.Description("Builds Rosetta-compatible SIPs from Information Packages"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	logging.InitLogger(parseLevel(CLI.LogLevel), parseFormat(CLI.LogFormat))

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func parseLevel(level string) logging.Level {
	switch level {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func parseFormat(format string) logging.Format {
	if format == "json" {
		return logging.FormatJSON
	}
	return logging.FormatText
}
