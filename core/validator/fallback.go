package validator

import (
	"errors"

	"github.com/lzv-nrw/dcm-sip-builder/core/report"
)

// Config describes one validation target: a primary schema plus an
// optional fallback used when the primary cannot be loaded.
type Config struct {
	XSD           string
	SchemaVersion string
	Name          string

	XSDFallback           string
	SchemaVersionFallback string
	NameFallback          string
}

// FromConfig builds a Validator using the two-tier loading protocol: the
// primary schema is tried first; if it fails to load and a fallback is
// configured, the fallback is tried, with a WARNING about the substitution
// recorded in log. Any other failure, including a broken fallback, is
// returned and must abort the caller's initialization. A configuration
// error (unknown schema version) never triggers the fallback.
func FromConfig(cfg Config, log *report.Log) (*Validator, error) {
	v, err := New(cfg.XSD, cfg.SchemaVersion, cfg.Name)
	if err == nil {
		return v, nil
	}
	var loadErr *LoadError
	if !errors.As(err, &loadErr) || cfg.XSDFallback == "" {
		return nil, err
	}
	log.Warnf(
		"Unable to initialize validator from '%s': %v. Trying to load fallback..",
		cfg.XSD, err,
	)
	return New(cfg.XSDFallback, cfg.SchemaVersionFallback, cfg.NameFallback)
}
