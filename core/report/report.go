// Package report implements the diagnostic log that compilers and
// validators return alongside their output. Unlike process logging, these
// logs are data: callers inspect and merge them to decide whether a build
// succeeded.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Severity classifies a log entry.
type Severity string

const (
	Error   Severity = "ERROR"
	Warning Severity = "WARNING"
	Info    Severity = "INFO"
)

// Entry is a single diagnostic message.
type Entry struct {
	Severity Severity `json:"severity"`
	Origin   string   `json:"origin"`
	Body     string   `json:"body"`
}

// Log is an ordered sequence of entries produced by one compile or validate
// call. Each call site must use a fresh Log (or drain the entries before
// reuse); a Log is not safe for concurrent use.
type Log struct {
	origin  string
	entries []Entry
}

// NewLog returns an empty log whose entries default to the given origin
// label.
func NewLog(origin string) *Log {
	return &Log{origin: origin}
}

// Origin returns the log's default origin label.
func (l *Log) Origin() string {
	return l.origin
}

// Add appends an entry with the given severity under the log's default
// origin.
func (l *Log) Add(severity Severity, format string, args ...any) {
	l.entries = append(l.entries, Entry{
		Severity: severity,
		Origin:   l.origin,
		Body:     fmt.Sprintf(format, args...),
	})
}

// Errorf appends an ERROR entry.
func (l *Log) Errorf(format string, args ...any) {
	l.Add(Error, format, args...)
}

// Warnf appends a WARNING entry.
func (l *Log) Warnf(format string, args ...any) {
	l.Add(Warning, format, args...)
}

// Infof appends an INFO entry.
func (l *Log) Infof(format string, args ...any) {
	l.Add(Info, format, args...)
}

// Entries returns the accumulated entries in order.
func (l *Log) Entries() []Entry {
	return l.entries
}

// HasErrors reports whether any ERROR entry has been recorded.
func (l *Log) HasErrors() bool {
	for _, e := range l.entries {
		if e.Severity == Error {
			return true
		}
	}
	return false
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Extend appends all entries of other, keeping their origins.
func (l *Log) Extend(other *Log) {
	if other == nil {
		return
	}
	l.entries = append(l.entries, other.entries...)
}

// Report aggregates the diagnostic logs of a whole build into one record.
type Report struct {
	Token     string  `json:"token"`
	Timestamp string  `json:"timestamp"`
	Success   bool    `json:"success"`
	Entries   []Entry `json:"entries"`
}

// NewReport merges the given logs into a Report. Success is determined by
// the absence of ERROR entries, not by whether any stage raised.
func NewReport(logs ...*Log) *Report {
	r := &Report{
		Token:     uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Success:   true,
	}
	for _, log := range logs {
		if log == nil {
			continue
		}
		r.Entries = append(r.Entries, log.Entries()...)
		if log.HasErrors() {
			r.Success = false
		}
	}
	return r
}

// ToJSON renders the report as indented JSON.
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
