// Package sip assembles a Submission Information Package from a source IP
// and its compiled metadata documents.
package sip

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/lzv-nrw/dcm-sip-builder/core/ip"
	"github.com/lzv-nrw/dcm-sip-builder/core/report"
	"github.com/lzv-nrw/dcm-sip-builder/internal/fileutil"
)

const builderTag = "SIP Builder"

// SIP represents a Submission Information Package at a target path.
type SIP struct {
	Path  string
	Built bool
}

// Builder assembles SIPs: metadata documents are written to 'dc.xml' and
// 'content/ie.xml', the source payload is copied to 'content/streams'.
type Builder struct {
	// VerifyFixity recomputes the manifest digests of all payload files
	// before copying and fails the build on any mismatch.
	VerifyFixity bool
}

// Build assembles s from the source IP and the compiled metadata strings.
// The outcome is recorded in s.Built and in the returned log; problems are
// logged rather than returned, matching the compilers.
func (b *Builder) Build(p *ip.IP, ie, dc string, s *SIP) *report.Log {
	log := report.NewLog(builderTag)

	s.Built = b.writeMetadata(ie, dc, s, log) && b.writePayload(p, s, log)
	if s.Built {
		log.Infof("Successfully assembled SIP at '%s'.", s.Path)
	} else {
		log.Infof("No SIP has been built.")
	}
	return log
}

func (b *Builder) writeMetadata(ie, dc string, s *SIP, log *report.Log) bool {
	return writeFile(filepath.Join(s.Path, "content", "ie.xml"), ie, log) &&
		writeFile(filepath.Join(s.Path, "dc.xml"), dc, log)
}

func writeFile(dst, content string, log *report.Log) bool {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		log.Errorf("Unable to write metadata '%s' (%v).", dst, err)
		return false
	}
	if err := os.WriteFile(dst, []byte(content), 0o644); err != nil {
		log.Errorf("Unable to write metadata '%s' (%v).", dst, err)
		return false
	}
	return true
}

func (b *Builder) writePayload(p *ip.IP, s *SIP, log *report.Log) bool {
	if b.VerifyFixity && !verifyFixity(p, log) {
		return false
	}

	src := filepath.Join(p.Path, ip.PathPayload)
	dst := filepath.Join(s.Path, "content", "streams")
	if _, err := os.Stat(src); err != nil {
		log.Errorf("Writing payload failed, source '%s' not found.", src)
		return false
	}
	if _, err := os.Stat(dst); err == nil {
		log.Errorf("Writing payload failed, target '%s' already exists.", dst)
		return false
	}
	if err := fileutil.CopyDir(src, dst); err != nil {
		log.Errorf("Writing payload failed (%v).", err)
		return false
	}
	return true
}

// verifyFixity recomputes every manifest digest against the payload on
// disk. Unknown algorithms are skipped with a WARNING; missing files and
// digest mismatches are ERRORs.
func verifyFixity(p *ip.IP, log *report.Log) bool {
	ok := true
	for _, algorithm := range sortedKeys(p.Manifests) {
		newHash, known := hasherFor(algorithm)
		if !known {
			log.Warnf(
				"Unknown checksum algorithm '%s', skipping fixity check.",
				algorithm,
			)
			continue
		}
		entries := p.Manifests[algorithm]
		for _, path := range sortedKeys(entries) {
			digest, err := digestFile(filepath.Join(p.Path, path), newHash())
			if err != nil {
				log.Errorf("Fixity check failed for '%s' (%v).", path, err)
				ok = false
				continue
			}
			if !strings.EqualFold(digest, entries[path]) {
				log.Errorf(
					"Fixity check failed for '%s': manifest (%s) says %s, got %s.",
					path, algorithm, entries[path], digest,
				)
				ok = false
			}
		}
	}
	return ok
}

func hasherFor(algorithm string) (func() hash.Hash, bool) {
	switch strings.ToLower(algorithm) {
	case "md5":
		return md5.New, true
	case "sha1":
		return sha1.New, true
	case "sha256":
		return sha256.New, true
	case "sha512":
		return sha512.New, true
	case "blake3":
		return func() hash.Hash { return blake3.New() }, true
	}
	return nil, false
}

func digestFile(path string, h hash.Hash) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
