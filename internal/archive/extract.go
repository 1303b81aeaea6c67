package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lzv-nrw/dcm-sip-builder/internal/validation"
)

// Extract unpacks an archived Information Package into destDir. Entry
// names are sanitized against path traversal before anything is written.
// It returns the package root: the single top-level directory if the
// archive has exactly one, otherwise destDir itself.
func Extract(path, destDir string) (string, error) {
	r, err := NewReader(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	topLevel := map[string]bool{}
	err = r.Iterate(func(header *tar.Header, content io.Reader) (bool, error) {
		name, err := validation.SanitizePath(destDir, header.Name)
		if err != nil {
			return true, fmt.Errorf("entry '%s': %w", header.Name, err)
		}
		if first, _, _ := strings.Cut(name, string(filepath.Separator)); first != "." {
			topLevel[first] = true
		}

		target := filepath.Join(destDir, name)
		switch header.Typeflag {
		case tar.TypeDir:
			return false, os.MkdirAll(target, 0o755)
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return false, err
			}
			f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
			if err != nil {
				return false, err
			}
			if _, err := io.Copy(f, content); err != nil {
				f.Close()
				return false, err
			}
			return false, f.Close()
		}
		// Links and special files have no place in an IP.
		return false, nil
	})
	if err != nil {
		return "", err
	}

	if len(topLevel) == 1 {
		for name := range topLevel {
			root := filepath.Join(destDir, name)
			if info, err := os.Stat(root); err == nil && info.IsDir() {
				return root, nil
			}
		}
	}
	return destDir, nil
}
