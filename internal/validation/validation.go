// Package validation provides input validation and sanitization for
// user-supplied paths, preventing path traversal when extracting archived
// Information Packages and when resolving output locations.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// Limits on user-supplied names and paths.
const (
	// MaxFilenameLength is the maximum allowed filename length.
	MaxFilenameLength = 255
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrInvalidFilename  = errors.New("invalid filename")
	ErrPathTooLong      = errors.New("path too long")
	ErrFilenameTooLong  = errors.New("filename too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrEmptyPath        = errors.New("path cannot be empty")
)

// SanitizePath validates and sanitizes a user-supplied path to prevent
// path traversal attacks. It ensures the path does not escape the provided
// base directory. Returns the cleaned path relative to the base directory,
// or an error if invalid.
func SanitizePath(baseDir, userPath string) (string, error) {
	if userPath == "" {
		return "", ErrEmptyPath
	}
	if len(userPath) > MaxPathLength {
		return "", ErrPathTooLong
	}

	// Clean the path to remove redundant separators and resolve . and ..
	cleanPath := filepath.Clean(userPath)

	if strings.Contains(cleanPath, "..") {
		return "", ErrPathTraversal
	}
	if filepath.IsAbs(cleanPath) {
		return "", fmt.Errorf("%w: absolute path not allowed", ErrPathTraversal)
	}

	// Build full path and verify it's within baseDir.
	fullPath := filepath.Join(baseDir, cleanPath)
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	relPath, err := filepath.Rel(absBase, absPath)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return "", ErrPathTraversal
	}

	return cleanPath, nil
}

// ValidateFilename checks if a filename is safe: no path separators, no
// control characters, no reserved names.
func ValidateFilename(filename string) error {
	if filename == "" {
		return ErrInvalidFilename
	}
	if len(filename) > MaxFilenameLength {
		return ErrFilenameTooLong
	}
	if filename == "." || filename == ".." {
		return fmt.Errorf("%w: reserved name", ErrInvalidFilename)
	}
	if strings.ContainsAny(filename, "/\\") {
		return fmt.Errorf("%w: path separator not allowed", ErrInvalidFilename)
	}
	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidFilename)
	}
	for _, r := range filename {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidFilename)
		}
	}
	if strings.HasPrefix(filename, "-") {
		return fmt.Errorf("%w: filename cannot start with hyphen", ErrInvalidFilename)
	}
	return nil
}

// IsPathSafe checks if a path is safe by validating it against common
// attack patterns. This is a convenience wrapper around SanitizePath that
// returns a boolean.
func IsPathSafe(baseDir, userPath string) bool {
	_, err := SanitizePath(baseDir, userPath)
	return err == nil
}

// ValidatePath performs path validation without requiring a base
// directory. It checks for length limits and invalid characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}
