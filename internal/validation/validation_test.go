package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizePath(t *testing.T) {
	cases := []struct {
		name     string
		userPath string
		want     string
		wantErr  error
	}{
		{"simple file", "bag-info.txt", "bag-info.txt", nil},
		{"nested path", "data/preservation_master/a.tif", "data/preservation_master/a.tif", nil},
		{"redundant separators", "data//meta/./dc.xml", "data/meta/dc.xml", nil},
		{"empty", "", "", ErrEmptyPath},
		{"parent escape", "../outside.txt", "", ErrPathTraversal},
		{"embedded escape", "data/../../outside.txt", "", ErrPathTraversal},
		{"absolute", "/etc/passwd", "", ErrPathTraversal},
		{"too long", strings.Repeat("a/", MaxPathLength), "", ErrPathTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := SanitizePath("/base", tc.userPath)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidateFilename(t *testing.T) {
	valid := []string{"bag-info.txt", "manifest-md5.txt", "a.tif"}
	for _, name := range valid {
		if err := ValidateFilename(name); err != nil {
			t.Errorf("ValidateFilename(%q) = %v", name, err)
		}
	}
	invalid := []string{"", ".", "..", "a/b.txt", "a\\b.txt", "a\x00b", "-flag", strings.Repeat("a", 256)}
	for _, name := range invalid {
		if err := ValidateFilename(name); err == nil {
			t.Errorf("ValidateFilename(%q) should fail", name)
		}
	}
}

func TestIsPathSafe(t *testing.T) {
	if !IsPathSafe("/base", "data/a.tif") {
		t.Error("relative payload path should be safe")
	}
	if IsPathSafe("/base", "../escape") {
		t.Error("parent escape should be unsafe")
	}
}

func TestValidatePath(t *testing.T) {
	if err := ValidatePath("out/sip"); err != nil {
		t.Errorf("ValidatePath: %v", err)
	}
	if err := ValidatePath(""); !errors.Is(err, ErrEmptyPath) {
		t.Errorf("empty path: %v", err)
	}
	if err := ValidatePath("a\x00b"); !errors.Is(err, ErrInvalidCharacter) {
		t.Errorf("null byte: %v", err)
	}
	if err := ValidatePath("a\tb"); !errors.Is(err, ErrInvalidCharacter) {
		t.Errorf("control character: %v", err)
	}
}
