package workspace

import (
	"strings"
	"testing"

	"github.com/bmatcuk/doublestar/v4"
)

func TestNewFilter_Defaults(t *testing.T) {
	filter := NewFilter(nil, 1024)

	if filter.MaxFileSize() != 1024 {
		t.Errorf("MaxFileSize() = %d, want %d", filter.MaxFileSize(), 1024)
	}
	if len(filter.patterns) != len(DefaultExcludePatterns) {
		t.Errorf("Expected %d patterns, got %d", len(DefaultExcludePatterns), len(filter.patterns))
	}
}

func TestDefaultExcludePatterns_NoRedundantEntries(t *testing.T) {
	for i, p := range DefaultExcludePatterns {
		for j, q := range DefaultExcludePatterns {
			if i == j {
				continue
			}
			// A pattern matched by another default pattern adds nothing.
			if matched, _ := doublestar.Match(q, strings.ReplaceAll(p, "**/*", "x/y")); matched && p != q {
				t.Errorf("Pattern %q is already covered by %q", p, q)
			}
			if p == q {
				t.Errorf("Pattern %q is listed twice", p)
			}
		}
	}
}

func TestNewFilter_DropsInvalidPatterns(t *testing.T) {
	filter := NewFilter([]string{"**/*.txt", "", "  ", "[unclosed"}, 0)

	if len(filter.patterns) != 1 {
		t.Errorf("Expected 1 pattern, got %d: %v", len(filter.patterns), filter.patterns)
	}
}

func TestFilter_ShouldExclude(t *testing.T) {
	filter := NewFilter(nil, 0)

	tests := []struct {
		path    string
		exclude bool
	}{
		{".git/config", true},
		{"app/.git/HEAD", true},
		{"build/outputs/x.txt", true},
		{"res/drawable/icon.png", true},
		{"res/drawable/ICON.PNG", true},
		{"res/drawable-hdpi/btn_bg.9.png", true},
		{"oat/arm64/base.odex", true},
		{"lib/arm64/libnative.so", true},
		{"original/AndroidManifest.xml", true},
		{"smali/com/app/Main.smali", false},
		{"res/values/strings.xml", false},
		{"AndroidManifest.xml", false},
		{"builder/notes.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := filter.ShouldExclude(tt.path); got != tt.exclude {
				t.Errorf("ShouldExclude(%q) = %v, want %v", tt.path, got, tt.exclude)
			}
		})
	}
}

func TestFilter_ShouldExcludeDir(t *testing.T) {
	filter := NewFilter(nil, 0)

	tests := []struct {
		path    string
		exclude bool
	}{
		{".git", true},
		{"app/build", true},
		{"smali", false},
		{"res/drawable", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := filter.ShouldExcludeDir(tt.path); got != tt.exclude {
				t.Errorf("ShouldExcludeDir(%q) = %v, want %v", tt.path, got, tt.exclude)
			}
		})
	}
}

func TestFilter_TooLarge(t *testing.T) {
	if NewFilter(nil, 0).TooLarge(1 << 30) {
		t.Error("Expected zero limit to accept any size")
	}
	limited := NewFilter(nil, 10)
	if limited.TooLarge(10) {
		t.Error("Expected size equal to the limit to be accepted")
	}
	if !limited.TooLarge(11) {
		t.Error("Expected size above the limit to be rejected")
	}
}

func TestIsBinary(t *testing.T) {
	if IsBinary([]byte("plain text")) {
		t.Error("Expected text content not to be binary")
	}
	if !IsBinary([]byte{'a', 0, 'b'}) {
		t.Error("Expected content with a null byte to be binary")
	}
	if IsBinary(nil) {
		t.Error("Expected empty content not to be binary")
	}
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"a/b/Main.smali": "smali",
		"strings.xml":    "xml",
		"Makefile":       "",
	}
	for path, want := range tests {
		if got := Extension(path); got != want {
			t.Errorf("Extension(%q) = %q, want %q", path, got, want)
		}
	}
}
