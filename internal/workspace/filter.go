package workspace

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExcludePatterns contains path patterns skipped when loading a workspace.
// They cover tool output directories and binary or media files that never
// carry searchable text. Matching is case-insensitive.
var DefaultExcludePatterns = []string{
	// Tooling
	"**/.git/**", "**/.gradle/**", "**/.idea/**",
	"**/build/**", "**/out/**", "**/original/**",

	// Binary/Media - images
	"**/*.png", "**/*.jpg", "**/*.jpeg", "**/*.gif", "**/*.ico",
	"**/*.bmp", "**/*.webp",

	// Binary/Media - fonts
	"**/*.woff", "**/*.woff2", "**/*.ttf", "**/*.otf",

	// Binary/Media - archives
	"**/*.zip", "**/*.jar", "**/*.apk", "**/*.aar", "**/*.gz",

	// Binary/Media - compiled code
	"**/*.class", "**/*.dex", "**/*.so",

	// Binary/Media - other
	"**/*.db", "**/*.sqlite", "**/*.mp3", "**/*.mp4", "**/*.ogg",
}

// Filter decides which workspace paths are loaded.
type Filter struct {
	patterns    []string
	maxFileSize int64
}

// NewFilter creates a Filter. A nil pattern list selects DefaultExcludePatterns.
func NewFilter(patterns []string, maxFileSize int64) *Filter {
	if patterns == nil {
		patterns = DefaultExcludePatterns
	}
	normalized := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" || !doublestar.ValidatePattern(p) {
			continue
		}
		normalized = append(normalized, strings.ToLower(p))
	}
	return &Filter{
		patterns:    normalized,
		maxFileSize: maxFileSize,
	}
}

// ShouldExclude reports whether a file path relative to the workspace root is excluded.
func (f *Filter) ShouldExclude(relPath string) bool {
	relPath = strings.ToLower(filepath.ToSlash(relPath))
	for _, pattern := range f.patterns {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

// ShouldExcludeDir reports whether a whole directory is excluded, so a walk
// can skip it instead of testing every file below it.
func (f *Filter) ShouldExcludeDir(relPath string) bool {
	relPath = strings.ToLower(filepath.ToSlash(relPath))
	for _, pattern := range f.patterns {
		dir, ok := strings.CutSuffix(pattern, "/**")
		if !ok {
			continue
		}
		if matched, _ := doublestar.Match(dir, relPath); matched {
			return true
		}
	}
	return false
}

// MaxFileSize returns the size limit for loaded files. Zero means unlimited.
func (f *Filter) MaxFileSize() int64 {
	return f.maxFileSize
}

// TooLarge reports whether a file of the given size exceeds the limit.
func (f *Filter) TooLarge(size int64) bool {
	return f.maxFileSize > 0 && size > f.maxFileSize
}

// IsBinary checks if the content appears to be binary by looking for null bytes
// in the first 512 bytes. This is a heuristic used by git and other tools.
func IsBinary(content []byte) bool {
	checkLen := min(len(content), 512)

	for i := range checkLen {
		if content[i] == 0 {
			return true
		}
	}
	return false
}

// Extension returns the file extension without the leading dot.
func Extension(path string) string {
	return strings.TrimPrefix(filepath.Ext(path), ".")
}
