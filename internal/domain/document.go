package domain

// FileDocument represents a workspace file in the full-text index.
// It is the primary data structure stored in the Bleve search index.
type FileDocument struct {
	// ID is the document identifier, the workspace-relative path.
	// Example: "res/values/strings.xml"
	ID string `json:"id"`

	// Path is the workspace-relative file path, kept as a stored keyword.
	Path string `json:"path"`

	// Extension is the file extension without the leading dot.
	// Example: "xml", "txt", "properties"
	Extension string `json:"extension"`

	// Content is the full file content used for indexing and match extraction.
	Content string `json:"content"`
}

// Bleve field name constants for consistent field references in queries and mappings.
const (
	FileFieldID        = "id"
	FileFieldPath      = "path"
	FileFieldExtension = "extension"
	FileFieldContent   = "content"
)
