package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SearchKind selects what a search matches against.
type SearchKind string

const (
	// SearchText matches text in files and string constants in classes.
	SearchText SearchKind = "text"
	// SearchNumber matches numeric literals in files and constant instructions.
	SearchNumber SearchKind = "number"
	// SearchMember matches field and method declarations and references by name.
	SearchMember SearchKind = "member"
	// SearchAnnotation matches classes and members carrying an annotation type.
	SearchAnnotation SearchKind = "annotation"
)

// SearchKinds lists all supported kinds.
var SearchKinds = []SearchKind{SearchText, SearchNumber, SearchMember, SearchAnnotation}

// ParseSearchKind converts a user-supplied kind, case-insensitively.
func ParseSearchKind(s string) (SearchKind, error) {
	kind := SearchKind(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range SearchKinds {
		if kind == k {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown search kind %q", s)
}

// Search describes an executed search. It is carried alongside its results
// and not interpreted by the tree.
type Search struct {
	ID    string     `json:"id"`
	Kind  SearchKind `json:"kind"`
	Query string     `json:"query"`
}

// NewSearch creates a search descriptor with a fresh identifier.
func NewSearch(kind SearchKind, query string) Search {
	return Search{
		ID:    uuid.NewString(),
		Kind:  kind,
		Query: query,
	}
}
