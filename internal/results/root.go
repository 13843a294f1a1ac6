// Package results projects search results into a navigable tree and keeps
// that tree consistent with class removals in the workspace.
package results

import (
	"github.com/sha1n/relic-results/internal/domain"
	"github.com/sha1n/relic-results/internal/tree"
	"github.com/sha1n/relic-results/internal/workspace"
)

// Root owns the result tree of one executed search.
//
// A Root is not safe for concurrent use; Synchronizer serializes access.
type Root struct {
	node     *tree.Node
	resource *workspace.Resource
	search   domain.Search
	results  []domain.Result
}

// NewRoot creates an unbuilt root. Setup populates the tree.
func NewRoot(resource *workspace.Resource, search domain.Search, results []domain.Result) *Root {
	return &Root{
		node:     tree.NewRoot(),
		resource: resource,
		search:   search,
		results:  results,
	}
}

// Node returns the tree root node.
func (r *Root) Node() *tree.Node {
	return r.node
}

// Resource returns the workspace resource the search ran against.
func (r *Root) Resource() *workspace.Resource {
	return r.resource
}

// Search returns the search descriptor.
func (r *Root) Search() domain.Search {
	return r.search
}

// Results returns the results the tree was built from.
func (r *Root) Results() []domain.Result {
	return r.results
}

// ForceVisible reports that the tree is always shown, even when it has no children.
func (r *Root) ForceVisible() bool {
	return true
}
