package results

import (
	"github.com/sha1n/relic-results/internal/domain"
	"github.com/sha1n/relic-results/internal/tree"
)

// NodeView is a JSON-friendly copy of a tree node and its descendants.
type NodeView struct {
	Name       string      `json:"name"`
	Kind       string      `json:"kind"`
	Path       string      `json:"path,omitempty"`
	Annotation string      `json:"annotation,omitempty"`
	Children   []*NodeView `json:"children,omitempty"`
}

// View is a point-in-time rendering of a result tree.
type View struct {
	ID           string            `json:"id"`
	Kind         domain.SearchKind `json:"kind"`
	Query        string            `json:"query"`
	ResultCount  int               `json:"result_count"`
	ForceVisible bool              `json:"force_visible"`
	Nodes        []*NodeView       `json:"nodes"`
}

// View renders the tree. It must run on the goroutine owning the root.
func (r *Root) View() *View {
	children := r.node.Children()
	nodes := make([]*NodeView, 0, len(children))
	for _, child := range children {
		nodes = append(nodes, NewNodeView(child))
	}
	return &View{
		ID:           r.search.ID,
		Kind:         r.search.Kind,
		Query:        r.search.Query,
		ResultCount:  len(r.results),
		ForceVisible: r.ForceVisible(),
		Nodes:        nodes,
	}
}

// NewNodeView copies n and its subtree.
func NewNodeView(n *tree.Node) *NodeView {
	v := &NodeView{
		Name:       n.Label(),
		Kind:       n.Kind().String(),
		Annotation: n.AnnotationType(),
	}
	switch n.Kind() {
	case tree.KindPackage, tree.KindDirectory, tree.KindClass, tree.KindFile:
		v.Path = n.Path()
	}
	for _, child := range n.Children() {
		v.Children = append(v.Children, NewNodeView(child))
	}
	return v
}

// Count returns the number of nodes in the view, excluding the root.
func (v *View) Count() int {
	total := 0
	var count func([]*NodeView)
	count = func(nodes []*NodeView) {
		for _, n := range nodes {
			total++
			count(n.Children)
		}
	}
	count(v.Nodes)
	return total
}
