// Package tree holds the in-memory hierarchy that search results are
// projected into.
//
// Each parent keeps its children in insertion order and indexes them by key
// in two views. Intermediates (packages, directories) and methods holding
// instructions take the container slot. Typed terminals (classes, files,
// fields, methods, instructions, raw values) take the leaf slot. A container
// and a leaf may share a key without shadowing each other, so class a and
// package a coexist under the same parent.
//
// Nodes are not safe for concurrent use. Callers serialize all mutations.
package tree

import (
	"slices"
	"strings"
)

// Kind identifies what a node represents.
type Kind int

const (
	KindRoot Kind = iota
	KindPackage
	KindDirectory
	KindClass
	KindFile
	KindMethod
	KindField
	KindInstruction
	KindRawValue
)

var kindNames = [...]string{
	KindRoot:        "root",
	KindPackage:     "package",
	KindDirectory:   "directory",
	KindClass:       "class",
	KindFile:        "file",
	KindMethod:      "method",
	KindField:       "field",
	KindInstruction: "instruction",
	KindRawValue:    "value",
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsIntermediate reports whether nodes of this kind only exist to hold a path segment.
func (k Kind) IsIntermediate() bool {
	return k == KindPackage || k == KindDirectory
}

// Slot is the lookup view a node is indexed under in its parent.
type Slot int

const (
	SlotLeaf Slot = iota
	SlotContainer
)

type slots struct {
	leaf      *Node
	container *Node
}

// Node is a single element of the results hierarchy.
type Node struct {
	key        string
	kind       Kind
	slot       Slot
	info       any
	label      string
	annotation string

	parent   *Node
	children []*Node
	index    map[string]slots
}

// New creates a detached node.
func New(kind Kind, key string, slot Slot, info any) *Node {
	return &Node{
		key:  key,
		kind: kind,
		slot: slot,
		info: info,
	}
}

// NewRoot creates an empty root node.
func NewRoot() *Node {
	return New(KindRoot, "", SlotContainer, nil)
}

// Key returns the key the node is indexed under in its parent.
func (n *Node) Key() string { return n.key }

// Kind returns the node kind.
func (n *Node) Kind() Kind { return n.kind }

// Slot returns the lookup view the node occupies in its parent.
func (n *Node) Slot() Slot { return n.slot }

// IsContainer reports whether the node occupies the container slot.
func (n *Node) IsContainer() bool { return n.slot == SlotContainer }

// Info returns the object the node represents, such as a class or method description.
func (n *Node) Info() any { return n.info }

// Parent returns the parent node, or nil for a root or detached node.
func (n *Node) Parent() *Node { return n.parent }

// Label returns the display text of the node. It defaults to the key.
func (n *Node) Label() string {
	if n.label != "" {
		return n.label
	}
	return n.key
}

// SetLabel overrides the display text of the node.
func (n *Node) SetLabel(label string) { n.label = label }

// AnnotationType returns the annotation marker, or "" if the node is unmarked.
func (n *Node) AnnotationType() string { return n.annotation }

// SetAnnotationType marks the node as matched on an applied annotation.
func (n *Node) SetAnnotationType(annotationType string) { n.annotation = annotationType }

// Children returns a copy of the children in insertion order.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// Len returns the number of direct children.
func (n *Node) Len() int { return len(n.children) }

// IsEmpty reports whether the node has no children.
func (n *Node) IsEmpty() bool { return len(n.children) == 0 }

// ChildContainer returns the child held in the container slot under key.
func (n *Node) ChildContainer(key string) *Node {
	return n.index[key].container
}

// ChildLeaf returns the child held in the leaf slot under key.
func (n *Node) ChildLeaf(key string) *Node {
	return n.index[key].leaf
}

// AddChild attaches child as the last child of n, detaching it from any
// previous parent. A child indexed under an occupied key and slot takes over
// the lookup; the previous occupant stays in the child list.
func (n *Node) AddChild(child *Node) {
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = n
	n.children = append(n.children, child)

	if n.index == nil {
		n.index = make(map[string]slots)
	}
	s := n.index[child.key]
	if child.slot == SlotContainer {
		s.container = child
	} else {
		s.leaf = child
	}
	n.index[child.key] = s
}

// RemoveChild detaches child from n. It returns false if child is not a child of n.
func (n *Node) RemoveChild(child *Node) bool {
	i := slices.Index(n.children, child)
	if i < 0 {
		return false
	}
	n.children = slices.Delete(n.children, i, i+1)

	s := n.index[child.key]
	if s.container == child {
		s.container = nil
	}
	if s.leaf == child {
		s.leaf = nil
	}
	if s.container == nil && s.leaf == nil {
		delete(n.index, child.key)
	} else {
		n.index[child.key] = s
	}

	child.parent = nil
	return true
}

// Detach removes n from its parent. It is a no-op for detached nodes.
func (n *Node) Detach() {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

// Path returns the slash-joined keys from the topmost ancestor down to n,
// excluding the root.
func (n *Node) Path() string {
	var segments []string
	for cur := n; cur != nil && cur.kind != KindRoot; cur = cur.parent {
		segments = append(segments, cur.key)
	}
	slices.Reverse(segments)
	return strings.Join(segments, "/")
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(fn)
	}
}

// Count returns the number of nodes in the subtree, n included.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}
