package tree

import "strings"

// Separator splits hierarchical names into segments.
const Separator = "/"

// Factory creates a detached node for a single path segment.
type Factory func(segment string) *Node

// Resolve walks the container slots from the given node along a
// slash-delimited name. It returns nil when any segment is missing.
// Only intermediates and methods holding instructions are reachable this way;
// classes and files sit in the leaf slot and are looked up with Find.
func Resolve(from *Node, name string) *Node {
	cur := from
	for _, segment := range strings.Split(name, Separator) {
		cur = cur.ChildContainer(segment)
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Find returns the node of the expected kind at name, or nil. The parent
// path is walked through the container slots. An intermediate kind is
// looked up in the container slot of the last segment, any other kind in
// the leaf slot.
func Find(from *Node, name string, kind Kind) *Node {
	parent, last := from, name
	if i := strings.LastIndex(name, Separator); i >= 0 {
		parent, last = Resolve(from, name[:i]), name[i+1:]
		if parent == nil {
			return nil
		}
	}

	var n *Node
	if kind.IsIntermediate() {
		n = parent.ChildContainer(last)
	} else {
		n = parent.ChildLeaf(last)
	}
	if n == nil || n.Kind() != kind {
		return nil
	}
	return n
}

// AddPath materializes name under owner in one pass. Existing intermediates
// in the container slots are reused; missing ones are created with
// container. The terminal segment is always created fresh with leaf and
// attached to its parent, which is returned.
func AddPath(owner *Node, name string, leaf, container Factory) *Node {
	segments := strings.Split(name, Separator)
	parent := owner
	for _, segment := range segments[:len(segments)-1] {
		next := parent.ChildContainer(segment)
		if next == nil || !next.Kind().IsIntermediate() {
			next = container(segment)
			parent.AddChild(next)
		}
		parent = next
	}
	terminal := leaf(segments[len(segments)-1])
	parent.AddChild(terminal)
	return terminal
}

// ResolveOrAdd returns the node of the expected kind at name, creating the
// path when it is missing.
func ResolveOrAdd(owner *Node, name string, kind Kind, leaf, container Factory) (n *Node, created bool) {
	if found := Find(owner, name, kind); found != nil {
		return found, false
	}
	return AddPath(owner, name, leaf, container), true
}

// Remove detaches the node of the given kind at name. Ancestors are left in
// place even if they become empty. It returns nil if no such node exists.
func Remove(from *Node, name string, kind Kind) *Node {
	n := Find(from, name, kind)
	if n == nil {
		return nil
	}
	n.Detach()
	return n
}
