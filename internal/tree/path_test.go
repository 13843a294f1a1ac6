package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func classFactory(segment string) *Node { return New(KindClass, segment, SlotLeaf, nil) }
func packageFactory(segment string) *Node { return New(KindPackage, segment, SlotContainer, nil) }

func TestAddPath_CreatesIntermediates(t *testing.T) {
	root := NewRoot()
	c := AddPath(root, "a/b/C", classFactory, packageFactory)

	require.NotNil(t, c)
	assert.Equal(t, KindClass, c.Kind())
	assert.Equal(t, "a/b/C", c.Path())
	assert.Equal(t, KindPackage, root.ChildContainer("a").Kind())
	assert.Equal(t, KindPackage, root.ChildContainer("a").ChildContainer("b").Kind())
}

func TestAddPath_ReusesIntermediates(t *testing.T) {
	root := NewRoot()
	c := AddPath(root, "a/b/C", classFactory, packageFactory)
	d := AddPath(root, "a/b/D", classFactory, packageFactory)

	assert.Equal(t, 1, root.Len())
	assert.Same(t, c.Parent(), d.Parent())
	assert.Equal(t, 2, c.Parent().Len())
}

func TestAddPath_SingleSegment(t *testing.T) {
	root := NewRoot()
	c := AddPath(root, "Main", classFactory, packageFactory)
	assert.Same(t, root, c.Parent())
	assert.Same(t, c, Find(root, "Main", KindClass))
}

func TestAddPath_DoesNotReuseTypedNodeAsIntermediate(t *testing.T) {
	root := NewRoot()
	outer := AddPath(root, "a/Outer", classFactory, packageFactory)
	inner := AddPath(root, "a/Outer/Inner", classFactory, packageFactory)

	assert.NotSame(t, outer, inner.Parent())
	assert.Equal(t, KindPackage, inner.Parent().Kind())
	assert.Equal(t, 2, outer.Parent().Len())
	assert.Same(t, outer, Find(root, "a/Outer", KindClass))
	assert.Same(t, inner.Parent(), Find(root, "a/Outer", KindPackage))
}

func TestResolveOrAdd_ClassAndPackageShareName(t *testing.T) {
	root := NewRoot()

	// Alternate between class a and class a/B the way obfuscated code does.
	var classA, classB *Node
	for range 3 {
		n, _ := ResolveOrAdd(root, "a/B", KindClass, classFactory, packageFactory)
		if classB != nil {
			assert.Same(t, classB, n)
		}
		classB = n
		n, _ = ResolveOrAdd(root, "a", KindClass, classFactory, packageFactory)
		if classA != nil {
			assert.Same(t, classA, n)
		}
		classA = n
	}

	require.Equal(t, 2, root.Len(), "one class a and one package a")
	pkg := Find(root, "a", KindPackage)
	require.NotNil(t, pkg)
	assert.Same(t, pkg, classB.Parent())
	assert.Equal(t, 1, pkg.Len())
	assert.Same(t, root, classA.Parent())

	assert.Same(t, classB, Remove(root, "a/B", KindClass))
	assert.Nil(t, Find(root, "a/B", KindClass))
	assert.True(t, pkg.IsEmpty())
	assert.Same(t, classA, Find(root, "a", KindClass))

	assert.Same(t, classA, Remove(root, "a", KindClass))
	assert.Nil(t, Find(root, "a", KindClass))
	assert.Same(t, pkg, Find(root, "a", KindPackage))
	assert.Equal(t, 2, root.Count())
}

func TestResolve(t *testing.T) {
	root := NewRoot()
	c := AddPath(root, "a/b/C", classFactory, packageFactory)

	assert.Nil(t, Resolve(root, "a/b/C"), "classes are not reachable through container slots")
	assert.Same(t, c, Find(root, "a/b/C", KindClass))
	assert.Equal(t, KindPackage, Resolve(root, "a/b").Kind())
	assert.Nil(t, Resolve(root, "a/x/C"))
	assert.Nil(t, Resolve(root, "a/b/C/D"))
}

func TestFind_WrongKind(t *testing.T) {
	root := NewRoot()
	AddPath(root, "a/b/C", classFactory, packageFactory)

	assert.Nil(t, Find(root, "a/b", KindClass))
	assert.NotNil(t, Find(root, "a/b", KindPackage))
}

func TestResolveOrAdd(t *testing.T) {
	root := NewRoot()

	first, created := ResolveOrAdd(root, "a/b/C", KindClass, classFactory, packageFactory)
	assert.True(t, created)

	again, created := ResolveOrAdd(root, "a/b/C", KindClass, classFactory, packageFactory)
	assert.False(t, created)
	assert.Same(t, first, again)
}

func TestResolveOrAdd_AmbiguousKindCreatesSibling(t *testing.T) {
	root := NewRoot()
	// A package "a/b" exists; a class with the same name is materialized next to it.
	AddPath(root, "a/b/C", classFactory, packageFactory)
	pkg := Resolve(root, "a/b")

	cls, created := ResolveOrAdd(root, "a/b", KindClass, classFactory, packageFactory)
	assert.True(t, created)
	assert.NotSame(t, pkg, cls)
	assert.Same(t, cls, root.ChildContainer("a").ChildLeaf("b"))
	assert.Same(t, pkg, root.ChildContainer("a").ChildContainer("b"))
	assert.Equal(t, 2, root.ChildContainer("a").Len())

	// The package is still reused for classes beneath it.
	d := AddPath(root, "a/b/D", classFactory, packageFactory)
	assert.Same(t, pkg, d.Parent())
}

func TestRemove(t *testing.T) {
	root := NewRoot()
	c := AddPath(root, "a/b/C", classFactory, packageFactory)
	d := AddPath(root, "a/b/D", classFactory, packageFactory)

	removed := Remove(root, "a/b/C", KindClass)
	assert.Same(t, c, removed)
	assert.Nil(t, c.Parent())
	assert.Nil(t, Find(root, "a/b/C", KindClass))
	assert.Same(t, d, Find(root, "a/b/D", KindClass))

	// Empty ancestors stay in place.
	Remove(root, "a/b/D", KindClass)
	assert.NotNil(t, Resolve(root, "a/b"))
	assert.True(t, Resolve(root, "a/b").IsEmpty())
}

func TestRemove_Stale(t *testing.T) {
	root := NewRoot()
	AddPath(root, "a/b/C", classFactory, packageFactory)

	assert.Nil(t, Remove(root, "a/b/X", KindClass))
	assert.Nil(t, Remove(root, "a/b", KindClass))
	assert.Nil(t, Remove(root, "x/b/C", KindClass))
	assert.Equal(t, 4, root.Count())
}
