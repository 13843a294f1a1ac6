package results

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sha1n/relic-results/internal/domain"
	"github.com/sha1n/relic-results/internal/tree"
)

// Setup builds the tree from the results. It runs once: a root that already
// has children is left untouched. Every result is validated before the tree
// is modified, so a malformed result leaves the tree empty.
func (r *Root) Setup() error {
	if !r.node.IsEmpty() {
		return nil
	}
	if err := domain.ValidateAll(r.results); err != nil {
		treeBuilds.WithLabelValues("invalid").Inc()
		return err
	}

	start := time.Now()
	b := &builder{root: r.node, created: make(map[tree.Kind]int)}
	for i, result := range r.results {
		if err := b.place(result); err != nil {
			r.node = tree.NewRoot()
			treeBuilds.WithLabelValues("invalid").Inc()
			return &domain.ValidationError{Index: i, Err: err}
		}
	}
	treeBuildSeconds.Observe(time.Since(start).Seconds())
	treeBuilds.WithLabelValues("ok").Inc()
	for kind, n := range b.created {
		treeNodesCreated.WithLabelValues(kind.String()).Add(float64(n))
	}

	slog.Debug("Result tree built",
		"search_id", r.search.ID,
		"results", len(r.results),
		"nodes", r.node.Count()-1,
		"duration", time.Since(start))
	return nil
}

// builder places results into a tree, counting the nodes it creates.
type builder struct {
	root    *tree.Node
	created map[tree.Kind]int
}

func (b *builder) place(result domain.Result) error {
	switch loc := result.Location.(type) {
	case *domain.ClassLocation:
		b.placeClass(loc)
	case *domain.FileLocation:
		b.placeFile(loc, result)
	default:
		return fmt.Errorf("%w: %T", domain.ErrUnrecognizedLocation, loc)
	}
	return nil
}

func (b *builder) placeClass(loc *domain.ClassLocation) {
	class := b.classNode(loc.Class)
	if loc.IsDeclaration() {
		return
	}

	switch {
	case loc.Field != nil:
		field := b.fieldNode(class, loc.Field)
		if loc.Annotation != nil {
			field.SetAnnotationType(loc.Annotation.Type)
		}
	case loc.Method != nil:
		method := b.methodNode(class, loc.Method, loc.Instruction != nil)
		if loc.Instruction != nil {
			method.AddChild(b.instructionNode(loc.Instruction))
		} else if loc.Annotation != nil {
			method.SetAnnotationType(loc.Annotation.Type)
		}
	case loc.Annotation != nil:
		class.SetAnnotationType(loc.Annotation.Type)
	}
}

func (b *builder) placeFile(loc *domain.FileLocation, result domain.Result) {
	file := b.fileNode(loc.File)
	if result.HasMatchedValue() {
		file.AddChild(b.rawValueNode(result.MatchedValue()))
	}
}

func (b *builder) newNode(kind tree.Kind, key string, slot tree.Slot, info any) *tree.Node {
	b.created[kind]++
	return tree.New(kind, key, slot, info)
}

func (b *builder) packageNode(segment string) *tree.Node {
	return b.newNode(tree.KindPackage, segment, tree.SlotContainer, nil)
}

func (b *builder) directoryNode(segment string) *tree.Node {
	return b.newNode(tree.KindDirectory, segment, tree.SlotContainer, nil)
}

// classNode resolves the class along its internal name, creating packages
// and the class as needed. The class takes the leaf slot so a package of the
// same name is reused rather than shadowed.
func (b *builder) classNode(info *domain.ClassInfo) *tree.Node {
	n, _ := tree.ResolveOrAdd(b.root, info.Name, tree.KindClass, func(segment string) *tree.Node {
		return b.newNode(tree.KindClass, segment, tree.SlotLeaf, info)
	}, b.packageNode)
	return n
}

// fileNode resolves the file along its path, creating directories and the
// file as needed.
func (b *builder) fileNode(info *domain.FileInfo) *tree.Node {
	n, _ := tree.ResolveOrAdd(b.root, info.Name, tree.KindFile, func(segment string) *tree.Node {
		return b.newNode(tree.KindFile, segment, tree.SlotLeaf, info)
	}, b.directoryNode)
	return n
}

// methodNode finds the method under its class in either slot. A method
// created to hold an instruction takes the container slot.
func (b *builder) methodNode(class *tree.Node, info *domain.MethodInfo, forInstruction bool) *tree.Node {
	key := info.Key()
	if n := class.ChildLeaf(key); n != nil && n.Kind() == tree.KindMethod {
		return n
	}
	if n := class.ChildContainer(key); n != nil && n.Kind() == tree.KindMethod {
		return n
	}

	slot := tree.SlotLeaf
	if forInstruction {
		slot = tree.SlotContainer
	}
	n := b.newNode(tree.KindMethod, key, slot, info)
	class.AddChild(n)
	return n
}

func (b *builder) fieldNode(class *tree.Node, info *domain.FieldInfo) *tree.Node {
	key := info.Key()
	if n := class.ChildLeaf(key); n != nil && n.Kind() == tree.KindField {
		return n
	}
	n := b.newNode(tree.KindField, key, tree.SlotLeaf, info)
	n.SetLabel(info.Name + ":" + info.Descriptor)
	class.AddChild(n)
	return n
}

// instructionNode creates a fresh leaf; repeated matches on the same
// instruction each get their own node.
func (b *builder) instructionNode(info *domain.Instruction) *tree.Node {
	n := b.newNode(tree.KindInstruction, uuid.NewString(), tree.SlotLeaf, info)
	n.SetLabel(info.String())
	return n
}

// rawValueNode creates a fresh leaf displaying a matched value.
func (b *builder) rawValueNode(value string) *tree.Node {
	n := b.newNode(tree.KindRawValue, uuid.NewString(), tree.SlotLeaf, value)
	n.SetLabel(value)
	return n
}
