package results

import (
	"log/slog"

	"github.com/sha1n/relic-results/internal/domain"
	"github.com/sha1n/relic-results/internal/tree"
	"github.com/sha1n/relic-results/internal/workspace"
)

// EventKind identifies a workspace class mutation.
type EventKind int

const (
	ClassAdded EventKind = iota
	ClassRemoved
	ClassUpdated
	DexClassAdded
	DexClassRemoved
	DexClassUpdated
)

var eventKindNames = [...]string{
	ClassAdded:      "class_added",
	ClassRemoved:    "class_removed",
	ClassUpdated:    "class_updated",
	DexClassAdded:   "dex_class_added",
	DexClassRemoved: "dex_class_removed",
	DexClassUpdated: "dex_class_updated",
}

// String returns the string representation of the kind.
func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// IsRemoval reports whether the event removes a class.
func (k EventKind) IsRemoval() bool {
	return k == ClassRemoved || k == DexClassRemoved
}

// Event is a class mutation reported by a workspace resource.
type Event struct {
	Kind EventKind
	// Name is the internal name of the affected class.
	Name string
	// DexName is set for dex class events.
	DexName  string
	Old, New *domain.ClassInfo
}

// EventSink receives workspace events.
type EventSink interface {
	Submit(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

// Submit calls f(ev).
func (f EventSinkFunc) Submit(ev Event) {
	f(ev)
}

// Apply updates the tree for a workspace event and reports whether it
// changed. Removals detach the class node, leaving any emptied packages in
// place. Additions and updates do not change the tree.
func (r *Root) Apply(ev Event) bool {
	if !ev.Kind.IsRemoval() {
		treeEventsIgnored.WithLabelValues(ev.Kind.String()).Inc()
		slog.Debug("Ignoring class mutation in result tree", "search_id", r.search.ID, "event", ev.Kind, "class", ev.Name)
		return false
	}

	if tree.Remove(r.node, ev.Name, tree.KindClass) == nil {
		treeEventsIgnored.WithLabelValues(ev.Kind.String()).Inc()
		slog.Debug("Removed class not present in result tree", "search_id", r.search.ID, "class", ev.Name)
		return false
	}
	treeNodesRemoved.Inc()
	slog.Debug("Removed class from result tree", "search_id", r.search.ID, "class", ev.Name, "dex", ev.DexName)
	return true
}

// Reconcile drops class nodes whose class is no longer held by the resource
// and returns how many were removed. It covers removals that happened before
// the tree started following the resource.
func (r *Root) Reconcile() int {
	var stale []*tree.Node
	r.node.Walk(func(n *tree.Node) bool {
		if n.Kind() != tree.KindClass {
			return true
		}
		if info, ok := n.Info().(*domain.ClassInfo); ok && !r.resource.HasClass(info.Name) {
			stale = append(stale, n)
		}
		return false
	})

	for _, n := range stale {
		n.Detach()
	}
	if len(stale) > 0 {
		treeNodesRemoved.Add(float64(len(stale)))
		slog.Debug("Reconciled result tree with workspace", "search_id", r.search.ID, "removed", len(stale))
	}
	return len(stale)
}

// Bridge forwards workspace class notifications to an EventSink.
type Bridge struct {
	sink EventSink
}

var (
	_ workspace.ClassListener    = (*Bridge)(nil)
	_ workspace.DexClassListener = (*Bridge)(nil)
)

// NewBridge creates a bridge forwarding to sink.
func NewBridge(sink EventSink) *Bridge {
	return &Bridge{sink: sink}
}

func (b *Bridge) OnNewClass(_ *workspace.Resource, newValue *domain.ClassInfo) {
	b.sink.Submit(Event{Kind: ClassAdded, Name: newValue.Name, New: newValue})
}

func (b *Bridge) OnRemoveClass(_ *workspace.Resource, oldValue *domain.ClassInfo) {
	b.sink.Submit(Event{Kind: ClassRemoved, Name: oldValue.Name, Old: oldValue})
}

func (b *Bridge) OnUpdateClass(_ *workspace.Resource, oldValue, newValue *domain.ClassInfo) {
	b.sink.Submit(Event{Kind: ClassUpdated, Name: newValue.Name, Old: oldValue, New: newValue})
}

func (b *Bridge) OnNewDexClass(_ *workspace.Resource, dexName string, newValue *domain.ClassInfo) {
	b.sink.Submit(Event{Kind: DexClassAdded, Name: newValue.Name, DexName: dexName, New: newValue})
}

func (b *Bridge) OnRemoveDexClass(_ *workspace.Resource, dexName string, oldValue *domain.ClassInfo) {
	b.sink.Submit(Event{Kind: DexClassRemoved, Name: oldValue.Name, DexName: dexName, Old: oldValue})
}

func (b *Bridge) OnUpdateDexClass(_ *workspace.Resource, dexName string, oldValue, newValue *domain.ClassInfo) {
	b.sink.Submit(Event{Kind: DexClassUpdated, Name: newValue.Name, DexName: dexName, Old: oldValue, New: newValue})
}
