package results

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/sha1n/relic-results/internal/domain"
	"github.com/sha1n/relic-results/internal/workspace"
)

// openView ties a synchronizer to the listener registered for it.
type openView struct {
	sync   *Synchronizer
	bridge *Bridge
}

// Views tracks the result trees currently open, keyed by search ID.
type Views struct {
	mu      sync.Mutex
	views   map[string]*openView
	order   []string
	buffer  int
	maxOpen int
}

// NewViews creates an empty registry. buffer sizes each view's event queue.
// When maxOpen is positive, opening a view beyond it closes the oldest one.
func NewViews(buffer, maxOpen int) *Views {
	return &Views{
		views:   make(map[string]*openView),
		buffer:  buffer,
		maxOpen: maxOpen,
	}
}

// Open builds the tree for a search and starts following class removals in
// resource. The listener is registered before the tree is built, and classes
// removed since the search ran are dropped once it is. On a build error
// nothing is registered.
func (v *Views) Open(ctx context.Context, resource *workspace.Resource, search domain.Search, results []domain.Result) (*Synchronizer, error) {
	s := NewSynchronizer(NewRoot(resource, search, results), v.buffer)
	bridge := NewBridge(s)
	resource.AddListener(bridge)

	if err := s.Setup(ctx); err != nil {
		resource.RemoveListener(bridge)
		s.Stop()
		return nil, err
	}
	if _, err := s.Reconcile(ctx); err != nil {
		resource.RemoveListener(bridge)
		s.Stop()
		return nil, err
	}

	v.mu.Lock()
	previous := v.views[search.ID]
	v.views[search.ID] = &openView{sync: s, bridge: bridge}
	v.order = append(slices.DeleteFunc(v.order, func(id string) bool { return id == search.ID }), search.ID)
	var evicted []*openView
	for v.maxOpen > 0 && len(v.order) > v.maxOpen {
		id := v.order[0]
		v.order = v.order[1:]
		evicted = append(evicted, v.views[id])
		delete(v.views, id)
		slog.Debug("Evicting oldest result view", "search_id", id, "max_open_views", v.maxOpen)
	}
	v.mu.Unlock()

	if previous != nil {
		v.release(previous)
	} else {
		openViews.Inc()
	}
	for _, ov := range evicted {
		v.release(ov)
		openViews.Dec()
	}
	return s, nil
}

// Get returns the synchronizer for an open view.
func (v *Views) Get(id string) (*Synchronizer, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ov, ok := v.views[id]
	if !ok {
		return nil, false
	}
	return ov.sync, true
}

// IDs returns the open view IDs in sorted order.
func (v *Views) IDs() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Sorted(maps.Keys(v.views))
}

// Len returns the number of open views.
func (v *Views) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.views)
}

// Close discards a view, unregistering its listener. It reports whether the view was open.
func (v *Views) Close(id string) bool {
	v.mu.Lock()
	ov, ok := v.views[id]
	delete(v.views, id)
	v.order = slices.DeleteFunc(v.order, func(other string) bool { return other == id })
	v.mu.Unlock()

	if !ok {
		return false
	}
	v.release(ov)
	openViews.Dec()
	return true
}

// CloseAll discards every open view.
func (v *Views) CloseAll() {
	for _, id := range v.IDs() {
		v.Close(id)
	}
}

func (v *Views) release(ov *openView) {
	ov.sync.Root().Resource().RemoveListener(ov.bridge)
	ov.sync.Stop()
}
