package results

import (
	"context"
	"errors"
	"sync"
)

// DefaultEventBuffer is the queue capacity used when none is configured.
const DefaultEventBuffer = 256

// ErrStopped is returned by operations submitted after Stop.
var ErrStopped = errors.New("synchronizer stopped")

// Synchronizer serializes every access to a Root on one goroutine: setup,
// workspace events and snapshots are applied in submission order.
type Synchronizer struct {
	root *Root
	ops  chan func()
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

var _ EventSink = (*Synchronizer)(nil)

// NewSynchronizer starts the goroutine owning root. Stop must be called to release it.
func NewSynchronizer(root *Root, buffer int) *Synchronizer {
	if buffer < 1 {
		buffer = DefaultEventBuffer
	}
	s := &Synchronizer{
		root: root,
		ops:  make(chan func(), buffer),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Synchronizer) run() {
	defer close(s.done)
	for {
		select {
		case op := <-s.ops:
			op()
		case <-s.quit:
			// Drain what was queued before Stop.
			for {
				select {
				case op := <-s.ops:
					op()
				default:
					return
				}
			}
		}
	}
}

// Root returns the owned root. Only its immutable accessors (Search,
// Results, Resource, ForceVisible) may be called from other goroutines.
func (s *Synchronizer) Root() *Root {
	return s.root
}

// Submit queues a workspace event. It blocks only while the queue is full
// and drops the event once the synchronizer is stopped.
func (s *Synchronizer) Submit(ev Event) {
	select {
	case <-s.quit:
		return
	default:
	}
	select {
	case s.ops <- func() { s.root.Apply(ev) }:
	case <-s.quit:
	}
}

// Setup builds the tree on the owning goroutine.
func (s *Synchronizer) Setup(ctx context.Context) error {
	var err error
	if doErr := s.do(ctx, func() { err = s.root.Setup() }); doErr != nil {
		return doErr
	}
	return err
}

// Reconcile drops classes the resource no longer holds, on the owning goroutine.
func (s *Synchronizer) Reconcile(ctx context.Context) (int, error) {
	var removed int
	if err := s.do(ctx, func() { removed = s.root.Reconcile() }); err != nil {
		return 0, err
	}
	return removed, nil
}

// Snapshot renders the current tree on the owning goroutine.
func (s *Synchronizer) Snapshot(ctx context.Context) (*View, error) {
	var view *View
	if err := s.do(ctx, func() { view = s.root.View() }); err != nil {
		return nil, err
	}
	return view, nil
}

// do runs fn on the owning goroutine and waits for it to finish.
func (s *Synchronizer) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	op := func() {
		defer close(finished)
		fn()
	}

	select {
	case <-s.quit:
		return ErrStopped
	default:
	}
	select {
	case s.ops <- op:
	case <-s.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-s.done:
		// The loop may have run op while draining.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop runs the operations already queued, then ends the goroutine. It is
// idempotent and waits for the goroutine to exit.
func (s *Synchronizer) Stop() {
	s.once.Do(func() { close(s.quit) })
	<-s.done
}
