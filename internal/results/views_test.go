package results

import (
	"context"
	"testing"
	"time"

	"github.com/sha1n/relic-results/internal/domain"
	"github.com/sha1n/relic-results/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViews_OpenFollowsResourceRemovals(t *testing.T) {
	res := workspace.NewResource("app")
	info := class("com/app/Main")
	res.PutDexClass("classes.dex", info)

	views := NewViews(8, 0)
	t.Cleanup(views.CloseAll)

	search := domain.NewSearch(domain.SearchMember, "run")
	s, err := views.Open(context.Background(), res, search, []domain.Result{classAt(info)})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ListenerCount(), "bridge listens for class and dex class events")

	got, ok := views.Get(search.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	res.RemoveDexClass("classes.dex", "com/app/Main")

	assert.Eventually(t, func() bool {
		view, err := s.Snapshot(context.Background())
		return err == nil && view.Count() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestViews_OpenInvalidResultsRegistersNothing(t *testing.T) {
	res := workspace.NewResource("app")
	views := NewViews(8, 0)

	_, err := views.Open(context.Background(), res, domain.NewSearch(domain.SearchText, "q"), []domain.Result{{}})
	require.ErrorIs(t, err, domain.ErrInvalidResult)
	assert.Zero(t, views.Len())
	assert.Zero(t, res.ListenerCount())
}

func TestViews_Close(t *testing.T) {
	res := workspace.NewResource("app")
	views := NewViews(8, 0)
	search := domain.NewSearch(domain.SearchText, "q")

	_, err := views.Open(context.Background(), res, search, nil)
	require.NoError(t, err)

	assert.True(t, views.Close(search.ID))
	assert.False(t, views.Close(search.ID))
	assert.Zero(t, res.ListenerCount())

	_, ok := views.Get(search.ID)
	assert.False(t, ok)
}

func TestViews_ReopenReplacesView(t *testing.T) {
	res := workspace.NewResource("app")
	views := NewViews(8, 0)
	t.Cleanup(views.CloseAll)
	search := domain.NewSearch(domain.SearchText, "q")

	first, err := views.Open(context.Background(), res, search, nil)
	require.NoError(t, err)
	second, err := views.Open(context.Background(), res, search, nil)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, 1, views.Len())
	assert.Equal(t, 2, res.ListenerCount())

	_, err = first.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}

func TestViews_CloseAll(t *testing.T) {
	res := workspace.NewResource("app")
	views := NewViews(8, 0)

	a := domain.NewSearch(domain.SearchText, "a")
	b := domain.NewSearch(domain.SearchText, "b")
	_, err := views.Open(context.Background(), res, a, nil)
	require.NoError(t, err)
	_, err = views.Open(context.Background(), res, b, nil)
	require.NoError(t, err)
	assert.Len(t, views.IDs(), 2)

	views.CloseAll()
	assert.Zero(t, views.Len())
	assert.Zero(t, res.ListenerCount())
}

func TestViews_OpenDropsClassRemovedAfterSearch(t *testing.T) {
	res := workspace.NewResource("app")
	gone, kept := class("com/app/Gone"), class("com/app/Kept")
	res.PutDexClass("classes.dex", gone)
	res.PutDexClass("classes.dex", kept)

	// The results are captured while both classes exist.
	results := []domain.Result{classAt(gone), classAt(kept)}
	res.RemoveDexClass("classes.dex", "com/app/Gone")

	views := NewViews(8, 0)
	t.Cleanup(views.CloseAll)
	s, err := views.Open(context.Background(), res, domain.NewSearch(domain.SearchText, "q"), results)
	require.NoError(t, err)

	view, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, view.Count(), "com, app, Kept")
	require.Len(t, view.Nodes, 1)
	app := view.Nodes[0].Children[0]
	require.Len(t, app.Children, 1)
	assert.Equal(t, "Kept", app.Children[0].Name)
}

func TestViews_EvictsOldestBeyondLimit(t *testing.T) {
	res := workspace.NewResource("app")
	views := NewViews(8, 2)
	t.Cleanup(views.CloseAll)

	a := domain.NewSearch(domain.SearchText, "a")
	b := domain.NewSearch(domain.SearchText, "b")
	c := domain.NewSearch(domain.SearchText, "c")

	first, err := views.Open(context.Background(), res, a, nil)
	require.NoError(t, err)
	_, err = views.Open(context.Background(), res, b, nil)
	require.NoError(t, err)
	// Reopening a moves it behind b.
	_, err = views.Open(context.Background(), res, a, nil)
	require.NoError(t, err)
	_, err = views.Open(context.Background(), res, c, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, views.Len())
	_, ok := views.Get(b.ID)
	assert.False(t, ok, "oldest view is evicted")
	_, ok = views.Get(a.ID)
	assert.True(t, ok)
	_, ok = views.Get(c.ID)
	assert.True(t, ok)
	assert.Equal(t, 4, res.ListenerCount(), "two class and two dex registrations remain")

	_, err = first.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrStopped)
}
