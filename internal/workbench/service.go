package workbench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/sha1n/relic-results/internal/config"
	"github.com/sha1n/relic-results/internal/domain"
	"github.com/sha1n/relic-results/internal/results"
	"github.com/sha1n/relic-results/internal/search"
	"github.com/sha1n/relic-results/internal/workspace"
)

// ErrNotReady is returned by searches issued before Initialize completes or after Close.
var ErrNotReady = errors.New("workspace not ready")

// Service coordinates the loaded workspace, its file index and the open result views.
type Service struct {
	settings *config.Settings
	loader   *workspace.Loader
	resource *workspace.Resource
	index    *search.Index
	executor *search.Executor
	watcher  *workspace.Watcher
	views    *results.Views
	ready    bool
	mu       sync.RWMutex
}

// NewService creates a new workbench service for the configured workspace.
func NewService(settings *config.Settings) (*Service, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}
	if !settings.Workspace.Enabled() {
		return nil, fmt.Errorf("workspace directory not configured")
	}

	dir, err := filepath.Abs(settings.Workspace.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve workspace directory: %w", err)
	}

	filter := workspace.NewFilter(settings.Workspace.Exclude, settings.Workspace.MaxFileSize)

	return &Service{
		settings: settings,
		loader:   workspace.NewLoader(filter, settings.Workspace.Parallelism),
		resource: workspace.NewResource(dir),
		views:    results.NewViews(settings.Search.EventBuffer, settings.Search.MaxOpenViews),
	}, nil
}

// Initialize loads the workspace, indexes its files and, when enabled, starts
// watching it for changes. The service is ready once it returns nil.
func (s *Service) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ready {
		return nil
	}

	index, err := search.OpenIndex(s.settings.Search.IndexDir)
	if err != nil {
		return err
	}

	start := time.Now()
	dir := s.resource.Name()
	stats, err := s.loader.Load(ctx, dir, s.resource)
	if err != nil {
		_ = index.Close()
		return fmt.Errorf("failed to load workspace: %w", err)
	}
	slog.Info("Workspace loaded",
		"dir", dir,
		"classes", stats.Classes,
		"dex_classes", stats.DexClasses,
		"files", stats.Files,
		"skipped", stats.Skipped,
		"duration", time.Since(start))

	indexed, err := index.IndexFiles(s.resource.Files())
	if err != nil {
		_ = index.Close()
		return fmt.Errorf("failed to index workspace files: %w", err)
	}
	slog.Info("Workspace files indexed", "count", indexed, "path", indexPathLabel(index))

	// Files changed from here on keep the index current.
	s.resource.AddListener(index)

	if s.settings.Workspace.Watch {
		watcher, err := workspace.NewWatcher(dir, s.resource, s.loader)
		if err != nil {
			s.resource.RemoveListener(index)
			_ = index.Close()
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		if err := watcher.Start(ctx); err != nil {
			_ = watcher.Stop()
			s.resource.RemoveListener(index)
			_ = index.Close()
			return fmt.Errorf("failed to start watcher: %w", err)
		}
		s.watcher = watcher
		slog.Info("Watching workspace for changes", "dir", dir)
	}

	s.index = index
	s.executor = search.NewExecutor(s.resource, index, s.settings.Search.MaxResults)
	s.ready = true
	return nil
}

func indexPathLabel(index *search.Index) string {
	if index.Path() == "" {
		return "memory"
	}
	return index.Path()
}

// IsReady returns true once the workspace is loaded and searchable.
func (s *Service) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Resource returns the workspace resource.
func (s *Service) Resource() *workspace.Resource {
	return s.resource
}

// Views returns the registry of open result views.
func (s *Service) Views() *results.Views {
	return s.views
}

// Run executes a search of the given kind and opens a result view for it.
func (s *Service) Run(ctx context.Context, kind, query string) (*results.Synchronizer, error) {
	searchKind, err := domain.ParseSearchKind(kind)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	executor := s.executor
	ready := s.ready
	s.mu.RUnlock()
	if !ready {
		return nil, ErrNotReady
	}

	srch := domain.NewSearch(searchKind, query)
	found, err := executor.Run(ctx, srch)
	if err != nil {
		return nil, err
	}

	return s.views.Open(ctx, s.resource, srch, found)
}

// Close stops watching, discards every open view and closes the index. It is idempotent.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.views.CloseAll()

	var errs []error
	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop watcher: %w", err))
		}
		s.watcher = nil
	}

	if s.index != nil {
		s.resource.RemoveListener(s.index)
		if err := s.index.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close index: %w", err))
		}
		s.index = nil
	}

	s.executor = nil
	s.ready = false
	return errors.Join(errs...)
}
