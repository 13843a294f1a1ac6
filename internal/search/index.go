// Package search runs searches over a workspace resource and produces the
// results that result trees are built from.
package search

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bsearch "github.com/blevesearch/bleve/v2/search"
	"github.com/sha1n/relic-results/internal/domain"
	"github.com/sha1n/relic-results/internal/workspace"
)

const (
	// IndexSuffix is the suffix for index directories
	IndexSuffix = ".bleve"

	// MaxBatchSize is the maximum number of documents per batch
	MaxBatchSize = 100

	// MaxBatchBytes is the maximum bytes per batch (10MB)
	MaxBatchBytes = 10 * 1024 * 1024
)

// FileMatch lists the exact substrings of one file that matched a query, in
// order of appearance.
type FileMatch struct {
	Path  string
	Texts []string
}

// Index is a full-text index over workspace files. It implements
// workspace.FileListener to follow file changes.
type Index struct {
	index bleve.Index
	path  string
}

var _ workspace.FileListener = (*Index)(nil)

// CreateIndexMapping creates the Bleve index mapping for file documents.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Content field - analyzed for full-text search, term vectors give match offsets
	contentField := bleve.NewTextFieldMapping()
	contentField.Analyzer = standard.Name
	contentField.Store = true
	contentField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(domain.FileFieldContent, contentField)

	// Path - keyword, stored
	pathField := bleve.NewTextFieldMapping()
	pathField.Analyzer = keyword.Name
	pathField.Store = true
	docMapping.AddFieldMappingsAt(domain.FileFieldPath, pathField)

	// Extension - keyword, stored
	extField := bleve.NewTextFieldMapping()
	extField.Analyzer = keyword.Name
	extField.Store = true
	docMapping.AddFieldMappingsAt(domain.FileFieldExtension, extField)

	// ID - stored but not indexed (we use the document ID)
	idField := bleve.NewTextFieldMapping()
	idField.Index = false
	idField.Store = true
	docMapping.AddFieldMappingsAt(domain.FileFieldID, idField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// OpenIndex creates an empty index. An empty dir keeps the index in memory;
// otherwise any index left in dir by a previous run is replaced, since the
// workspace is reloaded from disk on every start.
func OpenIndex(dir string) (*Index, error) {
	if dir == "" {
		index, err := bleve.NewMemOnly(CreateIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create index: %w", err)
		}
		return &Index{index: index}, nil
	}

	indexPath := filepath.Join(dir, "workspace"+IndexSuffix)
	if err := os.RemoveAll(indexPath); err != nil {
		return nil, fmt.Errorf("failed to remove stale index: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	index, err := bleve.New(indexPath, CreateIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return &Index{index: index, path: indexPath}, nil
}

// Path returns the on-disk location of the index, or "" for memory indexes.
func (i *Index) Path() string {
	return i.path
}

func newDocument(f *domain.FileInfo) domain.FileDocument {
	return domain.FileDocument{
		ID:        f.Name,
		Path:      f.Name,
		Extension: workspace.Extension(f.Name),
		Content:   string(f.Content),
	}
}

// IndexFile adds or replaces a single file.
func (i *Index) IndexFile(f *domain.FileInfo) error {
	doc := newDocument(f)
	if err := i.index.Index(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to index %s: %w", f.Name, err)
	}
	return nil
}

// IndexFiles indexes files in batches and returns the number indexed.
func (i *Index) IndexFiles(files []*domain.FileInfo) (int, error) {
	batch := i.index.NewBatch()
	batchSize := 0
	batchBytes := 0
	totalIndexed := 0

	for _, f := range files {
		doc := newDocument(f)
		if err := batch.Index(doc.ID, doc); err != nil {
			continue // Skip on indexing error
		}
		batchSize++
		batchBytes += len(f.Content)

		// Flush batch if needed
		if batchSize >= MaxBatchSize || batchBytes >= MaxBatchBytes {
			if err := i.index.Batch(batch); err != nil {
				return totalIndexed, fmt.Errorf("batch index failed: %w", err)
			}
			totalIndexed += batchSize
			batch = i.index.NewBatch()
			batchSize = 0
			batchBytes = 0
		}
	}

	// Flush remaining batch
	if batchSize > 0 {
		if err := i.index.Batch(batch); err != nil {
			return totalIndexed, fmt.Errorf("final batch index failed: %w", err)
		}
		totalIndexed += batchSize
	}

	return totalIndexed, nil
}

// DeleteFile removes a file from the index.
func (i *Index) DeleteFile(name string) error {
	if err := i.index.Delete(name); err != nil {
		return fmt.Errorf("failed to delete %s from index: %w", name, err)
	}
	return nil
}

// DocCount returns the number of indexed files.
func (i *Index) DocCount() (uint64, error) {
	return i.index.DocCount()
}

// Match runs a full-text query over file content and returns, for up to
// limit files, every matched substring.
func (i *Index) Match(ctx context.Context, query string, limit int) ([]FileMatch, error) {
	q := bleve.NewMatchQuery(query)
	q.SetField(domain.FileFieldContent)

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{domain.FileFieldPath, domain.FileFieldContent}
	req.IncludeLocations = true
	req.SortBy([]string{domain.FileFieldPath})

	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	matches := make([]FileMatch, 0, len(res.Hits))
	for _, hit := range res.Hits {
		path, _ := hit.Fields[domain.FileFieldPath].(string)
		content, _ := hit.Fields[domain.FileFieldContent].(string)
		if path == "" {
			path = hit.ID
		}

		var locations []*bsearch.Location
		for _, termLocations := range hit.Locations[domain.FileFieldContent] {
			locations = append(locations, termLocations...)
		}
		slices.SortFunc(locations, func(a, b *bsearch.Location) int {
			return cmp.Compare(a.Start, b.Start)
		})

		m := FileMatch{Path: path}
		for _, loc := range locations {
			if loc.End <= uint64(len(content)) && loc.Start < loc.End {
				m.Texts = append(m.Texts, content[loc.Start:loc.End])
			}
		}
		if len(m.Texts) > 0 {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// Close releases the index.
func (i *Index) Close() error {
	return i.index.Close()
}

// OnNewFile indexes a file added to the workspace.
func (i *Index) OnNewFile(_ *workspace.Resource, f *domain.FileInfo) {
	if err := i.IndexFile(f); err != nil {
		slog.Warn("Failed to index new file", "path", f.Name, "error", err)
	}
}

// OnUpdateFile reindexes a changed file.
func (i *Index) OnUpdateFile(_ *workspace.Resource, _, f *domain.FileInfo) {
	if err := i.IndexFile(f); err != nil {
		slog.Warn("Failed to reindex file", "path", f.Name, "error", err)
	}
}

// OnRemoveFile drops a removed file from the index.
func (i *Index) OnRemoveFile(_ *workspace.Resource, f *domain.FileInfo) {
	if err := i.DeleteFile(f.Name); err != nil {
		slog.Warn("Failed to remove file from index", "path", f.Name, "error", err)
	}
}
