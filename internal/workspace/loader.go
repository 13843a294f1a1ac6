package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/sha1n/relic-results/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	// SmaliExtension marks files parsed as classes.
	SmaliExtension = "smali"

	// DefaultDexName is the bundle for classes under the top-level smali directory.
	DefaultDexName = "classes.dex"

	smaliDir = "smali"
)

// LoadStats summarizes a workspace load.
type LoadStats struct {
	Classes    int
	DexClasses int
	Files      int
	Skipped    int
}

// Loader reads a workspace directory into a Resource.
type Loader struct {
	filter      *Filter
	parallelism int
}

// NewLoader creates a loader. A parallelism below one uses GOMAXPROCS.
func NewLoader(filter *Filter, parallelism int) *Loader {
	if parallelism < 1 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	return &Loader{
		filter:      filter,
		parallelism: parallelism,
	}
}

// Filter returns the loader's path filter.
func (l *Loader) Filter() *Filter {
	return l.filter
}

// entry is a parsed workspace path ready to be put into a resource.
type entry struct {
	path  string
	dex   string
	class *domain.ClassInfo
	file  *domain.FileInfo
}

// DexNameFor returns the dex bundle for a smali path, or "" when the class
// is not part of a dex bundle.
func DexNameFor(relPath string) string {
	first, _, ok := strings.Cut(filepath.ToSlash(relPath), "/")
	if !ok {
		return ""
	}
	if first == smaliDir {
		return DefaultDexName
	}
	if name, ok := strings.CutPrefix(first, smaliDir+"_"); ok && name != "" {
		return name + ".dex"
	}
	return ""
}

// Load walks dir and puts every accepted path into res. Files are read and
// parsed concurrently; entries are put in walk order.
func (l *Loader) Load(ctx context.Context, dir string, res *Resource) (LoadStats, error) {
	var stats LoadStats

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries with errors
		}
		relPath, err := filepath.Rel(dir, path)
		if err != nil || relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if l.filter.ShouldExcludeDir(relPath) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || l.filter.ShouldExclude(relPath) {
			return nil
		}
		paths = append(paths, relPath)
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	entries := make([]*entry, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.parallelism)
	for i, relPath := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e, err := l.read(dir, relPath)
			if err != nil {
				slog.Warn("Skipping workspace file", "path", relPath, "error", err)
				return nil
			}
			entries[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	for _, e := range entries {
		if e == nil {
			stats.Skipped++
			continue
		}
		l.put(res, e)
		switch {
		case e.file != nil:
			stats.Files++
		case e.dex != "":
			stats.DexClasses++
		default:
			stats.Classes++
		}
	}
	return stats, nil
}

// LoadFile reloads a single path. It reports whether the resource changed;
// content whose hash matches the loaded version is ignored.
func (l *Loader) LoadFile(dir, relPath string, res *Resource) (bool, error) {
	relPath = filepath.ToSlash(relPath)
	if l.filter.ShouldExclude(relPath) {
		return false, nil
	}
	e, err := l.read(dir, relPath)
	if err != nil {
		return false, err
	}
	if e == nil {
		return res.RemoveSource(relPath), nil
	}

	if prev, ok := res.SourceHash(relPath); ok && prev == entryHash(e) {
		return false, nil
	}
	l.put(res, e)
	return true, nil
}

// read loads and parses one path. It returns a nil entry for paths the
// filter rejects after inspecting size or content.
func (l *Loader) read(dir, relPath string) (*entry, error) {
	fullPath := filepath.Join(dir, filepath.FromSlash(relPath))
	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, err
	}
	if info.IsDir() || l.filter.TooLarge(info.Size()) {
		return nil, nil
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, err
	}
	if IsBinary(content) {
		return nil, nil
	}
	hash := xxhash.Sum64(content)

	if Extension(relPath) != SmaliExtension {
		return &entry{
			path: relPath,
			file: &domain.FileInfo{Name: relPath, Content: content, Hash: hash},
		}, nil
	}

	class, err := ParseSmali(relPath, content)
	if err != nil {
		if errors.Is(err, ErrNotSmali) {
			return nil, nil
		}
		return nil, err
	}
	class.Hash = hash
	return &entry{path: relPath, dex: DexNameFor(relPath), class: class}, nil
}

// put stores e, first removing an entry previously loaded from the same
// path under a different name.
func (l *Loader) put(res *Resource, e *entry) {
	if prev, ok := res.sourceName(e.path); ok && !sameEntry(prev, e) {
		res.RemoveSource(e.path)
	}

	switch {
	case e.file != nil:
		res.PutFile(e.file)
	case e.dex != "":
		res.PutDexClass(e.dex, e.class)
	default:
		res.PutClass(e.class)
	}
}

func sameEntry(ref sourceRef, e *entry) bool {
	switch {
	case e.file != nil:
		return ref.kind == sourceFile && ref.name == e.file.Name
	case e.dex != "":
		return ref.kind == sourceDexClass && ref.dex == e.dex && ref.name == e.class.Name
	default:
		return ref.kind == sourceClass && ref.name == e.class.Name
	}
}

func entryHash(e *entry) uint64 {
	if e.file != nil {
		return e.file.Hash
	}
	return e.class.Hash
}
