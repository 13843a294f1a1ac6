// Package workspace holds the classes and files of a loaded workspace and
// notifies listeners when they change.
package workspace

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/sha1n/relic-results/internal/domain"
)

type sourceKind int

const (
	sourceClass sourceKind = iota
	sourceDexClass
	sourceFile
)

// sourceRef records which entry was loaded from a workspace path.
type sourceRef struct {
	kind sourceKind
	dex  string
	name string
	hash uint64
}

// DexClass pairs a class with the dex bundle holding it.
type DexClass struct {
	DexName string
	Class   *domain.ClassInfo
}

// Resource is a workspace unit holding JVM classes, dex bundles and files.
// Mutations notify registered listeners synchronously on the calling
// goroutine, after the resource lock is released.
type Resource struct {
	name string

	mu         sync.RWMutex
	classes    map[string]*domain.ClassInfo
	dexClasses map[string]map[string]*domain.ClassInfo
	files      map[string]*domain.FileInfo
	sources    map[string]sourceRef

	listenersMu       sync.RWMutex
	classListeners    []ClassListener
	dexClassListeners []DexClassListener
	fileListeners     []FileListener
}

// NewResource creates an empty resource.
func NewResource(name string) *Resource {
	return &Resource{
		name:       name,
		classes:    make(map[string]*domain.ClassInfo),
		dexClasses: make(map[string]map[string]*domain.ClassInfo),
		files:      make(map[string]*domain.FileInfo),
		sources:    make(map[string]sourceRef),
	}
}

// Name returns the resource name.
func (r *Resource) Name() string {
	return r.name
}

// AddListener registers l for every listener interface it implements.
// It reports whether l implements at least one.
func (r *Resource) AddListener(l any) bool {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()

	added := false
	if cl, ok := l.(ClassListener); ok {
		r.classListeners = append(r.classListeners, cl)
		added = true
	}
	if dl, ok := l.(DexClassListener); ok {
		r.dexClassListeners = append(r.dexClassListeners, dl)
		added = true
	}
	if fl, ok := l.(FileListener); ok {
		r.fileListeners = append(r.fileListeners, fl)
		added = true
	}
	return added
}

// RemoveListener unregisters l from every listener list it was added to.
// l must be comparable, which holds for pointer receivers.
func (r *Resource) RemoveListener(l any) {
	r.listenersMu.Lock()
	defer r.listenersMu.Unlock()

	r.classListeners = slices.DeleteFunc(r.classListeners, func(x ClassListener) bool { return any(x) == l })
	r.dexClassListeners = slices.DeleteFunc(r.dexClassListeners, func(x DexClassListener) bool { return any(x) == l })
	r.fileListeners = slices.DeleteFunc(r.fileListeners, func(x FileListener) bool { return any(x) == l })
}

// ListenerCount returns the number of distinct registrations across all lists.
func (r *Resource) ListenerCount() int {
	r.listenersMu.RLock()
	defer r.listenersMu.RUnlock()
	return len(r.classListeners) + len(r.dexClassListeners) + len(r.fileListeners)
}

// Class returns the JVM class with the given internal name.
func (r *Resource) Class(name string) (*domain.ClassInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[name]
	return c, ok
}

// HasClass reports whether a JVM class or any dex bundle holds a class with the given name.
func (r *Resource) HasClass(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.classes[name]; ok {
		return true
	}
	for _, bundle := range r.dexClasses {
		if _, ok := bundle[name]; ok {
			return true
		}
	}
	return false
}

// Classes returns the JVM classes ordered by name.
func (r *Resource) Classes() []*domain.ClassInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.classes)
}

// DexNames returns the names of the dex bundles ordered by name.
func (r *Resource) DexNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.dexClasses))
}

// DexClass returns the class with the given name inside a dex bundle.
func (r *Resource) DexClass(dexName, name string) (*domain.ClassInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.dexClasses[dexName][name]
	return c, ok
}

// DexClasses returns every dex class ordered by bundle then class name.
func (r *Resource) DexClasses() []DexClass {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []DexClass
	for _, dexName := range slices.Sorted(maps.Keys(r.dexClasses)) {
		for _, c := range sortedValues(r.dexClasses[dexName]) {
			out = append(out, DexClass{DexName: dexName, Class: c})
		}
	}
	return out
}

// AllClasses returns JVM classes followed by dex classes.
func (r *Resource) AllClasses() []*domain.ClassInfo {
	classes := r.Classes()
	for _, dc := range r.DexClasses() {
		classes = append(classes, dc.Class)
	}
	return classes
}

// File returns the file with the given path.
func (r *Resource) File(name string) (*domain.FileInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[name]
	return f, ok
}

// Files returns the files ordered by path.
func (r *Resource) Files() []*domain.FileInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedValues(r.files)
}

// SourceHash returns the content hash recorded for a workspace path.
func (r *Resource) SourceHash(path string) (uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.sources[path]
	return ref.hash, ok
}

// PutClass adds or replaces a JVM class.
func (r *Resource) PutClass(c *domain.ClassInfo) {
	r.mu.Lock()
	old := r.classes[c.Name]
	r.classes[c.Name] = c
	r.trackLocked(c.Source, sourceRef{kind: sourceClass, name: c.Name, hash: c.Hash})
	r.mu.Unlock()

	for _, l := range r.snapshotClassListeners() {
		if old == nil {
			l.OnNewClass(r, c)
		} else {
			l.OnUpdateClass(r, old, c)
		}
	}
}

// RemoveClass removes a JVM class by name.
func (r *Resource) RemoveClass(name string) (*domain.ClassInfo, bool) {
	r.mu.Lock()
	old, ok := r.classes[name]
	if ok {
		delete(r.classes, name)
		r.untrackLocked(old.Source)
	}
	r.mu.Unlock()

	if !ok {
		return nil, false
	}
	for _, l := range r.snapshotClassListeners() {
		l.OnRemoveClass(r, old)
	}
	return old, true
}

// PutDexClass adds or replaces a class inside a dex bundle, creating the bundle if needed.
func (r *Resource) PutDexClass(dexName string, c *domain.ClassInfo) {
	r.mu.Lock()
	bundle, ok := r.dexClasses[dexName]
	if !ok {
		bundle = make(map[string]*domain.ClassInfo)
		r.dexClasses[dexName] = bundle
	}
	old := bundle[c.Name]
	bundle[c.Name] = c
	r.trackLocked(c.Source, sourceRef{kind: sourceDexClass, dex: dexName, name: c.Name, hash: c.Hash})
	r.mu.Unlock()

	for _, l := range r.snapshotDexClassListeners() {
		if old == nil {
			l.OnNewDexClass(r, dexName, c)
		} else {
			l.OnUpdateDexClass(r, dexName, old, c)
		}
	}
}

// RemoveDexClass removes a class from a dex bundle. Empty bundles are dropped.
func (r *Resource) RemoveDexClass(dexName, name string) (*domain.ClassInfo, bool) {
	r.mu.Lock()
	old, ok := r.dexClasses[dexName][name]
	if ok {
		delete(r.dexClasses[dexName], name)
		if len(r.dexClasses[dexName]) == 0 {
			delete(r.dexClasses, dexName)
		}
		r.untrackLocked(old.Source)
	}
	r.mu.Unlock()

	if !ok {
		return nil, false
	}
	for _, l := range r.snapshotDexClassListeners() {
		l.OnRemoveDexClass(r, dexName, old)
	}
	return old, true
}

// PutFile adds or replaces a file.
func (r *Resource) PutFile(f *domain.FileInfo) {
	r.mu.Lock()
	old := r.files[f.Name]
	r.files[f.Name] = f
	r.trackLocked(f.Name, sourceRef{kind: sourceFile, name: f.Name, hash: f.Hash})
	r.mu.Unlock()

	for _, l := range r.snapshotFileListeners() {
		if old == nil {
			l.OnNewFile(r, f)
		} else {
			l.OnUpdateFile(r, old, f)
		}
	}
}

// RemoveFile removes a file by path.
func (r *Resource) RemoveFile(name string) (*domain.FileInfo, bool) {
	r.mu.Lock()
	old, ok := r.files[name]
	if ok {
		delete(r.files, name)
		r.untrackLocked(name)
	}
	r.mu.Unlock()

	if !ok {
		return nil, false
	}
	for _, l := range r.snapshotFileListeners() {
		l.OnRemoveFile(r, old)
	}
	return old, true
}

// RemoveSource removes whatever entry was loaded from a workspace path.
func (r *Resource) RemoveSource(path string) bool {
	r.mu.RLock()
	ref, ok := r.sources[path]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	switch ref.kind {
	case sourceClass:
		_, ok = r.RemoveClass(ref.name)
	case sourceDexClass:
		_, ok = r.RemoveDexClass(ref.dex, ref.name)
	case sourceFile:
		_, ok = r.RemoveFile(ref.name)
	}
	return ok
}

// RemoveSourcesUnder removes every entry loaded from below a directory and
// returns how many were removed.
func (r *Resource) RemoveSourcesUnder(dir string) int {
	prefix := dir + "/"
	r.mu.RLock()
	var paths []string
	for p := range r.sources {
		if strings.HasPrefix(p, prefix) {
			paths = append(paths, p)
		}
	}
	r.mu.RUnlock()

	slices.Sort(paths)
	removed := 0
	for _, p := range paths {
		if r.RemoveSource(p) {
			removed++
		}
	}
	return removed
}

// sourceName returns the entry name previously loaded from path, if any.
func (r *Resource) sourceName(path string) (sourceRef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ref, ok := r.sources[path]
	return ref, ok
}

func (r *Resource) trackLocked(path string, ref sourceRef) {
	if path != "" {
		r.sources[path] = ref
	}
}

func (r *Resource) untrackLocked(path string) {
	if path != "" {
		delete(r.sources, path)
	}
}

func (r *Resource) snapshotClassListeners() []ClassListener {
	r.listenersMu.RLock()
	defer r.listenersMu.RUnlock()
	return slices.Clone(r.classListeners)
}

func (r *Resource) snapshotDexClassListeners() []DexClassListener {
	r.listenersMu.RLock()
	defer r.listenersMu.RUnlock()
	return slices.Clone(r.dexClassListeners)
}

func (r *Resource) snapshotFileListeners() []FileListener {
	r.listenersMu.RLock()
	defer r.listenersMu.RUnlock()
	return slices.Clone(r.fileListeners)
}

func sortedValues[V any](m map[string]V) []V {
	out := make([]V, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, m[k])
	}
	return out
}
