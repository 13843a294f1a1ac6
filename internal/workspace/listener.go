package workspace

import "github.com/sha1n/relic-results/internal/domain"

// ClassListener receives notifications about JVM classes held directly by a resource.
type ClassListener interface {
	OnNewClass(res *Resource, newValue *domain.ClassInfo)
	OnRemoveClass(res *Resource, oldValue *domain.ClassInfo)
	OnUpdateClass(res *Resource, oldValue, newValue *domain.ClassInfo)
}

// DexClassListener receives notifications about classes held inside a dex bundle.
type DexClassListener interface {
	OnNewDexClass(res *Resource, dexName string, newValue *domain.ClassInfo)
	OnRemoveDexClass(res *Resource, dexName string, oldValue *domain.ClassInfo)
	OnUpdateDexClass(res *Resource, dexName string, oldValue, newValue *domain.ClassInfo)
}

// FileListener receives notifications about non-class files.
type FileListener interface {
	OnNewFile(res *Resource, newValue *domain.FileInfo)
	OnRemoveFile(res *Resource, oldValue *domain.FileInfo)
	OnUpdateFile(res *Resource, oldValue, newValue *domain.FileInfo)
}
