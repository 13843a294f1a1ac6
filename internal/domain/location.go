package domain

// LocationKind enumerates the closed set of location variants.
type LocationKind int

const (
	// LocationClass marks a match inside a class.
	LocationClass LocationKind = iota
	// LocationFile marks a match inside a plain file.
	LocationFile
)

// String returns the string representation of the kind.
func (k LocationKind) String() string {
	switch k {
	case LocationClass:
		return "class"
	case LocationFile:
		return "file"
	default:
		return "unknown"
	}
}

// Location describes where a search match occurred.
//
// The set of implementations is closed: ClassLocation and FileLocation are the
// only variants, enforced by the unexported marker method.
type Location interface {
	Kind() LocationKind
	location()
}

// ClassLocation is a match inside a class, optionally refined to a member,
// an annotation or an instruction.
//
// An Instruction requires a Method. At most one of Field and Method is set.
// With no refinement at all the location is the class declaration itself.
type ClassLocation struct {
	Class       *ClassInfo  `validate:"required"`
	Field       *FieldInfo  `validate:"excluded_with=Method"`
	Method      *MethodInfo `validate:"required_with=Instruction"`
	Annotation  *AnnotationInfo
	Instruction *Instruction `validate:"excluded_with=Field"`
}

// Kind implements Location.
func (*ClassLocation) Kind() LocationKind { return LocationClass }

func (*ClassLocation) location() {}

// IsDeclaration reports whether the location refers to the class declaration itself.
func (l *ClassLocation) IsDeclaration() bool {
	return l.Field == nil && l.Method == nil && l.Annotation == nil && l.Instruction == nil
}

// FileLocation is a match inside a plain file.
type FileLocation struct {
	File *FileInfo `validate:"required"`
}

// Kind implements Location.
func (*FileLocation) Kind() LocationKind { return LocationFile }

func (*FileLocation) location() {}
