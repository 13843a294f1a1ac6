package domain

// ClassInfo describes a class held by a workspace resource.
// Names are internal names using '/' as the package separator.
type ClassInfo struct {
	Name        string            `json:"name" validate:"required"`
	SuperName   string            `json:"super_name,omitempty"`
	Access      []string          `json:"access,omitempty"`
	Fields      []*FieldInfo      `json:"fields,omitempty"`
	Methods     []*MethodInfo     `json:"methods,omitempty"`
	Annotations []*AnnotationInfo `json:"annotations,omitempty"`
	// Source is the workspace-relative path the class was read from, if any.
	Source string `json:"source,omitempty"`
	// Hash is the xxhash64 of the source content.
	Hash uint64 `json:"-"`
}

// FieldInfo describes a declared field.
type FieldInfo struct {
	Name        string            `json:"name" validate:"required"`
	Descriptor  string            `json:"descriptor" validate:"required"`
	Annotations []*AnnotationInfo `json:"annotations,omitempty"`
}

// Key identifies the field among its siblings. Descriptor comes first so
// fields never share a key with methods.
func (f *FieldInfo) Key() string {
	return f.Descriptor + " " + f.Name
}

// MethodInfo describes a declared method.
type MethodInfo struct {
	Name         string            `json:"name" validate:"required"`
	Descriptor   string            `json:"descriptor" validate:"required"`
	Annotations  []*AnnotationInfo `json:"annotations,omitempty"`
	Instructions []*Instruction    `json:"instructions,omitempty"`
}

// Key identifies the method among its siblings; the descriptor separates overloads.
func (m *MethodInfo) Key() string {
	return m.Name + m.Descriptor
}

// AnnotationInfo describes an annotation applied to a class or member.
type AnnotationInfo struct {
	// Type is the internal name of the annotation type, e.g. "com/app/Deprecated".
	Type string `json:"type" validate:"required"`
}

// Instruction is a single bytecode instruction inside a method body.
type Instruction struct {
	// Index is the position of the instruction within its method.
	Index    int    `json:"index"`
	Opcode   string `json:"opcode" validate:"required"`
	Operands string `json:"operands,omitempty"`
}

// String returns the instruction in its textual form.
func (i *Instruction) String() string {
	if i.Operands == "" {
		return i.Opcode
	}
	return i.Opcode + " " + i.Operands
}

// FileInfo describes a non-class file held by a workspace resource.
type FileInfo struct {
	Name    string `json:"name" validate:"required"`
	Content []byte `json:"-"`
	// Hash is the xxhash64 of Content.
	Hash uint64 `json:"hash,omitempty"`
}
