// Package cursor defines the read-only cursor model that front ends hand to
// the indexer: a tree of cursors, each with a kind, a location, names, an
// optional USR and links to the cursors it references or is defined by.
package cursor

import (
	"errors"
	"fmt"
)

// ErrNotReferenceable is returned by Cursor.Referenced when the cursor's
// kind cannot reference anything.
var ErrNotReferenceable = errors.New("cursor: not referenceable")

// ErrStorageClassUnavailable is returned by Cursor.StorageClass when the
// front end cannot determine a storage class.
var ErrStorageClassUnavailable = errors.New("cursor: storage class unavailable")

// Location is a source position. File is empty for cursors that have no
// file (command-line macros, builtins).
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	file := l.File
	if file == "" {
		file = "<none>"
	}
	return fmt.Sprintf("%s:%d:%d", file, l.Line, l.Column)
}

// Cursor is one node of a front end's syntax tree.
type Cursor interface {
	Kind() Kind
	Spelling() string
	DisplayName() string
	Location() Location
	// USR returns the cursor's stable identifier, or "" if it has none.
	USR() string
	StorageClass() (StorageClass, error)
	// IsDefinition reports whether the cursor defines an entity. A
	// definition is also a declaration.
	IsDefinition() bool
	// Referenced returns the cursor this one refers to. It returns
	// (nil, nil) when there is none and ErrNotReferenceable when the
	// front end refuses the lookup for this kind.
	Referenced() (Cursor, error)
	// Definition returns the defining cursor of the entity, or nil.
	Definition() Cursor
	Children() []Cursor
}

// TranslationUnit is a parsed source file together with everything it
// textually included.
type TranslationUnit interface {
	// Spelling returns the path of the main source file.
	Spelling() string
	// Cursor returns the root cursor (kind TRANSLATION_UNIT).
	Cursor() Cursor
	// Includes returns every file the unit depended on, the main source
	// file included. Entries may repeat.
	Includes() []string
}
