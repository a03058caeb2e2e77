// Package index builds the cross-reference symbol table of a translation
// unit: it classifies cursors, resolves their identity keys, walks the
// cursor tree and merges every sighting into one entry per key.
package index

import (
	"strings"

	"github.com/jward/cxref/internal/cursor"
)

// StorageClassUnavailable is recorded when the front end cannot report a
// cursor's storage class.
const StorageClassUnavailable = "StorageClass.UNAVAILABLE"

// Occurrence is one sighting of a symbol. It is comparable; two
// occurrences are the same iff every field matches.
type Occurrence struct {
	Location     cursor.Location
	Cursor       string
	StorageClass string
}

// NewOccurrence records where c is and what it looked like there.
func NewOccurrence(c cursor.Cursor) Occurrence {
	storage := StorageClassUnavailable
	if sc, err := c.StorageClass(); err == nil {
		storage = sc.String()
	}
	return Occurrence{
		Location:     c.Location(),
		Cursor:       c.Kind().String(),
		StorageClass: storage,
	}
}

// Kinds is a set of occurrence roles.
type Kinds uint8

const (
	Definition Kinds = 1 << iota
	Declaration
	Reference
)

// Has reports whether every role in o is in k.
func (k Kinds) Has(o Kinds) bool {
	return o != 0 && k&o == o
}

func (k Kinds) String() string {
	if k == 0 {
		return "none"
	}
	var parts []string
	if k.Has(Definition) {
		parts = append(parts, "definition")
	}
	if k.Has(Declaration) {
		parts = append(parts, "declaration")
	}
	if k.Has(Reference) {
		parts = append(parts, "reference")
	}
	return strings.Join(parts, "|")
}
