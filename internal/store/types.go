package store

import (
	"time"

	"github.com/jward/cxref/internal/index"
)

// Role is the bucket an occurrence was recorded under.
type Role string

const (
	RoleDeclaration Role = "declaration"
	RoleDefinition  Role = "definition"
	RoleReference   Role = "reference"
)

// ParseRole accepts a role name, singular or plural.
func ParseRole(name string) (Role, bool) {
	switch name {
	case "declaration", "declarations", "decl", "decls":
		return RoleDeclaration, true
	case "definition", "definitions", "def", "defs":
		return RoleDefinition, true
	case "reference", "references", "ref", "refs":
		return RoleReference, true
	}
	return "", false
}

// Unit is one indexed translation unit.
type Unit struct {
	ID          int64
	Path        string
	Fingerprint string
	LastIndexed time.Time
}

// Symbol is one identity across all units.
type Symbol struct {
	ID          int64
	USR         string
	DisplayName string
}

// Occurrence is one stored occurrence row.
type Occurrence struct {
	ID           int64
	UnitID       int64
	UnitPath     string
	SymbolID     int64
	Role         Role
	Filename     string // "" when the cursor had no file
	Line         int
	Column       int
	Cursor       string
	StorageClass string
}

// UnitRecord is everything indexing one unit produced.
type UnitRecord struct {
	Path        string
	Fingerprint string
	Deps        []string
	Table       *index.SymbolTable
}
