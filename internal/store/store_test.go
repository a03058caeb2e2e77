package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cxref/internal/cursor"
	"github.com/jward/cxref/internal/index"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func occ(file string, line, col int, kind string) index.Occurrence {
	return index.Occurrence{
		Location:     cursor.Location{File: file, Line: line, Column: col},
		Cursor:       kind,
		StorageClass: "StorageClass.NONE",
	}
}

// unitTable builds the table indexing "a.c" would produce: foo declared in
// a.h, defined and called in a.c.
func unitTable(displayName string) *index.SymbolTable {
	table := index.NewSymbolTable()
	table.Merge("c:@F@foo", displayName, occ("a.h", 1, 5, "CursorKind.FUNCTION_DECL"), index.Declaration)
	table.Merge("c:@F@foo", displayName, occ("a.c", 3, 5, "CursorKind.FUNCTION_DECL"), index.Definition)
	table.Merge("c:@F@foo", "foo", occ("a.c", 9, 3, "CursorKind.CALL_EXPR"), index.Reference)
	table.Merge("c:macro@DEBUG", "DEBUG", occ("", 0, 0, "CursorKind.MACRO_DEFINITION"), index.Definition)
	return table
}

func saveTestUnit(t *testing.T, s *Store, path string, table *index.SymbolTable, deps ...string) {
	t.Helper()
	require.NoError(t, s.SaveUnit(UnitRecord{Path: path, Fingerprint: "fp-" + path, Deps: deps, Table: table}))
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"units", "unit_deps", "symbols", "occurrences"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

// =============================================================================
// Units
// =============================================================================

func TestSaveUnit_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	saveTestUnit(t, s, "a.c", unitTable("foo()"), "a.h", "a.c")

	u, err := s.UnitByPath("a.c")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "fp-a.c", u.Fingerprint)
	assert.False(t, u.LastIndexed.IsZero())

	deps, err := s.UnitDeps(u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.c", "a.h"}, deps)

	sym, err := s.Symbol("c:@F@foo")
	require.NoError(t, err)
	assert.Equal(t, "foo()", sym.DisplayName)

	occs, err := s.Occurrences("c:@F@foo")
	require.NoError(t, err)
	require.Len(t, occs, 3)
	assert.Equal(t, RoleDefinition, occs[0].Role)
	assert.Equal(t, "a.c", occs[0].UnitPath)
	assert.Equal(t, 3, occs[0].Line)

	refs, err := s.Occurrences("c:@F@foo", RoleReference)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "CursorKind.CALL_EXPR", refs[0].Cursor)

	macro, err := s.Occurrences("c:macro@DEBUG", RoleDefinition)
	require.NoError(t, err)
	require.Len(t, macro, 1)
	assert.Empty(t, macro[0].Filename)
}

func TestUnitByPath_Missing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	u, err := s.UnitByPath("nope.c")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestSaveUnit_ReplacesPriorData(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	saveTestUnit(t, s, "a.c", unitTable("foo()"), "a.h")

	smaller := index.NewSymbolTable()
	smaller.Merge("c:@F@bar", "bar()", occ("a.c", 1, 5, "CursorKind.FUNCTION_DECL"), index.Definition)
	saveTestUnit(t, s, "a.c", smaller, "b.h")

	units, err := s.Units()
	require.NoError(t, err)
	require.Len(t, units, 1)

	deps, err := s.UnitDeps(units[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.h"}, deps)

	_, err = s.Symbol("c:@F@foo")
	assert.ErrorIs(t, err, ErrNotFound)

	keys, err := s.AllKeys()
	require.NoError(t, err)
	assert.Equal(t, []string{"c:@F@bar"}, keys)
}

func TestSaveUnit_SharedSymbolAcrossUnits(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	saveTestUnit(t, s, "a.c", unitTable("foo"))
	saveTestUnit(t, s, "b.c", unitTable("foo(int)"))

	sym, err := s.Symbol("c:@F@foo")
	require.NoError(t, err)
	assert.Equal(t, "foo(int)", sym.DisplayName, "longer display name wins")

	saveTestUnit(t, s, "c.c", unitTable("f"))
	sym, err = s.Symbol("c:@F@foo")
	require.NoError(t, err)
	assert.Equal(t, "foo(int)", sym.DisplayName, "shorter name never replaces")

	decls, err := s.Occurrences("c:@F@foo", RoleDeclaration)
	require.NoError(t, err)
	require.Len(t, decls, 3)
	assert.Equal(t, []string{"a.c", "b.c", "c.c"}, []string{decls[0].UnitPath, decls[1].UnitPath, decls[2].UnitPath})
}

func TestDeleteUnit(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	saveTestUnit(t, s, "a.c", unitTable("foo()"), "a.h")
	saveTestUnit(t, s, "b.c", unitTable("foo()"), "a.h")

	require.NoError(t, s.DeleteUnit("a.c"))
	u, err := s.UnitByPath("a.c")
	require.NoError(t, err)
	assert.Nil(t, u)

	occs, err := s.Occurrences("c:@F@foo")
	require.NoError(t, err)
	assert.Len(t, occs, 3)

	require.NoError(t, s.DeleteUnit("b.c"))
	keys, err := s.AllKeys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestDependents(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	saveTestUnit(t, s, "b.c", nil, "b.c", "common.h")
	saveTestUnit(t, s, "a.c", nil, "a.c", "common.h")
	saveTestUnit(t, s, "c.c", nil, "c.c")

	got, err := s.Dependents("common.h")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.c", "b.c"}, got)
}

// =============================================================================
// Symbol queries
// =============================================================================

func TestSymbolsByName(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	table := unitTable("foo(int)")
	table.Merge("c:@F@foobar", "foobar()", occ("a.c", 20, 5, "CursorKind.FUNCTION_DECL"), index.Definition)
	table.Merge("c:@S@foo", "foo", occ("a.c", 30, 8, "CursorKind.STRUCT_DECL"), index.Definition)
	saveTestUnit(t, s, "a.c", table)

	syms, err := s.SymbolsByName("foo")
	require.NoError(t, err)
	require.Len(t, syms, 2)
	assert.Equal(t, "c:@F@foo", syms[0].USR)
	assert.Equal(t, "c:@S@foo", syms[1].USR)
}

func TestSearchSymbols(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	saveTestUnit(t, s, "a.c", unitTable("foo()"))

	syms, err := s.SearchSymbols("DEB", 0)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "c:macro@DEBUG", syms[0].USR)

	syms, err = s.SearchSymbols("c:", 1)
	require.NoError(t, err)
	assert.Len(t, syms, 1)
}

func TestSymbol_NotFound(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	_, err := s.Symbol("c:@F@missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseRole(t *testing.T) {
	t.Parallel()
	for name, want := range map[string]Role{
		"refs":         RoleReference,
		"definition":   RoleDefinition,
		"declarations": RoleDeclaration,
	} {
		got, ok := ParseRole(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got)
	}
	_, ok := ParseRole("usage")
	assert.False(t, ok)
}

// =============================================================================
// Fingerprints
// =============================================================================

func TestFingerprint(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := filepath.Join(dir, "a.c")
	h := filepath.Join(dir, "a.h")
	require.NoError(t, os.WriteFile(a, []byte("int x;\n"), 0o644))
	require.NoError(t, os.WriteFile(h, []byte("int y;\n"), 0o644))

	first, err := Fingerprint([]string{a, h})
	require.NoError(t, err)
	assert.Len(t, first, 16)

	again, err := Fingerprint([]string{h, a, h})
	require.NoError(t, err)
	assert.Equal(t, first, again, "order and duplicates do not matter")

	require.NoError(t, os.WriteFile(h, []byte("int z;\n"), 0o644))
	changed, err := Fingerprint([]string{a, h})
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}

func TestFingerprint_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := Fingerprint([]string{filepath.Join(t.TempDir(), "gone.h")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSettingsFingerprint(t *testing.T) {
	t.Parallel()
	base := SettingsFingerprint("std=c11", "D=A", "D=B")
	assert.Len(t, base, 16)
	assert.Equal(t, base, SettingsFingerprint("std=c11", "D=A", "D=B"))
	assert.NotEqual(t, base, SettingsFingerprint("std=c11", "D=B", "D=A"), "define order is significant")
	assert.NotEqual(t, base, SettingsFingerprint("std=c11", "D=AD=B"), "settings are delimited")

	assert.Equal(t, "0123-abcd", UnitFingerprint("0123", "abcd"))
}
