package cxref

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cxref/internal/store"
)

// indexedProject indexes two units sharing util.h into a fresh store.
func indexedProject(t *testing.T) (string, *QueryBuilder) {
	t.Helper()
	dir := writeFiles(t, t.TempDir(), map[string]string{
		"util.h": utilHeader,
		"main.c": mainSource,
		"aux.c":  "#include \"util.h\"\nstatic int helper(void) { return foo(2); }\n",
	})
	e := newTestEngine(t, storeOption(t), WithParallel(2))
	_, err := e.IndexFiles(context.Background(), []Request{requestFor(dir, "main.c"), requestFor(dir, "aux.c")})
	require.NoError(t, err)
	return dir, e.Query()
}

func TestQuery_Symbol(t *testing.T) {
	t.Parallel()
	dir, q := indexedProject(t)

	info, err := q.Symbol("c:@F@foo")
	require.NoError(t, err)
	assert.Equal(t, "c:@F@foo", info.Key)
	assert.Len(t, info.Declarations, 2, "one per unit that read util.h")
	require.Len(t, info.Definitions, 1)
	assert.Equal(t, filepath.Join(dir, "main.c"), info.Definitions[0].Filename)

	refUnits := map[string]bool{}
	for _, ref := range info.References {
		refUnits[ref.UnitPath] = true
	}
	assert.Len(t, refUnits, 2)
}

func TestQuery_SymbolNotFound(t *testing.T) {
	t.Parallel()
	_, q := indexedProject(t)
	_, err := q.Symbol("c:@F@nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestQuery_LookupByName(t *testing.T) {
	t.Parallel()
	_, q := indexedProject(t)

	infos, err := q.Lookup("foo")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "c:@F@foo", infos[0].Key)

	_, err = q.Lookup("bar")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestQuery_Occurrences(t *testing.T) {
	t.Parallel()
	dir, q := indexedProject(t)

	defs, err := q.Occurrences("foo", store.RoleDefinition)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, 3, defs[0].Line)

	decls, err := q.Occurrences("c:@F@foo", store.RoleDeclaration)
	require.NoError(t, err)
	for _, d := range decls {
		assert.Equal(t, filepath.Join(dir, "util.h"), d.Filename)
	}
}

func TestQuery_SearchAndDependents(t *testing.T) {
	t.Parallel()
	dir, q := indexedProject(t)

	syms, err := q.Search("helper", 0)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Contains(t, syms[0].USR, "@F@helper")

	units, err := q.Dependents(filepath.Join(dir, "util.h"))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "aux.c"), filepath.Join(dir, "main.c")}, units)

	all, err := q.Units()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestQuery_Suggest(t *testing.T) {
	t.Parallel()
	_, q := indexedProject(t)

	got, err := q.Suggest("c:@F@fooo", 3)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "c:@F@foo", got[0])
}

func TestClosestKeys(t *testing.T) {
	t.Parallel()
	keys := []string{"c:@F@main", "c:@F@foo", "c:@S@point", "c:@F@food"}

	got, err := closestKeys("c:@F@fo", keys, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"c:@F@foo", "c:@F@food"}, got)

	got, err = closestKeys("zzzzzz", keys, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQuery_NoStore(t *testing.T) {
	t.Parallel()
	q := newTestEngine(t).Query()

	_, err := q.Symbol("c:@F@foo")
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = q.Lookup("foo")
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = q.Search("foo", 0)
	assert.ErrorIs(t, err, ErrNoStore)
	_, err = q.Suggest("foo", 1)
	assert.ErrorIs(t, err, ErrNoStore)
}
