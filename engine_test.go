package cxref

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cxref/internal/index"
	"github.com/jward/cxref/internal/output"
	"github.com/jward/cxref/internal/store"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func storeOption(t *testing.T) Option {
	t.Helper()
	return WithStore(filepath.Join(t.TempDir(), "db", "index.db"))
}

func requestFor(dir, name string) Request {
	return Request{
		Source: filepath.Join(dir, name),
		Output: filepath.Join(dir, name+IndexSuffix),
	}
}

// =============================================================================
// Construction
// =============================================================================

func TestNew_Defaults(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	assert.Nil(t, e.Store())
	assert.Nil(t, e.depFilter)
	assert.Nil(t, e.symFilter)
	assert.NoError(t, e.Close())
}

func TestNew_CreatesStore(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t, storeOption(t))
	require.NotNil(t, e.Store())

	units, err := e.Store().Units()
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestNew_Rejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		opt  Option
	}{
		{"bad exclude", WithExcludes("[")},
		{"missing dependency script", WithDependencyFilter("@" + filepath.Join(t.TempDir(), "absent.risor"))},
		{"missing symbol script", WithSymbolFilter("@absent.risor")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.opt, WithScriptsDir(t.TempDir()))
			assert.Error(t, err)
		})
	}
}

func TestRequest_Defaults(t *testing.T) {
	t.Parallel()
	req := Request{Source: "src/main.c"}
	assert.Equal(t, "main.c.indx", req.output())
	assert.Equal(t, output.FormatJSON, req.format())

	req.Output = "out/main.yaml"
	assert.Equal(t, output.FormatYAML, req.format())

	req.Format = output.FormatJSON
	assert.Equal(t, output.FormatJSON, req.format(), "explicit format wins")
}

// =============================================================================
// IndexFile
// =============================================================================

func TestIndexFile_WritesArtifacts(t *testing.T) {
	t.Parallel()
	dir := sampleProject(t)
	e := newTestEngine(t)

	req := requestFor(dir, "main.c")
	req.Depfile = filepath.Join(dir, "main.d")
	res, err := e.IndexFile(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, []string{filepath.Join(dir, "main.c"), filepath.Join(dir, "util.h")}, res.Deps)
	assert.Positive(t, res.Stats.Indexed)

	saved, err := output.Load(req.Output, nil)
	require.NoError(t, err)
	assert.Equal(t, res.Table.Keys(), saved.Keys())

	rule, err := os.ReadFile(req.Depfile)
	require.NoError(t, err)
	want := req.Output + ":\\\n" +
		"  " + filepath.Join(dir, "main.c") + "\\\n" +
		"  " + filepath.Join(dir, "util.h") + "\\\n"
	assert.Equal(t, want, string(rule))
}

func TestIndexFile_CustomTargetAndYAML(t *testing.T) {
	t.Parallel()
	dir := sampleProject(t)
	e := newTestEngine(t)

	req := Request{
		Source:  filepath.Join(dir, "main.c"),
		Output:  filepath.Join(dir, "main.yaml"),
		Depfile: filepath.Join(dir, "main.d"),
		Target:  "build/main.o",
	}
	_, err := e.IndexFile(context.Background(), req)
	require.NoError(t, err)

	data, err := os.ReadFile(req.Output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "c:@F@foo:")

	rule, err := os.ReadFile(req.Depfile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(rule), "build/main.o:\\\n"))
}

func TestIndexFile_MissingSource(t *testing.T) {
	t.Parallel()
	e := newTestEngine(t)
	_, err := e.IndexFile(context.Background(), Request{Source: "missing.c"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCannotOpen)
	assert.Equal(t, `cannot open file "missing.c"`, err.Error())
}

func TestIndexFile_DepfileFailureStillWritesIndex(t *testing.T) {
	t.Parallel()
	dir := sampleProject(t)
	e := newTestEngine(t)

	req := requestFor(dir, "main.c")
	req.Depfile = filepath.Join(dir, "no", "such", "dir", "main.d")
	_, err := e.IndexFile(context.Background(), req)
	require.NoError(t, err)
	assert.FileExists(t, req.Output)
	assert.NoFileExists(t, req.Depfile)
}

func TestIndexFile_SymbolFilter(t *testing.T) {
	t.Parallel()
	dir := sampleProject(t)
	e := newTestEngine(t, WithSymbolFilter(`definitions > 0`))

	res, err := e.IndexFile(context.Background(), requestFor(dir, "main.c"))
	require.NoError(t, err)
	for _, key := range res.Table.Keys() {
		entry, _ := res.Table.Entry(key)
		assert.NotEmpty(t, entry.Definitions, key)
	}
	_, ok := res.Table.Entry("c:@F@foo")
	assert.True(t, ok)
}

func TestIndexFile_SymbolFilterError(t *testing.T) {
	t.Parallel()
	dir := sampleProject(t)
	e := newTestEngine(t, WithSymbolFilter(`no_such_global`))

	req := requestFor(dir, "main.c")
	_, err := e.IndexFile(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol filter")
	assert.NoFileExists(t, req.Output)
}

func TestIndexFile_DependencyFilters(t *testing.T) {
	t.Parallel()
	dir := writeFiles(t, t.TempDir(), map[string]string{
		"main.c":            "#include \"util.h\"\n#include <sys.h>\nint main(void) { return 0; }\n",
		"util.h":            "int util(void);\n",
		"include/sys.h":     "int sys(void);\n",
		"filters/dep.risor": "!system",
	})

	e := newTestEngine(t,
		WithScriptsDir(filepath.Join(dir, "filters")),
		WithDependencyFilter("@dep.risor"),
		WithExcludes("**/util.h"),
	)
	req := requestFor(dir, "main.c")
	req.IncludeDirs = []string{filepath.Join(dir, "include")}
	req.Depfile = filepath.Join(dir, "main.d")

	res, err := e.IndexFile(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, res.Deps, 3, "result keeps every file read")

	rule, err := os.ReadFile(req.Depfile)
	require.NoError(t, err)
	assert.Contains(t, string(rule), filepath.Join(dir, "main.c"))
	assert.NotContains(t, string(rule), "util.h", "excluded by pattern")
	assert.NotContains(t, string(rule), "sys.h", "dropped by the system filter")
}

func TestIndexFile_SkipsUnchangedUnits(t *testing.T) {
	t.Parallel()
	dir := sampleProject(t)
	dbOpt := storeOption(t)
	e := newTestEngine(t, dbOpt)
	req := requestFor(dir, "main.c")

	first, err := e.IndexFile(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Skipped)

	again, err := e.IndexFile(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	require.NotNil(t, again.Table, "skipped units reload their artifact")
	assert.Equal(t, first.Table.Keys(), again.Table.Keys())

	// Touching a header invalidates the unit.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "util.h"), []byte("int foo(int y);\n"), 0o644))
	changed, err := e.IndexFile(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, changed.Skipped)

	// A missing output is rebuilt even with a matching fingerprint.
	require.NoError(t, os.Remove(req.Output))
	rebuilt, err := e.IndexFile(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, rebuilt.Skipped)
}

func TestIndexFile_SkippedUnitFeedsAggregate(t *testing.T) {
	t.Parallel()
	dir := sampleProject(t)
	dbOpt := storeOption(t)
	req := requestFor(dir, "main.c")

	first := newTestEngine(t, dbOpt)
	res, err := first.IndexFile(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.Skipped)
	require.NoError(t, first.Close())

	agg := index.NewSymbolTable()
	second := newTestEngine(t, dbOpt, WithAggregate(agg))
	res, err = second.IndexFile(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Skipped)
	assert.Equal(t, res.Table.Keys(), agg.Keys())
	_, ok := agg.Entry("c:@F@foo")
	assert.True(t, ok)
}

func TestIndexFile_SettingsChangeReindexes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		opts   []Option
		mutate func(*Request)
	}{
		{"define", nil, func(r *Request) { r.Defines = []string{"X=1"} }},
		{"include dir", nil, func(r *Request) { r.IncludeDirs = []string{"/usr/local/include"} }},
		{"std", nil, func(r *Request) { r.Std = "c11" }},
		{"format", nil, func(r *Request) { r.Format = output.FormatYAML }},
		{"depfile", nil, func(r *Request) { r.Depfile = r.Source + ".d" }},
		{"symbol filter", []Option{WithSymbolFilter("definitions > 0")}, nil},
		{"dependency filter", []Option{WithDependencyFilter("!system")}, nil},
		{"exclude", []Option{WithExcludes("**/util.h")}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			dir := sampleProject(t)
			dbOpt := storeOption(t)
			req := requestFor(dir, "main.c")

			first := newTestEngine(t, dbOpt)
			_, err := first.IndexFile(context.Background(), req)
			require.NoError(t, err)
			same, err := first.IndexFile(context.Background(), req)
			require.NoError(t, err)
			require.True(t, same.Skipped, "identical settings skip")
			require.NoError(t, first.Close())

			if tt.mutate != nil {
				tt.mutate(&req)
			}
			second := newTestEngine(t, append([]Option{dbOpt}, tt.opts...)...)
			res, err := second.IndexFile(context.Background(), req)
			require.NoError(t, err)
			assert.False(t, res.Skipped)
		})
	}
}

func TestIndexFile_MissingSourceForgetsUnit(t *testing.T) {
	t.Parallel()
	dir := sampleProject(t)
	e := newTestEngine(t, storeOption(t))
	req := requestFor(dir, "main.c")

	_, err := e.IndexFile(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, os.Remove(req.Source))

	_, err = e.IndexFile(context.Background(), req)
	require.ErrorIs(t, err, ErrCannotOpen)

	unit, err := e.Store().UnitByPath(req.Source)
	require.NoError(t, err)
	assert.Nil(t, unit)
	_, err = e.Store().Symbol("c:@F@main")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestIndexFile_ForceReindexes(t *testing.T) {
	t.Parallel()
	dir := sampleProject(t)
	e := newTestEngine(t, storeOption(t), WithForce(true))
	req := requestFor(dir, "main.c")

	_, err := e.IndexFile(context.Background(), req)
	require.NoError(t, err)
	res, err := e.IndexFile(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
}

func TestIndexFile_RecordsUnitInStore(t *testing.T) {
	t.Parallel()
	dir := sampleProject(t)
	e := newTestEngine(t, storeOption(t))
	req := requestFor(dir, "main.c")

	_, err := e.IndexFile(context.Background(), req)
	require.NoError(t, err)

	unit, err := e.Store().UnitByPath(req.Source)
	require.NoError(t, err)
	require.NotNil(t, unit)
	deps, err := e.Store().UnitDeps(unit.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "main.c"), filepath.Join(dir, "util.h")}, deps)

	defs, err := e.Store().Occurrences("c:@F@foo", store.RoleDefinition)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, filepath.Join(dir, "main.c"), defs[0].Filename)
}

// =============================================================================
// IndexFiles
// =============================================================================

func multiUnitProject(t *testing.T, units int) (string, []Request) {
	t.Helper()
	files := map[string]string{"util.h": utilHeader}
	for i := range units {
		files[fmt.Sprintf("u%d.c", i)] = fmt.Sprintf("#include \"util.h\"\nint use%d(void) { return foo(%d); }\n", i, i)
	}
	dir := writeFiles(t, t.TempDir(), files)

	reqs := make([]Request, units)
	for i := range units {
		reqs[i] = requestFor(dir, fmt.Sprintf("u%d.c", i))
	}
	return dir, reqs
}

func TestIndexFiles_Parallel(t *testing.T) {
	t.Parallel()
	_, reqs := multiUnitProject(t, 6)
	aggregate := index.NewSymbolTable()
	e := newTestEngine(t, storeOption(t), WithParallel(4), WithAggregate(aggregate))

	results, err := e.IndexFiles(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, len(reqs))
	for i, res := range results {
		require.NotNil(t, res)
		assert.Equal(t, reqs[i].Source, res.Source, "results keep request order")
		assert.FileExists(t, res.Output)
	}

	units, err := e.Store().Units()
	require.NoError(t, err)
	assert.Len(t, units, 6)

	foo, ok := aggregate.Entry("c:@F@foo")
	require.True(t, ok)
	assert.Len(t, foo.Declarations, 1, "the shared header declaration is merged once")
	files := map[string]bool{}
	for _, ref := range foo.References {
		files[ref.Location.File] = true
	}
	assert.Len(t, files, 6)

	for i := range 6 {
		_, ok := aggregate.Entry(fmt.Sprintf("c:@F@use%d", i))
		assert.True(t, ok)
	}
}

func TestIndexFiles_SerialMatchesParallel(t *testing.T) {
	t.Parallel()
	_, reqs := multiUnitProject(t, 3)

	serial := index.NewSymbolTable()
	e := newTestEngine(t, WithAggregate(serial))
	_, err := e.IndexFiles(context.Background(), reqs)
	require.NoError(t, err)

	parallel := index.NewSymbolTable()
	p := newTestEngine(t, WithParallel(3), WithAggregate(parallel))
	_, err = p.IndexFiles(context.Background(), reqs)
	require.NoError(t, err)

	require.Equal(t, serial.Keys(), parallel.Keys())
	for _, key := range serial.Keys() {
		a, _ := serial.Entry(key)
		b, _ := parallel.Entry(key)
		assert.Equal(t, a.DisplayName, b.DisplayName, key)
		assert.ElementsMatch(t, a.Declarations, b.Declarations, key)
		assert.ElementsMatch(t, a.Definitions, b.Definitions, key)
		assert.ElementsMatch(t, a.References, b.References, key)
	}
}

func TestIndexFiles_ReportsFailuresAndContinues(t *testing.T) {
	t.Parallel()
	dir, reqs := multiUnitProject(t, 3)
	reqs = append(reqs, requestFor(dir, "missing.c"))
	e := newTestEngine(t, storeOption(t), WithParallel(2))

	results, err := e.IndexFiles(context.Background(), reqs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "indexing had 1 error(s)")
	assert.ErrorIs(t, err, ErrCannotOpen)
	assert.Nil(t, results[3])

	units, err := e.Store().Units()
	require.NoError(t, err)
	assert.Len(t, units, 3, "successful units are still committed")
}

func TestIndexFiles_Cancelled(t *testing.T) {
	t.Parallel()
	_, reqs := multiUnitProject(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestEngine(t)
	_, err := e.IndexFiles(ctx, reqs)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
