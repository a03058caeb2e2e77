package filters_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cxref/internal/index"
	"github.com/jward/cxref/internal/runtime"
)

// findModuleRoot walks up from the working directory to go.mod.
func findModuleRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		require.NotEqual(t, dir, parent, "go.mod not found")
		dir = parent
	}
}

func compile(t *testing.T, name string) *runtime.Filter {
	t.Helper()
	rt := runtime.NewRuntime(filepath.Join(findModuleRoot(t), "scripts", "filters"))
	f, err := rt.Compile("@" + name)
	require.NoError(t, err)
	require.NotNil(t, f)
	return f
}

func TestProjectDeps(t *testing.T) {
	t.Parallel()
	f := compile(t, "project_deps.risor")

	tests := []struct {
		path   string
		system bool
		want   bool
	}{
		{"src/util.h", false, true},
		{"/usr/include/stdio.h", true, false},
		{"third_party/vendor/zlib/zlib.h", false, false},
	}
	for _, tt := range tests {
		keep, err := f.Keep(context.Background(), runtime.DependencyGlobals(tt.path, tt.system))
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, keep, tt.path)
	}
}

func TestDefinedSymbols(t *testing.T) {
	t.Parallel()
	f := compile(t, "defined_symbols.risor")
	ctx := context.Background()

	referenced := &index.SymbolEntry{DisplayName: "printf", References: []index.Occurrence{{}}}
	keep, err := f.Keep(ctx, runtime.SymbolGlobals("c:@F@printf", referenced))
	require.NoError(t, err)
	assert.False(t, keep)

	declared := &index.SymbolEntry{DisplayName: "foo(int)", Declarations: []index.Occurrence{{}}}
	keep, err = f.Keep(ctx, runtime.SymbolGlobals("c:@F@foo", declared))
	require.NoError(t, err)
	assert.True(t, keep)
}
