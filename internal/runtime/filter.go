package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/jward/cxref/internal/index"
)

// Filter is a compiled filter expression. A nil *Filter keeps everything.
type Filter struct {
	rt     *Runtime
	label  string
	source string
}

// Compile turns a filter spec into a Filter. An empty spec yields nil.
// A spec starting with "@" names a script file; anything else is inline
// Risor source.
func (r *Runtime) Compile(spec string) (*Filter, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	if path, ok := strings.CutPrefix(spec, "@"); ok {
		src, err := r.LoadScript(path)
		if err != nil {
			return nil, err
		}
		return &Filter{rt: r, label: path, source: src}, nil
	}
	return &Filter{rt: r, label: "<inline>", source: spec}, nil
}

// Keep evaluates the filter with globals and reports whether the script's
// final value is truthy.
func (f *Filter) Keep(ctx context.Context, globals map[string]any) (bool, error) {
	if f == nil {
		return true, nil
	}
	result, err := f.rt.eval(ctx, f.source, f.label, globals)
	if err != nil {
		return false, err
	}
	if result == nil {
		return false, fmt.Errorf("runtime: filter %s produced no value", f.label)
	}
	return result.IsTruthy(), nil
}

// Source returns the filter's Risor source, or "" for a nil filter.
func (f *Filter) Source() string {
	if f == nil {
		return ""
	}
	return f.source
}

// String returns the label used in error messages.
func (f *Filter) String() string {
	if f == nil {
		return "<none>"
	}
	return f.label
}

// DependencyGlobals are the globals a dependency filter sees.
func DependencyGlobals(path string, system bool) map[string]any {
	return map[string]any{
		"path":   path,
		"system": system,
	}
}

// SymbolGlobals are the globals a symbol filter sees.
func SymbolGlobals(key string, entry *index.SymbolEntry) map[string]any {
	return map[string]any{
		"key":          key,
		"displayname":  entry.DisplayName,
		"declarations": len(entry.Declarations),
		"definitions":  len(entry.Definitions),
		"references":   len(entry.References),
	}
}
