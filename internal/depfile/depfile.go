// Package depfile emits the Makefile-style dependency rule of a
// translation unit: the index artifact depends on the source file and every
// header it included.
package depfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Escape trims path and escapes it for a make rule: a space becomes "\ "
// and "$" becomes "$$".
func Escape(path string) string {
	path = strings.TrimSpace(path)
	var b strings.Builder
	b.Grow(len(path))
	for _, r := range path {
		switch r {
		case ' ':
			b.WriteString(`\ `)
		case '$':
			b.WriteString("$$")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Unique returns the distinct, non-blank paths, trimmed and sorted.
func Unique(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Rule renders "target:\" followed by one "  dep\" line per distinct
// dependency. Every dependency line, the last one included, ends in a
// continuation backslash.
func Rule(target string, deps []string) string {
	var b strings.Builder
	b.WriteString(Escape(target))
	b.WriteString(":\\\n")
	for _, dep := range Unique(deps) {
		b.WriteString("  ")
		b.WriteString(Escape(dep))
		b.WriteString("\\\n")
	}
	return b.String()
}

// Write renders the rule and writes it to path.
func Write(path, target string, deps []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("depfile: create %s: %w", path, err)
	}
	if _, err := f.WriteString(Rule(target, deps)); err != nil {
		f.Close()
		return fmt.Errorf("depfile: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("depfile: close %s: %w", path, err)
	}
	return nil
}

// Filter reports whether a dependency is kept.
type Filter func(path string) (bool, error)

// ExcludePatterns returns a Filter that drops paths matching any of the
// doublestar patterns (e.g. "/usr/include/**").
func ExcludePatterns(patterns []string) (Filter, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("depfile: invalid exclude pattern %q", p)
		}
	}
	return func(path string) (bool, error) {
		slashed := filepath.ToSlash(path)
		for _, p := range patterns {
			matched, err := doublestar.Match(p, slashed)
			if err != nil {
				return false, fmt.Errorf("depfile: match %q: %w", p, err)
			}
			if matched {
				return false, nil
			}
		}
		return true, nil
	}, nil
}

// Apply returns the paths every filter keeps, in their original order.
func Apply(paths []string, filters ...Filter) ([]string, error) {
	if len(filters) == 0 {
		return paths, nil
	}
	out := make([]string, 0, len(paths))
next:
	for _, p := range paths {
		for _, keep := range filters {
			if keep == nil {
				continue
			}
			ok, err := keep(p)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue next
			}
		}
		out = append(out, p)
	}
	return out, nil
}
