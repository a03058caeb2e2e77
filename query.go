package cxref

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hbollon/go-edlib"

	"github.com/jward/cxref/internal/store"
)

// ErrNoStore is returned by queries on an Engine built without WithStore.
var ErrNoStore = errors.New("cxref: no store configured")

// minSuggestionScore is the Jaro-Winkler similarity a key needs to be
// offered as a suggestion.
const minSuggestionScore = 0.75

// QueryBuilder answers cross-reference questions over the project store.
type QueryBuilder struct {
	store *store.Store
}

// NewQueryBuilder creates a QueryBuilder backed by s.
func NewQueryBuilder(s *store.Store) *QueryBuilder {
	return &QueryBuilder{store: s}
}

// SymbolInfo is a symbol with its occurrences across every unit, bucketed
// like an index entry.
type SymbolInfo struct {
	Key          string
	DisplayName  string
	Declarations []*store.Occurrence
	Definitions  []*store.Occurrence
	References   []*store.Occurrence
}

func (q *QueryBuilder) check() error {
	if q.store == nil {
		return ErrNoStore
	}
	return nil
}

// Symbol returns the symbol stored under key with all its occurrences.
// A missing key yields an error wrapping store.ErrNotFound.
func (q *QueryBuilder) Symbol(key string) (*SymbolInfo, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	sym, err := q.store.Symbol(key)
	if err != nil {
		return nil, err
	}
	return q.info(sym)
}

func (q *QueryBuilder) info(sym *store.Symbol) (*SymbolInfo, error) {
	occs, err := q.store.Occurrences(sym.USR)
	if err != nil {
		return nil, fmt.Errorf("symbol %s: %w", sym.USR, err)
	}
	info := &SymbolInfo{Key: sym.USR, DisplayName: sym.DisplayName}
	for _, o := range occs {
		switch o.Role {
		case store.RoleDeclaration:
			info.Declarations = append(info.Declarations, o)
		case store.RoleDefinition:
			info.Definitions = append(info.Definitions, o)
		case store.RoleReference:
			info.References = append(info.References, o)
		}
	}
	return info, nil
}

// Lookup resolves keyOrName to symbols: an exact key wins, otherwise every
// symbol whose display name is the name (with or without a parameter
// list). No match yields an error wrapping store.ErrNotFound.
func (q *QueryBuilder) Lookup(keyOrName string) ([]*SymbolInfo, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	if info, err := q.Symbol(keyOrName); err == nil {
		return []*SymbolInfo{info}, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	syms, err := q.store.SymbolsByName(keyOrName)
	if err != nil {
		return nil, err
	}
	if len(syms) == 0 {
		return nil, fmt.Errorf("symbol %q: %w", keyOrName, store.ErrNotFound)
	}
	out := make([]*SymbolInfo, 0, len(syms))
	for _, sym := range syms {
		info, err := q.info(sym)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// Occurrences returns the occurrences in role of every symbol keyOrName
// resolves to.
func (q *QueryBuilder) Occurrences(keyOrName string, role store.Role) ([]*store.Occurrence, error) {
	infos, err := q.Lookup(keyOrName)
	if err != nil {
		return nil, err
	}
	var out []*store.Occurrence
	for _, info := range infos {
		switch role {
		case store.RoleDeclaration:
			out = append(out, info.Declarations...)
		case store.RoleDefinition:
			out = append(out, info.Definitions...)
		case store.RoleReference:
			out = append(out, info.References...)
		}
	}
	return out, nil
}

// Search returns up to limit symbols whose key or display name contains
// substr; limit 0 returns all of them.
func (q *QueryBuilder) Search(substr string, limit int) ([]*store.Symbol, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	return q.store.SearchSymbols(substr, limit)
}

// Dependents returns the units that read file.
func (q *QueryBuilder) Dependents(file string) ([]string, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	return q.store.Dependents(file)
}

// Units returns every indexed unit.
func (q *QueryBuilder) Units() ([]*store.Unit, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	return q.store.Units()
}

// Suggest returns up to n stored keys closest to key by Jaro-Winkler
// similarity, best first.
func (q *QueryBuilder) Suggest(key string, n int) ([]string, error) {
	if err := q.check(); err != nil {
		return nil, err
	}
	keys, err := q.store.AllKeys()
	if err != nil {
		return nil, err
	}
	return closestKeys(key, keys, n)
}

type scoredKey struct {
	key   string
	score float32
}

func closestKeys(key string, keys []string, n int) ([]string, error) {
	var scored []scoredKey
	for _, k := range keys {
		score, err := edlib.StringsSimilarity(key, k, edlib.JaroWinkler)
		if err != nil {
			return nil, fmt.Errorf("suggest: %w", err)
		}
		if score >= minSuggestionScore {
			scored = append(scored, scoredKey{key: k, score: score})
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	out := make([]string, len(scored))
	for i, s := range scored {
		out[i] = s.key
	}
	return out, nil
}
