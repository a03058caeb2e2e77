package index

import (
	"slices"
	"sort"
	"sync"
	"unicode/utf8"
)

// SymbolEntry collects every sighting of one entity.
type SymbolEntry struct {
	DisplayName  string
	Declarations []Occurrence
	Definitions  []Occurrence
	References   []Occurrence
}

// Occurrences returns the total number of recorded sightings.
func (e *SymbolEntry) Occurrences() int {
	return len(e.Declarations) + len(e.Definitions) + len(e.References)
}

func (e *SymbolEntry) clone() *SymbolEntry {
	return &SymbolEntry{
		DisplayName:  e.DisplayName,
		Declarations: slices.Clone(e.Declarations),
		Definitions:  slices.Clone(e.Definitions),
		References:   slices.Clone(e.References),
	}
}

// adoptName keeps the longer of the current and candidate display names.
// Ties keep the current name.
func (e *SymbolEntry) adoptName(name string) {
	if e.DisplayName == "" {
		e.DisplayName = name
		return
	}
	if utf8.RuneCountInString(name) > utf8.RuneCountInString(e.DisplayName) {
		e.DisplayName = name
	}
}

func appendUnique(bucket []Occurrence, occ Occurrence) []Occurrence {
	if slices.Contains(bucket, occ) {
		return bucket
	}
	return append(bucket, occ)
}

func (e *SymbolEntry) add(occ Occurrence, kinds Kinds) {
	if kinds.Has(Definition) {
		e.Definitions = appendUnique(e.Definitions, occ)
	}
	if kinds.Has(Declaration) {
		e.Declarations = appendUnique(e.Declarations, occ)
	}
	if kinds.Has(Reference) {
		e.References = appendUnique(e.References, occ)
	}
}

// SymbolTable maps identity keys to entries. It only grows: entries are
// inserted or merged, never removed. Merges are safe for concurrent use.
type SymbolTable struct {
	mu      sync.Mutex
	entries map[string]*SymbolEntry
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{entries: make(map[string]*SymbolEntry)}
}

// Merge records occ under key in every bucket named by kinds. A new key
// creates an entry even when kinds is empty.
func (t *SymbolTable) Merge(key, displayName string, occ Occurrence, kinds Kinds) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[key]
	if !ok {
		entry = &SymbolEntry{DisplayName: displayName}
		t.entries[key] = entry
	} else {
		entry.adoptName(displayName)
	}
	entry.add(occ, kinds)
}

// MergeTable folds every entry of other into t with the same rules as
// Merge.
func (t *SymbolTable) MergeTable(other *SymbolTable) {
	if other == nil || other == t {
		return
	}
	snapshot := other.snapshot()

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, key := range sortedKeys(snapshot) {
		src := snapshot[key]
		entry, ok := t.entries[key]
		if !ok {
			t.entries[key] = src
			continue
		}
		entry.adoptName(src.DisplayName)
		for _, occ := range src.Definitions {
			entry.add(occ, Definition)
		}
		for _, occ := range src.Declarations {
			entry.add(occ, Declaration)
		}
		for _, occ := range src.References {
			entry.add(occ, Reference)
		}
	}
}

func (t *SymbolTable) snapshot() map[string]*SymbolEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]*SymbolEntry, len(t.entries))
	for k, e := range t.entries {
		out[k] = e.clone()
	}
	return out
}

// Len returns the number of entries.
func (t *SymbolTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Entry returns a copy of the entry for key.
func (t *SymbolTable) Entry(key string) (*SymbolEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return nil, false
	}
	return e.clone(), true
}

// Keys returns all keys in sorted order.
func (t *SymbolTable) Keys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return sortedKeys(t.entries)
}

// Entries returns a copy of the table's contents.
func (t *SymbolTable) Entries() map[string]*SymbolEntry {
	return t.snapshot()
}

// Select returns a new table holding the entries for which keep returns
// true.
func (t *SymbolTable) Select(keep func(key string, e *SymbolEntry) bool) *SymbolTable {
	out := NewSymbolTable()
	for key, e := range t.snapshot() {
		if keep(key, e) {
			out.entries[key] = e
		}
	}
	return out
}

func sortedKeys(m map[string]*SymbolEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
