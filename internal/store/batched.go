package store

import "sync"

// BatchedStore buffers unit records in memory so indexing workers never
// contend for the SQLite writer. CommitBatch flushes them in one
// transaction.
//
// Thread safety: the mutex protects the slice. Reads (UnitByPath) pass
// through to the underlying Store, which is safe for concurrent reads.
type BatchedStore struct {
	store *Store
	mu    sync.Mutex

	Units []UnitRecord
}

// Compile-time check: *BatchedStore satisfies UnitWriter.
var _ UnitWriter = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore backed by s.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{store: s}
}

// SaveUnit buffers rec. A later record for the same path replaces an
// earlier one.
func (b *BatchedStore) SaveUnit(rec UnitRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Units {
		if b.Units[i].Path == rec.Path {
			b.Units[i] = rec
			return nil
		}
	}
	b.Units = append(b.Units, rec)
	return nil
}

// Len returns the number of buffered records.
func (b *BatchedStore) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Units)
}

// UnitByPath passes through to the underlying Store.
func (b *BatchedStore) UnitByPath(path string) (*Unit, error) {
	return b.store.UnitByPath(path)
}
