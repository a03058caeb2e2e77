package store

// UnitWriter is the write side of the index. Both Store (direct SQLite)
// and BatchedStore (in-memory buffering for parallel indexing) implement
// this interface.
type UnitWriter interface {
	SaveUnit(rec UnitRecord) error
}

// Compile-time check: *Store satisfies UnitWriter.
var _ UnitWriter = (*Store)(nil)
