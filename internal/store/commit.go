package store

import (
	"fmt"
	"time"
)

// CommitBatch writes every buffered record from batch into SQLite within
// a single transaction, then empties the batch. Units are written in the
// order they were buffered; symbols no unit refers to any more are pruned
// once at the end.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	batch.mu.Lock()
	defer batch.mu.Unlock()
	if len(batch.Units) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, rec := range batch.Units {
		if err := saveUnitTx(tx, rec, now); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
	}
	if err := pruneSymbolsTx(tx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	batch.Units = nil
	return nil
}
