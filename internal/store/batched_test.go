package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_BuffersUntilCommit(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	batch := NewBatchedStore(s)

	require.NoError(t, batch.SaveUnit(UnitRecord{Path: "a.c", Fingerprint: "1", Table: unitTable("foo()")}))
	assert.Equal(t, 1, batch.Len())

	// Nothing is visible in SQLite before the commit.
	u, err := batch.UnitByPath("a.c")
	require.NoError(t, err)
	assert.Nil(t, u)

	require.NoError(t, s.CommitBatch(batch))
	assert.Zero(t, batch.Len())

	u, err = s.UnitByPath("a.c")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "1", u.Fingerprint)
}

func TestBatchedStore_LaterRecordReplaces(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	batch := NewBatchedStore(s)

	require.NoError(t, batch.SaveUnit(UnitRecord{Path: "a.c", Fingerprint: "old"}))
	require.NoError(t, batch.SaveUnit(UnitRecord{Path: "a.c", Fingerprint: "new"}))
	assert.Equal(t, 1, batch.Len())

	require.NoError(t, s.CommitBatch(batch))
	u, err := s.UnitByPath("a.c")
	require.NoError(t, err)
	assert.Equal(t, "new", u.Fingerprint)
}

func TestBatchedStore_ConcurrentWorkers(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	batch := NewBatchedStore(s)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			path := fmt.Sprintf("u%02d.c", i)
			assert.NoError(t, batch.SaveUnit(UnitRecord{Path: path, Table: unitTable("foo()")}))
		}()
	}
	wg.Wait()
	require.NoError(t, s.CommitBatch(batch))

	units, err := s.Units()
	require.NoError(t, err)
	assert.Len(t, units, 16)

	decls, err := s.Occurrences("c:@F@foo", RoleDeclaration)
	require.NoError(t, err)
	assert.Len(t, decls, 16)
}

func TestCommitBatch_Empty(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.CommitBatch(NewBatchedStore(s)))
}
