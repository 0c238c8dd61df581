package cache

import (
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xgill-go/sixgill/internal/store"
)

func TestLookupCacheFillsOnMiss(t *testing.T) {
	calls := 0
	c := NewLookup[string, int](4, func(k string) (int, bool) {
		calls++
		if k == "known" {
			return 42, true
		}
		return 0, false
	})

	v, ok := c.Get("known")
	require.True(t, ok)
	require.Equal(t, 42, v)

	v, ok = c.Get("known")
	require.True(t, ok)
	require.Equal(t, 42, v)
	require.Equal(t, 1, calls) // second Get was served from cache

	_, ok = c.Get("missing")
	require.False(t, ok)
	require.Equal(t, 2, calls)
}

func TestLookupMemoryVariantNeverEvictsAutomatically(t *testing.T) {
	c := NewLookup[int, int](0, func(k int) (int, bool) { return k * 2, true })
	for i := 0; i < 1000; i++ {
		c.Get(i)
	}
	require.Equal(t, 1000, c.Len())
	c.Remove(0)
	require.Equal(t, 999, c.Len())
}

func encodeKey(k string) []byte { return []byte(k) }

func decodeSum(b []byte) (int, bool) {
	if len(b) != 8 {
		return 0, false
	}
	return int(binary.BigEndian.Uint64(b)), true
}

func marshalSum(v int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func TestMergeCacheFlushAccumulatesDeltas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merge.xdb")
	db, err := store.Open(path)
	require.NoError(t, err)
	defer db.Close()

	m := NewMerge(Config[string, int]{
		DBName:    "escape_access.xdb",
		EncodeKey: encodeKey,
		Decode:    decodeSum,
		Marshal:   marshalSum,
		Combine:   func(cur, delta int) int { return cur + delta },
		BatchSize: 10,
	})

	m.Insert("fn1", 1)
	m.Insert("fn1", 2)
	m.Insert("fn2", 5)
	require.Equal(t, 2, m.Dirty())

	require.NoError(t, m.FlushAll(db))
	require.Equal(t, 0, m.Dirty())

	require.NoError(t, db.View(func(txn *store.Txn) error {
		raw, ok, err := txn.XdbLookup("escape_access.xdb", []byte("fn1"))
		require.NoError(t, err)
		require.True(t, ok)
		v, _ := decodeSum(raw)
		require.Equal(t, 3, v)
		return nil
	}))

	// A second generation of inserts merges with the persisted value.
	m.Insert("fn1", 10)
	require.NoError(t, m.FlushAll(db))
	require.NoError(t, db.View(func(txn *store.Txn) error {
		raw, ok, err := txn.XdbLookup("escape_access.xdb", []byte("fn1"))
		require.NoError(t, err)
		require.True(t, ok)
		v, _ := decodeSum(raw)
		require.Equal(t, 13, v)
		return nil
	}))
}

func TestMergeCacheBatchSizeCapsSingleFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merge_batch.xdb")
	db, err := store.Open(path)
	require.NoError(t, err)
	defer db.Close()

	m := NewMerge(Config[string, int]{
		DBName:    "escape_access.xdb",
		EncodeKey: encodeKey,
		Decode:    decodeSum,
		Marshal:   marshalSum,
		Combine:   func(cur, delta int) int { return cur + delta },
		BatchSize: 2,
	})
	for i := 0; i < 5; i++ {
		m.Insert(string(rune('a'+i)), i)
	}
	committed, err := m.Flush(db)
	require.NoError(t, err)
	require.Equal(t, 2, committed)
	require.Equal(t, 3, m.Dirty())
}
