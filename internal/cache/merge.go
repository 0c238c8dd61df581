package cache

import (
	"errors"
	"sort"
	"sync"

	"github.com/xgill-go/sixgill/internal/store"
)

// Merge is Key -> Object, accumulating a per-key delta on every Insert
// and flushing those deltas to a store database with a two-phase
// conditional commit (spec.md §4.6): phase 1 reads the persisted bytes
// for each dirty key with timestamps enabled, phase 2 merges deltas
// into each value and commits conditionally, re-queuing any delta that
// lost a timestamp race.
type Merge[K comparable, V any] struct {
	mu      sync.Mutex
	dbName  string
	encode  func(K) []byte
	decode  func([]byte) (V, bool)
	marshal func(V) []byte
	combine func(current V, delta V) V

	dirty     map[K]V
	batchSize int
}

// Config bundles the codecs a Merge cache needs to talk to a store
// database: encode/decode the key and persisted value, and combine a
// delta into the current accumulated value.
type Config[K comparable, V any] struct {
	DBName    string
	EncodeKey func(K) []byte
	Decode    func([]byte) (V, bool) // found=false means "no prior value"
	Marshal   func(V) []byte
	Combine   func(current V, delta V) V
	BatchSize int
}

// NewMerge constructs a Merge cache from cfg, defaulting BatchSize to
// 256 (the value of config.DefaultFlushBatchSize) when unset.
func NewMerge[K comparable, V any](cfg Config[K, V]) *Merge[K, V] {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 256
	}
	return &Merge[K, V]{
		dbName:    cfg.DBName,
		encode:    cfg.EncodeKey,
		decode:    cfg.Decode,
		marshal:   cfg.Marshal,
		combine:   cfg.Combine,
		dirty:     make(map[K]V),
		batchSize: batch,
	}
}

// Insert accumulates delta into key's pending in-memory value. If key
// has no pending value yet, delta itself becomes the pending value.
func (m *Merge[K, V]) Insert(key K, delta V) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.dirty[key]; ok {
		m.dirty[key] = m.combine(cur, delta)
	} else {
		m.dirty[key] = delta
	}
}

// Dirty reports the number of keys with a pending, unflushed delta —
// the signal the scheduler uses for the eviction-count half of the
// "flush both by eviction and high-memory heuristic" rule.
func (m *Merge[K, V]) Dirty() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.dirty)
}

// Flush drains up to m.batchSize dirty keys into db in one
// two-phase transaction, returning the number of keys successfully
// committed. Keys that lose the optimistic-timestamp race are
// re-inserted into the cache for a future Flush attempt, per spec.md
// §4.6 ("the unsuccessful deltas are re-inserted into the cache").
func (m *Merge[K, V]) Flush(db *store.DB) (committed int, err error) {
	batch, keys := m.takeBatch()
	if len(batch) == 0 {
		return 0, nil
	}

	retry := make(map[K]V)
	txnErr := db.Update(func(txn *store.Txn) error {
		if err := txn.XdbEnableTimestamps(m.dbName); err != nil {
			return err
		}
		// Phase 1: read the current persisted bytes and this
		// transaction's stamp for every dirty key.
		stamp, err := txn.TimestampCurrent()
		if err != nil {
			return err
		}
		for _, k := range keys {
			rawKey := m.encode(k)
			raw, found, err := txn.XdbLookup(m.dbName, rawKey)
			if err != nil {
				return err
			}
			var current V
			if found {
				decoded, ok := m.decode(raw)
				if !ok {
					return errors.New("cache: corrupt merge entry")
				}
				current = decoded
			}
			merged := m.combine(current, batch[k])
			// Phase 2: commit conditionally against the stamp read in
			// phase 1; a concurrent writer advances the tracked stamp
			// and this call reports store.ErrTimestampConflict.
			if err := txn.XdbReplaceConditional(m.dbName, rawKey, m.marshal(merged), stamp); err != nil {
				if errors.Is(err, store.ErrTimestampConflict) {
					retry[k] = batch[k]
					continue
				}
				return err
			}
			committed++
		}
		return nil
	})
	if txnErr != nil {
		return 0, txnErr
	}

	if len(retry) > 0 {
		m.mu.Lock()
		for k, v := range retry {
			if cur, ok := m.dirty[k]; ok {
				m.dirty[k] = m.combine(cur, v)
			} else {
				m.dirty[k] = v
			}
		}
		m.mu.Unlock()
	}
	return committed, nil
}

// takeBatch removes up to m.batchSize keys from the dirty set,
// returning their deltas and a sorted key slice (sorted so Flush's
// store reads happen in deterministic order, matching the worklist
// scheduler's determinism requirement, spec.md §8 property 5).
func (m *Merge[K, V]) takeBatch() (map[K]V, []K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.dirty) == 0 {
		return nil, nil
	}
	keys := make([]K, 0, len(m.dirty))
	for k := range m.dirty {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return string(m.encode(keys[i])) < string(m.encode(keys[j]))
	})
	if len(keys) > m.batchSize {
		keys = keys[:m.batchSize]
	}
	batch := make(map[K]V, len(keys))
	for _, k := range keys {
		batch[k] = m.dirty[k]
		delete(m.dirty, k)
	}
	return batch, keys
}

// FlushAll repeatedly calls Flush until no dirty keys remain, the
// "flush merge caches until empty" step of the analysis_cleanup
// ordering (spec.md §9).
func (m *Merge[K, V]) FlushAll(db *store.DB) error {
	for m.Dirty() > 0 {
		if _, err := m.Flush(db); err != nil {
			return err
		}
	}
	return nil
}
