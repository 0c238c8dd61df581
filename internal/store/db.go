// Package store is the append-once, transactional key-value backend
// named in spec.md §4.5/§4.12: an opaque-bytes map per named database,
// mutated only inside transactions, with monotonically increasing
// commit TimeStamps for conflict detection.
//
// Grounded on original_source/backend/backend.h and backend_block.cpp
// (the transaction-IR dispatch loop) and backend_compound.cpp (the
// layered primitives in compound.go); backed by go.etcd.io/bbolt, the
// embedded transactional store the rest of the corpus reaches for
// (DataDog-datadog-agent, ethereum-go-ethereum, okx-cdk-erigon all
// vendor it for exactly this "durable append-style KV with ACID
// transactions" role).
package store

import (
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	metaBucket      = "__meta__"
	timestampKey    = "timestamp"
	tsTrackBucketSuffix = "__ts__"
)

// DB is one opaque-bytes backend; every named database in spec.md §6
// (src_body.xdb, body_memory.xdb, ...) lives as its own top-level bbolt
// bucket inside a single file, so the whole analysis run shares one file
// handle the way the teacher's CodeGen shares one output buffer.
type DB struct {
	bolt *bbolt.DB
}

// Open opens (creating if absent) the backend at path.
func Open(path string) (*DB, error) {
	b, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db := &DB{bolt: b}
	if err := db.Update(func(txn *Txn) error {
		_, err := txn.tx.CreateBucketIfNotExists([]byte(metaBucket))
		return err
	}); err != nil {
		b.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the backend's file handle.
func (d *DB) Close() error { return d.bolt.Close() }

// Txn is the transaction handle passed to every backend primitive; the
// methods in this file and compound.go are the "tiny RPC-like IR" named
// in spec.md §4.5, expressed directly as Go methods instead of an
// interpreted program, since Go already gives us a real host language to
// compose primitives in.
type Txn struct {
	tx *bbolt.Tx
	db *DB
}

// Update runs fn inside a read-write transaction. Any error aborts the
// whole transaction; per spec.md §4.5 ("Any primitive failure aborts the
// transaction") there is no partial commit.
func (d *DB) Update(fn func(*Txn) error) error {
	return d.bolt.Update(func(tx *bbolt.Tx) error {
		return fn(&Txn{tx: tx, db: d})
	})
}

// View runs fn inside a read-only transaction.
func (d *DB) View(fn func(*Txn) error) error {
	return d.bolt.View(func(tx *bbolt.Tx) error {
		return fn(&Txn{tx: tx, db: d})
	})
}

func bucketFor(tx *bbolt.Tx, name string) (*bbolt.Bucket, error) {
	b, err := tx.CreateBucketIfNotExists([]byte(name))
	if err != nil {
		return nil, fmt.Errorf("store: create bucket %s: %w", name, err)
	}
	return b, nil
}

// XdbLookup reads the current value for key in database dbName.
func (t *Txn) XdbLookup(dbName string, key []byte) ([]byte, bool, error) {
	b, err := bucketFor(t.tx, dbName)
	if err != nil {
		return nil, false, err
	}
	v := b.Get(key)
	if v == nil {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// XdbReplace unconditionally writes value for key.
func (t *Txn) XdbReplace(dbName string, key, value []byte) error {
	b, err := bucketFor(t.tx, dbName)
	if err != nil {
		return err
	}
	return b.Put(key, value)
}

// XdbEnableTimestamps turns on per-key timestamp tracking for dbName;
// subsequent XdbReplace calls via ReplaceIfTimestampLE-aware helpers
// will record the commit stamp.
func (t *Txn) XdbEnableTimestamps(dbName string) error {
	_, err := bucketFor(t.tx, dbName+tsTrackBucketSuffix)
	return err
}

// XdbReplaceIfTimestampLE writes value for key only if the key's
// recorded timestamp is <= stamp (i.e. unchanged since the caller last
// read it); it returns applied=false on conflict without erroring, so
// callers can retry (spec.md §4.5, §7 "Timestamp conflict ... Re-merge
// locally and retry").
func (t *Txn) XdbReplaceIfTimestampLE(dbName string, key, value []byte, stamp TimeStamp) (applied bool, err error) {
	tsBucket, err := bucketFor(t.tx, dbName+tsTrackBucketSuffix)
	if err != nil {
		return false, err
	}
	if cur := tsBucket.Get(key); cur != nil {
		curStamp := TimeStamp(beUint64(cur))
		if stamp < curStamp {
			return false, nil
		}
	}
	b, err := bucketFor(t.tx, dbName)
	if err != nil {
		return false, err
	}
	if err := b.Put(key, value); err != nil {
		return false, err
	}
	next, err := t.TimestampAdvance()
	if err != nil {
		return false, err
	}
	return true, tsBucket.Put(key, beBytes(uint64(next)))
}

// XdbAllKeys lists every key currently stored in dbName, sorted for
// determinism.
func (t *Txn) XdbAllKeys(dbName string) ([][]byte, error) {
	b, err := bucketFor(t.tx, dbName)
	if err != nil {
		return nil, err
	}
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		cp := make([]byte, len(k))
		copy(cp, k)
		keys = append(keys, cp)
	}
	sort.Slice(keys, func(i, j int) bool { return string(keys[i]) < string(keys[j]) })
	return keys, nil
}

// TimestampAdvance bumps and returns the process-wide commit stamp
// (spec.md §8 property 7: "advance_time_stamp is strictly increasing").
func (t *Txn) TimestampAdvance() (TimeStamp, error) {
	meta, err := bucketFor(t.tx, metaBucket)
	if err != nil {
		return 0, err
	}
	var cur TimeStamp
	if raw := meta.Get([]byte(timestampKey)); raw != nil {
		cur = TimeStamp(beUint64(raw))
	}
	cur++
	if now := NewTimeStamp(uint32(time.Now().Unix()), 0); cur < now {
		cur = now
	}
	if err := meta.Put([]byte(timestampKey), beBytes(uint64(cur))); err != nil {
		return 0, err
	}
	return cur, nil
}

// TimestampCurrent reads the commit stamp without advancing it.
func (t *Txn) TimestampCurrent() (TimeStamp, error) {
	meta, err := bucketFor(t.tx, metaBucket)
	if err != nil {
		return 0, err
	}
	if raw := meta.Get([]byte(timestampKey)); raw != nil {
		return TimeStamp(beUint64(raw)), nil
	}
	return 0, nil
}

func beBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// StringIsEmpty mirrors the trivial string_is_empty primitive named in
// spec.md §4.5; it needs no transaction, but lives here so callers can
// treat it as part of the same primitive set.
func StringIsEmpty(s []byte) bool { return len(s) == 0 }
