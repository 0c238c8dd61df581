// Compound operations layered on the Hash/List/Xdb primitives, grounded
// on original_source/backend/backend_compound.cpp. Each one runs as a
// single bbolt transaction so the read-decide-write sequence it encodes
// can never observe a half-applied mutation from a concurrent writer.
package store

import "fmt"

// HashCreateXdbKeys seeds hashName with every key currently stored in
// dbName, the "load a worklist from a database's keyspace" compound
// named in spec.md §4.5.
func (t *Txn) HashCreateXdbKeys(hashName, dbName string) error {
	keys, err := t.XdbAllKeys(dbName)
	if err != nil {
		return fmt.Errorf("store: hash_create_xdb_keys: %w", err)
	}
	for _, k := range keys {
		if err := t.HashInsert(hashName, k); err != nil {
			return err
		}
	}
	return nil
}

// HashPopXdbKey removes an arbitrary member of hashName and returns it
// together with its current value in dbName. ok is false once hashName
// is exhausted.
func (t *Txn) HashPopXdbKey(hashName, dbName string) (key, value []byte, ok bool, err error) {
	key, ok, err = t.HashChoose(hashName)
	if err != nil || !ok {
		return nil, nil, ok, err
	}
	if err := t.HashRemove(hashName, key); err != nil {
		return nil, nil, false, err
	}
	value, _, err = t.XdbLookup(dbName, key)
	if err != nil {
		return nil, nil, false, err
	}
	return key, value, true, nil
}

// HashPopXdbKeyWithSort is HashPopXdbKey but chooses the member whose
// recorded sort key (looked up in sortHashName) compares greatest,
// matching the scheduler's "pop highest-priority pending key" use
// (spec.md §4.11 worklist ordering).
func (t *Txn) HashPopXdbKeyWithSort(sortHashName, hashName, dbName string) (key, value []byte, ok bool, err error) {
	keys, err := t.HashAllKeys(hashName)
	if err != nil {
		return nil, nil, false, err
	}
	if len(keys) == 0 {
		return nil, nil, false, nil
	}
	best := keys[0]
	bestSort, _, err := t.HashLookup(sortHashName, best)
	if err != nil {
		return nil, nil, false, err
	}
	for _, k := range keys[1:] {
		sv, _, err := t.HashLookup(sortHashName, k)
		if err != nil {
			return nil, nil, false, err
		}
		if string(sv) > string(bestSort) {
			best, bestSort = k, sv
		}
	}
	if err := t.HashRemove(hashName, best); err != nil {
		return nil, nil, false, err
	}
	if err := t.HashRemove(sortHashName, best); err != nil {
		return nil, nil, false, err
	}
	value, _, err = t.XdbLookup(dbName, best)
	if err != nil {
		return nil, nil, false, err
	}
	return best, value, true, nil
}

// XdbReplaceConditional applies XdbReplaceIfTimestampLE and reports the
// conflict outcome as an error distinct from a transaction-level
// failure, so callers at the sched/cache boundary can branch on
// conflict without inspecting a bool return (spec.md §7 "Timestamp
// conflict during merge-write").
var ErrTimestampConflict = fmt.Errorf("store: timestamp conflict")

func (t *Txn) XdbReplaceConditional(dbName string, key, value []byte, stamp TimeStamp) error {
	applied, err := t.XdbReplaceIfTimestampLE(dbName, key, value, stamp)
	if err != nil {
		return err
	}
	if !applied {
		return ErrTimestampConflict
	}
	return nil
}

// XdbReplaceTry reads the current value for key, applies merge to
// (old, new), and writes the merged result only if merge reports a
// change — the "merge-read" compound named in spec.md §4.5/§8 property
// 6 (merge is commutative: applying two updates in either order
// converges).
func (t *Txn) XdbReplaceTry(dbName string, key, newValue []byte, merge func(old, new []byte) (merged []byte, changed bool)) (changed bool, err error) {
	old, _, err := t.XdbLookup(dbName, key)
	if err != nil {
		return false, err
	}
	merged, changed := merge(old, newValue)
	if !changed {
		return false, nil
	}
	return true, t.XdbReplace(dbName, key, merged)
}

func dependencyHashName(depHashPrefix string, key []byte) string {
	return depHashPrefix + ":" + string(key)
}

// UpdateDependency records that target depends on source: every future
// UpdateDependency/XdbLookupDependency pair that writes to source will
// be able to find target. Grounded on the dependency-edge bookkeeping
// in backend_compound.cpp's update_dependency, used by the scheduler
// (spec.md §4.11) to propagate "source changed" into "target is now
// stale".
func (t *Txn) UpdateDependency(depHashPrefix string, source, target []byte) error {
	return t.HashInsert(dependencyHashName(depHashPrefix, source), target)
}

// XdbLookupDependency returns every target previously registered via
// UpdateDependency(depHashPrefix, source, target).
func (t *Txn) XdbLookupDependency(depHashPrefix string, source []byte) ([][]byte, error) {
	return t.HashAllKeys(dependencyHashName(depHashPrefix, source))
}
