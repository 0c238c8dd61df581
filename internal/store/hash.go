package store

import "sort"

func hashBucketName(hashName string) string { return "hash$" + hashName }

// HashExists reports whether hashName has ever been created (i.e. its
// bucket exists and is non-empty or was explicitly created).
func (t *Txn) HashExists(hashName string) (bool, error) {
	b := t.tx.Bucket([]byte(hashBucketName(hashName)))
	return b != nil, nil
}

// HashClear deletes every element of hashName.
func (t *Txn) HashClear(hashName string) error {
	name := []byte(hashBucketName(hashName))
	if t.tx.Bucket(name) != nil {
		if err := t.tx.DeleteBucket(name); err != nil {
			return err
		}
	}
	_, err := t.tx.CreateBucket(name)
	return err
}

// HashInsert adds key to hashName as a pure-set member (no value).
func (t *Txn) HashInsert(hashName string, key []byte) error {
	b, err := bucketFor(t.tx, hashBucketName(hashName))
	if err != nil {
		return err
	}
	return b.Put(key, []byte{})
}

// HashInsertValue adds (key, value) to hashName, overwriting any prior
// value for key.
func (t *Txn) HashInsertValue(hashName string, key, value []byte) error {
	b, err := bucketFor(t.tx, hashBucketName(hashName))
	if err != nil {
		return err
	}
	return b.Put(key, value)
}

// HashInsertCheck inserts key only if absent, reporting whether it was
// newly inserted.
func (t *Txn) HashInsertCheck(hashName string, key []byte) (inserted bool, err error) {
	b, err := bucketFor(t.tx, hashBucketName(hashName))
	if err != nil {
		return false, err
	}
	if b.Get(key) != nil {
		return false, nil
	}
	return true, b.Put(key, []byte{})
}

// HashChoose returns an arbitrary member of hashName (the first key in
// bucket order), or ok=false if empty.
func (t *Txn) HashChoose(hashName string) (key []byte, ok bool, err error) {
	b := t.tx.Bucket([]byte(hashBucketName(hashName)))
	if b == nil {
		return nil, false, nil
	}
	k, _ := b.Cursor().First()
	if k == nil {
		return nil, false, nil
	}
	cp := make([]byte, len(k))
	copy(cp, k)
	return cp, true, nil
}

// HashChooseMaxBySort returns the member of hashName that sorts
// greatest according to less, without removing it. HashPopXdbKeyWithSort
// does its own selection by sort-hash value and does not call this.
func (t *Txn) HashChooseMaxBySort(hashName string, less func(a, b []byte) bool) (key []byte, ok bool, err error) {
	keys, err := t.HashAllKeys(hashName)
	if err != nil || len(keys) == 0 {
		return nil, false, err
	}
	best := keys[0]
	for _, k := range keys[1:] {
		if less(best, k) {
			best = k
		}
	}
	return best, true, nil
}

// HashRemove deletes key from hashName.
func (t *Txn) HashRemove(hashName string, key []byte) error {
	b := t.tx.Bucket([]byte(hashBucketName(hashName)))
	if b == nil {
		return nil
	}
	return b.Delete(key)
}

// HashAllKeys lists every member key of hashName, sorted for
// determinism.
func (t *Txn) HashAllKeys(hashName string) ([][]byte, error) {
	b := t.tx.Bucket([]byte(hashBucketName(hashName)))
	if b == nil {
		return nil, nil
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

// HashLookup returns the stored value for key, or nil if absent
// (HashInsert-only members read back as a zero-length, non-nil slice).
func (t *Txn) HashLookup(hashName string, key []byte) ([]byte, bool, error) {
	b := t.tx.Bucket([]byte(hashBucketName(hashName)))
	if b == nil {
		return nil, false, nil
	}
	v := b.Get(key)
	if v == nil {
		return nil, false, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

// HashLookupSingle is an alias kept for parity with spec.md §4.5's
// lookup[_single] naming; hashes in this backend are single-valued per
// key, so it behaves identically to HashLookup.
func (t *Txn) HashLookupSingle(hashName string, key []byte) ([]byte, bool, error) {
	return t.HashLookup(hashName, key)
}

// HashIsMember reports whether key is present in hashName.
func (t *Txn) HashIsMember(hashName string, key []byte) (bool, error) {
	_, ok, err := t.HashLookup(hashName, key)
	return ok, err
}

// HashIsEmpty reports whether hashName has zero members.
func (t *Txn) HashIsEmpty(hashName string) (bool, error) {
	b := t.tx.Bucket([]byte(hashBucketName(hashName)))
	if b == nil {
		return true, nil
	}
	k, _ := b.Cursor().First()
	return k == nil, nil
}
