package store

import "encoding/binary"

func listBucketName(listName string) string { return "list$" + listName }

// ListCreate resets listName to empty, creating its backing bucket if
// absent.
func (t *Txn) ListCreate(listName string) error {
	name := []byte(listBucketName(listName))
	if t.tx.Bucket(name) != nil {
		if err := t.tx.DeleteBucket(name); err != nil {
			return err
		}
	}
	_, err := t.tx.CreateBucket(name)
	return err
}

// ListPush appends value to the end of listName, keyed by an
// auto-incrementing bbolt sequence so iteration order matches push
// order.
func (t *Txn) ListPush(listName string, value []byte) error {
	b, err := bucketFor(t.tx, listBucketName(listName))
	if err != nil {
		return err
	}
	seq, err := b.NextSequence()
	if err != nil {
		return err
	}
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return b.Put(key, value)
}

// ListPopBack removes and returns the most recently pushed value of
// listName (LIFO), used by the worklist scheduler's "pop the last item"
// rule (spec.md §4.11).
func (t *Txn) ListPopBack(listName string) (value []byte, ok bool, err error) {
	b := t.tx.Bucket([]byte(listBucketName(listName)))
	if b == nil {
		return nil, false, nil
	}
	c := b.Cursor()
	k, v := c.Last()
	if k == nil {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	if err := b.Delete(k); err != nil {
		return nil, false, err
	}
	return cp, true, nil
}

// ListLen reports how many values remain in listName.
func (t *Txn) ListLen(listName string) (int, error) {
	b := t.tx.Bucket([]byte(listBucketName(listName)))
	if b == nil {
		return 0, nil
	}
	n := 0
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	return n, nil
}

// ListAll returns every pushed value for listName in push order.
func (t *Txn) ListAll(listName string) ([][]byte, error) {
	b := t.tx.Bucket([]byte(listBucketName(listName)))
	if b == nil {
		return nil, nil
	}
	var out [][]byte
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		cp := make([]byte, len(v))
		copy(cp, v)
		out = append(out, cp)
	}
	return out, nil
}
