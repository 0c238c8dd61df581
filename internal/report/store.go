package report

import "github.com/xgill-go/sixgill/internal/store"

// Save persists one assertion's rendered XML fragment under
// report_<kind>.xdb, keyed by AssertionKey(e), spec.md §6.
func Save(db *store.DB, checkKind string, e Entry, payload []byte) error {
	return db.Update(func(txn *store.Txn) error {
		return txn.XdbReplace(DBName(checkKind), []byte(AssertionKey(e)), payload)
	})
}

// Load looks up a previously saved report fragment.
func Load(db *store.DB, checkKind string, e Entry) ([]byte, bool, error) {
	var payload []byte
	var ok bool
	err := db.View(func(txn *store.Txn) error {
		v, found, err := txn.XdbLookup(DBName(checkKind), []byte(AssertionKey(e)))
		if err != nil {
			return err
		}
		payload, ok = v, found
		return nil
	})
	return payload, ok, err
}
