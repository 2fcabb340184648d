package buildindex

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/dgraph-io/badger/v3"
)

// Stager persists per-track fingerprint results as they're computed, so an
// interrupted BuildSegment run can resume without recomputing already
// indexed tracks (grounded on the teacher's WriteBatch-staged badger
// usage during indexing).
type Stager struct {
	db *badger.DB
}

// OpenStager opens (creating if needed) a badger staging store at dir.
func OpenStager(dir string) (*Stager, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("buildindex: open staging db: %w", err)
	}
	return &Stager{db: db}, nil
}

// Close releases the staging store.
func (s *Stager) Close() error {
	return s.db.Close()
}

// Has reports whether path already has a staged result.
func (s *Stager) Has(path string) bool {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(path))
		return err
	})
	return err == nil
}

// Put stages the fingerprint result for path.
func (s *Stager) Put(path string, entry TrackEntry) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return fmt.Errorf("buildindex: encode staged entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(path), buf.Bytes())
	})
}

// Get retrieves the staged result for path, if any.
func (s *Stager) Get(path string) (TrackEntry, bool, error) {
	var entry TrackEntry
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(path))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			found = true
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&entry)
		})
	})
	if err != nil {
		return TrackEntry{}, false, fmt.Errorf("buildindex: read staged entry: %w", err)
	}
	return entry, found, nil
}

// All returns every staged entry in the store, in undefined order, without
// removing any — the caller is responsible for assigning stable audio IDs
// and sorting.
func (s *Stager) All() ([]TrackEntry, error) {
	var entries []TrackEntry

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var entry TrackEntry
				if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&entry); err != nil {
					return err
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("buildindex: %w", err)
	}
	return entries, nil
}
