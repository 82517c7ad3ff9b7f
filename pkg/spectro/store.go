package spectro

import (
	"bytes"
	"encoding/gob"

	"github.com/dgraph-io/badger/v4"
)

// TrackStore persists analyzed tracks so a sequence can be reopened
// without re-running the analyzer over the audio.
type TrackStore struct {
	db *badger.DB
}

func OpenTrackStore(path string) (*TrackStore, error) {
	opts := badger.DefaultOptions(path)
	// Decrease logging verbosity
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &TrackStore{db: db}, nil
}

func (s *TrackStore) Close() error {
	return s.db.Close()
}

func (s *TrackStore) Put(t *Track) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(t); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(t.ID()), buf.Bytes())
	})
}

// Get returns the stored track, or nil when no analysis exists for the
// source/mode pair.
func (s *TrackStore) Get(source, channelMode string) (*Track, error) {
	key := source + "_" + channelMode
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var t Track
	if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ForEach visits every stored track ID.
func (s *TrackStore) ForEach(fn func(id string) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := fn(string(it.Item().Key())); err != nil {
				return err
			}
		}
		return nil
	})
}
