package badger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/semkit/memory"
)

// Store implements memory.Store on a Backend.
type Store struct {
	backend *Backend
	owned   bool
}

var _ memory.Store = (*Store)(nil)

// NewStore creates a store over an existing backend. Close does not close
// the backend.
func NewStore(backend *Backend) *Store {
	return &Store{backend: backend}
}

// Open opens a persistent store in dir.
func Open(dir string) (*Store, error) {
	backend, err := OpenBackend(dir, false)
	if err != nil {
		return nil, err
	}
	return &Store{backend: backend, owned: true}, nil
}

// OpenInMemory opens a store that lives only in memory.
func OpenInMemory() (*Store, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	return &Store{backend: backend, owned: true}, nil
}

func validCollection(collection string) error {
	if strings.TrimSpace(collection) == "" {
		return memory.ErrEmptyCollection
	}
	if strings.IndexByte(collection, 0) >= 0 {
		return fmt.Errorf("%w: collection contains a zero byte", memory.ErrEmptyCollection)
	}
	return nil
}

// Upsert stores records, replacing any with the same ID. A zero ID is set
// from the record's collection and key.
func (s *Store) Upsert(ctx context.Context, records ...*memory.Record) error {
	for _, r := range records {
		if r == nil {
			continue
		}
		if err := validCollection(r.Collection); err != nil {
			return err
		}
		if r.ID == 0 {
			r.ID = memory.RecordID(r.Collection, r.Key)
		}
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, r := range records {
			if r == nil {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := tx.Set(makeRecordKey(r.Collection, r.ID), memory.MarshalRecord(r)); err != nil {
				return err
			}
			if err := tx.Set(makeCollectionKey(r.Collection), nil); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Get returns the record for collection and key.
func (s *Store) Get(ctx context.Context, collection, key string) (*memory.Record, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	var record *memory.Record
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRecordKey(collection, memory.RecordID(collection, key)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: %s/%s", memory.ErrRecordNotFound, collection, key)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			record, err = memory.UnmarshalRecord(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Remove deletes the records for keys. The collection marker goes away
// with its last record.
func (s *Store) Remove(ctx context.Context, collection string, keys ...string) error {
	if err := validCollection(collection); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := tx.Delete(makeRecordKey(collection, memory.RecordID(collection, key))); err != nil {
				return err
			}
		}
		if isEmpty(tx, collection) {
			if err := tx.Delete(makeCollectionKey(collection)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

func isEmpty(tx *badger.Txn, collection string) bool {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = makeRecordPrefix(collection)
	iter := tx.NewIterator(opts)
	defer iter.Close()
	iter.Rewind()
	return !iter.Valid()
}

// Nearest scans collection and ranks records by cosine similarity to
// vector. Records without a vector are skipped. A limit below 1 returns
// every match.
func (s *Store) Nearest(ctx context.Context, collection string, vector []float32, limit int, minRelevance float64) ([]*memory.Match, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	var results []*memory.Match

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeRecordPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var record *memory.Record
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = memory.UnmarshalRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if len(record.Vector) == 0 {
				continue
			}

			relevance := memory.CosineSimilarity(vector, record.Vector)
			if relevance >= minRelevance {
				results = append(results, &memory.Match{Record: record, Relevance: relevance})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by relevance descending, then key for a stable order
	slices.SortFunc(results, func(a, b *memory.Match) int {
		switch {
		case a.Relevance > b.Relevance:
			return -1
		case a.Relevance < b.Relevance:
			return 1
		default:
			return strings.Compare(a.Record.Key, b.Record.Key)
		}
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Records returns every record of collection in key order.
func (s *Store) Records(ctx context.Context, collection string) ([]*memory.Record, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	var records []*memory.Record

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeRecordPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := iter.Item().Value(func(val []byte) error {
				record, err := memory.UnmarshalRecord(val)
				if err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Collections lists collections with at least one record.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	var names []string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(collectionPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			names = append(names, strings.TrimPrefix(string(iter.Item().Key()), collectionPrefix))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Close closes the backend if the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.backend.Close()
}
