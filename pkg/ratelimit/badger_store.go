package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const counterPrefix = "rl:"

// maxConflictRetries bounds retries of a counter transaction that lost a write race
const maxConflictRetries = 10

// BadgerStore keeps counters in a Badger database so they survive restarts.
// Keys expire on their own one window after they were written.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) a counter database at path
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open rate limit store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Update(ctx context.Context, key string, fn func(Entry, bool) Entry, ttl time.Duration) (Entry, error) {
	var out Entry
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return Entry{}, err
		}

		err := s.db.Update(func(txn *badger.Txn) error {
			k := []byte(counterPrefix + key)

			var (
				current Entry
				found   bool
			)
			item, err := txn.Get(k)
			switch {
			case err == nil:
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &current)
				}); err != nil {
					return fmt.Errorf("decode counter: %w", err)
				}
				found = true
			case errors.Is(err, badger.ErrKeyNotFound):
			default:
				return err
			}

			out = fn(current, found)
			data, err := json.Marshal(out)
			if err != nil {
				return err
			}

			entry := badger.NewEntry(k, data)
			if expiry := time.Until(out.WindowStart.Add(ttl)); expiry > 0 {
				entry = entry.WithTTL(expiry)
			}
			return txn.SetEntry(entry)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return Entry{}, fmt.Errorf("update counter: %w", err)
		}
		return out, nil
	}
	return Entry{}, fmt.Errorf("update counter: %w", badger.ErrConflict)
}

func (s *BadgerStore) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	var stale [][]byte

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(counterPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var e Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil || e.WindowStart.Before(cutoff) {
				stale = append(stale, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range stale {
		if err := wb.Delete(k); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}
	return len(stale), nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}
