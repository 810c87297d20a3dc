package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const responsePrefix = "resp:"

// BadgerCache persists responses in a Badger database; Badger expires
// entries on its own through per-key TTLs.
type BadgerCache struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a response cache at path
func OpenBadger(path string) (*BadgerCache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache db: %w", err)
	}
	return &BadgerCache{db: db}, nil
}

func (c *BadgerCache) Get(ctx context.Context, key string) (*Response, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var resp Response
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(responsePrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &resp)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %q: %w", key, err)
	}
	return &resp, true, nil
}

func (c *BadgerCache) Set(ctx context.Context, key string, resp *Response, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode cached response: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(responsePrefix+key), data).WithTTL(ttl))
	})
}

// Sweep runs Badger's value log GC; expired keys are already invisible to Get
func (c *BadgerCache) Sweep(_ context.Context) (int, error) {
	err := c.db.RunValueLogGC(0.5)
	if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		return 0, err
	}
	return 0, nil
}

func (c *BadgerCache) Close() error {
	return c.db.Close()
}
