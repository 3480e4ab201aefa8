// SPDX-License-Identifier: MIT

package cache

import (
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// badgerCache persists rendered documents on disk so a restart does not force
// every report format to re-render.
type badgerCache struct {
	db       *badger.DB
	logger   zerolog.Logger
	counters counters
}

// NewBadger opens (or creates) a Badger store at dir.
func NewBadger(dir string, logger zerolog.Logger) (Cache, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store %s: %w", dir, err)
	}

	logger.Info().
		Str("event", "cache.badger_opened").
		Str("dir", dir).
		Msg("opened on-disk report cache")

	return &badgerCache{db: db, logger: logger}, nil
}

func (c *badgerCache) Get(key string) ([]byte, bool) {
	var value []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			c.logger.Warn().Err(err).Str("key", key).Msg("badger get failed")
		}
		c.counters.misses.Add(1)
		return nil, false
	}
	c.counters.hits.Add(1)
	return value, true
}

func (c *badgerCache) Set(key string, value []byte, ttl time.Duration) {
	err := c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value).WithTTL(ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("badger set failed")
		return
	}
	c.counters.sets.Add(1)
}

func (c *badgerCache) Delete(key string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("badger delete failed")
	}
}

func (c *badgerCache) Clear() {
	if err := c.db.DropAll(); err != nil {
		c.logger.Warn().Err(err).Msg("badger drop failed")
	}
}

func (c *badgerCache) Stats() Stats {
	stats := c.counters.snapshot()

	// key count needs a keys-only scan; expired keys are skipped
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			stats.CurrentSize++
		}
		return nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Msg("badger stats failed")
	}
	return stats
}

func (c *badgerCache) Close() error { return c.db.Close() }
