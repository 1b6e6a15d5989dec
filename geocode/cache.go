// ABOUTME: Persistent geocode cache backed by BadgerDB with per-entry TTL
// ABOUTME: Keys are normalized addresses so spelling variants share an entry
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
)

const keyPrefix = "geocode:"

// Cache stores resolved addresses for a fixed TTL.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenCache opens the cache in dir. An empty dir keeps the cache in memory.
func OpenCache(dir string, ttl time.Duration) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open geocode cache: %w", err)
	}
	return &Cache{db: db, ttl: ttl}, nil
}

func cacheKey(address string) []byte {
	return []byte(keyPrefix + NormalizeAddress(address))
}

// Get returns the cached result for address, if present and not expired.
func (c *Cache) Get(address string) (Result, bool, error) {
	var res Result
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cacheKey(address))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &res)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("failed to read geocode cache: %w", err)
	}
	res.Cached = true
	return res, true, nil
}

// Put stores a result for address.
func (c *Cache) Put(address string, res Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode geocode result: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(cacheKey(address), data)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Len counts live entries.
func (c *Cache) Len() (int, error) {
	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Purge removes every entry.
func (c *Cache) Purge() error {
	return c.db.DropPrefix([]byte(keyPrefix))
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// CachedGeocoder consults the cache before delegating to another geocoder.
type CachedGeocoder struct {
	next  Geocoder
	cache *Cache
}

// NewCachedGeocoder wraps next with cache.
func NewCachedGeocoder(next Geocoder, cache *Cache) *CachedGeocoder {
	return &CachedGeocoder{next: next, cache: cache}
}

// Resolve returns a cached result when available. Only successful lookups are
// cached; cache errors fall through to the wrapped geocoder.
func (g *CachedGeocoder) Resolve(ctx context.Context, address string) (Result, error) {
	if res, ok, err := g.cache.Get(address); err == nil && ok {
		return res, nil
	}

	res, err := g.next.Resolve(ctx, address)
	if err != nil {
		return Result{}, err
	}
	_ = g.cache.Put(address, res)
	return res, nil
}
