// Package cache stores HTTP response bodies in SQLite so repeated
// construction runs do not hit remote services again.
package cache

import (
	"context"
	"database/sql"
	"encoding/hex"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"
)

// Cache is a persistent key/value store of compressed response bodies.
// A nil *Cache is valid and caches nothing.
type Cache struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Open opens or creates the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening cache")
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cache (
			ckey TEXT PRIMARY KEY,
			cval BLOB NOT NULL,
			stored_at INTEGER NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating cache table")
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db, enc: enc, dec: dec}, nil
}

// Close releases the database.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	c.enc.Close()
	c.dec.Close()
	return c.db.Close()
}

// Key digests the parts of a request into a fixed-size cache key.
func Key(parts ...string) string {
	sum := blake2b.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Get returns the value stored under key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	var blob []byte
	err := c.db.QueryRowContext(ctx, `SELECT cval FROM cache WHERE ckey = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "reading cache")
	}
	val, err := c.dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, false, errors.Wrapf(err, "decompressing cache entry %s", key)
	}
	return val, true, nil
}

// Put stores val under key, replacing any earlier value.
func (c *Cache) Put(ctx context.Context, key string, val []byte) error {
	if c == nil {
		return nil
	}
	blob := c.enc.EncodeAll(val, nil)
	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache (ckey, cval, stored_at) VALUES (?, ?, ?)`,
		key, blob, time.Now().Unix())
	if err != nil {
		return errors.Wrap(err, "writing cache")
	}
	return nil
}

// Fetch returns the cached value for key, calling fetch and storing its
// result on a miss. Failed fetches are not cached.
func (c *Cache) Fetch(ctx context.Context, key string, fetch func(context.Context) ([]byte, error)) ([]byte, error) {
	if val, ok, err := c.Get(ctx, key); err != nil {
		return nil, err
	} else if ok {
		return val, nil
	}

	val, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Put(ctx, key, val); err != nil {
		return nil, err
	}
	return val, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len(ctx context.Context) (int, error) {
	if c == nil {
		return 0, nil
	}
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache`).Scan(&n)
	return n, err
}
