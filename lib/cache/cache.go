// Package cache stores GET responses in a bbolt file so repeated route
// executions can be answered without a round trip.
//
// Entries are encoded with lib/encoding, so a cache file copied between
// machines cannot be tampered with (signed) or read (sealed) without the key.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pthm/larafront/lib/encoding"
)

const bucketResponses = "responses"

// DefaultTTL is used when no TTL option is given.
const DefaultTTL = 5 * time.Minute

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("cache: store closed")

// Entry is a cached response.
type Entry struct {
	Status  int   `msgpack:"status"`
	Data    any   `msgpack:"data"`
	Expires int64 `msgpack:"expires"`
}

// Store is a bbolt-backed response cache.
type Store struct {
	db        *bolt.DB
	enc       *encoding.Encoder
	ttl       time.Duration
	sensitive bool
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets how long entries stay fresh.
func WithTTL(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// WithSealed encrypts entries instead of signing them.
func WithSealed() Option {
	return func(s *Store) { s.sensitive = true }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (or creates) the cache file at path.
func Open(path string, key []byte, opts ...Option) (*Store, error) {
	enc, err := encoding.NewEncoder(key)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketResponses))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init: %w", err)
	}

	s := &Store{db: db, enc: enc, ttl: DefaultTTL, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Key builds the cache key for a request. Payload maps are encoded with
// sorted keys, so equal payloads give equal keys.
func Key(method, url string, payload map[string]any) string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteByte(' ')
	b.WriteString(url)
	if len(payload) > 0 {
		p, err := json.Marshal(payload)
		if err == nil {
			b.WriteByte(' ')
			b.Write(p)
		}
	}
	return b.String()
}

// Get returns the fresh entry stored under key. Expired or undecodable
// entries are reported as misses.
func (s *Store) Get(key string) (Entry, bool, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketResponses)).Get([]byte(key)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return Entry{}, false, s.wrap(err)
	}
	if raw == nil {
		return Entry{}, false, nil
	}

	var e Entry
	if err := s.enc.Decode(string(raw), s.sensitive, &e); err != nil {
		return Entry{}, false, nil
	}
	if s.now().UnixNano() >= e.Expires {
		return Entry{}, false, nil
	}
	return e, true, nil
}

// Put stores data under key with the configured TTL.
func (s *Store) Put(key string, status int, data any) error {
	e := Entry{Status: status, Data: data, Expires: s.now().Add(s.ttl).UnixNano()}
	encoded, err := s.enc.Encode(e, s.sensitive)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return s.wrap(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketResponses)).Put([]byte(key), []byte(encoded))
	}))
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	return s.wrap(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketResponses)).Delete([]byte(key))
	}))
}

// Purge removes expired and undecodable entries and reports how many were
// removed.
func (s *Store) Purge() (int, error) {
	now := s.now().UnixNano()
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketResponses))
		var stale [][]byte
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var e Entry
			if err := s.enc.Decode(string(v), s.sensitive, &e); err != nil || now >= e.Expires {
				stale = append(stale, append([]byte(nil), k...))
			}
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, s.wrap(err)
}

// Sealed reports whether entries are encrypted.
func (s *Store) Sealed() bool { return s.sensitive }

// Len reports the number of stored entries, fresh or not.
func (s *Store) Len() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(bucketResponses)).Stats().KeyN
		return nil
	})
	return n, s.wrap(err)
}

// Close closes the underlying file.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) wrap(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return ErrClosed
	}
	return fmt.Errorf("cache: %w", err)
}
