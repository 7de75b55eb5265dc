package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/apiprobe/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const callbackBucket = "callbacks"

// envelope is the on-disk value. ExpiresAt is in unix nanoseconds.
type envelope struct {
	ExpiresAt int64           `json:"expires_at"`
	Callback  domain.Callback `json:"callback"`
}

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	callbackTTL     time.Duration
	cleanupInterval time.Duration
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(callbackBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		callbackTTL:     opts.CallbackTTL,
		cleanupInterval: opts.CleanupInterval,
	}
	store.lastCleanup.Store(time.Now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// callbackKey sorts chronologically: fixed-width nanosecond timestamp, then id.
func callbackKey(cb domain.Callback) []byte {
	return []byte(fmt.Sprintf("%020d-%s", cb.ReceivedAt.UTC().UnixNano(), cb.ID))
}

// SaveCallback stores cb until its TTL elapses.
func (b *boltStore) SaveCallback(cb domain.Callback) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}
	if cb.ReceivedAt.IsZero() {
		cb.ReceivedAt = now.UTC()
	}

	value, err := json.Marshal(envelope{
		ExpiresAt: now.Add(b.callbackTTL).UnixNano(),
		Callback:  cb,
	})
	if err != nil {
		return fmt.Errorf("encode callback: %w", err)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(callbackBucket))
		if bucket == nil {
			return fmt.Errorf("callback bucket missing")
		}
		return bucket.Put(callbackKey(cb), value)
	})
}

// RecentCallbacks walks the bucket backwards, skipping expired entries.
func (b *boltStore) RecentCallbacks(limit int) ([]domain.Callback, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	now := time.Now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return nil, err
	}

	out := make([]domain.Callback, 0, limit)
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(callbackBucket))
		if bucket == nil {
			return fmt.Errorf("callback bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil && len(out) < limit; k, v = cursor.Prev() {
			env, ok := decodeEnvelope(v)
			if !ok || env.ExpiresAt <= now.UnixNano() {
				continue
			}
			out = append(out, env.Callback)
		}
		return nil
	})
	return out, err
}

// maybeCleanupExpired removes expired callbacks on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(callbackBucket))
		if bucket == nil {
			return fmt.Errorf("callback bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			env, ok := decodeEnvelope(v)
			if !ok || env.ExpiresAt <= now.UnixNano() {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func decodeEnvelope(value []byte) (envelope, bool) {
	var env envelope
	if err := json.Unmarshal(value, &env); err != nil {
		return envelope{}, false
	}
	return env, env.ExpiresAt > 0
}
