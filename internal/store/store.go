package store

import (
	"context"
	"fmt"
	"strings"

	bolt "go.etcd.io/bbolt"

	"meld/internal/database"
)

const (
	stackKeys = "stack:keys:"
	prefix    = "stack:"
	latestKey = "latest"
)

// DB persists fitted-stack snapshots. Every stack name gets its own bucket
// of snapshot versions keyed by id, with a pointer to the latest one; a keys
// bucket lists all known stack names.
type DB struct {
	sDB *database.DB
}

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

func (db *DB) extractKey(key string) string {
	prefixPos := strings.Index(key, prefix)

	return key[prefixPos+len(prefix):]
}

// Keys returns the names of every stack with at least one stored snapshot.
func (db *DB) Keys() ([]string, error) {
	var bucketKeys []string
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(stackKeys))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			bucketKeys = append(bucketKeys, db.extractKey(string(k)))
		}
		return nil
	})

	return bucketKeys, err
}

// Save writes a snapshot version and marks it as the latest for its stack.
func (db *DB) Save(_ context.Context, name, id string, data []byte) error {
	return db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(prefix + name))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if err := b.Put([]byte(id), data); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		if err := b.Put([]byte(latestKey), []byte(id)); err != nil {
			return fmt.Errorf("put latest pointer error: %w", err)
		}

		keys, err := tx.CreateBucketIfNotExists([]byte(stackKeys))
		if err != nil {
			return fmt.Errorf("unable create keys bucket: %w", err)
		}
		if err := keys.Put([]byte(prefix+name), []byte{0x0}); err != nil {
			return fmt.Errorf("unable put to keys bucket: %w", err)
		}
		return nil
	})
}

// Latest returns the most recently saved snapshot of the named stack.
func (db *DB) Latest(_ context.Context, name string) ([]byte, error) {
	var data []byte
	err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(prefix + name))
		if b == nil {
			return fmt.Errorf("no snapshots for stack %q", name)
		}
		id := b.Get([]byte(latestKey))
		if id == nil {
			return fmt.Errorf("no latest pointer for stack %q", name)
		}
		raw := b.Get(id)
		if raw == nil {
			return fmt.Errorf("latest snapshot %q of stack %q is missing", id, name)
		}
		data = append(data, raw...)
		return nil
	})
	return data, err
}

// Delete removes every snapshot of the named stack.
func (db *DB) Delete(_ context.Context, name string) error {
	return db.sDB.DB.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(prefix + name)); err != nil && err != bolt.ErrBucketNotFound {
			return fmt.Errorf("delete bucket: %w", err)
		}
		if keys := tx.Bucket([]byte(stackKeys)); keys != nil {
			if err := keys.Delete([]byte(prefix + name)); err != nil {
				return fmt.Errorf("delete from keys bucket: %w", err)
			}
		}
		return nil
	})
}
