// Package checkpoint persists resume markers for long-running crawl and
// enrichment passes to a local bbolt file. Checkpoints live outside the
// primary store (Postgres/SQLite) so a pass can resume even if the
// primary store is unreachable at restart.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ckerr6/talentgraph/internal/models"
)

var bucketName = []byte("checkpoints")

// Store wraps a bbolt database file holding one JSON document per
// subsystem name.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if needed) the bbolt file at path and ensures the
// checkpoints bucket exists.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init checkpoint bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying bbolt file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes (overwrites) the checkpoint for the given subsystem.
func (s *Store) Save(cp *models.Checkpoint) error {
	cp.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint for %s: %w", cp.Subsystem, err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.Put([]byte(cp.Subsystem), data)
	})
}

// Load returns the checkpoint for subsystem, or nil if none exists yet.
func (s *Store) Load(subsystem string) (*models.Checkpoint, error) {
	var cp *models.Checkpoint

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		data := b.Get([]byte(subsystem))
		if data == nil {
			return nil
		}

		var loaded models.Checkpoint
		if err := json.Unmarshal(data, &loaded); err != nil {
			return fmt.Errorf("unmarshal checkpoint for %s: %w", subsystem, err)
		}
		cp = &loaded
		return nil
	})

	return cp, err
}

// Delete removes the checkpoint for subsystem, used after a pass
// completes cleanly so the next run starts fresh.
func (s *Store) Delete(subsystem string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.Delete([]byte(subsystem))
	})
}

// List returns the subsystem names that currently have a checkpoint.
func (s *Store) List() ([]string, error) {
	var names []string

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		return b.ForEach(func(k, v []byte) error {
			names = append(names, string(k))
			return nil
		})
	})

	return names, err
}
