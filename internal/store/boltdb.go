package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

var loginsBucket = []byte("Logins")

// BoltStore implements the Store interface using bbolt.
type BoltStore struct {
	db   *bbolt.DB
	path string
}

// NewBoltStore initializes a new BoltStore instance.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	boltStore := &BoltStore{db: db, path: path}
	if err := boltStore.Initialize(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return boltStore, nil
}

// Initialize sets up the necessary buckets.
func (b *BoltStore) Initialize(ctx context.Context) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(loginsBucket); err != nil {
			return fmt.Errorf("create Logins bucket: %v", err)
		}
		return nil
	})
}

// Close closes the underlying database.
func (b *BoltStore) Close(ctx context.Context) error {
	return b.db.Close()
}

// SaveLogin stores the latest resolved login for a provider.
func (b *BoltStore) SaveLogin(ctx context.Context, record LoginRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal LoginRecord: %w", err)
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(loginsBucket).Put([]byte(record.Provider), data)
	})
}

// GetLogin retrieves the latest login record for a provider.
func (b *BoltStore) GetLogin(ctx context.Context, provider string) (LoginRecord, error) {
	var record LoginRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(loginsBucket).Get([]byte(provider))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &record)
	})
	return record, err
}

// ListLogins retrieves the latest record of every provider.
func (b *BoltStore) ListLogins(ctx context.Context) ([]LoginRecord, error) {
	var records []LoginRecord
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(loginsBucket).ForEach(func(k, v []byte) error {
			var record LoginRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			records = append(records, record)
			return nil
		})
	})
	return records, err
}

// DeleteLogin removes the record for a provider.
func (b *BoltStore) DeleteLogin(ctx context.Context, provider string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(loginsBucket).Delete([]byte(provider))
	})
}
