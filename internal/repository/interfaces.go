package repository

import (
	"context"
	"encoding/json"
)

// KVStore is the persisted key-value port. Values are JSON documents.
type KVStore interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key Key) (json.RawMessage, bool, error)
	Set(ctx context.Context, key Key, value json.RawMessage) error
	Remove(ctx context.Context, key Key) error
}

// Closer is implemented by stores holding a connection.
type Closer interface {
	Close() error
}
