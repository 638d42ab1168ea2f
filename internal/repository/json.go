package repository

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetJSON decodes the value at key into v. It reports false when the key is absent.
// A value that fails to decode is returned as an error so callers can recover.
func GetJSON(ctx context.Context, store KVStore, key Key, v interface{}) (bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, store KVStore, key Key, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return store.Set(ctx, key, raw)
}
