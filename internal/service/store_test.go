package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	"github.com/dom/hydration-tracker/internal/repository"
	"github.com/dom/hydration-tracker/internal/repository/memory"
	"github.com/dom/hydration-tracker/internal/testutil"
)

var (
	testKeys    = testutil.TestServerKeys()
	errDiskFull = errors.New("quota exceeded")
	errOffline  = errors.New("store offline")
)

// flakyStore wraps a memory store and fails reads or writes on demand.
type flakyStore struct {
	*memory.Store
	failWrites atomic.Bool
	failReads  atomic.Bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{Store: memory.NewStore()}
}

func (s *flakyStore) Get(ctx context.Context, key repository.Key) (json.RawMessage, bool, error) {
	if s.failReads.Load() {
		return nil, false, errOffline
	}
	return s.Store.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key repository.Key, value json.RawMessage) error {
	if s.failWrites.Load() {
		return errDiskFull
	}
	return s.Store.Set(ctx, key, value)
}

func (s *flakyStore) Remove(ctx context.Context, key repository.Key) error {
	if s.failWrites.Load() {
		return errDiskFull
	}
	return s.Store.Remove(ctx, key)
}
