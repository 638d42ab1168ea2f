package redisx

import (
	"context"
	"encoding/json"
	"log"

	"github.com/dom/hydration-tracker/internal/repository"
	"github.com/redis/go-redis/v9"
)

// Store is a KVStore backed by a Redis database. Keys never expire.
type Store struct {
	rdb    *redis.Client
	logger *log.Logger
}

type Config struct {
	Addr     string
	DB       int
	Password string
}

func New(cfg Config, logger *log.Logger) *Store {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return &Store{rdb: rdb, logger: logger}
}

func (s *Store) Ping(ctx context.Context) error {
	err := s.rdb.Ping(ctx).Err()
	if err != nil {
		s.logger.Printf("PING failed: %v", err)
	} else {
		s.logger.Println("PING ok")
	}
	return err
}

func (s *Store) Close() error {
	if err := s.rdb.Close(); err != nil {
		s.logger.Printf("error while closing: %v", err)
		return err
	}
	s.logger.Println("closed")
	return nil
}

func (s *Store) Get(ctx context.Context, key repository.Key) (json.RawMessage, bool, error) {
	b, err := s.rdb.Get(ctx, key.String()).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		s.logger.Printf("GET %q: error: %v", key.String(), err)
		return nil, false, err
	}
	return json.RawMessage(b), true, nil
}

func (s *Store) Set(ctx context.Context, key repository.Key, value json.RawMessage) error {
	err := s.rdb.Set(ctx, key.String(), []byte(value), 0).Err()
	if err != nil {
		s.logger.Printf("SET %q failed: %v", key.String(), err)
	}
	return err
}

func (s *Store) Remove(ctx context.Context, key repository.Key) error {
	n, err := s.rdb.Del(ctx, key.String()).Result()
	if err != nil {
		s.logger.Printf("DEL %q failed: %v", key.String(), err)
	} else {
		s.logger.Printf("DEL %q: deleted=%d", key.String(), n)
	}
	return err
}
