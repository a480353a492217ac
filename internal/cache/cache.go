// Package cache puts a Redis read-through cache in front of the student
// lookup. Redis trouble is logged and never fails a request.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/calctutor/internal/store"
)

const keyPrefix = "calctutor:student:"

// DefaultTTL is how long a student entry stays cached.
const DefaultTTL = 24 * time.Hour

// Open connects to the Redis server at url (redis://host:port/db) and
// checks it is reachable.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Students caches FindByName results of the wrapped repository.
type Students struct {
	inner  store.StudentRepo
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ store.StudentRepo = (*Students)(nil)

// NewStudents wraps inner. A non-positive ttl uses DefaultTTL.
func NewStudents(inner store.StudentRepo, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *Students {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Students{inner: inner, rdb: rdb, ttl: ttl, logger: logger}
}

func key(name string) string {
	return keyPrefix + name
}

func (s *Students) FindByName(ctx context.Context, name string) (*store.Student, error) {
	raw, err := s.rdb.Get(ctx, key(name)).Bytes()
	switch {
	case err == nil:
		var st store.Student
		if jerr := json.Unmarshal(raw, &st); jerr == nil {
			return &st, nil
		}
		s.logger.Warn("dropping corrupt cache entry", "student", name)
		s.rdb.Del(ctx, key(name))
	case errors.Is(err, redis.Nil):
	default:
		s.logger.Warn("student cache read failed", "student", name, "error", err)
	}

	st, err := s.inner.FindByName(ctx, name)
	if err != nil || st == nil {
		return st, err
	}
	s.put(ctx, st)
	return st, nil
}

func (s *Students) Create(ctx context.Context, name, threadID string) (*store.Student, error) {
	st, err := s.inner.Create(ctx, name, threadID)
	if err != nil {
		return nil, err
	}
	s.put(ctx, st)
	return st, nil
}

func (s *Students) List(ctx context.Context) ([]store.Student, error) {
	return s.inner.List(ctx)
}

// Forget drops a cached entry.
func (s *Students) Forget(ctx context.Context, name string) error {
	return s.rdb.Del(ctx, key(name)).Err()
}

func (s *Students) put(ctx context.Context, st *store.Student) {
	data, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key(st.Name), data, s.ttl).Err(); err != nil {
		s.logger.Warn("student cache write failed", "student", st.Name, "error", err)
	}
}
