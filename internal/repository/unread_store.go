package repository

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// UnreadStore lleva el contador de mensajes de estudiante sin leer que ve
// el mentor en la lista de salas. Es consistencia eventual: alimenta un
// listado, no la transcripción.
type UnreadStore interface {
	Incr(ctx context.Context, studentID string) error
	Get(ctx context.Context, studentID string) (int, error)
	Reset(ctx context.Context, studentID string) error
}

type memoryUnreadStore struct {
	mu    sync.Mutex
	items map[string]int
}

func NewMemoryUnreadStore() UnreadStore {
	return &memoryUnreadStore{items: make(map[string]int)}
}

func (s *memoryUnreadStore) Incr(_ context.Context, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[studentID]++
	return nil
}

func (s *memoryUnreadStore) Get(_ context.Context, studentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[studentID], nil
}

func (s *memoryUnreadStore) Reset(_ context.Context, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, studentID)
	return nil
}

type redisUnreadStore struct {
	client *redis.Client
	prefix string
}

func NewRedisUnreadStore(client *redis.Client) UnreadStore {
	if client == nil {
		return nil
	}
	return &redisUnreadStore{
		client: client,
		prefix: "chat:unread:",
	}
}

const redisOpTimeout = 500 * time.Millisecond

func (s *redisUnreadStore) Incr(ctx context.Context, studentID string) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return s.client.Incr(ctx, s.prefix+studentID).Err()
}

func (s *redisUnreadStore) Get(ctx context.Context, studentID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	val, err := s.client.Get(ctx, s.prefix+studentID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (s *redisUnreadStore) Reset(ctx context.Context, studentID string) error {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	return s.client.Del(ctx, s.prefix+studentID).Err()
}
