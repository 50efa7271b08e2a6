package chat

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/porramano/linkmagico-v6-prod-final-v2/pkg/cache"
)

// InstructionStore holds write-once custom instruction texts until their TTL.
type InstructionStore interface {
	Store(ctx context.Context, text string) (string, error)
	Get(ctx context.Context, id string) (string, bool, error)
	Len(ctx context.Context) (int, error)
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewInstructionID returns "inst_<unix millis>_<9 lowercase alphanumerics>".
func NewInstructionID(now time.Time) string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return "inst_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + string(suffix)
}

type MemoryInstructionStore struct {
	cache *cache.Cache[string]
	now   func() time.Time
}

func NewMemoryInstructionStore(texts *cache.Cache[string]) *MemoryInstructionStore {
	return &MemoryInstructionStore{cache: texts, now: time.Now}
}

// Store saves text and sweeps expired sets.
func (s *MemoryInstructionStore) Store(_ context.Context, text string) (string, error) {
	id := NewInstructionID(s.now())
	s.cache.Set(id, text)
	if dropped := s.cache.SweepExpired(); dropped > 0 {
		instructionsExpiredTotal.Add(float64(dropped))
	}
	instructionOpsTotal.WithLabelValues("memory", "store", "ok").Inc()
	return id, nil
}

func (s *MemoryInstructionStore) Get(_ context.Context, id string) (string, bool, error) {
	text, ok := s.cache.Get(id)
	instructionOpsTotal.WithLabelValues("memory", "get", hitLabel(ok)).Inc()
	return text, ok, nil
}

func (s *MemoryInstructionStore) Len(context.Context) (int, error) { return s.cache.Len(), nil }

const redisInstructionPrefix = "lookout:inst:"

// RedisInstructionStore shares instruction sets across replicas. Expiry is
// left to Redis.
type RedisInstructionStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisInstructionStore(client goredis.UniversalClient, ttl time.Duration) *RedisInstructionStore {
	return &RedisInstructionStore{client: client, ttl: ttl, now: time.Now}
}

func (s *RedisInstructionStore) Store(ctx context.Context, text string) (string, error) {
	id := NewInstructionID(s.now())
	if err := s.client.Set(ctx, redisInstructionPrefix+id, text, s.ttl).Err(); err != nil {
		instructionOpsTotal.WithLabelValues("redis", "store", "error").Inc()
		return "", fmt.Errorf("store instructions %s: %w", id, err)
	}
	instructionOpsTotal.WithLabelValues("redis", "store", "ok").Inc()
	return id, nil
}

func (s *RedisInstructionStore) Get(ctx context.Context, id string) (string, bool, error) {
	text, err := s.client.Get(ctx, redisInstructionPrefix+id).Result()
	if errors.Is(err, goredis.Nil) {
		instructionOpsTotal.WithLabelValues("redis", "get", "miss").Inc()
		return "", false, nil
	}
	if err != nil {
		instructionOpsTotal.WithLabelValues("redis", "get", "error").Inc()
		return "", false, fmt.Errorf("get instructions %s: %w", id, err)
	}
	instructionOpsTotal.WithLabelValues("redis", "get", "hit").Inc()
	return text, true, nil
}

// Len counts live instruction keys with SCAN.
func (s *RedisInstructionStore) Len(ctx context.Context) (int, error) {
	var (
		cursor uint64
		total  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisInstructionPrefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("scan instructions: %w", err)
		}
		total += len(keys)
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}

func hitLabel(ok bool) string {
	if ok {
		return "hit"
	}
	return "miss"
}
