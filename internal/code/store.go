package code

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	pkgDatabase "terminal-terrace/testmaker/packages/database"
)

var ErrCodeNotFound = errors.New("code not found or expired")

// Store 验证码存取
type Store interface {
	// Save 写入验证码并清零错误次数；冷却期内已发送过时返回 false 且不写入
	Save(ctx context.Context, key, code string, ttl, cooldown time.Duration) (bool, error)
	Load(ctx context.Context, key string) (string, error)
	// Delete 同时清除冷却与错误次数，允许立即重新发送
	Delete(ctx context.Context, key string) error
	// Fail 记录一次错误尝试，返回累计次数
	Fail(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

func cooldownKey(key string) string { return key + ":cooldown" }
func attemptsKey(key string) string { return key + ":attempts" }

// RedisStore 多实例共享的验证码存储
type RedisStore struct {
	redis *pkgDatabase.RedisClient
}

func NewRedisStore(redis *pkgDatabase.RedisClient) *RedisStore {
	return &RedisStore{redis: redis}
}

func (s *RedisStore) Save(ctx context.Context, key, code string, ttl, cooldown time.Duration) (bool, error) {
	ok, err := s.redis.SetNX(ctx, cooldownKey(key), 1, cooldown).Result()
	if err != nil || !ok {
		return false, err
	}
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, code, ttl)
		pipe.Del(ctx, attemptsKey(key))
		return nil
	})
	return err == nil, err
}

func (s *RedisStore) Load(ctx context.Context, key string) (string, error) {
	code, err := s.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCodeNotFound
	}
	return code, err
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.redis.Del(ctx, key, attemptsKey(key), cooldownKey(key)).Err()
}

func (s *RedisStore) Fail(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, attemptsKey(key))
		pipe.Expire(ctx, attemptsKey(key), ttl)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

type memoryEntry struct {
	value   string
	count   int64
	expires time.Time
}

// MemoryStore 进程内验证码存储，用于测试和单实例部署
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// get 调用方持有锁
func (s *MemoryStore) get(key string) (memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) Save(ctx context.Context, key, code string, ttl, cooldown time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.get(cooldownKey(key)); busy {
		return false, nil
	}
	now := s.now()
	s.entries[cooldownKey(key)] = memoryEntry{expires: now.Add(cooldown)}
	s.entries[key] = memoryEntry{value: code, expires: now.Add(ttl)}
	delete(s.entries, attemptsKey(key))
	return true, nil
}

func (s *MemoryStore) Load(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.get(key)
	if !ok {
		return "", ErrCodeNotFound
	}
	return e.value, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	delete(s.entries, attemptsKey(key))
	delete(s.entries, cooldownKey(key))
	return nil
}

func (s *MemoryStore) Fail(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _ := s.get(attemptsKey(key))
	e.count++
	e.expires = s.now().Add(ttl)
	s.entries[attemptsKey(key)] = e
	return e.count, nil
}
