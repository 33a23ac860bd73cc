// Package lock 按业务键串行化“先检查后写入”的临界区
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgDatabase "terminal-terrace/testmaker/packages/database"
	"terminal-terrace/testmaker/packages/response"
)

const (
	DefaultTTL  = 30 * time.Second
	DefaultWait = 3 * time.Second
	retryEvery  = 50 * time.Millisecond
)

var ErrLockBusy = errors.New("lock is held by another request")

// Locker 获取键锁，返回的 release 幂等
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// TaskTitleKey 作业标题唯一性锁
func TaskTitleKey(title string) string {
	return "lock:task-title:" + title
}

// AnswerKey 每个 (作业, 学生) 一把锁
func AnswerKey(taskID, studentID uint) string {
	return fmt.Sprintf("lock:answer:%d:%d", taskID, studentID)
}

// WithLock 持锁执行 fn，锁被占用时返回 Conflict
func WithLock(ctx context.Context, l Locker, key string, fn func() error) error {
	release, err := l.Acquire(ctx, key)
	if err != nil {
		if errors.Is(err, ErrLockBusy) {
			return response.NewBusinessError(
				response.WithErrorCode(response.Conflict),
				response.WithErrorMessage("相同的操作正在进行，请稍后重试"),
				response.WithError(err),
			)
		}
		return response.NewBusinessError(
			response.WithErrorCode(response.Fail),
			response.WithErrorMessage("获取锁失败"),
			response.WithError(err),
		)
	}
	defer release()
	return fn()
}

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker 基于 SET NX PX 的分布式锁
type RedisLocker struct {
	redis *pkgDatabase.RedisClient
	ttl   time.Duration
	wait  time.Duration
}

func NewRedisLocker(redis *pkgDatabase.RedisClient, ttl, wait time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if wait <= 0 {
		wait = DefaultWait
	}
	return &RedisLocker{redis: redis, ttl: ttl, wait: wait}
}

// Acquire 在 wait 时间内轮询获取锁
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("获取锁 %s 失败: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, ErrLockBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryEvery):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// 请求已取消时仍要释放
			_ = releaseScript.Run(context.WithoutCancel(ctx), l.redis, []string{key}, token).Err()
		})
	}, nil
}

// LocalLocker 进程内锁，用于测试和单实例部署
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
	wait time.Duration
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]chan struct{}), wait: DefaultWait}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	timer := time.NewTimer(l.wait)
	defer timer.Stop()

	for {
		l.mu.Lock()
		ch, busy := l.held[key]
		if !busy {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
					close(done)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, ErrLockBusy
		}
	}
}
