package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminal-terrace/testmaker/internal/testutils"
	"terminal-terrace/testmaker/packages/response"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "lock:task-title:Intro", TaskTitleKey("Intro"))
	assert.Equal(t, "lock:answer:3:9", AnswerKey(3, 9))
}

func TestLocalLocker_Serializes(t *testing.T) {
	l := NewLocalLocker()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Acquire(context.Background(), "k")
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestLocalLocker_Timeout(t *testing.T) {
	l := NewLocalLocker()
	l.wait = 20 * time.Millisecond

	release, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)

	_, err = l.Acquire(context.Background(), "k")
	assert.ErrorIs(t, err, ErrLockBusy)

	// 不同的键互不影响
	other, err := l.Acquire(context.Background(), "other")
	require.NoError(t, err)
	other()

	release()
	release()
	again, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	again()
}

func TestWithLock(t *testing.T) {
	l := NewLocalLocker()
	l.wait = 20 * time.Millisecond

	ran := false
	err := WithLock(context.Background(), l, "k", func() error {
		ran = true
		// 持锁期间同一键再次加锁会超时
		inner := WithLock(context.Background(), l, "k", func() error { return nil })
		assert.Equal(t, response.Conflict, response.CodeOf(inner))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	// fn 返回后锁已释放
	require.NoError(t, WithLock(context.Background(), l, "k", func() error { return nil }))
}

func TestRedisLocker(t *testing.T) {
	rdb := testutils.SetupTestRedis(t)
	if rdb == nil {
		t.Skip("redis not available")
	}
	l := NewRedisLocker(rdb, time.Second, 50*time.Millisecond)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "lock:test")
	require.NoError(t, err)

	_, err = l.Acquire(ctx, "lock:test")
	assert.ErrorIs(t, err, ErrLockBusy)

	release()
	release()

	again, err := l.Acquire(ctx, "lock:test")
	require.NoError(t, err)
	again()
}
