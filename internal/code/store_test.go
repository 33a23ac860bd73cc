package code

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"terminal-terrace/testmaker/internal/testutils"
)

func testStore(t *testing.T, store Store) {
	ctx := context.Background()
	key := codeKey(PurposeVerifyEmail, 7, "carol@example.com")

	_, err := store.Load(ctx, key)
	assert.ErrorIs(t, err, ErrCodeNotFound)

	saved, err := store.Save(ctx, key, "111111", time.Minute, time.Minute)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = store.Save(ctx, key, "222222", time.Minute, time.Minute)
	require.NoError(t, err)
	assert.False(t, saved, "冷却期内不覆盖")

	got, err := store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "111111", got)

	n, err := store.Fail(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = store.Fail(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, store.Delete(ctx, key))
	_, err = store.Load(ctx, key)
	assert.ErrorIs(t, err, ErrCodeNotFound)

	saved, err = store.Save(ctx, key, "333333", time.Minute, time.Minute)
	require.NoError(t, err)
	assert.True(t, saved)
	n, err = store.Fail(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "重新发送后错误次数清零")
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	saved, err := store.Save(ctx, "k", "123456", time.Minute, 10*time.Second)
	require.NoError(t, err)
	require.True(t, saved)

	now = now.Add(11 * time.Second)
	_, err = store.Load(ctx, "k")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Load(ctx, "k")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestRedisStore(t *testing.T) {
	redis := testutils.SetupTestRedis(t)
	if redis == nil {
		t.Skip("redis not available")
	}
	testStore(t, NewRedisStore(redis))
}
