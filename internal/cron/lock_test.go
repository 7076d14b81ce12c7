package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore map[string]string

func (m mapStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m[key]; ok {
		return false, nil
	}
	m[key] = value.(string)
	return true, nil
}

func (m mapStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m mapStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m, k)
	}
	return nil
}

func TestRedisLockReleasesOnlyOwnLease(t *testing.T) {
	ctx := context.Background()
	store := mapStore{}
	first, err := NewRedisLock(store, "em:cron:lock:test", time.Minute)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "em:cron:lock:test", time.Minute)
	require.NoError(t, err)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, second.Release(ctx))
	assert.Contains(t, store, "em:cron:lock:test", "non-owner must not release")

	require.NoError(t, first.Release(ctx))
	assert.NotContains(t, store, "em:cron:lock:test")

	_, err = NewRedisLock(store, "k", 0)
	assert.Error(t, err)
}
