package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedCourse struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheOrExecute(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return &cachedCourse{ID: 7, Title: "Go"}, nil
	}

	var first cachedCourse
	require.NoError(t, cm.Course.CacheOrExecute(ctx, EntityKey("courses", 7), &first, time.Minute, fetch))
	assert.Equal(t, "Go", first.Title)
	assert.Equal(t, 1, calls)

	assert.Eventually(t, func() bool {
		return mr.Exists("course:courses:id:7")
	}, time.Second, 10*time.Millisecond)

	var second cachedCourse
	require.NoError(t, cm.Course.CacheOrExecute(ctx, EntityKey("courses", 7), &second, time.Minute, fetch))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestCacheOrExecutePropagatesFetchError(t *testing.T) {
	cm, _ := newTestManager(t)
	sentinel := errors.New("boom")

	var dest cachedCourse
	err := cm.Job.CacheOrExecute(context.Background(), "jobs:id:1", &dest, time.Minute, func() (interface{}, error) {
		return nil, sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestInvalidateEntity(t *testing.T) {
	cm, mr := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, cm.Catalog.Set(ctx, EntityKey("languages", 1), cachedCourse{ID: 1}, time.Minute))
	require.NoError(t, cm.Catalog.Set(ctx, EntityKey("languages", 2), cachedCourse{ID: 2}, time.Minute))

	InvalidateEntity(ctx, cm.Catalog, "languages", 1)

	assert.False(t, mr.Exists("catalog:languages:id:1"))
	assert.True(t, mr.Exists("catalog:languages:id:2"))
}

func TestNilClientDegrades(t *testing.T) {
	cm := NewCacheManager(nil)
	ctx := context.Background()

	var dest cachedCourse
	assert.ErrorIs(t, cm.User.Get(ctx, "x", &dest), ErrCacheNotAvailable)
	assert.NoError(t, cm.User.Set(ctx, "x", dest, time.Minute))
	assert.ErrorIs(t, cm.HealthCheck(ctx), ErrCacheNotAvailable)

	require.NoError(t, cm.User.CacheOrExecute(ctx, "x", &dest, time.Minute, func() (interface{}, error) {
		return cachedCourse{ID: 3}, nil
	}))
	assert.Equal(t, uint(3), dest.ID)
}
