package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/proceso-api/pkg/errors"
)

func newRedisCache(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheRepository(client, "proceso:cache:", nil), mr
}

func TestCacheRepositoryRoundTrip(t *testing.T) {
	repo, mr := newRedisCache(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "feed:activities:a", []string{"x", "y"}, time.Minute))
	assert.True(t, mr.Exists("proceso:cache:feed:activities:a"))

	var out []string
	require.NoError(t, repo.Get(ctx, "feed:activities:a", &out))
	assert.Equal(t, []string{"x", "y"}, out)

	mr.FastForward(2 * time.Minute)
	err := repo.Get(ctx, "feed:activities:a", &out)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, mr := newRedisCache(t)
	ctx := context.Background()

	for _, key := range []string{"feed:activities:1", "feed:activities:2", "feed:events:1"} {
		require.NoError(t, repo.Set(ctx, key, 1, time.Minute))
	}
	require.NoError(t, repo.DeleteByPattern(ctx, "feed:activities:*"))

	assert.False(t, mr.Exists("proceso:cache:feed:activities:1"))
	assert.False(t, mr.Exists("proceso:cache:feed:activities:2"))
	assert.True(t, mr.Exists("proceso:cache:feed:events:1"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "", nil)
	var out string
	assert.ErrorIs(t, repo.Get(context.Background(), "k", &out), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(context.Background(), "k", "v", time.Minute))
	assert.NoError(t, repo.DeleteByPattern(context.Background(), "*"))
}
