package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/knowledgevault-api/internal/models"
	appErrors "github.com/noah-isme/knowledgevault-api/pkg/errors"
)

func newCacheRepo(t *testing.T) (*CacheRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := NewCacheRepository(client, zap.NewNop())
	t.Cleanup(func() { _ = repo.Close() })
	return repo, mr
}

func TestCacheRepositorySetGet(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	fileID := "file-1"
	page := models.AchievementPage{
		Items:      []models.Achievement{{ID: 1, Title: "Graph Theory", FileID: &fileID, FileChecksum: "secret"}},
		TotalCount: 1, Page: 1, PageSize: 20,
	}
	require.NoError(t, repo.Set(ctx, "achievements:list:abc", page, 30*time.Second))
	assert.Equal(t, 30*time.Second, mr.TTL("achievements:list:abc"))

	var got models.AchievementPage
	require.NoError(t, repo.Get(ctx, "achievements:list:abc", &got))
	assert.Equal(t, 1, got.TotalCount)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "file-1", *got.Items[0].FileID)
	assert.Empty(t, got.Items[0].FileChecksum)
}

func TestCacheRepositoryMissAndExpiry(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	var dest int
	assert.ErrorIs(t, repo.Get(ctx, "missing", &dest), appErrors.ErrCacheMiss)

	require.NoError(t, repo.Set(ctx, "short", 5, time.Second))
	mr.FastForward(2 * time.Second)
	assert.ErrorIs(t, repo.Get(ctx, "short", &dest), appErrors.ErrCacheMiss)
}

func TestCacheRepositoryDeleteByPattern(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	for i := 0; i < 150; i++ {
		require.NoError(t, mr.Set("achievements:list:"+time.Duration(i).String(), "x"))
	}
	require.NoError(t, mr.Set("sessions:1", "keep"))

	require.NoError(t, repo.DeleteByPattern(ctx, "achievements:*"))
	assert.Equal(t, []string{"sessions:1"}, mr.Keys())

	require.NoError(t, repo.DeleteByPattern(ctx, "achievements:*"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest int
	assert.ErrorIs(t, repo.Get(ctx, "k", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "k", 1, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "*"))
	assert.NoError(t, repo.Close())
}

func TestCacheRepositoryPing(t *testing.T) {
	repo, mr := newCacheRepo(t)
	assert.NoError(t, repo.Ping(context.Background()))

	mr.Close()
	assert.Error(t, repo.Ping(context.Background()))
	assert.Error(t, NewCacheRepository(nil, nil).Ping(context.Background()))
}

func TestCacheRepositoryVersion(t *testing.T) {
	repo, mr := newCacheRepo(t)
	ctx := context.Background()

	v, err := repo.Version(ctx, "cache-version:achievements")
	require.NoError(t, err)
	assert.Zero(t, v)

	v, err = repo.BumpVersion(ctx, "cache-version:achievements")
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)

	v, err = repo.Version(ctx, "cache-version:achievements")
	require.NoError(t, err)
	assert.EqualValues(t, 1, v)
	assert.Zero(t, mr.TTL("cache-version:achievements"))
}
