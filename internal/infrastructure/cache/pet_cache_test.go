package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petlovers/petlovers-api/internal/application"
	"github.com/petlovers/petlovers-api/pkg/helpers"
)

// newTestCache needs a disposable Redis in REDIS_TEST_ADDR.
func newTestCache(t *testing.T) (*PetCache, *redis.Client) {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	rdb := helpers.NewRedisClient(addr, os.Getenv("REDIS_TEST_PASSWORD"), 0)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return NewPetCache(rdb, time.Minute), rdb
}

func TestPetCacheRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	id := uuid.NewString()

	_, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, application.PetView{ID: id, Name: "Rex", Status: "Available"}, 1))
	v, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Rex", v.Name)
}

func TestPetCacheRefusesStaleSnapshot(t *testing.T) {
	c, rdb := newTestCache(t)
	ctx := context.Background()
	id := uuid.NewString()
	t.Cleanup(func() { rdb.Del(ctx, petKey(id), petMarkKey(id)) })

	// a writer commits version 2 while a reader still holds version 1
	require.NoError(t, c.Invalidate(ctx, id, 2))
	require.NoError(t, c.Put(ctx, application.PetView{ID: id, Status: "Available"}, 1))
	_, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, application.PetView{ID: id, Status: "Pending"}, 2))
	v, ok, err := c.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Pending", v.Status)

	// an older mark never lowers a newer one
	require.NoError(t, c.Invalidate(ctx, id, 1))
	mark, err := rdb.Get(ctx, petMarkKey(id)).Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(2), mark)
}
