package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petlovers/petlovers-api/internal/application"
	"github.com/petlovers/petlovers-api/pkg/helpers"
)

const DefaultPetTTL = 5 * time.Minute

// PetCache keeps PetView snapshots in Redis next to a per-pet version mark.
// A snapshot is only written when it is at least as new as the mark.
type PetCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewPetCache(rdb *redis.Client, ttl time.Duration) *PetCache {
	if ttl <= 0 {
		ttl = DefaultPetTTL
	}
	return &PetCache{rdb: rdb, ttl: ttl}
}

func petKey(id string) string     { return "pet:" + id }
func petMarkKey(id string) string { return "pet:ver:" + id }

func (c *PetCache) Get(ctx context.Context, id string) (application.PetView, bool, error) {
	var v application.PetView
	ok, err := helpers.RedisGetJSON(ctx, c.rdb, petKey(id), &v)
	return v, ok, err
}

func (c *PetCache) Put(ctx context.Context, v application.PetView, version int64) error {
	_, err := helpers.RedisSetJSONIfCurrent(ctx, c.rdb, petKey(v.ID), petMarkKey(v.ID), version, v, c.ttl)
	return err
}

func (c *PetCache) Invalidate(ctx context.Context, id string, version int64) error {
	return helpers.RedisInvalidateVersion(ctx, c.rdb, petKey(id), petMarkKey(id), version, 2*c.ttl)
}

var _ application.PetCache = (*PetCache)(nil)
