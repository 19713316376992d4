package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"upscaler/internal/domain"
)

const keyPrefix = "imageinfo:"

// ImageInfoCache keeps provider resource lookups in Redis so batch resubmits
// do not re-hit the admin API. Every failure degrades to a cache miss; the
// cache is never allowed to fail a job.
type ImageInfoCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewImageInfoCache(rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *ImageInfoCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ImageInfoCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *ImageInfoCache) Get(ctx context.Context, publicID string) (domain.ImageInfo, bool) {
	if c == nil || c.rdb == nil {
		return domain.ImageInfo{}, false
	}

	data, err := c.rdb.Get(ctx, keyPrefix+publicID).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("public_id", publicID).Msg("image info cache read failed")
		}
		return domain.ImageInfo{}, false
	}

	var info domain.ImageInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return domain.ImageInfo{}, false
	}
	return info, true
}

func (c *ImageInfoCache) Set(ctx context.Context, publicID string, info domain.ImageInfo) {
	if c == nil || c.rdb == nil {
		return
	}

	data, err := json.Marshal(info)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+publicID, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("public_id", publicID).Msg("image info cache write failed")
	}
}
