package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"messaging-bridge/internal/domain/model"
	"messaging-bridge/internal/domain/ports/repository"
	"messaging-bridge/internal/infra/metrics"
	red "messaging-bridge/internal/infra/redis"
)

var _ repository.PlatformUserRepository = (*userRepoCacheDecorator)(nil)

type userRepoCacheDecorator struct {
	inner    repository.PlatformUserRepository
	cache    red.RedisClient
	platform model.Platform
	ttl      time.Duration
	log      *zerolog.Logger
}

// NewUserRepoCacheDecorator caches FindByID in Redis and refreshes the entry on
// every upsert. Cache errors never fail the call.
func NewUserRepoCacheDecorator(inner repository.PlatformUserRepository, cache red.RedisClient, platform model.Platform, ttl time.Duration, logger *zerolog.Logger) repository.PlatformUserRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &userRepoCacheDecorator{
		inner:    inner,
		cache:    cache,
		platform: platform,
		ttl:      ttl,
		log:      logger,
	}
}

func (d *userRepoCacheDecorator) key(userID string) string {
	return fmt.Sprintf("user:%s:%s", d.platform, userID)
}

func (d *userRepoCacheDecorator) Upsert(ctx context.Context, u *model.PlatformUser) (*model.PlatformUser, error) {
	// Invalidate first so a failed write cannot leave a stale entry behind.
	_ = d.cache.Del(ctx, d.key(u.UserID))
	out, err := d.inner.Upsert(ctx, u)
	if err != nil {
		return nil, err
	}
	d.store(ctx, out)
	return out, nil
}

func (d *userRepoCacheDecorator) FindByID(ctx context.Context, userID string) (*model.PlatformUser, error) {
	key := d.key(userID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var user model.PlatformUser
		if json.Unmarshal([]byte(val), &user) == nil {
			metrics.IncCacheRequest("platform_user", "hit")
			return &user, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.log.Warn().Err(err).Str("key", key).Msg("user cache read failed")
	}

	metrics.IncCacheRequest("platform_user", "miss")
	user, err := d.inner.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.store(ctx, user)
	return user, nil
}

func (d *userRepoCacheDecorator) store(ctx context.Context, u *model.PlatformUser) {
	if u == nil {
		return
	}
	b, err := json.Marshal(u)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, d.key(u.UserID), b, d.ttl); err != nil {
		d.log.Warn().Err(err).Str("user_id", u.UserID).Msg("user cache write failed")
	}
}
