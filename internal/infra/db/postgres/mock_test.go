//go:build !integration

package postgres

import (
	"context"
	"time"

	"messaging-bridge/internal/domain/model"
	red "messaging-bridge/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerUserRepo mocks the database repository that the User decorator wraps.
type mockInnerUserRepo struct {
	UpsertFunc   func(ctx context.Context, u *model.PlatformUser) (*model.PlatformUser, error)
	FindByIDFunc func(ctx context.Context, userID string) (*model.PlatformUser, error)
}

func (m *mockInnerUserRepo) Upsert(ctx context.Context, u *model.PlatformUser) (*model.PlatformUser, error) {
	return m.UpsertFunc(ctx, u)
}
func (m *mockInnerUserRepo) FindByID(ctx context.Context, userID string) (*model.PlatformUser, error) {
	return m.FindByIDFunc(ctx, userID)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc   func(ctx context.Context, key string) (string, error)
	SetFunc   func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc   func(ctx context.Context, keys ...string) error
	PingFunc  func(ctx context.Context) error
	CloseFunc func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Close() error                   { return m.CloseFunc() }
