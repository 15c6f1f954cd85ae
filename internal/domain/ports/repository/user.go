package repository

import (
	"context"

	"messaging-bridge/internal/domain/model"
)

// -----------------------------
// Platform users
// -----------------------------

// PlatformUserRepository stores one platform's users keyed by the platform-native id.
type PlatformUserRepository interface {
	// Upsert inserts or updates u in a single statement and returns the stored row.
	Upsert(ctx context.Context, u *model.PlatformUser) (*model.PlatformUser, error)
	FindByID(ctx context.Context, userID string) (*model.PlatformUser, error)
}
