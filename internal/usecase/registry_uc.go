package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"messaging-bridge/internal/domain"
	"messaging-bridge/internal/domain/model"
	"messaging-bridge/internal/domain/ports/repository"
	"messaging-bridge/internal/infra/logging"
	"messaging-bridge/internal/infra/metrics"
)

// Compile-time check
var _ UserRegistry = (*userRegistry)(nil)

// UserRegistry keeps one row per platform user. Upsert never fails the caller:
// the outcome is returned so the caller decides whether to look at it.
type UserRegistry interface {
	Upsert(ctx context.Context, userID, displayName string, meta map[string]string) model.Result[*model.PlatformUser]
	Get(ctx context.Context, userID string) (*model.PlatformUser, error)
}

type userRegistry struct {
	platform model.Platform
	users    repository.PlatformUserRepository
	log      *zerolog.Logger
}

func NewUserRegistry(platform model.Platform, users repository.PlatformUserRepository, logger *zerolog.Logger) *userRegistry {
	return &userRegistry{
		platform: platform,
		users:    users,
		log:      logging.Component(logger, string(platform)+".registry"),
	}
}

func (r *userRegistry) Upsert(ctx context.Context, userID, displayName string, meta map[string]string) model.Result[*model.PlatformUser] {
	defer logging.TraceDuration(r.log, "UserRegistry.Upsert")()

	u, err := model.NewPlatformUser(userID, displayName, meta)
	if err != nil {
		return model.Fail[*model.PlatformUser](err)
	}

	saved, err := r.users.Upsert(ctx, u)
	metrics.IncRegistryUpsert(string(r.platform), err == nil)
	if err != nil {
		l := logging.With(ctx, r.log)
		if errors.Is(err, domain.ErrPersistenceUnavailable) {
			l.Debug().Str("user_id", u.UserID).Msg("registry disabled, user not recorded")
		} else {
			l.Error().Err(err).Str("user_id", u.UserID).Msg("failed to upsert user")
		}
		return model.Fail[*model.PlatformUser](err)
	}

	r.log.Debug().Str("user_id", saved.UserID).Str("display_name", saved.DisplayName).Msg("user registered/updated")
	return model.Ok(saved)
}

func (r *userRegistry) Get(ctx context.Context, userID string) (*model.PlatformUser, error) {
	defer logging.TraceDuration(r.log, "UserRegistry.Get")()
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return r.users.FindByID(ctx, userID)
}
