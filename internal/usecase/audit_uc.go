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

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// Compile-time check
var _ AuditLog = (*auditLog)(nil)

// AuditLog is the append-only record of send attempts.
type AuditLog interface {
	Record(ctx context.Context, entry *model.MessageLogEntry) model.Result[*model.MessageLogEntry]
	// History returns the newest entries first. It degrades to an empty slice.
	History(ctx context.Context, userID string, limit int) []*model.MessageLogEntry
}

type auditLog struct {
	platform model.Platform
	logs     repository.MessageLogRepository
	log      *zerolog.Logger
}

func NewAuditLog(platform model.Platform, logs repository.MessageLogRepository, logger *zerolog.Logger) *auditLog {
	return &auditLog{
		platform: platform,
		logs:     logs,
		log:      logging.Component(logger, string(platform)+".audit"),
	}
}

func (a *auditLog) Record(ctx context.Context, entry *model.MessageLogEntry) model.Result[*model.MessageLogEntry] {
	defer logging.TraceDuration(a.log, "AuditLog.Record")()

	saved, err := a.logs.Append(ctx, entry)
	metrics.IncAuditWrite(string(a.platform), err == nil)
	if err != nil {
		l := logging.With(ctx, a.log)
		if errors.Is(err, domain.ErrPersistenceUnavailable) {
			l.Debug().Msg("audit log disabled, entry not recorded")
		} else {
			l.Error().Err(err).Msg("failed to record message")
		}
		return model.Fail[*model.MessageLogEntry](err)
	}
	return model.Ok(saved)
}

func (a *auditLog) History(ctx context.Context, userID string, limit int) []*model.MessageLogEntry {
	defer logging.TraceDuration(a.log, "AuditLog.History")()

	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	entries, err := a.logs.ListByUser(ctx, userID, limit)
	if err != nil {
		if !errors.Is(err, domain.ErrPersistenceUnavailable) {
			logging.With(ctx, a.log).Error().Err(err).Str("user_id", userID).Msg("failed to read message history")
		}
		return []*model.MessageLogEntry{}
	}
	if entries == nil {
		return []*model.MessageLogEntry{}
	}
	return entries
}
