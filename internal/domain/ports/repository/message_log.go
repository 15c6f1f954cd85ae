package repository

import (
	"context"

	"messaging-bridge/internal/domain/model"
)

// -----------------------------
// Message audit log
// -----------------------------

// MessageLogRepository is append-only: there is no update or delete.
type MessageLogRepository interface {
	// Append writes e and returns it with the storage-assigned id and created_at.
	Append(ctx context.Context, e *model.MessageLogEntry) (*model.MessageLogEntry, error)
	// ListByUser returns up to limit entries, newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.MessageLogEntry, error)
}
