package postgres

import (
	"context"
	"fmt"

	"messaging-bridge/internal/domain"
	"messaging-bridge/internal/domain/model"
	"messaging-bridge/internal/domain/ports/repository"
)

var _ repository.MessageLogRepository = (*PostgresMessageLogRepo)(nil)

// PostgresMessageLogRepo appends to <platform>_messages. Rows are never updated.
type PostgresMessageLogRepo struct {
	gw       *Gateway
	platform model.Platform
	qInsert  string
	qList    string
}

func NewPostgresMessageLogRepo(gw *Gateway, platform model.Platform) *PostgresMessageLogRepo {
	t := platform.MessagesTable()
	return &PostgresMessageLogRepo{
		gw:       gw,
		platform: platform,
		qInsert: fmt.Sprintf(`
INSERT INTO %s (user_id, message_text, status, platform_message_id, error_message, sent_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, created_at;`, t),
		qList: fmt.Sprintf(`
SELECT id, user_id, message_text, status, platform_message_id, error_message, sent_at, created_at
  FROM %s
 WHERE user_id = $1
 ORDER BY created_at DESC, id DESC
 LIMIT $2;`, t),
	}
}

// Append re-checks the sent/failed invariant before anything reaches storage.
func (r *PostgresMessageLogRepo) Append(ctx context.Context, e *model.MessageLogEntry) (*model.MessageLogEntry, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	out := *e
	row := r.gw.QueryRow(ctx, r.qInsert, e.UserID, e.Text, string(e.Status), e.PlatformMessageID, e.ErrorDetail, e.SentAt)
	if err := row.Scan(&out.ID, &out.CreatedAt); err != nil {
		return nil, fmt.Errorf("append %s message: %w", r.platform, err)
	}
	return &out, nil
}

func (r *PostgresMessageLogRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.MessageLogEntry, error) {
	if limit <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	rows, err := r.gw.Query(ctx, r.qList, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s messages: %w", r.platform, err)
	}
	defer rows.Close()

	out := make([]*model.MessageLogEntry, 0, limit)
	for rows.Next() {
		var (
			e      model.MessageLogEntry
			status string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Text, &status, &e.PlatformMessageID, &e.ErrorDetail, &e.SentAt, &e.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		e.Status = model.MessageStatus(status)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s messages: %w", r.platform, err)
	}
	return out, nil
}
