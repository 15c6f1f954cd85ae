package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"

	"messaging-bridge/internal/domain"
	"messaging-bridge/internal/domain/model"
	"messaging-bridge/internal/domain/ports/repository"
)

var _ repository.PlatformUserRepository = (*PostgresUserRepo)(nil)

// PostgresUserRepo stores users in <platform>_users. The table name comes from
// model.Platform, never from request input.
type PostgresUserRepo struct {
	gw       *Gateway
	platform model.Platform
	qUpsert  string
	qFind    string
}

func NewPostgresUserRepo(gw *Gateway, platform model.Platform) *PostgresUserRepo {
	t := platform.UsersTable()
	return &PostgresUserRepo{
		gw:       gw,
		platform: platform,
		// A placeholder name never overwrites a known one; meta keys are merged.
		qUpsert: fmt.Sprintf(`
INSERT INTO %[1]s (user_id, display_name, platform_meta, is_active, created_at, updated_at)
VALUES ($1, $2, $3::jsonb, TRUE, NOW(), NOW())
ON CONFLICT (user_id) DO UPDATE SET
  display_name  = CASE WHEN EXCLUDED.display_name = ANY($4::text[]) THEN %[1]s.display_name ELSE EXCLUDED.display_name END,
  platform_meta = %[1]s.platform_meta || EXCLUDED.platform_meta,
  is_active     = TRUE,
  updated_at    = NOW()
RETURNING user_id, display_name, platform_meta, is_active, created_at, updated_at;`, t),
		qFind: fmt.Sprintf(`
SELECT user_id, display_name, platform_meta, is_active, created_at, updated_at
  FROM %s WHERE user_id = $1;`, t),
	}
}

func (r *PostgresUserRepo) Upsert(ctx context.Context, u *model.PlatformUser) (*model.PlatformUser, error) {
	if u == nil || u.UserID == "" {
		return nil, domain.ErrInvalidArgument
	}
	meta, err := json.Marshal(nonNilMeta(u.Meta))
	if err != nil {
		return nil, fmt.Errorf("encode meta: %w", err)
	}

	// ON CONFLICT on the primary key settles concurrent inserts in one statement.
	out, err := r.scanUser(r.gw.QueryRow(ctx, r.qUpsert, u.UserID, u.DisplayName, string(meta), model.PlaceholderDisplayNames))
	if err != nil {
		return nil, fmt.Errorf("upsert %s user: %w", r.platform, err)
	}
	return out, nil
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, userID string) (*model.PlatformUser, error) {
	u, err := r.scanUser(r.gw.QueryRow(ctx, r.qFind, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find %s user: %w", r.platform, err)
	}
	return u, nil
}

func (r *PostgresUserRepo) scanUser(row pgx.Row) (*model.PlatformUser, error) {
	var (
		u    model.PlatformUser
		meta []byte
	)
	if err := row.Scan(&u.UserID, &u.DisplayName, &meta, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &u.Meta); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return &u, nil
}

func nonNilMeta(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
