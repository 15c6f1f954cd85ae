package postgres

import (
	"context"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"messaging-bridge/internal/domain"
)

// executor is the subset of pgx shared by pools, pooled conns and transactions.
type executor interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

var (
	_ executor = (*pgxpool.Pool)(nil)
	_ executor = (pgx.Tx)(nil)
)

// Gateway runs parameterized statements against Postgres. It carries no
// business logic. A Gateway built without a pool is disabled: every call
// fails with domain.ErrPersistenceUnavailable so callers can fail soft.
type Gateway struct {
	pool *pgxpool.Pool
}

func NewGateway(pool *pgxpool.Pool) *Gateway {
	return &Gateway{pool: pool}
}

// NewDisabledGateway is used when no database is configured.
func NewDisabledGateway() *Gateway {
	return &Gateway{}
}

func (g *Gateway) Enabled() bool { return g != nil && g.pool != nil }

func (g *Gateway) exec() (executor, error) {
	if !g.Enabled() {
		return nil, domain.ErrPersistenceUnavailable
	}
	return g.pool, nil
}

func (g *Gateway) Exec(ctx context.Context, sql string, args ...interface{}) (int64, error) {
	ex, err := g.exec()
	if err != nil {
		return 0, err
	}
	tag, err := ex.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (g *Gateway) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ex, err := g.exec()
	if err != nil {
		return nil, err
	}
	return ex.Query(ctx, sql, args...)
}

func (g *Gateway) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ex, err := g.exec()
	if err != nil {
		return errRow{err: err}
	}
	return ex.QueryRow(ctx, sql, args...)
}

// PoolStat reports total, idle and in-use connections; zeros when disabled.
func (g *Gateway) PoolStat() (total, idle, inUse int32) {
	if !g.Enabled() {
		return 0, 0, 0
	}
	s := g.pool.Stat()
	return s.TotalConns(), s.IdleConns(), s.AcquiredConns()
}

func (g *Gateway) Close() {
	if g.Enabled() {
		g.pool.Close()
	}
}

type errRow struct{ err error }

func (r errRow) Scan(...interface{}) error { return r.err }
