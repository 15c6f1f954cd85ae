package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"messaging-bridge/internal/infra/metrics"
)

// PoolStater reports database pool occupancy.
type PoolStater interface {
	PoolStat() (total, idle, inUse int32)
}

// QueueStater reports pending work in an inbound worker pool.
type QueueStater interface {
	Name() string
	Pending() int
}

// StatsWorker samples pool and queue gauges for /metrics.
type StatsWorker struct {
	interval time.Duration
	db       PoolStater
	queues   []QueueStater
	log      *zerolog.Logger
}

func NewStatsWorker(interval time.Duration, db PoolStater, queues []QueueStater, logger *zerolog.Logger) *StatsWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	compLog := logger.With().Str("component", "StatsWorker").Logger()
	return &StatsWorker{
		interval: interval,
		db:       db,
		queues:   queues,
		log:      &compLog,
	}
}

func (w *StatsWorker) Run(ctx context.Context) error {
	w.log.Debug().Dur("interval", w.interval).Msg("starting stats worker")
	w.sample()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug().Msg("stopping stats worker")
			return ctx.Err()
		case <-ticker.C:
			w.sample()
		}
	}
}

func (w *StatsWorker) sample() {
	if w.db != nil {
		total, idle, inUse := w.db.PoolStat()
		metrics.SetDBPoolStats(total, idle, inUse)
	}
	for _, q := range w.queues {
		n := q.Pending()
		metrics.SetInboundQueueDepth(q.Name(), n)
		if n > 0 {
			w.log.Trace().Str("pool", q.Name()).Int("pending", n).Msg("inbound backlog")
		}
	}
}
