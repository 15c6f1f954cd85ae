// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"messaging-bridge/internal/application"
	"messaging-bridge/internal/config"
	"messaging-bridge/internal/domain/ports/adapter"
	"messaging-bridge/internal/domain/ports/repository"
	"messaging-bridge/internal/infra/adapters/discord"
	"messaging-bridge/internal/infra/adapters/telegram"
	pg "messaging-bridge/internal/infra/db/postgres"
	"messaging-bridge/internal/infra/logging"
	"messaging-bridge/internal/infra/metrics"
	red "messaging-bridge/internal/infra/redis"
	"messaging-bridge/internal/infra/sched"
	"messaging-bridge/internal/infra/web"
	"messaging-bridge/internal/infra/worker"
	"messaging-bridge/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

// platformStack is everything wired for one platform.
type platformStack struct {
	adapter usecase.PlatformAdapter
	facade  *application.DispatchFacade
	inbound *worker.Pool
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file (optional)")
	devMode := flag.Bool("dev", false, "enable developer mode (unredacted message previews)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres (optional) ----
	gw := pg.NewDisabledGateway()
	if cfg.Database.Enabled() {
		pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
		if err != nil {
			logger.Warn().Err(err).Msg("database unavailable, running without database")
		} else {
			gw = pg.NewGateway(pool)
			logger.Info().Msg("database connected")
		}
	} else {
		logger.Warn().Msg("DATABASE_URL not set, running without database")
	}
	defer gw.Close()

	// ---- Redis (optional) ----
	var cache red.RedisClient
	if cfg.Redis.Enabled() {
		c, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, user cache disabled")
		} else {
			cache = c
			defer c.Close()
		}
	}

	// ---- Platforms ----
	tg := wire(ctx, telegram.NewGateway(logger), cfg.Telegram, cfg, gw, cache, logger)
	dc := wire(ctx, discord.NewGateway(logger), cfg.Discord, cfg, gw, cache, logger)

	for _, s := range []*platformStack{tg, dc} {
		if err := s.adapter.Initialize(ctx); err != nil {
			logger.Error().Err(err).Str("platform", s.adapter.Platform().String()).Msg("adapter initialization")
		}
	}

	// ---- Pool stats ----
	stats := sched.NewStatsWorker(cfg.Worker.PoolStatsInterval, gw, []sched.QueueStater{tg.inbound, dc.inbound}, logger)
	go func() { _ = stats.Run(ctx) }()

	// ---- HTTP ----
	srv := web.NewServer(tg.facade, dc.facade, cfg.HTTP.RequestTimeout, logger)
	errc := make(chan error, 1)
	go func() { errc <- srv.Start(cfg.HTTP.Port) }()
	logger.Info().
		Int("port", cfg.HTTP.Port).
		Str("telegram", tg.facade.GetStatus(ctx).State).
		Str("discord", dc.facade.GetStatus(ctx).State).
		Msg(web.ServiceName + " started")

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigc:
		logger.Info().Str("signal", sig.String()).Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}
	for _, s := range []*platformStack{tg, dc} {
		if err := s.adapter.Disconnect(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("adapter disconnect")
		}
		s.inbound.Stop()
	}
	cancel()
	logger.Info().Msg("shutdown complete")
}

func wire(
	ctx context.Context,
	gateway adapter.PlatformGateway,
	bot config.BotConfig,
	cfg *config.Config,
	gw *pg.Gateway,
	cache red.RedisClient,
	logger *zerolog.Logger,
) *platformStack {
	p := gateway.Platform()

	var users repository.PlatformUserRepository = pg.NewPostgresUserRepo(gw, p)
	if cache != nil && gw.Enabled() {
		users = pg.NewUserRepoCacheDecorator(users, cache, p, cfg.Redis.TTL, logger)
	}
	logs := pg.NewPostgresMessageLogRepo(gw, p)

	registry := usecase.NewUserRegistry(p, users, logger)
	audit := usecase.NewAuditLog(p, logs, logger)

	inbound := worker.NewPool(p.String()+"-inbound", cfg.Worker.InboundWorkers, logger)
	inbound.Start(ctx)

	a := usecase.NewPlatformAdapter(gateway, registry, audit, inbound, usecase.AdapterOptions{
		Token:        bot.Token,
		LoginTimeout: bot.LoginTimeout,
		Dev:          cfg.Runtime.Dev,
	}, logger)

	return &platformStack{
		adapter: a,
		facade:  application.NewDispatchFacade(a, registry, audit, bot.MaxTextRunes, logger),
		inbound: inbound,
	}
}
