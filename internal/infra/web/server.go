package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"messaging-bridge/internal/domain/model"
	"messaging-bridge/internal/infra/metrics"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "Telegram & Discord Integration Service"

// Dispatcher is the per-platform facade the handlers call.
type Dispatcher interface {
	Platform() model.Platform
	SendMessage(ctx context.Context, recipientID, text string) (*model.SendResult, error)
	GetHistory(ctx context.Context, recipientID string, limit int) []*model.MessageLogEntry
	GetStatus(ctx context.Context) model.AdapterStatus
	GetUser(ctx context.Context, userID string) (*model.PlatformUser, error)
}

type Server struct {
	telegram Dispatcher
	discord  Dispatcher
	timeout  time.Duration
	log      *zerolog.Logger
	srv      *http.Server
}

func NewServer(telegram, discord Dispatcher, requestTimeout time.Duration, logger *zerolog.Logger) *Server {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	l := logger.With().Str("component", "http").Logger()
	return &Server{telegram: telegram, discord: discord, timeout: requestTimeout, log: &l}
}

// Routes builds the router. Telegram lives directly under /api, Discord under /api/discord.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log), Timeout(s.timeout))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		mountPlatform(r, newPlatformHandlers(s.telegram, s.log))
		r.Route("/discord", func(r chi.Router) {
			mountPlatform(r, newPlatformHandlers(s.discord, s.log))
		})
	})
	r.Handle("/metrics", metrics.Handler())

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)
	return r
}

func mountPlatform(r chi.Router, h *platformHandlers) {
	r.Post("/send-message", h.sendMessage)
	r.Get("/messages/{userId}", h.history)
	r.Get("/bot-status", h.status)
	r.Get("/users/{userId}", h.user)
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start(port int) error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Int("port", port).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"service":   ServiceName,
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{
		Error:   "Route not found",
		Message: fmt.Sprintf("%s %s is not a valid endpoint", r.Method, r.URL.RequestURI()),
	})
}
