package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"messaging-bridge/internal/domain"
	"messaging-bridge/internal/infra/logging"
)

const maxBodyBytes = 1 << 20

type sendMessageRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

type okBody struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Count   *int        `json:"count,omitempty"`
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

type platformHandlers struct {
	d   Dispatcher
	log *zerolog.Logger
}

func newPlatformHandlers(d Dispatcher, logger *zerolog.Logger) *platformHandlers {
	return &platformHandlers{d: d, log: logger}
}

func (h *platformHandlers) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.fail(w, r, fmt.Errorf("request body must be JSON with userId and message: %w", domain.ErrValidation))
		return
	}

	ctx := logging.WithPlatform(r.Context(), string(h.d.Platform()))
	res, err := h.d.SendMessage(ctx, req.UserID, req.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{Success: true, Data: res})
}

func (h *platformHandlers) history(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.fail(w, r, fmt.Errorf("limit must be a positive integer: %w", domain.ErrValidation))
			return
		}
		limit = n
	}
	entries := h.d.GetHistory(r.Context(), chi.URLParam(r, "userId"), limit)
	n := len(entries)
	writeJSON(w, http.StatusOK, okBody{Success: true, Data: entries, Count: &n})
}

func (h *platformHandlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, okBody{Success: true, Data: h.d.GetStatus(r.Context())})
}

func (h *platformHandlers) user(w http.ResponseWriter, r *http.Request) {
	u, err := h.d.GetUser(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, okBody{Success: true, Data: u})
}

// fail maps domain errors to status codes. Unexpected errors are logged and
// replaced by a generic message.
func (h *platformHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, title := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.With(r.Context(), h.log).Error().Err(err).Msg("unhandled error")
		msg = "An unexpected error occurred"
	}
	writeJSON(w, status, errorBody{Error: title, Message: msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "Validation error"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, domain.ErrRecipientNotFound):
		return http.StatusUnprocessableEntity, "Recipient not found"
	case errors.Is(err, domain.ErrAdapterNotReady):
		return http.StatusServiceUnavailable, "Bot not ready"
	case errors.Is(err, domain.ErrDeliveryFailure):
		return http.StatusBadGateway, "Failed to send message"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
