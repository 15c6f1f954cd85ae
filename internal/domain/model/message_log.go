package model

import (
	"fmt"
	"strings"
	"time"

	"messaging-bridge/internal/domain"
)

type MessageStatus string

const (
	MessageStatusSent   MessageStatus = "sent"
	MessageStatusFailed MessageStatus = "failed"
)

// MessageLogEntry is one append-only row of the audit log.
// Exactly one of {PlatformMessageID, SentAt} or {ErrorDetail} is set.
type MessageLogEntry struct {
	ID                int64         `json:"id"`
	UserID            string        `json:"userId"`
	Text              string        `json:"message"`
	Status            MessageStatus `json:"status"`
	PlatformMessageID *string       `json:"platformMessageId"`
	ErrorDetail       *string       `json:"errorMessage"`
	SentAt            *time.Time    `json:"sentAt"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// NewSentEntry records a delivery. messageID may be synthetic in demo mode.
func NewSentEntry(userID, text, messageID string, sentAt time.Time) (*MessageLogEntry, error) {
	if strings.TrimSpace(messageID) == "" || sentAt.IsZero() {
		return nil, fmt.Errorf("sent entry requires message id and timestamp: %w", domain.ErrInvalidArgument)
	}
	id := messageID
	at := sentAt.UTC()
	e := &MessageLogEntry{
		UserID:            userID,
		Text:              text,
		Status:            MessageStatusSent,
		PlatformMessageID: &id,
		SentAt:            &at,
	}
	return e, e.Validate()
}

// NewFailedEntry records a failed attempt. An empty detail is replaced so the
// row still carries a reason.
func NewFailedEntry(userID, text, detail string) (*MessageLogEntry, error) {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		detail = "unknown error"
	}
	e := &MessageLogEntry{
		UserID:      userID,
		Text:        text,
		Status:      MessageStatusFailed,
		ErrorDetail: &detail,
	}
	return e, e.Validate()
}

// Validate checks the sent/failed mutual exclusion before a row is written.
func (e *MessageLogEntry) Validate() error {
	if e == nil || strings.TrimSpace(e.UserID) == "" {
		return domain.ErrInvalidArgument
	}
	hasDelivery := e.PlatformMessageID != nil && e.SentAt != nil
	hasPartialDelivery := (e.PlatformMessageID != nil) != (e.SentAt != nil)
	hasError := e.ErrorDetail != nil && *e.ErrorDetail != ""

	switch {
	case hasPartialDelivery:
		return fmt.Errorf("message id and sent_at must be set together: %w", domain.ErrInvalidArgument)
	case hasDelivery && hasError, !hasDelivery && !hasError:
		return fmt.Errorf("exactly one of delivery or error detail must be set: %w", domain.ErrInvalidArgument)
	case e.Status == MessageStatusSent && !hasDelivery:
		return fmt.Errorf("sent entry without delivery: %w", domain.ErrInvalidArgument)
	case e.Status == MessageStatusFailed && !hasError:
		return fmt.Errorf("failed entry without error detail: %w", domain.ErrInvalidArgument)
	case e.Status != MessageStatusSent && e.Status != MessageStatusFailed:
		return fmt.Errorf("unknown status %q: %w", e.Status, domain.ErrInvalidArgument)
	}
	return nil
}
