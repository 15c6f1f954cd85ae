package application

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"messaging-bridge/internal/domain"
	"messaging-bridge/internal/domain/model"
	"messaging-bridge/internal/infra/logging"
	"messaging-bridge/internal/usecase"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Platform user ids are short numeric snowflakes; 64 is generous.
type sendMessageInput struct {
	RecipientID string `json:"userId" validate:"notblank,max=64"`
	Text        string `json:"message" validate:"notblank"`
}

// DispatchFacade is what the HTTP layer talks to for one platform.
type DispatchFacade struct {
	platform model.Platform
	adapter  usecase.PlatformAdapter
	registry usecase.UserRegistry
	audit    usecase.AuditLog
	maxRunes int
	log      *zerolog.Logger
}

// NewDispatchFacade wires one platform. maxTextRunes <= 0 uses the platform limit.
func NewDispatchFacade(
	adapter usecase.PlatformAdapter,
	registry usecase.UserRegistry,
	audit usecase.AuditLog,
	maxTextRunes int,
	logger *zerolog.Logger,
) *DispatchFacade {
	p := adapter.Platform()
	if maxTextRunes <= 0 || maxTextRunes > p.MaxTextRunes() {
		maxTextRunes = p.MaxTextRunes()
	}
	return &DispatchFacade{
		platform: p,
		adapter:  adapter,
		registry: registry,
		audit:    audit,
		maxRunes: maxTextRunes,
		log:      logging.Component(logger, string(p)+".facade"),
	}
}

func (f *DispatchFacade) Platform() model.Platform { return f.platform }

// SendMessage validates input and runs one dispatch.
func (f *DispatchFacade) SendMessage(ctx context.Context, recipientID, text string) (*model.SendResult, error) {
	in := sendMessageInput{RecipientID: strings.TrimSpace(recipientID), Text: text}
	if err := f.validateSend(in); err != nil {
		return nil, err
	}
	logging.With(ctx, f.log).Debug().
		Str("recipient_id", in.RecipientID).
		Msg("incoming message request")
	return f.adapter.SendMessage(ctx, in.RecipientID, in.Text)
}

// GetHistory never fails; an unknown user or a storage outage is an empty list.
func (f *DispatchFacade) GetHistory(ctx context.Context, recipientID string, limit int) []*model.MessageLogEntry {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return []*model.MessageLogEntry{}
	}
	return f.audit.History(ctx, recipientID, limit)
}

func (f *DispatchFacade) GetStatus(ctx context.Context) model.AdapterStatus {
	return f.adapter.Status(ctx)
}

func (f *DispatchFacade) GetUser(ctx context.Context, userID string) (*model.PlatformUser, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("userId is required: %w", domain.ErrValidation)
	}
	u, err := f.registry.Get(ctx, userID)
	if errors.Is(err, domain.ErrPersistenceUnavailable) {
		// without storage no user is known
		return nil, fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return u, err
}

func (f *DispatchFacade) validateSend(in sendMessageInput) error {
	if err := validate.Struct(in); err != nil {
		return validationError(err)
	}
	if err := validate.Var(in.Text, fmt.Sprintf("max=%d", f.maxRunes)); err != nil {
		return fmt.Errorf("message exceeds %d characters: %w", f.maxRunes, domain.ErrValidation)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%v: %w", err, domain.ErrValidation)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "notblank", "required":
		return fmt.Errorf("%s is required: %w", fe.Field(), domain.ErrValidation)
	case "max":
		return fmt.Errorf("%s exceeds %s characters: %w", fe.Field(), fe.Param(), domain.ErrValidation)
	default:
		return fmt.Errorf("%s is invalid: %w", fe.Field(), domain.ErrValidation)
	}
}
