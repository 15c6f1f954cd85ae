package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"messaging-bridge/internal/domain"
	"messaging-bridge/internal/domain/model"
	"messaging-bridge/internal/domain/ports/adapter"
	"messaging-bridge/internal/infra/logging"
	"messaging-bridge/internal/infra/metrics"
	"messaging-bridge/internal/infra/worker"
)

// Compile-time check
var _ PlatformAdapter = (*platformAdapter)(nil)

// PlatformAdapter owns one platform connection and the dispatch protocol on top of it.
type PlatformAdapter interface {
	Platform() model.Platform
	Initialize(ctx context.Context) error
	SendMessage(ctx context.Context, recipientID, text string) (*model.SendResult, error)
	Status(ctx context.Context) model.AdapterStatus
	Disconnect(ctx context.Context) error
}

// InboundQueue takes registration work off the platform read loop.
type InboundQueue interface {
	Submit(task worker.Task) error
}

type AdapterOptions struct {
	Token        string
	LoginTimeout time.Duration
	Dev          bool
}

const notInitializedMsg = "bot not initialized"

type platformAdapter struct {
	platform model.Platform
	opts     AdapterOptions
	gateway  adapter.PlatformGateway
	registry UserRegistry
	audit    AuditLog
	inbound  InboundQueue
	log      *zerolog.Logger
	now      func() time.Time

	// lifecycle serializes Initialize and Disconnect; mu guards the fields below
	// and is never held across a platform or storage call.
	lifecycle sync.Mutex
	mu        sync.RWMutex
	state     model.AdapterState
	conn      adapter.PlatformConnection
	identity  model.BotIdentity
	lastErr   string
}

func NewPlatformAdapter(
	gateway adapter.PlatformGateway,
	registry UserRegistry,
	audit AuditLog,
	inbound InboundQueue,
	opts AdapterOptions,
	logger *zerolog.Logger,
) *platformAdapter {
	if opts.LoginTimeout <= 0 {
		opts.LoginTimeout = 15 * time.Second
	}
	p := gateway.Platform()
	a := &platformAdapter{
		platform: p,
		opts:     opts,
		gateway:  gateway,
		registry: registry,
		audit:    audit,
		inbound:  inbound,
		log:      logging.Component(logger, string(p)+".adapter"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	metrics.SetAdapterState(string(p), a.state.String())
	return a
}

func (a *platformAdapter) Platform() model.Platform { return a.platform }

// Initialize picks demo mode or a live connection. Login failures are logged
// and degrade to demo mode; they are never returned.
func (a *platformAdapter) Initialize(ctx context.Context) error {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	if state, _ := a.snapshot(); state != model.AdapterUninitialized {
		return nil
	}

	if a.platform.IsPlaceholderToken(a.opts.Token) {
		a.log.Warn().Msg("bot token not configured, running in demo mode")
		a.transition(model.AdapterDemoMode, nil, model.BotIdentity{}, "")
		return nil
	}

	loginCtx, cancel := context.WithTimeout(ctx, a.opts.LoginTimeout)
	defer cancel()
	conn, err := a.gateway.Login(loginCtx, a.opts.Token, a.onInbound)
	if err != nil {
		a.log.Error().Err(err).Msg("bot initialization failed, running in demo mode without platform connectivity")
		a.transition(model.AdapterDemoMode, nil, model.BotIdentity{}, "")
		return nil
	}

	id := conn.Identity()
	a.transition(model.AdapterConnected, conn, id, "")
	a.log.Info().Str("bot", id.Name).Str("bot_id", id.ID).Msg("bot logged in")
	return nil
}

func (a *platformAdapter) Status(ctx context.Context) model.AdapterStatus {
	a.mu.RLock()
	state, conn, identity, lastErr := a.state, a.conn, a.identity, a.lastErr
	a.mu.RUnlock()

	st := model.AdapterStatus{Platform: a.platform, State: state.String()}
	switch state {
	case model.AdapterDemoMode:
		demo := model.DemoIdentity
		st.Connected, st.Demo, st.Identity = true, true, &demo
	case model.AdapterConnected:
		st.Connected = conn.Ready()
		st.Identity = &identity
	case model.AdapterFailed:
		st.Identity = &identity
		st.Error = lastErr
	default:
		st.Error = notInitializedMsg
	}
	return st
}

// Disconnect closes a live connection and returns to Uninitialized. It also
// clears Failed. Demo mode has nothing to tear down and is left as is.
func (a *platformAdapter) Disconnect(ctx context.Context) error {
	a.lifecycle.Lock()
	defer a.lifecycle.Unlock()

	prev, conn := a.snapshot()
	if prev == model.AdapterUninitialized || prev == model.AdapterDemoMode {
		return nil
	}
	a.transition(model.AdapterUninitialized, nil, model.BotIdentity{}, "")

	if conn != nil {
		if err := conn.Close(); err != nil {
			a.log.Warn().Err(err).Msg("error while closing platform connection")
			return fmt.Errorf("disconnect %s: %w", a.platform, err)
		}
	}
	a.log.Info().Str("from", prev.String()).Msg("bot disconnected")
	return nil
}

// SendMessage runs the dispatch protocol: one registry upsert, one delivery
// attempt (real or synthetic) and one audit entry. On a live connection the
// upsert follows recipient resolution so it carries the platform profile.
func (a *platformAdapter) SendMessage(ctx context.Context, recipientID, text string) (*model.SendResult, error) {
	defer logging.TraceDuration(a.log, "PlatformAdapter.SendMessage")()
	start := time.Now()

	state, conn := a.snapshot()
	if !state.CanDispatch() {
		metrics.IncDispatchRejected(string(a.platform))
		return nil, fmt.Errorf("%s bot is %s: %w", a.platform, state, domain.ErrAdapterNotReady)
	}
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return nil, fmt.Errorf("recipient id is required: %w", domain.ErrValidation)
	}

	ctx = logging.WithRecipientID(logging.WithPlatform(ctx, string(a.platform)), recipientID)
	log := logging.With(ctx, a.log)
	demo := state == model.AdapterDemoMode

	d := a.deliver(ctx, log, conn, demo, recipientID, text)
	a.record(ctx, log, recipientID, text, d)

	status := string(model.MessageStatusSent)
	if !d.Succeeded() {
		status = string(model.MessageStatusFailed)
	}
	metrics.ObserveDispatch(string(a.platform), status, demo, time.Since(start).Milliseconds())

	if !d.Succeeded() {
		log.Warn().Err(d.Reason).Msg("failed to send message")
		return nil, d.Reason
	}

	evt := log.Info().Str("message_id", d.ID).Str("preview", logging.Redact(text, a.opts.Dev))
	if demo {
		evt.Msg("[DEMO] message accepted without platform delivery")
	} else {
		evt.Msg("message sent")
	}
	return &model.SendResult{
		Success:     true,
		MessageID:   d.ID,
		RecipientID: recipientID,
		Text:        text,
		Timestamp:   d.At,
		Demo:        demo,
	}, nil
}

func (a *platformAdapter) deliver(ctx context.Context, log *zerolog.Logger, conn adapter.PlatformConnection, demo bool, recipientID, text string) model.Delivery {
	if demo {
		a.register(ctx, log, recipientID, model.DemoDisplayName, nil)
		return model.Delivered(model.DemoMessagePrefix+ulid.Make().String(), a.now())
	}

	to, err := conn.ResolveUser(ctx, recipientID)
	if err != nil {
		a.register(ctx, log, recipientID, "", nil)
		if errors.Is(err, adapter.ErrRecipientUnknown) {
			return model.Undelivered(fmt.Errorf("user with id %s not found: %w", recipientID, domain.ErrRecipientNotFound))
		}
		a.checkCredential(err)
		return model.Undelivered(fmt.Errorf("%w: %w", domain.ErrDeliveryFailure, err))
	}

	a.register(ctx, log, recipientID, to.DisplayName, to.Meta)

	msgID, err := conn.SendDirectMessage(ctx, to, text)
	if err != nil {
		a.checkCredential(err)
		return model.Undelivered(fmt.Errorf("%w: %w", domain.ErrDeliveryFailure, err))
	}
	return model.Delivered(msgID, a.now())
}

// register is the single registry write of a dispatch. Failures never block delivery.
func (a *platformAdapter) register(ctx context.Context, log *zerolog.Logger, userID, name string, meta map[string]string) {
	if res := a.registry.Upsert(ctx, userID, name, meta); !res.Ok() {
		log.Debug().Err(res.Err).Msg("sending without registry row")
	}
}

func (a *platformAdapter) record(ctx context.Context, log *zerolog.Logger, recipientID, text string, d model.Delivery) {
	var (
		entry *model.MessageLogEntry
		err   error
	)
	if d.Succeeded() {
		entry, err = model.NewSentEntry(recipientID, text, d.ID, d.At)
	} else {
		entry, err = model.NewFailedEntry(recipientID, text, d.Reason.Error())
	}
	if err != nil {
		log.Error().Err(err).Msg("could not build audit entry")
		return
	}
	if res := a.audit.Record(ctx, entry); !res.Ok() {
		log.Debug().Err(res.Err).Msg("send outcome not recorded")
	}
}

// checkCredential moves a connected adapter to Failed when the platform
// rejects the bot token. Only Disconnect leaves Failed.
func (a *platformAdapter) checkCredential(err error) {
	if !errors.Is(err, adapter.ErrUnauthorized) {
		return
	}
	a.mu.Lock()
	if a.state != model.AdapterConnected {
		a.mu.Unlock()
		return
	}
	conn := a.conn
	a.state, a.conn = model.AdapterFailed, nil
	a.lastErr = "bot credential rejected by platform"
	a.mu.Unlock()

	metrics.SetAdapterState(string(a.platform), model.AdapterFailed.String())
	a.log.Error().Err(err).Msg("platform rejected bot credential, adapter failed")
	if conn != nil {
		if cerr := conn.Close(); cerr != nil {
			a.log.Warn().Err(cerr).Msg("error while closing rejected connection")
		}
	}
}

// onInbound runs on the platform read loop, so the upsert is queued.
func (a *platformAdapter) onInbound(msg adapter.InboundMessage) {
	if strings.TrimSpace(msg.SenderID) == "" {
		return
	}
	a.log.Debug().Str("user_id", msg.SenderID).Str("preview", logging.Redact(msg.Text, a.opts.Dev)).Msg("received direct message")

	task := func(ctx context.Context) error {
		return a.registry.Upsert(ctx, msg.SenderID, msg.DisplayName, msg.Meta).Err
	}
	if a.inbound == nil {
		_ = task(context.Background())
		metrics.IncInbound(string(a.platform), "inline")
		return
	}
	if err := a.inbound.Submit(task); err != nil {
		metrics.IncInbound(string(a.platform), "dropped")
		a.log.Warn().Err(err).Str("user_id", msg.SenderID).Msg("inbound registration dropped")
		return
	}
	metrics.IncInbound(string(a.platform), "queued")
}

func (a *platformAdapter) snapshot() (model.AdapterState, adapter.PlatformConnection) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state, a.conn
}

func (a *platformAdapter) transition(to model.AdapterState, conn adapter.PlatformConnection, id model.BotIdentity, lastErr string) {
	a.mu.Lock()
	a.state, a.conn, a.identity, a.lastErr = to, conn, id, lastErr
	a.mu.Unlock()
	metrics.SetAdapterState(string(a.platform), to.String())
}
