package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"messaging-bridge/internal/domain/model"
	"messaging-bridge/internal/domain/ports/adapter"
)

var (
	_ adapter.PlatformGateway    = (*Gateway)(nil)
	_ adapter.PlatformConnection = (*connection)(nil)
)

const intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentMessageContent

// invalidFormBody is what Discord answers for a malformed snowflake.
const invalidFormBody = 50035

// session is the part of *discordgo.Session the bridge uses.
type session interface {
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Close() error
}

// Gateway opens a websocket session with the Discord gateway.
type Gateway struct {
	log *zerolog.Logger
}

func NewGateway(logger *zerolog.Logger) *Gateway {
	l := logger.With().Str("component", "discord.gateway").Logger()
	return &Gateway{log: &l}
}

func (g *Gateway) Platform() model.Platform { return model.PlatformDiscord }

func (g *Gateway) Login(ctx context.Context, token string, onInbound adapter.InboundHandler) (adapter.PlatformConnection, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = intents
	s.ShouldReconnectOnError = true

	c := newConnection(s, onInbound, g.log)
	c.ready = func() bool {
		s.RLock()
		defer s.RUnlock()
		return s.DataReady
	}
	s.AddHandler(c.onMessageCreate)
	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		if r.User != nil {
			g.log.Info().Str("bot", r.User.Username).Msg("discord gateway ready")
		}
	})

	opened := make(chan error, 1)
	go func() { opened <- s.Open() }()
	select {
	case <-ctx.Done():
		go func() {
			if err := <-opened; err == nil {
				_ = s.Close()
			}
		}()
		return nil, fmt.Errorf("discord login: %w", ctx.Err())
	case err := <-opened:
		if err != nil {
			return nil, fmt.Errorf("discord login: %w", err)
		}
	}

	self := s.State.User
	if self == nil {
		if self, err = s.User("@me", discordgo.WithContext(ctx)); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("discord identify: %w", classify(err))
		}
	}
	c.self = model.BotIdentity{Name: self.Username, ID: self.ID, Discriminator: self.Discriminator}
	return c, nil
}

type connection struct {
	sess      session
	self      model.BotIdentity
	ready     func() bool
	onInbound adapter.InboundHandler
	log       *zerolog.Logger

	sendMu sync.Mutex
	closed atomic.Bool
}

func newConnection(s session, onInbound adapter.InboundHandler, logger *zerolog.Logger) *connection {
	return &connection{
		sess:      s,
		ready:     func() bool { return true },
		onInbound: onInbound,
		log:       logger,
	}
}

func (c *connection) Identity() model.BotIdentity { return c.self }

func (c *connection) Ready() bool { return !c.closed.Load() && c.ready() }

func (c *connection) ResolveUser(ctx context.Context, userID string) (*adapter.Recipient, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, adapter.ErrRecipientUnknown
	}
	u, err := c.sess.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord fetch user: %w", classify(err))
	}
	if u == nil {
		return nil, fmt.Errorf("discord user %s: %w", userID, adapter.ErrRecipientUnknown)
	}
	return &adapter.Recipient{
		ID:          u.ID,
		DisplayName: u.Username,
		Meta:        userMeta(u),
	}, nil
}

// SendDirectMessage opens (or reuses) the DM channel and posts text to it.
func (c *connection) SendDirectMessage(ctx context.Context, to *adapter.Recipient, text string) (string, error) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	channelID := to.ChannelID
	if channelID == "" {
		ch, err := c.sess.UserChannelCreate(to.ID, discordgo.WithContext(ctx))
		if err != nil {
			return "", fmt.Errorf("discord open dm: %w", classify(err))
		}
		channelID = ch.ID
	}
	msg, err := c.sess.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("discord send: %w", classify(err))
	}
	return msg.ID, nil
}

func (c *connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.sess.Close()
}

// onMessageCreate forwards direct messages from humans. Guild traffic is ignored.
func (c *connection) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Message == nil || m.Author == nil || m.Author.Bot {
		return
	}
	if m.GuildID != "" || c.onInbound == nil {
		return
	}
	c.log.Debug().Str("user_id", m.Author.ID).Str("username", m.Author.Username).Msg("received direct message")
	c.onInbound(adapter.InboundMessage{
		Platform:    model.PlatformDiscord,
		SenderID:    m.Author.ID,
		DisplayName: m.Author.Username,
		Meta:        userMeta(m.Author),
		Text:        m.Content,
	})
}

func userMeta(u *discordgo.User) map[string]string {
	meta := map[string]string{}
	if u.Discriminator != "" {
		meta["discriminator"] = u.Discriminator
	}
	if u.Avatar != "" {
		meta["avatar"] = u.Avatar
	}
	if u.GlobalName != "" {
		meta["global_name"] = u.GlobalName
	}
	return meta
}

// classify maps REST errors onto the gateway contract.
func classify(err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return err
	}
	status := 0
	if restErr.Response != nil {
		status = restErr.Response.StatusCode
	}
	code := 0
	if restErr.Message != nil {
		code = restErr.Message.Code
	}
	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %v", adapter.ErrUnauthorized, err)
	case code == discordgo.ErrCodeUnknownUser, code == invalidFormBody, status == http.StatusNotFound:
		return fmt.Errorf("%w: %v", adapter.ErrRecipientUnknown, err)
	default:
		return err
	}
}
