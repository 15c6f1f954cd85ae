package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"messaging-bridge/internal/domain/model"
	"messaging-bridge/internal/domain/ports/adapter"
)

var (
	_ adapter.PlatformGateway    = (*Gateway)(nil)
	_ adapter.PlatformConnection = (*connection)(nil)
)

// botAPI is the part of *tgbotapi.BotAPI the bridge uses.
type botAPI interface {
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Gateway logs into the Telegram Bot API with long polling.
type Gateway struct {
	log         *zerolog.Logger
	pollTimeout int
	newBot      func(token string) (*tgbotapi.BotAPI, error)
}

func NewGateway(logger *zerolog.Logger) *Gateway {
	l := logger.With().Str("component", "telegram.gateway").Logger()
	_ = tgbotapi.SetLogger(botLogger{log: &l})
	return &Gateway{log: &l, pollTimeout: 60, newBot: tgbotapi.NewBotAPI}
}

func (g *Gateway) Platform() model.Platform { return model.PlatformTelegram }

// Login validates the token with getMe and starts receiving updates.
func (g *Gateway) Login(ctx context.Context, token string, onInbound adapter.InboundHandler) (adapter.PlatformConnection, error) {
	type result struct {
		bot *tgbotapi.BotAPI
		err error
	}
	ch := make(chan result, 1)
	go func() {
		bot, err := g.newBot(token)
		ch <- result{bot, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("telegram login: %w", ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("telegram login: %w", classify(r.err, false))
		}
		c := newConnection(r.bot, r.bot.Self, onInbound, g.log)
		c.startPolling(g.pollTimeout)
		return c, nil
	}
}

type connection struct {
	api       botAPI
	self      tgbotapi.User
	onInbound adapter.InboundHandler
	log       *zerolog.Logger

	sendMu sync.Mutex
	closed atomic.Bool
	done   chan struct{}
}

func newConnection(api botAPI, self tgbotapi.User, onInbound adapter.InboundHandler, logger *zerolog.Logger) *connection {
	return &connection{
		api:       api,
		self:      self,
		onInbound: onInbound,
		log:       logger,
		done:      make(chan struct{}),
	}
}

func (c *connection) Identity() model.BotIdentity {
	return model.BotIdentity{Name: c.self.UserName, ID: strconv.FormatInt(c.self.ID, 10)}
}

func (c *connection) Ready() bool { return !c.closed.Load() }

// ResolveUser looks up the private chat with userID. Telegram only lets a bot
// reach users who have started a chat with it.
func (c *connection) ResolveUser(ctx context.Context, userID string) (*adapter.Recipient, error) {
	chatID, err := strconv.ParseInt(strings.TrimSpace(userID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram user id %q is not numeric: %w", userID, adapter.ErrRecipientUnknown)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chat, err := c.api.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: chatID}})
	if err != nil {
		return nil, fmt.Errorf("telegram get chat: %w", classify(err, true))
	}
	if !chat.IsPrivate() {
		return nil, fmt.Errorf("telegram chat %d is not private: %w", chatID, adapter.ErrRecipientUnknown)
	}

	meta := map[string]string{}
	if chat.UserName != "" {
		meta["username"] = chat.UserName
	}
	if chat.FirstName != "" {
		meta["first_name"] = chat.FirstName
	}
	if chat.LastName != "" {
		meta["last_name"] = chat.LastName
	}
	return &adapter.Recipient{
		ID:          strconv.FormatInt(chat.ID, 10),
		DisplayName: displayName(chat.UserName, chat.FirstName, chat.LastName),
		ChannelID:   strconv.FormatInt(chat.ID, 10),
		Meta:        meta,
	}, nil
}

func (c *connection) SendDirectMessage(ctx context.Context, to *adapter.Recipient, text string) (string, error) {
	chatID, err := strconv.ParseInt(to.ChannelID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("telegram chat id %q: %w", to.ChannelID, adapter.ErrRecipientUnknown)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	sent, err := c.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return "", fmt.Errorf("telegram send: %w", classify(err, false))
	}
	return strconv.Itoa(sent.MessageID), nil
}

func (c *connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.done)
	c.api.StopReceivingUpdates()
	return nil
}

func (c *connection) startPolling(timeout int) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	updates := c.api.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-c.done:
				return
			case up, ok := <-updates:
				if !ok {
					return
				}
				c.handleUpdate(up)
			}
		}
	}()
}

// handleUpdate forwards private messages from humans; groups and bots are ignored.
func (c *connection) handleUpdate(up tgbotapi.Update) {
	msg := up.Message
	if msg == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return
	}
	if msg.From == nil || msg.From.IsBot {
		return
	}
	if c.onInbound == nil {
		return
	}

	meta := map[string]string{"chat_id": strconv.FormatInt(msg.Chat.ID, 10)}
	if msg.From.UserName != "" {
		meta["username"] = msg.From.UserName
	}
	if msg.From.FirstName != "" {
		meta["first_name"] = msg.From.FirstName
	}
	if msg.From.LanguageCode != "" {
		meta["language_code"] = msg.From.LanguageCode
	}
	c.onInbound(adapter.InboundMessage{
		Platform:    model.PlatformTelegram,
		SenderID:    strconv.FormatInt(msg.From.ID, 10),
		DisplayName: displayName(msg.From.UserName, msg.From.FirstName, msg.From.LastName),
		Meta:        meta,
		Text:        msg.Text,
	})
}

func displayName(username, first, last string) string {
	if u := strings.TrimSpace(username); u != "" {
		return u
	}
	return strings.TrimSpace(first + " " + last)
}

// classify maps Bot API errors onto the gateway contract. During resolution a
// 400 ("chat not found") or 403 means the bot cannot reach the user.
func classify(err error, resolving bool) error {
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", adapter.ErrUnauthorized, apiErr.Message)
	case resolving && (apiErr.Code == http.StatusBadRequest || apiErr.Code == http.StatusForbidden):
		return fmt.Errorf("%w: %s", adapter.ErrRecipientUnknown, apiErr.Message)
	default:
		return err
	}
}

// botLogger routes the library's own logging into zerolog.
type botLogger struct{ log *zerolog.Logger }

func (b botLogger) Println(v ...interface{}) { b.log.Debug().Msg(strings.TrimSpace(fmt.Sprintln(v...))) }
func (b botLogger) Printf(format string, v ...interface{}) {
	b.log.Debug().Msgf(format, v...)
}
