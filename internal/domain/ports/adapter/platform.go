package adapter

import (
	"context"
	"errors"

	"messaging-bridge/internal/domain/model"
)

var (
	// ErrRecipientUnknown is returned by ResolveUser when the platform has no such user
	// or the bot cannot reach them.
	ErrRecipientUnknown = errors.New("recipient unknown to platform")
	// ErrUnauthorized means the platform rejected the bot credential.
	ErrUnauthorized = errors.New("platform rejected bot credential")
)

// Recipient is a platform user handle resolved for delivery.
type Recipient struct {
	ID          string
	DisplayName string
	// ChannelID is the direct-message channel when the platform has one.
	ChannelID string
	Meta      map[string]string
}

// InboundMessage is a direct message received from a user.
type InboundMessage struct {
	Platform    model.Platform
	SenderID    string
	DisplayName string
	Meta        map[string]string
	Text        string
}

// InboundHandler is invoked from the connection's read loop; it must not block.
type InboundHandler func(msg InboundMessage)

// PlatformGateway logs a bot into one platform.
type PlatformGateway interface {
	Platform() model.Platform
	Login(ctx context.Context, token string, onInbound InboundHandler) (PlatformConnection, error)
}

// PlatformConnection is a live, authenticated bot connection.
// Implementations serialize their own writes.
type PlatformConnection interface {
	Identity() model.BotIdentity
	Ready() bool
	ResolveUser(ctx context.Context, userID string) (*Recipient, error)
	SendDirectMessage(ctx context.Context, to *Recipient, text string) (string, error)
	Close() error
}
