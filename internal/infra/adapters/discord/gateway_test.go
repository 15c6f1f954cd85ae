//go:build !integration

package discord

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"messaging-bridge/internal/domain/model"
	"messaging-bridge/internal/domain/ports/adapter"
)

type fakeSession struct {
	users      map[string]*discordgo.User
	userErr    error
	channelErr error
	sendErr    error
	sent       map[string][]string
	closed     int
}

func newFakeSession() *fakeSession {
	return &fakeSession{users: map[string]*discordgo.User{}, sent: map[string][]string{}}
}

func restErr(status, code int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: http.StatusText(status)},
	}
}

func (f *fakeSession) User(userID string, _ ...discordgo.RequestOption) (*discordgo.User, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, restErr(http.StatusNotFound, discordgo.ErrCodeUnknownUser)
	}
	return u, nil
}

func (f *fakeSession) UserChannelCreate(recipientID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.channelErr != nil {
		return nil, f.channelErr
	}
	return &discordgo.Channel{ID: "dm-" + recipientID, Type: discordgo.ChannelTypeDM}, nil
}

func (f *fakeSession) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent[channelID] = append(f.sent[channelID], content)
	return &discordgo.Message{ID: "m-1", ChannelID: channelID, Content: content}, nil
}

func (f *fakeSession) Close() error {
	f.closed++
	return nil
}

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestConnection_ResolveAndSend(t *testing.T) {
	ctx := context.Background()
	sess := newFakeSession()
	sess.users["42"] = &discordgo.User{ID: "42", Username: "alice", Discriminator: "0001", Avatar: "abc"}
	c := newConnection(sess, nil, testLogger())

	to, err := c.ResolveUser(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "alice", to.DisplayName)
	assert.Equal(t, map[string]string{"discriminator": "0001", "avatar": "abc"}, to.Meta)

	id, err := c.SendDirectMessage(ctx, to, "hello")
	require.NoError(t, err)
	assert.Equal(t, "m-1", id)
	assert.Equal(t, []string{"hello"}, sess.sent["dm-42"])
}

func TestConnection_ResolveUnknown(t *testing.T) {
	ctx := context.Background()
	c := newConnection(newFakeSession(), nil, testLogger())

	_, err := c.ResolveUser(ctx, "ghost99")
	assert.ErrorIs(t, err, adapter.ErrRecipientUnknown)

	_, err = c.ResolveUser(ctx, "  ")
	assert.ErrorIs(t, err, adapter.ErrRecipientUnknown)
}

func TestConnection_SendFailures(t *testing.T) {
	ctx := context.Background()
	sess := newFakeSession()
	c := newConnection(sess, nil, testLogger())
	to := &adapter.Recipient{ID: "42"}

	sess.channelErr = restErr(http.StatusForbidden, 50007)
	_, err := c.SendDirectMessage(ctx, to, "hi")
	require.Error(t, err)
	assert.False(t, errors.Is(err, adapter.ErrUnauthorized))

	sess.channelErr = nil
	sess.sendErr = restErr(http.StatusUnauthorized, 0)
	_, err = c.SendDirectMessage(ctx, to, "hi")
	assert.ErrorIs(t, err, adapter.ErrUnauthorized)
}

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, classify(restErr(http.StatusBadRequest, invalidFormBody)), adapter.ErrRecipientUnknown)
	assert.ErrorIs(t, classify(restErr(http.StatusNotFound, 0)), adapter.ErrRecipientUnknown)
	assert.ErrorIs(t, classify(restErr(http.StatusUnauthorized, 0)), adapter.ErrUnauthorized)

	plain := errors.New("connection reset")
	assert.Same(t, plain, classify(plain))

	other := restErr(http.StatusInternalServerError, 0)
	assert.False(t, errors.Is(classify(other), adapter.ErrRecipientUnknown))
}

func TestConnection_InboundFiltering(t *testing.T) {
	var got []adapter.InboundMessage
	c := newConnection(newFakeSession(), func(m adapter.InboundMessage) { got = append(got, m) }, testLogger())

	c.onMessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		GuildID: "g1", Author: &discordgo.User{ID: "1", Username: "in_guild"}, Content: "x",
	}})
	c.onMessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		Author: &discordgo.User{ID: "2", Username: "botty", Bot: true}, Content: "x",
	}})
	c.onMessageCreate(nil, &discordgo.MessageCreate{Message: &discordgo.Message{
		Author: &discordgo.User{ID: "3", Username: "carol", Discriminator: "0420"}, Content: "hi bot",
	}})

	require.Len(t, got, 1)
	assert.Equal(t, model.PlatformDiscord, got[0].Platform)
	assert.Equal(t, "3", got[0].SenderID)
	assert.Equal(t, "carol", got[0].DisplayName)
	assert.Equal(t, "0420", got[0].Meta["discriminator"])
	assert.Equal(t, "hi bot", got[0].Text)
}

func TestConnection_CloseIsIdempotent(t *testing.T) {
	sess := newFakeSession()
	c := newConnection(sess, nil, testLogger())
	c.self = model.BotIdentity{Name: "bridge", ID: "9", Discriminator: "0000"}

	assert.True(t, c.Ready())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Equal(t, 1, sess.closed)
	assert.Equal(t, "0000", c.Identity().Discriminator)
}
