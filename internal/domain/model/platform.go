package model

import "strings"

// Platform names one chat platform the bridge can deliver to.
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformDiscord  Platform = "discord"
)

// Hard limits imposed by the platforms on a single text message.
const (
	TelegramMaxTextRunes = 4096
	DiscordMaxTextRunes  = 2000
)

func (p Platform) String() string { return string(p) }

// Valid reports whether p is a platform the bridge knows about.
func (p Platform) Valid() bool {
	return p == PlatformTelegram || p == PlatformDiscord
}

// MaxTextRunes is the size ceiling for a message body on p.
func (p Platform) MaxTextRunes() int {
	switch p {
	case PlatformDiscord:
		return DiscordMaxTextRunes
	default:
		return TelegramMaxTextRunes
	}
}

// UsersTable and MessagesTable keep each platform in its own namespace.
func (p Platform) UsersTable() string    { return string(p) + "_users" }
func (p Platform) MessagesTable() string { return string(p) + "_messages" }

// placeholderTokens are the sample values shipped in env templates.
var placeholderTokens = map[Platform][]string{
	PlatformTelegram: {"your_telegram_bot_token_here"},
	PlatformDiscord:  {"your_discord_bot_token_here"},
}

var genericPlaceholders = []string{"changeme", "demo", "placeholder", "xxx"}

// IsPlaceholderToken reports whether token is missing or one of the documented
// placeholder values, in which case the adapter runs in demo mode.
func (p Platform) IsPlaceholderToken(token string) bool {
	t := strings.TrimSpace(token)
	if t == "" {
		return true
	}
	lt := strings.ToLower(t)
	for _, v := range placeholderTokens[p] {
		if lt == v {
			return true
		}
	}
	for _, v := range genericPlaceholders {
		if lt == v {
			return true
		}
	}
	return false
}
