package config

import (
	"time"

	"streamview/internal/app/domain/emote"
)

const (
	DefaultURL        = "wss://irc-ws.chat.twitch.tv:443"
	AnonymousLogin    = "justinfan12345"
	anonymousPassword = "SCHMOOPIIE"
)

func Default() *Config {
	return &Config{
		App: App{
			LogLevel: "info",
			GinMode:  "release",
			Channels: []string{},
		},
		Connection: Connection{
			URL:              DefaultURL,
			InitialBackoff:   time.Second,
			MaxBackoff:       time.Minute,
			HandshakeTimeout: 10 * time.Second,
			RatePerSecond:    20.0 / 30.0,
			Burst:            20,
		},
		Chat: Chat{
			BufferLimit:      200,
			MaxMessageLength: 500,
		},
		Emotes: Emotes{
			Providers:      append([]string(nil), emote.DefaultPriority...),
			RequestTimeout: 10 * time.Second,
			ChannelTTL:     30 * time.Minute,
			ResolveDelay:   250 * time.Millisecond,
			HelixURL:       "https://api.twitch.tv/helix",
			SevenTVURL:     "https://7tv.io/v3",
			BTTVURL:        "https://api.betterttv.net/3",
			FFZURL:         "https://api.frankerfacez.com/v1",
		},
		HTTP: HTTP{
			AuthUser: "admin",
		},
	}
}
