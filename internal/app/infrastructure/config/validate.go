package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"

	"streamview/internal/app/domain/emote"
	"streamview/internal/app/domain/wire"
)

func (m *Manager) validate(cfg *Config) error {
	return Validate(cfg)
}

// Validate проверяет конфиг и дозаполняет нулевые значения значениями по умолчанию.
func Validate(cfg *Config) error {
	def := Default()

	// app
	validLevels := []string{"trace", "debug", "info", "warn", "error"}
	if cfg.App.LogLevel != "" && !slices.Contains(validLevels, cfg.App.LogLevel) {
		return fmt.Errorf("app.log_level must be one of trace, debug, info, warn, error; got %s", cfg.App.LogLevel)
	}
	if cfg.App.GinMode == "" {
		cfg.App.GinMode = def.App.GinMode
	}
	if cfg.App.OAuth != "" && cfg.App.DisplayName == "" {
		return errors.New("app.display_name is required when app.oauth is set")
	}
	for i, ch := range cfg.App.Channels {
		cfg.App.Channels[i] = wire.NormalizeChannel(ch)
		if cfg.App.Channels[i] == "" {
			return fmt.Errorf("app.channels[%d] is empty", i)
		}
	}

	// proxy
	if cfg.Proxy != nil && cfg.Proxy.Address != "" && (cfg.Proxy.Port <= 0 || cfg.Proxy.Port > 65535) {
		return errors.New("proxy.port must be [1,65535]")
	}

	// connection
	if cfg.Connection.URL == "" {
		cfg.Connection.URL = def.Connection.URL
	}
	u, err := url.Parse(cfg.Connection.URL)
	if err != nil {
		return fmt.Errorf("connection.url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("connection.url must be ws:// or wss://, got %s", cfg.Connection.URL)
	}
	if cfg.Connection.InitialBackoff <= 0 {
		cfg.Connection.InitialBackoff = def.Connection.InitialBackoff
	}
	if cfg.Connection.MaxBackoff <= 0 {
		cfg.Connection.MaxBackoff = def.Connection.MaxBackoff
	}
	if cfg.Connection.MaxBackoff < cfg.Connection.InitialBackoff {
		return errors.New("connection.max_backoff must be >= connection.initial_backoff")
	}
	if cfg.Connection.HandshakeTimeout <= 0 {
		cfg.Connection.HandshakeTimeout = def.Connection.HandshakeTimeout
	}
	if cfg.Connection.RatePerSecond < 0 || cfg.Connection.Burst < 0 {
		return errors.New("connection.rate_per_second and connection.burst must be >= 0")
	}
	if (cfg.Connection.RatePerSecond == 0) != (cfg.Connection.Burst == 0) {
		return errors.New("connection.rate_per_second and connection.burst must both be set or both be zero")
	}

	// chat
	if cfg.Chat.BufferLimit == 0 {
		cfg.Chat.BufferLimit = def.Chat.BufferLimit
	}
	if cfg.Chat.BufferLimit < 1 || cfg.Chat.BufferLimit > 10000 {
		return errors.New("chat.buffer_limit must be [1,10000]")
	}
	if cfg.Chat.MaxMessageLength == 0 {
		cfg.Chat.MaxMessageLength = def.Chat.MaxMessageLength
	}
	if cfg.Chat.MaxMessageLength < 1 {
		return errors.New("chat.max_message_length must be positive")
	}

	// emotes
	if len(cfg.Emotes.Providers) == 0 {
		cfg.Emotes.Providers = def.Emotes.Providers
	}
	seen := make(map[string]struct{}, len(cfg.Emotes.Providers))
	for _, p := range cfg.Emotes.Providers {
		if !slices.Contains(emote.DefaultPriority, p) {
			return fmt.Errorf("emotes.providers: unknown provider %q", p)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("emotes.providers: duplicate provider %q", p)
		}
		seen[p] = struct{}{}
	}
	if cfg.Emotes.RequestTimeout <= 0 {
		cfg.Emotes.RequestTimeout = def.Emotes.RequestTimeout
	}
	if cfg.Emotes.ChannelTTL <= 0 {
		cfg.Emotes.ChannelTTL = def.Emotes.ChannelTTL
	}
	if cfg.Emotes.ResolveDelay <= 0 {
		cfg.Emotes.ResolveDelay = def.Emotes.ResolveDelay
	}
	for _, base := range []*string{&cfg.Emotes.HelixURL, &cfg.Emotes.SevenTVURL, &cfg.Emotes.BTTVURL, &cfg.Emotes.FFZURL} {
		if *base == "" {
			continue
		}
		if _, err := url.ParseRequestURI(*base); err != nil {
			return fmt.Errorf("emotes: invalid base url %q: %w", *base, err)
		}
	}
	if cfg.Emotes.HelixURL == "" {
		cfg.Emotes.HelixURL = def.Emotes.HelixURL
	}
	if cfg.Emotes.SevenTVURL == "" {
		cfg.Emotes.SevenTVURL = def.Emotes.SevenTVURL
	}
	if cfg.Emotes.BTTVURL == "" {
		cfg.Emotes.BTTVURL = def.Emotes.BTTVURL
	}
	if cfg.Emotes.FFZURL == "" {
		cfg.Emotes.FFZURL = def.Emotes.FFZURL
	}

	// http
	if cfg.HTTP.AuthToken != "" && cfg.HTTP.AuthUser == "" {
		cfg.HTTP.AuthUser = def.HTTP.AuthUser
	}

	return nil
}
