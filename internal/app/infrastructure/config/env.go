package config

import (
	"os"
	"strings"

	"streamview/internal/app/ports"
)

const (
	EnvToken       = "STREAMVIEW_TOKEN"
	EnvDisplayName = "STREAMVIEW_DISPLAY_NAME"
	EnvClientID    = "STREAMVIEW_CLIENT_ID"
)

// ApplyEnv перекрывает учётные данные значениями из окружения (и .env).
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvToken); v != "" {
		cfg.App.OAuth = v
	}
	if v := os.Getenv(EnvDisplayName); v != "" {
		cfg.App.DisplayName = v
	}
	if v := os.Getenv(EnvClientID); v != "" {
		cfg.App.ClientID = v
	}
}

// Credentials возвращает данные для входа в чат; без токена - анонимный вход только на чтение.
func (c *Config) Credentials() ports.Credentials {
	token := strings.TrimPrefix(c.App.OAuth, "oauth:")
	if token == "" {
		return ports.Credentials{Token: anonymousPassword, DisplayName: AnonymousLogin}
	}
	return ports.Credentials{Token: token, DisplayName: strings.ToLower(c.App.DisplayName)}
}

// Anonymous - вход без токена, отправка сообщений невозможна.
func (c *Config) Anonymous() bool {
	return strings.TrimPrefix(c.App.OAuth, "oauth:") == ""
}
