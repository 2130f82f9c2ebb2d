package config

import "time"

type Config struct {
	App        App        `json:"app"`
	Proxy      *Proxy     `json:"proxy"`
	Connection Connection `json:"connection"`
	Chat       Chat       `json:"chat"`
	Emotes     Emotes     `json:"emotes"`
	HTTP       HTTP       `json:"http"`
}

type App struct {
	LogLevel    string   `json:"log_level"`
	LogFile     string   `json:"log_file"`
	GinMode     string   `json:"gin_mode"`
	DisplayName string   `json:"display_name"` // пусто - анонимный вход justinfan
	OAuth       string   `json:"oauth"`
	ClientID    string   `json:"client_id"`
	Channels    []string `json:"channels"`
}

// Proxy - SOCKS5 для сокета и всех HTTP-запросов.
type Proxy struct {
	Address  string `json:"address"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Connection struct {
	URL              string        `json:"url"`
	InitialBackoff   time.Duration `json:"initial_backoff"`
	MaxBackoff       time.Duration `json:"max_backoff"`
	HandshakeTimeout time.Duration `json:"handshake_timeout"`
	RatePerSecond    float64       `json:"rate_per_second"`
	Burst            int           `json:"burst"`
}

type Chat struct {
	BufferLimit      int `json:"buffer_limit"`
	MaxMessageLength int `json:"max_message_length"`
}

type Emotes struct {
	Providers      []string      `json:"providers"` // приоритет при совпадении имён
	RequestTimeout time.Duration `json:"request_timeout"`
	ChannelTTL     time.Duration `json:"channel_ttl"`
	ResolveDelay   time.Duration `json:"resolve_delay"`
	HelixURL       string        `json:"helix_url"`
	SevenTVURL     string        `json:"seventv_url"`
	BTTVURL        string        `json:"bttv_url"`
	FFZURL         string        `json:"ffz_url"`
}

type HTTP struct {
	Addr      string `json:"addr"` // пусто - локальный API выключен
	AuthUser  string `json:"auth_user"`
	AuthToken string `json:"auth_token"`
}
