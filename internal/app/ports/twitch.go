package ports

import (
	"context"
	"time"
)

type ConnectionState int32

const (
	Disconnected ConnectionState = iota
	Connecting
	Authenticating
	Ready
	Closing
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Authenticating:
		return "authenticating"
	case Ready:
		return "ready"
	case Closing:
		return "closing"
	}
	return "unknown"
}

// Credentials выдаёт внешний сервис авторизации; движок их только использует.
type Credentials struct {
	Token       string
	DisplayName string
}

type CloseKind int

const (
	// CloseManual - закрытие по запросу вызывающего, переподключения не будет.
	CloseManual CloseKind = iota
	// CloseAbnormal - обрыв, ошибка чтения или закрытие сервером.
	CloseAbnormal
	// CloseServerRequested - сервер прислал RECONNECT.
	CloseServerRequested
)

func (k CloseKind) String() string {
	switch k {
	case CloseManual:
		return "manual"
	case CloseAbnormal:
		return "abnormal"
	case CloseServerRequested:
		return "server_requested"
	}
	return "unknown"
}

type CloseEvent struct {
	Code          int
	Kind          CloseKind
	WillReconnect bool
	Delay         time.Duration
}

type IRCPort interface {
	Connect(creds Credentials)
	Disconnect(manual bool)
	Enqueue(command string)
	State() ConnectionState
	OnReady(fn func())
	OnFrame(fn func(line string))
	OnClose(fn func(ev CloseEvent))
}

type APIPort interface {
	GetUsers(ctx context.Context, logins []string) ([]User, error)
	GlobalEmotes(ctx context.Context) ([]HelixEmote, error)
	ChannelEmotes(ctx context.Context, broadcasterID string) ([]HelixEmote, error)
}

// ChannelResolverPort - логин канала -> числовой id.
type ChannelResolverPort interface {
	ChannelID(ctx context.Context, login string) (string, error)
}

type User struct {
	ID          string `json:"id"`
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

type HelixEmote struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Images struct {
		URL1x string `json:"url_1x"`
		URL2x string `json:"url_2x"`
		URL4x string `json:"url_4x"`
	} `json:"images"`
	Format    []string `json:"format"`
	Scale     []string `json:"scale"`
	ThemeMode []string `json:"theme_mode"`
}
