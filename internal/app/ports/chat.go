package ports

import (
	"context"
	"streamview/internal/app/domain/emote"
	"streamview/internal/app/domain/message"
)

// UserState - метаданные текущего пользователя, подтверждённые сервером.
type UserState struct {
	Channel     string // пусто для GLOBALUSERSTATE
	DisplayName string
	Color       string
	Badges      []string
	EmoteSets   []string
	Global      bool
}

// ServiceMessage - всё, что не является чатом или USERSTATE. В буфер не попадает.
type ServiceMessage struct {
	Channel string
	Command string
	Text    string
}

// SessionPort - команды возвращаются сразу, результат виден через события и запросы.
type SessionPort interface {
	Join(channel string)
	Leave(channel string)
	Send(text, channel string) error
	SetPaused(channel string, paused bool)
	Messages(ctx context.Context, channel string) ([]message.ChatMessage, error)
	Channels(ctx context.Context) ([]ChannelInfo, error)
	FrequentEmotes(ctx context.Context, n int) ([]string, error)
	State() ConnectionState
}

type ChannelInfo struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	Paused   bool   `json:"paused"`
	Messages int    `json:"messages"`
	Emotes   int    `json:"emotes"`
	Pending  int    `json:"pending"`
}

type CatalogPort interface {
	GlobalCatalog(ctx context.Context) emote.Catalog
	ChannelCatalog(ctx context.Context, channelID, channelName string) emote.Catalog
	Invalidate(channelID string)
}
