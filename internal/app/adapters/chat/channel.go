package chat

import (
	"cmp"
	"slices"

	"streamview/internal/app/domain/emote"
	"streamview/internal/app/domain/message"
	"streamview/internal/app/ports"
	"streamview/pkg/logger"
)

type channel struct {
	log    logger.Logger
	name   string
	id     string
	buffer *message.Buffer

	pending   map[string]string // nonce -> текст своего сообщения
	userState *ports.UserState

	catalog           emote.Catalog
	fetching          bool
	hasChannelCatalog bool
}

func newChannel(log logger.Logger, name string, limit int) *channel {
	return &channel{
		log:     log,
		name:    name,
		buffer:  message.NewBuffer(limit),
		pending: make(map[string]string),
	}
}

func (ch *channel) info() ports.ChannelInfo {
	return ports.ChannelInfo{
		Name:     ch.name,
		ID:       ch.id,
		Paused:   ch.buffer.Paused(),
		Messages: ch.buffer.Len(),
		Emotes:   len(ch.catalog),
		Pending:  len(ch.pending),
	}
}

func sortChannels(list []ports.ChannelInfo) {
	slices.SortFunc(list, func(a, b ports.ChannelInfo) int {
		return cmp.Compare(a.Name, b.Name)
	})
}

func topEmotes(counts map[string]int, n int) []string {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	if n > 0 && len(names) > n {
		names = names[:n]
	}
	return names
}
