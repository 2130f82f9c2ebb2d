package emotes

import (
	"context"

	"streamview/internal/app/domain/emote"
	"streamview/internal/app/ports"
)

// Twitch - родные эмоуты через Helix.
type Twitch struct {
	api ports.APIPort
}

func NewTwitch(api ports.APIPort) *Twitch {
	return &Twitch{api: api}
}

func (t *Twitch) Name() string { return emote.ProviderTwitch }

func (t *Twitch) Global(ctx context.Context) ([]emote.Entry, error) {
	list, err := t.api.GlobalEmotes(ctx)
	if err != nil {
		return nil, err
	}
	return helixEntries(list), nil
}

func (t *Twitch) Channel(ctx context.Context, channelID, _ string) ([]emote.Entry, error) {
	list, err := t.api.ChannelEmotes(ctx, channelID)
	if err != nil {
		return nil, err
	}
	return helixEntries(list), nil
}

func helixEntries(list []ports.HelixEmote) []emote.Entry {
	entries := make([]emote.Entry, 0, len(list))
	for _, e := range list {
		urls := make(map[emote.Scale]string, 3)
		for scale, u := range map[emote.Scale]string{
			emote.Scale1x: e.Images.URL1x,
			emote.Scale2x: e.Images.URL2x,
			emote.Scale4x: e.Images.URL4x,
		} {
			if u != "" {
				urls[scale] = u
			}
		}
		if e.Name == "" || len(urls) == 0 {
			continue
		}
		entries = append(entries, emote.Entry{Name: e.Name, Provider: emote.ProviderTwitch, URLsByScale: urls})
	}
	return entries
}
