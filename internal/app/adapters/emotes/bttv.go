package emotes

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"streamview/internal/app/domain/emote"
	"streamview/internal/app/ports"
)

const bttvCDN = "https://cdn.betterttv.net/emote/"

type BTTV struct {
	client  *http.Client
	baseURL string
}

func NewBTTV(client *http.Client, baseURL string) *BTTV {
	return &BTTV{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (b *BTTV) Name() string { return emote.ProviderBTTV }

func (b *BTTV) Global(ctx context.Context) ([]emote.Entry, error) {
	var list []ports.BTTVEmote
	if err := getJSON(ctx, b.client, b.baseURL+"/cached/emotes/global", &list); err != nil {
		return nil, err
	}
	return bttvEntries(list), nil
}

func (b *BTTV) Channel(ctx context.Context, channelID, _ string) ([]emote.Entry, error) {
	var ch ports.BTTVChannel
	err := getJSON(ctx, b.client, b.baseURL+"/cached/users/twitch/"+channelID, &ch)
	if errors.Is(err, errNoChannel) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return append(bttvEntries(ch.ChannelEmotes), bttvEntries(ch.SharedEmotes)...), nil
}

func bttvEntries(list []ports.BTTVEmote) []emote.Entry {
	entries := make([]emote.Entry, 0, len(list))
	for _, e := range list {
		if e.Code == "" || e.ID == "" {
			continue
		}
		entries = append(entries, emote.Entry{
			Name:     e.Code,
			Provider: emote.ProviderBTTV,
			URLsByScale: map[emote.Scale]string{
				emote.Scale1x: bttvCDN + e.ID + "/1x",
				emote.Scale2x: bttvCDN + e.ID + "/2x",
				emote.Scale4x: bttvCDN + e.ID + "/3x",
			},
		})
	}
	return entries
}
