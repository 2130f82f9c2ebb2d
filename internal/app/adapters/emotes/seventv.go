package emotes

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"streamview/internal/app/domain/emote"
	"streamview/internal/app/ports"
)

type SevenTV struct {
	client  *http.Client
	baseURL string
}

func NewSevenTV(client *http.Client, baseURL string) *SevenTV {
	return &SevenTV{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (sv *SevenTV) Name() string { return emote.ProviderSevenTV }

func (sv *SevenTV) Global(ctx context.Context) ([]emote.Entry, error) {
	var set ports.SevenTVEmoteSet
	if err := getJSON(ctx, sv.client, sv.baseURL+"/emote-sets/global", &set); err != nil {
		return nil, err
	}
	return sevenTVEntries(set.Emotes), nil
}

func (sv *SevenTV) Channel(ctx context.Context, channelID, _ string) ([]emote.Entry, error) {
	var user ports.SevenTVUser
	err := getJSON(ctx, sv.client, sv.baseURL+"/users/twitch/"+channelID, &user)
	if errors.Is(err, errNoChannel) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.EmoteSet == nil {
		return nil, nil
	}
	return sevenTVEntries(user.EmoteSet.Emotes), nil
}

func sevenTVEntries(list []ports.SevenTVEmote) []emote.Entry {
	entries := make([]emote.Entry, 0, len(list))
	for _, e := range list {
		host := absURL(e.Data.Host.URL)
		if e.Name == "" || host == "" {
			continue
		}

		entries = append(entries, emote.Entry{
			Name:     e.Name,
			Provider: emote.ProviderSevenTV,
			URLsByScale: map[emote.Scale]string{
				emote.Scale1x: host + "/1x.webp",
				emote.Scale2x: host + "/2x.webp",
				emote.Scale4x: host + "/4x.webp",
			},
		})
	}
	return entries
}
