package emotes

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"streamview/internal/app/domain/emote"
	"streamview/internal/app/ports"
)

var ffzScales = map[string]emote.Scale{
	"1": emote.Scale1x,
	"2": emote.Scale2x,
	"4": emote.Scale4x,
}

type FFZ struct {
	client  *http.Client
	baseURL string
}

func NewFFZ(client *http.Client, baseURL string) *FFZ {
	return &FFZ{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (f *FFZ) Name() string { return emote.ProviderFFZ }

// Global берёт только default_sets: остальные глобальные наборы видят лишь пользователи расширения.
func (f *FFZ) Global(ctx context.Context) ([]emote.Entry, error) {
	var global ports.FFZGlobal
	if err := getJSON(ctx, f.client, f.baseURL+"/set/global", &global); err != nil {
		return nil, err
	}

	var entries []emote.Entry
	for _, id := range global.DefaultSets {
		if set, ok := global.Sets[strconv.Itoa(id)]; ok {
			entries = append(entries, ffzEntries(set.Emoticons)...)
		}
	}
	return entries, nil
}

func (f *FFZ) Channel(ctx context.Context, channelID, _ string) ([]emote.Entry, error) {
	var room ports.FFZRoom
	err := getJSON(ctx, f.client, f.baseURL+"/room/id/"+channelID, &room)
	if errors.Is(err, errNoChannel) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// порядок наборов в JSON-объекте не определён
	ids := make([]string, 0, len(room.Sets))
	for id := range room.Sets {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var entries []emote.Entry
	for _, id := range ids {
		entries = append(entries, ffzEntries(room.Sets[id].Emoticons)...)
	}
	return entries, nil
}

func ffzEntries(list []ports.FFZEmote) []emote.Entry {
	entries := make([]emote.Entry, 0, len(list))
	for _, e := range list {
		urls := make(map[emote.Scale]string, len(e.URLs))
		for key, u := range e.URLs {
			if scale, ok := ffzScales[key]; ok && u != "" {
				urls[scale] = absURL(u)
			}
		}
		if e.Name == "" || len(urls) == 0 {
			continue
		}
		entries = append(entries, emote.Entry{Name: e.Name, Provider: emote.ProviderFFZ, URLsByScale: urls})
	}
	return entries
}
