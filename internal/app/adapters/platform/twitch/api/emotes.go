package api

import (
	"context"
	"errors"
	"net/url"

	"streamview/internal/app/ports"
)

type emotesResponse struct {
	Data []ports.HelixEmote `json:"data"`
}

func (t *Twitch) GlobalEmotes(ctx context.Context) ([]ports.HelixEmote, error) {
	var resp emotesResponse
	if err := t.doTwitchRequest(ctx, helixRequest{Endpoint: "chat/emotes/global"}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (t *Twitch) ChannelEmotes(ctx context.Context, broadcasterID string) ([]ports.HelixEmote, error) {
	if broadcasterID == "" {
		return nil, errors.New("broadcasterID is required")
	}

	q := url.Values{}
	q.Set("broadcaster_id", broadcasterID)

	var resp emotesResponse
	if err := t.doTwitchRequest(ctx, helixRequest{Endpoint: "chat/emotes", Query: q}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
