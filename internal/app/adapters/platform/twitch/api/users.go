package api

import (
	"context"
	"net/url"
	"slices"
	"strings"

	"streamview/internal/app/ports"
)

// maxLogins - предел Helix на количество login в одном запросе /users.
const maxLogins = 100

type usersResponse struct {
	Data []ports.User `json:"data"`
}

func (t *Twitch) GetUsers(ctx context.Context, logins []string) ([]ports.User, error) {
	var users []ports.User
	for chunk := range slices.Chunk(logins, maxLogins) {
		q := url.Values{}
		for _, login := range chunk {
			q.Add("login", strings.ToLower(login))
		}

		var resp usersResponse
		if err := t.doTwitchRequest(ctx, helixRequest{Endpoint: "users", Query: q}, &resp); err != nil {
			return nil, err
		}
		users = append(users, resp.Data...)
	}
	return users, nil
}
