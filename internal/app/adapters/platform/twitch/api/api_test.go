package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamview/internal/app/infrastructure/config"
	"streamview/pkg/logger"
)

func newTestTwitch(t *testing.T, handler http.Handler, withToken bool) *Twitch {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Emotes.HelixURL = srv.URL
	cfg.App.ClientID = "cid"
	if withToken {
		cfg.App.OAuth = "oauth:tok"
		cfg.App.DisplayName = "me"
	}

	return NewTwitch(logger.New(logger.WithWriter(io.Discard)), cfg, srv.Client())
}

func TestGetUsers(t *testing.T) {
	tw := newTestTwitch(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "cid", r.Header.Get("Client-Id"))
		assert.Equal(t, []string{"foo", "bar"}, r.URL.Query()["login"])

		_, _ = io.WriteString(w, `{"data":[{"id":"1","login":"foo","display_name":"Foo"},{"id":"2","login":"bar","display_name":"Bar"}]}`)
	}), true)

	users, err := tw.GetUsers(context.Background(), []string{"Foo", "bar"})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "1", users[0].ID)
	assert.Equal(t, "Bar", users[1].DisplayName)
}

func TestChannelEmotes(t *testing.T) {
	tw := newTestTwitch(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/emotes", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("broadcaster_id"))

		_, _ = io.WriteString(w, `{"data":[{"id":"e1","name":"fooHi","images":{"url_1x":"u1","url_2x":"u2","url_4x":"u4"}}]}`)
	}), true)

	emotes, err := tw.ChannelEmotes(context.Background(), "42")
	require.NoError(t, err)
	require.Len(t, emotes, 1)
	assert.Equal(t, "fooHi", emotes[0].Name)
	assert.Equal(t, "u4", emotes[0].Images.URL4x)

	_, err = tw.ChannelEmotes(context.Background(), "")
	assert.Error(t, err)
}

func TestDoRequest_NoCredentials(t *testing.T) {
	var hits atomic.Int32
	tw := newTestTwitch(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits.Add(1) }), false)

	_, err := tw.GlobalEmotes(context.Background())
	assert.ErrorIs(t, err, ErrNoCredentials)
	assert.Zero(t, hits.Load())
}

func TestDoRequest_StatusError(t *testing.T) {
	tests := []struct {
		status int
		kind   StatusKind
	}{
		{status: http.StatusNotFound, kind: KindNotFound},
		{status: http.StatusUnauthorized, kind: KindUnauthorized},
		{status: http.StatusBadGateway, kind: KindServer},
		{status: http.StatusTeapot, kind: KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.status), func(t *testing.T) {
			tw := newTestTwitch(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":"x","status":0,"message":"nope"}`)
			}), true)

			_, err := tw.GlobalEmotes(context.Background())

			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.kind, se.Kind)
			assert.Equal(t, "nope", se.Message)
			assert.Equal(t, tt.kind == KindNotFound, errors.Is(err, ErrNotFound))
		})
	}
}

func TestDoRequest_RetriesOnRateLimit(t *testing.T) {
	var hits atomic.Int32
	tw := newTestTwitch(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Ratelimit-Reset", strconv.FormatInt(time.Now().Unix()-1, 10))
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{"data":[]}`)
	}), true)

	_, err := tw.GlobalEmotes(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, hits.Load())
}

func TestCalcWaitDuration(t *testing.T) {
	assert.Zero(t, calcWaitDuration(""))
	assert.Zero(t, calcWaitDuration("garbage"))
	assert.Zero(t, calcWaitDuration(strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10)))
	assert.Greater(t, calcWaitDuration(strconv.FormatInt(time.Now().Add(time.Minute).Unix(), 10)), 30*time.Second)
}
