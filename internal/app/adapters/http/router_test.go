package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamview/internal/app/adapters/chat"
	"streamview/internal/app/domain/message"
	"streamview/internal/app/infrastructure/config"
	"streamview/internal/app/ports"
	"streamview/pkg/logger"
)

type fakeSession struct {
	mu      sync.Mutex
	joined  []string
	left    []string
	sent    []string
	paused  map[string]bool
	sendErr error
}

func (f *fakeSession) Join(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, channel)
}

func (f *fakeSession) Leave(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left = append(f.left, channel)
}

func (f *fakeSession) Send(text, channel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, channel+":"+text)
	return nil
}

func (f *fakeSession) SetPaused(channel string, paused bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paused == nil {
		f.paused = make(map[string]bool)
	}
	f.paused[channel] = paused
}

func (f *fakeSession) Messages(_ context.Context, channel string) ([]message.ChatMessage, error) {
	if channel != "bar" {
		return nil, chat.ErrNotJoined
	}
	return []message.ChatMessage{{ID: "1", Author: "Foo", HTML: "hi", IsEven: true}}, nil
}

func (f *fakeSession) Channels(context.Context) ([]ports.ChannelInfo, error) {
	return []ports.ChannelInfo{{Name: "bar", ID: "42", Messages: 1}}, nil
}

func (f *fakeSession) FrequentEmotes(_ context.Context, n int) ([]string, error) {
	return []string{"Kappa", "LUL", "<3"}[:min(n, 3)], nil
}

func (f *fakeSession) State() ports.ConnectionState { return ports.Ready }

func newTestRouter(t *testing.T, cfg config.HTTP) (*fakeSession, http.Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	session := &fakeSession{}
	r := NewRouter(logger.New(logger.WithWriter(io.Discard)), cfg, session)
	return session, r.Handler()
}

func do(h http.Handler, method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "127.0.0.1:5555"
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, fn := range mutate {
		fn(req)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestState(t *testing.T) {
	_, h := newTestRouter(t, config.HTTP{})

	w := do(h, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got stateBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "ready", got.State)
	require.Len(t, got.Channels, 1)
	assert.Equal(t, "42", got.Channels[0].ID)
}

type stateBody struct {
	State    string              `json:"state"`
	Channels []ports.ChannelInfo `json:"channels"`
}

func TestChannels_JoinLeave(t *testing.T) {
	session, h := newTestRouter(t, config.HTTP{})

	assert.Equal(t, http.StatusAccepted, do(h, http.MethodPut, "/api/channels/bar", "").Code)
	assert.Equal(t, http.StatusAccepted, do(h, http.MethodDelete, "/api/channels/baz", "").Code)

	assert.Equal(t, []string{"bar"}, session.joined)
	assert.Equal(t, []string{"baz"}, session.left)
}

func TestMessages(t *testing.T) {
	_, h := newTestRouter(t, config.HTTP{})

	w := do(h, http.MethodGet, "/api/channels/bar/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"author":"Foo"`)

	w = do(h, http.MethodGet, "/api/channels/nope/messages", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSend(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		sendErr  error
		wantCode int
	}{
		{name: "accepted", body: `{"text":"hello"}`, wantCode: http.StatusAccepted},
		{name: "missing text", body: `{}`, wantCode: http.StatusBadRequest},
		{name: "broken json", body: `{`, wantCode: http.StatusBadRequest},
		{name: "too long", body: `{"text":"x"}`, sendErr: fmt.Errorf("%w: 501 > 500", chat.ErrMessageTooLong), wantCode: http.StatusBadRequest},
		{name: "stopped", body: `{"text":"x"}`, sendErr: chat.ErrStopped, wantCode: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, h := newTestRouter(t, config.HTTP{})
			session.sendErr = tt.sendErr

			w := do(h, http.MethodPost, "/api/channels/bar/messages", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusAccepted {
				assert.Equal(t, []string{"bar:hello"}, session.sent)
			}
		})
	}
}

func TestPause(t *testing.T) {
	session, h := newTestRouter(t, config.HTTP{})

	assert.Equal(t, http.StatusAccepted, do(h, http.MethodPut, "/api/channels/bar/pause", `{"paused":true}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPut, "/api/channels/bar/pause", `{}`).Code)
	assert.Equal(t, map[string]bool{"bar": true}, session.paused)
}

func TestFrequentEmotes(t *testing.T) {
	_, h := newTestRouter(t, config.HTTP{})

	w := do(h, http.MethodGet, "/api/emotes/frequent?n=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"emotes":["Kappa","LUL"]}`, w.Body.String())

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/api/emotes/frequent?n=x", "").Code)
}

func TestLocalOnlyWithoutToken(t *testing.T) {
	_, h := newTestRouter(t, config.HTTP{})

	w := do(h, http.MethodGet, "/api/state", "", func(r *http.Request) {
		r.RemoteAddr = "10.1.2.3:4444"
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTokenAuth(t *testing.T) {
	_, h := newTestRouter(t, config.HTTP{AuthUser: "admin", AuthToken: "secret"})

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/api/state", "").Code)

	w := do(h, http.MethodGet, "/api/state", "", func(r *http.Request) {
		r.RemoteAddr = "10.1.2.3:4444"
		r.Header.Set("Authorization", "Bearer secret")
	})
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/metrics", "").Code)
	w = do(h, http.MethodGet, "/metrics", "", func(r *http.Request) {
		r.SetBasicAuth("admin", "secret")
	})
	assert.Equal(t, http.StatusOK, w.Code)
}
