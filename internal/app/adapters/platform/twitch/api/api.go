package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"streamview/internal/app/adapters/metrics"
	"streamview/internal/app/infrastructure/config"
	"streamview/pkg/logger"
)

type Twitch struct {
	log      logger.Logger
	client   *http.Client
	baseURL  string
	token    string
	clientID string
}

func NewTwitch(log logger.Logger, cfg *config.Config, client *http.Client) *Twitch {
	t := &Twitch{
		log:      log,
		client:   client,
		baseURL:  strings.TrimRight(cfg.Emotes.HelixURL, "/"),
		clientID: cfg.App.ClientID,
	}
	if !cfg.Anonymous() {
		t.token = cfg.Credentials().Token
	}
	return t
}

const (
	maxRetries  = 5
	baseBackoff = time.Second
	maxBackoff  = 30 * time.Second
)

type helixRequest struct {
	Endpoint string // для метрик и логов: "users", "chat/emotes"
	Query    url.Values
}

type helixError struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (t *Twitch) doTwitchRequest(ctx context.Context, reqData helixRequest, target any) error {
	token, clientID := t.token, t.clientID
	if token == "" || clientID == "" {
		return ErrNoCredentials
	}

	u := t.baseURL + "/" + reqData.Endpoint
	if len(reqData.Query) > 0 {
		u += "?" + reqData.Query.Encode()
	}

	t.log.Trace("Preparing Helix request", slog.String("url", u))

	for attempt := 1; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Client-Id", clientID)

		resp, err := t.client.Do(req)
		if err != nil {
			metrics.APIRequests.WithLabelValues(reqData.Endpoint, "error").Inc()
			return fmt.Errorf("helix %s: %w", reqData.Endpoint, err)
		}

		raw, err := io.ReadAll(resp.Body)
		if cerr := resp.Body.Close(); cerr != nil {
			t.log.Error("Failed to close response body", cerr)
		}
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}

		metrics.APIRequests.WithLabelValues(reqData.Endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		t.log.Trace("Response received", slog.Int("status", resp.StatusCode), slog.Int("bytes", len(raw)))

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if target == nil {
				return nil
			}
			if err := json.Unmarshal(raw, target); err != nil {
				return fmt.Errorf("decode %s: %w", reqData.Endpoint, err)
			}
			return nil

		case resp.StatusCode == http.StatusTooManyRequests && attempt < maxRetries:
			wait := calcWaitDuration(resp.Header.Get("Ratelimit-Reset"))
			if wait <= 0 {
				wait = time.Duration(attempt) * baseBackoff
			}
			wait = min(wait, maxBackoff)

			t.log.Warn("Rate limit hit, backing off", slog.Int("attempt", attempt), slog.String("wait", wait.String()))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}

		default:
			var apiErr helixError
			_ = json.Unmarshal(raw, &apiErr)
			if apiErr.Message == "" {
				apiErr.Message = strings.TrimSpace(string(raw))
			}
			return newStatusError(resp.StatusCode, apiErr.Message)
		}
	}

	return fmt.Errorf("helix %s: failed after %d retries", reqData.Endpoint, maxRetries)
}

func calcWaitDuration(resetHeader string) time.Duration {
	if resetHeader == "" {
		return 0
	}

	ts, err := strconv.ParseInt(resetHeader, 10, 64)
	if err != nil {
		return 0
	}

	resetTime := time.Unix(ts, 0)
	now := time.Now()

	if resetTime.Before(now) {
		return 0
	}
	return resetTime.Sub(now)
}
