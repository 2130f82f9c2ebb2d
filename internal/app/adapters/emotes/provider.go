package emotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"streamview/internal/app/domain/emote"
)

// Provider - один источник эмоутов. Ошибка означает пустой вклад, агрегатор её только логирует.
type Provider interface {
	Name() string
	Global(ctx context.Context) ([]emote.Entry, error)
	Channel(ctx context.Context, channelID, channelName string) ([]emote.Entry, error)
}

// errNoChannel - у канала нет аккаунта у провайдера, это не сбой.
var errNoChannel = errors.New("channel not registered with provider")

const maxBodySize = 8 << 20

func getJSON(ctx context.Context, client *http.Client, url string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNoChannel
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s: unexpected status %d", url, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(target); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// absURL дополняет протокол-относительные ссылки ("//cdn...").
func absURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}
