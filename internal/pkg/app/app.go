package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/net/proxy"
	"golang.org/x/sync/errgroup"

	"streamview/internal/app/adapters/chat"
	"streamview/internal/app/adapters/emotes"
	router "streamview/internal/app/adapters/http"
	"streamview/internal/app/adapters/platform/twitch"
	"streamview/internal/app/domain/emote"
	"streamview/internal/app/domain/message"
	"streamview/internal/app/domain/wire"
	"streamview/internal/app/infrastructure/config"
	"streamview/internal/app/ports"
	"streamview/pkg/logger"
)

const DefaultConfigPath = "config.json"

// Options - переопределения из командной строки поверх файла конфигурации.
type Options struct {
	ConfigPath string
	Channels   []string
	LogLevel   string
}

// Run поднимает движок и локальный API и работает до отмены ctx.
func Run(ctx context.Context, opts Options) error {
	if opts.ConfigPath == "" {
		opts.ConfigPath = DefaultConfigPath
	}

	manager, err := config.New(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := manager.Get()

	level := cfg.App.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logOpts := []logger.Option{logger.WithLevel(level)}
	if cfg.App.LogFile != "" {
		logOpts = append(logOpts, logger.WithFile(cfg.App.LogFile))
	}
	log := logger.New(logOpts...)

	if cfg.App.GinMode != "" {
		gin.SetMode(cfg.App.GinMode)
	}

	client, wsDialer, err := newTransport(cfg)
	if err != nil {
		log.Error("Error creating proxy dialer", err)
		return err
	}

	t := twitch.New(log, cfg, client, wsDialer)
	defer t.Close()

	agg := emotes.NewAggregator(log, emotes.Options{
		Priority:       cfg.Emotes.Providers,
		RequestTimeout: cfg.Emotes.RequestTimeout,
		ChannelTTL:     cfg.Emotes.ChannelTTL,
	}, providers(cfg, client, t.API())...)

	session := chat.New(log, t.IRC(), agg, t.Resolver(), chat.Options{
		BufferLimit:      cfg.Chat.BufferLimit,
		MaxMessageLength: cfg.Chat.MaxMessageLength,
	})
	subscribe(log, session)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return session.Run(gctx)
	})
	if cfg.HTTP.Addr != "" {
		r := router.NewRouter(log, cfg.HTTP, session)
		g.Go(func() error {
			return r.Run(gctx)
		})
	}

	channels := cfg.App.Channels
	if len(opts.Channels) > 0 {
		channels = opts.Channels
	}

	creds := cfg.Credentials()
	if cfg.Anonymous() {
		log.Info("No token configured, connecting anonymously (read-only)")
	}
	session.Connect(creds)
	for _, channel := range channels {
		session.Join(channel)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Stopped with error", err)
		return err
	}
	log.Info("Stopped")
	return nil
}

// newTransport строит HTTP-клиент и websocket-диалер; при заданном proxy оба ходят через SOCKS5.
func newTransport(cfg *config.Config) (*http.Client, *websocket.Dialer, error) {
	client := &http.Client{
		Timeout:   10 * time.Second,
		Transport: http.DefaultTransport,
	}
	wsDialer := &websocket.Dialer{
		HandshakeTimeout: cfg.Connection.HandshakeTimeout,
	}

	if cfg.Proxy == nil || cfg.Proxy.Address == "" || cfg.Proxy.Port == 0 {
		return client, wsDialer, nil
	}

	var auth *proxy.Auth
	if cfg.Proxy.Username != "" {
		auth = &proxy.Auth{User: cfg.Proxy.Username, Password: cfg.Proxy.Password}
	}
	dialer, err := proxy.SOCKS5("tcp", fmt.Sprintf("%s:%d", cfg.Proxy.Address, cfg.Proxy.Port), auth, proxy.Direct)
	if err != nil {
		return nil, nil, err
	}

	dialContext := func(ctx context.Context, network, addr string) (net.Conn, error) {
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return dialer.Dial(network, addr)
	}

	client.Transport = &http.Transport{DialContext: dialContext}
	wsDialer.NetDialContext = dialContext
	return client, wsDialer, nil
}

// providers - источники эмоутов в порядке приоритета из конфигурации.
func providers(cfg *config.Config, client *http.Client, api ports.APIPort) []emotes.Provider {
	list := make([]emotes.Provider, 0, len(cfg.Emotes.Providers))
	for _, name := range cfg.Emotes.Providers {
		switch name {
		case emote.ProviderTwitch:
			list = append(list, emotes.NewTwitch(api))
		case emote.ProviderSevenTV:
			list = append(list, emotes.NewSevenTV(client, cfg.Emotes.SevenTVURL))
		case emote.ProviderBTTV:
			list = append(list, emotes.NewBTTV(client, cfg.Emotes.BTTVURL))
		case emote.ProviderFFZ:
			list = append(list, emotes.NewFFZ(client, cfg.Emotes.FFZURL))
		}
	}
	return list
}

func subscribe(log logger.Logger, session *chat.Session) {
	session.OnMessage(func(channel string, msg message.ChatMessage) {
		log.Trace("Chat message", slog.String("channel", channel), slog.String("author", msg.Author))
	})
	session.OnServiceMessage(func(m ports.ServiceMessage) {
		log.Debug("Service message", slog.String("channel", m.Channel), slog.String("command", m.Command))
	})
	session.OnClosed(func(ev ports.CloseEvent) {
		if ev.WillReconnect {
			log.Warn("Connection closed, reconnecting",
				slog.Int("code", ev.Code), slog.String("kind", ev.Kind.String()), slog.Duration("delay", ev.Delay))
			return
		}
		log.Info("Connection closed", slog.Int("code", ev.Code), slog.String("kind", ev.Kind.String()))
	})
}

// NormalizeChannels приводит имена из флагов к виду без '#' и в нижнем регистре.
func NormalizeChannels(channels []string) []string {
	out := make([]string, 0, len(channels))
	for _, c := range channels {
		if c = wire.NormalizeChannel(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
