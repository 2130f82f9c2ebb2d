package twitch

import (
	"net/http"

	"streamview/internal/app/adapters/platform/twitch/api"
	"streamview/internal/app/adapters/platform/twitch/irc"
	"streamview/internal/app/infrastructure/config"
	"streamview/internal/app/ports"
	"streamview/pkg/logger"
)

// Twitch собирает всё, что относится к самой платформе: Helix, резолвер id и соединение с чатом.
type Twitch struct {
	log logger.Logger

	api      *api.Twitch
	resolver *api.Resolver
	irc      *irc.IRC
}

func New(log logger.Logger, cfg *config.Config, client *http.Client, dialer irc.Dialer) *Twitch {
	t := &Twitch{log: log}
	t.api = api.NewTwitch(log, cfg, client)
	t.resolver = api.NewResolver(log, t.api, cfg.Emotes.ResolveDelay, cfg.Emotes.ChannelTTL)
	t.irc = irc.New(log, irc.OptionsFromConfig(cfg.Connection), dialer)

	return t
}

func (t *Twitch) API() ports.APIPort {
	return t.api
}

func (t *Twitch) IRC() ports.IRCPort {
	return t.irc
}

func (t *Twitch) Resolver() ports.ChannelResolverPort {
	return t.resolver
}

// Close закрывает соединение без переподключения и останавливает резолвер.
func (t *Twitch) Close() {
	t.irc.Disconnect(true)
	t.resolver.Close()
}
