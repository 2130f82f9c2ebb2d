package emotes

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"streamview/internal/app/adapters/metrics"
	"streamview/internal/app/domain/emote"
	"streamview/internal/app/infrastructure/storage"
	"streamview/pkg/logger"
)

const (
	scopeGlobal  = "global"
	scopeChannel = "channel"
)

type Options struct {
	Priority       []string
	RequestTimeout time.Duration
	ChannelTTL     time.Duration
}

type globalState struct {
	contribs []emote.Contribution
	catalog  emote.Catalog
}

// Aggregator опрашивает всех провайдеров параллельно, дожидается всех ответов
// и только потом сливает их в фиксированном порядке приоритета.
type Aggregator struct {
	log       logger.Logger
	providers []Provider
	opts      Options

	global   atomic.Pointer[globalState]
	group    singleflight.Group
	channels *storage.Cache[emote.Catalog]
}

func NewAggregator(log logger.Logger, opts Options, providers ...Provider) *Aggregator {
	if len(opts.Priority) == 0 {
		opts.Priority = emote.DefaultPriority
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}

	return &Aggregator{
		log:       log,
		providers: providers,
		opts:      opts,
		channels:  storage.NewCache[emote.Catalog](512, opts.ChannelTTL),
	}
}

// GlobalCatalog загружается при первом обращении и живёт до конца процесса,
// если хотя бы один провайдер ответил успешно.
func (a *Aggregator) GlobalCatalog(ctx context.Context) emote.Catalog {
	return a.globals(ctx).catalog
}

// ChannelCatalog возвращает объединённый каталог канала (глобальные + канальные записи).
// Без channelID возвращается только глобальный каталог.
func (a *Aggregator) ChannelCatalog(ctx context.Context, channelID, channelName string) emote.Catalog {
	g := a.globals(ctx)
	if channelID == "" {
		return g.catalog
	}

	if cached, ok := a.channels.Get(channelID); ok {
		return cached
	}

	v, _, _ := a.group.Do(scopeChannel+":"+channelID, func() (any, error) {
		if cached, ok := a.channels.Get(channelID); ok {
			return cached, nil
		}

		contribs, succeeded := a.fetch(ctx, scopeChannel, func(ctx context.Context, p Provider) ([]emote.Entry, error) {
			return p.Channel(ctx, channelID, channelName)
		})

		catalog := emote.Merge(a.opts.Priority, g.contribs, contribs)
		// без глобального слоя каталог неполный, в кеш его не кладём
		if succeeded > 0 && a.global.Load() != nil {
			a.channels.Set(channelID, catalog)
		}

		metrics.CatalogSize.WithLabelValues(channelName).Set(float64(len(catalog)))
		a.log.Info("Channel emote catalog loaded",
			slog.String("channel", channelName),
			slog.Int("entries", len(catalog)),
			slog.Int("providers", succeeded),
		)
		return catalog, nil
	})
	return v.(emote.Catalog)
}

// Invalidate сбрасывает кеш канала, следующий запрос загрузит каталог заново.
func (a *Aggregator) Invalidate(channelID string) {
	a.channels.ClearKey(channelID)
}

func (a *Aggregator) globals(ctx context.Context) *globalState {
	if g := a.global.Load(); g != nil {
		return g
	}

	v, _, _ := a.group.Do(scopeGlobal, func() (any, error) {
		if g := a.global.Load(); g != nil {
			return g, nil
		}

		contribs, succeeded := a.fetch(ctx, scopeGlobal, func(ctx context.Context, p Provider) ([]emote.Entry, error) {
			return p.Global(ctx)
		})

		g := &globalState{contribs: contribs, catalog: emote.Merge(a.opts.Priority, contribs, nil)}
		if succeeded > 0 {
			a.global.Store(g)
		}

		a.log.Info("Global emote catalog loaded", slog.Int("entries", len(g.catalog)), slog.Int("providers", succeeded))
		return g, nil
	})
	return v.(*globalState)
}

// fetch дожидается всех провайдеров. Результат каждого пишется в свой слот,
// так что порядок завершения запросов на итог не влияет.
func (a *Aggregator) fetch(
	ctx context.Context,
	scope string,
	get func(ctx context.Context, p Provider) ([]emote.Entry, error),
) ([]emote.Contribution, int) {
	// запрос общий для всех ожидающих singleflight, отмена одного из них не должна его прерывать
	ctx = context.WithoutCancel(ctx)

	var (
		results   = make([]emote.Contribution, len(a.providers))
		succeeded atomic.Int32
		g         errgroup.Group
	)

	for idx, p := range a.providers {
		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(ctx, a.opts.RequestTimeout)
			defer cancel()

			results[idx] = emote.Contribution{Provider: p.Name()}

			entries, err := get(reqCtx, p)
			if err != nil {
				a.log.Warn("Emote provider failed",
					slog.String("provider", p.Name()),
					slog.String("scope", scope),
					slog.String("error", err.Error()),
				)
				metrics.CatalogFetches.WithLabelValues(p.Name(), scope, "error").Inc()
				return nil
			}

			results[idx].Entries = entries
			succeeded.Add(1)
			metrics.CatalogFetches.WithLabelValues(p.Name(), scope, "ok").Inc()
			return nil
		})
	}
	_ = g.Wait()

	return results, int(succeeded.Load())
}
