package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"streamview/internal/app/infrastructure/coalesce"
	"streamview/internal/app/infrastructure/storage"
	"streamview/internal/app/ports"
	"streamview/pkg/logger"
)

// Resolver переводит логины каналов в id. Запросы за короткий промежуток
// объединяются в один вызов /users, результаты кешируются.
type Resolver struct {
	log   logger.Logger
	api   ports.APIPort
	cache *storage.Cache[string]
	queue *coalesce.Queue[string, string]
}

func NewResolver(log logger.Logger, api ports.APIPort, delay, ttl time.Duration) *Resolver {
	r := &Resolver{
		log:   log,
		api:   api,
		cache: storage.NewCache[string](1000, ttl),
	}
	r.queue = coalesce.NewQueue(delay, maxLogins, r.lookup)
	return r
}

func (r *Resolver) ChannelID(ctx context.Context, login string) (string, error) {
	login = strings.ToLower(strings.TrimPrefix(login, "#"))
	if id, ok := r.cache.Get(login); ok {
		return id, nil
	}

	id, err := r.queue.Get(ctx, login)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", login, err)
	}
	r.cache.Set(login, id)
	return id, nil
}

// Remember сохраняет id, полученный из другого источника (room-id в ROOMSTATE).
func (r *Resolver) Remember(login, id string) {
	if login == "" || id == "" {
		return
	}
	r.cache.Set(strings.ToLower(login), id)
}

func (r *Resolver) Close() {
	r.queue.Close()
}

func (r *Resolver) lookup(ctx context.Context, logins []string) (map[string]string, error) {
	r.log.Debug("Resolving channel ids", slog.Int("count", len(logins)))

	users, err := r.api.GetUsers(ctx, logins)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(users))
	for _, u := range users {
		out[strings.ToLower(u.Login)] = u.ID
	}
	return out, nil
}
