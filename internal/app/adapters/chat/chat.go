package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"streamview/internal/app/domain/emote"
	"streamview/internal/app/domain/message"
	"streamview/internal/app/domain/wire"
	"streamview/internal/app/ports"
	"streamview/pkg/logger"
)

var (
	ErrNotJoined       = errors.New("channel not joined")
	ErrStopped         = errors.New("session stopped")
	ErrEmptyMessage    = errors.New("empty message")
	ErrMessageTooLong  = errors.New("message too long")
	ErrInvalidChannel  = errors.New("invalid channel name")
	errAnonymousSender = errors.New("anonymous session cannot send messages")
)

type Options struct {
	BufferLimit      int
	MaxMessageLength int
}

// Session - очередь событий чата. Всё состояние каналов принадлежит одной горутине Run,
// публичные методы только ставят задачи в очередь.
type Session struct {
	log      logger.Logger
	irc      ports.IRCPort
	catalogs ports.CatalogPort
	resolver ports.ChannelResolverPort
	renderer *message.Renderer
	opts     Options
	newNonce func() string

	tasks chan func()
	done  chan struct{}

	// ниже - только из Run
	ctx        context.Context
	creds      ports.Credentials
	login      string
	wasReady   bool
	channels   map[string]*channel
	globalUser *ports.UserState
	frequent   map[string]int

	onMessage []func(channel string, msg message.ChatMessage)
	onUser    []func(ports.UserState)
	onService []func(ports.ServiceMessage)
	onClosed  []func(ports.CloseEvent)
}

func New(
	log logger.Logger,
	irc ports.IRCPort,
	catalogs ports.CatalogPort,
	resolver ports.ChannelResolverPort,
	opts Options,
) *Session {
	if opts.BufferLimit <= 0 {
		opts.BufferLimit = message.DefaultLimit
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = 500
	}

	s := &Session{
		log:      log,
		irc:      irc,
		catalogs: catalogs,
		resolver: resolver,
		renderer: message.NewRenderer(),
		opts:     opts,
		newNonce: uuid.NewString,
		tasks:    make(chan func(), 1024),
		done:     make(chan struct{}),
		ctx:      context.Background(),
		channels: make(map[string]*channel),
		frequent: make(map[string]int),
	}

	irc.OnFrame(func(line string) {
		s.post(func() { s.handleLine(line) })
	})
	irc.OnReady(func() {
		s.post(s.handleReady)
	})
	irc.OnClose(func(ev ports.CloseEvent) {
		s.post(func() { s.handleClose(ev) })
	})

	return s
}

// Подписки регистрируются до Run.

func (s *Session) OnMessage(fn func(channel string, msg message.ChatMessage)) {
	s.onMessage = append(s.onMessage, fn)
}

func (s *Session) OnUserState(fn func(ports.UserState)) { s.onUser = append(s.onUser, fn) }

func (s *Session) OnServiceMessage(fn func(ports.ServiceMessage)) {
	s.onService = append(s.onService, fn)
}

func (s *Session) OnClosed(fn func(ports.CloseEvent)) { s.onClosed = append(s.onClosed, fn) }

// Run обрабатывает задачи до отмены ctx.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	s.ctx = ctx

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-s.tasks:
			task()
		}
	}
}

func (s *Session) post(task func()) {
	select {
	case s.tasks <- task:
	case <-s.done:
	}
}

// query выполняет fn в горутине Run и ждёт результат.
func query[T any](ctx context.Context, s *Session, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	res := make(chan result, 1)
	var zero T

	select {
	case s.tasks <- func() {
		v, err := fn()
		res <- result{v, err}
	}:
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-s.done:
		return zero, ErrStopped
	}

	select {
	case r := <-res:
		return r.val, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-s.done:
		return zero, ErrStopped
	}
}

func (s *Session) State() ports.ConnectionState {
	return s.irc.State()
}

// Connect передаёт учётные данные соединению. Имя из них используется для
// распознавания своего JOIN и подсветки упоминаний.
func (s *Session) Connect(creds ports.Credentials) {
	s.post(func() {
		s.creds = creds
		s.login = strings.ToLower(creds.DisplayName)
		s.irc.Connect(creds)
	})
}

func (s *Session) Disconnect() {
	s.irc.Disconnect(true)
}

func (s *Session) Join(name string) {
	name = wire.NormalizeChannel(name)
	if name == "" {
		return
	}
	s.post(func() { s.join(name) })
}

func (s *Session) Leave(name string) {
	name = wire.NormalizeChannel(name)
	s.post(func() { s.leave(name) })
}

// Send проверяет текст сразу, отправка и рендеринг происходят позже.
func (s *Session) Send(text, name string) error {
	text = strings.TrimSpace(text)
	name = wire.NormalizeChannel(name)

	switch {
	case name == "":
		return ErrInvalidChannel
	case text == "":
		return ErrEmptyMessage
	case utf8.RuneCountInString(text) > s.opts.MaxMessageLength:
		return fmt.Errorf("%w: %d > %d characters", ErrMessageTooLong, utf8.RuneCountInString(text), s.opts.MaxMessageLength)
	}

	s.post(func() { s.send(text, name) })
	return nil
}

func (s *Session) SetPaused(name string, paused bool) {
	name = wire.NormalizeChannel(name)
	s.post(func() {
		if ch, ok := s.channels[name]; ok {
			ch.buffer.SetPaused(paused)
		}
	})
}

func (s *Session) Messages(ctx context.Context, name string) ([]message.ChatMessage, error) {
	name = wire.NormalizeChannel(name)
	return query(ctx, s, func() ([]message.ChatMessage, error) {
		ch, ok := s.channels[name]
		if !ok {
			return nil, ErrNotJoined
		}
		return ch.buffer.Messages(), nil
	})
}

func (s *Session) Channels(ctx context.Context) ([]ports.ChannelInfo, error) {
	return query(ctx, s, func() ([]ports.ChannelInfo, error) {
		out := make([]ports.ChannelInfo, 0, len(s.channels))
		for _, ch := range s.channels {
			out = append(out, ch.info())
		}
		sortChannels(out)
		return out, nil
	})
}

// FrequentEmotes - n самых используемых эмоутов по всем каналам.
func (s *Session) FrequentEmotes(ctx context.Context, n int) ([]string, error) {
	return query(ctx, s, func() ([]string, error) {
		return topEmotes(s.frequent, n), nil
	})
}

func (s *Session) join(name string) {
	if _, ok := s.channels[name]; ok {
		return
	}

	ch := newChannel(logger.NewPrefixedLogger(s.log, name), name, s.opts.BufferLimit)
	s.channels[name] = ch
	s.irc.Enqueue(wire.Join(name))
	ch.log.Info("Joining channel")

	ch.fetching = true
	go s.loadCatalog(s.ctx, name, "")
}

func (s *Session) leave(name string) {
	ch, ok := s.channels[name]
	if !ok {
		return
	}

	if n := len(ch.pending); n > 0 {
		ch.log.Debug("Dropping unacknowledged messages", slog.Int("count", n))
	}
	delete(s.channels, name)
	s.irc.Enqueue(wire.Part(name))
	ch.log.Info("Left channel")
}

func (s *Session) send(text, name string) {
	ch, ok := s.channels[name]
	if !ok {
		s.log.Error("Message not sent", ErrNotJoined, slog.String("channel", name))
		return
	}
	if strings.HasPrefix(s.login, "justinfan") {
		ch.log.Error("Message not sent", errAnonymousSender)
		return
	}

	nonce := s.newNonce()
	ch.pending[nonce] = text
	s.irc.Enqueue(wire.Privmsg(name, text, nonce))
	ch.log.Debug("Message queued", slog.String("nonce", nonce))
}

// loadCatalog выполняется вне Run: id канала и каталог запрашиваются по сети.
func (s *Session) loadCatalog(ctx context.Context, name, id string) {
	if id == "" && s.resolver != nil {
		resolved, err := s.resolver.ChannelID(ctx, name)
		if err != nil {
			s.log.Warn("Channel id lookup failed, waiting for room state",
				slog.String("channel", name), slog.String("error", err.Error()))
		}
		id = resolved
	}

	catalog := s.catalogs.ChannelCatalog(ctx, id, name)
	s.post(func() { s.applyCatalog(name, id, catalog) })
}

func (s *Session) applyCatalog(name, id string, catalog emote.Catalog) {
	ch, ok := s.channels[name]
	if !ok {
		return
	}

	ch.fetching = false
	if id != "" && ch.id != "" && id != ch.id {
		// пока шёл запрос, ROOMSTATE сообщил другой id
		s.catalogs.Invalidate(id)
		ch.fetching = true
		go s.loadCatalog(s.ctx, name, ch.id)
		return
	}

	ch.catalog = catalog
	if id != "" {
		ch.id = id
		ch.hasChannelCatalog = true
	}
	ch.log.Debug("Emote catalog applied", slog.Int("entries", len(catalog)), slog.Bool("channel_scope", ch.hasChannelCatalog))

	// ROOMSTATE мог прийти, пока шёл запрос без id
	if !ch.hasChannelCatalog && ch.id != "" {
		ch.fetching = true
		go s.loadCatalog(s.ctx, name, ch.id)
	}
}
