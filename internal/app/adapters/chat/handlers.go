package chat

import (
	"log/slog"
	"strings"
	"time"

	"streamview/internal/app/adapters/metrics"
	"streamview/internal/app/domain/message"
	"streamview/internal/app/domain/wire"
	"streamview/internal/app/ports"
)

const meCommand = "/me "

// remembers - резолвер, которому можно подсказать id канала из ROOMSTATE.
type remembers interface {
	Remember(login, id string)
}

func (s *Session) handleLine(line string) {
	frame, err := wire.Parse(line)
	if err != nil {
		metrics.MalformedFrames.Inc()
		s.log.Debug("Skipping malformed line", slog.String("error", err.Error()), slog.String("line", line))
		return
	}

	kind := frame.Kind()
	if kind == wire.KindUnknown {
		metrics.Frames.WithLabelValues("unknown").Inc()
		s.log.Trace("Ignoring frame", slog.String("command", frame.Command))
		return
	}
	metrics.Frames.WithLabelValues(frame.Command).Inc()

	switch kind {
	case wire.KindChat:
		s.handleChat(frame)
	case wire.KindUserState:
		s.handleUserState(frame)
	case wire.KindGlobalUserState:
		us := userStateFrom(frame, true)
		s.globalUser = &us
		s.emitUserState(us)
	case wire.KindService:
		s.handleService(frame)
	}
}

func (s *Session) handleReady() {
	// после переподключения сервер не помнит каналы; при первом подключении JOIN уже в очереди
	if s.wasReady {
		for name := range s.channels {
			s.irc.Enqueue(wire.Join(name))
		}
	}
	s.wasReady = true
}

func (s *Session) handleClose(ev ports.CloseEvent) {
	for _, fn := range s.onClosed {
		fn(ev)
	}
}

func (s *Session) handleChat(frame wire.Frame) {
	ch, ok := s.channels[frame.Channel]
	if !ok {
		return
	}

	author := frame.Tag("display-name")
	if author == "" {
		author = frame.Source
	}

	s.render(ch, message.Input{
		ID:      frame.Tag("id"),
		Login:   frame.Source,
		Author:  author,
		Color:   frame.Tag("color"),
		Badges:  frame.Tags.Badges("badges"),
		Text:    frame.Text,
		Emotes:  frame.Tags.Emotes(),
		Catalog: ch.catalog,
		Viewer:  s.viewer(),
	})
}

// handleUserState: USERSTATE с nonce подтверждает своё сообщение. Оно рендерится один раз,
// с цветом и бейджами от сервера; повторный USERSTATE с тем же nonce ничего не добавит.
func (s *Session) handleUserState(frame wire.Frame) {
	us := userStateFrom(frame, false)
	ch, ok := s.channels[frame.Channel]
	if ok {
		ch.userState = &us
	}
	s.emitUserState(us)

	nonce := frame.Nonce()
	if !ok || nonce == "" {
		return
	}
	text, pending := ch.pending[nonce]
	if !pending {
		return
	}
	delete(ch.pending, nonce)

	id := frame.Tag("id")
	if id == "" {
		id = nonce
	}
	author := us.DisplayName
	if author == "" {
		author = s.creds.DisplayName
	}
	if rest, ok := strings.CutPrefix(text, meCommand); ok {
		text = "\x01ACTION " + rest + "\x01"
	}

	s.render(ch, message.Input{
		ID:      id,
		Login:   s.login,
		Author:  author,
		Color:   us.Color,
		Badges:  us.Badges,
		Text:    text,
		Catalog: ch.catalog,
	})
}

func (s *Session) handleService(frame wire.Frame) {
	ch, joined := s.channels[frame.Channel]

	switch frame.Command {
	case "JOIN":
		if joined && s.login != "" && strings.EqualFold(frame.Source, s.login) {
			ch.buffer.Clear()
			ch.log.Info("Joined channel")
		}
	case "ROOMSTATE":
		if roomID := frame.Tag("room-id"); joined && roomID != "" {
			s.applyRoomID(ch, roomID)
		}
	case "NOTICE":
		s.log.Info("Notice", slog.String("channel", frame.Channel), slog.String("msg-id", frame.Tag("msg-id")), slog.String("text", frame.Text))
	}

	sm := ports.ServiceMessage{Channel: frame.Channel, Command: frame.Command, Text: frame.Text}
	for _, fn := range s.onService {
		fn(sm)
	}
}

// applyRoomID - room-id из ROOMSTATE главнее id от Helix: при расхождении кешированный
// каталог старого id сбрасывается и загружается заново.
func (s *Session) applyRoomID(ch *channel, roomID string) {
	if ch.id != roomID {
		if ch.id != "" {
			ch.log.Warn("Channel id changed", slog.String("old", ch.id), slog.String("new", roomID))
			s.catalogs.Invalidate(ch.id)
			ch.hasChannelCatalog = false
		}
		ch.id = roomID
		if r, ok := s.resolver.(remembers); ok {
			r.Remember(ch.name, roomID)
		}
	}
	if ch.hasChannelCatalog || ch.fetching {
		return
	}

	ch.fetching = true
	go s.loadCatalog(s.ctx, ch.name, roomID)
}

func (s *Session) render(ch *channel, in message.Input) {
	start := time.Now()
	msg := s.renderer.Render(in)
	metrics.RenderTime.Observe(float64(time.Since(start).Microseconds()) / 1000)

	stored := ch.buffer.Append(msg)
	for _, name := range stored.EmoteNamesUsed {
		s.frequent[name]++
	}
	metrics.Messages.WithLabelValues(ch.name).Inc()

	for _, fn := range s.onMessage {
		fn(ch.name, stored)
	}
}

func (s *Session) emitUserState(us ports.UserState) {
	for _, fn := range s.onUser {
		fn(us)
	}
}

// viewer - имя для подсветки упоминаний; у анонимного входа его нет.
func (s *Session) viewer() string {
	if strings.HasPrefix(s.login, "justinfan") {
		return ""
	}
	return s.login
}

func userStateFrom(frame wire.Frame, global bool) ports.UserState {
	return ports.UserState{
		Channel:     frame.Channel,
		DisplayName: frame.Tag("display-name"),
		Color:       frame.Tag("color"),
		Badges:      frame.Tags.Badges("badges"),
		EmoteSets:   frame.Tags.IDs("emote-sets"),
		Global:      global,
	}
}
