package irc

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"streamview/internal/app/adapters/metrics"
	"streamview/internal/app/domain/wire"
	"streamview/internal/app/ports"
)

const capabilities = "CAP REQ :twitch.tv/tags twitch.tv/commands twitch.tv/membership"

func (i *IRC) run(ctx context.Context, gen uint64, creds ports.Credentials, wake <-chan struct{}) {
	dialCtx := ctx
	if i.opts.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, i.opts.HandshakeTimeout)
		defer cancel()
	}

	conn, _, err := i.dialer.DialContext(dialCtx, i.opts.URL, nil)
	if err != nil {
		if ctx.Err() == nil {
			i.log.Error("Failed to connect to chat", err, slog.String("url", i.opts.URL))
		}
		i.handleClose(gen, websocket.CloseAbnormalClosure, ports.CloseAbnormal)
		return
	}

	i.mu.Lock()
	if gen != i.gen || i.state != ports.Connecting {
		i.mu.Unlock()
		_ = conn.Close()
		return
	}
	i.conn = conn
	i.setStateLocked(ports.Authenticating)
	if i.opts.HandshakeTimeout > 0 {
		i.authTTL = time.AfterFunc(i.opts.HandshakeTimeout, func() {
			i.mu.Lock()
			expired := gen == i.gen && i.state == ports.Authenticating
			i.mu.Unlock()
			if expired {
				i.log.Warn("Authentication timed out")
				i.handleClose(gen, websocket.ClosePolicyViolation, ports.CloseAbnormal)
			}
		})
	}
	i.mu.Unlock()

	// порядок строго CAP, PASS, NICK
	for _, line := range []string{capabilities, "PASS oauth:" + creds.Token, "NICK " + creds.DisplayName} {
		if err := i.writeLine(conn, line); err != nil {
			i.log.Error("Failed to send handshake", err)
			i.handleClose(gen, websocket.CloseAbnormalClosure, ports.CloseAbnormal)
			return
		}
	}

	go i.writer(ctx, gen, conn, wake)
	i.read(gen, conn)
}

func (i *IRC) read(gen uint64, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			code := websocket.CloseAbnormalClosure
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				code = ce.Code
			}
			i.handleClose(gen, code, ports.CloseAbnormal)
			return
		}

		for _, line := range strings.Split(string(data), "\r\n") {
			if line == "" {
				continue
			}
			if !i.handleLine(gen, conn, line) {
				return
			}
		}
	}
}

// handleLine обрабатывает служебные команды сокета и передаёт строку подписчикам.
// Возвращает false, если соединение закрыто.
func (i *IRC) handleLine(gen uint64, conn *websocket.Conn, line string) bool {
	// битые строки всё равно уходят подписчикам, сессия их посчитает и пропустит
	frame, _ := wire.Parse(line)

	switch frame.Command {
	case "PING":
		if err := i.writeLine(conn, "PONG :"+frame.Text); err != nil {
			i.log.Warn("Failed to answer PING", slog.String("error", err.Error()))
		}
		return true
	case "001":
		i.markReady(gen)
	case "RECONNECT":
		i.log.Info("Server requested reconnect")
		i.handleClose(gen, websocket.CloseServiceRestart, ports.CloseServerRequested)
		return false
	case "NOTICE":
		if strings.Contains(frame.Text, "Login authentication failed") || strings.Contains(frame.Text, "Improperly formatted auth") {
			i.log.Error("Chat authentication failed", nil, slog.String("notice", frame.Text))
		}
	}

	i.mu.Lock()
	stale := gen != i.gen
	handlers := i.onFrame
	i.mu.Unlock()
	if stale {
		return false
	}

	for _, fn := range handlers {
		fn(line)
	}
	return true
}

// writer отправляет команды из головы очереди; команда удаляется только после успешной записи.
func (i *IRC) writer(ctx context.Context, gen uint64, conn *websocket.Conn, wake <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-wake:
		}

		for {
			i.mu.Lock()
			if gen != i.gen || i.state != ports.Ready || len(i.queue) == 0 {
				i.mu.Unlock()
				break
			}
			command := i.queue[0]
			i.mu.Unlock()

			if err := i.limiter.Wait(ctx); err != nil {
				return
			}
			if err := i.writeLine(conn, command); err != nil {
				i.log.Warn("Failed to write command, will retry after reconnect", slog.String("error", err.Error()))
				return
			}

			i.mu.Lock()
			if gen == i.gen && len(i.queue) > 0 {
				i.queue = i.queue[1:]
			}
			queued := len(i.queue)
			i.mu.Unlock()
			metrics.OutboundQueue.Set(float64(queued))
		}
	}
}

func (i *IRC) notifyWriter() {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.notifyWriterLocked()
}

func (i *IRC) notifyWriterLocked() {
	select {
	case i.wake <- struct{}{}:
	default:
	}
}

func (i *IRC) writeLine(conn *websocket.Conn, line string) error {
	i.writeMu.Lock()
	defer i.writeMu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, []byte(line+"\r\n"))
}
