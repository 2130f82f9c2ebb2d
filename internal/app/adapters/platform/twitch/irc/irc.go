package irc

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"streamview/internal/app/adapters/metrics"
	"streamview/internal/app/infrastructure/config"
	"streamview/internal/app/ports"
	"streamview/pkg/logger"
)

// ManualCloseCode - код закрытия, которым вызывающий просит не переподключаться.
const ManualCloseCode = 4000

const writeTimeout = 10 * time.Second

type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

type Options struct {
	URL              string
	InitialBackoff   time.Duration
	MaxBackoff       time.Duration
	HandshakeTimeout time.Duration
	RatePerSecond    float64 // 0 - без ограничения
	Burst            int
}

func OptionsFromConfig(cfg config.Connection) Options {
	return Options{
		URL:              cfg.URL,
		InitialBackoff:   cfg.InitialBackoff,
		MaxBackoff:       cfg.MaxBackoff,
		HandshakeTimeout: cfg.HandshakeTimeout,
		RatePerSecond:    cfg.RatePerSecond,
		Burst:            cfg.Burst,
	}
}

// IRC держит одно соединение с чатом и переподключается после любого закрытия,
// кроме ручного. Исходящие команды идут через FIFO-очередь, которая переживает переподключения.
type IRC struct {
	log    logger.Logger
	opts   Options
	dialer Dialer

	mu      sync.Mutex
	state   ports.ConnectionState
	creds   ports.Credentials
	gen     uint64 // растёт при каждом закрытии, события старых соединений отбрасываются
	conn    *websocket.Conn
	cancel  context.CancelFunc
	backoff *backoff.ExponentialBackOff
	timer   *time.Timer // запланированное переподключение
	authTTL *time.Timer

	queue   []string
	wake    chan struct{} // своё на каждое соединение
	limiter *rate.Limiter
	writeMu sync.Mutex

	onReady []func()
	onFrame []func(line string)
	onClose []func(ev ports.CloseEvent)
}

func New(log logger.Logger, opts Options, dialer Dialer) *IRC {
	if opts.URL == "" {
		opts.URL = config.DefaultURL
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		opts.MaxBackoff = opts.InitialBackoff
	}
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	b := &backoff.ExponentialBackOff{
		InitialInterval:     opts.InitialBackoff,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         opts.MaxBackoff,
	}
	b.Reset()

	limit, burst := rate.Inf, 1
	if opts.RatePerSecond > 0 {
		limit, burst = rate.Limit(opts.RatePerSecond), max(opts.Burst, 1)
	}

	return &IRC{
		log:     log,
		opts:    opts,
		dialer:  dialer,
		backoff: b,
		wake:    make(chan struct{}, 1),
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (i *IRC) State() ports.ConnectionState {
	i.mu.Lock()
	defer i.mu.Unlock()

	return i.state
}

func (i *IRC) OnReady(fn func()) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.onReady = append(i.onReady, fn)
}

func (i *IRC) OnFrame(fn func(line string)) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.onFrame = append(i.onFrame, fn)
}

func (i *IRC) OnClose(fn func(ev ports.CloseEvent)) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.onClose = append(i.onClose, fn)
}

// Connect запоминает учётные данные и начинает подключение. Если соединение уже
// есть или устанавливается, новые данные будут использованы при следующем подключении.
func (i *IRC) Connect(creds ports.Credentials) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.creds = creds
	if i.state != ports.Disconnected {
		i.log.Debug("Connect ignored, connection already active", slog.String("state", i.state.String()))
		return
	}

	i.stopTimerLocked()
	i.startLocked()
}

// Disconnect закрывает соединение. manual=true отправляет ManualCloseCode и отменяет
// запланированное переподключение; manual=false имитирует обрыв и запускает переподключение.
func (i *IRC) Disconnect(manual bool) {
	i.mu.Lock()

	if manual {
		i.stopTimerLocked()
	}

	switch i.state {
	case ports.Disconnected, ports.Closing:
		i.mu.Unlock()
		return
	}

	gen, conn := i.gen, i.conn
	code, kind := ManualCloseCode, ports.CloseManual
	if !manual {
		code, kind = websocket.CloseGoingAway, ports.CloseAbnormal
	}
	i.setStateLocked(ports.Closing)
	i.mu.Unlock()

	if conn != nil {
		i.writeMu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""), time.Now().Add(time.Second))
		i.writeMu.Unlock()
	}

	i.handleClose(gen, code, kind)
}

// Enqueue ставит команду в конец очереди. Пока соединение не Ready, команда ждёт.
func (i *IRC) Enqueue(command string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.queue = append(i.queue, command)
	metrics.OutboundQueue.Set(float64(len(i.queue)))
	i.notifyWriterLocked()
}

func (i *IRC) startLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	i.cancel = cancel
	i.wake = make(chan struct{}, 1)
	i.setStateLocked(ports.Connecting)

	go i.run(ctx, i.gen, i.creds, i.wake)
}

func (i *IRC) setStateLocked(s ports.ConnectionState) {
	if i.state == s {
		return
	}
	i.log.Debug("Connection state changed", slog.String("from", i.state.String()), slog.String("to", s.String()))
	i.state = s
	metrics.ConnectionState.Set(float64(s))
}

func (i *IRC) stopTimerLocked() {
	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
	}
}

// handleClose переводит соединение поколения gen в Disconnected, планирует переподключение
// для любого кода, кроме ManualCloseCode, и уведомляет подписчиков.
func (i *IRC) handleClose(gen uint64, code int, kind ports.CloseKind) {
	i.mu.Lock()
	if gen != i.gen || i.state == ports.Disconnected {
		i.mu.Unlock()
		return
	}

	i.gen++
	if i.cancel != nil {
		i.cancel()
		i.cancel = nil
	}
	if i.authTTL != nil {
		i.authTTL.Stop()
		i.authTTL = nil
	}
	if i.conn != nil {
		_ = i.conn.Close()
		i.conn = nil
	}
	i.setStateLocked(ports.Disconnected)

	if code == ManualCloseCode {
		kind = ports.CloseManual
	}
	ev := ports.CloseEvent{Code: code, Kind: kind}
	if kind != ports.CloseManual {
		ev.WillReconnect = true
		ev.Delay = i.backoff.NextBackOff()

		scheduled := i.gen
		i.stopTimerLocked()
		i.timer = time.AfterFunc(ev.Delay, func() { i.redial(scheduled) })
		metrics.Reconnects.WithLabelValues(kind.String()).Inc()
	}
	handlers := append([]func(ports.CloseEvent){}, i.onClose...)
	i.mu.Unlock()

	if ev.WillReconnect {
		i.log.Warn("Connection closed, reconnecting", slog.Int("code", code), slog.String("kind", kind.String()), slog.String("delay", ev.Delay.String()))
	} else {
		i.log.Info("Connection closed", slog.Int("code", code))
	}

	for _, fn := range handlers {
		fn(ev)
	}
}

func (i *IRC) redial(scheduled uint64) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.timer == nil || scheduled != i.gen || i.state != ports.Disconnected {
		return
	}
	i.timer = nil
	i.startLocked()
}

func (i *IRC) markReady(gen uint64) {
	i.mu.Lock()
	if gen != i.gen || i.state != ports.Authenticating {
		i.mu.Unlock()
		return
	}

	if i.authTTL != nil {
		i.authTTL.Stop()
		i.authTTL = nil
	}
	i.backoff.Reset()
	i.setStateLocked(ports.Ready)
	handlers := append([]func(){}, i.onReady...)
	i.mu.Unlock()

	i.log.Info("Connected to chat", slog.String("url", i.opts.URL))
	i.notifyWriter()

	for _, fn := range handlers {
		fn()
	}
}
