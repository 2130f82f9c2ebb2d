package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ConnectionState - текущее состояние сокета (0 disconnected ... 4 closing).
	ConnectionState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "streamview_connection_state",
		Help: "Current chat connection state (0=disconnected, 1=connecting, 2=authenticating, 3=ready, 4=closing)",
	})

	// Reconnects - запланированные переподключения по типу закрытия.
	Reconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamview_reconnects_total",
			Help: "Total number of scheduled reconnects by close kind",
		},
		[]string{"kind"},
	)

	// OutboundQueue - длина очереди исходящих команд.
	OutboundQueue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "streamview_outbound_queue_length",
		Help: "Number of outbound commands waiting to be written",
	})

	// Frames - входящие кадры по команде.
	Frames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamview_frames_total",
			Help: "Total number of inbound frames by command",
		},
		[]string{"command"},
	)

	// MalformedFrames - строки, которые не удалось разобрать.
	MalformedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamview_malformed_frames_total",
		Help: "Total number of inbound lines that failed to parse",
	})

	// Messages - сообщения, добавленные в буфер, по каналам.
	Messages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamview_messages_total",
			Help: "Total number of rendered chat messages per channel",
		},
		[]string{"channel"},
	)

	// RenderTime - время конвейера рендеринга одного сообщения.
	RenderTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streamview_render_milliseconds",
			Help:    "Time to render one chat message",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		},
	)

	// CatalogFetches - результаты запросов к провайдерам эмоутов.
	CatalogFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamview_catalog_fetches_total",
			Help: "Emote provider fetches by provider, scope and result",
		},
		[]string{"provider", "scope", "result"},
	)

	// CatalogSize - число эмоутов в объединённом каталоге канала.
	CatalogSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "streamview_catalog_size",
			Help: "Number of entries in the merged emote catalog per channel",
		},
		[]string{"channel"},
	)

	// APIRequests - запросы к Helix по результату.
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streamview_helix_requests_total",
			Help: "Helix API requests by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)
)
