package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StreamActive - идет ли стрим по каналам.
	StreamActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chatcore_stream_active",
			Help: "Whether the stream is currently active or not",
		},
		[]string{"channel"},
	)

	// OnlineViewers - онлайн по каналам.
	OnlineViewers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chatcore_online_viewers",
			Help: "Current number of online viewers per channel",
		},
		[]string{"channel"},
	)

	// MessagesProcessed - сообщения, прошедшие через конвейер.
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatcore_messages_total",
			Help: "Total number of messages processed by the pipeline",
		},
		[]string{"outcome"},
	)

	// MessageProcessingTime - время обработки сообщения.
	MessageProcessingTime = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chatcore_message_processing_seconds",
			Help:    "Time to run a message through the pipeline",
			Buckets: prometheus.ExponentialBuckets(0.00005, 1.5, 25),
		},
	)

	// Vetoes - остановки конвейера по имени middleware.
	Vetoes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatcore_vetoes_total",
			Help: "Total number of pipeline vetoes per middleware",
		},
		[]string{"parser"},
	)

	// Rollbacks - выполненные откаты по имени обработчика.
	Rollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatcore_rollbacks_total",
			Help: "Total number of rollback handler invocations",
		},
		[]string{"rollback", "result"},
	)

	// MiddlewareErrors - ошибки и паники middleware (fail-open).
	MiddlewareErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatcore_middleware_errors_total",
			Help: "Total number of middleware errors and panics",
		},
		[]string{"parser"},
	)

	// ModerationActions - таймауты и предупреждения по фильтрам.
	ModerationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatcore_moderation_actions_total",
			Help: "Number of moderation actions per filter",
		},
		[]string{"filter", "action"},
	)

	// CommandsExecuted - вызовы команд.
	CommandsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatcore_commands_total",
			Help: "Total number of executed commands",
		},
		[]string{"command", "kind"},
	)

	// CooldownBlocks - сообщения, остановленные кулдауном.
	CooldownBlocks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatcore_cooldown_blocks_total",
			Help: "Total number of messages blocked by a cooldown",
		},
		[]string{"key"},
	)

	// OutboundMessages - отправленные в чат сообщения и таймауты.
	OutboundMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatcore_outbound_total",
			Help: "Total number of outbound chat actions",
		},
		[]string{"kind", "result"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatcore_events_published_total",
			Help: "Total number of events delivered to websocket clients",
		},
		[]string{"kind", "result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatcore_http_requests_total",
			Help: "Total number of admin API requests",
		},
		[]string{"method", "route", "status"},
	)
)
