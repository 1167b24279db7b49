package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch metrics.
var (
	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mostlybot_messages_total",
		Help: "Inbound chat messages by platform",
	}, []string{"platform"})

	DispatchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mostlybot_dispatch_outcomes_total",
		Help: "Dispatch results by outcome and error kind",
	}, []string{"outcome", "kind"})

	CommandInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mostlybot_command_invocations_total",
		Help: "Handler invocations by command and result",
	}, []string{"command", "result"})

	CommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mostlybot_command_duration_seconds",
		Help:    "Handler run time in seconds",
		Buckets: []float64{0.001, 0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"command"})

	RateLimitHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mostlybot_rate_limit_hits_total",
		Help: "Rate limit rejections by scope (user, command, failed, http)",
	}, []string{"scope"})

	SendFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mostlybot_send_failures_total",
		Help: "Outbound chat messages that could not be delivered",
	}, []string{"platform"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mostlybot_queue_depth",
		Help: "Messages waiting for the dispatcher",
	})

	LLMDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mostlybot_llm_duration_seconds",
		Help:    "LLM completion call duration in seconds",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
	})
)

// Journal metrics.
var (
	JournalWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mostlybot_journal_writes_total",
		Help: "Journal inserts by result",
	}, []string{"result"})

	JournalDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mostlybot_journal_deleted_total",
		Help: "Journal rows removed by retention cleanup",
	})
)

// Database pool metrics (gauges updated periodically).
var (
	DBPoolTotalConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mostlybot_db_pool_total_conns",
		Help: "Total number of connections in the pool",
	})

	DBPoolIdleConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mostlybot_db_pool_idle_conns",
		Help: "Number of idle connections in the pool",
	})

	DBPoolAcquiredConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mostlybot_db_pool_acquired_conns",
		Help: "Number of acquired connections in the pool",
	})

	DBPoolMaxConns = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mostlybot_db_pool_max_conns",
		Help: "Max connections configured for the pool",
	})
)

// HTTP metrics for the health server.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mostlybot_http_requests_total",
		Help: "Total HTTP requests to the health server",
	}, []string{"route", "method", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mostlybot_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})
)
