package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_completed_total",
			Help: "Total number of chat turns completed per strategy",
		},
		[]string{"strategy"},
	)

	TurnsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_failed_total",
			Help: "Total number of chat turns failed",
		},
		[]string{"strategy", "error_code"},
	)

	TurnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "chat_turn_duration_seconds",
			Help: "Duration of turn processing in seconds",
		},
		[]string{"strategy"},
	)

	QuotaRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_quota_rejections_total",
			Help: "Total number of turns rejected by the quota gate",
		},
		[]string{"reason"},
	)

	ClassifierFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_classifier_failures_total",
			Help: "Total number of intent classification failures routed to the default strategy",
		},
	)

	TokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_tokens_used_total",
			Help: "Total tokens reported by the generation backend",
		},
		[]string{"kind"},
	)

	ToolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_tool_invocations_total",
			Help: "Total tool invocations issued by strategies",
		},
		[]string{"tool", "status"},
	)

	CatalogRefreshFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_catalog_refresh_failures_total",
			Help: "Total pricing catalog refresh failures",
		},
	)

	ClientDisconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_client_disconnects_total",
			Help: "Total turns whose client disconnected before the stream completed",
		},
	)
)
