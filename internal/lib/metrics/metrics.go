// Package metrics метрики Prometheus сервиса генерации.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "contentgen"

var (
	// EntitlementDecisions решения о допуске к генерации.
	EntitlementDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "entitlement",
		Name:      "decisions_total",
		Help:      "Entitlement decisions by plan and outcome.",
	}, []string{"plan", "outcome"})

	// GenerationsTotal вызовы генерации по виду и результату.
	GenerationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "generation",
		Name:      "requests_total",
		Help:      "Generation requests by kind and outcome.",
	}, []string{"kind", "outcome"})

	// GenerationDuration время ответа внешнего API генерации.
	GenerationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "generation",
		Name:      "upstream_duration_seconds",
		Help:      "Text generation upstream latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	// TransitionsTotal применённые переходы тарифов.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "billing",
		Name:      "transitions_total",
		Help:      "Plan transitions by trigger and outcome.",
	}, []string{"trigger", "outcome"})

	// SweepAccounts учётные записи, обработанные фоновыми проверками.
	SweepAccounts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconciliation",
		Name:      "accounts_total",
		Help:      "Accounts processed by reconciliation sweeps by sweep and outcome.",
	}, []string{"sweep", "outcome"})

	// PaymentsTotal подтверждения оплат по источнику и результату.
	PaymentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payments",
		Name:      "confirmations_total",
		Help:      "Payment confirmations by source and outcome.",
	}, []string{"source", "outcome"})

	// WebhookRequestsTotal входящие вебхуки платёжного провайдера.
	WebhookRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "payments",
		Name:      "webhook_requests_total",
		Help:      "Payment provider webhook requests by event type and status.",
	}, []string{"event_type", "status"})
)

// Значения метки outcome.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)
