// Package metrics регистрирует метрики Prometheus сервиса.
// Метрики создаются один раз при загрузке пакета, поэтому повторное
// создание сервисов (например, в тестах) не приводит к двойной регистрации.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "habitleague"

var (
	// LifecycleRuns число запусков ежедневного прохода по источнику (schedule, manual, cli)
	LifecycleRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lifecycle",
		Name:      "runs_total",
		Help:      "Total number of daily lifecycle passes",
	}, []string{"trigger"})

	// ChallengesProcessed исход обработки отдельных челленджей
	ChallengesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lifecycle",
		Name:      "challenges_total",
		Help:      "Challenges handled by the daily pass, by outcome",
	}, []string{"outcome"}) // processed, skipped, failed

	MembersEliminated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lifecycle",
		Name:      "members_eliminated_total",
		Help:      "Members eliminated for a missed day",
	})

	DistributionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lifecycle",
		Name:      "distributions_created_total",
		Help:      "Prize distribution rows created",
	})

	// Payouts результат попыток выплаты призов
	Payouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "lifecycle",
		Name:      "payouts_total",
		Help:      "Prize payout attempts, by result",
	}, []string{"result"}) // success, failure

	PassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "lifecycle",
		Name:      "pass_duration_seconds",
		Help:      "Duration of a full daily pass",
		Buckets:   prometheus.DefBuckets,
	})

	// Notifications уведомления о достижениях: queued, dropped, failed, delivered
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "achievements",
		Name:      "notifications_total",
		Help:      "Achievement notifications by state",
	}, []string{"state"})

	// EvidenceSubmissions отправленные доказательства по статусу проверки локации
	EvidenceSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "evidence",
		Name:      "submissions_total",
		Help:      "Accepted evidence submissions by location status",
	}, []string{"location_status"})
)
