package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Причины пропуска строки таблицы.
const (
	SkipReasonEmpty   = "empty"
	SkipReasonTooLong = "too_long"
)

// Исходы обработки сообщения Dispatch Handler'ом.
const (
	OutcomePublished     = "published"
	OutcomeDelayed       = "delayed"
	OutcomeDeadLettered  = "dead_lettered"
	OutcomePublishFailed = "publish_failed"
)

// Результаты запуска Scheduling Session.
const (
	ResultOK           = "ok"
	ResultNoCandidates = "no_candidates"
	ResultError        = "error"
)

var (
	// PostsScheduled — посты, поставленные в очередь.
	PostsScheduled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tweetsched",
		Name:      "posts_scheduled_total",
		Help:      "Posts enqueued by scheduling sessions.",
	}, []string{"cohort"})

	// PostsSkipped — строки таблицы, не прошедшие валидацию.
	PostsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tweetsched",
		Name:      "posts_skipped_total",
		Help:      "Spreadsheet rows dropped before scheduling.",
	}, []string{"cohort", "reason"})

	// SessionRuns — запуски Scheduling Session по результату.
	SessionRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tweetsched",
		Name:      "session_runs_total",
		Help:      "Scheduling session runs by result.",
	}, []string{"cohort", "result"})

	// Dispatches — обработанные доставки по исходу.
	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tweetsched",
		Name:      "dispatch_total",
		Help:      "Delivered queue messages by dispatch outcome.",
	}, []string{"outcome"})

	// DispatchLag — насколько позже ScheduledAt пост был опубликован.
	DispatchLag = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tweetsched",
		Name:      "dispatch_lag_seconds",
		Help:      "Delay between the scheduled time and the actual publish.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})
)
