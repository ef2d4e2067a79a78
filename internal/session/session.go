package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/tweetsched/internal/clock"
	"github.com/shaiso/tweetsched/internal/domain"
	"github.com/shaiso/tweetsched/internal/telemetry"
)

// SheetSource читает строки вкладки таблицы.
type SheetSource interface {
	ReadSheet(ctx context.Context, key string, tab int) ([][]string, error)
}

// Sender ставит сообщение в очередь отложенной доставки.
type Sender interface {
	Send(ctx context.Context, body []byte) (string, error)
}

// Session — Scheduling Session.
type Session struct {
	sheets   SheetSource
	queue    Sender
	clock    clock.Clock
	logger   *slog.Logger
	sheetKey string
}

// Config — конфигурация Session.
type Config struct {
	Sheets SheetSource
	Queue  Sender

	// Clock — источник времени (default: реальное время).
	Clock clock.Clock

	// SheetKey — ключ таблицы по умолчанию, если у когорты свой не задан.
	SheetKey string

	Logger *slog.Logger
}

// New создаёт Session.
func New(cfg Config) *Session {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewReal()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		sheets:   cfg.Sheets,
		queue:    cfg.Queue,
		clock:    clk,
		logger:   logger,
		sheetKey: cfg.SheetKey,
	}
}

// Report — итог запуска сессии.
type Report struct {
	Cohort         string                 `json:"cohort"`
	SheetKey       string                 `json:"sheet_key"`
	TabIndex       int                    `json:"tab"`
	Rows           int                    `json:"rows"`
	SkippedEmpty   int                    `json:"skipped_empty"`
	SkippedTooLong int                    `json:"skipped_too_long"`
	Start          time.Time              `json:"start"`
	Interval       time.Duration          `json:"interval"`
	Posts          []domain.ScheduledPost `json:"posts"`
	MessageIDs     []string               `json:"message_ids,omitempty"`
	DryRun         bool                   `json:"dry_run"`
}

// Scheduled возвращает количество отправленных в очередь постов.
func (r *Report) Scheduled() int {
	return len(r.MessageIDs)
}

// Run выполняет сессию для когорты.
//
// 1. Читает строки вкладки
// 2. Отбрасывает пустые и длиннее 280 символов
// 3. Если кандидатов нет — ErrNoCandidates
// 4. Назначает время start + i*floor(window/n)
// 5. Отправляет сообщения в очередь в порядке строк
func (s *Session) Run(ctx context.Context, cohort domain.Cohort) (*Report, error) {
	return s.run(ctx, cohort, false)
}

// Plan выполняет шаги 1–4 без отправки в очередь.
func (s *Session) Plan(ctx context.Context, cohort domain.Cohort) (*Report, error) {
	return s.run(ctx, cohort, true)
}

func (s *Session) run(ctx context.Context, cohort domain.Cohort, dryRun bool) (*Report, error) {
	logger := telemetry.WithCohort(s.logger, cohort.Name)

	key := cohort.SheetKey
	if key == "" {
		key = s.sheetKey
	}
	if key == "" {
		return nil, ErrNoSheetKey
	}

	logger.Info("loading posts from spreadsheet",
		"sheet_key", key,
		"tab", cohort.TabIndex,
	)

	// 1. Читаем таблицу
	rows, err := s.sheets.ReadSheet(ctx, key, cohort.TabIndex)
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}

	logger.Debug("loaded rows from worksheet", "rows", len(rows))

	report := &Report{
		Cohort:   cohort.Name,
		SheetKey: key,
		TabIndex: cohort.TabIndex,
		Rows:     len(rows),
		DryRun:   dryRun,
	}

	// 2. Отбираем кандидатов
	candidates, rejected := SelectCandidates(rows)
	for _, r := range rejected {
		if isTooLong(r.Err) {
			report.SkippedTooLong++
			telemetry.PostsSkipped.WithLabelValues(cohort.Name, telemetry.SkipReasonTooLong).Inc()
			logger.Warn("post exceeds max length, skipping",
				"row", r.Row,
				"post", r.Text,
				"error", r.Err,
			)
			continue
		}
		report.SkippedEmpty++
		telemetry.PostsSkipped.WithLabelValues(cohort.Name, telemetry.SkipReasonEmpty).Inc()
		logger.Warn("empty row, skipping", "row", r.Row)
	}

	// 3. Пустой запуск — ошибка
	if len(candidates) == 0 {
		return report, fmt.Errorf("cohort %s: %w", cohort.Name, ErrNoCandidates)
	}

	// 4. Вычисляем расписание
	start := s.clock.Now()
	report.Start = time.Unix(start.Unix(), 0).UTC()
	report.Interval = time.Duration(Interval(cohort.WindowSeconds, len(candidates))) * time.Second
	report.Posts = ComputeSchedule(candidates, cohort.WindowSeconds, start.Unix())

	if dryRun {
		logger.Info("dry run, nothing enqueued",
			"candidates", len(candidates),
			"interval", report.Interval,
		)
		return report, nil
	}

	// 5. Отправляем в очередь
	for i := range report.Posts {
		post := &report.Posts[i]

		body, err := domain.Encode(post)
		if err != nil {
			return report, fmt.Errorf("encode post %d: %w", i, err)
		}

		id, err := s.queue.Send(ctx, body)
		if err != nil {
			// Уже отправленные сообщения остаются в очереди
			return report, fmt.Errorf("enqueue post %d of %d (row %d): %w",
				i+1, len(report.Posts), candidates[i].Row, err)
		}

		report.MessageIDs = append(report.MessageIDs, id)
		telemetry.PostsScheduled.WithLabelValues(cohort.Name).Inc()

		logger.Debug("post enqueued",
			"message_id", id,
			"row", candidates[i].Row,
			"scheduled_at", post.ScheduledAt,
		)
	}

	logger.Info("scheduling session completed",
		"rows", report.Rows,
		"scheduled", report.Scheduled(),
		"skipped_empty", report.SkippedEmpty,
		"skipped_too_long", report.SkippedTooLong,
		"interval", report.Interval,
	)

	return report, nil
}
