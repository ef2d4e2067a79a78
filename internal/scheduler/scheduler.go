package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/tweetsched/internal/domain"
	"github.com/shaiso/tweetsched/internal/session"
	"github.com/shaiso/tweetsched/internal/telemetry"
)

// Runner запускает Scheduling Session для когорты.
type Runner interface {
	Run(ctx context.Context, cohort domain.Cohort) (*session.Report, error)
}

// Scheduler — cron-триггер: одна запись на каждую активную когорту.
type Scheduler struct {
	runner  Runner
	cron    *cron.Cron
	logger  *slog.Logger
	entries map[string]cron.EntryID

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// Config — конфигурация Scheduler.
type Config struct {
	Runner  Runner
	Cohorts []domain.Cohort
	Logger  *slog.Logger
}

// New создаёт Scheduler и регистрирует когорты.
// Отключённые когорты пропускаются.
func New(cfg Config) (*Scheduler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cronLogger := cronLogAdapter{logger: logger}

	s := &Scheduler{
		runner: cfg.Runner,
		cron: cron.New(
			cron.WithParser(cronParser),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger)),
		),
		logger:  logger,
		entries: make(map[string]cron.EntryID),
		ctx:     context.Background(),
	}

	for i := range cfg.Cohorts {
		cohort := cfg.Cohorts[i]
		if !cohort.IsEnabled() {
			logger.Info("cohort disabled, skipping", "cohort", cohort.Name)
			continue
		}
		if _, exists := s.entries[cohort.Name]; exists {
			return nil, fmt.Errorf("duplicate cohort %q", cohort.Name)
		}

		schedule, err := parseCohortSchedule(&cohort)
		if err != nil {
			return nil, fmt.Errorf("cohort %s: %w", cohort.Name, err)
		}

		// Повторный запуск той же когорты пропускается,
		// пока предыдущий не завершился
		job := cron.NewChain(cron.SkipIfStillRunning(cronLogger)).
			Then(cron.FuncJob(func() { s.RunCohort(s.context(), cohort) }))

		s.entries[cohort.Name] = s.cron.Schedule(schedule, job)

		logger.Info("cohort registered",
			"cohort", cohort.Name,
			"cron", cohort.CronExpr,
			"timezone", cohort.Timezone,
			"window_seconds", cohort.WindowSeconds,
			"tab", cohort.TabIndex,
		)
	}

	return s, nil
}

// Start запускает cron в фоне. Отмена ctx прерывает текущие сессии.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started", "cohorts", len(s.entries))
}

// Stop останавливает cron и ждёт завершения текущих сессий.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler...")

	done := s.cron.Stop()
	<-done.Done()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.logger.Info("scheduler stopped")
}

// RunCohort выполняет одну сессию и записывает результат в метрики.
// Ошибки логируются: следующий запуск по расписанию состоится в любом случае.
func (s *Scheduler) RunCohort(ctx context.Context, cohort domain.Cohort) {
	logger := telemetry.WithCohort(s.logger, cohort.Name)
	logger.Info("cohort session triggered")

	report, err := s.runner.Run(ctx, cohort)

	result := telemetry.ResultOK
	switch {
	case errors.Is(err, session.ErrNoCandidates):
		result = telemetry.ResultNoCandidates
		logger.Error("cohort session found no valid posts", "error", err)
	case err != nil:
		result = telemetry.ResultError
		logger.Error("cohort session failed", "error", err)
	default:
		logger.Info("cohort session completed",
			"scheduled", report.Scheduled(),
			"interval_seconds", report.Interval,
		)
	}

	telemetry.SessionRuns.WithLabelValues(cohort.Name, result).Inc()
}

// NextRun возвращает следующее срабатывание когорты.
func (s *Scheduler) NextRun(cohort string) (time.Time, bool) {
	id, ok := s.entries[cohort]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

// Cohorts возвращает число зарегистрированных когорт.
func (s *Scheduler) Cohorts() int {
	return len(s.entries)
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// cronLogAdapter направляет логи cron в slog.
type cronLogAdapter struct {
	logger *slog.Logger
}

func (a cronLogAdapter) Info(msg string, keysAndValues ...any) {
	a.logger.Debug("cron: "+msg, keysAndValues...)
}

func (a cronLogAdapter) Error(err error, msg string, keysAndValues ...any) {
	a.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
