// Tweetsched Scheduler — запускает Scheduling Session по расписанию когорт.
//
// Scheduler:
//   - Загружает когорты из COHORTS_FILE
//   - По cron-выражению когорты читает вкладку таблицы
//   - Распределяет посты по окну когорты и ставит их в очередь
//
// Отдаёт /healthz и /metrics на SCHED_PORT.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/tweetsched/internal/bootstrap"
	"github.com/shaiso/tweetsched/internal/config"
	"github.com/shaiso/tweetsched/internal/scheduler"
	"github.com/shaiso/tweetsched/internal/session"
	"github.com/shaiso/tweetsched/internal/telemetry"
)

func main() {
	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(ctx, config.Options{})
	if err != nil {
		telemetry.SetupLogger().Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := bootstrap.NewLogger(cfg)
	logger.Info("starting tweetsched-scheduler", "cohorts", len(cfg.Cohorts), "queue_backend", cfg.Queue.Backend)

	// Очередь
	q, err := bootstrap.OpenQueue(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open queue", "error", err)
		os.Exit(1)
	}
	defer q.Close()
	logger.Info("queue opened", "queue", cfg.Queue.Name)

	// Google Sheets
	src, err := bootstrap.NewSheets(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create sheets client", "error", err)
		os.Exit(1)
	}

	sess := session.New(session.Config{
		Sheets:   src,
		Queue:    q,
		SheetKey: cfg.SheetKey,
		Logger:   logger,
	})

	sched, err := scheduler.New(scheduler.Config{
		Runner:  sess,
		Cohorts: cfg.Cohorts,
		Logger:  logger,
	})
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}

	sched.Start(ctx)

	// HTTP mux: /healthz + /metrics
	mux := telemetry.NewMux(nil)
	port := ":" + cfg.SchedPort

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	sched.Stop()
	logger.Info("tweetsched-scheduler stopped")
}
