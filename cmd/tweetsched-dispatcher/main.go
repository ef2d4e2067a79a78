// Tweetsched Dispatcher — публикует посты из очереди отложенной доставки.
//
// Dispatcher:
//   - Получает сообщения по одному
//   - Публикует пост, если его время наступило, и удаляет сообщение
//   - Иначе откладывает повторную доставку на оставшееся время
//   - Битые сообщения и отклонённые посты отправляет в dead-letter
//
// Диспетчеры масштабируются горизонтально.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shaiso/tweetsched/internal/bootstrap"
	"github.com/shaiso/tweetsched/internal/config"
	"github.com/shaiso/tweetsched/internal/dispatch"
	"github.com/shaiso/tweetsched/internal/telemetry"
)

func main() {
	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Когорты диспетчеру не нужны
	cfg, err := config.Load(ctx, config.Options{SkipCohorts: true})
	if err != nil {
		telemetry.SetupLogger().Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := bootstrap.NewLogger(cfg)
	logger.Info("starting tweetsched-dispatcher",
		"queue_backend", cfg.Queue.Backend,
		"publisher", cfg.Publisher.Kind,
	)

	q, err := bootstrap.OpenQueue(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open queue", "error", err)
		os.Exit(1)
	}
	defer q.Close()
	logger.Info("queue opened", "queue", cfg.Queue.Name)

	pub, err := bootstrap.NewPublisher(cfg, logger)
	if err != nil {
		logger.Error("failed to create publisher", "error", err)
		os.Exit(1)
	}

	handler := dispatch.NewHandler(dispatch.HandlerConfig{
		Queue:      q,
		Publisher:  pub,
		RetryDelay: cfg.Publisher.RetryDelay,
		Logger:     logger,
	})

	d := dispatch.New(dispatch.Config{
		Consumer: q,
		Handler:  handler,
		Logger:   logger,
	})

	if err := d.Start(ctx); err != nil {
		logger.Error("failed to start dispatcher", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := telemetry.NewMux(d.IsRunning)
	port := ":" + cfg.DispatchPort

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	d.Stop()
	logger.Info("tweetsched-dispatcher stopped")
}
