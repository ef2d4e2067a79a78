// Package bootstrap собирает зависимости бинарников из config.Config.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/shaiso/tweetsched/internal/config"
	"github.com/shaiso/tweetsched/internal/mq"
	"github.com/shaiso/tweetsched/internal/publisher"
	"github.com/shaiso/tweetsched/internal/queue"
	"github.com/shaiso/tweetsched/internal/redisq"
	"github.com/shaiso/tweetsched/internal/repo"
	"github.com/shaiso/tweetsched/internal/sheets"
	"github.com/shaiso/tweetsched/internal/telemetry"
)

// NewLogger создаёт глобальный логгер по LOG_LEVEL и LOG_FORMAT.
func NewLogger(cfg *config.Config) *slog.Logger {
	logger := telemetry.NewLogger(os.Stdout, cfg.Log.Format, telemetry.ParseLevel(cfg.Log.Level))
	slog.SetDefault(logger)
	return logger
}

// OpenQueue подключается к бэкенду очереди QUEUE_BACKEND.
func OpenQueue(ctx context.Context, cfg *config.Config, logger *slog.Logger) (queue.Backend, error) {
	pollCfg := queue.PollerConfig{
		Interval:   cfg.Queue.PollInterval,
		Visibility: cfg.Queue.VisibilityTimeout,
		Logger:     logger,
	}

	switch cfg.Queue.Backend {
	case config.BackendRabbitMQ:
		conn, err := mq.NewConnection(cfg.RabbitMQ.URL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}

		topo := mq.NewTopology(cfg.Queue.Name)
		if err := mq.SetupTopology(ctx, conn, topo, cfg.RabbitMQ.Declare); err != nil {
			conn.Close()
			return nil, fmt.Errorf("setup topology: %w", err)
		}

		return mq.NewDelayQueue(conn, mq.Config{
			Queue:      cfg.Queue.Name,
			MaxDelay:   cfg.RabbitMQ.MaxDelay,
			Visibility: cfg.Queue.VisibilityTimeout,
			Logger:     logger,
		}), nil

	case config.BackendPostgres:
		pool, err := repo.NewPool(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}

		q, err := repo.OpenQueue(ctx, pool, repo.QueueConfig{
			Name:   cfg.Queue.Name,
			Create: cfg.Queue.Create,
			Poller: pollCfg,
			Logger: logger,
		})
		if err != nil {
			pool.Close()
			return nil, err
		}
		return q, nil

	case config.BackendRedis:
		client, err := redisq.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}

		q, err := redisq.Open(ctx, client, redisq.Config{
			Name:   cfg.Queue.Name,
			Create: cfg.Queue.Create,
			Poller: pollCfg,
			Logger: logger,
		})
		if err != nil {
			client.Close()
			return nil, err
		}
		return q, nil

	case config.BackendMemory:
		logger.Warn("using in-memory queue, messages are lost on exit")
		return queue.NewMemoryQueue(nil, pollCfg), nil

	default:
		return nil, fmt.Errorf("unknown queue backend %q", cfg.Queue.Backend)
	}
}

// NewSheets создаёт клиент Google Sheets.
func NewSheets(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sheets.Client, error) {
	return sheets.New(ctx, sheets.Config{
		CredentialsFile: cfg.Google.CredentialsFile,
		CredentialsJSON: cfg.Google.CredentialsJSON,
		Logger:          logger,
	})
}

// NewPublisher создаёт Publisher по PUBLISHER и оборачивает его
// ограничителем PUBLISH_RATE.
func NewPublisher(cfg *config.Config, logger *slog.Logger) (publisher.Publisher, error) {
	var (
		pub publisher.Publisher
		err error
	)

	switch cfg.Publisher.Kind {
	case config.PublisherTwitter:
		pub, err = publisher.NewTwitter(publisher.TwitterConfig{
			Credentials: publisher.TwitterCredentials{
				ConsumerKey:       cfg.Twitter.ConsumerKey,
				ConsumerSecret:    cfg.Twitter.ConsumerSecret,
				AccessToken:       cfg.Twitter.AccessToken,
				AccessTokenSecret: cfg.Twitter.AccessTokenSecret,
			},
			Logger: logger,
		})
	case config.PublisherTelegram:
		pub, err = publisher.NewTelegram(publisher.TelegramConfig{
			Token:  cfg.Telegram.Token,
			ChatID: cfg.Telegram.ChatID,
			Logger: logger,
		})
	case config.PublisherDryRun:
		pub = publisher.NewDryRun(logger)
	default:
		err = fmt.Errorf("unknown publisher %q", cfg.Publisher.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("create publisher: %w", err)
	}

	logger.Info("publisher configured", "publisher", cfg.Publisher.Kind, "rate_per_minute", cfg.Publisher.Rate)
	return publisher.NewRateLimited(pub, cfg.Publisher.Rate), nil
}
