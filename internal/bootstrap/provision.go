package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/tweetsched/internal/config"
	"github.com/shaiso/tweetsched/internal/mq"
	"github.com/shaiso/tweetsched/internal/redisq"
	"github.com/shaiso/tweetsched/internal/repo"
)

// Provision создаёт очередь QUEUE_NAME в выбранном бэкенде
// и возвращает её описание.
func Provision(ctx context.Context, cfg *config.Config, logger *slog.Logger) (string, error) {
	switch cfg.Queue.Backend {
	case config.BackendRabbitMQ:
		conn, err := mq.NewConnection(cfg.RabbitMQ.URL, logger)
		if err != nil {
			return "", fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer conn.Close()

		topo := mq.NewTopology(cfg.Queue.Name)
		if err := mq.SetupTopology(ctx, conn, topo, true); err != nil {
			return "", fmt.Errorf("setup topology: %w", err)
		}
		return topo.Info(), nil

	case config.BackendPostgres:
		pool, err := repo.NewPool(ctx, cfg.Postgres.URL)
		if err != nil {
			return "", fmt.Errorf("connect to database: %w", err)
		}

		q, err := repo.OpenQueue(ctx, pool, repo.QueueConfig{Name: cfg.Queue.Name, Create: true, Logger: logger})
		if err != nil {
			pool.Close()
			return "", err
		}
		defer q.Close()

		stats, err := q.Stats(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("postgres queue %s: visible=%d delayed=%d dead=%d",
			cfg.Queue.Name, stats.Visible, stats.Delayed, stats.Dead), nil

	case config.BackendRedis:
		client, err := redisq.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return "", err
		}

		q, err := redisq.Open(ctx, client, redisq.Config{Name: cfg.Queue.Name, Create: true, Logger: logger})
		if err != nil {
			client.Close()
			return "", err
		}
		defer q.Close()

		stats, err := q.Stats(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("redis queue %s: total=%d visible=%d dead=%d",
			cfg.Queue.Name, stats.Total, stats.Visible, stats.Dead), nil

	case config.BackendMemory:
		return fmt.Sprintf("memory queue %s: nothing to provision", cfg.Queue.Name), nil

	default:
		return "", fmt.Errorf("unknown queue backend %q", cfg.Queue.Backend)
	}
}
