package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/shaiso/tweetsched/internal/bootstrap"
	"github.com/shaiso/tweetsched/internal/clock"
	"github.com/shaiso/tweetsched/internal/config"
	"github.com/shaiso/tweetsched/internal/queue"
	"github.com/shaiso/tweetsched/internal/session"
	"github.com/shaiso/tweetsched/internal/telemetry"
)

// Env — зависимости команд. Внешние ресурсы открываются лениво,
// только теми командами, которым они нужны.
type Env struct {
	Config *config.Config
	Logger *slog.Logger
	Clock  clock.Clock

	OpenQueue  func(ctx context.Context) (queue.Backend, error)
	OpenSheets func(ctx context.Context) (session.SheetSource, error)
	Provision  func(ctx context.Context) (string, error)
}

// NewEnv загружает конфигурацию и собирает зависимости через bootstrap.
// Логи пишутся в stderr, stdout остаётся для данных.
func NewEnv(ctx context.Context, opts config.Options) (*Env, error) {
	cfg, err := config.Load(ctx, opts)
	if err != nil {
		return nil, err
	}

	logger := telemetry.NewLogger(os.Stderr, cfg.Log.Format, telemetry.ParseLevel(cfg.Log.Level))

	return &Env{
		Config: cfg,
		Logger: logger,
		Clock:  clock.NewReal(),
		OpenQueue: func(ctx context.Context) (queue.Backend, error) {
			return bootstrap.OpenQueue(ctx, cfg, logger)
		},
		OpenSheets: func(ctx context.Context) (session.SheetSource, error) {
			return bootstrap.NewSheets(ctx, cfg, logger)
		},
		Provision: func(ctx context.Context) (string, error) {
			return bootstrap.Provision(ctx, cfg, logger)
		},
	}, nil
}
