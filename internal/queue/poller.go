package queue

import (
	"context"
	"log/slog"
	"time"
)

// Default configuration values.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultVisibility   = 30 * time.Second
)

// Poller реализует Consumer поверх Receiver.
//
// Каждый тик вычитывает все видимые сообщения по одному
// (batch size = 1), затем ждёт следующего тика.
type Poller struct {
	receiver   Receiver
	interval   time.Duration
	visibility time.Duration
	logger     *slog.Logger
}

// PollerConfig — конфигурация Poller.
type PollerConfig struct {
	// Interval — пауза между опросами, когда очередь пуста (default: 5s).
	Interval time.Duration

	// Visibility — на сколько скрывать полученное сообщение (default: 30s).
	Visibility time.Duration

	Logger *slog.Logger
}

// NewPoller создаёт Poller.
func NewPoller(receiver Receiver, cfg PollerConfig) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	visibility := cfg.Visibility
	if visibility <= 0 {
		visibility = DefaultVisibility
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{
		receiver:   receiver,
		interval:   interval,
		visibility: visibility,
		logger:     logger,
	}
}

// Consume опрашивает очередь до отмены ctx.
func (p *Poller) Consume(ctx context.Context, handler HandlerFunc) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Первый опрос сразу при старте
	p.drain(ctx, handler)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.drain(ctx, handler)
		}
	}
}

// drain обрабатывает сообщения, пока очередь не опустеет.
func (p *Poller) drain(ctx context.Context, handler HandlerFunc) {
	for ctx.Err() == nil {
		msg, err := p.receiver.Receive(ctx, p.visibility)
		if err != nil {
			if ctx.Err() == nil {
				p.logger.Error("failed to receive message", "error", err)
			}
			return
		}
		if msg == nil {
			return
		}

		p.logger.Debug("received message",
			"message_id", msg.ID,
			"receive_count", msg.ReceiveCount,
		)

		if err := handler(ctx, msg); err != nil {
			p.logger.Error("handler failed",
				"message_id", msg.ID,
				"error", err,
			)
		}
	}
}
