package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/tweetsched/internal/clock"
	"github.com/shaiso/tweetsched/internal/domain"
	"github.com/shaiso/tweetsched/internal/publisher"
	"github.com/shaiso/tweetsched/internal/queue"
	"github.com/shaiso/tweetsched/internal/telemetry"
)

// DefaultRetryDelay — через сколько повторить публикацию после сбоя Publisher.
const DefaultRetryDelay = 60 * time.Second

// Publisher публикует готовый пост.
type Publisher interface {
	Publish(ctx context.Context, text string) error
}

// Handler — Dispatch Handler.
type Handler struct {
	queue      queue.DelayQueue
	publisher  Publisher
	clock      clock.Clock
	logger     *slog.Logger
	retryDelay time.Duration
}

// HandlerConfig — конфигурация Handler.
type HandlerConfig struct {
	Queue     queue.DelayQueue
	Publisher Publisher

	// Clock — источник времени (default: реальное время).
	Clock clock.Clock

	// RetryDelay — задержка повторной доставки после сбоя Publisher (default: 60s).
	RetryDelay time.Duration

	Logger *slog.Logger
}

// NewHandler создаёт Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewReal()
	}

	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		queue:      cfg.Queue,
		publisher:  cfg.Publisher,
		clock:      clk,
		logger:     logger,
		retryDelay: retryDelay,
	}
}

// Handle обрабатывает одну доставку.
// Сигнатура совместима с queue.HandlerFunc.
func (h *Handler) Handle(ctx context.Context, msg *queue.Message) error {
	logger := telemetry.WithMessageID(h.logger, msg.ID)

	logger.Info("received message",
		"body", string(msg.Body),
		"receive_count", msg.ReceiveCount,
	)

	// 1. Разбираем payload
	post, err := domain.Decode(msg.Body)
	if err != nil {
		logger.Error("malformed payload, moving to dead-letter",
			"body", string(msg.Body),
			"error", err,
		)
		if err := h.queue.DeadLetter(ctx, msg.Receipt); err != nil {
			return fmt.Errorf("dead-letter malformed message %s: %w", msg.ID, err)
		}
		telemetry.Dispatches.WithLabelValues(telemetry.OutcomeDeadLettered).Inc()
		return nil
	}

	// 2. Сравниваем с текущим временем
	now := h.clock.Now().Unix()

	if !post.IsDue(now) {
		// 4. Ещё рано — откладываем на оставшееся время
		remaining := post.Remaining(now)
		if err := h.queue.SetRedeliveryDelay(ctx, msg.Receipt, remaining); err != nil {
			return fmt.Errorf("delay message %s: %w", msg.ID, err)
		}

		telemetry.Dispatches.WithLabelValues(telemetry.OutcomeDelayed).Inc()
		logger.Info("post is not due yet, redelivery delayed",
			"now", now,
			"tweet_time", post.ScheduledAt,
			"delay", remaining,
		)
		return nil
	}

	// 3. Пора — публикуем
	logger.Info("sending post",
		"now", now,
		"tweet_time", post.ScheduledAt,
		"type", post.Type,
	)

	if err := h.publisher.Publish(ctx, post.Text); err != nil {
		return h.handlePublishError(ctx, logger, msg, err)
	}

	if post.Type.IsTimeGated() {
		telemetry.DispatchLag.Observe(float64(now - post.ScheduledAt))
	}

	if err := h.queue.Delete(ctx, msg.Receipt); err != nil {
		// Пост уже опубликован; сообщение вернётся после visibility timeout
		return fmt.Errorf("delete published message %s: %w", msg.ID, err)
	}

	telemetry.Dispatches.WithLabelValues(telemetry.OutcomePublished).Inc()
	logger.Info("post published")

	return nil
}

// handlePublishError решает судьбу сообщения после сбоя публикации.
// Сообщение никогда не удаляется.
func (h *Handler) handlePublishError(ctx context.Context, logger *slog.Logger, msg *queue.Message, pubErr error) error {
	telemetry.Dispatches.WithLabelValues(telemetry.OutcomePublishFailed).Inc()

	if errors.Is(pubErr, publisher.ErrRejected) {
		logger.Error("post rejected by publisher, moving to dead-letter", "error", pubErr)
		if err := h.queue.DeadLetter(ctx, msg.Receipt); err != nil {
			return fmt.Errorf("dead-letter rejected message %s: %w", msg.ID, err)
		}
		telemetry.Dispatches.WithLabelValues(telemetry.OutcomeDeadLettered).Inc()
		return fmt.Errorf("%w: %w", ErrPublishFailed, pubErr)
	}

	logger.Warn("publish failed, retrying later",
		"retry_delay", h.retryDelay,
		"error", pubErr,
	)
	if err := h.queue.SetRedeliveryDelay(ctx, msg.Receipt, h.retryDelay); err != nil {
		return fmt.Errorf("%w: %w (delay for retry: %v)", ErrPublishFailed, pubErr, err)
	}
	return fmt.Errorf("%w: %w", ErrPublishFailed, pubErr)
}
