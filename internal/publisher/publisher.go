// Package publisher публикует готовые посты во внешние ленты.
//
// Реализации:
//   - Twitter  — POST /2/tweets с подписью OAuth 1.0a
//   - Telegram — сообщение в канал через Bot API
//   - DryRun   — только пишет пост в лог
//
// Ошибки делятся на два класса:
//   - ErrRejected — API отказался принимать именно этот пост
//     (повтор бессмысленен: дубликат, недопустимый текст, нет прав)
//   - ErrPublish  — временный сбой (сеть, 5xx, 429), можно повторить
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Ошибки публикации.
var (
	// ErrPublish — временный сбой публикации.
	ErrPublish = errors.New("publish error")

	// ErrRejected — пост отклонён окончательно.
	ErrRejected = errors.New("post rejected")
)

// Publisher публикует текст поста.
type Publisher interface {
	Publish(ctx context.Context, text string) error
}

// DryRun пишет пост в лог вместо публикации.
type DryRun struct {
	logger *slog.Logger
}

// NewDryRun создаёт DryRun.
func NewDryRun(logger *slog.Logger) *DryRun {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRun{logger: logger}
}

// Publish логирует пост.
func (d *DryRun) Publish(_ context.Context, text string) error {
	d.logger.Info("dry run: post not sent", "post", text)
	return nil
}

// RateLimited ограничивает частоту публикаций.
type RateLimited struct {
	next    Publisher
	limiter *rate.Limiter
}

// NewRateLimited оборачивает Publisher ограничителем perMinute публикаций в минуту.
// perMinute <= 0 отключает ограничение.
func NewRateLimited(next Publisher, perMinute int) Publisher {
	if perMinute <= 0 {
		return next
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), 1),
	}
}

// Publish ждёт разрешения лимитера и публикует.
func (r *RateLimited) Publish(ctx context.Context, text string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", ErrPublish, err)
	}
	return r.next.Publish(ctx, text)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
