package telemetry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel определяет уровень логирования из переменной окружения LOG_LEVEL.
func LogLevel() slog.Level {
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}

// ParseLevel разбирает уровень логирования.
// Возможные значения: DEBUG, INFO, WARN, ERROR (регистр не важен).
// По умолчанию: INFO
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger инициализирует глобальный логгер, пишущий в stdout.
//
// Формат вывода определяется переменной LOG_FORMAT:
//   - "json" (по умолчанию) — JSON формат для production
//   - "text" — человекочитаемый формат для разработки
func SetupLogger() *slog.Logger {
	logger := NewLogger(os.Stdout, os.Getenv("LOG_FORMAT"), LogLevel())
	slog.SetDefault(logger)
	return logger
}

// NewLogger создаёт логгер с заданным форматом ("json" или "text") и уровнем.
func NewLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// Ключи контекста для передачи данных в логгер.
type ctxKey string

const (
	// CtxLogger — ключ для логгера в контексте.
	CtxLogger ctxKey = "logger"
)

// WithLogger добавляет логгер в контекст.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, CtxLogger, logger)
}

// FromContext извлекает логгер из контекста.
// Если логгер не найден, возвращает глобальный.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(CtxLogger).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithCohort возвращает логгер с добавленным cohort.
func WithCohort(logger *slog.Logger, cohort string) *slog.Logger {
	return logger.With("cohort", cohort)
}

// WithMessageID возвращает логгер с добавленным message_id.
func WithMessageID(logger *slog.Logger, messageID string) *slog.Logger {
	return logger.With("message_id", messageID)
}

// WithComponent возвращает логгер с добавленным component.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}
