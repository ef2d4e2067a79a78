package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"
)

// Telegram публикует посты в канал через Bot API.
type Telegram struct {
	bot    *tele.Bot
	chat   *tele.Chat
	logger *slog.Logger
}

// TelegramConfig — конфигурация Telegram.
type TelegramConfig struct {
	Token  string
	ChatID int64

	// URL — адрес Bot API (default: https://api.telegram.org).
	URL string

	Timeout time.Duration
	Logger  *slog.Logger
}

// NewTelegram создаёт Telegram publisher.
// Бот создаётся в offline-режиме: getMe не вызывается, polling не запускается.
func NewTelegram(cfg TelegramConfig) (*Telegram, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is required")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat id is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	bot, err := tele.NewBot(tele.Settings{
		URL:     cfg.URL,
		Token:   cfg.Token,
		Offline: true,
		Client:  newHTTPClient(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Telegram{
		bot:    bot,
		chat:   &tele.Chat{ID: cfg.ChatID},
		logger: logger,
	}, nil
}

// Publish отправляет текст в канал.
func (t *Telegram) Publish(_ context.Context, text string) error {
	msg, err := t.bot.Send(t.chat, text, &tele.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		t.logger.Error("error sending telegram message", "chat_id", t.chat.ID, "error", err)
		return classifyTelegramError(err)
	}

	t.logger.Debug("telegram message sent", "chat_id", t.chat.ID, "message_id", msg.ID)
	return nil
}

// classifyTelegramError: 400/403 от Bot API — окончательный отказ,
// flood control и сетевые ошибки — временный сбой.
func classifyTelegramError(err error) error {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return fmt.Errorf("%w: telegram flood control, retry after %ds", ErrPublish, flood.RetryAfter)
	}

	var apiErr *tele.Error
	if errors.As(err, &apiErr) && (apiErr.Code == 400 || apiErr.Code == 403) {
		return fmt.Errorf("%w: telegram: %v", ErrRejected, err)
	}

	return fmt.Errorf("%w: telegram: %v", ErrPublish, err)
}
