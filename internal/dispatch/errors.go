package dispatch

import "errors"

// Ошибки обработки сообщений.
var (
	// ErrPublishFailed — Publisher вернул ошибку, сообщение не удалено.
	ErrPublishFailed = errors.New("publish failed")

	// ErrDispatcherStopped — Dispatcher уже остановлен.
	ErrDispatcherStopped = errors.New("dispatcher stopped")
)
