package queue

import "errors"

// Общие ошибки очередей.
var (
	// ErrQueueNotFound — очередь с указанным именем не существует.
	ErrQueueNotFound = errors.New("queue not found")

	// ErrReceiptNotFound — receipt неизвестен или устарел
	// (сообщение удалено или уже доставлено повторно).
	ErrReceiptNotFound = errors.New("receipt not found")

	// ErrClosed — очередь закрыта.
	ErrClosed = errors.New("queue closed")
)
