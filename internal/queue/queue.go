package queue

import (
	"context"
	"time"
)

// Message — доставленное сообщение.
type Message struct {
	// ID — идентификатор сообщения, неизменный между доставками.
	ID string

	// Receipt — непрозрачный handle текущей доставки.
	// Delete, SetRedeliveryDelay и DeadLetter принимают именно его.
	Receipt string

	// Body — payload сообщения.
	Body []byte

	// ReceiveCount — сколько раз сообщение было доставлено (с единицы).
	// 0, если бэкенд не ведёт счётчик.
	ReceiveCount int

	// SentAt — время первой отправки.
	SentAt time.Time
}

// DelayQueue — очередь с управляемой задержкой повторной доставки.
type DelayQueue interface {
	// Send ставит сообщение в очередь и возвращает его ID.
	Send(ctx context.Context, body []byte) (string, error)

	// Delete подтверждает обработку и удаляет сообщение.
	Delete(ctx context.Context, receipt string) error

	// SetRedeliveryDelay возвращает сообщение в очередь без удаления:
	// оно снова будет доставлено не раньше чем через delay.
	SetRedeliveryDelay(ctx context.Context, receipt string, delay time.Duration) error

	// DeadLetter убирает сообщение из обработки в dead-letter.
	DeadLetter(ctx context.Context, receipt string) error
}

// HandlerFunc обрабатывает одно сообщение.
// Ошибка логируется потребителем; судьбу сообщения определяет сам обработчик
// через DelayQueue.
type HandlerFunc func(ctx context.Context, msg *Message) error

// Consumer доставляет сообщения обработчику по одному.
type Consumer interface {
	// Consume блокируется до отмены ctx.
	Consume(ctx context.Context, handler HandlerFunc) error
}

// Receiver — pull-интерфейс для бэкендов без push-доставки.
type Receiver interface {
	// Receive возвращает следующее видимое сообщение и скрывает его
	// на visibility. Если сообщений нет, возвращает (nil, nil).
	Receive(ctx context.Context, visibility time.Duration) (*Message, error)
}

// Backend — очередь целиком: отправка, управление и потребление.
type Backend interface {
	DelayQueue
	Consumer
	Close() error
}
