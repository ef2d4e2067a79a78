package mq

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/tweetsched/internal/queue"
)

// Значения по умолчанию.
const (
	// DefaultMaxDelay — максимальный TTL одного сообщения в очереди задержки.
	DefaultMaxDelay = 5 * time.Minute

	// HeaderReceiveCount — заголовок со счётчиком доставок.
	HeaderReceiveCount = "x-receive-count"
)

// DelayQueue — бэкенд очереди отложенной доставки на RabbitMQ.
//
// У RabbitMQ нет visibility timeout, поэтому SetRedeliveryDelay
// публикует копию сообщения в очередь задержки с per-message TTL
// и подтверждает оригинал. TTL-очередь истекает строго с головы,
// поэтому одна задержка ограничена maxDelay: длинное сообщение
// в голове не задерживает короткие дольше этого порога. Если сообщение
// вернулось раньше срока, обработчик просто откладывает его снова.
type DelayQueue struct {
	conn       *Connection
	topo       Topology
	maxDelay   time.Duration
	visibility time.Duration
	logger     *slog.Logger

	mu       sync.Mutex
	inflight map[string]amqp.Delivery
}

// Config — конфигурация DelayQueue.
type Config struct {
	// Queue — имя рабочей очереди.
	Queue string

	// MaxDelay — потолок одной задержки (default: 5m).
	MaxDelay time.Duration

	// Visibility — на сколько откладывать сообщение, которое обработчик
	// не подтвердил и не отложил сам (default: 30s).
	Visibility time.Duration

	Logger *slog.Logger
}

// NewDelayQueue создаёт бэкенд поверх открытого соединения.
// Топологию нужно объявить заранее через SetupTopology.
func NewDelayQueue(conn *Connection, cfg Config) *DelayQueue {
	maxDelay := cfg.MaxDelay
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}

	visibility := cfg.Visibility
	if visibility <= 0 {
		visibility = queue.DefaultVisibility
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &DelayQueue{
		conn:       conn,
		topo:       NewTopology(cfg.Queue),
		maxDelay:   maxDelay,
		visibility: visibility,
		logger:     logger.With("queue", cfg.Queue),
		inflight:   make(map[string]amqp.Delivery),
	}
}

// Topology возвращает топологию очереди.
func (q *DelayQueue) Topology() Topology {
	return q.topo
}

// Send публикует сообщение в рабочую очередь.
func (q *DelayQueue) Send(ctx context.Context, body []byte) (string, error) {
	id := uuid.NewString()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
		MessageId:    id,
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{HeaderReceiveCount: int64(0)},
		Body:         body,
	}

	if err := q.publish(ctx, q.topo.Queue(), msg); err != nil {
		return "", err
	}

	q.logger.Debug("message sent", "message_id", id)
	return id, nil
}

// Delete подтверждает доставку.
func (q *DelayQueue) Delete(_ context.Context, receipt string) error {
	d, err := q.take(receipt)
	if err != nil {
		return err
	}

	if err := d.Ack(false); err != nil {
		return fmt.Errorf("ack %s: %w", d.MessageId, err)
	}
	return nil
}

// SetRedeliveryDelay переносит сообщение в очередь задержки.
// Копия публикуется раньше, чем подтверждается оригинал: при сбое
// между шагами сообщение может задвоиться, но не потеряется.
func (q *DelayQueue) SetRedeliveryDelay(ctx context.Context, receipt string, delay time.Duration) error {
	d, err := q.take(receipt)
	if err != nil {
		return err
	}

	clamped := clampDelay(delay, q.maxDelay)

	msg := amqp.Publishing{
		ContentType:  d.ContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    d.MessageId,
		Timestamp:    d.Timestamp,
		Expiration:   expiration(clamped),
		Headers:      amqp.Table{HeaderReceiveCount: int64(receiveCount(d.Headers) + 1)},
		Body:         d.Body,
	}

	if err := q.publish(ctx, q.topo.DelayQueue(), msg); err != nil {
		// Оригинал остаётся неподтверждённым и вернётся брокером
		q.restore(receipt, d)
		return fmt.Errorf("redelay %s: %w", d.MessageId, err)
	}

	if err := d.Ack(false); err != nil {
		return fmt.Errorf("ack %s after redelay: %w", d.MessageId, err)
	}

	q.logger.Debug("message delayed",
		"message_id", d.MessageId,
		"delay", delay,
		"ttl", clamped,
	)
	return nil
}

// DeadLetter отклоняет сообщение без requeue: брокер переносит его
// через DLX в {queue}.dead.
func (q *DelayQueue) DeadLetter(_ context.Context, receipt string) error {
	d, err := q.take(receipt)
	if err != nil {
		return err
	}

	if err := d.Nack(false, false); err != nil {
		return fmt.Errorf("nack %s: %w", d.MessageId, err)
	}
	return nil
}

// Close закрывает соединение.
func (q *DelayQueue) Close() error {
	return q.conn.Close()
}

// publish публикует сообщение в основной exchange.
func (q *DelayQueue) publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	return q.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			Exchange,   // exchange
			routingKey, // routing key
			false,      // mandatory
			false,      // immediate
			msg,
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", Exchange, routingKey, err)
		}
		return nil
	})
}

// track регистрирует доставку и возвращает её receipt.
func (q *DelayQueue) track(d amqp.Delivery) string {
	receipt := uuid.NewString()

	q.mu.Lock()
	q.inflight[receipt] = d
	q.mu.Unlock()

	return receipt
}

// take извлекает доставку по receipt. Receipt одноразовый.
func (q *DelayQueue) take(receipt string) (amqp.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	d, ok := q.inflight[receipt]
	if !ok {
		return amqp.Delivery{}, fmt.Errorf("%w: %s", queue.ErrReceiptNotFound, receipt)
	}
	delete(q.inflight, receipt)
	return d, nil
}

func (q *DelayQueue) restore(receipt string, d amqp.Delivery) {
	q.mu.Lock()
	q.inflight[receipt] = d
	q.mu.Unlock()
}

// pending проверяет, что доставка ещё не подтверждена.
func (q *DelayQueue) pending(receipt string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.inflight[receipt]
	return ok
}

// clampDelay ограничивает задержку диапазоном [0, maxDelay].
func clampDelay(delay, maxDelay time.Duration) time.Duration {
	if delay < 0 {
		return 0
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}

// expiration форматирует TTL для поля Expiration (миллисекунды строкой).
func expiration(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}

// receiveCount читает счётчик доставок из заголовков.
// Тип целого зависит от того, кто публиковал сообщение.
func receiveCount(headers amqp.Table) int {
	switch v := headers[HeaderReceiveCount].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}

// toMessage превращает AMQP доставку в queue.Message.
func toMessage(d amqp.Delivery, receipt string) *queue.Message {
	return &queue.Message{
		ID:           d.MessageId,
		Receipt:      receipt,
		Body:         d.Body,
		ReceiveCount: receiveCount(d.Headers) + 1,
		SentAt:       d.Timestamp,
	}
}
