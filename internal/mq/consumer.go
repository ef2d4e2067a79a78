package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/tweetsched/internal/queue"
)

// prefetch — одна неподтверждённая доставка на потребителя.
const prefetch = 1

// Consume потребляет сообщения из рабочей очереди до отмены ctx.
// После разрыва соединения потребление перезапускается.
func (q *DelayQueue) Consume(ctx context.Context, handler queue.HandlerFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Получаем канал доставки
		deliveries, err := q.setupConsume()
		if err != nil {
			q.logger.Error("failed to setup consume", "error", err)
			// Ждём переподключения
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-q.conn.ReconnectNotify():
				q.logger.Info("reconnected, restarting consumer")
				continue
			}
		}

		q.logger.Info("consumer started")

		// Обрабатываем сообщения
		if err := q.processDeliveries(ctx, deliveries, handler); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			q.logger.Warn("deliveries channel closed, reconnecting")
			q.dropInflight()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-q.conn.ReconnectNotify():
				continue
			}
		}
	}
}

// setupConsume настраивает канал и начинает потребление.
func (q *DelayQueue) setupConsume() (<-chan amqp.Delivery, error) {
	ch := q.conn.Channel()
	if ch == nil || ch.IsClosed() {
		return nil, ErrNoChannel
	}

	if err := ch.Qos(prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		q.topo.Queue(), // queue
		"",             // consumer tag (auto-generated)
		false,          // auto-ack (мы ack вручную)
		false,          // exclusive
		false,          // no-local
		false,          // no-wait
		nil,            // args
	)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}

	return deliveries, nil
}

// processDeliveries обрабатывает сообщения из канала.
func (q *DelayQueue) processDeliveries(ctx context.Context, deliveries <-chan amqp.Delivery, handler queue.HandlerFunc) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case raw, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("deliveries channel closed")
			}

			q.handleDelivery(ctx, raw, handler)
		}
	}
}

// handleDelivery передаёт одну доставку обработчику.
//
// Если обработчик не распорядился сообщением (вернул ошибку раньше,
// чем вызвал Delete, SetRedeliveryDelay или DeadLetter), сообщение
// откладывается на visibility timeout.
func (q *DelayQueue) handleDelivery(ctx context.Context, raw amqp.Delivery, handler queue.HandlerFunc) {
	receipt := q.track(raw)
	msg := toMessage(raw, receipt)

	err := handler(ctx, msg)
	if err != nil {
		q.logger.Error("handler failed",
			"message_id", msg.ID,
			"receive_count", msg.ReceiveCount,
			"error", err,
		)
	}

	if !q.pending(receipt) {
		return
	}

	q.logger.Warn("message left unsettled, delaying",
		"message_id", msg.ID,
		"delay", q.visibility,
	)
	if err := q.SetRedeliveryDelay(context.WithoutCancel(ctx), receipt, q.visibility); err != nil {
		q.logger.Error("failed to delay unsettled message", "message_id", msg.ID, "error", err)
		if d, takeErr := q.take(receipt); takeErr == nil {
			d.Nack(false, true)
		}
	}
}

// dropInflight забывает доставки закрытого канала.
// Брокер уже вернул их в очередь, receipts недействительны.
func (q *DelayQueue) dropInflight() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for receipt := range q.inflight {
		delete(q.inflight, receipt)
	}
}
