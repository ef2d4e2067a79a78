package mq

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/tweetsched/internal/queue"
)

// Exchanges — имена обменников.
const (
	// Exchange — основной обменник: рабочая очередь и очередь задержки.
	Exchange = "tweetsched"

	// ExchangeDLX — обменник для dead-letter.
	ExchangeDLX = "tweetsched.dlx"
)

// Topology — имена очередей одной логической очереди.
//
// Рабочая очередь {name} отдаёт сообщения потребителю. Очередь задержки
// {name}.delay не имеет потребителей: сообщение лежит в ней до истечения
// per-message TTL и через dead-letter exchange возвращается в {name}.
// Отклонённые сообщения уходят в {name}.dead.
type Topology struct {
	Name string
}

// NewTopology создаёт топологию для очереди name.
func NewTopology(name string) Topology {
	return Topology{Name: name}
}

// Queue возвращает имя рабочей очереди.
func (t Topology) Queue() string { return t.Name }

// DelayQueue возвращает имя очереди задержки.
func (t Topology) DelayQueue() string { return t.Name + ".delay" }

// DeadQueue возвращает имя dead-letter очереди.
func (t Topology) DeadQueue() string { return t.Name + ".dead" }

// queueArgs возвращает аргументы рабочей очереди.
func (t Topology) queueArgs() amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    ExchangeDLX,
		"x-dead-letter-routing-key": t.Queue(),
	}
}

// delayArgs возвращает аргументы очереди задержки.
// Истёкшие сообщения маршрутизируются обратно в рабочую очередь.
func (t Topology) delayArgs() amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    Exchange,
		"x-dead-letter-routing-key": t.Queue(),
	}
}

// SetupTopology объявляет exchanges, queues и bindings.
//
// Если declare == false, топология не создаётся, а только проверяется
// пассивным объявлением рабочей очереди. Отсутствие очереди возвращается
// как queue.ErrQueueNotFound.
func SetupTopology(ctx context.Context, conn *Connection, topo Topology, declare bool) error {
	if !declare {
		return checkTopology(ctx, conn, topo)
	}

	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		// 1. Создаём exchanges
		if err := declareExchanges(ch); err != nil {
			return err
		}

		// 2. Создаём queues
		if err := declareQueues(ch, topo); err != nil {
			return err
		}

		// 3. Привязываем queues к exchanges
		return bindQueues(ch, topo)
	})
}

// checkTopology проверяет, что рабочая очередь существует.
// Неудачное пассивное объявление закрывает канал, поэтому проверка
// идёт на отдельном канале.
func checkTopology(ctx context.Context, conn *Connection, topo Topology) error {
	conn.mu.RLock()
	raw := conn.conn
	conn.mu.RUnlock()

	if raw == nil || raw.IsClosed() {
		return ErrNoChannel
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ch, err := raw.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclarePassive(topo.Queue(), true, false, false, false, topo.queueArgs()); err != nil {
		var amqpErr *amqp.Error
		if errors.As(err, &amqpErr) && amqpErr.Code == amqp.NotFound {
			return fmt.Errorf("%w: %s", queue.ErrQueueNotFound, topo.Queue())
		}
		return fmt.Errorf("check queue %s: %w", topo.Queue(), err)
	}

	return nil
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	for _, name := range []string{Exchange, ExchangeDLX} {
		err := ch.ExchangeDeclare(
			name,     // name
			"direct", // type
			true,     // durable
			false,    // auto-deleted
			false,    // internal
			false,    // no-wait
			nil,      // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel, topo Topology) error {
	queues := []struct {
		name string
		args amqp.Table
	}{
		// рабочая очередь — отклонённые сообщения уходят в DLX
		{topo.Queue(), topo.queueArgs()},

		// очередь задержки — без потребителей, по TTL обратно в рабочую
		{topo.DelayQueue(), topo.delayArgs()},

		// dead-letter — ручной разбор
		{topo.DeadQueue(), nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			q.name, // name
			true,   // durable
			false,  // delete when unused
			false,  // exclusive
			false,  // no-wait
			q.args, // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
// Routing key совпадает с именем очереди.
func bindQueues(ch *amqp.Channel, topo Topology) error {
	bindings := []struct {
		queue    string
		exchange string
	}{
		{topo.Queue(), Exchange},
		{topo.DelayQueue(), Exchange},
		{topo.DeadQueue(), ExchangeDLX},
	}

	for _, b := range bindings {
		routingKey := b.queue
		if b.exchange == ExchangeDLX {
			routingKey = topo.Queue()
		}

		err := ch.QueueBind(
			b.queue,    // queue name
			routingKey, // routing key
			b.exchange, // exchange
			false,      // no-wait
			nil,        // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

// Info возвращает описание топологии для логирования и CLI.
func (t Topology) Info() string {
	return fmt.Sprintf(`
  tweetsched RabbitMQ topology:

    %[1]s (direct)
    ├── %[3]s [routing: %[3]s]
    │       Consumer: tweetsched-dispatcher
    │       DLX: %[2]s → %[5]s
    └── %[4]s [routing: %[4]s]
            No consumer, per-message TTL
            DLX: %[1]s → %[3]s

    %[2]s (direct)
    └── %[5]s [routing: %[3]s]
            Manual processing
`, Exchange, ExchangeDLX, t.Queue(), t.DelayQueue(), t.DeadQueue())
}
