// Package mq реализует очередь отложенной доставки на RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - queue.go      — Send, Delete, SetRedeliveryDelay, DeadLetter
//   - consumer.go   — потребление рабочей очереди
//
// Exchanges:
//   - tweetsched      — рабочая очередь и очередь задержки
//   - tweetsched.dlx  — dead-letter
//
// Задержка повторной доставки реализована через очередь {name}.delay
// с per-message TTL и dead-letter exchange обратно в {name}.
package mq
