// Package queue описывает контракт очереди отложенной доставки.
//
// Структура:
//   - queue.go  — интерфейсы DelayQueue, Consumer, тип Message
//   - errors.go — общие ошибки бэкендов
//   - poller.go — цикл опроса для pull-бэкендов (PostgreSQL, Redis)
//   - memory.go — очередь в памяти (тесты, локальный запуск)
//
// Семантика повторяет visibility timeout из SQS: полученное сообщение
// скрыто от других потребителей, пока не истечёт таймаут. Потребитель
// либо удаляет сообщение (Delete), либо переносит его следующую доставку
// (SetRedeliveryDelay), либо паркует в dead-letter (DeadLetter).
//
// Бэкенды:
//   - internal/mq      — RabbitMQ (TTL + dead-letter exchange)
//   - internal/repo    — PostgreSQL (FOR UPDATE SKIP LOCKED)
//   - internal/redisq  — Redis (ZSET + Lua)
package queue
