package mq

import "errors"

var (
	// ErrNoChannel — AMQP канал недоступен (соединение восстанавливается).
	ErrNoChannel = errors.New("no channel available")
)
