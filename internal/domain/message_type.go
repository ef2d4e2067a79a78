package domain

// MessageType — тип сообщения в очереди отложенной доставки.
//
// Жизненный цикл сообщения:
//
//	ENQUEUED → (REDELIVERED)* → PUBLISHED (удалено из очереди)
//	                         ↘ DEAD (отправлено в dead-letter)
type MessageType string

const (
	// MessageTypeSchedule — пост публикуется, когда наступит ScheduledAt.
	// Значение по умолчанию, если message_type в payload не указан.
	MessageTypeSchedule MessageType = "SCHEDULE_TWEET"

	// MessageTypeProcess — пост публикуется при первой доставке,
	// ScheduledAt игнорируется.
	MessageTypeProcess MessageType = "PROCESS_TWEET"
)

// IsValid проверяет, что тип сообщения известен.
func (t MessageType) IsValid() bool {
	switch t {
	case MessageTypeSchedule, MessageTypeProcess:
		return true
	default:
		return false
	}
}

// IsTimeGated возвращает true, если публикация ждёт ScheduledAt.
func (t MessageType) IsTimeGated() bool {
	return t != MessageTypeProcess
}
