package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxPostLength — максимальная длина поста в символах.
const MaxPostLength = 280

// Ошибки валидации поста.
var (
	// ErrEmptyText — текст пуст после обрезки пробелов.
	ErrEmptyText = errors.New("post text is empty")

	// ErrTextTooLong — текст длиннее MaxPostLength символов.
	ErrTextTooLong = errors.New("post text exceeds 280 characters")
)

// ScheduledPost — пост с вычисленным временем публикации.
//
// Создаётся Scheduling Session из строки таблицы, сериализуется
// в payload сообщения очереди и десериализуется Dispatch Handler'ом.
type ScheduledPost struct {
	// Text — текст поста, 1..280 символов.
	Text string `json:"text"`

	// ScheduledAt — Unix-время (секунды), начиная с которого пост можно публиковать.
	ScheduledAt int64 `json:"scheduled_at"`

	// Type — тип сообщения. Пустое значение трактуется как MessageTypeSchedule.
	Type MessageType `json:"type"`
}

// NewScheduledPost создаёт пост с проверкой текста.
func NewScheduledPost(text string, scheduledAt int64) (*ScheduledPost, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}
	return &ScheduledPost{
		Text:        text,
		ScheduledAt: scheduledAt,
		Type:        MessageTypeSchedule,
	}, nil
}

// NormalizeText обрезает пробельные символы справа, как это делается
// для ячейки таблицы перед проверкой.
func NormalizeText(raw string) string {
	return strings.TrimRightFunc(raw, unicode.IsSpace)
}

// ValidateText проверяет инвариант 1 <= len(text) <= 280.
// Длина считается в символах (рунах), а не в байтах.
func ValidateText(text string) error {
	if text == "" {
		return ErrEmptyText
	}
	if n := utf8.RuneCountInString(text); n > MaxPostLength {
		return fmt.Errorf("%w: got %d", ErrTextTooLong, n)
	}
	return nil
}

// Time возвращает ScheduledAt как time.Time в UTC.
func (p *ScheduledPost) Time() time.Time {
	return time.Unix(p.ScheduledAt, 0).UTC()
}

// IsDue проверяет, пора ли публиковать пост.
func (p *ScheduledPost) IsDue(now int64) bool {
	if !p.Type.IsTimeGated() {
		return true
	}
	return now >= p.ScheduledAt
}

// Remaining возвращает, сколько осталось до публикации.
// Для уже готового поста возвращает 0.
func (p *ScheduledPost) Remaining(now int64) time.Duration {
	if p.IsDue(now) {
		return 0
	}
	return time.Duration(p.ScheduledAt-now) * time.Second
}
