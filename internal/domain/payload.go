package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedPayload — payload сообщения не удалось разобрать в ScheduledPost.
var ErrMalformedPayload = errors.New("malformed payload")

// wirePayload — формат сообщения в очереди:
//
//	{"message_type": "SCHEDULE_TWEET", "tweet": "...", "tweet_time": 1700000000}
type wirePayload struct {
	MessageType MessageType `json:"message_type,omitempty"`
	Tweet       string      `json:"tweet"`
	TweetTime   *int64      `json:"tweet_time"`
}

// Encode сериализует пост в payload сообщения.
func Encode(p *ScheduledPost) ([]byte, error) {
	msgType := p.Type
	if msgType == "" {
		msgType = MessageTypeSchedule
	}

	at := p.ScheduledAt
	body, err := json.Marshal(wirePayload{
		MessageType: msgType,
		Tweet:       p.Text,
		TweetTime:   &at,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return body, nil
}

// Decode разбирает payload сообщения.
//
// Любая ошибка оборачивает ErrMalformedPayload:
// некорректный JSON, отсутствующие поля, неизвестный message_type.
func Decode(body []byte) (*ScheduledPost, error) {
	var w wirePayload
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if w.TweetTime == nil {
		return nil, fmt.Errorf("%w: tweet_time is missing", ErrMalformedPayload)
	}

	msgType := w.MessageType
	if msgType == "" {
		msgType = MessageTypeSchedule
	}
	if !msgType.IsValid() {
		return nil, fmt.Errorf("%w: unknown message_type %q", ErrMalformedPayload, msgType)
	}

	if err := ValidateText(w.Tweet); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return &ScheduledPost{
		Text:        w.Tweet,
		ScheduledAt: *w.TweetTime,
		Type:        msgType,
	}, nil
}
