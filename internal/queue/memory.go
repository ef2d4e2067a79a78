package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/tweetsched/internal/clock"
)

// MemoryQueue — очередь в памяти процесса.
//
// Используется в тестах и для локального запуска (QUEUE_BACKEND=memory).
// Ничего не переживает рестарт.
type MemoryQueue struct {
	clock  clock.Clock
	poller *Poller

	mu       sync.Mutex
	seq      int64
	messages map[string]*memoryEntry
	dead     []Message
	closed   bool
}

type memoryEntry struct {
	seq       int64
	msg       Message
	visibleAt time.Time
}

// NewMemoryQueue создаёт пустую очередь.
// Если clk == nil, используется реальное время.
func NewMemoryQueue(clk clock.Clock, cfg PollerConfig) *MemoryQueue {
	if clk == nil {
		clk = clock.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	q := &MemoryQueue{
		clock:    clk,
		messages: make(map[string]*memoryEntry),
	}
	q.poller = NewPoller(q, cfg)
	return q
}

// Send ставит сообщение в очередь, оно видно сразу.
func (q *MemoryQueue) Send(_ context.Context, body []byte) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return "", ErrClosed
	}

	q.seq++
	now := q.clock.Now()
	id := uuid.NewString()
	q.messages[id] = &memoryEntry{
		seq: q.seq,
		msg: Message{
			ID:     id,
			Body:   append([]byte(nil), body...),
			SentAt: now,
		},
		visibleAt: now,
	}
	return id, nil
}

// Receive возвращает самое раннее видимое сообщение.
func (q *MemoryQueue) Receive(_ context.Context, visibility time.Duration) (*Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil, ErrClosed
	}

	now := q.clock.Now()
	var next *memoryEntry
	for _, e := range q.messages {
		if e.visibleAt.After(now) {
			continue
		}
		if next == nil || e.visibleAt.Before(next.visibleAt) ||
			(e.visibleAt.Equal(next.visibleAt) && e.seq < next.seq) {
			next = e
		}
	}
	if next == nil {
		return nil, nil
	}

	next.msg.Receipt = uuid.NewString()
	next.msg.ReceiveCount++
	next.visibleAt = now.Add(visibility)

	msg := next.msg
	return &msg, nil
}

// Delete удаляет сообщение по receipt.
func (q *MemoryQueue) Delete(_ context.Context, receipt string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, err := q.lookup(receipt)
	if err != nil {
		return err
	}
	delete(q.messages, e.msg.ID)
	return nil
}

// SetRedeliveryDelay делает сообщение видимым через delay.
func (q *MemoryQueue) SetRedeliveryDelay(_ context.Context, receipt string, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, err := q.lookup(receipt)
	if err != nil {
		return err
	}
	e.visibleAt = q.clock.Now().Add(delay)
	return nil
}

// DeadLetter переносит сообщение в список dead.
func (q *MemoryQueue) DeadLetter(_ context.Context, receipt string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, err := q.lookup(receipt)
	if err != nil {
		return err
	}
	delete(q.messages, e.msg.ID)
	q.dead = append(q.dead, e.msg)
	return nil
}

// Consume опрашивает очередь через Poller.
func (q *MemoryQueue) Consume(ctx context.Context, handler HandlerFunc) error {
	return q.poller.Consume(ctx, handler)
}

// Close закрывает очередь.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	return nil
}

// Pending возвращает сообщения в очереди в порядке отправки.
func (q *MemoryQueue) Pending() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]*memoryEntry, 0, len(q.messages))
	for _, e := range q.messages {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]Message, len(entries))
	for i, e := range entries {
		out[i] = e.msg
	}
	return out
}

// Dead возвращает сообщения, отправленные в dead-letter.
func (q *MemoryQueue) Dead() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Message(nil), q.dead...)
}

// VisibleAt возвращает время, когда сообщение снова станет видимым.
func (q *MemoryQueue) VisibleAt(id string) (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e, ok := q.messages[id]
	if !ok {
		return time.Time{}, false
	}
	return e.visibleAt, true
}

func (q *MemoryQueue) lookup(receipt string) (*memoryEntry, error) {
	if q.closed {
		return nil, ErrClosed
	}
	for _, e := range q.messages {
		if e.msg.Receipt != "" && e.msg.Receipt == receipt {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrReceiptNotFound, receipt)
}
