package redisq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/shaiso/tweetsched/internal/clock"
	"github.com/shaiso/tweetsched/internal/queue"
)

// KeyPrefix — общий префикс ключей.
const KeyPrefix = "tweetsched"

// keys — ключи одной очереди. Имя очереди в фигурных скобках —
// hash tag: в Redis Cluster все ключи очереди попадают в один слот.
type keys struct {
	visible string
	receipt string
	count   string
	body    string
	sent    string
	dead    string
	exists  string
}

func newKeys(name string) keys {
	base := fmt.Sprintf("%s:{%s}:", KeyPrefix, name)
	return keys{
		visible: base + "visible",
		receipt: base + "receipt",
		count:   base + "count",
		body:    base + "body",
		sent:    base + "sent",
		dead:    base + "dead",
		exists:  base + "exists",
	}
}

// script возвращает KEYS для Lua-скриптов.
func (k keys) script() []string {
	return []string{k.visible, k.receipt, k.count, k.body, k.sent, k.dead}
}

// Queue — очередь отложенной доставки в Redis.
//
// Видимость хранится в ZSET (score — момент видимости в мс),
// тело, счётчик и текущий receipt — в хешах по ID сообщения.
type Queue struct {
	client *redis.Client
	name   string
	keys   keys
	clock  clock.Clock
	poller *queue.Poller
	logger *slog.Logger
}

// Config — конфигурация Queue.
type Config struct {
	// Name — имя очереди.
	Name string

	// Create — создать очередь, если её нет.
	// Иначе отсутствующая очередь — queue.ErrQueueNotFound.
	Create bool

	// Clock — источник времени (default: реальное время).
	Clock clock.Clock

	Poller queue.PollerConfig
	Logger *slog.Logger
}

// NewClient создаёт клиент Redis и проверяет подключение.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// Open открывает очередь cfg.Name.
func Open(ctx context.Context, client *redis.Client, cfg Config) (*Queue, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Poller.Logger == nil {
		cfg.Poller.Logger = logger
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.NewReal()
	}

	k := newKeys(cfg.Name)

	n, err := client.Exists(ctx, k.exists).Result()
	if err != nil {
		return nil, fmt.Errorf("check queue %s: %w", cfg.Name, err)
	}
	if n == 0 {
		if !cfg.Create {
			return nil, fmt.Errorf("%w: %s", queue.ErrQueueNotFound, cfg.Name)
		}
		if err := client.Set(ctx, k.exists, clk.Now().UTC().Format(time.RFC3339), 0).Err(); err != nil {
			return nil, fmt.Errorf("create queue %s: %w", cfg.Name, err)
		}
		logger.Info("queue created", "queue", cfg.Name)
	}

	q := &Queue{
		client: client,
		name:   cfg.Name,
		keys:   k,
		clock:  clk,
		logger: logger.With("queue", cfg.Name),
	}
	q.poller = queue.NewPoller(q, cfg.Poller)
	return q, nil
}

// Send ставит сообщение в очередь, оно видно сразу.
func (q *Queue) Send(ctx context.Context, body []byte) (string, error) {
	id := uuid.NewString()
	now := q.clock.Now().UnixMilli()

	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, q.keys.body, id, body)
		pipe.HSet(ctx, q.keys.sent, id, now)
		pipe.ZAdd(ctx, q.keys.visible, &redis.Z{
			Score:  float64(now),
			Member: id,
		})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	q.logger.Debug("message sent", "message_id", id)
	return id, nil
}

// Receive забирает самое раннее видимое сообщение и скрывает его на visibility.
func (q *Queue) Receive(ctx context.Context, visibility time.Duration) (*queue.Message, error) {
	now := q.clock.Now()
	token := uuid.NewString()

	res, err := receiveScript.Run(ctx, q.client, q.keys.script(),
		now.UnixMilli(),
		now.Add(visibility).UnixMilli(),
		token,
	).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("receive message: %w", err)
	}

	return parseReceived(res, token)
}

// parseReceived разбирает ответ receiveScript: {id, body, count, sent}.
func parseReceived(res any, token string) (*queue.Message, error) {
	fields, ok := res.([]any)
	if !ok || len(fields) != 4 {
		return nil, fmt.Errorf("receive message: unexpected reply %v", res)
	}

	id, _ := fields[0].(string)
	body, _ := fields[1].(string)
	count, _ := fields[2].(int64)

	var sentMs int64
	if s, ok := fields[3].(string); ok {
		sentMs, _ = strconv.ParseInt(s, 10, 64)
	}

	return &queue.Message{
		ID:           id,
		Receipt:      formatReceipt(id, token),
		Body:         []byte(body),
		ReceiveCount: int(count),
		SentAt:       time.UnixMilli(sentMs),
	}, nil
}

// Delete удаляет сообщение по текущему receipt.
func (q *Queue) Delete(ctx context.Context, receipt string) error {
	return q.runReceipt(ctx, deleteScript, "delete", receipt)
}

// SetRedeliveryDelay делает сообщение видимым через delay.
func (q *Queue) SetRedeliveryDelay(ctx context.Context, receipt string, delay time.Duration) error {
	if delay < 0 {
		delay = 0
	}
	visibleAt := q.clock.Now().Add(delay).UnixMilli()
	return q.runReceipt(ctx, delayScript, "change visibility", receipt, visibleAt)
}

// DeadLetter переносит тело сообщения в список {queue}:dead.
func (q *Queue) DeadLetter(ctx context.Context, receipt string) error {
	return q.runReceipt(ctx, deadScript, "dead-letter", receipt)
}

// runReceipt выполняет скрипт, проверяющий receipt.
// Скрипт возвращает 0, если receipt устарел.
func (q *Queue) runReceipt(ctx context.Context, script *redis.Script, op, receipt string, extra ...any) error {
	id, token, err := parseReceipt(receipt)
	if err != nil {
		return err
	}

	args := append([]any{id, token}, extra...)
	n, err := script.Run(ctx, q.client, q.keys.script(), args...).Int()
	if err != nil {
		return fmt.Errorf("%s message: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", queue.ErrReceiptNotFound, receipt)
	}
	return nil
}

// Consume опрашивает очередь через Poller.
func (q *Queue) Consume(ctx context.Context, handler queue.HandlerFunc) error {
	return q.poller.Consume(ctx, handler)
}

// Close закрывает клиент.
func (q *Queue) Close() error {
	return q.client.Close()
}

// Stats — счётчики сообщений очереди.
type Stats struct {
	Total   int64 `json:"total"`
	Visible int64 `json:"visible"`
	Dead    int64 `json:"dead"`
}

// Stats возвращает счётчики сообщений.
func (q *Queue) Stats(ctx context.Context) (Stats, error) {
	now := strconv.FormatInt(q.clock.Now().UnixMilli(), 10)

	var total, visible, dead *redis.IntCmd
	_, err := q.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		total = pipe.ZCard(ctx, q.keys.visible)
		visible = pipe.ZCount(ctx, q.keys.visible, "-inf", now)
		dead = pipe.LLen(ctx, q.keys.dead)
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}

	return Stats{Total: total.Val(), Visible: visible.Val(), Dead: dead.Val()}, nil
}

// formatReceipt кодирует ID сообщения и токен доставки в один receipt.
func formatReceipt(id, token string) string {
	return id + ":" + token
}

// parseReceipt разбирает receipt на ID и токен.
func parseReceipt(receipt string) (id, token string, err error) {
	id, token, ok := strings.Cut(receipt, ":")
	if !ok || id == "" || token == "" {
		return "", "", fmt.Errorf("%w: %s", queue.ErrReceiptNotFound, receipt)
	}
	return id, token, nil
}
