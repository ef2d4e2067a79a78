package repo

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/tweetsched/internal/queue"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema создаёт таблицы очередей, если их нет.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// EnsureQueue регистрирует очередь name.
func EnsureQueue(ctx context.Context, pool *pgxpool.Pool, name string) error {
	query := `
		INSERT INTO queues (name)
		VALUES ($1)
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := pool.Exec(ctx, query, name); err != nil {
		return fmt.Errorf("ensure queue %s: %w", name, err)
	}
	return nil
}

// QueueRepo — очередь отложенной доставки в таблице queue_messages.
//
// Получение сообщения — UPDATE одной видимой строки, выбранной
// с FOR UPDATE SKIP LOCKED: параллельные потребители не блокируют
// друг друга и не получают одно сообщение дважды. Каждое получение
// выдаёт новый receipt, старый становится недействительным.
type QueueRepo struct {
	pool   *pgxpool.Pool
	name   string
	poller *queue.Poller
	logger *slog.Logger
}

// QueueConfig — конфигурация QueueRepo.
type QueueConfig struct {
	// Name — имя очереди.
	Name string

	// Create — зарегистрировать очередь, если её нет.
	// Иначе отсутствующая очередь — queue.ErrQueueNotFound.
	Create bool

	Poller queue.PollerConfig
	Logger *slog.Logger
}

// OpenQueue открывает очередь cfg.Name.
func OpenQueue(ctx context.Context, pool *pgxpool.Pool, cfg QueueConfig) (*QueueRepo, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Poller.Logger == nil {
		cfg.Poller.Logger = logger
	}

	if cfg.Create {
		if err := EnsureSchema(ctx, pool); err != nil {
			return nil, err
		}
		if err := EnsureQueue(ctx, pool, cfg.Name); err != nil {
			return nil, err
		}
	} else if err := queueExists(ctx, pool, cfg.Name); err != nil {
		return nil, err
	}

	r := &QueueRepo{
		pool:   pool,
		name:   cfg.Name,
		logger: logger.With("queue", cfg.Name),
	}
	r.poller = queue.NewPoller(r, cfg.Poller)
	return r, nil
}

// queueExists проверяет регистрацию очереди.
func queueExists(ctx context.Context, pool *pgxpool.Pool, name string) error {
	var found string
	err := pool.QueryRow(ctx, `SELECT name FROM queues WHERE name = $1`, name).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", queue.ErrQueueNotFound, name)
	}
	if err != nil {
		// Схема ещё не создана
		if isUndefinedTable(err) {
			return fmt.Errorf("%w: %s", queue.ErrQueueNotFound, name)
		}
		return fmt.Errorf("lookup queue %s: %w", name, err)
	}
	return nil
}

// Send вставляет сообщение, видимое сразу.
func (r *QueueRepo) Send(ctx context.Context, body []byte) (string, error) {
	id := uuid.New()

	query := `
		INSERT INTO queue_messages (id, queue, body)
		VALUES ($1, $2, $3)
	`
	if _, err := r.pool.Exec(ctx, query, id, r.name, body); err != nil {
		return "", fmt.Errorf("insert message: %w", err)
	}

	r.logger.Debug("message sent", "message_id", id)
	return id.String(), nil
}

// Receive забирает самое раннее видимое сообщение и скрывает его на visibility.
func (r *QueueRepo) Receive(ctx context.Context, visibility time.Duration) (*queue.Message, error) {
	receipt := uuid.New()

	query := `
		UPDATE queue_messages
		SET receipt = $2,
		    receive_count = receive_count + 1,
		    visible_at = now() + make_interval(secs => $3)
		WHERE id = (
			SELECT id
			FROM queue_messages
			WHERE queue = $1 AND dead_at IS NULL AND visible_at <= now()
			ORDER BY visible_at, created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, body, receive_count, created_at
	`

	var (
		id  uuid.UUID
		msg queue.Message
	)
	err := r.pool.QueryRow(ctx, query, r.name, receipt, seconds(visibility)).
		Scan(&id, &msg.Body, &msg.ReceiveCount, &msg.SentAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("receive message: %w", err)
	}

	msg.ID = id.String()
	msg.Receipt = receipt.String()
	return &msg, nil
}

// Delete удаляет сообщение по текущему receipt.
func (r *QueueRepo) Delete(ctx context.Context, receipt string) error {
	rid, err := parseReceipt(receipt)
	if err != nil {
		return err
	}

	result, err := r.pool.Exec(ctx,
		`DELETE FROM queue_messages WHERE queue = $1 AND receipt = $2`,
		r.name, rid,
	)
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", queue.ErrReceiptNotFound, receipt)
	}
	return nil
}

// SetRedeliveryDelay делает сообщение видимым через delay.
// Receipt сбрасывается: следующая доставка получит новый.
func (r *QueueRepo) SetRedeliveryDelay(ctx context.Context, receipt string, delay time.Duration) error {
	rid, err := parseReceipt(receipt)
	if err != nil {
		return err
	}

	query := `
		UPDATE queue_messages
		SET visible_at = now() + make_interval(secs => $3),
		    receipt = NULL
		WHERE queue = $1 AND receipt = $2
	`
	result, err := r.pool.Exec(ctx, query, r.name, rid, seconds(delay))
	if err != nil {
		return fmt.Errorf("change visibility: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", queue.ErrReceiptNotFound, receipt)
	}
	return nil
}

// DeadLetter помечает сообщение как dead. Оно больше не доставляется,
// но остаётся в таблице для разбора.
func (r *QueueRepo) DeadLetter(ctx context.Context, receipt string) error {
	rid, err := parseReceipt(receipt)
	if err != nil {
		return err
	}

	query := `
		UPDATE queue_messages
		SET dead_at = now(), receipt = NULL
		WHERE queue = $1 AND receipt = $2
	`
	result, err := r.pool.Exec(ctx, query, r.name, rid)
	if err != nil {
		return fmt.Errorf("dead-letter message: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", queue.ErrReceiptNotFound, receipt)
	}
	return nil
}

// Consume опрашивает очередь через Poller.
func (r *QueueRepo) Consume(ctx context.Context, handler queue.HandlerFunc) error {
	return r.poller.Consume(ctx, handler)
}

// Close закрывает пул соединений.
func (r *QueueRepo) Close() error {
	r.pool.Close()
	return nil
}

// QueueStats — счётчики сообщений очереди.
type QueueStats struct {
	Visible int64 `json:"visible"`
	Delayed int64 `json:"delayed"`
	Dead    int64 `json:"dead"`
}

// Stats возвращает счётчики сообщений.
func (r *QueueRepo) Stats(ctx context.Context) (QueueStats, error) {
	query := `
		SELECT
			count(*) FILTER (WHERE dead_at IS NULL AND visible_at <= now()),
			count(*) FILTER (WHERE dead_at IS NULL AND visible_at > now()),
			count(*) FILTER (WHERE dead_at IS NOT NULL)
		FROM queue_messages
		WHERE queue = $1
	`
	var s QueueStats
	if err := r.pool.QueryRow(ctx, query, r.name).Scan(&s.Visible, &s.Delayed, &s.Dead); err != nil {
		return QueueStats{}, fmt.Errorf("queue stats: %w", err)
	}
	return s, nil
}

// parseReceipt разбирает receipt. Неразборчивый receipt — неизвестный receipt.
func parseReceipt(receipt string) (uuid.UUID, error) {
	id, err := uuid.Parse(receipt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", queue.ErrReceiptNotFound, receipt)
	}
	return id, nil
}

// seconds переводит длительность в секунды для make_interval.
func seconds(d time.Duration) float64 {
	if d < 0 {
		return 0
	}
	return d.Seconds()
}
