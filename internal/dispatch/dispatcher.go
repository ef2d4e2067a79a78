package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shaiso/tweetsched/internal/queue"
)

// Dispatcher получает сообщения из очереди и передаёт их в Handler.
//
// Dispatcher — stateless компонент системы, который:
//   - Получает сообщения через queue.Consumer (по одному)
//   - Вызывает Handler для каждой доставки
//   - Останавливается по Stop или отмене контекста
//
// Несколько экземпляров могут потреблять из одной очереди:
// от двойной публикации защищает visibility timeout очереди.
type Dispatcher struct {
	consumer queue.Consumer
	handler  *Handler

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	started    bool
	stopped    bool
	stateMu    sync.RWMutex
}

// Config — конфигурация Dispatcher.
type Config struct {
	Consumer queue.Consumer
	Handler  *Handler
	Logger   *slog.Logger
}

// New создаёт Dispatcher.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		consumer: cfg.Consumer,
		handler:  cfg.Handler,
		logger:   logger,
	}
}

// Start запускает потребление в отдельной горутине и сразу возвращается.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()

	if d.stopped {
		return ErrDispatcherStopped
	}
	if d.started {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancelFunc = cancel
	d.started = true

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		err := d.consumer.Consume(ctx, d.handler.Handle)
		if err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("consumer error", "error", err)
		}
	}()

	d.logger.Info("dispatcher started")
	return nil
}

// Stop останавливает Dispatcher и ждёт завершения текущей доставки.
func (d *Dispatcher) Stop() {
	d.stateMu.Lock()
	if d.stopped {
		d.stateMu.Unlock()
		return
	}
	d.stopped = true
	cancel := d.cancelFunc
	d.stateMu.Unlock()

	d.logger.Info("stopping dispatcher...")

	if cancel != nil {
		cancel()
	}

	// Ждём завершения горутин
	d.wg.Wait()

	d.logger.Info("dispatcher stopped")
}

// IsRunning проверяет, запущен ли Dispatcher и не остановлен ли он.
func (d *Dispatcher) IsRunning() bool {
	d.stateMu.RLock()
	defer d.stateMu.RUnlock()
	return d.started && !d.stopped
}
