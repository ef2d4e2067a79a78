package domain

import (
	"errors"
	"fmt"
	"time"
)

// Ошибки валидации когорты.
var (
	ErrCohortName   = errors.New("cohort name is required")
	ErrCohortWindow = errors.New("cohort window must be positive")
	ErrCohortTab    = errors.New("cohort tab index must not be negative")
)

// Cohort — аудитория (вкладка таблицы) со своим расписанием.
//
// Каждая когорта запускает Scheduling Session:
// - По cron-выражению: "0 15 * * *" (каждый день в 15:00)
// - В своём часовом поясе
//
// Session читает вкладку TabIndex и распределяет посты
// равномерно на Window секунд вперёд.
type Cohort struct {
	// Name — уникальное имя когорты.
	Name string `yaml:"name" json:"name"`

	// CronExpr — cron-выражение запуска.
	// Формат: "минуты часы дни месяцы дни_недели"
	// Примеры:
	//   "0 15 * * *"   — каждый день в 15:00
	//   "30 3 * * 1-5" — по будням в 3:30
	CronExpr string `yaml:"cron" json:"cron"`

	// Timezone — часовой пояс для cron-выражения.
	// По умолчанию: "UTC".
	Timezone string `yaml:"timezone" json:"timezone"`

	// WindowSeconds — длительность окна, на которое распределяются посты.
	WindowSeconds int64 `yaml:"window_seconds" json:"window_seconds"`

	// TabIndex — индекс вкладки таблицы (с нуля).
	TabIndex int `yaml:"tab" json:"tab"`

	// SheetKey — ключ таблицы. Если пуст, используется общий SHEET_KEY.
	SheetKey string `yaml:"sheet_key,omitempty" json:"sheet_key,omitempty"`

	// Enabled — флаг активности. nil трактуется как true.
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`
}

// IsEnabled возвращает true, если когорта активна.
func (c *Cohort) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// Window возвращает окно как time.Duration.
func (c *Cohort) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// Location возвращает часовой пояс когорты.
func (c *Cohort) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate проверяет поля, не требующие внешних зависимостей.
// Cron-выражение проверяется в пакете scheduler.
func (c *Cohort) Validate() error {
	if c.Name == "" {
		return ErrCohortName
	}
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("cohort %s: %w", c.Name, ErrCohortWindow)
	}
	if c.TabIndex < 0 {
		return fmt.Errorf("cohort %s: %w", c.Name, ErrCohortTab)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("cohort %s: %w", c.Name, err)
	}
	return nil
}
