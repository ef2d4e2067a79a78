package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/tweetsched/internal/domain"
)

// cronParser — парсер cron-выражений.
// Формат: "минуты часы дни месяцы дни_недели", без секунд.
// Дескрипторы вида @daily тоже допускаются.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	_, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}

// parseCohortSchedule разбирает расписание когорты с учётом её timezone.
func parseCohortSchedule(cohort *domain.Cohort) (cron.Schedule, error) {
	loc, err := cohort.Location()
	if err != nil {
		return nil, err
	}

	schedule, err := cronParser.Parse(cohort.CronExpr)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", cohort.CronExpr, err)
	}

	return &locatedSchedule{schedule: schedule, loc: loc}, nil
}

// locatedSchedule вычисляет срабатывания в часовом поясе когорты.
type locatedSchedule struct {
	schedule cron.Schedule
	loc      *time.Location
}

func (s *locatedSchedule) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.loc))
}

// NextFires возвращает n ближайших срабатываний когорты после from (в UTC).
func NextFires(cohort *domain.Cohort, from time.Time, n int) ([]time.Time, error) {
	schedule, err := parseCohortSchedule(cohort)
	if err != nil {
		return nil, err
	}

	fires := make([]time.Time, 0, n)
	next := from
	for range n {
		next = schedule.Next(next)
		if next.IsZero() {
			break
		}
		fires = append(fires, next.UTC())
	}
	return fires, nil
}
