// Package scheduler запускает Scheduling Session по расписанию когорт.
//
// Каждая активная когорта — отдельная запись robfig/cron со своим
// cron-выражением и часовым поясом. Срабатывание вызывает Runner.Run
// (обычно *session.Session). Пока сессия когорты не завершилась,
// её следующее срабатывание пропускается; разные когорты
// выполняются независимо.
//
// Структура:
//   - scheduler.go — регистрация когорт, запуск сессий, метрики
//   - cron.go      — парсинг cron-выражений и вычисление срабатываний
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Runner:  sess,
//	    Cohorts: cfg.Cohorts,
//	    Logger:  logger,
//	})
//	sched.Start(ctx)
//	defer sched.Stop()
//
// Ошибки сессии (включая отсутствие валидных постов) логируются
// и считаются в tweetsched_session_runs_total, но не останавливают
// планировщик.
package scheduler
