// Package session реализует Scheduling Session.
//
// Session читает вкладку таблицы, отбрасывает некорректные строки
// и ставит в очередь по одному сообщению на пост. Посты распределяются
// равномерно по окну когорты:
//
//	interval = floor(window / n)
//	at[i]    = start + i*interval
//
// Структура:
//   - schedule.go — чистые функции: отбор кандидатов и расчёт времени
//   - session.go  — Session.Run (чтение таблицы, отправка в очередь)
//   - errors.go   — ошибки сессии
//
// Использование:
//
//	s := session.New(session.Config{
//	    Sheets: sheetsClient,
//	    Queue:  delayQueue,
//	    Logger: logger,
//	})
//
//	report, err := s.Run(ctx, cohort)
//	if errors.Is(err, session.ErrNoCandidates) {
//	    os.Exit(1)
//	}
//
// Отправка не транзакционна: если очередь упала посреди цикла,
// уже отправленные сообщения остаются в очереди.
package session
