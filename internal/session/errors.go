package session

import "errors"

// Ошибки сессии.
var (
	// ErrNoCandidates — после валидации не осталось ни одного поста.
	// Для запуска это фатальная ошибка, а не пустой успех.
	ErrNoCandidates = errors.New("no valid candidates to schedule")

	// ErrNoSheetKey — у когорты и в конфигурации не задан ключ таблицы.
	ErrNoSheetKey = errors.New("sheet key is not configured")
)
