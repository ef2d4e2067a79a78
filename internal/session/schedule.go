package session

import (
	"errors"

	"github.com/shaiso/tweetsched/internal/domain"
)

// Candidate — строка таблицы, прошедшая валидацию.
type Candidate struct {
	// Row — номер строки в таблице (с нуля).
	Row int

	// Text — текст поста после обрезки пробелов справа.
	Text string
}

// Rejection — строка, отброшенная при валидации.
type Rejection struct {
	Row  int
	Text string
	Err  error
}

// SelectCandidates берёт первую ячейку каждой строки,
// обрезает пробелы справа и отбрасывает пустые и слишком длинные.
// Порядок строк сохраняется.
func SelectCandidates(rows [][]string) ([]Candidate, []Rejection) {
	var candidates []Candidate
	var rejected []Rejection

	for i, row := range rows {
		var text string
		if len(row) > 0 {
			text = domain.NormalizeText(row[0])
		}

		if err := domain.ValidateText(text); err != nil {
			rejected = append(rejected, Rejection{Row: i, Text: text, Err: err})
			continue
		}

		candidates = append(candidates, Candidate{Row: i, Text: text})
	}

	return candidates, rejected
}

// Interval вычисляет шаг между постами: floor(window / n) секунд.
// Для n <= 0 или window <= 0 возвращает 0.
func Interval(windowSeconds int64, n int) int64 {
	if n <= 0 || windowSeconds <= 0 {
		return 0
	}
	return windowSeconds / int64(n)
}

// ComputeSchedule назначает i-му кандидату время start + i*interval.
//
// Расписание неубывающее, начинается в start, последний пост —
// через (n-1)*floor(window/n) секунд после первого.
func ComputeSchedule(candidates []Candidate, windowSeconds, start int64) []domain.ScheduledPost {
	if len(candidates) == 0 {
		return nil
	}

	interval := Interval(windowSeconds, len(candidates))
	posts := make([]domain.ScheduledPost, len(candidates))
	for i, c := range candidates {
		posts[i] = domain.ScheduledPost{
			Text:        c.Text,
			ScheduledAt: start + int64(i)*interval,
			Type:        domain.MessageTypeSchedule,
		}
	}
	return posts
}

// isTooLong различает причины отказа для логов и метрик.
func isTooLong(err error) bool {
	return errors.Is(err, domain.ErrTextTooLong)
}
