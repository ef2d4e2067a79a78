package repo

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Коды ошибок PostgreSQL.
const (
	codeUndefinedTable = "42P01"
)

// isUndefinedTable проверяет, что запрос упал из-за отсутствующей таблицы.
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUndefinedTable
}
