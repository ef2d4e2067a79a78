package sheets

import "errors"

var (
	// ErrSpreadsheetNotFound — таблица не существует или нет доступа.
	ErrSpreadsheetNotFound = errors.New("spreadsheet not found")

	// ErrWorksheetNotFound — в таблице нет листа с таким индексом.
	ErrWorksheetNotFound = errors.New("worksheet not found")
)
