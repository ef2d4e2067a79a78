// Package sheets читает строки листа Google Sheets.
//
// Лист адресуется ключом таблицы и индексом вкладки (с нуля).
// Индекс переводится в название через метаданные таблицы,
// затем значения читаются целиком как отформатированные строки.
package sheets
