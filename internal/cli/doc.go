// Package cli реализует инструмент командной строки tweetsched.
//
// # Обзор
//
// CLI выполняет разовые операции над тем же стеком, что и демоны:
// ручной запуск Scheduling Session, постановку поста в очередь,
// просмотр когорт и подготовку очереди. Зависимости собираются
// пакетом bootstrap из той же конфигурации (окружение, .env, файл когорт).
//
// # Ключевые компоненты
//
// ## Env
//
// Загруженная конфигурация, логгер, часы и ленивые фабрики внешних
// ресурсов (очередь, Google Sheets, provisioning). Команда открывает
// только то, что ей нужно: schedule --dry-run не подключается к очереди,
// cohorts не трогает сеть вовсе.
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) и логи — в stderr.
// Это позволяет использовать pipe: tweetsched cohorts --json | jq .
//
// ## Commands
//
//   - schedule --cohort NAME [--dry-run] — Scheduling Session сейчас
//   - post TEXT — PROCESS_TWEET, публикация при первой доставке
//   - cohorts — когорты и ближайшие срабатывания
//   - topology — создание очереди в выбранном бэкенде
//
// Каждая команда создаётся фабричной функцией (NewScheduleCmd и т.д.),
// принимающей envFn и outputFn — замыкания для ленивого создания
// Env и Output после парсинга PersistentFlags.
package cli
