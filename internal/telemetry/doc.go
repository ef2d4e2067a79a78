// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики
//   - http.go    — /healthz и /metrics для демонов
//
// Все сервисы используют единый формат логирования
// и экспортируют метрики на /metrics endpoint.
package telemetry
