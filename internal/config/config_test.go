package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const testCohorts = `
cohorts:
  - name: nightly
    cron: "0 15 * * *"
    window_seconds: 14400
    tab: 0
  - name: morning
    cron: "0 4 * * *"
    timezone: Europe/Moscow
    window_seconds: 7200
    tab: 1
    sheet_key: other-sheet
`

func writeCohorts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cohorts.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write cohorts: %v", err)
	}
	return path
}

func TestLoadWith_Defaults(t *testing.T) {
	path := writeCohorts(t, testCohorts)

	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}), Options{CohortsFile: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Queue.Backend != BackendRabbitMQ {
		t.Errorf("expected rabbitmq backend, got %s", cfg.Queue.Backend)
	}
	if cfg.Queue.Name != "tweet-processor" {
		t.Errorf("expected queue tweet-processor, got %s", cfg.Queue.Name)
	}
	if cfg.Queue.VisibilityTimeout != 30*time.Second {
		t.Errorf("expected visibility 30s, got %s", cfg.Queue.VisibilityTimeout)
	}
	if cfg.RabbitMQ.MaxDelay != 5*time.Minute {
		t.Errorf("expected max delay 5m, got %s", cfg.RabbitMQ.MaxDelay)
	}
	if !cfg.RabbitMQ.Declare || !cfg.Queue.Create {
		t.Error("declare and create should default to true")
	}
	if cfg.Publisher.Kind != PublisherDryRun {
		t.Errorf("expected dry-run publisher, got %s", cfg.Publisher.Kind)
	}
	if cfg.Publisher.RetryDelay != 60*time.Second {
		t.Errorf("expected retry delay 60s, got %s", cfg.Publisher.RetryDelay)
	}
	if len(cfg.Cohorts) != 2 {
		t.Fatalf("expected 2 cohorts, got %d", len(cfg.Cohorts))
	}

	morning, ok := cfg.Cohort("morning")
	if !ok {
		t.Fatal("morning cohort not found")
	}
	if morning.TabIndex != 1 || morning.WindowSeconds != 7200 || morning.SheetKey != "other-sheet" {
		t.Errorf("unexpected morning cohort %+v", morning)
	}
	if _, ok := cfg.Cohort("missing"); ok {
		t.Error("unknown cohort should not be found")
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	path := writeCohorts(t, testCohorts)
	env := envconfig.MapLookuper(map[string]string{
		"QUEUE_BACKEND":            "postgres",
		"DB_URL":                   "postgres://localhost/x",
		"QUEUE_VISIBILITY_TIMEOUT": "45s",
		"PUBLISHER":                "telegram",
		"TELEGRAM_CHAT_ID":         "-100123",
		"PUBLISH_RATE":             "30",
		"REDIS_DB":                 "3",
	})

	cfg, err := LoadWith(context.Background(), env, Options{CohortsFile: path})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Queue.Backend != BackendPostgres || cfg.Postgres.URL != "postgres://localhost/x" {
		t.Errorf("unexpected queue config %+v", cfg.Queue)
	}
	if cfg.Queue.VisibilityTimeout != 45*time.Second {
		t.Errorf("expected 45s, got %s", cfg.Queue.VisibilityTimeout)
	}
	if cfg.Telegram.ChatID != -100123 {
		t.Errorf("expected chat id -100123, got %d", cfg.Telegram.ChatID)
	}
	if cfg.Publisher.Rate != 30 {
		t.Errorf("expected rate 30, got %d", cfg.Publisher.Rate)
	}
	if cfg.Redis.DB != 3 {
		t.Errorf("expected redis db 3, got %d", cfg.Redis.DB)
	}
}

func TestLoadWith_SkipCohorts(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"COHORTS_FILE": "/does/not/exist.yaml",
	}), Options{SkipCohorts: true})
	if err != nil {
		t.Fatalf("dispatcher config should not need cohorts: %v", err)
	}
	if len(cfg.Cohorts) != 0 {
		t.Errorf("expected no cohorts, got %d", len(cfg.Cohorts))
	}
}

func TestLoadWith_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		cohorts string
		want    string
	}{
		{"unknown backend", map[string]string{"QUEUE_BACKEND": "kafka"}, testCohorts, "QUEUE_BACKEND"},
		{"unknown publisher", map[string]string{"PUBLISHER": "mastodon"}, testCohorts, "PUBLISHER"},
		{"postgres without url", map[string]string{"QUEUE_BACKEND": "postgres"}, testCohorts, "DB_URL"},
		{"negative rate", map[string]string{"PUBLISH_RATE": "-1"}, testCohorts, "PUBLISH_RATE"},
		{"bad cron", nil, "cohorts:\n  - name: a\n    cron: nope\n    window_seconds: 10\n", "cron"},
		{"zero window", nil, "cohorts:\n  - name: a\n    cron: \"0 1 * * *\"\n    window_seconds: 0\n", "window"},
		{"bad timezone", nil, "cohorts:\n  - name: a\n    cron: \"0 1 * * *\"\n    timezone: Nowhere/City\n    window_seconds: 10\n", "timezone"},
		{"duplicate", nil, "cohorts:\n  - {name: a, cron: \"0 1 * * *\", window_seconds: 1}\n  - {name: a, cron: \"0 2 * * *\", window_seconds: 1}\n", "duplicate"},
		{"unknown field", nil, "cohorts:\n  - name: a\n    cron: \"0 1 * * *\"\n    window: 10\n", "window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCohorts(t, tt.cohorts)
			env := tt.env
			if env == nil {
				env = map[string]string{}
			}

			_, err := LoadWith(context.Background(), envconfig.MapLookuper(env), Options{CohortsFile: path})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestParseCohorts_Empty(t *testing.T) {
	cohorts, err := ParseCohorts(nil)
	if err != nil {
		t.Fatalf("empty file should parse: %v", err)
	}
	if len(cohorts) != 0 {
		t.Errorf("expected no cohorts, got %d", len(cohorts))
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	content := "TWEETSCHED_TEST_MARKER=from-file\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("TWEETSCHED_TEST_MARKER") })

	if err := loadEnvFile(envPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("TWEETSCHED_TEST_MARKER"); got != "from-file" {
		t.Errorf("expected variable from env file, got %q", got)
	}

	if err := loadEnvFile(filepath.Join(dir, "missing.env")); err == nil {
		t.Error("explicit missing env file should be an error")
	}
}
