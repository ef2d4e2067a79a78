package repo

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/shaiso/tweetsched/internal/queue"
)

func TestParseReceipt(t *testing.T) {
	id := uuid.New()

	got, err := parseReceipt(id.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != id {
		t.Errorf("expected %s, got %s", id, got)
	}

	for _, bad := range []string{"", "receipt-1", "123"} {
		if _, err := parseReceipt(bad); !errors.Is(err, queue.ErrReceiptNotFound) {
			t.Errorf("parseReceipt(%q): expected ErrReceiptNotFound, got %v", bad, err)
		}
	}
}

func TestSeconds(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want float64
	}{
		{-time.Second, 0},
		{0, 0},
		{1500 * time.Millisecond, 1.5},
		{100 * time.Second, 100},
	}

	for _, tt := range tests {
		if got := seconds(tt.d); got != tt.want {
			t.Errorf("seconds(%s) = %v, want %v", tt.d, got, tt.want)
		}
	}
}

func TestIsUndefinedTable(t *testing.T) {
	undefined := fmt.Errorf("query: %w", &pgconn.PgError{Code: "42P01"})
	if !isUndefinedTable(undefined) {
		t.Error("expected undefined table to be detected through wrapping")
	}
	if isUndefinedTable(&pgconn.PgError{Code: "23505"}) {
		t.Error("unique violation is not undefined table")
	}
	if isUndefinedTable(errors.New("boom")) {
		t.Error("plain error is not undefined table")
	}
}

func TestSchemaSQL(t *testing.T) {
	for _, want := range []string{"CREATE TABLE IF NOT EXISTS queues", "CREATE TABLE IF NOT EXISTS queue_messages", "visible_at", "receipt"} {
		if !strings.Contains(schemaSQL, want) {
			t.Errorf("schema should contain %q", want)
		}
	}
}
