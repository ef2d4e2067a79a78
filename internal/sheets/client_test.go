package sheets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestServer отдаёт метаданные таблицы "KEY" с двумя вкладками.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		switch {
		case !strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/KEY"):
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": {"code": 404, "message": "Requested entity was not found.", "status": "NOT_FOUND"}}`))

		case strings.Contains(r.URL.Path, "/values/"):
			rng := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/KEY/values/")
			switch rng {
			case "'Posts'":
				w.Write([]byte(`{"range": "Posts!A1:B4", "majorDimension": "ROWS", "values": [["first", "x"], [], ["  second  "], [42]]}`))
			case "'Bob''s tab'":
				w.Write([]byte(`{"range": "x", "majorDimension": "ROWS", "values": [["quoted"]]}`))
			default:
				t.Errorf("unexpected range %q", rng)
				w.WriteHeader(http.StatusBadRequest)
			}

		default:
			w.Write([]byte(`{"sheets": [
				{"properties": {"title": "Posts", "index": 0}},
				{"properties": {"title": "Bob's tab", "index": 1}}
			]}`))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(context.Background(), Config{Endpoint: url + "/", HTTPClient: http.DefaultClient})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestReadSheet(t *testing.T) {
	c := newTestClient(t, newTestServer(t).URL)

	rows, err := c.ReadSheet(context.Background(), "KEY", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d: %v", len(rows), rows)
	}
	if rows[0][0] != "first" || len(rows[0]) != 2 {
		t.Errorf("unexpected first row %v", rows[0])
	}
	if len(rows[1]) != 0 {
		t.Errorf("blank row should have zero cells, got %v", rows[1])
	}
	// Ячейки не обрезаются: нормализация — забота вызывающего
	if rows[2][0] != "  second  " {
		t.Errorf("cell should be returned as is, got %q", rows[2][0])
	}
	if rows[3][0] != "42" {
		t.Errorf("numeric cell should be rendered as string, got %q", rows[3][0])
	}
}

func TestReadSheet_QuotedTitle(t *testing.T) {
	c := newTestClient(t, newTestServer(t).URL)

	rows, err := c.ReadSheet(context.Background(), "KEY", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0][0] != "quoted" {
		t.Errorf("unexpected rows %v", rows)
	}
}

func TestReadSheet_SpreadsheetNotFound(t *testing.T) {
	c := newTestClient(t, newTestServer(t).URL)

	_, err := c.ReadSheet(context.Background(), "MISSING", 0)
	if !errors.Is(err, ErrSpreadsheetNotFound) {
		t.Fatalf("expected ErrSpreadsheetNotFound, got %v", err)
	}
}

func TestReadSheet_WorksheetNotFound(t *testing.T) {
	c := newTestClient(t, newTestServer(t).URL)

	_, err := c.ReadSheet(context.Background(), "KEY", 5)
	if !errors.Is(err, ErrWorksheetNotFound) {
		t.Fatalf("expected ErrWorksheetNotFound, got %v", err)
	}
}

func TestNew_RequiresCredentials(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Error("expected error without credentials")
	}
}

func TestQuoteTitle(t *testing.T) {
	tests := map[string]string{
		"Sheet1":    "'Sheet1'",
		"My Sheet":  "'My Sheet'",
		"Bob's tab": "'Bob''s tab'",
	}
	for in, want := range tests {
		if got := quoteTitle(in); got != want {
			t.Errorf("quoteTitle(%q) = %q, want %q", in, got, want)
		}
	}
}
