package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var testCreds = TwitterCredentials{
	ConsumerKey:       "ck",
	ConsumerSecret:    "cs",
	AccessToken:       "at",
	AccessTokenSecret: "as",
}

func newTestTwitter(t *testing.T, url string) *Twitter {
	t.Helper()
	tw, err := NewTwitter(TwitterConfig{Credentials: testCreds, BaseURL: url, Timeout: time.Second})
	if err != nil {
		t.Fatalf("new twitter: %v", err)
	}
	return tw
}

func TestTwitter_Publish_Success(t *testing.T) {
	var receivedText string
	var authHeader string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/2/tweets" {
			t.Errorf("expected /2/tweets, got %s", r.URL.Path)
		}
		authHeader = r.Header.Get("Authorization")

		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		receivedText = req["text"]

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data": {"id": "1", "text": "hello"}}`))
	}))
	defer server.Close()

	if err := newTestTwitter(t, server.URL).Publish(context.Background(), "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receivedText != "hello" {
		t.Errorf("expected text hello, got %q", receivedText)
	}
	// Запрос подписан OAuth 1.0a
	if !strings.HasPrefix(authHeader, "OAuth ") || !strings.Contains(authHeader, `oauth_consumer_key="ck"`) {
		t.Errorf("expected OAuth1 authorization header, got %q", authHeader)
	}
}

func TestTwitter_Publish_ErrorClasses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"duplicate", http.StatusForbidden, `{"detail": "You are not allowed to create a Tweet with duplicate content."}`, ErrRejected},
		{"bad request", http.StatusBadRequest, `{"errors": [{"message": "text too long"}]}`, ErrRejected},
		{"unauthorized", http.StatusUnauthorized, `{"title": "Unauthorized"}`, ErrPublish},
		{"rate limited", http.StatusTooManyRequests, `{"title": "Too Many Requests"}`, ErrPublish},
		{"server error", http.StatusServiceUnavailable, `oops`, ErrPublish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := newTestTwitter(t, server.URL).Publish(context.Background(), "x")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestTwitter_Publish_DetailInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail": "duplicate content"}`))
	}))
	defer server.Close()

	err := newTestTwitter(t, server.URL).Publish(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "duplicate content") {
		t.Errorf("error should carry API detail, got %v", err)
	}
}

func TestTwitter_Publish_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	err := newTestTwitter(t, url).Publish(context.Background(), "x")
	if !errors.Is(err, ErrPublish) {
		t.Fatalf("expected ErrPublish for transport error, got %v", err)
	}
}

func TestNewTwitter_MissingCredentials(t *testing.T) {
	_, err := NewTwitter(TwitterConfig{Credentials: TwitterCredentials{ConsumerKey: "ck"}})
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}
	if !strings.Contains(err.Error(), "access_token_secret") {
		t.Errorf("error should list missing keys, got %v", err)
	}
}

func TestNewTelegram_Validation(t *testing.T) {
	if _, err := NewTelegram(TelegramConfig{ChatID: 1}); err == nil {
		t.Error("expected error for missing token")
	}
	if _, err := NewTelegram(TelegramConfig{Token: "t"}); err == nil {
		t.Error("expected error for missing chat id")
	}
}

func TestDryRun(t *testing.T) {
	if err := NewDryRun(nil).Publish(context.Background(), "x"); err != nil {
		t.Errorf("dry run should never fail: %v", err)
	}
}

type countingPublisher struct{ calls int }

func (c *countingPublisher) Publish(context.Context, string) error {
	c.calls++
	return nil
}

func TestNewRateLimited(t *testing.T) {
	inner := &countingPublisher{}

	// Без лимита возвращается исходный Publisher
	if p := NewRateLimited(inner, 0); p != Publisher(inner) {
		t.Error("zero rate should return the wrapped publisher")
	}

	p := NewRateLimited(inner, 60)
	if err := p.Publish(context.Background(), "a"); err != nil {
		t.Fatalf("first publish should pass immediately: %v", err)
	}

	// Второй вызов ждёт токен ~1s, контекст истекает раньше
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.Publish(ctx, "b"); !errors.Is(err, ErrPublish) {
		t.Errorf("expected ErrPublish when limiter wait is cancelled, got %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call to wrapped publisher, got %d", inner.calls)
	}
}
