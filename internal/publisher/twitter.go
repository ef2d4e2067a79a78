package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
)

// DefaultTwitterURL — базовый URL Twitter API.
const DefaultTwitterURL = "https://api.twitter.com"

// TwitterCredentials — ключи OAuth 1.0a (user context).
type TwitterCredentials struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessToken       string
	AccessTokenSecret string
}

// Validate проверяет, что все ключи заданы.
func (c TwitterCredentials) Validate() error {
	var missing []string
	if c.ConsumerKey == "" {
		missing = append(missing, "consumer_key")
	}
	if c.ConsumerSecret == "" {
		missing = append(missing, "consumer_secret")
	}
	if c.AccessToken == "" {
		missing = append(missing, "access_token")
	}
	if c.AccessTokenSecret == "" {
		missing = append(missing, "access_token_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("twitter credentials missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Twitter публикует посты через Twitter API v2.
type Twitter struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// TwitterConfig — конфигурация Twitter.
type TwitterConfig struct {
	Credentials TwitterCredentials

	// BaseURL — базовый URL API (default: https://api.twitter.com).
	BaseURL string

	// Timeout — таймаут запроса (default: 30s).
	Timeout time.Duration

	Logger *slog.Logger
}

// NewTwitter создаёт клиент Twitter.
func NewTwitter(cfg TwitterConfig) (*Twitter, error) {
	if err := cfg.Credentials.Validate(); err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultTwitterURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	creds := cfg.Credentials
	config := oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)

	httpClient := config.Client(oauth1.NoContext, token)
	httpClient.Timeout = timeout

	return &Twitter{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
	}, nil
}

type createTweetRequest struct {
	Text string `json:"text"`
}

type createTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// twitterError — тело ответа с ошибкой (problem+json или errors[]).
type twitterError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (e twitterError) String() string {
	if e.Detail != "" {
		return e.Detail
	}
	if len(e.Errors) > 0 {
		return e.Errors[0].Message
	}
	return e.Title
}

// Publish публикует твит.
func (t *Twitter) Publish(ctx context.Context, text string) error {
	payload, err := json.Marshal(createTweetRequest{Text: text})
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", ErrPublish, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/2/tweets", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrPublish, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrPublish, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var created createTweetResponse
		if err := json.Unmarshal(body, &created); err != nil {
			t.logger.Warn("unexpected twitter response", "body", string(body), "error", err)
			return nil
		}
		t.logger.Debug("tweet created", "tweet_id", created.Data.ID)
		return nil
	}

	var apiErr twitterError
	_ = json.Unmarshal(body, &apiErr)
	detail := apiErr.String()
	if detail == "" {
		detail = strings.TrimSpace(string(body))
	}

	t.logger.Error("error sending tweet",
		"status", resp.StatusCode,
		"detail", detail,
	)

	return fmt.Errorf("%w: twitter status %d: %s", classifyStatus(resp.StatusCode), resp.StatusCode, detail)
}

// classifyStatus: 4xx — окончательный отказ, кроме 401 (ключи можно
// исправить без потери постов), 408 и 429. Остальное — временный сбой.
// Дубликат твита Twitter возвращает как 403.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized,
		status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests:
		return ErrPublish
	case status >= 400 && status < 500:
		return ErrRejected
	default:
		return ErrPublish
	}
}
