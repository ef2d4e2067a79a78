package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// Client читает листы Google Sheets.
type Client struct {
	service *gsheets.Service
	logger  *slog.Logger
}

// Config — конфигурация Client.
type Config struct {
	// CredentialsFile — путь к JSON ключу service account.
	CredentialsFile string

	// CredentialsJSON — JSON ключ service account (приоритетнее файла).
	CredentialsJSON string

	// Endpoint — адрес API. Если задан, запросы идут без авторизации
	// через HTTPClient (локальные стенды и тесты).
	Endpoint   string
	HTTPClient *http.Client

	Logger *slog.Logger
}

// New создаёт Client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.ClientOption{
		option.WithScopes(gsheets.SpreadsheetsReadonlyScope),
	}

	switch {
	case cfg.Endpoint != "":
		httpClient := cfg.HTTPClient
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		opts = append(opts,
			option.WithEndpoint(cfg.Endpoint),
			option.WithHTTPClient(httpClient),
		)
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	default:
		return nil, errors.New("google credentials are required")
	}

	service, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		service: service,
		logger:  logger,
	}, nil
}

// ReadSheet возвращает все строки вкладки tab таблицы key.
// Пустые ячейки в конце строки API не возвращает, поэтому строки
// могут быть разной длины, в том числе нулевой.
func (c *Client) ReadSheet(ctx context.Context, key string, tab int) ([][]string, error) {
	title, err := c.worksheetTitle(ctx, key, tab)
	if err != nil {
		return nil, err
	}

	resp, err := c.service.Spreadsheets.Values.Get(key, quoteTitle(title)).
		ValueRenderOption("FORMATTED_VALUE").
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, wrapAPIError(key, err)
	}

	rows := toStrings(resp.Values)

	c.logger.Debug("sheet read",
		"sheet_key", key,
		"tab", tab,
		"title", title,
		"rows", len(rows),
	)

	return rows, nil
}

// worksheetTitle возвращает название вкладки по индексу.
func (c *Client) worksheetTitle(ctx context.Context, key string, tab int) (string, error) {
	ss, err := c.service.Spreadsheets.Get(key).
		Fields("sheets(properties(title,index))").
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapAPIError(key, err)
	}

	for _, sheet := range ss.Sheets {
		if sheet.Properties != nil && int(sheet.Properties.Index) == tab {
			return sheet.Properties.Title, nil
		}
	}

	return "", fmt.Errorf("%w: spreadsheet %s has no tab %d", ErrWorksheetNotFound, key, tab)
}

// wrapAPIError переводит 404 в ErrSpreadsheetNotFound.
func wrapAPIError(key string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrSpreadsheetNotFound, key)
	}
	return fmt.Errorf("read spreadsheet %s: %w", key, err)
}

// quoteTitle превращает название вкладки в диапазон A1-нотации.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// toStrings приводит значения ячеек к строкам.
func toStrings(values [][]any) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			if v != nil {
				cells[j] = fmt.Sprint(v)
			}
		}
		rows[i] = cells
	}
	return rows
}
