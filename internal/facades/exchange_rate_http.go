package facades

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/logger"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

// ExchangeRatesHTTPFacade reads published rates from an exchangeratesapi-style
// HTTP API: GET {baseURL}/{date|latest}?base=USD&symbols=EUR.
type ExchangeRatesHTTPFacade struct {
	client    *retryablehttp.Client
	baseURL   string
	accessKey string
}

// NewExchangeRatesHTTPFacade creates a facade retrying transient failures up to retries times.
func NewExchangeRatesHTTPFacade(baseURL, accessKey string, timeout time.Duration, retries int) *ExchangeRatesHTTPFacade {
	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.HTTPClient.Timeout = timeout
	client.Logger = retryLogger{}

	return &ExchangeRatesHTTPFacade{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessKey: accessKey,
	}
}

type ratesResponse struct {
	Base  string                     `json:"base"`
	Date  string                     `json:"date"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// GetRate fetches the base->currency rate published on date.
func (f *ExchangeRatesHTTPFacade) GetRate(ctx context.Context, base, currency, date string) (models.RateSnapshot, error) {
	q := url.Values{}
	q.Set("base", base)
	q.Set("symbols", currency)
	if f.accessKey != "" {
		q.Set("access_key", f.accessKey)
	}
	endpoint := fmt.Sprintf("%s/%s?%s", f.baseURL, url.PathEscape(date), q.Encode())

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.RateSnapshot{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		logger.Log.Errorw("failed to fetch exchange rate via HTTP", "base", base, "currency", currency, "date", date, "error", err)
		return models.RateSnapshot{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.RateSnapshot{}, fmt.Errorf("rates api returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.RateSnapshot{}, fmt.Errorf("decode rates response: %w", err)
	}

	rate, ok := payload.Rates[currency]
	if !ok {
		return models.RateSnapshot{}, fmt.Errorf("rates api has no rate for %s", currency)
	}

	return models.RateSnapshot{Base: base, Currency: currency, Rate: rate, Date: payload.Date}, nil
}

// retryLogger routes retryablehttp messages to the service logger.
type retryLogger struct{}

func (retryLogger) Error(msg string, kv ...interface{}) { logger.Log.Errorw(msg, kv...) }
func (retryLogger) Info(msg string, kv ...interface{})  { logger.Log.Debugw(msg, kv...) }
func (retryLogger) Debug(msg string, kv ...interface{}) { logger.Log.Debugw(msg, kv...) }
func (retryLogger) Warn(msg string, kv ...interface{})  { logger.Log.Warnw(msg, kv...) }
