package marketdata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/guttosm/mktabuse/internal/domain/models"
)

// DefaultYahooBaseURL is the public Yahoo Finance query host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// HTTPError is a non-2xx answer from the market data provider.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("market data http %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed when repeated.
func (e *HTTPError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// YahooClient downloads daily history CSVs. Requests are paced by a shared
// limiter and transient failures (network errors, 5xx, 429) are retried with
// exponential backoff.
type YahooClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
	backoff    time.Duration
	log        zerolog.Logger
}

// YahooOption configures a YahooClient.
type YahooOption func(*YahooClient)

// NewYahooClient creates a client for baseURL (DefaultYahooBaseURL when empty).
func NewYahooClient(baseURL string, opts ...YahooOption) *YahooClient {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	c := &YahooClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
		maxRetries: 3,
		backoff:    500 * time.Millisecond,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) YahooOption {
	return func(c *YahooClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithRateLimit paces requests to rps per second.
func WithRateLimit(rps float64) YahooOption {
	return func(c *YahooClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithRetries sets the retry budget and the first backoff step.
func WithRetries(max uint64, backoff time.Duration) YahooOption {
	return func(c *YahooClient) {
		c.maxRetries = max
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) YahooOption {
	return func(c *YahooClient) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) YahooOption {
	return func(c *YahooClient) {
		c.log = l
	}
}

// FetchBars implements abuse.BarSource. The requested period runs from start
// 00:00:00 UTC to end 23:59:59 UTC; bars outside the window are dropped.
func (c *YahooClient) FetchBars(ctx context.Context, instrument string, start, end time.Time) ([]models.PriceBar, error) {
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(periodStart(start).Unix(), 10))
	q.Set("period2", strconv.FormatInt(periodEnd(end).Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")
	q.Set("includeAdjustedClose", "true")
	fullURL := c.baseURL + "/v7/finance/download/" + url.PathEscape(instrument) + "?" + q.Encode()

	var body []byte
	attempt := 0
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		b, err := c.get(ctx, fullURL)
		if err == nil {
			body = b
			return nil
		}
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && !httpErr.Retryable() {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		c.log.Warn().Str("instrument", instrument).Int("attempt", attempt).Err(err).Msg("market data request failed, retrying")
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("download %s history: %w", instrument, err)
	}

	bars, err := ParseBars(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s history: %w", instrument, err)
	}
	bars = inWindow(bars, start, end)
	c.log.Debug().Str("instrument", instrument).Int("bars", len(bars)).Int("attempts", attempt).Msg("market data downloaded")
	return bars, nil
}

func (c *YahooClient) get(ctx context.Context, fullURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")
	req.Header.Set("User-Agent", "mktabuse/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > 256 {
			body = body[:256]
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func periodStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func periodEnd(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, time.UTC)
}
