package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"dca-lab/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// HTTPSource fetches daily close series from a market-data REST endpoint.
// Expected response for GET {endpoint}/api/v1/history?symbol=X&limit=N:
// a JSON array of {"date":"2006-01-02","close":12345.67}, any order.
type HTTPSource struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// HTTPOption configures HTTPSource.
type HTTPOption func(*HTTPSource)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		s.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) HTTPOption {
	return func(s *HTTPSource) {
		s.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) HTTPOption {
	return func(s *HTTPSource) {
		s.retryDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPSource) {
		s.client = client
	}
}

// NewHTTPSource creates a new REST-backed price source.
func NewHTTPSource(endpoint string, opts ...HTTPOption) *HTTPSource {
	s := &HTTPSource{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Source = (*HTTPSource)(nil)

// historyRow is the wire format of one daily close.
type historyRow struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// GetRecentSeries fetches the trailing limit observations for a symbol with
// retries and exponential backoff.
func (s *HTTPSource) GetRecentSeries(ctx context.Context, symbol string, limit int) ([]*domain.PriceObservation, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	reqURL := fmt.Sprintf("%s/api/v1/history?%s", s.endpoint, q.Encode())

	var lastErr error
	delay := s.retryDelay

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * s.backoffMult)
			if delay > s.maxDelay {
				delay = s.maxDelay
			}
		}

		rows, retryable, err := s.fetch(ctx, reqURL)
		if err == nil {
			return s.toSeries(symbol, rows)
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("fetch history after %d retries: %w", s.maxRetries, lastErr)
}

// fetch performs one request. retryable reports whether the failure is worth
// another attempt (network errors, 5xx, 429).
func (s *HTTPSource) fetch(ctx context.Context, reqURL string) (rows []historyRow, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, true, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retryable, fmt.Errorf("http status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, false, fmt.Errorf("decode history response: %w", err)
	}
	return rows, false, nil
}

// toSeries converts wire rows to a validated, date-sorted series.
func (s *HTTPSource) toSeries(symbol string, rows []historyRow) ([]*domain.PriceObservation, error) {
	series := make([]*domain.PriceObservation, 0, len(rows))
	for i, row := range rows {
		date, err := time.ParseInLocation(domain.DateOnly, row.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("history row %d: parse date %q: %w", i, row.Date, err)
		}
		series = append(series, &domain.PriceObservation{
			Symbol: symbol,
			Date:   date,
			Price:  row.Close,
		})
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Date.Before(series[j].Date)
	})

	if err := domain.ValidateSeries(series); err != nil {
		return nil, fmt.Errorf("history series: %w", err)
	}

	return series, nil
}
