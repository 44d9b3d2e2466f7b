// Package jupiter fetches token lists and one-minute charts from the Jupiter data API.
package jupiter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"graduation-lab/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL      = "https://datapi.jup.ag"
	DefaultChartTimeout = 10 * time.Second
	DefaultStatsTimeout = 15 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = 1 * time.Second
	DefaultMaxDelay     = 10 * time.Second
	DefaultBackoffMult  = 2.0
	DefaultRPS          = 5.0

	// MaxLiveCandles caps the history fetched for a live token.
	MaxLiveCandles = 301
)

const (
	statsPath = "/v1/dev/stats/{dev}"
	chartPath = "/v2/charts/{mint}"
)

// ErrCircuitOpen is returned while the breaker rejects requests.
var ErrCircuitOpen = errors.New("jupiter: circuit open")

// APIError is a non-2xx response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jupiter: unexpected status %d: %s", e.Status, e.Body)
}

// retryable reports whether a failed status may succeed on retry.
func (e *APIError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// FetchObserver receives one callback per completed request.
type FetchObserver interface {
	ObserveFetch(endpoint string, elapsed time.Duration, err error)
}

// Client talks to the Jupiter data API.
type Client struct {
	http         *resty.Client
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker
	observer     FetchObserver
	chartTimeout time.Duration
	statsTimeout time.Duration
	maxRetries   int
	retryDelay   time.Duration
	maxDelay     time.Duration
	backoffMult  float64
	now          func() time.Time
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithRPS sets the request rate. Zero or negative disables pacing.
func WithRPS(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithTimeouts sets per-request timeouts for chart and stats calls.
func WithTimeouts(chart, stats time.Duration) ClientOption {
	return func(c *Client) {
		c.chartTimeout = chart
		c.statsTimeout = stats
	}
}

// WithObserver registers a fetch observer.
func WithObserver(o FetchObserver) ClientOption {
	return func(c *Client) {
		c.observer = o
	}
}

// WithClock sets the clock used when a chart request has no end time.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a client for baseURL. Empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		http:         resty.New().SetBaseURL(baseURL).SetHeaders(browserHeaders),
		limiter:      rate.NewLimiter(rate.Limit(DefaultRPS), 1),
		chartTimeout: DefaultChartTimeout,
		statsTimeout: DefaultStatsTimeout,
		maxRetries:   DefaultMaxRetries,
		retryDelay:   DefaultRetryDelay,
		maxDelay:     DefaultMaxDelay,
		backoffMult:  DefaultBackoffMult,
		now:          time.Now,
	}
	c.breaker = newBreaker("jupiter")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// The API rejects requests without a browser origin.
var browserHeaders = map[string]string{
	"Accept":          "application/json",
	"Accept-Language": "en-US,en;q=0.9",
	"Origin":          "https://jup.ag",
	"Referer":         "https://jup.ag/",
	"Sec-Fetch-Dest":  "empty",
	"Sec-Fetch-Mode":  "cors",
	"Sec-Fetch-Site":  "same-site",
	"User-Agent":      "Mozilla/5.0 (Linux; Android 6.0; Nexus 5 Build/MRA58N) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Mobile Safari/537.36",
}

// newBreaker trips after three consecutive failures or a 5% failure rate
// over at least 20 requests.
func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			if counts.Requests < 20 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
		},
		// Client errors say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.retryable()
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

// TopTokens returns one page of tokens launched through the dev address.
func (c *Client) TopTokens(ctx context.Context, dev string, limit, offset int) ([]TokenInfo, error) {
	if dev == "" {
		return nil, fmt.Errorf("jupiter: empty dev address")
	}
	req := request{
		endpoint: "stats",
		path:     statsPath,
		pathKey:  "dev",
		pathVal:  dev,
		timeout:  c.statsTimeout,
		query: map[string]string{
			"limit":  strconv.Itoa(limit),
			"offset": strconv.Itoa(offset),
		},
	}

	var resp statsResponse
	if err := c.get(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("top tokens offset %d: %w", offset, err)
	}
	return resp.TopTokens, nil
}

// Candles returns count one-minute candles ending at to, oldest first.
// A zero to means now.
func (c *Client) Candles(ctx context.Context, mint string, chart domain.ChartType, count int, to time.Time) ([]domain.Candle, error) {
	if !chart.IsValid() {
		return nil, fmt.Errorf("jupiter: invalid chart type %q", chart)
	}
	if count <= 0 {
		return nil, fmt.Errorf("jupiter: candle count must be positive, got %d", count)
	}
	if to.IsZero() {
		to = c.now()
	}
	req := request{
		endpoint: "chart_" + chart.String(),
		path:     chartPath,
		pathKey:  "mint",
		pathVal:  mint,
		timeout:  c.chartTimeout,
		query: map[string]string{
			"interval": "1_MINUTE",
			"to":       strconv.FormatInt(to.UnixMilli(), 10),
			"candles":  strconv.Itoa(count),
			"type":     chart.String(),
			"quote":    "usd",
		},
	}

	var resp chartResponse
	if err := c.get(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("%s candles for %s: %w", chart, mint, err)
	}

	out := make([]domain.Candle, len(resp.Candles))
	for i, cc := range resp.Candles {
		out[i] = domain.Candle{
			Time:   cc.Time,
			Open:   cc.Open,
			High:   cc.High,
			Low:    cc.Low,
			Close:  cc.Close,
			Volume: cc.Volume,
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

// CandleCount is the history requested for a token of the given age.
func CandleCount(minutesAgo float64) int {
	if minutesAgo < 0 {
		minutesAgo = 0
	}
	return int(math.Min(MaxLiveCandles, math.Floor(minutesAgo)+60))
}

type request struct {
	endpoint string
	path     string
	pathKey  string
	pathVal  string
	timeout  time.Duration
	query    map[string]string
}

// get performs a paced GET with retries and exponential backoff.
func (c *Client) get(ctx context.Context, r request, out any) error {
	start := time.Now()
	err := c.getWithRetry(ctx, r, out)
	if c.observer != nil {
		c.observer.ObserveFetch(r.endpoint, time.Since(start), err)
	}
	return err
}

func (c *Client) getWithRetry(ctx context.Context, r request, out any) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		body, err := c.breaker.Execute(func() (interface{}, error) {
			return c.do(ctx, r)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return ErrCircuitOpen
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) && !apiErr.retryable() {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}

		if err := json.Unmarshal(body.([]byte), out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := c.http.R().
		SetContext(reqCtx).
		SetPathParam(r.pathKey, r.pathVal).
		SetQueryParams(r.query).
		Get(r.path)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode(), Body: truncate(resp.String(), 200)}
	}
	return resp.Body(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
