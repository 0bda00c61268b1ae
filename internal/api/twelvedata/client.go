// Package twelvedata implements the market data source on top of the
// Twelve Data time_series API.
package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/ictoracle/trading/internal/cache"
	"github.com/ictoracle/trading/models"
)

const baseURL = "https://api.twelvedata.com/time_series"

// ClientOptions configures a Client.
type ClientOptions struct {
	APIKey         string
	Symbol         string
	Interval       string
	RequestTimeout time.Duration
	RequestsPerSec int
	CacheTTL       time.Duration // 0 disables caching
}

// Client fetches candles with rate limiting, retries, and a short-TTL cache
// for live lookups.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	opts       ClientOptions
	cache      *cache.TTLCache
	baseURL    string
	logger     zerolog.Logger
}

// NewClient creates a new API client with rate limiting.
func NewClient(opts ClientOptions) *Client {
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 5
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.RequestTimeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), opts.RequestsPerSec),
		opts:       opts,
		cache:      cache.New(),
		baseURL:    baseURL,
		logger:     log.With().Str("component", "api_client").Logger(),
	}
}

// GetCandles returns the most recent candles, oldest first. Results are
// cached for the configured TTL, keyed by symbol, interval, and size.
func (c *Client) GetCandles(ctx context.Context, count int) ([]models.Candle, error) {
	key := fmt.Sprintf("%s|%s|%d", c.opts.Symbol, c.opts.Interval, count)
	if c.opts.CacheTTL > 0 {
		if v, ok := c.cache.Get(key); ok {
			return v.([]models.Candle), nil
		}
	}

	candles, err := c.fetch(ctx, count)
	if err != nil {
		return nil, err
	}

	if c.opts.CacheTTL > 0 {
		c.cache.Set(key, candles, c.opts.CacheTTL)
	}
	return candles, nil
}

// GetHistoricalCandles returns enough candles to cover the given number of
// days for backtesting. The cache is deliberately bypassed: a backtest window
// must never be assembled from data cached for a different request.
func (c *Client) GetHistoricalCandles(ctx context.Context, days int) ([]models.Candle, error) {
	outputSize := models.CandlesForBacktest(c.opts.Interval, days)
	c.logger.Debug().Int("days", days).Int("outputSize", outputSize).
		Msg("Fetching historical candles for backtesting")
	return c.fetch(ctx, outputSize)
}

// GetLatestQuote returns the current price and its percent change vs the
// previous close.
func (c *Client) GetLatestQuote(ctx context.Context) (*models.Quote, error) {
	candles, err := c.GetCandles(ctx, 2)
	if err != nil {
		return nil, err
	}
	if len(candles) < 1 {
		return nil, fmt.Errorf("%w: empty candle response", models.ErrDataUnavailable)
	}

	last := candles[len(candles)-1]
	quote := &models.Quote{
		Symbol:    c.opts.Symbol,
		Price:     last.Close,
		Timestamp: last.Timestamp,
	}
	if len(candles) >= 2 {
		prev := candles[len(candles)-2]
		if prev.Close != 0 {
			quote.ChangePct = (last.Close - prev.Close) / prev.Close * 100
		}
	}
	return quote, nil
}

func (c *Client) fetch(ctx context.Context, outputSize int) ([]models.Candle, error) {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	url := fmt.Sprintf(
		"%s?symbol=%s&interval=%s&outputsize=%d&apikey=%s",
		c.baseURL, c.opts.Symbol, c.opts.Interval, outputSize, c.opts.APIKey,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Use exponential backoff for retries
	var resp *http.Response
	operation := func() error {
		var err error
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("non-200 status code: %d", resp.StatusCode)
		}
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = c.opts.RequestTimeout

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return nil, fmt.Errorf("%w: after retries: %v", models.ErrDataUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", models.ErrDataUnavailable, err)
	}

	if strings.Contains(string(body), `"status":"error"`) {
		c.logger.Error().Str("response", string(body)).Msg("Twelve Data API error")
		return nil, fmt.Errorf("%w: upstream error response", models.ErrDataUnavailable)
	}

	var data models.TwelveResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, fmt.Errorf("%w: parsing JSON: %v", models.ErrDataUnavailable, err)
	}

	if len(data.Values) == 0 {
		c.logger.Warn().Str("response", string(body)).Msg("No candles in response")
		return nil, fmt.Errorf("%w: empty data returned", models.ErrDataUnavailable)
	}

	candles := make([]models.Candle, 0, len(data.Values))
	for _, v := range data.Values {
		ts, err := parseDatetime(v.Datetime)
		if err != nil {
			c.logger.Warn().Str("datetime", v.Datetime).Msg("Skipping candle with unparseable timestamp")
			continue
		}
		candles = append(candles, models.Candle{
			Timestamp: ts,
			Open:      v.Open,
			High:      v.High,
			Low:       v.Low,
			Close:     v.Close,
			Volume:    v.Volume,
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: no usable candles", models.ErrDataUnavailable)
	}

	// Sort candles oldest first for proper calculations
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})

	c.logger.Debug().Int("count", len(candles)).Msg("Fetched candles")
	return candles, nil
}

// parseDatetime accepts the two timestamp shapes Twelve Data emits.
func parseDatetime(s string) (time.Time, error) {
	if ts, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse("2006-01-02", s); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339, s)
}
