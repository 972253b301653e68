// Package exchange implements the Binance spot REST client behind
// models.MarketData. All calls are rate limited, carry a bounded timeout
// and retry transient failures with exponential backoff.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"sentinel/models"
)

const DefaultBaseURL = "https://api.binance.com"

type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	logger     zerolog.Logger
}

// New creates a Binance spot client. requestTimeout bounds each HTTP
// attempt; the limiter keeps the scanner well under Binance's request
// weight budget.
func New(baseURL string, requestTimeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second/10), 10), // 10 req/s burst 10
		baseURL:    baseURL,
		logger:     log.With().Str("component", "exchange").Logger(),
	}
}

// get performs one rate-limited GET with bounded retries and returns the
// response body. Binance reports errors as {"code":...,"msg":...} bodies,
// which are surfaced as errors rather than handed to the parsers.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var body []byte
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("non-200 status code: %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response body: %w", err)
		}
		return nil
	}

	strategy := backoff.NewExponentialBackOff()
	strategy.InitialInterval = 250 * time.Millisecond
	strategy.MaxElapsedTime = 10 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(strategy, ctx)); err != nil {
		return nil, fmt.Errorf("after retries: %w", err)
	}

	if code := gjson.GetBytes(body, "code"); code.Exists() && gjson.GetBytes(body, "msg").Exists() {
		c.logger.Error().Str("path", path).Str("response", string(body)).Msg("exchange API error")
		return nil, fmt.Errorf("exchange error %d: %s", code.Int(), gjson.GetBytes(body, "msg").String())
	}
	return body, nil
}

// ExchangeInfo returns the full symbol universe listing.
func (c *Client) ExchangeInfo(ctx context.Context) ([]models.SymbolInfo, error) {
	body, err := c.get(ctx, "/api/v3/exchangeInfo", nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Symbols []models.SymbolInfo `json:"symbols"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing exchangeInfo: %w", err)
	}
	if len(payload.Symbols) == 0 {
		return nil, fmt.Errorf("empty exchangeInfo response")
	}

	c.logger.Debug().Int("symbols", len(payload.Symbols)).Msg("fetched exchange info")
	return payload.Symbols, nil
}

// Ticker24h returns rolling 24-hour statistics for every market. The
// numeric fields arrive as strings and are parsed here.
func (c *Client) Ticker24h(ctx context.Context) ([]models.Ticker24h, error) {
	body, err := c.get(ctx, "/api/v3/ticker/24hr", nil)
	if err != nil {
		return nil, err
	}

	var raw []struct {
		Symbol             string `json:"symbol"`
		QuoteVolume        string `json:"quoteVolume"`
		PriceChangePercent string `json:"priceChangePercent"`
		LastPrice          string `json:"lastPrice"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing 24hr ticker: %w", err)
	}

	tickers := make([]models.Ticker24h, 0, len(raw))
	for _, t := range raw {
		qv, _ := strconv.ParseFloat(t.QuoteVolume, 64)
		pc, _ := strconv.ParseFloat(t.PriceChangePercent, 64)
		lp, _ := strconv.ParseFloat(t.LastPrice, 64)
		tickers = append(tickers, models.Ticker24h{
			Symbol:             t.Symbol,
			QuoteVolume:        qv,
			PriceChangePercent: pc,
			LastPrice:          lp,
		})
	}
	return tickers, nil
}

// Klines returns the candle series for a symbol, oldest first. The payload
// is a heterogeneous array per row, so fields are picked by position.
func (c *Client) Klines(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/api/v3/klines", params)
	if err != nil {
		return nil, err
	}

	rows := gjson.ParseBytes(body)
	if !rows.IsArray() {
		return nil, fmt.Errorf("unexpected klines response shape")
	}

	var candles []models.Candle
	for _, v := range rows.Array() {
		row := v.Array()
		if len(row) < 6 {
			return nil, fmt.Errorf("short klines row: %d fields", len(row))
		}
		candles = append(candles, models.Candle{
			OpenTime: row[0].Int(),
			Open:     row[1].Float(),
			High:     row[2].Float(),
			Low:      row[3].Float(),
			Close:    row[4].Float(),
			Volume:   row[5].Float(),
		})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("empty klines response")
	}
	return candles, nil
}

// Depth returns an order-book snapshot of the top limit levels per side.
func (c *Client) Depth(ctx context.Context, symbol string, limit int) (*models.OrderBook, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/api/v3/depth", params)
	if err != nil {
		return nil, err
	}

	parseSide := func(key string) []models.BookLevel {
		var levels []models.BookLevel
		for _, pair := range gjson.GetBytes(body, key).Array() {
			entry := pair.Array()
			if len(entry) < 2 {
				continue
			}
			levels = append(levels, models.BookLevel{
				Price: entry[0].Float(),
				Qty:   entry[1].Float(),
			})
		}
		return levels
	}

	book := &models.OrderBook{Bids: parseSide("bids"), Asks: parseSide("asks")}
	if len(book.Bids) == 0 && len(book.Asks) == 0 {
		return nil, fmt.Errorf("empty depth response")
	}
	return book, nil
}
