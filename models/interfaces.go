package models

import "context"

// MarketData is the read-only exchange surface the scanner consumes.
type MarketData interface {
	ExchangeInfo(ctx context.Context) ([]SymbolInfo, error)
	Ticker24h(ctx context.Context) ([]Ticker24h, error)
	Klines(ctx context.Context, symbol, interval string, limit int) ([]Candle, error)
	Depth(ctx context.Context, symbol string, limit int) (*OrderBook, error)
}

// Notifier delivers one finished alert text. Delivery is best effort;
// callers log and drop on failure.
type Notifier interface {
	Send(ctx context.Context, text string) error
}
