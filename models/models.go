package models

import "time"

// Candle represents a single price candle. Series are ordered oldest first;
// the newest element of a freshly fetched series may still be forming and is
// treated as provisional by callers.
type Candle struct {
	OpenTime int64   `json:"open_time"` // unix milliseconds
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// Closes extracts the close series from a candle window.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts the high series from a candle window.
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts the low series from a candle window.
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

// Volumes extracts the volume series from a candle window.
func Volumes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// BookLevel is a single price+quantity entry on one side of an order book.
type BookLevel struct {
	Price float64
	Qty   float64
}

// Notional returns the monetary value of the level in quote currency.
func (l BookLevel) Notional() float64 {
	return l.Price * l.Qty
}

// OrderBook is a full snapshot of the top levels of both book sides.
// Bids are ordered by descending price, asks by ascending price.
type OrderBook struct {
	Bids []BookLevel
	Asks []BookLevel
}

// Mid returns the midpoint between best bid and best ask, or 0 when either
// side is empty.
func (b *OrderBook) Mid() float64 {
	if len(b.Bids) == 0 || len(b.Asks) == 0 {
		return 0
	}
	return (b.Bids[0].Price + b.Asks[0].Price) / 2
}

// SymbolInfo describes one instrument from the exchange universe listing.
type SymbolInfo struct {
	Symbol               string `json:"symbol"`
	Status               string `json:"status"`
	BaseAsset            string `json:"baseAsset"`
	QuoteAsset           string `json:"quoteAsset"`
	IsSpotTradingAllowed bool   `json:"isSpotTradingAllowed"`
}

// Ticker24h is one instrument's rolling 24-hour statistics. Numeric fields
// arrive as strings on the wire and are parsed by the exchange client.
type Ticker24h struct {
	Symbol             string
	QuoteVolume        float64
	PriceChangePercent float64
	LastPrice          float64
}

// Side is the direction attached to an emitted alert.
type Side string

const (
	SideUp   Side = "UP"
	SideDown Side = "DOWN"
)

// SignalKind tags the detection family and direction of a signal.
type SignalKind string

const (
	SignalNone        SignalKind = "NONE"
	SignalBottom      SignalKind = "BOTTOM"
	SignalTrendUp     SignalKind = "TREND_UP"
	SignalTrendDown   SignalKind = "TREND_DOWN"
	SignalClusterUp   SignalKind = "CLUSTER_UP"
	SignalClusterDown SignalKind = "CLUSTER_DOWN"
)

// Side maps a signal kind to its alert direction. Bottom detections are
// buy-side by definition.
func (k SignalKind) Side() Side {
	switch k {
	case SignalTrendDown, SignalClusterDown:
		return SideDown
	default:
		return SideUp
	}
}

// Snapshot is everything a detector sees for one symbol on one evaluation:
// the closed candle window (provisional candle already dropped) and, when
// the owning loop fetches depth, an order-book snapshot.
type Snapshot struct {
	Symbol  string
	Candles []Candle
	Book    *OrderBook
}

// Signal is the outcome of one detector evaluation. Kind SignalNone means
// no condition held; Fields carry the numeric values that justified the
// detection and end up verbatim in the alert text.
type Signal struct {
	Symbol   string
	Kind     SignalKind
	Strength float64 // 0-100
	Price    float64
	Fields   map[string]float64
}

// Alert is one accepted, formatted notification, as persisted by the
// journal.
type Alert struct {
	Symbol   string
	Kind     SignalKind
	Side     Side
	Price    float64
	Strength float64
	SentAt   time.Time
}
