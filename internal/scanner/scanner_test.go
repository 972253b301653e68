package scanner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"sentinel/internal/detect"
	"sentinel/internal/gate"
	"sentinel/internal/metrics"
	"sentinel/internal/universe"
	"sentinel/models"
)

type fakeMarket struct {
	info       []models.SymbolInfo
	tickers    []models.Ticker24h
	candles    map[string][]models.Candle
	failKlines map[string]bool
	failInfo   bool
}

func (f *fakeMarket) ExchangeInfo(context.Context) ([]models.SymbolInfo, error) {
	if f.failInfo {
		return nil, errors.New("exchange unavailable")
	}
	return f.info, nil
}

func (f *fakeMarket) Ticker24h(context.Context) ([]models.Ticker24h, error) {
	return f.tickers, nil
}

func (f *fakeMarket) Klines(_ context.Context, symbol, _ string, _ int) ([]models.Candle, error) {
	if f.failKlines[symbol] {
		return nil, errors.New("timeout")
	}
	return f.candles[symbol], nil
}

func (f *fakeMarket) Depth(context.Context, string, int) (*models.OrderBook, error) {
	return &models.OrderBook{
		Bids: []models.BookLevel{{Price: 99, Qty: 1}},
		Asks: []models.BookLevel{{Price: 101, Qty: 1}},
	}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (f *fakeNotifier) Send(_ context.Context, text string) error {
	if f.fail {
		return errors.New("delivery down")
	}
	f.mu.Lock()
	f.sent = append(f.sent, text)
	f.mu.Unlock()
	return nil
}

// alwaysSignal fires an UP signal for one fixed symbol and records the
// snapshots it saw.
type alwaysSignal struct {
	symbol string
	seen   []models.Snapshot
}

func (d *alwaysSignal) Name() string { return "stub" }

func (d *alwaysSignal) Evaluate(snap models.Snapshot) models.Signal {
	d.seen = append(d.seen, snap)
	if snap.Symbol != d.symbol {
		return models.Signal{Symbol: snap.Symbol, Kind: models.SignalNone}
	}
	return models.Signal{
		Symbol:   snap.Symbol,
		Kind:     models.SignalTrendUp,
		Strength: 80,
		Price:    100,
		Fields:   map[string]float64{"rsi": 55},
	}
}

func testCandles(n int) []models.Candle {
	cs := make([]models.Candle, n)
	for i := range cs {
		cs[i] = models.Candle{OpenTime: int64(i), Open: 100, High: 101, Low: 99, Close: 100, Volume: 10}
	}
	return cs
}

func testMarket() *fakeMarket {
	sym := func(s, base string) models.SymbolInfo {
		return models.SymbolInfo{Symbol: s, Status: "TRADING", BaseAsset: base, QuoteAsset: "USDT", IsSpotTradingAllowed: true}
	}
	return &fakeMarket{
		info: []models.SymbolInfo{sym("BTCUSDT", "BTC"), sym("ETHUSDT", "ETH")},
		tickers: []models.Ticker24h{
			{Symbol: "BTCUSDT", QuoteVolume: 100},
			{Symbol: "ETHUSDT", QuoteVolume: 50},
		},
		candles: map[string][]models.Candle{
			"BTCUSDT": testCandles(30),
			"ETHUSDT": testCandles(30),
		},
		failKlines: map[string]bool{},
	}
}

func testScanner(market models.MarketData, notifier models.Notifier, dets []detect.Detector, cooldown time.Duration) *Scanner {
	opts := Options{
		Name:          "test",
		Interval:      "5m",
		KlineLimit:    30,
		ScanEvery:     time.Second,
		UniverseRetry: time.Millisecond,
	}
	filter := &universe.Filter{QuoteAsset: "USDT", MinQuoteVolume: 0}
	m := metrics.New(prometheus.NewRegistry())
	return New(opts, market, notifier, gate.New(cooldown), dets, filter, nil, m)
}

func TestCycleEmitsAndCooldownSuppresses(t *testing.T) {
	notifier := &fakeNotifier{}
	det := &alwaysSignal{symbol: "BTCUSDT"}
	s := testScanner(testMarket(), notifier, []detect.Detector{det}, 30*time.Minute)

	base := time.Now()
	s.now = func() time.Time { return base }

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("sent %d alerts, want 1", len(notifier.sent))
	}
	if !strings.Contains(notifier.sent[0], "BTCUSDT") || !strings.Contains(notifier.sent[0], "TREND_UP") {
		t.Errorf("unexpected alert text:\n%s", notifier.sent[0])
	}

	// Same signal a minute later stays inside the cooldown window.
	s.now = func() time.Time { return base.Add(time.Minute) }
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("second cycle failed: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("sent %d alerts after second cycle, want still 1", len(notifier.sent))
	}

	// Past the cooldown it re-alerts.
	s.now = func() time.Time { return base.Add(31 * time.Minute) }
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("third cycle failed: %v", err)
	}
	if len(notifier.sent) != 2 {
		t.Errorf("sent %d alerts after cooldown expiry, want 2", len(notifier.sent))
	}
}

func TestSymbolFailureDoesNotAbortCycle(t *testing.T) {
	market := testMarket()
	market.failKlines["BTCUSDT"] = true // BTC sorts first, fails first

	notifier := &fakeNotifier{}
	det := &alwaysSignal{symbol: "ETHUSDT"}
	s := testScanner(market, notifier, []detect.Detector{det}, time.Minute)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("sent %d alerts, want 1 from the surviving symbol", len(notifier.sent))
	}
}

func TestUniverseFailureAbortsCycle(t *testing.T) {
	market := testMarket()
	market.failInfo = true

	notifier := &fakeNotifier{}
	s := testScanner(market, notifier, nil, time.Minute)

	if err := s.RunCycle(context.Background()); err == nil {
		t.Error("universe failure should abort the cycle with an error")
	}
	if len(notifier.sent) != 0 {
		t.Errorf("sent %d alerts, want 0", len(notifier.sent))
	}
}

func TestProvisionalCandleDropped(t *testing.T) {
	market := testMarket()
	det := &alwaysSignal{symbol: "none"}
	s := testScanner(market, &fakeNotifier{}, []detect.Detector{det}, time.Minute)

	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}
	if len(det.seen) == 0 {
		t.Fatal("detector never invoked")
	}
	for _, snap := range det.seen {
		if len(snap.Candles) != 29 {
			t.Errorf("detector saw %d candles, want 29 (last bar dropped)", len(snap.Candles))
		}
	}
}

func TestDeliveryFailureStillRecordsGateEntry(t *testing.T) {
	notifier := &fakeNotifier{fail: true}
	det := &alwaysSignal{symbol: "BTCUSDT"}
	s := testScanner(testMarket(), notifier, []detect.Detector{det}, 30*time.Minute)

	base := time.Now()
	s.now = func() time.Time { return base }
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	// Delivery recovers, but the gate already consumed the emission.
	notifier.fail = false
	s.now = func() time.Time { return base.Add(time.Minute) }
	if err := s.RunCycle(context.Background()); err != nil {
		t.Fatalf("second cycle failed: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("sent %d alerts, want 0: the lost alert must not be replayed inside the cooldown", len(notifier.sent))
	}
}

func TestFormatAlertStableFieldOrder(t *testing.T) {
	sig := models.Signal{
		Symbol:   "BTCUSDT",
		Kind:     models.SignalBottom,
		Strength: 70,
		Price:    91,
		Fields:   map[string]float64{"vol_ratio": 3.1, "drop_pct": 9.4, "range_pct": 0.9},
	}

	first := FormatAlert(sig, "1h")
	for i := 0; i < 10; i++ {
		if FormatAlert(sig, "1h") != first {
			t.Fatal("alert text is not deterministic")
		}
	}
	if !strings.Contains(first, "drop_pct: 9.4") {
		t.Errorf("missing field line in:\n%s", first)
	}
	if !strings.Contains(first, "Timeframe: 1h") {
		t.Errorf("missing timeframe line in:\n%s", first)
	}
}

func TestLoopsKeepIndependentCooldowns(t *testing.T) {
	notifier := &fakeNotifier{}
	hourly := testScanner(testMarket(), notifier, []detect.Detector{&alwaysSignal{symbol: "BTCUSDT"}}, 30*time.Minute)
	daily := testScanner(testMarket(), notifier, []detect.Detector{&alwaysSignal{symbol: "BTCUSDT"}}, 12*time.Hour)

	if err := hourly.RunCycle(context.Background()); err != nil {
		t.Fatalf("hourly cycle failed: %v", err)
	}
	if err := daily.RunCycle(context.Background()); err != nil {
		t.Fatalf("daily cycle failed: %v", err)
	}
	// Same symbol, same side, but each loop owns its own gate.
	if len(notifier.sent) != 2 {
		t.Errorf("sent %d alerts, want 2: loops must not share cooldown state", len(notifier.sent))
	}
}
