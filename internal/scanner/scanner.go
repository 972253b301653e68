// Package scanner drives the fetch-evaluate-gate-notify cycle. One Scanner
// owns one poll loop, one cooldown gate and one detector set; independent
// loops (the candle scanner and the book heatmap scanner) run as separate
// Scanner instances that share nothing mutable.
package scanner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sentinel/internal/detect"
	"sentinel/internal/gate"
	"sentinel/internal/journal"
	"sentinel/internal/metrics"
	"sentinel/internal/universe"
	"sentinel/models"
)

// Options wires one scan loop.
type Options struct {
	Name          string // loop label for logs and metrics
	Interval      string // candle timeframe
	KlineLimit    int
	DepthLimit    int           // 0 disables order-book fetching
	ScanEvery     time.Duration // sleep between cycles
	UniverseRetry time.Duration // sleep after a universe-level failure
}

type Scanner struct {
	opts      Options
	market    models.MarketData
	notifier  models.Notifier
	gate      *gate.Gate
	detectors []detect.Detector
	filter    *universe.Filter
	journal   *journal.Journal // optional
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	running atomic.Bool
	now     func() time.Time
}

func New(opts Options, market models.MarketData, notifier models.Notifier, g *gate.Gate,
	detectors []detect.Detector, filter *universe.Filter, jrnl *journal.Journal, m *metrics.Metrics) *Scanner {
	return &Scanner{
		opts:      opts,
		market:    market,
		notifier:  notifier,
		gate:      g,
		detectors: detectors,
		filter:    filter,
		journal:   jrnl,
		metrics:   m,
		logger:    log.With().Str("component", "scanner").Str("loop", opts.Name).Logger(),
		now:       time.Now,
	}
}

// Run executes cycles until ctx is cancelled. A universe-level failure
// shortens the sleep to UniverseRetry; per-symbol failures never abort a
// cycle.
func (s *Scanner) Run(ctx context.Context) {
	s.logger.Info().Dur("every", s.opts.ScanEvery).Msg("scan loop started")
	for {
		sleep := s.opts.ScanEvery
		if err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				s.logger.Info().Msg("scan loop stopped")
				return
			}
			s.logger.Error().Err(err).Msg("cycle aborted")
			sleep = s.opts.UniverseRetry
		}

		select {
		case <-ctx.Done():
			s.logger.Info().Msg("scan loop stopped")
			return
		case <-time.After(sleep):
		}
	}
}

// RunCycle performs one full pass over the universe. The running flag keeps
// a long cycle from overlapping the next one.
func (s *Scanner) RunCycle(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn().Msg("previous cycle still in progress, skipping")
		return nil
	}
	defer s.running.Store(false)

	start := s.now()

	pool, err := s.universe(ctx)
	if err != nil {
		s.metrics.FetchErrors.WithLabelValues(s.opts.Name, "universe").Inc()
		return fmt.Errorf("universe fetch: %w", err)
	}
	s.logger.Info().Int("symbols", len(pool)).Msg("cycle started")

	for _, sym := range pool {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.scanSymbol(ctx, sym); err != nil {
			s.metrics.FetchErrors.WithLabelValues(s.opts.Name, "symbol").Inc()
			s.logger.Warn().Err(err).Str("symbol", sym).Msg("symbol skipped")
			continue
		}
		s.metrics.SymbolsScanned.WithLabelValues(s.opts.Name).Inc()
	}

	s.metrics.CyclesTotal.WithLabelValues(s.opts.Name).Inc()
	s.metrics.CycleDuration.WithLabelValues(s.opts.Name).Observe(time.Since(start).Seconds())
	s.logger.Info().Dur("took", time.Since(start)).Msg("cycle finished")
	return nil
}

func (s *Scanner) universe(ctx context.Context) ([]string, error) {
	info, err := s.market.ExchangeInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("exchange info: %w", err)
	}
	tickers, err := s.market.Ticker24h(ctx)
	if err != nil {
		return nil, fmt.Errorf("24h ticker: %w", err)
	}
	return s.filter.Pool(info, tickers), nil
}

func (s *Scanner) scanSymbol(ctx context.Context, sym string) error {
	candles, err := s.market.Klines(ctx, sym, s.opts.Interval, s.opts.KlineLimit)
	if err != nil {
		return fmt.Errorf("klines: %w", err)
	}
	// The newest candle is still forming; every rule runs on closed bars.
	if len(candles) < 2 {
		return nil
	}
	closed := candles[:len(candles)-1]

	var book *models.OrderBook
	if s.opts.DepthLimit > 0 {
		book, err = s.market.Depth(ctx, sym, s.opts.DepthLimit)
		if err != nil {
			return fmt.Errorf("depth: %w", err)
		}
	}

	snap := models.Snapshot{Symbol: sym, Candles: closed, Book: book}
	for _, d := range s.detectors {
		sig := d.Evaluate(snap)
		if sig.Kind == models.SignalNone {
			continue
		}
		s.metrics.SignalsTotal.WithLabelValues(d.Name()).Inc()
		s.emit(ctx, sig)
	}
	return nil
}

// emit runs a candidate signal through the gate and, when accepted,
// formats and delivers it. Delivery failure loses the alert (at most
// once); the gate entry stays recorded either way.
func (s *Scanner) emit(ctx context.Context, sig models.Signal) {
	side := sig.Kind.Side()
	now := s.now()

	if !s.gate.MayEmit(sig.Symbol, side, now) {
		s.metrics.CooldownSuppressed.WithLabelValues(s.opts.Name).Inc()
		s.logger.Debug().Str("symbol", sig.Symbol).Str("kind", string(sig.Kind)).Msg("suppressed by cooldown")
		return
	}

	text := FormatAlert(sig, s.opts.Interval)
	if err := s.notifier.Send(ctx, text); err != nil {
		s.logger.Warn().Err(err).Str("symbol", sig.Symbol).Msg("alert delivery failed")
	} else {
		s.metrics.AlertsSent.WithLabelValues(s.opts.Name).Inc()
		s.logger.Info().Str("symbol", sig.Symbol).Str("kind", string(sig.Kind)).Float64("strength", sig.Strength).Msg("alert sent")
	}

	if s.journal != nil {
		alert := models.Alert{
			Symbol:   sig.Symbol,
			Kind:     sig.Kind,
			Side:     side,
			Price:    sig.Price,
			Strength: sig.Strength,
			SentAt:   now,
		}
		if err := s.journal.Record(ctx, alert); err != nil {
			s.logger.Warn().Err(err).Str("symbol", sig.Symbol).Msg("journal write failed")
		}
	}
}

// FormatAlert renders one signal as the plain-text message that reaches
// the notification channel. Fields are sorted so the output is stable.
func FormatAlert(sig models.Signal, interval string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", marker(sig.Kind), sig.Kind)
	fmt.Fprintf(&b, "%s\n\n", sig.Symbol)
	fmt.Fprintf(&b, "Timeframe: %s\n", interval)
	fmt.Fprintf(&b, "Price: %.6f\n", sig.Price)
	fmt.Fprintf(&b, "Strength: %.0f/100\n", sig.Strength)

	keys := make([]string, 0, len(sig.Fields))
	for k := range sig.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %.4f\n", k, sig.Fields[k])
	}
	return b.String()
}

func marker(kind models.SignalKind) string {
	switch kind {
	case models.SignalBottom:
		return "🟩"
	case models.SignalTrendUp, models.SignalClusterUp:
		return "🟢"
	case models.SignalTrendDown, models.SignalClusterDown:
		return "🔴"
	default:
		return "ℹ️"
	}
}
