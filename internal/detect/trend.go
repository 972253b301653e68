package detect

import (
	"sentinel/internal/indicator"
	"sentinel/models"
)

// TrendConfig tunes the indicator-confluence detector.
type TrendConfig struct {
	EMAFast      int
	EMASlow      int
	MACDFast     int
	MACDSlow     int
	MACDSignal   int
	RSIPeriod    int
	BookDepth    int     // levels per side for the imbalance ratio
	BookRatioMin float64 // imbalance must reach this (or its inverse) to signal
	MinScore     float64 // minimum combined score to signal
}

func DefaultTrendConfig() TrendConfig {
	return TrendConfig{
		EMAFast:      9,
		EMASlow:      20,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,
		RSIPeriod:    14,
		BookDepth:    20,
		BookRatioMin: 1.5,
		MinScore:     50,
	}
}

// Trend scores EMA crossover, MACD, RSI band membership and book imbalance
// into a single 0-100 confluence value. Direction requires EMA and MACD to
// agree; a signal additionally needs the book leg and the minimum score.
//
// Fixed weights: EMA cross 15, MACD in agreement with rising histogram 25,
// RSI inside the working band 10, book dominance 50.
type Trend struct {
	cfg TrendConfig
}

func NewTrend(cfg TrendConfig) *Trend {
	return &Trend{cfg: cfg}
}

func (d *Trend) Name() string { return "trend" }

func (d *Trend) Evaluate(snap models.Snapshot) models.Signal {
	closes := models.Closes(snap.Candles)
	if len(closes) < d.cfg.MACDSlow+d.cfg.MACDSignal || len(closes) < d.cfg.RSIPeriod+1 {
		return none(snap.Symbol)
	}
	if snap.Book == nil {
		return none(snap.Symbol)
	}

	emaFast := indicator.EMA(closes, d.cfg.EMAFast)
	emaSlow := indicator.EMA(closes, d.cfg.EMASlow)
	line, _, hist := indicator.MACD(closes, d.cfg.MACDFast, d.cfg.MACDSlow, d.cfg.MACDSignal)
	rsi := indicator.RSI(closes, d.cfg.RSIPeriod)
	ratio := indicator.ImbalanceRatio(snap.Book.Bids, snap.Book.Asks, d.cfg.BookDepth)

	var kind models.SignalKind
	switch {
	case emaFast > emaSlow && line > 0:
		kind = models.SignalTrendUp
	case emaFast < emaSlow && line < 0:
		kind = models.SignalTrendDown
	default:
		return none(snap.Symbol)
	}
	up := kind == models.SignalTrendUp

	score := 15.0 // EMA cross granted by reaching here

	if (up && hist > 0) || (!up && hist < 0) {
		score += 25
	}

	if up && rsi >= 45 && rsi <= 70 {
		score += 10
	} else if !up && rsi >= 30 && rsi <= 55 {
		score += 10
	}

	bookLeg := false
	if up && ratio >= d.cfg.BookRatioMin {
		bookLeg = true
	} else if !up && ratio > 0 && ratio <= 1/d.cfg.BookRatioMin {
		bookLeg = true
	}
	if bookLeg {
		score += 50
	}

	score = clamp100(score)
	if !bookLeg || score < d.cfg.MinScore {
		return none(snap.Symbol)
	}

	return models.Signal{
		Symbol:   snap.Symbol,
		Kind:     kind,
		Strength: score,
		Price:    closes[len(closes)-1],
		Fields: map[string]float64{
			"rsi":        rsi,
			"macd_hist":  hist,
			"book_ratio": ratio,
			"ema_fast":   emaFast,
			"ema_slow":   emaSlow,
		},
	}
}
