package detect

import (
	"sentinel/internal/indicator"
	"sentinel/models"
)

// OversoldConfig tunes the RSI + lower-band detector.
type OversoldConfig struct {
	RSIPeriod int
	RSIMax    float64 // RSI must be strictly below this
	BBPeriod  int
	BBStdDev  float64
}

func DefaultOversoldConfig() OversoldConfig {
	return OversoldConfig{
		RSIPeriod: 14,
		RSIMax:    35,
		BBPeriod:  20,
		BBStdDev:  2.0,
	}
}

// Oversold fires when RSI sits under the cutoff while the close is at or
// below the lower Bollinger band. Both legs must hold; either sentinel
// (neutral RSI, collapsed bands) makes the condition unreachable on short
// history.
type Oversold struct {
	cfg OversoldConfig
}

func NewOversold(cfg OversoldConfig) *Oversold {
	return &Oversold{cfg: cfg}
}

func (d *Oversold) Name() string { return "oversold" }

func (d *Oversold) Evaluate(snap models.Snapshot) models.Signal {
	closes := models.Closes(snap.Candles)
	if len(closes) < d.cfg.RSIPeriod+1 || len(closes) < d.cfg.BBPeriod {
		return none(snap.Symbol)
	}

	rsi := indicator.RSI(closes, d.cfg.RSIPeriod)
	if rsi >= d.cfg.RSIMax {
		return none(snap.Symbol)
	}

	last := closes[len(closes)-1]
	_, _, lower := indicator.Bollinger(closes, d.cfg.BBPeriod, d.cfg.BBStdDev)
	if last > lower {
		return none(snap.Symbol)
	}

	return models.Signal{
		Symbol:   snap.Symbol,
		Kind:     models.SignalBottom,
		Strength: clamp100((d.cfg.RSIMax - rsi) / d.cfg.RSIMax * 100),
		Price:    last,
		Fields: map[string]float64{
			"rsi":      rsi,
			"bb_lower": lower,
		},
	}
}
