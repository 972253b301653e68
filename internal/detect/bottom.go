package detect

import (
	"sentinel/internal/indicator"
	"sentinel/models"
)

// BottomConfig tunes the drop-then-base-then-breakout detector.
type BottomConfig struct {
	DropLookback        int     // candles to search for the recent high
	DropMinPct          float64 // minimum high-to-current drawdown, percent
	SidewaysLookback    int     // candles of the compression window
	SidewaysMaxRangePct float64 // max close range over the window, percent of last close
	TurnMinGreen        int     // consecutive rising closes required
	VolMAWindow         int     // volume moving-average window
	VolMinFactor        float64 // last volume must be >= factor * volume MA
}

// DefaultBottomConfig mirrors the production tuning: a ~7.5% drop over four
// hours of 5m candles, an hour of tight range, two green candles and a
// volume push.
func DefaultBottomConfig() BottomConfig {
	return BottomConfig{
		DropLookback:        48,
		DropMinPct:          7.5,
		SidewaysLookback:    12,
		SidewaysMaxRangePct: 1.2,
		TurnMinGreen:        2,
		VolMAWindow:         20,
		VolMinFactor:        1.2,
	}
}

// Bottom detects a capitulation bottom: a strong drop from the recent high,
// a short tight consolidation, then a turn of rising closes on elevated
// volume. All four conditions must hold at once.
type Bottom struct {
	cfg BottomConfig
}

func NewBottom(cfg BottomConfig) *Bottom {
	return &Bottom{cfg: cfg}
}

func (d *Bottom) Name() string { return "bottom" }

func (d *Bottom) Evaluate(snap models.Snapshot) models.Signal {
	candles := snap.Candles

	need := d.cfg.DropLookback
	if d.cfg.SidewaysLookback > need {
		need = d.cfg.SidewaysLookback
	}
	if d.cfg.VolMAWindow > need {
		need = d.cfg.VolMAWindow
	}
	need += d.cfg.TurnMinGreen + 1
	if len(candles) < need {
		return none(snap.Symbol)
	}

	closes := models.Closes(candles)
	highs := models.Highs(candles)
	lows := models.Lows(candles)
	vols := models.Volumes(candles)
	last := closes[len(closes)-1]
	if last <= 0 {
		return none(snap.Symbol)
	}

	// 1) Drawdown from the highest high of the lookback window.
	recentHigh := highs[len(highs)-d.cfg.DropLookback]
	for _, h := range highs[len(highs)-d.cfg.DropLookback:] {
		if h > recentHigh {
			recentHigh = h
		}
	}
	if recentHigh <= 0 {
		return none(snap.Symbol)
	}
	dropPct := (recentHigh - last) / recentHigh * 100
	if dropPct < d.cfg.DropMinPct {
		return none(snap.Symbol)
	}

	// 2) Compression: close range over the short window, as % of last close.
	swWindow := closes[len(closes)-d.cfg.SidewaysLookback:]
	swMax, swMin := swWindow[0], swWindow[0]
	for _, c := range swWindow {
		if c > swMax {
			swMax = c
		}
		if c < swMin {
			swMin = c
		}
	}
	rangePct := (swMax - swMin) / last * 100
	if rangePct > d.cfg.SidewaysMaxRangePct {
		return none(snap.Symbol)
	}

	// 3) Turn: the last TurnMinGreen closes each rose over the prior close.
	for i := 1; i <= d.cfg.TurnMinGreen; i++ {
		if closes[len(closes)-i] <= closes[len(closes)-i-1] {
			return none(snap.Symbol)
		}
	}

	// 4) Volume push against the moving average.
	volMA, ok := indicator.SMA(vols, d.cfg.VolMAWindow)
	if !ok || volMA <= 0 {
		return none(snap.Symbol)
	}
	lastVol := vols[len(vols)-1]
	if lastVol < d.cfg.VolMinFactor*volMA {
		return none(snap.Symbol)
	}
	volRatio := lastVol / volMA

	swingLow := lows[len(lows)-d.cfg.SidewaysLookback]
	swingHigh := highs[len(highs)-d.cfg.SidewaysLookback]
	for i := len(candles) - d.cfg.SidewaysLookback; i < len(candles); i++ {
		if lows[i] < swingLow {
			swingLow = lows[i]
		}
		if highs[i] > swingHigh {
			swingHigh = highs[i]
		}
	}

	return models.Signal{
		Symbol:   snap.Symbol,
		Kind:     models.SignalBottom,
		Strength: clamp100(dropPct*3 + volRatio*10),
		Price:    last,
		Fields: map[string]float64{
			"drop_pct":   dropPct,
			"range_pct":  rangePct,
			"vol_ratio":  volRatio,
			"swing_low":  swingLow,
			"swing_high": swingHigh,
		},
	}
}
