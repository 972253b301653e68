package detect

import (
	"reflect"
	"testing"

	"sentinel/models"
)

func generateCandles(n int, generator func(i int) models.Candle) []models.Candle {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = generator(i)
		candles[i].OpenTime = int64(i) * 300_000
	}
	return candles
}

// bottomSeries builds the canonical capitulation shape: 40 flat candles,
// 8 declining to 90, 6 oscillating in 90.2-90.7, then 2 rising closes with
// a 3x volume push on the last one.
func bottomSeries() []models.Candle {
	oscillation := []float64{90.2, 90.6, 90.3, 90.7, 90.4, 90.2}
	return generateCandles(56, func(i int) models.Candle {
		c := models.Candle{Volume: 100}
		switch {
		case i < 40:
			c.Close = 100
		case i < 48:
			c.Close = 100 - float64(i-39)*1.25
		case i < 54:
			c.Close = oscillation[i-48]
		case i == 54:
			c.Close = 90.6
			c.Volume = 110
		default:
			c.Close = 91.0
			c.Volume = 360
		}
		c.High = c.Close + 0.5
		c.Low = c.Close - 0.5
		c.Open = c.Close
		return c
	})
}

func bottomTestConfig() BottomConfig {
	cfg := DefaultBottomConfig()
	cfg.SidewaysLookback = 8
	return cfg
}

func TestBottomDetectsCapitulation(t *testing.T) {
	d := NewBottom(bottomTestConfig())
	sig := d.Evaluate(models.Snapshot{Symbol: "TESTUSDT", Candles: bottomSeries()})

	if sig.Kind != models.SignalBottom {
		t.Fatalf("kind = %v, want BOTTOM", sig.Kind)
	}
	if drop := sig.Fields["drop_pct"]; drop < 8 || drop > 11 {
		t.Errorf("drop_pct = %v, want about 9.5", drop)
	}
	if rng := sig.Fields["range_pct"]; rng > 1.2 {
		t.Errorf("range_pct = %v, want under the 1.2 ceiling", rng)
	}
	if ratio := sig.Fields["vol_ratio"]; ratio < 2.5 {
		t.Errorf("vol_ratio = %v, want around 3", ratio)
	}
	if sig.Price != 91.0 {
		t.Errorf("price = %v, want last close 91.0", sig.Price)
	}
}

func TestBottomSubConditionsShortCircuit(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]models.Candle)
	}{
		{
			name: "no drawdown",
			mutate: func(cs []models.Candle) {
				// Flatten the prior high so the drop never happened.
				for i := 0; i < 48; i++ {
					cs[i].Close = 91
					cs[i].High = 91.5
					cs[i].Low = 90.5
				}
			},
		},
		{
			name: "no compression",
			mutate: func(cs []models.Candle) {
				cs[50].Close = 95 // one wide candle blows the range ceiling
				cs[50].High = 95.5
			},
		},
		{
			name: "no turn",
			mutate: func(cs []models.Candle) {
				cs[55].Close = 90.1 // last candle red
			},
		},
		{
			name: "no volume push",
			mutate: func(cs []models.Candle) {
				cs[55].Volume = 100
			},
		},
	}

	d := NewBottom(bottomTestConfig())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := bottomSeries()
			tt.mutate(cs)
			if sig := d.Evaluate(models.Snapshot{Symbol: "TESTUSDT", Candles: cs}); sig.Kind != models.SignalNone {
				t.Errorf("kind = %v, want NONE", sig.Kind)
			}
		})
	}
}

func TestBottomInsufficientHistory(t *testing.T) {
	d := NewBottom(DefaultBottomConfig())
	cs := bottomSeries()[:30]
	if sig := d.Evaluate(models.Snapshot{Symbol: "TESTUSDT", Candles: cs}); sig.Kind != models.SignalNone {
		t.Errorf("kind = %v, want NONE on short history", sig.Kind)
	}
}

func TestBottomIdempotent(t *testing.T) {
	d := NewBottom(bottomTestConfig())
	snap := models.Snapshot{Symbol: "TESTUSDT", Candles: bottomSeries()}
	first := d.Evaluate(snap)
	second := d.Evaluate(snap)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-evaluation differed:\n%+v\n%+v", first, second)
	}
}
