package indicator

import (
	"math"
	"testing"

	"sentinel/models"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestEMAConstantSeries(t *testing.T) {
	for _, period := range []int{1, 3, 9, 20} {
		series := make([]float64, 50)
		for i := range series {
			series[i] = 42.5
		}
		if got := EMA(series, period); !almostEqual(got, 42.5, 1e-9) {
			t.Errorf("EMA(const, %d) = %v, want 42.5", period, got)
		}
	}
}

func TestEMASentinels(t *testing.T) {
	if got := EMA(nil, 10); got != 0 {
		t.Errorf("EMA(empty) = %v, want 0", got)
	}
	if got := EMA([]float64{1, 2, 3}, 10); got != 3 {
		t.Errorf("EMA(short) = %v, want last value 3", got)
	}
}

func TestRSIMonotonicRising(t *testing.T) {
	series := make([]float64, 30)
	for i := range series {
		series[i] = 100 + float64(i)
	}
	got := RSI(series, 14)
	if got < 50 {
		t.Errorf("RSI(rising) = %v, want >= 50", got)
	}
	if !almostEqual(got, 100, 1e-9) {
		t.Errorf("RSI(strictly rising, no losses) = %v, want 100", got)
	}
}

func TestRSIMonotonicFalling(t *testing.T) {
	series := make([]float64, 30)
	for i := range series {
		series[i] = 100 - float64(i)
	}
	got := RSI(series, 14)
	if got > 50 {
		t.Errorf("RSI(falling) = %v, want <= 50", got)
	}
	if !almostEqual(got, 0, 1e-9) {
		t.Errorf("RSI(strictly falling, no gains) = %v, want 0", got)
	}
}

func TestRSIInsufficientData(t *testing.T) {
	if got := RSI([]float64{1, 2, 3}, 14); got != 50 {
		t.Errorf("RSI(short) = %v, want neutral sentinel 50", got)
	}
}

func TestSMA(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}
	got, ok := SMA(series, 3)
	if !ok || !almostEqual(got, 4, 1e-9) {
		t.Errorf("SMA = %v, %v, want 4, true", got, ok)
	}
	if _, ok := SMA(series, 6); ok {
		t.Error("SMA with short series reported ok")
	}
	if _, ok := SMA(series, 0); ok {
		t.Error("SMA with n=0 reported ok")
	}
}

func TestMACDInsufficientData(t *testing.T) {
	series := make([]float64, 20)
	line, sig, hist := MACD(series, 12, 26, 9)
	if line != 0 || sig != 0 || hist != 0 {
		t.Errorf("MACD(short) = %v, %v, %v, want all zeros", line, sig, hist)
	}
}

func TestMACDRisingSeriesPositive(t *testing.T) {
	series := make([]float64, 60)
	for i := range series {
		series[i] = 100 + float64(i)*0.5
	}
	line, _, hist := MACD(series, 12, 26, 9)
	if line <= 0 {
		t.Errorf("MACD line on rising series = %v, want > 0", line)
	}
	if hist < 0 {
		t.Errorf("MACD histogram on steadily rising series = %v, want >= 0", hist)
	}
}

func TestBollinger(t *testing.T) {
	series := make([]float64, 25)
	for i := range series {
		series[i] = 100
	}
	upper, middle, lower := Bollinger(series, 20, 2)
	if !almostEqual(upper, 100, 1e-9) || !almostEqual(middle, 100, 1e-9) || !almostEqual(lower, 100, 1e-9) {
		t.Errorf("Bollinger(const) = %v/%v/%v, want 100/100/100", upper, middle, lower)
	}

	upper, middle, lower = Bollinger([]float64{1, 2}, 20, 2)
	if upper != 2 || middle != 2 || lower != 2 {
		t.Errorf("Bollinger(short) = %v/%v/%v, want collapsed to last", upper, middle, lower)
	}
}

func TestImbalanceRatioSymmetry(t *testing.T) {
	bids := []models.BookLevel{{Price: 100, Qty: 3}, {Price: 99, Qty: 5}}
	asks := []models.BookLevel{{Price: 101, Qty: 2}, {Price: 102, Qty: 1}}

	r := ImbalanceRatio(bids, asks, 10)
	inv := ImbalanceRatio(asks, bids, 10)
	if r <= 0 || inv <= 0 {
		t.Fatalf("ratios should be positive, got %v and %v", r, inv)
	}
	if !almostEqual(r*inv, 1, 1e-9) {
		t.Errorf("ratio(bids,asks)*ratio(asks,bids) = %v, want 1", r*inv)
	}
}

func TestImbalanceRatioEmptySide(t *testing.T) {
	bids := []models.BookLevel{{Price: 100, Qty: 3}}
	if got := ImbalanceRatio(bids, nil, 10); got != 0 {
		t.Errorf("ImbalanceRatio(empty asks) = %v, want sentinel 0", got)
	}
}

func TestLargestNotional(t *testing.T) {
	mid := 100.0
	levels := []models.BookLevel{
		{Price: 99.9, Qty: 10},   // 999 notional, in band
		{Price: 99.5, Qty: 100},  // 9950 notional, in band
		{Price: 90.0, Qty: 1000}, // huge, but 10% away from mid
	}

	best, ok := LargestNotional(levels, 10, 1.0, mid, 500)
	if !ok {
		t.Fatal("expected a qualifying level")
	}
	if best.Price != 99.5 {
		t.Errorf("best level price = %v, want 99.5", best.Price)
	}

	// Floor excludes everything in band.
	if _, ok := LargestNotional(levels, 10, 1.0, mid, 50000); ok {
		t.Error("min notional floor should exclude all in-band levels")
	}

	// Depth cuts off before the qualifying level.
	if _, ok := LargestNotional(levels, 1, 1.0, mid, 5000); ok {
		t.Error("depth limit should exclude deeper levels")
	}

	if _, ok := LargestNotional(levels, 10, 1.0, 0, 0); ok {
		t.Error("non-positive mid should never qualify")
	}
}
