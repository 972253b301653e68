// Package universe narrows the exchange's full symbol listing down to the
// pool the scanner actually watches.
package universe

import (
	"sort"
	"strings"

	"sentinel/models"
)

// Fiat, stablecoin and wrapped-collateral bases that are never worth
// scanning against USDT.
var blockedBases = map[string]struct{}{
	"EUR": {}, "BRL": {}, "TRY": {}, "GBP": {}, "AUD": {}, "CAD": {},
	"CHF": {}, "RUB": {}, "MXN": {}, "ZAR": {}, "BKRW": {}, "BVND": {},
	"IDRT": {}, "FDUSD": {}, "BUSD": {}, "TUSD": {}, "USDC": {},
	"USDP": {}, "USDE": {}, "USDD": {}, "USDX": {}, "USDJ": {},
	"PAXG": {}, "BFUSD": {},
}

// Leveraged-token suffixes; BTCUP, ETHDOWN and friends are synthetic and
// trip every volatility heuristic.
var leveragedSuffixes = []string{"UP", "DOWN", "BULL", "BEAR"}

// Meme families, relisted "OLD"/"NEW" tickers and wrapped synthetics. Any
// base containing one of these is skipped.
var defaultJunkSubstrings = []string{
	"INU", "PEPE", "FLOKI", "BABY", "CAT", "DOGE2", "SHIB2", "MOON",
	"MEME", "OLD", "NEW", "PUP", "PUPPY", "TURBO", "WIF", "AI",
	"USD1", "FUSD", "WLF", "HEDGE",
}

// DefaultJunkSubstrings returns a copy of the built-in junk list, for
// callers that extend it with deployment-specific patterns.
func DefaultJunkSubstrings() []string {
	return append([]string(nil), defaultJunkSubstrings...)
}

// Filter selects tradable symbols: active, matching the quote asset, base
// not blocklisted, and above the 24h quote-volume floor.
type Filter struct {
	QuoteAsset     string
	MinQuoteVolume float64
	JunkSubstrings []string // nil means DefaultJunkSubstrings
}

// Pool returns the filtered symbol list, ordered by descending 24h quote
// volume with the symbol name as tiebreak. The ordering is deterministic so
// every cycle walks the universe the same way.
func (f *Filter) Pool(info []models.SymbolInfo, tickers []models.Ticker24h) []string {
	volumes := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		volumes[t.Symbol] = t.QuoteVolume
	}

	var pool []string
	for _, s := range info {
		if !f.admit(s, volumes[s.Symbol]) {
			continue
		}
		pool = append(pool, s.Symbol)
	}

	sort.Slice(pool, func(i, j int) bool {
		vi, vj := volumes[pool[i]], volumes[pool[j]]
		if vi != vj {
			return vi > vj
		}
		return pool[i] < pool[j]
	})
	return pool
}

func (f *Filter) admit(s models.SymbolInfo, quoteVolume float64) bool {
	if s.Status != "TRADING" || !s.IsSpotTradingAllowed {
		return false
	}
	if s.QuoteAsset != f.QuoteAsset {
		return false
	}

	base := strings.ToUpper(s.BaseAsset)
	if _, blocked := blockedBases[base]; blocked {
		return false
	}
	for _, suffix := range leveragedSuffixes {
		// len check keeps short tickers like "UP" itself from matching
		// every symbol ending in those letters by accident.
		if len(base) > len(suffix) && strings.HasSuffix(base, suffix) {
			return false
		}
	}
	junk := f.JunkSubstrings
	if junk == nil {
		junk = defaultJunkSubstrings
	}
	for _, j := range junk {
		if strings.Contains(base, j) {
			return false
		}
	}

	return quoteVolume >= f.MinQuoteVolume
}
