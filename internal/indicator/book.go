package indicator

import (
	"math"

	"sentinel/models"
)

// LargestNotional scans up to depth levels of one book side and returns the
// level carrying the greatest notional value among those within
// maxDistancePct of mid and at or above minNotional. ok is false when no
// level qualifies or mid is not positive.
func LargestNotional(levels []models.BookLevel, depth int, maxDistancePct, mid, minNotional float64) (models.BookLevel, bool) {
	if mid <= 0 {
		return models.BookLevel{}, false
	}
	if depth > len(levels) {
		depth = len(levels)
	}

	var best models.BookLevel
	found := false
	for _, lv := range levels[:depth] {
		if math.Abs(lv.Price-mid)/mid*100 > maxDistancePct {
			continue
		}
		n := lv.Notional()
		if n < minNotional {
			continue
		}
		if !found || n > best.Notional() {
			best = lv
			found = true
		}
	}
	return best, found
}

// ImbalanceRatio is the summed bid notional divided by the summed ask
// notional over the first depth levels of each side. Values above 1 mean
// the buy side is heavier. Returns 0 when the ask side sums to nothing
// (the defined sentinel for an undefined ratio).
func ImbalanceRatio(bids, asks []models.BookLevel, depth int) float64 {
	sum := func(side []models.BookLevel) float64 {
		n := depth
		if n > len(side) {
			n = len(side)
		}
		var total float64
		for _, lv := range side[:n] {
			total += lv.Notional()
		}
		return total
	}

	askTotal := sum(asks)
	if askTotal == 0 {
		return 0
	}
	return sum(bids) / askTotal
}
