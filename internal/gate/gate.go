// Package gate implements the per-symbol cooldown that keeps the scanner
// from re-alerting the same condition. State lives in memory for the
// process lifetime; each poll loop owns its own Gate instance.
package gate

import (
	"sync"
	"time"

	"sentinel/models"
)

type entry struct {
	last time.Time
	side models.Side
}

// Gate maps symbol to last-alert metadata and enforces the minimum
// re-alert interval.
type Gate struct {
	mu       sync.Mutex
	cooldown time.Duration
	entries  map[string]entry
}

func New(cooldown time.Duration) *Gate {
	return &Gate{
		cooldown: cooldown,
		entries:  make(map[string]entry),
	}
}

// MayEmit reports whether an alert for (symbol, side) is eligible at now
// and, when it is, records the emission in the same critical section. The
// first signal for a symbol always passes. A side change passes regardless
// of elapsed time and resets the cooldown: a reversal is new information.
// A repeat of the same side passes only once the cooldown has elapsed.
func (g *Gate) MayEmit(symbol string, side models.Side, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.entries[symbol]
	if ok && e.side == side && now.Sub(e.last) < g.cooldown {
		return false
	}
	g.entries[symbol] = entry{last: now, side: side}
	return true
}

// Len returns the number of symbols with recorded alert state.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
