package detect

import (
	"sync"

	"sentinel/internal/indicator"
	"sentinel/models"
)

// ClusterConfig tunes the order-book dominance detector.
type ClusterConfig struct {
	DepthLevels    int     // levels inspected per side
	MaxDistancePct float64 // band around mid a cluster must sit in, percent
	MinNotional    float64 // floor below which a level is ignored
	DominanceRatio float64 // winning side must exceed the other by this factor
	DoubleConfirm  bool    // require the same side on two consecutive evaluations
}

func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		DepthLevels:    50,
		MaxDistancePct: 1.0,
		MinNotional:    50_000,
		DominanceRatio: 1.3,
		DoubleConfirm:  true,
	}
}

// Cluster locates the largest qualifying notional pocket on each book side
// and signals toward the heavier one: price tends to travel into the
// dominant liquidity, so an ask-side wall reads up, a bid-side wall reads
// down. With DoubleConfirm the first sighting of a side is only recorded;
// a repeat on the next evaluation emits. That memory is the detector's only
// state and is the reason Cluster instances must not be shared across
// loops.
type Cluster struct {
	cfg ClusterConfig

	mu      sync.Mutex
	pending map[string]models.Side
}

func NewCluster(cfg ClusterConfig) *Cluster {
	return &Cluster{
		cfg:     cfg,
		pending: make(map[string]models.Side),
	}
}

func (d *Cluster) Name() string { return "cluster" }

func (d *Cluster) Evaluate(snap models.Snapshot) models.Signal {
	book := snap.Book
	if book == nil {
		return none(snap.Symbol)
	}
	mid := book.Mid()
	if mid <= 0 {
		return none(snap.Symbol)
	}

	bidBest, bidOK := indicator.LargestNotional(book.Bids, d.cfg.DepthLevels, d.cfg.MaxDistancePct, mid, d.cfg.MinNotional)
	askBest, askOK := indicator.LargestNotional(book.Asks, d.cfg.DepthLevels, d.cfg.MaxDistancePct, mid, d.cfg.MinNotional)
	if !bidOK && !askOK {
		d.reset(snap.Symbol)
		return none(snap.Symbol)
	}

	var bidN, askN float64
	if bidOK {
		bidN = bidBest.Notional()
	}
	if askOK {
		askN = askBest.Notional()
	}

	var side models.Side
	var kind models.SignalKind
	var winner models.BookLevel
	switch {
	case askOK && (!bidOK || askN >= d.cfg.DominanceRatio*bidN):
		side, kind, winner = models.SideUp, models.SignalClusterUp, askBest
	case bidOK && (!askOK || bidN >= d.cfg.DominanceRatio*askN):
		side, kind, winner = models.SideDown, models.SignalClusterDown, bidBest
	default:
		// Both sides qualified but neither dominates.
		d.reset(snap.Symbol)
		return none(snap.Symbol)
	}

	if d.cfg.DoubleConfirm && !d.confirm(snap.Symbol, side) {
		return none(snap.Symbol)
	}

	dominance := 1.0
	if bidN+askN > 0 {
		dominance = winner.Notional() / (bidN + askN)
	}

	return models.Signal{
		Symbol:   snap.Symbol,
		Kind:     kind,
		Strength: clamp100(dominance * 100),
		Price:    mid,
		Fields: map[string]float64{
			"dominance":     dominance,
			"bid_notional":  bidN,
			"ask_notional":  askN,
			"cluster_price": winner.Price,
		},
	}
}

// confirm records the observed side and reports whether it matches the
// previous evaluation. Edge-triggered: a flip restarts the debounce.
func (d *Cluster) confirm(symbol string, side models.Side) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, ok := d.pending[symbol]
	d.pending[symbol] = side
	return ok && prev == side
}

func (d *Cluster) reset(symbol string) {
	d.mu.Lock()
	delete(d.pending, symbol)
	d.mu.Unlock()
}
